// Package store defines the persistence boundary the ledger depends on.
// Every record is scoped to one owning user; lookups by id take the user id
// too so that one user can never read or mutate another user's records.
package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"mizan/internal/core"
)

var (
	// ErrNotFound is returned when a record does not exist for the user.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key (profile uid, transaction
	// source ref) is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// Ports for outbound persistence adapters.
type (
	ProfileStore interface {
		GetProfile(ctx context.Context, uid string) (core.UserProfile, error)
		CreateProfile(ctx context.Context, p core.UserProfile) error
		// AdjustBalance adds deltaCents to the stored balance in a single
		// write and returns the new balance.
		AdjustBalance(ctx context.Context, uid string, deltaCents int64) (core.Money, error)
		UpdateCycleStartDay(ctx context.Context, uid string, day int) error
		ListProfiles(ctx context.Context) ([]core.UserProfile, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) error
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		FindTransactionBySourceRef(ctx context.Context, userID, ref string) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
		// ListTransactions returns the user's transactions, newest first.
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	}

	ObligationStore interface {
		CreateObligation(ctx context.Context, o core.Obligation) error
		GetObligation(ctx context.Context, userID, id string) (core.Obligation, error)
		// MarkObligationPaid records the payment transaction and the financial
		// cycle it was made in.
		MarkObligationPaid(ctx context.Context, userID, id, transactionID, paidCycle string) error
		// ResetObligation marks the obligation unpaid for a new period.
		ResetObligation(ctx context.Context, userID, id, cycleID string) error
		DeleteObligation(ctx context.Context, userID, id string) error
		ListObligations(ctx context.Context, userID string) ([]core.Obligation, error)
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.Goal) error
		GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
		// AddToGoal increases the goal's current amount and returns the new value.
		AddToGoal(ctx context.Context, userID, id string, amount core.Money) (core.Money, error)
		DeleteGoal(ctx context.Context, userID, id string) error
		ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
	}

	AssetStore interface {
		CreateAsset(ctx context.Context, a core.Asset) error
		GetAsset(ctx context.Context, userID, id string) (core.Asset, error)
		UpdateAssetValue(ctx context.Context, userID, id string, value core.Money) error
		DeleteAsset(ctx context.Context, userID, id string) error
		ListAssets(ctx context.Context, userID string) ([]core.Asset, error)
	}

	// Repository is the full capability set for one kind-agnostic view of
	// the store, either the live store or a transaction in progress.
	Repository interface {
		ProfileStore
		TransactionStore
		ObligationStore
		GoalStore
		AssetStore
	}

	// EntityStore adds multi-record atomic writes on top of Repository.
	EntityStore interface {
		Repository
		// Atomic runs fn against a transactional view. If fn returns an
		// error nothing fn wrote is kept.
		Atomic(ctx context.Context, fn func(r Repository) error) error
		Close() error
	}
)

// SortTransactions orders transactions newest first, breaking ties by id so
// listings are stable.
func SortTransactions(txs []core.Transaction) {
	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// NormalizeTime truncates t to the precision kept by the stores.
func NormalizeTime(t time.Time) time.Time {
	return t.Truncate(time.Microsecond)
}
