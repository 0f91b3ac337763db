package ledger

import (
	"context"
	"errors"
	"time"

	"mizan/internal/core"
	"mizan/internal/store"
)

// NewTransaction is the input of AddTransaction. A zero Date means now.
// A non-empty OperationID makes the call idempotent: repeating it returns
// the transaction recorded the first time.
type NewTransaction struct {
	Type        core.TransactionType
	Amount      core.Money
	Category    core.Category
	Note        string
	Date        time.Time
	OperationID string
}

func operationRef(id string) string {
	if id == "" {
		return ""
	}
	return "op:" + id
}

// AddTransaction records a transaction and applies its signed amount to the
// balance in the same unit of work.
func (s *Session) AddTransaction(ctx context.Context, in NewTransaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.unlock(ctx)

	tx := core.Transaction{
		ID:        s.newID(),
		UserID:    s.uid,
		Type:      in.Type,
		Amount:    in.Amount,
		Category:  in.Category,
		Note:      in.Note,
		Date:      in.Date,
		SourceRef: operationRef(in.OperationID),
	}
	if tx.Date.IsZero() {
		tx.Date = s.now()
	}
	tx.Date = store.NormalizeTime(tx.Date)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var (
		balance core.Money
		replay  bool
	)
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		if tx.SourceRef != "" {
			existing, err := r.FindTransactionBySourceRef(ctx, s.uid, tx.SourceRef)
			if err == nil {
				tx, replay = existing, true
				return nil
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}
		if err := r.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		b, err := r.AdjustBalance(ctx, s.uid, tx.SignedCents())
		balance = b
		return err
	})
	if err != nil {
		return core.Transaction{}, classify("add transaction", err)
	}
	if replay {
		s.logger.InfoContext(ctx, "Replayed transaction operation",
			"transaction_id", tx.ID, "source_ref", tx.SourceRef)
		return tx, nil
	}

	s.profile.Balance = balance
	s.insertTransaction(tx)
	s.logger.InfoContext(ctx, "Transaction added",
		"transaction_id", tx.ID,
		"type", string(tx.Type),
		"category", string(tx.Category),
		"amount_cents", tx.Amount.Cents,
		"balance_cents", balance.Cents)
	s.publish(ctx, EventTransactionCreated, tx.ID, tx.Amount.Cents)
	return tx, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
func (s *Session) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.unlock(ctx)

	var (
		removed core.Transaction
		balance core.Money
	)
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		tx, err := r.GetTransaction(ctx, s.uid, id)
		if err != nil {
			return err
		}
		if err := r.DeleteTransaction(ctx, s.uid, id); err != nil {
			return err
		}
		b, err := r.AdjustBalance(ctx, s.uid, -tx.SignedCents())
		removed, balance = tx, b
		return err
	})
	if err != nil {
		return classify("delete transaction", err)
	}

	s.profile.Balance = balance
	s.removeTransaction(id)
	s.logger.InfoContext(ctx, "Transaction deleted",
		"transaction_id", id, "balance_cents", balance.Cents)
	s.publish(ctx, EventTransactionDeleted, id, removed.Amount.Cents)
	return nil
}

// RecentTransactions returns up to n of the newest transactions.
func (s *Session) RecentTransactions(n int) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.transactions) {
		n = len(s.transactions)
	}
	return append([]core.Transaction(nil), s.transactions[:n]...)
}

func (s *Session) insertTransaction(tx core.Transaction) {
	s.transactions = append(s.transactions, tx)
	store.SortTransactions(s.transactions)
}

func (s *Session) removeTransaction(id string) {
	for i, tx := range s.transactions {
		if tx.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return
		}
	}
}
