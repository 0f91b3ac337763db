// Package ledger keeps a user's balance, transaction log, obligation state
// and goal progress consistent. A Session is bound to one user; every
// mutation commits to the store in a single unit of work before the
// in-memory mirrors are updated.
package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mizan/internal/core"
	"mizan/internal/cycle"
	"mizan/internal/log"
	"mizan/internal/store"
)

// Options configures a Session. Only Store is required.
type Options struct {
	Store     store.EntityStore
	Publisher EventPublisher
	Logger    *log.Logger
	// Location is the timezone cycles are computed in. Nil means time.Local.
	Location *time.Location
	Clock    cycle.Clock
	// NewID generates entity ids. Defaults to random UUIDs.
	NewID func() string
}

type Session struct {
	mu sync.Mutex

	uid       string
	store     store.EntityStore
	publisher EventPublisher
	logger    *log.Logger
	loc       *time.Location
	clock     cycle.Clock
	newID     func() string
	calc      *cycle.Calculator

	profile      core.UserProfile
	transactions []core.Transaction
	obligations  []core.Obligation
	goals        []core.Goal
	assets       []core.Asset

	// pending holds events committed under s.mu and not yet published.
	pending []Event
}

// Open binds a session to uid and loads its snapshot. An empty uid or a
// missing profile yields ErrNotAuthenticated.
func Open(ctx context.Context, uid string, opts Options) (*Session, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ErrNotAuthenticated
	}
	if opts.Store == nil {
		return nil, errors.New("ledger: nil store")
	}
	s := &Session{
		uid:       uid,
		store:     opts.Store,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		loc:       opts.Location,
		clock:     opts.Clock,
		newID:     opts.NewID,
	}
	if s.logger == nil {
		s.logger = log.Default(log.ComponentLedger)
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// load replaces the snapshot with fresh store contents. Callers hold s.mu
// or own the session exclusively.
func (s *Session) load(ctx context.Context) error {
	var (
		profile     core.UserProfile
		txs         []core.Transaction
		obligations []core.Obligation
		goals       []core.Goal
		assets      []core.Asset
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profile, err = s.store.GetProfile(gctx, s.uid)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotAuthenticated
		}
		return err
	})
	g.Go(func() (err error) {
		txs, err = s.store.ListTransactions(gctx, s.uid)
		return err
	})
	g.Go(func() (err error) {
		obligations, err = s.store.ListObligations(gctx, s.uid)
		return err
	})
	g.Go(func() (err error) {
		goals, err = s.store.ListGoals(gctx, s.uid)
		return err
	})
	g.Go(func() (err error) {
		assets, err = s.store.ListAssets(gctx, s.uid)
		return err
	})
	if err := g.Wait(); err != nil {
		return classify("load snapshot", err)
	}

	store.SortTransactions(txs)
	s.profile = profile
	s.transactions = txs
	s.obligations = obligations
	s.goals = goals
	s.assets = assets
	s.calc = cycle.NewCalculator(profile.CycleStartDay, s.loc, s.clock)

	s.logger.DebugContext(ctx, "Ledger snapshot loaded",
		log.FieldUserID, s.uid,
		"transactions", len(txs),
		"obligations", len(obligations),
		"goals", len(goals),
		"assets", len(assets))
	return nil
}

// Refresh reloads the snapshot from the store.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Session) UID() string { return s.uid }

func (s *Session) Profile() core.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

func (s *Session) Balance() core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Balance
}

// Transactions returns the transaction log, newest first.
func (s *Session) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...)
}

func (s *Session) Obligations() []core.Obligation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Obligation(nil), s.obligations...)
}

// ReloadObligations replaces the obligation mirror with the stored state,
// picking up rollovers made by other processes.
func (s *Session) ReloadObligations(ctx context.Context) ([]core.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obligations, err := s.store.ListObligations(ctx, s.uid)
	if err != nil {
		return nil, classify("reload obligations", err)
	}
	s.obligations = obligations
	return append([]core.Obligation(nil), obligations...), nil
}

func (s *Session) Goals() []core.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Goal(nil), s.goals...)
}

func (s *Session) Assets() []core.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Asset(nil), s.assets...)
}

// CurrentCycle returns the financial cycle containing now.
func (s *Session) CurrentCycle() cycle.Cycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calc.Current()
}

// SetCycleStartDay persists a new cycle start day for the user.
func (s *Session) SetCycleStartDay(ctx context.Context, day int) error {
	if err := cycle.ValidateStartDay(day); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.UpdateCycleStartDay(ctx, s.uid, day); err != nil {
		return classify("set cycle start day", err)
	}
	s.profile.CycleStartDay = day
	s.calc = s.calc.WithStartDay(day)
	return nil
}

// NewProfile describes a profile to create on first sign-in.
type NewProfile struct {
	UID           string
	Email         string
	DisplayName   string
	CycleStartDay int
}

// EnsureProfile returns the stored profile for p.UID, creating it with a zero
// balance when absent.
func EnsureProfile(ctx context.Context, st store.ProfileStore, p NewProfile, now time.Time) (core.UserProfile, error) {
	if strings.TrimSpace(p.UID) == "" {
		return core.UserProfile{}, ErrNotAuthenticated
	}
	existing, err := st.GetProfile(ctx, p.UID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return core.UserProfile{}, classify("get profile", err)
	}

	startDay := p.CycleStartDay
	if startDay == 0 {
		startDay = core.DefaultCycleStartDay
	}
	profile := core.UserProfile{
		UID:           p.UID,
		Email:         p.Email,
		DisplayName:   p.DisplayName,
		CycleStartDay: cycle.ClampStartDay(startDay),
		CreatedAt:     now,
	}
	if err := st.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Created concurrently by another request.
			existing, err := st.GetProfile(ctx, p.UID)
			return existing, classify("get profile", err)
		}
		return core.UserProfile{}, classify("create profile", err)
	}
	return profile, nil
}

func (s *Session) now() time.Time {
	return s.calc.Now()
}
