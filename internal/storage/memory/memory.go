// Package memory is an in-process EntityStore. Atomic writes operate on a
// copy of the dataset that replaces the live one only when fn succeeds.
package memory

import (
	"context"
	"sort"
	"sync"

	"mizan/internal/core"
	"mizan/internal/store"
)

type Store struct {
	mu   sync.Mutex
	data *dataset
}

var _ store.EntityStore = (*Store)(nil)

type dataset struct {
	profiles    map[string]core.UserProfile
	txs         map[string]core.Transaction
	obligations map[string]core.Obligation
	goals       map[string]core.Goal
	assets      map[string]core.Asset
}

func New() *Store {
	return &Store{data: newDataset()}
}

func newDataset() *dataset {
	return &dataset{
		profiles:    map[string]core.UserProfile{},
		txs:         map[string]core.Transaction{},
		obligations: map[string]core.Obligation{},
		goals:       map[string]core.Goal{},
		assets:      map[string]core.Asset{},
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.profiles {
		c.profiles[k] = v
	}
	for k, v := range d.txs {
		c.txs[k] = v
	}
	for k, v := range d.obligations {
		c.obligations[k] = v
	}
	for k, v := range d.goals {
		c.goals[k] = v
	}
	for k, v := range d.assets {
		c.assets[k] = v
	}
	return c
}

// Atomic implements store.EntityStore.
func (s *Store) Atomic(ctx context.Context, fn func(r store.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	if err := fn(view{work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) Close() error { return nil }

// with runs fn against the live dataset under the store lock.
func (s *Store) with(ctx context.Context, fn func(v view) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(view{s.data})
}

func (s *Store) GetProfile(ctx context.Context, uid string) (p core.UserProfile, err error) {
	err = s.with(ctx, func(v view) error { p, err = v.GetProfile(ctx, uid); return err })
	return p, err
}

func (s *Store) CreateProfile(ctx context.Context, p core.UserProfile) error {
	return s.with(ctx, func(v view) error { return v.CreateProfile(ctx, p) })
}

func (s *Store) AdjustBalance(ctx context.Context, uid string, delta int64) (m core.Money, err error) {
	err = s.with(ctx, func(v view) error { m, err = v.AdjustBalance(ctx, uid, delta); return err })
	return m, err
}

func (s *Store) UpdateCycleStartDay(ctx context.Context, uid string, day int) error {
	return s.with(ctx, func(v view) error { return v.UpdateCycleStartDay(ctx, uid, day) })
}

func (s *Store) ListProfiles(ctx context.Context) (out []core.UserProfile, err error) {
	err = s.with(ctx, func(v view) error { out, err = v.ListProfiles(ctx); return err })
	return out, err
}

func (s *Store) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	return s.with(ctx, func(v view) error { return v.CreateTransaction(ctx, tx) })
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (tx core.Transaction, err error) {
	err = s.with(ctx, func(v view) error { tx, err = v.GetTransaction(ctx, userID, id); return err })
	return tx, err
}

func (s *Store) FindTransactionBySourceRef(ctx context.Context, userID, ref string) (tx core.Transaction, err error) {
	err = s.with(ctx, func(v view) error { tx, err = v.FindTransactionBySourceRef(ctx, userID, ref); return err })
	return tx, err
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.with(ctx, func(v view) error { return v.DeleteTransaction(ctx, userID, id) })
}

func (s *Store) ListTransactions(ctx context.Context, userID string) (out []core.Transaction, err error) {
	err = s.with(ctx, func(v view) error { out, err = v.ListTransactions(ctx, userID); return err })
	return out, err
}

func (s *Store) CreateObligation(ctx context.Context, o core.Obligation) error {
	return s.with(ctx, func(v view) error { return v.CreateObligation(ctx, o) })
}

func (s *Store) GetObligation(ctx context.Context, userID, id string) (o core.Obligation, err error) {
	err = s.with(ctx, func(v view) error { o, err = v.GetObligation(ctx, userID, id); return err })
	return o, err
}

func (s *Store) MarkObligationPaid(ctx context.Context, userID, id, txID, paidCycle string) error {
	return s.with(ctx, func(v view) error { return v.MarkObligationPaid(ctx, userID, id, txID, paidCycle) })
}

func (s *Store) ResetObligation(ctx context.Context, userID, id, cycleID string) error {
	return s.with(ctx, func(v view) error { return v.ResetObligation(ctx, userID, id, cycleID) })
}

func (s *Store) DeleteObligation(ctx context.Context, userID, id string) error {
	return s.with(ctx, func(v view) error { return v.DeleteObligation(ctx, userID, id) })
}

func (s *Store) ListObligations(ctx context.Context, userID string) (out []core.Obligation, err error) {
	err = s.with(ctx, func(v view) error { out, err = v.ListObligations(ctx, userID); return err })
	return out, err
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) error {
	return s.with(ctx, func(v view) error { return v.CreateGoal(ctx, g) })
}

func (s *Store) GetGoal(ctx context.Context, userID, id string) (g core.Goal, err error) {
	err = s.with(ctx, func(v view) error { g, err = v.GetGoal(ctx, userID, id); return err })
	return g, err
}

func (s *Store) AddToGoal(ctx context.Context, userID, id string, amount core.Money) (m core.Money, err error) {
	err = s.with(ctx, func(v view) error { m, err = v.AddToGoal(ctx, userID, id, amount); return err })
	return m, err
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	return s.with(ctx, func(v view) error { return v.DeleteGoal(ctx, userID, id) })
}

func (s *Store) ListGoals(ctx context.Context, userID string) (out []core.Goal, err error) {
	err = s.with(ctx, func(v view) error { out, err = v.ListGoals(ctx, userID); return err })
	return out, err
}

func (s *Store) CreateAsset(ctx context.Context, a core.Asset) error {
	return s.with(ctx, func(v view) error { return v.CreateAsset(ctx, a) })
}

func (s *Store) GetAsset(ctx context.Context, userID, id string) (a core.Asset, err error) {
	err = s.with(ctx, func(v view) error { a, err = v.GetAsset(ctx, userID, id); return err })
	return a, err
}

func (s *Store) UpdateAssetValue(ctx context.Context, userID, id string, value core.Money) error {
	return s.with(ctx, func(v view) error { return v.UpdateAssetValue(ctx, userID, id, value) })
}

func (s *Store) DeleteAsset(ctx context.Context, userID, id string) error {
	return s.with(ctx, func(v view) error { return v.DeleteAsset(ctx, userID, id) })
}

func (s *Store) ListAssets(ctx context.Context, userID string) (out []core.Asset, err error) {
	err = s.with(ctx, func(v view) error { out, err = v.ListAssets(ctx, userID); return err })
	return out, err
}

// view implements store.Repository over one dataset without locking.
type view struct {
	d *dataset
}

func (v view) GetProfile(_ context.Context, uid string) (core.UserProfile, error) {
	p, ok := v.d.profiles[uid]
	if !ok {
		return core.UserProfile{}, store.ErrNotFound
	}
	return p, nil
}

func (v view) CreateProfile(_ context.Context, p core.UserProfile) error {
	if _, ok := v.d.profiles[p.UID]; ok {
		return store.ErrDuplicate
	}
	p.CreatedAt = store.NormalizeTime(p.CreatedAt)
	v.d.profiles[p.UID] = p
	return nil
}

func (v view) AdjustBalance(_ context.Context, uid string, delta int64) (core.Money, error) {
	p, ok := v.d.profiles[uid]
	if !ok {
		return core.Money{}, store.ErrNotFound
	}
	p.Balance.Cents += delta
	v.d.profiles[uid] = p
	return p.Balance, nil
}

func (v view) UpdateCycleStartDay(_ context.Context, uid string, day int) error {
	p, ok := v.d.profiles[uid]
	if !ok {
		return store.ErrNotFound
	}
	p.CycleStartDay = day
	v.d.profiles[uid] = p
	return nil
}

func (v view) ListProfiles(_ context.Context) ([]core.UserProfile, error) {
	out := make([]core.UserProfile, 0, len(v.d.profiles))
	for _, p := range v.d.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

func (v view) CreateTransaction(_ context.Context, tx core.Transaction) error {
	if _, ok := v.d.txs[tx.ID]; ok {
		return store.ErrDuplicate
	}
	if tx.SourceRef != "" {
		for _, existing := range v.d.txs {
			if existing.UserID == tx.UserID && existing.SourceRef == tx.SourceRef {
				return store.ErrDuplicate
			}
		}
	}
	tx.Date = store.NormalizeTime(tx.Date)
	v.d.txs[tx.ID] = tx
	return nil
}

func (v view) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	tx, ok := v.d.txs[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, store.ErrNotFound
	}
	return tx, nil
}

func (v view) FindTransactionBySourceRef(_ context.Context, userID, ref string) (core.Transaction, error) {
	if ref == "" {
		return core.Transaction{}, store.ErrNotFound
	}
	for _, tx := range v.d.txs {
		if tx.UserID == userID && tx.SourceRef == ref {
			return tx, nil
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

func (v view) DeleteTransaction(ctx context.Context, userID, id string) error {
	if _, err := v.GetTransaction(ctx, userID, id); err != nil {
		return err
	}
	delete(v.d.txs, id)
	return nil
}

func (v view) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0)
	for _, tx := range v.d.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	store.SortTransactions(out)
	return out, nil
}

func (v view) CreateObligation(_ context.Context, o core.Obligation) error {
	if _, ok := v.d.obligations[o.ID]; ok {
		return store.ErrDuplicate
	}
	v.d.obligations[o.ID] = o
	return nil
}

func (v view) GetObligation(_ context.Context, userID, id string) (core.Obligation, error) {
	o, ok := v.d.obligations[id]
	if !ok || o.UserID != userID {
		return core.Obligation{}, store.ErrNotFound
	}
	return o, nil
}

func (v view) MarkObligationPaid(ctx context.Context, userID, id, txID, paidCycle string) error {
	o, err := v.GetObligation(ctx, userID, id)
	if err != nil {
		return err
	}
	o.Paid = true
	o.PaidTransactionID = txID
	o.PaidCycle = paidCycle
	v.d.obligations[id] = o
	return nil
}

func (v view) ResetObligation(ctx context.Context, userID, id, cycleID string) error {
	o, err := v.GetObligation(ctx, userID, id)
	if err != nil {
		return err
	}
	o.Paid = false
	o.PaidTransactionID = ""
	o.PaidCycle = ""
	o.CycleID = cycleID
	v.d.obligations[id] = o
	return nil
}

func (v view) DeleteObligation(ctx context.Context, userID, id string) error {
	if _, err := v.GetObligation(ctx, userID, id); err != nil {
		return err
	}
	delete(v.d.obligations, id)
	return nil
}

func (v view) ListObligations(_ context.Context, userID string) ([]core.Obligation, error) {
	out := make([]core.Obligation, 0)
	for _, o := range v.d.obligations {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v view) CreateGoal(_ context.Context, g core.Goal) error {
	if _, ok := v.d.goals[g.ID]; ok {
		return store.ErrDuplicate
	}
	g.CreatedAt = store.NormalizeTime(g.CreatedAt)
	v.d.goals[g.ID] = g
	return nil
}

func (v view) GetGoal(_ context.Context, userID, id string) (core.Goal, error) {
	g, ok := v.d.goals[id]
	if !ok || g.UserID != userID {
		return core.Goal{}, store.ErrNotFound
	}
	return g, nil
}

func (v view) AddToGoal(ctx context.Context, userID, id string, amount core.Money) (core.Money, error) {
	g, err := v.GetGoal(ctx, userID, id)
	if err != nil {
		return core.Money{}, err
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	v.d.goals[id] = g
	return g.CurrentAmount, nil
}

func (v view) DeleteGoal(ctx context.Context, userID, id string) error {
	if _, err := v.GetGoal(ctx, userID, id); err != nil {
		return err
	}
	delete(v.d.goals, id)
	return nil
}

func (v view) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	out := make([]core.Goal, 0)
	for _, g := range v.d.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (v view) CreateAsset(_ context.Context, a core.Asset) error {
	if _, ok := v.d.assets[a.ID]; ok {
		return store.ErrDuplicate
	}
	a.CreatedAt = store.NormalizeTime(a.CreatedAt)
	v.d.assets[a.ID] = a
	return nil
}

func (v view) GetAsset(_ context.Context, userID, id string) (core.Asset, error) {
	a, ok := v.d.assets[id]
	if !ok || a.UserID != userID {
		return core.Asset{}, store.ErrNotFound
	}
	return a, nil
}

func (v view) UpdateAssetValue(ctx context.Context, userID, id string, value core.Money) error {
	a, err := v.GetAsset(ctx, userID, id)
	if err != nil {
		return err
	}
	a.Value = value
	v.d.assets[id] = a
	return nil
}

func (v view) DeleteAsset(ctx context.Context, userID, id string) error {
	if _, err := v.GetAsset(ctx, userID, id); err != nil {
		return err
	}
	delete(v.d.assets, id)
	return nil
}

func (v view) ListAssets(_ context.Context, userID string) ([]core.Asset, error) {
	out := make([]core.Asset, 0)
	for _, a := range v.d.assets {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
