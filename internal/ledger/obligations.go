package ledger

import (
	"context"
	"errors"
	"fmt"

	"mizan/internal/core"
	"mizan/internal/cycle"
	"mizan/internal/store"
)

// ObligationNotePrefix starts the note of every obligation payment.
const ObligationNotePrefix = "دفع التزام: "

type NewObligation struct {
	Name   string
	Amount core.Money
}

// obligationRef keys the payment of one obligation in one financial cycle.
func obligationRef(id, cycleID string) string {
	return fmt.Sprintf("obligation:%s:%s", id, cycleID)
}

// AddObligation creates an unpaid obligation labelled with the current
// period.
func (s *Session) AddObligation(ctx context.Context, in NewObligation) (core.Obligation, error) {
	s.mu.Lock()
	defer s.unlock(ctx)

	o := core.Obligation{
		ID:      s.newID(),
		UserID:  s.uid,
		Name:    in.Name,
		Amount:  in.Amount,
		CycleID: cycle.PeriodLabel(s.now()),
	}
	if err := o.Validate(); err != nil {
		return core.Obligation{}, err
	}
	if err := s.store.CreateObligation(ctx, o); err != nil {
		return core.Obligation{}, classify("add obligation", err)
	}
	s.obligations = append(s.obligations, o)
	s.publish(ctx, EventObligationCreated, o.ID, o.Amount.Cents)
	return o, nil
}

// PayObligation records the expense for an obligation, decreases the balance
// and marks the obligation paid, all in one unit of work. A second payment in
// the same financial cycle returns ErrAlreadyPaid and changes nothing.
func (s *Session) PayObligation(ctx context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.unlock(ctx)

	var (
		paid    core.Obligation
		tx      core.Transaction
		balance core.Money
		current = s.calc.Current().ID
	)
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		o, err := r.GetObligation(ctx, s.uid, id)
		if err != nil {
			return err
		}
		if o.Paid {
			return ErrAlreadyPaid
		}
		ref := obligationRef(o.ID, current)
		if _, err := r.FindTransactionBySourceRef(ctx, s.uid, ref); err == nil {
			return ErrAlreadyPaid
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		tx = core.Transaction{
			ID:        s.newID(),
			UserID:    s.uid,
			Type:      core.Expense,
			Amount:    o.Amount,
			Category:  core.CategoryBills,
			Note:      ObligationNotePrefix + o.Name,
			Date:      store.NormalizeTime(s.now()),
			SourceRef: ref,
		}
		if err := r.CreateTransaction(ctx, tx); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrAlreadyPaid
			}
			return err
		}
		if balance, err = r.AdjustBalance(ctx, s.uid, tx.SignedCents()); err != nil {
			return err
		}
		if err := r.MarkObligationPaid(ctx, s.uid, o.ID, tx.ID, current); err != nil {
			return err
		}
		o.Paid, o.PaidTransactionID, o.PaidCycle = true, tx.ID, current
		paid = o
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyPaid) {
			s.logger.WarnContext(ctx, "Obligation already paid", "obligation_id", id)
		}
		return core.Transaction{}, classify("pay obligation", err)
	}

	s.profile.Balance = balance
	s.insertTransaction(tx)
	s.replaceObligation(paid)
	s.logger.InfoContext(ctx, "Obligation paid",
		"obligation_id", paid.ID,
		"transaction_id", tx.ID,
		"amount_cents", tx.Amount.Cents,
		"balance_cents", balance.Cents)
	s.publish(ctx, EventObligationPaid, paid.ID, tx.Amount.Cents)
	s.publish(ctx, EventTransactionCreated, tx.ID, tx.Amount.Cents)
	return tx, nil
}

func (s *Session) DeleteObligation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.unlock(ctx)

	if err := s.store.DeleteObligation(ctx, s.uid, id); err != nil {
		return classify("delete obligation", err)
	}
	for i, o := range s.obligations {
		if o.ID == id {
			s.obligations = append(s.obligations[:i], s.obligations[i+1:]...)
			break
		}
	}
	s.publish(ctx, EventObligationDeleted, id, 0)
	return nil
}

// RollOverObligations resets every obligation paid in an earlier financial
// cycle to unpaid, labelled with the current period. Obligations paid in the
// current cycle stay paid even when the calendar month has changed. It
// returns how many were reset.
func (s *Session) RollOverObligations(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.unlock(ctx)

	current := s.calc.Current().ID
	label := cycle.PeriodLabel(s.now())
	var stale []core.Obligation
	for _, o := range s.obligations {
		if o.Paid && o.PaidCycle != current {
			stale = append(stale, o)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	err := s.store.Atomic(ctx, func(r store.Repository) error {
		for _, o := range stale {
			if err := r.ResetObligation(ctx, s.uid, o.ID, label); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, classify("roll over obligations", err)
	}

	for _, o := range stale {
		o.Paid, o.PaidTransactionID, o.PaidCycle, o.CycleID = false, "", "", label
		s.replaceObligation(o)
		s.publish(ctx, EventObligationReset, o.ID, o.Amount.Cents)
	}
	s.logger.InfoContext(ctx, "Obligations rolled over", "cycle", current, "period", label, "count", len(stale))
	return len(stale), nil
}

func (s *Session) replaceObligation(o core.Obligation) {
	for i := range s.obligations {
		if s.obligations[i].ID == o.ID {
			s.obligations[i] = o
			return
		}
	}
	s.obligations = append(s.obligations, o)
}
