package ledger

import (
	"context"
	"time"

	"mizan/internal/core"
	"mizan/internal/store"
)

type NewGoal struct {
	Name         string
	TargetAmount core.Money
	Deadline     *time.Time
}

func (s *Session) AddGoal(ctx context.Context, in NewGoal) (core.Goal, error) {
	s.mu.Lock()
	defer s.unlock(ctx)

	g := core.Goal{
		ID:           s.newID(),
		UserID:       s.uid,
		Name:         in.Name,
		TargetAmount: in.TargetAmount,
		Deadline:     in.Deadline,
		CreatedAt:    store.NormalizeTime(s.now()),
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := s.store.CreateGoal(ctx, g); err != nil {
		return core.Goal{}, classify("add goal", err)
	}
	s.goals = append(s.goals, g)
	s.publish(ctx, EventGoalCreated, g.ID, g.TargetAmount.Cents)
	return g, nil
}

// DepositToGoal moves amount out of the spendable balance into the goal.
// No transaction is recorded for the deposit.
func (s *Session) DepositToGoal(ctx context.Context, id string, amount core.Money) (core.Goal, error) {
	if err := amount.Validate(); err != nil {
		return core.Goal{}, err
	}
	s.mu.Lock()
	defer s.unlock(ctx)

	var (
		goal    core.Goal
		balance core.Money
	)
	err := s.store.Atomic(ctx, func(r store.Repository) error {
		g, err := r.GetGoal(ctx, s.uid, id)
		if err != nil {
			return err
		}
		if g.CurrentAmount, err = r.AddToGoal(ctx, s.uid, id, amount); err != nil {
			return err
		}
		if balance, err = r.AdjustBalance(ctx, s.uid, -amount.Cents); err != nil {
			return err
		}
		goal = g
		return nil
	})
	if err != nil {
		return core.Goal{}, classify("deposit to goal", err)
	}

	s.profile.Balance = balance
	for i := range s.goals {
		if s.goals[i].ID == id {
			s.goals[i] = goal
		}
	}
	s.logger.InfoContext(ctx, "Goal deposit",
		"goal_id", id,
		"amount_cents", amount.Cents,
		"goal_cents", goal.CurrentAmount.Cents,
		"balance_cents", balance.Cents)
	s.publish(ctx, EventGoalDeposit, id, amount.Cents)
	return goal, nil
}

// DeleteGoal removes the goal. Deposited funds are not returned to the
// balance.
func (s *Session) DeleteGoal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.unlock(ctx)

	if err := s.store.DeleteGoal(ctx, s.uid, id); err != nil {
		return classify("delete goal", err)
	}
	for i, g := range s.goals {
		if g.ID == id {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			break
		}
	}
	s.publish(ctx, EventGoalDeleted, id, 0)
	return nil
}
