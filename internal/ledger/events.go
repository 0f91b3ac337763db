package ledger

import (
	"context"
	"time"
)

// EventType names a committed ledger mutation.
type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionDeleted EventType = "transaction.deleted"
	EventObligationCreated  EventType = "obligation.created"
	EventObligationPaid     EventType = "obligation.paid"
	EventObligationDeleted  EventType = "obligation.deleted"
	EventObligationReset    EventType = "obligation.reset"
	EventGoalCreated        EventType = "goal.created"
	EventGoalDeposit        EventType = "goal.deposit"
	EventGoalDeleted        EventType = "goal.deleted"
	EventAssetCreated       EventType = "asset.created"
	EventAssetUpdated       EventType = "asset.updated"
	EventAssetDeleted       EventType = "asset.deleted"
)

// Event describes one committed mutation. AmountCents is the entity amount
// involved and BalanceCents the profile balance after the commit.
type Event struct {
	Type         EventType
	UserID       string
	EntityID     string
	AmountCents  int64
	BalanceCents int64
	Timestamp    time.Time
}

// EventPublisher fans committed mutations out to other processes.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev Event) error
}

// EventPublisherFunc adapts a function to EventPublisher.
type EventPublisherFunc func(ctx context.Context, ev Event) error

func (f EventPublisherFunc) PublishEvent(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// publish queues an event for delivery once s.mu is released. It must be
// called with s.mu held and after the store has committed.
func (s *Session) publish(_ context.Context, typ EventType, entityID string, amountCents int64) {
	if s.publisher == nil {
		return
	}
	s.pending = append(s.pending, Event{
		Type:         typ,
		UserID:       s.uid,
		EntityID:     entityID,
		AmountCents:  amountCents,
		BalanceCents: s.profile.Balance.Cents,
		Timestamp:    s.calc.Now(),
	})
}

// unlock releases s.mu, then delivers the queued events. A slow or
// unreachable broker delays only the caller that produced the events.
// Failures are logged only: the write is already durable.
func (s *Session) unlock(ctx context.Context) {
	events := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, ev := range events {
		if err := s.publisher.PublishEvent(ctx, ev); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish ledger event",
				"event", string(ev.Type), "entity_id", ev.EntityID, "error", err)
		}
	}
}
