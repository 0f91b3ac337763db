package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mizan/internal/ledger"
)

// LedgerEventMessage is the wire form of a committed ledger mutation. It
// carries ids and amounts only; consumers read entity details from storage.
type LedgerEventMessage struct {
	Type         string    `json:"type"`
	UserID       string    `json:"user_id"`
	EntityID     string    `json:"entity_id"`
	AmountCents  int64     `json:"amount_cents"`
	BalanceCents int64     `json:"balance_cents"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(ev ledger.Event) *LedgerEventMessage {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &LedgerEventMessage{
		Type:         string(ev.Type),
		UserID:       ev.UserID,
		EntityID:     ev.EntityID,
		AmountCents:  ev.AmountCents,
		BalanceCents: ev.BalanceCents,
		Timestamp:    ts.UTC(),
	}
}

// Event converts the message back to a ledger event.
func (m *LedgerEventMessage) Event() ledger.Event {
	return ledger.Event{
		Type:         ledger.EventType(m.Type),
		UserID:       m.UserID,
		EntityID:     m.EntityID,
		AmountCents:  m.AmountCents,
		BalanceCents: m.BalanceCents,
		Timestamp:    m.Timestamp,
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON decodes a message and rejects ones missing
// their type or user.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode ledger event: %w", err)
	}
	if msg.Type == "" || msg.UserID == "" {
		return nil, errors.New("decode ledger event: missing type or user_id")
	}
	return &msg, nil
}
