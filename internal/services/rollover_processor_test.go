package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mizan/internal/core"
	"mizan/internal/ledger"
	"mizan/internal/storage/memory"
)

func TestProcessAllResetsStaleObligations(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	march := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, uid := range []string{"u1", "u2"} {
		_, err := ledger.EnsureProfile(ctx, st, ledger.NewProfile{UID: uid}, march)
		require.NoError(t, err)
	}
	s, err := ledger.Open(ctx, "u1", ledger.Options{Store: st, Location: time.UTC, Clock: func() time.Time { return march }})
	require.NoError(t, err)
	o, err := s.AddObligation(ctx, ledger.NewObligation{Name: "rent", Amount: core.Money{Cents: 5000}})
	require.NoError(t, err)
	_, err = s.PayObligation(ctx, o.ID)
	require.NoError(t, err)

	var events []ledger.Event
	p := NewRolloverProcessor(st, ledger.EventPublisherFunc(func(_ context.Context, ev ledger.Event) error {
		events = append(events, ev)
		return nil
	}), time.UTC)

	res, err := p.ProcessAll(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, RolloverResult{Profiles: 2}, res)

	res, err = p.ProcessAll(ctx, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, RolloverResult{Profiles: 2, Reset: 1}, res)

	got, err := st.GetObligation(ctx, "u1", o.ID)
	require.NoError(t, err)
	assert.False(t, got.Paid)
	assert.Equal(t, "2024-04", got.CycleID)
	require.Len(t, events, 1)
	assert.Equal(t, ledger.EventObligationReset, events[0].Type)

	// Balance is untouched by the rollover itself.
	prof, err := st.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(-5000), prof.Balance.Cents)
}

func TestProcessAllRequiresStore(t *testing.T) {
	_, err := NewRolloverProcessor(nil, nil, nil).ProcessAll(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestProcessAllStopsOnCanceledContext(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	_, err := ledger.EnsureProfile(ctx, st, ledger.NewProfile{UID: "u1"}, time.Now())
	require.NoError(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewRolloverProcessor(st, nil, time.UTC).ProcessAll(canceled, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
