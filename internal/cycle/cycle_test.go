package cycle

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestForDate(t *testing.T) {
	tests := []struct {
		name      string
		ref       time.Time
		startDay  int
		wantStart time.Time
		wantEnd   time.Time
		wantID    string
	}{
		{
			name:      "before start day belongs to previous month's cycle",
			ref:       date(2024, 3, 15),
			startDay:  23,
			wantStart: time.Date(2024, 2, 23, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 22, 23, 59, 59, 999999999, time.UTC),
			wantID:    "2024-2",
		},
		{
			name:      "on or after start day begins a new cycle",
			ref:       date(2024, 3, 25),
			startDay:  23,
			wantStart: time.Date(2024, 3, 23, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 4, 22, 23, 59, 59, 999999999, time.UTC),
			wantID:    "2024-3",
		},
		{
			name:      "exactly on start day",
			ref:       time.Date(2024, 3, 23, 0, 0, 0, 0, time.UTC),
			startDay:  23,
			wantStart: time.Date(2024, 3, 23, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 4, 22, 23, 59, 59, 999999999, time.UTC),
			wantID:    "2024-3",
		},
		{
			name:      "january wraps to previous year",
			ref:       date(2024, 1, 5),
			startDay:  23,
			wantStart: time.Date(2023, 12, 23, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 1, 22, 23, 59, 59, 999999999, time.UTC),
			wantID:    "2023-12",
		},
		{
			name:      "december wraps to next year",
			ref:       date(2024, 12, 28),
			startDay:  23,
			wantStart: time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 1, 22, 23, 59, 59, 999999999, time.UTC),
			wantID:    "2024-12",
		},
		{
			name:      "start day 1 matches the calendar month",
			ref:       date(2024, 2, 10),
			startDay:  1,
			wantStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC),
			wantID:    "2024-2",
		},
		{
			name:      "start day above 28 is clamped",
			ref:       date(2024, 3, 30),
			startDay:  31,
			wantStart: time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 4, 27, 23, 59, 59, 999999999, time.UTC),
			wantID:    "2024-3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ForDate(tt.ref, tt.startDay)
			assert.True(t, c.Start.Equal(tt.wantStart), "start = %v, want %v", c.Start, tt.wantStart)
			assert.True(t, c.End.Equal(tt.wantEnd), "end = %v, want %v", c.End, tt.wantEnd)
			assert.Equal(t, tt.wantID, c.ID)
			assert.True(t, c.Contains(tt.ref))
		})
	}
}

func TestForDateWindowProperties(t *testing.T) {
	ref := time.Date(2023, 1, 1, 8, 30, 0, 0, time.UTC)
	for day := MinStartDay; day <= MaxStartDay; day++ {
		for i := 0; i < 800; i += 3 {
			r := ref.AddDate(0, 0, i)
			c := ForDate(r, day)
			require.False(t, c.Start.After(c.End), "day=%d ref=%v", day, r)
			require.GreaterOrEqual(t, c.Days(), 28, "day=%d ref=%v", day, r)
			require.LessOrEqual(t, c.Days(), 31, "day=%d ref=%v", day, r)
			require.True(t, c.Contains(r), "cycle %v does not contain %v", c, r)
			require.Equal(t, day, c.Start.Day())
		}
	}
}

func TestNextAndPrevAreContiguous(t *testing.T) {
	c := ForDate(date(2024, 3, 15), 23)
	next := c.Next()
	prev := c.Prev()

	assert.Equal(t, "2024-3", next.ID)
	assert.Equal(t, "2024-1", prev.ID)
	assert.True(t, next.Start.Equal(c.End.Add(time.Nanosecond)))
	assert.True(t, c.Start.Equal(prev.End.Add(time.Nanosecond)))
}

func TestCalculatorIsInCurrentCycle(t *testing.T) {
	now := date(2024, 3, 15)
	calc := NewCalculator(23, time.UTC, func() time.Time { return now })

	cur := calc.Current()
	require.Equal(t, "2024-2", cur.ID)

	tests := []struct {
		d    time.Time
		want bool
	}{
		{time.Date(2024, 2, 23, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2024, 2, 22, 23, 59, 59, 999999999, time.UTC), false},
		{time.Date(2024, 3, 22, 23, 59, 59, 999999999, time.UTC), true},
		{time.Date(2024, 3, 23, 0, 0, 0, 0, time.UTC), false},
		{now, true},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			got := calc.IsInCurrentCycle(tt.d)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, !cur.Start.After(tt.d) && !tt.d.After(cur.End), got)
		})
	}
}

func TestCalculatorUsesLocation(t *testing.T) {
	loc := time.FixedZone("GST", 4*60*60)
	// 22 March 21:00 UTC is already 23 March in UTC+4.
	now := time.Date(2024, 3, 22, 21, 0, 0, 0, time.UTC)
	calc := NewCalculator(23, loc, func() time.Time { return now })

	assert.Equal(t, "2024-3", calc.Current().ID)
	assert.Equal(t, "2024-2", NewCalculator(23, time.UTC, func() time.Time { return now }).Current().ID)
}

func TestStartDayBounds(t *testing.T) {
	for _, d := range []int{-3, 0, 29, 31} {
		assert.ErrorIs(t, ValidateStartDay(d), ErrInvalidStartDay, fmt.Sprint(d))
	}
	for _, d := range []int{1, 15, 28} {
		assert.NoError(t, ValidateStartDay(d))
	}
	assert.Equal(t, 1, ClampStartDay(0))
	assert.Equal(t, 28, ClampStartDay(31))
	assert.Equal(t, 28, NewCalculator(40, nil, nil).StartDay())
}

func TestPeriodLabelDiffersFromCycleID(t *testing.T) {
	ref := date(2024, 3, 15)
	assert.Equal(t, "2024-03", PeriodLabel(ref))
	assert.Equal(t, "2024-2", ForDate(ref, 23).ID)

	// PeriodLabel truncates the UTC timestamp.
	late := time.Date(2024, 4, 1, 1, 0, 0, 0, time.FixedZone("GST", 4*60*60))
	assert.Equal(t, "2024-03", PeriodLabel(late))
}

func TestFormatDisplay(t *testing.T) {
	c := ForDate(date(2024, 3, 15), 23)
	assert.Equal(t, "23 فبراير - 22 مارس", FormatDisplay(c))
}

func TestFormatRelative(t *testing.T) {
	now := date(2024, 3, 15)
	assert.Equal(t, "اليوم", FormatRelative(now.Add(-2*time.Hour), now))
	assert.Equal(t, "أمس", FormatRelative(now.AddDate(0, 0, -1), now))
	assert.Equal(t, "منذ 3 أيام", FormatRelative(now.AddDate(0, 0, -3), now))
	assert.Equal(t, "1 مارس 2024", FormatRelative(date(2024, 3, 1), now))

	// Future dates are never rounded into "today" unless they fall on it.
	assert.Equal(t, "اليوم", FormatRelative(now.Add(6*time.Hour), now))
	assert.Equal(t, "16 مارس 2024", FormatRelative(now.Add(13*time.Hour), now))
	assert.Equal(t, "16 مارس 2024", FormatRelative(now.AddDate(0, 0, 1), now))
	assert.Equal(t, "أمس", FormatRelative(now.Add(-36*time.Hour), now))
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = LoadLocation("UTC")
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	_, err = LoadLocation("Nowhere/Special")
	assert.Error(t, err)
}
