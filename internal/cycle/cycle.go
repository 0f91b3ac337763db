// Package cycle computes financial cycles: recurring accounting periods that
// start on a fixed day of the month instead of on the 1st.
package cycle

import (
	"fmt"
	"time"
)

const (
	// MinStartDay and MaxStartDay bound the start day so that every month
	// contains it.
	MinStartDay = 1
	MaxStartDay = 28
)

var ErrInvalidStartDay = fmt.Errorf("cycle start day must be between %d and %d", MinStartDay, MaxStartDay)

// Cycle is the inclusive window [Start, End] of one financial cycle.
type Cycle struct {
	// ID is "{year}-{month}" of Start, month not zero-padded.
	ID    string
	Start time.Time
	End   time.Time
}

// ClampStartDay forces day into [MinStartDay, MaxStartDay].
func ClampStartDay(day int) int {
	if day < MinStartDay {
		return MinStartDay
	}
	if day > MaxStartDay {
		return MaxStartDay
	}
	return day
}

// ValidateStartDay reports ErrInvalidStartDay for days outside the supported range.
func ValidateStartDay(day int) error {
	if day < MinStartDay || day > MaxStartDay {
		return ErrInvalidStartDay
	}
	return nil
}

// ForDate returns the cycle containing ref for the given start day. Boundaries
// are computed in ref's location.
func ForDate(ref time.Time, startDay int) Cycle {
	startDay = ClampStartDay(startDay)
	y, m, d := ref.Date()
	loc := ref.Location()

	var start, end time.Time
	if d < startDay {
		start = time.Date(y, m-1, startDay, 0, 0, 0, 0, loc)
		end = endOfDay(time.Date(y, m, startDay-1, 0, 0, 0, 0, loc))
	} else {
		start = time.Date(y, m, startDay, 0, 0, 0, 0, loc)
		end = endOfDay(time.Date(y, m+1, startDay-1, 0, 0, 0, 0, loc))
	}
	return Cycle{
		ID:    fmt.Sprintf("%d-%d", start.Year(), int(start.Month())),
		Start: start,
		End:   end,
	}
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// Contains reports whether t falls inside the cycle, both ends inclusive.
func (c Cycle) Contains(t time.Time) bool {
	return !t.Before(c.Start) && !t.After(c.End)
}

// Days returns the number of calendar days in the cycle.
func (c Cycle) Days() int {
	days := 0
	for d := c.Start; !d.After(c.End); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}

// Next returns the cycle that begins the day after c ends.
func (c Cycle) Next() Cycle {
	return ForDate(c.End.AddDate(0, 0, 1), c.Start.Day())
}

// Prev returns the cycle that ends the day before c starts.
func (c Cycle) Prev() Cycle {
	return ForDate(c.Start.AddDate(0, 0, -1), c.Start.Day())
}

// PeriodLabel is the "YYYY-MM" label obligations are tagged with: the UTC
// calendar month of t. It is derived independently of the cycle start day and
// differs from Cycle.ID whenever a cycle straddles a month boundary.
func PeriodLabel(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Clock returns the current time.
type Clock func() time.Time

// Calculator binds a start day and a location to a clock.
type Calculator struct {
	startDay int
	loc      *time.Location
	now      Clock
}

// NewCalculator creates a calculator. A nil location means time.Local and a
// nil clock means time.Now.
func NewCalculator(startDay int, loc *time.Location, now Clock) *Calculator {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Calculator{startDay: ClampStartDay(startDay), loc: loc, now: now}
}

// StartDay returns the clamped start day.
func (c *Calculator) StartDay() int {
	return c.startDay
}

// Now returns the clock time in the calculator's location.
func (c *Calculator) Now() time.Time {
	return c.now().In(c.loc)
}

// Current returns the cycle containing the current time.
func (c *Calculator) Current() Cycle {
	return ForDate(c.Now(), c.startDay)
}

// IsInCurrentCycle reports whether t lies inside the current cycle.
func (c *Calculator) IsInCurrentCycle(t time.Time) bool {
	return c.Current().Contains(t)
}

// WithStartDay returns a copy of the calculator using another start day.
func (c *Calculator) WithStartDay(day int) *Calculator {
	return &Calculator{startDay: ClampStartDay(day), loc: c.loc, now: c.now}
}

// LoadLocation resolves a timezone name; "" and "Local" map to time.Local.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load cycle timezone %q: %w", name, err)
	}
	return loc, nil
}
