package cycle

import (
	"fmt"
	"math"
	"time"
)

var monthNames = [12]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

// MonthName returns the display name of m.
func MonthName(m time.Month) string {
	return monthNames[m-1]
}

// FormatDisplay renders a cycle as "23 فبراير - 22 مارس".
func FormatDisplay(c Cycle) string {
	return fmt.Sprintf("%d %s - %d %s",
		c.Start.Day(), MonthName(c.Start.Month()),
		c.End.Day(), MonthName(c.End.Month()))
}

// FormatRelative renders d relative to now: "اليوم", "أمس", "منذ N أيام", or
// a full date for anything older than a week. Elapsed days are floored. A
// later time on now's calendar day is still "اليوم"; other future dates get
// the full date.
func FormatRelative(d, now time.Time) string {
	if d.After(now) {
		y, m, dd := d.In(now.Location()).Date()
		ny, nm, nd := now.Date()
		if y == ny && m == nm && dd == nd {
			return "اليوم"
		}
		return fmt.Sprintf("%d %s %d", d.Day(), MonthName(d.Month()), d.Year())
	}
	days := int(math.Floor(now.Sub(d).Hours() / 24))
	switch {
	case days == 0:
		return "اليوم"
	case days == 1:
		return "أمس"
	case days > 1 && days < 7:
		return fmt.Sprintf("منذ %d أيام", days)
	}
	return fmt.Sprintf("%d %s %d", d.Day(), MonthName(d.Month()), d.Year())
}
