package market

import (
	"sort"
	"time"
)

// Calendar is an injected set of trading dates for one exchange. It is
// precomputed by the caller (or derived from a frame) and scoped to one
// run; nothing here fetches calendars from anywhere.
type Calendar struct {
	days        map[string]struct{}
	lastOfMonth map[string]struct{}
}

// NewCalendar builds a calendar from a set of trading dates. The
// last-trading-day-of-month set is derived once up front, the same
// precomputation month-end strategies gate on.
func NewCalendar(dates []time.Time) *Calendar {
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	c := &Calendar{
		days:        make(map[string]struct{}, len(sorted)),
		lastOfMonth: make(map[string]struct{}),
	}
	for i, d := range sorted {
		key := d.UTC().Format("2006-01-02")
		c.days[key] = struct{}{}

		// Last trading day of its month: the next trading date (if any)
		// falls in a different month.
		if i == len(sorted)-1 || !sameMonth(d, sorted[i+1]) {
			c.lastOfMonth[key] = struct{}{}
		}
	}
	return c
}

// FrameCalendar derives a calendar from a frame's union of trading dates,
// the fallback when no exchange calendar is supplied.
func FrameCalendar(f *Frame) *Calendar {
	dates := make([]time.Time, f.Len())
	for i := range dates {
		dates[i] = f.Date(i)
	}
	return NewCalendar(dates)
}

func (c *Calendar) Contains(d time.Time) bool {
	_, ok := c.days[d.UTC().Format("2006-01-02")]
	return ok
}

// IsLastOfMonth reports whether d is the final trading day of its month.
func (c *Calendar) IsLastOfMonth(d time.Time) bool {
	_, ok := c.lastOfMonth[d.UTC().Format("2006-01-02")]
	return ok
}

func (c *Calendar) Len() int { return len(c.days) }

func sameMonth(a, b time.Time) bool {
	return a.UTC().Year() == b.UTC().Year() && a.UTC().Month() == b.UTC().Month()
}
