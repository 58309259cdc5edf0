package core

import (
	"fmt"
	"time"
)

// Month is a calendar month key. Budgets are stored under it and the
// aggregation engine buckets expenses by it. Its canonical string form
// is "2006-01".
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing the given instant
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a month key in "2006-01" form
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthOf(t), nil
}

func (m Month) Validate() error {
	if m.Year < 1 || m.Month < time.January || m.Month > time.December {
		return ErrInvalidMonth
	}
	return nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Label renders the month for display, e.g. "Aug 2025"
func (m Month) Label() string {
	return m.Start().Format("Jan 2006")
}

// Start returns the first day of the month
func (m Month) Start() Date {
	return NewDate(m.Year, int(m.Month), 1)
}

// AddMonths shifts the month by n, rolling over year boundaries
func (m Month) AddMonths(n int) Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return MonthOf(t)
}

// Prev returns the month immediately before; January rolls back to
// December of the prior year.
func (m Month) Prev() Month {
	return m.AddMonths(-1)
}
