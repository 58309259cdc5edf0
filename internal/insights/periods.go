package insights

import (
	"time"

	"github.com/faeiqkhan/pocket-insight/internal/core"
)

// CurrentMonth filters to expenses dated within the calendar month of now
func CurrentMonth(expenses []core.Expense, now time.Time) []core.Expense {
	return inMonth(expenses, core.MonthOf(now))
}

// PreviousMonth filters to expenses dated within the month immediately
// before now's month; January rolls back to December of the prior year.
func PreviousMonth(expenses []core.Expense, now time.Time) []core.Expense {
	return inMonth(expenses, core.MonthOf(now).Prev())
}

func inMonth(expenses []core.Expense, m core.Month) []core.Expense {
	var out []core.Expense
	for _, e := range expenses {
		if e.Date.In(m) {
			out = append(out, e)
		}
	}
	return out
}
