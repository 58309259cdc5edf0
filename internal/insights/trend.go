package insights

import (
	"time"

	"github.com/faeiqkhan/pocket-insight/internal/core"
)

// MonthTotal is one entry of a monthly trend series.
type MonthTotal struct {
	Month core.Month
	Total core.Money
}

// MonthlyTotals returns exactly monthsBack entries, oldest first, ending
// at the month containing now. Months without expenses appear with a
// zero total so chart axes stay continuous.
func MonthlyTotals(expenses []core.Expense, monthsBack int, now time.Time) []MonthTotal {
	if monthsBack <= 0 {
		return nil
	}
	current := core.MonthOf(now)
	out := make([]MonthTotal, monthsBack)
	index := make(map[core.Month]int, monthsBack)
	for i := range out {
		m := current.AddMonths(i - monthsBack + 1)
		out[i] = MonthTotal{Month: m}
		index[m] = i
	}
	for _, e := range expenses {
		if i, ok := index[core.MonthOf(e.Date.Time)]; ok {
			out[i].Total.Cents += e.Amount.Cents
		}
	}
	return out
}

// AverageMonthlySpend is the mean over months with spend in the trailing
// twelve-month window. Months without data are excluded so they do not
// dilute the average; twelve empty months average to zero.
func AverageMonthlySpend(expenses []core.Expense, now time.Time) core.Money {
	var (
		sum    int64
		months int64
	)
	for _, mt := range MonthlyTotals(expenses, 12, now) {
		if mt.Total.Cents > 0 {
			sum += mt.Total.Cents
			months++
		}
	}
	if months == 0 {
		return core.Money{}
	}
	return core.Money{Cents: sum / months}
}
