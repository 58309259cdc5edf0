// Package insights derives dashboard metrics from expense records.
//
// Every function is pure: it takes the records plus a reference instant
// and returns derived values, touching no store and no global clock.
// Callers fetch once and aggregate in memory.
package insights

import (
	"time"

	"github.com/faeiqkhan/pocket-insight/internal/core"
)

// MonthSummary is the full dashboard view for one month.
type MonthSummary struct {
	Month         core.Month
	Total         core.Money
	PreviousTotal core.Money
	PercentChange float64

	ByCategory     map[core.Category]core.Money
	TopCategory    core.Category
	TopAmount      core.Money
	HasTopCategory bool

	Trend          []MonthTotal
	AverageMonthly core.Money

	Budget        core.Money
	HasBudget     bool
	BudgetLeft    core.Money // negative when over budget
	BudgetUsedPct float64
}

// BuildMonthSummary derives every displayed metric from the owner's full
// expense set. budget is nil when no budget is set for the month; a nil
// budget and a zero-amount budget are deliberately distinct cases.
func BuildMonthSummary(expenses []core.Expense, budget *core.MonthlyBudget, now time.Time, trendMonths int) MonthSummary {
	current := CurrentMonth(expenses, now)
	previous := PreviousMonth(expenses, now)

	s := MonthSummary{
		Month:          core.MonthOf(now),
		Total:          Total(current),
		PreviousTotal:  Total(previous),
		ByCategory:     CategoryTotals(current),
		Trend:          MonthlyTotals(expenses, trendMonths, now),
		AverageMonthly: AverageMonthlySpend(expenses, now),
	}
	s.PercentChange = PercentChange(s.Total, s.PreviousTotal)
	s.TopCategory, s.TopAmount, s.HasTopCategory = TopCategory(current)

	if budget != nil {
		s.HasBudget = true
		s.Budget = budget.Amount
		s.BudgetLeft = core.Money{Cents: budget.Amount.Cents - s.Total.Cents}
		if budget.Amount.Cents > 0 {
			s.BudgetUsedPct = float64(s.Total.Cents) / float64(budget.Amount.Cents) * 100
		}
	}
	return s
}
