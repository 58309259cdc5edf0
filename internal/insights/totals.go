package insights

import "github.com/faeiqkhan/pocket-insight/internal/core"

// Total sums expense amounts; an empty set totals zero
func Total(expenses []core.Expense) core.Money {
	var cents int64
	for _, e := range expenses {
		cents += e.Amount.Cents
	}
	return core.Money{Cents: cents}
}

// PercentChange compares two period totals. A zero previous period is
// reported as +100% when the current period has spend and 0% when both
// are empty; the division by zero is never surfaced to callers.
func PercentChange(current, previous core.Money) float64 {
	if previous.Cents == 0 {
		if current.Cents > 0 {
			return 100
		}
		return 0
	}
	return float64(current.Cents-previous.Cents) / float64(previous.Cents) * 100
}

// CategoryTotals buckets spend by category. Every category of the closed
// set appears in the result, zero-valued when unused, so chart rendering
// never probes for missing keys.
func CategoryTotals(expenses []core.Expense) map[core.Category]core.Money {
	totals := make(map[core.Category]core.Money, len(core.Categories()))
	for _, c := range core.Categories() {
		totals[c] = core.Money{}
	}
	for _, e := range expenses {
		t := totals[e.Category]
		t.Cents += e.Amount.Cents
		totals[e.Category] = t
	}
	return totals
}

// TopCategory returns the category with the largest total. ok is false
// when every total is zero. Ties go to the category that appears first
// in enumeration order; a later equal total never displaces it.
func TopCategory(expenses []core.Expense) (core.Category, core.Money, bool) {
	totals := CategoryTotals(expenses)
	var (
		top  core.Category
		best core.Money
	)
	for _, c := range core.Categories() {
		if totals[c].Cents > best.Cents {
			top, best = c, totals[c]
		}
	}
	if best.Cents == 0 {
		return "", core.Money{}, false
	}
	return top, best, true
}
