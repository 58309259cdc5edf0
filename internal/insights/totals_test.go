package insights

import (
	"testing"
	"time"

	"github.com/faeiqkhan/pocket-insight/internal/core"
)

func expense(year, month, day int, cat core.Category, cents int64) core.Expense {
	return core.Expense{
		Date:     core.NewDate(year, month, day),
		Category: cat,
		Amount:   core.Money{Cents: cents},
		Payment:  core.PaymentCard,
	}
}

func TestCurrentMonthBoundaries(t *testing.T) {
	now := time.Date(2025, time.August, 15, 10, 0, 0, 0, time.UTC)
	expenses := []core.Expense{
		expense(2025, 7, 31, core.CategoryFood, 100), // last day of previous month
		expense(2025, 8, 1, core.CategoryFood, 200),  // first day of current month
		expense(2025, 8, 31, core.CategoryFood, 300),
		expense(2025, 9, 1, core.CategoryFood, 400),
	}
	got := CurrentMonth(expenses, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(got))
	}
	if Total(got).Cents != 500 {
		t.Fatalf("expected 500 cents, got %d", Total(got).Cents)
	}
}

func TestPreviousMonthJanuaryRollover(t *testing.T) {
	now := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	expenses := []core.Expense{
		expense(2024, 12, 25, core.CategoryShopping, 700),
		expense(2025, 1, 5, core.CategoryShopping, 100),
		expense(2024, 11, 30, core.CategoryShopping, 900),
	}
	got := PreviousMonth(expenses, now)
	if len(got) != 1 || got[0].Amount.Cents != 700 {
		t.Fatalf("expected only the december expense, got %+v", got)
	}
}

func TestTotalEmpty(t *testing.T) {
	if got := Total(nil); got.Cents != 0 {
		t.Fatalf("expected zero total, got %d", got.Cents)
	}
}

func TestPercentChange(t *testing.T) {
	cases := []struct {
		current, previous int64
		want              float64
	}{
		{15000, 10000, 50},
		{5000, 10000, -50},
		{10000, 10000, 0},
		{5000, 0, 100}, // no previous data reads as full growth
		{0, 0, 0},
		{0, 10000, -100},
	}
	for i, tc := range cases {
		got := PercentChange(core.Money{Cents: tc.current}, core.Money{Cents: tc.previous})
		if got != tc.want {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, got)
		}
	}
}

func TestCategoryTotalsCoversEveryCategory(t *testing.T) {
	expenses := []core.Expense{
		expense(2025, 8, 1, core.CategoryFood, 300),
		expense(2025, 8, 2, core.CategoryFood, 200),
		expense(2025, 8, 3, core.CategoryRent, 90000),
	}
	totals := CategoryTotals(expenses)
	if len(totals) != len(core.Categories()) {
		t.Fatalf("expected %d keys, got %d", len(core.Categories()), len(totals))
	}
	if totals[core.CategoryFood].Cents != 500 {
		t.Fatalf("expected food total 500, got %d", totals[core.CategoryFood].Cents)
	}
	if totals[core.CategoryTravel].Cents != 0 {
		t.Fatalf("expected unused category zero, got %d", totals[core.CategoryTravel].Cents)
	}

	var sum int64
	for _, m := range totals {
		sum += m.Cents
	}
	if sum != Total(expenses).Cents {
		t.Fatalf("category totals sum %d != overall total %d", sum, Total(expenses).Cents)
	}
}

func TestTopCategory(t *testing.T) {
	top, amount, ok := TopCategory([]core.Expense{
		expense(2025, 8, 1, core.CategoryFood, 300),
		expense(2025, 8, 2, core.CategoryRent, 90000),
	})
	if !ok || top != core.CategoryRent || amount.Cents != 90000 {
		t.Fatalf("expected rent at 90000, got %v %d ok=%v", top, amount.Cents, ok)
	}
}

func TestTopCategoryAllZero(t *testing.T) {
	if _, _, ok := TopCategory(nil); ok {
		t.Fatalf("expected ok=false with no spend")
	}
}

func TestTopCategoryTieBreaksByEnumerationOrder(t *testing.T) {
	// travel precedes health in the category enumeration
	top, _, ok := TopCategory([]core.Expense{
		expense(2025, 8, 1, core.CategoryHealth, 500),
		expense(2025, 8, 2, core.CategoryTravel, 500),
	})
	if !ok || top != core.CategoryTravel {
		t.Fatalf("expected travel to win the tie, got %v ok=%v", top, ok)
	}
}

func TestSplitCategoriesTiedAtMaximum(t *testing.T) {
	// Two food expenses match a single travel expense. Food reaches the
	// maximum first, so the later equal total must not displace it.
	expenses := []core.Expense{
		expense(2025, 8, 1, core.CategoryFood, 100),
		expense(2025, 8, 2, core.CategoryFood, 200),
		expense(2025, 8, 3, core.CategoryTravel, 300),
	}
	if got := Total(expenses); got.Cents != 600 {
		t.Fatalf("expected total 600, got %d", got.Cents)
	}
	totals := CategoryTotals(expenses)
	if totals[core.CategoryFood].Cents != 300 || totals[core.CategoryTravel].Cents != 300 {
		t.Fatalf("expected 300/300 split, got food=%d travel=%d",
			totals[core.CategoryFood].Cents, totals[core.CategoryTravel].Cents)
	}
	top, amount, ok := TopCategory(expenses)
	if !ok || top != core.CategoryFood || amount.Cents != 300 {
		t.Fatalf("expected food at 300, got %v %d ok=%v", top, amount.Cents, ok)
	}
}
