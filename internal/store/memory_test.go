package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/faeiqkhan/pocket-insight/internal/core"
)

func draft(day int, cents int64) core.ExpenseDraft {
	return core.ExpenseDraft{
		Date:        core.NewDate(2025, 8, day),
		Category:    core.CategoryFood,
		Description: "lunch",
		Amount:      core.Money{Cents: cents},
		Payment:     core.PaymentCard,
	}
}

func TestMemoryStoreCreateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	in := core.ExpenseDraft{
		Date:        core.NewDate(2025, 8, 10),
		Category:    core.CategoryTravel,
		Description: "  train ticket  ",
		Amount:      core.Money{Cents: 4550},
		Payment:     core.PaymentUPI,
		Tag:         "commute",
	}
	created, err := s.CreateExpense(ctx, "owner-1", in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected store-assigned id and created_at, got %+v", created)
	}

	listed, err := s.ListExpenses(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(listed))
	}
	got := listed[0]
	if got.Date != in.Date || got.Category != in.Category || got.Description != "train ticket" ||
		got.Amount != in.Amount || got.Payment != in.Payment || got.Tag != "commute" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestMemoryStoreValidationNeverReachesStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	bad := draft(10, 100)
	bad.Description = ""
	_, err := s.CreateExpense(ctx, "owner-1", bad)
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	listed, _ := s.ListExpenses(ctx, "owner-1")
	if len(listed) != 0 {
		t.Fatalf("rejected record was stored: %+v", listed)
	}
}

func TestMemoryStoreListOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, day := range []int{5, 20, 12} {
		if _, err := s.CreateExpense(ctx, "owner-1", draft(day, 100)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	listed, err := s.ListExpenses(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	days := []int{listed[0].Date.Day(), listed[1].Date.Day(), listed[2].Date.Day()}
	if days[0] != 20 || days[1] != 12 || days[2] != 5 {
		t.Fatalf("expected date-descending order, got %v", days)
	}
}

func TestMemoryStoreOwnerIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	mine, err := s.CreateExpense(ctx, "owner-1", draft(10, 100))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	listed, _ := s.ListExpenses(ctx, "owner-2")
	if len(listed) != 0 {
		t.Fatalf("owner-2 sees owner-1 rows: %+v", listed)
	}

	amount := core.Money{Cents: 999}
	if _, err := s.UpdateExpense(ctx, "owner-2", mine.ID, core.ExpensePatch{Amount: &amount}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-owner update, got %v", err)
	}
	if err := s.DeleteExpense(ctx, "owner-2", mine.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-owner delete, got %v", err)
	}

	// The attempts must not have touched the row
	listed, _ = s.ListExpenses(ctx, "owner-1")
	if len(listed) != 1 || listed[0].Amount.Cents != 100 {
		t.Fatalf("owner-1 row was modified: %+v", listed)
	}
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	created, err := s.CreateExpense(ctx, "owner-1", draft(10, 100))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	desc := "dinner"
	amount := core.Money{Cents: 2500}
	updated, err := s.UpdateExpense(ctx, "owner-1", created.ID, core.ExpensePatch{Description: &desc, Amount: &amount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Description != "dinner" || updated.Amount.Cents != 2500 {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.Date != created.Date || updated.Payment != created.Payment {
		t.Fatalf("unpatched fields changed: %+v", updated)
	}

	var serr *StoreError
	_, err = s.UpdateExpense(ctx, "owner-1", uuid.NewString(), core.ExpensePatch{Amount: &amount})
	if !errors.As(err, &serr) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected StoreError wrapping ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	created, err := s.CreateExpense(ctx, "owner-1", draft(10, 100))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeleteExpense(ctx, "owner-1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	listed, _ := s.ListExpenses(ctx, "owner-1")
	if len(listed) != 0 {
		t.Fatalf("expected empty store, got %+v", listed)
	}
	if err := s.DeleteExpense(ctx, "owner-1", created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStoreBudgetAbsence(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.BudgetForMonth(ctx, "owner-1", core.Month{Year: 2025, Month: time.August})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for missing budget")
	}
}

func TestMemoryStoreBudgetUpsert(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	month := core.Month{Year: 2025, Month: time.August}

	first, err := s.SaveBudget(ctx, "owner-1", month, core.Money{Cents: 50000})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := s.SaveBudget(ctx, "owner-1", month, core.Money{Cents: 70000})
	if err != nil {
		t.Fatalf("save again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert duplicated the row: %q vs %q", second.ID, first.ID)
	}

	got, ok, err := s.BudgetForMonth(ctx, "owner-1", month)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Amount.Cents != 70000 {
		t.Fatalf("expected overwritten amount, got %d", got.Amount.Cents)
	}

	// Another owner's months are independent
	_, ok, _ = s.BudgetForMonth(ctx, "owner-2", month)
	if ok {
		t.Fatalf("owner-2 sees owner-1 budget")
	}
}

func TestMemoryStoreImportIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	records := []core.Expense{
		{
			ID:          uuid.NewString(),
			Date:        core.NewDate(2025, 7, 1),
			Category:    core.CategoryRent,
			Description: "july rent",
			Amount:      core.Money{Cents: 90000},
			Payment:     core.PaymentBank,
			CreatedAt:   time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:          uuid.NewString(),
			Date:        core.NewDate(2025, 7, 2),
			Category:    core.CategoryFood,
			Description: "groceries",
			Amount:      core.Money{Cents: 3200},
			Payment:     core.PaymentCash,
			CreatedAt:   time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC),
		},
	}

	inserted, err := s.ImportExpenses(ctx, "owner-1", records)
	if err != nil || inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d (err=%v)", inserted, err)
	}

	// A retried import must skip rows that already landed
	inserted, err = s.ImportExpenses(ctx, "owner-1", records)
	if err != nil || inserted != 0 {
		t.Fatalf("expected 0 inserted on retry, got %d (err=%v)", inserted, err)
	}

	listed, _ := s.ListExpenses(ctx, "owner-1")
	if len(listed) != 2 {
		t.Fatalf("expected 2 rows after retry, got %d", len(listed))
	}
	if listed[0].ID != records[1].ID || listed[0].CreatedAt != records[1].CreatedAt {
		t.Fatalf("import did not preserve id and created_at: %+v", listed[0])
	}
}

func TestMemoryStoreImportBudgets(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	month := core.Month{Year: 2025, Month: time.July}

	applied, err := s.ImportBudgets(ctx, "owner-1", []core.MonthlyBudget{{
		ID:        uuid.NewString(),
		Month:     month,
		Amount:    core.Money{Cents: 60000},
		CreatedAt: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}})
	if err != nil || applied != 1 {
		t.Fatalf("expected 1 applied, got %d (err=%v)", applied, err)
	}

	got, ok, _ := s.BudgetForMonth(ctx, "owner-1", month)
	if !ok || got.Amount.Cents != 60000 {
		t.Fatalf("imported budget missing: ok=%v %+v", ok, got)
	}

	// Re-import overwrites the amount without duplicating the month
	applied, err = s.ImportBudgets(ctx, "owner-1", []core.MonthlyBudget{{
		ID:     uuid.NewString(),
		Month:  month,
		Amount: core.Money{Cents: 65000},
	}})
	if err != nil || applied != 1 {
		t.Fatalf("expected upsert, got %d (err=%v)", applied, err)
	}
	got, _, _ = s.BudgetForMonth(ctx, "owner-1", month)
	if got.Amount.Cents != 65000 {
		t.Fatalf("expected overwritten amount, got %d", got.Amount.Cents)
	}
}
