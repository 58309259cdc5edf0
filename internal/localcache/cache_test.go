package localcache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/faeiqkhan/pocket-insight/internal/core"
	"github.com/faeiqkhan/pocket-insight/internal/migration"
)

var (
	_ migration.LocalStore = (*Cache)(nil)
	_ migration.StateStore = (*Cache)(nil)
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "device", "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSaveExpenseRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	in := core.ExpenseDraft{
		Date:        core.NewDate(2025, 7, 3),
		Category:    core.CategoryFood,
		Description: "pre-signin lunch",
		Amount:      core.Money{Cents: 1500},
		Payment:     core.PaymentCash,
		Tag:         "canteen",
	}
	saved, err := c.SaveExpense(ctx, in)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" || saved.CreatedAt.IsZero() {
		t.Fatalf("expected assigned id and created_at: %+v", saved)
	}
	if saved.OwnerID != "" {
		t.Fatalf("local records must carry no owner, got %q", saved.OwnerID)
	}

	pending, err := c.PendingExpenses(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending expense, got %d", len(pending))
	}
	got := pending[0]
	if got.ID != saved.ID || got.Date != in.Date || got.Category != in.Category ||
		got.Description != in.Description || got.Amount != in.Amount ||
		got.Payment != in.Payment || got.Tag != in.Tag {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Fatalf("created_at changed: %v vs %v", got.CreatedAt, saved.CreatedAt)
	}
}

func TestSaveExpenseRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	_, err := c.SaveExpense(ctx, core.ExpenseDraft{
		Date:        core.NewDate(2025, 7, 3),
		Category:    "snacks", // not in the closed set
		Description: "x",
		Amount:      core.Money{Cents: 100},
		Payment:     core.PaymentCash,
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if pending, _ := c.PendingExpenses(ctx); len(pending) != 0 {
		t.Fatalf("rejected record was stored")
	}
}

func TestSaveBudgetUpsert(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	month := core.Month{Year: 2025, Month: time.July}

	first, err := c.SaveBudget(ctx, month, core.Money{Cents: 50000})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := c.SaveBudget(ctx, month, core.Money{Cents: 70000})
	if err != nil {
		t.Fatalf("save again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert duplicated the month: %q vs %q", second.ID, first.ID)
	}
	if second.Amount.Cents != 70000 {
		t.Fatalf("expected overwritten amount, got %d", second.Amount.Cents)
	}

	budgets, err := c.PendingBudgets(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("expected a single row per month, got %d", len(budgets))
	}
}

func TestClearLeavesStateAlone(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	if _, err := c.SaveExpense(ctx, core.ExpenseDraft{
		Date:        core.NewDate(2025, 7, 3),
		Category:    core.CategoryFood,
		Description: "lunch",
		Amount:      core.Money{Cents: 100},
		Payment:     core.PaymentCash,
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := c.SaveBudget(ctx, core.Month{Year: 2025, Month: time.July}, core.Money{Cents: 100}); err != nil {
		t.Fatalf("save budget: %v", err)
	}
	if err := c.SetState(ctx, migration.StatePending); err != nil {
		t.Fatalf("set state: %v", err)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if pending, _ := c.PendingExpenses(ctx); len(pending) != 0 {
		t.Fatalf("expenses survived clear")
	}
	if budgets, _ := c.PendingBudgets(ctx); len(budgets) != 0 {
		t.Fatalf("budgets survived clear")
	}
	state, err := c.State(ctx)
	if err != nil || state != migration.StatePending {
		t.Fatalf("expected flag untouched by clear, got %v (err=%v)", state, err)
	}
}

func TestStateLifecycle(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	state, err := c.State(ctx)
	if err != nil || state != migration.StateUnchecked {
		t.Fatalf("expected unchecked on fresh device, got %v (err=%v)", state, err)
	}

	if err := c.SetState(ctx, migration.StatePending); err != nil {
		t.Fatalf("set pending: %v", err)
	}
	if state, _ = c.State(ctx); state != migration.StatePending {
		t.Fatalf("expected pending, got %v", state)
	}

	if err := c.SetState(ctx, migration.StateCompleted); err != nil {
		t.Fatalf("set completed: %v", err)
	}
	if state, _ = c.State(ctx); state != migration.StateCompleted {
		t.Fatalf("expected completed, got %v", state)
	}

	// The transient in-flight state never touches disk
	if err := c.SetState(ctx, migration.StateMigrating); err == nil {
		t.Fatalf("expected refusal to persist a transient state")
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	saved, err := c.SaveExpense(ctx, core.ExpenseDraft{
		Date:        core.NewDate(2025, 7, 3),
		Category:    core.CategoryTravel,
		Description: "bus fare",
		Amount:      core.Money{Cents: 250},
		Payment:     core.PaymentUPI,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	pending, err := reopened.PendingExpenses(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != saved.ID {
		t.Fatalf("data lost across reopen: %+v", pending)
	}
}
