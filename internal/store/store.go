// Package store persists tracker records in a remote, owner-scoped
// store. Every operation takes the calling owner's id and can only see
// or touch that owner's rows; the Postgres adapter backs this with
// row-level security policies, the memory adapter mirrors the same
// contract for tests.
package store

import (
	"context"
	"errors"

	"github.com/faeiqkhan/pocket-insight/internal/core"
)

// ErrNotFound reports a row that does not exist or is not visible to the
// calling owner. The two cases are indistinguishable on purpose: probing
// another owner's ids must not reveal whether they exist.
var ErrNotFound = errors.New("record not found")

// StoreError wraps any failure from a store adapter with the operation
// that produced it. Callers roll back optimistic view updates when they
// see one.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// ExpenseStore is the owner-scoped expense port.
type ExpenseStore interface {
	// ListExpenses returns all of the owner's expenses ordered by date
	// descending. An empty result is a valid state, not an error.
	ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error)

	// CreateExpense validates and inserts a new expense under ownerID.
	// The store assigns ID and CreatedAt.
	CreateExpense(ctx context.Context, ownerID string, draft core.ExpenseDraft) (core.Expense, error)

	// UpdateExpense applies only the fields set in patch and returns the
	// updated record. Unknown ids and other owners' ids both fail with
	// ErrNotFound.
	UpdateExpense(ctx context.Context, ownerID, id string, patch core.ExpensePatch) (core.Expense, error)

	// DeleteExpense removes the expense. Unknown ids and other owners'
	// ids both fail with ErrNotFound.
	DeleteExpense(ctx context.Context, ownerID, id string) error

	// ImportExpenses bulk-inserts records under ownerID, preserving
	// their ids and CreatedAt stamps. Inserts are idempotent by primary
	// key: rows already present are skipped, and the returned count is
	// the number actually inserted, so a retried import cannot
	// duplicate.
	ImportExpenses(ctx context.Context, ownerID string, expenses []core.Expense) (int, error)
}

// BudgetStore is the owner-scoped monthly budget port.
type BudgetStore interface {
	// BudgetForMonth returns the owner's budget for the month. Absence
	// is reported via ok=false, never as a zero-amount budget.
	BudgetForMonth(ctx context.Context, ownerID string, month core.Month) (core.MonthlyBudget, bool, error)

	// SaveBudget upserts the budget keyed by (owner, month). A second
	// save for the same month overwrites the amount, never duplicates
	// the row.
	SaveBudget(ctx context.Context, ownerID string, month core.Month, amount core.Money) (core.MonthlyBudget, error)

	// ImportBudgets bulk-upserts budgets under ownerID, preserving ids
	// and CreatedAt stamps where the month is not already taken.
	ImportBudgets(ctx context.Context, ownerID string, budgets []core.MonthlyBudget) (int, error)
}

// Store is the full remote store surface the tracker composes over.
type Store interface {
	ExpenseStore
	BudgetStore
	Close() error
}
