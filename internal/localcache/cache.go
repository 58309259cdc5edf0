// Package localcache stores records captured on a device before any
// authenticated session existed, plus the device's migration flag. It is
// the Go rendition of the browser-local storage the tracker started on:
// single user, no owner column, cleared only after a confirmed import.
package localcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/faeiqkhan/pocket-insight/internal/core"
	"github.com/faeiqkhan/pocket-insight/internal/migration"
)

const stateKey = "migration"

// Cache is a device-local SQLite store. It implements
// migration.LocalStore and migration.StateStore.
type Cache struct {
	db *sql.DB
}

func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local cache: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping local cache: %w", err)
	}

	if err := RunMigrations(path); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// SaveExpense captures an expense while the device has no session. The
// id assigned here survives migration and becomes the remote primary
// key.
func (c *Cache) SaveExpense(ctx context.Context, draft core.ExpenseDraft) (core.Expense, error) {
	if err := draft.Validate(); err != nil {
		return core.Expense{}, err
	}

	e := draft.Expense("")
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO local_expenses (id, date, category, description, amount_cents, payment_method, tag, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Date.String(),
		string(e.Category),
		e.Description,
		e.Amount.Cents,
		string(e.Payment),
		e.Tag,
		e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return core.Expense{}, fmt.Errorf("save local expense: %w", err)
	}
	return e, nil
}

// SaveBudget captures a monthly budget while the device has no session,
// overwriting any earlier amount for the same month.
func (c *Cache) SaveBudget(ctx context.Context, month core.Month, amount core.Money) (core.MonthlyBudget, error) {
	b := core.MonthlyBudget{
		ID:        uuid.NewString(),
		Month:     month,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	if err := b.Validate(); err != nil {
		return core.MonthlyBudget{}, err
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO local_budgets (id, month, amount_cents, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (month) DO UPDATE SET amount_cents = excluded.amount_cents`,
		b.ID,
		b.Month.String(),
		b.Amount.Cents,
		b.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return core.MonthlyBudget{}, fmt.Errorf("save local budget: %w", err)
	}

	// The upsert may have kept an earlier row; read back the stored one
	row := c.db.QueryRowContext(ctx, `
		SELECT id, month, amount_cents, created_at
		FROM local_budgets
		WHERE month = ?`, b.Month.String())
	stored, err := scanLocalBudget(row)
	if err != nil {
		return core.MonthlyBudget{}, fmt.Errorf("read local budget back: %w", err)
	}
	return stored, nil
}

// PendingExpenses implements migration.LocalStore.
func (c *Cache) PendingExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, date, category, description, amount_cents, payment_method, tag, created_at
		FROM local_expenses
		ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list local expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e         core.Expense
			date      string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &date, (*string)(&e.Category), &e.Description, &e.Amount.Cents, (*string)(&e.Payment), &e.Tag, &createdAt); err != nil {
			return nil, fmt.Errorf("scan local expense: %w", err)
		}
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("scan local expense: %w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("scan local expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list local expenses: %w", err)
	}
	return expenses, nil
}

// PendingBudgets implements migration.LocalStore.
func (c *Cache) PendingBudgets(ctx context.Context) ([]core.MonthlyBudget, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, month, amount_cents, created_at
		FROM local_budgets
		ORDER BY month`)
	if err != nil {
		return nil, fmt.Errorf("list local budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.MonthlyBudget
	for rows.Next() {
		b, err := scanLocalBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan local budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list local budgets: %w", err)
	}
	return budgets, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocalBudget(row rowScanner) (core.MonthlyBudget, error) {
	var (
		b         core.MonthlyBudget
		month     string
		createdAt string
	)
	if err := row.Scan(&b.ID, &month, &b.Amount.Cents, &createdAt); err != nil {
		return core.MonthlyBudget{}, err
	}
	var err error
	if b.Month, err = core.ParseMonth(month); err != nil {
		return core.MonthlyBudget{}, err
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.MonthlyBudget{}, err
	}
	return b, nil
}

// Clear implements migration.LocalStore. Both record tables empty out in
// one transaction; the migration flag is managed separately.
func (c *Cache) Clear(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("clear local cache: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM local_expenses`); err != nil {
		return fmt.Errorf("clear local expenses: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM local_budgets`); err != nil {
		return fmt.Errorf("clear local budgets: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("clear local cache: %w", err)
	}
	return nil
}

// State implements migration.StateStore. A device that has never
// evaluated migration has no row and reads as unchecked.
func (c *Cache) State(ctx context.Context) (migration.State, error) {
	var value string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM device_state WHERE key = ?`, stateKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return migration.StateUnchecked, nil
	}
	if err != nil {
		return migration.StateUnchecked, fmt.Errorf("read migration state: %w", err)
	}

	state := migration.State(value)
	if !state.Persistable() {
		return migration.StateUnchecked, fmt.Errorf("corrupt migration state %q", value)
	}
	return state, nil
}

// SetState implements migration.StateStore.
func (c *Cache) SetState(ctx context.Context, state migration.State) error {
	if !state.Persistable() {
		return fmt.Errorf("state %q cannot be persisted", state)
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO device_state (key, value)
		VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		stateKey, string(state))
	if err != nil {
		return fmt.Errorf("write migration state: %w", err)
	}
	return nil
}
