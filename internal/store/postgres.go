package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/faeiqkhan/pocket-insight/internal/core"
)

// PostgresStore implements Store on a row-level-secured Postgres
// database. Every statement carries the owner id; the schema's RLS
// policies enforce the same boundary for any connection that bypasses
// this adapter.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(databaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const expenseColumns = `id, owner_id, date, category, description, amount::text, payment_method, COALESCE(tag, ''), created_at`

const budgetColumns = `id, owner_id, month, amount::text, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e      core.Expense
		date   time.Time
		amount string
	)
	err := row.Scan(&e.ID, &e.OwnerID, &date, (*string)(&e.Category), &e.Description, &amount, (*string)(&e.Payment), &e.Tag, &e.CreatedAt)
	if err != nil {
		return core.Expense{}, err
	}
	e.Date = core.DateOf(date)
	e.Amount, err = core.ParseMoney(amount)
	if err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func scanBudget(row rowScanner) (core.MonthlyBudget, error) {
	var (
		b      core.MonthlyBudget
		month  string
		amount string
	)
	err := row.Scan(&b.ID, &b.OwnerID, &month, &amount, &b.CreatedAt)
	if err != nil {
		return core.MonthlyBudget{}, err
	}
	b.Month, err = core.ParseMonth(month)
	if err != nil {
		return core.MonthlyBudget{}, err
	}
	b.Amount, err = core.ParseMoney(amount)
	if err != nil {
		return core.MonthlyBudget{}, err
	}
	return b, nil
}

func (s *PostgresStore) ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE owner_id = $1
		ORDER BY date DESC, created_at DESC`, ownerID)
	if err != nil {
		return nil, storeErr("list expenses", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, storeErr("list expenses", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list expenses", err)
	}
	return expenses, nil
}

func (s *PostgresStore) CreateExpense(ctx context.Context, ownerID string, draft core.ExpenseDraft) (core.Expense, error) {
	if err := draft.Validate(); err != nil {
		return core.Expense{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO expenses (owner_id, date, category, description, amount, payment_method, tag)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, NULLIF($7, ''))
		RETURNING `+expenseColumns,
		ownerID,
		draft.Date.Time,
		string(draft.Category),
		strings.TrimSpace(draft.Description),
		draft.Amount.DecimalString(),
		string(draft.Payment),
		strings.TrimSpace(draft.Tag))

	e, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, storeErr("create expense", err)
	}

	slog.InfoContext(ctx, "Expense created",
		"id", e.ID,
		"owner_id", ownerID,
		"category", string(e.Category),
		"amount_cents", e.Amount.Cents)
	return e, nil
}

func (s *PostgresStore) UpdateExpense(ctx context.Context, ownerID, id string, patch core.ExpensePatch) (core.Expense, error) {
	if err := patch.Validate(); err != nil {
		return core.Expense{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return core.Expense{}, storeErr("update expense", ErrNotFound)
	}

	set := make([]string, 0, 6)
	args := make([]any, 0, 8)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if patch.Date != nil {
		set = append(set, "date = "+arg(patch.Date.Time))
	}
	if patch.Category != nil {
		set = append(set, "category = "+arg(string(*patch.Category)))
	}
	if patch.Description != nil {
		set = append(set, "description = "+arg(strings.TrimSpace(*patch.Description)))
	}
	if patch.Amount != nil {
		set = append(set, "amount = "+arg(patch.Amount.DecimalString())+"::numeric")
	}
	if patch.Payment != nil {
		set = append(set, "payment_method = "+arg(string(*patch.Payment)))
	}
	if patch.Tag != nil {
		set = append(set, "tag = NULLIF("+arg(strings.TrimSpace(*patch.Tag))+", '')")
	}

	query := `UPDATE expenses SET ` + strings.Join(set, ", ") +
		` WHERE id = ` + arg(id) + ` AND owner_id = ` + arg(ownerID) +
		` RETURNING ` + expenseColumns

	e, err := scanExpense(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, storeErr("update expense", ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, storeErr("update expense", err)
	}

	slog.InfoContext(ctx, "Expense updated", "id", id, "owner_id", ownerID)
	return e, nil
}

func (s *PostgresStore) DeleteExpense(ctx context.Context, ownerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return storeErr("delete expense", ErrNotFound)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return storeErr("delete expense", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("delete expense", err)
	}
	if n == 0 {
		return storeErr("delete expense", ErrNotFound)
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id, "owner_id", ownerID)
	return nil
}

func (s *PostgresStore) ImportExpenses(ctx context.Context, ownerID string, expenses []core.Expense) (int, error) {
	if len(expenses) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeErr("import expenses", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO expenses (id, owner_id, date, category, description, amount, payment_method, tag, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, NULLIF($8, ''), $9)
		ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return 0, storeErr("import expenses", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, e := range expenses {
		if err := e.Validate(); err != nil {
			return 0, err
		}
		if _, err := uuid.Parse(e.ID); err != nil {
			return 0, storeErr("import expenses", fmt.Errorf("record %q: invalid id", e.ID))
		}
		res, err := stmt.ExecContext(ctx,
			e.ID,
			ownerID,
			e.Date.Time,
			string(e.Category),
			strings.TrimSpace(e.Description),
			e.Amount.DecimalString(),
			string(e.Payment),
			strings.TrimSpace(e.Tag),
			e.CreatedAt)
		if err != nil {
			return 0, storeErr("import expenses", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, storeErr("import expenses", err)
	}

	slog.InfoContext(ctx, "Expenses imported",
		"owner_id", ownerID,
		"received", len(expenses),
		"inserted", inserted)
	return inserted, nil
}

func (s *PostgresStore) BudgetForMonth(ctx context.Context, ownerID string, month core.Month) (core.MonthlyBudget, bool, error) {
	if err := month.Validate(); err != nil {
		return core.MonthlyBudget{}, false, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE owner_id = $1 AND month = $2`, ownerID, month.String())

	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyBudget{}, false, nil
	}
	if err != nil {
		return core.MonthlyBudget{}, false, storeErr("get budget", err)
	}
	return b, true, nil
}

func (s *PostgresStore) SaveBudget(ctx context.Context, ownerID string, month core.Month, amount core.Money) (core.MonthlyBudget, error) {
	budget := core.MonthlyBudget{OwnerID: ownerID, Month: month, Amount: amount}
	if err := budget.Validate(); err != nil {
		return core.MonthlyBudget{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO budgets (owner_id, month, amount)
		VALUES ($1, $2, $3::numeric)
		ON CONFLICT (owner_id, month) DO UPDATE SET amount = EXCLUDED.amount
		RETURNING `+budgetColumns,
		ownerID, month.String(), amount.DecimalString())

	b, err := scanBudget(row)
	if err != nil {
		return core.MonthlyBudget{}, storeErr("save budget", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"owner_id", ownerID,
		"month", month.String(),
		"amount_cents", b.Amount.Cents)
	return b, nil
}

func (s *PostgresStore) ImportBudgets(ctx context.Context, ownerID string, budgets []core.MonthlyBudget) (int, error) {
	if len(budgets) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeErr("import budgets", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO budgets (id, owner_id, month, amount, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5)
		ON CONFLICT (owner_id, month) DO UPDATE SET amount = EXCLUDED.amount`)
	if err != nil {
		return 0, storeErr("import budgets", err)
	}
	defer stmt.Close()

	applied := 0
	for _, b := range budgets {
		if err := b.Validate(); err != nil {
			return 0, err
		}
		if _, err := uuid.Parse(b.ID); err != nil {
			return 0, storeErr("import budgets", fmt.Errorf("record %q: invalid id", b.ID))
		}
		res, err := stmt.ExecContext(ctx,
			b.ID,
			ownerID,
			b.Month.String(),
			b.Amount.DecimalString(),
			b.CreatedAt)
		if err != nil {
			return 0, storeErr("import budgets", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			applied++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, storeErr("import budgets", err)
	}

	slog.InfoContext(ctx, "Budgets imported",
		"owner_id", ownerID,
		"received", len(budgets),
		"applied", applied)
	return applied, nil
}
