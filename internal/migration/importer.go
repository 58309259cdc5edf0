// Package migration moves records captured on a device before sign-in
// into the remote store, exactly once per device.
//
// The flow has two halves: Evaluate inspects the device cache and the
// persisted completion flag when a session attaches, and Run (or
// Decline) resolves a pending import. Local data survives every failure
// path; it is cleared only after the remote store has confirmed both
// bulk inserts.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/faeiqkhan/pocket-insight/internal/core"
)

// LocalStore is the device-side cache the importer drains.
type LocalStore interface {
	PendingExpenses(ctx context.Context) ([]core.Expense, error)
	PendingBudgets(ctx context.Context) ([]core.MonthlyBudget, error)
	Clear(ctx context.Context) error
}

// StateStore persists the per-device migration flag.
type StateStore interface {
	State(ctx context.Context) (State, error)
	SetState(ctx context.Context, s State) error
}

// RemoteStore is the slice of the remote store the importer writes
// through. Both calls are idempotent on retry.
type RemoteStore interface {
	ImportExpenses(ctx context.Context, ownerID string, expenses []core.Expense) (int, error)
	ImportBudgets(ctx context.Context, ownerID string, budgets []core.MonthlyBudget) (int, error)
}

// Report summarizes a completed transfer.
type Report struct {
	Expenses int
	Budgets  int
}

// Importer runs the at-most-once local-to-remote transfer for one
// device. Methods are safe for concurrent use; a single run is in
// flight at a time.
type Importer struct {
	local  LocalStore
	states StateStore
	remote RemoteStore

	mu    sync.Mutex
	state State
}

func NewImporter(local LocalStore, states StateStore, remote RemoteStore) *Importer {
	return &Importer{
		local:  local,
		states: states,
		remote: remote,
		state:  StateUnchecked,
	}
}

// State returns the importer's current in-memory state.
func (i *Importer) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Evaluate runs when a session attaches. It resolves to StateCompleted
// when a previous run finished, StatePending when local records are
// waiting for a decision, and StateUnchecked when the device has nothing
// to move.
func (i *Importer) Evaluate(ctx context.Context) (State, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	persisted, err := i.states.State(ctx)
	if err != nil {
		return i.state, fmt.Errorf("read migration state: %w", err)
	}
	if persisted == StateCompleted {
		i.state = StateCompleted
		return i.state, nil
	}

	expenses, err := i.local.PendingExpenses(ctx)
	if err != nil {
		return i.state, fmt.Errorf("inspect local cache: %w", err)
	}
	budgets, err := i.local.PendingBudgets(ctx)
	if err != nil {
		return i.state, fmt.Errorf("inspect local cache: %w", err)
	}

	if len(expenses) == 0 && len(budgets) == 0 {
		// Nothing captured before sign-in; the next session re-checks.
		i.state = StateUnchecked
		return i.state, nil
	}

	if persisted != StatePending {
		if err := i.states.SetState(ctx, StatePending); err != nil {
			return i.state, fmt.Errorf("persist migration state: %w", err)
		}
	}
	i.state = StatePending

	slog.InfoContext(ctx, "Local records awaiting import",
		"expenses", len(expenses),
		"budgets", len(budgets))
	return i.state, nil
}

// Run performs the confirmed transfer for the signed-in owner. On any
// failure the local cache and the pending flag are left untouched, so
// the offer reappears next session; remote inserts are idempotent by
// primary key, so a retry after a mid-run failure cannot duplicate rows.
func (i *Importer) Run(ctx context.Context, ownerID string) (Report, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if ownerID == "" {
		return Report{}, errors.New("owner id required")
	}
	if i.state != StatePending {
		return Report{}, fmt.Errorf("no pending migration (state %q)", i.state)
	}
	i.state = StateMigrating

	report, err := i.run(ctx, ownerID)
	if err != nil {
		i.state = StatePending
		return Report{}, err
	}
	i.state = StateCompleted

	slog.InfoContext(ctx, "Local records migrated",
		"owner_id", ownerID,
		"expenses", report.Expenses,
		"budgets", report.Budgets)
	return report, nil
}

func (i *Importer) run(ctx context.Context, ownerID string) (Report, error) {
	expenses, err := i.local.PendingExpenses(ctx)
	if err != nil {
		return Report{}, &MigrationError{Stage: StageExpenses, Err: fmt.Errorf("read local cache: %w", err)}
	}
	budgets, err := i.local.PendingBudgets(ctx)
	if err != nil {
		return Report{}, &MigrationError{Stage: StageBudgets, Err: fmt.Errorf("read local cache: %w", err)}
	}

	// Records captured before sign-in carry no owner; stamp them now.
	// Ids and created_at values are preserved end to end.
	for idx := range expenses {
		expenses[idx].OwnerID = ownerID
	}
	for idx := range budgets {
		budgets[idx].OwnerID = ownerID
	}

	var report Report
	if report.Expenses, err = i.remote.ImportExpenses(ctx, ownerID, expenses); err != nil {
		return Report{}, &MigrationError{Stage: StageExpenses, Err: err}
	}
	if report.Budgets, err = i.remote.ImportBudgets(ctx, ownerID, budgets); err != nil {
		return Report{}, &MigrationError{Stage: StageBudgets, Err: err}
	}

	// Both inserts confirmed; only now is the device copy destroyed.
	if err := i.local.Clear(ctx); err != nil {
		return Report{}, &MigrationError{Stage: StageCleanup, Err: err}
	}
	if err := i.states.SetState(ctx, StateCompleted); err != nil {
		return Report{}, &MigrationError{Stage: StageCleanup, Err: err}
	}
	return report, nil
}

// Decline resolves a pending import without transferring. The flag is
// set so the question is never asked again on this device; local data is
// deliberately left in place.
func (i *Importer) Decline(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != StatePending {
		return fmt.Errorf("no pending migration (state %q)", i.state)
	}
	if err := i.states.SetState(ctx, StateCompleted); err != nil {
		return fmt.Errorf("persist migration state: %w", err)
	}
	i.state = StateCompleted

	slog.InfoContext(ctx, "Local import declined; records kept on device")
	return nil
}
