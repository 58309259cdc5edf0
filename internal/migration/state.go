package migration

// State tracks the one-shot import lifecycle on a device.
//
// Only StatePending and StateCompleted are ever persisted; StateMigrating
// exists in memory while a transfer is running and collapses back to
// StatePending if the process dies mid-flight, so a crashed import is
// simply offered again.
type State string

const (
	StateUnchecked State = "unchecked"
	StatePending   State = "pending"
	StateMigrating State = "migrating"
	StateCompleted State = "completed"
)

func (s State) Valid() bool {
	switch s {
	case StateUnchecked, StatePending, StateMigrating, StateCompleted:
		return true
	}
	return false
}

// Persistable reports whether the state may be written to device storage
func (s State) Persistable() bool {
	return s == StatePending || s == StateCompleted
}

// Stages of a transfer, named in MigrationError so a failed run says
// exactly how far it got.
const (
	StageExpenses = "expenses"
	StageBudgets  = "budgets"
	StageCleanup  = "local cleanup"
)

// MigrationError reports which stage of the bulk transfer failed. Local
// data is always intact when one of these is returned.
type MigrationError struct {
	Stage string
	Err   error
}

func (e *MigrationError) Error() string {
	return "migration: " + e.Stage + ": " + e.Err.Error()
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}
