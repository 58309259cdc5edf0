package service

import (
	"sort"
	"sync"

	"github.com/faeiqkhan/pocket-insight/internal/core"
)

// expenseView is the in-memory list a device renders from. Mutations
// are applied to it speculatively before the store answers; a snapshot
// taken first is restored when the store refuses the change, so the
// view never shows a record the store rejected.
type expenseView struct {
	mu     sync.Mutex
	items  []core.Expense
	loaded bool
}

func sortExpenses(items []core.Expense) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date.Time) {
			return items[i].Date.After(items[j].Date.Time)
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func (v *expenseView) snapshot() []core.Expense {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]core.Expense(nil), v.items...)
}

func (v *expenseView) restore(items []core.Expense) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = items
}

func (v *expenseView) replaceAll(items []core.Expense) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = append([]core.Expense(nil), items...)
	sortExpenses(v.items)
	v.loaded = true
}

func (v *expenseView) list() []core.Expense {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]core.Expense(nil), v.items...)
}

func (v *expenseView) insert(e core.Expense) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = append(v.items, e)
	sortExpenses(v.items)
}

// put replaces the record with e's id, or inserts it when absent.
func (v *expenseView) put(e core.Expense) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.items {
		if v.items[i].ID == e.ID {
			v.items[i] = e
			sortExpenses(v.items)
			return
		}
	}
	v.items = append(v.items, e)
	sortExpenses(v.items)
}

func (v *expenseView) applyPatch(id string, patch core.ExpensePatch) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.items {
		if v.items[i].ID == id {
			patch.Apply(&v.items[i])
			sortExpenses(v.items)
			return
		}
	}
}

func (v *expenseView) remove(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.items {
		if v.items[i].ID == id {
			v.items = append(v.items[:i], v.items[i+1:]...)
			return
		}
	}
}
