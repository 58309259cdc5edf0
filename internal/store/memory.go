package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/faeiqkhan/pocket-insight/internal/core"
)

// MemoryStore implements Store in process memory. It honors the same
// contracts as the Postgres adapter, including owner scoping and upsert
// keys, so tests and the memory backend behave like production.
type MemoryStore struct {
	mu       sync.Mutex
	expenses map[string]core.Expense       // keyed by id
	budgets  map[string]core.MonthlyBudget // keyed by owner + month
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		expenses: make(map[string]core.Expense),
		budgets:  make(map[string]core.MonthlyBudget),
		now:      time.Now,
	}
}

func (s *MemoryStore) Close() error {
	return nil
}

func budgetKey(ownerID string, m core.Month) string {
	return ownerID + "/" + m.String()
}

func (s *MemoryStore) ListExpenses(_ context.Context, ownerID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Expense
	for _, e := range s.expenses {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CreateExpense(_ context.Context, ownerID string, draft core.ExpenseDraft) (core.Expense, error) {
	if err := draft.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := draft.Expense(ownerID)
	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()
	s.expenses[e.ID] = e
	return e, nil
}

func (s *MemoryStore) UpdateExpense(_ context.Context, ownerID, id string, patch core.ExpensePatch) (core.Expense, error) {
	if err := patch.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[id]
	if !ok || e.OwnerID != ownerID {
		return core.Expense{}, storeErr("update expense", ErrNotFound)
	}
	patch.Apply(&e)
	s.expenses[id] = e
	return e, nil
}

func (s *MemoryStore) DeleteExpense(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[id]
	if !ok || e.OwnerID != ownerID {
		return storeErr("delete expense", ErrNotFound)
	}
	delete(s.expenses, id)
	return nil
}

func (s *MemoryStore) ImportExpenses(_ context.Context, ownerID string, expenses []core.Expense) (int, error) {
	for _, e := range expenses {
		if err := e.Validate(); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, e := range expenses {
		if _, exists := s.expenses[e.ID]; exists {
			continue
		}
		e.OwnerID = ownerID
		s.expenses[e.ID] = e
		inserted++
	}
	return inserted, nil
}

func (s *MemoryStore) BudgetForMonth(_ context.Context, ownerID string, month core.Month) (core.MonthlyBudget, bool, error) {
	if err := month.Validate(); err != nil {
		return core.MonthlyBudget{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.budgets[budgetKey(ownerID, month)]
	if !ok {
		return core.MonthlyBudget{}, false, nil
	}
	return b, true, nil
}

func (s *MemoryStore) SaveBudget(_ context.Context, ownerID string, month core.Month, amount core.Money) (core.MonthlyBudget, error) {
	budget := core.MonthlyBudget{OwnerID: ownerID, Month: month, Amount: amount}
	if err := budget.Validate(); err != nil {
		return core.MonthlyBudget{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := budgetKey(ownerID, month)
	if existing, ok := s.budgets[key]; ok {
		existing.Amount = amount
		s.budgets[key] = existing
		return existing, nil
	}
	budget.ID = uuid.NewString()
	budget.CreatedAt = s.now().UTC()
	s.budgets[key] = budget
	return budget, nil
}

func (s *MemoryStore) ImportBudgets(_ context.Context, ownerID string, budgets []core.MonthlyBudget) (int, error) {
	for _, b := range budgets {
		if err := b.Validate(); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	for _, b := range budgets {
		b.OwnerID = ownerID
		key := budgetKey(ownerID, b.Month)
		if existing, ok := s.budgets[key]; ok {
			existing.Amount = b.Amount
			s.budgets[key] = existing
		} else {
			s.budgets[key] = b
		}
		applied++
	}
	return applied, nil
}
