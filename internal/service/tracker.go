// Package service orchestrates the tracker's use cases: validate, hit
// the owner-scoped store, patch the optimistic view, invalidate derived
// summaries, and tell other devices. Store writes are the source of
// truth; everything else here exists to converge on them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/faeiqkhan/pocket-insight/internal/cache"
	"github.com/faeiqkhan/pocket-insight/internal/core"
	"github.com/faeiqkhan/pocket-insight/internal/events"
	"github.com/faeiqkhan/pocket-insight/internal/insights"
	"github.com/faeiqkhan/pocket-insight/internal/store"
)

// Publisher sends change notifications to the owner's other devices.
// *events.Client satisfies it; a nil Publisher disables publishing.
type Publisher interface {
	PublishChange(ctx context.Context, msg *events.ChangeMessage) error
}

// Config tunes the tracker's derived-data caching.
type Config struct {
	TrendMonths      int
	SummaryCacheSize int
	SummaryCacheTTL  time.Duration
}

func DefaultConfig() Config {
	return Config{
		TrendMonths:      6,
		SummaryCacheSize: 64,
		SummaryCacheTTL:  5 * time.Minute,
	}
}

// Tracker is the application service over one remote store.
type Tracker struct {
	store  store.Store
	events Publisher

	summaries   *cache.LRU[insights.MonthSummary]
	trendMonths int

	mu    sync.Mutex
	views map[string]*expenseView
	gens  map[string]uint64

	now func() time.Time
}

func NewTracker(st store.Store, publisher Publisher, cfg Config) *Tracker {
	def := DefaultConfig()
	if cfg.TrendMonths <= 0 {
		cfg.TrendMonths = def.TrendMonths
	}
	if cfg.SummaryCacheSize <= 0 {
		cfg.SummaryCacheSize = def.SummaryCacheSize
	}
	if cfg.SummaryCacheTTL <= 0 {
		cfg.SummaryCacheTTL = def.SummaryCacheTTL
	}

	return &Tracker{
		store:       st,
		events:      publisher,
		summaries:   cache.NewLRU[insights.MonthSummary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL),
		trendMonths: cfg.TrendMonths,
		views:       make(map[string]*expenseView),
		gens:        make(map[string]uint64),
		now:         time.Now,
	}
}

func (t *Tracker) view(ownerID string) *expenseView {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.views[ownerID]
	if !ok {
		v = &expenseView{}
		t.views[ownerID] = v
	}
	return v
}

// invalidate strands every cached summary for the owner by bumping the
// generation baked into cache keys; the LRU evicts the orphans in due
// course.
func (t *Tracker) invalidate(ownerID string) {
	t.mu.Lock()
	t.gens[ownerID]++
	t.mu.Unlock()
}

func (t *Tracker) summaryKey(ownerID string, m core.Month) string {
	t.mu.Lock()
	gen := t.gens[ownerID]
	t.mu.Unlock()
	return fmt.Sprintf("%s#%d|%s", ownerID, gen, m)
}

func (t *Tracker) publish(ctx context.Context, msg *events.ChangeMessage) {
	if t.events == nil {
		return
	}
	if err := t.events.PublishChange(ctx, msg); err != nil {
		// The store write already succeeded; other devices converge on
		// cache expiry instead.
		slog.ErrorContext(ctx, "Failed to publish change message",
			"owner_id", msg.OwnerID,
			"entity", msg.Entity,
			"action", msg.Action,
			"error", err)
	}
}

// Expenses returns the owner's records from the store, newest first,
// and reconciles the optimistic view with the authoritative answer.
func (t *Tracker) Expenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	expenses, err := t.store.ListExpenses(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	t.view(ownerID).replaceAll(expenses)
	return expenses, nil
}

// View returns the owner's optimistic expense list as currently
// rendered, including speculative entries awaiting store confirmation.
func (t *Tracker) View(ownerID string) []core.Expense {
	return t.view(ownerID).list()
}

// AddExpense validates the draft, shows it speculatively, then persists
// it. A store failure rolls the view back and surfaces the error.
func (t *Tracker) AddExpense(ctx context.Context, ownerID string, draft core.ExpenseDraft) (core.Expense, error) {
	if err := draft.Validate(); err != nil {
		return core.Expense{}, err
	}

	view := t.view(ownerID)
	snap := view.snapshot()
	view.insert(draft.Expense(ownerID))

	created, err := t.store.CreateExpense(ctx, ownerID, draft)
	if err != nil {
		view.restore(snap)
		return core.Expense{}, err
	}

	t.invalidate(ownerID)
	t.reconcile(ctx, ownerID, view, func() {
		view.restore(snap)
		view.insert(created)
	})
	t.publish(ctx, events.NewChangeMessage(ownerID, events.EntityExpense, events.ActionCreated, created.ID))
	return created, nil
}

// EditExpense applies a partial update optimistically, then persists it.
func (t *Tracker) EditExpense(ctx context.Context, ownerID, id string, patch core.ExpensePatch) (core.Expense, error) {
	if err := patch.Validate(); err != nil {
		return core.Expense{}, err
	}

	view := t.view(ownerID)
	snap := view.snapshot()
	view.applyPatch(id, patch)

	updated, err := t.store.UpdateExpense(ctx, ownerID, id, patch)
	if err != nil {
		view.restore(snap)
		return core.Expense{}, err
	}

	t.invalidate(ownerID)
	t.reconcile(ctx, ownerID, view, func() {
		view.put(updated)
	})
	t.publish(ctx, events.NewChangeMessage(ownerID, events.EntityExpense, events.ActionUpdated, id))
	return updated, nil
}

// RemoveExpense deletes optimistically, then persists the delete.
func (t *Tracker) RemoveExpense(ctx context.Context, ownerID, id string) error {
	view := t.view(ownerID)
	snap := view.snapshot()
	view.remove(id)

	if err := t.store.DeleteExpense(ctx, ownerID, id); err != nil {
		view.restore(snap)
		return err
	}

	t.invalidate(ownerID)
	t.reconcile(ctx, ownerID, view, nil)
	t.publish(ctx, events.NewChangeMessage(ownerID, events.EntityExpense, events.ActionDeleted, id))
	return nil
}

// reconcile refetches the authoritative list after a confirmed write.
// When the refetch itself fails the fallback patches the view with what
// the store returned, and the next successful read converges fully.
func (t *Tracker) reconcile(ctx context.Context, ownerID string, view *expenseView, fallback func()) {
	fresh, err := t.store.ListExpenses(ctx, ownerID)
	if err != nil {
		slog.WarnContext(ctx, "Refetch after write failed; view reconciled locally",
			"owner_id", ownerID,
			"error", err)
		if fallback != nil {
			fallback()
		}
		return
	}
	view.replaceAll(fresh)
}

// SetBudget upserts the owner's budget for the month.
func (t *Tracker) SetBudget(ctx context.Context, ownerID string, month core.Month, amount core.Money) (core.MonthlyBudget, error) {
	saved, err := t.store.SaveBudget(ctx, ownerID, month, amount)
	if err != nil {
		return core.MonthlyBudget{}, err
	}

	t.invalidate(ownerID)
	t.publish(ctx, events.NewChangeMessage(ownerID, events.EntityBudget, events.ActionUpdated, saved.ID))
	return saved, nil
}

// Budget returns the owner's budget for the month; ok is false when no
// budget was ever set.
func (t *Tracker) Budget(ctx context.Context, ownerID string, month core.Month) (core.MonthlyBudget, bool, error) {
	return t.store.BudgetForMonth(ctx, ownerID, month)
}

// Dashboard returns the current month's summary, cached per owner until
// a mutation or the TTL invalidates it. The expense list and the budget
// row are fetched concurrently on a miss.
func (t *Tracker) Dashboard(ctx context.Context, ownerID string) (insights.MonthSummary, error) {
	now := t.now()
	month := core.MonthOf(now)

	key := t.summaryKey(ownerID, month)
	if cached, ok := t.summaries.Get(key); ok {
		return cached, nil
	}

	var (
		expenses  []core.Expense
		budget    core.MonthlyBudget
		hasBudget bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = t.store.ListExpenses(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		budget, hasBudget, err = t.store.BudgetForMonth(gctx, ownerID, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return insights.MonthSummary{}, err
	}

	var b *core.MonthlyBudget
	if hasBudget {
		b = &budget
	}
	summary := insights.BuildMonthSummary(expenses, b, now, t.trendMonths)

	t.summaries.Set(key, summary)
	t.view(ownerID).replaceAll(expenses)
	return summary, nil
}

// HandleChange reacts to a change notification from another device by
// dropping the owner's cached summaries; the next read refetches.
func (t *Tracker) HandleChange(ctx context.Context, msg *events.ChangeMessage) error {
	if msg == nil || msg.OwnerID == "" {
		return errors.New("malformed change message")
	}
	t.invalidate(msg.OwnerID)
	slog.DebugContext(ctx, "Invalidated summaries on change message",
		"owner_id", msg.OwnerID,
		"entity", msg.Entity,
		"action", msg.Action)
	return nil
}

// NoteImported records that a bulk import changed the owner's data
// outside the normal mutation path.
func (t *Tracker) NoteImported(ctx context.Context, ownerID string) {
	t.invalidate(ownerID)
	t.publish(ctx, events.NewChangeMessage(ownerID, events.EntityExpense, events.ActionImported, ""))
}

// CleanupSummaries sweeps expired dashboard summaries and reports how
// many were dropped. Resident processes call it on a timer.
func (t *Tracker) CleanupSummaries() int {
	return t.summaries.CleanExpired()
}
