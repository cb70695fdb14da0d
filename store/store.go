/*
Package store defines the persistence contract between the core domain
logic and the database, mirroring the role generic/store.go plays for
the teacher's resource engine: a narrow, typed interface the domain
packages (worktracker, scoring, planner, scheduler) depend on, with a
single SQLite-backed implementation in store/sqlite.

APPEND-friendly BUT NOT append-only:
  Unlike the teacher's ledger (which is append-only by design), WorkItems
  and DayLedgers here are genuinely mutable row-level state machines —
  that mutability is the point of the work-tracker and scoring engines.
  What IS preserved from the teacher is the atomicity discipline: every
  public Store operation is one transaction, and Roll / Finalize /
  Start / Stop / Complete are each exactly one such transaction from the
  caller's perspective (see Atomic below).

SEE ALSO:
  - store/sqlite/sqlite.go: the concrete implementation
  - core/types.go: the entities this interface persists
*/
package store

import (
	"context"

	"github.com/warp/dayline/core"
)

// ItemFilter narrows ListItems queries.
type ItemFilter struct {
	Status      *core.Status
	IsHabit     *bool
	IsToday     *bool
	DueOnOrBefore *core.Date
}

// Store is the full persistence contract. Every method is one atomic
// Store transaction unless documented otherwise.
type Store interface {
	// --- WorkItem ---
	CreateItem(ctx context.Context, item *core.WorkItem) error
	GetItem(ctx context.Context, id string) (*core.WorkItem, error)
	UpdateItem(ctx context.Context, item *core.WorkItem) error
	DeleteItem(ctx context.Context, id string) error
	ListItems(ctx context.Context, filter ItemFilter) ([]*core.WorkItem, error)

	// ActiveItem returns the unique WorkItem with status=active, or nil
	// if none. Enforces the single-active-item invariant at the read
	// side; the write side enforces it transactionally in Atomic.
	ActiveItem(ctx context.Context) (*core.WorkItem, error)

	// PendingNonHabits returns all pending, non-habit WorkItems.
	PendingNonHabits(ctx context.Context) ([]*core.WorkItem, error)

	// TodayHabits returns habits whose DueDate equals the given
	// effective date. Purely derived — never a persisted is_today flag.
	TodayHabits(ctx context.Context, effectiveDate core.Date) ([]*core.WorkItem, error)

	// OverdueHabits returns habits with DueDate before the given
	// effective date and status != completed.
	OverdueHabits(ctx context.Context, beforeDate core.Date) ([]*core.WorkItem, error)

	// HabitsDueOnOrBefore returns habits whose DueDate <= the given
	// date, used by Scoring's missed-habit penalty.
	HabitsDueOnOrBefore(ctx context.Context, date core.Date) ([]*core.WorkItem, error)

	// --- Settings (singleton, lazily created) ---
	GetSettings(ctx context.Context) (*core.Settings, error)
	UpdateSettings(ctx context.Context, s *core.Settings) error

	// --- DayLedger ---
	GetDayLedger(ctx context.Context, date core.Date) (*core.DayLedger, error)
	UpsertDayLedger(ctx context.Context, ledger *core.DayLedger) error
	// SumDailyTotal returns the cumulative sum of DailyTotal across all
	// DayLedger rows, used for points-goal evaluation.
	SumDailyTotal(ctx context.Context) (float64, error)

	// --- Goal ---
	CreateGoal(ctx context.Context, g *core.Goal) error
	GetGoal(ctx context.Context, id string) (*core.Goal, error)
	UpdateGoal(ctx context.Context, g *core.Goal) error
	DeleteGoal(ctx context.Context, id string) error
	ActiveGoals(ctx context.Context) ([]*core.Goal, error)

	// --- RestDay ---
	CreateRestDay(ctx context.Context, r *core.RestDay) error
	GetRestDay(ctx context.Context, date core.Date) (*core.RestDay, error)
	DeleteRestDay(ctx context.Context, date core.Date) error
	ListRestDays(ctx context.Context) ([]*core.RestDay, error)

	// --- Backup ---
	CreateBackup(ctx context.Context, b *core.Backup) error
	GetBackup(ctx context.Context, id string) (*core.Backup, error)
	ListBackups(ctx context.Context) ([]*core.Backup, error)
	DeleteBackup(ctx context.Context, id string) error

	// Atomic runs fn within one transaction; the per-row methods above
	// are available on the Store passed to fn, and either all of fn's
	// writes commit or none do. Callers use this for any operation that
	// must read-modify-write more than one row atomically (Start, Stop,
	// Complete, Roll, Finalize).
	Atomic(ctx context.Context, fn func(tx Store) error) error

	Close() error
}
