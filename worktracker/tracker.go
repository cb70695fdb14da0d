/*
Package worktracker implements the state machine for individual work
items: start / stop / complete, the single-active-item invariant, and
time_spent accumulation.

PURPOSE:
  This is the operator-facing half of the day-lifecycle core — the
  subsystem a request handler calls on every "I started X" / "I'm done
  with Y" interaction. It owns exactly one concern: advancing a
  WorkItem through pending/active/completed and feeding completions to
  the scoring engine. It does not decide *what* should be worked on
  (that is planner's job) or *how many points* a completion is worth
  (that is scoring's job) — it is the hinge between the two.

SINGLE-ACTIVE-ITEM INVARIANT:
  At most one WorkItem may have status=active at any instant. start()
  enforces this by stopping whatever is currently active in the same
  transaction that activates the target, mirroring the teacher's
  pattern of folding an invariant into one atomic write rather than
  checking-then-writing.

SEE ALSO:
  - core/types.go: WorkItem, Recurrence
  - scoring/scoring.go: Reward, invoked from Complete
  - store/store.go: Atomic, the transaction boundary this package relies on
*/
package worktracker

import (
	"context"
	"time"

	"github.com/warp/dayline/core"
	"github.com/warp/dayline/scoring"
	"github.com/warp/dayline/store"
)

// Tracker advances WorkItems through their lifecycle.
type Tracker struct {
	store store.Store
	now   func() time.Time
}

// New constructs a Tracker. now defaults to time.Now; tests may
// substitute a deterministic clock.
func New(st store.Store, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{store: st, now: now}
}

// Start activates item id, first stopping whatever item is currently
// active. Fails with ErrDependencyNotMet if the item's dependency is
// neither completed nor also scheduled for today.
func (t *Tracker) Start(ctx context.Context, id string) error {
	return t.store.Atomic(ctx, func(tx store.Store) error {
		target, err := tx.GetItem(ctx, id)
		if err != nil {
			return err
		}
		if err := t.checkDependency(ctx, tx, target); err != nil {
			return err
		}

		if active, err := tx.ActiveItem(ctx); err != nil {
			return err
		} else if active != nil && active.ID != target.ID {
			t.flushElapsed(active)
			active.Status = core.StatusPending
			active.StartedAt = nil
			if err := tx.UpdateItem(ctx, active); err != nil {
				return err
			}
		}

		now := t.now()
		target.StartedAt = &now
		target.Status = core.StatusActive
		return tx.UpdateItem(ctx, target)
	})
}

// checkDependency implements the "exception that makes dependency
// chains usable same-day": the dependency must be completed, or it
// must itself be scheduled for today.
func (t *Tracker) checkDependency(ctx context.Context, tx store.Store, item *core.WorkItem) error {
	if item.DependsOn == nil {
		return nil
	}
	dep, err := tx.GetItem(ctx, *item.DependsOn)
	if err != nil {
		return err
	}
	if dep.Status == core.StatusCompleted {
		return nil
	}
	if dep.IsToday {
		return nil
	}
	return core.ErrDependencyNotMet
}

// Stop finds the unique active item, flushes its elapsed time, and
// returns it to pending. No-op if no item is active.
func (t *Tracker) Stop(ctx context.Context) error {
	return t.store.Atomic(ctx, func(tx store.Store) error {
		active, err := tx.ActiveItem(ctx)
		if err != nil {
			return err
		}
		if active == nil {
			return nil
		}
		t.flushElapsed(active)
		active.Status = core.StatusPending
		active.StartedAt = nil
		return tx.UpdateItem(ctx, active)
	})
}

// flushElapsed adds the seconds since StartedAt to TimeSpent and
// clears StartedAt. Pure mutation on the in-memory struct; callers
// persist it.
func (t *Tracker) flushElapsed(item *core.WorkItem) {
	if item.StartedAt == nil {
		return
	}
	elapsed := t.now().Sub(*item.StartedAt)
	if elapsed > 0 {
		item.TimeSpent += int64(elapsed.Seconds())
	}
	item.StartedAt = nil
}

// Complete finishes the given item, or the unique active item if id is
// empty. For habits that have not yet reached daily_target it merely
// increments daily_completed. Invokes scoring.Reward exactly when this
// call completes an occurrence — for non-habits that's always true;
// for a recurring habit, completeHabit reports it via its return value
// rather than the item's final status, since a recurring habit's
// status is reset back to pending (by Recurrence.Advance) in the same
// call that earns the reward.
func (t *Tracker) Complete(ctx context.Context, id string) (*core.WorkItem, error) {
	var result *core.WorkItem
	err := t.store.Atomic(ctx, func(tx store.Store) error {
		item, err := t.resolveTarget(ctx, tx, id)
		if err != nil {
			return err
		}
		t.flushElapsed(item)

		settings, err := tx.GetSettings(ctx)
		if err != nil {
			return err
		}
		effectiveDate := settings.DateContext().EffectiveDate(t.now())

		rewardable := true
		if item.IsHabit {
			rewardable, err = t.completeHabit(ctx, tx, item, effectiveDate, settings)
			if err != nil {
				return err
			}
		} else {
			now := t.now()
			item.Status = core.StatusCompleted
			item.CompletedAt = &now
		}

		if err := tx.UpdateItem(ctx, item); err != nil {
			return err
		}

		if rewardable {
			if err := scoring.Reward(ctx, tx, item, effectiveDate, settings); err != nil {
				return err
			}
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (t *Tracker) resolveTarget(ctx context.Context, tx store.Store, id string) (*core.WorkItem, error) {
	if id != "" {
		return tx.GetItem(ctx, id)
	}
	active, err := tx.ActiveItem(ctx)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, &core.NotFoundError{Kind: "item", ID: "(active)"}
	}
	return active, nil
}

// completeHabit increments daily_completed and, once daily_target is
// reached, advances the recurrence schedule per core.Recurrence.Advance.
// A RecurrenceNone habit becomes truly terminal (status stays completed).
// Returns whether this call completed today's occurrence — the caller
// uses this, not item.Status, to decide whether to reward: a recurring
// habit's status is reset to pending by Recurrence.Advance below, in
// the very call that earned the reward.
func (t *Tracker) completeHabit(ctx context.Context, tx store.Store, item *core.WorkItem, effectiveDate core.Date, settings *core.Settings) (bool, error) {
	item.DailyCompleted++
	if item.DailyCompleted < item.DailyTarget {
		return false, nil
	}

	now := t.now()
	item.Status = core.StatusCompleted
	item.CompletedAt = &now
	item.Streak++
	if item.Streak > settings.MaxStreakBonusDays {
		item.Streak = settings.MaxStreakBonusDays
	}
	item.LastCompletedDate = effectiveDate

	if next, ok := item.Recurrence.Advance(effectiveDate); ok {
		item.DueDate = next
		item.DailyCompleted = 0
		item.Status = core.StatusPending
		item.CompletedAt = nil
	}
	return true, nil
}
