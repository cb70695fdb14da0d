/*
Package planner implements the daily Roll algorithm: the once-per-
effective-date operation that purges stale habit instances, clears
yesterday's agenda, selects the day's tasks by urgency and dependency
readiness, and materializes today's habits.

PURPOSE:
  Roll is the single entry point that turns a backlog of pending
  WorkItems into "today's plan". Everything else in the system (the
  WorkTracker, the Scoring engine, the Scheduler) treats the plan Roll
  produces as given.

SEE ALSO:
  - core/types.go: WorkItem.IsToday, Recurrence.Advance
  - scoring/scoring.go: FinalizeDate, invoked for unfinalized dates
  - scheduler/scheduler.go: calls Roll on the auto_roll job
*/
package planner

import (
	"context"
	"sort"

	"github.com/warp/dayline/core"
	"github.com/warp/dayline/scoring"
	"github.com/warp/dayline/store"
)

// Planner runs Roll against a Store.
type Planner struct {
	store store.Store
}

func New(st store.Store) *Planner {
	return &Planner{store: st}
}

// CanRoll reports whether the effective date is strictly after
// last_roll_date, i.e. whether Roll would not be rejected with
// RollAlreadyDone. It does not check roll_available_time — that gate
// is evaluated separately by the caller (see api/handlers.go's Roll
// handler), since it depends on wall-clock time-of-day, not just date.
func (p *Planner) CanRoll(ctx context.Context, now core.Date, settings *core.Settings) bool {
	if !settings.LastRollDate.IsZero() && !settings.LastRollDate.Before(now) {
		return false
	}
	return true
}

// Roll executes the algorithm of §4.5 for effective date D. mood, if
// non-nil, is an operator energy ceiling in [0,5] used to filter the
// chosen set. The whole operation is one Store transaction.
func (p *Planner) Roll(ctx context.Context, d core.Date, mood *int) error {
	return p.store.Atomic(ctx, func(tx store.Store) error {
		settings, err := tx.GetSettings(ctx)
		if err != nil {
			return err
		}
		if !settings.LastRollDate.IsZero() && !settings.LastRollDate.Before(d) {
			return core.ErrRollAlreadyDone
		}

		// Finalize before purging: missed-habit detection reads each
		// habit's due_date as of the date being finalized, and purge
		// below advances due_date past that point.
		if err := finalizePending(ctx, tx, settings, d); err != nil {
			return err
		}
		if err := purgeOverdueHabits(ctx, tx, d); err != nil {
			return err
		}
		if err := clearYesterday(ctx, tx); err != nil {
			return err
		}

		pending, err := tx.PendingNonHabits(ctx)
		if err != nil {
			return err
		}
		chosen := selectAgenda(pending, d, settings)
		if mood != nil {
			chosen = applyMoodFilter(chosen, pending, d, settings, *mood)
		}

		for _, item := range chosen {
			item.IsToday = true
			if err := tx.UpdateItem(ctx, item); err != nil {
				return err
			}
		}

		settings.LastRollDate = d
		settings.PendingRoll = false
		if err := tx.UpdateSettings(ctx, settings); err != nil {
			return err
		}

		ledger, err := tx.GetDayLedger(ctx, d)
		if err != nil {
			return err
		}
		if ledger == nil {
			ledger = &core.DayLedger{Date: d}
		}
		ledger.TasksPlanned = len(chosen)
		ledger.Recompute()
		return tx.UpsertDayLedger(ctx, ledger)
	})
}

// purgeOverdueHabits advances the schedule of every habit whose
// due_date < d and status != completed, as if each skipped occurrence
// had been missed, until due_date >= d.
func purgeOverdueHabits(ctx context.Context, tx store.Store, d core.Date) error {
	overdue, err := tx.OverdueHabits(ctx, d)
	if err != nil {
		return err
	}
	for _, h := range overdue {
		for h.DueDate.Before(d) {
			next, ok := h.Recurrence.Advance(h.DueDate)
			if !ok {
				break
			}
			h.DueDate = next
		}
		h.DailyCompleted = 0
		if err := tx.UpdateItem(ctx, h); err != nil {
			return err
		}
	}
	return nil
}

func clearYesterday(ctx context.Context, tx store.Store) error {
	today, err := tx.ListItems(ctx, store.ItemFilter{})
	if err != nil {
		return err
	}
	for _, item := range today {
		if item.IsHabit || !item.IsToday {
			continue
		}
		item.IsToday = false
		if err := tx.UpdateItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// urgency implements the §4.5 step-3 formula.
func urgency(item *core.WorkItem, d core.Date) int {
	u := item.Priority * 10
	switch {
	case item.DueDate.IsZero():
		// no due date contributes nothing
	case item.DueDate.Before(d):
		u += 50
	case item.DueDate.BeforeOrEqual(d.AddDays(2)):
		u += 25
	case item.DueDate.BeforeOrEqual(d.AddDays(7)):
		u += 10
	}
	switch {
	case item.Energy >= 4:
		u += 5
	case item.Energy <= 1:
		u -= 1
	}
	return u
}

func dependencyReady(item *core.WorkItem, byID map[string]*core.WorkItem) bool {
	if item.DependsOn == nil {
		return true
	}
	dep, ok := byID[*item.DependsOn]
	return !ok || dep.Status == core.StatusCompleted
}

// selectAgenda runs passes A, B, C of §4.5 against the pending
// backlog, returning the chosen set.
func selectAgenda(pending []*core.WorkItem, d core.Date, settings *core.Settings) []*core.WorkItem {
	byID := make(map[string]*core.WorkItem, len(pending))
	for _, item := range pending {
		byID[item.ID] = item
	}

	chosen := make([]*core.WorkItem, 0, settings.MaxTasksPerDay)
	chosenSet := make(map[string]bool)
	limit := settings.MaxTasksPerDay

	// Pass A: critical, dependency-ready.
	var critical []*core.WorkItem
	for _, item := range pending {
		if !item.DueDate.IsZero() && item.DueDate.BeforeOrEqual(d.AddDays(settings.CriticalDays)) && dependencyReady(item, byID) {
			critical = append(critical, item)
		}
	}
	sort.Slice(critical, func(i, j int) bool {
		ui, uj := urgency(critical[i], d), urgency(critical[j], d)
		if ui != uj {
			return ui > uj
		}
		return critical[i].ID < critical[j].ID
	})
	for _, item := range critical {
		if len(chosen) >= limit {
			break
		}
		chosen = append(chosen, item)
		chosenSet[item.ID] = true
	}

	// Pass B: backlog by urgency, dependency-safe.
	var backlog []*core.WorkItem
	for _, item := range pending {
		if chosenSet[item.ID] || !dependencyReady(item, byID) {
			continue
		}
		backlog = append(backlog, item)
	}
	sort.Slice(backlog, func(i, j int) bool {
		ui, uj := urgency(backlog[i], d), urgency(backlog[j], d)
		if ui != uj {
			return ui > uj
		}
		return backlog[i].ID < backlog[j].ID
	})
	for _, item := range backlog {
		if len(chosen) >= limit {
			break
		}
		chosen = append(chosen, item)
		chosenSet[item.ID] = true
	}

	// Pass C: same-day dependents.
	for _, item := range pending {
		if len(chosen) >= limit {
			break
		}
		if chosenSet[item.ID] || item.DependsOn == nil {
			continue
		}
		if chosenSet[*item.DependsOn] {
			chosen = append(chosen, item)
			chosenSet[item.ID] = true
		}
	}

	return chosen
}

// applyMoodFilter drops items whose energy exceeds mood, then re-runs
// passes B/C against the remaining pending pool to refill the freed
// slots, per §4.5 step 7.
func applyMoodFilter(chosen, pending []*core.WorkItem, d core.Date, settings *core.Settings, mood int) []*core.WorkItem {
	kept := make([]*core.WorkItem, 0, len(chosen))
	keptSet := make(map[string]bool)
	for _, item := range chosen {
		if item.Energy > mood {
			continue
		}
		kept = append(kept, item)
		keptSet[item.ID] = true
	}

	if len(kept) >= settings.MaxTasksPerDay {
		return kept
	}

	byID := make(map[string]*core.WorkItem, len(pending))
	for _, item := range pending {
		byID[item.ID] = item
	}

	var remaining []*core.WorkItem
	for _, item := range pending {
		if keptSet[item.ID] || item.Energy > mood {
			continue
		}
		remaining = append(remaining, item)
	}
	sort.Slice(remaining, func(i, j int) bool {
		ui, uj := urgency(remaining[i], d), urgency(remaining[j], d)
		if ui != uj {
			return ui > uj
		}
		return remaining[i].ID < remaining[j].ID
	})
	for _, item := range remaining {
		if len(kept) >= settings.MaxTasksPerDay {
			break
		}
		if !dependencyReady(item, byID) {
			continue
		}
		kept = append(kept, item)
		keptSet[item.ID] = true
	}
	for _, item := range remaining {
		if len(kept) >= settings.MaxTasksPerDay {
			break
		}
		if keptSet[item.ID] || item.DependsOn == nil || item.Energy > mood {
			continue
		}
		if keptSet[*item.DependsOn] {
			kept = append(kept, item)
			keptSet[item.ID] = true
		}
	}
	return kept
}

// finalizePending finalizes every effective date in
// (last_penalty_date, d) that is not yet finalized, in ascending
// order, updating last_penalty_date as it goes. An unset
// last_penalty_date (first-ever roll) has nothing to finalize before
// it, so finalization starts at d-1.
func finalizePending(ctx context.Context, tx store.Store, settings *core.Settings, d core.Date) error {
	start := d.AddDays(-1)
	if !settings.LastPenaltyDate.IsZero() {
		start = settings.LastPenaltyDate.AddDays(1)
	}
	for target := start; target.Before(d); target = target.AddDays(1) {
		if err := scoring.FinalizeDate(ctx, tx, target, settings); err != nil {
			return err
		}
		settings.LastPenaltyDate = target
	}
	return nil
}
