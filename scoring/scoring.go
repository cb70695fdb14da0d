/*
Package scoring implements the point-arithmetic half of the day cycle:
rewarding completions and penalizing finalized days, including the
progressive penalty streak and the logarithmic habit-streak bonus.

PURPOSE:
  Two pure formulas (reward, penalty) and two ledger mutators
  (Reward, FinalizeDate) that apply them. Coefficients come exclusively
  from Settings — nothing here is a compile-time constant except the
  one floor the source leaves unnamed (see minTimeQuality below).

GROUNDING:
  The reward/penalty split mirrors the teacher's separation of pure
  projection math (generic/projection.go) from ledger mutation
  (generic/ledger.go): compute first, mutate once, never recompute
  from scratch on every read.

SEE ALSO:
  - worktracker/tracker.go: calls Reward on every completion
  - planner/roll.go: calls FinalizeDate for unfinalized dates
  - core/types.go: DayLedger, Settings
*/
package scoring

import (
	"context"
	"math"
	"time"

	"github.com/warp/dayline/core"
	"github.com/warp/dayline/store"
)

// timeNow is a package-level indirection so tests can substitute a
// deterministic clock for goal-achievement timestamps.
var timeNow = time.Now

// minTimeQuality is the floor of the time_quality formula in §4.4. The
// specification clamps time_quality into [MIN_TQ, 1.0] without naming
// MIN_TQ; 0.1 keeps a wildly over-time task still earning a token
// reward rather than zero.
const minTimeQuality = 0.1

// Reward computes and applies the point award for a single WorkItem
// completion, then checks the completion bonus and active goals. It
// mutates (and persists) the DayLedger for effectiveDate; it never
// mutates the WorkItem itself — worktracker owns that.
func Reward(ctx context.Context, tx store.Store, item *core.WorkItem, effectiveDate core.Date, settings *core.Settings) error {
	ledger, err := ledgerOrNew(ctx, tx, effectiveDate)
	if err != nil {
		return err
	}

	points := rewardPoints(item, settings)
	ledger.PointsEarned += points.Float64()

	wasNonHabitCompletion := !item.IsHabit
	if wasNonHabitCompletion {
		ledger.TasksCompleted++
	} else {
		ledger.HabitsCompleted++
	}
	ledger.Recompute()

	// Completion bonus: payable exactly once, on the event that makes
	// tasks_completed equal tasks_planned.
	if wasNonHabitCompletion && ledger.TasksPlanned > 0 && ledger.TasksCompleted == ledger.TasksPlanned {
		bonus := PointsOf(ledger.PointsEarned * settings.CompletionBonusFull)
		ledger.PointsEarned += bonus.Float64()
		ledger.Recompute()
	}

	if err := tx.UpsertDayLedger(ctx, ledger); err != nil {
		return err
	}
	return CheckGoals(ctx, tx)
}

// rewardPoints implements the Balanced Progress v2.0 formula of §4.4.
func rewardPoints(item *core.WorkItem, settings *core.Settings) Points {
	energyMult := settings.EnergyMultBase + float64(item.Energy)*settings.EnergyMultStep

	if !item.IsHabit {
		expectedSecs := float64(item.Energy) * settings.MinutesPerEnergyUnit * 60
		timeQuality := 1.0
		if expectedSecs > 0 {
			timeQuality = 1 - ((float64(item.TimeSpent)-expectedSecs)/expectedSecs)*settings.TimeEfficiencyWeight
		}
		timeQuality = clamp(timeQuality, minTimeQuality, 1.0)

		focusPenalty := 0.5
		if item.TimeSpent >= settings.MinWorkTimeSeconds {
			focusPenalty = 1.0
		}
		return PointsOf(settings.PointsPerTaskBase * energyMult * timeQuality * focusPenalty)
	}

	if item.HabitType == core.HabitRoutine {
		return PointsOf(settings.RoutinePointsFixed)
	}

	// item.Streak is already incremented by the caller for this
	// occurrence (worktracker.completeHabit bumps it before Reward
	// runs), but the spec's bonus factor is keyed on the streak prior
	// to this completion (§8 S4: 5th completion, prior streak=4, bonus
	// uses log2(5)). Back it out by one here rather than double-count
	// the increment.
	streak := item.Streak - 1
	if streak < 0 {
		streak = 0
	}
	if streak > settings.MaxStreakBonusDays {
		streak = settings.MaxStreakBonusDays
	}
	bonusFactor := 1 + math.Log2(float64(streak)+1)*settings.StreakLogFactor
	return PointsOf(settings.PointsPerHabitBase * bonusFactor * energyMult)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ledgerOrNew fetches the DayLedger for date, creating a zero-valued
// one (inheriting the running penalty_streak from the prior date) if
// none exists yet.
func ledgerOrNew(ctx context.Context, tx store.Store, date core.Date) (*core.DayLedger, error) {
	ledger, err := tx.GetDayLedger(ctx, date)
	if err != nil {
		return nil, err
	}
	if ledger != nil {
		return ledger, nil
	}
	prev, err := tx.GetDayLedger(ctx, date.AddDays(-1))
	if err != nil {
		return nil, err
	}
	streak := 0
	if prev != nil {
		streak = prev.PenaltyStreak
	}
	return &core.DayLedger{Date: date, PenaltyStreak: streak}, nil
}

// FinalizeDate computes and records the penalty for the given
// effective date, applying §4.4's rules in order. A repeated call for
// the same date yields the same penalty and penalty_streak, but adds
// completion_bonus_good to points_earned again when the completion
// ratio is in [0.8, 1.0); callers finalize each date once, guarded by
// last_penalty_date.
func FinalizeDate(ctx context.Context, tx store.Store, date core.Date, settings *core.Settings) error {
	ledger, err := ledgerOrNew(ctx, tx, date)
	if err != nil {
		return err
	}

	restDay, err := tx.GetRestDay(ctx, date)
	if err != nil {
		return err
	}
	if restDay != nil {
		// penalty = 0, penalty_streak unchanged, skip rules 2-5.
		ledger.PointsPenalty = 0
		ledger.Recompute()
		return tx.UpsertDayLedger(ctx, ledger)
	}

	// completion_bonus_good: evaluated once, at finalize, for ratios in
	// [0.8, 1.0) — the _full bonus already covers the == 1.0 case.
	if ledger.TasksPlanned > 0 {
		r := ledger.CompletionRate
		if r >= 0.8 && r < 1.0 {
			bonus := PointsOf(ledger.PointsEarned * settings.CompletionBonusGood)
			ledger.PointsEarned += bonus.Float64()
			ledger.Recompute()
		}
	}

	total := 0.0

	if ledger.TasksCompleted == 0 && ledger.HabitsCompleted == 0 {
		total += settings.IdlePenalty
	}

	if ledger.TasksPlanned > 0 {
		r := ledger.CompletionRate
		switch {
		case r < settings.IncompleteThresholdSevere:
			total += settings.IncompletePenaltySevere
		case r < settings.IncompleteDayThreshold:
			total += PointsOf(settings.IncompleteDayPenalty * (1 - r)).Float64()
		}
	}

	habits, err := tx.HabitsDueOnOrBefore(ctx, date)
	if err != nil {
		return err
	}
	for _, h := range habits {
		if h.DailyCompleted >= h.DailyTarget {
			continue
		}
		if h.HabitType == core.HabitRoutine {
			total += PointsOf(settings.MissedHabitPenaltyBase * 0.5).Float64()
		} else {
			total += settings.MissedHabitPenaltyBase
		}
	}

	prevLedger, err := tx.GetDayLedger(ctx, date.AddDays(-1))
	if err != nil {
		return err
	}
	s := 0
	if prevLedger != nil {
		s = prevLedger.PenaltyStreak
	}
	if total > 0 {
		multiplier := 1 + math.Min(float64(s)*settings.ProgressivePenaltyFactor, settings.ProgressivePenaltyMax-1)
		total = PointsOf(total * multiplier).Float64()
	}

	ledger.PointsPenalty = total
	ledger.Recompute()

	if total > 0 {
		ledger.PenaltyStreak = s + 1
	} else {
		reset, err := cleanWindow(ctx, tx, date, settings.PenaltyStreakResetDays)
		if err != nil {
			return err
		}
		if reset {
			ledger.PenaltyStreak = 0
		} else {
			ledger.PenaltyStreak = s
		}
	}

	if err := tx.UpsertDayLedger(ctx, ledger); err != nil {
		return err
	}
	return CheckGoals(ctx, tx)
}

// cleanWindow reports whether every one of the n consecutive days
// ending at (and including) date had points_penalty == 0. A day with
// no ledger row counts as 0 (nothing happened, nothing was penalized).
func cleanWindow(ctx context.Context, tx store.Store, date core.Date, n int) (bool, error) {
	if n <= 0 {
		return true, nil
	}
	for i := 0; i < n; i++ {
		d := date.AddDays(-i)
		ledger, err := tx.GetDayLedger(ctx, d)
		if err != nil {
			return false, err
		}
		if ledger != nil && ledger.PointsPenalty != 0 {
			return false, nil
		}
	}
	return true, nil
}

// CheckGoals re-evaluates every active goal after a DayLedger mutation.
// A points goal is achieved when cumulative daily_total reaches its
// target; a project_completion goal is achieved when every WorkItem in
// its project is completed.
func CheckGoals(ctx context.Context, tx store.Store) error {
	goals, err := tx.ActiveGoals(ctx)
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		return nil
	}

	var cumulative float64
	var cumulativeComputed bool

	for _, g := range goals {
		achieved := false
		switch g.Type {
		case core.GoalPoints:
			if !cumulativeComputed {
				cumulative, err = tx.SumDailyTotal(ctx)
				if err != nil {
					return err
				}
				cumulativeComputed = true
			}
			achieved = cumulative >= g.TargetPoints
		case core.GoalProjectCompletion:
			achieved, err = projectComplete(ctx, tx, g.ProjectName)
			if err != nil {
				return err
			}
		}
		if achieved && !g.Achieved {
			g.Achieved = true
			g.AchievedDate = core.DateOf(timeNow())
			if err := tx.UpdateGoal(ctx, g); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProjectionResult is the answer to "what will the cumulative total be
// on targetDate": an extrapolation from recent daily_total history, not
// a guarantee.
type ProjectionResult struct {
	CurrentTotal   float64
	AverageDaily   float64
	DaysRemaining  int
	ProjectedTotal float64
}

// Project extrapolates the cumulative point total forward to targetDate
// using the average DailyTotal across recent, the ledger rows leading
// up to asOf. Mirrors the teacher's projection engine
// (generic/projection.go) in spirit — answer "what does the trend say
// about a future point" from observed history — narrowed to a single
// scalar forecast instead of a consumption-request validation, since
// there is no entitlement/consumption-mode concept in this domain.
func Project(currentTotal float64, recent []*core.DayLedger, asOf, targetDate core.Date) ProjectionResult {
	days := asOf.DaysUntil(targetDate)
	if days < 0 {
		days = 0
	}
	var sum float64
	var n int
	for _, l := range recent {
		if l == nil {
			continue
		}
		sum += l.DailyTotal
		n++
	}
	var avg float64
	if n > 0 {
		avg = sum / float64(n)
	}
	return ProjectionResult{
		CurrentTotal:   currentTotal,
		AverageDaily:   avg,
		DaysRemaining:  days,
		ProjectedTotal: currentTotal + avg*float64(days),
	}
}

func projectComplete(ctx context.Context, tx store.Store, project string) (bool, error) {
	items, err := tx.ListItems(ctx, store.ItemFilter{})
	if err != nil {
		return false, err
	}
	found := false
	for _, it := range items {
		if it.Project != project {
			continue
		}
		found = true
		if it.Status != core.StatusCompleted {
			return false, nil
		}
	}
	return found, nil
}
