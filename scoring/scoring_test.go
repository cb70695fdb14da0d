package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warp/dayline/core"
	"github.com/warp/dayline/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// S1 — simple task reward: energy=3, 3600s spent against a 3600s
// expectation, default settings.
func TestReward_SimpleTask(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	settings := core.DefaultSettings()
	date := core.NewDate(2026, 1, 5)

	item := &core.WorkItem{
		ID:        core.NewID(),
		Energy:    3,
		TimeSpent: 3600,
		Status:    core.StatusCompleted,
	}

	require.NoError(t, Reward(ctx, st, item, date, &settings))

	ledger, err := st.GetDayLedger(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, ledger)
	require.Equal(t, 12.0, ledger.PointsEarned)
	require.Equal(t, 1, ledger.TasksCompleted)
}

// S2 — idle day penalty: nothing happened on D, finalize expects a flat
// idle penalty and a penalty_streak transition 0 -> 1.
func TestFinalizeDate_IdleDayPenalty(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	settings := core.DefaultSettings()
	date := core.NewDate(2026, 1, 5)

	require.NoError(t, FinalizeDate(ctx, st, date, &settings))

	ledger, err := st.GetDayLedger(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, ledger)
	require.Equal(t, 30.0, ledger.PointsPenalty)
	require.Equal(t, 1, ledger.PenaltyStreak)
}

// S3 — progressive penalty: three consecutive idle days, penalty_streak
// carried day to day, multiplier growing 1 -> 1.1 -> 1.2.
func TestFinalizeDate_ProgressivePenalty(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	settings := core.DefaultSettings()
	day1 := core.NewDate(2026, 1, 5)
	day2 := day1.AddDays(1)
	day3 := day2.AddDays(1)

	require.NoError(t, FinalizeDate(ctx, st, day1, &settings))
	l1, err := st.GetDayLedger(ctx, day1)
	require.NoError(t, err)
	require.Equal(t, 30.0, l1.PointsPenalty)

	require.NoError(t, FinalizeDate(ctx, st, day2, &settings))
	l2, err := st.GetDayLedger(ctx, day2)
	require.NoError(t, err)
	require.Equal(t, 33.0, l2.PointsPenalty)

	require.NoError(t, FinalizeDate(ctx, st, day3, &settings))
	l3, err := st.GetDayLedger(ctx, day3)
	require.NoError(t, err)
	require.Equal(t, 36.0, l3.PointsPenalty)
}

// S4 — habit streak: a skill habit on its 5th consecutive completion
// (prior streak=4) earns the log2 streak bonus.
func TestReward_HabitStreakBonus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	settings := core.DefaultSettings()
	date := core.NewDate(2026, 1, 5)

	item := &core.WorkItem{
		ID:        core.NewID(),
		IsHabit:   true,
		HabitType: core.HabitSkill,
		Energy:    3,
		Streak:    5, // worktracker increments streak before calling Reward
	}

	require.NoError(t, Reward(ctx, st, item, date, &settings))

	ledger, err := st.GetDayLedger(ctx, date)
	require.NoError(t, err)
	require.Equal(t, 16.0, ledger.PointsEarned)
	require.Equal(t, 1, ledger.HabitsCompleted)
}

// A rest day always finalizes to zero penalty with the streak untouched.
func TestFinalizeDate_RestDayExempt(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	settings := core.DefaultSettings()
	date := core.NewDate(2026, 1, 5)

	require.NoError(t, st.CreateRestDay(ctx, &core.RestDay{Date: date}))
	require.NoError(t, FinalizeDate(ctx, st, date, &settings))

	ledger, err := st.GetDayLedger(ctx, date)
	require.NoError(t, err)
	require.Equal(t, 0.0, ledger.PointsPenalty)
	require.Equal(t, 0, ledger.PenaltyStreak)
}

// A clean window of penalty_streak_reset_days consecutive zero-penalty
// days resets penalty_streak back to 0 even if a streak was running.
func TestFinalizeDate_CleanWindowResetsStreak(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	settings := core.DefaultSettings()
	day1 := core.NewDate(2026, 1, 5)

	require.NoError(t, FinalizeDate(ctx, st, day1, &settings))
	l1, err := st.GetDayLedger(ctx, day1)
	require.NoError(t, err)
	require.Equal(t, 1, l1.PenaltyStreak)

	// Two clean days in a row (PenaltyStreakResetDays default is 2):
	// complete a task each day so the idle penalty never fires.
	for i := 1; i <= settings.PenaltyStreakResetDays; i++ {
		d := day1.AddDays(i)
		item := &core.WorkItem{ID: core.NewID(), Energy: 0, TimeSpent: 0, Status: core.StatusCompleted}
		require.NoError(t, Reward(ctx, st, item, d, &settings))
		require.NoError(t, FinalizeDate(ctx, st, d, &settings))
	}

	last, err := st.GetDayLedger(ctx, day1.AddDays(settings.PenaltyStreakResetDays))
	require.NoError(t, err)
	require.Equal(t, 0, last.PenaltyStreak)
}
