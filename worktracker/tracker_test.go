package worktracker

import (
	"context"
	"testing"
	"time"

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

func createItem(t *testing.T, st *sqlite.Store, item *core.WorkItem) {
	t.Helper()
	if item.Status == "" {
		item.Status = core.StatusPending
	}
	require.NoError(t, st.CreateItem(context.Background(), item))
}

// Starting a second item stops whatever was active, preserving the
// single-active-item invariant.
func TestStart_StopsPreviouslyActive(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	clock := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	tr := New(st, func() time.Time { return clock })

	a := &core.WorkItem{ID: core.NewID(), Description: "a"}
	b := &core.WorkItem{ID: core.NewID(), Description: "b"}
	createItem(t, st, a)
	createItem(t, st, b)

	require.NoError(t, tr.Start(ctx, a.ID))
	active, err := st.ActiveItem(ctx)
	require.NoError(t, err)
	require.Equal(t, a.ID, active.ID)

	clock = clock.Add(5 * time.Minute)
	require.NoError(t, tr.Start(ctx, b.ID))

	active, err = st.ActiveItem(ctx)
	require.NoError(t, err)
	require.Equal(t, b.ID, active.ID)

	prev, err := st.GetItem(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, core.StatusPending, prev.Status)
	require.Equal(t, int64(5*60), prev.TimeSpent)
}

// Start-then-Stop-without-Complete on a fresh item leaves status=pending
// and time_spent equal to the measured elapsed interval.
func TestStartStop_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	clock := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	tr := New(st, func() time.Time { return clock })

	item := &core.WorkItem{ID: core.NewID(), Description: "a"}
	createItem(t, st, item)

	require.NoError(t, tr.Start(ctx, item.ID))
	clock = clock.Add(90 * time.Second)
	require.NoError(t, tr.Stop(ctx))

	got, err := st.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, core.StatusPending, got.Status)
	require.Equal(t, int64(90), got.TimeSpent)
	require.Nil(t, got.StartedAt)
}

// S5 — dependency block: starting B while its dependency A is neither
// completed nor scheduled for today fails with ErrDependencyNotMet;
// adding A to today's plan allows it.
func TestStart_DependencyBlock(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	tr := New(st, nil)

	a := &core.WorkItem{ID: core.NewID(), Description: "a"}
	createItem(t, st, a)
	b := &core.WorkItem{ID: core.NewID(), Description: "b", DependsOn: &a.ID}
	createItem(t, st, b)

	err := tr.Start(ctx, b.ID)
	require.ErrorIs(t, err, core.ErrDependencyNotMet)

	a.IsToday = true
	require.NoError(t, st.UpdateItem(ctx, a))

	require.NoError(t, tr.Start(ctx, b.ID))
	active, err := st.ActiveItem(ctx)
	require.NoError(t, err)
	require.Equal(t, b.ID, active.ID)
}

// Completing a habit before its daily_target only increments
// daily_completed; the habit stays active/pending, not completed.
func TestComplete_HabitBelowDailyTarget(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	tr := New(st, nil)

	habit := &core.WorkItem{
		ID: core.NewID(), Description: "pushups", IsHabit: true,
		HabitType: core.HabitRoutine, DailyTarget: 3,
	}
	createItem(t, st, habit)

	got, err := tr.Complete(ctx, habit.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.DailyCompleted)
	require.NotEqual(t, core.StatusCompleted, got.Status)
}

// Completing a recurring habit at its daily target advances the due
// date per its recurrence and resets daily_completed, leaving it pending
// for its next occurrence rather than terminally completed. It must
// still be rewarded for this occurrence even though its final status
// is pending, not completed (the recurrence reset happens in the same
// call that earns the reward).
func TestComplete_HabitRecurrenceAdvances(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	clock := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	tr := New(st, func() time.Time { return clock })

	due := core.NewDate(2026, 1, 5)
	habit := &core.WorkItem{
		ID: core.NewID(), Description: "journal", IsHabit: true,
		HabitType: core.HabitSkill, DailyTarget: 1, DueDate: due,
		Recurrence: core.Recurrence{Type: core.RecurrenceDaily},
		Streak:     4,
	}
	createItem(t, st, habit)

	got, err := tr.Complete(ctx, habit.ID)
	require.NoError(t, err)
	require.Equal(t, core.StatusPending, got.Status)
	require.Equal(t, 0, got.DailyCompleted)
	require.Equal(t, 5, got.Streak)
	require.True(t, got.DueDate.After(due))

	ledger, err := st.GetDayLedger(ctx, core.DateOf(clock))
	require.NoError(t, err)
	require.NotNil(t, ledger)
	require.Equal(t, 1, ledger.HabitsCompleted)
	require.Greater(t, ledger.PointsEarned, 0.0)
}
