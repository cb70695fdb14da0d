package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warp/dayline/core"
	"github.com/warp/dayline/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestCreateGetUpdateDeleteItem(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	item := &core.WorkItem{
		Description: "write tests", Priority: 3, Energy: 2,
		Status: core.StatusPending, DueDate: core.NewDate(2026, 1, 10),
	}
	require.NoError(t, st.CreateItem(ctx, item))
	require.NotEmpty(t, item.ID)

	got, err := st.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, item.Description, got.Description)
	require.True(t, item.DueDate.Equal(got.DueDate))

	got.Priority = 9
	require.NoError(t, st.UpdateItem(ctx, got))
	reGot, err := st.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, 9, reGot.Priority)

	require.NoError(t, st.DeleteItem(ctx, item.ID))
	_, err = st.GetItem(ctx, item.ID)
	require.True(t, core.IsNotFound(err))
}

func TestGetItem_NotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetItem(context.Background(), "does-not-exist")
	require.True(t, core.IsNotFound(err))
}

func TestDependencyCycleCheck_RejectsDirectCycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := &core.WorkItem{Description: "a"}
	require.NoError(t, st.CreateItem(ctx, a))
	b := &core.WorkItem{Description: "b", DependsOn: &a.ID}
	require.NoError(t, st.CreateItem(ctx, b))

	// a -> b would close a 2-cycle (a depends on b, b depends on a).
	a.DependsOn = &b.ID
	err := st.UpdateItem(ctx, a)
	require.ErrorIs(t, err, core.ErrCyclicDependency)
}

func TestDependencyCycleCheck_AllowsChain(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := &core.WorkItem{Description: "a"}
	require.NoError(t, st.CreateItem(ctx, a))
	b := &core.WorkItem{Description: "b", DependsOn: &a.ID}
	require.NoError(t, st.CreateItem(ctx, b))
	c := &core.WorkItem{Description: "c", DependsOn: &b.ID}
	require.NoError(t, st.CreateItem(ctx, c))

	got, err := st.GetItem(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, b.ID, *got.DependsOn)
}

func TestListItems_Filters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	task := &core.WorkItem{Description: "task", Status: core.StatusPending}
	habit := &core.WorkItem{Description: "habit", Status: core.StatusPending, IsHabit: true}
	require.NoError(t, st.CreateItem(ctx, task))
	require.NoError(t, st.CreateItem(ctx, habit))

	isHabit := true
	items, err := st.ListItems(ctx, store.ItemFilter{IsHabit: &isHabit})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, habit.ID, items[0].ID)

	pendingStatus := core.StatusPending
	items, err = st.ListItems(ctx, store.ItemFilter{Status: &pendingStatus})
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestActiveItem_NoneReturnsNil(t *testing.T) {
	st := newTestStore(t)
	active, err := st.ActiveItem(context.Background())
	require.NoError(t, err)
	require.Nil(t, active)
}

func TestSettings_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	settings, err := st.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, core.DefaultSettings().IdlePenalty, settings.IdlePenalty)

	settings.MaxTasksPerDay = 20
	settings.LastRollDate = core.NewDate(2026, 1, 5)
	require.NoError(t, st.UpdateSettings(ctx, settings))

	got, err := st.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, 20, got.MaxTasksPerDay)
	require.True(t, got.LastRollDate.Equal(core.NewDate(2026, 1, 5)))
}

func TestDayLedger_Upsert(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	d := core.NewDate(2026, 1, 5)

	none, err := st.GetDayLedger(ctx, d)
	require.NoError(t, err)
	require.Nil(t, none)

	ledger := &core.DayLedger{Date: d, PointsEarned: 12, TasksCompleted: 1}
	ledger.Recompute()
	require.NoError(t, st.UpsertDayLedger(ctx, ledger))

	got, err := st.GetDayLedger(ctx, d)
	require.NoError(t, err)
	require.Equal(t, 12.0, got.DailyTotal)

	total, err := st.SumDailyTotal(ctx)
	require.NoError(t, err)
	require.Equal(t, 12.0, total)
}

func TestGoal_CreateAchieveDelete(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	g := &core.Goal{Type: core.GoalPoints, TargetPoints: 100}
	require.NoError(t, st.CreateGoal(ctx, g))

	active, err := st.ActiveGoals(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	g.Achieved = true
	g.AchievedDate = core.NewDate(2026, 1, 5)
	require.NoError(t, st.UpdateGoal(ctx, g))

	active, err = st.ActiveGoals(ctx)
	require.NoError(t, err)
	require.Len(t, active, 0)

	require.NoError(t, st.DeleteGoal(ctx, g.ID))
	_, err = st.GetGoal(ctx, g.ID)
	require.True(t, core.IsNotFound(err))
}

func TestRestDay_CreateListDelete(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	d := core.NewDate(2026, 1, 5)

	require.NoError(t, st.CreateRestDay(ctx, &core.RestDay{Date: d, Description: "vacation"}))
	got, err := st.GetRestDay(ctx, d)
	require.NoError(t, err)
	require.Equal(t, "vacation", got.Description)

	all, err := st.ListRestDays(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, st.DeleteRestDay(ctx, d))
	got, err = st.GetRestDay(ctx, d)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestAtomic_RollsBackOnError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	item := &core.WorkItem{Description: "task"}
	require.NoError(t, st.CreateItem(ctx, item))

	sentinel := context.DeadlineExceeded
	err := st.Atomic(ctx, func(tx store.Store) error {
		got, err := tx.GetItem(ctx, item.ID)
		require.NoError(t, err)
		got.Priority = 7
		require.NoError(t, tx.UpdateItem(ctx, got))
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	got, err := st.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Priority, "update inside the failed transaction must not persist")
}
