package planner

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

// S6 — Roll idempotence: a second Roll on the same effective date fails
// with ErrRollAlreadyDone and mutates no WorkItem.
func TestRoll_Idempotence(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	pl := New(st)
	d := core.NewDate(2026, 1, 5)

	task := &core.WorkItem{ID: core.NewID(), Description: "write report", Priority: 5}
	require.NoError(t, st.CreateItem(ctx, task))

	mood := 3
	require.NoError(t, pl.Roll(ctx, d, &mood))

	before, err := st.GetItem(ctx, task.ID)
	require.NoError(t, err)

	err = pl.Roll(ctx, d, &mood)
	require.ErrorIs(t, err, core.ErrRollAlreadyDone)

	after, err := st.GetItem(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

// CanRoll reflects last_roll_date: false once a roll has already run for
// the current (or a later) effective date, true again on the next date.
func TestCanRoll(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	pl := New(st)
	d := core.NewDate(2026, 1, 5)

	settings, err := st.GetSettings(ctx)
	require.NoError(t, err)
	require.True(t, pl.CanRoll(ctx, d, settings))

	require.NoError(t, pl.Roll(ctx, d, nil))

	settings, err = st.GetSettings(ctx)
	require.NoError(t, err)
	require.False(t, pl.CanRoll(ctx, d, settings))
	require.True(t, pl.CanRoll(ctx, d.AddDays(1), settings))
}

// A task due today is selected into the agenda via Pass A (critical).
func TestRoll_SelectsCriticalTask(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	pl := New(st)
	d := core.NewDate(2026, 1, 5)

	urgent := &core.WorkItem{ID: core.NewID(), Description: "urgent", Priority: 5, DueDate: d}
	distant := &core.WorkItem{ID: core.NewID(), Description: "later", Priority: 1, DueDate: d.AddDays(30)}
	require.NoError(t, st.CreateItem(ctx, urgent))
	require.NoError(t, st.CreateItem(ctx, distant))

	require.NoError(t, pl.Roll(ctx, d, nil))

	got, err := st.GetItem(ctx, urgent.ID)
	require.NoError(t, err)
	require.True(t, got.IsToday)
}

// The mood filter drops items whose energy exceeds the operator's
// ceiling even if they would otherwise have been chosen.
func TestRoll_MoodFilterExcludesHighEnergyItem(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	pl := New(st)
	d := core.NewDate(2026, 1, 5)

	heavy := &core.WorkItem{ID: core.NewID(), Description: "deep work", Priority: 5, Energy: 5, DueDate: d}
	require.NoError(t, st.CreateItem(ctx, heavy))

	lowMood := 1
	require.NoError(t, pl.Roll(ctx, d, &lowMood))

	got, err := st.GetItem(ctx, heavy.ID)
	require.NoError(t, err)
	require.False(t, got.IsToday)
}
