package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDate_StringRoundTrip(t *testing.T) {
	d := NewDate(2026, time.March, 7)
	require.Equal(t, "2026-03-07", d.String())

	parsed, err := ParseDate("2026-03-07")
	require.NoError(t, err)
	require.True(t, d.Equal(parsed))
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := NewDate(2026, time.March, 7)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	require.Equal(t, `"2026-03-07"`, string(b))

	var got Date
	require.NoError(t, json.Unmarshal(b, &got))
	require.True(t, d.Equal(got))
}

func TestDate_ZeroMarshalsToNull(t *testing.T) {
	b, err := json.Marshal(ZeroDate)
	require.NoError(t, err)
	require.Equal(t, "null", string(b))

	var got Date
	require.NoError(t, json.Unmarshal([]byte("null"), &got))
	require.True(t, got.IsZero())
}

func TestDate_Comparisons(t *testing.T) {
	a := NewDate(2026, time.January, 1)
	b := a.AddDays(1)
	require.True(t, a.Before(b))
	require.True(t, b.After(a))
	require.True(t, a.BeforeOrEqual(a))
	require.True(t, a.AfterOrEqual(a))
	require.Equal(t, 1, a.DaysUntil(b))
}

func TestRecurrence_Advance(t *testing.T) {
	from := NewDate(2026, time.January, 5) // a Monday

	next, ok := Recurrence{Type: RecurrenceNone}.Advance(from)
	require.False(t, ok)
	require.True(t, next.IsZero())

	next, ok = Recurrence{Type: RecurrenceDaily}.Advance(from)
	require.True(t, ok)
	require.True(t, next.Equal(from.AddDays(1)))

	next, ok = Recurrence{Type: RecurrenceEveryNDays, Interval: 3}.Advance(from)
	require.True(t, ok)
	require.True(t, next.Equal(from.AddDays(3)))

	// Weekly on Wednesdays: from Monday, the next Wednesday is 2 days out.
	next, ok = Recurrence{Type: RecurrenceWeekly, DaysOfWeek: map[int]bool{3: true}}.Advance(from)
	require.True(t, ok)
	require.True(t, next.Equal(from.AddDays(2)))
}

func TestClockTime_ParseAndReached(t *testing.T) {
	ct, err := ParseClockTime("06:30")
	require.NoError(t, err)
	require.Equal(t, "06:30", ct.String())

	require.True(t, ct.Reached(time.Date(2026, 1, 1, 6, 30, 0, 0, time.UTC)))
	require.True(t, ct.Reached(time.Date(2026, 1, 1, 7, 0, 0, 0, time.UTC)))
	require.False(t, ct.Reached(time.Date(2026, 1, 1, 6, 29, 0, 0, time.UTC)))

	_, err = ParseClockTime("not-a-time")
	require.Error(t, err)

	_, err = ParseClockTime("25:00")
	require.Error(t, err)
}

func TestDateContext_EffectiveDate(t *testing.T) {
	dc := DateContext{DayStartEnabled: true, DayStartTime: ClockTime{Hour: 6, Minute: 0}}

	beforeBoundary := time.Date(2026, 1, 5, 3, 0, 0, 0, time.UTC)
	require.True(t, dc.EffectiveDate(beforeBoundary).Equal(NewDate(2026, time.January, 4)))

	afterBoundary := time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)
	require.True(t, dc.EffectiveDate(afterBoundary).Equal(NewDate(2026, time.January, 5)))

	disabled := DateContext{DayStartEnabled: false}
	require.True(t, disabled.EffectiveDate(beforeBoundary).Equal(NewDate(2026, time.January, 5)))
}

func TestDateContext_IsNewDay(t *testing.T) {
	dc := DateContext{DayStartEnabled: false}
	last := NewDate(2026, time.January, 4)
	require.True(t, dc.IsNewDay(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), last))
	require.False(t, dc.IsNewDay(time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC), last))
}
