/*
datectx.go - Translates wall-clock instants into the operator's "today"

PURPOSE:
  The operator's subjective day does not necessarily roll over at
  midnight: a day-start time lets "today" run past midnight (e.g. until
  06:00) before the effective date advances. Every other component in
  this engine (Planner, Scoring, Scheduler) keys its idempotence off the
  effective date this file computes, never off time.Now() directly.

SEE ALSO:
  - scheduler/scheduler.go: calls EffectiveDate every tick
  - planner/roll.go, scoring/scoring.go: consume the computed date
*/
package core

import (
	"fmt"
	"time"
)

// DateContext computes the effective date given the operator's day
// boundary settings.
type DateContext struct {
	DayStartEnabled bool
	DayStartTime    ClockTime
}

// ClockTime is an HH:MM wall-clock time-of-day, with no date component.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM". Returns InvalidArgument on malformed input.
func ParseClockTime(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return ClockTime{}, &InvalidArgumentError{Field: "time", Reason: "expected HH:MM, got " + s}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return ClockTime{}, &InvalidArgumentError{Field: "time", Reason: "out of range: " + s}
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// reached reports whether the time-of-day (hour, minute) is at or past c.
func (c ClockTime) reached(hour, minute int) bool {
	return hour > c.Hour || (hour == c.Hour && minute >= c.Minute)
}

// Reached reports whether now's time-of-day is at or past c. Exported
// for callers outside core (the Scheduler's per-job time gates).
func (c ClockTime) Reached(now time.Time) bool {
	return c.reached(now.Hour(), now.Minute())
}

// EffectiveDate returns the operator's subjective "today" for the given
// wall-clock instant. now must already be expressed in local time
// (time.Now() in the process's configured timezone).
func (dc DateContext) EffectiveDate(now time.Time) Date {
	today := DateOf(now)
	if !dc.DayStartEnabled {
		return today
	}
	if dc.DayStartTime.reached(now.Hour(), now.Minute()) {
		return today
	}
	return today.AddDays(-1)
}

// IsNewDay reports whether now's effective date is strictly later than
// lastDate.
func (dc DateContext) IsNewDay(now time.Time, lastDate Date) bool {
	return dc.EffectiveDate(now).After(lastDate)
}
