/*
date.go - Day-granularity date abstraction for the day-lifecycle core

PURPOSE:
  Every entity in this engine keys off a calendar date, never a precise
  instant: due dates, effective dates, ledger rows. Date wraps time.Time
  truncated to midnight UTC-of-local-day so comparisons and map keys
  behave.

SEE ALSO:
  - datectx.go: computes the operator's "effective date" from wall clock
  - generic/time.go in the retrieval pack's teacher repo, which this
    is adapted from (day-only here; no hour/minute granularity needed)
*/
package core

import "time"

// Date is a calendar date with no time-of-day component.
type Date struct {
	t time.Time
}

// NewDate constructs a Date from a year/month/day triple.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a wall-clock instant (already in local time) to its
// calendar date.
func DateOf(at time.Time) Date {
	return Date{t: time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)}
}

// ZeroDate is the unset value; IsZero reports it.
var ZeroDate = Date{}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

func (d Date) Before(o Date) bool        { return d.t.Before(o.t) }
func (d Date) After(o Date) bool         { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool         { return d.t.Equal(o.t) }
func (d Date) BeforeOrEqual(o Date) bool { return d.Before(o) || d.Equal(o) }
func (d Date) AfterOrEqual(o Date) bool  { return d.After(o) || d.Equal(o) }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// DaysUntil returns the number of days from d to o (positive if o is later).
func (d Date) DaysUntil(o Date) int {
	return int(o.t.Sub(d.t).Hours() / 24)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format("2006-01-02")
}

// MarshalJSON/UnmarshalJSON let Date round-trip through the API and store
// layers as a plain "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*d = ZeroDate
		return nil
	}
	s = s[1 : len(s)-1]
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{t: t}, nil
}
