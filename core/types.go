/*
Package core holds the entity model and cross-cutting primitives shared
by every subsystem of the day-lifecycle engine: WorkTracker, Scoring,
Planner and Scheduler all operate on the types defined here, and the
Store (store/sqlite) is their sole persistence boundary.

KEY CONCEPTS IN THIS FILE (types.go):
  - WorkItem: a task or habit, the unit the Planner schedules and the
    WorkTracker advances through pending/active/completed/skipped.
  - Recurrence: embedded schedule spec for habits (daily/every_n_days/weekly).
  - Settings: the singleton of ~30 numeric/boolean/time-string knobs.
  - DayLedger: one row per effective date, the source of truth for score.
  - Goal, RestDay, Backup: supporting entities.

DESIGN PRINCIPLES:
  1. The Store owns all entities; every other component mutates them only
     through Store transactions (see store/store.go).
  2. IDs are google/uuid strings, generated once at creation and never
     reused (mirrors the teacher's TransactionID/RequestID convention,
     upgraded to a real ID library).
  3. Money-like arithmetic (points) uses shopspring/decimal; see
     scoring/points.go.

SEE ALSO:
  - errors.go: the error taxonomy these operations return
  - datectx.go: effective date computation
  - store/store.go: the persistence contract over these types
*/
package core

import (
	"time"

	"github.com/google/uuid"
)

// NewID mints a fresh identifier. Centralized so every entity uses the
// same ID scheme.
func NewID() string { return uuid.NewString() }

// =============================================================================
// WORK ITEM - task or habit
// =============================================================================

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
)

type HabitType string

const (
	HabitSkill   HabitType = "skill"
	HabitRoutine HabitType = "routine"
)

// WorkItem is a task or a habit. IsHabit distinguishes the two; habits
// additionally carry Recurrence, Streak, DailyTarget/DailyCompleted and
// are never truly terminal while their recurrence type is non-"none".
type WorkItem struct {
	ID          string
	Description string
	Project     string
	Priority    int // 0..10
	Energy      int // 0..5
	IsHabit     bool
	IsToday     bool
	Status      Status
	DueDate     Date // next scheduled occurrence for habits

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	TimeSpent   int64 // seconds, monotonically non-decreasing

	DependsOn *string // at most one edge

	HabitType         HabitType // only meaningful if IsHabit
	Recurrence        Recurrence
	Streak            int
	LastCompletedDate Date
	DailyTarget       int
	DailyCompleted    int
}

// RecurrenceType tags the variant; avoid encoding DaysOfWeek as a
// serialized string at this layer (that is a Store/sqlite concern).
type RecurrenceType string

const (
	RecurrenceNone         RecurrenceType = "none"
	RecurrenceDaily        RecurrenceType = "daily"
	RecurrenceEveryNDays   RecurrenceType = "every_n_days"
	RecurrenceWeekly       RecurrenceType = "weekly"
)

// Recurrence is the tagged-variant schedule spec for a habit.
type Recurrence struct {
	Type        RecurrenceType
	Interval    int          // for every_n_days
	DaysOfWeek  map[int]bool // 0 (Sunday) .. 6, for weekly
}

// Advance computes the next occurrence date given the date on which the
// current occurrence was completed (or, for purge, the stale due date).
// RecurrenceNone reports ok=false: the habit is terminal.
func (r Recurrence) Advance(from Date) (next Date, ok bool) {
	switch r.Type {
	case RecurrenceDaily:
		return from.AddDays(1), true
	case RecurrenceEveryNDays:
		n := r.Interval
		if n < 1 {
			n = 1
		}
		return from.AddDays(n), true
	case RecurrenceWeekly:
		if len(r.DaysOfWeek) == 0 {
			return from.AddDays(7), true
		}
		for i := 1; i <= 7; i++ {
			candidate := from.AddDays(i)
			if r.DaysOfWeek[int(candidate.Weekday())] {
				return candidate, true
			}
		}
		return from.AddDays(7), true
	default: // RecurrenceNone
		return Date{}, false
	}
}

// =============================================================================
// SETTINGS - singleton configuration
// =============================================================================

// Settings holds every configurable knob in §6 of the specification,
// plus the three persistent idempotence tokens the Scheduler depends on.
type Settings struct {
	// Planning
	MaxTasksPerDay int
	CriticalDays   int

	// Reward coefficients
	PointsPerTaskBase     float64
	PointsPerHabitBase    float64
	RoutinePointsFixed    float64
	EnergyMultBase        float64
	EnergyMultStep        float64
	StreakLogFactor       float64
	MaxStreakBonusDays    int
	MinutesPerEnergyUnit  float64
	MinWorkTimeSeconds    int64
	TimeEfficiencyWeight  float64
	CompletionBonusFull   float64
	CompletionBonusGood   float64

	// Penalties
	IdlePenalty                float64
	IncompleteDayPenalty        float64
	IncompleteDayThreshold      float64
	IncompleteThresholdSevere   float64
	IncompletePenaltySevere     float64
	MissedHabitPenaltyBase      float64
	ProgressivePenaltyFactor    float64
	ProgressivePenaltyMax       float64
	PenaltyStreakResetDays      int

	// Day boundary
	DayStartEnabled bool
	DayStartTime    string // "HH:MM"

	// Schedule
	RollAvailableTime   string
	AutoPenaltiesEnabled bool
	PenaltyTime         string
	AutoRollEnabled     bool
	AutoRollTime        string
	AutoBackupEnabled   bool
	BackupTime          string
	BackupIntervalDays  int
	BackupKeepLocalCount int

	// State (sole persistent idempotence tokens)
	LastRollDate    Date
	LastPenaltyDate Date
	LastBackupDate  Date
	PendingRoll     bool
}

// DefaultSettings returns the documented defaults from spec.md §6.
func DefaultSettings() Settings {
	return Settings{
		MaxTasksPerDay: 10,
		CriticalDays:   2,

		PointsPerTaskBase:    10,
		PointsPerHabitBase:   10,
		RoutinePointsFixed:   6,
		EnergyMultBase:       0.6,
		EnergyMultStep:       0.2,
		StreakLogFactor:      0.15,
		MaxStreakBonusDays:   100,
		MinutesPerEnergyUnit: 20,
		MinWorkTimeSeconds:   120,
		TimeEfficiencyWeight: 0.5,
		CompletionBonusFull:  0.10,
		CompletionBonusGood:  0.05,

		IdlePenalty:               30,
		IncompleteDayPenalty:      10,
		IncompleteDayThreshold:    0.6,
		IncompleteThresholdSevere: 0.4,
		IncompletePenaltySevere:   15,
		MissedHabitPenaltyBase:    15,
		ProgressivePenaltyFactor:  0.1,
		ProgressivePenaltyMax:     1.5,
		PenaltyStreakResetDays:    2,

		DayStartEnabled: false,
		DayStartTime:    "06:00",

		RollAvailableTime:    "00:00",
		AutoPenaltiesEnabled: true,
		PenaltyTime:          "00:01",
		AutoRollEnabled:      false,
		AutoRollTime:         "06:00",
		AutoBackupEnabled:    true,
		BackupTime:           "03:00",
		BackupIntervalDays:   1,
		BackupKeepLocalCount: 10,
	}
}

// DateContext derives a DateContext from the settings' day-boundary
// fields. Malformed DayStartTime falls back to the documented default
// rather than failing; validation happens at settings-update time.
func (s Settings) DateContext() DateContext {
	ct, err := ParseClockTime(s.DayStartTime)
	if err != nil {
		ct = ClockTime{Hour: 6, Minute: 0}
	}
	return DateContext{DayStartEnabled: s.DayStartEnabled, DayStartTime: ct}
}

// =============================================================================
// DAY LEDGER - one row per effective date, the source of truth for score
// =============================================================================

type DayLedger struct {
	Date            Date
	PointsEarned    float64
	PointsPenalty   float64
	DailyTotal      float64
	TasksCompleted  int
	TasksPlanned    int
	HabitsCompleted int
	HabitsTotal     int
	CompletionRate  float64
	PenaltyStreak   int
}

// Recompute keeps DailyTotal and CompletionRate consistent with the
// counters; callers mutate the counters then call this before persisting.
func (d *DayLedger) Recompute() {
	d.DailyTotal = d.PointsEarned - d.PointsPenalty
	if d.TasksPlanned > 0 {
		d.CompletionRate = float64(d.TasksCompleted) / float64(d.TasksPlanned)
	} else {
		d.CompletionRate = 0
	}
}

// =============================================================================
// GOAL
// =============================================================================

type GoalType string

const (
	GoalPoints            GoalType = "points"
	GoalProjectCompletion GoalType = "project_completion"
)

type Goal struct {
	ID                string
	Type              GoalType
	TargetPoints      float64
	ProjectName       string
	RewardDescription string
	Deadline          Date
	Achieved          bool
	AchievedDate      Date
	RewardClaimed     bool
}

// =============================================================================
// REST DAY
// =============================================================================

type RestDay struct {
	Date        Date
	Description string
}

// =============================================================================
// BACKUP
// =============================================================================

type BackupType string

const (
	BackupAuto   BackupType = "auto"
	BackupManual BackupType = "manual"
)

type Backup struct {
	ID             string
	Filename       string
	CreatedAt      time.Time
	SizeBytes      int64
	Type           BackupType
	UploadedOffsite bool
}
