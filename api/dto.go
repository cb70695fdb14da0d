/*
dto.go - Data Transfer Objects for the operator API

PURPOSE:
  Decouples the wire format from core.WorkItem/Settings/etc so field
  renames and additions on the API surface never ripple into the core
  packages, and so Date/time.Time marshal the way clients expect.

NAMING CONVENTION:
  - *DTO: response shapes
  - *Request: request body shapes

SEE ALSO:
  - handlers.go: constructs/consumes these types
  - core/types.go: the domain types these wrap
*/
package api

import (
	"time"

	"github.com/warp/dayline/core"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WorkItemDTO is the wire shape of a core.WorkItem.
type WorkItemDTO struct {
	ID                string     `json:"id"`
	Description       string     `json:"description"`
	Project           string     `json:"project,omitempty"`
	Priority          int        `json:"priority"`
	Energy            int        `json:"energy"`
	IsHabit           bool       `json:"is_habit"`
	IsToday           bool       `json:"is_today"`
	Status            string     `json:"status"`
	DueDate           string     `json:"due_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	TimeSpent         int64      `json:"time_spent"`
	DependsOn         *string    `json:"depends_on,omitempty"`
	HabitType         string     `json:"habit_type,omitempty"`
	RecurrenceType    string     `json:"recurrence_type,omitempty"`
	RecurrenceN       int        `json:"recurrence_interval,omitempty"`
	RecurrenceDays    []int      `json:"recurrence_days_of_week,omitempty"`
	Streak            int        `json:"streak"`
	LastCompletedDate string     `json:"last_completed_date,omitempty"`
	DailyTarget       int        `json:"daily_target"`
	DailyCompleted    int        `json:"daily_completed"`
}

func toWorkItemDTO(it *core.WorkItem) WorkItemDTO {
	var days []int
	for d, on := range it.Recurrence.DaysOfWeek {
		if on {
			days = append(days, d)
		}
	}
	return WorkItemDTO{
		ID:                it.ID,
		Description:       it.Description,
		Project:           it.Project,
		Priority:          it.Priority,
		Energy:            it.Energy,
		IsHabit:           it.IsHabit,
		IsToday:           it.IsToday,
		Status:            string(it.Status),
		DueDate:           it.DueDate.String(),
		CreatedAt:         it.CreatedAt,
		StartedAt:         it.StartedAt,
		CompletedAt:       it.CompletedAt,
		TimeSpent:         it.TimeSpent,
		DependsOn:         it.DependsOn,
		HabitType:         string(it.HabitType),
		RecurrenceType:    string(it.Recurrence.Type),
		RecurrenceN:       it.Recurrence.Interval,
		RecurrenceDays:    days,
		Streak:            it.Streak,
		LastCompletedDate: it.LastCompletedDate.String(),
		DailyTarget:       it.DailyTarget,
		DailyCompleted:    it.DailyCompleted,
	}
}

// CreateWorkItemRequest is the request body for POST /api/items.
type CreateWorkItemRequest struct {
	Description    string  `json:"description"`
	Project        string  `json:"project"`
	Priority       int     `json:"priority"`
	Energy         int     `json:"energy"`
	IsHabit        bool    `json:"is_habit"`
	DueDate        string  `json:"due_date"`
	DependsOn      *string `json:"depends_on"`
	HabitType      string  `json:"habit_type"`
	RecurrenceType string  `json:"recurrence_type"`
	RecurrenceN    int     `json:"recurrence_interval"`
	RecurrenceDays []int   `json:"recurrence_days_of_week"`
	DailyTarget    int     `json:"daily_target"`
}

type UpdateWorkItemRequest struct {
	Description *string `json:"description"`
	Project     *string `json:"project"`
	Priority    *int    `json:"priority"`
	Energy      *int    `json:"energy"`
	DueDate     *string `json:"due_date"`
	DependsOn   *string `json:"depends_on"`
}

type RollRequest struct {
	Mood *int `json:"mood"`
}

// DayLedgerDTO is the wire shape of a core.DayLedger.
type DayLedgerDTO struct {
	Date            string  `json:"date"`
	PointsEarned    float64 `json:"points_earned"`
	PointsPenalty   float64 `json:"points_penalty"`
	DailyTotal      float64 `json:"daily_total"`
	TasksCompleted  int     `json:"tasks_completed"`
	TasksPlanned    int     `json:"tasks_planned"`
	HabitsCompleted int     `json:"habits_completed"`
	HabitsTotal     int     `json:"habits_total"`
	CompletionRate  float64 `json:"completion_rate"`
	PenaltyStreak   int     `json:"penalty_streak"`
}

func toDayLedgerDTO(l *core.DayLedger) DayLedgerDTO {
	return DayLedgerDTO{
		Date:            l.Date.String(),
		PointsEarned:    l.PointsEarned,
		PointsPenalty:   l.PointsPenalty,
		DailyTotal:      l.DailyTotal,
		TasksCompleted:  l.TasksCompleted,
		TasksPlanned:    l.TasksPlanned,
		HabitsCompleted: l.HabitsCompleted,
		HabitsTotal:     l.HabitsTotal,
		CompletionRate:  l.CompletionRate,
		PenaltyStreak:   l.PenaltyStreak,
	}
}

// ProjectionDTO is the wire shape of scoring.ProjectionResult.
type ProjectionDTO struct {
	TargetDate     string  `json:"target_date"`
	CurrentTotal   float64 `json:"current_total"`
	AverageDaily   float64 `json:"average_daily"`
	DaysRemaining  int     `json:"days_remaining"`
	ProjectedTotal float64 `json:"projected_total"`
}

// GoalDTO is the wire shape of a core.Goal.
type GoalDTO struct {
	ID                string  `json:"id"`
	Type              string  `json:"type"`
	TargetPoints      float64 `json:"target_points,omitempty"`
	ProjectName       string  `json:"project_name,omitempty"`
	RewardDescription string  `json:"reward_description,omitempty"`
	Deadline          string  `json:"deadline,omitempty"`
	Achieved          bool    `json:"achieved"`
	AchievedDate      string  `json:"achieved_date,omitempty"`
	RewardClaimed     bool    `json:"reward_claimed"`
}

func toGoalDTO(g *core.Goal) GoalDTO {
	return GoalDTO{
		ID:                g.ID,
		Type:              string(g.Type),
		TargetPoints:      g.TargetPoints,
		ProjectName:       g.ProjectName,
		RewardDescription: g.RewardDescription,
		Deadline:          g.Deadline.String(),
		Achieved:          g.Achieved,
		AchievedDate:      g.AchievedDate.String(),
		RewardClaimed:     g.RewardClaimed,
	}
}

type CreateGoalRequest struct {
	Type              string  `json:"type"`
	TargetPoints      float64 `json:"target_points"`
	ProjectName       string  `json:"project_name"`
	RewardDescription string  `json:"reward_description"`
	Deadline          string  `json:"deadline"`
}

type RestDayDTO struct {
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
}

type CreateRestDayRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

// SchedulerStatusDTO reports the Scheduler's in-memory observability
// counters for one job.
type SchedulerStatusDTO struct {
	TotalChecks      int64  `json:"total_checks"`
	TotalExecutions  int64  `json:"total_executions"`
	LastCheckTime    string `json:"last_check_time,omitempty"`
	LastExecution    string `json:"last_execution,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

type SettingsDTO struct {
	MaxTasksPerDay            int     `json:"max_tasks_per_day"`
	CriticalDays              int     `json:"critical_days"`
	PointsPerTaskBase         float64 `json:"points_per_task_base"`
	PointsPerHabitBase        float64 `json:"points_per_habit_base"`
	RoutinePointsFixed        float64 `json:"routine_points_fixed"`
	EnergyMultBase            float64 `json:"energy_mult_base"`
	EnergyMultStep            float64 `json:"energy_mult_step"`
	StreakLogFactor           float64 `json:"streak_log_factor"`
	MaxStreakBonusDays        int     `json:"max_streak_bonus_days"`
	MinutesPerEnergyUnit      float64 `json:"minutes_per_energy_unit"`
	MinWorkTimeSeconds        int64   `json:"min_work_time_seconds"`
	TimeEfficiencyWeight      float64 `json:"time_efficiency_weight"`
	CompletionBonusFull       float64 `json:"completion_bonus_full"`
	CompletionBonusGood       float64 `json:"completion_bonus_good"`
	IdlePenalty               float64 `json:"idle_penalty"`
	IncompleteDayPenalty      float64 `json:"incomplete_day_penalty"`
	IncompleteDayThreshold    float64 `json:"incomplete_day_threshold"`
	IncompleteThresholdSevere float64 `json:"incomplete_threshold_severe"`
	IncompletePenaltySevere   float64 `json:"incomplete_penalty_severe"`
	MissedHabitPenaltyBase    float64 `json:"missed_habit_penalty_base"`
	ProgressivePenaltyFactor  float64 `json:"progressive_penalty_factor"`
	ProgressivePenaltyMax     float64 `json:"progressive_penalty_max"`
	PenaltyStreakResetDays    int     `json:"penalty_streak_reset_days"`
	DayStartEnabled           bool    `json:"day_start_enabled"`
	DayStartTime              string  `json:"day_start_time"`
	RollAvailableTime         string  `json:"roll_available_time"`
	AutoPenaltiesEnabled      bool    `json:"auto_penalties_enabled"`
	PenaltyTime               string  `json:"penalty_time"`
	AutoRollEnabled           bool    `json:"auto_roll_enabled"`
	AutoRollTime              string  `json:"auto_roll_time"`
	AutoBackupEnabled         bool    `json:"auto_backup_enabled"`
	BackupTime                string  `json:"backup_time"`
	BackupIntervalDays        int     `json:"backup_interval_days"`
	BackupKeepLocalCount      int     `json:"backup_keep_local_count"`
	LastRollDate              string  `json:"last_roll_date,omitempty"`
	LastPenaltyDate           string  `json:"last_penalty_date,omitempty"`
	LastBackupDate            string  `json:"last_backup_date,omitempty"`
	PendingRoll               bool    `json:"pending_roll"`
}

func toSettingsDTO(s *core.Settings) SettingsDTO {
	return SettingsDTO{
		MaxTasksPerDay: s.MaxTasksPerDay, CriticalDays: s.CriticalDays,
		PointsPerTaskBase: s.PointsPerTaskBase, PointsPerHabitBase: s.PointsPerHabitBase,
		RoutinePointsFixed: s.RoutinePointsFixed, EnergyMultBase: s.EnergyMultBase,
		EnergyMultStep: s.EnergyMultStep, StreakLogFactor: s.StreakLogFactor,
		MaxStreakBonusDays: s.MaxStreakBonusDays, MinutesPerEnergyUnit: s.MinutesPerEnergyUnit,
		MinWorkTimeSeconds: s.MinWorkTimeSeconds, TimeEfficiencyWeight: s.TimeEfficiencyWeight,
		CompletionBonusFull: s.CompletionBonusFull, CompletionBonusGood: s.CompletionBonusGood,
		IdlePenalty: s.IdlePenalty, IncompleteDayPenalty: s.IncompleteDayPenalty,
		IncompleteDayThreshold: s.IncompleteDayThreshold, IncompleteThresholdSevere: s.IncompleteThresholdSevere,
		IncompletePenaltySevere: s.IncompletePenaltySevere, MissedHabitPenaltyBase: s.MissedHabitPenaltyBase,
		ProgressivePenaltyFactor: s.ProgressivePenaltyFactor, ProgressivePenaltyMax: s.ProgressivePenaltyMax,
		PenaltyStreakResetDays: s.PenaltyStreakResetDays, DayStartEnabled: s.DayStartEnabled,
		DayStartTime: s.DayStartTime, RollAvailableTime: s.RollAvailableTime,
		AutoPenaltiesEnabled: s.AutoPenaltiesEnabled, PenaltyTime: s.PenaltyTime,
		AutoRollEnabled: s.AutoRollEnabled, AutoRollTime: s.AutoRollTime,
		AutoBackupEnabled: s.AutoBackupEnabled, BackupTime: s.BackupTime,
		BackupIntervalDays: s.BackupIntervalDays, BackupKeepLocalCount: s.BackupKeepLocalCount,
		LastRollDate: s.LastRollDate.String(), LastPenaltyDate: s.LastPenaltyDate.String(),
		LastBackupDate: s.LastBackupDate.String(), PendingRoll: s.PendingRoll,
	}
}

type UpdateSettingsRequest = SettingsDTO

func fromSettingsDTO(dto SettingsDTO) core.Settings {
	s := core.Settings{
		MaxTasksPerDay: dto.MaxTasksPerDay, CriticalDays: dto.CriticalDays,
		PointsPerTaskBase: dto.PointsPerTaskBase, PointsPerHabitBase: dto.PointsPerHabitBase,
		RoutinePointsFixed: dto.RoutinePointsFixed, EnergyMultBase: dto.EnergyMultBase,
		EnergyMultStep: dto.EnergyMultStep, StreakLogFactor: dto.StreakLogFactor,
		MaxStreakBonusDays: dto.MaxStreakBonusDays, MinutesPerEnergyUnit: dto.MinutesPerEnergyUnit,
		MinWorkTimeSeconds: dto.MinWorkTimeSeconds, TimeEfficiencyWeight: dto.TimeEfficiencyWeight,
		CompletionBonusFull: dto.CompletionBonusFull, CompletionBonusGood: dto.CompletionBonusGood,
		IdlePenalty: dto.IdlePenalty, IncompleteDayPenalty: dto.IncompleteDayPenalty,
		IncompleteDayThreshold: dto.IncompleteDayThreshold, IncompleteThresholdSevere: dto.IncompleteThresholdSevere,
		IncompletePenaltySevere: dto.IncompletePenaltySevere, MissedHabitPenaltyBase: dto.MissedHabitPenaltyBase,
		ProgressivePenaltyFactor: dto.ProgressivePenaltyFactor, ProgressivePenaltyMax: dto.ProgressivePenaltyMax,
		PenaltyStreakResetDays: dto.PenaltyStreakResetDays, DayStartEnabled: dto.DayStartEnabled,
		DayStartTime: dto.DayStartTime, RollAvailableTime: dto.RollAvailableTime,
		AutoPenaltiesEnabled: dto.AutoPenaltiesEnabled, PenaltyTime: dto.PenaltyTime,
		AutoRollEnabled: dto.AutoRollEnabled, AutoRollTime: dto.AutoRollTime,
		AutoBackupEnabled: dto.AutoBackupEnabled, BackupTime: dto.BackupTime,
		BackupIntervalDays: dto.BackupIntervalDays, BackupKeepLocalCount: dto.BackupKeepLocalCount,
		PendingRoll: dto.PendingRoll,
	}
	s.LastRollDate, _ = core.ParseDate(dto.LastRollDate)
	s.LastPenaltyDate, _ = core.ParseDate(dto.LastPenaltyDate)
	s.LastBackupDate, _ = core.ParseDate(dto.LastBackupDate)
	return s
}
