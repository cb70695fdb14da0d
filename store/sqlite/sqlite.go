/*
Package sqlite provides a SQLite-backed implementation of store.Store.

PURPOSE:
  Implements the persistence contract using SQLite, following the same
  shape as the teacher's store/sqlite/sqlite.go: hand-written schema,
  auto-migrate on New(), WAL mode, a mutex serializing writers. The
  entity set is entirely different (WorkItems, habits, DayLedgers,
  Goals, RestDays, Backups, Settings instead of transactions/policies/
  assignments) but the technique — raw SQL strings, CREATE TABLE IF NOT
  EXISTS, explicit indexes, a thin execer abstraction so the same
  methods work inside or outside a transaction — carries over directly.

KEY TABLES:
  work_items:   tasks and habits, one row per WorkItem
  settings:     singleton row of every configurable knob
  day_ledgers:  one row per effective date, the scoring ledger
  goals:        point/project-completion goals
  rest_days:    penalty-exempt dates
  backups:      backup metadata (file itself is external)

CONCURRENCY:
  A sync.Mutex serializes Atomic() calls so WorkTracker/Planner/Scoring
  transactions never interleave; concurrent reads outside Atomic proceed
  via SQLite's own MVCC-ish WAL readers.

SEE ALSO:
  - store/store.go: the interface this implements
  - core/types.go: the entities
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/dayline/core"
	"github.com/warp/dayline/store"
)

// execer is implemented by both *sql.DB and *sql.Tx, letting every
// query method below run either standalone or inside Atomic.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements store.Store using SQLite.
type Store struct {
	db   *sql.DB
	conn execer // == db outside a transaction, == the *sql.Tx inside Atomic
	mu   *sync.Mutex
}

var _ store.Store = (*Store)(nil)

// New creates a new SQLite-backed store. Use ":memory:" for an
// in-memory database (handy for tests).
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1) // a fresh in-memory DB per connection otherwise
	}

	s := &Store{db: db, conn: db, mu: &sync.Mutex{}}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS work_items (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		project TEXT,
		priority INTEGER NOT NULL DEFAULT 0,
		energy INTEGER NOT NULL DEFAULT 0,
		is_habit INTEGER NOT NULL DEFAULT 0,
		is_today INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		due_date TEXT,
		created_at TEXT NOT NULL,
		started_at TEXT,
		completed_at TEXT,
		time_spent INTEGER NOT NULL DEFAULT 0,
		depends_on TEXT,
		habit_type TEXT,
		recurrence_type TEXT NOT NULL DEFAULT 'none',
		recurrence_interval INTEGER NOT NULL DEFAULT 0,
		recurrence_days_of_week TEXT NOT NULL DEFAULT '',
		streak INTEGER NOT NULL DEFAULT 0,
		last_completed_date TEXT,
		daily_target INTEGER NOT NULL DEFAULT 1,
		daily_completed INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_work_items_status ON work_items(status);
	CREATE INDEX IF NOT EXISTS idx_work_items_habit_due ON work_items(is_habit, due_date);
	CREATE INDEX IF NOT EXISTS idx_work_items_today ON work_items(is_today);
	-- at most one active item: enforced transactionally, indexed for the
	-- common ActiveItem() lookup.
	CREATE INDEX IF NOT EXISTS idx_work_items_active ON work_items(status) WHERE status = 'active';

	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		max_tasks_per_day INTEGER NOT NULL,
		critical_days INTEGER NOT NULL,
		points_per_task_base REAL NOT NULL,
		points_per_habit_base REAL NOT NULL,
		routine_points_fixed REAL NOT NULL,
		energy_mult_base REAL NOT NULL,
		energy_mult_step REAL NOT NULL,
		streak_log_factor REAL NOT NULL,
		max_streak_bonus_days INTEGER NOT NULL,
		minutes_per_energy_unit REAL NOT NULL,
		min_work_time_seconds INTEGER NOT NULL,
		time_efficiency_weight REAL NOT NULL,
		completion_bonus_full REAL NOT NULL,
		completion_bonus_good REAL NOT NULL,
		idle_penalty REAL NOT NULL,
		incomplete_day_penalty REAL NOT NULL,
		incomplete_day_threshold REAL NOT NULL,
		incomplete_threshold_severe REAL NOT NULL,
		incomplete_penalty_severe REAL NOT NULL,
		missed_habit_penalty_base REAL NOT NULL,
		progressive_penalty_factor REAL NOT NULL,
		progressive_penalty_max REAL NOT NULL,
		penalty_streak_reset_days INTEGER NOT NULL,
		day_start_enabled INTEGER NOT NULL,
		day_start_time TEXT NOT NULL,
		roll_available_time TEXT NOT NULL,
		auto_penalties_enabled INTEGER NOT NULL,
		penalty_time TEXT NOT NULL,
		auto_roll_enabled INTEGER NOT NULL,
		auto_roll_time TEXT NOT NULL,
		auto_backup_enabled INTEGER NOT NULL,
		backup_time TEXT NOT NULL,
		backup_interval_days INTEGER NOT NULL,
		backup_keep_local_count INTEGER NOT NULL,
		last_roll_date TEXT,
		last_penalty_date TEXT,
		last_backup_date TEXT,
		pending_roll INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS day_ledgers (
		date TEXT PRIMARY KEY,
		points_earned REAL NOT NULL DEFAULT 0,
		points_penalty REAL NOT NULL DEFAULT 0,
		daily_total REAL NOT NULL DEFAULT 0,
		tasks_completed INTEGER NOT NULL DEFAULT 0,
		tasks_planned INTEGER NOT NULL DEFAULT 0,
		habits_completed INTEGER NOT NULL DEFAULT 0,
		habits_total INTEGER NOT NULL DEFAULT 0,
		completion_rate REAL NOT NULL DEFAULT 0,
		penalty_streak INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		target_points REAL,
		project_name TEXT,
		reward_description TEXT,
		deadline TEXT,
		achieved INTEGER NOT NULL DEFAULT 0,
		achieved_date TEXT,
		reward_claimed INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_goals_achieved ON goals(achieved);

	CREATE TABLE IF NOT EXISTS rest_days (
		date TEXT PRIMARY KEY,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS backups (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		created_at TEXT NOT NULL,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		type TEXT NOT NULL,
		uploaded_offsite INTEGER NOT NULL DEFAULT 0
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.ensureSettingsRow(context.Background())
}

func (s *Store) ensureSettingsRow(ctx context.Context) error {
	var count int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings WHERE id = 1`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	defaults := core.DefaultSettings()
	return s.UpdateSettings(ctx, &defaults)
}

// Atomic runs fn inside one SQLite transaction.
func (s *Store) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.NewStoreError("begin", err)
	}
	txStore := &Store{db: s.db, conn: tx, mu: s.mu}
	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return core.NewStoreError("commit", err)
	}
	return nil
}

// =============================================================================
// WORK ITEM
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func dateStr(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func timeStr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseDatePtr(s sql.NullString) core.Date {
	if !s.Valid || s.String == "" {
		return core.Date{}
	}
	d, err := core.ParseDate(s.String)
	if err != nil {
		return core.Date{}
	}
	return d
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func encodeDaysOfWeek(m map[int]bool) string {
	if len(m) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m))
	for d, on := range m {
		if on {
			parts = append(parts, strconv.Itoa(d))
		}
	}
	return strings.Join(parts, ",")
}

func decodeDaysOfWeek(s string) map[int]bool {
	if s == "" {
		return nil
	}
	out := make(map[int]bool)
	for _, p := range strings.Split(s, ",") {
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err == nil {
			out[n] = true
		}
	}
	return out
}

const itemColumns = `id, description, project, priority, energy, is_habit, is_today, status,
	due_date, created_at, started_at, completed_at, time_spent, depends_on, habit_type,
	recurrence_type, recurrence_interval, recurrence_days_of_week, streak,
	last_completed_date, daily_target, daily_completed`

func scanItem(row interface{ Scan(...any) error }) (*core.WorkItem, error) {
	var it core.WorkItem
	var project, dependsOn, habitType sql.NullString
	var dueDate, startedAt, completedAt, lastCompleted sql.NullString
	var createdAt string
	var recurrenceType string
	var recurrenceInterval int
	var daysOfWeek string
	var isHabit, isToday int

	err := row.Scan(&it.ID, &it.Description, &project, &it.Priority, &it.Energy, &isHabit, &isToday,
		&it.Status, &dueDate, &createdAt, &startedAt, &completedAt, &it.TimeSpent, &dependsOn, &habitType,
		&recurrenceType, &recurrenceInterval, &daysOfWeek, &it.Streak, &lastCompleted,
		&it.DailyTarget, &it.DailyCompleted)
	if err != nil {
		return nil, err
	}

	it.Project = project.String
	it.IsHabit = isHabit != 0
	it.IsToday = isToday != 0
	it.DueDate = parseDatePtr(dueDate)
	it.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	it.StartedAt = parseTimePtr(startedAt)
	it.CompletedAt = parseTimePtr(completedAt)
	if dependsOn.Valid && dependsOn.String != "" {
		v := dependsOn.String
		it.DependsOn = &v
	}
	it.HabitType = core.HabitType(habitType.String)
	it.Recurrence = core.Recurrence{
		Type:       core.RecurrenceType(recurrenceType),
		Interval:   recurrenceInterval,
		DaysOfWeek: decodeDaysOfWeek(daysOfWeek),
	}
	it.LastCompletedDate = parseDatePtr(lastCompleted)
	return &it, nil
}

// dependencyCycleCheck walks the depends_on chain starting at start,
// failing if it ever reaches avoid. The depends_on relation is a
// single edge per node (§9 design note), so this is a linear walk, not
// a general graph traversal.
func (s *Store) dependencyCycleCheck(ctx context.Context, avoid, start string) error {
	cur := start
	for i := 0; i < 10_000; i++ { // defensive bound; real chains are short
		if cur == avoid {
			return core.ErrCyclicDependency
		}
		row := s.conn.QueryRowContext(ctx, `SELECT depends_on FROM work_items WHERE id = ?`, cur)
		var next sql.NullString
		if err := row.Scan(&next); err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return core.NewStoreError("dependency_cycle_check", err)
		}
		if !next.Valid || next.String == "" {
			return nil
		}
		cur = next.String
	}
	return core.ErrCyclicDependency
}

func (s *Store) CreateItem(ctx context.Context, item *core.WorkItem) error {
	if item.ID == "" {
		item.ID = core.NewID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	if item.DependsOn != nil {
		if err := s.dependencyCycleCheck(ctx, item.ID, *item.DependsOn); err != nil {
			return err
		}
	}
	var dependsOn any
	if item.DependsOn != nil {
		dependsOn = *item.DependsOn
	}
	_, err := s.conn.ExecContext(ctx, `INSERT INTO work_items (`+itemColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		item.ID, item.Description, item.Project, item.Priority, item.Energy,
		boolToInt(item.IsHabit), boolToInt(item.IsToday), string(item.Status),
		dateStr(item.DueDate), item.CreatedAt.UTC().Format(time.RFC3339Nano),
		timeStr(item.StartedAt), timeStr(item.CompletedAt), item.TimeSpent, dependsOn,
		string(item.HabitType), string(item.Recurrence.Type), item.Recurrence.Interval,
		encodeDaysOfWeek(item.Recurrence.DaysOfWeek), item.Streak, dateStr(item.LastCompletedDate),
		item.DailyTarget, item.DailyCompleted)
	if err != nil {
		return core.NewStoreError("create_item", err)
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*core.WorkItem, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM work_items WHERE id = ?`, id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, &core.NotFoundError{Kind: "item", ID: id}
	}
	if err != nil {
		return nil, core.NewStoreError("get_item", err)
	}
	return it, nil
}

func (s *Store) UpdateItem(ctx context.Context, item *core.WorkItem) error {
	if item.DependsOn != nil {
		if err := s.dependencyCycleCheck(ctx, item.ID, *item.DependsOn); err != nil {
			return err
		}
	}
	var dependsOn any
	if item.DependsOn != nil {
		dependsOn = *item.DependsOn
	}
	res, err := s.conn.ExecContext(ctx, `UPDATE work_items SET description=?, project=?, priority=?, energy=?,
		is_habit=?, is_today=?, status=?, due_date=?, started_at=?, completed_at=?, time_spent=?,
		depends_on=?, habit_type=?, recurrence_type=?, recurrence_interval=?, recurrence_days_of_week=?,
		streak=?, last_completed_date=?, daily_target=?, daily_completed=? WHERE id=?`,
		item.Description, item.Project, item.Priority, item.Energy,
		boolToInt(item.IsHabit), boolToInt(item.IsToday), string(item.Status),
		dateStr(item.DueDate), timeStr(item.StartedAt), timeStr(item.CompletedAt), item.TimeSpent,
		dependsOn, string(item.HabitType), string(item.Recurrence.Type), item.Recurrence.Interval,
		encodeDaysOfWeek(item.Recurrence.DaysOfWeek), item.Streak, dateStr(item.LastCompletedDate),
		item.DailyTarget, item.DailyCompleted, item.ID)
	if err != nil {
		return core.NewStoreError("update_item", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return &core.NotFoundError{Kind: "item", ID: item.ID}
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM work_items WHERE id = ?`, id)
	if err != nil {
		return core.NewStoreError("delete_item", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return &core.NotFoundError{Kind: "item", ID: id}
	}
	return nil
}

func (s *Store) queryItems(ctx context.Context, where string, args ...any) ([]*core.WorkItem, error) {
	query := `SELECT ` + itemColumns + ` FROM work_items`
	if where != "" {
		query += ` WHERE ` + where
	}
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.NewStoreError("query_items", err)
	}
	defer rows.Close()

	var out []*core.WorkItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, core.NewStoreError("scan_item", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) ListItems(ctx context.Context, filter store.ItemFilter) ([]*core.WorkItem, error) {
	var clauses []string
	var args []any
	if filter.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.IsHabit != nil {
		clauses = append(clauses, "is_habit = ?")
		args = append(args, boolToInt(*filter.IsHabit))
	}
	if filter.IsToday != nil {
		clauses = append(clauses, "is_today = ?")
		args = append(args, boolToInt(*filter.IsToday))
	}
	if filter.DueOnOrBefore != nil {
		clauses = append(clauses, "due_date <= ?")
		args = append(args, filter.DueOnOrBefore.String())
	}
	return s.queryItems(ctx, strings.Join(clauses, " AND "), args...)
}

func (s *Store) ActiveItem(ctx context.Context) (*core.WorkItem, error) {
	items, err := s.queryItems(ctx, "status = ?", string(core.StatusActive))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

func (s *Store) PendingNonHabits(ctx context.Context) ([]*core.WorkItem, error) {
	return s.queryItems(ctx, "status = ? AND is_habit = 0", string(core.StatusPending))
}

func (s *Store) TodayHabits(ctx context.Context, effectiveDate core.Date) ([]*core.WorkItem, error) {
	return s.queryItems(ctx, "is_habit = 1 AND due_date = ?", effectiveDate.String())
}

func (s *Store) OverdueHabits(ctx context.Context, beforeDate core.Date) ([]*core.WorkItem, error) {
	return s.queryItems(ctx, "is_habit = 1 AND due_date < ? AND status != ?", beforeDate.String(), string(core.StatusCompleted))
}

func (s *Store) HabitsDueOnOrBefore(ctx context.Context, date core.Date) ([]*core.WorkItem, error) {
	return s.queryItems(ctx, "is_habit = 1 AND due_date <= ?", date.String())
}

// =============================================================================
// SETTINGS
// =============================================================================

const settingsColumns = `max_tasks_per_day, critical_days, points_per_task_base, points_per_habit_base,
	routine_points_fixed, energy_mult_base, energy_mult_step, streak_log_factor, max_streak_bonus_days,
	minutes_per_energy_unit, min_work_time_seconds, time_efficiency_weight, completion_bonus_full,
	completion_bonus_good, idle_penalty, incomplete_day_penalty, incomplete_day_threshold,
	incomplete_threshold_severe, incomplete_penalty_severe, missed_habit_penalty_base,
	progressive_penalty_factor, progressive_penalty_max, penalty_streak_reset_days,
	day_start_enabled, day_start_time, roll_available_time, auto_penalties_enabled, penalty_time,
	auto_roll_enabled, auto_roll_time, auto_backup_enabled, backup_time, backup_interval_days,
	backup_keep_local_count, last_roll_date, last_penalty_date, last_backup_date, pending_roll`

func (s *Store) GetSettings(ctx context.Context) (*core.Settings, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM settings WHERE id = 1`)
	var st core.Settings
	var dayStartEnabled, autoPenalties, autoRoll, autoBackup, pendingRoll int
	var lastRoll, lastPenalty, lastBackup sql.NullString
	err := row.Scan(&st.MaxTasksPerDay, &st.CriticalDays, &st.PointsPerTaskBase, &st.PointsPerHabitBase,
		&st.RoutinePointsFixed, &st.EnergyMultBase, &st.EnergyMultStep, &st.StreakLogFactor, &st.MaxStreakBonusDays,
		&st.MinutesPerEnergyUnit, &st.MinWorkTimeSeconds, &st.TimeEfficiencyWeight, &st.CompletionBonusFull,
		&st.CompletionBonusGood, &st.IdlePenalty, &st.IncompleteDayPenalty, &st.IncompleteDayThreshold,
		&st.IncompleteThresholdSevere, &st.IncompletePenaltySevere, &st.MissedHabitPenaltyBase,
		&st.ProgressivePenaltyFactor, &st.ProgressivePenaltyMax, &st.PenaltyStreakResetDays,
		&dayStartEnabled, &st.DayStartTime, &st.RollAvailableTime, &autoPenalties, &st.PenaltyTime,
		&autoRoll, &st.AutoRollTime, &autoBackup, &st.BackupTime, &st.BackupIntervalDays,
		&st.BackupKeepLocalCount, &lastRoll, &lastPenalty, &lastBackup, &pendingRoll)
	if err == sql.ErrNoRows {
		d := core.DefaultSettings()
		return &d, nil
	}
	if err != nil {
		return nil, core.NewStoreError("get_settings", err)
	}
	st.DayStartEnabled = dayStartEnabled != 0
	st.AutoPenaltiesEnabled = autoPenalties != 0
	st.AutoRollEnabled = autoRoll != 0
	st.AutoBackupEnabled = autoBackup != 0
	st.PendingRoll = pendingRoll != 0
	st.LastRollDate = parseDatePtr(lastRoll)
	st.LastPenaltyDate = parseDatePtr(lastPenalty)
	st.LastBackupDate = parseDatePtr(lastBackup)
	return &st, nil
}

func (s *Store) UpdateSettings(ctx context.Context, st *core.Settings) error {
	_, err := s.conn.ExecContext(ctx, `INSERT INTO settings (id, `+settingsColumns+`) VALUES (1,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			max_tasks_per_day=excluded.max_tasks_per_day, critical_days=excluded.critical_days,
			points_per_task_base=excluded.points_per_task_base, points_per_habit_base=excluded.points_per_habit_base,
			routine_points_fixed=excluded.routine_points_fixed, energy_mult_base=excluded.energy_mult_base,
			energy_mult_step=excluded.energy_mult_step, streak_log_factor=excluded.streak_log_factor,
			max_streak_bonus_days=excluded.max_streak_bonus_days, minutes_per_energy_unit=excluded.minutes_per_energy_unit,
			min_work_time_seconds=excluded.min_work_time_seconds, time_efficiency_weight=excluded.time_efficiency_weight,
			completion_bonus_full=excluded.completion_bonus_full, completion_bonus_good=excluded.completion_bonus_good,
			idle_penalty=excluded.idle_penalty, incomplete_day_penalty=excluded.incomplete_day_penalty,
			incomplete_day_threshold=excluded.incomplete_day_threshold, incomplete_threshold_severe=excluded.incomplete_threshold_severe,
			incomplete_penalty_severe=excluded.incomplete_penalty_severe, missed_habit_penalty_base=excluded.missed_habit_penalty_base,
			progressive_penalty_factor=excluded.progressive_penalty_factor, progressive_penalty_max=excluded.progressive_penalty_max,
			penalty_streak_reset_days=excluded.penalty_streak_reset_days, day_start_enabled=excluded.day_start_enabled,
			day_start_time=excluded.day_start_time, roll_available_time=excluded.roll_available_time,
			auto_penalties_enabled=excluded.auto_penalties_enabled, penalty_time=excluded.penalty_time,
			auto_roll_enabled=excluded.auto_roll_enabled, auto_roll_time=excluded.auto_roll_time,
			auto_backup_enabled=excluded.auto_backup_enabled, backup_time=excluded.backup_time,
			backup_interval_days=excluded.backup_interval_days, backup_keep_local_count=excluded.backup_keep_local_count,
			last_roll_date=excluded.last_roll_date, last_penalty_date=excluded.last_penalty_date,
			last_backup_date=excluded.last_backup_date, pending_roll=excluded.pending_roll`,
		st.MaxTasksPerDay, st.CriticalDays, st.PointsPerTaskBase, st.PointsPerHabitBase,
		st.RoutinePointsFixed, st.EnergyMultBase, st.EnergyMultStep, st.StreakLogFactor, st.MaxStreakBonusDays,
		st.MinutesPerEnergyUnit, st.MinWorkTimeSeconds, st.TimeEfficiencyWeight, st.CompletionBonusFull,
		st.CompletionBonusGood, st.IdlePenalty, st.IncompleteDayPenalty, st.IncompleteDayThreshold,
		st.IncompleteThresholdSevere, st.IncompletePenaltySevere, st.MissedHabitPenaltyBase,
		st.ProgressivePenaltyFactor, st.ProgressivePenaltyMax, st.PenaltyStreakResetDays,
		boolToInt(st.DayStartEnabled), st.DayStartTime, st.RollAvailableTime, boolToInt(st.AutoPenaltiesEnabled),
		st.PenaltyTime, boolToInt(st.AutoRollEnabled), st.AutoRollTime, boolToInt(st.AutoBackupEnabled),
		st.BackupTime, st.BackupIntervalDays, st.BackupKeepLocalCount,
		dateStr(st.LastRollDate), dateStr(st.LastPenaltyDate), dateStr(st.LastBackupDate), boolToInt(st.PendingRoll))
	if err != nil {
		return core.NewStoreError("update_settings", err)
	}
	return nil
}

// =============================================================================
// DAY LEDGER
// =============================================================================

func (s *Store) GetDayLedger(ctx context.Context, date core.Date) (*core.DayLedger, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT date, points_earned, points_penalty, daily_total,
		tasks_completed, tasks_planned, habits_completed, habits_total, completion_rate, penalty_streak
		FROM day_ledgers WHERE date = ?`, date.String())
	var l core.DayLedger
	var dStr string
	err := row.Scan(&dStr, &l.PointsEarned, &l.PointsPenalty, &l.DailyTotal, &l.TasksCompleted,
		&l.TasksPlanned, &l.HabitsCompleted, &l.HabitsTotal, &l.CompletionRate, &l.PenaltyStreak)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, core.NewStoreError("get_day_ledger", err)
	}
	l.Date, _ = core.ParseDate(dStr)
	return &l, nil
}

func (s *Store) UpsertDayLedger(ctx context.Context, l *core.DayLedger) error {
	_, err := s.conn.ExecContext(ctx, `INSERT INTO day_ledgers (date, points_earned, points_penalty,
		daily_total, tasks_completed, tasks_planned, habits_completed, habits_total, completion_rate, penalty_streak)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(date) DO UPDATE SET
			points_earned=excluded.points_earned, points_penalty=excluded.points_penalty,
			daily_total=excluded.daily_total, tasks_completed=excluded.tasks_completed,
			tasks_planned=excluded.tasks_planned, habits_completed=excluded.habits_completed,
			habits_total=excluded.habits_total, completion_rate=excluded.completion_rate,
			penalty_streak=excluded.penalty_streak`,
		l.Date.String(), l.PointsEarned, l.PointsPenalty, l.DailyTotal, l.TasksCompleted, l.TasksPlanned,
		l.HabitsCompleted, l.HabitsTotal, l.CompletionRate, l.PenaltyStreak)
	if err != nil {
		return core.NewStoreError("upsert_day_ledger", err)
	}
	return nil
}

func (s *Store) SumDailyTotal(ctx context.Context) (float64, error) {
	var total sql.NullFloat64
	err := s.conn.QueryRowContext(ctx, `SELECT SUM(daily_total) FROM day_ledgers`).Scan(&total)
	if err != nil {
		return 0, core.NewStoreError("sum_daily_total", err)
	}
	return total.Float64, nil
}

// =============================================================================
// GOAL
// =============================================================================

func (s *Store) CreateGoal(ctx context.Context, g *core.Goal) error {
	if g.ID == "" {
		g.ID = core.NewID()
	}
	_, err := s.conn.ExecContext(ctx, `INSERT INTO goals (id, type, target_points, project_name,
		reward_description, deadline, achieved, achieved_date, reward_claimed) VALUES (?,?,?,?,?,?,?,?,?)`,
		g.ID, string(g.Type), g.TargetPoints, g.ProjectName, g.RewardDescription, dateStr(g.Deadline),
		boolToInt(g.Achieved), dateStr(g.AchievedDate), boolToInt(g.RewardClaimed))
	if err != nil {
		return core.NewStoreError("create_goal", err)
	}
	return nil
}

func scanGoal(row interface{ Scan(...any) error }) (*core.Goal, error) {
	var g core.Goal
	var targetPoints sql.NullFloat64
	var projectName, rewardDesc, deadline, achievedDate sql.NullString
	var achieved, claimed int
	var typ string
	err := row.Scan(&g.ID, &typ, &targetPoints, &projectName, &rewardDesc, &deadline, &achieved, &achievedDate, &claimed)
	if err != nil {
		return nil, err
	}
	g.Type = core.GoalType(typ)
	g.TargetPoints = targetPoints.Float64
	g.ProjectName = projectName.String
	g.RewardDescription = rewardDesc.String
	g.Deadline = parseDatePtr(deadline)
	g.Achieved = achieved != 0
	g.AchievedDate = parseDatePtr(achievedDate)
	g.RewardClaimed = claimed != 0
	return &g, nil
}

func (s *Store) GetGoal(ctx context.Context, id string) (*core.Goal, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT id, type, target_points, project_name, reward_description,
		deadline, achieved, achieved_date, reward_claimed FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, &core.NotFoundError{Kind: "goal", ID: id}
	}
	if err != nil {
		return nil, core.NewStoreError("get_goal", err)
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g *core.Goal) error {
	res, err := s.conn.ExecContext(ctx, `UPDATE goals SET type=?, target_points=?, project_name=?,
		reward_description=?, deadline=?, achieved=?, achieved_date=?, reward_claimed=? WHERE id=?`,
		string(g.Type), g.TargetPoints, g.ProjectName, g.RewardDescription, dateStr(g.Deadline),
		boolToInt(g.Achieved), dateStr(g.AchievedDate), boolToInt(g.RewardClaimed), g.ID)
	if err != nil {
		return core.NewStoreError("update_goal", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Kind: "goal", ID: g.ID}
	}
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return core.NewStoreError("delete_goal", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Kind: "goal", ID: id}
	}
	return nil
}

func (s *Store) ActiveGoals(ctx context.Context) ([]*core.Goal, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, type, target_points, project_name, reward_description,
		deadline, achieved, achieved_date, reward_claimed FROM goals WHERE achieved = 0`)
	if err != nil {
		return nil, core.NewStoreError("active_goals", err)
	}
	defer rows.Close()
	var out []*core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, core.NewStoreError("scan_goal", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// =============================================================================
// REST DAY
// =============================================================================

func (s *Store) CreateRestDay(ctx context.Context, r *core.RestDay) error {
	_, err := s.conn.ExecContext(ctx, `INSERT INTO rest_days (date, description) VALUES (?,?)
		ON CONFLICT(date) DO UPDATE SET description=excluded.description`, r.Date.String(), r.Description)
	if err != nil {
		return core.NewStoreError("create_rest_day", err)
	}
	return nil
}

func (s *Store) GetRestDay(ctx context.Context, date core.Date) (*core.RestDay, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT date, description FROM rest_days WHERE date = ?`, date.String())
	var r core.RestDay
	var d string
	if err := row.Scan(&d, &r.Description); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, core.NewStoreError("get_rest_day", err)
	}
	r.Date, _ = core.ParseDate(d)
	return &r, nil
}

func (s *Store) DeleteRestDay(ctx context.Context, date core.Date) error {
	_, err := s.conn.ExecContext(ctx, `DELETE FROM rest_days WHERE date = ?`, date.String())
	if err != nil {
		return core.NewStoreError("delete_rest_day", err)
	}
	return nil
}

func (s *Store) ListRestDays(ctx context.Context) ([]*core.RestDay, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT date, description FROM rest_days ORDER BY date`)
	if err != nil {
		return nil, core.NewStoreError("list_rest_days", err)
	}
	defer rows.Close()
	var out []*core.RestDay
	for rows.Next() {
		var r core.RestDay
		var d string
		if err := rows.Scan(&d, &r.Description); err != nil {
			return nil, core.NewStoreError("scan_rest_day", err)
		}
		r.Date, _ = core.ParseDate(d)
		out = append(out, &r)
	}
	return out, rows.Err()
}

// =============================================================================
// BACKUP
// =============================================================================

func (s *Store) CreateBackup(ctx context.Context, b *core.Backup) error {
	if b.ID == "" {
		b.ID = core.NewID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	_, err := s.conn.ExecContext(ctx, `INSERT INTO backups (id, filename, created_at, size_bytes, type, uploaded_offsite)
		VALUES (?,?,?,?,?,?)`, b.ID, b.Filename, b.CreatedAt.UTC().Format(time.RFC3339Nano), b.SizeBytes,
		string(b.Type), boolToInt(b.UploadedOffsite))
	if err != nil {
		return core.NewStoreError("create_backup", err)
	}
	return nil
}

func (s *Store) ListBackups(ctx context.Context) ([]*core.Backup, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, filename, created_at, size_bytes, type, uploaded_offsite
		FROM backups ORDER BY created_at DESC`)
	if err != nil {
		return nil, core.NewStoreError("list_backups", err)
	}
	defer rows.Close()
	var out []*core.Backup
	for rows.Next() {
		var b core.Backup
		var createdAt, typ string
		var uploaded int
		if err := rows.Scan(&b.ID, &b.Filename, &createdAt, &b.SizeBytes, &typ, &uploaded); err != nil {
			return nil, core.NewStoreError("scan_backup", err)
		}
		b.Type = core.BackupType(typ)
		b.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		b.UploadedOffsite = uploaded != 0
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (s *Store) GetBackup(ctx context.Context, id string) (*core.Backup, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT id, filename, created_at, size_bytes, type, uploaded_offsite
		FROM backups WHERE id = ?`, id)
	var b core.Backup
	var createdAt, typ string
	var uploaded int
	if err := row.Scan(&b.ID, &b.Filename, &createdAt, &b.SizeBytes, &typ, &uploaded); err != nil {
		if err == sql.ErrNoRows {
			return nil, &core.NotFoundError{Kind: "backup", ID: id}
		}
		return nil, core.NewStoreError("get_backup", err)
	}
	b.Type = core.BackupType(typ)
	b.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	b.UploadedOffsite = uploaded != 0
	return &b, nil
}

func (s *Store) DeleteBackup(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM backups WHERE id = ?`, id)
	if err != nil {
		return core.NewStoreError("delete_backup", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Kind: "backup", ID: id}
	}
	return nil
}
