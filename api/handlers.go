/*
handlers.go - HTTP API handlers for the day-lifecycle engine

PURPOSE:
  Exposes the operator API of spec.md §6 over HTTP. Handlers parse
  requests, delegate to worktracker/scoring/planner/scheduler/backup,
  and serialize results — no domain logic lives here.

ENDPOINTS:
  Items:
    GET    /api/items                 List items (filterable by status/habit/today)
    POST   /api/items                 Create task or habit
    GET    /api/items/{id}            Get one item
    PUT    /api/items/{id}            Update
    DELETE /api/items/{id}            Delete
    POST   /api/items/{id}/start      Start (stops any other active item first)
    POST   /api/stop                  Stop the active item
    POST   /api/items/{id}/complete   Complete (id "active" targets the active item)
    GET    /api/items/today-habits    Habits due today

  Planner:
    GET    /api/roll/can              can_roll
    POST   /api/roll                  roll(mood?)

  Scoring:
    GET    /api/points                current_points
    GET    /api/points/history        history(days)
    GET    /api/points/projection     projection(target_date)
    GET    /api/goals, POST /api/goals, DELETE /api/goals/{id}
    GET/POST/DELETE /api/rest-days

  Operations:
    GET    /api/backups, POST /api/backups, DELETE /api/backups/{id}
    GET    /api/backups/{id}/download download
    GET    /api/scheduler/status
    GET/PUT /api/settings

ERROR HANDLING:
  400 InvalidArgument/DependencyNotMet/RollAlreadyDone/RollNotAvailable/
  CyclicDependency; 404 NotFound; 500 everything else (StoreFailure).

SEE ALSO:
  - dto.go: wire types
  - server.go: router wiring
*/
package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/dayline/backup"
	"github.com/warp/dayline/core"
	"github.com/warp/dayline/planner"
	"github.com/warp/dayline/scheduler"
	"github.com/warp/dayline/scoring"
	"github.com/warp/dayline/store"
	"github.com/warp/dayline/worktracker"
)

// Handler holds every dependency an HTTP request needs.
type Handler struct {
	Store     store.Store
	Tracker   *worktracker.Tracker
	Planner   *planner.Planner
	Scheduler *scheduler.Scheduler
	Backup    *backup.Manager
	Now       func() time.Time
}

func NewHandler(st store.Store, tracker *worktracker.Tracker, pl *planner.Planner, sch *scheduler.Scheduler, bk *backup.Manager) *Handler {
	return &Handler{Store: st, Tracker: tracker, Planner: pl, Scheduler: sch, Backup: bk, Now: time.Now}
}

// =============================================================================
// WORK ITEMS
// =============================================================================

// ListItems returns items, optionally filtered by status/is_habit/is_today.
// GET /api/items
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var filter store.ItemFilter
	if v := r.URL.Query().Get("status"); v != "" {
		st := core.Status(v)
		filter.Status = &st
	}
	if v := r.URL.Query().Get("is_habit"); v != "" {
		b := v == "true"
		filter.IsHabit = &b
	}
	if v := r.URL.Query().Get("is_today"); v != "" {
		b := v == "true"
		filter.IsToday = &b
	}

	items, err := h.Store.ListItems(ctx, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list items", err)
		return
	}
	dtos := make([]WorkItemDTO, 0, len(items))
	for _, it := range items {
		dtos = append(dtos, toWorkItemDTO(it))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": dtos})
}

// TodayHabits returns habits due on the current effective date.
// GET /api/items/today-habits
func (h *Handler) TodayHabits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings, err := h.Store.GetSettings(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings", err)
		return
	}
	effective := settings.DateContext().EffectiveDate(h.Now())
	habits, err := h.Store.TodayHabits(ctx, effective)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list today's habits", err)
		return
	}
	dtos := make([]WorkItemDTO, 0, len(habits))
	for _, it := range habits {
		dtos = append(dtos, toWorkItemDTO(it))
	}
	writeJSON(w, http.StatusOK, map[string]any{"habits": dtos})
}

// GetItem returns one WorkItem by id.
// GET /api/items/{id}
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, err := h.Store.GetItem(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkItemDTO(item))
}

// CreateItem creates a task or habit.
// POST /api/items
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required", nil)
		return
	}
	if req.Priority < 0 || req.Priority > 10 {
		writeError(w, http.StatusBadRequest, "priority must be in [0,10]", nil)
		return
	}
	if req.Energy < 0 || req.Energy > 5 {
		writeError(w, http.StatusBadRequest, "energy must be in [0,5]", nil)
		return
	}

	dueDate, _ := core.ParseDate(req.DueDate)
	days := make(map[int]bool, len(req.RecurrenceDays))
	for _, d := range req.RecurrenceDays {
		days[d] = true
	}

	item := &core.WorkItem{
		Description: req.Description,
		Project:     req.Project,
		Priority:    req.Priority,
		Energy:      req.Energy,
		IsHabit:     req.IsHabit,
		Status:      core.StatusPending,
		DueDate:     dueDate,
		DependsOn:   req.DependsOn,
		HabitType:   core.HabitType(req.HabitType),
		Recurrence: core.Recurrence{
			Type:       core.RecurrenceType(req.RecurrenceType),
			Interval:   req.RecurrenceN,
			DaysOfWeek: days,
		},
		DailyTarget: req.DailyTarget,
	}
	if item.IsHabit && item.DailyTarget == 0 {
		item.DailyTarget = 1
	}

	if err := h.Store.CreateItem(r.Context(), item); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkItemDTO(item))
}

// UpdateItem patches mutable fields of an existing item.
// PUT /api/items/{id}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	item, err := h.Store.GetItem(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req UpdateWorkItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Project != nil {
		item.Project = *req.Project
	}
	if req.Priority != nil {
		item.Priority = *req.Priority
	}
	if req.Energy != nil {
		item.Energy = *req.Energy
	}
	if req.DueDate != nil {
		d, err := core.ParseDate(*req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid due_date", err)
			return
		}
		item.DueDate = d
	}
	if req.DependsOn != nil {
		item.DependsOn = req.DependsOn
	}

	if err := h.Store.UpdateItem(ctx, item); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkItemDTO(item))
}

// DeleteItem removes an item.
// DELETE /api/items/{id}
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteItem(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// StartItem activates the given item.
// POST /api/items/{id}/start
func (h *Handler) StartItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Tracker.Start(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// StopActive stops the unique active item, if any.
// POST /api/stop
func (h *Handler) StopActive(w http.ResponseWriter, r *http.Request) {
	if err := h.Tracker.Stop(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// CompleteItem completes the given item, or the active item if id is
// "active".
// POST /api/items/{id}/complete
func (h *Handler) CompleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "active" {
		id = ""
	}
	item, err := h.Tracker.Complete(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkItemDTO(item))
}

// =============================================================================
// PLANNER
// =============================================================================

// CanRoll reports whether roll() would currently succeed.
// GET /api/roll/can
func (h *Handler) CanRoll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings, err := h.Store.GetSettings(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings", err)
		return
	}
	effective := settings.DateContext().EffectiveDate(h.Now())
	writeJSON(w, http.StatusOK, map[string]bool{"can_roll": h.Planner.CanRoll(ctx, effective, settings)})
}

// Roll runs the Roll algorithm for the current effective date.
// POST /api/roll
func (h *Handler) Roll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req RollRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	settings, err := h.Store.GetSettings(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings", err)
		return
	}
	now := h.Now()
	effective := settings.DateContext().EffectiveDate(now)

	if t, err := core.ParseClockTime(settings.RollAvailableTime); err == nil && !t.Reached(now) {
		writeError(w, http.StatusBadRequest, "roll not available yet", core.ErrRollNotAvailable)
		return
	}

	if err := h.Planner.Roll(ctx, effective, req.Mood); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rolled", "date": effective.String()})
}

// =============================================================================
// SCORING
// =============================================================================

// CurrentPoints returns the cumulative points total.
// GET /api/points
func (h *Handler) CurrentPoints(w http.ResponseWriter, r *http.Request) {
	total, err := h.Store.SumDailyTotal(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to sum points", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"points": total})
}

// PointsHistory returns the last `days` DayLedger rows.
// GET /api/points/history?days=30
func (h *Handler) PointsHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	settings, err := h.Store.GetSettings(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings", err)
		return
	}
	effective := settings.DateContext().EffectiveDate(h.Now())

	out := make([]DayLedgerDTO, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := effective.AddDays(-i)
		ledger, err := h.Store.GetDayLedger(ctx, d)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load ledger", err)
			return
		}
		if ledger == nil {
			ledger = &core.DayLedger{Date: d}
		}
		out = append(out, toDayLedgerDTO(ledger))
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": out})
}

// projectionWindowDays is how many trailing DayLedger rows feed the
// average daily rate Projection extrapolates from. Not a Settings knob
// (spec.md §6 doesn't name one for it): a fixed two-week trailing
// window is long enough to smooth a single bad or great day without
// going stale relative to recent habit/streak changes.
const projectionWindowDays = 14

// Projection estimates the cumulative point total on a future date by
// extrapolating the trailing average daily_total.
// GET /api/points/projection?target_date=YYYY-MM-DD
func (h *Handler) Projection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	targetStr := r.URL.Query().Get("target_date")
	if targetStr == "" {
		writeError(w, http.StatusBadRequest, "target_date is required", nil)
		return
	}
	target, err := core.ParseDate(targetStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target_date", err)
		return
	}

	settings, err := h.Store.GetSettings(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings", err)
		return
	}
	asOf := settings.DateContext().EffectiveDate(h.Now())

	currentTotal, err := h.Store.SumDailyTotal(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to sum points", err)
		return
	}

	recent := make([]*core.DayLedger, 0, projectionWindowDays)
	for i := 0; i < projectionWindowDays; i++ {
		ledger, err := h.Store.GetDayLedger(ctx, asOf.AddDays(-i))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load ledger", err)
			return
		}
		if ledger != nil {
			recent = append(recent, ledger)
		}
	}

	result := scoring.Project(currentTotal, recent, asOf, target)
	writeJSON(w, http.StatusOK, ProjectionDTO{
		TargetDate:     target.String(),
		CurrentTotal:   result.CurrentTotal,
		AverageDaily:   result.AverageDaily,
		DaysRemaining:  result.DaysRemaining,
		ProjectedTotal: result.ProjectedTotal,
	})
}

// ListGoals returns every active goal.
// GET /api/goals
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.Store.ActiveGoals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list goals", err)
		return
	}
	dtos := make([]GoalDTO, 0, len(goals))
	for _, g := range goals {
		dtos = append(dtos, toGoalDTO(g))
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": dtos})
}

// CreateGoal creates a points or project_completion goal.
// POST /api/goals
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	deadline, _ := core.ParseDate(req.Deadline)
	goal := &core.Goal{
		Type:              core.GoalType(req.Type),
		TargetPoints:      req.TargetPoints,
		ProjectName:       req.ProjectName,
		RewardDescription: req.RewardDescription,
		Deadline:          deadline,
	}
	if err := h.Store.CreateGoal(r.Context(), goal); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalDTO(goal))
}

// DeleteGoal removes a goal.
// DELETE /api/goals/{id}
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteGoal(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListRestDays returns every configured rest day.
// GET /api/rest-days
func (h *Handler) ListRestDays(w http.ResponseWriter, r *http.Request) {
	restDays, err := h.Store.ListRestDays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rest days", err)
		return
	}
	dtos := make([]RestDayDTO, 0, len(restDays))
	for _, rd := range restDays {
		dtos = append(dtos, RestDayDTO{Date: rd.Date.String(), Description: rd.Description})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rest_days": dtos})
}

// CreateRestDay marks a date as exempt from penalties.
// POST /api/rest-days
func (h *Handler) CreateRestDay(w http.ResponseWriter, r *http.Request) {
	var req CreateRestDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err)
		return
	}
	rd := &core.RestDay{Date: date, Description: req.Description}
	if err := h.Store.CreateRestDay(r.Context(), rd); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, RestDayDTO{Date: rd.Date.String(), Description: rd.Description})
}

// DeleteRestDay removes a rest day by date (YYYY-MM-DD).
// DELETE /api/rest-days/{date}
func (h *Handler) DeleteRestDay(w http.ResponseWriter, r *http.Request) {
	dateStr := chi.URLParam(r, "date")
	date, err := core.ParseDate(dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err)
		return
	}
	if err := h.Store.DeleteRestDay(r.Context(), date); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// OPERATIONS
// =============================================================================

// ListBackups returns backup metadata, most recent first.
// GET /api/backups
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.Store.ListBackups(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list backups", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backups": backups})
}

// CreateBackup triggers a manual backup.
// POST /api/backups
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	b, err := h.Backup.CreateAs(r.Context(), core.BackupManual)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "backup failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// DownloadBackup streams a backup file's bytes to the caller.
// GET /api/backups/{id}/download
func (h *Handler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := h.Store.GetBackup(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	path := filepath.Join(h.Backup.Dir(), b.Filename)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+b.Filename+"\"")
	http.ServeFile(w, r, path)
}

// DeleteBackup removes a backup's metadata record.
// DELETE /api/backups/{id}
func (h *Handler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteBackup(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SchedulerStatus reports the in-memory per-job observability counters.
// GET /api/scheduler/status
func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	statuses := h.Scheduler.AllStatuses()
	out := make(map[string]SchedulerStatusDTO, len(statuses))
	for job, st := range statuses {
		dto := SchedulerStatusDTO{
			TotalChecks:      st.TotalChecks,
			TotalExecutions:  st.TotalExecutions,
			LastErrorMessage: st.LastErrorMessage,
		}
		if !st.LastCheckTime.IsZero() {
			dto.LastCheckTime = st.LastCheckTime.Format(time.RFC3339)
		}
		if !st.LastExecution.IsZero() {
			dto.LastExecution = st.LastExecution.Format(time.RFC3339)
		}
		out[job] = dto
	}
	writeJSON(w, http.StatusOK, out)
}

// GetSettings returns the current Settings singleton.
// GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Store.GetSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

// UpdateSettings overwrites the Settings singleton.
// PUT /api/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var dto SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	clockFields := map[string]string{
		"day_start_time":       dto.DayStartTime,
		"roll_available_time":  dto.RollAvailableTime,
		"penalty_time":         dto.PenaltyTime,
		"auto_roll_time":       dto.AutoRollTime,
		"backup_time":          dto.BackupTime,
	}
	for name, value := range clockFields {
		if _, err := core.ParseClockTime(value); err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+name, err)
			return
		}
	}
	settings := fromSettingsDTO(dto)
	if err := h.Store.UpdateSettings(r.Context(), &settings); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(&settings))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the core error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case core.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case core.IsClientError(err):
		writeError(w, http.StatusBadRequest, "request rejected", err)
	default:
		var invalid *core.InvalidArgumentError
		if ok := asInvalidArgument(err, &invalid); ok {
			writeError(w, http.StatusBadRequest, "invalid argument", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func asInvalidArgument(err error, target **core.InvalidArgumentError) bool {
	v, ok := err.(*core.InvalidArgumentError)
	if ok {
		*target = v
	}
	return ok
}
