package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warp/dayline/backup"
	"github.com/warp/dayline/planner"
	"github.com/warp/dayline/scheduler"
	"github.com/warp/dayline/store/sqlite"
	"github.com/warp/dayline/worktracker"
)

func newTestHandler(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "dayline.db")
	st, err := sqlite.New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	tracker := worktracker.New(st, nil)
	pl := planner.New(st)
	bk := backup.New(st, dbPath, t.TempDir(), nil)
	sch := scheduler.New(st, bk, 0, nil)

	h := NewHandler(st, tracker, pl, sch, bk)
	return h, NewRouter(h)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGetItem(t *testing.T) {
	_, router := newTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/items", CreateWorkItemRequest{
		Description: "write tests", Priority: 5, Energy: 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created WorkItemDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rec = doJSON(t, router, http.MethodGet, "/api/items/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateItem_RejectsInvalidPriority(t *testing.T) {
	_, router := newTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/items", CreateWorkItemRequest{
		Description: "bad", Priority: 99,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetItem_NotFoundIs404(t *testing.T) {
	_, router := newTestHandler(t)
	rec := doJSON(t, router, http.MethodGet, "/api/items/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartCompleteFlow(t *testing.T) {
	_, router := newTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/items", CreateWorkItemRequest{
		Description: "task", Priority: 1, Energy: 0,
	})
	var created WorkItemDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodPost, "/api/items/"+created.ID+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/items/"+created.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/points", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var points map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	require.Greater(t, points["points"], 0.0)
}

func TestRoll_RejectsSecondCallSameDay(t *testing.T) {
	_, router := newTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/roll", RollRequest{})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/roll", RollRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettings_GetAndUpdate(t *testing.T) {
	_, router := newTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dto SettingsDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))

	dto.MaxTasksPerDay = 15
	rec = doJSON(t, router, http.MethodPut, "/api/settings", dto)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated SettingsDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, 15, updated.MaxTasksPerDay)
}

func TestSettings_RejectsMalformedDayStartTime(t *testing.T) {
	_, router := newTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/settings", nil)
	var dto SettingsDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	dto.DayStartTime = "not-a-time"

	rec = doJSON(t, router, http.MethodPut, "/api/settings", dto)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// Every clock-time field is validated at the boundary, not just
// day_start_time.
func TestSettings_RejectsMalformedAnyClockTimeField(t *testing.T) {
	_, router := newTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/settings", nil)
	var base SettingsDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &base))

	mutate := []func(*SettingsDTO){
		func(d *SettingsDTO) { d.RollAvailableTime = "25:00" },
		func(d *SettingsDTO) { d.PenaltyTime = "nope" },
		func(d *SettingsDTO) { d.AutoRollTime = "" },
		func(d *SettingsDTO) { d.BackupTime = "3am" },
	}
	for _, m := range mutate {
		dto := base
		m(&dto)
		rec := doJSON(t, router, http.MethodPut, "/api/settings", dto)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestBackup_CreateAndList(t *testing.T) {
	_, router := newTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/backups", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/backups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out["backups"], 1)
}

func TestBackup_Download(t *testing.T) {
	_, router := newTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/backups", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id, _ := created["ID"].(string)
	require.NotEmpty(t, id)

	rec = doJSON(t, router, http.MethodGet, "/api/backups/"+id+"/download", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Body.Bytes())
}

func TestBackup_DownloadNotFoundIs404(t *testing.T) {
	_, router := newTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/backups/does-not-exist/download", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPointsProjection(t *testing.T) {
	_, router := newTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/points/projection?target_date=2099-01-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto ProjectionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	require.Equal(t, "2099-01-01", dto.TargetDate)
	require.Greater(t, dto.DaysRemaining, 0)
}

func TestPointsProjection_RequiresTargetDate(t *testing.T) {
	_, router := newTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/points/projection", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSchedulerStatus_ReturnsAllJobs(t *testing.T) {
	_, router := newTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/scheduler/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]SchedulerStatusDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Contains(t, out, "auto_penalty")
	require.Contains(t, out, "auto_roll")
	require.Contains(t, out, "auto_backup")
}
