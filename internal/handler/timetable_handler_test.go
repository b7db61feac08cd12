package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/dto"
	internalmiddleware "github.com/noah-isme/horario-api/internal/middleware"
	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/service"
	"github.com/noah-isme/horario-api/internal/timetable"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/jobs"
)

type timetableServiceMock struct {
	ref       dto.GroupRef
	generate  dto.GenerateRequest
	move      dto.MoveBlockRequest
	blockID   string
	teacherID string
	levelID   string
	err       error
}

func (m *timetableServiceMock) view() dto.GroupScheduleResponse {
	return dto.GroupScheduleResponse{
		GroupKey:   timetable.GroupKey(m.ref.LevelID, m.ref.Group),
		Blocks:     []timetable.Block{{ID: "b1", Subject: "Arte", TeacherID: "T1", Day: "Lunes", Period: "07:00-07:50"}},
		Unassigned: []timetable.Lesson{},
		Conflicts:  []timetable.Conflict{},
	}
}

func (m *timetableServiceMock) Generate(ctx context.Context, ref dto.GroupRef, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	m.ref, m.generate = ref, req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.GenerateResponse{GroupScheduleResponse: m.view(), Placed: 1}, nil
}

func (m *timetableServiceMock) Optimize(ctx context.Context, ref dto.GroupRef) (*dto.OptimizeResponse, error) {
	m.ref = ref
	if m.err != nil {
		return nil, m.err
	}
	return &dto.OptimizeResponse{GroupScheduleResponse: m.view(), DirectPlaced: 1, Passes: 1}, nil
}

func (m *timetableServiceMock) Conflicts(ctx context.Context) (*dto.ConflictsResponse, error) {
	return &dto.ConflictsResponse{Conflicts: []timetable.Conflict{}, Total: 0}, m.err
}

func (m *timetableServiceMock) GroupSchedule(ctx context.Context, ref dto.GroupRef) (*dto.GroupScheduleResponse, error) {
	m.ref = ref
	v := m.view()
	return &v, m.err
}

func (m *timetableServiceMock) TeacherSchedule(ctx context.Context, teacherID string) (*dto.TeacherScheduleResponse, error) {
	m.teacherID = teacherID
	return &dto.TeacherScheduleResponse{TeacherID: teacherID, Blocks: []timetable.TeacherBlock{}}, m.err
}

func (m *timetableServiceMock) MoveBlock(ctx context.Context, ref dto.GroupRef, blockID string, req dto.MoveBlockRequest) (*dto.GroupScheduleResponse, error) {
	m.ref, m.blockID, m.move = ref, blockID, req
	if m.err != nil {
		return nil, m.err
	}
	v := m.view()
	return &v, nil
}

func (m *timetableServiceMock) ClearGroup(ctx context.Context, ref dto.GroupRef) (*dto.ClearResponse, error) {
	m.ref = ref
	return &dto.ClearResponse{Removed: 3}, m.err
}

func (m *timetableServiceMock) ClearAll(ctx context.Context) (*dto.ClearResponse, error) {
	return &dto.ClearResponse{Removed: 30}, m.err
}

func (m *timetableServiceMock) CleanSubjectHours(ctx context.Context, levelID string) (*dto.CleanSubjectHoursResponse, error) {
	m.levelID = levelID
	return &dto.CleanSubjectHoursResponse{LevelID: levelID, Rows: []timetable.SubjectHours{}}, m.err
}

type exporterMock struct {
	query dto.ExportQuery
	err   error
}

func (e *exporterMock) Export(ctx context.Context, ref dto.GroupRef, query dto.ExportQuery) (*service.ExportFile, error) {
	e.query = query
	if e.err != nil {
		return nil, e.err
	}
	return &service.ExportFile{Filename: "horario_" + timetable.GroupKey(ref.LevelID, ref.Group) + ".csv", ContentType: "text/csv", Payload: []byte("Hora\n")}, nil
}

func newTimetableRouter(svc *timetableServiceMock, exp *exporterMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &TimetableHandler{service: svc, exporter: exp, logger: zap.NewNop()}
	r := gin.New()
	g := r.Group("/timetable")
	g.POST("/levels/:levelId/groups/:group/generate", h.Generate)
	g.POST("/levels/:levelId/groups/:group/optimize", h.Optimize)
	g.GET("/levels/:levelId/groups/:group", h.GroupSchedule)
	g.DELETE("/levels/:levelId/groups/:group", h.ClearGroup)
	g.PATCH("/levels/:levelId/groups/:group/blocks/:blockId", h.MoveBlock)
	g.GET("/levels/:levelId/groups/:group/export", h.Export)
	g.POST("/levels/:levelId/subject-hours/clean", h.CleanSubjectHours)
	g.GET("/teachers/:teacherId", h.TeacherSchedule)
	g.GET("/conflicts", h.Conflicts)
	g.DELETE("/schedules", h.ClearAll)
	return r
}

func serveJSON(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTimetableHandlerGenerate(t *testing.T) {
	svc := &timetableServiceMock{}
	r := newTimetableRouter(svc, &exporterMock{})

	w := serveJSON(r, http.MethodPost, "/timetable/levels/grado-1/groups/A/generate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.GroupRef{LevelID: "grado-1", Group: "A"}, svc.ref)
	assert.False(t, svc.generate.Shuffle)

	var body struct {
		Data dto.GenerateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "grado-1_A", body.Data.GroupKey)
	assert.Equal(t, 1, body.Data.Placed)
	require.Len(t, body.Data.Blocks, 1)
	assert.Equal(t, "Lunes", body.Data.Blocks[0].Day)

	w = serveJSON(r, http.MethodPost, "/timetable/levels/grado-1/groups/B/generate", []byte(`{"shuffle":true,"seed":7}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.generate.Shuffle)
	require.NotNil(t, svc.generate.Seed)
	assert.EqualValues(t, 7, *svc.generate.Seed)

	w = serveJSON(r, http.MethodPost, "/timetable/levels/grado-1/groups/B/generate", []byte(`{"shuffle":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerPropagatesServiceErrors(t *testing.T) {
	svc := &timetableServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "invalid level or group")}
	r := newTimetableRouter(svc, &exporterMock{})

	w := serveJSON(r, http.MethodPost, "/timetable/levels/grado-1/groups/Z/optimize", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")

	svc.err = errors.New("db down")
	w = serveJSON(r, http.MethodGet, "/timetable/conflicts", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTimetableHandlerMoveBlock(t *testing.T) {
	svc := &timetableServiceMock{}
	r := newTimetableRouter(svc, &exporterMock{})

	w := serveJSON(r, http.MethodPatch, "/timetable/levels/grado-1/groups/A/blocks/b1", []byte(`{"dia":"Martes","hora":"07:50-08:40"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "b1", svc.blockID)
	assert.Equal(t, dto.MoveBlockRequest{Day: "Martes", Period: "07:50-08:40"}, svc.move)

	svc.err = appErrors.ErrFixedBlock
	w = serveJSON(r, http.MethodPatch, "/timetable/levels/grado-1/groups/A/blocks/b1", []byte(`{"dia":"Martes","hora":"07:50-08:40"}`))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "FIXED_BLOCK")

	w = serveJSON(r, http.MethodPatch, "/timetable/levels/grado-1/groups/A/blocks/b1", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerReadsAndClears(t *testing.T) {
	svc := &timetableServiceMock{}
	r := newTimetableRouter(svc, &exporterMock{})

	w := serveJSON(r, http.MethodGet, "/timetable/levels/grado-2/groups/C", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"grupoKey":"grado-2_C"`)

	w = serveJSON(r, http.MethodGet, "/timetable/teachers/T1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "T1", svc.teacherID)

	w = serveJSON(r, http.MethodPost, "/timetable/levels/grado-2/subject-hours/clean", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "grado-2", svc.levelID)

	w = serveJSON(r, http.MethodDelete, "/timetable/levels/grado-2/groups/C", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"eliminados":3`)

	w = serveJSON(r, http.MethodDelete, "/timetable/schedules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"eliminados":30`)
}

func TestTimetableHandlerExport(t *testing.T) {
	exp := &exporterMock{}
	r := newTimetableRouter(&timetableServiceMock{}, exp)

	w := serveJSON(r, http.MethodGet, "/timetable/levels/grado-1/groups/A/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exp.query.Format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="horario_grado-1_A.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Hora\n", w.Body.String())

	exp.err = appErrors.ErrUnsupportedFormat
	w = serveJSON(r, http.MethodGet, "/timetable/levels/grado-1/groups/A/export?format=xlsx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UNSUPPORTED_FORMAT")
}

func TestTimetableHandlerRequiresWriteRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &timetableServiceMock{}
	h := &TimetableHandler{service: svc, exporter: &exporterMock{}, logger: zap.NewNop()}

	for role, want := range map[models.UserRole]int{
		models.RoleTeacher:     http.StatusForbidden,
		models.RoleCoordinator: http.StatusOK,
	} {
		r := gin.New()
		r.POST("/generate/:levelId/:group", func(c *gin.Context) {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: role})
			c.Next()
		}, internalmiddleware.RequireRoles(internalmiddleware.WriteRoles...), h.Generate)

		w := serveJSON(r, http.MethodPost, "/generate/grado-1/A", nil)
		assert.Equal(t, want, w.Code, string(role))
	}
}

func TestMetricsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	metrics.ObserveEngineRun("generate", "grado-1_A", 4, 1, 0, 0, nil)
	queue := jobs.NewQueue("conflict-audit", func(ctx context.Context, job jobs.Job) error { return nil }, jobs.QueueConfig{})

	h := NewMetricsHandler(metrics, queue, map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return nil },
	})
	r := gin.New()
	r.GET("/metrics", h.Prometheus)
	r.GET("/metrics/summary", h.Summary)
	r.GET("/ready", h.Ready)

	w := serveJSON(r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "timetable_lessons_placed_total")

	w = serveJSON(r, http.MethodGet, "/metrics/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"lessons_placed":4`)
	assert.Contains(t, w.Body.String(), `"conflictAudits"`)

	w = serveJSON(r, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	failing := NewMetricsHandler(metrics, nil, map[string]ReadinessCheck{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	r2 := gin.New()
	r2.GET("/ready", failing.Ready)
	w = serveJSON(r2, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
