package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/timetable"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/jobs"
)

type auditStoreStub struct {
	created []*models.ConflictAudit
	err     error
}

func (s *auditStoreStub) Create(ctx context.Context, audit *models.ConflictAudit) error {
	if audit.ScannedAt.IsZero() {
		audit.ScannedAt = time.Now().UTC()
	}
	s.created = append(s.created, audit)
	return nil
}

func (s *auditStoreStub) Latest(ctx context.Context, limit int) ([]models.ConflictAudit, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.ConflictAudit
	for i := len(s.created) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *s.created[i])
	}
	return out, nil
}

type enqueueRecorder struct {
	jobs []jobs.Job
	err  error
}

func (e *enqueueRecorder) Enqueue(job jobs.Job) error {
	if e.err != nil {
		return e.err
	}
	e.jobs = append(e.jobs, job)
	return nil
}

func TestConflictAuditorScheduleEnqueuesJob(t *testing.T) {
	auditor := NewConflictAuditor(newMemoryScheduleStore(), &auditStoreStub{}, nil, nil, timetable.DefaultGrid(), nil, time.Minute)
	auditor.Schedule("generate", "grado-1_A")

	queue := &enqueueRecorder{}
	auditor.UseQueue(queue)
	auditor.Schedule("generate", "grado-1_A")

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, ConflictAuditJobType, queue.jobs[0].Type)
	assert.Equal(t, conflictAuditKey, queue.jobs[0].Key)
	assert.NotEmpty(t, queue.jobs[0].ID)
	assert.Equal(t, conflictAuditPayload{Trigger: "generate", GroupKey: "grado-1_A"}, queue.jobs[0].Payload)

	auditor.UseQueue(&enqueueRecorder{err: errors.New("queue full")})
	assert.NotPanics(t, func() { auditor.Schedule("move", "grado-1_A") })
}

func TestConflictAuditorHandleStoresScan(t *testing.T) {
	store := newMemoryScheduleStore(
		models.ScheduleBlock{ID: "a1", GroupKey: "grado-1_A", Day: "Lunes", Period: "07:00-07:50", Subject: "Matemáticas", TeacherID: "T1"},
		models.ScheduleBlock{ID: "b1", GroupKey: "grado-1_B", Day: "Lunes", Period: "07:00-07:50", Subject: "Matemáticas", TeacherID: "T1"},
	)
	audits := &auditStoreStub{}
	cacheRepo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	auditor := NewConflictAuditor(store, audits, NewCacheService(cacheRepo, metrics, time.Minute, nil, true), metrics, timetable.DefaultGrid(), nil, time.Minute)

	err := auditor.Handle(context.Background(), jobs.Job{ID: "job-1", Type: ConflictAuditJobType, Payload: conflictAuditPayload{Trigger: "move", GroupKey: "grado-1_B"}})
	require.NoError(t, err)

	require.Len(t, audits.created, 1)
	audit := audits.created[0]
	assert.Equal(t, "move", audit.Trigger)
	assert.Equal(t, "grado-1_B", audit.GroupKey)
	assert.Equal(t, 2, audit.Conflicts)

	var details []timetable.Conflict
	require.NoError(t, json.Unmarshal(audit.Details, &details))
	require.Len(t, details, 2)
	assert.Equal(t, "grado-1_A", details[0].GroupKey)

	assert.EqualValues(t, 2, metrics.Snapshot().LastConflictCount)

	var cached dto.ConflictsResponse
	require.NoError(t, cacheRepo.Get(context.Background(), conflictsCacheKey, &cached))
	assert.Equal(t, 2, cached.Total)
}

func TestConflictAuditorHandleKeepsNewerCache(t *testing.T) {
	store := newMemoryScheduleStore(
		models.ScheduleBlock{ID: "a1", GroupKey: "grado-1_A", Day: "Lunes", Period: "07:00-07:50", Subject: "Matemáticas", TeacherID: "T1"},
		models.ScheduleBlock{ID: "b1", GroupKey: "grado-1_B", Day: "Lunes", Period: "07:00-07:50", Subject: "Matemáticas", TeacherID: "T1"},
	)
	audits := &auditStoreStub{}
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	auditor := NewConflictAuditor(store, audits, cache, nil, timetable.DefaultGrid(), nil, time.Minute)
	store.onList = func() { cache.Invalidate(context.Background(), conflictsCacheKey) }

	err := auditor.Handle(context.Background(), jobs.Job{ID: "job-1", Type: ConflictAuditJobType, Payload: conflictAuditPayload{Trigger: "generate", GroupKey: "grado-1_A"}})
	require.NoError(t, err)
	require.Len(t, audits.created, 1)
	assert.Equal(t, 2, audits.created[0].Conflicts)
	assert.NotContains(t, cacheRepo.values, conflictsCacheKey)
}

func TestConflictAuditorHandleRejectsForeignPayload(t *testing.T) {
	auditor := NewConflictAuditor(newMemoryScheduleStore(), &auditStoreStub{}, nil, nil, timetable.DefaultGrid(), nil, time.Minute)
	err := auditor.Handle(context.Background(), jobs.Job{ID: "job-1", Payload: "nope"})
	require.Error(t, err)
}

func TestConflictAuditorRecent(t *testing.T) {
	audits := &auditStoreStub{}
	auditor := NewConflictAuditor(newMemoryScheduleStore(), audits, nil, nil, timetable.DefaultGrid(), nil, time.Minute)

	empty, err := auditor.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, trigger := range []string{"generate", "move", "clear"} {
		require.NoError(t, audits.Create(context.Background(), &models.ConflictAudit{Trigger: trigger}))
	}
	recent, err := auditor.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "clear", recent[0].Trigger)
	assert.Equal(t, "move", recent[1].Trigger)

	audits.err = errors.New("db down")
	_, err = auditor.Recent(context.Background(), 5)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}
