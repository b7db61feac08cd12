package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/timetable"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/jobs"
)

// ConflictAuditJobType tags conflict scan jobs on the queue.
const ConflictAuditJobType = "timetable.conflict_audit"

// conflictAuditKey coalesces scans: one waiting scan covers every write before it.
const conflictAuditKey = "conflict-scan"

type scheduleLister interface {
	ListAll(ctx context.Context) ([]models.ScheduleBlock, error)
}

type conflictAuditStore interface {
	Create(ctx context.Context, audit *models.ConflictAudit) error
	Latest(ctx context.Context, limit int) ([]models.ConflictAudit, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type conflictAuditPayload struct {
	Trigger  string
	GroupKey string
}

// ConflictAuditor rescans the whole timetable in the background after every
// write, stores the outcome and refreshes the cached conflict list.
type ConflictAuditor struct {
	schedules scheduleLister
	audits    conflictAuditStore
	cache     *CacheService
	metrics   *MetricsService
	grid      timetable.Grid
	logger    *zap.Logger
	cacheTTL  time.Duration

	mu    sync.RWMutex
	queue jobEnqueuer
}

// NewConflictAuditor constructs the auditor. Jobs are dropped until a queue
// is attached with UseQueue.
func NewConflictAuditor(schedules scheduleLister, audits conflictAuditStore, cache *CacheService, metrics *MetricsService, grid timetable.Grid, logger *zap.Logger, cacheTTL time.Duration) *ConflictAuditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(grid.Days) == 0 || len(grid.Periods) == 0 {
		grid = timetable.DefaultGrid()
	}
	return &ConflictAuditor{
		schedules: schedules,
		audits:    audits,
		cache:     cache,
		metrics:   metrics,
		grid:      grid,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// UseQueue attaches the queue that runs Handle.
func (a *ConflictAuditor) UseQueue(queue jobEnqueuer) {
	a.mu.Lock()
	a.queue = queue
	a.mu.Unlock()
}

// Schedule enqueues a scan. Failures are logged and never reach the caller.
func (a *ConflictAuditor) Schedule(trigger, groupKey string) {
	a.mu.RLock()
	queue := a.queue
	a.mu.RUnlock()
	if queue == nil {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    ConflictAuditJobType,
		Key:     conflictAuditKey,
		Payload: conflictAuditPayload{Trigger: trigger, GroupKey: groupKey},
	}
	if err := queue.Enqueue(job); err != nil {
		a.logger.Warn("conflict audit not scheduled", zap.String("group_key", groupKey), zap.Error(err))
	}
}

// Handle runs one scan job.
func (a *ConflictAuditor) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(conflictAuditPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}

	start := time.Now()
	generation := a.cache.Generation()
	rows, err := a.schedules.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}
	list := timetable.DetectConflicts(scheduleMapFromModels(rows)).List(a.grid)
	elapsed := time.Since(start)

	details, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode conflicts: %w", err)
	}
	audit := &models.ConflictAudit{
		Trigger:    payload.Trigger,
		GroupKey:   payload.GroupKey,
		Conflicts:  len(list),
		Details:    details,
		DurationMs: elapsed.Milliseconds(),
	}
	if err := a.audits.Create(ctx, audit); err != nil {
		return fmt.Errorf("store conflict audit: %w", err)
	}

	// a write during the scan already queued a newer one
	snapshot := dto.ConflictsResponse{Conflicts: list, Total: len(list), ScannedAt: audit.ScannedAt}
	if a.cache.SetIfCurrent(ctx, generation, conflictsCacheKey, snapshot, a.cacheTTL) {
		a.metrics.SetConflictCount(len(list))
	}

	if len(list) > 0 {
		a.logger.Warn("timetable conflicts detected",
			zap.String("trigger", payload.Trigger),
			zap.String("group_key", payload.GroupKey),
			zap.Int("conflicts", len(list)),
		)
	}
	return nil
}

// Recent lists the latest stored scans, newest first.
func (a *ConflictAuditor) Recent(ctx context.Context, limit int) ([]models.ConflictAudit, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	audits, err := a.audits.Latest(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list conflict audits")
	}
	if audits == nil {
		audits = []models.ConflictAudit{}
	}
	return audits, nil
}
