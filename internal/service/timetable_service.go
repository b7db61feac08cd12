package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/timetable"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

type levelDataStore interface {
	ListSubjectHours(ctx context.Context, levelID string) ([]models.SubjectHours, error)
	ReplaceSubjectHours(ctx context.Context, exec sqlx.ExtContext, levelID string, rows []models.SubjectHours) error
	ListDistribution(ctx context.Context, levelID string) ([]models.DistributionRow, error)
	ListFixedBlocks(ctx context.Context, levelID, group string) ([]models.FixedBlock, error)
}

type restrictionReader interface {
	ListAll(ctx context.Context) ([]models.TeacherRestriction, error)
}

type ruleReader interface {
	List(ctx context.Context) ([]models.ScheduleRule, error)
}

type groupScheduleStore interface {
	ListAll(ctx context.Context) ([]models.ScheduleBlock, error)
	ListUnassigned(ctx context.Context, groupKey string) ([]models.UnassignedLesson, error)
	ReplaceGroup(ctx context.Context, exec sqlx.ExtContext, groupKey string, blocks []models.ScheduleBlock, unassigned []models.UnassignedLesson) error
	ClearGroup(ctx context.Context, exec sqlx.ExtContext, groupKey string) (int, error)
	ClearAll(ctx context.Context, exec sqlx.ExtContext) (int, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type conflictAuditScheduler interface {
	Schedule(trigger, groupKey string)
}

// TimetableConfig tunes the engine runs of the service.
type TimetableConfig struct {
	Grid             timetable.Grid
	ShuffleSeed      int64
	ConflictCacheTTL time.Duration
}

// TimetableService loads a snapshot of the stored timetable, runs the engine
// on it and commits the changed group atomically.
type TimetableService struct {
	levels       levelDataStore
	restrictions restrictionReader
	rules        ruleReader
	schedules    groupScheduleStore
	tx           txProvider
	cache        *CacheService
	metrics      *MetricsService
	audits       conflictAuditScheduler
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          TimetableConfig
	locks        *groupLocks
	newID        func() string
}

// NewTimetableService wires the timetable use cases.
func NewTimetableService(
	levels levelDataStore,
	restrictions restrictionReader,
	rules ruleReader,
	schedules groupScheduleStore,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	audits conflictAuditScheduler,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Grid.Days) == 0 || len(cfg.Grid.Periods) == 0 {
		cfg.Grid = timetable.DefaultGrid()
	}
	if cfg.ConflictCacheTTL <= 0 {
		cfg.ConflictCacheTTL = time.Minute
	}
	return &TimetableService{
		levels:       levels,
		restrictions: restrictions,
		rules:        rules,
		schedules:    schedules,
		tx:           tx,
		cache:        cache,
		metrics:      metrics,
		audits:       audits,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
		locks:        newGroupLocks(),
	}
}

// Grid returns the configured day and period axes.
func (s *TimetableService) Grid() timetable.Grid {
	return s.cfg.Grid
}

// Generate rebuilds one group's schedule from its requirements.
func (s *TimetableService) Generate(ctx context.Context, ref dto.GroupRef, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	if err := s.validateRef(ref); err != nil {
		return nil, err
	}
	groupKey := timetable.GroupKey(ref.LevelID, ref.Group)
	// engine runs read every group's availability, so they exclude all writers
	unlock := s.locks.lockAll()
	defer unlock()

	schedules, err := s.loadSchedules(ctx)
	if err != nil {
		return nil, err
	}
	hours, err := s.levels.ListSubjectHours(ctx, ref.LevelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject hours")
	}
	distribution, err := s.levels.ListDistribution(ctx, ref.LevelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher distribution")
	}
	fixed, err := s.levels.ListFixedBlocks(ctx, ref.LevelID, ref.Group)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fixed blocks")
	}
	restrictions, rules, err := s.loadConstraints(ctx)
	if err != nil {
		return nil, err
	}

	opts := timetable.Options{Shuffle: req.Shuffle, Seed: s.cfg.ShuffleSeed, NewID: s.newID}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}

	start := time.Now()
	result, runErr := timetable.Generate(timetable.GenerateInput{
		LevelID:      ref.LevelID,
		Group:        ref.Group,
		Grid:         s.cfg.Grid,
		Hours:        subjectHoursFromModels(hours),
		Distribution: distributionFromModels(distribution),
		Fixed:        fixedBlocksFromModels(fixed),
		Restrictions: restrictions,
		Rules:        rules,
		Schedules:    schedules,
		Options:      opts,
	})
	s.metrics.ObserveEngineRun("generate", groupKey, result.Placed, len(result.Unassigned), 0, time.Since(start), runErr)
	if runErr != nil {
		s.logger.Error("timetable generation failed", zap.String("group_key", groupKey), zap.Error(runErr))
		return nil, runErr
	}

	if err := s.commitGroup(ctx, groupKey, result.Schedules[groupKey], result.Unassigned); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, "generate", groupKey)

	s.logger.Info("timetable generated",
		zap.String("group_key", groupKey),
		zap.Int("seeded", result.Seeded),
		zap.Int("placed", result.Placed),
		zap.Int("unassigned", len(result.Unassigned)),
	)

	return &dto.GenerateResponse{
		GroupScheduleResponse: s.groupView(groupKey, result.Schedules, result.Unassigned),
		Seeded:                result.Seeded,
		Placed:                result.Placed,
	}, nil
}

// Optimize retries the stored unassigned lessons of one group.
func (s *TimetableService) Optimize(ctx context.Context, ref dto.GroupRef) (*dto.OptimizeResponse, error) {
	if err := s.validateRef(ref); err != nil {
		return nil, err
	}
	groupKey := timetable.GroupKey(ref.LevelID, ref.Group)
	unlock := s.locks.lockAll()
	defer unlock()

	schedules, err := s.loadSchedules(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.schedules.ListUnassigned(ctx, groupKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unassigned lessons")
	}
	restrictions, rules, err := s.loadConstraints(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, runErr := timetable.Optimize(timetable.OptimizeInput{
		LevelID:      ref.LevelID,
		Group:        ref.Group,
		Grid:         s.cfg.Grid,
		Restrictions: restrictions,
		Rules:        rules,
		Schedules:    schedules,
		Unassigned:   lessonsFromModels(groupKey, pending),
		NewID:        s.newID,
	})
	placed := result.DirectPlaced + result.Swapped
	s.metrics.ObserveEngineRun("optimize", groupKey, placed, len(result.Unassigned), result.Swapped, time.Since(start), runErr)
	if runErr != nil {
		s.logger.Error("timetable optimization failed", zap.String("group_key", groupKey), zap.Error(runErr))
		return nil, runErr
	}

	if placed > 0 {
		if err := s.commitGroup(ctx, groupKey, result.Schedules[groupKey], result.Unassigned); err != nil {
			return nil, err
		}
		s.afterWrite(ctx, "optimize", groupKey)
	}

	s.logger.Info("timetable optimized",
		zap.String("group_key", groupKey),
		zap.Int("direct", result.DirectPlaced),
		zap.Int("swapped", result.Swapped),
		zap.Int("passes", result.Passes),
		zap.Int("unassigned", len(result.Unassigned)),
	)

	return &dto.OptimizeResponse{
		GroupScheduleResponse: s.groupView(groupKey, result.Schedules, result.Unassigned),
		DirectPlaced:          result.DirectPlaced,
		Swapped:               result.Swapped,
		Passes:                result.Passes,
	}, nil
}

// Conflicts scans every group. Results are cached until the next write; a
// scan that overlaps a write is returned but not cached.
func (s *TimetableService) Conflicts(ctx context.Context) (*dto.ConflictsResponse, error) {
	var cached dto.ConflictsResponse
	if s.cache.Get(ctx, conflictsCacheKey, &cached) {
		return &cached, nil
	}

	generation := s.cache.Generation()
	schedules, err := s.loadSchedules(ctx)
	if err != nil {
		return nil, err
	}
	list := timetable.DetectConflicts(schedules).List(s.cfg.Grid)
	resp := &dto.ConflictsResponse{Conflicts: list, Total: len(list), ScannedAt: time.Now().UTC()}
	if s.cache.SetIfCurrent(ctx, generation, conflictsCacheKey, resp, s.cfg.ConflictCacheTTL) {
		s.metrics.SetConflictCount(len(list))
	}
	return resp, nil
}

// GroupSchedule returns the stored blocks, pending lessons and conflicts of a group.
func (s *TimetableService) GroupSchedule(ctx context.Context, ref dto.GroupRef) (*dto.GroupScheduleResponse, error) {
	if err := s.validateRef(ref); err != nil {
		return nil, err
	}
	groupKey := timetable.GroupKey(ref.LevelID, ref.Group)
	schedules, err := s.loadSchedules(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.schedules.ListUnassigned(ctx, groupKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unassigned lessons")
	}
	view := s.groupView(groupKey, schedules, lessonsFromModels(groupKey, pending))
	return &view, nil
}

// TeacherSchedule lists a teacher's blocks across every group.
func (s *TimetableService) TeacherSchedule(ctx context.Context, teacherID string) (*dto.TeacherScheduleResponse, error) {
	teacherID = strings.TrimSpace(teacherID)
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	schedules, err := s.loadSchedules(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.TeacherScheduleResponse{
		TeacherID: teacherID,
		Blocks:    timetable.TeacherTimetable(schedules, s.cfg.Grid, teacherID),
	}, nil
}

// MoveBlock relocates a non-fixed block to an empty cell of its group.
func (s *TimetableService) MoveBlock(ctx context.Context, ref dto.GroupRef, blockID string, req dto.MoveBlockRequest) (*dto.GroupScheduleResponse, error) {
	if err := s.validateRef(ref); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	groupKey := timetable.GroupKey(ref.LevelID, ref.Group)
	unlock := s.locks.lock(groupKey)
	defer unlock()

	schedules, err := s.loadSchedules(ctx)
	if err != nil {
		return nil, err
	}
	moved, err := timetable.MoveBlock(schedules, s.cfg.Grid, groupKey, blockID, timetable.Slot{Day: req.Day, Period: req.Period})
	if err != nil {
		return nil, err
	}
	pendingRows, err := s.schedules.ListUnassigned(ctx, groupKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unassigned lessons")
	}
	pending := lessonsFromModels(groupKey, pendingRows)
	if err := s.commitGroup(ctx, groupKey, moved[groupKey], pending); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, "move", groupKey)

	view := s.groupView(groupKey, moved, pending)
	return &view, nil
}

// ClearGroup removes every block and pending lesson of one group.
func (s *TimetableService) ClearGroup(ctx context.Context, ref dto.GroupRef) (*dto.ClearResponse, error) {
	if err := s.validateRef(ref); err != nil {
		return nil, err
	}
	groupKey := timetable.GroupKey(ref.LevelID, ref.Group)
	unlock := s.locks.lock(groupKey)
	defer unlock()

	var removed int
	err := s.withTx(ctx, func(exec sqlx.ExtContext) error {
		var clearErr error
		removed, clearErr = s.schedules.ClearGroup(ctx, exec, groupKey)
		return clearErr
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear group schedule")
	}
	s.afterWrite(ctx, "clear", groupKey)
	s.logger.Info("group schedule cleared", zap.String("group_key", groupKey), zap.Int("removed", removed))
	return &dto.ClearResponse{Removed: removed}, nil
}

// ClearAll empties the whole timetable.
func (s *TimetableService) ClearAll(ctx context.Context) (*dto.ClearResponse, error) {
	unlock := s.locks.lockAll()
	defer unlock()

	var removed int
	err := s.withTx(ctx, func(exec sqlx.ExtContext) error {
		var clearErr error
		removed, clearErr = s.schedules.ClearAll(ctx, exec)
		return clearErr
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear timetable")
	}
	s.cache.Invalidate(ctx, cachePrefix+"*")
	s.metrics.SetConflictCount(0)
	s.logger.Info("timetable cleared", zap.Int("removed", removed))
	return &dto.ClearResponse{Removed: removed}, nil
}

// CleanSubjectHours normalizes the subject names of a level's hour table and
// drops case-insensitive duplicates.
func (s *TimetableService) CleanSubjectHours(ctx context.Context, levelID string) (*dto.CleanSubjectHoursResponse, error) {
	levelID = strings.TrimSpace(levelID)
	if levelID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "level id is required")
	}
	unlock := s.locks.lockAll()
	defer unlock()

	rows, err := s.levels.ListSubjectHours(ctx, levelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject hours")
	}
	cleaned, report := timetable.CleanSubjectHours(subjectHoursFromModels(rows))
	if report.Renamed > 0 || report.Duplicates > 0 {
		err = s.withTx(ctx, func(exec sqlx.ExtContext) error {
			return s.levels.ReplaceSubjectHours(ctx, exec, levelID, subjectHoursToModels(cleaned))
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store subject hours")
		}
	}
	s.logger.Info("subject hours cleaned",
		zap.String("level_id", levelID),
		zap.Int("renamed", report.Renamed),
		zap.Int("duplicates", report.Duplicates),
	)
	return &dto.CleanSubjectHoursResponse{LevelID: levelID, Rows: cleaned, Report: report}, nil
}

func (s *TimetableService) validateRef(ref dto.GroupRef) error {
	if err := s.validator.Struct(ref); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid level or group")
	}
	return nil
}

func (s *TimetableService) loadSchedules(ctx context.Context) (timetable.ScheduleMap, error) {
	start := time.Now()
	rows, err := s.schedules.ListAll(ctx)
	s.metrics.ObserveDBQuery("schedule_blocks_list_all", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	return scheduleMapFromModels(rows), nil
}

func (s *TimetableService) loadConstraints(ctx context.Context) (timetable.Restrictions, timetable.Rules, error) {
	restrictionRows, err := s.restrictions.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher restrictions")
	}
	ruleRows, err := s.rules.List(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule rules")
	}
	return restrictionsFromModels(restrictionRows, s.logger), rulesFromModels(ruleRows), nil
}

func (s *TimetableService) commitGroup(ctx context.Context, groupKey string, blocks []timetable.Block, pending []timetable.Lesson) error {
	err := s.withTx(ctx, func(exec sqlx.ExtContext) error {
		return s.schedules.ReplaceGroup(ctx, exec, groupKey, blocksToModels(blocks), lessonsToModels(pending))
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store group schedule")
	}
	return nil
}

// withTx runs fn inside a transaction when a provider is configured.
func (s *TimetableService) withTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) (err error) {
	if s.tx == nil {
		return fn(nil)
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *TimetableService) afterWrite(ctx context.Context, trigger, groupKey string) {
	s.cache.Invalidate(ctx, conflictsCacheKey)
	if s.audits != nil {
		s.audits.Schedule(trigger, groupKey)
	}
}

func (s *TimetableService) groupView(groupKey string, schedules timetable.ScheduleMap, pending []timetable.Lesson) dto.GroupScheduleResponse {
	blocks := schedules[groupKey]
	if blocks == nil {
		blocks = []timetable.Block{}
	}
	if pending == nil {
		pending = []timetable.Lesson{}
	}
	return dto.GroupScheduleResponse{
		GroupKey:   groupKey,
		Blocks:     blocks,
		Unassigned: pending,
		Conflicts:  conflictsForGroup(timetable.DetectConflicts(schedules), s.cfg.Grid, groupKey),
	}
}
