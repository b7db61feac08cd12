package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/timetable"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

type teacherRestrictionRepo interface {
	GetByTeacher(ctx context.Context, teacherID string) (*models.TeacherRestriction, error)
	Upsert(ctx context.Context, item *models.TeacherRestriction) error
}

// TeacherRestrictionService manages the cells a teacher cannot be placed in.
// Changes apply to the next engine run; stored timetables are left as they are.
type TeacherRestrictionService struct {
	repo      teacherRestrictionRepo
	grid      timetable.Grid
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherRestrictionService builds the service.
func NewTeacherRestrictionService(repo teacherRestrictionRepo, grid timetable.Grid, validate *validator.Validate, logger *zap.Logger) *TeacherRestrictionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(grid.Days) == 0 || len(grid.Periods) == 0 {
		grid = timetable.DefaultGrid()
	}
	return &TeacherRestrictionService{repo: repo, grid: grid, validator: validate, logger: logger}
}

// Get returns a teacher's restriction. A teacher without a stored row has none.
func (s *TeacherRestrictionService) Get(ctx context.Context, teacherID string) (*dto.RestrictionResponse, error) {
	teacherID = strings.TrimSpace(teacherID)
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}

	item, err := s.repo.GetByTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.RestrictionResponse{TeacherID: teacherID, Unavailable: []string{}}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher restriction")
	}
	return restrictionResponse(item)
}

// Upsert replaces a teacher's unavailable cells. Keys must name cells of the grid.
func (s *TeacherRestrictionService) Upsert(ctx context.Context, teacherID string, req dto.UpsertRestrictionRequest) (*dto.RestrictionResponse, error) {
	teacherID = strings.TrimSpace(teacherID)
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid restriction payload")
	}

	keys := lo.Uniq(lo.Map(req.Unavailable, func(key string, _ int) string { return strings.TrimSpace(key) }))
	for _, key := range keys {
		slot, ok := timetable.ParseSlotKey(key)
		if !ok || !s.grid.Contains(slot) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cell %q is not part of the grid", key))
		}
	}

	raw, err := json.Marshal(keys)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unavailable payload")
	}
	payload := &models.TeacherRestriction{TeacherID: teacherID, Unavailable: types.JSONText(raw)}

	existing, err := s.repo.GetByTeacher(ctx, teacherID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher restriction")
	}
	if existing != nil {
		payload.ID = existing.ID
		payload.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.Upsert(ctx, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store teacher restriction")
	}
	s.logger.Info("teacher restriction updated", zap.String("teacher_id", teacherID), zap.Int("cells", len(keys)))
	return restrictionResponse(payload)
}

func restrictionResponse(item *models.TeacherRestriction) (*dto.RestrictionResponse, error) {
	keys := []string{}
	if len(item.Unavailable) > 0 {
		if err := json.Unmarshal(item.Unavailable, &keys); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored restriction is malformed")
		}
	}
	resp := &dto.RestrictionResponse{TeacherID: item.TeacherID, Unavailable: keys}
	if !item.UpdatedAt.IsZero() {
		updated := item.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp, nil
}
