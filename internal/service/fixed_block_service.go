package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/timetable"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

type fixedBlockStore interface {
	ListFixedBlocks(ctx context.Context, levelID, group string) ([]models.FixedBlock, error)
	GetFixedBlock(ctx context.Context, id string) (*models.FixedBlock, error)
	ListLockedFixedBlocksAt(ctx context.Context, day, period string) ([]models.FixedBlock, error)
	CreateFixedBlock(ctx context.Context, block *models.FixedBlock) error
	UpdateFixedBlock(ctx context.Context, block *models.FixedBlock) error
	DeleteFixedBlock(ctx context.Context, id string) error
}

// FixedBlockService manages the lessons pinned to a group's cells before
// generation. A locked block must sit on a grid cell no other locked block of
// the group holds, and its teacher may not be locked anywhere else at that
// cell. Changes apply to the next generator run.
type FixedBlockService struct {
	repo      fixedBlockStore
	grid      timetable.Grid
	validator *validator.Validate
	logger    *zap.Logger

	// checks and writes run under mu so two requests cannot both pass
	mu sync.Mutex
}

// NewFixedBlockService builds the service.
func NewFixedBlockService(repo fixedBlockStore, grid timetable.Grid, validate *validator.Validate, logger *zap.Logger) *FixedBlockService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(grid.Days) == 0 || len(grid.Periods) == 0 {
		grid = timetable.DefaultGrid()
	}
	return &FixedBlockService{repo: repo, grid: grid, validator: validate, logger: logger}
}

// List returns a group's pinned blocks.
func (s *FixedBlockService) List(ctx context.Context, ref dto.GroupRef) ([]models.FixedBlock, error) {
	if err := s.validateRef(ref); err != nil {
		return nil, err
	}
	blocks, err := s.repo.ListFixedBlocks(ctx, ref.LevelID, ref.Group)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fixed blocks")
	}
	if blocks == nil {
		blocks = []models.FixedBlock{}
	}
	return blocks, nil
}

// Create pins a new block to the group.
func (s *FixedBlockService) Create(ctx context.Context, ref dto.GroupRef, req dto.FixedBlockRequest) (*models.FixedBlock, error) {
	if err := s.validateRef(ref); err != nil {
		return nil, err
	}
	block, err := s.blockFromRequest(req)
	if err != nil {
		return nil, err
	}
	block.LevelID, block.Group = ref.LevelID, ref.Group

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkClashes(ctx, block); err != nil {
		return nil, err
	}
	if err := s.repo.CreateFixedBlock(ctx, block); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store fixed block")
	}
	s.logger.Info("fixed block created",
		zap.String("id", block.ID),
		zap.String("group_key", timetable.GroupKey(ref.LevelID, ref.Group)),
		zap.String("cell", block.Day+"_"+block.Period),
	)
	return block, nil
}

// Update replaces the cell, lesson and lock flag of one of the group's blocks.
func (s *FixedBlockService) Update(ctx context.Context, ref dto.GroupRef, id string, req dto.FixedBlockRequest) (*models.FixedBlock, error) {
	if err := s.validateRef(ref); err != nil {
		return nil, err
	}
	next, err := s.blockFromRequest(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.owned(ctx, ref, id)
	if err != nil {
		return nil, err
	}
	next.ID, next.LevelID, next.Group, next.CreatedAt = existing.ID, existing.LevelID, existing.Group, existing.CreatedAt

	if err := s.checkClashes(ctx, next); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateFixedBlock(ctx, next); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fixed block not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fixed block")
	}
	s.logger.Info("fixed block updated", zap.String("id", next.ID), zap.Bool("locked", next.Locked))
	return next, nil
}

// Delete removes one of the group's blocks.
func (s *FixedBlockService) Delete(ctx context.Context, ref dto.GroupRef, id string) error {
	if err := s.validateRef(ref); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.owned(ctx, ref, id); err != nil {
		return err
	}
	if err := s.repo.DeleteFixedBlock(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "fixed block not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fixed block")
	}
	s.logger.Info("fixed block deleted", zap.String("id", id))
	return nil
}

func (s *FixedBlockService) validateRef(ref dto.GroupRef) error {
	if err := s.validator.Struct(ref); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid level or group")
	}
	return nil
}

func (s *FixedBlockService) blockFromRequest(req dto.FixedBlockRequest) (*models.FixedBlock, error) {
	req.Day = strings.TrimSpace(req.Day)
	req.Period = strings.TrimSpace(req.Period)
	req.Subject = strings.TrimSpace(req.Subject)
	req.TeacherID = strings.TrimSpace(req.TeacherID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fixed block payload")
	}
	slot := timetable.Slot{Day: req.Day, Period: req.Period}
	if !s.grid.Contains(slot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cell %q is not part of the grid", slot.Key()))
	}
	locked := true
	if req.Locked != nil {
		locked = *req.Locked
	}
	return &models.FixedBlock{
		Day:       req.Day,
		Period:    req.Period,
		Subject:   req.Subject,
		TeacherID: req.TeacherID,
		Locked:    locked,
	}, nil
}

// owned loads a block and hides blocks of other groups behind NOT_FOUND.
func (s *FixedBlockService) owned(ctx context.Context, ref dto.GroupRef, id string) (*models.FixedBlock, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fixed block id is required")
	}
	block, err := s.repo.GetFixedBlock(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fixed block not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fixed block")
	}
	if block.LevelID != ref.LevelID || block.Group != ref.Group {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "fixed block not found")
	}
	return block, nil
}

// checkClashes rejects a locked block whose cell or teacher is already taken
// by another locked block. Unlocked blocks are never seeded, so they pass.
func (s *FixedBlockService) checkClashes(ctx context.Context, block *models.FixedBlock) error {
	if !block.Locked {
		return nil
	}
	others, err := s.repo.ListLockedFixedBlocksAt(ctx, block.Day, block.Period)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check fixed blocks")
	}
	others = lo.Filter(others, func(other models.FixedBlock, _ int) bool { return other.ID != block.ID })

	if lo.ContainsBy(others, func(other models.FixedBlock) bool {
		return other.LevelID == block.LevelID && other.Group == block.Group
	}) {
		return appErrors.Clone(appErrors.ErrCellOccupied, fmt.Sprintf("cell %s_%s already holds a locked block", block.Day, block.Period))
	}
	if clash, ok := lo.Find(others, func(other models.FixedBlock) bool { return other.TeacherID == block.TeacherID }); ok {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("teacher %s already has a locked block at %s_%s in %s",
			block.TeacherID, block.Day, block.Period, timetable.GroupKey(clash.LevelID, clash.Group)))
	}
	return nil
}
