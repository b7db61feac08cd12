package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/horario-api/internal/models"
)

// GroupScheduleRepository stores every group's blocks and unassigned lessons.
type GroupScheduleRepository struct {
	db *sqlx.DB
}

// NewGroupScheduleRepository builds the repository.
func NewGroupScheduleRepository(db *sqlx.DB) *GroupScheduleRepository {
	return &GroupScheduleRepository{db: db}
}

func (r *GroupScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListAll returns the blocks of every group ordered by group and position.
func (r *GroupScheduleRepository) ListAll(ctx context.Context) ([]models.ScheduleBlock, error) {
	const query = `SELECT id, group_key, position, day, period, subject, teacher_id, fixed, created_at
FROM schedule_blocks ORDER BY group_key ASC, position ASC`
	var blocks []models.ScheduleBlock
	if err := r.db.SelectContext(ctx, &blocks, query); err != nil {
		return nil, fmt.Errorf("list schedule blocks: %w", err)
	}
	return blocks, nil
}

// ListUnassigned returns the pending lessons of a group in stored order.
func (r *GroupScheduleRepository) ListUnassigned(ctx context.Context, groupKey string) ([]models.UnassignedLesson, error) {
	const query = `SELECT id, group_key, position, subject, teacher_id, created_at
FROM unassigned_lessons WHERE group_key = $1 ORDER BY position ASC`
	var lessons []models.UnassignedLesson
	if err := r.db.SelectContext(ctx, &lessons, query, groupKey); err != nil {
		return nil, fmt.Errorf("list unassigned lessons: %w", err)
	}
	return lessons, nil
}

// ReplaceGroup swaps a group's stored blocks and unassigned lessons for the
// provided ones. Callers pass a transaction so both lists change together.
func (r *GroupScheduleRepository) ReplaceGroup(ctx context.Context, exec sqlx.ExtContext, groupKey string, blocks []models.ScheduleBlock, unassigned []models.UnassignedLesson) error {
	target := r.exec(exec)
	if _, err := r.deleteGroup(ctx, target, groupKey); err != nil {
		return err
	}

	now := time.Now().UTC()
	const insertBlock = `INSERT INTO schedule_blocks (id, group_key, position, day, period, subject, teacher_id, fixed, created_at)
VALUES (:id, :group_key, :position, :day, :period, :subject, :teacher_id, :fixed, :created_at)`
	for i := range blocks {
		block := &blocks[i]
		if block.ID == "" {
			block.ID = uuid.NewString()
		}
		block.GroupKey = groupKey
		block.Position = i
		if block.CreatedAt.IsZero() {
			block.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, insertBlock, block); err != nil {
			return fmt.Errorf("insert schedule block: %w", err)
		}
	}

	const insertLesson = `INSERT INTO unassigned_lessons (id, group_key, position, subject, teacher_id, created_at)
VALUES (:id, :group_key, :position, :subject, :teacher_id, :created_at)`
	for i := range unassigned {
		lesson := &unassigned[i]
		if lesson.ID == "" {
			lesson.ID = uuid.NewString()
		}
		lesson.GroupKey = groupKey
		lesson.Position = i
		if lesson.CreatedAt.IsZero() {
			lesson.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, insertLesson, lesson); err != nil {
			return fmt.Errorf("insert unassigned lesson: %w", err)
		}
	}
	return nil
}

// ClearGroup removes a group's blocks and unassigned lessons and reports the
// number of removed blocks.
func (r *GroupScheduleRepository) ClearGroup(ctx context.Context, exec sqlx.ExtContext, groupKey string) (int, error) {
	return r.deleteGroup(ctx, r.exec(exec), groupKey)
}

// ClearAll empties every group.
func (r *GroupScheduleRepository) ClearAll(ctx context.Context, exec sqlx.ExtContext) (int, error) {
	target := r.exec(exec)
	res, err := target.ExecContext(ctx, `DELETE FROM schedule_blocks`)
	if err != nil {
		return 0, fmt.Errorf("clear schedule blocks: %w", err)
	}
	if _, err := target.ExecContext(ctx, `DELETE FROM unassigned_lessons`); err != nil {
		return 0, fmt.Errorf("clear unassigned lessons: %w", err)
	}
	removed, _ := res.RowsAffected()
	return int(removed), nil
}

func (r *GroupScheduleRepository) deleteGroup(ctx context.Context, target sqlx.ExtContext, groupKey string) (int, error) {
	res, err := target.ExecContext(ctx, `DELETE FROM schedule_blocks WHERE group_key = $1`, groupKey)
	if err != nil {
		return 0, fmt.Errorf("delete schedule blocks: %w", err)
	}
	if _, err := target.ExecContext(ctx, `DELETE FROM unassigned_lessons WHERE group_key = $1`, groupKey); err != nil {
		return 0, fmt.Errorf("delete unassigned lessons: %w", err)
	}
	removed, _ := res.RowsAffected()
	return int(removed), nil
}
