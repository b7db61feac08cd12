package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/horario-api/internal/models"
)

// LevelDataRepository reads and writes the per-level planning tables: base
// hours, the teacher distribution and the pinned blocks.
type LevelDataRepository struct {
	db *sqlx.DB
}

// NewLevelDataRepository constructs the repository.
func NewLevelDataRepository(db *sqlx.DB) *LevelDataRepository {
	return &LevelDataRepository{db: db}
}

// ListSubjectHours returns a level's base hour table in sheet order.
func (r *LevelDataRepository) ListSubjectHours(ctx context.Context, levelID string) ([]models.SubjectHours, error) {
	const query = `SELECT id, level_id, position, subject, hours, updated_at FROM subject_hours WHERE level_id = $1 ORDER BY position ASC`
	var rows []models.SubjectHours
	if err := r.db.SelectContext(ctx, &rows, query, levelID); err != nil {
		return nil, fmt.Errorf("list subject hours: %w", err)
	}
	return rows, nil
}

// ReplaceSubjectHours rewrites a level's base hour table.
func (r *LevelDataRepository) ReplaceSubjectHours(ctx context.Context, exec sqlx.ExtContext, levelID string, rows []models.SubjectHours) error {
	target := exec
	if target == nil {
		target = r.db
	}
	if _, err := target.ExecContext(ctx, `DELETE FROM subject_hours WHERE level_id = $1`, levelID); err != nil {
		return fmt.Errorf("delete subject hours: %w", err)
	}
	now := time.Now().UTC()
	const query = `INSERT INTO subject_hours (id, level_id, position, subject, hours, updated_at)
VALUES (:id, :level_id, :position, :subject, :hours, :updated_at)`
	for i := range rows {
		row := &rows[i]
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		row.LevelID = levelID
		row.Position = i
		row.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, row); err != nil {
			return fmt.Errorf("insert subject hours: %w", err)
		}
	}
	return nil
}

// ListDistribution returns a level's teacher distribution in sheet order.
func (r *LevelDataRepository) ListDistribution(ctx context.Context, levelID string) ([]models.DistributionRow, error) {
	const query = `SELECT id, level_id, position, subject, hours, teacher_a, teacher_b, teacher_c, teacher_d, teacher_e, teacher_f, updated_at
FROM distribution_rows WHERE level_id = $1 ORDER BY position ASC`
	var rows []models.DistributionRow
	if err := r.db.SelectContext(ctx, &rows, query, levelID); err != nil {
		return nil, fmt.Errorf("list distribution: %w", err)
	}
	return rows, nil
}

// ListFixedBlocks returns the pinned blocks configured for one group.
func (r *LevelDataRepository) ListFixedBlocks(ctx context.Context, levelID, group string) ([]models.FixedBlock, error) {
	const query = `SELECT id, level_id, group_label, day, period, subject, teacher_id, locked, created_at
FROM fixed_blocks WHERE level_id = $1 AND group_label = $2 ORDER BY created_at ASC`
	var blocks []models.FixedBlock
	if err := r.db.SelectContext(ctx, &blocks, query, levelID, group); err != nil {
		return nil, fmt.Errorf("list fixed blocks: %w", err)
	}
	return blocks, nil
}

// GetFixedBlock returns one pinned block. An unknown id yields sql.ErrNoRows.
func (r *LevelDataRepository) GetFixedBlock(ctx context.Context, id string) (*models.FixedBlock, error) {
	const query = `SELECT id, level_id, group_label, day, period, subject, teacher_id, locked, created_at
FROM fixed_blocks WHERE id = $1`
	var block models.FixedBlock
	if err := r.db.GetContext(ctx, &block, query, id); err != nil {
		return nil, err
	}
	return &block, nil
}

// ListLockedFixedBlocksAt returns the locked blocks of every level and group
// pinned to one cell.
func (r *LevelDataRepository) ListLockedFixedBlocksAt(ctx context.Context, day, period string) ([]models.FixedBlock, error) {
	const query = `SELECT id, level_id, group_label, day, period, subject, teacher_id, locked, created_at
FROM fixed_blocks WHERE day = $1 AND period = $2 AND locked = TRUE ORDER BY created_at ASC`
	var blocks []models.FixedBlock
	if err := r.db.SelectContext(ctx, &blocks, query, day, period); err != nil {
		return nil, fmt.Errorf("list locked fixed blocks: %w", err)
	}
	return blocks, nil
}

// CreateFixedBlock stores a new pinned block.
func (r *LevelDataRepository) CreateFixedBlock(ctx context.Context, block *models.FixedBlock) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	if block.CreatedAt.IsZero() {
		block.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO fixed_blocks (id, level_id, group_label, day, period, subject, teacher_id, locked, created_at)
VALUES (:id, :level_id, :group_label, :day, :period, :subject, :teacher_id, :locked, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, block); err != nil {
		return fmt.Errorf("create fixed block: %w", err)
	}
	return nil
}

// UpdateFixedBlock rewrites the cell, lesson and lock flag of a pinned block.
func (r *LevelDataRepository) UpdateFixedBlock(ctx context.Context, block *models.FixedBlock) error {
	const query = `UPDATE fixed_blocks SET day = :day, period = :period, subject = :subject, teacher_id = :teacher_id, locked = :locked
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, block)
	if err != nil {
		return fmt.Errorf("update fixed block: %w", err)
	}
	return requireAffected(res, "update fixed block")
}

// DeleteFixedBlock removes a pinned block.
func (r *LevelDataRepository) DeleteFixedBlock(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fixed_blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete fixed block: %w", err)
	}
	return requireAffected(res, "delete fixed block")
}

func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, sql.ErrNoRows)
	}
	return nil
}
