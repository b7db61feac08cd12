package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/horario-api/internal/models"
)

// TeacherRestrictionRepository persists the cells each teacher cannot teach.
type TeacherRestrictionRepository struct {
	db *sqlx.DB
}

// NewTeacherRestrictionRepository constructs the repository.
func NewTeacherRestrictionRepository(db *sqlx.DB) *TeacherRestrictionRepository {
	return &TeacherRestrictionRepository{db: db}
}

// ListAll returns every stored restriction.
func (r *TeacherRestrictionRepository) ListAll(ctx context.Context) ([]models.TeacherRestriction, error) {
	const query = `SELECT id, teacher_id, unavailable, created_at, updated_at FROM teacher_restrictions ORDER BY teacher_id ASC`
	var items []models.TeacherRestriction
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list teacher restrictions: %w", err)
	}
	return items, nil
}

// GetByTeacher returns the restriction of a single teacher.
func (r *TeacherRestrictionRepository) GetByTeacher(ctx context.Context, teacherID string) (*models.TeacherRestriction, error) {
	const query = `SELECT id, teacher_id, unavailable, created_at, updated_at FROM teacher_restrictions WHERE teacher_id = $1`
	var item models.TeacherRestriction
	if err := r.db.GetContext(ctx, &item, query, teacherID); err != nil {
		return nil, err
	}
	return &item, nil
}

// Upsert creates or replaces a teacher's unavailable cells.
func (r *TeacherRestrictionRepository) Upsert(ctx context.Context, item *models.TeacherRestriction) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	if len(item.Unavailable) == 0 {
		item.Unavailable = []byte("[]")
	}

	const query = `INSERT INTO teacher_restrictions (id, teacher_id, unavailable, created_at, updated_at)
		VALUES (:id, :teacher_id, :unavailable, :created_at, :updated_at)
		ON CONFLICT (teacher_id) DO UPDATE
		SET unavailable = EXCLUDED.unavailable,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("upsert teacher restriction: %w", err)
	}
	return nil
}
