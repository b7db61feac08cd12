package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/horario-api/internal/models"
)

// ConflictAuditRepository stores background conflict scan results.
type ConflictAuditRepository struct {
	db *sqlx.DB
}

// NewConflictAuditRepository constructs the repository.
func NewConflictAuditRepository(db *sqlx.DB) *ConflictAuditRepository {
	return &ConflictAuditRepository{db: db}
}

// Create inserts a scan record.
func (r *ConflictAuditRepository) Create(ctx context.Context, audit *models.ConflictAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}
	if audit.ScannedAt.IsZero() {
		audit.ScannedAt = time.Now().UTC()
	}
	if len(audit.Details) == 0 {
		audit.Details = []byte("[]")
	}
	const query = `INSERT INTO conflict_audits (id, trigger, group_key, conflicts, details, scanned_at, duration_ms)
VALUES (:id, :trigger, :group_key, :conflicts, :details, :scanned_at, :duration_ms)`
	if _, err := r.db.NamedExecContext(ctx, query, audit); err != nil {
		return fmt.Errorf("insert conflict audit: %w", err)
	}
	return nil
}

// Latest returns the most recent scans, newest first.
func (r *ConflictAuditRepository) Latest(ctx context.Context, limit int) ([]models.ConflictAudit, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT id, trigger, group_key, conflicts, details, scanned_at, duration_ms
FROM conflict_audits ORDER BY scanned_at DESC LIMIT $1`
	var audits []models.ConflictAudit
	if err := r.db.SelectContext(ctx, &audits, query, limit); err != nil {
		return nil, fmt.Errorf("list conflict audits: %w", err)
	}
	return audits, nil
}
