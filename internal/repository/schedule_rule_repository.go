package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/horario-api/internal/models"
)

// ScheduleRuleRepository reads and toggles placement rules.
type ScheduleRuleRepository struct {
	db *sqlx.DB
}

// NewScheduleRuleRepository constructs the repository.
func NewScheduleRuleRepository(db *sqlx.DB) *ScheduleRuleRepository {
	return &ScheduleRuleRepository{db: db}
}

// List returns every rule ordered by id.
func (r *ScheduleRuleRepository) List(ctx context.Context) ([]models.ScheduleRule, error) {
	const query = `SELECT id, description, active, updated_at FROM schedule_rules ORDER BY id ASC`
	var rules []models.ScheduleRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list schedule rules: %w", err)
	}
	return rules, nil
}

// SetActive switches a rule on or off and returns the stored row. An unknown
// id yields sql.ErrNoRows.
func (r *ScheduleRuleRepository) SetActive(ctx context.Context, id string, active bool) (*models.ScheduleRule, error) {
	const query = `UPDATE schedule_rules SET active = $2, updated_at = $3 WHERE id = $1
RETURNING id, description, active, updated_at`
	var rule models.ScheduleRule
	if err := r.db.GetContext(ctx, &rule, query, id, active, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("set schedule rule %s: %w", id, err)
	}
	return &rule, nil
}
