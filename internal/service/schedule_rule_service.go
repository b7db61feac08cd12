package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

type scheduleRuleStore interface {
	List(ctx context.Context) ([]models.ScheduleRule, error)
	SetActive(ctx context.Context, id string, active bool) (*models.ScheduleRule, error)
}

// ScheduleRuleService lists and toggles the optional placement rules read by
// the generator and optimizer.
type ScheduleRuleService struct {
	repo      scheduleRuleStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleRuleService builds the service.
func NewScheduleRuleService(repo scheduleRuleStore, validate *validator.Validate, logger *zap.Logger) *ScheduleRuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleRuleService{repo: repo, validator: validate, logger: logger}
}

// List returns every rule ordered by id.
func (s *ScheduleRuleService) List(ctx context.Context) ([]models.ScheduleRule, error) {
	rules, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule rules")
	}
	if rules == nil {
		rules = []models.ScheduleRule{}
	}
	return rules, nil
}

// SetActive switches one rule. It applies from the next engine run.
func (s *ScheduleRuleService) SetActive(ctx context.Context, ruleID string, req dto.UpdateRuleRequest) (*models.ScheduleRule, error) {
	ruleID = strings.ToUpper(strings.TrimSpace(ruleID))
	if ruleID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rule id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}

	rule, err := s.repo.SetActive(ctx, ruleID, *req.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule rule")
	}
	s.logger.Info("schedule rule updated", zap.String("rule_id", rule.ID), zap.Bool("active", rule.Active))
	return rule, nil
}
