package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/response"
)

type ruleService interface {
	List(ctx context.Context) ([]models.ScheduleRule, error)
	SetActive(ctx context.Context, ruleID string, req dto.UpdateRuleRequest) (*models.ScheduleRule, error)
}

// RuleHandler toggles the optional placement rules.
type RuleHandler struct {
	rules ruleService
}

// NewRuleHandler constructs the handler.
func NewRuleHandler(rules ruleService) *RuleHandler {
	return &RuleHandler{rules: rules}
}

// List godoc
// @Summary List placement rules
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/rules [get]
func (h *RuleHandler) List(c *gin.Context) {
	rules, err := h.rules.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules)
}

// Update godoc
// @Summary Switch a placement rule on or off
// @Description Applies to the next generator or optimizer run.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param ruleId path string true "Rule ID"
// @Param payload body dto.UpdateRuleRequest true "New state"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/rules/{ruleId} [put]
func (h *RuleHandler) Update(c *gin.Context) {
	var req dto.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule payload"))
		return
	}
	rule, err := h.rules.SetActive(c.Request.Context(), c.Param("ruleId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule)
}
