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

type restrictionService interface {
	Get(ctx context.Context, teacherID string) (*dto.RestrictionResponse, error)
	Upsert(ctx context.Context, teacherID string, req dto.UpsertRestrictionRequest) (*dto.RestrictionResponse, error)
}

type auditLister interface {
	Recent(ctx context.Context, limit int) ([]models.ConflictAudit, error)
}

// RestrictionHandler serves teacher restrictions and the conflict audit trail.
type RestrictionHandler struct {
	restrictions restrictionService
	audits       auditLister
}

// NewRestrictionHandler constructs the handler.
func NewRestrictionHandler(restrictions restrictionService, audits auditLister) *RestrictionHandler {
	return &RestrictionHandler{restrictions: restrictions, audits: audits}
}

// Get godoc
// @Summary Get a teacher's unavailable cells
// @Tags Timetable
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/teachers/{teacherId}/restrictions [get]
func (h *RestrictionHandler) Get(c *gin.Context) {
	result, err := h.restrictions.Get(c.Request.Context(), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Upsert godoc
// @Summary Replace a teacher's unavailable cells
// @Description Applies to the next generator or optimizer run.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Param payload body dto.UpsertRestrictionRequest true "Cells as day_period keys"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetable/teachers/{teacherId}/restrictions [put]
func (h *RestrictionHandler) Upsert(c *gin.Context) {
	var req dto.UpsertRestrictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid restriction payload"))
		return
	}
	result, err := h.restrictions.Upsert(c.Request.Context(), c.Param("teacherId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Audits godoc
// @Summary List the latest background conflict scans
// @Tags Timetable
// @Produce json
// @Param limit query int false "At most 100"
// @Success 200 {object} response.Envelope
// @Router /timetable/conflicts/audits [get]
func (h *RestrictionHandler) Audits(c *gin.Context) {
	var query dto.AuditQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid audit query"))
		return
	}
	audits, err := h.audits.Recent(c.Request.Context(), query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, audits, map[string]interface{}{"count": len(audits)})
}
