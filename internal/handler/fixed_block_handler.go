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

type fixedBlockService interface {
	List(ctx context.Context, ref dto.GroupRef) ([]models.FixedBlock, error)
	Create(ctx context.Context, ref dto.GroupRef, req dto.FixedBlockRequest) (*models.FixedBlock, error)
	Update(ctx context.Context, ref dto.GroupRef, id string, req dto.FixedBlockRequest) (*models.FixedBlock, error)
	Delete(ctx context.Context, ref dto.GroupRef, id string) error
}

// FixedBlockHandler manages the lessons pinned to a group before generation.
type FixedBlockHandler struct {
	blocks fixedBlockService
}

// NewFixedBlockHandler constructs the handler.
func NewFixedBlockHandler(blocks fixedBlockService) *FixedBlockHandler {
	return &FixedBlockHandler{blocks: blocks}
}

// List godoc
// @Summary List a group's fixed blocks
// @Tags Timetable
// @Produce json
// @Param levelId path string true "Level ID"
// @Param group path string true "Group letter A-F"
// @Success 200 {object} response.Envelope
// @Router /timetable/levels/{levelId}/groups/{group}/fixed-blocks [get]
func (h *FixedBlockHandler) List(c *gin.Context) {
	blocks, err := h.blocks.List(c.Request.Context(), groupRef(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks, map[string]interface{}{"count": len(blocks)})
}

// Create godoc
// @Summary Pin a lesson to a cell
// @Description Locked blocks are seeded by the next generator run. A teacher may hold one locked block per cell across all groups.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param levelId path string true "Level ID"
// @Param group path string true "Group letter A-F"
// @Param payload body dto.FixedBlockRequest true "Fixed block"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/levels/{levelId}/groups/{group}/fixed-blocks [post]
func (h *FixedBlockHandler) Create(c *gin.Context) {
	var req dto.FixedBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fixed block payload"))
		return
	}
	block, err := h.blocks.Create(c.Request.Context(), groupRef(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// Update godoc
// @Summary Replace a fixed block
// @Tags Timetable
// @Accept json
// @Produce json
// @Param levelId path string true "Level ID"
// @Param group path string true "Group letter A-F"
// @Param blockId path string true "Fixed block ID"
// @Param payload body dto.FixedBlockRequest true "Fixed block"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/levels/{levelId}/groups/{group}/fixed-blocks/{blockId} [put]
func (h *FixedBlockHandler) Update(c *gin.Context) {
	var req dto.FixedBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fixed block payload"))
		return
	}
	block, err := h.blocks.Update(c.Request.Context(), groupRef(c), c.Param("blockId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, block)
}

// Delete godoc
// @Summary Remove a fixed block
// @Tags Timetable
// @Param levelId path string true "Level ID"
// @Param group path string true "Group letter A-F"
// @Param blockId path string true "Fixed block ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /timetable/levels/{levelId}/groups/{group}/fixed-blocks/{blockId} [delete]
func (h *FixedBlockHandler) Delete(c *gin.Context) {
	if err := h.blocks.Delete(c.Request.Context(), groupRef(c), c.Param("blockId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
