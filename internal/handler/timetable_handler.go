package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/service"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/response"
)

type timetableUseCases interface {
	Generate(ctx context.Context, ref dto.GroupRef, req dto.GenerateRequest) (*dto.GenerateResponse, error)
	Optimize(ctx context.Context, ref dto.GroupRef) (*dto.OptimizeResponse, error)
	Conflicts(ctx context.Context) (*dto.ConflictsResponse, error)
	GroupSchedule(ctx context.Context, ref dto.GroupRef) (*dto.GroupScheduleResponse, error)
	TeacherSchedule(ctx context.Context, teacherID string) (*dto.TeacherScheduleResponse, error)
	MoveBlock(ctx context.Context, ref dto.GroupRef, blockID string, req dto.MoveBlockRequest) (*dto.GroupScheduleResponse, error)
	ClearGroup(ctx context.Context, ref dto.GroupRef) (*dto.ClearResponse, error)
	ClearAll(ctx context.Context) (*dto.ClearResponse, error)
	CleanSubjectHours(ctx context.Context, levelID string) (*dto.CleanSubjectHoursResponse, error)
}

type timetableExporter interface {
	Export(ctx context.Context, ref dto.GroupRef, query dto.ExportQuery) (*service.ExportFile, error)
}

// TimetableHandler exposes the timetable engine over HTTP.
type TimetableHandler struct {
	service  timetableUseCases
	exporter timetableExporter
	logger   *zap.Logger
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService, exporter *service.ExportService, logger *zap.Logger) *TimetableHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableHandler{service: svc, exporter: exporter, logger: logger}
}

// Generate godoc
// @Summary Generate a group's weekly timetable
// @Description Rebuilds the group from its subject hours, teacher distribution and locked fixed blocks. Other groups are read for teacher availability and never modified.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param levelId path string true "Level ID"
// @Param group path string true "Group letter A-F"
// @Param payload body dto.GenerateRequest false "Shuffle options"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetable/levels/{levelId}/groups/{group}/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
			return
		}
	}
	ref := groupRef(c)
	result, err := h.service.Generate(c.Request.Context(), ref, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Info("generate requested", zap.String("actor", actorID(c)), zap.String("group_key", result.GroupKey))
	response.JSON(c, http.StatusOK, result)
}

// Optimize godoc
// @Summary Place a group's unassigned lessons
// @Description Runs direct fill and single-hop swaps until a pass places nothing.
// @Tags Timetable
// @Produce json
// @Param levelId path string true "Level ID"
// @Param group path string true "Group letter A-F"
// @Success 200 {object} response.Envelope
// @Router /timetable/levels/{levelId}/groups/{group}/optimize [post]
func (h *TimetableHandler) Optimize(c *gin.Context) {
	result, err := h.service.Optimize(c.Request.Context(), groupRef(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Info("optimize requested", zap.String("actor", actorID(c)), zap.String("group_key", result.GroupKey))
	response.JSON(c, http.StatusOK, result)
}

// GroupSchedule godoc
// @Summary Get a group's timetable
// @Tags Timetable
// @Produce json
// @Param levelId path string true "Level ID"
// @Param group path string true "Group letter A-F"
// @Success 200 {object} response.Envelope
// @Router /timetable/levels/{levelId}/groups/{group} [get]
func (h *TimetableHandler) GroupSchedule(c *gin.Context) {
	result, err := h.service.GroupSchedule(c.Request.Context(), groupRef(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// MoveBlock godoc
// @Summary Move a block to an empty cell
// @Description Manual moves skip the hard constraints; resulting conflicts are reported, not prevented.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param levelId path string true "Level ID"
// @Param group path string true "Group letter A-F"
// @Param blockId path string true "Block ID"
// @Param payload body dto.MoveBlockRequest true "Target cell"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/levels/{levelId}/groups/{group}/blocks/{blockId} [patch]
func (h *TimetableHandler) MoveBlock(c *gin.Context) {
	var req dto.MoveBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}
	result, err := h.service.MoveBlock(c.Request.Context(), groupRef(c), c.Param("blockId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ClearGroup godoc
// @Summary Remove a group's timetable
// @Tags Timetable
// @Produce json
// @Param levelId path string true "Level ID"
// @Param group path string true "Group letter A-F"
// @Success 200 {object} response.Envelope
// @Router /timetable/levels/{levelId}/groups/{group} [delete]
func (h *TimetableHandler) ClearGroup(c *gin.Context) {
	result, err := h.service.ClearGroup(c.Request.Context(), groupRef(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Info("group cleared", zap.String("actor", actorID(c)), zap.Int("removed", result.Removed))
	response.JSON(c, http.StatusOK, result)
}

// ClearAll godoc
// @Summary Remove every timetable
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/schedules [delete]
func (h *TimetableHandler) ClearAll(c *gin.Context) {
	result, err := h.service.ClearAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Warn("all timetables cleared", zap.String("actor", actorID(c)), zap.Int("removed", result.Removed))
	response.JSON(c, http.StatusOK, result)
}

// Conflicts godoc
// @Summary List conflicted cells across all groups
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/conflicts [get]
func (h *TimetableHandler) Conflicts(c *gin.Context) {
	result, err := h.service.Conflicts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// TeacherSchedule godoc
// @Summary Get a teacher's blocks across groups
// @Tags Timetable
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/teachers/{teacherId} [get]
func (h *TimetableHandler) TeacherSchedule(c *gin.Context) {
	result, err := h.service.TeacherSchedule(c.Request.Context(), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// CleanSubjectHours godoc
// @Summary Normalize a level's subject names and drop duplicates
// @Tags Timetable
// @Produce json
// @Param levelId path string true "Level ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/levels/{levelId}/subject-hours/clean [post]
func (h *TimetableHandler) CleanSubjectHours(c *gin.Context) {
	result, err := h.service.CleanSubjectHours(c.Request.Context(), c.Param("levelId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Export godoc
// @Summary Download a group's timetable
// @Tags Timetable
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Param levelId path string true "Level ID"
// @Param group path string true "Group letter A-F"
// @Param format query string false "json, csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /timetable/levels/{levelId}/groups/{group}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), groupRef(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Payload)
}

func groupRef(c *gin.Context) dto.GroupRef {
	return dto.GroupRef{LevelID: c.Param("levelId"), Group: c.Param("group")}
}
