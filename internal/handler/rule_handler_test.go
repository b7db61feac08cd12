package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

type ruleServiceMock struct {
	ruleID string
	req    dto.UpdateRuleRequest
	err    error
}

func (m *ruleServiceMock) List(ctx context.Context) ([]models.ScheduleRule, error) {
	return []models.ScheduleRule{{ID: "R3", Active: true}}, nil
}

func (m *ruleServiceMock) SetActive(ctx context.Context, ruleID string, req dto.UpdateRuleRequest) (*models.ScheduleRule, error) {
	m.ruleID, m.req = ruleID, req
	if m.err != nil {
		return nil, m.err
	}
	return &models.ScheduleRule{ID: ruleID, Active: *req.Active}, nil
}

func TestRuleHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &ruleServiceMock{}
	h := NewRuleHandler(svc)
	r := gin.New()
	r.GET("/timetable/rules", h.List)
	r.PUT("/timetable/rules/:ruleId", h.Update)

	w := serveJSON(r, http.MethodGet, "/timetable/rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Data []models.ScheduleRule `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
	assert.True(t, listed.Data[0].Active)

	w = serveJSON(r, http.MethodPut, "/timetable/rules/R3", []byte(`{"activa":false}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "R3", svc.ruleID)
	var updated struct {
		Data models.ScheduleRule `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.False(t, updated.Data.Active)

	w = serveJSON(r, http.MethodPut, "/timetable/rules/R3", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.err = appErrors.Clone(appErrors.ErrNotFound, "schedule rule not found")
	w = serveJSON(r, http.MethodPut, "/timetable/rules/R9", []byte(`{"activa":true}`))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
