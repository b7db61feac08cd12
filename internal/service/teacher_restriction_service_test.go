package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/timetable"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

type restrictionRepoStub struct {
	items   map[string]*models.TeacherRestriction
	getErr  error
	upserts int
}

func newRestrictionRepoStub() *restrictionRepoStub {
	return &restrictionRepoStub{items: map[string]*models.TeacherRestriction{}}
}

func (s *restrictionRepoStub) GetByTeacher(ctx context.Context, teacherID string) (*models.TeacherRestriction, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	item, ok := s.items[teacherID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *item
	return &copied, nil
}

func (s *restrictionRepoStub) Upsert(ctx context.Context, item *models.TeacherRestriction) error {
	s.upserts++
	if item.ID == "" {
		item.ID = "r-" + item.TeacherID
	}
	item.UpdatedAt = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	copied := *item
	s.items[item.TeacherID] = &copied
	return nil
}

func TestTeacherRestrictionServiceGetDefaultsToNone(t *testing.T) {
	svc := NewTeacherRestrictionService(newRestrictionRepoStub(), timetable.DefaultGrid(), nil, nil)

	resp, err := svc.Get(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, "T1", resp.TeacherID)
	assert.Empty(t, resp.Unavailable)
	assert.NotNil(t, resp.Unavailable)
	assert.Nil(t, resp.UpdatedAt)
}

func TestTeacherRestrictionServiceUpsert(t *testing.T) {
	repo := newRestrictionRepoStub()
	repo.items["T1"] = &models.TeacherRestriction{ID: "existing", TeacherID: "T1", Unavailable: types.JSONText(`["Lunes_07:00-07:50"]`)}
	svc := NewTeacherRestrictionService(repo, timetable.DefaultGrid(), nil, nil)

	resp, err := svc.Upsert(context.Background(), "T1", dto.UpsertRestrictionRequest{
		Unavailable: []string{"Martes_10:00-10:50", " Martes_10:00-10:50 ", "Viernes_12:30-13:20"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Martes_10:00-10:50", "Viernes_12:30-13:20"}, resp.Unavailable)
	require.NotNil(t, resp.UpdatedAt)
	assert.Equal(t, "existing", repo.items["T1"].ID)

	stored, err := svc.Get(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, resp.Unavailable, stored.Unavailable)
}

func TestTeacherRestrictionServiceRejectsCellsOutsideGrid(t *testing.T) {
	repo := newRestrictionRepoStub()
	svc := NewTeacherRestrictionService(repo, timetable.DefaultGrid(), nil, nil)

	for _, key := range []string{"Sábado_07:00-07:50", "Lunes_09:30-10:00", "Lunes"} {
		_, err := svc.Upsert(context.Background(), "T1", dto.UpsertRestrictionRequest{Unavailable: []string{key}})
		require.Error(t, err, key)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	_, err := svc.Upsert(context.Background(), " ", dto.UpsertRestrictionRequest{})
	require.Error(t, err)
	assert.Zero(t, repo.upserts)
}

func TestTeacherRestrictionServiceWrapsStoreErrors(t *testing.T) {
	repo := newRestrictionRepoStub()
	repo.getErr = errors.New("db down")
	svc := NewTeacherRestrictionService(repo, timetable.DefaultGrid(), nil, nil)

	_, err := svc.Get(context.Background(), "T1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	_, err = svc.Upsert(context.Background(), "T1", dto.UpsertRestrictionRequest{Unavailable: []string{"Lunes_07:00-07:50"}})
	require.Error(t, err)
	assert.Zero(t, repo.upserts)
}
