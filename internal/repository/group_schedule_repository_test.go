package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horario-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGroupScheduleRepositoryReplaceGroupInTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGroupScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_blocks WHERE group_key")).
		WithArgs("grado-1_A").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM unassigned_lessons WHERE group_key")).
		WithArgs("grado-1_A").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_blocks")).
		WithArgs("b1", "grado-1_A", 0, "Lunes", "07:00-07:50", "Arte", "T1", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_blocks")).
		WithArgs("b2", "grado-1_A", 1, "Martes", "07:00-07:50", "Lengua", "T2", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO unassigned_lessons")).
		WithArgs("u1", "grado-1_A", 0, "Física", "T3", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.ReplaceGroup(context.Background(), tx, "grado-1_A",
		[]models.ScheduleBlock{
			{ID: "b1", Day: "Lunes", Period: "07:00-07:50", Subject: "Arte", TeacherID: "T1", Fixed: true},
			{ID: "b2", Day: "Martes", Period: "07:00-07:50", Subject: "Lengua", TeacherID: "T2"},
		},
		[]models.UnassignedLesson{{ID: "u1", Subject: "Física", TeacherID: "T3"}},
	)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupScheduleRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGroupScheduleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "group_key", "position", "day", "period", "subject", "teacher_id", "fixed", "created_at"}).
		AddRow("b1", "grado-1_A", 0, "Lunes", "07:00-07:50", "Arte", "T1", true, now).
		AddRow("b2", "grado-1_B", 0, "Lunes", "07:00-07:50", "Lengua", "T2", false, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_blocks ORDER BY group_key ASC, position ASC")).WillReturnRows(rows)

	blocks, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.True(t, blocks[0].Fixed)
	assert.Equal(t, "grado-1_B", blocks[1].GroupKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupScheduleRepositoryListUnassigned(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGroupScheduleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "group_key", "position", "subject", "teacher_id", "created_at"}).
		AddRow("u1", "grado-1_A", 0, "Física", "T3", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM unassigned_lessons WHERE group_key = $1")).
		WithArgs("grado-1_A").
		WillReturnRows(rows)

	lessons, err := repo.ListUnassigned(context.Background(), "grado-1_A")
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, "Física", lessons[0].Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupScheduleRepositoryClear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGroupScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_blocks WHERE group_key")).
		WithArgs("grado-1_A").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM unassigned_lessons WHERE group_key")).
		WithArgs("grado-1_A").
		WillReturnResult(sqlmock.NewResult(0, 0))
	removed, err := repo.ClearGroup(context.Background(), nil, "grado-1_A")
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_blocks")).WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM unassigned_lessons")).WillReturnResult(sqlmock.NewResult(0, 2))
	removed, err = repo.ClearAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 12, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
