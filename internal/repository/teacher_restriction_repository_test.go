package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horario-api/internal/models"
)

func TestTeacherRestrictionRepositoryUpsertAndList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRestrictionRepository(db)

	mock.ExpectExec("INSERT INTO teacher_restrictions").
		WithArgs(sqlmock.AnyArg(), "T1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	item := &models.TeacherRestriction{TeacherID: "T1"}
	require.NoError(t, repo.Upsert(context.Background(), item))
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, types.JSONText("[]"), item.Unavailable)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teacher_id, unavailable, created_at, updated_at FROM teacher_restrictions ORDER BY teacher_id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "unavailable", "created_at", "updated_at"}).
			AddRow("r1", "T1", `["Lunes_07:00-07:50"]`, now, now))
	items, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.JSONEq(t, `["Lunes_07:00-07:50"]`, string(items[0].Unavailable))

	mock.ExpectQuery(regexp.QuoteMeta("FROM teacher_restrictions WHERE teacher_id = $1")).
		WithArgs("T1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "unavailable", "created_at", "updated_at"}).
			AddRow("r1", "T1", `[]`, now, now))
	one, err := repo.GetByTeacher(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, "r1", one.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRuleAndAuditRepositories(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_rules ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "description", "active", "updated_at"}).
			AddRow("R3", "no repeat subject per day", true, time.Now()))
	rules, err := NewScheduleRuleRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.True(t, rules[0].Active)

	mock.ExpectExec("INSERT INTO conflict_audits").
		WithArgs(sqlmock.AnyArg(), "generate", "grado-1_A", 2, sqlmock.AnyArg(), sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	audit := &models.ConflictAudit{Trigger: "generate", GroupKey: "grado-1_A", Conflicts: 2, DurationMs: 5}
	require.NoError(t, NewConflictAuditRepository(db).Create(context.Background(), audit))
	assert.False(t, audit.ScannedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
