package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumitrack/lumitrack-api/internal/models"
)

func newTargetMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTargetRepositoryListByProgram(t *testing.T) {
	db, mock, cleanup := newTargetMock(t)
	defer cleanup()
	repo := NewTargetRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "program_id", "name", "data_type", "description", "start_date", "mastered_date", "steps", "created_by", "created_at", "updated_at"}).
		AddRow("target-1", "program-1", "Manding", models.DataTypeFrequency, "", now, nil, pq.StringArray(nil), "user-1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, program_id, name, data_type, description, start_date, mastered_date, steps, created_by, created_at, updated_at\nFROM targets WHERE program_id = $1 ORDER BY name ASC")).
		WithArgs("program-1").
		WillReturnRows(rows)

	targets, err := repo.ListByProgram(context.Background(), "program-1")
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, models.DataTypeFrequency, targets[0].DataType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTargetRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newTargetMock(t)
	defer cleanup()
	repo := NewTargetRepository(db)

	mock.ExpectExec("INSERT INTO targets").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	startDate := time.Now().UTC()
	target := &models.Target{
		ProgramID: "program-1",
		Name:      "Tying shoes",
		DataType:  models.DataTypeTaskAnalysis,
		StartDate: &startDate,
		Steps:     pq.StringArray{"Cross laces", "Pull tight", "Make loop", "Finish knot"},
		CreatedBy: "user-1",
	}
	err := repo.Create(context.Background(), target)
	require.NoError(t, err)
	assert.NotEmpty(t, target.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTargetRepositoryDeleteCascade(t *testing.T) {
	db, mock, cleanup := newTargetMock(t)
	defer cleanup()
	repo := NewTargetRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM observations WHERE target_id = $1")).
		WithArgs("target-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM targets WHERE id = $1")).
		WithArgs("target-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DeleteCascade(context.Background(), "target-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTargetRepositoryDeleteCascadeRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newTargetMock(t)
	defer cleanup()
	repo := NewTargetRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM observations WHERE target_id = $1")).
		WithArgs("target-1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.DeleteCascade(context.Background(), "target-1")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
