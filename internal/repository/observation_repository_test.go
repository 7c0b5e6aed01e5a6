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

	"github.com/lumitrack/lumitrack-api/internal/models"
)

func newObservationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestObservationRepositoryListByTarget(t *testing.T) {
	db, mock, cleanup := newObservationMock(t)
	defer cleanup()
	repo := NewObservationRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "target_id", "data_type", "date", "value", "created_by", "creation_date"}).
		AddRow("obs-1", "target-1", models.DataTypeFrequency, now, []byte(`{"kind":"count","count":10}`), "user-1", now).
		AddRow("obs-2", "target-1", models.DataTypeFrequency, now, []byte(`{"kind":"count","count":1}`), "user-1", now.Add(time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, target_id, data_type, date, value, created_by, creation_date FROM observations WHERE target_id = $1 ORDER BY date ASC, creation_date ASC")).
		WithArgs("target-1").
		WillReturnRows(rows)

	observations, err := repo.ListByTarget(context.Background(), models.ObservationFilter{TargetID: "target-1"})
	require.NoError(t, err)
	require.Len(t, observations, 2)
	assert.Equal(t, models.ValueKindCount, observations[0].Value.Kind)
	assert.Equal(t, float64(10), observations[0].Value.Count)
	assert.Equal(t, float64(1), observations[1].Value.Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestObservationRepositoryListByTargetWithRange(t *testing.T) {
	db, mock, cleanup := newObservationMock(t)
	defer cleanup()
	repo := NewObservationRepository(db)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, target_id, data_type, date, value, created_by, creation_date FROM observations WHERE target_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC, creation_date ASC")).
		WithArgs("target-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"id", "target_id", "data_type", "date", "value", "created_by", "creation_date"}))

	observations, err := repo.ListByTarget(context.Background(), models.ObservationFilter{TargetID: "target-1", DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	assert.Empty(t, observations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestObservationRepositoryListByTargetPaginates(t *testing.T) {
	db, mock, cleanup := newObservationMock(t)
	defer cleanup()
	repo := NewObservationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, target_id, data_type, date, value, created_by, creation_date FROM observations WHERE target_id = $1 ORDER BY date ASC, creation_date ASC LIMIT 25 OFFSET 50")).
		WithArgs("target-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "target_id", "data_type", "date", "value", "created_by", "creation_date"}))

	_, err := repo.ListByTarget(context.Background(), models.ObservationFilter{TargetID: "target-1", Page: 3, PageSize: 25})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestObservationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newObservationMock(t)
	defer cleanup()
	repo := NewObservationRepository(db)

	mock.ExpectExec("INSERT INTO observations").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	observation := &models.Observation{
		TargetID:  "target-1",
		DataType:  models.DataTypeDuration,
		Date:      time.Now().UTC(),
		Value:     models.DurationValue(90000),
		CreatedBy: "user-1",
	}
	err := repo.Create(context.Background(), observation)
	require.NoError(t, err)
	assert.NotEmpty(t, observation.ID)
	assert.False(t, observation.CreationDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestObservationRepositoryFindLatestOnDate(t *testing.T) {
	db, mock, cleanup := newObservationMock(t)
	defer cleanup()
	repo := NewObservationRepository(db)

	dayStart := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	rows := sqlmock.NewRows([]string{"id", "target_id", "data_type", "date", "value", "created_by", "creation_date"}).
		AddRow("obs-9", "target-1", models.DataTypeDuration, dayStart, []byte(`{"kind":"duration","duration_ms":120000}`), "user-1", dayStart)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, target_id, data_type, date, value, created_by, creation_date FROM observations\nWHERE target_id = $1 AND date >= $2 AND date < $3\nORDER BY creation_date DESC LIMIT 1")).
		WithArgs("target-1", dayStart, dayEnd).
		WillReturnRows(rows)

	observation, err := repo.FindLatestOnDate(context.Background(), "target-1", dayStart, dayEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(120000), observation.Value.DurationMS)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestObservationRepositoryUpdateValue(t *testing.T) {
	db, mock, cleanup := newObservationMock(t)
	defer cleanup()
	repo := NewObservationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE observations SET value = $2 WHERE id = $1")).
		WithArgs("obs-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateValue(context.Background(), "obs-1", models.CountValue(7))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
