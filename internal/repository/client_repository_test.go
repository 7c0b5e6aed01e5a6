package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumitrack/lumitrack-api/internal/models"
)

func newClientMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestClientRepositoryList(t *testing.T) {
	db, mock, cleanup := newClientMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "dob", "gender", "created_by", "created_at", "updated_at"}).
		AddRow("client-1", "Jamie", "Rivera", now, "Male", "user-1", now, now)
	mock.ExpectQuery(`SELECT c\.id, c\.first_name`).
		WithArgs("user-1").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	clients, total, err := repo.List(context.Background(), models.ClientFilter{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, clients, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepositoryCreateInsertsOwnerMembership(t *testing.T) {
	db, mock, cleanup := newClientMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO clients").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO client_members").
		WithArgs(sqlmock.AnyArg(), "user-1", models.ClientRoleOwner, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	client := &models.Client{FirstName: "Jamie", LastName: "Rivera", CreatedBy: "user-1"}
	err := repo.Create(context.Background(), client)
	require.NoError(t, err)
	assert.NotEmpty(t, client.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepositoryDeleteCascade(t *testing.T) {
	db, mock, cleanup := newClientMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM observations WHERE target_id IN (SELECT t.id FROM targets t JOIN programs p ON t.program_id = p.id WHERE p.client_id = $1)")).
		WithArgs("client-1").
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM targets WHERE program_id IN (SELECT id FROM programs WHERE client_id = $1)")).
		WithArgs("client-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM programs WHERE client_id = $1")).
		WithArgs("client-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM client_members WHERE client_id = $1")).
		WithArgs("client-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM clients WHERE id = $1")).
		WithArgs("client-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DeleteCascade(context.Background(), "client-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepositoryDeleteCascadeRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newClientMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM observations").
		WithArgs("client-1").
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := repo.DeleteCascade(context.Background(), "client-1")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepositoryGetMemberRole(t *testing.T) {
	db, mock, cleanup := newClientMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM client_members WHERE client_id = $1 AND user_id = $2 LIMIT 1")).
		WithArgs("client-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))

	role, err := repo.GetMemberRole(context.Background(), "client-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ClientRoleAdmin, role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepositoryCountOwners(t *testing.T) {
	db, mock, cleanup := newClientMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM client_members WHERE client_id = $1 AND role = $2")).
		WithArgs("client-1", models.ClientRoleOwner).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountOwners(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
