// AngelaMos | 2026
// repository_test.go

package address

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/core"
)

const (
	userID = "u-1"
	addrA  = "a-1"
	addrB  = "a-2"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

func expectLock(mock sqlmock.Sqlmock, ids ...string) {
	rows := sqlmock.NewRows([]string{"id"})
	for _, id := range ids {
		rows.AddRow(id)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM addresses")).
		WithArgs(userID).
		WillReturnRows(rows)
}

func TestSetDefaultSwitchesInOneTransaction(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	expectLock(mock, addrA, addrB)
	mock.ExpectExec(regexp.QuoteMeta("SET is_default = FALSE")).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET is_default = TRUE")).
		WithArgs(addrB, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetDefault(context.Background(), addrB, userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetDefaultRejectsForeignAddress(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	expectLock(mock, addrA)
	mock.ExpectRollback()

	err := repo.SetDefault(context.Background(), "someone-elses", userID)

	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet(), "no writes issued")
}

func TestSetDefaultRollsBackWhenTargetUpdateFails(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	expectLock(mock, addrA, addrB)
	mock.ExpectExec(regexp.QuoteMeta("SET is_default = FALSE")).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET is_default = TRUE")).
		WithArgs(addrB, userID).
		WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	err := repo.SetDefault(context.Background(), addrB, userID)

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(), "cleared default is rolled back")
}

func TestCreateFirstAddressBecomesDefault(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	expectLock(mock)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO addresses")).
		WithArgs(addrA, userID, "1 Main St", nil, "Springfield", "IL", "62701", "US", true).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	a := &Address{
		ID:           addrA,
		UserID:       userID,
		AddressLine1: "1 Main St",
		City:         "Springfield",
		State:        "IL",
		PostalCode:   "62701",
		Country:      "US",
	}
	require.NoError(t, repo.Create(context.Background(), a))

	assert.True(t, a.IsDefault)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDefaultClearsPrevious(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	expectLock(mock, addrA)
	mock.ExpectExec(regexp.QuoteMeta("SET is_default = FALSE")).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO addresses")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	a := &Address{ID: addrB, UserID: userID, IsDefault: true}
	require.NoError(t, repo.Create(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteDefaultPromotesNewest(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM addresses")).
		WithArgs(addrA, userID).
		WillReturnRows(sqlmock.NewRows([]string{"is_default"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta("SET is_default = TRUE")).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), addrA, userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteForeignAddress(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM addresses")).
		WithArgs(addrA, userID).
		WillReturnRows(sqlmock.NewRows([]string{"is_default"}))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), addrA, userID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRetriesWhenConcurrentFirstAddressWins(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	defaultTaken := &pgconn.PgError{Code: "23505", ConstraintName: "uq_addresses_one_default"}

	mock.ExpectBegin()
	expectLock(mock)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO addresses")).
		WithArgs(addrB, userID, "", nil, "", "", "", "", true).
		WillReturnError(defaultTaken)
	mock.ExpectRollback()

	mock.ExpectBegin()
	expectLock(mock, addrA)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO addresses")).
		WithArgs(addrB, userID, "", nil, "", "", "", "", false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	a := &Address{ID: addrB, UserID: userID}
	require.NoError(t, repo.Create(context.Background(), a))

	assert.False(t, a.IsDefault, "the concurrent winner keeps the default")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReportsPersistentDefaultConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	defaultTaken := &pgconn.PgError{Code: "23505", ConstraintName: "uq_addresses_one_default"}

	for range 2 {
		mock.ExpectBegin()
		expectLock(mock)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO addresses")).
			WillReturnError(defaultTaken)
		mock.ExpectRollback()
	}

	err := repo.Create(context.Background(), &Address{ID: addrB, UserID: userID})

	assert.ErrorIs(t, err, core.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
