// AngelaMos | 2026
// repository_test.go

package wishlist

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

var (
	deleteQuery = regexp.QuoteMeta("DELETE FROM wishlists")
	insertQuery = regexp.QuoteMeta("INSERT INTO wishlists")
)

func TestToggleAdds(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(deleteQuery).WithArgs("u1", "p1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertQuery).WithArgs("u1", "p1").WillReturnResult(sqlmock.NewResult(0, 1))

	added, err := repo.Toggle(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.True(t, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleRemoves(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(deleteQuery).WithArgs("u1", "p1").WillReturnResult(sqlmock.NewResult(0, 1))

	added, err := repo.Toggle(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.False(t, added)
	assert.NoError(t, mock.ExpectationsWereMet(), "no insert after a removal")
}

func TestToggleUnknownProduct(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(deleteQuery).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertQuery).WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := repo.Toggle(context.Background(), "u1", "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestProductIDs(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT product_id FROM wishlists")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id"}).AddRow("p1").AddRow("p2"))

	ids, err := repo.ProductIDs(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)
}
