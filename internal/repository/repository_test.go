package repository

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPageWindow(t *testing.T) {
	limit, offset := pageWindow(0, 0)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, offset = pageWindow(3, 50)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 100, offset)

	limit, _ = pageWindow(1, 1000)
	assert.Equal(t, 20, limit)
}

func TestOrderByFallsBackToWhitelist(t *testing.T) {
	allowed := map[string]string{"name": "name", "created_at": "created_at"}
	assert.Equal(t, "name ASC", orderBy("", "", allowed, "name", "ASC"))
	assert.Equal(t, "created_at DESC", orderBy("created_at", "desc", allowed, "name", "ASC"))
	assert.Equal(t, "name ASC", orderBy("password; DROP TABLE users", "sideways", allowed, "name", "ASC"))
}
