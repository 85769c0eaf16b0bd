package users

import (
	"context"
	"database/sql"
	"testing"

	"order-service/internal/apperr"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConf(t *testing.T) (*Conf, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	conf, err := NewConf(db)
	require.NoError(t, err)
	return conf, mock
}

func TestGetNameByID(t *testing.T) {
	conf, mock := testConf(t)

	mock.ExpectQuery("SELECT name FROM users").WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Asep Sunandar"))

	name, err := conf.GetNameByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Asep Sunandar", name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNameByIDMissingUser(t *testing.T) {
	conf, mock := testConf(t)

	mock.ExpectQuery("SELECT name FROM users").WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := conf.GetNameByID(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
