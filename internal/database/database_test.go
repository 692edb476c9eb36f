package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/recordtrail"
	"github.com/mickamy/recordtrail/internal/config"
	"github.com/mickamy/recordtrail/internal/database"
)

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := database.Open(context.Background(), config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestOpen_Unreachable(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := database.Open(ctx, config.DatabaseConfig{
		Driver:  "pgx",
		Host:    "127.0.0.1",
		Port:    1,
		User:    "u",
		DBName:  "d",
		SSLMode: "disable",
	})
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestHealthy(t *testing.T) {
	t.Parallel()

	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := database.Wrap(mockDB, "postgres", recordtrail.Postgres{})
	mock.ExpectPing()
	assert.NoError(t, db.Healthy(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, db.Healthy(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
