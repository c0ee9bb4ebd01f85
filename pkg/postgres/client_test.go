package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	applogger "MarketMood/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRetriesThenSucceeds(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer raw.Close()

	calls := 0
	orig := connectFunc
	connectFunc = func(context.Context, string) (*sqlx.DB, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return sqlx.NewDb(raw, "postgres"), nil
	}
	defer func() { connectFunc = orig }()

	c, err := NewClient(context.Background(), applogger.Nop(),
		WithURL("postgres://example"),
		WithConnectRetry(5, time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	mock.ExpectPing()
	assert.NoError(t, c.Health(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewClientGivesUp(t *testing.T) {
	calls := 0
	orig := connectFunc
	connectFunc = func(context.Context, string) (*sqlx.DB, error) {
		calls++
		return nil, errors.New("connection refused")
	}
	defer func() { connectFunc = orig }()

	_, err := NewClient(context.Background(), applogger.Nop(),
		WithURL("postgres://example"),
		WithConnectRetry(5, time.Millisecond),
	)
	require.Error(t, err)
	assert.Equal(t, 5, calls)
	assert.Contains(t, err.Error(), "after 5 attempts")
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(context.Background(), applogger.Nop())
	assert.Error(t, err)
}

func TestHealthFails(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer raw.Close()

	mock.ExpectPing().WillReturnError(errors.New("down"))
	c := NewFromDB(sqlx.NewDb(raw, "postgres"))
	assert.Error(t, c.Health(context.Background()))
}
