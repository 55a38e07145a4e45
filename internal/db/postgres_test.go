package db

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConnectPostgres_BadDSN(t *testing.T) {
	_, err := ConnectPostgres(context.Background(), "postgres://%zz", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse postgres dsn")
}

func TestConnectPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	pool, err := ConnectPostgres(context.Background(), dsn, 3)
	require.NoError(t, err)
	defer pool.Close()

	assert.Equal(t, int32(3), pool.Config().MaxConns)
	assert.NotNil(t, pool.Config().ConnConfig.Tracer)
}

func TestZapLevel(t *testing.T) {
	tests := []struct {
		in   tracelog.LogLevel
		want zapcore.Level
	}{
		{tracelog.LogLevelError, zapcore.ErrorLevel},
		{tracelog.LogLevelWarn, zapcore.WarnLevel},
		{tracelog.LogLevelInfo, zapcore.InfoLevel},
		{tracelog.LogLevelDebug, zapcore.DebugLevel},
		{tracelog.LogLevelTrace, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, zapLevel(tt.in))
	}
}
