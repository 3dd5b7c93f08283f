package database

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewPool_RejectsBadURL(t *testing.T) {
	_, err := NewPool(context.Background(), "", PoolOptions{})
	require.Error(t, err)

	_, err = NewPool(context.Background(), "postgres://%zz", PoolOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid database URL")
}

func TestQueryLogger_Levels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := queryLogger(zap.New(core).Sugar())

	log(context.Background(), tracelog.LogLevelError, "Query", map[string]any{"sql": "SELECT 1"})
	log(context.Background(), tracelog.LogLevelInfo, "Query", nil)
	log(context.Background(), tracelog.LogLevelTrace, "Query", nil)

	require.Equal(t, 3, logs.Len())
	entries := logs.All()
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
}
