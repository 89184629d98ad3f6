package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(Replace(zap.New(core)))
	return logs
}

func TestWithFields(t *testing.T) {
	logs := observe(t)

	ctx := WithFields(context.Background(), zap.String("request_id", "req-1"))
	ctx = WithFields(ctx, zap.String("caller", "alice"))
	InfoCtx(ctx, "operation committed", zap.String("operation", "mint"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "operation committed", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "alice", fields["caller"])
	assert.Equal(t, "mint", fields["operation"])
}

func TestWithFieldsDoesNotLeakToParent(t *testing.T) {
	logs := observe(t)

	parent := WithFields(context.Background(), zap.String("request_id", "req-1"))
	_ = WithFields(parent, zap.String("caller", "bob"))
	WarnCtx(parent, "rejected")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.NotContains(t, fields, "caller")
}

func TestErrorCtx(t *testing.T) {
	logs := observe(t)

	ErrorCtx(context.Background(), errors.New("failed to persist mint"), zap.Uint64("tokenID", 7))
	ErrorCtx(context.Background(), nil)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
	assert.Equal(t, "failed to persist mint", logs.All()[0].Message)
	assert.Equal(t, "error occurred", logs.All()[1].Message)
}

func TestInitialize(t *testing.T) {
	t.Cleanup(Replace(Default()))

	require.NoError(t, Initialize(Config{Debug: true}))
	assert.True(t, Default().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Initialize(Config{}))
	assert.False(t, Default().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, Default().Core().Enabled(zapcore.InfoLevel))
}
