package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(zap.NewNop()) })

	ctx := With(context.Background(), "request_id", "r-1")
	ctx = With(ctx, "session", "s-1")
	Infof(ctx, "analyzed %d rows", 3)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "analyzed 3 rows", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "s-1", fields["session"])
}

func TestWithDoesNotLeakIntoParent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(zap.NewNop()) })

	parent := With(context.Background(), "a", 1)
	_ = With(parent, "b", 2)
	Warnf(parent, "x")

	fields := logs.All()[0].ContextMap()
	assert.Contains(t, fields, "a")
	assert.NotContains(t, fields, "b")
}

func TestInitFallsBackToInfoOnBadLevel(t *testing.T) {
	require.NoError(t, Init("not-a-level", "json"))
	assert.True(t, base.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, base.Desugar().Core().Enabled(zapcore.DebugLevel))
	SetLogger(zap.NewNop())
}
