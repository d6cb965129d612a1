package util

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_LevelByEnv(t *testing.T) {
	dev := NewLogger("development")
	require.NotNil(t, dev)
	assert.True(t, dev.Enabled(context.Background(), slog.LevelDebug))

	prod := NewLogger("production")
	require.NotNil(t, prod)
	assert.False(t, prod.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, prod.Enabled(context.Background(), slog.LevelInfo))
}

func TestNewLogger_LevelOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	logger := NewLogger("development")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}
