package debug

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDebug(t *testing.T) {
	assert.True(t, IsEnabled(WithDebug(context.Background(), true)))
	assert.False(t, IsEnabled(WithDebug(context.Background(), false)))
	assert.False(t, IsEnabled(context.Background()))
}

func TestSetupLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	logger := SetupLogger(&buf, true)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.Same(t, logger, slog.Default())

	logger.Debug("request complete", "status", 200)
	assert.Contains(t, buf.String(), "request complete")
	assert.Contains(t, buf.String(), "status=200")

	buf.Reset()
	logger = SetupLogger(&buf, false)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
	logger.Info("hidden")
	assert.Empty(t, buf.String())
}
