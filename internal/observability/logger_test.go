package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/geocoder-bridge/internal/config"
)

func restoreDefaultLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestNewLogger_LevelFromConfig(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"WARN", false, false, true},
		{"error", false, false, false},
		{"nonsense", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			restoreDefaultLogger(t)
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: "json"})

			ctx := context.Background()
			assert.Equal(t, tt.wantDebug, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.wantInfo, logger.Enabled(ctx, slog.LevelInfo))
			assert.Equal(t, tt.wantWarn, logger.Enabled(ctx, slog.LevelWarn))
		})
	}
}

func TestNewLogger_InstallsDefault(t *testing.T) {
	restoreDefaultLogger(t)

	logger := NewLogger(&config.Config{LogLevel: "info", LogFormat: "text"})

	assert.Same(t, logger, slog.Default())
	_, isText := logger.Handler().(*slog.TextHandler)
	assert.True(t, isText)
}

func TestNewLogger_JSONByDefault(t *testing.T) {
	restoreDefaultLogger(t)

	logger := NewLogger(&config.Config{LogLevel: "info"})

	_, isJSON := logger.Handler().(*slog.JSONHandler)
	assert.True(t, isJSON)
}
