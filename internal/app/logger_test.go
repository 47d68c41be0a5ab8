package app

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		level   string
		format  string
		enabled slog.Level
		json    bool
	}{
		{level: "debug", format: "text", enabled: slog.LevelDebug},
		{level: "WARN", format: "json", enabled: slog.LevelWarn, json: true},
		{level: "bogus", format: "", enabled: slog.LevelInfo},
	}
	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			// Arrange
			var buf bytes.Buffer

			// Act
			logger := newLogger(tc.level, tc.format, &buf)
			logger.Log(context.Background(), tc.enabled, "hello")

			// Assert
			assert.True(t, logger.Enabled(context.Background(), tc.enabled))
			assert.False(t, logger.Enabled(context.Background(), tc.enabled-1))
			if tc.json {
				assert.Contains(t, buf.String(), `"msg":"hello"`)
			} else {
				assert.Contains(t, buf.String(), "msg=hello")
			}
		})
	}
}
