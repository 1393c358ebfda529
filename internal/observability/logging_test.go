package observability

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/oncall-service/internal/config"
)

func TestNewLogger(t *testing.T) {
	cases := []struct {
		cfg   config.LoggerConfig
		level zapcore.Level
	}{
		{config.LoggerConfig{Level: "debug"}, zapcore.DebugLevel},
		{config.LoggerConfig{Level: "WARN", Format: "console"}, zapcore.WarnLevel},
		{config.LoggerConfig{Level: "loud"}, zapcore.InfoLevel},
	}
	for _, tc := range cases {
		logger, err := NewLogger(tc.cfg, "oncall-test")
		require.NoError(t, err)
		require.True(t, logger.Core().Enabled(tc.level))
		require.False(t, logger.Core().Enabled(tc.level-1))
	}
}
