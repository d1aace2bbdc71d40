package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fgtintas/referral-service/internal/config"
)

func TestLoggerConfigCarriesServiceFields(t *testing.T) {
	app := config.AppConfig{Name: "referral-service", Version: "1.4.0", Env: "development"}

	cfg := newLoggerConfig(config.LoggerConfig{Level: "DEBUG"}, app)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level.Level())
	assert.True(t, cfg.Development)
	assert.Nil(t, cfg.Sampling)
	assert.Equal(t, map[string]any{"service": "referral-service", "version": "1.4.0", "env": "development"}, cfg.InitialFields)
}

func TestLoggerConfigProduction(t *testing.T) {
	cfg := newLoggerConfig(config.LoggerConfig{Level: "verbose"}, config.AppConfig{Env: "production"})
	assert.Equal(t, zapcore.InfoLevel, cfg.Level.Level(), "unknown level falls back to info")
	assert.False(t, cfg.Development)
	require.NotNil(t, cfg.Sampling)
}

func TestNewLoggerBuilds(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "warn"}, config.AppConfig{Name: "referral-service"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
