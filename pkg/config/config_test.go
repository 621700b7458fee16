package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "*", cfg.Server.AllowedOrigins)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, "red_alert_notifications", cfg.Timeplus.Stream)
	assert.Equal(t, "https://www.oref.org.il", cfg.Oref.BaseURL)
	assert.Equal(t, 10, cfg.Oref.PollIntervalS)
	assert.Equal(t, 120, cfg.Alerting.CooldownS)
	assert.Equal(t, 100, cfg.Alerting.PageSize)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("REDALERT_SERVER_PORT", "9090")
	t.Setenv("REDALERT_ALERTING_COOLDOWNS", "300")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 300, cfg.Alerting.CooldownS)
}
