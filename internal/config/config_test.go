package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfigFile(t, `
api:
  base_url: http://localhost:9999/v1
  api_key: secret123
episode:
  ticker: MC
  inventory: 100000
  direction: 1
reward:
  collection: harvested
  method: VWAP_TARGET
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "MC", cfg.Episode.Ticker)
	assert.Equal(t, float64(100000), cfg.Episode.Inventory)
	assert.Equal(t, 1, cfg.Episode.Direction)

	// Defaults fill the omitted sections.
	assert.Equal(t, 10, cfg.API.TimeoutSeconds)
	assert.Equal(t, 600, cfg.Sync.MaxAttempts)
	assert.Equal(t, 250, cfg.Sync.PollIntervalMS)
	assert.Equal(t, "rit", cfg.System.Gateway)
	assert.Equal(t, "INFO", cfg.System.LogLevel)
	assert.Equal(t, 9090, cfg.Telemetry.MetricsPort)
}

func TestLoadConfig_EnvExpansion(t *testing.T) {
	t.Setenv("RIT_API_KEY", "from-env")
	path := writeConfigFile(t, `
api:
  base_url: http://localhost:9999/v1
  api_key: ${RIT_API_KEY}
episode:
  ticker: MC
  inventory: 1000
  direction: -1
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Secret("from-env"), cfg.API.APIKey)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_DirectionMustBeSigned(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Episode.Direction = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "episode.direction")
}

func TestValidate_EndBeforeStart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Episode.StartTime = 100
	cfg.Episode.EndTime = 50

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "episode.end_time")
}

func TestValidate_RewardSpelling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Reward.Method = "vwap_target"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reward.method")
}

func TestValidate_MockGatewaySkipsAPICredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.System.Gateway = "mock"
	cfg.API.BaseURL = ""
	cfg.API.APIKey = ""

	assert.NoError(t, cfg.Validate())
}

func TestValidate_RITGatewayRequiresCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.APIKey = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.api_key")
}

func TestSecret_RedactedEverywhere(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.APIKey = "super-secret-key"

	assert.NotContains(t, cfg.String(), "super-secret-key")
	assert.Contains(t, cfg.String(), "[REDACTED]")

	jsonData, err := json.Marshal(cfg.API)
	require.NoError(t, err)
	assert.NotContains(t, string(jsonData), "super-secret-key")

	// %v, %s and %#v formatting must not leak either.
	for _, formatted := range []string{
		fmt.Sprintf("%v", cfg.API.APIKey),
		fmt.Sprintf("%s", cfg.API.APIKey),
		fmt.Sprintf("%#v", cfg.API.APIKey),
	} {
		assert.False(t, strings.Contains(formatted, "super-secret-key"), "leaked via %q", formatted)
	}
}
