package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envTestConfig struct {
	Port int `env:"DIAMONDX_TEST_PORT" envDefault:"123"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig
	require.NoError(t, ParseEnv(&cfg))
	assert.Equal(t, 123, cfg.Port)
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("DIAMONDX_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	assert.ErrorContains(t, err, "parse env:")
}

func TestLoadSim_Defaults(t *testing.T) {
	cfg, err := LoadSim()
	require.NoError(t, err)

	assert.Equal(t, Sim{
		Games:        1000,
		MaxSteps:     2000,
		PitchSeconds: 20,
		OTelEnabled:  true,
	}, cfg)
}

func TestLoadSim_Overrides(t *testing.T) {
	t.Setenv("DIAMONDX_SEED", "42")
	t.Setenv("DIAMONDX_GAMES", "50")
	t.Setenv("DIAMONDX_WORKERS", "4")
	t.Setenv("DIAMONDX_DB", "/tmp/runs.db")
	t.Setenv("DIAMONDX_ROSTER", "teams.cue")
	t.Setenv("DIAMONDX_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("DIAMONDX_OTEL_ENABLED", "false")

	cfg, err := LoadSim()
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 50, cfg.Games)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "/tmp/runs.db", cfg.DB)
	assert.Equal(t, "teams.cue", cfg.Roster)
	assert.Equal(t, "http://localhost:4318", cfg.OTelEndpoint)
	assert.False(t, cfg.OTelEnabled)
}

func TestLoadSim_BadValue(t *testing.T) {
	t.Setenv("DIAMONDX_GAMES", "many")
	_, err := LoadSim()
	assert.Error(t, err)
}
