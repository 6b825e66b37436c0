package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psidex/malsim/internal/sim"
)

func TestDefault(t *testing.T) {
	config := Default()

	assert.Equal(t, sim.Virus, config.Session.Strain)
	assert.Equal(t, 0.3, config.Session.Probability)
	assert.Equal(t, 20, config.Session.NetworkSize)
	assert.Equal(t, 500*time.Millisecond, config.Session.TickInterval.Duration)
	assert.Equal(t, "127.0.0.1:8080", config.Server.Address)
	assert.Empty(t, config.Server.HealthAddress)
	assert.Equal(t, "info", config.Logging.Level)
	assert.NoError(t, config.Validate())
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	configContent := `
session:
  strain: worm
  probability: 0.7
  network_size: 35
  tick_interval: 250ms
  seed: 99

server:
  address: 0.0.0.0:9000
  health_address: 0.0.0.0:9001
  dark: true

logging:
  level: debug
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	config, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, sim.Worm, config.Session.Strain)
	assert.Equal(t, 0.7, config.Session.Probability)
	assert.Equal(t, 35, config.Session.NetworkSize)
	assert.Equal(t, 250*time.Millisecond, config.Session.TickInterval.Duration)
	assert.Equal(t, uint64(99), config.Session.Seed)
	assert.Equal(t, "0.0.0.0:9000", config.Server.Address)
	assert.Equal(t, "0.0.0.0:9001", config.Server.HealthAddress)
	assert.True(t, config.Server.Dark)
	assert.Equal(t, "debug", config.Logging.Level)

	// Unset keys keep their defaults.
	assert.Equal(t, 64, config.Server.MaxSessions)
	assert.Equal(t, "malsim", config.Output.Name)
	assert.NoError(t, config.Validate())
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	badPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("session:\n  strain: plague\n"), 0o644))
	_, err = LoadFromFile(badPath)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	config, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), config)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MALSIM_STRAIN", "trojan")
	t.Setenv("MALSIM_PROBABILITY", "0.9")
	t.Setenv("MALSIM_NETWORK_SIZE", "45")
	t.Setenv("MALSIM_TICK_INTERVAL", "1s")
	t.Setenv("MALSIM_SEED", "5")
	t.Setenv("MALSIM_ADDRESS", ":8081")
	t.Setenv("MALSIM_DARK", "1")
	t.Setenv("MALSIM_LOG_LEVEL", "warn")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, sim.Trojan, config.Session.Strain)
	assert.Equal(t, 0.9, config.Session.Probability)
	assert.Equal(t, 45, config.Session.NetworkSize)
	assert.Equal(t, time.Second, config.Session.TickInterval.Duration)
	assert.Equal(t, uint64(5), config.Session.Seed)
	assert.Equal(t, ":8081", config.Server.Address)
	assert.True(t, config.Server.Dark)
	assert.True(t, config.Output.Dark)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestEnvOverrideErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	for _, env := range []string{"MALSIM_STRAIN", "MALSIM_PROBABILITY", "MALSIM_NETWORK_SIZE", "MALSIM_TICK_INTERVAL", "MALSIM_SEED"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, "not-a-value")
			_, err := Load("")
			assert.ErrorContains(t, err, env)
		})
	}
}

func TestValidate(t *testing.T) {
	config := Default()
	config.Session.NetworkSize = 51
	assert.ErrorContains(t, config.Validate(), "session")

	config = Default()
	config.Logging.Level = "loud"
	assert.ErrorContains(t, config.Validate(), "logging")

	config = Default()
	config.Output.MaxSteps = -1
	assert.ErrorContains(t, config.Validate(), "max_steps")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := Default()
	config.Session.Strain = sim.Trojan
	config.Session.Seed = 12
	require.NoError(t, Save(config, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}
