package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psidex/malsim/internal/lib"
	"github.com/psidex/malsim/internal/sim"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"max settings", func(c *Config) { c.Probability = 1; c.NetworkSize = 50; c.Strain = sim.Trojan }, ""},
		{"min settings", func(c *Config) { c.Probability = 0.1; c.NetworkSize = 10 }, ""},
		{"tenths are accepted", func(c *Config) { c.Probability = 0.7 }, ""},
		{"no strain", func(c *Config) { c.Strain = sim.None }, "Strain"},
		{"probability too low", func(c *Config) { c.Probability = 0 }, "Probability: must be at least 0.1"},
		{"probability too high", func(c *Config) { c.Probability = 1.5 }, "Probability: must be at most 1"},
		{"probability off step", func(c *Config) { c.Probability = 0.35 }, "Probability: must be a multiple of 0.1"},
		{"size too small", func(c *Config) { c.NetworkSize = 5 }, "NetworkSize: must be at least 10"},
		{"size off step", func(c *Config) { c.NetworkSize = 12 }, "NetworkSize: must be a multiple of 5"},
		{"tick too fast", func(c *Config) { c.TickInterval = lib.DurationFrom(time.Millisecond) }, "TickInterval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strain = sim.Worm
	cfg.Probability = 0.4
	assert.InDelta(t, 0.6, cfg.Params().Chance(), 1e-9)
}
