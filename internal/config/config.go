package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/psidex/malsim/internal/lib"
	"github.com/psidex/malsim/internal/session"
	"github.com/psidex/malsim/internal/sim"
)

// MalsimConfig is the configuration shared by every malsim command. Command line flags
// are applied on top of it by the caller.
type MalsimConfig struct {
	Session session.Config `yaml:"session"`
	Server  ServerConfig   `yaml:"server"`
	Output  OutputConfig   `yaml:"output"`
	Logging LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
	// HealthAddress is where the gRPC health service listens. Empty disables it.
	HealthAddress   string       `yaml:"health_address"`
	Dark            bool         `yaml:"dark"`
	MaxSessions     int          `yaml:"max_sessions"`
	ShutdownTimeout lib.Duration `yaml:"shutdown_timeout"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
	// Name is the file name, without extension, shared by every rendered output.
	Name string `yaml:"name"`
	// MaxSteps bounds headless runs. Zero means until every node is infected.
	MaxSteps int  `yaml:"max_steps"`
	Dark     bool `yaml:"dark"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func Default() *MalsimConfig {
	return &MalsimConfig{
		Session: session.DefaultConfig(),
		Server: ServerConfig{
			Address:         "127.0.0.1:8080",
			MaxSessions:     64,
			ShutdownTimeout: lib.DurationFrom(5 * time.Second),
		},
		Output: OutputConfig{
			Dir:      ".",
			Name:     "malsim",
			MaxSteps: 1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath is ~/.malsim/config.yaml, or "" if there is no home directory.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".malsim", "config.yaml")
}

// Load reads path, or DefaultPath when path is empty, and applies MALSIM_*
// environment overrides. A missing default file is not an error.
func Load(path string) (*MalsimConfig, error) {
	config := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		switch {
		case err == nil:
			config = fileConfig
		case !explicit && errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromFile decodes a YAML file on top of Default.
func LoadFromFile(path string) (*MalsimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

func (c *MalsimConfig) Validate() error {
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if _, err := lib.ParseSLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Output.MaxSteps < 0 {
		return fmt.Errorf("output: max_steps must be non-negative, got %d", c.Output.MaxSteps)
	}
	if c.Server.MaxSessions < 0 {
		return fmt.Errorf("server: max_sessions must be non-negative, got %d", c.Server.MaxSessions)
	}
	return nil
}

func applyEnvOverrides(config *MalsimConfig) error {
	if v := os.Getenv("MALSIM_STRAIN"); v != "" {
		strain, err := sim.ParseStrain(v)
		if err != nil {
			return fmt.Errorf("MALSIM_STRAIN: %w", err)
		}
		config.Session.Strain = strain
	}
	if v := os.Getenv("MALSIM_PROBABILITY"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MALSIM_PROBABILITY: %w", err)
		}
		config.Session.Probability = f
	}
	if v := os.Getenv("MALSIM_NETWORK_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MALSIM_NETWORK_SIZE: %w", err)
		}
		config.Session.NetworkSize = n
	}
	if v := os.Getenv("MALSIM_TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MALSIM_TICK_INTERVAL: %w", err)
		}
		config.Session.TickInterval = lib.DurationFrom(d)
	}
	if v := os.Getenv("MALSIM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MALSIM_SEED: %w", err)
		}
		config.Session.Seed = seed
	}

	if v := os.Getenv("MALSIM_ADDRESS"); v != "" {
		config.Server.Address = v
	}
	if v := os.Getenv("MALSIM_HEALTH_ADDRESS"); v != "" {
		config.Server.HealthAddress = v
	}
	if v := os.Getenv("MALSIM_DARK"); v != "" {
		dark := v == "true" || v == "1"
		config.Server.Dark = dark
		config.Output.Dark = dark
	}

	if v := os.Getenv("MALSIM_OUTPUT_DIR"); v != "" {
		config.Output.Dir = v
	}
	if v := os.Getenv("MALSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	return nil
}

// Save writes config to path as YAML, creating parent directories.
func Save(config *MalsimConfig, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
