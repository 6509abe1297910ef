// Package config loads the director's configuration: built-in defaults,
// overlaid by an optional YAML file, overlaid by environment variables.
// Durations in the file are plain numbers with the unit in the field name.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/peepingotter/director/internal/adaptive"
	"github.com/peepingotter/director/internal/analyst"
	"github.com/peepingotter/director/internal/energy"
	"github.com/peepingotter/director/internal/memory"
	"github.com/peepingotter/director/internal/sensor"
	"github.com/peepingotter/director/internal/store"
)

// Config is the full operator-facing configuration.
type Config struct {
	// AgentName is the name viewers address the agent by. Direct address
	// detection matches against it.
	AgentName string `yaml:"agent_name"`

	// DataDir holds the archive database and user profiles.
	DataDir string `yaml:"data_dir"`

	// SocketPath is the control socket location.
	SocketPath string `yaml:"socket_path"`

	Store    StoreConfig    `yaml:"store"`
	Energy   EnergyConfig   `yaml:"energy"`
	Adaptive AdaptiveConfig `yaml:"adaptive"`
	Memory   MemoryConfig   `yaml:"memory"`
	Analyst  AnalystConfig  `yaml:"analyst"`
	Engine   EngineConfig   `yaml:"engine"`
	Sensor   SensorConfig   `yaml:"sensor"`
}

// StoreConfig tunes the working-memory tier windows.
type StoreConfig struct {
	WindowImmediateSeconds  int `yaml:"window_immediate_seconds"`
	WindowRecentSeconds     int `yaml:"window_recent_seconds"`
	WindowBackgroundSeconds int `yaml:"window_background_seconds"`
}

// EnergyConfig tunes the speech budget.
type EnergyConfig struct {
	Max       float64 `yaml:"max"`
	RegenRate float64 `yaml:"regen_rate"`
}

// AdaptiveConfig tunes the interjection threshold regimes.
type AdaptiveConfig struct {
	BaseThreshold    float64 `yaml:"base_threshold"`
	ChaosThreshold   float64 `yaml:"chaos_threshold"`
	DeadAirThreshold float64 `yaml:"dead_air_threshold"`
}

// MemoryConfig tunes long-term memory maintenance.
type MemoryConfig struct {
	RAMCap           int     `yaml:"ram_cap"`
	DecayRate        float64 `yaml:"decay_rate"`
	PromoteThreshold float64 `yaml:"promote_threshold"`
}

// AnalystConfig tunes the model client. The API key is only read from the
// environment, never from the file.
type AnalystConfig struct {
	Model             string  `yaml:"model"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	MaxConcurrent     int64   `yaml:"max_concurrent"`
	Disabled          bool    `yaml:"disabled"`
}

// EngineConfig tunes the two decision cadences.
type EngineConfig struct {
	ReflexIntervalMillis     int `yaml:"reflex_interval_millis"`
	ReflectionIntervalMillis int `yaml:"reflection_interval_millis"`
}

// SensorConfig tunes the adapter reconnect policy.
type SensorConfig struct {
	MaxBackoffSeconds int `yaml:"max_backoff_seconds"`
}

// Default returns the built-in configuration.
func Default() Config {
	st := store.DefaultConfig()
	en := energy.DefaultConfig()
	ad := adaptive.DefaultConfig()
	me := memory.DefaultConfig()
	an := analyst.DefaultClientConfig()
	return Config{
		AgentName:  "otter",
		DataDir:    filepath.Join(".", ".director"),
		SocketPath: filepath.Join(os.TempDir(), "director.sock"),
		Store: StoreConfig{
			WindowImmediateSeconds:  int(st.WindowImmediate / time.Second),
			WindowRecentSeconds:     int(st.WindowRecent / time.Second),
			WindowBackgroundSeconds: int(st.WindowBackground / time.Second),
		},
		Energy: EnergyConfig{
			Max:       en.Max,
			RegenRate: en.RegenRate,
		},
		Adaptive: AdaptiveConfig{
			BaseThreshold:    ad.BaseThreshold,
			ChaosThreshold:   ad.ChaosThreshold,
			DeadAirThreshold: ad.DeadAirThreshold,
		},
		Memory: MemoryConfig{
			RAMCap:           me.RAMCap,
			DecayRate:        me.DecayRate,
			PromoteThreshold: me.PromoteThreshold,
		},
		Analyst: AnalystConfig{
			Model:             an.Model,
			RequestsPerSecond: an.RequestsPerSecond,
			MaxConcurrent:     analyst.DefaultEnricherConfig().MaxConcurrent,
		},
		Engine: EngineConfig{
			ReflexIntervalMillis:     1000,
			ReflectionIntervalMillis: 5000,
		},
		Sensor: SensorConfig{
			MaxBackoffSeconds: int(sensor.DefaultConfig().MaxBackoff / time.Second),
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (an
// empty path or a missing file is not an error), then environment overrides.
//
// Environment variables:
//   - ANTHROPIC_API_KEY: model API key (required unless analyst.disabled)
//   - DIRECTOR_AGENT_NAME: overrides agent_name
//   - DIRECTOR_DATA_DIR: overrides data_dir
//   - DIRECTOR_SOCKET: overrides socket_path
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if v := os.Getenv("DIRECTOR_AGENT_NAME"); v != "" {
		cfg.AgentName = v
	}
	if v := os.Getenv("DIRECTOR_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("DIRECTOR_SOCKET"); v != "" {
		cfg.SocketPath = v
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that would misbehave at
// runtime rather than fail loudly.
func (c Config) Validate() error {
	if c.AgentName == "" {
		return fmt.Errorf("agent_name cannot be empty")
	}
	if c.Store.WindowImmediateSeconds <= 0 {
		return fmt.Errorf("store.window_immediate_seconds must be positive (got %d)", c.Store.WindowImmediateSeconds)
	}
	if c.Store.WindowRecentSeconds <= c.Store.WindowImmediateSeconds {
		return fmt.Errorf("store.window_recent_seconds (%d) must exceed window_immediate_seconds (%d)",
			c.Store.WindowRecentSeconds, c.Store.WindowImmediateSeconds)
	}
	if c.Store.WindowBackgroundSeconds <= c.Store.WindowRecentSeconds {
		return fmt.Errorf("store.window_background_seconds (%d) must exceed window_recent_seconds (%d)",
			c.Store.WindowBackgroundSeconds, c.Store.WindowRecentSeconds)
	}
	if c.Energy.Max <= 0 {
		return fmt.Errorf("energy.max must be positive (got %g)", c.Energy.Max)
	}
	if c.Energy.RegenRate < 0 {
		return fmt.Errorf("energy.regen_rate cannot be negative (got %g)", c.Energy.RegenRate)
	}
	if c.Adaptive.BaseThreshold <= 0 || c.Adaptive.BaseThreshold > 1 {
		return fmt.Errorf("adaptive.base_threshold must be in (0, 1] (got %g)", c.Adaptive.BaseThreshold)
	}
	if c.Memory.RAMCap < 1 {
		return fmt.Errorf("memory.ram_cap must be at least 1 (got %d)", c.Memory.RAMCap)
	}
	if c.Engine.ReflexIntervalMillis < 100 {
		return fmt.Errorf("engine.reflex_interval_millis must be at least 100 (got %d)", c.Engine.ReflexIntervalMillis)
	}
	if c.Engine.ReflectionIntervalMillis < c.Engine.ReflexIntervalMillis {
		return fmt.Errorf("engine.reflection_interval_millis (%d) must be >= reflex_interval_millis (%d)",
			c.Engine.ReflectionIntervalMillis, c.Engine.ReflexIntervalMillis)
	}
	return nil
}

// StoreConfig materializes the store package's configuration.
func (c Config) StoreConfig() store.Config {
	sc := store.DefaultConfig()
	sc.WindowImmediate = time.Duration(c.Store.WindowImmediateSeconds) * time.Second
	sc.WindowRecent = time.Duration(c.Store.WindowRecentSeconds) * time.Second
	sc.WindowBackground = time.Duration(c.Store.WindowBackgroundSeconds) * time.Second
	return sc
}

// EnergyConfig materializes the energy package's configuration.
func (c Config) EnergyConfig() energy.Config {
	ec := energy.DefaultConfig()
	ec.Max = c.Energy.Max
	ec.RegenRate = c.Energy.RegenRate
	ec.StartLevel = c.Energy.Max
	return ec
}

// AdaptiveConfig materializes the adaptive package's configuration.
func (c Config) AdaptiveConfig() adaptive.Config {
	ac := adaptive.DefaultConfig()
	ac.BaseThreshold = c.Adaptive.BaseThreshold
	ac.ChaosThreshold = c.Adaptive.ChaosThreshold
	ac.DeadAirThreshold = c.Adaptive.DeadAirThreshold
	return ac
}

// MemoryConfig materializes the memory package's configuration.
func (c Config) MemoryConfig() memory.Config {
	mc := memory.DefaultConfig()
	mc.RAMCap = c.Memory.RAMCap
	mc.DecayRate = c.Memory.DecayRate
	mc.PromoteThreshold = c.Memory.PromoteThreshold
	return mc
}

// AnalystConfig materializes the model client configuration. The key comes
// from ANTHROPIC_API_KEY.
func (c Config) AnalystConfig() analyst.ClientConfig {
	ac := analyst.DefaultClientConfig()
	ac.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	if c.Analyst.Model != "" {
		ac.Model = c.Analyst.Model
	}
	if c.Analyst.RequestsPerSecond > 0 {
		ac.RequestsPerSecond = c.Analyst.RequestsPerSecond
	}
	return ac
}

// EnricherConfig materializes the enrichment concurrency bound.
func (c Config) EnricherConfig() analyst.EnricherConfig {
	ec := analyst.DefaultEnricherConfig()
	if c.Analyst.MaxConcurrent > 0 {
		ec.MaxConcurrent = c.Analyst.MaxConcurrent
	}
	return ec
}

// SensorConfig materializes the reconnect policy.
func (c Config) SensorConfig() sensor.Config {
	sc := sensor.DefaultConfig()
	if c.Sensor.MaxBackoffSeconds > 0 {
		sc.MaxBackoff = time.Duration(c.Sensor.MaxBackoffSeconds) * time.Second
	}
	return sc
}

// ReflexInterval returns the fast loop cadence.
func (c Config) ReflexInterval() time.Duration {
	return time.Duration(c.Engine.ReflexIntervalMillis) * time.Millisecond
}

// ReflectionInterval returns the slow loop cadence.
func (c Config) ReflectionInterval() time.Duration {
	return time.Duration(c.Engine.ReflectionIntervalMillis) * time.Millisecond
}

// ArchivePath returns the sqlite archive location under DataDir.
func (c Config) ArchivePath() string {
	return filepath.Join(c.DataDir, "archive.db")
}

// ProfileDir returns the user profile directory under DataDir.
func (c Config) ProfileDir() string {
	return filepath.Join(c.DataDir, "profiles")
}
