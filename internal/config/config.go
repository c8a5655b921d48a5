// Package config loads the TOML configuration file for the ecsloopd demo
// command: scheduler sizing, logging, the debug server, and profiling.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root of the TOML configuration file.
type Config struct {
	Scheduler SchedulerConfig `toml:"scheduler"`
	Logging   LoggingConfig   `toml:"logging"`
	Debug     DebugConfig     `toml:"debug"`
	Profiling ProfilingConfig `toml:"profiling"`
}

// SchedulerConfig controls the App's worker pool and tick rate.
type SchedulerConfig struct {
	Workers  int           `toml:"workers"`
	TickRate time.Duration `toml:"tick_rate"`
}

// LoggingConfig controls the zap logger's verbosity and encoding.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// DebugConfig controls the optional chi-routed diagnostics HTTP server.
type DebugConfig struct {
	Enabled     bool   `toml:"enabled"`
	BindAddress string `toml:"bind_address"`
}

// ProfilingConfig controls the optional pkg/profile wrapper.
type ProfilingConfig struct {
	Mode string `toml:"mode"` // "", "cpu", "mem", "goroutine"
}

// Load reads and parses the TOML file at path, applying defaults() first so
// any field the file omits keeps a sane value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			Workers:  0, // 0 means runtime.GOMAXPROCS(0)
			TickRate: 50 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Debug: DebugConfig{
			Enabled:     false,
			BindAddress: "127.0.0.1:9091",
		},
		Profiling: ProfilingConfig{
			Mode: "",
		},
	}
}

// Default returns the built-in defaults without reading any file, for
// callers that want to run without a config path.
func Default() *Config {
	return defaults()
}
