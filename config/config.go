// Package config loads runtime settings for hearth binaries from TOML or
// YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/plus3/hearth/ecs"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("config: invalid")
	// ErrUnknownFormat is returned for file extensions other than .toml,
	// .yaml and .yml.
	ErrUnknownFormat = errors.New("config: unknown format")
)

type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

type Config struct {
	World   WorldConfig   `toml:"world" yaml:"world"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Host    HostConfig    `toml:"host" yaml:"host"`
	Stress  StressConfig  `toml:"stress" yaml:"stress"`
}

type WorldConfig struct {
	FixedStep      float64 `toml:"fixed_step" yaml:"fixed_step"`           // seconds per fixed update
	MaxAccumulated float64 `toml:"max_accumulated" yaml:"max_accumulated"` // backlog ceiling in seconds
	TimeScale      float64 `toml:"time_scale" yaml:"time_scale"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

type HostConfig struct {
	Title       string `toml:"title" yaml:"title"`
	Width       int    `toml:"width" yaml:"width"`
	Height      int    `toml:"height" yaml:"height"`
	TPS         int    `toml:"tps" yaml:"tps"`
	PanicPolicy string `toml:"panic_policy" yaml:"panic_policy"` // "abort" or "skip"
	DebugUI     bool   `toml:"debug_ui" yaml:"debug_ui"`
}

type StressConfig struct {
	Entities  int           `toml:"entities" yaml:"entities"`
	Duration  time.Duration `toml:"duration" yaml:"duration"`
	ChurnRate float64       `toml:"churn_rate" yaml:"churn_rate"` // fraction of entities replaced per second
}

// Defaults returns the configuration used when no file is given.
func Defaults() *Config {
	return &Config{
		World: WorldConfig{
			FixedStep:      ecs.DefaultFixedStep,
			MaxAccumulated: ecs.DefaultMaxAccumulated,
			TimeScale:      1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Host: HostConfig{
			Title:       "hearth",
			Width:       1280,
			Height:      720,
			TPS:         60,
			PanicPolicy: "abort",
		},
		Stress: StressConfig{
			Entities:  10000,
			Duration:  5 * time.Second,
			ChurnRate: 0.05,
		},
	}
}

// Load reads path over Defaults, picking the format from its extension.
func Load(path string) (*Config, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func formatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Parse decodes data over Defaults and validates the result. Keys missing
// from data keep their default.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Defaults()
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	switch {
	case c.World.FixedStep <= 0:
		return fmt.Errorf("%w: world.fixed_step must be positive, got %v", ErrInvalid, c.World.FixedStep)
	case c.World.MaxAccumulated <= 0:
		return fmt.Errorf("%w: world.max_accumulated must be positive, got %v", ErrInvalid, c.World.MaxAccumulated)
	case c.World.MaxAccumulated < c.World.FixedStep:
		return fmt.Errorf("%w: world.max_accumulated %v is below world.fixed_step %v", ErrInvalid, c.World.MaxAccumulated, c.World.FixedStep)
	case c.World.TimeScale < 0:
		return fmt.Errorf("%w: world.time_scale must not be negative, got %v", ErrInvalid, c.World.TimeScale)
	case c.Host.Width <= 0 || c.Host.Height <= 0:
		return fmt.Errorf("%w: host size %dx%d", ErrInvalid, c.Host.Width, c.Host.Height)
	case c.Host.TPS <= 0:
		return fmt.Errorf("%w: host.tps must be positive, got %d", ErrInvalid, c.Host.TPS)
	case c.Host.PanicPolicy != "abort" && c.Host.PanicPolicy != "skip":
		return fmt.Errorf("%w: host.panic_policy %q", ErrInvalid, c.Host.PanicPolicy)
	case c.Logging.Format != "json" && c.Logging.Format != "console":
		return fmt.Errorf("%w: logging.format %q", ErrInvalid, c.Logging.Format)
	case c.Stress.Entities < 0:
		return fmt.Errorf("%w: stress.entities must not be negative, got %d", ErrInvalid, c.Stress.Entities)
	case c.Stress.ChurnRate < 0 || c.Stress.ChurnRate > 1:
		return fmt.Errorf("%w: stress.churn_rate must be within [0, 1], got %v", ErrInvalid, c.Stress.ChurnRate)
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}

// Options maps the world section to ecs options.
func (c WorldConfig) Options() []ecs.Option {
	return []ecs.Option{
		ecs.WithFixedStep(c.FixedStep),
		ecs.WithMaxAccumulated(c.MaxAccumulated),
		ecs.WithTimeScale(c.TimeScale),
	}
}
