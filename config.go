package gdbox2d

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/setanarut/vec"
)

// Config holds the space defaults that the engine would otherwise read
// from its project settings.
//
//	gravity = 980.0
//	gravity_vector = { x = 0.0, y = 1.0 }
//	solver_iterations = 8
type Config struct {
	Gravity          float64  `toml:"gravity"`
	GravityVector    vec.Vec2 `toml:"gravity_vector"`
	LinearDamp       float64  `toml:"linear_damp"`
	AngularDamp      float64  `toml:"angular_damp"`
	SolverIterations int      `toml:"solver_iterations"`
	AllowSleep       bool     `toml:"allow_sleep"`
	LogLevel         string   `toml:"log_level"`
}

// DefaultConfig returns the values a project starts with.
func DefaultConfig() Config {
	return Config{
		Gravity:          980,
		GravityVector:    vec.Vec2{0, 1},
		LinearDamp:       0.1,
		AngularDamp:      1,
		SolverIterations: 8,
		AllowSleep:       true,
		LogLevel:         "info",
	}
}

// ParseConfig decodes TOML on top of DefaultConfig, so missing keys keep
// their defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a TOML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("load config: %w", err)
	}
	return ParseConfig(data)
}

// Marshal encodes the config back to TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

func (c Config) Validate() error {
	if c.SolverIterations < 1 {
		return fmt.Errorf("%w: solver_iterations must be at least 1, got %d", ErrInvalidConfig, c.SolverIterations)
	}
	if c.LinearDamp < 0 || c.AngularDamp < 0 {
		return fmt.Errorf("%w: damping must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. An empty level means info.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}

// GravityForce is gravity * gravity_vector in caller units.
func (c Config) GravityForce() vec.Vec2 {
	return c.GravityVector.Scale(c.Gravity)
}
