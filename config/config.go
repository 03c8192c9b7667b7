// Package config loads game settings from YAML. Files only need to name the
// values they change; everything else keeps the embedded defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/plus3/fruitmerge/fruit"
	"github.com/plus3/fruitmerge/gameover"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

type Config struct {
	Area     Area            `yaml:"area"`
	Physics  Physics         `yaml:"physics"`
	Drop     Drop            `yaml:"drop"`
	Nudge    Nudge           `yaml:"nudge"`
	Fog      Fog             `yaml:"fog"`
	GameOver gameover.Config `yaml:"game_over"`

	// Fruits replaces the built-in fruit table when set.
	Fruits []fruit.Type `yaml:"fruits"`
}

type Area struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	WallThickness float64 `yaml:"wall_thickness"`
}

type Physics struct {
	TickRate    float64 `yaml:"tick_rate"`
	Gravity     float64 `yaml:"gravity"`
	Iterations  uint    `yaml:"iterations"`
	Restitution float64 `yaml:"restitution"`
	Friction    float64 `yaml:"friction"`
	AirFriction float64 `yaml:"air_friction"`
}

type Drop struct {
	MaxSpin float64 `yaml:"max_spin"`
}

type Nudge struct {
	MaxAngle           float64 `yaml:"max_angle"`
	MaxAngularVelocity float64 `yaml:"max_angular_velocity"`
}

type Fog struct {
	Scale float64 `yaml:"scale"`
	TTL   float64 `yaml:"ttl"`
}

// Default returns the embedded settings.
func Default() Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic("config: invalid embedded defaults: " + err.Error())
	}
	return cfg
}

// Parse overlays raw on the embedded defaults and validates the result.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return cfg, fmt.Errorf("default.yaml: %w", err)
	}
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Load reads the file at path. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Parse(nil)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(raw)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every out of range value.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Area.Width > 0, "area.width must be positive, got %v", c.Area.Width)
	check(c.Area.Height > 0, "area.height must be positive, got %v", c.Area.Height)
	check(c.Area.WallThickness > 0, "area.wall_thickness must be positive, got %v", c.Area.WallThickness)

	check(c.Physics.TickRate > 0, "physics.tick_rate must be positive, got %v", c.Physics.TickRate)
	check(c.Physics.Iterations > 0, "physics.iterations must be positive")
	check(c.Physics.Restitution >= 0, "physics.restitution must not be negative, got %v", c.Physics.Restitution)
	check(c.Physics.Friction >= 0, "physics.friction must not be negative, got %v", c.Physics.Friction)
	check(c.Physics.AirFriction >= 0 && c.Physics.AirFriction < 1,
		"physics.air_friction must be in [0, 1), got %v", c.Physics.AirFriction)

	check(c.Drop.MaxSpin >= 0, "drop.max_spin must not be negative, got %v", c.Drop.MaxSpin)
	check(c.Nudge.MaxAngle >= 0, "nudge.max_angle must not be negative, got %v", c.Nudge.MaxAngle)
	check(c.Nudge.MaxAngularVelocity >= 0, "nudge.max_angular_velocity must not be negative, got %v", c.Nudge.MaxAngularVelocity)
	check(c.Fog.Scale >= 0, "fog.scale must not be negative, got %v", c.Fog.Scale)
	check(c.Fog.TTL >= 0, "fog.ttl must not be negative, got %v", c.Fog.TTL)

	check(c.GameOver.SettleSpeed >= 0, "game_over.settle_speed must not be negative, got %v", c.GameOver.SettleSpeed)
	check(c.GameOver.SettleTicks > 0, "game_over.settle_ticks must be positive, got %v", c.GameOver.SettleTicks)

	if len(c.Fruits) > 0 {
		if _, err := fruit.NewTable(c.Fruits); err != nil {
			errs = append(errs, fmt.Errorf("fruits: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Table returns the configured fruit table.
func (c Config) Table() (*fruit.Table, error) {
	if len(c.Fruits) == 0 {
		return fruit.Default(), nil
	}
	return fruit.NewTable(c.Fruits)
}

// TickDuration is the simulated time covered by one tick, in seconds.
func (c Config) TickDuration() float64 {
	return 1 / c.Physics.TickRate
}
