package engine

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ApplicationConfig is the startup configuration, loaded from a TOML file
// next to the binary. Fields left out of the file keep their defaults.
type ApplicationConfig struct {
	Name     string `toml:"name"`
	LogLevel string `toml:"log_level"`

	// Throttle target in frames per second. Zero disables the throttle.
	TargetFPS int `toml:"target_fps"`

	// Fixed physics rate in steps per second and the per-frame step cap.
	PhysicsRate     float64 `toml:"physics_rate"`
	MaxPhysicsSteps int     `toml:"max_physics_steps"`

	JobWorkers   int `toml:"job_workers"`
	JobQueueSize int `toml:"job_queue_size"`

	StartPosX   uint32 `toml:"start_pos_x"`
	StartPosY   uint32 `toml:"start_pos_y"`
	StartWidth  uint32 `toml:"start_width"`
	StartHeight uint32 `toml:"start_height"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:            "Ember Application",
		LogLevel:        "info",
		TargetFPS:       60,
		PhysicsRate:     120,
		MaxPhysicsSteps: 4,
		JobWorkers:      4,
		JobQueueSize:    64,
		StartPosX:       100,
		StartPosY:       100,
		StartWidth:      1280,
		StartHeight:     720,
	}
}

// LoadApplicationConfig reads the TOML file at path over the defaults.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	cfg := DefaultApplicationConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	return cfg, nil
}
