package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/relight/engine/core"
)

type ApplicationConfig struct {
	// The application name used in log output.
	Name     string `toml:"name"`
	LogLevel string `toml:"log_level"`
	// Project document to load. Relative paths are resolved against the
	// directory of the configuration file.
	ProjectPath string `toml:"project"`
	// Number of workers evaluating item effect chains within a frame.
	Workers int `toml:"workers"`
	// Enables the timeline scan tier of the light directory.
	FallbackScan bool `toml:"fallback_scan"`
	// Reloads map images when they change on disk.
	HotReload       bool   `toml:"hot_reload"`
	MaxTextureCount uint32 `toml:"max_textures"`
	// First frame to render.
	StartFrame int64 `toml:"start_frame"`
	// Frame to stop at, exclusive. Negative means the project length.
	EndFrame int64 `toml:"end_frame"`
	// Paces the run at the project frame rate instead of running flat out.
	Realtime bool `toml:"realtime"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:            "Relight",
		LogLevel:        "info",
		Workers:         runtime.NumCPU(),
		FallbackScan:    true,
		HotReload:       false,
		MaxTextureCount: 256,
		StartFrame:      0,
		EndFrame:        -1,
	}
}

// LoadApplicationConfig reads a TOML configuration on top of the defaults.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config, err := ParseApplicationConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if config.ProjectPath != "" && !filepath.IsAbs(config.ProjectPath) {
		config.ProjectPath = filepath.Join(filepath.Dir(path), config.ProjectPath)
	}
	return config, nil
}

func ParseApplicationConfig(data []byte) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(config); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *ApplicationConfig) validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be > 0, got %d", core.ErrInvalidConfig, c.Workers)
	}
	if c.MaxTextureCount == 0 {
		return fmt.Errorf("%w: max_textures must be > 0", core.ErrInvalidConfig)
	}
	if c.StartFrame < 0 {
		return fmt.Errorf("%w: start_frame must be >= 0", core.ErrInvalidConfig)
	}
	if c.EndFrame >= 0 && c.EndFrame < c.StartFrame {
		return fmt.Errorf("%w: end_frame %d is before start_frame %d", core.ErrInvalidConfig, c.EndFrame, c.StartFrame)
	}
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
