package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	coretypes "github.com/projecteru2/core/types"
)

// Config holds global configuration.
type Config struct {
	// ImagesDir is the registry root: template image filenames are looked
	// up relative to it.
	ImagesDir string `json:"images_dir" mapstructure:"images_dir"`
	// PoolSize bounds concurrent version resolution.
	// Defaults to runtime.NumCPU() if zero.
	PoolSize int `json:"pool_size" mapstructure:"pool_size"`
	// Log configuration, uses eru core's ServerLogConfig.
	Log coretypes.ServerLogConfig `json:"log" mapstructure:"log"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ImagesDir: defaultImagesDir(),
		PoolSize:  runtime.NumCPU(),
		Log: coretypes.ServerLogConfig{
			Level:      "info",
			MaxSize:    500,
			MaxAge:     28,
			MaxBackups: 3,
		},
	}
}

// Normalize fills zero values and rejects unusable settings.
func (c *Config) Normalize() error {
	if c.ImagesDir == "" {
		return fmt.Errorf("images_dir is required")
	}
	abs, err := filepath.Abs(c.ImagesDir)
	if err != nil {
		return fmt.Errorf("resolve images_dir %s: %w", c.ImagesDir, err)
	}
	c.ImagesDir = abs
	if c.PoolSize <= 0 {
		c.PoolSize = runtime.NumCPU()
	}
	return nil
}

func defaultImagesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "images"
	}
	return filepath.Join(home, "GNS3", "images")
}
