package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the player control configuration
type Config struct {
	// Gesture recognition thresholds
	Gesture GestureConfig `yaml:"gesture"`

	// Control overlay auto-hide behavior
	Overlay OverlayConfig `yaml:"overlay"`

	// Thumbnail sampling and encoding
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`

	// Subtitle track handling
	Subtitle SubtitleConfig `yaml:"subtitle"`

	// Render loop scheduling
	Render RenderConfig `yaml:"render"`
}

// GestureConfig holds tap and scrub gesture thresholds
type GestureConfig struct {
	DoubleTapWindowMs int     `yaml:"double_tap_window_ms"` // window for a second tap/click to qualify
	JumpSeconds       float64 `yaml:"jump_seconds"`         // double-tap seek jump distance
	EdgeZoneFraction  float64 `yaml:"edge_zone_fraction"`   // width fraction of the left/right jump zones
}

// OverlayConfig controls overlay auto-hide timing
type OverlayConfig struct {
	MouseHideDelayMs int `yaml:"mouse_hide_delay_ms"`
	TouchHideDelayMs int `yaml:"touch_hide_delay_ms"`
}

// ThumbnailConfig controls preview thumbnail generation
type ThumbnailConfig struct {
	Iterations      int     `yaml:"iterations"`        // binary-subdivision iteration budget
	MaxEdge         int     `yaml:"max_edge"`          // bounding box for downscaled previews, pixels
	Quality         float32 `yaml:"quality"`           // lossy WebP quality factor, 0-100
	SampleTimeoutMs int     `yaml:"sample_timeout_ms"` // per-sample decode timeout
}

// SubtitleConfig controls subtitle track loading
type SubtitleConfig struct {
	FetchTimeoutMs int  `yaml:"fetch_timeout_ms"`
	WatchFiles     bool `yaml:"watch_files"` // reload local tracks on file change
}

// RenderConfig controls the reconciliation loop
type RenderConfig struct {
	FrameIntervalMs int `yaml:"frame_interval_ms"` // ticker fallback when the host has no refresh callback
}

// Default returns a configuration with all default values set
func Default() *Config {
	return &Config{
		Gesture: GestureConfig{
			DoubleTapWindowMs: 300,
			JumpSeconds:       10,
			EdgeZoneFraction:  0.25,
		},
		Overlay: OverlayConfig{
			MouseHideDelayMs: 3000,
			TouchHideDelayMs: 5000,
		},
		Thumbnail: ThumbnailConfig{
			Iterations:      5,
			MaxEdge:         160,
			Quality:         75,
			SampleTimeoutMs: 2000,
		},
		Subtitle: SubtitleConfig{
			FetchTimeoutMs: 10000,
			WatchFiles:     true,
		},
		Render: RenderConfig{
			FrameIntervalMs: 16,
		},
	}
}

// Load reads a YAML configuration file, applying defaults for absent fields
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Gesture.DoubleTapWindowMs < 50 || c.Gesture.DoubleTapWindowMs > 2000 {
		return &ValidationError{Field: "gesture.double_tap_window_ms", Message: "must be between 50 and 2000 milliseconds"}
	}
	if c.Gesture.JumpSeconds <= 0 {
		return &ValidationError{Field: "gesture.jump_seconds", Message: "must be positive"}
	}
	if c.Gesture.EdgeZoneFraction <= 0 || c.Gesture.EdgeZoneFraction >= 0.5 {
		return &ValidationError{Field: "gesture.edge_zone_fraction", Message: "must be between 0 and 0.5 exclusive"}
	}
	if c.Overlay.MouseHideDelayMs < 500 {
		return &ValidationError{Field: "overlay.mouse_hide_delay_ms", Message: "must be at least 500 milliseconds"}
	}
	if c.Overlay.TouchHideDelayMs < c.Overlay.MouseHideDelayMs {
		return &ValidationError{Field: "overlay.touch_hide_delay_ms", Message: "must not be shorter than the mouse delay"}
	}
	if c.Thumbnail.Iterations < 1 || c.Thumbnail.Iterations > 10 {
		return &ValidationError{Field: "thumbnail.iterations", Message: "must be between 1 and 10"}
	}
	if c.Thumbnail.MaxEdge < 16 || c.Thumbnail.MaxEdge > 1024 {
		return &ValidationError{Field: "thumbnail.max_edge", Message: "must be between 16 and 1024 pixels"}
	}
	if c.Thumbnail.Quality < 1 || c.Thumbnail.Quality > 100 {
		return &ValidationError{Field: "thumbnail.quality", Message: "must be between 1 and 100"}
	}
	if c.Thumbnail.SampleTimeoutMs < 100 {
		return &ValidationError{Field: "thumbnail.sample_timeout_ms", Message: "must be at least 100 milliseconds"}
	}
	if c.Render.FrameIntervalMs < 1 || c.Render.FrameIntervalMs > 1000 {
		return &ValidationError{Field: "render.frame_interval_ms", Message: "must be between 1 and 1000 milliseconds"}
	}
	return nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error in field '" + e.Field + "': " + e.Message
}

// Helper methods for duration conversion

func (c *Config) DoubleTapWindow() time.Duration {
	return time.Duration(c.Gesture.DoubleTapWindowMs) * time.Millisecond
}

func (c *Config) MouseHideDelay() time.Duration {
	return time.Duration(c.Overlay.MouseHideDelayMs) * time.Millisecond
}

func (c *Config) TouchHideDelay() time.Duration {
	return time.Duration(c.Overlay.TouchHideDelayMs) * time.Millisecond
}

func (c *Config) SampleTimeout() time.Duration {
	return time.Duration(c.Thumbnail.SampleTimeoutMs) * time.Millisecond
}

func (c *Config) SubtitleFetchTimeout() time.Duration {
	return time.Duration(c.Subtitle.FetchTimeoutMs) * time.Millisecond
}

func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.Render.FrameIntervalMs) * time.Millisecond
}
