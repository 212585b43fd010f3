package config

import (
	"fmt"
	"time"

	"github.com/bryanchriswhite/VRPlayer/internal/projection"
)

// Config holds the player settings. Runtime choices such as the active
// projection or swapped eyes are never written here.
type Config struct {
	ServerPort int    `json:"server_port" yaml:"server_port" mapstructure:"server_port"`
	LogLevel   string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	Display    DisplayConfig    `json:"display" yaml:"display" mapstructure:"display"`
	Stream     StreamConfig     `json:"stream" yaml:"stream" mapstructure:"stream"`
	Decoder    DecoderConfig    `json:"decoder" yaml:"decoder" mapstructure:"decoder"`
	Projection ProjectionConfig `json:"projection" yaml:"projection" mapstructure:"projection"`
	Camera     CameraConfig     `json:"camera" yaml:"camera" mapstructure:"camera"`
	Announce   AnnounceConfig   `json:"announce" yaml:"announce" mapstructure:"announce"`

	// Keys overrides the default key bindings, key name to action name.
	Keys map[string]string `json:"keys" yaml:"keys" mapstructure:"keys"`
}

// DisplayConfig represents the stereo output window
type DisplayConfig struct {
	Width      int  `json:"width" yaml:"width" mapstructure:"width"`
	Height     int  `json:"height" yaml:"height" mapstructure:"height"`
	FPS        int  `json:"fps" yaml:"fps" mapstructure:"fps"`
	Enabled    bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Fullscreen bool `json:"fullscreen" yaml:"fullscreen" mapstructure:"fullscreen"`
}

// StreamConfig represents the MJPEG stream of the composed stereo frame
type StreamConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Quality int  `json:"quality" yaml:"quality" mapstructure:"quality"`
}

// DecoderConfig locates the external decoder tools
type DecoderConfig struct {
	FFmpeg  string `json:"ffmpeg" yaml:"ffmpeg" mapstructure:"ffmpeg"`
	FFprobe string `json:"ffprobe" yaml:"ffprobe" mapstructure:"ffprobe"`
	Loop    bool   `json:"loop" yaml:"loop" mapstructure:"loop"`
}

// ProjectionConfig tunes the compositor
type ProjectionConfig struct {
	// Filter is the blit resampler: nearest, bilinear, catmullrom.
	Filter  string `json:"filter" yaml:"filter" mapstructure:"filter"`
	Workers int    `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// CameraConfig sets the eye cameras
type CameraConfig struct {
	FOV float64 `json:"fov" yaml:"fov" mapstructure:"fov"`
}

// AnnounceConfig sets the on-screen status messages
type AnnounceConfig struct {
	DurationMS int `json:"duration_ms" yaml:"duration_ms" mapstructure:"duration_ms"`
}

// Duration returns the announcement lifetime.
func (a AnnounceConfig) Duration() time.Duration {
	return time.Duration(a.DurationMS) * time.Millisecond
}

// Defaults returns the configuration written on first run.
func Defaults() *Config {
	return &Config{
		ServerPort: 8080,
		LogLevel:   "info",
		Display: DisplayConfig{
			Width:   1920,
			Height:  1080,
			FPS:     30,
			Enabled: true,
		},
		Stream: StreamConfig{
			Enabled: true,
			Quality: 85,
		},
		Decoder: DecoderConfig{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
			Loop:    true,
		},
		Projection: ProjectionConfig{
			Filter:  "bilinear",
			Workers: 0,
		},
		Camera: CameraConfig{
			FOV: 90,
		},
		Announce: AnnounceConfig{
			DurationMS: 1500,
		},
		Keys: map[string]string{},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return fmt.Errorf("server_port out of range: %d", c.ServerPort)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("display size must be positive: %dx%d", c.Display.Width, c.Display.Height)
	}
	if c.Display.FPS < 1 || c.Display.FPS > 240 {
		return fmt.Errorf("display.fps out of range: %d", c.Display.FPS)
	}
	if c.Stream.Quality < 1 || c.Stream.Quality > 100 {
		return fmt.Errorf("stream.quality out of range: %d", c.Stream.Quality)
	}
	if _, err := projection.ParseFilter(c.Projection.Filter); err != nil {
		return err
	}
	if c.Projection.Workers < 0 {
		return fmt.Errorf("projection.workers must not be negative: %d", c.Projection.Workers)
	}
	if c.Camera.FOV < 20 || c.Camera.FOV > 150 {
		return fmt.Errorf("camera.fov out of range: %g", c.Camera.FOV)
	}
	if c.Announce.DurationMS < 0 {
		return fmt.Errorf("announce.duration_ms must not be negative: %d", c.Announce.DurationMS)
	}
	return nil
}

// fillDefaults replaces zero values left by a partial config file.
func (c *Config) fillDefaults() {
	d := Defaults()
	if c.ServerPort == 0 {
		c.ServerPort = d.ServerPort
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Display.Width == 0 {
		c.Display.Width = d.Display.Width
	}
	if c.Display.Height == 0 {
		c.Display.Height = d.Display.Height
	}
	if c.Display.FPS == 0 {
		c.Display.FPS = d.Display.FPS
	}
	if c.Stream.Quality == 0 {
		c.Stream.Quality = d.Stream.Quality
	}
	if c.Decoder.FFmpeg == "" {
		c.Decoder.FFmpeg = d.Decoder.FFmpeg
	}
	if c.Decoder.FFprobe == "" {
		c.Decoder.FFprobe = d.Decoder.FFprobe
	}
	if c.Projection.Filter == "" {
		c.Projection.Filter = d.Projection.Filter
	}
	if c.Camera.FOV == 0 {
		c.Camera.FOV = d.Camera.FOV
	}
	if c.Announce.DurationMS == 0 {
		c.Announce.DurationMS = d.Announce.DurationMS
	}
	if c.Keys == nil {
		c.Keys = map[string]string{}
	}
}
