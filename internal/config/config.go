package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Decoder backends
const (
	DecoderAuto   = "auto"
	DecoderFFmpeg = "ffmpeg"
	DecoderMPEG   = "mpeg"
)

// Config holds all application configuration
type Config struct {
	// Which video backend to use: auto, ffmpeg or mpeg
	Decoder string `yaml:"decoder" env:"GIFMAKER_DECODER"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Output settings
	Output OutputConfig `yaml:"output"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path" env:"GIFMAKER_FFMPEG"`
	ProbePath  string `yaml:"probe_path" env:"GIFMAKER_FFPROBE"`
	Threads    int    `yaml:"threads" env:"GIFMAKER_FFMPEG_THREADS"`
}

type OutputConfig struct {
	// Directory created next to the input video
	DirName string `yaml:"dir_name" env:"GIFMAKER_OUTPUT_DIR"`
	// Downscale frames to this width, 0 keeps the source size
	Width int `yaml:"width" env:"GIFMAKER_WIDTH"`
	// GIF loop count, 0 loops forever, -1 plays once
	LoopCount int `yaml:"loop_count" env:"GIFMAKER_LOOP_COUNT"`
	// Log a progress line every N frames
	ProgressEvery int `yaml:"progress_every" env:"GIFMAKER_PROGRESS_EVERY"`
}

// Load reads configuration from file or returns defaults, then applies
// environment overrides
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	switch c.Decoder {
	case DecoderAuto, DecoderFFmpeg, DecoderMPEG:
	default:
		return fmt.Errorf("unknown decoder %q (want %s, %s or %s)", c.Decoder, DecoderAuto, DecoderFFmpeg, DecoderMPEG)
	}
	if c.Output.DirName == "" {
		return fmt.Errorf("output dir_name cannot be empty")
	}
	if c.Output.Width < 0 {
		return fmt.Errorf("output width cannot be negative")
	}
	if c.Output.LoopCount < -1 {
		return fmt.Errorf("output loop_count must be -1 or greater")
	}
	return nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// YAML returns the configuration as YAML text
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Default returns the built-in configuration
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Decoder: DecoderAuto,
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
		},
		Output: OutputConfig{
			DirName:       "gifmaker",
			Width:         0,
			LoopCount:     0,
			ProgressEvery: 100,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./gifmaker.yaml",
		"./gifmaker.yml",
		filepath.Join(os.Getenv("HOME"), ".gifmaker", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
