package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration.
type Config struct {
	WorkDir     string `yaml:"work_dir"`
	Concurrency int    `yaml:"concurrency"`

	Analysis  AnalysisConfig  `yaml:"analysis"`
	Variants  VariantsConfig  `yaml:"variants"`
	Matcher   MatcherConfig   `yaml:"matcher"`
	Narration NarrationConfig `yaml:"narration"`
	FFmpeg    FFmpegConfig    `yaml:"ffmpeg"`
}

// AnalysisConfig tunes the candidate scan.
type AnalysisConfig struct {
	SamplesPerWindow   int     `yaml:"samples_per_window"`
	WindowOverlap      float64 `yaml:"window_overlap"`
	MinWindowSeconds   float64 `yaml:"min_window_seconds"`
	MaxWindowSeconds   float64 `yaml:"max_window_seconds"`
	NearBlackThreshold float64 `yaml:"near_black_threshold"`
	DeadZoneThreshold  float64 `yaml:"dead_zone_threshold"`
}

// VariantsConfig tunes multi-variant selection.
type VariantsConfig struct {
	Count            int     `yaml:"count"`
	Buckets          int     `yaml:"buckets"`
	HammingThreshold int     `yaml:"hamming_threshold"`
	MinMotionFloor   float64 `yaml:"min_motion_floor"`
}

// MatcherConfig tunes keyword matching.
type MatcherConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
}

// NarrationConfig tunes silence-aware duration resolution.
type NarrationConfig struct {
	MinSilence     float64 `yaml:"min_silence"`
	Padding        float64 `yaml:"padding"`
	MinConfidence  float64 `yaml:"min_confidence"`
	NoiseThreshold float64 `yaml:"noise_threshold"`
}

// FFmpegConfig locates the media binaries. Empty paths mean PATH
// lookup.
type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
}

// Load reads configuration from file or returns defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		WorkDir:     "./work",
		Concurrency: 4,
		Analysis: AnalysisConfig{
			SamplesPerWindow:   15,
			WindowOverlap:      0.4,
			MinWindowSeconds:   1.5,
			MaxWindowSeconds:   3.0,
			NearBlackThreshold: 0.08,
			DeadZoneThreshold:  0.008,
		},
		Variants: VariantsConfig{
			Count:            3,
			Buckets:          5,
			HammingThreshold: 12,
			MinMotionFloor:   0.02,
		},
		Matcher: MatcherConfig{
			MinConfidence: 0.3,
		},
		Narration: NarrationConfig{
			MinSilence:     0.3,
			Padding:        0.08,
			MinConfidence:  0.5,
			NoiseThreshold: -30.0,
		},
		FFmpeg: FFmpegConfig{
			Threads: 0,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./reelforge.yaml",
		"./reelforge.yml",
		filepath.Join(os.Getenv("HOME"), ".reelforge", "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// WithConfig stores config in context.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
