package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"pianoscribe/pkg/bitint"
)

// Load reads configuration from a YAML file at path. If path is empty it
// searches default locations ("pianoscribe.yaml"). If no file is found the
// built-in defaults are used. Environment variable overrides are applied
// after loading, then the result is validated.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{"pianoscribe.yaml", "config.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment environments tweak settings without a
// config file. Only the values that matter operationally are exposed.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PIANOSCRIBE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PIANOSCRIBE_RENDERER"); v != "" {
		c.RendererPath = v
	}
	if v := os.Getenv("PIANOSCRIBE_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("PIANOSCRIBE_TEMPO"); v != "" {
		if tempo, err := strconv.Atoi(v); err == nil {
			c.Tempo = tempo
		}
	}
}

// Validate checks that the configuration describes a runnable pipeline.
func (c *Config) Validate() error {
	if c.Tempo < MinTempo || c.Tempo > MaxTempo {
		return fmt.Errorf("tempo %d out of range [%d, %d]", c.Tempo, MinTempo, MaxTempo)
	}
	if c.MaxDuration < 0 {
		return fmt.Errorf("max_duration must be >= 0, got %v", c.MaxDuration)
	}
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample_rate %d too low for pitch analysis", c.SampleRate)
	}
	if !bitint.IsPowerOfTwo(c.FrameLength) {
		return fmt.Errorf("frame_length %d must be a power of 2", c.FrameLength)
	}
	if c.HopLength <= 0 || c.HopLength > c.FrameLength {
		return fmt.Errorf("hop_length %d must be in (0, frame_length]", c.HopLength)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must be set")
	}
	return nil
}
