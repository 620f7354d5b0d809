package climb

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Mutation strategies.
const (
	StrategyWhole = "whole" // Every candidate comes from CreateVariant
	StrategyLayer = "layer" // Every candidate comes from CreateLayerVariant
	StrategyMixed = "mixed" // CreateLayerVariant with probability LayerVariantRate
)

// Config stores the parameters of a hill-climbing run.
type Config struct {
	Network  NetworkConfig
	Mutation MutationConfig
	Climb    ClimbConfig
	Archive  ArchiveConfig
}

// NetworkConfig describes the starting network.
type NetworkConfig struct {
	Layers        []int  `ini:"layers" delim:" "` // Widths, inputs first, outputs last
	Seed          uint64 `ini:"seed"`
	Deterministic bool   `ini:"deterministic"` // If false, Seed is ignored and a random seed is drawn
}

// MutationConfig holds parameters controlling how candidates are produced.
type MutationConfig struct {
	Intensity        float64 `ini:"intensity"`
	Strategy         string  `ini:"strategy"`
	LayerVariantRate float64 `ini:"layer_variant_rate"` // Only used by the mixed strategy
}

// ClimbConfig holds parameters of the selection loop.
type ClimbConfig struct {
	Iterations       int     `ini:"iterations"`
	Candidates       int     `ini:"candidates"`   // Variants scored per iteration
	TargetScore      float64 `ini:"target_score"` // Stop once the best score is at or below this
	CheckpointEvery  int     `ini:"checkpoint_every"`
	CheckpointPrefix string  `ini:"checkpoint_prefix"`
}

// ArchiveConfig points at the SQLite archive. An empty path disables archiving.
type ArchiveConfig struct {
	Path string `ini:"path"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	config := &Config{Mutation: MutationConfig{Intensity: 1.0}}
	config.applyDefaults()
	return config
}

// LoadConfig loads configuration parameters from an INI file.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := &Config{}
	if err := cfg.Section("Network").MapTo(&config.Network); err != nil {
		return nil, fmt.Errorf("failed to map [Network] section: %w", err)
	}
	if err := cfg.Section("Mutation").MapTo(&config.Mutation); err != nil {
		return nil, fmt.Errorf("failed to map [Mutation] section: %w", err)
	}
	if err := cfg.Section("Climb").MapTo(&config.Climb); err != nil {
		return nil, fmt.Errorf("failed to map [Climb] section: %w", err)
	}
	if err := cfg.Section("Archive").MapTo(&config.Archive); err != nil {
		return nil, fmt.Errorf("failed to map [Archive] section: %w", err)
	}

	config.Mutation.Strategy = strings.ToLower(cleanIniString(config.Mutation.Strategy))
	config.Climb.CheckpointPrefix = cleanIniString(config.Climb.CheckpointPrefix)
	config.Archive.Path = cleanIniString(config.Archive.Path)

	// Intensity has no sane zero default, so only fill it in when the key is absent.
	if !cfg.Section("Mutation").HasKey("intensity") {
		config.Mutation.Intensity = 1.0
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Mutation.Strategy == "" {
		c.Mutation.Strategy = StrategyWhole
	}
	if c.Climb.Iterations == 0 {
		c.Climb.Iterations = 1000
	}
	if c.Climb.Candidates == 0 {
		c.Climb.Candidates = 1
	}
	if c.Climb.CheckpointPrefix == "" {
		c.Climb.CheckpointPrefix = "vai_checkpoint"
	}
}

// Validate reports the first invalid parameter.
func (c *Config) Validate() error {
	for i, w := range c.Network.Layers {
		if w < 0 {
			return fmt.Errorf("config error: layer %d width must not be negative", i)
		}
	}
	if c.Mutation.Intensity < 0 {
		return fmt.Errorf("config error: intensity cannot be negative")
	}
	switch c.Mutation.Strategy {
	case StrategyWhole, StrategyLayer, StrategyMixed:
	default:
		return fmt.Errorf("config error: invalid strategy '%s', must be one of 'whole', 'layer', 'mixed'", c.Mutation.Strategy)
	}
	if c.Mutation.LayerVariantRate < 0 || c.Mutation.LayerVariantRate > 1 {
		return fmt.Errorf("config error: layer_variant_rate must be between 0 and 1")
	}
	if c.Climb.Iterations < 0 {
		return fmt.Errorf("config error: iterations cannot be negative")
	}
	if c.Climb.Candidates <= 0 {
		return fmt.Errorf("config error: candidates must be positive")
	}
	if c.Climb.CheckpointEvery < 0 {
		return fmt.Errorf("config error: checkpoint_every cannot be negative")
	}
	return nil
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
