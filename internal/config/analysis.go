// Package config loads analysis tuning parameters from JSON.
//
// The schema uses pointer fields so a file may set only the values it
// cares about; getters supply defaults for the rest. The same JSON
// shape is accepted on the command line via -config and as the
// checked-in defaults file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical analysis defaults
// file, the single source of truth for default tuning values.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig represents the root configuration for an analysis
// run. All fields are optional; nil means "use the default".
type AnalysisConfig struct {
	// Station detection
	StationCount     *int     `json:"station_count,omitempty"`     // 0 = silhouette auto-select
	RadiusPercentile *float64 `json:"radius_percentile,omitempty"` // zone boundary quantile
	ClusterSeed      *int64   `json:"cluster_seed,omitempty"`
	ClusterRestarts  *int     `json:"cluster_restarts,omitempty"`
	MaxIterations    *int     `json:"max_iterations,omitempty"`

	// Trajectory segmentation
	MinimumDwell      *string `json:"minimum_dwell,omitempty"` // duration string like "30s"
	MonotonicProgress *bool   `json:"monotonic_progress,omitempty"`
}

// EmptyAnalysisConfig returns an AnalysisConfig with all fields unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig reads and parses a config file.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg AnalysisConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults file, searching
// upward from the working directory so tests in nested packages find
// it. Panics when the file cannot be located — intended for binaries
// and tests that have already validated config availability.
func MustLoadDefaultConfig() *AnalysisConfig {
	dir, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("config: getwd: %v", err))
	}
	for {
		candidate := filepath.Join(dir, DefaultConfigPath)
		if _, err := os.Stat(candidate); err == nil {
			cfg, err := LoadAnalysisConfig(candidate)
			if err != nil {
				panic(fmt.Sprintf("config: %v", err))
			}
			return cfg
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Fall back to built-in defaults when running outside the
			// repository (installed binary).
			return EmptyAnalysisConfig()
		}
		dir = parent
	}
}

// Getters supplying defaults for unset fields.

func (c *AnalysisConfig) GetStationCount() int {
	if c.StationCount != nil {
		return *c.StationCount
	}
	return 0
}

func (c *AnalysisConfig) GetRadiusPercentile() float64 {
	if c.RadiusPercentile != nil {
		return *c.RadiusPercentile
	}
	return 0.75
}

func (c *AnalysisConfig) GetClusterSeed() int64 {
	if c.ClusterSeed != nil {
		return *c.ClusterSeed
	}
	return 42
}

func (c *AnalysisConfig) GetClusterRestarts() int {
	if c.ClusterRestarts != nil {
		return *c.ClusterRestarts
	}
	return 10
}

func (c *AnalysisConfig) GetMaxIterations() int {
	if c.MaxIterations != nil {
		return *c.MaxIterations
	}
	return 300
}

// GetMinimumDwell parses the minimum dwell duration, returning 0 (no
// filtering) when unset or unparseable.
func (c *AnalysisConfig) GetMinimumDwell() time.Duration {
	if c.MinimumDwell == nil {
		return 0
	}
	d, err := time.ParseDuration(*c.MinimumDwell)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func (c *AnalysisConfig) GetMonotonicProgress() bool {
	if c.MonotonicProgress != nil {
		return *c.MonotonicProgress
	}
	return false
}
