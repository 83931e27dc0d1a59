package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/artifact"
)

// Config holds all trackpop configuration.
type Config struct {
	Artifacts  artifact.Paths   `yaml:"artifacts"`
	Features   FeaturesConfig   `yaml:"features"`
	Generation GenerationConfig `yaml:"generation"`
	Training   TrainingConfig   `yaml:"training"`
	Output     OutputConfig     `yaml:"output"`
	History    HistoryConfig    `yaml:"history"`
	Log        LogConfig        `yaml:"log"`
}

// FeaturesConfig tunes the derivation rules.
type FeaturesConfig struct {
	ReferenceYear      int     `yaml:"reference_year"`
	RareLabelThreshold int     `yaml:"rare_label_threshold"`
	TempoPerEnergy     float64 `yaml:"tempo_per_energy"` // tempo estimate = energy * factor
	DefaultTempo       float64 `yaml:"default_tempo"`
}

// GenerationConfig configures synthetic batches.
type GenerationConfig struct {
	Workers      int   `yaml:"workers"`
	Seed         int64 `yaml:"seed"` // 0 draws a fresh seed per run
	MaxBatch     int   `yaml:"max_batch"`
	DefaultBatch int   `yaml:"default_batch"`
	TimelineMin  int   `yaml:"timeline_min"`
	TimelineMax  int   `yaml:"timeline_max"`
	TimelineN    int   `yaml:"timeline_default"`
	HitThreshold int   `yaml:"hit_threshold"`
}

// TrainingConfig configures `trackpop train`.
type TrainingConfig struct {
	Target          string   `yaml:"target"`
	Features        []string `yaml:"features"`
	Trees           int      `yaml:"trees"`
	MaxDepth        int      `yaml:"max_depth"`
	MinSamplesSplit int      `yaml:"min_samples_split"`
	MinSamplesLeaf  int      `yaml:"min_samples_leaf"`
	MaxFeatures     int      `yaml:"max_features"`
	TestRatio       float64  `yaml:"test_ratio"`
	Folds           int      `yaml:"folds"` // 0 or 1 disables cross-validation
	Seed            int64    `yaml:"seed"`

	BaselineEpochs    int     `yaml:"baseline_epochs"`
	BaselineLR        float64 `yaml:"baseline_lr"`
	BaselineBatchSize int     `yaml:"baseline_batch_size"`
}

// OutputConfig configures where charts are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// HistoryConfig configures the prediction history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level    string `yaml:"level"`    // debug, info, warn, error
	Encoding string `yaml:"encoding"` // json, console
	Output   string `yaml:"output"`   // stderr or a file path
}

// DefaultFeatures is the catalog trained when none is configured.
var DefaultFeatures = []string{
	"danceability", "energy", "loudness", "speechiness", "acousticness",
	"instrumentalness", "liveness", "valence", "tempo", "duration_s",
	"explicit", "key", "mode", "release_year", "release_month",
	"release_weekday", "release_quarter", "release_age",
	"dance_energy_product", "dance_energy_ratio", "tempo_loudness_ratio",
	"high_stream", "high_energy_fast", "loudness_per_sec", "dance_x_loud",
	"energy_x_tempo", "tempo_cat", "label_grouped",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Artifacts: artifact.Paths{
			Dataset:      "data/spotify_clean.csv",
			Preprocessor: "models/preprocessor.gob",
			Model:        "models/model.gob",
			Catalog:      "models/features.yaml",
			Metrics:      "models/metrics.yaml",
		},
		Features: FeaturesConfig{
			ReferenceYear:      2025,
			RareLabelThreshold: 50,
			TempoPerEnergy:     150,
			DefaultTempo:       120,
		},
		Generation: GenerationConfig{
			Workers:      4,
			Seed:         0,
			MaxBatch:     100,
			DefaultBatch: 10,
			TimelineMin:  10,
			TimelineMax:  100,
			TimelineN:    50,
			HitThreshold: 80,
		},
		Training: TrainingConfig{
			Target:            "popularity",
			Features:          append([]string(nil), DefaultFeatures...),
			Trees:             100,
			MinSamplesSplit:   2,
			MinSamplesLeaf:    1,
			TestRatio:         0.2,
			Folds:             0,
			Seed:              42,
			BaselineEpochs:    50,
			BaselineLR:        0.01,
			BaselineBatchSize: 32,
		},
		Output:  OutputConfig{Dir: "charts"},
		History: HistoryConfig{Enabled: true, DBPath: "data/history.db"},
		Log:     LogConfig{Level: "info", Encoding: "console", Output: "stderr"},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TRACKPOP_DATASET"); v != "" {
		c.Artifacts.Dataset = v
	}
	if v := os.Getenv("TRACKPOP_MODEL"); v != "" {
		c.Artifacts.Model = v
	}
	if v := os.Getenv("TRACKPOP_PREPROCESSOR"); v != "" {
		c.Artifacts.Preprocessor = v
	}
	if v := os.Getenv("TRACKPOP_CATALOG"); v != "" {
		c.Artifacts.Catalog = v
	}
	if v := os.Getenv("TRACKPOP_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TRACKPOP_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Generation.Seed = seed
		}
	}
	if v := os.Getenv("TRACKPOP_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("TRACKPOP_HISTORY_DB"); v != "" {
		c.History.DBPath = v
	}
}

// ValidLogLevels lists the accepted log levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Artifacts.Dataset == "" {
		return fmt.Errorf("artifacts.dataset is required")
	}
	if c.Generation.MaxBatch < 1 {
		return fmt.Errorf("generation.max_batch must be positive, got %d", c.Generation.MaxBatch)
	}
	if c.Generation.DefaultBatch < 1 || c.Generation.DefaultBatch > c.Generation.MaxBatch {
		return fmt.Errorf("generation.default_batch must be in [1,%d], got %d", c.Generation.MaxBatch, c.Generation.DefaultBatch)
	}
	if c.Generation.TimelineMin < 1 || c.Generation.TimelineMin > c.Generation.TimelineMax {
		return fmt.Errorf("generation.timeline_min/timeline_max out of order: %d > %d", c.Generation.TimelineMin, c.Generation.TimelineMax)
	}
	if c.Generation.TimelineN < c.Generation.TimelineMin || c.Generation.TimelineN > c.Generation.TimelineMax {
		return fmt.Errorf("generation.timeline_default must be in [%d,%d], got %d", c.Generation.TimelineMin, c.Generation.TimelineMax, c.Generation.TimelineN)
	}
	if c.Generation.HitThreshold < 0 || c.Generation.HitThreshold > 100 {
		return fmt.Errorf("generation.hit_threshold must be in [0,100], got %d", c.Generation.HitThreshold)
	}
	if c.Training.TestRatio <= 0 || c.Training.TestRatio >= 1 {
		return fmt.Errorf("training.test_ratio must be in (0,1), got %g", c.Training.TestRatio)
	}
	if c.Training.Trees < 1 {
		return fmt.Errorf("training.trees must be positive, got %d", c.Training.Trees)
	}
	validLevel := false
	for _, l := range ValidLogLevels {
		if c.Log.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Log.Level, ValidLogLevels)
	}
	return nil
}
