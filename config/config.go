// Package config loads the run configuration of the carprice pipeline from
// yaml.
package config

import (
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/carprice/dataset"
	"github.com/YuminosukeSato/carprice/pkg/errors"
)

// FileName is the configuration file the entry point looks for.
const FileName = "carprice.yaml"

// Config is the whole run configuration.
type Config struct {
	Data    DataConfig       `yaml:"data"`
	Model   ModelConfig      `yaml:"model"`
	Output  OutputConfig     `yaml:"output"`
	Logging LoggingConfig    `yaml:"logging"`
	Samples []map[string]any `yaml:"samples"`
}

// DataConfig describes the training table.
type DataConfig struct {
	Path      string         `yaml:"path"`
	Target    string         `yaml:"target"`
	Delimiter string         `yaml:"delimiter"`
	NAValues  []string       `yaml:"na_values"`
	Schema    []ColumnConfig `yaml:"schema"`
}

// ColumnConfig declares the kind of one column: numeric or categorical.
type ColumnConfig struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// ModelConfig holds split and forest hyperparameters.
type ModelConfig struct {
	TestSize      float64 `yaml:"test_size"`
	RandomState   int64   `yaml:"random_state"`
	NEstimators   int     `yaml:"n_estimators"`
	MaxDepth      int     `yaml:"max_depth"`
	MaxFeatures   int     `yaml:"max_features"`
	NJobs         int     `yaml:"n_jobs"`
	NumericScaler string  `yaml:"numeric_scaler"` // standard, minmax
}

// OutputConfig controls optional artifacts.
type OutputConfig struct {
	PlotPath string `yaml:"plot_path"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Path:      "cars.csv",
			Target:    "price",
			Delimiter: ",",
		},
		Model: ModelConfig{
			TestSize:      0.2,
			RandomState:   42,
			NEstimators:   100,
			NJobs:         -1,
			NumericScaler: "standard",
		},
		Logging: LoggingConfig{Level: "info"},
		Samples: []map[string]any{
			{"brand": "Toyota", "model": "Corolla", "year": 2018, "mileage": 25000},
			{"brand": "BMW", "model": "3 Series", "year": 2016, "mileage": 40000},
		},
	}
}

// Load reads path on top of Default. Keys absent from the file keep their
// default values.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "carprice: read config %s", path)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "carprice: parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Data.Path == "":
		return errors.NewValidationError("data.path", "must not be empty", c.Data.Path)
	case c.Data.Target == "":
		return errors.NewValidationError("data.target", "must not be empty", c.Data.Target)
	case utf8.RuneCountInString(c.Data.Delimiter) != 1:
		return errors.NewValidationError("data.delimiter", "must be a single character", c.Data.Delimiter)
	case c.Model.TestSize <= 0 || c.Model.TestSize >= 1:
		return errors.NewValidationError("model.test_size", "must be in (0, 1)", c.Model.TestSize)
	case c.Model.NEstimators < 1:
		return errors.NewValidationError("model.n_estimators", "must be >= 1", c.Model.NEstimators)
	case c.Model.MaxDepth < 0:
		return errors.NewValidationError("model.max_depth", "must be >= 0", c.Model.MaxDepth)
	case c.Model.MaxFeatures < 0:
		return errors.NewValidationError("model.max_features", "must be >= 0", c.Model.MaxFeatures)
	case c.Model.NumericScaler != "standard" && c.Model.NumericScaler != "minmax":
		return errors.NewValidationError("model.numeric_scaler", "must be standard or minmax", c.Model.NumericScaler)
	}
	if _, err := c.DatasetSchema(); err != nil {
		return err
	}
	return nil
}

// DelimiterRune returns the delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Data.Delimiter)
	return r
}

// DatasetSchema converts the declared columns into a dataset.Schema.
func (c *Config) DatasetSchema() (dataset.Schema, error) {
	cols := make([]dataset.Column, 0, len(c.Data.Schema))
	for _, cc := range c.Data.Schema {
		kind, err := dataset.ParseKind(cc.Kind)
		if err != nil {
			return dataset.Schema{}, errors.Wrapf(err, "carprice: data.schema column %q", cc.Name)
		}
		cols = append(cols, dataset.Column{Name: cc.Name, Kind: kind})
	}
	s := dataset.NewSchema(cols...)
	if err := s.Validate(); err != nil {
		return dataset.Schema{}, err
	}
	return s, nil
}

// LoadOptions returns the dataset options the configuration implies.
func (c *Config) LoadOptions() ([]dataset.LoadOption, error) {
	schema, err := c.DatasetSchema()
	if err != nil {
		return nil, err
	}
	opts := []dataset.LoadOption{
		dataset.WithDelimiter(c.DelimiterRune()),
		dataset.WithSchema(schema),
	}
	if len(c.Data.NAValues) > 0 {
		opts = append(opts, dataset.WithNAValues(c.Data.NAValues...))
	}
	return opts, nil
}
