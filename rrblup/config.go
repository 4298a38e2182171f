package rrblup

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	gblupErrors "github.com/YuminosukeSato/gblup/pkg/errors"
)

// AnalysisConfig is the file-level configuration surface of an analysis.
// Zero values select the defaults: REML-estimated heritability, homogeneous
// shrinkage, no relationship normalization, missing genotype calls rejected.
type AnalysisConfig struct {
	Hsq            float64 `yaml:"hsq"`
	ShrinkageMode  string  `yaml:"shrinkage_mode"`
	Normalization  string  `yaml:"normalization"`
	CVRepetitions  int     `yaml:"cv_repetitions"`
	CVTestSize     int     `yaml:"cv_test_size"`
	RandomSeed     uint64  `yaml:"random_seed"`
	MaxIterations  int     `yaml:"max_iterations"`
	MaxMissingRate float64 `yaml:"max_missing_rate"`
}

// LoadConfig reads and validates a YAML analysis configuration.
func LoadConfig(path string) (*AnalysisConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gblupErrors.Wrap(err, "reading analysis configuration")
	}
	var cfg AnalysisConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, gblupErrors.Wrap(err, "parsing analysis configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every set field against its domain.
func (c *AnalysisConfig) Validate() error {
	if c.Hsq != 0 && (c.Hsq <= 0 || c.Hsq >= 1) {
		return gblupErrors.NewInvalidParameterError("hsq",
			"a fixed heritability must lie strictly between 0 and 1", c.Hsq)
	}
	if _, err := ParseShrinkageMode(c.ShrinkageMode); err != nil {
		return gblupErrors.NewInvalidParameterError("shrinkage_mode",
			fmt.Sprintf("unknown shrinkage mode %q; use \"homogeneous\" or \"heterogeneous\"", c.ShrinkageMode), 0)
	}
	if _, err := ParseNormalization(c.Normalization); err != nil {
		return err
	}
	if c.CVRepetitions < 0 {
		return gblupErrors.NewInvalidParameterError("cv_repetitions",
			"must not be negative", float64(c.CVRepetitions))
	}
	if c.CVTestSize < 0 {
		return gblupErrors.NewInvalidParameterError("cv_test_size",
			"must not be negative", float64(c.CVTestSize))
	}
	if c.MaxIterations < 0 {
		return gblupErrors.NewInvalidParameterError("max_iterations",
			"must not be negative", float64(c.MaxIterations))
	}
	if c.MaxMissingRate < 0 || c.MaxMissingRate > 1 {
		return gblupErrors.NewInvalidParameterError("max_missing_rate",
			"must lie in [0, 1]", c.MaxMissingRate)
	}
	return nil
}

// ModelOptions converts the configuration into regressor options. Unset
// fields contribute nothing, leaving the regressor defaults in place.
func (c *AnalysisConfig) ModelOptions() []Option {
	var opts []Option
	if c.Hsq != 0 {
		opts = append(opts, WithHeritability(c.Hsq))
	}
	if c.ShrinkageMode != "" {
		mode, _ := ParseShrinkageMode(c.ShrinkageMode)
		opts = append(opts, WithShrinkageMode(mode))
	}
	if c.Normalization != "" {
		policy, _ := ParseNormalization(c.Normalization)
		opts = append(opts, WithNormalization(policy))
	}
	if c.MaxIterations > 0 {
		opts = append(opts, WithMaxIterations(c.MaxIterations))
	}
	return opts
}

// CVOptions converts the configuration into cross-validator options,
// forwarding the model options to every repetition.
func (c *AnalysisConfig) CVOptions() []CVOption {
	opts := []CVOption{WithModelOptions(c.ModelOptions()...)}
	if c.CVRepetitions > 0 {
		opts = append(opts, WithRepetitions(c.CVRepetitions))
	}
	if c.CVTestSize > 0 {
		opts = append(opts, WithTestSize(c.CVTestSize))
	}
	if c.RandomSeed != 0 {
		opts = append(opts, WithSeed(c.RandomSeed))
	}
	return opts
}
