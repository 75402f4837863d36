// Package config defines the analysis configuration value, its
// defaults and presets, and loading from YAML (or JSON) files.
//
// A Config is an immutable value: every core entry point receives it
// explicitly and nothing reads configuration from process-wide state.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a configuration value fails
// validation. Out-of-range values are rejected, never clamped.
var ErrInvalidConfig = errors.New("invalid configuration")

// ID generation strategies for synthesized test cases.
const (
	// IDStrategyPattern continues the ID pattern detected in the test plan.
	IDStrategyPattern = "pattern"

	// IDStrategyUUID derives name-based UUIDs from the mapping ID.
	IDStrategyUUID = "uuid"
)

// DefaultFileName is the configuration file looked up in the working
// directory when no explicit path is given.
const DefaultFileName = ".sttm-impact.yaml"

// MatchingConfig holds the thresholds and switches of the matching engine.
type MatchingConfig struct {
	// TabNameThreshold is the minimum similarity for a fuzzy tab match.
	TabNameThreshold float64 `yaml:"tab_name_threshold" json:"tab_name_threshold" validate:"gte=0,lte=1"`

	// FieldNameThreshold is the minimum similarity for field-name and
	// canonical-name occurrences.
	FieldNameThreshold float64 `yaml:"field_name_threshold" json:"field_name_threshold" validate:"gte=0,lte=1"`

	// ContentMatchingThreshold is the minimum similarity for sample-data
	// occurrences and for accepting keyword tab matches.
	ContentMatchingThreshold float64 `yaml:"content_matching_threshold" json:"content_matching_threshold" validate:"gte=0,lte=1"`

	UseFuzzyMatching     bool `yaml:"use_fuzzy_matching" json:"use_fuzzy_matching"`
	UseKeywordExtraction bool `yaml:"use_keyword_extraction" json:"use_keyword_extraction"`
}

// ScoringConfig holds the weights, multipliers and level thresholds of
// the impact scorer.
type ScoringConfig struct {
	DeletedMappingWeight  float64 `yaml:"deleted_mapping_weight" json:"deleted_mapping_weight" validate:"gte=0"`
	ModifiedMappingWeight float64 `yaml:"modified_mapping_weight" json:"modified_mapping_weight" validate:"gte=0"`
	AddedMappingWeight    float64 `yaml:"added_mapping_weight" json:"added_mapping_weight" validate:"gte=0"`

	SampleDataMultiplier    float64 `yaml:"sample_data_multiplier" json:"sample_data_multiplier" validate:"gte=0"`
	FieldNameMultiplier     float64 `yaml:"field_name_multiplier" json:"field_name_multiplier" validate:"gte=0"`
	CanonicalNameMultiplier float64 `yaml:"canonical_name_multiplier" json:"canonical_name_multiplier" validate:"gte=0"`

	HighConfidenceMultiplier   float64 `yaml:"high_confidence_multiplier" json:"high_confidence_multiplier" validate:"gte=0"`
	MediumConfidenceMultiplier float64 `yaml:"medium_confidence_multiplier" json:"medium_confidence_multiplier" validate:"gte=0"`
	LowConfidenceMultiplier    float64 `yaml:"low_confidence_multiplier" json:"low_confidence_multiplier" validate:"gte=0"`

	HighImpactThreshold   float64 `yaml:"high_impact_threshold" json:"high_impact_threshold" validate:"gte=0"`
	MediumImpactThreshold float64 `yaml:"medium_impact_threshold" json:"medium_impact_threshold" validate:"gte=0,ltefield=HighImpactThreshold"`
}

// GenerationConfig controls new test case synthesis.
type GenerationConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	IDStrategy string `yaml:"id_strategy" json:"id_strategy" validate:"oneof=pattern uuid"`
}

// ProcessingConfig controls parallelism.
type ProcessingConfig struct {
	MaxWorkers int `yaml:"max_workers" json:"max_workers" validate:"gte=1,lte=256"`
}

// Config is the complete analysis configuration.
type Config struct {
	Matching      MatchingConfig   `yaml:"matching" json:"matching"`
	ImpactScoring ScoringConfig    `yaml:"impact_scoring" json:"impact_scoring"`
	Generation    GenerationConfig `yaml:"generation" json:"generation"`
	Processing    ProcessingConfig `yaml:"processing" json:"processing"`
}

// DefaultConfig returns the balanced default configuration.
func DefaultConfig() Config {
	return Config{
		Matching: MatchingConfig{
			TabNameThreshold:         0.8,
			FieldNameThreshold:       0.7,
			ContentMatchingThreshold: 0.6,
			UseFuzzyMatching:         true,
			UseKeywordExtraction:     true,
		},
		ImpactScoring: ScoringConfig{
			DeletedMappingWeight:       10.0,
			ModifiedMappingWeight:      5.0,
			AddedMappingWeight:         3.0,
			SampleDataMultiplier:       1.6,
			FieldNameMultiplier:        1.4,
			CanonicalNameMultiplier:    1.2,
			HighConfidenceMultiplier:   1.2,
			MediumConfidenceMultiplier: 1.0,
			LowConfidenceMultiplier:    0.8,
			HighImpactThreshold:        8.0,
			MediumImpactThreshold:      4.0,
		},
		Generation: GenerationConfig{
			Enabled:    true,
			IDStrategy: IDStrategyPattern,
		},
		Processing: ProcessingConfig{
			MaxWorkers: 4,
		},
	}
}

// PresetBalanced names the preset equal to DefaultConfig.
const PresetBalanced = "balanced"

// presets holds the named configurations. Values not listed keep their
// defaults.
var presets = map[string]func() Config{
	PresetBalanced: DefaultConfig,
	"strict": func() Config {
		c := DefaultConfig()
		c.Matching.TabNameThreshold = 0.9
		c.Matching.FieldNameThreshold = 0.85
		c.Matching.ContentMatchingThreshold = 0.8
		c.ImpactScoring.HighImpactThreshold = 6.0
		c.ImpactScoring.MediumImpactThreshold = 3.0
		return c
	},
	"lenient": func() Config {
		c := DefaultConfig()
		c.Matching.TabNameThreshold = 0.6
		c.Matching.FieldNameThreshold = 0.5
		c.Matching.ContentMatchingThreshold = 0.4
		c.ImpactScoring.HighImpactThreshold = 10.0
		c.ImpactScoring.MediumImpactThreshold = 6.0
		return c
	},
}

// PresetNames returns the available preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Preset returns the named preset configuration.
func Preset(name string) (Config, error) {
	fn, ok := presets[strings.ToLower(name)]
	if !ok {
		return Config{}, fmt.Errorf("unknown preset %q: available presets: %s",
			name, strings.Join(PresetNames(), ", "))
	}
	return fn(), nil
}

// validate is the shared validator instance. Field names in errors use
// the yaml keys so messages point at the configuration file.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks every threshold, weight and setting. It returns an
// error wrapping ErrInvalidConfig that lists each violation.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be >= %s (got %v)", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be <= %s (got %v)", field, fe.Param(), fe.Value())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s (got %v)", field, fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got %q)", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation (got %v)", field, fe.Tag(), fe.Value())
	}
}

// Parse decodes YAML or JSON configuration on top of base. Keys absent
// from data keep the base value; unknown keys are an error. The result
// is validated.
func Parse(data []byte, base Config) (Config, error) {
	cfg := base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOnto reads the configuration file at path on top of base, which
// is usually a preset.
func LoadOnto(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %q: %w", path, err)
	}
	cfg, err := Parse(data, base)
	if err != nil {
		return Config{}, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func Marshal(c Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encoding configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding configuration: %w", err)
	}
	return buf.Bytes(), nil
}
