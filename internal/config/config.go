// Package config loads the training configuration file consumed by the
// lle command.
//
// Files are YAML. YAML is a superset of JSON, so the JSON configuration
// written by earlier releases (train-config.json) loads unchanged.
//
// Example:
//
//	model: mlp
//	config: {input: 4, layers: [8, 8], output: 1}
//	optimizer: adam
//	lr: 0.01
//	epochs: 50
//	loss: mse
//	dataset: data.csv
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the file name written by `lle init`.
const DefaultFile = "train-config.yaml"

// TrainConfig describes one training run.
type TrainConfig struct {
	Model  string         `yaml:"model" json:"model"`   // Model kind, e.g. "mlp"
	Config map[string]any `yaml:"config" json:"config"` // Builder configuration for Model

	Optimizer   string           `yaml:"optimizer" json:"optimizer"`                         // sgd, adam, rmsprop or adamw
	LR          float32          `yaml:"lr" json:"lr"`                                       // Initial learning rate
	WeightDecay float32          `yaml:"weightDecay,omitempty" json:"weightDecay,omitempty"` // AdamW only
	Scheduler   *SchedulerConfig `yaml:"scheduler,omitempty" json:"scheduler,omitempty"`

	Epochs int    `yaml:"epochs" json:"epochs"`
	Loss   string `yaml:"loss" json:"loss"`                     // mse or cross_entropy
	Seed   int64  `yaml:"seed,omitempty" json:"seed,omitempty"`

	Dataset         string  `yaml:"dataset" json:"dataset"`                                     // .csv, .json or .npz
	Validation      string  `yaml:"validation,omitempty" json:"validation,omitempty"`           // optional separate validation set
	ValidationSplit float64 `yaml:"validationSplit,omitempty" json:"validationSplit,omitempty"` // fraction held out when Validation is empty
	BatchSize       int     `yaml:"batchSize,omitempty" json:"batchSize,omitempty"`             // 0 trains one example per step
	Shuffle         bool    `yaml:"shuffle,omitempty" json:"shuffle,omitempty"`
	DropLast        bool    `yaml:"dropLast,omitempty" json:"dropLast,omitempty"`

	Checkpoint string `yaml:"checkpoint,omitempty" json:"checkpoint,omitempty"` // best-model path, empty to disable
	Output     string `yaml:"output,omitempty" json:"output,omitempty"`         // final model path
}

// SchedulerConfig selects a learning-rate schedule.
type SchedulerConfig struct {
	Type     string  `yaml:"type" json:"type"`                             // step or cosine
	StepSize int     `yaml:"stepSize,omitempty" json:"stepSize,omitempty"`
	Gamma    float32 `yaml:"gamma,omitempty" json:"gamma,omitempty"`
	TMax     int     `yaml:"tMax,omitempty" json:"tMax,omitempty"`
	EtaMin   float32 `yaml:"etaMin,omitempty" json:"etaMin,omitempty"`
}

// Default returns the configuration written by `lle init`.
func Default() *TrainConfig {
	return &TrainConfig{
		Model: "mlp",
		Config: map[string]any{
			"input":  4,
			"layers": []any{8, 8},
			"output": 1,
		},
		Optimizer: "adam",
		LR:        0.01,
		Epochs:    50,
		Loss:      "mse",
		Dataset:   "data.csv",
		Output:    "model.lle",
	}
}

// ForDataset returns the default configuration training on dataset.
func ForDataset(dataset string) *TrainConfig {
	cfg := Default()
	cfg.Dataset = dataset
	return cfg
}

// Load reads and validates a configuration file.
func Load(path string) (*TrainConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates configuration bytes. Fields missing from raw
// keep the values of Default, except Config which is replaced wholesale
// when present.
func Parse(raw []byte) (*TrainConfig, error) {
	cfg := Default()
	cfg.Config = nil
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Config == nil {
		cfg.Config = Default().Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func (c *TrainConfig) Save(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil { //nolint:gosec // config files are not secret
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

var (
	optimizers = []string{"sgd", "adam", "rmsprop", "adamw"}
	losses     = []string{"mse", "cross_entropy"}
	schedulers = []string{"step", "cosine"}
)

// Validate reports every problem found in c.
func (c *TrainConfig) Validate() error {
	var errs []error
	if c.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if !slices.Contains(optimizers, c.Optimizer) {
		errs = append(errs, fmt.Errorf("optimizer %q is not one of %s", c.Optimizer, strings.Join(optimizers, ", ")))
	}
	if !slices.Contains(losses, c.Loss) {
		errs = append(errs, fmt.Errorf("loss %q is not one of %s", c.Loss, strings.Join(losses, ", ")))
	}
	if c.LR < 0 {
		errs = append(errs, fmt.Errorf("lr must not be negative, got %v", c.LR))
	}
	if c.Epochs <= 0 {
		errs = append(errs, fmt.Errorf("epochs must be positive, got %d", c.Epochs))
	}
	if c.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("batchSize must not be negative, got %d", c.BatchSize))
	}
	if c.ValidationSplit < 0 || c.ValidationSplit >= 1 {
		errs = append(errs, fmt.Errorf("validationSplit must be in [0, 1), got %v", c.ValidationSplit))
	}
	if c.Dataset == "" {
		errs = append(errs, errors.New("dataset is required"))
	}
	if s := c.Scheduler; s != nil {
		switch {
		case !slices.Contains(schedulers, s.Type):
			errs = append(errs, fmt.Errorf("scheduler type %q is not one of %s", s.Type, strings.Join(schedulers, ", ")))
		case s.Type == "step" && s.StepSize <= 0:
			errs = append(errs, errors.New("step scheduler requires a positive stepSize"))
		case s.Type == "cosine" && s.TMax <= 0:
			errs = append(errs, errors.New("cosine scheduler requires a positive tMax"))
		}
	}
	return errors.Join(errs...)
}

// ModelConfig returns Config encoded as JSON, the form model builders
// decode.
func (c *TrainConfig) ModelConfig() (json.RawMessage, error) {
	raw, err := json.Marshal(c.Config)
	if err != nil {
		return nil, fmt.Errorf("encoding model config: %w", err)
	}
	return raw, nil
}
