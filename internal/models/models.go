// Package models builds ready-made layer stacks from declarative
// configurations: multilayer perceptrons, convolutional networks,
// recurrent networks, residual networks and transformer classifiers.
//
// Builders are looked up by kind, so a training configuration file can
// name its architecture:
//
//	model, err := models.Build("mlp", json.RawMessage(`{"input": 4, "layers": [16], "output": 1}`))
package models

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/born-ml/lle/internal/nn"
)

// UnsupportedModelError reports a model kind no builder is registered for.
type UnsupportedModelError struct {
	Kind string
}

// Error implements the error interface.
func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported model kind %q (supported: %v)", e.Kind, Kinds())
}

// builder creates a model from a JSON configuration.
type builder func(json.RawMessage) (*nn.Model, error)

var builders = map[string]builder{
	"mlp":         decoded(MLP),
	"cnn":         decoded(CNN),
	"rnn":         decoded(RNN),
	"resnet":      decoded(ResNet),
	"transformer": decoded(TransformerClassifier),
}

// Build creates a model of the given kind from its JSON configuration.
func Build(kind string, config json.RawMessage) (*nn.Model, error) {
	b, ok := builders[kind]
	if !ok {
		return nil, &UnsupportedModelError{Kind: kind}
	}
	m, err := b(config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return m, nil
}

// Kinds returns the supported model kinds in sorted order.
func Kinds() []string {
	kinds := make([]string, 0, len(builders))
	for k := range builders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func decoded[C any](build func(C) (*nn.Model, error)) builder {
	return func(raw json.RawMessage) (*nn.Model, error) {
		var cfg C
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		return build(cfg)
	}
}

func positive(field string, v int) error {
	if v <= 0 {
		return fmt.Errorf("%s must be positive, got %d", field, v)
	}
	return nil
}
