package nn

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Factory reconstructs a layer from its serialized configuration.
type Factory func(config json.RawMessage) (Layer, error)

// Registry maps layer type tags to factories.
//
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds typ to f, replacing any previous binding.
func (r *Registry) Register(typ string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typ] = f
}

// Build reconstructs a layer of type typ. An unregistered tag yields an
// *UnknownLayerTypeError.
func (r *Registry) Build(typ string, config json.RawMessage) (Layer, error) {
	r.mu.RLock()
	f, ok := r.factories[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownLayerTypeError{Type: typ}
	}
	l, err := f(config)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", typ, err)
	}
	return l, nil
}

// Types returns the registered type tags in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry holding every built-in layer type.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		registerBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

// decodeConfig unmarshals a layer configuration. An empty or null config
// leaves dst at its zero value.
func decodeConfig(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// configured adapts a typed constructor into a Factory.
func configured[C any](build func(C) (Layer, error)) Factory {
	return func(raw json.RawMessage) (Layer, error) {
		var cfg C
		if err := decodeConfig(raw, &cfg); err != nil {
			return nil, err
		}
		return build(cfg)
	}
}

func positive(name string, values ...int) error {
	for _, v := range values {
		if v <= 0 {
			return fmt.Errorf("%s: sizes must be positive, got %v", name, values)
		}
	}
	return nil
}

func singleHead(cfg AttentionConfig) error {
	if cfg.Heads > 1 {
		return fmt.Errorf("%d attention heads requested, only single-head attention is supported", cfg.Heads)
	}
	return positive("embedSize", cfg.EmbedSize)
}

func registerBuiltins(r *Registry) {
	plain := map[string]func() Layer{
		"relu":               func() Layer { return NewReLU() },
		"sigmoid":            func() Layer { return NewSigmoid() },
		"tanh":               func() Layer { return NewTanh() },
		"softmax":            func() Layer { return NewSoftmax() },
		"linear":             func() Layer { return NewLinear() },
		"flatten":            func() Layer { return NewFlatten() },
		"global_avg_pool_1d": func() Layer { return NewGlobalAveragePooling1D() },
	}
	for typ, ctor := range plain {
		r.Register(typ, func(json.RawMessage) (Layer, error) { return ctor(), nil })
	}

	r.Register("dense", configured(func(c DenseConfig) (Layer, error) {
		if err := positive("dense", c.InputSize, c.OutputSize); err != nil {
			return nil, err
		}
		return NewDense(c.InputSize, c.OutputSize), nil
	}))
	r.Register("dropout", configured(func(c DropoutConfig) (Layer, error) {
		if c.Rate < 0 || c.Rate >= 1 {
			return nil, fmt.Errorf("dropout rate %v outside [0, 1)", c.Rate)
		}
		return NewDropout(c.Rate), nil
	}))
	r.Register("batchnorm", configured(func(c BatchNormConfig) (Layer, error) {
		if err := positive("batchnorm", c.Size); err != nil {
			return nil, err
		}
		return NewBatchNormalizationWithConfig(c), nil
	}))
	r.Register("conv2d", configured(func(c Conv2DConfig) (Layer, error) {
		if err := positive("conv2d", c.InChannels, c.OutChannels, c.KernelSize); err != nil {
			return nil, err
		}
		return NewConv2D(c.InChannels, c.OutChannels, c.KernelSize), nil
	}))
	r.Register("rnn", configured(func(c RNNConfig) (Layer, error) {
		if err := positive("rnn", c.InputSize, c.HiddenSize); err != nil {
			return nil, err
		}
		return NewRNN(c.InputSize, c.HiddenSize), nil
	}))
	r.Register("embedding", configured(func(c EmbeddingConfig) (Layer, error) {
		if err := positive("embedding", c.VocabSize, c.EmbedSize); err != nil {
			return nil, err
		}
		return NewEmbedding(c.VocabSize, c.EmbedSize), nil
	}))
	r.Register("self_attention", configured(func(c AttentionConfig) (Layer, error) {
		if err := singleHead(c); err != nil {
			return nil, err
		}
		return NewSelfAttention(c.EmbedSize), nil
	}))
	r.Register("transformer_block", configured(func(c TransformerBlockConfig) (Layer, error) {
		if err := singleHead(AttentionConfig{EmbedSize: c.EmbedSize, Heads: c.Heads}); err != nil {
			return nil, err
		}
		if err := errors.Join(
			checkNested("norm1", c.EmbedSize, c.Norm1),
			checkNested("norm2", c.EmbedSize, c.Norm2),
		); err != nil {
			return nil, err
		}
		return NewTransformerBlockWithConfig(c), nil
	}))
	r.Register("residual_block", configured(func(c ResidualConfig) (Layer, error) {
		if c.KernelSize == 0 {
			c.KernelSize = 3
		}
		if err := positive("residual_block", c.Channels, c.KernelSize); err != nil {
			return nil, err
		}
		if err := errors.Join(
			checkNested("norm1", c.Channels, c.Norm1),
			checkNested("norm2", c.Channels, c.Norm2),
		); err != nil {
			return nil, err
		}
		return NewResidualBlockWithConfig(c), nil
	}))
}
