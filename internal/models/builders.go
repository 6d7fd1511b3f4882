package models

import (
	"fmt"

	"github.com/born-ml/lle/internal/nn"
)

// MLPConfig describes a multilayer perceptron.
type MLPConfig struct {
	Input       int      `json:"input"`
	Layers      []int    `json:"layers"`
	Output      int      `json:"output"`
	Activations []string `json:"activations,omitempty"` // "relu" (default) or "linear", per hidden layer
}

// MLP builds Dense layers of the configured widths, each followed by its
// activation, then a Dense output layer with a linear activation.
func MLP(cfg MLPConfig) (*nn.Model, error) {
	if err := positive("input", cfg.Input); err != nil {
		return nil, err
	}
	if err := positive("output", cfg.Output); err != nil {
		return nil, err
	}
	if len(cfg.Activations) > 0 && len(cfg.Activations) != len(cfg.Layers) {
		return nil, fmt.Errorf("%d activations for %d layers", len(cfg.Activations), len(cfg.Layers))
	}

	m := nn.NewModel()
	prev := cfg.Input
	for i, width := range cfg.Layers {
		if err := positive(fmt.Sprintf("layers[%d]", i), width); err != nil {
			return nil, err
		}
		m.Add(nn.NewDense(prev, width))
		act := "relu"
		if len(cfg.Activations) > 0 {
			act = cfg.Activations[i]
		}
		switch act {
		case "relu":
			m.Add(nn.NewReLU())
		case "linear":
			m.Add(nn.NewLinear())
		default:
			return nil, fmt.Errorf("unknown activation %q", act)
		}
		prev = width
	}
	m.Add(nn.NewDense(prev, cfg.Output))
	m.Add(nn.NewLinear())
	return m, nil
}

// ConvConfig describes the convolution stage of a CNN.
type ConvConfig struct {
	OutChannels int `json:"outChannels"`
	KernelSize  int `json:"kernelSize"`
}

// CNNConfig describes a convolutional classifier over [C, H, W] inputs.
type CNNConfig struct {
	InputShape [3]int     `json:"inputShape"`
	Conv       ConvConfig `json:"conv"`
	Dense      []int      `json:"dense"`
	Output     int        `json:"output"`
}

// CNN builds Conv2D, ReLU and Flatten followed by ReLU-activated Dense
// layers and a Dense output layer.
func CNN(cfg CNNConfig) (*nn.Model, error) {
	c, h, w := cfg.InputShape[0], cfg.InputShape[1], cfg.InputShape[2]
	conv := cfg.Conv
	if err := positive("inputShape[0]", c); err != nil {
		return nil, err
	}
	if err := positive("conv.outChannels", conv.OutChannels); err != nil {
		return nil, err
	}
	if err := positive("conv.kernelSize", conv.KernelSize); err != nil {
		return nil, err
	}
	if err := positive("output", cfg.Output); err != nil {
		return nil, err
	}
	oh, ow := h-conv.KernelSize+1, w-conv.KernelSize+1
	if oh <= 0 || ow <= 0 {
		return nil, fmt.Errorf("kernel %d does not fit a %dx%d input", conv.KernelSize, h, w)
	}

	m := nn.NewModel(
		nn.NewConv2D(c, conv.OutChannels, conv.KernelSize),
		nn.NewReLU(),
		nn.NewFlatten(),
	)
	prev := conv.OutChannels * oh * ow
	for i, width := range cfg.Dense {
		if err := positive(fmt.Sprintf("dense[%d]", i), width); err != nil {
			return nil, err
		}
		m.Add(nn.NewDense(prev, width))
		m.Add(nn.NewReLU())
		prev = width
	}
	m.Add(nn.NewDense(prev, cfg.Output))
	return m, nil
}

// RNNConfig describes a recurrent sequence model.
type RNNConfig struct {
	InputSize  int `json:"inputSize"`
	HiddenSize int `json:"hiddenSize"`
	OutputSize int `json:"outputSize"`
}

// RNN builds an RNN over [batch, seq, input] followed by a Dense layer
// applied to every hidden state, yielding [batch, seq, output].
func RNN(cfg RNNConfig) (*nn.Model, error) {
	for field, v := range map[string]int{
		"inputSize": cfg.InputSize, "hiddenSize": cfg.HiddenSize, "outputSize": cfg.OutputSize,
	} {
		if err := positive(field, v); err != nil {
			return nil, err
		}
	}
	return nn.NewModel(
		nn.NewRNN(cfg.InputSize, cfg.HiddenSize),
		nn.NewDense(cfg.HiddenSize, cfg.OutputSize),
	), nil
}

// ResNet stem and block geometry.
const (
	resnetChannels = 16
	resnetKernel   = 3
)

// ResNetConfig describes a residual network over [C, H, W] inputs.
// Blocks lists the number of residual blocks per stage.
type ResNetConfig struct {
	InputShape [3]int `json:"inputShape"`
	Blocks     []int  `json:"blocks"`
	Classes    int    `json:"classes"`
}

// ResNet builds a 16-channel Conv2D, BatchNorm and ReLU stem, the residual
// blocks, Flatten and a Dense classifier.
//
// Convolutions use valid padding, so the stem and every block shrink the
// feature map; the classifier's input size is computed from the final map.
func ResNet(cfg ResNetConfig) (*nn.Model, error) {
	if err := positive("inputShape[0]", cfg.InputShape[0]); err != nil {
		return nil, err
	}
	if err := positive("classes", cfg.Classes); err != nil {
		return nil, err
	}

	shrink := resnetKernel - 1
	h, w := cfg.InputShape[1]-shrink, cfg.InputShape[2]-shrink
	m := nn.NewModel(
		nn.NewConv2D(cfg.InputShape[0], resnetChannels, resnetKernel),
		nn.NewBatchNormalization(resnetChannels),
		nn.NewReLU(),
	)
	for stage, n := range cfg.Blocks {
		if n < 0 {
			return nil, fmt.Errorf("blocks[%d] must not be negative, got %d", stage, n)
		}
		for range n {
			m.Add(nn.NewResidualBlock(resnetChannels, resnetKernel))
			h, w = h-2*shrink, w-2*shrink
		}
	}
	if h <= 0 || w <= 0 {
		return nil, fmt.Errorf("input %dx%d is too small for %v blocks", cfg.InputShape[1], cfg.InputShape[2], cfg.Blocks)
	}

	m.Add(nn.NewFlatten())
	m.Add(nn.NewDense(resnetChannels*h*w, cfg.Classes))
	return m, nil
}

// TransformerConfig describes a sequence classifier over token indices.
type TransformerConfig struct {
	VocabSize int  `json:"vocabSize"`
	EmbedSize int  `json:"embedSize"`
	NumBlocks int  `json:"numBlocks"`
	Classes   int  `json:"classes"`
	Softmax   bool `json:"softmax,omitempty"` // append a Softmax to emit probabilities
}

// TransformerClassifier builds Embedding, NumBlocks transformer blocks,
// GlobalAveragePooling1D and a Dense classifier emitting logits.
func TransformerClassifier(cfg TransformerConfig) (*nn.Model, error) {
	for field, v := range map[string]int{
		"vocabSize": cfg.VocabSize, "embedSize": cfg.EmbedSize, "classes": cfg.Classes,
	} {
		if err := positive(field, v); err != nil {
			return nil, err
		}
	}
	if cfg.NumBlocks < 0 {
		return nil, fmt.Errorf("numBlocks must not be negative, got %d", cfg.NumBlocks)
	}

	m := nn.NewModel(nn.NewEmbedding(cfg.VocabSize, cfg.EmbedSize))
	for range cfg.NumBlocks {
		m.Add(nn.NewTransformerBlock(cfg.EmbedSize))
	}
	m.Add(nn.NewGlobalAveragePooling1D())
	m.Add(nn.NewDense(cfg.EmbedSize, cfg.Classes))
	if cfg.Softmax {
		m.Add(nn.NewSoftmax())
	}
	return m, nil
}
