package nn

import (
	"fmt"

	"github.com/born-ml/lle/internal/tensor"
	"github.com/chewxy/math32"
)

// Loss is a stateless objective over predictions and targets.
type Loss interface {
	// Name returns the loss identifier used in configuration files
	// (e.g., "mse", "cross_entropy").
	Name() string

	// Forward returns the scalar loss.
	Forward(pred, target *tensor.Tensor) (float32, error)

	// Backward returns the gradient of the loss with respect to pred,
	// shaped like pred.
	Backward(pred, target *tensor.Tensor) (*tensor.Tensor, error)
}

// MSELoss computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
//
// MSE is commonly used for regression tasks where the goal is to predict
// continuous values. Predictions and targets must hold the same number of
// elements; shapes are not broadcast, so [batch, 1] against [batch] is fine.
type MSELoss struct{}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss() *MSELoss { return &MSELoss{} }

// Name returns "mse".
func (MSELoss) Name() string { return "mse" }

// Forward computes mean((pred - target)²).
func (MSELoss) Forward(pred, target *tensor.Tensor) (float32, error) {
	if err := sameSize("MSELoss.Forward", pred, target); err != nil {
		return 0, err
	}
	p, t := pred.Data(), target.Data()
	var sum float32
	for i := range p {
		d := p[i] - t[i]
		sum += d * d
	}
	return sum / float32(len(p)), nil
}

// Backward returns 2*(pred - target)/N.
func (MSELoss) Backward(pred, target *tensor.Tensor) (*tensor.Tensor, error) {
	if err := sameSize("MSELoss.Backward", pred, target); err != nil {
		return nil, err
	}
	grad := tensor.ZerosLike(pred)
	g, p, t := grad.Data(), pred.Data(), target.Data()
	scale := 2 / float32(len(p))
	for i := range g {
		g[i] = scale * (p[i] - t[i])
	}
	return grad, nil
}

// MAELoss computes Mean Absolute Error. It is an evaluation metric only:
// Backward returns ErrNotDifferentiable.
type MAELoss struct{}

// NewMAELoss creates a new MAE loss function.
func NewMAELoss() *MAELoss { return &MAELoss{} }

// Name returns "mae".
func (MAELoss) Name() string { return "mae" }

// Forward computes mean(|pred - target|).
func (MAELoss) Forward(pred, target *tensor.Tensor) (float32, error) {
	if err := sameSize("MAELoss.Forward", pred, target); err != nil {
		return 0, err
	}
	p, t := pred.Data(), target.Data()
	var sum float32
	for i := range p {
		sum += math32.Abs(p[i] - t[i])
	}
	return sum / float32(len(p)), nil
}

// Backward always fails with ErrNotDifferentiable.
func (MAELoss) Backward(_, _ *tensor.Tensor) (*tensor.Tensor, error) {
	return nil, fmt.Errorf("mae: %w", ErrNotDifferentiable)
}

// CrossEntropyLoss computes softmax cross-entropy over logits.
//
// Predictions are raw logits [batch, classes]; targets are class indices
// stored as float32 with shape [batch] or [batch, 1].
//
//	Loss = mean_b(logsumexp(pred_b) - pred_b[target_b])
//
// The gradient softmax(pred) - one_hot(target), averaged over the batch,
// already includes the softmax Jacobian, which is why a trailing Softmax
// layer passes its gradient through unchanged.
type CrossEntropyLoss struct{}

// NewCrossEntropyLoss creates a new cross-entropy loss function.
func NewCrossEntropyLoss() *CrossEntropyLoss { return &CrossEntropyLoss{} }

// Name returns "cross_entropy".
func (CrossEntropyLoss) Name() string { return "cross_entropy" }

// Forward computes the mean negative log-likelihood of the target classes.
func (CrossEntropyLoss) Forward(pred, target *tensor.Tensor) (float32, error) {
	batch, classes, labels, err := crossEntropyInputs("CrossEntropyLoss.Forward", pred, target)
	if err != nil {
		return 0, err
	}
	p := pred.Data()
	var total float32
	for b := 0; b < batch; b++ {
		row := p[b*classes : (b+1)*classes]
		total += logSumExp(row) - row[labels[b]]
	}
	return total / float32(batch), nil
}

// Backward returns (softmax(pred) - one_hot(target)) / batch.
func (CrossEntropyLoss) Backward(pred, target *tensor.Tensor) (*tensor.Tensor, error) {
	batch, classes, labels, err := crossEntropyInputs("CrossEntropyLoss.Backward", pred, target)
	if err != nil {
		return nil, err
	}
	grad := pred.Clone()
	g := grad.Data()
	inv := 1 / float32(batch)
	for b := 0; b < batch; b++ {
		row := g[b*classes : (b+1)*classes]
		softmaxRow(row)
		row[labels[b]]--
		for i := range row {
			row[i] *= inv
		}
	}
	return grad, nil
}

// crossEntropyInputs validates logits and labels and decodes the labels.
func crossEntropyInputs(op string, pred, target *tensor.Tensor) (int, int, []int, error) {
	shape := pred.Shape()
	if len(shape) != 2 {
		return 0, 0, nil, shapeMismatch(op, shape, "expected logits [batch, classes]")
	}
	batch, classes := shape[0], shape[1]
	if target.NumElements() != batch {
		return 0, 0, nil, &tensor.ShapeError{
			Op: op, Left: shape.Clone(), Right: target.Shape().Clone(),
			Msg: "expected one class index per row",
		}
	}

	labels := make([]int, batch)
	for i, v := range target.Data() {
		if !validIndex(v, classes) {
			return 0, 0, nil, &BoundsError{Op: op, Index: v, Limit: classes}
		}
		labels[i] = int(v)
	}
	return batch, classes, labels, nil
}

func logSumExp(row []float32) float32 {
	maxVal := math32.Inf(-1)
	for _, v := range row {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float32
	for _, v := range row {
		sum += math32.Exp(v - maxVal)
	}
	return maxVal + math32.Log(sum)
}

func sameSize(op string, pred, target *tensor.Tensor) error {
	if pred.NumElements() != target.NumElements() || pred.NumElements() == 0 {
		return &tensor.ShapeError{
			Op: op, Left: pred.Shape().Clone(), Right: target.Shape().Clone(),
			Msg: "element count mismatch",
		}
	}
	return nil
}

// LossByName returns the loss registered under name: "mse", "mae" or
// "cross_entropy".
func LossByName(name string) (Loss, error) {
	switch name {
	case "mse":
		return NewMSELoss(), nil
	case "mae":
		return NewMAELoss(), nil
	case "cross_entropy", "crossentropy":
		return NewCrossEntropyLoss(), nil
	default:
		return nil, fmt.Errorf("unknown loss %q", name)
	}
}
