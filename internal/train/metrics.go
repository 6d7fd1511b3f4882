package train

import (
	"fmt"

	"github.com/born-ml/lle/internal/tensor"
	"github.com/chewxy/math32"
)

// Accuracy returns the fraction of correct predictions.
//
// A prediction with one column is a binary probability thresholded at 0.5
// and compared against a 0/1 target. Wider predictions are compared by
// argmax against either a one-hot target of the same shape or one class
// index per row.
func Accuracy(pred, target *tensor.Tensor) (float32, error) {
	classes := pred.Shape().Last()
	rows := pred.NumElements() / classes
	p, t := pred.Data(), target.Data()

	var correct int
	switch {
	case classes == 1:
		if len(t) != rows {
			return 0, sizeMismatch("Accuracy", pred, target)
		}
		for i, v := range p {
			if (v >= 0.5) == (t[i] >= 0.5) {
				correct++
			}
		}
	case len(t) == len(p):
		for r := range rows {
			if argmax(p[r*classes:(r+1)*classes]) == argmax(t[r*classes:(r+1)*classes]) {
				correct++
			}
		}
	case len(t) == rows:
		for r := range rows {
			if argmax(p[r*classes:(r+1)*classes]) == int(t[r]) {
				correct++
			}
		}
	default:
		return 0, sizeMismatch("Accuracy", pred, target)
	}
	return float32(correct) / float32(rows), nil
}

// MSE returns the mean squared error between pred and target.
func MSE(pred, target *tensor.Tensor) (float32, error) {
	return meanOf("MSE", pred, target, func(d float32) float32 { return d * d })
}

// MAE returns the mean absolute error between pred and target.
func MAE(pred, target *tensor.Tensor) (float32, error) {
	return meanOf("MAE", pred, target, math32.Abs)
}

func meanOf(op string, pred, target *tensor.Tensor, fn func(float32) float32) (float32, error) {
	if pred.NumElements() != target.NumElements() {
		return 0, sizeMismatch(op, pred, target)
	}
	var sum float32
	t := target.Data()
	for i, v := range pred.Data() {
		sum += fn(v - t[i])
	}
	return sum / float32(pred.NumElements()), nil
}

func argmax(row []float32) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}

func sizeMismatch(op string, pred, target *tensor.Tensor) *tensor.ShapeError {
	return &tensor.ShapeError{
		Op: op, Left: pred.Shape(), Right: target.Shape(),
		Msg: fmt.Sprintf("%d predictions, %d targets", pred.NumElements(), target.NumElements()),
	}
}
