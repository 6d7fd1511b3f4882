// Package train runs the epoch loop that fits a model to a dataset.
//
// A Trainer wires a Model, a Loss, an Optimizer and an optional Scheduler.
// Every step runs forward, loss, backward and one optimizer update; after
// each epoch the model is evaluated on the validation set (if any) and the
// registered callbacks observe the result.
//
// Example:
//
//	tr, err := train.New(train.Config{
//	    Epochs:    20,
//	    Optimizer: optim.NewAdam(optim.AdamConfig{LR: 0.01}),
//	    Loss:      nn.NewMSELoss(),
//	})
//	history, err := tr.Fit(ctx, model, trainSet, valSet)
package train

import (
	"context"
	"errors"
	"fmt"

	"github.com/born-ml/lle/internal/data"
	"github.com/born-ml/lle/internal/nn"
	"github.com/born-ml/lle/internal/optim"
	"github.com/born-ml/lle/internal/tensor"
	"k8s.io/klog/v2"
)

// ErrNoBatches reports a pass that produced no steps, e.g. a dataset
// smaller than the batch size with DropLast set.
var ErrNoBatches = errors.New("train: dataset yields no batches")

// Config configures a Trainer.
type Config struct {
	Epochs    int
	Optimizer optim.Optimizer
	Loss      nn.Loss
	Scheduler optim.Scheduler // optional

	// Batch, when set, groups examples into stacked mini-batches. When nil
	// every dataset entry is one step, which suits datasets whose entries
	// are already batches.
	Batch *data.LoaderConfig
}

// EpochResult summarizes one epoch.
type EpochResult struct {
	Epoch     int     // 1-based
	TrainLoss float32 // mean training loss over the epoch's steps
	ValLoss   float32 // valid only when HasVal is true
	HasVal    bool
	LR        float32 // learning rate used for the epoch
}

// Loss returns the validation loss when present, otherwise the training loss.
func (r EpochResult) Loss() float32 {
	if r.HasVal {
		return r.ValLoss
	}
	return r.TrainLoss
}

// Callback observes the end of every epoch. A returned error stops Fit.
type Callback interface {
	OnEpochEnd(ctx context.Context, result EpochResult, model *nn.Model) error
}

// CallbackFunc adapts a function to Callback.
type CallbackFunc func(ctx context.Context, result EpochResult, model *nn.Model) error

// OnEpochEnd calls f.
func (f CallbackFunc) OnEpochEnd(ctx context.Context, result EpochResult, model *nn.Model) error {
	return f(ctx, result, model)
}

// Trainer drives the training loop.
type Trainer struct {
	cfg Config
}

// New validates cfg and creates a Trainer.
func New(cfg Config) (*Trainer, error) {
	switch {
	case cfg.Epochs <= 0:
		return nil, fmt.Errorf("train: epochs must be positive, got %d", cfg.Epochs)
	case cfg.Optimizer == nil:
		return nil, errors.New("train: optimizer is required")
	case cfg.Loss == nil:
		return nil, errors.New("train: loss is required")
	}
	return &Trainer{cfg: cfg}, nil
}

// Fit trains model on trainSet for the configured number of epochs and
// returns the per-epoch history. val may be nil.
//
// Optimizer state is allocated once, before the first epoch. Cancellation
// of ctx is observed between epochs; the history so far is returned with
// the context's error.
func (t *Trainer) Fit(ctx context.Context, model *nn.Model, trainSet, val *data.Dataset, callbacks ...Callback) ([]EpochResult, error) {
	log := klog.FromContext(ctx)

	if err := trainSet.CheckPairs(); err != nil {
		return nil, fmt.Errorf("train: training set: %w", err)
	}
	steps, err := t.steps(trainSet)
	if err != nil {
		return nil, err
	}

	state := t.cfg.Optimizer.NewState(model.Parameters())
	history := make([]EpochResult, 0, t.cfg.Epochs)

	for epoch := range t.cfg.Epochs {
		if err := ctx.Err(); err != nil {
			return history, err
		}
		if t.cfg.Scheduler != nil {
			t.cfg.Scheduler.Step(epoch)
		}
		model.SetTraining(true)

		var total float32
		var n int
		for x, y := range steps() {
			loss, err := t.step(model, state, x, y)
			if err != nil {
				return history, fmt.Errorf("epoch %d step %d: %w", epoch+1, n, err)
			}
			total += loss
			n++
		}
		if n == 0 {
			return history, ErrNoBatches
		}

		result := EpochResult{Epoch: epoch + 1, TrainLoss: total / float32(n), LR: t.cfg.Optimizer.LR()}
		if val.Len() > 0 {
			result.ValLoss, err = t.Evaluate(model, val)
			if err != nil {
				return history, fmt.Errorf("epoch %d validation: %w", epoch+1, err)
			}
			result.HasVal = true
		}
		history = append(history, result)

		kv := []any{"epoch", result.Epoch, "epochs", t.cfg.Epochs, "loss", result.TrainLoss}
		if result.HasVal {
			kv = append(kv, "valLoss", result.ValLoss)
		}
		log.Info("epoch complete", append(kv, "lr", result.LR)...)

		for _, cb := range callbacks {
			if err := cb.OnEpochEnd(ctx, result, model); err != nil {
				return history, err
			}
		}
	}
	return history, nil
}

// Evaluate returns the mean loss of model over ds in eval mode. The
// model's training flag is restored afterwards and parameters are not
// touched.
func (t *Trainer) Evaluate(model *nn.Model, ds *data.Dataset) (float32, error) {
	return Evaluate(model, t.cfg.Loss, ds, t.cfg.Batch)
}

// Evaluate returns the mean of loss over ds, computed in eval mode. With a
// non-nil batch config the examples are stacked into batches first;
// shuffling is ignored.
func Evaluate(model *nn.Model, loss nn.Loss, ds *data.Dataset, batch *data.LoaderConfig) (float32, error) {
	if err := ds.CheckPairs(); err != nil {
		return 0, err
	}
	var cfg *data.LoaderConfig
	if batch != nil {
		c := *batch
		c.Shuffle, c.DropLast = false, false
		cfg = &c
	}
	steps, err := batches(ds, cfg)
	if err != nil {
		return 0, err
	}

	var total float32
	var n int
	for x, y := range steps() {
		pred, err := model.Predict(x)
		if err != nil {
			return 0, err
		}
		l, err := loss.Forward(pred, y)
		if err != nil {
			return 0, err
		}
		total += l
		n++
	}
	if n == 0 {
		return 0, ErrNoBatches
	}
	return total / float32(n), nil
}

func (t *Trainer) step(model *nn.Model, state *optim.State, x, y *tensor.Tensor) (float32, error) {
	pred, trace, err := model.Forward(x)
	if err != nil {
		return 0, err
	}
	loss, err := t.cfg.Loss.Forward(pred, y)
	if err != nil {
		return 0, err
	}
	grad, err := t.cfg.Loss.Backward(pred, y)
	if err != nil {
		return 0, err
	}
	if err := model.Backward(trace, grad); err != nil {
		return 0, err
	}
	if err := t.cfg.Optimizer.Step(state, model.Parameters()); err != nil {
		return 0, err
	}
	return loss, nil
}

func (t *Trainer) steps(ds *data.Dataset) (func() pairs, error) {
	return batches(ds, t.cfg.Batch)
}
