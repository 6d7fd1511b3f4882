package train

import (
	"context"

	"github.com/born-ml/lle/internal/nn"
	"github.com/born-ml/lle/internal/serialization"
	"github.com/chewxy/math32"
	"k8s.io/klog/v2"
)

// SaveFunc persists model to path.
type SaveFunc func(ctx context.Context, path string, model *nn.Model, result EpochResult) error

// Checkpoint is a Callback that saves the model whenever an epoch reaches
// a new best loss. The validation loss is used when present, otherwise the
// training loss.
type Checkpoint struct {
	path string
	save SaveFunc
	best float32
}

var _ Callback = (*Checkpoint)(nil)

// NewCheckpoint creates a checkpoint writing to path with save. A nil save
// writes an .lle archive; see ArchiveSaver.
func NewCheckpoint(path string, save SaveFunc) *Checkpoint {
	if save == nil {
		save = ArchiveSaver("", nil)
	}
	return &Checkpoint{path: path, save: save, best: math32.Inf(1)}
}

// Best returns the best loss observed so far (+Inf before the first save).
func (c *Checkpoint) Best() float32 {
	return c.best
}

// OnEpochEnd implements Callback.
func (c *Checkpoint) OnEpochEnd(ctx context.Context, result EpochResult, model *nn.Model) error {
	loss := result.Loss()
	if !(loss < c.best) {
		return nil
	}
	if err := c.save(ctx, c.path, model, result); err != nil {
		return err
	}
	c.best = loss
	klog.FromContext(ctx).Info("checkpoint saved", "path", c.path, "epoch", result.Epoch, "loss", loss)
	return nil
}

// ArchiveSaver returns a SaveFunc that writes an .lle archive recording the
// epoch, its loss and the optimizer in the metadata. config, when non-nil,
// is embedded as config.json.
func ArchiveSaver(optimizer string, config any) SaveFunc {
	return func(_ context.Context, path string, model *nn.Model, result EpochResult) error {
		return serialization.Save(path, model, &serialization.Options{
			Config: config,
			Checkpoint: &serialization.CheckpointMeta{
				Epoch:     result.Epoch,
				Loss:      result.Loss(),
				Optimizer: optimizer,
				LR:        result.LR,
			},
		})
	}
}
