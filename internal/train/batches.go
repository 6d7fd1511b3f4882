package train

import (
	"iter"

	"github.com/born-ml/lle/internal/data"
	"github.com/born-ml/lle/internal/tensor"
)

// pairs yields (inputs, targets) for one pass over a dataset.
type pairs = iter.Seq2[*tensor.Tensor, *tensor.Tensor]

// batches returns a function producing a fresh pass over ds on every call:
// stacked mini-batches when cfg is set, the raw entries otherwise.
func batches(ds *data.Dataset, cfg *data.LoaderConfig) (func() pairs, error) {
	if cfg == nil {
		return func() pairs {
			return func(yield func(*tensor.Tensor, *tensor.Tensor) bool) {
				for i := range ds.Inputs {
					if !yield(ds.Inputs[i], ds.Targets[i]) {
						return
					}
				}
			}
		}, nil
	}

	loader, err := data.NewLoader(ds, *cfg)
	if err != nil {
		return nil, err
	}
	return func() pairs {
		pass := loader.Batches()
		return func(yield func(*tensor.Tensor, *tensor.Tensor) bool) {
			for b := range pass {
				if !yield(b.Inputs, b.Targets) {
					return
				}
			}
		}
	}, nil
}
