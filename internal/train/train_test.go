package train

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/born-ml/lle/internal/data"
	"github.com/born-ml/lle/internal/nn"
	"github.com/born-ml/lle/internal/optim"
	"github.com/born-ml/lle/internal/serialization"
	"github.com/born-ml/lle/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable returns points on either side of the line x0 + x1 = 0,
// labeled 1 above it and 0 below.
func separable(t *testing.T) *data.Dataset {
	t.Helper()
	var rows [][]float32
	var labels []float32
	for i := range 16 {
		a := float32(i%4)*0.25 + 0.25
		b := float32(i/4) * 0.2
		rows = append(rows, []float32{a, b}, []float32{-a, -b})
		labels = append(labels, 1, 0)
	}
	ds, err := data.FromRows(rows, labels)
	require.NoError(t, err)
	return ds
}

func newTrainer(t *testing.T, epochs int, batch *data.LoaderConfig) *Trainer {
	t.Helper()
	tr, err := New(Config{
		Epochs:    epochs,
		Optimizer: optim.NewSGD(optim.SGDConfig{LR: 0.1}),
		Loss:      nn.NewMSELoss(),
		Batch:     batch,
	})
	require.NoError(t, err)
	return tr
}

func TestFit_DecreasesLoss(t *testing.T) {
	nn.Seed(7)
	model := nn.NewModel(nn.NewDense(2, 1))
	ds := separable(t)
	tr := newTrainer(t, 15, &data.LoaderConfig{BatchSize: 4, Shuffle: true, Seed: 1})

	before, err := tr.Evaluate(model, ds)
	require.NoError(t, err)

	history, err := tr.Fit(context.Background(), model, ds, ds)
	require.NoError(t, err)
	require.Len(t, history, 15)

	after, err := tr.Evaluate(model, ds)
	require.NoError(t, err)
	assert.Less(t, after, before)
	assert.True(t, history[14].HasVal)
	assert.Equal(t, after, history[14].ValLoss)

	pred, err := model.Predict(tensor.New([]float32{1, 1, -1, -1}, 2, 2))
	require.NoError(t, err)
	acc, err := Accuracy(pred, tensor.New([]float32{1, 0}, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, float32(1), acc)
}

func TestFit_PerExampleSteps(t *testing.T) {
	nn.Seed(3)
	model := nn.NewModel(nn.NewDense(2, 1), nn.NewLinear())
	ds := separable(t)
	tr := newTrainer(t, 10, nil)

	before, err := tr.Evaluate(model, ds)
	require.NoError(t, err)
	history, err := tr.Fit(context.Background(), model, ds, nil)
	require.NoError(t, err)
	after, err := tr.Evaluate(model, ds)
	require.NoError(t, err)

	assert.Less(t, after, before)
	assert.False(t, history[0].HasVal)
	assert.True(t, model.Training(), "Evaluate must restore training mode")
}

func TestFit_CallbacksAndScheduler(t *testing.T) {
	model := nn.NewModel(nn.NewDense(2, 1))
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1})
	sched, err := optim.NewStepLR(opt, 2, 0.5)
	require.NoError(t, err)
	tr, err := New(Config{Epochs: 4, Optimizer: opt, Loss: nn.NewMSELoss(), Scheduler: sched})
	require.NoError(t, err)

	var epochs []int
	cb := CallbackFunc(func(_ context.Context, r EpochResult, m *nn.Model) error {
		assert.Same(t, model, m)
		epochs = append(epochs, r.Epoch)
		return nil
	})
	history, err := tr.Fit(context.Background(), model, separable(t), nil, cb)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, epochs)
	lrs := []float32{history[0].LR, history[1].LR, history[2].LR, history[3].LR}
	assert.InDeltaSlice(t, []float32{0.1, 0.1, 0.05, 0.05}, lrs, 1e-7)
}

func TestFit_StopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	tr := newTrainer(t, 5, nil)
	history, err := tr.Fit(context.Background(), nn.NewModel(nn.NewDense(2, 1)), separable(t), nil,
		CallbackFunc(func(context.Context, EpochResult, *nn.Model) error { return stop }))
	assert.ErrorIs(t, err, stop)
	assert.Len(t, history, 1)
}

func TestFit_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := newTrainer(t, 3, nil)
	history, err := tr.Fit(ctx, nn.NewModel(nn.NewDense(2, 1)), separable(t), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, history)
}

func TestFit_Errors(t *testing.T) {
	_, err := New(Config{Epochs: 0, Optimizer: optim.NewSGD(optim.SGDConfig{}), Loss: nn.NewMSELoss()})
	assert.Error(t, err)
	_, err = New(Config{Epochs: 1, Loss: nn.NewMSELoss()})
	assert.Error(t, err)

	tr := newTrainer(t, 1, nil)
	_, err = tr.Fit(context.Background(), nn.NewModel(nn.NewDense(3, 1)), separable(t), nil)
	assert.True(t, tensor.IsShapeError(err), "got %v", err)

	tiny := newTrainer(t, 1, &data.LoaderConfig{BatchSize: 64, DropLast: true})
	_, err = tiny.Fit(context.Background(), nn.NewModel(nn.NewDense(2, 1)), separable(t), nil)
	assert.ErrorIs(t, err, ErrNoBatches)

	mae, err := New(Config{Epochs: 1, Optimizer: optim.NewSGD(optim.SGDConfig{}), Loss: nn.NewMAELoss()})
	require.NoError(t, err)
	_, err = mae.Fit(context.Background(), nn.NewModel(nn.NewDense(2, 1)), separable(t), nil)
	assert.ErrorIs(t, err, nn.ErrNotDifferentiable)
}

func TestCheckpoint_SavesOnImprovement(t *testing.T) {
	var saved []int
	cp := NewCheckpoint("best.lle", func(_ context.Context, path string, _ *nn.Model, r EpochResult) error {
		assert.Equal(t, "best.lle", path)
		saved = append(saved, r.Epoch)
		return nil
	})

	ctx := context.Background()
	results := []EpochResult{
		{Epoch: 1, TrainLoss: 1.0},
		{Epoch: 2, TrainLoss: 0.5},
		{Epoch: 3, TrainLoss: 0.7},
		{Epoch: 4, TrainLoss: 0.1, ValLoss: 0.6, HasVal: true},
		{Epoch: 5, TrainLoss: 0.9, ValLoss: 0.4, HasVal: true},
	}
	for _, r := range results {
		require.NoError(t, cp.OnEpochEnd(ctx, r, nil))
	}
	assert.Equal(t, []int{1, 2, 5}, saved)
	assert.Equal(t, float32(0.4), cp.Best())
}

func TestCheckpoint_WritesArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best.lle")
	model := nn.NewModel(nn.NewDense(2, 1))
	tr, err := New(Config{Epochs: 2, Optimizer: optim.NewAdam(optim.AdamConfig{}), Loss: nn.NewMSELoss()})
	require.NoError(t, err)

	cp := NewCheckpoint(path, ArchiveSaver("adam", map[string]int{"epochs": 2}))
	_, err = tr.Fit(context.Background(), model, separable(t), nil, cp)
	require.NoError(t, err)

	_, meta, err := serialization.Load(path)
	require.NoError(t, err)
	require.NotNil(t, meta.Checkpoint)
	assert.Equal(t, "adam", meta.Checkpoint.Optimizer)
	assert.Equal(t, cp.Best(), meta.Checkpoint.Loss)

	var cfg map[string]int
	ok, err := serialization.ReadConfig(path, &cfg)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, cfg["epochs"])
}

func TestMetrics(t *testing.T) {
	pred := tensor.New([]float32{0.9, 0.1, 0.2, 0.8, 0.6, 0.4}, 3, 2)

	acc, err := Accuracy(pred, tensor.New([]float32{0, 1, 1}, 3))
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, acc, 1e-6)

	acc, err = Accuracy(pred, tensor.New([]float32{1, 0, 0, 1, 1, 0}, 3, 2))
	require.NoError(t, err)
	assert.Equal(t, float32(1), acc)

	acc, err = Accuracy(tensor.New([]float32{0.7, 0.2}, 2, 1), tensor.New([]float32{1, 1}, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), acc)

	_, err = Accuracy(pred, tensor.New([]float32{1, 0}, 2))
	assert.True(t, tensor.IsShapeError(err))

	mse, err := MSE(tensor.New([]float32{1, 2}), tensor.New([]float32{2, 3}))
	require.NoError(t, err)
	assert.Equal(t, float32(1), mse)

	mae, err := MAE(tensor.New([]float32{1, -2}), tensor.New([]float32{0, 1}))
	require.NoError(t, err)
	assert.Equal(t, float32(2), mae)
}
