package config

import (
	"path/filepath"
	"testing"

	"github.com/born-ml/lle/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_JSONConfig(t *testing.T) {
	raw := []byte(`{
  "model": "mlp",
  "config": {"input": 2, "layers": [4], "output": 1},
  "optimizer": "sgd",
  "lr": 0.1,
  "epochs": 5,
  "loss": "mse",
  "dataset": "train.csv"
}`)
	cfg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "sgd", cfg.Optimizer)
	assert.Equal(t, float32(0.1), cfg.LR)
	assert.Equal(t, 5, cfg.Epochs)
	assert.Equal(t, "model.lle", cfg.Output, "defaults fill missing fields")

	modelCfg, err := cfg.ModelConfig()
	require.NoError(t, err)
	m, err := models.Build(cfg.Model, modelCfg)
	require.NoError(t, err)
	assert.Equal(t, 2*4+4+4*1+1, m.NumParams())
}

func TestParse_YAMLWithScheduler(t *testing.T) {
	raw := []byte(`
model: transformer
config:
  vocabSize: 16
  embedSize: 4
  numBlocks: 1
  classes: 2
optimizer: adamw
lr: 0.001
weightDecay: 0.05
epochs: 3
loss: cross_entropy
dataset: tokens.npz
validationSplit: 0.2
batchSize: 8
shuffle: true
scheduler:
  type: cosine
  tMax: 3
`)
	cfg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, float32(0.05), cfg.WeightDecay)
	assert.Equal(t, 8, cfg.BatchSize)
	assert.True(t, cfg.Shuffle)
	require.NotNil(t, cfg.Scheduler)
	assert.Equal(t, "cosine", cfg.Scheduler.Type)
	assert.Equal(t, 3, cfg.Scheduler.TMax)
	assert.Equal(t, 16, cfg.Config["vocabSize"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TrainConfig)
		want   string
	}{
		{"optimizer", func(c *TrainConfig) { c.Optimizer = "lbfgs" }, "optimizer"},
		{"loss", func(c *TrainConfig) { c.Loss = "hinge" }, "loss"},
		{"epochs", func(c *TrainConfig) { c.Epochs = 0 }, "epochs"},
		{"split", func(c *TrainConfig) { c.ValidationSplit = 1 }, "validationSplit"},
		{"scheduler", func(c *TrainConfig) { c.Scheduler = &SchedulerConfig{Type: "step"} }, "stepSize"},
		{"dataset", func(c *TrainConfig) { c.Dataset = "" }, "dataset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	want := ForDataset("iris.csv")
	want.Scheduler = &SchedulerConfig{Type: "step", StepSize: 10, Gamma: 0.5}
	require.NoError(t, want.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "iris.csv", got.Dataset)
	assert.Equal(t, want.Scheduler, got.Scheduler)
	assert.Equal(t, want.Epochs, got.Epochs)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
