package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/born-ml/lle/internal/config"
	"github.com/born-ml/lle/internal/data"
	"github.com/born-ml/lle/internal/models"
	"github.com/born-ml/lle/internal/nn"
	"github.com/born-ml/lle/internal/optim"
	"github.com/born-ml/lle/internal/serialization"
	"github.com/born-ml/lle/internal/train"
	"github.com/google/subcommands"
	"github.com/klauspost/cpuid/v2"
	"k8s.io/klog/v2"
)

// InitCommand writes the default configuration.
type InitCommand struct {
	output string
}

var _ subcommands.Command = (*InitCommand)(nil)

func (*InitCommand) Name() string     { return "init" }
func (*InitCommand) Synopsis() string { return "Write a default training configuration" }
func (*InitCommand) Usage() string    { return "init [-o train-config.yaml]\n" }

func (c *InitCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", config.DefaultFile, "Path of the configuration file to write")
}

func (c *InitCommand) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := config.Default().Save(c.output); err != nil {
		return exit(ctx, err)
	}
	fmt.Printf("Created %s\n", c.output)
	return subcommands.ExitSuccess
}

// TrainCommand trains a model from a configuration file or a dataset.
type TrainCommand struct {
	output string
	epochs int
}

var _ subcommands.Command = (*TrainCommand)(nil)

func (*TrainCommand) Name() string     { return "train" }
func (*TrainCommand) Synopsis() string { return "Train a model" }
func (*TrainCommand) Usage() string {
	return `train <config.yaml|config.json|dataset>

A dataset path (.csv, .npz) trains the default configuration on it.
`
}

func (c *TrainCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "output", "", "Override the output model path")
	f.IntVar(&c.epochs, "epochs", 0, "Override the number of epochs")
}

func (c *TrainCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return exit(ctx, c.executeErr(ctx, f.Arg(0)))
}

func (c *TrainCommand) executeErr(ctx context.Context, arg string) error {
	log := klog.FromContext(ctx)

	cfg, err := resolveConfig(arg)
	if err != nil {
		return err
	}
	if c.output != "" {
		cfg.Output = c.output
	}
	if c.epochs > 0 {
		cfg.Epochs = c.epochs
	}

	log.Info("cpu",
		"brand", cpuid.CPU.BrandName,
		"cores", cpuid.CPU.PhysicalCores,
		"threads", cpuid.CPU.LogicalCores,
		"avx2", cpuid.CPU.Supports(cpuid.AVX2),
		"avx512", cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
	)
	if cfg.Seed != 0 {
		nn.Seed(cfg.Seed)
	}

	trainSet, valSet, err := loadDatasets(cfg)
	if err != nil {
		return err
	}

	modelCfg, err := cfg.ModelConfig()
	if err != nil {
		return err
	}
	model, err := models.Build(cfg.Model, modelCfg)
	if err != nil {
		return err
	}

	trainer, err := newTrainer(cfg)
	if err != nil {
		return err
	}

	var callbacks []train.Callback
	if cfg.Checkpoint != "" {
		callbacks = append(callbacks, train.NewCheckpoint(cfg.Checkpoint, train.ArchiveSaver(cfg.Optimizer, cfg)))
	}

	log.Info("training", "model", cfg.Model, "parameters", model.NumParams(), "examples", trainSet.Len(), "validation", valSet.Len(), "epochs", cfg.Epochs)
	history, err := trainer.Fit(ctx, model, trainSet, valSet, callbacks...)
	if err != nil {
		return fmt.Errorf("training: %w", err)
	}

	last := history[len(history)-1]
	if err := serialization.Save(cfg.Output, model, &serialization.Options{Config: cfg}); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}
	fmt.Printf("Training complete (loss %.6f), model saved to %s\n", last.Loss(), cfg.Output)
	return nil
}

// resolveConfig treats .yaml, .yml and .json arguments as configuration
// files and anything else as a dataset for the default configuration.
func resolveConfig(arg string) (*config.TrainConfig, error) {
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".yaml", ".yml", ".json":
		return config.Load(arg)
	default:
		cfg := config.ForDataset(arg)
		return cfg, cfg.Validate()
	}
}

func loadDatasets(cfg *config.TrainConfig) (trainSet, valSet *data.Dataset, err error) {
	trainSet, err = data.Load(cfg.Dataset)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case cfg.Validation != "":
		valSet, err = data.Load(cfg.Validation)
		if err != nil {
			return nil, nil, err
		}
	case cfg.ValidationSplit > 0:
		trainSet, valSet = trainSet.Split(1 - cfg.ValidationSplit)
	}
	return trainSet, valSet, nil
}

func newTrainer(cfg *config.TrainConfig) (*train.Trainer, error) {
	opt, err := optim.New(cfg.Optimizer, cfg.LR, cfg.WeightDecay)
	if err != nil {
		return nil, err
	}
	loss, err := nn.LossByName(cfg.Loss)
	if err != nil {
		return nil, err
	}

	tc := train.Config{Epochs: cfg.Epochs, Optimizer: opt, Loss: loss}
	if s := cfg.Scheduler; s != nil {
		switch s.Type {
		case "step":
			tc.Scheduler, err = optim.NewStepLR(opt, s.StepSize, s.Gamma)
		case "cosine":
			tc.Scheduler, err = optim.NewCosineAnnealing(opt, s.TMax, s.EtaMin)
		}
		if err != nil {
			return nil, err
		}
	}
	if cfg.BatchSize > 0 {
		tc.Batch = &data.LoaderConfig{
			BatchSize: cfg.BatchSize,
			Shuffle:   cfg.Shuffle,
			DropLast:  cfg.DropLast,
			Seed:      cfg.Seed,
		}
	}
	return train.New(tc)
}
