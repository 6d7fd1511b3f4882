package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/born-ml/lle/internal/data"
	"github.com/born-ml/lle/internal/nn"
	"github.com/born-ml/lle/internal/serialization"
	"github.com/born-ml/lle/internal/train"
	"github.com/google/subcommands"
)

// TestCommand evaluates a saved model on a dataset.
type TestCommand struct {
	loss      string
	batchSize int
	accuracy  bool
}

var _ subcommands.Command = (*TestCommand)(nil)

func (*TestCommand) Name() string     { return "test" }
func (*TestCommand) Synopsis() string { return "Evaluate a model on a dataset" }
func (*TestCommand) Usage() string    { return "test <model.lle> <dataset>\n" }

func (c *TestCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.loss, "loss", "mse", "Loss to report: mse, mae or cross_entropy")
	f.IntVar(&c.batchSize, "batch-size", 0, "Evaluate in batches of this size (0: one example at a time)")
	f.BoolVar(&c.accuracy, "accuracy", false, "Also report classification accuracy")
}

func (c *TestCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return exit(ctx, c.executeErr(f.Arg(0), f.Arg(1)))
}

func (c *TestCommand) executeErr(modelPath, datasetPath string) error {
	model, _, err := serialization.Load(modelPath)
	if err != nil {
		return err
	}
	ds, err := data.Load(datasetPath)
	if err != nil {
		return err
	}
	loss, err := nn.LossByName(c.loss)
	if err != nil {
		return err
	}

	var batch *data.LoaderConfig
	if c.batchSize > 0 {
		batch = &data.LoaderConfig{BatchSize: c.batchSize}
	}
	value, err := train.Evaluate(model, loss, ds, batch)
	if err != nil {
		return err
	}
	fmt.Printf("Test loss (%s): %.6f\n", loss.Name(), value)

	if c.accuracy {
		acc, err := datasetAccuracy(model, ds)
		if err != nil {
			return err
		}
		fmt.Printf("Accuracy: %.2f%%\n", 100*acc)
	}
	return nil
}

// datasetAccuracy predicts the whole dataset as one stacked batch.
func datasetAccuracy(model *nn.Model, ds *data.Dataset) (float32, error) {
	if err := ds.Validate(); err != nil {
		return 0, err
	}
	inputs, err := data.Stack(ds.Inputs)
	if err != nil {
		return 0, err
	}
	targets, err := data.Stack(ds.Targets)
	if err != nil {
		return 0, err
	}
	pred, err := model.Predict(inputs)
	if err != nil {
		return 0, err
	}
	return train.Accuracy(pred, targets)
}

// StatsCommand prints a model summary.
type StatsCommand struct{}

var _ subcommands.Command = (*StatsCommand)(nil)

func (*StatsCommand) Name() string             { return "stats" }
func (*StatsCommand) Synopsis() string         { return "Show model statistics" }
func (*StatsCommand) Usage() string            { return "stats <model.lle>\n" }
func (*StatsCommand) SetFlags(_ *flag.FlagSet) {}

func (c *StatsCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return exit(ctx, c.executeErr(f.Arg(0)))
}

func (c *StatsCommand) executeErr(path string) error {
	model, meta, err := serialization.Load(path)
	if err != nil {
		return err
	}

	fmt.Printf("Format: %s %s\n", meta.Format, meta.Version)
	if !meta.CreatedAt.IsZero() {
		fmt.Printf("Created: %s\n", meta.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if cp := meta.Checkpoint; cp != nil {
		fmt.Printf("Checkpoint: epoch %d, loss %.6f, %s lr=%g\n", cp.Epoch, cp.Loss, cp.Optimizer, cp.LR)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tLAYER\tPARAMS\tSHAPES")
	for i, l := range model.Layers() {
		var n int
		var shapes []string
		for _, p := range l.Parameters() {
			n += p.Shape().NumElements()
			shapes = append(shapes, p.Shape().String())
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%v\n", i, l.Type(), n, shapes)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("Total parameters: %d\n", model.NumParams())
	return nil
}

// ExportCommand re-saves a model, carrying over its embedded configuration.
type ExportCommand struct{}

var _ subcommands.Command = (*ExportCommand)(nil)

func (*ExportCommand) Name() string             { return "export" }
func (*ExportCommand) Synopsis() string         { return "Export a model to a new file" }
func (*ExportCommand) Usage() string            { return "export <model.lle> <output.lle>\n" }
func (*ExportCommand) SetFlags(_ *flag.FlagSet) {}

func (c *ExportCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return exit(ctx, c.executeErr(f.Arg(0), f.Arg(1)))
}

func (c *ExportCommand) executeErr(src, dst string) error {
	model, meta, err := serialization.Load(src)
	if err != nil {
		return err
	}
	opts := &serialization.Options{Checkpoint: meta.Checkpoint}
	var cfg map[string]any
	ok, err := serialization.ReadConfig(src, &cfg)
	if err != nil {
		return err
	}
	if ok {
		opts.Config = cfg
	}
	if err := serialization.Save(dst, model, opts); err != nil {
		return err
	}
	fmt.Printf("Model exported to %s\n", dst)
	return nil
}
