package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/born-ml/lle/internal/blobs"
	"github.com/born-ml/lle/internal/serialization"
	"github.com/google/subcommands"
)

// PushCommand uploads a model to a blob store under its content hash.
type PushCommand struct{}

var _ subcommands.Command = (*PushCommand)(nil)

func (*PushCommand) Name() string     { return "push" }
func (*PushCommand) Synopsis() string { return "Upload a model to a blob store" }
func (*PushCommand) Usage() string {
	return `push <model.lle> <gs://bucket|directory>

Prints the hash the model can be pulled by.
`
}
func (*PushCommand) SetFlags(_ *flag.FlagSet) {}

func (c *PushCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return exit(ctx, c.executeErr(ctx, f.Arg(0), f.Arg(1)))
}

func (c *PushCommand) executeErr(ctx context.Context, path, location string) error {
	// Refuse to publish files that would not load.
	if _, _, err := serialization.Load(path); err != nil {
		return err
	}
	store, err := blobs.Open(location)
	if err != nil {
		return err
	}
	info, err := blobs.HashFile(path)
	if err != nil {
		return err
	}
	if err := store.Upload(ctx, path, info); err != nil {
		return err
	}
	fmt.Println(info.Hash)
	return nil
}

// PullCommand downloads a model from a blob store by hash.
type PullCommand struct{}

var _ subcommands.Command = (*PullCommand)(nil)

func (*PullCommand) Name() string             { return "pull" }
func (*PullCommand) Synopsis() string         { return "Download a model from a blob store" }
func (*PullCommand) Usage() string            { return "pull <hash> <gs://bucket|directory> <output.lle>\n" }
func (*PullCommand) SetFlags(_ *flag.FlagSet) {}

func (c *PullCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 3 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return exit(ctx, c.executeErr(ctx, f.Arg(0), f.Arg(1), f.Arg(2)))
}

func (c *PullCommand) executeErr(ctx context.Context, hash, location, dest string) error {
	store, err := blobs.Open(location)
	if err != nil {
		return err
	}
	if err := store.Download(ctx, blobs.BlobInfo{Hash: hash}, dest); err != nil {
		return err
	}
	_, meta, err := serialization.Load(dest)
	if err != nil {
		return fmt.Errorf("pulled file does not load: %w", err)
	}
	fmt.Printf("Pulled %s (%d parameters) to %s\n", hash, meta.Parameters, dest)
	return nil
}
