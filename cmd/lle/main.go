// Command lle trains, evaluates, inspects and distributes models stored in
// the .lle format.
//
//	lle init                          write a default train-config.yaml
//	lle train train-config.yaml       train as configured
//	lle train data.csv                train the default MLP on a dataset
//	lle test model.lle data.csv       report the loss on a dataset
//	lle stats model.lle               parameter counts per layer
//	lle export model.lle out.lle      re-save a model
//	lle push model.lle gs://bucket    upload by content hash
//	lle pull <hash> gs://bucket out   download by content hash
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"k8s.io/klog/v2"
)

const version = "v1.1.1"

func main() {
	klog.InitFlags(nil)

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&InitCommand{}, "")
	subcommands.Register(&TrainCommand{}, "")
	subcommands.Register(&TestCommand{}, "")
	subcommands.Register(&StatsCommand{}, "")
	subcommands.Register(&ExportCommand{}, "")
	subcommands.Register(&PushCommand{}, "blobs")
	subcommands.Register(&PullCommand{}, "blobs")
	subcommands.Register(&VersionCommand{}, "")

	flag.Parse()
	ctx := context.Background()
	status := subcommands.Execute(ctx)
	klog.Flush()
	os.Exit(int(status))
}

// exit converts a command error into an exit status.
func exit(ctx context.Context, err error) subcommands.ExitStatus {
	if err != nil {
		klog.FromContext(ctx).Error(err, "command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// VersionCommand prints the release.
type VersionCommand struct{}

var _ subcommands.Command = (*VersionCommand)(nil)

func (*VersionCommand) Name() string             { return "version" }
func (*VersionCommand) Synopsis() string         { return "Show version" }
func (*VersionCommand) Usage() string            { return "version\n" }
func (*VersionCommand) SetFlags(_ *flag.FlagSet) {}

func (*VersionCommand) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Printf("lle %s\n", version)
	return subcommands.ExitSuccess
}
