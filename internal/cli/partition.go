package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kmallard/riverseq/pkg/network"
	"github.com/kmallard/riverseq/pkg/pipeline"
)

// partitionOpts holds the command-line flags for the partition command.
type partitionOpts struct {
	output  string // output file path (stdout summary if empty)
	refresh bool   // bypass partition cache
	noCache bool   // disable caching entirely
}

// partitionCommand creates the partition command: it splits a network into
// outlet-rooted basins without running the rest of the pipeline. Useful for
// inspecting basin structure and pre-warming the cache.
func (c *CLI) partitionCommand() *cobra.Command {
	var opts partitionOpts

	cmd := &cobra.Command{
		Use:   "partition <network-file>",
		Short: "Split a river network into outlet-rooted basins",
		Long: `Split a river network into outlet-rooted basins.

Each basin contains exactly the segments that eventually flow into one
outlet. Without --output, a per-basin summary is printed; with --output,
the full basin membership is written as JSON.

Examples:
  riverseq partition network.json                # summary to stdout
  riverseq partition network.csv -o basins.json  # full membership`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPartition(cmd, &opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write basin membership as JSON to this file")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the partition cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching entirely")

	return cmd
}

func (c *CLI) runPartition(cmd *cobra.Command, opts *partitionOpts, path string) error {
	n, err := network.ReadFile(path)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(cmd, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	basins, err := runner.Partition(cmd.Context(), n, pipeline.Options{
		Refresh: opts.refresh,
		Logger:  c.Logger,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Partitioned %d segments into %d basins", n.Len(), len(basins)))

	if opts.output == "" {
		for _, b := range basins {
			printDetail("outlet %d: %d segments", b.Outlet, b.Len())
		}
		printNextStep("Augment the full network", fmt.Sprintf("riverseq augment %s", path))
		return nil
	}

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{"basins": basins}); err != nil {
		return err
	}
	printFile(opts.output)
	return nil
}
