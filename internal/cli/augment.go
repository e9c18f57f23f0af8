package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kmallard/riverseq/pkg/network"
	"github.com/kmallard/riverseq/pkg/pipeline"
	"github.com/kmallard/riverseq/pkg/store"
	"github.com/kmallard/riverseq/pkg/vaa"
)

// augmentOpts holds the command-line flags for the augment command.
type augmentOpts struct {
	output         string  // output file path (stdout if empty)
	format         string  // output format: json or csv
	parallelism    int     // worker pool size, 0 = sequential
	sizeThreshold  int     // large-basin cutoff
	overrideFactor float64 // name-override tie-break factor
	refresh        bool    // bypass partition cache
	noCache        bool    // disable caching entirely
	save           string  // persist result under this name
}

// augmentCommand creates the augment command, the CLI's main entry point:
// it runs the full partition → assign → combine → derive pipeline over a
// network file and writes the augmented table.
func (c *CLI) augmentCommand() *cobra.Command {
	opts := augmentOpts{
		parallelism:    c.Config.Pipeline.Parallelism,
		sizeThreshold:  c.Config.Pipeline.SizeThreshold,
		overrideFactor: c.Config.Pipeline.OverrideFactor,
	}

	cmd := &cobra.Command{
		Use:   "augment <network-file>",
		Short: "Augment a river network with derived flow attributes",
		Long: `Augment a river network with derived flow attributes.

Reads a network table (JSON or CSV, detected by extension), partitions it
into basins, numbers each basin along its mainstem paths, and writes one
augmented row per segment: hydrosequence, level path, terminal path, path
length, downstream links, cumulative drainage area and terminal flag.

Examples:
  riverseq augment network.json                    # JSON to stdout
  riverseq augment network.csv -o out.csv          # CSV in, CSV out
  riverseq augment network.json --parallelism 8    # concurrent basins
  riverseq augment network.json --save spring-2026 # persist to the store`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAugment(cmd, &opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: json or csv (default: from output extension)")
	cmd.Flags().IntVarP(&opts.parallelism, "parallelism", "p", opts.parallelism, "max concurrent basin workers (0 = sequential)")
	cmd.Flags().IntVar(&opts.sizeThreshold, "size-threshold", opts.sizeThreshold, "segment count above which a basin runs alone")
	cmd.Flags().Float64Var(&opts.overrideFactor, "override-factor", opts.overrideFactor, "weight factor for name-based mainstem override")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the partition cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching entirely")
	cmd.Flags().StringVar(&opts.save, "save", "", "persist the result in the store under this name")

	return cmd
}

func (c *CLI) runAugment(cmd *cobra.Command, opts *augmentOpts, path string) error {
	ctx := cmd.Context()

	n, err := network.ReadFile(path)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(cmd, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Augmenting %d segments...", n.Len()))
	spinner.Start()

	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, n, pipeline.Options{
		Parallelism:    opts.parallelism,
		SizeThreshold:  opts.sizeThreshold,
		OverrideFactor: opts.overrideFactor,
		Refresh:        opts.refresh,
		Logger:         c.Logger,
	})
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Augmentation failed: %v", err))
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Augmented %d segments across %d basins",
		result.Stats.SegmentCount, result.Stats.BasinCount))

	printStats(result.Stats.SegmentCount, result.Stats.BasinCount, result.CacheInfo.PartitionHit)
	if len(result.UndefinedPathLength) > 0 {
		printWarning("%d segments have undefined path length", len(result.UndefinedPathLength))
	}

	if opts.save != "" {
		if err := c.saveResult(cmd, opts.save, result); err != nil {
			return err
		}
		printSuccess("Saved result as %q", opts.save)
	}

	if err := writeRows(result.Rows, opts.output, opts.format); err != nil {
		return err
	}
	if opts.output != "" {
		printFile(opts.output)
	}
	return nil
}

// saveResult persists an augmentation result in the configured store.
func (c *CLI) saveResult(cmd *cobra.Command, name string, result *pipeline.Result) error {
	st, err := c.newStore(cmd)
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("--save requires a store.uri in the config file")
	}
	defer st.Close(cmd.Context())

	return st.Save(cmd.Context(), store.Record{
		Name:        name,
		NetworkHash: result.NetworkHash,
		CreatedAt:   time.Now().UTC(),
		Rows:        result.Rows,
	})
}

// writeRows writes the augmented table to path (or stdout) in the requested
// format. When format is empty, it is inferred from the output extension,
// defaulting to JSON.
func writeRows(rows []vaa.Augmented, path, format string) error {
	if format == "" {
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			format = "csv"
		} else {
			format = "json"
		}
	}

	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	switch format {
	case "json":
		return vaa.WriteJSON(rows, out)
	case "csv":
		return vaa.WriteCSV(rows, out)
	default:
		return fmt.Errorf("unknown format: %q (must be json or csv)", format)
	}
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
