// Package cli implements the riverseq command-line interface.
//
// This package provides commands for augmenting river networks with derived
// attributes, inspecting basin partitions, rendering network diagrams, and
// managing the partition cache. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - augment: Run the full attribute pipeline over a network file
//   - partition: Split a network into outlet-rooted basins
//   - dot: Render a network as a Graphviz diagram colored by level path
//   - results: Manage saved augmentation results (requires a store)
//   - serve: Run the HTTP API
//   - cache: Manage the partition cache
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kmallard/riverseq/pkg/buildinfo"
	"github.com/kmallard/riverseq/pkg/cache"
	"github.com/kmallard/riverseq/pkg/pipeline"
	"github.com/kmallard/riverseq/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "riverseq"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config
}

// New creates a new CLI instance with a default logger and the on-disk
// configuration (falling back to defaults when no config file exists).
func New(w io.Writer, level log.Level) *CLI {
	cfg, err := LoadConfig("")
	c := &CLI{
		Logger: newLogger(w, level),
		Config: cfg,
	}
	if err != nil {
		c.Logger.Warn("config file ignored", "error", err)
	}
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Riverseq augments river networks with derived flow attributes",
		Long:         `Riverseq is a CLI tool for augmenting river-network tables with derived attributes - hydrosequence numbers, level paths, terminal paths, cumulative drainage areas and path lengths - computed per basin and merged into one consistent table.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.augmentCommand())
	root.AddCommand(c.partitionCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.resultsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use, honoring the configured
// cache backend.
func (c *CLI) newRunner(cmd *cobra.Command, noCache bool) (*pipeline.Runner, error) {
	ca, err := c.newCache(cmd, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ca, nil, c.Logger), nil
}

func (c *CLI) newCache(cmd *cobra.Command, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case CacheBackendNone:
		return cache.NewNullCache(), nil
	case CacheBackendRedis:
		return cache.NewRedisCache(cmd.Context(), c.Config.Cache.RedisAddr)
	default:
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// newStore opens the configured result store, or returns nil when none is
// configured.
func (c *CLI) newStore(cmd *cobra.Command) (store.Store, error) {
	if c.Config.Store.URI == "" {
		return nil, nil
	}
	return store.NewMongoStore(cmd.Context(),
		c.Config.Store.URI, c.Config.Store.Database, c.Config.Store.Collection)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/riverseq/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
