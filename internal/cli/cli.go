// Package cli implements the flowview command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowview/pkg/buildinfo"
	"github.com/matzehuels/flowview/pkg/cache"
	"github.com/matzehuels/flowview/pkg/config"
	"github.com/matzehuels/flowview/pkg/definitions"
	"github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/layout"
	"github.com/matzehuels/flowview/pkg/model"
	"github.com/matzehuels/flowview/pkg/pipeline"
	"github.com/matzehuels/flowview/pkg/textmetrics"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before every command runs.
	Config *config.Config

	configPath string
	engine     string
	noCache    bool
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "flowview",
		Short: "Flowview lays out and renders component dataflow diagrams",
		Long: `Flowview turns a component definitions document into an interactive
dataflow diagram: the compound component as a frame, its members as nodes
and the slot connections between them as routed edges.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&c.configPath, "config", "", "config file (default: "+config.Path()+")")
	pf.StringVar(&c.engine, "engine", "", "layout engine: layered, graphviz (default from config)")
	pf.BoolVar(&c.noCache, "no-cache", false, "disable caching")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and applies the global flags on top.
func (c *CLI) loadConfig(cmd *cobra.Command, args []string) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.engine != "" {
		cfg.Layout.Engine = strings.ToLower(c.engine)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	c.Config = cfg
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner from the loaded configuration.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	cfg := c.Config
	if cfg == nil {
		cfg = config.Default()
	}

	store, keyer, err := c.newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(store, keyer, c.Logger)

	switch cfg.Layout.Engine {
	case config.EngineGraphviz:
		runner.Engine = layout.NewGraphvizEngine(c.Logger)
	default:
		runner.Engine = layout.NewLayeredEngine()
	}
	runner.Builder = model.NewBuilder(cfg.Model, textmetrics.NewFaceMeasurer())
	runner.LayoutOptions = layoutOptions(cfg.Layout)
	return runner, nil
}

func (c *CLI) newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, cache.Keyer, error) {
	if c.noCache {
		return cache.NewNullCache(), nil, nil
	}
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil, nil
	case config.BackendMemory:
		store, err := cache.NewMemoryCache(cfg.Entries)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewMaxTTL(store, cfg.TTL.Duration), nil, nil
	case config.BackendRedis:
		store, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to redis at %s", cfg.RedisAddr)
		}
		keyer := cache.NewScopedKeyer(nil, cfg.Prefix+":")
		return cache.NewMaxTTL(store, cfg.TTL.Duration), keyer, nil
	default:
		dir, err := cacheDir(cfg)
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil, nil
		}
		store, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewMaxTTL(store, cfg.TTL.Duration), nil, nil
	}
}

func layoutOptions(cfg config.LayoutConfig) layout.Options {
	opts := layout.DefaultOptions()
	if cfg.NodeSeparation > 0 {
		opts.NodeSeparation = cfg.NodeSeparation
	}
	if cfg.RankSeparation > 0 {
		opts.RankSeparation = cfg.RankSeparation
	}
	return opts
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the XDG default
// (~/.cache/flowview/).
func cacheDir(cfg config.CacheConfig) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	return config.CacheDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// setCLIDefaults applies the configured viewer settings to opts.
func (c *CLI) setCLIDefaults(opts *pipeline.Options) {
	cfg := c.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Width == 0 {
		opts.Width = cfg.Viewer.Width
	}
	if opts.Height == 0 {
		opts.Height = cfg.Viewer.Height
	}
	if opts.Scale == "" {
		opts.Scale = cfg.Viewer.Scale
	}
	opts.Logger = c.Logger
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return parts
}

// loadDefinitions reads the definitions file named by path, or stdin for "-".
func loadDefinitions(cmd *cobra.Command, runner *pipeline.Runner, path string) (*definitions.Index, error) {
	ix, err := runner.LoadDefinitions(path, cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("load definitions %s: %w", path, err)
	}
	return ix, nil
}
