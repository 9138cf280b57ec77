// Package cli implements the loggraph command tree.
//
// Every command reads commits from a Git repository or from a text log
// ("hash|-parent parent" per line, "-" for stdin), builds a session and
// presents it: log and view draw lanes in the terminal, dump prints the
// debug dump, render writes Graphviz output, refs lists references, and
// serve exposes sessions over HTTP. Status lines and logs go to stderr so
// stdout stays pipeable.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/loggraph/internal/config"
	"github.com/matzehuels/loggraph/pkg/buildinfo"
	"github.com/matzehuels/loggraph/pkg/cache"
	"github.com/matzehuels/loggraph/pkg/observability"
)

// appName names the binary and the per-user config and cache directories.
const appName = "loggraph"

// Log levels selected by the --verbose flag in main.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI is the state shared by every subcommand: the logger and the
// configuration loaded before any subcommand runs.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	configPath string
}

// New returns a CLI that logs to w at level and starts from the built-in
// configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), Config: config.Default()}
}

// SetLogLevel changes the level of the shared logger. At debug level the
// build, layout and cache hooks are routed into the log as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level > log.DebugLevel {
		observability.Reset()
		return
	}
	hooks := observability.NewLogHooks(c.Logger)
	observability.SetBuildHooks(hooks)
	observability.SetLayoutHooks(hooks)
	observability.SetCacheHooks(hooks)
}

// RootCommand assembles the loggraph command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Loggraph draws commit graphs",
		Long: `Loggraph lays out the commit graph of a repository in lanes, conceals long
linear runs of commits, and renders the result in the terminal, as Graphviz
output or over HTTP.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return c.loadConfig()
		},
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "",
		"configuration file (default $XDG_CONFIG_HOME/loggraph/config.toml)")

	for _, sub := range []func() *cobra.Command{
		c.logCommand,
		c.dumpCommand,
		c.renderCommand,
		c.viewCommand,
		c.refsCommand,
		c.serveCommand,
		c.cacheCommand,
		c.completionCommand,
	} {
		root.AddCommand(sub())
	}
	return root
}

// loadConfig reads --config when given and the per-user file otherwise.
func (c *CLI) loadConfig() error {
	load := func() (*config.Config, error) { return config.LoadDefault(c.Logger) }
	if c.configPath != "" {
		load = func() (*config.Config, error) { return config.Load(c.configPath, c.Logger) }
	}
	cfg, err := load()
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// newRecordCache opens the configured cache backend. It returns nil, which
// RecordCache treats as a cache that always misses, when noCache is set or
// the backend cannot be opened. A nil keyer selects the default key layout.
func (c *CLI) newRecordCache(ctx context.Context, noCache bool, keyer cache.Keyer) *cache.RecordCache {
	if noCache {
		return nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Debug("no cache directory", "err", err)
	}
	backend, err := cache.Open(ctx, c.Config.CacheOptions(dir, c.Logger))
	if err != nil {
		c.Logger.Warn("record cache disabled", "err", err)
		return nil
	}
	return cache.NewRecordCache(backend, keyer, c.Config.Cache.TTL)
}

// cacheDir is $XDG_CACHE_HOME/loggraph, falling back to ~/.cache/loggraph.
func cacheDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, appName), nil
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times an operation and logs its outcome, for example
// "Loaded 42 commits (1.234s)".
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress { return &progress{logger: l, start: time.Now()} }

func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
