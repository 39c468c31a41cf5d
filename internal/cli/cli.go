// Package cli implements the proxysheet command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/proxysheet/pkg/cache"
	"github.com/matzehuels/proxysheet/pkg/config"
	"github.com/matzehuels/proxysheet/pkg/integrations/scryfall"
	"github.com/matzehuels/proxysheet/pkg/pipeline"
	"github.com/matzehuels/proxysheet/pkg/sheet/encode"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "proxysheet"

	// sqliteFile is the database name of the sqlite cache backend.
	sqliteFile = "cache.db"

	// redisPrefix scopes keys in a shared Redis instance.
	redisPrefix = appName + ":"
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

	// ConfigPath is the --config flag; empty means the default location.
	ConfigPath string

	// Config is loaded once before any command runs.
	Config config.Config
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

// loadConfig reads the config file into c.Config.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", c.ConfigPath, "cache", cfg.Cache.ResolvedBackend())
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Relative custom image
// paths resolve against baseDir.
func (c *CLI) newRunner(ctx context.Context, noCache, refresh bool, baseDir string) (*pipeline.Runner, error) {
	backend, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(backend, c.keyer(), c.Logger)
	runner.Resolver = pipeline.NewResolver(backend, runner.Keyer, c.resolverOptions(refresh, baseDir))
	return runner, nil
}

// resolverOptions maps the [scryfall] config section onto resolver options.
func (c *CLI) resolverOptions(refresh bool, baseDir string) pipeline.ResolverOptions {
	size, _ := scryfall.ParseSize(c.Config.Scryfall.ImageSize)
	return pipeline.ResolverOptions{
		BaseURL:   c.Config.Scryfall.BaseURL,
		UserAgent: c.Config.Scryfall.UserAgent,
		ImageSize: size,
		TTL:       c.Config.Cache.TTL,
		Refresh:   refresh,
		BaseDir:   baseDir,
		Logger:    c.Logger,
	}
}

// keyer scopes cache keys when the backend is shared.
func (c *CLI) keyer() cache.Keyer {
	if c.Config.Cache.ResolvedBackend() == config.BackendRedis {
		return cache.NewScopedKeyer(nil, redisPrefix)
	}
	return cache.NewDefaultKeyer()
}

// newCache opens the configured cache backend. A file cache that cannot be
// located degrades to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.ResolvedBackend() {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, c.Config.Cache.RedisURL)
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	if c.Config.Cache.ResolvedBackend() == config.BackendSQLite {
		return cache.NewSQLiteCache(filepath.Join(dir, sqliteFile))
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the XDG default.
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/proxysheet/).
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

// =============================================================================
// Options Helpers
// =============================================================================

// exportFlags holds the flags shared by export-like commands. Zero values
// fall back to the config file.
type exportFlags struct {
	pageSize      int
	maxBytes      int64
	policy        string
	universalBack string
	marker        string
	noBorder      bool
	workers       int
}

func (f *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "cards per page, 1-18 (default from config, else 18)")
	cmd.Flags().Int64Var(&f.maxBytes, "max-bytes", 0, "JPEG size budget per page side in bytes")
	cmd.Flags().StringVar(&f.policy, "policy", "", "over-budget policy: best-effort or strict")
	cmd.Flags().StringVar(&f.universalBack, "back", "", "image printed behind every single-faced card")
	cmd.Flags().StringVar(&f.marker, "marker", "", "print a QR page marker with this label")
	cmd.Flags().BoolVar(&f.noBorder, "no-border", false, "print full-bleed images without black borders")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "parallel image decoders per page")
}

// options merges flags over the config file into pipeline options.
// The universal back is loaded separately.
func (f *exportFlags) options(cfg config.Config) (pipeline.Options, error) {
	policy := cfg.Export.Policy
	if f.policy != "" {
		policy = f.policy
	}
	p, err := encode.ParsePolicy(policy)
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		PageSize:  firstNonZero(f.pageSize, cfg.Export.PageSize),
		MaxBytes:  firstNonZero(f.maxBytes, cfg.Export.MaxBytes),
		Policy:    p,
		Style:     cfg.Style(),
		NoBorders: f.noBorder,
		Workers:   firstNonZero(f.workers, cfg.Export.Workers),
		Marker:    cfg.Export.Marker,
	}
	if f.marker != "" {
		opts.Marker = f.marker
	}
	return opts, nil
}

func firstNonZero[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}
