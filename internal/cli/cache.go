package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/proxysheet/pkg/cache"
	"github.com/matzehuels/proxysheet/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the card and image cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached card and image",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, where, err := c.clearCache(cmd.Context())
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Location: %s", where)
			return nil
		},
	}
}

// clearCache empties the configured backend and reports how many entries
// were removed and where they lived.
func (c *CLI) clearCache(ctx context.Context) (int64, string, error) {
	switch c.Config.Cache.ResolvedBackend() {
	case config.BackendNone:
		return 0, "", nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, c.Config.Cache.RedisURL)
		if err != nil {
			return 0, "", err
		}
		defer rc.Close()
		n, err := rc.Clear(ctx, redisPrefix)
		return n, c.Config.Cache.RedisURL, err
	}

	dir, err := c.cacheDir()
	if err != nil {
		return 0, "", fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, dir, nil
	}

	if c.Config.Cache.ResolvedBackend() == config.BackendSQLite {
		path := filepath.Join(dir, sqliteFile)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return 0, path, nil
		}
		sc, err := cache.NewSQLiteCache(path)
		if err != nil {
			return 0, "", err
		}
		defer sc.Close()
		n, err := sc.Clear(ctx)
		return n, path, err
	}

	var count int64
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}
		if !d.IsDir() && filepath.Ext(path) == ".json" {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, "", err
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return 0, "", err
	}
	return count, dir, fc.Clear()
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			where, err := c.cacheLocation()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), where)
			return nil
		},
	}
}

// cacheLocation is the directory, database file or Redis URL of the cache.
func (c *CLI) cacheLocation() (string, error) {
	switch c.Config.Cache.ResolvedBackend() {
	case config.BackendNone:
		return "", fmt.Errorf("caching is disabled (cache.backend = %q)", config.BackendNone)
	case config.BackendRedis:
		return c.Config.Cache.RedisURL, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	if c.Config.Cache.ResolvedBackend() == config.BackendSQLite {
		return filepath.Join(dir, sqliteFile), nil
	}
	return dir, nil
}
