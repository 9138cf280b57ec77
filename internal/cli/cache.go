package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/loggraph/pkg/cache"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the local record cache",
	}
	cmd.AddCommand(c.cacheClearCommand(), c.cachePathCommand())
	return cmd
}

// localCacheDir is where the file and sqlite backends keep their data: the
// configured cache.dir, or the per-user cache directory.
func (c *CLI) localCacheDir() (string, error) {
	if dir := c.Config.Cache.Dir; dir != "" {
		return dir, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache dir: %w", err)
	}
	return dir, nil
}

// clearLocalCache empties the local backend stored in dir and returns the
// number of entries removed. Remote backends are shared with other hosts
// and are never cleared from here.
func clearLocalCache(ctx context.Context, backend, dir string) (int, error) {
	switch backend {
	case "", cache.BackendFile:
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return 0, err
		}
		return fc.Clear()
	case cache.BackendSQLite:
		sc, err := cache.NewSQLiteCache(dir)
		if err != nil {
			return 0, err
		}
		defer sc.Close()
		return sc.Clear(ctx)
	}
	return 0, fmt.Errorf("cache clear only supports the file and sqlite backends (configured: %s)", backend)
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached record block",
		Long:  "Remove every entry of the local record cache. Only the file and sqlite backends can be cleared.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend := c.Config.Cache.Backend
			if backend == cache.BackendRedis || backend == cache.BackendMongo || backend == cache.BackendNone {
				return fmt.Errorf("cache clear only supports the file and sqlite backends (configured: %s)", backend)
			}
			dir, err := c.localCacheDir()
			if err != nil {
				return err
			}
			st := statusTo(cmd.OutOrStdout())
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				st.info("Cache is empty")
				return nil
			}

			n, err := clearLocalCache(cmd.Context(), backend, dir)
			if err != nil {
				return err
			}
			st.success("Cleared %d cached entries", n)
			st.detail("Directory: %s", dir)
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the local cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.localCacheDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
