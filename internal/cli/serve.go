package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/loggraph/internal/server"
	"github.com/matzehuels/loggraph/pkg/cache"
	"github.com/matzehuels/loggraph/pkg/session"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		repoRoot string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve log sessions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("addr") {
				c.Config.Server.Addr = addr
			}
			if cmd.Flags().Changed("repo-root") {
				c.Config.Server.RepoRoot = repoRoot
			}

			// Servers with different roots may share one remote cache.
			keyer := cache.NewScopedKeyer(nil, "root:"+c.Config.Server.RepoRoot+":")
			rc := c.newRecordCache(ctx, noCache, keyer)
			defer rc.Close()

			srv := server.New(c.Config, session.NewRegistry(0), rc, c.Logger)
			st := statusTo(cmd.ErrOrStderr())
			st.info("Serving on http://%s", c.Config.Server.Addr)
			if c.Config.Server.RepoRoot != "" {
				st.detail("Repositories: %s", c.Config.Server.RepoRoot)
			} else {
				st.warning("Repository access disabled; sessions accept text logs only")
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&repoRoot, "repo-root", "", "directory repositories may be opened from")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the record cache")

	return cmd
}
