package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/loggraph/pkg/render/text"
	"github.com/matzehuels/loggraph/pkg/session"
)

// viewCommand creates the view command, an interactive graph browser.
func (c *CLI) viewCommand() *cobra.Command {
	var opts inputOpts

	cmd := &cobra.Command{
		Use:   "view [repo]",
		Short: "Browse the commit graph interactively",
		Long: `Browse the commit graph of a repository or text log.

Commits are loaded in blocks; moving past the last row loads the next block.
Keys: e/c expand or collapse the fragment at the cursor, E/C all fragments,
a follows an arrow to the other end of a fragment or long edge.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if opts.limit == 0 && opts.records == "" {
				opts.limit = c.Config.Source.BlockSize
			}
			l, err := c.load(ctx, cmd, args, opts)
			if err != nil {
				return err
			}
			defer c.release(l)

			var src session.RecordSource
			if l.src != nil {
				src = l.src
			}
			model := NewGraphModel(ctx, l.sess, src, l.rc, c.Config.Source.BlockSize, text.Options{
				Color:  true,
				Labels: l.labels,
			})
			defer model.Close()

			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	opts.register(cmd)
	return cmd
}
