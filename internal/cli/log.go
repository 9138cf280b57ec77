package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/loggraph/pkg/graph"
	"github.com/matzehuels/loggraph/pkg/graph/fragment"
	"github.com/matzehuels/loggraph/pkg/printcell"
	"github.com/matzehuels/loggraph/pkg/render/text"
)

// logOpts holds the command-line flags for the log command.
type logOpts struct {
	input     inputOpts
	noColor   bool // draw lanes without branch colors
	shortHash int  // hash length, negative for whole hashes
	stats     bool // print a summary line after the graph
}

// logCommand creates the log command, which draws the lane graph.
func (c *CLI) logCommand() *cobra.Command {
	var opts logOpts

	cmd := &cobra.Command{
		Use:   "log [repo]",
		Short: "Draw the commit graph in the terminal",
		Long: `Draw the commit graph of a repository (default: the current directory)
or of a text log given with --records.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := c.load(cmd.Context(), cmd, args, opts.input)
			if err != nil {
				return err
			}
			defer c.release(l)

			out := cmd.OutOrStdout()
			tops := text.Options{
				Color:     !opts.noColor,
				ShortHash: opts.shortHash,
				Labels:    l.labels,
			}
			var lines []string
			var renderErr error
			l.sess.View(func(g *graph.Graph, _ *fragment.Manager, model *printcell.Model) {
				cells := make([]*printcell.GraphPrintCell, 0, model.RowCount())
				for r := range model.RowCount() {
					cell, err := model.PrintCell(r)
					if err != nil {
						renderErr = err
						return
					}
					cells = append(cells, cell)
				}
				lines = text.Lines(g, cells, tops)
			})
			if renderErr != nil {
				return renderErr
			}
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}

			if opts.stats {
				info := l.sess.Info()
				statusTo(out).stats(info.Commits, info.VisibleRows, info.Hidden)
			}
			return nil
		},
	}

	opts.input.register(cmd)
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable branch colors")
	cmd.Flags().IntVar(&opts.shortHash, "short", text.DefaultShortHash, "hash length (negative for whole hashes)")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print commit and row counts")

	return cmd
}
