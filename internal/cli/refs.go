package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/loggraph/pkg/render"
	"github.com/matzehuels/loggraph/pkg/source/gitlog"
)

// refsCommand creates the refs command, which lists the references that
// keep commits visible when fragments are concealed.
func (c *CLI) refsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refs [repo]",
		Short: "List the references of a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			src, err := gitlog.Open(path)
			if err != nil {
				return err
			}
			refs, err := src.References()
			if err != nil {
				return err
			}
			n, err := src.Len(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(refs))
			for i, r := range refs {
				rows[i] = []string{r.Name, render.ShortHash(r.Hash, 12)}
			}
			headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("Reference", "Commit").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == -1 {
						return headerStyle
					}
					if col == 1 {
						return styles.dim
					}
					return styles.value
				})

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, t.Render())
			fmt.Fprintln(out, styles.dim.Render(fmt.Sprintf("  %d references · %d commits · %s", len(refs), n, src.Name())))
			return nil
		},
	}
}
