package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/loggraph/pkg/graph"
	"github.com/matzehuels/loggraph/pkg/graph/build"
	gio "github.com/matzehuels/loggraph/pkg/io"
)

// dumpOpts holds the command-line flags for the dump command.
type dumpOpts struct {
	appendFile string // records appended after the first log
	json       bool   // write the JSON snapshot instead of the dump
	yaml       bool   // write the YAML snapshot instead of the dump
	check      bool   // verify that appending matches building at once
}

// dumpCommand creates the dump command, which prints the graph in the
// debug dump format.
func (c *CLI) dumpCommand() *cobra.Command {
	var opts dumpOpts

	cmd := &cobra.Command{
		Use:   "dump [records-file]",
		Short: "Print the debug dump of a text log",
		Long: `Build the graph of a text log (default: stdin) and print its dump.

With --append the graph is built from the first log and then extended with
the second one. --check additionally builds both logs at once and fails if
the two dumps differ.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) > 0 {
				path = args[0]
			}
			recs, err := readRecords(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			g, err := build.Build(recs)
			if err != nil {
				return err
			}

			if opts.appendFile != "" {
				more, err := readRecords(cmd.InOrStdin(), opts.appendFile)
				if err != nil {
					return err
				}
				more = reindex(more, len(recs))
				req, err := build.Append(g, more)
				if err != nil {
					return err
				}
				c.Logger.Debug("appended records", "records", len(more), "from", req.From, "to", req.To)

				if opts.check {
					whole, err := build.Build(append(recs, more...))
					if err != nil {
						return err
					}
					if got, want := gio.Dump(g), gio.Dump(whole); got != want {
						return fmt.Errorf("append mismatch:\n--- appended\n%s\n--- whole\n%s", got, want)
					}
					c.Logger.Info("append matches full build", "rows", g.RowCount())
				}
			}

			out := cmd.OutOrStdout()
			switch {
			case opts.json:
				return gio.WriteJSON(out, g)
			case opts.yaml:
				return gio.WriteYAML(out, g)
			}
			return gio.WriteDump(out, g)
		},
	}

	cmd.Flags().StringVar(&opts.appendFile, "append", "", "text log appended after the first one")
	cmd.Flags().BoolVar(&opts.json, "json", false, "write the JSON snapshot")
	cmd.Flags().BoolVar(&opts.yaml, "yaml", false, "write the YAML snapshot")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
	cmd.Flags().BoolVar(&opts.check, "check", false, "with --append, verify against a full build")

	return cmd
}

// reindex shifts log indices so that recs continue a log of n records.
func reindex(recs []graph.CommitRecord, n int) []graph.CommitRecord {
	out := make([]graph.CommitRecord, len(recs))
	for i, r := range recs {
		r.LogIndex += n
		out[i] = r
	}
	return out
}
