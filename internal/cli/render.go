package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/loggraph/pkg/graph"
	"github.com/matzehuels/loggraph/pkg/graph/fragment"
	"github.com/matzehuels/loggraph/pkg/printcell"
	"github.com/matzehuels/loggraph/pkg/render/nodelink"
)

// Output formats accepted by the render command.
const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPNG = "png"
	formatPDF = "pdf"
)

var renderFormats = []string{formatDOT, formatSVG, formatPNG, formatPDF}

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	input     inputOpts
	output    string   // output file path (or base path for multiple outputs)
	formats   []string // output formats
	detailed  bool     // add row, log index and branch to labels
	shortHash int      // hash length in labels, 0 for whole hashes
}

// renderCommand creates the render command, which writes the commit graph
// as a Graphviz node-link diagram.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{shortHash: 7}

	cmd := &cobra.Command{
		Use:   "render [repo]",
		Short: "Render the commit graph with Graphviz",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := parseFormats(formatsStr)
			if err != nil {
				return err
			}
			opts.formats = formats

			l, err := c.load(cmd.Context(), cmd, args, opts.input)
			if err != nil {
				return err
			}
			defer c.release(l)

			var dot string
			l.sess.View(func(g *graph.Graph, frags *fragment.Manager, _ *printcell.Model) {
				dot = nodelink.ToDOT(g, nodelink.Options{
					Detailed:  opts.detailed,
					ShortHash: opts.shortHash,
					Hidden:    frags,
					Labels:    l.labels,
				})
			})

			base := opts.output
			if base == "" {
				base = defaultOutputBase(args, opts.input.records)
			}
			for _, format := range opts.formats {
				path := outputPath(base, format, len(opts.formats) > 1 || opts.output == "")
				if err := writeRendered(cmd.Context(), path, format, dot); err != nil {
					return err
				}
				statusTo(cmd.ErrOrStderr()).file(path)
			}
			return nil
		},
	}

	opts.input.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <repo>.<format>)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", formatSVG, "comma-separated formats: "+strings.Join(renderFormats, ", "))
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "add row, log index and branch to labels")
	cmd.Flags().IntVar(&opts.shortHash, "short", opts.shortHash, "hash length in labels (0 for whole hashes)")

	return cmd
}

func writeRendered(ctx context.Context, path, format, dot string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case formatDOT:
		data = []byte(dot)
	case formatSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	case formatPNG:
		data, err = nodelink.RenderPNG(ctx, dot)
	case formatPDF:
		data, err = nodelink.RenderPDF(ctx, dot)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// parseFormats parses a comma-separated format string.
func parseFormats(s string) ([]string, error) {
	if s == "" {
		return []string{formatSVG}, nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if !slices.Contains(renderFormats, f) {
			return nil, fmt.Errorf("unknown format %q (want one of %s)", f, strings.Join(renderFormats, ", "))
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out, nil
}

// defaultOutputBase names the output after the repository or log file.
func defaultOutputBase(args []string, records string) string {
	switch {
	case records != "" && records != "-":
		return strings.TrimSuffix(filepath.Base(records), filepath.Ext(records))
	case records == "-":
		return "log"
	case len(args) > 0:
		if abs, err := filepath.Abs(args[0]); err == nil {
			return filepath.Base(abs)
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return filepath.Base(wd)
	}
	return "graph"
}

// outputPath derives the file for one format. With withExt set the format
// replaces any extension of base.
func outputPath(base, format string, withExt bool) string {
	if !withExt {
		return base
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + format
}
