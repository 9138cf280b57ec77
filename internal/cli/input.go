package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/loggraph/pkg/cache"
	"github.com/matzehuels/loggraph/pkg/graph"
	"github.com/matzehuels/loggraph/pkg/graph/fragment"
	gio "github.com/matzehuels/loggraph/pkg/io"
	"github.com/matzehuels/loggraph/pkg/session"
	"github.com/matzehuels/loggraph/pkg/source/gitlog"
)

// inputOpts holds the flags shared by commands that load a graph.
type inputOpts struct {
	records string // text log file, "-" for stdin
	limit   int    // commits to load from a repository, 0 for all
	conceal bool   // conceal fragments after loading
	noCache bool   // bypass the record cache
}

func (o *inputOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.records, "records", "", "read a text log (hash|-parents per line) instead of a repository; - for stdin")
	cmd.Flags().IntVarP(&o.limit, "limit", "n", 0, "load at most this many commits (0 for all)")
	cmd.Flags().BoolVar(&o.conceal, "conceal", false, "conceal linear runs of commits")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "bypass the record cache")
}

// loaded is a session together with what it was loaded from.
type loaded struct {
	sess   *session.Session
	labels map[graph.Hash][]string
	src    *gitlog.Source // nil for text logs
	rc     *cache.RecordCache
}

// load builds a session from --records or from the repository named by
// args (default ".").
func (c *CLI) load(ctx context.Context, cmd *cobra.Command, args []string, opts inputOpts) (*loaded, error) {
	sopts := c.Config.SessionOptions(c.Logger)
	if cmd.Flags().Changed("conceal") {
		sopts.Conceal = opts.conceal
	}

	if opts.records != "" {
		recs, err := readRecords(cmd.InOrStdin(), opts.records)
		if err != nil {
			return nil, err
		}
		sess, err := session.Open(ctx, recs, sopts)
		if err != nil {
			return nil, err
		}
		return &loaded{sess: sess}, nil
	}

	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	src, err := gitlog.Open(path)
	if err != nil {
		return nil, err
	}
	labels, err := src.Labels()
	if err != nil {
		return nil, err
	}
	rc := c.newRecordCache(ctx, opts.noCache, nil)
	refs, err := c.refs(ctx, src, rc)
	if err != nil {
		c.release(&loaded{rc: rc})
		return nil, err
	}
	sopts.Refs = refs

	l := &loaded{
		sess:   session.New(sopts),
		labels: labels,
		src:    src,
		rc:     rc,
	}

	prog := newProgress(c.Logger)
	var spinner *Spinner
	if isTerminal(os.Stderr) {
		spinner = newSpinner(ctx, os.Stderr, "Reading "+src.Name())
		spinner.Start()
	}
	n, err := c.fill(ctx, l, opts.limit)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		c.release(l)
		return nil, err
	}
	prog.done(fmt.Sprintf("Loaded %d commits", n))
	return l, nil
}

// refs returns the referenced commits of src, read through rc.
func (c *CLI) refs(ctx context.Context, src *gitlog.Source, rc *cache.RecordCache) (fragment.RefSet, error) {
	name := src.Name()
	if hashes, ok, err := rc.Refs(ctx, name); err == nil && ok {
		set := make(fragment.RefSet, len(hashes))
		for _, h := range hashes {
			set[h] = true
		}
		return set, nil
	}
	set, err := src.Refs(ctx)
	if err != nil {
		return nil, err
	}
	hashes := make([]graph.Hash, 0, len(set))
	for h := range set {
		hashes = append(hashes, h)
	}
	slices.Sort(hashes)
	if err := rc.PutRefs(ctx, name, hashes); err != nil {
		c.Logger.Debug("cache refs", "err", err)
	}
	return set, nil
}

// fill loads limit commits, or the whole log when limit is zero.
func (c *CLI) fill(ctx context.Context, l *loaded, limit int) (int, error) {
	if limit > 0 {
		_, n, err := l.sess.LoadMore(ctx, l.src, l.rc, limit)
		return n, err
	}
	return l.sess.LoadAll(ctx, l.src, l.rc, c.Config.Source.BlockSize)
}

// release closes the record cache of l.
func (c *CLI) release(l *loaded) {
	if err := l.rc.Close(); err != nil {
		c.Logger.Debug("close record cache", "err", err)
	}
}

// readRecords reads a text log from a file, or from stdin for "-".
func readRecords(stdin io.Reader, path string) ([]graph.CommitRecord, error) {
	if path == "-" {
		return gio.ReadRecords(stdin, 0)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return gio.ReadRecords(f, 0)
}
