package io

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/loggraph/pkg/graph"
)

// Separator splits fields in the log and dump formats.
const Separator = "|-"

// ErrMalformedLine is returned when a log line has no separator.
var ErrMalformedLine = errors.New("malformed log line")

// ParseRecord parses one log line. The returned record has LogIndex 0.
func ParseRecord(line string) (graph.CommitRecord, error) {
	hash, rest, ok := strings.Cut(line, Separator)
	if !ok {
		return graph.CommitRecord{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return graph.CommitRecord{}, fmt.Errorf("%w: empty hash in %q", ErrMalformedLine, line)
	}
	rec := graph.CommitRecord{Hash: graph.Hash(hash)}
	for _, p := range strings.FieldsFunc(rest, isParentSep) {
		rec.Parents = append(rec.Parents, graph.Hash(p))
	}
	return rec, nil
}

func isParentSep(r rune) bool {
	return r == ' ' || r == ',' || r == '\t'
}

// ParseRecords parses log lines. Log indices start at start and increase by
// one per record.
func ParseRecords(lines []string, start int) ([]graph.CommitRecord, error) {
	var recs []graph.CommitRecord
	for i, line := range lines {
		if skipLine(line) {
			continue
		}
		rec, err := ParseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		rec.LogIndex = start + len(recs)
		recs = append(recs, rec)
	}
	return recs, nil
}

// ReadRecords reads a log from r. ReadRecords does not close r.
func ReadRecords(r io.Reader, start int) ([]graph.CommitRecord, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return ParseRecords(lines, start)
}

// ReadRecordsFile reads a log file.
func ReadRecordsFile(path string, start int) ([]graph.CommitRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRecords(f, start)
}

// WriteRecords writes records in the log format.
func WriteRecords(w io.Writer, recs []graph.CommitRecord) error {
	bw := bufio.NewWriter(w)
	for _, rec := range recs {
		if _, err := fmt.Fprintln(bw, rec.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func skipLine(line string) bool {
	t := strings.TrimSpace(line)
	return t == "" || strings.HasPrefix(t, "#")
}
