package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/loggraph/pkg/observability"
)

// runCLI runs the root command with args against an isolated config and
// cache location and returns what the command wrote to stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	var logs, out bytes.Buffer
	c := New(&logs, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&logs)
	err := root.Execute()
	return out.String(), err
}

// writeLog writes a text log to a temporary file.
func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "commits.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"log", "dump", "render", "view", "refs", "serve", "cache", "completion"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestRootCommandBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[conceal]\nmin_size = 0\n"), 0o644))

	_, err := runCLI(t, "a|-\n", "--config", path, "dump")
	assert.Error(t, err)
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("test") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("test") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("test") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, log.InfoLevel)
	c.Logger.Debug("hidden")
	assert.Zero(t, buf.Len())

	c.SetLogLevel(LogDebug)
	defer c.SetLogLevel(LogInfo)
	c.Logger.Debug("shown")
	assert.Contains(t, buf.String(), "shown")

	observability.Cache().OnCacheMiss(context.Background(), "records")
	assert.Contains(t, buf.String(), "cache miss")
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(5 * time.Millisecond)
	prog.done("Loaded 3 commits")

	assert.Contains(t, buf.String(), "Loaded 3 commits")
	assert.Contains(t, buf.String(), "ms)")
}

func TestStatusStats(t *testing.T) {
	var buf bytes.Buffer
	statusTo(&buf).stats(12, 5, 2)
	out := buf.String()
	assert.Contains(t, out, "12 commits")
	assert.Contains(t, out, "5 rows")
	assert.Contains(t, out, "2 hidden fragments")

	buf.Reset()
	statusTo(&buf).stats(3, 3, 0)
	assert.NotContains(t, buf.String(), "hidden")
}

func TestCompletion(t *testing.T) {
	for shell := range completionShells {
		t.Run(shell, func(t *testing.T) {
			out, err := runCLI(t, "", "completion", shell)
			require.NoError(t, err)
			assert.Contains(t, out, appName)
		})
	}

	_, err := runCLI(t, "", "completion", "tcsh")
	assert.Error(t, err)
}

func TestCacheDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	custom := t.TempDir()

	for env, want := range map[string]string{
		"":     filepath.Join(home, ".cache", appName),
		custom: filepath.Join(custom, appName),
	} {
		t.Setenv("XDG_CACHE_HOME", env)
		dir, err := cacheDir()
		require.NoError(t, err)
		assert.Equal(t, want, dir)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f), "regular files are not terminals")
}
