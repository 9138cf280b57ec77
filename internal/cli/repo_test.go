package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a repository with a linear history of empty commits.
func initRepo(t *testing.T, commits int) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range commits {
		_, err := wt.Commit(fmt.Sprintf("change %d", i), &git.CommitOptions{
			AllowEmptyCommits: true,
			Author: &object.Signature{
				Name:  "Dev",
				Email: "dev@example.com",
				When:  when.Add(time.Duration(i) * time.Minute),
			},
		})
		require.NoError(t, err)
	}
	return dir
}

func TestLogCommandRepository(t *testing.T) {
	dir := initRepo(t, 3)

	out, err := runCLI(t, "", "log", dir, "--no-color", "--no-cache")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5, out)
	assert.True(t, strings.HasPrefix(lines[0], "* "))
	assert.Contains(t, lines[0], "HEAD")
	assert.Equal(t, "|", lines[1])
}

func TestLogCommandRepositoryLimit(t *testing.T) {
	dir := initRepo(t, 4)

	out, err := runCLI(t, "", "log", dir, "--no-color", "--no-cache", "-n", "2", "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, "2 commits")
}

func TestLogCommandCachedRepository(t *testing.T) {
	dir := initRepo(t, 3)
	cacheDir := t.TempDir()
	cfg := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[cache]\nbackend = \"file\"\ndir = \""+filepath.ToSlash(cacheDir)+"\"\n"), 0o644))

	first, err := runCLI(t, "", "--config", cfg, "log", dir, "--no-color")
	require.NoError(t, err)
	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries, "records should be written to the cache")

	second, err := runCLI(t, "", "--config", cfg, "log", dir, "--no-color")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRefsCommand(t *testing.T) {
	dir := initRepo(t, 2)

	out, err := runCLI(t, "", "refs", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "HEAD")
	assert.Contains(t, out, "2 commits")
}

func TestRefsCommandNotRepository(t *testing.T) {
	_, err := runCLI(t, "", "refs", t.TempDir())
	assert.Error(t, err)
}
