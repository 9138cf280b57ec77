package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogCommandChain(t *testing.T) {
	path := writeLog(t, "a|-b", "b|-c", "c|-")

	out, err := runCLI(t, "", "log", "--records", path, "--no-color")
	require.NoError(t, err)
	assert.Equal(t, "* a\n|\n* b\n|\n* c\n", out)
}

func TestLogCommandStdinConceal(t *testing.T) {
	out, err := runCLI(t, "a|-b\nb|-c\nc|-d\nd|-\n", "log", "--records", "-", "--no-color", "--conceal", "--stats")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, []string{"* a ↓d", ":", "* d ↑a"}, lines[:3])
	assert.Contains(t, lines[3], "4 commits")
	assert.Contains(t, lines[3], "1 hidden fragments")
}

func TestLogCommandShortHash(t *testing.T) {
	path := writeLog(t, "0123456789abcdef|-")

	out, err := runCLI(t, "", "log", "--records", path, "--no-color", "--short", "4")
	require.NoError(t, err)
	assert.Equal(t, "* 0123\n", out)
}

func TestLogCommandMalformed(t *testing.T) {
	path := writeLog(t, "no separator here")

	_, err := runCLI(t, "", "log", "--records", path)
	assert.Error(t, err)
}
