package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gio "github.com/matzehuels/loggraph/pkg/io"
	"github.com/matzehuels/loggraph/pkg/render/text"
	"github.com/matzehuels/loggraph/pkg/session"
)

func newTestModel(t *testing.T, conceal bool, lines ...string) (GraphModel, *session.Session) {
	t.Helper()
	recs, err := gio.ParseRecords(lines, 0)
	require.NoError(t, err)
	sess, err := session.Open(context.Background(), recs, session.Options{Conceal: conceal})
	require.NoError(t, err)
	m := NewGraphModel(context.Background(), sess, nil, nil, 0, text.Options{})
	t.Cleanup(m.Close)
	return m, sess
}

func press(t *testing.T, m GraphModel, keys ...string) GraphModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		if k == "enter" {
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(GraphModel)
	}
	return m
}

func TestGraphModelNavigation(t *testing.T) {
	m, _ := newTestModel(t, false, "a|-b", "b|-c", "c|-")

	m = press(t, m, "j")
	assert.Equal(t, 1, m.Cursor)
	m = press(t, m, "G")
	assert.Equal(t, 2, m.Cursor)
	m = press(t, m, "j")
	assert.Equal(t, 2, m.Cursor, "cursor stays on the last row without a source")
	m = press(t, m, "g")
	assert.Equal(t, 0, m.Cursor)
	m = press(t, m, "k")
	assert.Equal(t, 0, m.Cursor)
}

func TestGraphModelExpandCollapse(t *testing.T) {
	m, sess := newTestModel(t, true, "a|-b", "b|-c", "c|-d", "d|-")
	require.Equal(t, 2, sess.RowCount())

	m = press(t, m, "e")
	assert.Equal(t, 4, sess.RowCount())
	assert.Equal(t, 0, m.Cursor, "cursor follows the expanded commit")

	m = press(t, m, "j", "c")
	assert.Equal(t, 2, sess.RowCount())
	assert.Less(t, m.Cursor, sess.RowCount())

	m = press(t, m, "E")
	assert.Equal(t, 4, sess.RowCount())
	press(t, m, "C")
	assert.Equal(t, 2, sess.RowCount())
}

func TestGraphModelFollowArrow(t *testing.T) {
	m, _ := newTestModel(t, true, "a|-b", "b|-c", "c|-d", "d|-")

	m = press(t, m, "a")
	assert.Equal(t, 1, m.Cursor)
	assert.Contains(t, m.status, "jumped to d")

	m = press(t, m, "enter")
	assert.Equal(t, 0, m.Cursor)
}

func TestGraphModelResize(t *testing.T) {
	m, _ := newTestModel(t, false, "a|-b", "b|-")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = next.(GraphModel)
	assert.Equal(t, 6, m.Height)
}

func TestGraphModelView(t *testing.T) {
	m, _ := newTestModel(t, false, "a|-b", "b|-")
	view := m.View()

	assert.Contains(t, view, appName)
	assert.Contains(t, view, "2 commits")
	assert.Contains(t, view, cursorMark+"* a")
	assert.Contains(t, view, blankMark+"* b")
	assert.True(t, strings.Contains(view, "q quit"))
}

func TestGraphModelQuit(t *testing.T) {
	m, _ := newTestModel(t, false, "a|-")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
