package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/loggraph/pkg/cache"
	"github.com/matzehuels/loggraph/pkg/graph"
	"github.com/matzehuels/loggraph/pkg/graph/fragment"
	"github.com/matzehuels/loggraph/pkg/printcell"
	"github.com/matzehuels/loggraph/pkg/render/text"
	"github.com/matzehuels/loggraph/pkg/session"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	cursorMark = "▸ "
	blankMark  = "  "

	// chromeLines is the number of lines taken by the header and footer.
	chromeLines = 4
)

// =============================================================================
// GraphModel - Interactive graph viewer
// =============================================================================

type (
	// updateMsg carries an update request published by the session.
	updateMsg graph.UpdateRequest

	// loadedMsg reports the end of a background load.
	loadedMsg struct {
		n   int
		err error
	}
)

// GraphModel is the bubbletea model of the view command. It scrolls
// through the visible rows of a session, expands and collapses fragments
// and follows arrows. When the session has a record source, more commits
// are loaded in the background as the cursor reaches the last row.
type GraphModel struct {
	ctx     context.Context
	sess    *session.Session
	src     session.RecordSource
	rc      *cache.RecordCache
	block   int
	updates <-chan graph.UpdateRequest
	stop    func()
	opts    text.Options

	Cursor int
	Offset int
	Height int
	arrow  int

	status    string
	loading   bool
	exhausted bool
}

// NewGraphModel creates a viewer over sess. src may be nil for graphs that
// cannot grow.
func NewGraphModel(ctx context.Context, sess *session.Session, src session.RecordSource, rc *cache.RecordCache, block int, opts text.Options) GraphModel {
	updates, stop := sess.Subscribe(16)
	return GraphModel{
		ctx:       ctx,
		sess:      sess,
		src:       src,
		rc:        rc,
		block:     block,
		updates:   updates,
		stop:      stop,
		opts:      opts,
		Height:    20,
		exhausted: src == nil,
	}
}

// Close unsubscribes the model from session updates.
func (m GraphModel) Close() {
	m.stop()
}

func (m GraphModel) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

func waitForUpdate(ch <-chan graph.UpdateRequest) tea.Cmd {
	return func() tea.Msg {
		req, ok := <-ch
		if !ok {
			return nil
		}
		return updateMsg(req)
	}
}

func (m GraphModel) loadMore() (GraphModel, tea.Cmd) {
	if m.loading || m.exhausted {
		return m, nil
	}
	m.loading = true
	m.status = "loading…"
	ctx, sess, src, rc, block := m.ctx, m.sess, m.src, m.rc, m.block
	return m, func() tea.Msg {
		_, n, err := sess.LoadMore(ctx, src, rc, block)
		return loadedMsg{n: n, err: err}
	}
}

func (m GraphModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-chromeLines, 2)
		m = m.scroll()

	case updateMsg:
		m = m.clamp()
		return m, waitForUpdate(m.updates)

	case loadedMsg:
		m.loading = false
		switch {
		case msg.err != nil:
			m.status = "error: " + msg.err.Error()
		case msg.n == 0:
			m.exhausted = true
			m.status = "end of log"
		default:
			m.status = fmt.Sprintf("loaded %d commits", msg.n)
		}

	case tea.KeyMsg:
		return m.key(msg)
	}
	return m, nil
}

func (m GraphModel) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.sess.RowCount()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m = m.moveTo(m.Cursor - 1)
	case "down", "j":
		if m.Cursor >= rows-1 {
			return m.loadMore()
		}
		m = m.moveTo(m.Cursor + 1)
	case "pgup", "ctrl+b":
		m = m.moveTo(m.Cursor - m.pageRows())
	case "pgdown", "ctrl+f", " ":
		m = m.moveTo(m.Cursor + m.pageRows())
	case "home", "g":
		m = m.moveTo(0)
	case "end", "G":
		m = m.moveTo(rows - 1)
	case "m":
		return m.loadMore()
	case "e":
		m = m.mutateAt("expanded", m.sess.Expand)
	case "c":
		m = m.mutateAt("collapsed", m.sess.Collapse)
	case "E":
		m.sess.ExpandAll(m.ctx)
		m.status = "expanded all fragments"
		m = m.clamp()
	case "C":
		m.sess.CollapseAll(m.ctx)
		m.status = "collapsed all fragments"
		m = m.clamp()
	case "a", "enter":
		m = m.followArrow()
	}
	return m, nil
}

// mutateAt applies fn to the commit at the cursor and keeps the cursor on
// that commit.
func (m GraphModel) mutateAt(verb string, fn func(context.Context, graph.NodeID) (graph.UpdateRequest, error)) GraphModel {
	head, ok := m.head()
	if !ok {
		return m
	}
	req, err := fn(m.ctx, head.Node)
	switch {
	case err != nil:
		m.status = "error: " + err.Error()
	case req.Empty():
		m.status = "nothing to change at " + string(head.Hash)
	default:
		m.status = verb + " at " + string(head.Hash)
	}
	return m.follow(head.Node)
}

func (m GraphModel) followArrow() GraphModel {
	cell, err := m.sess.PrintCell(m.Cursor)
	if err != nil || len(cell.Specials) == 0 {
		m.status = "no arrow on this row"
		return m
	}
	sp := cell.Specials[m.arrow%len(cell.Specials)]
	node, row, ok := m.sess.ArrowToNode(sp)
	if !ok {
		m.status = "arrow target is not visible"
		return m
	}
	n, _ := m.sess.Node(node)
	m.status = fmt.Sprintf("jumped to %s", n.Hash)
	m.arrow++
	return m.moveTo(row)
}

// follow moves the cursor to the row of node if it is visible.
func (m GraphModel) follow(node graph.NodeID) GraphModel {
	var row int
	var ok bool
	m.sess.View(func(g *graph.Graph, _ *fragment.Manager, model *printcell.Model) {
		if n := g.Node(node); n != nil {
			row, ok = model.VisibleRow(n.Row)
		}
	})
	if ok {
		return m.moveTo(row)
	}
	return m.clamp()
}

func (m GraphModel) head() (printcell.PrintElement, bool) {
	cell, err := m.sess.PrintCell(m.Cursor)
	if err != nil {
		return printcell.PrintElement{}, false
	}
	return cell.Head()
}

func (m GraphModel) moveTo(row int) GraphModel {
	if row != m.Cursor {
		m.arrow = 0
	}
	m.Cursor = row
	return m.clamp()
}

func (m GraphModel) clamp() GraphModel {
	rows := m.sess.RowCount()
	m.Cursor = max(min(m.Cursor, rows-1), 0)
	return m.scroll()
}

func (m GraphModel) scroll() GraphModel {
	page := m.pageRows()
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+page {
		m.Offset = m.Cursor - page + 1
	}
	m.Offset = max(m.Offset, 0)
	return m
}

// pageRows is the number of graph rows on screen; each row takes up to
// two lines.
func (m GraphModel) pageRows() int {
	return max(m.Height/2, 1)
}

func (m GraphModel) View() string {
	var b strings.Builder

	info := m.sess.Info()
	b.WriteString(styles.title.Render(appName))
	b.WriteString(" ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d commits · %d/%d rows · %d hidden fragments",
		info.Commits, info.VisibleRows, info.Rows, info.Hidden)))
	b.WriteString("\n\n")

	end := min(m.Offset+m.pageRows(), info.VisibleRows)
	var rows []text.Row
	m.sess.View(func(g *graph.Graph, _ *fragment.Manager, model *printcell.Model) {
		var cells []*printcell.GraphPrintCell
		for r := m.Offset; r < end; r++ {
			cell, err := model.PrintCell(r)
			if err != nil {
				break
			}
			cells = append(cells, cell)
		}
		rows = text.Rows(g, cells, m.opts)
	})

	lines := 0
	for i, r := range rows {
		if lines >= m.Height {
			break
		}
		mark := blankMark
		if m.Offset+i == m.Cursor {
			mark = listSelectedStyle.Render(cursorMark)
		}
		b.WriteString(mark + r.Node + "\n")
		lines++
		if r.Connector != "" && lines < m.Height {
			b.WriteString(blankMark + r.Connector + "\n")
			lines++
		}
	}
	for ; lines < m.Height; lines++ {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	help := "↑/↓ move  e/c expand/collapse  E/C all  a follow arrow  m more  q quit"
	if m.status != "" {
		help = m.status + "  ·  " + help
	}
	b.WriteString(listDimStyle.Render(help))
	return b.String()
}
