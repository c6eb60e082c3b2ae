package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/crawl/internal/cli/formatter"
	"github.com/alexanderramin/crawl/internal/service"
	"github.com/alexanderramin/crawl/internal/tree"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// opDoneMsg carries the result of a catalog operation run as a tea.Cmd.
type opDoneMsg struct {
	verb    string
	outcome service.Outcome
	err     error
}

// refreshedMsg reports an explicit refresh.
type refreshedMsg struct {
	changed bool
	err     error
}

// externalChangeMsg is sent by the watcher after another process changed
// the store and the catalog was reloaded.
type externalChangeMsg struct{}

// scheduleTickMsg re-evaluates schedules once per refresh interval while
// inactive nodes are hidden. gen drops ticks armed before the last toggle.
type scheduleTickMsg struct{ gen int }

// catalogModel is the tree-grid: one row per visible node, a cursor, and
// keyboard gestures standing in for drag and drop.
type catalogModel struct {
	app  *App
	keys catalogKeyMap

	rows         []tree.Row
	cursor       int
	marked       map[string]bool
	hideInactive bool

	pendingDelete string
	status        string
	height        int
	tickEvery     time.Duration
	tickGen       int
	quitting      bool
}

func newCatalogModel(app *App) *catalogModel {
	m := &catalogModel{
		app:       app,
		keys:      defaultCatalogKeys(),
		marked:    make(map[string]bool),
		tickEvery: app.RefreshInterval,
	}
	m.reload()
	return m
}

func (m *catalogModel) Init() tea.Cmd {
	return m.tick()
}

func (m *catalogModel) tick() tea.Cmd {
	if m.tickEvery <= 0 || !m.hideInactive {
		return nil
	}
	gen := m.tickGen
	return tea.Tick(m.tickEvery, func(time.Time) tea.Msg {
		return scheduleTickMsg{gen: gen}
	})
}

// reload re-reads the visible rows and keeps the cursor on the same node
// when it is still shown.
func (m *catalogModel) reload() {
	selected := m.selectedID()
	m.rows = m.app.Catalog.VisibleRows(m.app.now(), m.hideInactive)

	shown := make(map[string]bool, len(m.rows))
	for i, r := range m.rows {
		shown[r.Node.ID] = true
		if r.Node.ID == selected {
			m.cursor = i
		}
	}
	for id := range m.marked {
		if !shown[id] {
			delete(m.marked, id)
		}
	}
	m.cursor = min(m.cursor, max(len(m.rows)-1, 0))
}

func (m *catalogModel) selectedID() string {
	if m.cursor < len(m.rows) {
		return m.rows[m.cursor].Node.ID
	}
	return ""
}

func (m *catalogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil

	case scheduleTickMsg:
		if msg.gen != m.tickGen || !m.hideInactive {
			return m, nil
		}
		m.reload()
		return m, m.tick()

	case externalChangeMsg:
		m.reload()
		m.status = formatter.Dim("Catalog changed elsewhere; reloaded")
		return m, nil

	case opDoneMsg:
		if msg.err != nil {
			m.status = formatter.StyleRed.Render("Error: " + msg.err.Error())
		} else {
			m.status = strings.TrimRight(outcomeText(msg.verb, msg.outcome), "\n")
			if msg.outcome.Applied {
				clear(m.marked)
			}
		}
		m.reload()
		return m, nil

	case refreshedMsg:
		switch {
		case msg.err != nil:
			m.status = formatter.StyleRed.Render("Error: " + msg.err.Error())
		case msg.changed:
			m.status = "Reloaded from store"
		default:
			m.status = formatter.Dim("Up to date")
		}
		m.reload()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *catalogModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pendingDelete != "" {
		id := m.pendingDelete
		m.pendingDelete = ""
		if key.Matches(msg, m.keys.Confirm) {
			return m, m.run("Deleted", func(ctx context.Context) (service.Outcome, error) {
				return m.app.Catalog.Delete(ctx, id)
			})
		}
		m.status = formatter.Dim("Delete cancelled")
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.HideInactive):
		m.hideInactive = !m.hideInactive
		m.tickGen++
		m.reload()
		return m, m.tick()
	case key.Matches(msg, m.keys.Refresh):
		return m, func() tea.Msg {
			changed, err := m.app.Catalog.Refresh(context.Background())
			return refreshedMsg{changed: changed, err: err}
		}
	}

	if len(m.rows) == 0 {
		return m, nil
	}
	row := m.rows[m.cursor]

	// With marked rows the cursor row is the drop target.
	if len(m.marked) > 0 {
		switch {
		case key.Matches(msg, m.keys.MoveUp):
			return m, m.drop(row.Node.ID, tree.Above)
		case key.Matches(msg, m.keys.MoveDown):
			return m, m.drop(row.Node.ID, tree.Below)
		case key.Matches(msg, m.keys.MoveInto):
			return m, m.drop(row.Node.ID, tree.Into)
		}
	}

	switch {
	case key.Matches(msg, m.keys.MoveUp):
		if m.cursor == 0 {
			return m, nil
		}
		prev := m.rows[m.cursor-1].Node
		if row.Node.ParentKey() == prev.ID {
			m.status = formatter.Dim("Already first in " + prev.Name)
			return m, nil
		}
		return m, m.drop(prev.ID, tree.Above)
	case key.Matches(msg, m.keys.MoveDown):
		next := m.nextOutside(row.Node.ID)
		if next < 0 {
			return m, nil
		}
		return m, m.drop(m.rows[next].Node.ID, tree.Below)
	case key.Matches(msg, m.keys.MoveInto):
		prev := m.previousSibling()
		if prev < 0 {
			m.status = formatter.Dim("No sibling above to move into")
			return m, nil
		}
		return m, m.drop(m.rows[prev].Node.ID, tree.Into)
	case key.Matches(msg, m.keys.Mark):
		if m.marked[row.Node.ID] {
			delete(m.marked, row.Node.ID)
		} else {
			m.marked[row.Node.ID] = true
		}
	case key.Matches(msg, m.keys.Copy):
		m.clip(row, m.app.Catalog.Copy, "Copied")
	case key.Matches(msg, m.keys.Cut):
		m.clip(row, m.app.Catalog.Cut, "Cut")
	case key.Matches(msg, m.keys.Paste):
		return m, m.paste(row.Node.ID)
	case key.Matches(msg, m.keys.PasteRoot):
		return m, m.paste("")
	case key.Matches(msg, m.keys.Toggle):
		id, active := row.Node.ID, !row.Node.Active
		verb := "Switched off"
		if active {
			verb = "Switched on"
		}
		return m, m.run(verb, func(ctx context.Context) (service.Outcome, error) {
			return m.app.Catalog.SetActive(ctx, id, active)
		})
	case key.Matches(msg, m.keys.Delete):
		m.pendingDelete = row.Node.ID
		count := len(m.app.Catalog.Forest().Subtree(row.Node.ID))
		m.status = formatter.StyleYellow.Render(fmt.Sprintf("Delete %s (%d nodes)? y to confirm", row.DisplayPath, count))
	}
	return m, nil
}

// drop moves the selected node, or every marked node, onto overID.
func (m *catalogModel) drop(overID string, pos tree.Position) tea.Cmd {
	ids := m.markedInOrder()
	if len(ids) == 0 {
		id := m.selectedID()
		return m.run("Moved", func(ctx context.Context) (service.Outcome, error) {
			return m.app.Catalog.Move(ctx, id, overID, pos)
		})
	}
	return m.run(fmt.Sprintf("Moved %d nodes with", len(ids)), func(ctx context.Context) (service.Outcome, error) {
		return m.app.Catalog.MoveMany(ctx, ids, overID, pos)
	})
}

func (m *catalogModel) paste(target string) tea.Cmd {
	if _, ok := m.app.Catalog.Clipboard(); !ok {
		m.status = formatter.Dim("Clipboard is empty")
		return nil
	}
	return m.run("Pasted", func(ctx context.Context) (service.Outcome, error) {
		return m.app.Catalog.Paste(ctx, target)
	})
}

func (m *catalogModel) clip(row tree.Row, fn func(string) error, verb string) {
	if err := fn(row.Node.ID); err != nil {
		m.status = formatter.StyleRed.Render("Error: " + err.Error())
		return
	}
	m.status = fmt.Sprintf("%s %s", verb, formatter.Bold(row.DisplayPath))
}

func (m *catalogModel) run(verb string, op func(context.Context) (service.Outcome, error)) tea.Cmd {
	return func() tea.Msg {
		outcome, err := op(context.Background())
		return opDoneMsg{verb: verb, outcome: outcome, err: err}
	}
}

func (m *catalogModel) markedInOrder() []string {
	var ids []string
	for _, r := range m.rows {
		if m.marked[r.Node.ID] {
			ids = append(ids, r.Node.ID)
		}
	}
	return ids
}

// nextOutside returns the index of the first row after the selected row's
// subtree, or -1.
func (m *catalogModel) nextOutside(id string) int {
	for i := m.cursor + 1; i < len(m.rows); i++ {
		if !containsID(m.rows[i].Path, id) {
			return i
		}
	}
	return -1
}

// previousSibling returns the index of the nearest row above the cursor at
// the same depth under the same parent, or -1.
func (m *catalogModel) previousSibling() int {
	cur := m.rows[m.cursor]
	for i := m.cursor - 1; i >= 0; i-- {
		r := m.rows[i]
		if r.Depth < cur.Depth {
			return -1
		}
		if r.Depth == cur.Depth && r.Node.ParentKey() == cur.Node.ParentKey() {
			return i
		}
	}
	return -1
}

func (m *catalogModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	title := formatter.StyleHeader.Render("CRAWL CATALOG")
	var flags []string
	if m.hideInactive {
		flags = append(flags, "hiding inactive")
	}
	if clip, ok := m.app.Catalog.Clipboard(); ok {
		if n, found := m.app.Catalog.Forest().Node(clip.NodeID); found {
			flags = append(flags, fmt.Sprintf("%s: %s", clip.Mode, n.Name))
		}
	}
	if len(m.marked) > 0 {
		flags = append(flags, fmt.Sprintf("%d marked", len(m.marked)))
	}
	if len(flags) > 0 {
		title += "  " + formatter.Dim(strings.Join(flags, " · "))
	}
	b.WriteString(title + "\n\n")

	if len(m.rows) == 0 {
		b.WriteString(formatter.Dim("(nothing to show)") + "\n")
	} else {
		items := formatter.ItemsFromRows(m.rows, m.app.now())
		for i := range items {
			items[i].Selected = i == m.cursor
			if m.marked[items[i].ID] {
				items[i].Title = "* " + items[i].Title
			}
		}
		b.WriteString(formatter.RenderTree(items))
	}

	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	b.WriteString("\n" + renderHelp(m.keys.ShortHelp()))
	return lipgloss.NewStyle().PaddingLeft(1).Render(b.String())
}

func renderHelp(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, formatter.Bold(h.Key)+" "+formatter.Dim(h.Desc))
	}
	return strings.Join(parts, formatter.Dim(" • "))
}
