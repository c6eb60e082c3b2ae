package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/alexanderramin/crawl/internal/tree"
	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of a rendered catalog tree.
type TreeItem struct {
	Title string
	ID    string
	Type  domain.NodeType
	Level int
	// Guides[i] is true when the ancestor at level i+1 has later siblings,
	// so a vertical guide continues through this line.
	Guides   []bool
	IsLast   bool
	State    State
	Badge    string
	Selected bool
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// ItemsFromRows turns flattened rows into tree items, working out the
// connectors and each node's state at now.
func ItemsFromRows(rows []tree.Row, now time.Time) []TreeItem {
	items := make([]TreeItem, len(rows))
	live := make(map[string]bool, len(rows))
	for i, r := range rows {
		n := r.Node
		state := StateLive
		// A parent outside rows (a rendered subtree) counts as live.
		parentLive := true
		if n.ParentID != nil {
			if pl, seen := live[*n.ParentID]; seen {
				parentLive = pl
			}
		}
		switch {
		case !n.Active || !parentLive:
			state = StateOff
		case !n.LiveAt(now):
			state = StateIdle
		}
		live[n.ID] = state == StateLive

		item := TreeItem{
			Title:  n.Name,
			ID:     n.ID,
			Type:   n.Type,
			Level:  r.Depth,
			IsLast: isLastSibling(rows, i),
			State:  state,
		}
		if n.Schedule != nil && !n.Schedule.IsEmpty() {
			item.Badge = n.Schedule.Summary()
		}
		items[i] = item
	}

	// Guides come from the IsLast flags of each line's ancestors.
	var open []bool
	for i := range items {
		lvl := items[i].Level
		if lvl > len(open) {
			lvl = len(open)
		}
		open = open[:lvl]
		if items[i].Level > 0 {
			items[i].Guides = append([]bool(nil), open[min(1, len(open)):]...)
		}
		open = append(open, !items[i].IsLast)
	}
	return items
}

func isLastSibling(rows []tree.Row, i int) bool {
	r := rows[i]
	for _, next := range rows[i+1:] {
		if next.Depth < r.Depth {
			return true
		}
		if next.Depth == r.Depth {
			return next.Node.ParentKey() != r.Node.ParentKey() ||
				next.Node.Type.Catalog() != r.Node.Type.Catalog()
		}
	}
	return true
}

// RenderTree renders items with box-drawing connectors. Schedule badges are
// right-aligned; switched-off nodes are dimmed.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	type lineInfo struct {
		content string
		badge   string
	}
	lines := make([]lineInfo, len(items))
	maxContentWidth := 0

	for idx, item := range items {
		var prefix strings.Builder
		if item.Level > 0 {
			for _, guide := range item.Guides {
				if guide {
					prefix.WriteString(treePipe)
				} else {
					prefix.WriteString(treeBlank)
				}
			}
			if item.IsLast {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
		}

		title := item.Title
		switch {
		case item.Selected:
			title = StyleSelected.Render(title)
		case item.State == StateOff:
			title = Dim(title)
		case item.Level == 0:
			title = Bold(title)
		}
		content := Dim(prefix.String()) + StateMark(item.State) + " " + title + " " + TypeLabel(item.Type)
		lines[idx].content = content
		if item.Badge != "" {
			lines[idx].badge = StyleBlue.Render(fmt.Sprintf("[ %s ]", item.Badge))
		}
		if w := lipgloss.Width(content); w > maxContentWidth {
			maxContentWidth = w
		}
	}

	var b strings.Builder
	for _, li := range lines {
		if li.badge == "" {
			b.WriteString(li.content + "\n")
			continue
		}
		pad := maxContentWidth - lipgloss.Width(li.content)
		b.WriteString(li.content + strings.Repeat(" ", pad) + "  " + li.badge + "\n")
	}
	return b.String()
}

// RenderCatalog renders both catalogs, content first, each under a header.
func RenderCatalog(rows []tree.Row, now time.Time) string {
	items := ItemsFromRows(rows, now)
	var content, templates []TreeItem
	for _, item := range items {
		if item.Type.Catalog() == domain.CatalogTemplates {
			templates = append(templates, item)
		} else {
			content = append(content, item)
		}
	}

	var b strings.Builder
	b.WriteString(Header("Content") + "\n")
	if len(content) == 0 {
		b.WriteString(Dim("(empty)") + "\n")
	}
	b.WriteString(RenderTree(content))
	b.WriteString("\n" + Header("Templates") + "\n")
	if len(templates) == 0 {
		b.WriteString(Dim("(empty)") + "\n")
	}
	b.WriteString(RenderTree(templates))
	return b.String()
}
