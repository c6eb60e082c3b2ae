package tree

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/alexanderramin/crawl/internal/domain"
)

var numberedName = regexp.MustCompile(`^(.*\S) (\d+)$`)

func itoa(i int) string { return strconv.Itoa(i) }

// BaseName strips a trailing " <n>" suffix: "Widget 2" -> "Widget".
func BaseName(name string) string {
	if m := numberedName.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return name
}

// UniqueName returns candidate if it is free, otherwise the first free name
// in the sequence "<base>", "<base> 1", "<base> 2", ... so that holes left by
// deleted nodes are reused.
func UniqueName(candidate string, taken map[string]bool) string {
	if !taken[candidate] {
		return candidate
	}
	base := BaseName(candidate)
	if !taken[base] {
		return base
	}
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s %d", base, n)
		if !taken[name] {
			return name
		}
	}
}

// TakenNames collects the names a node of type t placed under parentKey must
// not reuse. Nodes in exclude (the node itself, a subtree being cut) are
// ignored.
func (f *Forest) TakenNames(t domain.NodeType, parentKey string, exclude map[string]bool) map[string]bool {
	taken := make(map[string]bool)
	switch t.NameScope() {
	case domain.ScopeGlobal:
		for id, n := range f.nodes {
			if n.Type == t && !exclude[id] {
				taken[n.Name] = true
			}
		}
	default:
		for _, id := range f.children[scopeOf(parentKey, t.Catalog())] {
			if !exclude[id] {
				taken[f.nodes[id].Name] = true
			}
		}
	}
	return taken
}

// ResolveName returns a name for a node of type t under parentKey that does
// not collide within its uniqueness scope.
func (f *Forest) ResolveName(name string, t domain.NodeType, parentKey string, exclude ...string) string {
	ex := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		ex[id] = true
	}
	return UniqueName(name, f.TakenNames(t, parentKey, ex))
}
