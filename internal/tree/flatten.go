package tree

import (
	"strings"

	"github.com/alexanderramin/crawl/internal/domain"
)

// PathSeparator joins names in a display path.
const PathSeparator = " / "

// Row is one line of the flattened tree-grid.
type Row struct {
	Node        *domain.Node
	Path        []string // ancestor ids from the root down to the node itself
	DisplayPath string
	Depth       int
	HasChildren bool
}

// FlattenWithPaths walks the forest depth-first, content catalog first, and
// annotates every node with its id path and display path.
func FlattenWithPaths(f *Forest) []Row {
	var rows []Row
	var walk func(id string, path []string, names []string)
	walk = func(id string, path []string, names []string) {
		n := f.nodes[id]
		path = append(path[:len(path):len(path)], id)
		names = append(names[:len(names):len(names)], n.Name)
		rows = append(rows, Row{
			Node:        n,
			Path:        path,
			DisplayPath: strings.Join(names, PathSeparator),
			Depth:       len(path) - 1,
			HasChildren: len(f.children[id]) > 0,
		})
		for _, childID := range f.children[id] {
			walk(childID, path, names)
		}
	}
	for _, c := range []domain.Catalog{domain.CatalogContent, domain.CatalogTemplates} {
		for _, id := range f.children[rootScope(c)] {
			walk(id, nil, nil)
		}
	}
	return rows
}

// ToFlat returns copies of the row nodes, ready to be rebuilt.
func ToFlat(rows []Row) []*domain.Node {
	out := make([]*domain.Node, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Node.Clone())
	}
	return out
}

// IDs returns the row ids in order.
func IDs(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Node.ID)
	}
	return out
}

// FindByDisplayPath returns the row whose display path equals path.
func FindByDisplayPath(rows []Row, path string) (Row, bool) {
	for _, r := range rows {
		if r.DisplayPath == path {
			return r, true
		}
	}
	return Row{}, false
}

// TreeNode is the nested form of the hierarchy.
type TreeNode struct {
	Node     *domain.Node
	Children []*TreeNode
}

// Tree returns the nested form of the given subtree, or of the whole forest
// when rootID is empty.
func (f *Forest) Tree(rootID string) []*TreeNode {
	var build func(id string) *TreeNode
	build = func(id string) *TreeNode {
		tn := &TreeNode{Node: f.nodes[id]}
		for _, childID := range f.children[id] {
			tn.Children = append(tn.Children, build(childID))
		}
		return tn
	}
	if rootID != "" {
		if _, ok := f.nodes[rootID]; !ok {
			return nil
		}
		return []*TreeNode{build(rootID)}
	}
	var out []*TreeNode
	for _, c := range []domain.Catalog{domain.CatalogContent, domain.CatalogTemplates} {
		for _, id := range f.children[rootScope(c)] {
			out = append(out, build(id))
		}
	}
	return out
}

// Signature identifies the structure of the forest: shape, names, order and
// active flags. Two forests with equal signatures render identically.
func Signature(f *Forest) []string {
	rows := FlattenWithPaths(f)
	sig := make([]string, 0, len(rows))
	for _, r := range rows {
		active := "0"
		if r.Node.Active {
			active = "1"
		}
		sig = append(sig, strings.Join([]string{
			r.Node.ID, r.Node.ParentKey(), r.Node.Name, string(r.Node.Type), itoa(r.Node.Order), active,
		}, "\x1f"))
	}
	return sig
}

// SameStructure reports whether a and b have equal signatures.
func SameStructure(a, b *Forest) bool {
	sa, sb := Signature(a), Signature(b)
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
