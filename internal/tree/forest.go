// Package tree holds the catalog hierarchy as an arena: a flat id -> node
// map plus an ordered child index per sibling scope. Building, flattening and
// every move/paste/create plan are pure functions over a Forest; callers get
// a new Forest back and the patches needed to persist it.
package tree

import (
	"sort"

	"github.com/alexanderramin/crawl/internal/domain"
)

// Forest is the arena form of the catalog. The zero value is not usable;
// build one with BuildTree or New.
type Forest struct {
	nodes map[string]*domain.Node
	// children maps a scope key to the ordered ids of that scope.
	children map[string][]string
	orphans  []string
}

// New returns an empty forest.
func New() *Forest {
	return &Forest{
		nodes:    make(map[string]*domain.Node),
		children: make(map[string][]string),
	}
}

// rootScope is the scope key of a catalog's root level.
func rootScope(c domain.Catalog) string {
	return "#root:" + string(c)
}

// scopeOf returns the sibling scope key for children of parentKey in catalog c.
func scopeOf(parentKey string, c domain.Catalog) string {
	if parentKey == "" {
		return rootScope(c)
	}
	return parentKey
}

func nodeScope(n *domain.Node) string {
	return scopeOf(n.ParentKey(), n.Type.Catalog())
}

// BuildTree groups nodes by parent and sorts every group by order. Input
// nodes are copied. Nodes whose parent is missing are kept out of the tree
// and reported by Orphans.
func BuildTree(nodes []*domain.Node) *Forest {
	f := New()
	for _, n := range nodes {
		if n == nil {
			continue
		}
		f.nodes[n.ID] = n.Clone()
	}
	for id, n := range f.nodes {
		if pk := n.ParentKey(); pk != "" {
			if _, ok := f.nodes[pk]; !ok {
				f.orphans = append(f.orphans, id)
				continue
			}
		}
		key := nodeScope(n)
		f.children[key] = append(f.children[key], id)
	}
	for key := range f.children {
		f.sortScope(key)
	}
	sort.Strings(f.orphans)
	return f
}

func (f *Forest) sortScope(key string) {
	ids := f.children[key]
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := f.nodes[ids[i]], f.nodes[ids[j]]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

// Len returns the number of nodes, orphans included.
func (f *Forest) Len() int {
	return len(f.nodes)
}

// Orphans returns ids of nodes whose parent is not in the forest.
func (f *Forest) Orphans() []string {
	return append([]string(nil), f.orphans...)
}

// Node returns the node with the given id.
func (f *Forest) Node(id string) (*domain.Node, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

// Parent returns n's parent, or nil for root nodes.
func (f *Forest) Parent(n *domain.Node) *domain.Node {
	if n.ParentID == nil {
		return nil
	}
	return f.nodes[*n.ParentID]
}

// Roots returns the root nodes of catalog c in order.
func (f *Forest) Roots(c domain.Catalog) []*domain.Node {
	return f.resolve(f.children[rootScope(c)])
}

// Children returns the ordered children of the node with the given id.
func (f *Forest) Children(id string) []*domain.Node {
	return f.resolve(f.children[id])
}

// Siblings returns n's sibling scope in order, n included.
func (f *Forest) Siblings(n *domain.Node) []*domain.Node {
	return f.resolve(f.children[nodeScope(n)])
}

func (f *Forest) resolve(ids []string) []*domain.Node {
	out := make([]*domain.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.nodes[id])
	}
	return out
}

// Ancestors returns the parent chain of the node, nearest first.
func (f *Forest) Ancestors(id string) []*domain.Node {
	var chain []*domain.Node
	n, ok := f.nodes[id]
	for ok && n.ParentID != nil {
		n, ok = f.nodes[*n.ParentID]
		if ok {
			chain = append(chain, n)
		}
	}
	return chain
}

// IsDescendant reports whether id lies strictly below ancestorID.
func (f *Forest) IsDescendant(id, ancestorID string) bool {
	for _, a := range f.Ancestors(id) {
		if a.ID == ancestorID {
			return true
		}
	}
	return false
}

// Subtree returns the node and all its descendants in pre-order.
func (f *Forest) Subtree(id string) []*domain.Node {
	n, ok := f.nodes[id]
	if !ok {
		return nil
	}
	out := []*domain.Node{n}
	for _, childID := range f.children[id] {
		out = append(out, f.Subtree(childID)...)
	}
	return out
}

// Nodes returns every reachable node in display order.
func (f *Forest) Nodes() []*domain.Node {
	var out []*domain.Node
	for _, c := range []domain.Catalog{domain.CatalogContent, domain.CatalogTemplates} {
		for _, id := range f.children[rootScope(c)] {
			out = append(out, f.Subtree(id)...)
		}
	}
	return out
}

// Clone returns a deep copy; plans mutate clones only.
func (f *Forest) Clone() *Forest {
	c := &Forest{
		nodes:    make(map[string]*domain.Node, len(f.nodes)),
		children: make(map[string][]string, len(f.children)),
		orphans:  append([]string(nil), f.orphans...),
	}
	for id, n := range f.nodes {
		c.nodes[id] = n.Clone()
	}
	for key, ids := range f.children {
		c.children[key] = append([]string(nil), ids...)
	}
	return c
}

// indexIn returns the position of id within scope key, or -1.
func (f *Forest) indexIn(key, id string) int {
	for i, other := range f.children[key] {
		if other == id {
			return i
		}
	}
	return -1
}

// detach removes id from its scope list without touching its subtree.
func (f *Forest) detach(id string) {
	n := f.nodes[id]
	key := nodeScope(n)
	if i := f.indexIn(key, id); i >= 0 {
		ids := f.children[key]
		f.children[key] = append(ids[:i:i], ids[i+1:]...)
	}
}

// attach re-parents id and inserts it at index within the new scope.
func (f *Forest) attach(id string, parentKey string, index int) {
	n := f.nodes[id]
	if parentKey == "" {
		n.ParentID = nil
	} else {
		pid := parentKey
		n.ParentID = &pid
	}
	key := nodeScope(n)
	ids := f.children[key]
	if index < 0 || index > len(ids) {
		index = len(ids)
	}
	ids = append(ids, "")
	copy(ids[index+1:], ids[index:])
	ids[index] = id
	f.children[key] = ids
}

// add places a new node into the arena at index within its scope.
func (f *Forest) add(n *domain.Node, index int) {
	f.nodes[n.ID] = n
	f.attach(n.ID, n.ParentKey(), index)
}

// removeSubtree drops id and its descendants, returning the removed ids in
// pre-order.
func (f *Forest) removeSubtree(id string) []string {
	sub := f.Subtree(id)
	if len(sub) == 0 {
		return nil
	}
	f.detach(id)
	ids := make([]string, 0, len(sub))
	for _, n := range sub {
		ids = append(ids, n.ID)
		delete(f.children, n.ID)
		delete(f.nodes, n.ID)
	}
	return ids
}

// renumber rewrites the orders of scope key to 0..n-1 and returns the ids
// whose order changed.
func (f *Forest) renumber(key string) []string {
	var changed []string
	for i, id := range f.children[key] {
		n := f.nodes[id]
		if n.Order != i {
			n.Order = i
			changed = append(changed, id)
		}
	}
	return changed
}

// nextOrder returns an order value after every node of scope key.
func (f *Forest) nextOrder(key string) int {
	next := 0
	for _, id := range f.children[key] {
		if o := f.nodes[id].Order; o >= next {
			next = o + 1
		}
	}
	return next
}
