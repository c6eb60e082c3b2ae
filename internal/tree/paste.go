package tree

import (
	"fmt"

	"github.com/alexanderramin/crawl/internal/domain"
)

// ClipMode says whether a paste keeps or removes the source subtree.
type ClipMode int

const (
	Copy ClipMode = iota
	Cut
)

func (m ClipMode) String() string {
	if m == Cut {
		return "cut"
	}
	return "copy"
}

// Clipboard is a pending cut or copy of one subtree.
type Clipboard struct {
	NodeID string
	Mode   ClipMode
}

// PlanPaste rebuilds the subtree at srcID under target with fresh ids from
// newID. When target cannot hold the source type but may be its sibling, the
// copy goes to target's parent instead. The top node gets a resolved name and
// the next order of its scope; descendants keep names and relative order,
// except buckets, which are renamed against the global bucket set. A cut
// deletes the source subtree and frees its names first.
//
// target "" pastes at the root of the source's catalog.
func PlanPaste(f *Forest, srcID, target string, mode ClipMode, newID func() string) (*Plan, error) {
	src, ok := f.nodes[srcID]
	if !ok {
		return nil, fmt.Errorf("node %s not found", srcID)
	}

	parentKey, err := f.pasteParent(src, target)
	if err != nil {
		return nil, err
	}
	if parentKey == srcID || (parentKey != "" && f.IsDescendant(parentKey, srcID)) {
		return nil, illegal("cannot paste %q into its own subtree", src.Name)
	}

	c := f.Clone()
	var deletes []string
	if mode == Cut {
		deletes = c.removeSubtree(srcID)
	}

	plan := &Plan{Forest: c, Deletes: deletes}
	var copySubtree func(orig *domain.Node, parentKey string, depth int, top bool)
	copySubtree = func(orig *domain.Node, parentKey string, depth int, top bool) {
		n := orig.Clone()
		n.ID = newID()
		if parentKey == "" {
			n.ParentID = nil
		} else {
			n.ParentID = domain.StrPtr(parentKey)
		}
		key := nodeScope(n)
		if top || n.Type.NameScope() == domain.ScopeGlobal {
			n.Name = c.ResolveName(n.Name, n.Type, parentKey)
		}
		n.Order = c.nextOrder(key)
		c.add(n, len(c.children[key]))

		for len(plan.Inserts) <= depth {
			plan.Inserts = append(plan.Inserts, nil)
		}
		plan.Inserts[depth] = append(plan.Inserts[depth], n.Clone())
		if top {
			plan.NodeID, plan.Name = n.ID, n.Name
		}
		for _, childID := range f.children[orig.ID] {
			copySubtree(f.nodes[childID], n.ID, depth+1, false)
		}
	}
	copySubtree(src, parentKey, 0, true)
	return plan, nil
}

// pasteParent picks the parent a pasted node of src's type lands under.
func (f *Forest) pasteParent(src *domain.Node, target string) (string, error) {
	if target == "" {
		if !src.Type.RootOnly() {
			return "", illegal("%s cannot be pasted at the root", src.Type)
		}
		return "", nil
	}
	t, ok := f.nodes[target]
	if !ok {
		return "", fmt.Errorf("node %s not found", target)
	}
	if src.Type.CanBeChildOf(t.Type) {
		return t.ID, nil
	}
	if t.Type == src.Type {
		return t.ParentKey(), nil
	}
	return "", illegal("%s cannot be pasted into %s %q", src.Type, t.Type, t.Name)
}
