package tree

import (
	"fmt"

	"github.com/alexanderramin/crawl/internal/domain"
)

// Position is where a drop lands relative to the row under the pointer.
type Position int

const (
	Above Position = iota
	Below
	Into
)

// PositionFromDropBelow maps a pointer half to a position.
func PositionFromDropBelow(dropBelow bool) Position {
	if dropBelow {
		return Below
	}
	return Above
}

func (p Position) String() string {
	switch p {
	case Above:
		return "above"
	case Below:
		return "below"
	case Into:
		return "into"
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// ParsePosition accepts above, below and into.
func ParsePosition(s string) (Position, error) {
	switch s {
	case "above", "before":
		return Above, nil
	case "below", "after":
		return Below, nil
	case "into", "inside":
		return Into, nil
	}
	return 0, fmt.Errorf("unknown position %q (above|below|into)", s)
}

type dropAction int

const (
	dropIllegal dropAction = iota
	// dropBeside places the dragged node next to the target.
	dropBeside
	// dropInside appends the dragged node to the target's children.
	dropInside
	// dropBesideOrInside nests on Into and sits beside otherwise.
	dropBesideOrInside
	// dropAfterAncestor places the dragged node right after the nearest
	// ancestor of the target it may sit beside.
	dropAfterAncestor
)

// dropRules[dragged][target] resolves a gesture. Missing pairs are illegal.
var dropRules = map[domain.NodeType]map[domain.NodeType]dropAction{
	domain.TypeFolder: {
		domain.TypeFolder:     dropBeside,
		domain.TypeBucket:     dropAfterAncestor,
		domain.TypeItemFolder: dropAfterAncestor,
		domain.TypeItem:       dropAfterAncestor,
	},
	domain.TypeBucket: {
		domain.TypeFolder: dropInside,
		domain.TypeBucket: dropBeside,
	},
	domain.TypeItemFolder: {
		domain.TypeBucket:     dropInside,
		domain.TypeItemFolder: dropBesideOrInside,
	},
	domain.TypeItem: {
		domain.TypeBucket:     dropInside,
		domain.TypeItemFolder: dropInside,
		domain.TypeItem:       dropBeside,
	},
	domain.TypeTemplateFolder: {
		domain.TypeTemplateFolder: dropBeside,
	},
	domain.TypeTemplate: {
		domain.TypeTemplateFolder: dropInside,
		domain.TypeTemplate:       dropBeside,
	},
}

// placement is a resolved destination: a parent and an index into that
// parent's scope with the dragged nodes already taken out.
type placement struct {
	parentKey string
	index     int
}

// without returns the ids of scope key minus the moving set.
func (f *Forest) without(key string, moving map[string]bool) []string {
	var out []string
	for _, id := range f.children[key] {
		if !moving[id] {
			out = append(out, id)
		}
	}
	return out
}

func indexOf(ids []string, id string) int {
	for i, other := range ids {
		if other == id {
			return i
		}
	}
	return -1
}

// resolveDrop turns a gesture into a placement. origParent is the parent
// shared by the dragged nodes; "-" disables boundary correction.
func (f *Forest) resolveDrop(dragged domain.NodeType, origParent string, over *domain.Node, pos Position, moving map[string]bool) (placement, error) {
	action := dropRules[dragged][over.Type]
	if action == dropBesideOrInside {
		action = dropBeside
		if pos == Into {
			action = dropInside
		}
	}

	var p placement
	switch action {
	case dropInside:
		p = placement{parentKey: over.ID, index: len(f.without(over.ID, moving))}
	case dropBeside:
		list := f.without(nodeScope(over), moving)
		idx := indexOf(list, over.ID)
		if pos != Above {
			idx++
		}
		p = placement{parentKey: over.ParentKey(), index: idx}
	case dropAfterAncestor:
		for _, a := range f.Ancestors(over.ID) {
			if dropRules[dragged][a.Type] != dropBeside {
				continue
			}
			list := f.without(nodeScope(a), moving)
			return placement{parentKey: a.ParentKey(), index: indexOf(list, a.ID) + 1}, nil
		}
		return placement{}, illegal("no %s above %s %q to drop after", dragged, over.Type, over.Name)
	default:
		return placement{}, illegal("%s cannot be dropped on %s %q", dragged, over.Type, over.Name)
	}

	if origParent != "-" {
		p = f.correctBoundary(p, origParent, over, pos, moving)
	}
	return p, nil
}

// correctBoundary handles the seam between two containers. Dropping above the
// top of container B, either onto B itself or above its first child, lands
// on the same pixel row as the end of the container drawn just before B. When
// the dragged node already lives in that previous container (or in one of its
// last-child descendants), the drop means "move to the end of where it is",
// not "move into B".
func (f *Forest) correctBoundary(p placement, origParent string, over *domain.Node, pos Position, moving map[string]bool) placement {
	if pos != Above || origParent == "" || p.parentKey == "" || p.parentKey == origParent {
		return p
	}
	dest, ok := f.nodes[p.parentKey]
	if !ok {
		return p
	}
	if over.ID != dest.ID {
		first := f.without(dest.ID, moving)
		if len(first) == 0 || first[0] != over.ID {
			return p
		}
	}

	siblings := f.without(nodeScope(dest), moving)
	i := indexOf(siblings, dest.ID)
	if i <= 0 {
		return p
	}
	for id := siblings[i-1]; id != ""; {
		if id == origParent {
			return placement{parentKey: id, index: len(f.without(id, moving))}
		}
		tail := f.without(id, moving)
		if len(tail) == 0 {
			break
		}
		id = tail[len(tail)-1]
	}
	return p
}

// Relocate plans a single drag-and-drop. Illegal gestures return an error
// wrapping ErrIllegalMove and leave f untouched.
func Relocate(f *Forest, draggedID, overID string, pos Position) (*Plan, error) {
	dragged, ok := f.nodes[draggedID]
	if !ok {
		return nil, fmt.Errorf("node %s not found", draggedID)
	}
	over, ok := f.nodes[overID]
	if !ok {
		return nil, fmt.Errorf("node %s not found", overID)
	}
	if draggedID == overID {
		return nil, illegal("cannot drop %q onto itself", dragged.Name)
	}
	if f.IsDescendant(overID, draggedID) {
		return nil, illegal("cannot drop %q into its own subtree", dragged.Name)
	}

	moving := map[string]bool{draggedID: true}
	p, err := f.resolveDrop(dragged.Type, dragged.ParentKey(), over, pos, moving)
	if err != nil {
		return nil, err
	}
	return f.applyMoves([]string{draggedID}, p)
}

// RelocateMany plans a multi-node drag in the template catalog. Dragged
// nodes inside another dragged node travel with it. Template folders go to
// the root level next to the target's folder; templates are placed as a
// contiguous batch using the same rules as a single drag.
func RelocateMany(f *Forest, draggedIDs []string, overID string, pos Position) (*Plan, error) {
	if len(draggedIDs) == 1 {
		return Relocate(f, draggedIDs[0], overID, pos)
	}
	if len(draggedIDs) == 0 {
		return nil, illegal("nothing to move")
	}
	over, ok := f.nodes[overID]
	if !ok {
		return nil, fmt.Errorf("node %s not found", overID)
	}
	selected := make(map[string]bool, len(draggedIDs))
	for _, id := range draggedIDs {
		n, ok := f.nodes[id]
		if !ok {
			return nil, fmt.Errorf("node %s not found", id)
		}
		if n.Type.Catalog() != domain.CatalogTemplates || over.Type.Catalog() != domain.CatalogTemplates {
			return nil, illegal("multi-node moves are limited to the template catalog")
		}
		if id == overID || f.IsDescendant(overID, id) {
			return nil, illegal("cannot drop %q onto itself or its subtree", n.Name)
		}
		selected[id] = true
	}

	// Keep top-most selections only, in display order.
	var folders, templates []string
	for _, n := range f.Nodes() {
		if !selected[n.ID] {
			continue
		}
		covered := false
		for _, a := range f.Ancestors(n.ID) {
			if selected[a.ID] {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		if n.Type == domain.TypeTemplateFolder {
			folders = append(folders, n.ID)
		} else {
			templates = append(templates, n.ID)
		}
	}

	cur := f
	var steps []*Plan
	if len(folders) > 0 {
		anchor := over
		if anchor.Type != domain.TypeTemplateFolder {
			if parent := f.Parent(over); parent != nil {
				anchor = parent
			}
		}
		moving := setOf(folders)
		list := f.without(rootScope(domain.CatalogTemplates), moving)
		idx := indexOf(list, anchor.ID)
		if !(pos == Above && anchor.ID == over.ID) {
			idx++
		}
		plan, err := cur.applyMoves(folders, placement{parentKey: "", index: idx})
		if err != nil {
			return nil, err
		}
		steps = append(steps, plan)
		cur = plan.Forest
	}

	if len(templates) > 0 {
		origParent := cur.nodes[templates[0]].ParentKey()
		for _, id := range templates[1:] {
			if cur.nodes[id].ParentKey() != origParent {
				origParent = "-"
				break
			}
		}
		overNow := cur.nodes[over.ID]
		p, err := cur.resolveDrop(domain.TypeTemplate, origParent, overNow, pos, setOf(templates))
		if err != nil {
			return nil, err
		}
		plan, err := cur.applyMoves(templates, p)
		if err != nil {
			return nil, err
		}
		steps = append(steps, plan)
		cur = plan.Forest
	}

	out := &Plan{Forest: cur}
	groups := make([][]Patch, 0, len(steps))
	for _, s := range steps {
		groups = append(groups, s.Patches)
	}
	out.Patches = mergePatches(groups...)
	first := draggedIDs[0]
	if n, ok := cur.nodes[first]; ok {
		out.NodeID, out.Name = first, n.Name
	}
	return out, nil
}

func setOf(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// applyMoves places ids, in order, as a contiguous run at p and returns the
// resulting plan. Names are kept on same-parent moves and resolved against
// the new scope otherwise. The destination scope is renumbered.
func (f *Forest) applyMoves(ids []string, p placement) (*Plan, error) {
	c := f.Clone()
	oldParent := make(map[string]string, len(ids))
	for _, id := range ids {
		oldParent[id] = c.nodes[id].ParentKey()
	}
	first := c.nodes[ids[0]]
	destKey := scopeOf(p.parentKey, first.Type.Catalog())
	before := append([]string(nil), c.children[destKey]...)

	for _, id := range ids {
		c.detach(id)
	}
	for i, id := range ids {
		c.attach(id, p.parentKey, p.index+i)
		n := c.nodes[id]
		if err := n.Type.ValidateParent(c.Parent(n)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIllegalMove, err)
		}
	}

	unchanged := equalIDs(before, c.children[destKey])
	for _, id := range ids {
		if oldParent[id] != p.parentKey {
			unchanged = false
		}
	}
	if unchanged {
		return &Plan{Forest: f.Clone(), NodeID: ids[0], Name: first.Name}, nil
	}

	pending := setOf(ids)
	for _, id := range ids {
		n := c.nodes[id]
		if oldParent[id] != p.parentKey {
			n.Name = UniqueName(n.Name, c.TakenNames(n.Type, p.parentKey, pending))
		}
		delete(pending, id)
	}

	changed := setOf(c.renumber(destKey))
	var patches []Patch
	for _, id := range ids {
		n := c.nodes[id]
		patches = append(patches, Patch{NodeID: id, Fields: domain.NodePatch{
			Name:   domain.StrPtr(n.Name),
			Order:  domain.IntPtr(n.Order),
			Parent: &domain.ParentChange{ID: n.ParentID},
		}})
		delete(changed, id)
	}
	for _, id := range c.children[destKey] {
		if changed[id] {
			patches = append(patches, Patch{NodeID: id, Fields: domain.NodePatch{Order: domain.IntPtr(c.nodes[id].Order)}})
		}
	}

	return &Plan{
		Forest:  c,
		Patches: patches,
		NodeID:  ids[0],
		Name:    c.nodes[ids[0]].Name,
	}, nil
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
