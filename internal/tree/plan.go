package tree

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/crawl/internal/domain"
)

// ErrIllegalMove marks a gesture that breaks the nesting rules or drops a
// node onto itself or its own subtree. Callers treat it as a no-op.
var ErrIllegalMove = errors.New("illegal move")

func illegal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalMove, fmt.Sprintf(format, args...))
}

// Patch is one partial update to persist.
type Patch struct {
	NodeID string
	Fields domain.NodePatch
}

// Plan is the pure result of a catalog operation: the forest as it looks
// afterwards and the store writes that make the store look the same.
// Inserts are grouped by depth so parents are written before children.
type Plan struct {
	Forest  *Forest
	Inserts [][]*domain.Node
	Patches []Patch
	Deletes []string

	// NodeID and Name identify the primary node and its final name.
	NodeID string
	Name   string
}

// Empty reports whether the plan writes nothing.
func (p *Plan) Empty() bool {
	return len(p.Inserts) == 0 && len(p.Patches) == 0 && len(p.Deletes) == 0
}

// Writes counts the store calls the plan needs; a batch delete counts once.
func (p *Plan) Writes() int {
	n := len(p.Patches)
	for _, level := range p.Inserts {
		n += len(level)
	}
	if len(p.Deletes) > 0 {
		n++
	}
	return n
}

// mergePatches folds patches for the same node together, later fields
// winning, keeping first-seen order.
func mergePatches(groups ...[]Patch) []Patch {
	index := make(map[string]int)
	var out []Patch
	for _, group := range groups {
		for _, p := range group {
			i, ok := index[p.NodeID]
			if !ok {
				index[p.NodeID] = len(out)
				out = append(out, p)
				continue
			}
			merged := &out[i].Fields
			if p.Fields.Name != nil {
				merged.Name = p.Fields.Name
			}
			if p.Fields.Active != nil {
				merged.Active = p.Fields.Active
			}
			if p.Fields.Order != nil {
				merged.Order = p.Fields.Order
			}
			if p.Fields.Parent != nil {
				merged.Parent = p.Fields.Parent
			}
			if p.Fields.Schedule != nil {
				merged.Schedule = p.Fields.Schedule
			}
		}
	}
	return out
}

// PlanCreate places n at the end of its parent's scope after validating
// the nesting rules and resolving its name. n.ID must be set.
func PlanCreate(f *Forest, n *domain.Node) (*Plan, error) {
	if n.ID == "" {
		return nil, errors.New("node id is required")
	}
	if _, exists := f.nodes[n.ID]; exists {
		return nil, fmt.Errorf("node %s already exists", n.ID)
	}
	if n.Name == "" {
		return nil, errors.New("node name is required")
	}
	var parent *domain.Node
	if n.ParentID != nil {
		p, ok := f.nodes[*n.ParentID]
		if !ok {
			return nil, fmt.Errorf("parent %s not found", *n.ParentID)
		}
		parent = p
	}
	if err := n.Type.ValidateParent(parent); err != nil {
		return nil, err
	}
	if n.Schedule != nil && n.Type != domain.TypeItem {
		return nil, fmt.Errorf("only items carry a schedule, not %s", n.Type)
	}

	c := f.Clone()
	created := n.Clone()
	created.Name = c.ResolveName(n.Name, n.Type, n.ParentKey())
	key := nodeScope(created)
	created.Order = c.nextOrder(key)
	c.add(created, len(c.children[key]))

	return &Plan{
		Forest:  c,
		Inserts: [][]*domain.Node{{created.Clone()}},
		NodeID:  created.ID,
		Name:    created.Name,
	}, nil
}

// PlanRename renames a node, resolving collisions in its scope. Renaming to
// the current name is an empty plan.
func PlanRename(f *Forest, id, name string) (*Plan, error) {
	n, ok := f.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s not found", id)
	}
	if name == "" {
		return nil, errors.New("node name is required")
	}
	c := f.Clone()
	if name == n.Name {
		return &Plan{Forest: c, NodeID: id, Name: n.Name}, nil
	}
	resolved := c.ResolveName(name, n.Type, n.ParentKey(), id)
	if resolved == n.Name {
		return &Plan{Forest: c, NodeID: id, Name: n.Name}, nil
	}
	c.nodes[id].Name = resolved
	return &Plan{
		Forest:  c,
		Patches: []Patch{{NodeID: id, Fields: domain.NodePatch{Name: domain.StrPtr(resolved)}}},
		NodeID:  id,
		Name:    resolved,
	}, nil
}

// PlanDelete removes a node with its whole subtree.
func PlanDelete(f *Forest, id string) (*Plan, error) {
	n, ok := f.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s not found", id)
	}
	c := f.Clone()
	return &Plan{
		Forest:  c,
		Deletes: c.removeSubtree(id),
		NodeID:  id,
		Name:    n.Name,
	}, nil
}

// PlanUpdate applies an attribute patch (active flag, schedule). Structural
// fields go through PlanRename and Relocate instead.
func PlanUpdate(f *Forest, id string, patch domain.NodePatch) (*Plan, error) {
	n, ok := f.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s not found", id)
	}
	if patch.Name != nil || patch.Parent != nil || patch.Order != nil {
		return nil, errors.New("name, parent and order change through rename and move")
	}
	if patch.Schedule != nil && n.Type != domain.TypeItem {
		return nil, fmt.Errorf("only items carry a schedule, not %s", n.Type)
	}
	c := f.Clone()
	if patch.IsZero() {
		return &Plan{Forest: c, NodeID: id, Name: n.Name}, nil
	}
	if patch.Schedule != nil && patch.Schedule.Value != nil {
		normalized := patch.Schedule.Value.Normalized()
		if normalized.IsEmpty() {
			normalized = nil
		}
		patch.Schedule = &domain.ScheduleChange{Value: normalized}
	}
	patch.Apply(c.nodes[id])
	return &Plan{
		Forest:  c,
		Patches: []Patch{{NodeID: id, Fields: patch}},
		NodeID:  id,
		Name:    n.Name,
	}, nil
}
