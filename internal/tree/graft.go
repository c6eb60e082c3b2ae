package tree

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/crawl/internal/domain"
)

// PlanGraft attaches detached subtrees under parentID ("" for the root),
// appending each top node to its scope. Every node gets a fresh id and a
// name resolved in its destination scope, so duplicates inside the grafted
// material are renamed too. Ids on the input nodes are ignored.
func PlanGraft(f *Forest, parentID string, subtrees []*TreeNode, newID func() string) (*Plan, error) {
	var parent *domain.Node
	if parentID != "" {
		p, ok := f.nodes[parentID]
		if !ok {
			return nil, fmt.Errorf("parent %s not found", parentID)
		}
		parent = p
	}

	c := f.Clone()
	plan := &Plan{Forest: c}
	var graft func(tn *TreeNode, parent *domain.Node, depth int) error
	graft = func(tn *TreeNode, parent *domain.Node, depth int) error {
		if tn == nil || tn.Node == nil {
			return errors.New("empty node in graft")
		}
		if tn.Node.Name == "" {
			return fmt.Errorf("%s without a name", tn.Node.Type)
		}
		if err := tn.Node.Type.ValidateParent(parent); err != nil {
			return err
		}
		if tn.Node.Schedule != nil && tn.Node.Type != domain.TypeItem {
			return fmt.Errorf("%s %q: only items carry a schedule", tn.Node.Type, tn.Node.Name)
		}

		n := tn.Node.Clone()
		n.ID = newID()
		n.ParentID = nil
		parentKey := ""
		if parent != nil {
			parentKey = parent.ID
			n.ParentID = domain.StrPtr(parent.ID)
		}
		if n.Schedule != nil {
			n.Schedule = n.Schedule.Normalized()
			if n.Schedule.IsEmpty() {
				n.Schedule = nil
			}
		}
		n.Name = c.ResolveName(n.Name, n.Type, parentKey)
		key := nodeScope(n)
		n.Order = c.nextOrder(key)
		c.add(n, len(c.children[key]))

		for len(plan.Inserts) <= depth {
			plan.Inserts = append(plan.Inserts, nil)
		}
		plan.Inserts[depth] = append(plan.Inserts[depth], n.Clone())
		if plan.NodeID == "" {
			plan.NodeID, plan.Name = n.ID, n.Name
		}
		for _, child := range tn.Children {
			if err := graft(child, n, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, tn := range subtrees {
		if err := graft(tn, parent, 0); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// Count returns the number of nodes in the given subtrees.
func Count(subtrees []*TreeNode) int {
	n := 0
	for _, tn := range subtrees {
		n += 1 + Count(tn.Children)
	}
	return n
}
