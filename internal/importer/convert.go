package importer

import (
	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/alexanderramin/crawl/internal/tree"
)

// Convert turns a validated document into detached subtrees ready to graft.
// Ids, orders and final names are assigned when the subtrees are grafted.
// Call ValidateDocument first; Convert assumes the document is valid.
func Convert(doc *Document) []*tree.TreeNode {
	out := make([]*tree.TreeNode, 0, len(doc.Nodes))
	for i := range doc.Nodes {
		out = append(out, convertNode(&doc.Nodes[i]))
	}
	return out
}

func convertNode(spec *NodeSpec) *tree.TreeNode {
	n := &domain.Node{
		Type:   domain.NodeType(spec.Type),
		Name:   spec.Name,
		Active: spec.Active == nil || *spec.Active,
	}
	if spec.Schedule != nil {
		if s := spec.Schedule.Schedule(); !s.IsEmpty() {
			n.Schedule = s
		}
	}
	tn := &tree.TreeNode{Node: n}
	for i := range spec.Children {
		tn.Children = append(tn.Children, convertNode(&spec.Children[i]))
	}
	return tn
}

// FromTree builds a document from nested catalog nodes, the inverse of
// Convert up to ids and orders.
func FromTree(nodes []*tree.TreeNode) *Document {
	doc := &Document{Nodes: make([]NodeSpec, 0, len(nodes))}
	for _, tn := range nodes {
		doc.Nodes = append(doc.Nodes, fromTreeNode(tn))
	}
	return doc
}

func fromTreeNode(tn *tree.TreeNode) NodeSpec {
	spec := NodeSpec{Type: string(tn.Node.Type), Name: tn.Node.Name}
	if !tn.Node.Active {
		spec.Active = domain.BoolPtr(false)
	}
	if tn.Node.Schedule != nil && !tn.Node.Schedule.IsEmpty() {
		w := tn.Node.Schedule.Wire()
		spec.Schedule = &w
	}
	for _, child := range tn.Children {
		spec.Children = append(spec.Children, fromTreeNode(child))
	}
	return spec
}
