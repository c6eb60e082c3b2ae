package importer

import (
	"fmt"

	"github.com/alexanderramin/crawl/internal/domain"
)

// ValidateDocument checks a document before conversion, assuming its top
// nodes go under a parent of type parent ("" for the root). It returns every
// problem found, each prefixed with the node's path in the document.
func ValidateDocument(doc *Document, parent domain.NodeType) []error {
	var errs []error
	if len(doc.Nodes) == 0 {
		return []error{fmt.Errorf("nodes: at least one node is required")}
	}
	for i := range doc.Nodes {
		errs = append(errs, validateNode(&doc.Nodes[i], fmt.Sprintf("nodes[%d]", i), parent)...)
	}
	return errs
}

func validateNode(n *NodeSpec, path string, parent domain.NodeType) []error {
	var errs []error

	if n.Name == "" {
		errs = append(errs, fmt.Errorf("%s.name is required", path))
	}
	t, err := domain.ParseNodeType(n.Type)
	if err != nil {
		// Children cannot be checked against an unknown type.
		return append(errs, fmt.Errorf("%s.type: %w", path, err))
	}
	switch {
	case parent == "" && !t.RootOnly():
		errs = append(errs, fmt.Errorf("%s: %s cannot live at the root", path, t))
	case parent != "" && !t.CanBeChildOf(parent):
		errs = append(errs, fmt.Errorf("%s: %s cannot live under %s", path, t, parent))
	}
	if n.Schedule != nil && t != domain.TypeItem {
		errs = append(errs, fmt.Errorf("%s.schedule: only items carry a schedule", path))
	}
	if n.Schedule != nil && len(n.Schedule.DaysOfWeek) > 7 {
		errs = append(errs, fmt.Errorf("%s.schedule.daysOfWeek: expected 7 entries, got %d", path, len(n.Schedule.DaysOfWeek)))
	}

	for i := range n.Children {
		errs = append(errs, validateNode(&n.Children[i], fmt.Sprintf("%s.children[%d]", path, i), t)...)
	}
	return errs
}
