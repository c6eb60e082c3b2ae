package domain

import "fmt"

type typeRule struct {
	catalog Catalog
	// parents lists the allowed parent types; rootOnly types have none.
	parents  []NodeType
	rootOnly bool
	scope    NameScope
}

var typeRules = map[NodeType]typeRule{
	TypeFolder:         {catalog: CatalogContent, rootOnly: true, scope: ScopeRoot},
	TypeBucket:         {catalog: CatalogContent, parents: []NodeType{TypeFolder}, scope: ScopeGlobal},
	TypeItemFolder:     {catalog: CatalogContent, parents: []NodeType{TypeBucket, TypeItemFolder}},
	TypeItem:           {catalog: CatalogContent, parents: []NodeType{TypeItemFolder, TypeBucket}},
	TypeTemplateFolder: {catalog: CatalogTemplates, rootOnly: true, scope: ScopeRoot},
	TypeTemplate:       {catalog: CatalogTemplates, parents: []NodeType{TypeTemplateFolder}},
}

// ParseNodeType validates s against the closed type set.
func ParseNodeType(s string) (NodeType, error) {
	if !ValidNodeTypes[s] {
		return "", fmt.Errorf("unknown node type %q (folder|bucket|itemFolder|item|templateFolder|template)", s)
	}
	return NodeType(s), nil
}

// Valid reports whether t belongs to the closed type set.
func (t NodeType) Valid() bool {
	_, ok := typeRules[t]
	return ok
}

// Catalog returns the catalog t belongs to.
func (t NodeType) Catalog() Catalog {
	return typeRules[t].catalog
}

// RootOnly reports whether nodes of type t always live at the root.
func (t NodeType) RootOnly() bool {
	return typeRules[t].rootOnly
}

// NameScope returns where names of type t must be unique.
func (t NodeType) NameScope() NameScope {
	return typeRules[t].scope
}

// CanBeChildOf reports whether a node of type t may live under a parent of
// type parent.
func (t NodeType) CanBeChildOf(parent NodeType) bool {
	for _, p := range typeRules[t].parents {
		if p == parent {
			return true
		}
	}
	return false
}

// IsContainer reports whether t can hold children of any type.
func (t NodeType) IsContainer() bool {
	for _, rule := range typeRules {
		for _, p := range rule.parents {
			if p == t {
				return true
			}
		}
	}
	return false
}

// ValidateParent checks the allowed-parent invariant for a node of type t
// placed under parent (nil means root).
func (t NodeType) ValidateParent(parent *Node) error {
	if !t.Valid() {
		return fmt.Errorf("unknown node type %q", t)
	}
	if parent == nil {
		if t.RootOnly() {
			return nil
		}
		return fmt.Errorf("%s cannot live at the root", t)
	}
	if !t.CanBeChildOf(parent.Type) {
		return fmt.Errorf("%s cannot live under %s %q", t, parent.Type, parent.Name)
	}
	return nil
}
