package testutil

import (
	"time"

	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/alexanderramin/crawl/internal/schedule"
	"github.com/google/uuid"
)

type NodeOption func(*domain.Node)

func WithID(id string) NodeOption {
	return func(n *domain.Node) {
		n.ID = id
	}
}

func WithParent(id string) NodeOption {
	return func(n *domain.Node) {
		n.ParentID = &id
	}
}

func WithOrder(i int) NodeOption {
	return func(n *domain.Node) {
		n.Order = i
	}
}

func WithActive(active bool) NodeOption {
	return func(n *domain.Node) {
		n.Active = active
	}
}

func WithSchedule(s *schedule.Schedule) NodeOption {
	return func(n *domain.Node) {
		n.Schedule = s
	}
}

func NewTestNode(t domain.NodeType, name string, opts ...NodeOption) *domain.Node {
	now := time.Now().UTC().Truncate(time.Millisecond)
	n := &domain.Node{
		ID:        uuid.New().String(),
		Type:      t,
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Catalog returns a small catalog with fixed ids, parents first:
//
//	News / Sport / A / {Widget, Gadget}
//	News / Sport / B / {Widget}
//	News / Weather
//	Archive / Old
//	Lower thirds / {Name strap, Title}
//	Full frames / {Map}
func Catalog() []*domain.Node {
	return []*domain.Node{
		NewTestNode(domain.TypeFolder, "News", WithID("f1"), WithOrder(0)),
		NewTestNode(domain.TypeFolder, "Archive", WithID("f2"), WithOrder(1)),
		NewTestNode(domain.TypeBucket, "Sport", WithID("b1"), WithParent("f1"), WithOrder(0)),
		NewTestNode(domain.TypeBucket, "Weather", WithID("b2"), WithParent("f1"), WithOrder(1)),
		NewTestNode(domain.TypeBucket, "Old", WithID("b3"), WithParent("f2"), WithOrder(0)),
		NewTestNode(domain.TypeItemFolder, "A", WithID("if1"), WithParent("b1"), WithOrder(0)),
		NewTestNode(domain.TypeItemFolder, "B", WithID("if2"), WithParent("b1"), WithOrder(1)),
		NewTestNode(domain.TypeItem, "Widget", WithID("i1"), WithParent("if1"), WithOrder(0)),
		NewTestNode(domain.TypeItem, "Gadget", WithID("i2"), WithParent("if1"), WithOrder(1)),
		NewTestNode(domain.TypeItem, "Widget", WithID("i3"), WithParent("if2"), WithOrder(0)),
		NewTestNode(domain.TypeTemplateFolder, "Lower thirds", WithID("tf1"), WithOrder(0)),
		NewTestNode(domain.TypeTemplateFolder, "Full frames", WithID("tf2"), WithOrder(1)),
		NewTestNode(domain.TypeTemplate, "Name strap", WithID("t1"), WithParent("tf1"), WithOrder(0)),
		NewTestNode(domain.TypeTemplate, "Title", WithID("t2"), WithParent("tf1"), WithOrder(1)),
		NewTestNode(domain.TypeTemplate, "Map", WithID("t3"), WithParent("tf2"), WithOrder(0)),
	}
}
