package domain

import (
	"time"

	"github.com/alexanderramin/crawl/internal/schedule"
)

// Node is one entry of the content hierarchy or the template catalog.
type Node struct {
	ID        string
	Type      NodeType
	Name      string
	Active    bool
	ParentID  *string
	Order     int
	Schedule  *schedule.Schedule // items only
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy of n that shares no pointers with it.
func (n *Node) Clone() *Node {
	c := *n
	if n.ParentID != nil {
		pid := *n.ParentID
		c.ParentID = &pid
	}
	if n.Schedule != nil {
		c.Schedule = n.Schedule.Normalized()
	}
	return &c
}

// ParentKey returns the parent id, or "" for root nodes.
func (n *Node) ParentKey() string {
	if n.ParentID == nil {
		return ""
	}
	return *n.ParentID
}

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// ParentChange moves a node. A nil ID moves it to the root.
type ParentChange struct {
	ID *string
}

// ScheduleChange replaces a schedule wholesale. A nil Value clears it.
type ScheduleChange struct {
	Value *schedule.Schedule
}

// NodePatch is a partial update. Nil fields are left unchanged.
type NodePatch struct {
	Name     *string
	Active   *bool
	Order    *int
	Parent   *ParentChange
	Schedule *ScheduleChange
}

// Apply writes the set fields of p onto n.
func (p NodePatch) Apply(n *Node) {
	if p.Name != nil {
		n.Name = *p.Name
	}
	if p.Active != nil {
		n.Active = *p.Active
	}
	if p.Order != nil {
		n.Order = *p.Order
	}
	if p.Parent != nil {
		if p.Parent.ID == nil {
			n.ParentID = nil
		} else {
			pid := *p.Parent.ID
			n.ParentID = &pid
		}
	}
	if p.Schedule != nil {
		n.Schedule = p.Schedule.Value
	}
}

// IsZero reports whether the patch changes nothing.
func (p NodePatch) IsZero() bool {
	return p.Name == nil && p.Active == nil && p.Order == nil && p.Parent == nil && p.Schedule == nil
}

// StrPtr, IntPtr and BoolPtr are helpers for building patches.
func StrPtr(s string) *string { return &s }
func IntPtr(i int) *int       { return &i }
func BoolPtr(b bool) *bool    { return &b }

// LiveAt reports whether n is switched on and its schedule admits now.
// Ancestors are not consulted.
func (n *Node) LiveAt(now time.Time) bool {
	return n.Active && schedule.IsActive(n.Schedule, now)
}
