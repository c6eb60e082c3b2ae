package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/crawl/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrParentMissing = errors.New("parent not found")
	ErrDuplicate     = errors.New("already exists")
)

// NodeStore is the persistence contract behind the catalog. Writes are
// independent: callers may issue them concurrently, except that a child is
// only inserted after its parent.
type NodeStore interface {
	FetchAll(ctx context.Context) ([]*domain.Node, error)
	Get(ctx context.Context, id string) (*domain.Node, error)
	Insert(ctx context.Context, n *domain.Node) error
	Update(ctx context.Context, id string, patch domain.NodePatch) error
	// Delete removes a node and, by cascade, its subtree.
	Delete(ctx context.Context, id string) error
	// DeleteBatch removes several subtrees. Ids already gone, for example
	// through an ancestor in the same batch, are skipped.
	DeleteBatch(ctx context.Context, ids []string) error
}

// RevisionSource is implemented by stores that keep a write counter bumped
// by every writer, so other processes' edits can be detected by polling.
type RevisionSource interface {
	Revision(ctx context.Context) (int64, error)
}
