package service

import (
	"context"
	"io"
	"time"

	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/alexanderramin/crawl/internal/importer"
	"github.com/alexanderramin/crawl/internal/schedule"
	"github.com/alexanderramin/crawl/internal/tree"
)

// Outcome reports what a mutating catalog operation did.
type Outcome struct {
	// Applied is true when the operation changed the catalog.
	Applied bool
	// Reconciled is true when the optimistic state was replaced by a fresh
	// read of the store, after a failed write or a structural mismatch.
	Reconciled bool
	NodeID     string
	Name       string
	// Reason explains a rejected gesture. The catalog is unchanged.
	Reason string
	// PersistErr is the write failure that forced reconciliation, if any.
	PersistErr error
	Warnings   []string
}

// CatalogService is the reconciliation controller: it plans every
// operation against the in-memory forest, shows the result at once, writes
// it to the store and falls back to the store's state when the two differ.
type CatalogService interface {
	Load(ctx context.Context) error
	// Refresh rereads the store and reports whether the structure changed.
	Refresh(ctx context.Context) (bool, error)
	// ExternalChange handles a change notification from outside this
	// process. Notifications arriving while a local operation is running, or
	// within the debounce window after one, are ignored.
	ExternalChange(ctx context.Context) (bool, error)

	Forest() *tree.Forest
	Rows() []tree.Row
	VisibleRows(now time.Time, hideInactive bool) []tree.Row

	Create(ctx context.Context, n *domain.Node) (Outcome, error)
	Rename(ctx context.Context, id, name string) (Outcome, error)
	SetActive(ctx context.Context, id string, active bool) (Outcome, error)
	SetSchedule(ctx context.Context, id string, s *schedule.Schedule) (Outcome, error)
	Delete(ctx context.Context, id string) (Outcome, error)
	Move(ctx context.Context, id, overID string, pos tree.Position) (Outcome, error)
	MoveMany(ctx context.Context, ids []string, overID string, pos tree.Position) (Outcome, error)
	Graft(ctx context.Context, parentID string, subtrees []*tree.TreeNode) (Outcome, error)

	Copy(id string) error
	Cut(id string) error
	Clipboard() (tree.Clipboard, bool)
	ClearClipboard()
	// Paste rebuilds the clipboard subtree under target ("" for the root).
	// A successful cut-paste empties the clipboard.
	Paste(ctx context.Context, target string) (Outcome, error)
}

// ImportResult holds the outcome of a catalog import.
type ImportResult struct {
	Outcome
	NodeCount int
}

type ImportService interface {
	ImportFile(ctx context.Context, path, parentID string) (*ImportResult, error)
	Import(ctx context.Context, doc *importer.Document, parentID string) (*ImportResult, error)
	// Export writes the subtree at rootID, or the whole catalog when rootID
	// is empty, as YAML.
	Export(ctx context.Context, w io.Writer, rootID string) error
}
