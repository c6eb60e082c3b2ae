package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/alexanderramin/crawl/internal/importer"
	"github.com/alexanderramin/crawl/internal/repository"
)

type importService struct {
	catalog  CatalogService
	observer UseCaseObserver
}

func NewImportService(catalog CatalogService, observers ...UseCaseObserver) ImportService {
	return &importService{catalog: catalog, observer: useCaseObserverOrNoop(observers)}
}

func (s *importService) ImportFile(ctx context.Context, path, parentID string) (*ImportResult, error) {
	doc, err := importer.LoadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.Import(ctx, doc, parentID)
}

// Import grafts the document's nodes under parentID ("" for the root) as a
// single catalog operation.
func (s *importService) Import(ctx context.Context, doc *importer.Document, parentID string) (result *ImportResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"parent": parentID}
	defer func() {
		if result != nil {
			fields["nodes"] = result.NodeCount
		}
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "catalog.import",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	var parentType domain.NodeType
	if parentID != "" {
		parent, ok := s.catalog.Forest().Node(parentID)
		if !ok {
			return nil, fmt.Errorf("import parent %s: %w", parentID, repository.ErrNotFound)
		}
		parentType = parent.Type
	}
	if errs := importer.ValidateDocument(doc, parentType); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	subtrees := importer.Convert(doc)
	out, err := s.catalog.Graft(ctx, parentID, subtrees)
	if err != nil {
		return nil, fmt.Errorf("grafting catalog: %w", err)
	}
	return &ImportResult{Outcome: out, NodeCount: countNodes(doc.Nodes)}, nil
}

func (s *importService) Export(ctx context.Context, w io.Writer, rootID string) error {
	nodes := s.catalog.Forest().Tree(rootID)
	if rootID != "" && nodes == nil {
		return fmt.Errorf("export root %s: %w", rootID, repository.ErrNotFound)
	}
	return importer.Encode(w, importer.FromTree(nodes))
}

func countNodes(specs []importer.NodeSpec) int {
	n := 0
	for _, spec := range specs {
		n += 1 + countNodes(spec.Children)
	}
	return n
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
