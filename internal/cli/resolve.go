package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/crawl/internal/repository"
	"github.com/alexanderramin/crawl/internal/tree"
)

// resolveRef resolves a node reference which can be:
//   - A full node id
//   - A display path ("News / Sport"); spacing around "/" is optional
//   - A unique id prefix
func resolveRef(app *App, ref string) (tree.Row, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return tree.Row{}, fmt.Errorf("empty node reference")
	}
	rows := app.Catalog.Rows()

	for _, r := range rows {
		if r.Node.ID == ref {
			return r, nil
		}
	}

	path := normalizePath(ref)
	var byPath []tree.Row
	for _, r := range rows {
		if r.DisplayPath == path {
			byPath = append(byPath, r)
		}
	}
	switch len(byPath) {
	case 1:
		return byPath[0], nil
	case 0:
	default:
		return tree.Row{}, ambiguous(ref, byPath)
	}

	var byPrefix []tree.Row
	for _, r := range rows {
		if strings.HasPrefix(r.Node.ID, ref) {
			byPrefix = append(byPrefix, r)
		}
	}
	switch len(byPrefix) {
	case 1:
		return byPrefix[0], nil
	case 0:
		return tree.Row{}, fmt.Errorf("no node matches %q: %w", ref, repository.ErrNotFound)
	default:
		return tree.Row{}, ambiguous(ref, byPrefix)
	}
}

// resolveOptionalRef resolves ref, or returns "" when ref is empty.
func resolveOptionalRef(app *App, ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", nil
	}
	row, err := resolveRef(app, ref)
	if err != nil {
		return "", err
	}
	return row.Node.ID, nil
}

func normalizePath(ref string) string {
	parts := strings.Split(ref, "/")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, tree.PathSeparator)
}

func ambiguous(ref string, rows []tree.Row) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%q is ambiguous; matches:", ref)
	for _, r := range rows {
		fmt.Fprintf(&b, "\n  %s  %s", r.Node.ID, r.DisplayPath)
	}
	return errors.New(b.String())
}
