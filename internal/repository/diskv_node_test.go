package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/crawl/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskvNodeStore_Contract(t *testing.T) {
	runNodeStoreContract(t, func(t *testing.T) NodeStore {
		return NewDiskvNodeStore(t.TempDir(), nil)
	})
}

func TestDiskvNodeStore_ShardsFilesByIDPrefix(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskvNodeStore(dir, nil)
	require.NoError(t, s.Insert(context.Background(), testutil.Catalog()[0]))

	_, err := os.Stat(filepath.Join(dir, "nodes", "f1", "f1.json"))
	assert.NoError(t, err)
}

func TestDiskvNodeStore_SkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskvNodeStore(dir, nil)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, testutil.Catalog()[0]))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nodes", "zz"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nodes", "zz", "zzz.json"), []byte("{broken"), 0o644))

	nodes, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, ids(nodes))
}

func TestDiskvNodeStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	for _, n := range testutil.Catalog() {
		require.NoError(t, NewDiskvNodeStore(dir, nil).Insert(ctx, n))
	}

	nodes, err := NewDiskvNodeStore(dir, nil).FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, len(testutil.Catalog()))
}
