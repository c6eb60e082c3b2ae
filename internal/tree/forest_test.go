package tree

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, t domain.NodeType, name, parent string, order int) *domain.Node {
	n := &domain.Node{ID: id, Type: t, Name: name, Order: order, Active: true}
	if parent != "" {
		n.ParentID = domain.StrPtr(parent)
	}
	return n
}

// catalogFixture:
//
//	News/            (f1)
//	  Sport/         (b1)
//	    A/           (if1)  Widget (i1), Gadget (i2)
//	    B/           (if2)  Widget (i3)
//	  Weather/       (b2)
//	Archive/         (f2)
//	  Old/           (b3)   Relic (i4)
//	Lower thirds/    (tf1)  Name strap (t1), Title (t2)
//	Full frames/     (tf2)  Map (t3)
//	Stings/          (tf3)  Intro (t4)
func catalogFixture() *Forest {
	return BuildTree([]*domain.Node{
		node("f1", domain.TypeFolder, "News", "", 0),
		node("b1", domain.TypeBucket, "Sport", "f1", 0),
		node("if1", domain.TypeItemFolder, "A", "b1", 0),
		node("i1", domain.TypeItem, "Widget", "if1", 0),
		node("i2", domain.TypeItem, "Gadget", "if1", 1),
		node("if2", domain.TypeItemFolder, "B", "b1", 1),
		node("i3", domain.TypeItem, "Widget", "if2", 0),
		node("b2", domain.TypeBucket, "Weather", "f1", 1),
		node("f2", domain.TypeFolder, "Archive", "", 1),
		node("b3", domain.TypeBucket, "Old", "f2", 0),
		node("i4", domain.TypeItem, "Relic", "b3", 0),
		node("tf1", domain.TypeTemplateFolder, "Lower thirds", "", 0),
		node("t1", domain.TypeTemplate, "Name strap", "tf1", 0),
		node("t2", domain.TypeTemplate, "Title", "tf1", 1),
		node("tf2", domain.TypeTemplateFolder, "Full frames", "", 1),
		node("t3", domain.TypeTemplate, "Map", "tf2", 0),
		node("tf3", domain.TypeTemplateFolder, "Stings", "", 2),
		node("t4", domain.TypeTemplate, "Intro", "tf3", 0),
	})
}

func childIDs(f *Forest, id string) []string {
	var out []string
	for _, n := range f.Children(id) {
		out = append(out, n.ID)
	}
	return out
}

func rootIDs(f *Forest, c domain.Catalog) []string {
	var out []string
	for _, n := range f.Roots(c) {
		out = append(out, n.ID)
	}
	return out
}

func TestBuildTree_SortsSiblingsByOrderThenName(t *testing.T) {
	f := BuildTree([]*domain.Node{
		node("c", domain.TypeTemplate, "Charlie", "tf", 1),
		node("b", domain.TypeTemplate, "Bravo", "tf", 0),
		node("a", domain.TypeTemplate, "Alpha", "tf", 1),
		node("tf", domain.TypeTemplateFolder, "Folder", "", 0),
	})

	assert.Equal(t, []string{"b", "a", "c"}, childIDs(f, "tf"))
	assert.Equal(t, []string{"tf"}, rootIDs(f, domain.CatalogTemplates))
	assert.Empty(t, f.Roots(domain.CatalogContent))
}

func TestBuildTree_KeepsOrphansOutOfTheTree(t *testing.T) {
	f := BuildTree([]*domain.Node{
		node("f1", domain.TypeFolder, "News", "", 0),
		node("b9", domain.TypeBucket, "Lost", "missing", 0),
	})

	assert.Equal(t, []string{"b9"}, f.Orphans())
	assert.Equal(t, 2, f.Len())
	assert.Len(t, FlattenWithPaths(f), 1)
}

func TestBuildTree_DoesNotAliasInput(t *testing.T) {
	in := node("f1", domain.TypeFolder, "News", "", 0)
	f := BuildTree([]*domain.Node{in})
	in.Name = "Changed"

	n, ok := f.Node("f1")
	require.True(t, ok)
	assert.Equal(t, "News", n.Name)
}

func TestFlattenWithPaths_DisplayPathsAndDepth(t *testing.T) {
	rows := FlattenWithPaths(catalogFixture())

	require.Len(t, rows, 18)
	assert.Equal(t, "News", rows[0].DisplayPath)
	assert.Equal(t, 0, rows[0].Depth)
	assert.True(t, rows[0].HasChildren)

	r, ok := FindByDisplayPath(rows, "News / Sport / A / Gadget")
	require.True(t, ok)
	assert.Equal(t, "i2", r.Node.ID)
	assert.Equal(t, []string{"f1", "b1", "if1", "i2"}, r.Path)
	assert.Equal(t, 3, r.Depth)
	assert.False(t, r.HasChildren)

	// Content catalog first, templates after.
	assert.Equal(t, "tf1", rows[11].Node.ID)
}

func TestAncestorsAndDescendants(t *testing.T) {
	f := catalogFixture()

	var chain []string
	for _, a := range f.Ancestors("i3") {
		chain = append(chain, a.ID)
	}
	assert.Equal(t, []string{"if2", "b1", "f1"}, chain)
	assert.True(t, f.IsDescendant("i3", "f1"))
	assert.False(t, f.IsDescendant("f1", "i3"))
	assert.False(t, f.IsDescendant("i3", "i3"))

	var sub []string
	for _, n := range f.Subtree("b1") {
		sub = append(sub, n.ID)
	}
	assert.Equal(t, []string{"b1", "if1", "i1", "i2", "if2", "i3"}, sub)
}

func TestClone_IsIndependent(t *testing.T) {
	f := catalogFixture()
	c := f.Clone()
	c.detach("i1")
	c.nodes["i2"].Name = "Changed"

	assert.Equal(t, []string{"i1", "i2"}, childIDs(f, "if1"))
	n, _ := f.Node("i2")
	assert.Equal(t, "Gadget", n.Name)
}

// randomCatalog builds a valid random catalog. Orders collide on purpose so
// the name/id tie-breaks are exercised.
func randomCatalog(rng *rand.Rand, size int) []*domain.Node {
	types := []domain.NodeType{
		domain.TypeFolder, domain.TypeBucket, domain.TypeItemFolder, domain.TypeItem,
		domain.TypeTemplateFolder, domain.TypeTemplate,
	}
	names := []string{"Alpha", "Bravo", "Charlie", "Delta"}
	var nodes []*domain.Node
	for i := 0; i < size; i++ {
		t := types[rng.Intn(len(types))]
		parent := ""
		if !t.RootOnly() {
			var candidates []string
			for _, p := range nodes {
				if t.CanBeChildOf(p.Type) {
					candidates = append(candidates, p.ID)
				}
			}
			if len(candidates) == 0 {
				continue
			}
			parent = candidates[rng.Intn(len(candidates))]
		}
		nodes = append(nodes, node(fmt.Sprintf("n%03d", i), t, names[rng.Intn(len(names))], parent, rng.Intn(4)))
	}
	return nodes
}

// TestFlattenThenBuild_IsIdempotent property-tests that rebuilding a tree
// from its flattened form reproduces the same structure.
func TestFlattenThenBuild_IsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		nodes := randomCatalog(rng, rng.Intn(40)+1)
		f := BuildTree(nodes)
		rows := FlattenWithPaths(f)

		assert.Len(t, rows, len(nodes), "trial %d: every node is reachable", trial)
		rebuilt := BuildTree(ToFlat(rows))
		assert.Equal(t, Signature(f), Signature(rebuilt), "trial %d", trial)
		assert.True(t, SameStructure(f, rebuilt), "trial %d", trial)
	}
}

func TestSameStructure_DetectsDrift(t *testing.T) {
	a := catalogFixture()
	b := catalogFixture()
	assert.True(t, SameStructure(a, b))

	b.nodes["i2"].Active = false
	assert.False(t, SameStructure(a, b))

	c := catalogFixture()
	c.nodes["t1"].Name = "Other"
	assert.False(t, SameStructure(a, c))
}
