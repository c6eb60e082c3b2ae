package tree

import (
	"testing"

	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/alexanderramin/crawl/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detached(t domain.NodeType, name string, children ...*TreeNode) *TreeNode {
	return &TreeNode{Node: &domain.Node{Type: t, Name: name, Active: true}, Children: children}
}

func TestPlanGraft_ResolvesEveryName(t *testing.T) {
	f := catalogFixture()
	sub := detached(domain.TypeFolder, "News",
		detached(domain.TypeBucket, "Sport",
			detached(domain.TypeItem, "Widget"),
			detached(domain.TypeItem, "Widget"),
		),
	)

	plan, err := PlanGraft(f, "", []*TreeNode{sub}, sequentialIDs())
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"new-1"}, {"new-2"}, {"new-3", "new-4"}}, levelIDs(plan))
	assert.Equal(t, "new-1", plan.NodeID)
	assert.Equal(t, "News 1", plan.Name)

	bucket, _ := plan.Forest.Node("new-2")
	assert.Equal(t, "Sport 1", bucket.Name)
	var names []string
	for _, c := range plan.Forest.Children("new-2") {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Widget", "Widget 1"}, names)

	assert.Equal(t, []string{"f1", "f2", "new-1"}, rootIDs(plan.Forest, domain.CatalogContent))
	_, touched := f.Node("new-1")
	assert.False(t, touched)
}

func TestPlanGraft_UnderExistingParent(t *testing.T) {
	f := catalogFixture()
	item := detached(domain.TypeItem, "Gadget")
	item.Node.Schedule = &schedule.Schedule{}

	plan, err := PlanGraft(f, "if1", []*TreeNode{item}, sequentialIDs())
	require.NoError(t, err)

	n, _ := plan.Forest.Node("new-1")
	assert.Equal(t, "Gadget 1", n.Name)
	assert.Equal(t, 2, n.Order)
	assert.Nil(t, n.Schedule, "empty schedule is dropped")
	assert.Equal(t, "if1", n.ParentKey())
}

func TestPlanGraft_RejectsBadNesting(t *testing.T) {
	f := catalogFixture()

	_, err := PlanGraft(f, "", []*TreeNode{detached(domain.TypeItem, "Loose")}, sequentialIDs())
	assert.Error(t, err)

	_, err = PlanGraft(f, "f1", []*TreeNode{detached(domain.TypeBucket, "Ok", detached(domain.TypeFolder, "Nested"))}, sequentialIDs())
	assert.Error(t, err)

	_, err = PlanGraft(f, "missing", []*TreeNode{detached(domain.TypeBucket, "X")}, sequentialIDs())
	assert.Error(t, err)

	bad := detached(domain.TypeBucket, "Sched")
	bad.Node.Schedule = &schedule.Schedule{}
	_, err = PlanGraft(f, "f1", []*TreeNode{bad}, sequentialIDs())
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	sub := detached(domain.TypeFolder, "A", detached(domain.TypeBucket, "B", detached(domain.TypeItem, "C")), detached(domain.TypeBucket, "D"))
	assert.Equal(t, 4, Count([]*TreeNode{sub}))
	assert.Equal(t, 0, Count(nil))
}
