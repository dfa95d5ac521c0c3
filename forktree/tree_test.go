package forktree_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/duniter/dunicore/forktree"
	"github.com/duniter/dunicore/ids"
	"github.com/duniter/dunicore/metrics"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func bs(n ids.BlockNumber, tag byte) ids.Blockstamp {
	var h ids.BlockHash
	h[0] = tag
	h[1] = byte(n)
	return ids.Blockstamp{Number: n, Hash: h}
}

func insertMainChain(t *testing.T, tree *forktree.Tree, upTo ids.BlockNumber) []ids.NodeID {
	t.Helper()
	var ids_ []ids.NodeID
	var parent *ids.NodeID
	for h := ids.BlockNumber(0); h <= upTo; h++ {
		id, err := tree.Insert(bs(h, 0), parent, true)
		require.NoError(t, err)
		ids_ = append(ids_, id)
		p := id
		parent = &p
	}
	return ids_
}

func TestMainBranchWindowBound(t *testing.T) {
	const maxDepth = 5
	tree := forktree.New(maxDepth)
	insertMainChain(t, tree, 20)
	require.LessOrEqual(t, tree.MainBranchLen(), maxDepth)
}

func TestPruningAdvancesRoot(t *testing.T) {
	const maxDepth = 5
	const k = 3
	tree := forktree.New(maxDepth)
	insertMainChain(t, tree, maxDepth+k-1)

	root, ok := tree.Root()
	require.True(t, ok)
	rootBS, ok := tree.Blockstamp(root)
	require.True(t, ok)
	require.Equal(t, ids.BlockNumber(k), rootBS.Number)

	removed := tree.RemovedBlockstamps()
	require.Len(t, removed, k)
	for i, r := range removed {
		require.Equal(t, ids.BlockNumber(i), r.Number)
	}
}

func TestForkBranchScenario(t *testing.T) {
	tree := forktree.New(100)
	mainIDs := insertMainChain(t, tree, 9)

	parent5 := mainIDs[5]
	forkID, err := tree.Insert(bs(6, 0xFF), &parent5, false)
	require.NoError(t, err)

	require.Len(t, tree.GetSheets(), 2)

	branch := tree.GetForkBranch(forkID)
	require.Equal(t, []ids.NodeID{forkID}, branch)
}

func TestChangeMainBranch(t *testing.T) {
	tree := forktree.New(100)
	mainIDs := insertMainChain(t, tree, 9)

	parent5 := mainIDs[5]
	fork6, err := tree.Insert(bs(6, 0xFF), &parent5, false)
	require.NoError(t, err)
	fork7, err := tree.Insert(bs(7, 0xFF), &fork6, false)
	require.NoError(t, err)

	err = tree.ChangeMainBranch(mainIDs[9], fork7)
	require.NoError(t, err)

	id6, ok := tree.MainBranchAt(6)
	require.True(t, ok)
	require.Equal(t, fork6, id6)
	id7, ok := tree.MainBranchAt(7)
	require.True(t, ok)
	require.Equal(t, fork7, id7)

	// Heights 8 and 9, which only existed on the old branch, must be gone.
	_, ok = tree.MainBranchAt(8)
	require.False(t, ok)
	_, ok = tree.MainBranchAt(9)
	require.False(t, ok)
}

func TestInsertMissingParentIsError(t *testing.T) {
	tree := forktree.New(10)
	bogus := ids.NodeID(999)
	_, err := tree.Insert(bs(1, 0), &bogus, false)
	require.ErrorIs(t, err, forktree.ErrMissingParent)
}

func TestInsertDuplicateBlockstamp(t *testing.T) {
	tree := forktree.New(10)
	root, err := tree.Insert(bs(0, 0), nil, true)
	require.NoError(t, err)

	// Re-inserting with the same (nil) parent is idempotent.
	again, err := tree.Insert(bs(0, 0), nil, true)
	require.NoError(t, err)
	require.Equal(t, root, again)

	child, err := tree.Insert(bs(1, 0), &root, true)
	require.NoError(t, err)

	// Re-inserting the same blockstamp under a different parent conflicts.
	_, err = tree.Insert(bs(1, 0), &child, false)
	require.ErrorIs(t, err, forktree.ErrDuplicateConflictingBlockstamp)
}

func TestMetricsTrackDepthAndPrunes(t *testing.T) {
	const maxDepth = 5
	m := metrics.New(prometheus.NewRegistry())
	tree := forktree.New(maxDepth).SetMetrics(m)

	insertMainChain(t, tree, 20)

	require.Equal(t, float64(tree.MainBranchLen()), gaugeValue(t, m.ForkTreeDepth))
	require.Greater(t, counterValue(t, m.ForkTreePrunes), float64(0))
}
