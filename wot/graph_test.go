package wot_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duniter/dunicore/ids"
	"github.com/duniter/dunicore/wot"
)

func addNodes(g *wot.Graph, n int) []ids.NodeID {
	out := make([]ids.NodeID, n)
	for i := 0; i < n; i++ {
		out[i] = g.AddNode()
	}
	return out
}

func TestAddLinkSelfForbidden(t *testing.T) {
	g := wot.New(3)
	n := addNodes(g, 1)
	_, err := g.AddLink(n[0], n[0])
	require.ErrorIs(t, err, wot.ErrSelfLinkingForbidden)
}

func TestAddLinkUnknownNodes(t *testing.T) {
	g := wot.New(3)
	n := addNodes(g, 1)
	_, err := g.AddLink(n[0], ids.NodeID(99))
	require.ErrorIs(t, err, wot.ErrUnknownTarget)
	_, err = g.AddLink(ids.NodeID(99), n[0])
	require.ErrorIs(t, err, wot.ErrUnknownSource)
}

func TestAddLinkAllCertificationsUsed(t *testing.T) {
	g := wot.New(3)
	n := addNodes(g, 5)
	for i := 1; i <= 3; i++ {
		_, err := g.AddLink(n[0], n[i])
		require.NoError(t, err)
	}
	_, err := g.AddLink(n[0], n[4])
	require.ErrorIs(t, err, wot.ErrAllCertificationsUsed)

	// Raising the quota unblocks the previously refused link.
	g.SetMaxCert(4)
	indeg, err := g.AddLink(n[0], n[4])
	require.NoError(t, err)
	require.Equal(t, 1, indeg)
	linked, err := g.HasLink(n[0], n[4])
	require.NoError(t, err)
	require.True(t, linked)
}

// TestWotScenario reproduces the twelve-node web-of-trust build-up used to
// validate the sentry and distance-rule computations: nodes are added in
// stages, links are formed and partially revoked, and the sentry /
// path / distance results are checked at each step.
func TestWotScenario(t *testing.T) {
	g := wot.New(3)
	n := addNodes(g, 3)

	indeg, err := g.AddLink(n[2], n[0])
	require.NoError(t, err)
	require.Equal(t, 1, indeg)

	n = append(n, addNodes(g, 2)...) // nodes 3, 4

	indeg, err = g.AddLink(n[4], n[0])
	require.NoError(t, err)
	require.Equal(t, 2, indeg)

	_, err = g.AddLink(n[4], n[0])
	require.ErrorIs(t, err, wot.ErrAlreadyCertified)

	n = append(n, addNodes(g, 1)...) // node 5

	indeg, err = g.AddLink(n[5], n[0])
	require.NoError(t, err)
	require.Equal(t, 3, indeg)

	// WoT is: 2->0, 4->0, 5->0. Remove 4->0.
	indeg, err = g.RemLink(n[4], n[0])
	require.NoError(t, err)
	require.Equal(t, 2, indeg)

	// WoT is now: 2->0, 5->0.
	require.False(t, g.IsOutdistanced(n[0], 1, 1, 1.0)) // 2,5 have certified him
	require.False(t, g.IsOutdistanced(n[0], 2, 1, 1.0)) // no member has 2 issued certs yet
	require.False(t, g.IsOutdistanced(n[0], 3, 1, 1.0)) // no member has issued 3 certs

	n = append(n, addNodes(g, 6)...) // nodes 6..11, bringing the WoT to 12 nodes

	_, err = g.AddLink(n[3], n[1])
	require.NoError(t, err)
	_, err = g.AddLink(n[3], n[2])
	require.NoError(t, err)

	// WoT is now: 2->0, 5->0, 3->1, 3->2.
	require.Equal(t, []ids.NodeID{n[2]}, g.GetSentries(1))
	require.Empty(t, g.GetSentries(2))
	require.Empty(t, g.GetSentries(3))

	paths1 := g.GetPaths(n[3], n[0], 1)
	require.Empty(t, paths1)
	paths2 := g.GetPaths(n[3], n[0], 2)
	require.Len(t, paths2, 1)
	require.Equal(t, []ids.NodeID{n[3], n[2], n[0]}, paths2[0])

	require.False(t, g.IsOutdistanced(n[0], 1, 1, 1.0))
	require.False(t, g.IsOutdistanced(n[0], 2, 1, 1.0))
	require.False(t, g.IsOutdistanced(n[0], 3, 1, 1.0))
	require.False(t, g.IsOutdistanced(n[0], 2, 2, 1.0))

	_, err = g.AddLink(n[1], n[3])
	require.NoError(t, err)
	_, err = g.AddLink(n[2], n[3])
	require.NoError(t, err)

	// WoT is now: 2->0, 5->0, 3->1, 3->2, 1->3, 2->3.
	require.Equal(t, []ids.NodeID{n[1], n[2], n[3]}, g.GetSentries(1))
	require.Equal(t, []ids.NodeID{n[3]}, g.GetSentries(2))
	require.Empty(t, g.GetSentries(3))

	paths1 = g.GetPaths(n[3], n[0], 1)
	require.Empty(t, paths1)
	paths2 = g.GetPaths(n[3], n[0], 2)
	require.Len(t, paths2, 1)
	require.Equal(t, []ids.NodeID{n[3], n[2], n[0]}, paths2[0])

	require.True(t, g.IsOutdistanced(n[0], 1, 1, 1.0))  // sentry 1 has no path to 0 within 1 hop
	require.True(t, g.IsOutdistanced(n[0], 2, 1, 1.0))  // sentry 3 has no path to 0 within 1 hop
	require.False(t, g.IsOutdistanced(n[0], 3, 1, 1.0)) // no sentries at requirement 3
	require.False(t, g.IsOutdistanced(n[0], 2, 2, 1.0)) // sentry 3 reaches 0 via 3->2->0

	require.Equal(t, 12, g.NodesCount())

	removedID, ok := g.RemNode()
	require.True(t, ok)
	require.Equal(t, n[11], removedID)

	prev, ok := g.SetEnabled(n[3], false)
	require.True(t, ok)
	require.True(t, prev)

	require.False(t, g.IsOutdistanced(n[0], 2, 1, 1.0)) // node 3, the only sentry-2, is disabled
}

func TestHasLink(t *testing.T) {
	g := wot.New(3)
	n := addNodes(g, 2)
	ok, err := g.HasLink(n[0], n[1])
	require.NoError(t, err)
	require.False(t, ok)

	_, err = g.AddLink(n[0], n[1])
	require.NoError(t, err)

	ok, err = g.HasLink(n[0], n[1])
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRemLinkUnknownCert(t *testing.T) {
	g := wot.New(3)
	n := addNodes(g, 2)
	_, err := g.RemLink(n[0], n[1])
	require.ErrorIs(t, err, wot.ErrUnknownCert)
}

func TestMaxCertAccessors(t *testing.T) {
	g := wot.New(3)
	require.Equal(t, uint32(3), g.MaxCert())
	g.SetMaxCert(5)
	require.Equal(t, uint32(5), g.MaxCert())
}
