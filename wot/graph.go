// Package wot implements the Web-of-Trust graph: a signed directed graph
// over identities answering sentry, path-existence and distance-rule
// queries used to decide network membership.
//
// Nodes are densely allocated NodeIDs (ids.NodeID), not a pointer graph;
// traversals follow integer indices instead of chasing pointers.
package wot

import (
	"sort"

	"golang.org/x/exp/maps"

	"github.com/duniter/dunicore/ids"
)

type node struct {
	enabled     bool
	incoming    map[ids.NodeID]struct{}
	outgoing    map[ids.NodeID]struct{}
	issuedCount uint32
}

func newNode() *node {
	return &node{
		enabled:  true,
		incoming: make(map[ids.NodeID]struct{}),
		outgoing: make(map[ids.NodeID]struct{}),
	}
}

// Graph is a Web-of-Trust graph with a global outgoing-link quota.
type Graph struct {
	maxCert uint32
	nodes   []*node
}

// New creates an empty graph with the given outgoing-link quota per node.
func New(maxCert uint32) *Graph {
	return &Graph{maxCert: maxCert}
}

// MaxCert returns the current outgoing-link quota.
func (g *Graph) MaxCert() uint32 { return g.maxCert }

// SetMaxCert updates the outgoing-link quota. Existing links beyond the
// new quota are not retroactively removed; only future AddLink calls are
// affected.
func (g *Graph) SetMaxCert(n uint32) { g.maxCert = n }

// NodesCount returns the number of nodes ever allocated (append-only,
// minus any popped via RemNode).
func (g *Graph) NodesCount() int { return len(g.nodes) }

// AddNode densely allocates a new, enabled node with no links.
func (g *Graph) AddNode() ids.NodeID {
	g.nodes = append(g.nodes, newNode())
	return ids.NodeID(len(g.nodes) - 1)
}

// RemNode pops the most recently added node. It is the only removal
// operation and exists to roll back a tentative insertion.
func (g *Graph) RemNode() (ids.NodeID, bool) {
	if len(g.nodes) == 0 {
		return 0, false
	}
	id := ids.NodeID(len(g.nodes) - 1)
	g.nodes = g.nodes[:len(g.nodes)-1]
	return id, true
}

func (g *Graph) get(id ids.NodeID) (*node, bool) {
	if int(id) < 0 || int(id) >= len(g.nodes) {
		return nil, false
	}
	return g.nodes[id], true
}

// SetEnabled sets a node's enabled flag, returning its previous value.
func (g *Graph) SetEnabled(id ids.NodeID, enabled bool) (bool, bool) {
	n, ok := g.get(id)
	if !ok {
		return false, false
	}
	prev := n.enabled
	n.enabled = enabled
	return prev, true
}

// IsEnabled reports whether id is enabled.
func (g *Graph) IsEnabled(id ids.NodeID) (bool, bool) {
	n, ok := g.get(id)
	if !ok {
		return false, false
	}
	return n.enabled, true
}

// AddLink certifies v from u. On success it returns v's new in-degree. On
// AlreadyCertified or AllCertificationsUsed it returns v's unchanged
// in-degree alongside the error.
func (g *Graph) AddLink(u, v ids.NodeID) (int, error) {
	if u == v {
		return 0, ErrSelfLinkingForbidden
	}
	un, ok := g.get(u)
	if !ok {
		return 0, ErrUnknownSource
	}
	vn, ok := g.get(v)
	if !ok {
		return 0, ErrUnknownTarget
	}
	if _, linked := vn.incoming[u]; linked {
		return len(vn.incoming), ErrAlreadyCertified
	}
	if un.issuedCount >= g.maxCert {
		return len(vn.incoming), ErrAllCertificationsUsed
	}
	vn.incoming[u] = struct{}{}
	un.outgoing[v] = struct{}{}
	un.issuedCount++
	return len(vn.incoming), nil
}

// RemLink removes a certification of v by u, returning v's new in-degree.
func (g *Graph) RemLink(u, v ids.NodeID) (int, error) {
	un, ok := g.get(u)
	if !ok {
		return 0, ErrUnknownSource
	}
	vn, ok := g.get(v)
	if !ok {
		return 0, ErrUnknownTarget
	}
	if _, linked := vn.incoming[u]; !linked {
		return 0, ErrUnknownCert
	}
	delete(vn.incoming, u)
	delete(un.outgoing, v)
	un.issuedCount--
	return len(vn.incoming), nil
}

// HasLink reports whether u certifies v.
func (g *Graph) HasLink(u, v ids.NodeID) (bool, error) {
	_, ok := g.get(u)
	if !ok {
		return false, ErrUnknownSource
	}
	vn, ok := g.get(v)
	if !ok {
		return false, ErrUnknownTarget
	}
	_, linked := vn.incoming[u]
	return linked, nil
}

// InDegree returns len(incoming(id)).
func (g *Graph) InDegree(id ids.NodeID) int {
	n, ok := g.get(id)
	if !ok {
		return 0
	}
	return len(n.incoming)
}

// IssuedCount returns the number of outgoing links issued by id.
func (g *Graph) IssuedCount(id ids.NodeID) uint32 {
	n, ok := g.get(id)
	if !ok {
		return 0
	}
	return n.issuedCount
}

// GetSentries returns enabled nodes with issued_count >= min and
// in_degree >= min, in ascending NodeID order.
func (g *Graph) GetSentries(min int) []ids.NodeID {
	var out []ids.NodeID
	for i, n := range g.nodes {
		if n.enabled && int(n.issuedCount) >= min && len(n.incoming) >= min {
			out = append(out, ids.NodeID(i))
		}
	}
	return out
}

// GetPaths returns every simple directed path from "from" to "to" of at
// most stepMax edges, each listed [from, ..., to].
func (g *Graph) GetPaths(from, to ids.NodeID, stepMax int) [][]ids.NodeID {
	if _, ok := g.get(from); !ok {
		return nil
	}
	if _, ok := g.get(to); !ok {
		return nil
	}

	var results [][]ids.NodeID
	visited := map[ids.NodeID]bool{from: true}
	path := []ids.NodeID{from}

	var dfs func(cur ids.NodeID, depth int)
	dfs = func(cur ids.NodeID, depth int) {
		if cur == to {
			cp := make([]ids.NodeID, len(path))
			copy(cp, path)
			results = append(results, cp)
			return
		}
		if depth >= stepMax {
			return
		}
		n := g.nodes[cur]
		next := maps.Keys(n.outgoing)
		sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
		for _, v := range next {
			if visited[v] {
				continue
			}
			visited[v] = true
			path = append(path, v)
			dfs(v, depth+1)
			path = path[:len(path)-1]
			visited[v] = false
		}
	}
	dfs(from, 0)
	return results
}

// Distance is the result of a distance-rule computation.
type Distance struct {
	Sentries     int
	Success      int
	Reached      int
	Outdistanced bool
}

// ComputeDistance evaluates the distance rule for node: among the sentries
// defined by sentryReq (GetSentries(sentryReq), excluding node itself),
// how many have a directed certification path reaching node within
// stepMax hops. A node is outdistanced when fewer than x_percent of its
// sentries reach it.
//
// Reachability is computed as a single BFS over the reverse graph
// (following each node's incoming edges) starting at node, up to depth
// stepMax: a node R is "reached" iff there exists a forward directed path
// R -> ... -> node of length <= stepMax.
func (g *Graph) ComputeDistance(n ids.NodeID, sentryReq int, stepMax int, xPercent float64) Distance {
	sentrySet := make(map[ids.NodeID]struct{})
	for _, s := range g.GetSentries(sentryReq) {
		if s != n {
			sentrySet[s] = struct{}{}
		}
	}

	reachedAncestors := g.reverseBFS(n, stepMax)

	success := 0
	for s := range sentrySet {
		if _, ok := reachedAncestors[s]; ok {
			success++
		}
	}

	sentries := len(sentrySet)
	outdistanced := float64(success) < xPercent*float64(sentries)
	return Distance{
		Sentries:     sentries,
		Success:      success,
		Reached:      len(reachedAncestors),
		Outdistanced: outdistanced,
	}
}

// IsOutdistanced is a convenience wrapper around ComputeDistance.
func (g *Graph) IsOutdistanced(n ids.NodeID, sentryReq int, stepMax int, xPercent float64) bool {
	return g.ComputeDistance(n, sentryReq, stepMax, xPercent).Outdistanced
}

// reverseBFS returns the set of nodes with a forward path of length
// <= depth reaching target, via explicit depth-labeled BFS over the
// reverse (incoming) adjacency.
func (g *Graph) reverseBFS(target ids.NodeID, depth int) map[ids.NodeID]struct{} {
	reached := make(map[ids.NodeID]struct{})
	frontier := []ids.NodeID{target}
	visited := map[ids.NodeID]struct{}{target: {}}

	for d := 0; d < depth; d++ {
		var next []ids.NodeID
		for _, cur := range frontier {
			n, ok := g.get(cur)
			if !ok {
				continue
			}
			for u := range n.incoming {
				if _, ok := visited[u]; ok {
					continue
				}
				visited[u] = struct{}{}
				reached[u] = struct{}{}
				next = append(next, u)
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return reached
}
