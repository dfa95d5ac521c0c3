// Package forktree implements the bounded-depth forest of blockstamps
// described in the network's consensus core: one "main branch" plus
// arbitrary competing fork branches, with sliding-window pruning and
// reorganization support.
//
// Nodes live in a flat arena indexed by ids.NodeID rather than a pointer
// graph, so path reconstruction during branch walks never touches the
// allocator.
package forktree

import (
	"sort"

	"github.com/duniter/dunicore/ids"
	"github.com/duniter/dunicore/metrics"
)

type node struct {
	hasParent bool
	parent    ids.NodeID
	children  []ids.NodeID
	data      ids.Blockstamp
}

// Tree is a bounded-depth forest of blockstamps.
type Tree struct {
	maxDepth int

	nodes  map[ids.NodeID]*node
	nextID ids.NodeID

	hasRoot bool
	root    ids.NodeID

	mainBranch map[ids.BlockNumber]ids.NodeID
	sheets     map[ids.NodeID]struct{}

	removed []ids.Blockstamp

	metrics *metrics.Metrics
}

// New creates an empty tree with the given fork window (max_depth).
func New(maxDepth int) *Tree {
	return &Tree{
		maxDepth:   maxDepth,
		nodes:      make(map[ids.NodeID]*node),
		mainBranch: make(map[ids.BlockNumber]ids.NodeID),
		sheets:     make(map[ids.NodeID]struct{}),
	}
}

// SetMetrics attaches a metrics sink; ForkTreeDepth tracks MainBranchLen
// after every change and ForkTreePrunes counts completed pruning passes.
func (t *Tree) SetMetrics(m *metrics.Metrics) *Tree {
	t.metrics = m
	t.reportDepth()
	return t
}

func (t *Tree) reportDepth() {
	if t.metrics != nil {
		t.metrics.ForkTreeDepth.Set(float64(len(t.mainBranch)))
	}
}

// MaxDepth returns the configured fork window.
func (t *Tree) MaxDepth() int { return t.maxDepth }

// MainBranchLen returns |main_branch|.
func (t *Tree) MainBranchLen() int { return len(t.mainBranch) }

// RemovedBlockstamps drains (returns and clears) the side-channel of
// blockstamps dropped by pruning.
func (t *Tree) RemovedBlockstamps() []ids.Blockstamp {
	out := t.removed
	t.removed = nil
	return out
}

// Root returns the current root node id, if the tree is non-empty.
func (t *Tree) Root() (ids.NodeID, bool) {
	return t.root, t.hasRoot
}

// Blockstamp returns the blockstamp stored at id.
func (t *Tree) Blockstamp(id ids.NodeID) (ids.Blockstamp, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return ids.Blockstamp{}, false
	}
	return n.data, true
}

// MainBranchAt returns the node id on the main branch at the given height.
func (t *Tree) MainBranchAt(h ids.BlockNumber) (ids.NodeID, bool) {
	id, ok := t.mainBranch[h]
	return id, ok
}

// Insert creates a node for data, optionally attached to parent, and
// optionally placed on the main branch. Inserting a node whose parent has
// been pruned (or never existed) is an error. Inserting a duplicate
// blockstamp is idempotent only if the parent matches; otherwise it is an
// error.
func (t *Tree) Insert(data ids.Blockstamp, parent *ids.NodeID, onMain bool) (ids.NodeID, error) {
	if existingID, ok := t.FindNodeWithBlockstamp(data); ok {
		existing := t.nodes[existingID]
		sameParent := (parent == nil && !existing.hasParent) ||
			(parent != nil && existing.hasParent && *parent == existing.parent)
		if !sameParent {
			return 0, ErrDuplicateConflictingBlockstamp
		}
		if onMain {
			t.mainBranch[data.Number] = existingID
			t.enforceWindow()
			t.reportDepth()
		}
		return existingID, nil
	}

	var parentNode *node
	if parent != nil {
		pn, ok := t.nodes[*parent]
		if !ok {
			return 0, ErrMissingParent
		}
		if data.Number != pn.data.Number+1 {
			return 0, ErrMissingParent
		}
		parentNode = pn
	} else if t.hasRoot {
		return 0, ErrMissingParent
	}

	id := t.nextID
	t.nextID++
	t.nodes[id] = &node{data: data}

	if parent != nil {
		t.nodes[id].hasParent = true
		t.nodes[id].parent = *parent
		parentNode.children = append(parentNode.children, id)
		delete(t.sheets, *parent)
	} else {
		t.hasRoot = true
		t.root = id
	}
	t.sheets[id] = struct{}{}

	if onMain {
		t.mainBranch[data.Number] = id
		t.enforceWindow()
		t.reportDepth()
	}
	return id, nil
}

func (t *Tree) enforceWindow() {
	for len(t.mainBranch) > t.maxDepth {
		if !t.pruneOnce() {
			return
		}
	}
}

// pruning removes the root, promoting the main-branch child at
// root.height+1 to be the new root, and recursively discards every
// sibling subtree. Returns false if there is nothing to prune (empty
// tree, or no main-branch successor yet known).
func (t *Tree) pruneOnce() bool {
	if !t.hasRoot {
		return false
	}
	rootNode := t.nodes[t.root]
	nextHeight := rootNode.data.Number + 1
	newRootID, ok := t.mainBranch[nextHeight]
	if !ok {
		return false
	}

	for _, c := range rootNode.children {
		if c != newRootID {
			t.dropSubtree(c)
		}
	}

	t.removed = append(t.removed, rootNode.data)
	delete(t.mainBranch, rootNode.data.Number)
	delete(t.nodes, t.root)
	delete(t.sheets, t.root)

	newRoot := t.nodes[newRootID]
	newRoot.hasParent = false
	t.root = newRootID
	if t.metrics != nil {
		t.metrics.ForkTreePrunes.Inc()
	}
	return true
}

// Pruning is the exported, single-step form of the internal
// window-enforcement pruning (useful for tests and manual invocation).
func (t *Tree) Pruning() bool {
	return t.pruneOnce()
}

func (t *Tree) dropSubtree(id ids.NodeID) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	for _, c := range n.children {
		t.dropSubtree(c)
	}
	if mid, ok := t.mainBranch[n.data.Number]; ok && mid == id {
		delete(t.mainBranch, n.data.Number)
	}
	t.removed = append(t.removed, n.data)
	delete(t.nodes, id)
	delete(t.sheets, id)
}

// GetSheets returns the current leaf set (nodes with no children).
func (t *Tree) GetSheets() []ids.NodeID {
	out := make([]ids.NodeID, 0, len(t.sheets))
	for id := range t.sheets {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// GetForkBranch returns [root...id] restricted to nodes not equal to
// their height's current main-branch node, ordered from earliest
// ancestor to id.
func (t *Tree) GetForkBranch(id ids.NodeID) []ids.NodeID {
	chain := t.ancestorChain(id)
	out := make([]ids.NodeID, 0, len(chain))
	for _, nid := range chain {
		n := t.nodes[nid]
		if mainID, ok := t.mainBranch[n.data.Number]; !ok || mainID != nid {
			out = append(out, nid)
		}
	}
	return out
}

// ancestorChain returns [root...id] inclusive, in root-to-id order.
func (t *Tree) ancestorChain(id ids.NodeID) []ids.NodeID {
	var rev []ids.NodeID
	cur := id
	for {
		n, ok := t.nodes[cur]
		if !ok {
			break
		}
		rev = append(rev, cur)
		if !n.hasParent {
			break
		}
		cur = n.parent
	}
	out := make([]ids.NodeID, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}
	return out
}

// FindNodeWithBlockstamp performs a linear scan for a node with the given
// blockstamp; acceptable because the tree is window-bounded.
func (t *Tree) FindNodeWithBlockstamp(bs ids.Blockstamp) (ids.NodeID, bool) {
	for id, n := range t.nodes {
		if n.data == bs {
			return id, true
		}
	}
	return 0, false
}

// ChangeMainBranch re-assigns the main branch to the path ending at
// newCurrent. It removes from main_branch any height in
// [first_divergence ... max(old.height, new.height)] not on the new
// branch, then writes the new branch; if new.height < old.height the
// excess old entries are cleared. May trigger pruning if height
// increases.
func (t *Tree) ChangeMainBranch(oldCurrent, newCurrent ids.NodeID) error {
	oldNode, ok := t.nodes[oldCurrent]
	if !ok {
		return ErrUnknownNode
	}
	newNode, ok := t.nodes[newCurrent]
	if !ok {
		return ErrUnknownNode
	}

	newChain := t.ancestorChain(newCurrent)
	newPath := make(map[ids.BlockNumber]ids.NodeID, len(newChain))
	for _, nid := range newChain {
		n := t.nodes[nid]
		newPath[n.data.Number] = nid
	}

	maxHeight := oldNode.data.Number
	if newNode.data.Number > maxHeight {
		maxHeight = newNode.data.Number
	}

	firstDivergence := maxHeight + 1
	heights := make([]ids.BlockNumber, 0, len(newPath))
	for h := range newPath {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	for _, h := range heights {
		if existing, ok := t.mainBranch[h]; !ok || existing != newPath[h] {
			firstDivergence = h
			break
		}
	}
	if firstDivergence > maxHeight {
		// No heights diverge within the new path; if the new branch is
		// simply shorter than the old one, divergence starts right after
		// the new branch's tip.
		firstDivergence = newNode.data.Number + 1
	}

	for h := firstDivergence; h <= maxHeight; h++ {
		if id, ok := newPath[h]; ok {
			t.mainBranch[h] = id
		} else {
			delete(t.mainBranch, h)
		}
	}

	if newNode.data.Number > oldNode.data.Number {
		t.enforceWindow()
	}
	t.reportDepth()
	return nil
}
