package forktree

import "errors"

var (
	// ErrMissingParent is returned by Insert when the referenced parent
	// node id does not exist in the tree (it may already have been pruned).
	ErrMissingParent = errors.New("forktree: missing parent")
	// ErrDuplicateConflictingBlockstamp is returned by Insert when a node
	// with the same blockstamp already exists under a different parent.
	ErrDuplicateConflictingBlockstamp = errors.New("forktree: duplicate conflicting blockstamp")
	// ErrMainBranchMissing is returned when an operation requires a
	// main-branch entry at a height that has none.
	ErrMainBranchMissing = errors.New("forktree: main branch entry missing")
	// ErrUnknownNode is returned when a NodeID given to an accessor does
	// not exist in the tree.
	ErrUnknownNode = errors.New("forktree: unknown node")
)
