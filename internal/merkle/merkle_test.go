package merkle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan
// - ComputeChunkHash is deterministic over logically equal inputs
//   (map key order, nested map order must not matter).
// - ComputeChunkHash changes when any of the four inputs changes.
// - NewInterior sorts children and is order-independent.
// - FindChangedLeaves prunes identical subtrees and returns only
//   differing leaves; nil old tree means every leaf changed; deleted
//   labels are ignored.

func TestComputeChunkHashDeterministic(t *testing.T) {
	t.Parallel()

	ctxA := map[string]any{"b": "2", "a": "1"}
	ctxB := map[string]any{"a": "1", "b": "2"}

	h1, err := ComputeChunkHash("content", "mediator", "logging", ctxA)
	require.NoError(t, err)
	h2, err := ComputeChunkHash("content", "mediator", "logging", ctxB)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestComputeChunkHashChangesWithInputs(t *testing.T) {
	t.Parallel()

	base, err := ComputeChunkHash("content", "mediator", "logging", nil)
	require.NoError(t, err)

	changedContent, err := ComputeChunkHash("other", "mediator", "logging", nil)
	require.NoError(t, err)
	assert.NotEqual(t, base, changedContent)

	changedType, err := ComputeChunkHash("content", "connector", "logging", nil)
	require.NoError(t, err)
	assert.NotEqual(t, base, changedType)

	changedIntent, err := ComputeChunkHash("content", "mediator", "delegation", nil)
	require.NoError(t, err)
	assert.NotEqual(t, base, changedIntent)

	changedCtx, err := ComputeChunkHash("content", "mediator", "logging", map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.NotEqual(t, base, changedCtx)
}

func TestNewInteriorOrderIndependent(t *testing.T) {
	t.Parallel()

	a := NewLeaf("a", "hash-a")
	b := NewLeaf("b", "hash-b")

	t1 := NewInterior("parent", []*Tree{a, b})
	t2 := NewInterior("parent", []*Tree{b, a})

	assert.Equal(t, t1.Hash, t2.Hash)
}

func TestFindChangedLeavesPrunesIdenticalSubtrees(t *testing.T) {
	t.Parallel()

	unchangedLeaf := NewLeaf("leaf1", "h1")
	oldTree := NewInterior("artifact", []*Tree{unchangedLeaf, NewLeaf("leaf2", "h2")})
	newTree := NewInterior("artifact", []*Tree{unchangedLeaf, NewLeaf("leaf2", "h2-changed")})

	changed := FindChangedLeaves(oldTree, newTree)
	require.Len(t, changed, 1)
	assert.Equal(t, "leaf2", changed[0].Label)
	assert.Equal(t, "h2-changed", changed[0].Hash)
}

func TestFindChangedLeavesNilOldMeansAllChanged(t *testing.T) {
	t.Parallel()

	newTree := NewInterior("artifact", []*Tree{NewLeaf("leaf1", "h1"), NewLeaf("leaf2", "h2")})
	changed := FindChangedLeaves(nil, newTree)
	assert.Len(t, changed, 2)
}

func TestFindChangedLeavesIgnoresDeletedLabels(t *testing.T) {
	t.Parallel()

	oldTree := NewInterior("artifact", []*Tree{NewLeaf("leaf1", "h1"), NewLeaf("leaf2", "h2")})
	newTree := NewInterior("artifact", []*Tree{NewLeaf("leaf1", "h1")})

	changed := FindChangedLeaves(oldTree, newTree)
	assert.Empty(t, changed)
}

func TestFindChangedLeavesNoChangeReturnsEmpty(t *testing.T) {
	t.Parallel()

	tree := NewInterior("artifact", []*Tree{NewLeaf("leaf1", "h1")})
	sameAgain := NewInterior("artifact", []*Tree{NewLeaf("leaf1", "h1")})

	assert.Empty(t, FindChangedLeaves(tree, sameAgain))
}
