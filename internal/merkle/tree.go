package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Tree is one node of a hierarchical hash tree (artifact -> resource
// -> sequence -> leaf, per §4.3). Leaves carry a chunk's own content
// hash; interior nodes carry the hash of their sorted children.
type Tree struct {
	Label    string
	Hash     string
	Children []*Tree
	IsLeaf   bool
}

// NewLeaf wraps a precomputed chunk hash as a tree leaf.
func NewLeaf(label, hash string) *Tree {
	return &Tree{Label: label, Hash: hash, IsLeaf: true}
}

// NewInterior builds an interior node from its children, sorting them
// by label for determinism and hashing the sorted concatenation of
// child hashes joined with "|".
func NewInterior(label string, children []*Tree) *Tree {
	sorted := append([]*Tree(nil), children...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Label < sorted[j].Label })
	return &Tree{Label: label, Children: sorted, Hash: interiorHash(sorted)}
}

func interiorHash(sortedChildren []*Tree) string {
	parts := make([]string, len(sortedChildren))
	for i, c := range sortedChildren {
		parts[i] = c.Hash
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// FindChangedLeaves walks old and new by label, pruning subtrees whose
// interior hash is unchanged, and returns only the leaves that differ.
// Deleted labels (present in old, absent in new) are ignored — deletion
// is the caller's (Scanner/Pipeline's) responsibility, not the tree
// diff's. A nil old tree means every leaf of new is "changed".
func FindChangedLeaves(old, new *Tree) []*Tree {
	if new == nil {
		return nil
	}
	if old == nil {
		return allLeaves(new)
	}
	if old.Hash == new.Hash {
		return nil
	}
	if new.IsLeaf || old.IsLeaf {
		return []*Tree{new}
	}

	oldByLabel := make(map[string]*Tree, len(old.Children))
	for _, c := range old.Children {
		oldByLabel[c.Label] = c
	}

	var changed []*Tree
	for _, c := range new.Children {
		oc, ok := oldByLabel[c.Label]
		if !ok {
			changed = append(changed, allLeaves(c)...)
			continue
		}
		changed = append(changed, FindChangedLeaves(oc, c)...)
	}
	return changed
}

func allLeaves(t *Tree) []*Tree {
	if t == nil {
		return nil
	}
	if t.IsLeaf {
		return []*Tree{t}
	}
	var out []*Tree
	for _, c := range t.Children {
		out = append(out, allLeaves(c)...)
	}
	return out
}
