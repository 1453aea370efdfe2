// Package merkle implements the binary SHA-256 Merkle tree used to commit a
// block's transaction content. Leaves are padded up to the next power of
// two by repeating the trailing leaf, so independently built trees over
// the same content always agree on the root.
package merkle

import (
	"crypto/sha256"

	"github.com/denny1997/go-prism-node/internal/hash"
)

// emptySentinelText is the fixed 32-ASCII-zero string hashed to produce the
// root of an empty tree.
const emptySentinelText = "00000000000000000000000000000000"

// EmptyRoot is the fixed root used when a block has no content.
func EmptyRoot() hash.H256 {
	return sha256.Sum256([]byte(emptySentinelText))
}

// Tree is a binary Merkle tree over a sequence of hashable leaves.
type Tree[T hash.Hashable] struct {
	items  []T
	levels [][]hash.H256 // levels[0] = padded leaf hashes, levels[last] = [root]
}

// New constructs a Merkle tree over items. An empty slice yields the fixed
// EmptyRoot.
func New[T hash.Hashable](items []T) *Tree[T] {
	if len(items) == 0 {
		return &Tree[T]{levels: [][]hash.H256{{EmptyRoot()}}}
	}

	leafHashes := make([]hash.H256, len(items))
	for i, it := range items {
		leafHashes[i] = it.Hash()
	}

	padded := pad(leafHashes)
	levels := [][]hash.H256{padded}
	cur := padded
	for len(cur) > 1 {
		next := make([]hash.H256, len(cur)/2)
		for i := range next {
			next[i] = hashPair(cur[2*i], cur[2*i+1])
		}
		levels = append(levels, next)
		cur = next
	}

	return &Tree[T]{items: items, levels: levels}
}

// pad duplicates the last original leaf until the length is a power of two.
func pad(leaves []hash.H256) []hash.H256 {
	n := len(leaves)
	p := nextPowerOfTwo(n)
	out := make([]hash.H256, n, p)
	copy(out, leaves)
	last := leaves[n-1]
	for len(out) < p {
		out = append(out, last)
	}
	return out
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func hashPair(left, right hash.H256) hash.H256 {
	buf := make([]byte, 0, 64)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return hash.FromBytes(buf)
}

// Root returns the tree's top hash.
func (t *Tree[T]) Root() hash.H256 {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// RootHex returns the tree's root as a hex string, for JSON embedding in a
// block header.
func (t *Tree[T]) RootHex() string {
	return t.Root().String()
}

// Values returns the original (unpadded) leaf items, in order.
func (t *Tree[T]) Values() []T {
	return t.items
}

// Len returns the number of original (unpadded) leaves.
func (t *Tree[T]) Len() int {
	return len(t.items)
}

// Proof returns the sibling chain from leaf i upward to the root.
func (t *Tree[T]) Proof(i int) []hash.H256 {
	if len(t.items) == 0 || i < 0 || i >= len(t.items) {
		return nil
	}

	proof := make([]hash.H256, 0, len(t.levels)-1)
	idx := i
	for level := 0; level < len(t.levels)-1; level++ {
		layer := t.levels[level]
		sibling := idx ^ 1
		proof = append(proof, layer[sibling])
		idx /= 2
	}
	return proof
}

// Verify recomputes the root from datum and proof, using the parity of
// index at each level to pick which side the sibling belongs on, and
// compares against root.
func Verify(root, datum hash.H256, proof []hash.H256, index, leafCount int) bool {
	if leafCount == 0 {
		return root == EmptyRoot() && datum == EmptyRoot()
	}

	cur := datum
	idx := index
	for _, sibling := range proof {
		if idx%2 == 0 {
			cur = hashPair(cur, sibling)
		} else {
			cur = hashPair(sibling, cur)
		}
		idx /= 2
	}
	return cur == root
}
