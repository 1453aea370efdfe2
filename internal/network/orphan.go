package network

import (
	"sync"

	"github.com/denny1997/go-prism-node/internal/chain"
	"github.com/denny1997/go-prism-node/internal/hash"
)

// OrphanBuffer holds proposer blocks whose parent hasn't arrived yet, keyed
// by the missing parent's hash. There is one slot per parent: two distinct
// children buffered on the same missing parent collide and the later
// insert silently overwrites the earlier one. This is a deliberately
// preserved simplification rather than a parent -> list-of-children design;
// see DESIGN.md.
type OrphanBuffer struct {
	mu  sync.Mutex
	buf map[hash.H256]chain.Block
}

// NewOrphanBuffer constructs an empty orphan buffer.
func NewOrphanBuffer() *OrphanBuffer {
	return &OrphanBuffer{buf: make(map[hash.H256]chain.Block)}
}

// Insert buffers b under its missing parent hash, overwriting any block
// already buffered for that parent.
func (o *OrphanBuffer) Insert(parent hash.H256, b chain.Block) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buf[parent] = b
}

// Get returns the block buffered under parent, if any.
func (o *OrphanBuffer) Get(parent hash.H256) (chain.Block, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, ok := o.buf[parent]
	return b, ok
}

// Delete removes the entry buffered under parent.
func (o *OrphanBuffer) Delete(parent hash.H256) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.buf, parent)
}

// Len reports how many orphans are currently buffered.
func (o *OrphanBuffer) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.buf)
}
