// Package mempool implements the two pending-artifact stores the node
// gossips over before they are committed into a block: the transaction
// mempool and the transaction-block mempool plus its arrival-ordered list.
package mempool

import (
	"sync"

	"github.com/denny1997/go-prism-node/internal/chain"
	"github.com/denny1997/go-prism-node/internal/hash"
	"github.com/denny1997/go-prism-node/internal/signature"
)

// TxPool is the pending signed-transaction mempool, keyed by hash.
type TxPool struct {
	mu  sync.RWMutex
	txs map[hash.H256]chain.SignedTransaction
}

// NewTxPool constructs an empty transaction mempool.
func NewTxPool() *TxPool {
	return &TxPool{txs: make(map[hash.H256]chain.SignedTransaction)}
}

// Insert stores tx by hash. Re-inserting an already-known hash is a no-op.
func (p *TxPool) Insert(tx chain.SignedTransaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txs[tx.Hash()] = tx
}

// Has reports whether a transaction hash is already pending.
func (p *TxPool) Has(h hash.H256) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.txs[h]
	return ok
}

// Get returns the pending transaction for a hash.
func (p *TxPool) Get(h hash.H256) (chain.SignedTransaction, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tx, ok := p.txs[h]
	return tx, ok
}

// Remove deletes a transaction by hash, used once it has been included in a
// mined/received transaction block.
func (p *TxPool) Remove(h hash.H256) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.txs, h)
}

// RemoveBySenderNonce deletes any pending transaction from sender with the
// given nonce — the "shadow removal" the miner performs so a since-replaced
// transaction doesn't linger in the pool under a different hash.
func (p *TxPool) RemoveBySenderNonce(sender signature.H160, nonce uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for h, tx := range p.txs {
		if tx.Sender() == sender && tx.Tx.Nonce == nonce {
			delete(p.txs, h)
		}
	}
}

// All returns a snapshot slice of every pending transaction. Iteration
// order is map-defined: no ordering guarantee is implied.
func (p *TxPool) All() []chain.SignedTransaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]chain.SignedTransaction, 0, len(p.txs))
	for _, tx := range p.txs {
		out = append(out, tx)
	}
	return out
}

// Select returns up to k pending transactions. Iteration order is
// map-defined: no ordering guarantee is implied.
func (p *TxPool) Select(k int) []chain.SignedTransaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]chain.SignedTransaction, 0, k)
	for _, tx := range p.txs {
		if len(out) >= k {
			break
		}
		out = append(out, tx)
	}
	return out
}

// Len returns the number of pending transactions.
func (p *TxPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.txs)
}

// =============================================================================

// TxBlockPool is the known-transaction-block store, keyed by hash, plus the
// node's local arrival-ordered list of transaction-block hashes used by the
// miner to propose a commitment order.
type TxBlockPool struct {
	mu      sync.RWMutex
	blocks  map[hash.H256]chain.Block
	ordered []hash.H256
}

// NewTxBlockPool constructs an empty transaction-block mempool.
func NewTxBlockPool() *TxBlockPool {
	return &TxBlockPool{blocks: make(map[hash.H256]chain.Block)}
}

// Insert stores a transaction block by hash and appends it to the ordered
// arrival list. Re-inserting an already-known hash leaves the ordered list
// unchanged.
func (p *TxBlockPool) Insert(b chain.Block) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := b.Hash()
	if _, exists := p.blocks[h]; exists {
		return
	}
	p.blocks[h] = b
	p.ordered = append(p.ordered, h)
}

// Has reports whether a transaction-block hash is already known.
func (p *TxBlockPool) Has(h hash.H256) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.blocks[h]
	return ok
}

// Get returns the known transaction block for a hash.
func (p *TxBlockPool) Get(h hash.H256) (chain.Block, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.blocks[h]
	return b, ok
}

// Ordered returns a snapshot of the local arrival order of transaction
// blocks seen so far.
func (p *TxBlockPool) Ordered() []hash.H256 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]hash.H256, len(p.ordered))
	copy(out, p.ordered)
	return out
}

// Len returns the number of known transaction blocks.
func (p *TxBlockPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.blocks)
}
