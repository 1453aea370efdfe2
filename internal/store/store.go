// Package store bundles the node's four logically independent monitors —
// chain, transaction mempool, transaction-block mempool (with its ordered
// arrival list), and the per-block state index — behind one acquisition
// point so the miner and the network worker pool can never observe them
// in different lock orders.
//
// Each store already guards its own internal map with its own mutex (see
// internal/chain, internal/mempool, internal/state), so Guard below is a
// single coarse outer lock rather than five fine-grained ones acquired in
// sequence: a fixed order of one lock trivially satisfies "acquire locks in
// a fixed global order" while keeping the call sites in internal/miner and
// internal/network simple. See DESIGN.md for the tradeoff.
package store

import (
	"sync"

	"github.com/denny1997/go-prism-node/internal/chain"
	"github.com/denny1997/go-prism-node/internal/mempool"
	"github.com/denny1997/go-prism-node/internal/state"
)

// Stores bundles the node's shared mutable state.
type Stores struct {
	Guard sync.Mutex

	Chain       *chain.Chain
	TxPool      *mempool.TxPool
	TxBlockPool *mempool.TxBlockPool
	States      *state.PerBlock
}

// New constructs a fresh set of stores seeded with a genesis chain.
func New() *Stores {
	c := chain.New()
	return &Stores{
		Chain:       c,
		TxPool:      mempool.NewTxPool(),
		TxBlockPool: mempool.NewTxBlockPool(),
		States:      state.NewPerBlock(c.Genesis()),
	}
}
