package chain

import (
	"fmt"
	"sync"

	"github.com/denny1997/go-prism-node/internal/hash"
	"github.com/denny1997/go-prism-node/internal/merkle"
)

// Chain is the keyed block store: hash -> block, a height index, and the
// current longest-chain tip. It is one of the monitors the miner and the
// network worker pool access through the shared lock documented in
// internal/store.
type Chain struct {
	mu      sync.RWMutex
	blocks  map[hash.H256]Block
	height  map[hash.H256]uint32
	tip     hash.H256
	genesis hash.H256
}

// New constructs a chain containing only the fixed genesis block at height
// 0. Genesis has a zero nonce, a zero timestamp, the two genesis difficulty
// constants, and a self-referential parent pointer equal to the empty
// Merkle root.
func New() *Chain {
	emptyRoot := merkle.EmptyRoot()

	genesisHeader := Header{
		Parent:       emptyRoot,
		Nonce:        0,
		DifficultyPr: GenesisDifficultyPr(),
		DifficultyTx: GenesisDifficultyTx(),
		Timestamp:    0,
		MerkleRoot:   emptyRoot,
	}
	genesisBlock := Block{Header: genesisHeader}
	genesisHash := genesisBlock.Hash()

	return &Chain{
		blocks:  map[hash.H256]Block{genesisHash: genesisBlock},
		height:  map[hash.H256]uint32{genesisHash: 0},
		tip:     genesisHash,
		genesis: genesisHash,
	}
}

// Genesis returns the genesis block's hash.
func (c *Chain) Genesis() hash.H256 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.genesis
}

// Has reports whether a block hash is already stored.
func (c *Chain) Has(h hash.H256) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.blocks[h]
	return ok
}

// Get returns the stored block for a hash.
func (c *Chain) Get(h hash.H256) (Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.blocks[h]
	return b, ok
}

// Height returns the height recorded for a block hash.
func (c *Chain) Height(h hash.H256) (uint32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ht, ok := c.height[h]
	return ht, ok
}

// Insert adds a proposer block to the chain. The caller (the network worker
// or the miner) must have already validated that block.Header.Parent is
// present; Insert returns an error if not, rather than silently corrupting
// the height index.
func (c *Chain) Insert(block Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	parentHeight, ok := c.height[block.Header.Parent]
	if !ok {
		return fmt.Errorf("chain: parent %s not in store", block.Header.Parent)
	}

	h := block.Hash()
	if _, exists := c.blocks[h]; exists {
		return nil // idempotent: re-inserting a known block is a no-op
	}

	newHeight := parentHeight + 1
	c.blocks[h] = block
	c.height[h] = newHeight

	if newHeight > c.height[c.tip] {
		c.tip = h
	}

	return nil
}

// Tip returns the current longest-chain tip hash.
func (c *Chain) Tip() hash.H256 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tip
}

// TipBlock returns the block at the current tip.
func (c *Chain) TipBlock() Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks[c.tip]
}

// AllBlocksInLongestChain walks parent pointers back to genesis and returns
// the chain oldest-first.
func (c *Chain) AllBlocksInLongestChain() []hash.H256 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var chain []hash.H256
	cur := c.tip
	for cur != c.genesis {
		chain = append(chain, cur)
		cur = c.blocks[cur].Header.Parent
	}
	chain = append(chain, c.genesis)

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
