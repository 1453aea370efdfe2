package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denny1997/go-prism-node/internal/hash"
)

func childOf(parent hash.H256, parentHeader Header, nonce uint32) Block {
	return Block{
		Header: Header{
			Parent:       parent,
			Nonce:        nonce,
			DifficultyPr: parentHeader.DifficultyPr,
			DifficultyTx: parentHeader.DifficultyTx,
			MerkleRoot:   parentHeader.MerkleRoot,
			Timestamp:    parentHeader.Timestamp + 1,
		},
	}
}

func TestNewChainStartsAtGenesisHeightZero(t *testing.T) {
	c := New()
	g := c.Genesis()

	assert.Equal(t, g, c.Tip())
	height, ok := c.Height(g)
	require.True(t, ok)
	assert.Zero(t, height)
	assert.True(t, c.Has(g))
}

func TestInsertExtendsTipAndHeight(t *testing.T) {
	c := New()
	g := c.Genesis()
	genesisBlock, _ := c.Get(g)

	b1 := childOf(g, genesisBlock.Header, 1)
	require.NoError(t, c.Insert(b1))

	h1 := b1.Hash()
	assert.Equal(t, h1, c.Tip())
	height, ok := c.Height(h1)
	require.True(t, ok)
	assert.Equal(t, uint32(1), height)

	b2 := childOf(h1, b1.Header, 2)
	require.NoError(t, c.Insert(b2))
	assert.Equal(t, b2.Hash(), c.Tip())
}

func TestInsertIsIdempotentOnKnownBlock(t *testing.T) {
	c := New()
	g := c.Genesis()
	genesisBlock, _ := c.Get(g)

	b1 := childOf(g, genesisBlock.Header, 1)
	require.NoError(t, c.Insert(b1))
	tipBefore := c.Tip()

	require.NoError(t, c.Insert(b1))
	assert.Equal(t, tipBefore, c.Tip())
}

func TestInsertRejectsUnknownParent(t *testing.T) {
	c := New()
	var unknownParent hash.H256
	unknownParent[0] = 0xAB

	orphan := Block{Header: Header{Parent: unknownParent, Nonce: 1}}
	err := c.Insert(orphan)
	assert.Error(t, err)
	assert.False(t, c.Has(orphan.Hash()))
}

func TestAllBlocksInLongestChainIsOldestFirst(t *testing.T) {
	c := New()
	g := c.Genesis()
	genesisBlock, _ := c.Get(g)

	b1 := childOf(g, genesisBlock.Header, 1)
	require.NoError(t, c.Insert(b1))
	b2 := childOf(b1.Hash(), b1.Header, 2)
	require.NoError(t, c.Insert(b2))

	chain := c.AllBlocksInLongestChain()
	require.Len(t, chain, 3)
	assert.Equal(t, g, chain[0])
	assert.Equal(t, b1.Hash(), chain[1])
	assert.Equal(t, b2.Hash(), chain[2])
}
