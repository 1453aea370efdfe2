package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denny1997/go-prism-node/internal/chain"
	"github.com/denny1997/go-prism-node/internal/hash"
	"github.com/denny1997/go-prism-node/internal/signature"
	"github.com/denny1997/go-prism-node/internal/store"
)

// mineProposer searches nonces until the header clears the proposer tier.
// The genesis difficulty constants constrain only the first two bytes of
// the header hash, so this clears in a fraction of a second of plain SHA-256
// attempts.
func mineProposer(t *testing.T, parent chain.Block) chain.Block {
	t.Helper()
	for nonce := uint32(0); nonce < 5_000_000; nonce++ {
		h := chain.Header{
			Parent:       parent.Hash(),
			Nonce:        nonce,
			DifficultyPr: parent.Header.DifficultyPr,
			DifficultyTx: parent.Header.DifficultyTx,
			MerkleRoot:   parent.Header.MerkleRoot,
			Timestamp:    parent.Header.Timestamp + 1,
		}
		if chain.Classify(h) == chain.TierProposer {
			return chain.Block{Header: h}
		}
	}
	require.FailNow(t, "failed to mine a proposer block within the attempt budget")
	return chain.Block{}
}

// fakeBroadcaster records every message handed to it.
type fakeBroadcaster struct {
	sent []Message
}

func (f *fakeBroadcaster) Broadcast(m Message) { f.sent = append(f.sent, m) }

func newTestPool(t *testing.T) (*Pool, *store.Stores, *fakeBroadcaster) {
	t.Helper()
	stores := store.New()
	bc := &fakeBroadcaster{}
	pool := NewPool(1, stores, bc, nil)
	return pool, stores, bc
}

func testKey(seedByte byte) signature.KeyPair {
	seed := make([]byte, 32)
	seed[0] = seedByte
	return signature.KeyPairFromSeed(seed)
}

func testSigned(t *testing.T, kp signature.KeyPair, tx chain.Transaction) chain.SignedTransaction {
	t.Helper()
	sig, err := kp.Sign(tx)
	require.NoError(t, err)
	return chain.SignedTransaction{Signature: sig, PublicKey: []byte(kp.Public), Tx: tx}
}

// TestIngestPrBlocksDrainsOrphanOnParentArrival checks that a child
// buffered as an orphan is accepted once its parent arrives, without a
// second gossip message for it.
func TestIngestPrBlocksDrainsOrphanOnParentArrival(t *testing.T) {
	pool, stores, bc := newTestPool(t)

	genesisHash := stores.Chain.Genesis()
	genesisBlock, _ := stores.Chain.Get(genesisHash)

	p1 := mineProposer(t, genesisBlock)
	p2 := mineProposer(t, p1)

	pool.ingestPrBlocks([]chain.Block{p2})
	assert.Equal(t, 1, pool.OrphanCount())
	assert.False(t, stores.Chain.Has(p2.Hash()))
	assert.Empty(t, bc.sent)

	pool.ingestPrBlocks([]chain.Block{p1})

	assert.Equal(t, 0, pool.OrphanCount())
	assert.True(t, stores.Chain.Has(p1.Hash()))
	assert.True(t, stores.Chain.Has(p2.Hash()))
	assert.Equal(t, p2.Hash(), stores.Chain.Tip())

	require.Len(t, bc.sent, 1)
	assert.ElementsMatch(t, []hash.H256{p1.Hash(), p2.Hash()}, bc.sent[0].Hashes)
}

// TestIngestPrBlocksLeavesMismatchedOrphanBuffered checks that an orphan
// whose difficulty fields don't match its arriving parent is left in the
// buffer rather than accepted or dropped.
func TestIngestPrBlocksLeavesMismatchedOrphanBuffered(t *testing.T) {
	pool, stores, _ := newTestPool(t)

	genesisHash := stores.Chain.Genesis()
	genesisBlock, _ := stores.Chain.Get(genesisHash)

	p1 := mineProposer(t, genesisBlock)

	// The difficulty field is altered before mining so the orphan's own PoW
	// still holds; altering it afterwards would change the block hash.
	var mismatched chain.Block
	for nonce := uint32(0); nonce < 5_000_000; nonce++ {
		h := chain.Header{
			Parent:       p1.Hash(),
			Nonce:        nonce,
			DifficultyPr: p1.Header.DifficultyPr,
			DifficultyTx: p1.Header.DifficultyTx,
			MerkleRoot:   p1.Header.MerkleRoot,
			Timestamp:    p1.Header.Timestamp + 1,
		}
		h.DifficultyTx[len(h.DifficultyTx)-1] ^= 0x01
		if chain.Classify(h) == chain.TierProposer {
			mismatched = chain.Block{Header: h}
			break
		}
	}
	require.NotZero(t, mismatched.Header.Timestamp, "failed to mine a mismatched proposer block within the attempt budget")

	pool.ingestPrBlocks([]chain.Block{mismatched})
	require.Equal(t, 1, pool.OrphanCount())

	pool.ingestPrBlocks([]chain.Block{p1})

	assert.True(t, stores.Chain.Has(p1.Hash()))
	assert.False(t, stores.Chain.Has(mismatched.Hash()))
	assert.Equal(t, 1, pool.OrphanCount())
}

// TestIngestTransactionsDedupsDuplicateBroadcast checks that receiving the
// same transaction twice inserts it once and only broadcasts its hash on
// first receipt.
func TestIngestTransactionsDedupsDuplicateBroadcast(t *testing.T) {
	pool, stores, bc := newTestPool(t)

	k1 := testKey(1)
	k2 := testKey(2)
	signed := testSigned(t, k1, chain.Transaction{Recipient: k2.Address(), Value: 1, Nonce: 1})

	pool.ingestTransactions([]chain.SignedTransaction{signed})
	assert.Equal(t, 1, stores.TxPool.Len())
	require.Len(t, bc.sent, 1)

	pool.ingestTransactions([]chain.SignedTransaction{signed})
	assert.Equal(t, 1, stores.TxPool.Len())
	assert.Len(t, bc.sent, 1, "second receipt of a known transaction must not broadcast again")
}

// TestIngestTransactionsRejectsInvalidSignature checks that a tampered
// transaction never reaches the mempool or a broadcast.
func TestIngestTransactionsRejectsInvalidSignature(t *testing.T) {
	pool, stores, bc := newTestPool(t)

	k1 := testKey(1)
	k2 := testKey(2)
	signed := testSigned(t, k1, chain.Transaction{Recipient: k2.Address(), Value: 1, Nonce: 1})
	signed.Signature[0] ^= 0xFF

	pool.ingestTransactions([]chain.SignedTransaction{signed})
	assert.Zero(t, stores.TxPool.Len())
	assert.Empty(t, bc.sent)
}

// TestIngestTxBlocksRemovesCoveredTransactionsFromMempool checks the
// transaction-block ingest path clears the pending pool of everything the
// newly known block covers.
func TestIngestTxBlocksRemovesCoveredTransactionsFromMempool(t *testing.T) {
	pool, stores, bc := newTestPool(t)

	genesisHash := stores.Chain.Genesis()
	genesisBlock, _ := stores.Chain.Get(genesisHash)

	k1 := testKey(1)
	k2 := testKey(2)
	signed := testSigned(t, k1, chain.Transaction{Recipient: k2.Address(), Value: 1, Nonce: 1})
	stores.TxPool.Insert(signed)

	var tb chain.Block
	for nonce := uint32(0); nonce < 5_000_000; nonce++ {
		candidate := chain.Block{
			Header: chain.Header{
				Parent:       genesisHash,
				Nonce:        nonce,
				DifficultyPr: genesisBlock.Header.DifficultyPr,
				DifficultyTx: genesisBlock.Header.DifficultyTx,
				MerkleRoot:   genesisBlock.Header.MerkleRoot,
				Timestamp:    1,
			},
			Content: []chain.SignedTransaction{signed},
		}
		if chain.Classify(candidate.Header) == chain.TierTxBlock {
			tb = candidate
			break
		}
	}
	require.NotZero(t, tb.Header.Timestamp, "failed to mine a transaction block within the attempt budget")

	pool.ingestTxBlocks([]chain.Block{tb})

	assert.True(t, stores.TxBlockPool.Has(tb.Hash()))
	assert.Zero(t, stores.TxPool.Len())
	require.Len(t, bc.sent, 1)
	assert.Equal(t, []hash.H256{tb.Hash()}, bc.sent[0].Hashes)
}
