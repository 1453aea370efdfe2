package mempool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denny1997/go-prism-node/internal/chain"
	"github.com/denny1997/go-prism-node/internal/hash"
	"github.com/denny1997/go-prism-node/internal/signature"
)

func signedTx(t *testing.T, seedByte byte, nonce, value uint32) chain.SignedTransaction {
	t.Helper()
	seed := make([]byte, 32)
	seed[0] = seedByte
	kp := signature.KeyPairFromSeed(seed)
	tx := chain.Transaction{Recipient: signature.ZeroAddress, Value: value, Nonce: nonce}
	sig, err := kp.Sign(tx)
	require.NoError(t, err)
	return chain.SignedTransaction{Signature: sig, PublicKey: []byte(kp.Public), Tx: tx}
}

func TestTxPoolInsertIsIdempotentByHash(t *testing.T) {
	p := NewTxPool()
	tx := signedTx(t, 1, 0, 10)

	p.Insert(tx)
	p.Insert(tx)

	require.Equal(t, 1, p.Len())
	require.True(t, p.Has(tx.Hash()))
}

func TestTxPoolRemoveBySenderNonceDeletesOnlyMatchingSender(t *testing.T) {
	p := NewTxPool()
	a := signedTx(t, 1, 0, 10)
	b := signedTx(t, 2, 0, 20)
	p.Insert(a)
	p.Insert(b)

	p.RemoveBySenderNonce(a.Sender(), 0)

	require.False(t, p.Has(a.Hash()))
	require.True(t, p.Has(b.Hash()))
	require.Equal(t, 1, p.Len())
}

func TestTxPoolSelectNeverReturnsMoreThanRequested(t *testing.T) {
	p := NewTxPool()
	for i := byte(1); i <= 5; i++ {
		p.Insert(signedTx(t, i, 0, 1))
	}

	require.Len(t, p.Select(3), 3)
	require.Len(t, p.Select(100), 5)
}

func TestTxBlockPoolInsertAppendsToOrderedListOnceOnly(t *testing.T) {
	p := NewTxBlockPool()
	b := chain.Block{Header: chain.Header{Nonce: 1}}

	p.Insert(b)
	p.Insert(b)

	require.Equal(t, 1, p.Len())
	require.Equal(t, []hash.H256{b.Hash()}, p.Ordered())
}

func TestTxBlockPoolOrderedPreservesArrivalOrderAcrossDistinctBlocks(t *testing.T) {
	p := NewTxBlockPool()
	first := chain.Block{Header: chain.Header{Nonce: 1}}
	second := chain.Block{Header: chain.Header{Nonce: 2}}

	p.Insert(first)
	p.Insert(second)

	require.Equal(t, []hash.H256{first.Hash(), second.Hash()}, p.Ordered())
}
