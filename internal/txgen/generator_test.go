package txgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denny1997/go-prism-node/internal/chain"
	"github.com/denny1997/go-prism-node/internal/hash"
	"github.com/denny1997/go-prism-node/internal/mempool"
	"github.com/denny1997/go-prism-node/internal/network"
	"github.com/denny1997/go-prism-node/internal/state"
)

type recordingBroadcaster struct {
	msgs []network.Message
}

func (r *recordingBroadcaster) Broadcast(m network.Message) {
	r.msgs = append(r.msgs, m)
}

// TestGenerateInsertsAcceptableTransaction exercises one generation attempt
// end to end against the real state-derivation spend check: a freshly
// bootstrapped account starts at Nonce 0, so the first transaction the
// generator ever produces for a sender must carry Nonce 1 to be acceptable
// (spec.md Scenario A uses nonce=1 for exactly this reason).
func TestGenerateInsertsAcceptableTransaction(t *testing.T) {
	pool := mempool.NewTxPool()
	bc := &recordingBroadcaster{}
	g := New(pool, bc, nil)

	g.generate()

	require.Equal(t, 1, pool.Len())
	require.Len(t, bc.msgs, 1)
	assert.Equal(t, network.KindNewTransactionHashes, bc.msgs[0].Kind)

	var tx chain.SignedTransaction
	for _, pending := range pool.All() {
		tx = pending
	}
	require.True(t, tx.VerifySignature())

	tb := chain.Block{Content: []chain.SignedTransaction{tx}}
	newState, err := state.Derive(state.Empty(), []hash.H256{tb.Hash()}, func(h hash.H256) (chain.Block, bool) {
		if h == tb.Hash() {
			return tb, true
		}
		return chain.Block{}, false
	})
	require.NoError(t, err)

	acc := newState.Accounts[tx.Sender()]
	assert.Equal(t, uint32(1), acc.Nonce, "first transaction from a fresh account must advance its nonce to 1")
}

// TestGenerateValueStaysWithinSpecBound exercises spec.md §4.8's value
// selection rule across many attempts: value in [0, min(10, balance)).
func TestGenerateValueStaysWithinSpecBound(t *testing.T) {
	pool := mempool.NewTxPool()
	bc := &recordingBroadcaster{}
	g := New(pool, bc, nil)

	for i := 0; i < 200; i++ {
		g.generate()
	}

	for _, tx := range pool.All() {
		assert.Less(t, tx.Tx.Value, uint32(10))
	}
}

// TestGenerateSkipsExhaustedSender exercises the zero-balance guard: a
// sender whose shadow balance has been driven to zero never originates a
// transaction, avoiding a panic on an empty random range.
func TestGenerateSkipsExhaustedSender(t *testing.T) {
	pool := mempool.NewTxPool()
	bc := &recordingBroadcaster{}
	g := New(pool, bc, nil)

	for i := range g.shadow {
		g.shadow[i].balance = 0
	}

	assert.NotPanics(t, func() { g.generate() })
	assert.Equal(t, 0, pool.Len())
}
