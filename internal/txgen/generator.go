// Package txgen implements the built-in transaction generator: a worker
// that periodically manufactures a signed transfer between a small fixed
// keyring, submits it to the mempool, and broadcasts its hash, so a node
// run in isolation still produces chain activity.
package txgen

import (
	"math/rand"
	"time"

	"github.com/denny1997/go-prism-node/internal/chain"
	"github.com/denny1997/go-prism-node/internal/hash"
	"github.com/denny1997/go-prism-node/internal/mempool"
	"github.com/denny1997/go-prism-node/internal/network"
	"github.com/denny1997/go-prism-node/internal/signature"
	"github.com/denny1997/go-prism-node/internal/state"
)

// KeyringSize is the number of deterministic keys the generator transfers
// value between.
const KeyringSize = 5

// WarmUp is how long the generator waits before its first attempt, giving
// the node time to finish startup and dial peers.
const WarmUp = 5 * time.Second

// Interval is the steady-state delay between generated transactions.
const Interval = 2 * time.Second

// shadowAccount is the generator's own view of a keyring member's nonce and
// balance, kept independent of the node's real state index so the
// generator never has to take the store guard just to pick a value it can
// afford to send.
type shadowAccount struct {
	nonce   uint32
	balance uint32
}

// Generator owns a fixed keyring and a private ledger shadowing it.
type Generator struct {
	keys        [KeyringSize]signature.KeyPair
	shadow      [KeyringSize]shadowAccount
	rng         *rand.Rand
	txPool      *mempool.TxPool
	broadcaster network.Broadcaster
	ev          network.EventHandler
}

// New builds a generator with a deterministic keyring: the same seed bytes
// produce the same five addresses every run, so repeated demo runs and
// tests see stable addresses.
func New(txPool *mempool.TxPool, broadcaster network.Broadcaster, ev network.EventHandler) *Generator {
	if ev == nil {
		ev = func(string, ...any) {}
	}
	g := &Generator{
		txPool:      txPool,
		broadcaster: broadcaster,
		ev:          ev,
		rng:         rand.New(rand.NewSource(1)),
	}
	for i := range g.keys {
		seed := make([]byte, 32)
		seed[0] = byte(i + 1)
		g.keys[i] = signature.KeyPairFromSeed(seed)
		// Nonces are strictly greater than the account's recorded nonce
		// (bootstrapped to 0), so the first transaction from a fresh
		// account must carry nonce 1, not 0 — see spec.md Scenario A.
		g.shadow[i] = shadowAccount{nonce: 1, balance: state.BootstrapBalance}
	}
	return g
}

// Run starts the periodic generation loop. It blocks until stop is closed,
// so callers run it in its own goroutine.
func (g *Generator) Run(stop <-chan struct{}) {
	timer := time.NewTimer(WarmUp)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
			g.generate()
			timer.Reset(Interval)
		}
	}
}

// generate picks a sender uniformly (skipping this round if that sender's
// shadow balance is zero) and a distinct recipient, signs a transfer, inserts it into the mempool, and broadcasts
// its hash — mirroring the node's own gossip-ingest acceptance rule so the
// generator never floods the mempool with a transaction its own shadow
// ledger already knows would be rejected.
func (g *Generator) generate() {
	senderIdx := g.rng.Intn(KeyringSize)
	sender := g.shadow[senderIdx]
	if sender.balance == 0 {
		return
	}

	recipientIdx := g.rng.Intn(KeyringSize)
	for recipientIdx == senderIdx {
		recipientIdx = g.rng.Intn(KeyringSize)
	}

	ceiling := sender.balance
	if ceiling > 10 {
		ceiling = 10
	}
	value := uint32(g.rng.Intn(int(ceiling)))

	tx := chain.Transaction{
		Recipient: g.keys[recipientIdx].Address(),
		Value:     value,
		Nonce:     sender.nonce,
	}
	sig, err := g.keys[senderIdx].Sign(tx)
	if err != nil {
		g.ev("txgen: sign: %v", err)
		return
	}
	signed := chain.SignedTransaction{
		Signature: sig,
		PublicKey: []byte(g.keys[senderIdx].Public),
		Tx:        tx,
	}

	g.txPool.Insert(signed)
	g.shadow[senderIdx].balance -= value
	g.shadow[senderIdx].nonce++
	g.shadow[recipientIdx].balance += value

	h := signed.Hash()
	g.ev("txgen: generated transaction %s: %s -> %s value %d", h, signed.Sender(), tx.Recipient, value)
	g.broadcaster.Broadcast(network.NewTransactionHashes([]hash.H256{h}))
}
