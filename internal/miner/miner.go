// Package miner implements the single-attempt-per-iteration proof-of-work
// loop: assemble a candidate block from the mempools, hash it once, and
// classify the result against the two difficulty targets.
package miner

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/denny1997/go-prism-node/internal/chain"
	"github.com/denny1997/go-prism-node/internal/hash"
	"github.com/denny1997/go-prism-node/internal/merkle"
	"github.com/denny1997/go-prism-node/internal/network"
	"github.com/denny1997/go-prism-node/internal/signature"
	"github.com/denny1997/go-prism-node/internal/state"
	"github.com/denny1997/go-prism-node/internal/store"
)

// controlSignal is sent over the control channel to change the miner's
// operating state at run time.
type controlSignal struct {
	exit     bool
	interval time.Duration
}

// operatingState mirrors the three-state machine of the original miner: it
// is either paused (blocked waiting on a control signal), running at a
// fixed interval between attempts, or shut down.
type operatingState int

const (
	statePaused operatingState = iota
	stateRun
	stateShutDown
)

// Handle is the concurrency-safe control surface a caller (the HTTP control
// surface, a CLI command, a test) uses to start, retune, or stop a Miner
// without touching its internals.
type Handle struct {
	control chan controlSignal
}

// Start puts the miner into continuous mining mode, attempting a block
// once per interval. An interval of zero mines as fast as the CPU allows.
func (h Handle) Start(interval time.Duration) {
	h.control <- controlSignal{interval: interval}
}

// Pause suspends mining until Start is called again.
func (h Handle) Pause() {
	h.control <- controlSignal{interval: -1}
}

// Exit shuts the miner down permanently; it cannot be restarted.
func (h Handle) Exit() {
	h.control <- controlSignal{exit: true}
}

// Miner owns the mining goroutine's private state. It is never touched
// concurrently from outside; all external control flows through Handle.
type Miner struct {
	control     chan controlSignal
	stores      *store.Stores
	broadcaster network.Broadcaster
	beneficiary signature.H160
	ev          network.EventHandler

	state operatingState
	wait  time.Duration
}

// New constructs a miner bound to the node's stores. The returned Miner has
// not started its goroutine yet; call Run.
func New(stores *store.Stores, broadcaster network.Broadcaster, beneficiary signature.H160, ev network.EventHandler) (*Miner, Handle) {
	if ev == nil {
		ev = func(string, ...any) {}
	}
	ch := make(chan controlSignal)
	m := &Miner{
		control:     ch,
		stores:      stores,
		broadcaster: broadcaster,
		beneficiary: beneficiary,
		ev:          ev,
		state:       statePaused,
	}
	return m, Handle{control: ch}
}

// Run starts the mining loop in its own goroutine. It returns immediately;
// the loop exits when Exit is called on the associated Handle.
func (m *Miner) Run() {
	go m.loop()
	m.ev("miner: initialized into paused mode")
}

func (m *Miner) loop() {
	for {
		switch m.state {
		case statePaused:
			m.handleSignal(<-m.control)
			continue
		case stateShutDown:
			return
		default:
			select {
			case sig := <-m.control:
				m.handleSignal(sig)
			default:
			}
		}
		if m.state == stateShutDown {
			return
		}
		if m.state != stateRun {
			continue
		}

		m.attempt()

		if m.wait > 0 {
			time.Sleep(m.wait)
		}
	}
}

func (m *Miner) handleSignal(sig controlSignal) {
	switch {
	case sig.exit:
		m.ev("miner: shutting down")
		m.state = stateShutDown
	case sig.interval < 0:
		m.ev("miner: pausing")
		m.state = statePaused
	default:
		m.ev("miner: running with interval %s", sig.interval)
		m.state = stateRun
		m.wait = sig.interval
	}
}

// attempt runs one mining attempt end to end: assemble a candidate block
// under the store guard, hash it once, classify the outcome, and route it to the
// proposer chain or the transaction-block pool accordingly. A single
// attempt is one header hash, never an inner nonce-search loop — the node
// relies on attempt frequency and network-wide hash rate for difficulty,
// not on exhausting a nonce range per call.
func (m *Miner) attempt() {
	m.stores.Guard.Lock()
	defer m.stores.Guard.Unlock()

	tip := m.stores.Chain.Tip()
	parent, ok := m.stores.Chain.Get(tip)
	if !ok {
		return
	}
	tipState, _ := m.stores.States.Get(tip)

	content, txPointer := m.assembleContent(tipState)

	root := merkle.New(content).Root()

	header := chain.Header{
		Parent:       tip,
		DifficultyPr: parent.Header.DifficultyPr,
		DifficultyTx: parent.Header.DifficultyTx,
		MerkleRoot:   root,
		Nonce:        randomNonce(),
		Timestamp:    uint64(time.Now().Unix()),
	}

	b := chain.Block{Header: header, TxPointer: txPointer, Content: content}

	switch chain.Classify(header) {
	case chain.TierProposer:
		m.mineProposer(b, tipState)
	case chain.TierTxBlock:
		m.mineTxBlock(b)
	case chain.TierNone:
	}
}

// assembleContent selects pending transactions for the candidate block and
// the tx_pointer delta list carried forward from the tip. Every
// transaction-block hash already known locally but not yet
// applied at the tip is proposed as a delta; the miner itself does not
// originate new transaction blocks inline, mirroring the two-tier split
// where transaction-block mining and proposer-block mining are the same
// attempt classified two different ways.
func (m *Miner) assembleContent(tipState state.State) ([]chain.SignedTransaction, []hash.H256) {
	const maxTxPerBlock = 8

	txs := m.stores.TxPool.Select(maxTxPerBlock)

	var pointer []hash.H256
	for _, h := range m.stores.TxBlockPool.Ordered() {
		if !tipState.HasApplied(h) {
			pointer = append(pointer, h)
		}
	}

	return txs, pointer
}

// mineProposer handles a header that cleared the proposer-tier target: it
// derives the resulting state and, on success, inserts the block into the
// chain and broadcasts it.
func (m *Miner) mineProposer(b chain.Block, parentState state.State) {
	h := b.Hash()

	newState, err := state.Derive(parentState, b.TxPointer, m.stores.TxBlockPool.Get)
	if err != nil {
		m.ev("miner: mined proposer block %s failed state derivation: %v", h, err)
		return
	}
	if err := m.stores.Chain.Insert(b); err != nil {
		m.ev("miner: mined proposer block %s failed insert: %v", h, err)
		return
	}
	m.stores.States.Insert(h, newState)

	height, _ := m.stores.Chain.Height(h)
	m.ev("miner: mined proposer block %s at height %d", h, height)
	m.broadcaster.Broadcast(network.NewPrBlockHashes([]hash.H256{h}))
}

// mineTxBlock handles a header that cleared only the looser transaction-block
// target: the block is published into the transaction-block pool and its
// transactions are removed from the pending pool. This removal happens
// before the block is ever committed by a proposer block — a deliberately
// preserved quirk rather than a bug fix; see DESIGN.md.
func (m *Miner) mineTxBlock(b chain.Block) {
	h := b.Hash()

	m.stores.TxBlockPool.Insert(b)
	for _, stx := range b.Content {
		m.stores.TxPool.Remove(stx.Hash())
		m.stores.TxPool.RemoveBySenderNonce(stx.Sender(), stx.Tx.Nonce)
	}

	m.ev("miner: mined transaction block %s with %d transactions", h, len(b.Content))
	m.broadcaster.Broadcast(network.NewTxBlockHashes([]hash.H256{h}))
}

func randomNonce() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return uint32(time.Now().UnixNano())
	}
	return binary.BigEndian.Uint32(buf[:])
}

