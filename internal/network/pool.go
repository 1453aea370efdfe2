package network

import (
	"context"

	"github.com/denny1997/go-prism-node/internal/chain"
	"github.com/denny1997/go-prism-node/internal/hash"
	"github.com/denny1997/go-prism-node/internal/state"
	"github.com/denny1997/go-prism-node/internal/store"
)

// Pool is the network worker pool: a fixed number of goroutines that share
// one inbound message channel. Each message is handled start-to-finish
// under the bundled store lock before the worker goes back to receiving,
// so processing within one worker is strictly serial and two workers
// never interleave mutations of the shared stores.
type Pool struct {
	Inbound     chan Inbound
	NumWorkers  int
	stores      *store.Stores
	broadcaster Broadcaster
	orphans     *OrphanBuffer
	ev          EventHandler
}

// NewPool constructs a worker pool of n goroutines over the given stores.
func NewPool(n int, stores *store.Stores, broadcaster Broadcaster, ev EventHandler) *Pool {
	if ev == nil {
		ev = func(string, ...any) {}
	}
	return &Pool{
		Inbound:     make(chan Inbound, 256),
		NumWorkers:  n,
		stores:      stores,
		broadcaster: broadcaster,
		orphans:     NewOrphanBuffer(),
		ev:          ev,
	}
}

// Start launches the worker goroutines. Each suspends on Inbound receive
// until ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.NumWorkers; i++ {
		go p.workerLoop(ctx)
	}
}

func (p *Pool) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-p.Inbound:
			p.handle(in)
		}
	}
}

func (p *Pool) handle(in Inbound) {
	p.stores.Guard.Lock()
	defer p.stores.Guard.Unlock()

	switch in.Msg.Kind {
	case KindPing:
		p.ev("network: ping: %s", in.Msg.Nonce)
		in.From.Send(Pong(in.Msg.Nonce))

	case KindPong:
		p.ev("network: pong: %s", in.Msg.Nonce)

	case KindNewTransactionHashes:
		var unknown []hash.H256
		for _, h := range in.Msg.Hashes {
			if !p.stores.TxPool.Has(h) {
				unknown = append(unknown, h)
			}
		}
		if len(unknown) > 0 {
			in.From.Send(GetTransactions(unknown))
		}

	case KindGetTransactions:
		var known []chain.SignedTransaction
		for _, h := range in.Msg.Hashes {
			if tx, ok := p.stores.TxPool.Get(h); ok {
				known = append(known, tx)
			}
		}
		if len(known) > 0 {
			in.From.Send(Transactions(known))
		}

	case KindTransactions:
		p.ingestTransactions(in.Msg.Txs)

	case KindNewTxBlockHashes:
		var unknown []hash.H256
		for _, h := range in.Msg.Hashes {
			if !p.stores.TxBlockPool.Has(h) {
				unknown = append(unknown, h)
			}
		}
		if len(unknown) > 0 {
			in.From.Send(GetTxBlocks(unknown))
		}

	case KindGetTxBlocks:
		var known []chain.Block
		for _, h := range in.Msg.Hashes {
			if b, ok := p.stores.TxBlockPool.Get(h); ok {
				known = append(known, b)
			}
		}
		if len(known) > 0 {
			in.From.Send(TxBlocks(known))
		}

	case KindTxBlocks:
		p.ingestTxBlocks(in.Msg.Blocks)

	case KindNewPrBlockHashes:
		var unknown []hash.H256
		for _, h := range in.Msg.Hashes {
			if !p.stores.Chain.Has(h) {
				unknown = append(unknown, h)
			}
		}
		if len(unknown) > 0 {
			in.From.Send(GetPrBlocks(unknown))
		}

	case KindGetPrBlocks:
		var known []chain.Block
		for _, h := range in.Msg.Hashes {
			if b, ok := p.stores.Chain.Get(h); ok {
				known = append(known, b)
			}
		}
		if len(known) > 0 {
			in.From.Send(PrBlocks(known))
		}

	case KindPrBlocks:
		p.ingestPrBlocks(in.Msg.Blocks)
	}
}

// ingestTransactions handles an incoming Transactions message:
// signature-check, then bootstrap-or-spend-check against the tip state,
// accepting into the mempool on success.
func (p *Pool) ingestTransactions(txs []chain.SignedTransaction) {
	var accepted []hash.H256

	tip := p.stores.Chain.Tip()
	tipState, _ := p.stores.States.Get(tip)

	for _, tx := range txs {
		h := tx.Hash()
		if p.stores.TxPool.Has(h) {
			continue
		}
		if !tx.VerifySignature() {
			p.ev("network: transaction %s: invalid signature", h)
			continue
		}

		sender := tx.Sender()
		acc, known := tipState.Accounts[sender]
		switch {
		case !known:
			if tx.Tx.Value > state.BootstrapBalance {
				p.ev("network: transaction %s: unknown sender over bootstrap ceiling", h)
				continue
			}
		default:
			if !(acc.Nonce < tx.Tx.Nonce && acc.Balance >= tx.Tx.Value) {
				p.ev("network: transaction %s: failed spend check", h)
				continue
			}
		}

		p.stores.TxPool.Insert(tx)
		accepted = append(accepted, h)
	}

	if len(accepted) > 0 {
		p.broadcaster.Broadcast(NewTransactionHashes(accepted))
	}
}

// ingestTxBlocks validates and accepts incoming transaction blocks.
func (p *Pool) ingestTxBlocks(blocks []chain.Block) {
	var accepted []hash.H256

	for _, b := range blocks {
		h := b.Hash()

		if !h.LessOrEqual(b.Header.DifficultyTx) {
			p.ev("network: tx block %s: failed PoW check", h)
			continue
		}
		if p.stores.TxBlockPool.Has(h) {
			continue
		}
		parent, ok := p.stores.Chain.Get(b.Header.Parent)
		if !ok {
			p.ev("network: tx block %s: parent unknown, dropping", h)
			continue
		}
		if parent.Header.DifficultyPr != b.Header.DifficultyPr || parent.Header.DifficultyTx != b.Header.DifficultyTx {
			p.ev("network: tx block %s: difficulty mismatch with parent", h)
			continue
		}

		valid := true
		for _, stx := range b.Content {
			if !stx.VerifySignature() {
				valid = false
				break
			}
		}
		if !valid {
			p.ev("network: tx block %s: invalid transaction signature", h)
			continue
		}

		p.stores.TxBlockPool.Insert(b)
		for _, stx := range b.Content {
			p.stores.TxPool.Remove(stx.Hash())
			p.stores.TxPool.RemoveBySenderNonce(stx.Sender(), stx.Tx.Nonce)
		}
		accepted = append(accepted, h)
	}

	if len(accepted) > 0 {
		p.broadcaster.Broadcast(NewTxBlockHashes(accepted))
	}
}

// ingestPrBlocks validates and accepts incoming proposer blocks, including
// draining any buffered orphans the new block unblocks.
func (p *Pool) ingestPrBlocks(blocks []chain.Block) {
	var broadcastHashes []hash.H256

	for _, b := range blocks {
		h, ok := p.tryAcceptProposer(b)
		if !ok {
			continue
		}
		broadcastHashes = append(broadcastHashes, h)
		broadcastHashes = append(broadcastHashes, p.drainOrphans(h)...)
	}

	if len(broadcastHashes) > 0 {
		p.broadcaster.Broadcast(NewPrBlockHashes(broadcastHashes))
	}
}

// tryAcceptProposer validates a single proposer block end to end: PoW,
// dedup, parent presence, difficulty match, and state derivation. It
// returns the block's hash and true on acceptance; on an orphan
// it buffers the block and returns false without error (gossip will
// eventually deliver the parent).
func (p *Pool) tryAcceptProposer(b chain.Block) (hash.H256, bool) {
	h := b.Hash()

	if !h.LessOrEqual(b.Header.DifficultyPr) {
		p.ev("network: proposer block %s: failed PoW check", h)
		return hash.H256{}, false
	}
	if p.stores.Chain.Has(h) {
		return hash.H256{}, false
	}

	parent, ok := p.stores.Chain.Get(b.Header.Parent)
	if !ok {
		p.ev("network: proposer block %s: parent unknown, buffering as orphan", h)
		p.orphans.Insert(b.Header.Parent, b)
		return hash.H256{}, false
	}

	if parent.Header.DifficultyPr != b.Header.DifficultyPr || parent.Header.DifficultyTx != b.Header.DifficultyTx {
		p.ev("network: proposer block %s: difficulty mismatch with parent", h)
		return hash.H256{}, false
	}

	parentState, _ := p.stores.States.Get(b.Header.Parent)
	newState, err := state.Derive(parentState, b.TxPointer, p.txBlockLookup)
	if err != nil {
		p.ev("network: proposer block %s: state derivation failed: %v", h, err)
		return hash.H256{}, false
	}

	if err := p.stores.Chain.Insert(b); err != nil {
		p.ev("network: proposer block %s: insert failed: %v", h, err)
		return hash.H256{}, false
	}
	p.stores.States.Insert(h, newState)

	return h, true
}

// drainOrphans walks the one-child-per-parent orphan chain that a newly
// accepted block may unblock, accepting each in turn until the chain ends
// or a mismatch breaks it.
func (p *Pool) drainOrphans(parent hash.H256) []hash.H256 {
	var accepted []hash.H256

	cursor := parent
	for {
		orphan, ok := p.orphans.Get(cursor)
		if !ok {
			break
		}

		justInserted, _ := p.stores.Chain.Get(cursor)
		if justInserted.Header.DifficultyPr != orphan.Header.DifficultyPr ||
			justInserted.Header.DifficultyTx != orphan.Header.DifficultyTx {
			break
		}

		h, ok := p.tryAcceptProposer(orphan)
		if !ok {
			break
		}
		p.orphans.Delete(cursor)
		accepted = append(accepted, h)
		cursor = h
	}

	return accepted
}

func (p *Pool) txBlockLookup(h hash.H256) (chain.Block, bool) {
	return p.stores.TxBlockPool.Get(h)
}

// OrphanCount exposes the current orphan-buffer size, useful for node
// status reporting.
func (p *Pool) OrphanCount() int {
	return p.orphans.Len()
}
