// Package state implements per-block account state derivation: the ordered
// replay of transaction blocks committed by a proposer block's tx_pointer
// list, producing an immutable State snapshot keyed by block hash.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/denny1997/go-prism-node/internal/chain"
	"github.com/denny1997/go-prism-node/internal/hash"
	"github.com/denny1997/go-prism-node/internal/signature"
)

// BootstrapBalance is the fixed starting balance credited to a previously
// unseen address the first time it is referenced as a sender or recipient.
const BootstrapBalance = 1000

// ErrInvalidSignature is returned by Derive when any transaction in a
// referenced transaction block carries an invalid signature; this rejects
// the whole proposer block being processed.
var ErrInvalidSignature = errors.New("state: invalid transaction signature")

// Account holds a sender's replay-protection nonce and current balance.
type Account struct {
	Nonce   uint32
	Balance uint32
}

// State is an immutable account-balance snapshot plus the ordered list of
// transaction-block hashes already folded into it. A State is never
// mutated in place after being stored; Derive always produces a new one.
type State struct {
	Accounts        map[signature.H160]Account
	AppliedTxBlocks []hash.H256
}

// Empty returns the zero-value state used at genesis.
func Empty() State {
	return State{Accounts: map[signature.H160]Account{}}
}

// Clone deep-copies a State so the original is never mutated by Derive.
func (s State) Clone() State {
	accounts := make(map[signature.H160]Account, len(s.Accounts))
	for k, v := range s.Accounts {
		accounts[k] = v
	}
	applied := make([]hash.H256, len(s.AppliedTxBlocks))
	copy(applied, s.AppliedTxBlocks)
	return State{Accounts: accounts, AppliedTxBlocks: applied}
}

// HasApplied reports whether a transaction-block hash has already been
// folded into this state.
func (s State) HasApplied(h hash.H256) bool {
	for _, a := range s.AppliedTxBlocks {
		if a == h {
			return true
		}
	}
	return false
}

// TxBlockLookup resolves a transaction-block hash to its known block
// content, as held by the local transaction-block mempool.
type TxBlockLookup func(hash.H256) (chain.Block, bool)

// candidate is a transaction that passed the scan-phase bootstrap and
// signature checks against the state at proposer-block entry.
type candidate struct {
	sender    signature.H160
	recipient signature.H160
	value     uint32
	nonce     uint32
}

// Derive computes the new State for a proposer block given its parent
// state and its tx_pointer delta list, via a two-phase algorithm:
//
//  1. Scan: walk the delta list in order, skipping tx blocks already
//     applied in the parent. Every transaction in every newly-applied tx
//     block is signature-checked (an invalid signature rejects the whole
//     proposer block) and has its sender/recipient bootstrapped to the
//     fixed starting balance if unseen. Transactions whose spend check
//     passes against the *entry* state are collected as candidates.
//  2. Apply: candidates are applied atomically in order against the
//     *running* state, re-checking the spend predicate immediately before
//     each debit. This is what makes two same-nonce transactions from one
//     sender in a single batch behave correctly — only the first clears —
//     while still honoring the requirement that acceptance into the
//     candidate list is judged against the state at batch entry, not
//     against partially-applied peers. See DESIGN.md for why both phases
//     are needed to keep the "balance never negative" invariant while
//     reproducing this two-phase design.
func Derive(parent State, deltas []hash.H256, lookup TxBlockLookup) (State, error) {
	s := parent.Clone()

	var candidates []candidate

	for _, tp := range deltas {
		if s.HasApplied(tp) {
			continue
		}
		s.AppliedTxBlocks = append(s.AppliedTxBlocks, tp)

		block, ok := lookup(tp)
		if !ok {
			return State{}, fmt.Errorf("state: unknown tx block %s referenced by tx_pointer", tp)
		}

		for _, stx := range block.Content {
			if !stx.VerifySignature() {
				return State{}, ErrInvalidSignature
			}

			sender := stx.Sender()
			recipient := stx.Tx.Recipient

			bootstrap(s.Accounts, sender)
			bootstrap(s.Accounts, recipient)

			acc := s.Accounts[sender]
			if acc.Nonce < stx.Tx.Nonce && acc.Balance >= stx.Tx.Value {
				candidates = append(candidates, candidate{
					sender:    sender,
					recipient: recipient,
					value:     stx.Tx.Value,
					nonce:     stx.Tx.Nonce,
				})
			}
		}
	}

	for _, c := range candidates {
		acc := s.Accounts[c.sender]
		if !(acc.Nonce < c.nonce && acc.Balance >= c.value) {
			continue
		}
		acc.Balance -= c.value
		acc.Nonce++
		s.Accounts[c.sender] = acc

		racc := s.Accounts[c.recipient]
		racc.Balance += c.value
		s.Accounts[c.recipient] = racc
	}

	return s, nil
}

func bootstrap(accounts map[signature.H160]Account, addr signature.H160) {
	if _, ok := accounts[addr]; !ok {
		accounts[addr] = Account{Nonce: 0, Balance: BootstrapBalance}
	}
}

// =============================================================================

// PerBlock maps every block hash in the chain store to its derived State.
// Every block hash present in the chain store must also have an entry
// here; genesis maps to Empty().
type PerBlock struct {
	mu     sync.RWMutex
	states map[hash.H256]State
}

// NewPerBlock constructs the state index seeded with the genesis block's
// empty state.
func NewPerBlock(genesisHash hash.H256) *PerBlock {
	return &PerBlock{
		states: map[hash.H256]State{genesisHash: Empty()},
	}
}

// Get returns the stored state for a block hash.
func (p *PerBlock) Get(h hash.H256) (State, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.states[h]
	return s, ok
}

// Insert records the state for a newly-accepted block hash.
func (p *PerBlock) Insert(h hash.H256, s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states[h] = s
}

// Has reports whether a block hash already has a recorded state.
func (p *PerBlock) Has(h hash.H256) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.states[h]
	return ok
}
