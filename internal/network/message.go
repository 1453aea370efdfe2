// Package network implements the gossip state machine: the worker pool
// that validates inbound messages, mutates the shared stores, re-broadcasts
// novel hashes, and buffers orphan proposer blocks pending parent arrival.
package network

import (
	"github.com/denny1997/go-prism-node/internal/chain"
	"github.com/denny1997/go-prism-node/internal/hash"
)

// Kind tags which of the eleven wire variants a Message carries.
type Kind byte

const (
	KindPing Kind = iota
	KindPong
	KindNewPrBlockHashes
	KindGetPrBlocks
	KindPrBlocks
	KindNewTxBlockHashes
	KindGetTxBlocks
	KindTxBlocks
	KindNewTransactionHashes
	KindGetTransactions
	KindTransactions
)

// Message is the tagged union the wire protocol carries. Only the fields
// relevant to Kind are populated; internal/transport frames and decodes
// these via internal/encode's canonical codec.
type Message struct {
	Kind   Kind                      `codec:"kind"`
	Nonce  string                    `codec:"nonce,omitempty"`
	Hashes []hash.H256               `codec:"hashes,omitempty"`
	Blocks []chain.Block             `codec:"blocks,omitempty"`
	Txs    []chain.SignedTransaction `codec:"txs,omitempty"`
}

func Ping(nonce string) Message                { return Message{Kind: KindPing, Nonce: nonce} }
func Pong(nonce string) Message                { return Message{Kind: KindPong, Nonce: nonce} }
func NewPrBlockHashes(h []hash.H256) Message   { return Message{Kind: KindNewPrBlockHashes, Hashes: h} }
func GetPrBlocks(h []hash.H256) Message        { return Message{Kind: KindGetPrBlocks, Hashes: h} }
func PrBlocks(b []chain.Block) Message         { return Message{Kind: KindPrBlocks, Blocks: b} }
func NewTxBlockHashes(h []hash.H256) Message   { return Message{Kind: KindNewTxBlockHashes, Hashes: h} }
func GetTxBlocks(h []hash.H256) Message        { return Message{Kind: KindGetTxBlocks, Hashes: h} }
func TxBlocks(b []chain.Block) Message         { return Message{Kind: KindTxBlocks, Blocks: b} }
func NewTransactionHashes(h []hash.H256) Message {
	return Message{Kind: KindNewTransactionHashes, Hashes: h}
}
func GetTransactions(h []hash.H256) Message { return Message{Kind: KindGetTransactions, Hashes: h} }
func Transactions(t []chain.SignedTransaction) Message {
	return Message{Kind: KindTransactions, Txs: t}
}

// Peer is the narrow reply capability a worker needs: send a message back
// to whoever delivered the inbound one. internal/transport provides a
// minimal TCP-backed implementation for the runnable demo.
type Peer interface {
	Send(Message)
}

// Broadcaster fans a message out to every other known peer. The miner and
// the worker pool both depend only on this interface.
type Broadcaster interface {
	Broadcast(Message)
}

// Inbound pairs a decoded message with the peer that delivered it.
type Inbound struct {
	Msg  Message
	From Peer
}

// EventHandler is called for logging/drop-reason visibility.
type EventHandler func(v string, args ...any)
