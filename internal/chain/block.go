// Package chain implements the block/header data model, the two-difficulty
// proof-of-work classification and the longest-tip blockchain store.
package chain

import (
	"github.com/denny1997/go-prism-node/internal/hash"
	"github.com/denny1997/go-prism-node/internal/signature"
)

// Transaction is a single value transfer.
type Transaction struct {
	Recipient signature.H160 `codec:"recipient"`
	Value     uint32         `codec:"value"`
	Nonce     uint32         `codec:"nonce"`
}

// Hash satisfies hash.Hashable.
func (t Transaction) Hash() hash.H256 {
	h, err := hash.Of(t)
	if err != nil {
		panic(err)
	}
	return h
}

// SignedTransaction pairs a Transaction with the Ed25519 signature and raw
// public key that authorized it. Hash is the SHA-256 of the canonical
// encoding of all three fields.
type SignedTransaction struct {
	Signature []byte      `codec:"signature"`
	PublicKey []byte      `codec:"public_key"`
	Tx        Transaction `codec:"transaction"`
}

// Hash satisfies hash.Hashable.
func (t SignedTransaction) Hash() hash.H256 {
	h, err := hash.Of(t)
	if err != nil {
		panic(err)
	}
	return h
}

// Sender returns the address derived from the signer's raw public key.
func (t SignedTransaction) Sender() signature.H160 {
	return signature.AddressOf(t.PublicKey)
}

// VerifySignature checks the Ed25519 signature over the canonical encoding
// of t.Tx against t.PublicKey.
func (t SignedTransaction) VerifySignature() bool {
	return signature.Verify(t.Tx, t.PublicKey, t.Signature)
}

// Header commits the parent block, the two difficulty targets, the PoW
// nonce, the mining timestamp and the Merkle root of the block's content.
// Invariant: DifficultyPr < DifficultyTx.
type Header struct {
	Parent       hash.H256 `codec:"parent"`
	Nonce        uint32    `codec:"nonce"`
	DifficultyPr hash.H256 `codec:"difficulty_pr"`
	DifficultyTx hash.H256 `codec:"difficulty_tx"`
	Timestamp    uint64    `codec:"timestamp"`
	MerkleRoot   hash.H256 `codec:"merkle_root"`
}

// Hash returns the block hash: the hash of the header alone. Content is
// committed only indirectly through MerkleRoot, and tx_pointer is not
// covered by the root at all; that behaviour is a deliberate
// open question preserved here rather than silently fixed — see DESIGN.md.
func (h Header) Hash() hash.H256 {
	v, err := hash.Of(h)
	if err != nil {
		panic(err)
	}
	return v
}

// Block is a mined block: its header, the ordered list of transaction-block
// hashes it commits to (only meaningful for proposer blocks), and its
// signed transaction content (only meaningful for transaction blocks).
type Block struct {
	Header    Header
	TxPointer []hash.H256
	Content   []SignedTransaction
}

// Hash returns the block's content-address: its header hash.
func (b Block) Hash() hash.H256 {
	return b.Header.Hash()
}
