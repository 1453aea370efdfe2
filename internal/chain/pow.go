package chain

import "github.com/denny1997/go-prism-node/internal/hash"

// Tier classifies the outcome of a single mining attempt.
type Tier int

const (
	// TierNone means the hash cleared neither target; the attempt is discarded.
	TierNone Tier = iota
	// TierTxBlock means the hash cleared the (looser) transaction target.
	TierTxBlock
	// TierProposer means the hash cleared the (stricter) proposer target.
	TierProposer
)

// Classify returns which tier a mined header's hash falls into. Because
// DifficultyPr < DifficultyTx is a header invariant, any hash clearing the
// proposer target also clears the transaction target; the proposer check
// runs first, which is what makes the returned tiers disjoint.
func Classify(h Header) Tier {
	blockHash := h.Hash()
	switch {
	case blockHash.LessOrEqual(h.DifficultyPr):
		return TierProposer
	case blockHash.LessOrEqual(h.DifficultyTx):
		return TierTxBlock
	default:
		return TierNone
	}
}

// buildDifficulty constructs a 32-byte target whose leading bytes are given
// explicitly and whose remaining bytes are 0xFF: the operative genesis
// targets begin 00 01 FF FF… for the proposer tier and 00 10 FF FF… for
// the transaction tier.
func buildDifficulty(lead ...byte) hash.H256 {
	var d hash.H256
	for i := range d {
		d[i] = 0xFF
	}
	copy(d[:], lead)
	return d
}

// GenesisDifficultyPr is the operative default proposer target.
func GenesisDifficultyPr() hash.H256 {
	return buildDifficulty(0x00, 0x01)
}

// GenesisDifficultyTx is the operative default transaction target.
func GenesisDifficultyTx() hash.H256 {
	return buildDifficulty(0x00, 0x10)
}
