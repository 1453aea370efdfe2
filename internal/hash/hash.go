// Package hash implements the 256-bit content hash used throughout the
// ledger: block headers, transactions and Merkle nodes are all identified
// by the SHA-256 digest of their canonical byte encoding.
package hash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/denny1997/go-prism-node/internal/encode"
)

// H256 is a 32-byte content hash. Ordering is byte-lexicographic
// big-endian: a value satisfies a difficulty target D iff it is <= D when
// compared as equal-length byte strings.
type H256 [32]byte

// ZeroHash is the all-zero sentinel hash tested for by IsZero.
var ZeroHash H256

// Hashable is implemented by anything that can be content-addressed.
type Hashable interface {
	Hash() H256
}

// Of computes the canonical SHA-256 hash of v.
func Of(v any) (H256, error) {
	b, err := encode.Canonical(v)
	if err != nil {
		return H256{}, err
	}
	return FromBytes(b), nil
}

// FromBytes hashes a raw byte slice directly (no canonical encoding step).
func FromBytes(b []byte) H256 {
	return sha256.Sum256(b)
}

// Bytes returns the hash as a byte slice.
func (h H256) Bytes() []byte {
	return h[:]
}

// String renders the hash as a 0x-prefixed hex string.
func (h H256) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Less reports whether h is strictly less than o under byte-lexicographic
// big-endian ordering.
func (h H256) Less(o H256) bool {
	return bytes.Compare(h[:], o[:]) < 0
}

// LessOrEqual reports whether h satisfies the PoW target o, i.e. h <= o.
func (h H256) LessOrEqual(o H256) bool {
	return bytes.Compare(h[:], o[:]) <= 0
}

// IsZero reports whether h is the all-zero sentinel.
func (h H256) IsZero() bool {
	return h == ZeroHash
}

// HashFromHex parses a 0x-prefixed (or bare) hex string into an H256.
func HashFromHex(s string) (H256, error) {
	if len(s) >= 2 && s[0:2] == "0x" {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return H256{}, err
	}
	if len(b) != 32 {
		return H256{}, fmt.Errorf("hash: expected 32 bytes, got %d", len(b))
	}
	var h H256
	copy(h[:], b)
	return h, nil
}

// MarshalText/UnmarshalText make H256 behave well as a JSON map key/value
// for the HTTP control surface.
func (h H256) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *H256) UnmarshalText(text []byte) error {
	v, err := HashFromHex(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}
