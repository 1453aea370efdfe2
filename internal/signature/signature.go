// Package signature implements account addresses and Ed25519 signing for
// the ledger. Addresses are derived from a public key by hashing it and
// keeping a fixed-size tail of the digest: here SHA-256 (per the ledger's
// H256 primitive) truncated to its trailing 20 bytes, rather than an
// ECDSA-keyed Keccak checksum-cased hex string.
package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/denny1997/go-prism-node/internal/encode"
)

// H160 is a 20-byte account address.
type H160 [20]byte

// ZeroAddress is the sentinel for "no address".
var ZeroAddress H160

// AddressOf derives the 20-byte address committed to by a public key
// buffer: SHA-256 the buffer and keep the last 20 bytes of the digest.
func AddressOf(publicKey []byte) H160 {
	digest := sha256.Sum256(publicKey)
	var a H160
	copy(a[:], digest[len(digest)-20:])
	return a
}

// String renders the address the way the node logs it: the trailing-20-byte
// UTF-8 projection. Non-printable bytes fall back to hex so logs never
// emit raw control characters.
func (a H160) String() string {
	for _, b := range a {
		if b < 0x20 || b > 0x7e {
			return "0x" + hex.EncodeToString(a[:])
		}
	}
	return string(a[:])
}

func (a H160) Bytes() []byte { return a[:] }

func (a H160) MarshalText() ([]byte, error) {
	return []byte("0x" + hex.EncodeToString(a[:])), nil
}

func (a *H160) UnmarshalText(text []byte) error {
	s := string(text)
	if len(s) >= 2 && s[0:2] == "0x" {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != 20 {
		return errors.New("signature: address must be 20 bytes")
	}
	copy(a[:], b)
	return nil
}

// KeyPair is a deterministic (for the demo keyring) or random Ed25519 key
// pair.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateKeyPair produces a fresh random Ed25519 key pair, used by the
// keygen CLI tool to produce wallet/operator key material.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Public: pub, Private: priv}, nil
}

// KeyPairFromSeed builds a deterministic key pair from a 32-byte seed, used
// by the transaction generator's fixed demo keyring.
func KeyPairFromSeed(seed []byte) KeyPair {
	priv := ed25519.NewKeyFromSeed(seed)
	return KeyPair{
		Public:  priv.Public().(ed25519.PublicKey),
		Private: priv,
	}
}

// Address returns the account address committed to by the key pair's public
// key.
func (k KeyPair) Address() H160 {
	return AddressOf(k.Public)
}

// Sign produces a raw Ed25519 signature over the canonical encoding of v.
func (k KeyPair) Sign(v any) ([]byte, error) {
	b, err := encode.Canonical(v)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(k.Private, b), nil
}

// Verify checks a raw Ed25519 signature over the canonical encoding of v
// against the given raw public key bytes.
func Verify(v any, publicKey, sig []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	b, err := encode.Canonical(v)
	if err != nil {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), b, sig)
}
