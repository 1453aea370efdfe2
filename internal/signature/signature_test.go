package signature

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Recipient H160
	Value     uint32
	Nonce     uint32
}

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	msg := payload{Value: 7, Nonce: 1}
	sig, err := kp.Sign(msg)
	require.NoError(t, err)

	assert.True(t, Verify(msg, kp.Public, sig))
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	msg := payload{Value: 7, Nonce: 1}
	sig, err := kp.Sign(msg)
	require.NoError(t, err)

	tampered := payload{Value: 8, Nonce: 1}
	assert.False(t, Verify(tampered, kp.Public, sig))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	kp1, err := GenerateKeyPair()
	require.NoError(t, err)
	kp2, err := GenerateKeyPair()
	require.NoError(t, err)

	msg := payload{Value: 7, Nonce: 1}
	sig, err := kp1.Sign(msg)
	require.NoError(t, err)

	assert.False(t, Verify(msg, kp2.Public, sig))
}

func TestKeyPairFromSeedIsDeterministic(t *testing.T) {
	seed := make([]byte, 32)
	seed[0] = 9

	kp1 := KeyPairFromSeed(seed)
	kp2 := KeyPairFromSeed(seed)

	assert.Equal(t, kp1.Address(), kp2.Address())
	assert.Equal(t, kp1.Public, kp2.Public)
}

func TestAddressOfIsTrailing20BytesOfSHA256(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	a := AddressOf(kp.Public)
	assert.Equal(t, a, kp.Address())

	digest := sha256.Sum256(kp.Public)
	assert.Equal(t, digest[len(digest)-20:], a[:])
}
