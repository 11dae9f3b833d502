package cryptoutils

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrivkey(t *testing.T) []byte {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return crypto.FromECDSA(key)
}

func TestSignVerify(t *testing.T) {
	privkey := testPrivkey(t)
	pubkey, err := PublicKeyOf(privkey)
	require.NoError(t, err)
	require.Len(t, pubkey, CompressedPubkeyLength)

	msg := []byte("hello badges")
	sig, err := Sign(msg, privkey)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)

	assert.True(t, Verify(msg, pubkey, sig))
	assert.True(t, Verify(msg, pubkey, sig[:64]))
	assert.False(t, Verify([]byte("hello badgez"), pubkey, sig))

	tampered := append([]byte{}, sig...)
	tampered[10] ^= 0xff
	assert.False(t, Verify(msg, pubkey, tampered))

	otherPub, err := PublicKeyOf(testPrivkey(t))
	require.NoError(t, err)
	assert.False(t, Verify(msg, otherPub, sig))

	assert.False(t, Verify(msg, pubkey, sig[:10]))
	assert.False(t, Verify(msg, nil, sig))
	assert.False(t, Verify(msg, []byte{0x02, 0x01}, sig))
}

func TestInvalidPrivkey(t *testing.T) {
	_, err := PublicKeyOf(make([]byte, 32))
	assert.Error(t, err)

	_, err = Sign([]byte("msg"), []byte{1, 2, 3})
	assert.Error(t, err)
}

func TestAccountID(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	compressed := crypto.CompressPubkey(&key.PublicKey)
	uncompressed := crypto.FromECDSAPub(&key.PublicKey)

	fromCompressed, err := AccountIDFromPubkey(compressed)
	require.NoError(t, err)
	fromUncompressed, err := AccountIDFromPubkey(uncompressed)
	require.NoError(t, err)

	assert.Equal(t, fromCompressed, fromUncompressed)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Bytes(), fromCompressed[12:])

	_, err = AccountIDFromPubkey([]byte{0x01})
	assert.Error(t, err)
}

func TestRecoverAccount(t *testing.T) {
	privkey := testPrivkey(t)
	pubkey, err := PublicKeyOf(privkey)
	require.NoError(t, err)
	expected, err := AccountIDFromPubkey(pubkey)
	require.NoError(t, err)

	msg := []byte("caller message")
	sig, err := Sign(msg, privkey)
	require.NoError(t, err)

	recovered, err := RecoverAccount(msg, sig)
	require.NoError(t, err)
	assert.Equal(t, expected, recovered)

	other, err := RecoverAccount([]byte("other message"), sig)
	require.NoError(t, err)
	assert.NotEqual(t, expected, other)

	_, err = RecoverAccount(msg, sig[:64])
	assert.ErrorIs(t, err, ErrInvalidSignatureLength)
}
