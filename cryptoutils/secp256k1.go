package cryptoutils

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/badge-oracle/interfaces"
)

const (
	// SignatureLength is the length of a recoverable signature.
	SignatureLength = crypto.SignatureLength
	// CompressedPubkeyLength is the length of a compressed public key.
	CompressedPubkeyLength = 33
)

var ErrInvalidSignatureLength = errors.New("invalid signature length")

// PublicKeyOf returns the compressed public key of a raw 32-byte private key.
func PublicKeyOf(privkey []byte) ([]byte, error) {
	key, err := crypto.ToECDSA(privkey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return crypto.CompressPubkey(&key.PublicKey), nil
}

// Sign signs keccak256(message) with a raw private key.
func Sign(message []byte, privkey []byte) ([]byte, error) {
	key, err := crypto.ToECDSA(privkey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return SignWithKey(message, key)
}

// SignWithKey signs keccak256(message) with a parsed private key.
func SignWithKey(message []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(crypto.Keccak256(message), key)
	if err != nil {
		return nil, fmt.Errorf("could not sign: %w", err)
	}
	return sig, nil
}

// Verify reports whether signature is a valid signature of message by pubkey.
// Malformed inputs are reported as an invalid signature.
func Verify(message []byte, pubkey []byte, signature []byte) bool {
	if len(signature) != SignatureLength && len(signature) != SignatureLength-1 {
		return false
	}
	if len(pubkey) == 0 {
		return false
	}
	return crypto.VerifySignature(pubkey, crypto.Keccak256(message), signature[:SignatureLength-1])
}

// AccountIDFromPubkey derives the account identifier of a compressed or
// uncompressed public key.
func AccountIDFromPubkey(pubkey []byte) (interfaces.AccountID, error) {
	var (
		key *ecdsa.PublicKey
		err error
	)
	switch len(pubkey) {
	case CompressedPubkeyLength:
		key, err = crypto.DecompressPubkey(pubkey)
	default:
		key, err = crypto.UnmarshalPubkey(pubkey)
	}
	if err != nil {
		return interfaces.AccountID{}, fmt.Errorf("invalid public key: %w", err)
	}
	return AccountIDFromKey(key), nil
}

// AccountIDFromKey derives the account identifier of a parsed public key.
func AccountIDFromKey(key *ecdsa.PublicKey) interfaces.AccountID {
	return interfaces.AccountID(crypto.Keccak256Hash(crypto.FromECDSAPub(key)[1:]))
}

// RecoverAccount returns the account of the key that produced signature over message.
func RecoverAccount(message []byte, signature []byte) (interfaces.AccountID, error) {
	if len(signature) != SignatureLength {
		return interfaces.AccountID{}, ErrInvalidSignatureLength
	}
	pub, err := crypto.SigToPub(crypto.Keccak256(message), signature)
	if err != nil {
		return interfaces.AccountID{}, fmt.Errorf("could not recover signer: %w", err)
	}
	return AccountIDFromKey(pub), nil
}
