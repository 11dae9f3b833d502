package kms

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/hkdf"
)

const derivationInfo = "badge-oracle secp256k1 key"

var (
	ErrMasterKeyTooShort = errors.New("master key must be at least 32 bytes")
	ErrDerivationFailed  = errors.New("could not derive a valid secp256k1 key")
)

// SimpleKMS derives keys from a master key, one key per salt.
type SimpleKMS struct {
	masterKey []byte
}

// NewSimpleKMS creates a new instance with the provided master key.
// The master key must be at least 32 bytes long.
func NewSimpleKMS(masterKey []byte) (*SimpleKMS, error) {
	if len(masterKey) < 32 {
		return nil, ErrMasterKeyTooShort
	}

	k := &SimpleKMS{masterKey: make([]byte, len(masterKey))}
	copy(k.masterKey, masterKey)
	return k, nil
}

// NewSimpleKMSFromHex parses a hex-encoded master key, with or without 0x prefix.
func NewSimpleKMSFromHex(masterKeyHex string) (*SimpleKMS, error) {
	masterKey, err := hex.DecodeString(strings.TrimPrefix(masterKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid master key: %w", err)
	}
	return NewSimpleKMS(masterKey)
}

// NewRandomSimpleKMS creates an instance with a fresh random master key.
// Keys derived from it do not survive a restart.
func NewRandomSimpleKMS() (*SimpleKMS, error) {
	masterKey := make([]byte, 32)
	if _, err := rand.Read(masterKey); err != nil {
		return nil, fmt.Errorf("could not generate master key: %w", err)
	}
	return NewSimpleKMS(masterKey)
}

// DeriveKey returns the raw 32-byte secp256k1 private key for salt.
// Candidates are read from HKDF-SHA256(masterKey, salt) until one is a
// valid scalar.
func (k *SimpleKMS) DeriveKey(salt []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, k.masterKey, salt, []byte(derivationInfo))

	candidate := make([]byte, 32)
	for {
		if _, err := io.ReadFull(reader, candidate); err != nil {
			// hkdf output is exhausted after 255 blocks
			return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
		}
		if _, err := crypto.ToECDSA(candidate); err == nil {
			return candidate, nil
		}
	}
}
