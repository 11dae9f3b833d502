package clients

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/badge-oracle/cryptoutils"
	"github.com/ruteri/badge-oracle/interfaces"
)

// CallerKey signs requests with a user's secp256k1 key.
type CallerKey struct {
	key *ecdsa.PrivateKey
}

// NewCallerKeyFromHex parses a hex private key, with or without 0x prefix.
func NewCallerKeyFromHex(privkeyHex string) (*CallerKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(privkeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid caller key: %w", err)
	}
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid caller key: %w", err)
	}
	return &CallerKey{key: key}, nil
}

// GenerateCallerKey creates a fresh random key.
func GenerateCallerKey() (*CallerKey, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &CallerKey{key: key}, nil
}

func (k *CallerKey) SignRequest(msg []byte) ([]byte, error) {
	return cryptoutils.SignWithKey(msg, k.key)
}

func (k *CallerKey) Account() interfaces.AccountID {
	return cryptoutils.AccountIDFromKey(&k.key.PublicKey)
}

// Hex returns the private key encoding accepted by NewCallerKeyFromHex.
func (k *CallerKey) Hex() string {
	return hex.EncodeToString(crypto.FromECDSA(k.key))
}

func (k *CallerKey) String() string {
	return "clients.CallerKey{" + k.Account().String() + "}"
}
