package attestation

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// Encode returns the canonical encoding of a payload.
func Encode(payload any) ([]byte, error) {
	data, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("could not encode payload: %w", err)
	}
	return data, nil
}

// Decode decodes data into v. Trailing bytes and size mismatches are errors.
func Decode(data []byte, v any) error {
	if err := rlp.DecodeBytes(data, v); err != nil {
		return fmt.Errorf("could not decode payload: %w", err)
	}
	return nil
}

// Empty is the payload signed by oracles that attest nothing but their own liveness.
type Empty struct{}
