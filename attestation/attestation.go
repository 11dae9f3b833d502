package attestation

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ruteri/badge-oracle/cryptoutils"
	"github.com/ruteri/badge-oracle/interfaces"
)

// Attestation is a signed, encoded claim payload.
type Attestation struct {
	Data      []byte `json:"data"`
	Signature []byte `json:"signature"`
}

// Verifier checks attestations produced by the matching Generator.
type Verifier struct {
	Pubkey []byte `json:"pubkey"`
}

// Verify reports whether the attestation was signed by this verifier's key.
func (v Verifier) Verify(att Attestation) bool {
	return cryptoutils.Verify(att.Data, v.Pubkey, att.Signature)
}

// Account returns the account identifier of the verifier's key.
func (v Verifier) Account() (interfaces.AccountID, error) {
	return cryptoutils.AccountIDFromPubkey(v.Pubkey)
}

// VerifyAs verifies att and decodes its payload as T.
func VerifyAs[T any](v Verifier, att Attestation) (T, bool) {
	var payload T
	if !v.Verify(att) {
		return payload, false
	}
	if err := Decode(att.Data, &payload); err != nil {
		var zero T
		return zero, false
	}
	return payload, true
}

// Generator signs payloads. Its fmt and slog renderings are redacted.
type Generator struct {
	privkey []byte
	account interfaces.AccountID
}

// NewGenerator wraps a raw secp256k1 private key.
func NewGenerator(privkey []byte) (*Generator, Verifier, error) {
	pubkey, err := cryptoutils.PublicKeyOf(privkey)
	if err != nil {
		return nil, Verifier{}, err
	}
	account, err := cryptoutils.AccountIDFromPubkey(pubkey)
	if err != nil {
		return nil, Verifier{}, err
	}

	g := &Generator{privkey: make([]byte, len(privkey)), account: account}
	copy(g.privkey, privkey)
	return g, Verifier{Pubkey: pubkey}, nil
}

// Create derives the key pair for salt. The same key material and salt
// always produce the same pair.
func Create(kms interfaces.KeyDeriver, salt []byte) (*Generator, Verifier, error) {
	privkey, err := kms.DeriveKey(salt)
	if err != nil {
		return nil, Verifier{}, fmt.Errorf("could not derive attestation key: %w", err)
	}
	return NewGenerator(privkey)
}

// Sign encodes payload and signs the encoding.
func (g *Generator) Sign(payload any) (Attestation, error) {
	data, err := Encode(payload)
	if err != nil {
		return Attestation{}, err
	}
	sig, err := cryptoutils.Sign(data, g.privkey)
	if err != nil {
		return Attestation{}, err
	}
	return Attestation{Data: data, Signature: sig}, nil
}

// SignRequest signs a caller authentication message.
func (g *Generator) SignRequest(msg []byte) ([]byte, error) {
	return cryptoutils.Sign(msg, g.privkey)
}

// Account returns the account identifier of the generator's key.
func (g *Generator) Account() interfaces.AccountID {
	return g.account
}

const redacted = "attestation.Generator{<redacted>}"

func (g Generator) String() string {
	return redacted
}

func (g Generator) GoString() string {
	return redacted
}

func (g Generator) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, redacted)
}

func (g Generator) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// AttestError is a failed Attest call of a submittable oracle. Reason holds
// the raw bytes the oracle reported.
type AttestError struct {
	Reason []byte
	Err    error
}

func (e *AttestError) Error() string {
	return "attest failed: " + string(e.Reason)
}

func (e *AttestError) Unwrap() error {
	return e.Err
}
