package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// AccountID is a 32-byte account identifier.
type AccountID [32]byte

// NewAccountIDFromBytes creates an account identifier from exactly 32 bytes.
func NewAccountIDFromBytes(id []byte) (AccountID, error) {
	if len(id) != 32 {
		return AccountID{}, errors.New("invalid account id length: must be 32 bytes")
	}

	var res AccountID
	copy(res[:], id)
	return res, nil
}

// NewAccountIDFromHex parses a 64-character hex string, with or without 0x prefix.
func NewAccountIDFromHex(id string) (AccountID, error) {
	clean := strings.TrimPrefix(id, "0x")
	if len(clean) != 64 {
		return AccountID{}, errors.New("invalid account id length: hex string must be 64 characters")
	}

	idBytes, err := hex.DecodeString(clean)
	if err != nil {
		return AccountID{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewAccountIDFromBytes(idBytes)
}

// String returns the hex representation without 0x prefix.
func (id AccountID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw 32 bytes.
func (id AccountID) Bytes() []byte {
	return id[:]
}

func (id AccountID) IsZero() bool {
	return id == AccountID{}
}

func (id AccountID) MarshalText() ([]byte, error) {
	return []byte("0x" + id.String()), nil
}

func (id *AccountID) UnmarshalText(text []byte) error {
	parsed, err := NewAccountIDFromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ContractLocator names a deployed component: "local:<name>" for components
// running in this process, or an http(s) base URL for remote ones.
type ContractLocator string

const localScheme = "local:"

// LocalContract returns the locator of an in-process component.
func LocalContract(name string) ContractLocator {
	return ContractLocator(localScheme + name)
}

// Local reports the component name when the locator points into this process.
func (l ContractLocator) Local() (string, bool) {
	name, ok := strings.CutPrefix(string(l), localScheme)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Remote reports the base URL when the locator points to an HTTP endpoint.
func (l ContractLocator) Remote() (string, bool) {
	u, err := url.Parse(string(l))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	return strings.TrimSuffix(string(l), "/"), true
}

// Validate checks that the locator is either local or remote.
func (l ContractLocator) Validate() error {
	if _, ok := l.Local(); ok {
		return nil
	}
	if _, ok := l.Remote(); ok {
		return nil
	}
	return fmt.Errorf("%w: unsupported contract locator %q", ErrInvalidParameter, string(l))
}

func (l ContractLocator) String() string {
	return string(l)
}
