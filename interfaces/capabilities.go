package interfaces

import "context"

// KeyDeriver derives private keys deterministically from a salt.
// The same root key material and salt always yield the same key.
type KeyDeriver interface {
	DeriveKey(salt []byte) ([]byte, error)
}

// FetchResponse is the raw result of fetching external evidence.
type FetchResponse struct {
	StatusCode int
	Body       []byte
}

// Fetcher retrieves external evidence. No retries are implied, callers
// check StatusCode themselves. Implementations bound the body size and
// return an error instead of a partial body when the bound is exceeded.
type Fetcher interface {
	Get(ctx context.Context, url string) (*FetchResponse, error)
}

// Issuable grants the next free code of a badge to dest.
//
// Implementations must not call back into the component that invoked Issue.
type Issuable interface {
	Issue(ctx context.Context, badgeID uint32, dest AccountID) error
}

// IssuableFactory resolves a contract locator into an Issuable handle.
type IssuableFactory interface {
	IssuerFor(contract ContractLocator) (Issuable, error)
}
