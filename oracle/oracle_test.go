package oracle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/badge-oracle/attestation"
	"github.com/ruteri/badge-oracle/badges"
	"github.com/ruteri/badge-oracle/claims"
	"github.com/ruteri/badge-oracle/interfaces"
	"github.com/ruteri/badge-oracle/kms"
	"github.com/ruteri/badge-oracle/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	alice   = interfaces.AccountID{0xa1}
	bob     = interfaces.AccountID{0xb0}
	charlie = interfaces.AccountID{0xc4}
	django  = interfaces.AccountID{0xd1}
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Get(ctx context.Context, url string) (*interfaces.FetchResponse, error) {
	args := m.Called(ctx, url)
	resp, _ := args.Get(0).(*interfaces.FetchResponse)
	return resp, args.Error(1)
}

// staticIssuers hands the same factory to every oracle.
type staticIssuers struct {
	factory interfaces.IssuableFactory
}

func (s staticIssuers) IssuersFor(*attestation.Generator) interfaces.IssuableFactory {
	return s.factory
}

type staticFactory struct {
	issuer interfaces.Issuable
}

func (s staticFactory) IssuerFor(contract interfaces.ContractLocator) (interfaces.Issuable, error) {
	if err := contract.Validate(); err != nil {
		return nil, err
	}
	return s.issuer, nil
}

type testEnv struct {
	log       *slog.Logger
	kms       *kms.SimpleKMS
	store     *store.Store
	registry  *badges.Registry
	directory *Directory
	badges    interfaces.ContractLocator
}

func newTestEnv(t *testing.T) *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	masterKey := make([]byte, 32)
	for i := range masterKey {
		masterKey[i] = byte(i)
	}
	k, err := kms.NewSimpleKMS(masterKey)
	require.NoError(t, err)

	st, err := store.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	registry := badges.NewRegistry(st, logger)
	directory := NewDirectory(logger)
	locator := directory.RegisterRegistry("badges", registry)

	return &testEnv{
		log:       logger,
		kms:       k,
		store:     st,
		registry:  registry,
		directory: directory,
		badges:    locator,
	}
}

// setupBadge creates a badge administered by alice with the given codes and
// grants issuance to issuer.
func (e *testEnv) setupBadge(t *testing.T, issuer interfaces.AccountID, codes ...string) uint32 {
	id, err := e.registry.NewBadge(alice, "test-badge")
	require.NoError(t, err)
	require.NoError(t, e.registry.AddCode(alice, id, codes))
	require.NoError(t, e.registry.AddIssuer(alice, id, issuer))
	return id
}

func gistBody(account interfaces.AccountID) []byte {
	return []byte("Hello!\n" + claims.ClaimPrefix + account.String() + "\n")
}

func gistURL(username string) string {
	return claims.GistURLPrefix + username + "/gistid123/raw/rev/file.txt"
}

func okResponse(body []byte) *interfaces.FetchResponse {
	return &interfaces.FetchResponse{StatusCode: 200, Body: body}
}

var errBoom = errors.New("boom")
