package clients_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/badge-oracle/api"
	"github.com/ruteri/badge-oracle/api/badgehandler"
	"github.com/ruteri/badge-oracle/api/clients"
	"github.com/ruteri/badge-oracle/api/oraclehandler"
	"github.com/ruteri/badge-oracle/attestation"
	"github.com/ruteri/badge-oracle/badges"
	"github.com/ruteri/badge-oracle/claims"
	"github.com/ruteri/badge-oracle/interfaces"
	"github.com/ruteri/badge-oracle/kms"
	"github.com/ruteri/badge-oracle/oracle"
	"github.com/ruteri/badge-oracle/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gistFetcher map[string][]byte

func (f gistFetcher) Get(_ context.Context, url string) (*interfaces.FetchResponse, error) {
	body, ok := f[url]
	if !ok {
		return &interfaces.FetchResponse{StatusCode: http.StatusNotFound}, nil
	}
	return &interfaces.FetchResponse{StatusCode: http.StatusOK, Body: body}, nil
}

type testServer struct {
	url      string
	registry *badges.Registry
	gist     *oracle.GistOracle
	judger   *oracle.Judger
	fetcher  gistFetcher
	admin    *clients.CallerKey
	log      *slog.Logger
}

func startServer(t *testing.T) *testServer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	kmsInstance, err := kms.NewRandomSimpleKMS()
	require.NoError(t, err)
	st, err := store.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	admin, err := clients.GenerateCallerKey()
	require.NoError(t, err)

	srv := &testServer{fetcher: gistFetcher{}, admin: admin, log: logger}
	srv.registry = badges.NewRegistry(st, logger)
	directory := oracle.NewDirectory(logger)
	directory.RegisterRegistry("badges", srv.registry)

	srv.gist, err = oracle.NewGistOracle(oracle.GistOracleConfig{Name: "gist", Admin: admin.Account()}, kmsInstance, srv.fetcher, st, directory, logger)
	require.NoError(t, err)
	srv.judger, err = oracle.NewJudger(oracle.JudgerConfig{Name: "judger", Admin: admin.Account()}, kmsInstance, directory, st, directory, logger)
	require.NoError(t, err)

	auth := api.NewCallerAuth(0, st, logger)
	router := chi.NewRouter()
	badgehandler.NewHandler(srv.registry, auth, logger).RegisterRoutes(router)
	oraclehandler.NewGistHandler("gist", srv.gist, auth, logger).RegisterRoutes(router)
	oraclehandler.NewJudgerHandler("judger", srv.judger, auth, logger).RegisterRoutes(router)

	httpServer := httptest.NewServer(router)
	t.Cleanup(httpServer.Close)
	srv.url = httpServer.URL
	return srv
}

func (s *testServer) publishGist(username string, account interfaces.AccountID) string {
	url := claims.GistURLPrefix + username + "/abc123/raw/def456/proof.txt"
	s.fetcher[url] = []byte("proof\n" + claims.ClaimPrefix + account.String() + "\n")
	return url
}

func TestBadgeClient(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()

	user, err := clients.GenerateCallerKey()
	require.NoError(t, err)
	adminClient := clients.NewBadgeClient(srv.url, srv.admin, srv.log)
	userClient := clients.NewBadgeClient(srv.url+"/", user, srv.log)

	id, err := adminClient.NewBadge(ctx, "remote")
	require.NoError(t, err)
	require.NoError(t, adminClient.AddCode(ctx, id, []string{"code1"}))
	require.NoError(t, adminClient.AddIssuer(ctx, id, user.Account()))

	isIssuer, err := userClient.IsBadgeIssuer(ctx, id, user.Account())
	require.NoError(t, err)
	assert.True(t, isIssuer)
	issuers, err := userClient.Issuers(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.AccountID{user.Account()}, issuers)

	require.NoError(t, userClient.Issue(ctx, id, user.Account()))
	code, err := userClient.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "code1", code)

	err = userClient.Issue(ctx, id, srv.admin.Account())
	assert.ErrorIs(t, err, badges.ErrRunOutOfCode)
	assert.Equal(t, interfaces.KindConflict, interfaces.KindOf(err))

	_, err = adminClient.Get(ctx, id)
	assert.ErrorIs(t, err, badges.ErrNotFound)

	info, err := adminClient.BadgeInfo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, badges.BadgeInfo{ID: id, Admin: srv.admin.Account(), Name: "remote", NumCode: 1, NumIssued: 1}, info)

	total, err := adminClient.TotalBadges(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), total)

	require.NoError(t, adminClient.RemoveIssuer(ctx, id, user.Account()))
	isIssuer, err = adminClient.IsBadgeIssuer(ctx, id, user.Account())
	require.NoError(t, err)
	assert.False(t, isIssuer)

	_, err = clients.NewBadgeClient(srv.url, nil, srv.log).NewBadge(ctx, "unsigned")
	assert.ErrorIs(t, err, clients.ErrNoSigner)
}

func TestOracleClientGistFlow(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()

	bob, err := clients.GenerateCallerKey()
	require.NoError(t, err)
	id, err := srv.registry.NewBadge(srv.admin.Account(), "gist")
	require.NoError(t, err)
	require.NoError(t, srv.registry.AddCode(srv.admin.Account(), id, []string{"code1"}))
	require.NoError(t, srv.registry.AddIssuer(srv.admin.Account(), id, srv.gist.Account()))

	gistURL := srv.url + "/api/oracles/gist"
	adminClient := clients.NewOracleClient(gistURL, srv.admin, srv.log)
	bobClient := clients.NewOracleClient(gistURL, bob, srv.log)

	admin, err := bobClient.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, srv.admin.Account(), admin)

	verifier, err := bobClient.Verifier(ctx)
	require.NoError(t, err)
	account, err := verifier.Account()
	require.NoError(t, err)
	assert.Equal(t, srv.gist.Account(), account)

	// The registry is reached over HTTP, signed by the oracle's own key
	require.NoError(t, adminClient.ConfigIssuer(ctx, interfaces.ContractLocator(srv.url), id))

	att, err := bobClient.AttestGist(ctx, srv.publishGist("bobgithub", bob.Account()))
	require.NoError(t, err)
	assert.True(t, verifier.Verify(att))

	require.NoError(t, bobClient.Redeem(ctx, att))
	code, err := clients.NewBadgeClient(srv.url, bob, srv.log).Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "code1", code)

	err = bobClient.Redeem(ctx, att)
	assert.ErrorIs(t, err, oracle.ErrUsernameAlreadyInUse)

	err = bobClient.ConfigIssuer(ctx, interfaces.ContractLocator(srv.url), id)
	assert.ErrorIs(t, err, oracle.ErrBadOrigin)
	assert.Equal(t, http.StatusForbidden, api.StatusFor(err))

	err = clients.NewOracleClient(gistURL, nil, srv.log).Redeem(ctx, att)
	assert.ErrorIs(t, err, clients.ErrNoSigner)
}

func TestRemoteIssueFailureRollsBack(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()

	bob, err := clients.GenerateCallerKey()
	require.NoError(t, err)
	id, err := srv.registry.NewBadge(srv.admin.Account(), "empty")
	require.NoError(t, err)
	require.NoError(t, srv.registry.AddIssuer(srv.admin.Account(), id, srv.gist.Account()))
	require.NoError(t, srv.gist.ConfigIssuer(srv.admin.Account(), interfaces.ContractLocator(srv.url), id))

	bobClient := clients.NewOracleClient(srv.url+"/api/oracles/gist", bob, srv.log)
	att, err := bobClient.AttestGist(ctx, srv.publishGist("bobgithub", bob.Account()))
	require.NoError(t, err)

	err = bobClient.Redeem(ctx, att)
	assert.ErrorIs(t, err, oracle.ErrFailedToIssueBadge)

	consumed, err := srv.gist.IsConsumed("bobgithub")
	require.NoError(t, err)
	assert.False(t, consumed)

	require.NoError(t, srv.registry.AddCode(srv.admin.Account(), id, []string{"late"}))
	require.NoError(t, bobClient.Redeem(ctx, att))
}

func TestJudgerChecksRemoteOracle(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()

	judger := clients.NewOracleClient(srv.url+"/api/oracles/judger", srv.admin, srv.log)
	remoteGist := interfaces.ContractLocator(srv.url + "/api/oracles/gist")

	url := srv.publishGist("someone", srv.admin.Account())
	att, err := judger.CheckContract(ctx, remoteGist, url)
	require.NoError(t, err)

	submission, ok := attestation.VerifyAs[oracle.GoodSubmission](srv.judger.Redeemer.Verifier(), att)
	require.True(t, ok)
	assert.Equal(t, srv.admin.Account(), submission.Admin)
	assert.Equal(t, srv.gist.Account(), submission.Contract)

	_, err = judger.CheckContract(ctx, remoteGist, "https://example.com/not-a-gist")
	assert.ErrorIs(t, err, oracle.ErrFailedToVerify)
}

func TestOracleClientAttestError(t *testing.T) {
	srv := startServer(t)

	gist := clients.NewOracleClient(srv.url+"/api/oracles/gist", nil, srv.log)
	_, err := gist.Attest(context.Background(), "https://example.com/not-a-gist")

	var attestErr *attestation.AttestError
	require.ErrorAs(t, err, &attestErr)
	assert.ErrorIs(t, err, claims.ErrInvalidURL)
	assert.NotEmpty(t, attestErr.Reason)

	// A server that is not an oracle at all
	_, err = clients.NewOracleClient(srv.url+"/nothing", nil, srv.log).Attest(context.Background(), "x")
	require.ErrorAs(t, err, &attestErr)
	var remote *api.RemoteError
	assert.True(t, errors.As(err, &remote))
}
