package clients

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ruteri/badge-oracle/api"
	"github.com/ruteri/badge-oracle/attestation"
	"github.com/ruteri/badge-oracle/interfaces"
)

// OracleClient talks to one oracle mounted at baseURL, for example
// https://oracle.example.com/api/oracles/gist.
type OracleClient struct {
	httpClient
}

// NewOracleClient creates an oracle stub. signer may be nil for queries.
func NewOracleClient(baseURL string, signer api.RequestSigner, log *slog.Logger) *OracleClient {
	return &OracleClient{httpClient: newHTTPClient(baseURL, signer, log)}
}

func (c *OracleClient) Admin(ctx context.Context) (interfaces.AccountID, error) {
	var resp api.AdminResponse
	if err := c.do(ctx, http.MethodGet, "/admin", nil, false, &resp); err != nil {
		return interfaces.AccountID{}, err
	}
	return resp.Admin, nil
}

func (c *OracleClient) Verifier(ctx context.Context) (attestation.Verifier, error) {
	var verifier attestation.Verifier
	err := c.do(ctx, http.MethodGet, "/verifier", nil, false, &verifier)
	return verifier, err
}

// Attest runs the oracle's generic query. Failures reported by the oracle
// come back as *attestation.AttestError.
func (c *OracleClient) Attest(ctx context.Context, arg string) (attestation.Attestation, error) {
	var att attestation.Attestation
	err := c.do(ctx, http.MethodPost, "/attest", api.AttestRequest{Arg: arg}, false, &att)
	if err != nil {
		var remote *api.RemoteError
		if errors.As(err, &remote) {
			return attestation.Attestation{}, &attestation.AttestError{Reason: []byte(remote.Message), Err: err}
		}
		if interfaces.KindOf(err) != interfaces.KindUnknown {
			return attestation.Attestation{}, &attestation.AttestError{Reason: []byte(err.Error()), Err: err}
		}
		return attestation.Attestation{}, err
	}
	return att, nil
}

func (c *OracleClient) AttestGist(ctx context.Context, url string) (attestation.Attestation, error) {
	var att attestation.Attestation
	err := c.do(ctx, http.MethodPost, "/attest_gist", api.AttestGistRequest{URL: url}, false, &att)
	return att, err
}

func (c *OracleClient) CheckContract(ctx context.Context, contract interfaces.ContractLocator, url string) (attestation.Attestation, error) {
	var att attestation.Attestation
	err := c.do(ctx, http.MethodPost, "/check_contract", api.CheckContractRequest{Contract: contract, URL: url}, false, &att)
	return att, err
}

// Redeem submits att on behalf of the signer.
func (c *OracleClient) Redeem(ctx context.Context, att attestation.Attestation) error {
	return c.do(ctx, http.MethodPost, "/redeem", att, true, nil)
}

func (c *OracleClient) ConfigIssuer(ctx context.Context, contract interfaces.ContractLocator, badgeID uint32) error {
	return c.do(ctx, http.MethodPost, "/config_issuer", api.ConfigIssuerRequest{Contract: contract, BadgeID: badgeID}, true, nil)
}
