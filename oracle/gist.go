package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ruteri/badge-oracle/attestation"
	"github.com/ruteri/badge-oracle/claims"
	"github.com/ruteri/badge-oracle/interfaces"
	"github.com/ruteri/badge-oracle/store"
)

const GistAttestationSalt = "gist-attestation-key"

type GistOracleConfig struct {
	// Name scopes the oracle's persistent state and metrics.
	Name  string
	Admin interfaces.AccountID
}

// GistOracle attests that a GitHub user published a gist claiming an
// account, and redeems each GitHub username once.
type GistOracle struct {
	*Redeemer
	fetcher interfaces.Fetcher
	log     *slog.Logger
}

var _ SubmittableOracle = (*GistOracle)(nil)

func NewGistOracle(cfg GistOracleConfig, kms interfaces.KeyDeriver, fetcher interfaces.Fetcher, st *store.Store, issuers IssuerDirectory, log *slog.Logger) (*GistOracle, error) {
	redeemer, err := newRedeemer(cfg.Name, cfg.Admin, kms, []byte(GistAttestationSalt), st, issuers, ErrUsernameAlreadyInUse, log)
	if err != nil {
		return nil, fmt.Errorf("could not create gist oracle: %w", err)
	}
	return &GistOracle{Redeemer: redeemer, fetcher: fetcher, log: log}, nil
}

// AttestGist fetches the gist at url and signs a GistQuote for the claimed account.
func (o *GistOracle) AttestGist(ctx context.Context, url string) (attestation.Attestation, error) {
	gistURL, err := claims.ParseGistURL(url)
	if err != nil {
		return attestation.Attestation{}, err
	}

	resp, err := o.fetcher.Get(ctx, url)
	if err != nil {
		return attestation.Attestation{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return attestation.Attestation{}, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	account, err := claims.ExtractClaim(resp.Body)
	if err != nil {
		return attestation.Attestation{}, err
	}

	o.log.Debug("gist attested", "username", gistURL.Username, "gistID", gistURL.GistID, "account", account.String())
	return o.sign(GistQuote{Username: gistURL.Username, AccountID: account})
}

// Redeem consumes a GistQuote signed by this oracle. The quoted account must
// be the caller and the username must not have been redeemed before.
func (o *GistOracle) Redeem(ctx context.Context, caller interfaces.AccountID, att attestation.Attestation) error {
	return o.Redeemer.Redeem(ctx, caller, att, o.bind)
}

func (o *GistOracle) bind(att attestation.Attestation, caller interfaces.AccountID) (Binding, error) {
	quote, ok := attestation.VerifyAs[GistQuote](o.verifier, att)
	if !ok {
		return Binding{}, ErrInvalidSignature
	}
	if quote.AccountID != caller {
		return Binding{}, ErrNoPermission
	}
	return Binding{Identity: quote.Username, Dest: caller}, nil
}

func (o *GistOracle) Admin(context.Context) (interfaces.AccountID, error) {
	return o.Redeemer.Admin(), nil
}

func (o *GistOracle) Verifier(context.Context) (attestation.Verifier, error) {
	return o.Redeemer.Verifier(), nil
}

// Attest is AttestGist behind the submittable-oracle surface.
func (o *GistOracle) Attest(ctx context.Context, arg string) (attestation.Attestation, error) {
	att, err := o.AttestGist(ctx, arg)
	if err != nil {
		return attestation.Attestation{}, &attestation.AttestError{Reason: []byte(err.Error()), Err: err}
	}
	return att, nil
}
