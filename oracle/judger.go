package oracle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/badge-oracle/attestation"
	"github.com/ruteri/badge-oracle/interfaces"
	"github.com/ruteri/badge-oracle/store"
)

const JudgerAttestationSalt = "adv-challenge-attestation-key"

type JudgerConfig struct {
	Name  string
	Admin interfaces.AccountID
}

// Judger checks submitted oracles and lets each submission's admin redeem once.
type Judger struct {
	*Redeemer
	oracles OracleFactory
	log     *slog.Logger
}

func NewJudger(cfg JudgerConfig, kms interfaces.KeyDeriver, oracles OracleFactory, st *store.Store, issuers IssuerDirectory, log *slog.Logger) (*Judger, error) {
	redeemer, err := newRedeemer(cfg.Name, cfg.Admin, kms, []byte(JudgerAttestationSalt), st, issuers, ErrAlreadySubmitted, log)
	if err != nil {
		return nil, fmt.Errorf("could not create judger: %w", err)
	}
	return &Judger{Redeemer: redeemer, oracles: oracles, log: log}, nil
}

// CheckContract asks the submitted oracle to attest url and verifies the
// result with the oracle's own verifier. On success it signs a GoodSubmission
// for the oracle's admin.
func (j *Judger) CheckContract(ctx context.Context, contract interfaces.ContractLocator, url string) (attestation.Attestation, error) {
	submitted, err := j.oracles.OracleFor(contract)
	if err != nil {
		return attestation.Attestation{}, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	att, err := submitted.Attest(ctx, url)
	if err != nil {
		return attestation.Attestation{}, fmt.Errorf("%w: %w", ErrFailedToVerify, err)
	}

	verifier, err := submitted.Verifier(ctx)
	if err != nil {
		return attestation.Attestation{}, fmt.Errorf("%w: %w", ErrFailedToVerify, err)
	}
	if !verifier.Verify(att) {
		return attestation.Attestation{}, ErrFailedToVerify
	}
	contractAccount, err := verifier.Account()
	if err != nil {
		return attestation.Attestation{}, fmt.Errorf("%w: %w", ErrFailedToVerify, err)
	}

	admin, err := submitted.Admin(ctx)
	if err != nil {
		return attestation.Attestation{}, fmt.Errorf("%w: %w", ErrFailedToVerify, err)
	}

	j.log.Debug("submission passed", "contract", contract.String(), "admin", admin.String())
	return j.sign(GoodSubmission{Admin: admin, Contract: contractAccount})
}

// Redeem consumes a GoodSubmission signed by this judger. The caller must be
// the submission's admin and each submitted oracle redeems once.
func (j *Judger) Redeem(ctx context.Context, caller interfaces.AccountID, att attestation.Attestation) error {
	return j.Redeemer.Redeem(ctx, caller, att, j.bind)
}

func (j *Judger) bind(att attestation.Attestation, caller interfaces.AccountID) (Binding, error) {
	submission, ok := attestation.VerifyAs[GoodSubmission](j.verifier, att)
	if !ok {
		return Binding{}, ErrFailedToVerify
	}
	if submission.Admin != caller {
		return Binding{}, ErrBadOrigin
	}
	return Binding{Identity: submission.Contract.String(), Dest: caller}, nil
}

func (j *Judger) Admin(context.Context) (interfaces.AccountID, error) {
	return j.Redeemer.Admin(), nil
}

func (j *Judger) Verifier(context.Context) (attestation.Verifier, error) {
	return j.Redeemer.Verifier(), nil
}
