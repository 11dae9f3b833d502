package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ruteri/badge-oracle/attestation"
	"github.com/ruteri/badge-oracle/interfaces"
	"github.com/ruteri/badge-oracle/metrics"
	"github.com/ruteri/badge-oracle/store"
)

// IssuerConfig is the downstream badge an oracle issues on redemption.
type IssuerConfig struct {
	Contract interfaces.ContractLocator `json:"contract"`
	BadgeID  uint32                     `json:"badge_id"`
}

// Binding is what a verified claim commits a redemption to.
type Binding struct {
	// Identity is the external identity consumed by the redemption.
	Identity string
	// Dest receives the badge.
	Dest interfaces.AccountID
}

// IssuerDirectory hands out IssuableFactory instances that act as a given oracle.
type IssuerDirectory interface {
	IssuersFor(caller *attestation.Generator) interfaces.IssuableFactory
}

// Redeemer is the redemption core shared by the oracles: admin, key pair,
// issuer configuration and the set of consumed identities.
type Redeemer struct {
	name      string
	admin     interfaces.AccountID
	generator *attestation.Generator
	verifier  attestation.Verifier
	store     *store.Store
	issuers   interfaces.IssuableFactory
	conflict  error

	// serializes redemptions and configuration changes
	mu  sync.Mutex
	log *slog.Logger
}

func newRedeemer(name string, admin interfaces.AccountID, kms interfaces.KeyDeriver, salt []byte, st *store.Store, issuers IssuerDirectory, conflict error, log *slog.Logger) (*Redeemer, error) {
	generator, verifier, err := attestation.Create(kms, salt)
	if err != nil {
		return nil, err
	}
	return &Redeemer{
		name:      name,
		admin:     admin,
		generator: generator,
		verifier:  verifier,
		store:     st,
		issuers:   issuers.IssuersFor(generator),
		conflict:  conflict,
		log:       log,
	}, nil
}

func (r *Redeemer) configKey() []byte {
	return fmt.Appendf(nil, "oracle/%s/config", r.name)
}

func (r *Redeemer) consumedKey(identity string) []byte {
	return fmt.Appendf(nil, "oracle/%s/consumed/%s", r.name, identity)
}

func (r *Redeemer) Admin() interfaces.AccountID {
	return r.admin
}

func (r *Redeemer) Verifier() attestation.Verifier {
	return r.verifier
}

// Account is the oracle's own account, used as the caller of downstream Issue.
func (r *Redeemer) Account() interfaces.AccountID {
	return r.generator.Account()
}

func (r *Redeemer) sign(payload any) (attestation.Attestation, error) {
	att, err := r.generator.Sign(payload)
	if err != nil {
		return attestation.Attestation{}, err
	}
	metrics.AttestationsSigned.WithLabelValues(r.name).Inc()
	return att, nil
}

// ConfigIssuer sets the downstream badge. Admin only; the locator must resolve.
func (r *Redeemer) ConfigIssuer(caller interfaces.AccountID, contract interfaces.ContractLocator, badgeID uint32) error {
	if caller != r.admin {
		return ErrBadOrigin
	}
	if _, err := r.issuers.IssuerFor(contract); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	raw, err := rlp.EncodeToBytes(IssuerConfig{Contract: contract, BadgeID: badgeID})
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Update(func(txn *store.Txn) error {
		return txn.Put(r.configKey(), raw)
	}); err != nil {
		return err
	}

	r.log.Info("issuer configured", "oracle", r.name, "contract", contract.String(), "badgeID", badgeID)
	return nil
}

// IssuerConfig returns the configured downstream badge, if any.
func (r *Redeemer) IssuerConfig() (IssuerConfig, bool, error) {
	var (
		cfg   IssuerConfig
		found bool
	)
	err := r.store.View(func(txn *store.Txn) error {
		var err error
		cfg, found, err = r.getConfig(txn)
		return err
	})
	return cfg, found, err
}

func (r *Redeemer) getConfig(txn *store.Txn) (IssuerConfig, bool, error) {
	raw, err := txn.Get(r.configKey())
	if errors.Is(err, store.ErrNotFound) {
		return IssuerConfig{}, false, nil
	}
	if err != nil {
		return IssuerConfig{}, false, err
	}
	var cfg IssuerConfig
	if err := rlp.DecodeBytes(raw, &cfg); err != nil {
		return IssuerConfig{}, false, fmt.Errorf("corrupted issuer config: %w", err)
	}
	return cfg, true, nil
}

// IsConsumed reports whether identity was already redeemed.
func (r *Redeemer) IsConsumed(identity string) (bool, error) {
	var consumed bool
	err := r.store.View(func(txn *store.Txn) error {
		var err error
		consumed, err = txn.Has(r.consumedKey(identity))
		return err
	})
	return consumed, err
}

// Redeem runs the command path. bind verifies the attestation and checks it
// against caller. The consumed identity is committed only if the downstream
// Issue succeeds.
func (r *Redeemer) Redeem(ctx context.Context, caller interfaces.AccountID, att attestation.Attestation, bind func(attestation.Attestation, interfaces.AccountID) (Binding, error)) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer func() {
		metrics.RedeemResults.WithLabelValues(r.name, metrics.Result(interfaces.CodeOf(err), err)).Inc()
	}()

	binding, err := bind(att, caller)
	if err != nil {
		return err
	}

	err = r.store.Update(func(txn *store.Txn) error {
		consumed, err := txn.Has(r.consumedKey(binding.Identity))
		if err != nil {
			return err
		}
		if consumed {
			return r.conflict
		}

		cfg, found, err := r.getConfig(txn)
		if err != nil {
			return err
		}
		if !found {
			return ErrBadgeContractNotSetUp
		}

		if err := txn.Put(r.consumedKey(binding.Identity), nil); err != nil {
			return err
		}

		issuer, err := r.issuers.IssuerFor(cfg.Contract)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrFailedToIssueBadge, err)
		}
		if err := issuer.Issue(ctx, cfg.BadgeID, binding.Dest); err != nil {
			return fmt.Errorf("%w: %w", ErrFailedToIssueBadge, err)
		}
		return nil
	})
	if err != nil {
		r.log.Debug("redeem rejected", "oracle", r.name, "caller", caller.String(), "err", err)
		return err
	}

	r.log.Info("redeemed", "oracle", r.name, "identity", binding.Identity, "dest", binding.Dest.String())
	return nil
}
