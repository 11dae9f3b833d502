package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ruteri/badge-oracle/api/clients"
	"github.com/ruteri/badge-oracle/attestation"
	"github.com/ruteri/badge-oracle/badges"
	"github.com/ruteri/badge-oracle/interfaces"
)

// SubmittableOracle is the surface the judger needs from a submitted oracle.
type SubmittableOracle interface {
	Admin(ctx context.Context) (interfaces.AccountID, error)
	Verifier(ctx context.Context) (attestation.Verifier, error)
	// Attest failures carry the oracle's raw reason in *attestation.AttestError.
	Attest(ctx context.Context, arg string) (attestation.Attestation, error)
}

// OracleFactory resolves a contract locator into a submitted oracle.
type OracleFactory interface {
	OracleFor(contract interfaces.ContractLocator) (SubmittableOracle, error)
}

// Directory resolves contract locators. "local:<name>" resolves to
// components registered in this process, http(s) URLs to HTTP stubs.
type Directory struct {
	mu         sync.RWMutex
	registries map[string]*badges.Registry
	oracles    map[string]SubmittableOracle
	log        *slog.Logger
}

var (
	_ OracleFactory   = (*Directory)(nil)
	_ IssuerDirectory = (*Directory)(nil)
)

func NewDirectory(log *slog.Logger) *Directory {
	return &Directory{
		registries: make(map[string]*badges.Registry),
		oracles:    make(map[string]SubmittableOracle),
		log:        log,
	}
}

func (d *Directory) RegisterRegistry(name string, registry *badges.Registry) interfaces.ContractLocator {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registries[name] = registry
	return interfaces.LocalContract(name)
}

func (d *Directory) RegisterOracle(name string, oracle SubmittableOracle) interfaces.ContractLocator {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.oracles[name] = oracle
	return interfaces.LocalContract(name)
}

// OracleFor implements OracleFactory.
func (d *Directory) OracleFor(contract interfaces.ContractLocator) (SubmittableOracle, error) {
	if name, ok := contract.Local(); ok {
		d.mu.RLock()
		defer d.mu.RUnlock()
		oracle, found := d.oracles[name]
		if !found {
			return nil, fmt.Errorf("no local oracle %q", name)
		}
		return oracle, nil
	}
	if baseURL, ok := contract.Remote(); ok {
		return clients.NewOracleClient(baseURL, nil, d.log), nil
	}
	return nil, contract.Validate()
}

// IssuersFor returns a factory whose Issuable handles act as caller.
func (d *Directory) IssuersFor(caller *attestation.Generator) interfaces.IssuableFactory {
	return &issuableFactory{directory: d, caller: caller}
}

type issuableFactory struct {
	directory *Directory
	caller    *attestation.Generator
}

func (f *issuableFactory) IssuerFor(contract interfaces.ContractLocator) (interfaces.Issuable, error) {
	if name, ok := contract.Local(); ok {
		f.directory.mu.RLock()
		defer f.directory.mu.RUnlock()
		registry, found := f.directory.registries[name]
		if !found {
			return nil, fmt.Errorf("no local registry %q", name)
		}
		return registry.Issuer(f.caller.Account()), nil
	}
	if baseURL, ok := contract.Remote(); ok {
		return clients.NewBadgeClient(baseURL, f.caller, f.directory.log), nil
	}
	return nil, contract.Validate()
}
