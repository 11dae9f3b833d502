package clients

import (
	"context"

	"github.com/ruteri/badge-oracle/attestation"
	"github.com/ruteri/badge-oracle/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockIssuable mocks interfaces.Issuable.
type MockIssuable struct {
	mock.Mock
}

func (m *MockIssuable) Issue(ctx context.Context, badgeID uint32, dest interfaces.AccountID) error {
	args := m.Called(ctx, badgeID, dest)
	return args.Error(0)
}

// MockOracle mocks the submittable-oracle surface.
type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Admin(ctx context.Context) (interfaces.AccountID, error) {
	args := m.Called(ctx)
	return args.Get(0).(interfaces.AccountID), args.Error(1)
}

func (m *MockOracle) Verifier(ctx context.Context) (attestation.Verifier, error) {
	args := m.Called(ctx)
	return args.Get(0).(attestation.Verifier), args.Error(1)
}

func (m *MockOracle) Attest(ctx context.Context, arg string) (attestation.Attestation, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(attestation.Attestation), args.Error(1)
}
