package originationmock

import (
	"context"
	"time"

	domain "lendcore/internal/domain/origination"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies origination.Repository.
type Repo struct {
	GetAgreementFn        func(ctx context.Context, clientID, loanAgreementID string) (*domain.LoanAgreement, error)
	GetApplicationFn      func(ctx context.Context, applicationID string) (*domain.Application, error)
	GetBorrowerFn         func(ctx context.Context, borrowerID string) (*domain.Borrower, error)
	GetClientFn           func(ctx context.Context, clientID string) (*domain.Client, error)
	MarkAgreementSignedFn func(ctx context.Context, loanAgreementID string, signedAt time.Time) error
}

func (m *Repo) GetAgreement(ctx context.Context, clientID, loanAgreementID string) (*domain.LoanAgreement, error) {
	if m.GetAgreementFn != nil {
		return m.GetAgreementFn(ctx, clientID, loanAgreementID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetApplication(ctx context.Context, applicationID string) (*domain.Application, error) {
	if m.GetApplicationFn != nil {
		return m.GetApplicationFn(ctx, applicationID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetBorrower(ctx context.Context, borrowerID string) (*domain.Borrower, error) {
	if m.GetBorrowerFn != nil {
		return m.GetBorrowerFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetClient(ctx context.Context, clientID string) (*domain.Client, error) {
	if m.GetClientFn != nil {
		return m.GetClientFn(ctx, clientID)
	}
	return nil, context.Canceled
}

func (m *Repo) MarkAgreementSigned(ctx context.Context, loanAgreementID string, signedAt time.Time) error {
	if m.MarkAgreementSignedFn != nil {
		return m.MarkAgreementSignedFn(ctx, loanAgreementID, signedAt)
	}
	return nil
}
