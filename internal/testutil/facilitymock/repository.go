package facilitymock

import (
	"context"

	domain "lendcore/internal/domain/facility"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies facility.Repository.
// Writes default to success; reads default to context.Canceled.
type Repo struct {
	CreateFn               func(ctx context.Context, f *domain.Facility) error
	SaveFn                 func(ctx context.Context, f *domain.Facility) error
	AssignAccountRefFn     func(ctx context.Context, facilityID, ref string) error
	GetByFacilityIDFn      func(ctx context.Context, facilityID string) (*domain.Facility, error)
	GetByLoanAgreementIDFn func(ctx context.Context, loanAgreementID string) (*domain.Facility, error)
	ListByClientIDFn       func(ctx context.Context, clientID string) ([]domain.Facility, error)
	ListByFacilityIDsFn    func(ctx context.Context, facilityIDs []string) ([]domain.Facility, error)
	ListByLifecycleStateFn func(ctx context.Context, state domain.LifecycleState) ([]domain.Facility, error)
	ListActiveFn           func(ctx context.Context) ([]domain.Facility, error)
}

func (m *Repo) Create(ctx context.Context, f *domain.Facility) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, f)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, f *domain.Facility) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, f)
	}
	return nil
}

func (m *Repo) AssignAccountRef(ctx context.Context, facilityID, ref string) error {
	if m.AssignAccountRefFn != nil {
		return m.AssignAccountRefFn(ctx, facilityID, ref)
	}
	return nil
}

func (m *Repo) GetByFacilityID(ctx context.Context, facilityID string) (*domain.Facility, error) {
	if m.GetByFacilityIDFn != nil {
		return m.GetByFacilityIDFn(ctx, facilityID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanAgreementID(ctx context.Context, loanAgreementID string) (*domain.Facility, error) {
	if m.GetByLoanAgreementIDFn != nil {
		return m.GetByLoanAgreementIDFn(ctx, loanAgreementID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByClientID(ctx context.Context, clientID string) ([]domain.Facility, error) {
	if m.ListByClientIDFn != nil {
		return m.ListByClientIDFn(ctx, clientID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByFacilityIDs(ctx context.Context, facilityIDs []string) ([]domain.Facility, error) {
	if m.ListByFacilityIDsFn != nil {
		return m.ListByFacilityIDsFn(ctx, facilityIDs)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByLifecycleState(ctx context.Context, state domain.LifecycleState) ([]domain.Facility, error) {
	if m.ListByLifecycleStateFn != nil {
		return m.ListByLifecycleStateFn(ctx, state)
	}
	return nil, context.Canceled
}

func (m *Repo) ListActive(ctx context.Context) ([]domain.Facility, error) {
	if m.ListActiveFn != nil {
		return m.ListActiveFn(ctx)
	}
	return nil, context.Canceled
}
