package facility

import (
	"context"
	"errors"
)

var ErrAccountRefAssigned = errors.New("servicing account reference already assigned")

type Repository interface {
	Create(ctx context.Context, f *Facility) error
	// Save persists every column except nls_account_ref.
	Save(ctx context.Context, f *Facility) error
	// AssignAccountRef sets nls_account_ref only when it is still NULL; otherwise ErrAccountRefAssigned.
	AssignAccountRef(ctx context.Context, facilityID, ref string) error
	GetByFacilityID(ctx context.Context, facilityID string) (*Facility, error)
	GetByLoanAgreementID(ctx context.Context, loanAgreementID string) (*Facility, error)
	ListByClientID(ctx context.Context, clientID string) ([]Facility, error)
	ListByFacilityIDs(ctx context.Context, facilityIDs []string) ([]Facility, error)
	ListByLifecycleState(ctx context.Context, state LifecycleState) ([]Facility, error)
	ListActive(ctx context.Context) ([]Facility, error)
}
