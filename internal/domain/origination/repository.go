package origination

import (
	"context"
	"time"
)

// Repository is the read side of origination records, plus the signature transition.
type Repository interface {
	GetAgreement(ctx context.Context, clientID, loanAgreementID string) (*LoanAgreement, error)
	GetApplication(ctx context.Context, applicationID string) (*Application, error)
	GetBorrower(ctx context.Context, borrowerID string) (*Borrower, error)
	GetClient(ctx context.Context, clientID string) (*Client, error)
	MarkAgreementSigned(ctx context.Context, loanAgreementID string, signedAt time.Time) error
}
