package servicingmock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domain "lendcore/internal/domain/servicing"
)

var _ domain.Gateway = (*Gateway)(nil)

// Gateway is a function-backed servicing.Gateway. Unset calls fail with context.Canceled
// so a test notices servicing traffic it did not expect.
type Gateway struct {
	RegisterLoanFn         func(ctx context.Context, p domain.LoanParams) (string, error)
	RegisterLineOfCreditFn func(ctx context.Context, p domain.LineOfCreditParams) (string, error)
	ReadLoanFn             func(ctx context.Context, accountRef string) (*domain.LoanRecord, error)
	PostPaymentFn          func(ctx context.Context, accountRef string, amount decimal.Decimal, date time.Time) error
	AccrueToFn             func(ctx context.Context, accountRef string, date time.Time) error
	CalculateAPRFn         func(ctx context.Context, terms domain.APRTerms, payment decimal.Decimal) (int, error)

	ReadCalls int
}

func (m *Gateway) RegisterLoan(ctx context.Context, p domain.LoanParams) (string, error) {
	if m.RegisterLoanFn != nil {
		return m.RegisterLoanFn(ctx, p)
	}
	return "", context.Canceled
}

func (m *Gateway) RegisterLineOfCredit(ctx context.Context, p domain.LineOfCreditParams) (string, error) {
	if m.RegisterLineOfCreditFn != nil {
		return m.RegisterLineOfCreditFn(ctx, p)
	}
	return "", context.Canceled
}

func (m *Gateway) ReadLoan(ctx context.Context, accountRef string) (*domain.LoanRecord, error) {
	m.ReadCalls++
	if m.ReadLoanFn != nil {
		return m.ReadLoanFn(ctx, accountRef)
	}
	return nil, context.Canceled
}

func (m *Gateway) PostPayment(ctx context.Context, accountRef string, amount decimal.Decimal, date time.Time) error {
	if m.PostPaymentFn != nil {
		return m.PostPaymentFn(ctx, accountRef, amount, date)
	}
	return context.Canceled
}

func (m *Gateway) AccrueTo(ctx context.Context, accountRef string, date time.Time) error {
	if m.AccrueToFn != nil {
		return m.AccrueToFn(ctx, accountRef, date)
	}
	return context.Canceled
}

func (m *Gateway) CalculateAPR(ctx context.Context, terms domain.APRTerms, payment decimal.Decimal) (int, error) {
	if m.CalculateAPRFn != nil {
		return m.CalculateAPRFn(ctx, terms, payment)
	}
	return 0, context.Canceled
}
