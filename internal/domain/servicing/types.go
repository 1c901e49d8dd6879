// Package servicing describes the loan-servicing system as seen by the core:
// normalized records and the gateway port.
package servicing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LoanParams registers an installment, BNPL or merchant-advance loan.
type LoanParams struct {
	CIFNumber          string
	LoanNumber         string
	ProductCode        string
	Amount             decimal.Decimal
	InterestRate       decimal.Decimal // percent, e.g. 12.5
	Term               int
	RepaymentFrequency string
	OriginationDate    time.Time
	OriginationFee     decimal.Decimal
	LatePaymentFee     decimal.Decimal
}

// LineOfCreditParams registers a revolving line.
type LineOfCreditParams struct {
	CIFNumber       string
	LoanNumber      string
	ProductCode     string
	CreditLimit     decimal.Decimal
	InterestRate    decimal.Decimal
	OriginationDate time.Time
	LatePaymentFee  decimal.Decimal
}

// APRTerms feeds the APR calculation.
type APRTerms struct {
	Amount             decimal.Decimal
	InterestRate       decimal.Decimal
	Term               int
	RepaymentFrequency string
	Fees               decimal.Decimal
}

type LoanDetails struct {
	CurrentPrincipalBalance decimal.Decimal
	InterestAccruedThru     *time.Time
	PrincipalPaidThru       *time.Time
	NextBillingDate         *time.Time
	NextAccrualCutoff       *time.Time
	ScheduledPayoffDate     *time.Time
	MaturityDate            *time.Time
}

type PaymentDetails struct {
	NextPaymentAmount     decimal.Decimal
	NextPaymentDate       *time.Time
	CurrentPaymentAmount  decimal.Decimal
	CurrentPaymentDueDate *time.Time
	LastPaymentDate       *time.Time
}

type AmortizationEntry struct {
	Date      time.Time
	Payment   decimal.Decimal
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Balance   decimal.Decimal
	IsHistory bool
}

type TransactionKind string

const (
	TxnPrincipal TransactionKind = "principal"
	TxnInterest  TransactionKind = "interest"
	TxnFee       TransactionKind = "fee"
)

// HistoryEntry is one posted payment-history line.
type HistoryEntry struct {
	PaidDate    time.Time
	Description string
	Kind        TransactionKind
	Amount      decimal.Decimal
	Reversed    bool
}

type PaymentDue struct {
	DueDate     time.Time
	Description string
	Amount      decimal.Decimal
	Remaining   decimal.Decimal
}

// Statistics is a servicing rollup row. Month 0 marks an annual rollup;
// Master marks the lifetime record.
type Statistics struct {
	Year          int
	Month         int
	Master        bool
	PrincipalPaid decimal.Decimal
	InterestPaid  decimal.Decimal
	FeesPaid      decimal.Decimal
}

// LoanRecord is the full multi-part read of one servicing account.
type LoanRecord struct {
	Details      LoanDetails
	Payment      PaymentDetails
	Amortization []AmortizationEntry
	History      []HistoryEntry
	Due          []PaymentDue
	Statistics   []Statistics
}

// Gateway is the servicing-system port. Implementations scope a fresh credential to every call.
type Gateway interface {
	RegisterLoan(ctx context.Context, p LoanParams) (string, error)
	RegisterLineOfCredit(ctx context.Context, p LineOfCreditParams) (string, error)
	ReadLoan(ctx context.Context, accountRef string) (*LoanRecord, error)
	PostPayment(ctx context.Context, accountRef string, amount decimal.Decimal, date time.Time) error
	AccrueTo(ctx context.Context, accountRef string, date time.Time) error
	CalculateAPR(ctx context.Context, terms APRTerms, payment decimal.Decimal) (int, error)
}
