package facility

import (
	"time"

	"gorm.io/datatypes"
)

type CreditType string

const (
	CreditConsumerInstallment       CreditType = "consumer_installment_loan"
	CreditConsumerBNPL              CreditType = "consumer_bnpl"
	CreditConsumerRevolving         CreditType = "consumer_revolving_line_of_credit"
	CreditCommercialInstallment     CreditType = "commercial_installment_loan"
	CreditCommercialRevolving       CreditType = "commercial_revolving_line_of_credit"
	CreditCommercialMerchantAdvance CreditType = "commercial_merchant_advance"
)

// Supported reports whether facilities can be originated for the credit type.
func (c CreditType) Supported() bool {
	switch c {
	case CreditConsumerInstallment, CreditConsumerBNPL, CreditConsumerRevolving,
		CreditCommercialInstallment, CreditCommercialRevolving, CreditCommercialMerchantAdvance:
		return true
	}
	return false
}

// Installment covers closed-end products: installment loans and BNPL.
func (c CreditType) Installment() bool {
	return c == CreditConsumerInstallment || c == CreditConsumerBNPL || c == CreditCommercialInstallment
}

func (c CreditType) Revolving() bool {
	return c == CreditConsumerRevolving || c == CreditCommercialRevolving
}

func (c CreditType) MerchantAdvance() bool { return c == CreditCommercialMerchantAdvance }

// Serviced reports whether the servicing system holds the facility's balances.
func (c CreditType) Serviced() bool { return c.Installment() || c.Revolving() }

// Statemented reports whether billing statements are rendered for the credit type.
func (c CreditType) Statemented() bool { return c.Installment() }

type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// LifecycleState makes the create → register → synchronize window queryable.
type LifecycleState string

const (
	StateDraft               LifecycleState = "draft"
	StateServicingRegistered LifecycleState = "servicing_registered"
	StateSynchronized        LifecycleState = "synchronized"
	StateNotServiced         LifecycleState = "not_serviced"
)

const (
	InterestTypeFixed    = "fixed"
	InterestTypeVariable = "variable"
	InterestTypeOther    = "other"
)

// PaymentDue is one upcoming "total payment" line from the servicing system, in cents.
type PaymentDue struct {
	DueDate     time.Time `json:"due_date"`
	Description string    `json:"description"`
	Amount      int64     `json:"amount"`
	Remaining   int64     `json:"remaining"`
}

type Facility struct {
	ID              uint64     `gorm:"primaryKey;column:id" json:"-"`
	FacilityID      string     `gorm:"column:facility_id;size:32;uniqueIndex:ux_facilities_facility_id" json:"facility_id"`
	ApplicationID   string     `gorm:"column:application_id;size:32;index" json:"application_id"`
	BorrowerID      string     `gorm:"column:borrower_id;size:32;index" json:"borrower_id"`
	ClientID        string     `gorm:"column:client_id;size:32;index:idx_facilities_client" json:"client_id"`
	LoanAgreementID string     `gorm:"column:loan_agreement_id;size:32;index:idx_facilities_loan_agreement" json:"loan_agreement_id"`
	AccountNumber   string     `gorm:"column:account_number;size:16" json:"account_number"`
	CreditType      CreditType `gorm:"column:credit_type;size:64" json:"credit_type"`

	// Terms, copied from the accepted offer at creation. Amounts in cents, rates in basis points.
	Amount             int64  `gorm:"column:amount" json:"amount"`
	InterestRateBps    int    `gorm:"column:interest_rate_bps" json:"interest_rate_bps"`
	APRBps             int    `gorm:"column:apr_bps" json:"apr_bps"`
	InterestType       string `gorm:"column:interest_type;size:16" json:"interest_type"`
	Term               int    `gorm:"column:term" json:"term"`
	RepaymentFrequency string `gorm:"column:repayment_frequency;size:16" json:"repayment_frequency"`
	OriginationFee     int64  `gorm:"column:origination_fee" json:"origination_fee"`
	LatePaymentFee     int64  `gorm:"column:late_payment_fee" json:"late_payment_fee"`
	CIFNumber          string `gorm:"column:cif_number;size:32" json:"-"`

	OriginationDate  *time.Time `gorm:"column:origination_date;type:date" json:"origination_date"`
	DisbursementDate *time.Time `gorm:"column:disbursement_date;type:date" json:"disbursement_date"`

	// Assigned once by AssignAccountRef; Save never writes it.
	NLSAccountRef *string `gorm:"column:nls_account_ref;size:64" json:"nls_account_ref"`

	// Servicing-derived, written only by synchronization.
	Balance               int64                           `gorm:"column:balance" json:"balance"`
	NextPaymentAmount     int64                           `gorm:"column:next_payment_amount" json:"next_payment_amount"`
	NextPaymentDate       *time.Time                      `gorm:"column:next_payment_date;type:date" json:"next_payment_date"`
	CurrentPaymentAmount  int64                           `gorm:"column:current_payment_amount" json:"current_payment_amount"`
	CurrentPaymentDueDate *time.Time                      `gorm:"column:current_payment_due_date;type:date" json:"current_payment_due_date"`
	LastPaymentDate       *time.Time                      `gorm:"column:last_payment_date;type:date" json:"last_payment_date"`
	PrincipalPaidThru     *time.Time                      `gorm:"column:principal_paid_thru;type:date" json:"principal_paid_thru"`
	NextBillingDate       *time.Time                      `gorm:"column:next_billing_date;type:date" json:"next_billing_date"`
	InterestAccruedThru   *time.Time                      `gorm:"column:interest_accrued_thru;type:date" json:"interest_accrued_thru"`
	NextAccrualCutoff     *time.Time                      `gorm:"column:next_accrual_cutoff;type:date" json:"next_accrual_cutoff"`
	ScheduledPayoffDate   *time.Time                      `gorm:"column:scheduled_payoff_date;type:date" json:"scheduled_payoff_date"`
	MaturityDate          *time.Time                      `gorm:"column:maturity_date;type:date" json:"maturity_date"`
	RemainingTerm         int                             `gorm:"column:remaining_term" json:"remaining_term"`
	PaymentsDue           datatypes.JSONSlice[PaymentDue] `gorm:"column:payments_due" json:"payments_due"`
	LastSyncedAt          *time.Time                      `gorm:"column:last_synced_at" json:"last_synced_at"`

	Status         Status         `gorm:"column:status;size:16;default:active" json:"status"`
	LifecycleState LifecycleState `gorm:"column:lifecycle_state;size:32;index" json:"lifecycle_state"`
	IsAutocreated  bool           `gorm:"column:is_autocreated" json:"is_autocreated"`
	AutopayEnabled bool           `gorm:"column:autopay_enabled" json:"autopay_enabled"`
	AutopayDay     int            `gorm:"column:autopay_day" json:"autopay_day"`

	// Sealed with the bank-details key; never rendered.
	RepaymentBankSealed string `gorm:"column:repayment_bank_sealed;type:text" json:"-"`
	RepaymentBankLast4  string `gorm:"column:repayment_bank_last4;size:4" json:"repayment_bank_last4,omitempty"`

	ClosedAt  *time.Time `gorm:"column:closed_at" json:"closed_at,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Facility) TableName() string { return "facilities" }

// HasAccountRef reports whether the facility was registered with the servicing system.
func (f *Facility) HasAccountRef() bool { return f.NLSAccountRef != nil && *f.NLSAccountRef != "" }

// AccountRef returns the servicing reference or "".
func (f *Facility) AccountRef() string {
	if f.NLSAccountRef == nil {
		return ""
	}
	return *f.NLSAccountRef
}

// BankDetails are the plaintext repayment details sealed into RepaymentBankSealed.
type BankDetails struct {
	AccountHolder string `json:"account_holder"`
	RoutingNumber string `json:"routing_number"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type"`
}
