package facility

import (
	"time"

	"lendcore/internal/domain/facility"
)

type CreateInput struct {
	LoanAgreementID string
	ClientID        string
	IsAutocreated   bool
}

type BankDetailsInput struct {
	ClientID   string
	FacilityID string
	Details    facility.BankDetails
}

type AutopayInput struct {
	ClientID   string
	FacilityID string
	Enabled    bool
	Day        int // 1-28 when enabled
}

type PaymentInput struct {
	ClientID   string
	FacilityID string
	Amount     int64 // cents
	Date       time.Time
}
