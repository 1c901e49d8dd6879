package origination

import (
	"time"

	"gorm.io/datatypes"
)

type AgreementStatus string

const (
	AgreementPending AgreementStatus = "pending"
	AgreementSigned  AgreementStatus = "signed"
	AgreementVoided  AgreementStatus = "voided"
)

type LoanAgreement struct {
	ID              uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanAgreementID string          `gorm:"column:loan_agreement_id;size:32;uniqueIndex" json:"loan_agreement_id"`
	ClientID        string          `gorm:"column:client_id;size:32;index" json:"client_id"`
	ApplicationID   string          `gorm:"column:application_id;size:32" json:"application_id"`
	BorrowerID      string          `gorm:"column:borrower_id;size:32" json:"borrower_id"`
	Status          AgreementStatus `gorm:"column:status;size:16" json:"status"`
	SignedAt        *time.Time      `gorm:"column:signed_at" json:"signed_at"`
	DocumentURL     string          `gorm:"column:document_url;type:text" json:"document_url"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (LoanAgreement) TableName() string { return "loan_agreements" }

// Offer is the accepted credit terms snapshot. Amounts in cents, rates in basis points.
type Offer struct {
	Amount             int64  `json:"amount"`
	InterestRateBps    int    `json:"interest_rate_bps"`
	InterestType       string `json:"interest_type"`
	Term               int    `json:"term"`
	RepaymentFrequency string `json:"repayment_frequency"`
	OriginationFee     int64  `json:"origination_fee"`
	LatePaymentFee     int64  `json:"late_payment_fee"`
	PaymentAmount      int64  `json:"payment_amount"`
}

type Application struct {
	ID            uint64                    `gorm:"primaryKey;column:id" json:"-"`
	ApplicationID string                    `gorm:"column:application_id;size:32;uniqueIndex" json:"application_id"`
	ClientID      string                    `gorm:"column:client_id;size:32;index" json:"client_id"`
	BorrowerID    string                    `gorm:"column:borrower_id;size:32" json:"borrower_id"`
	CreditType    string                    `gorm:"column:credit_type;size:64" json:"credit_type"`
	AcceptedOffer datatypes.JSONType[Offer] `gorm:"column:accepted_offer" json:"accepted_offer"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Application) TableName() string { return "applications" }

type Borrower struct {
	ID           uint64    `gorm:"primaryKey;column:id" json:"-"`
	BorrowerID   string    `gorm:"column:borrower_id;size:32;uniqueIndex" json:"borrower_id"`
	ClientID     string    `gorm:"column:client_id;size:32;index" json:"client_id"`
	CIFNumber    string    `gorm:"column:cif_number;size:32" json:"cif_number"`
	FirstName    string    `gorm:"column:first_name" json:"first_name"`
	LastName     string    `gorm:"column:last_name" json:"last_name"`
	BusinessName string    `gorm:"column:business_name" json:"business_name"`
	Email        string    `gorm:"column:email" json:"email"`
	Phone        string    `gorm:"column:phone" json:"phone"`
	Address1     string    `gorm:"column:address1" json:"address1"`
	Address2     string    `gorm:"column:address2" json:"address2"`
	City         string    `gorm:"column:city" json:"city"`
	State        string    `gorm:"column:state;size:2" json:"state"`
	PostalCode   string    `gorm:"column:postal_code;size:10" json:"postal_code"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Borrower) TableName() string { return "borrowers" }

// DisplayName prefers the business name for commercial borrowers.
func (b *Borrower) DisplayName() string {
	if b.BusinessName != "" {
		return b.BusinessName
	}
	if b.LastName == "" {
		return b.FirstName
	}
	return b.FirstName + " " + b.LastName
}

// Client is the tenant a facility is originated for.
type Client struct {
	ID                 uint64    `gorm:"primaryKey;column:id" json:"-"`
	ClientID           string    `gorm:"column:client_id;size:32;uniqueIndex" json:"client_id"`
	Name               string    `gorm:"column:name" json:"name"`
	FacilityAutocreate bool      `gorm:"column:facility_autocreate" json:"facility_autocreate"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Client) TableName() string { return "clients" }
