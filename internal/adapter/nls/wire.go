package nls

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"lendcore/internal/domain/servicing"
	"lendcore/pkg/civil"
)

// date accepts the servicing system's date renderings; empty and null decode to nil.
type date struct{ t *time.Time }

var dateLayouts = []string{civil.Layout, "2006-01-02T15:04:05", time.RFC3339, "01/02/2006"}

func (d *date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		d.t = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.t = nil
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.t = civil.Ptr(t)
			return nil
		}
	}
	return fmt.Errorf("nls: unparseable date %q", s)
}

func (d date) value() time.Time {
	if d.t == nil {
		return time.Time{}
	}
	return *d.t
}

type registerLoanReq struct {
	CIFNumber        string          `json:"cif_number"`
	LoanNumber       string          `json:"loan_number"`
	LoanTemplate     string          `json:"loan_template"`
	LoanAmount       decimal.Decimal `json:"loan_amount"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	Term             int             `json:"term"`
	PaymentFrequency string          `json:"payment_frequency"`
	OriginationDate  string          `json:"origination_date"`
	OriginationFee   decimal.Decimal `json:"origination_fee"`
	LatePaymentFee   decimal.Decimal `json:"late_payment_fee"`
	IsLineOfCredit   bool            `json:"is_line_of_credit"`
	CreditLimit      decimal.Decimal `json:"credit_limit,omitempty"`
}

// accountRef accepts the reference as a JSON number or string.
type accountRef string

func (a *accountRef) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*a = accountRef(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*a = accountRef(strings.TrimSpace(s))
	return nil
}

type registerResp struct {
	AccountRef accountRef `json:"acctrefno"`
}

type loanDetailsResp struct {
	CurrentPrincipalBalance decimal.Decimal `json:"current_principal_balance"`
	InterestAccruedThru     date            `json:"interest_accrued_thru_date"`
	PrincipalPaidThru       date            `json:"principal_paid_thru_date"`
	NextBillingDate         date            `json:"next_billing_date"`
	NextAccrualCutoff       date            `json:"next_accrual_cutoff_date"`
	ScheduledPayoffDate     date            `json:"scheduled_payoff_date"`
	MaturityDate            date            `json:"curr_maturity_date"`
}

type paymentInfoResp struct {
	NextPaymentAmount     decimal.Decimal `json:"next_payment_total_amount"`
	NextPaymentDate       date            `json:"next_payment_date"`
	CurrentPaymentAmount  decimal.Decimal `json:"current_payment_amount"`
	CurrentPaymentDueDate date            `json:"current_due_date"`
	LastPaymentDate       date            `json:"last_payment_date"`
}

type amortizationRow struct {
	Date      date            `json:"date"`
	Payment   decimal.Decimal `json:"payment_amount"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Balance   decimal.Decimal `json:"balance"`
	IsHistory bool            `json:"is_history"`
}

type historyRow struct {
	DatePaid    date            `json:"date_paid"`
	Description string          `json:"payment_description"`
	PaymentType string          `json:"payment_type"`
	Amount      decimal.Decimal `json:"payment_amount"`
	Reversed    bool            `json:"payment_reversed"`
}

type dueRow struct {
	DateDue     date            `json:"date_due"`
	Description string          `json:"payment_description"`
	Amount      decimal.Decimal `json:"payment_amount"`
	Remaining   decimal.Decimal `json:"payment_remaining"`
}

type statisticsRow struct {
	Year          int             `json:"year_number"`
	Month         int             `json:"month_number"`
	MasterRecord  bool            `json:"master_record"`
	PrincipalPaid decimal.Decimal `json:"principal_paid"`
	InterestPaid  decimal.Decimal `json:"interest_paid"`
	FeesPaid      decimal.Decimal `json:"fees_paid"`
}

type postPaymentReq struct {
	Amount        decimal.Decimal `json:"payment_amount"`
	EffectiveDate string          `json:"effective_date"`
	PaymentMethod string          `json:"payment_method"`
}

type accrueReq struct {
	AccrueTo string `json:"accrue_to_date"`
}

type aprReq struct {
	Amount           decimal.Decimal `json:"loan_amount"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	Term             int             `json:"term"`
	PaymentFrequency string          `json:"payment_frequency"`
	PrepaidFees      decimal.Decimal `json:"prepaid_finance_charges"`
	PaymentAmount    decimal.Decimal `json:"payment_amount"`
}

type aprResp struct {
	APR decimal.Decimal `json:"apr"`
}

func historyKind(code string) servicing.TransactionKind {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "P", "PR", "PRINCIPAL":
		return servicing.TxnPrincipal
	case "I", "IN", "INTEREST":
		return servicing.TxnInterest
	default:
		return servicing.TxnFee
	}
}

func (r loanDetailsResp) normalize() servicing.LoanDetails {
	return servicing.LoanDetails{
		CurrentPrincipalBalance: r.CurrentPrincipalBalance,
		InterestAccruedThru:     r.InterestAccruedThru.t,
		PrincipalPaidThru:       r.PrincipalPaidThru.t,
		NextBillingDate:         r.NextBillingDate.t,
		NextAccrualCutoff:       r.NextAccrualCutoff.t,
		ScheduledPayoffDate:     r.ScheduledPayoffDate.t,
		MaturityDate:            r.MaturityDate.t,
	}
}

func (r paymentInfoResp) normalize() servicing.PaymentDetails {
	return servicing.PaymentDetails{
		NextPaymentAmount:     r.NextPaymentAmount,
		NextPaymentDate:       r.NextPaymentDate.t,
		CurrentPaymentAmount:  r.CurrentPaymentAmount,
		CurrentPaymentDueDate: r.CurrentPaymentDueDate.t,
		LastPaymentDate:       r.LastPaymentDate.t,
	}
}

func normalizeAmortization(rows []amortizationRow) []servicing.AmortizationEntry {
	out := make([]servicing.AmortizationEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, servicing.AmortizationEntry{
			Date: r.Date.value(), Payment: r.Payment, Principal: r.Principal,
			Interest: r.Interest, Balance: r.Balance, IsHistory: r.IsHistory,
		})
	}
	return out
}

func normalizeHistory(rows []historyRow) []servicing.HistoryEntry {
	out := make([]servicing.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, servicing.HistoryEntry{
			PaidDate: r.DatePaid.value(), Description: r.Description,
			Kind: historyKind(r.PaymentType), Amount: r.Amount, Reversed: r.Reversed,
		})
	}
	return out
}

func normalizeDue(rows []dueRow) []servicing.PaymentDue {
	out := make([]servicing.PaymentDue, 0, len(rows))
	for _, r := range rows {
		out = append(out, servicing.PaymentDue{
			DueDate: r.DateDue.value(), Description: r.Description, Amount: r.Amount, Remaining: r.Remaining,
		})
	}
	return out
}

func normalizeStatistics(rows []statisticsRow) []servicing.Statistics {
	out := make([]servicing.Statistics, 0, len(rows))
	for _, r := range rows {
		out = append(out, servicing.Statistics{
			Year: r.Year, Month: r.Month, Master: r.MasterRecord,
			PrincipalPaid: r.PrincipalPaid, InterestPaid: r.InterestPaid, FeesPaid: r.FeesPaid,
		})
	}
	return out
}
