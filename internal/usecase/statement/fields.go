package statement

import (
	"fmt"
	"time"

	"lendcore/pkg/money"
)

const maxTransactions = 5

// Transaction is one row of the statement's activity table. Amounts in cents.
type Transaction struct {
	Date        time.Time
	Description string
	Principal   int64
	Interest    int64
	Fees        int64
}

func (t Transaction) Total() int64 { return t.Principal + t.Interest + t.Fees }

// Fields is the installment statement template schema. Every template key is a field here,
// so a missing value is a zero value rather than an absent key.
type Fields struct {
	StatementDate time.Time
	PeriodStart   time.Time
	PeriodEnd     time.Time

	BorrowerName  string
	Address1      string
	Address2      string
	City          string
	State         string
	PostalCode    string
	Email         string
	AccountNumber string
	CreditType    string

	AmountDue       int64
	PaymentDueDate  *time.Time
	Balance         int64
	InterestRateBps int
	APRBps          int
	RemainingTerm   int
	MaturityDate    *time.Time

	PeriodPrincipal int64
	PeriodInterest  int64
	PeriodFees      int64

	YTDPrincipal      int64
	YTDInterest       int64
	YTDFees           int64
	LifetimePrincipal int64
	LifetimeInterest  int64
	LifetimeFees      int64

	Transactions [maxTransactions]Transaction

	CustomerServicePhone string
	CustomerServiceEmail string
	CustomerServiceHours string
}

const dateLayout = "01/02/2006"

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func datePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return date(*t)
}

func pct(bps int) string { return fmt.Sprintf("%d.%02d%%", bps/100, bps%100) }

// Map flattens the schema into the template's field names.
func (f Fields) Map() map[string]any {
	m := map[string]any{
		"statement_date": date(f.StatementDate),
		"period_start":   date(f.PeriodStart),
		"period_end":     date(f.PeriodEnd),

		"borrower_name":  f.BorrowerName,
		"address_1":      f.Address1,
		"address_2":      f.Address2,
		"city":           f.City,
		"state":          f.State,
		"postal_code":    f.PostalCode,
		"email":          f.Email,
		"account_number": f.AccountNumber,
		"credit_type":    f.CreditType,

		"amount_due":       money.Format(f.AmountDue),
		"payment_due_date": datePtr(f.PaymentDueDate),
		"balance":          money.Format(f.Balance),
		"interest_rate":    pct(f.InterestRateBps),
		"apr":              pct(f.APRBps),
		"remaining_term":   f.RemainingTerm,
		"maturity_date":    datePtr(f.MaturityDate),

		"period_principal": money.Format(f.PeriodPrincipal),
		"period_interest":  money.Format(f.PeriodInterest),
		"period_fees":      money.Format(f.PeriodFees),
		"period_total":     money.Format(f.PeriodPrincipal + f.PeriodInterest + f.PeriodFees),

		"ytd_principal":      money.Format(f.YTDPrincipal),
		"ytd_interest":       money.Format(f.YTDInterest),
		"ytd_fees":           money.Format(f.YTDFees),
		"lifetime_principal": money.Format(f.LifetimePrincipal),
		"lifetime_interest":  money.Format(f.LifetimeInterest),
		"lifetime_fees":      money.Format(f.LifetimeFees),

		"customer_service_phone": f.CustomerServicePhone,
		"customer_service_email": f.CustomerServiceEmail,
		"customer_service_hours": f.CustomerServiceHours,
	}
	for i, t := range f.Transactions {
		n := i + 1
		m[fmt.Sprintf("txn_%d_date", n)] = date(t.Date)
		m[fmt.Sprintf("txn_%d_description", n)] = t.Description
		m[fmt.Sprintf("txn_%d_principal", n)] = money.Format(t.Principal)
		m[fmt.Sprintf("txn_%d_interest", n)] = money.Format(t.Interest)
		m[fmt.Sprintf("txn_%d_total", n)] = money.Format(t.Total())
	}
	return m
}
