package nls

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lendcore/internal/domain/servicing"
	"lendcore/pkg/civil"
)

var _ servicing.Gateway = (*Client)(nil)

var hundred = decimal.NewFromInt(100)

func loanPath(ref, suffix string) string {
	return "/loans/" + url.PathEscape(ref) + suffix
}

func (c *Client) register(ctx context.Context, path string, req registerLoanReq) (string, error) {
	var out registerResp
	err := c.withToken(ctx, func(token string) error {
		return c.do(ctx, token, http.MethodPost, path, req, &out)
	})
	if err != nil {
		return "", err
	}
	if out.AccountRef == "" || out.AccountRef == "0" {
		return "", fmt.Errorf("%w: registration returned no account reference", ErrUnexpectedShape)
	}
	c.log.Info("nls loan registered", zap.String("loan_number", req.LoanNumber), zap.String("acctrefno", string(out.AccountRef)))
	return string(out.AccountRef), nil
}

func (c *Client) RegisterLoan(ctx context.Context, p servicing.LoanParams) (string, error) {
	req := registerLoanReq{
		CIFNumber:        p.CIFNumber,
		LoanNumber:       p.LoanNumber,
		LoanTemplate:     p.ProductCode,
		LoanAmount:       p.Amount,
		InterestRate:     p.InterestRate,
		Term:             p.Term,
		PaymentFrequency: p.RepaymentFrequency,
		OriginationDate:  p.OriginationDate.Format(civil.Layout),
		OriginationFee:   p.OriginationFee,
		LatePaymentFee:   p.LatePaymentFee,
	}
	return c.register(ctx, "/loans", req)
}

func (c *Client) RegisterLineOfCredit(ctx context.Context, p servicing.LineOfCreditParams) (string, error) {
	req := registerLoanReq{
		CIFNumber:       p.CIFNumber,
		LoanNumber:      p.LoanNumber,
		LoanTemplate:    p.ProductCode,
		InterestRate:    p.InterestRate,
		OriginationDate: p.OriginationDate.Format(civil.Layout),
		LatePaymentFee:  p.LatePaymentFee,
		IsLineOfCredit:  true,
		CreditLimit:     p.CreditLimit,
	}
	return c.register(ctx, "/lines_of_credit", req)
}

// ReadLoan performs every part of the read under one credential; any failed part fails the whole read.
func (c *Client) ReadLoan(ctx context.Context, ref string) (*servicing.LoanRecord, error) {
	var (
		details loanDetailsResp
		payment paymentInfoResp
		amort   []amortizationRow
		history []historyRow
		due     []dueRow
		stats   []statisticsRow
	)
	// list parts of a freshly registered loan may come back null
	parts := []struct {
		suffix string
		out    any
		list   bool
	}{
		{"/details", &details, false},
		{"/payment_info", &payment, false},
		{"/amortization_schedule", &amort, true},
		{"/payment_history", &history, true},
		{"/payments_due", &due, true},
		{"/statistics", &stats, true},
	}
	err := c.withToken(ctx, func(token string) error {
		for _, p := range parts {
			if err := c.call(ctx, token, http.MethodGet, loanPath(ref, p.suffix), nil, p.out, p.list); err != nil {
				return fmt.Errorf("read %s: %w", p.suffix, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &servicing.LoanRecord{
		Details:      details.normalize(),
		Payment:      payment.normalize(),
		Amortization: normalizeAmortization(amort),
		History:      normalizeHistory(history),
		Due:          normalizeDue(due),
		Statistics:   normalizeStatistics(stats),
	}, nil
}

func (c *Client) PostPayment(ctx context.Context, ref string, amount decimal.Decimal, on time.Time) error {
	req := postPaymentReq{Amount: amount, EffectiveDate: on.Format(civil.Layout), PaymentMethod: "ACH"}
	return c.withToken(ctx, func(token string) error {
		return c.do(ctx, token, http.MethodPost, loanPath(ref, "/payments"), req, nil)
	})
}

func (c *Client) AccrueTo(ctx context.Context, ref string, on time.Time) error {
	req := accrueReq{AccrueTo: on.Format(civil.Layout)}
	return c.withToken(ctx, func(token string) error {
		return c.do(ctx, token, http.MethodPost, loanPath(ref, "/accrue"), req, nil)
	})
}

// CalculateAPR returns the APR in basis points, rounded half away from zero.
func (c *Client) CalculateAPR(ctx context.Context, terms servicing.APRTerms, payment decimal.Decimal) (int, error) {
	req := aprReq{
		Amount:           terms.Amount,
		InterestRate:     terms.InterestRate,
		Term:             terms.Term,
		PaymentFrequency: terms.RepaymentFrequency,
		PrepaidFees:      terms.Fees,
		PaymentAmount:    payment,
	}
	var out aprResp
	err := c.withToken(ctx, func(token string) error {
		return c.do(ctx, token, http.MethodPost, "/calculators/apr", req, &out)
	})
	if err != nil {
		return 0, err
	}
	return int(out.APR.Mul(hundred).Round(0).IntPart()), nil
}
