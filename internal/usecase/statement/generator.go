// Package statement renders billing-period statements for installment facilities.
package statement

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lendcore/internal/config"
	"lendcore/internal/domain/apperr"
	"lendcore/internal/domain/document"
	"lendcore/internal/domain/facility"
	"lendcore/internal/domain/origination"
	"lendcore/internal/domain/servicing"
	stmt "lendcore/internal/domain/statement"
	"lendcore/internal/domain/uow"
	"lendcore/pkg/civil"
	"lendcore/pkg/id"
	"lendcore/pkg/money"
)

type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeSkipped Outcome = "skipped"
)

// Skip reasons reported in job reports.
const (
	ReasonCreditType      = "credit type has no statements"
	ReasonNoAccountRef    = "no servicing account reference"
	ReasonNotBillingReady = "accrual is not one day before next billing date"
	ReasonAlreadyExists   = "statement already exists for billing date"
)

type Result struct {
	Outcome   Outcome
	Reason    string
	Statement *stmt.Statement
}

func skipped(reason string) *Result { return &Result{Outcome: OutcomeSkipped, Reason: reason} }

type Generator struct {
	statements stmt.Repository
	borrowers  origination.Repository
	uow        uow.UnitOfWork
	gateway    servicing.Gateway
	docs       document.Generator
	templates  map[string]string
	support    config.CustomerService
	log        *zap.Logger
}

func NewGenerator(
	statements stmt.Repository,
	borrowers origination.Repository,
	tx uow.UnitOfWork,
	gw servicing.Gateway,
	docs document.Generator,
	cfg config.DocGen,
	support config.CustomerService,
	log *zap.Logger,
) *Generator {
	return &Generator{
		statements: statements,
		borrowers:  borrowers,
		uow:        tx,
		gateway:    gw,
		docs:       docs,
		templates:  cfg.StatementTemplates,
		support:    support,
		log:        log,
	}
}

// billingReady holds when accrual sits exactly one day before the next billing date.
func billingReady(f *facility.Facility) bool {
	accrued, next := f.InterestAccruedThru, f.NextBillingDate
	if accrued == nil || next == nil {
		return false
	}
	a, n := civil.Date(*accrued), civil.Date(*next)
	return a.Before(n) && civil.DaysBetween(a, n) == 1
}

// Generate renders and stores the statement for the facility's next billing date.
// Ineligible facilities are skipped, never errored.
func (g *Generator) Generate(ctx context.Context, f *facility.Facility) (*Result, error) {
	if !f.CreditType.Statemented() {
		return skipped(ReasonCreditType), nil
	}
	if !f.HasAccountRef() {
		return skipped(ReasonNoAccountRef), nil
	}
	if !billingReady(f) {
		return skipped(ReasonNotBillingReady), nil
	}
	billing := civil.Date(*f.NextBillingDate)
	log := g.log.With(zap.String("facility_id", f.FacilityID), zap.String("statement_date", billing.Format(civil.Layout)))

	exists, err := g.statements.Exists(ctx, f.FacilityID, billing)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "internal_error", "check existing statement", err)
	}
	if exists {
		return skipped(ReasonAlreadyExists), nil
	}

	templateID := g.templates[string(f.CreditType)]
	if templateID == "" {
		return nil, apperr.New(apperr.KindDocument, "missing_template", "no statement template for "+string(f.CreditType))
	}

	start, err := g.periodStart(ctx, f)
	if err != nil {
		return nil, err
	}
	rec, err := g.gateway.ReadLoan(ctx, f.AccountRef())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindServicing, "servicing_read_failed", "read servicing record", err)
	}
	borrower, err := g.borrowers.GetBorrower(ctx, f.BorrowerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "internal_error", "load borrower", err)
	}

	fields := g.build(f, borrower, rec, start, billing)

	sub, err := g.docs.Submit(ctx, templateID, fields)
	if err != nil {
		log.Error("statement submission failed", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindDocument, "document_submit_failed", "statement submission failed", err)
	}
	done, err := g.docs.Await(ctx, sub.ID)
	if err != nil {
		log.Error("statement render failed", zap.String("submission_id", sub.ID), zap.Error(err))
		return nil, apperr.Wrap(apperr.KindDocument, "document_render_failed", "statement was not rendered", err)
	}
	if done.DownloadURL == "" {
		return nil, apperr.New(apperr.KindDocument, "document_missing_url", "statement rendered without a download url")
	}

	s := &stmt.Statement{
		StatementID:   id.NewID32(),
		FacilityID:    f.FacilityID,
		StatementDate: billing,
		PeriodStart:   fields.PeriodStart,
		PeriodEnd:     fields.PeriodEnd,
		AmountDue:     fields.AmountDue,
		PaymentDueOn:  fields.PaymentDueDate,
		SubmissionID:  sub.ID,
		DocumentURL:   done.DownloadURL,
	}
	var dup bool
	err = g.uow.WithinTx(ctx, func(r uow.Repos) error {
		exists, err := r.Statements.Exists(ctx, f.FacilityID, billing)
		if err != nil {
			return err
		}
		if exists {
			dup = true
			return nil
		}
		return r.Statements.Create(ctx, s)
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "internal_error", "persist statement", err)
	}
	if dup {
		// a concurrent run won; the rendered submission is left orphaned
		log.Warn("statement created concurrently", zap.String("submission_id", sub.ID))
		return skipped(ReasonAlreadyExists), nil
	}
	log.Info("statement created", zap.String("statement_id", s.StatementID))
	return &Result{Outcome: OutcomeCreated, Statement: s}, nil
}

// periodStart is the previous billing date, or origination for the first, shortened cycle.
func (g *Generator) periodStart(ctx context.Context, f *facility.Facility) (time.Time, error) {
	prev, err := g.statements.Latest(ctx, f.FacilityID)
	switch {
	case err == nil:
		return civil.Date(prev.StatementDate), nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return time.Time{}, apperr.Wrap(apperr.KindInternal, "internal_error", "load previous statement", err)
	case f.OriginationDate != nil:
		return civil.Date(*f.OriginationDate), nil
	default:
		return civil.Date(f.CreatedAt), nil
	}
}

func (g *Generator) build(f *facility.Facility, b *origination.Borrower, rec *servicing.LoanRecord, start, billing time.Time) Fields {
	out := Fields{
		StatementDate: billing,
		PeriodStart:   start,
		PeriodEnd:     billing.AddDate(0, 0, -1),

		BorrowerName:  b.DisplayName(),
		Address1:      b.Address1,
		Address2:      b.Address2,
		City:          b.City,
		State:         b.State,
		PostalCode:    b.PostalCode,
		Email:         b.Email,
		AccountNumber: f.AccountNumber,
		CreditType:    string(f.CreditType),

		AmountDue:       f.NextPaymentAmount,
		PaymentDueDate:  f.NextPaymentDate,
		Balance:         f.Balance,
		InterestRateBps: f.InterestRateBps,
		APRBps:          f.APRBps,
		RemainingTerm:   f.RemainingTerm,
		MaturityDate:    f.MaturityDate,

		CustomerServicePhone: g.support.Phone,
		CustomerServiceEmail: g.support.Email,
		CustomerServiceHours: g.support.Hours,
	}

	txns := periodTransactions(rec.History, start, billing)
	for i, t := range txns {
		out.PeriodPrincipal += t.Principal
		out.PeriodInterest += t.Interest
		out.PeriodFees += t.Fees
		if i < maxTransactions {
			out.Transactions[i] = t
		}
	}

	for _, s := range rec.Statistics {
		switch {
		case s.Master:
			out.LifetimePrincipal = money.ToMinorUnits(s.PrincipalPaid)
			out.LifetimeInterest = money.ToMinorUnits(s.InterestPaid)
			out.LifetimeFees = money.ToMinorUnits(s.FeesPaid)
		case s.Year == billing.Year() && s.Month == 0:
			out.YTDPrincipal = money.ToMinorUnits(s.PrincipalPaid)
			out.YTDInterest = money.ToMinorUnits(s.InterestPaid)
			out.YTDFees = money.ToMinorUnits(s.FeesPaid)
		}
	}
	return out
}

// periodTransactions groups unreversed history lines paid in [from, to) into payments,
// keyed by paid date and description, oldest first.
func periodTransactions(history []servicing.HistoryEntry, from, to time.Time) []Transaction {
	type key struct {
		date time.Time
		desc string
	}
	idx := map[key]int{}
	var out []Transaction
	for _, h := range history {
		paid := civil.Date(h.PaidDate)
		if h.Reversed || paid.Before(from) || !paid.Before(to) {
			continue
		}
		k := key{paid, h.Description}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Transaction{Date: paid, Description: h.Description})
		}
		amt := money.ToMinorUnits(h.Amount)
		switch h.Kind {
		case servicing.TxnPrincipal:
			out[i].Principal += amt
		case servicing.TxnInterest:
			out[i].Interest += amt
		default:
			out[i].Fees += amt
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Date.Before(out[b].Date) })
	return out
}
