// Package facility is the facility lifecycle manager: creation from a signed agreement,
// servicing registration and the tenant-facing facility actions.
package facility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lendcore/internal/domain/apperr"
	"lendcore/internal/domain/facility"
	"lendcore/internal/domain/notify"
	"lendcore/internal/domain/origination"
	"lendcore/internal/domain/servicing"
	"lendcore/internal/domain/uow"
	"lendcore/pkg/civil"
	"lendcore/pkg/id"
	"lendcore/pkg/money"
)

// Syncer is the synchronization engine as seen by the lifecycle manager.
type Syncer interface {
	Sync(ctx context.Context, f *facility.Facility) (*facility.Facility, error)
}

// Sealer encrypts repayment bank details before they are stored.
type Sealer interface {
	Seal(plain []byte) (string, error)
}

type Deps struct {
	Facilities  facility.Repository
	Origination origination.Repository
	UoW         uow.UnitOfWork
	Gateway     servicing.Gateway
	Syncer      Syncer
	Notifier    notify.Notifier
	Sealer      Sealer
	Log         *zap.Logger

	// Environment gates the duplicate-agreement check (development skips it) and production notifications.
	Environment   string
	NotifyChannel string
}

type Usecase struct {
	facilities  facility.Repository
	origination origination.Repository
	uow         uow.UnitOfWork
	gateway     servicing.Gateway
	syncer      Syncer
	notifier    notify.Notifier
	sealer      Sealer
	log         *zap.Logger

	env     string
	channel string
	now     func() time.Time
}

func NewUsecase(d Deps) *Usecase {
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Usecase{
		facilities:  d.Facilities,
		origination: d.Origination,
		uow:         d.UoW,
		gateway:     d.Gateway,
		syncer:      d.Syncer,
		notifier:    d.Notifier,
		sealer:      d.Sealer,
		log:         d.Log,
		env:         d.Environment,
		channel:     d.NotifyChannel,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (u *Usecase) isDevelopment() bool { return u.env == "development" }

func internalErr(msg string, err error) error {
	return apperr.Wrap(apperr.KindInternal, "internal_error", msg, err)
}

// Create originates a facility for a signed loan agreement.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*facility.Facility, error) {
	log := u.log.With(zap.String("loan_agreement_id", in.LoanAgreementID), zap.String("client_id", in.ClientID))

	agreement, err := u.origination.GetAgreement(ctx, in.ClientID, in.LoanAgreementID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "loan_agreement_not_found", "loan agreement not found")
	}
	if err != nil {
		return nil, internalErr("load loan agreement", err)
	}
	if agreement.Status != origination.AgreementSigned || agreement.SignedAt == nil {
		return nil, apperr.New(apperr.KindInvalidState, "loan_agreement_not_signed",
			fmt.Sprintf("loan agreement is %s, not signed", agreement.Status))
	}

	if !u.isDevelopment() {
		existing, err := u.facilities.GetByLoanAgreementID(ctx, in.LoanAgreementID)
		switch {
		case err == nil:
			return nil, apperr.New(apperr.KindAlreadyExists, "facility_exists",
				"facility "+existing.FacilityID+" already exists for this loan agreement")
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, internalErr("check existing facility", err)
		}
	}

	app, err := u.origination.GetApplication(ctx, agreement.ApplicationID)
	if err != nil {
		return nil, u.lookupErr("application", err)
	}
	creditType := facility.CreditType(app.CreditType)
	if !creditType.Supported() {
		return nil, apperr.New(apperr.KindUnsupportedProduct, "unsupported_credit_type",
			fmt.Sprintf("credit type %q is not supported", app.CreditType))
	}

	if !in.IsAutocreated {
		client, err := u.origination.GetClient(ctx, in.ClientID)
		if err != nil {
			return nil, u.lookupErr("client", err)
		}
		if client.FacilityAutocreate {
			return nil, apperr.New(apperr.KindUnsupportedProduct, "facility_autocreate_enabled",
				"facilities for this client are created automatically on signature")
		}
	}

	borrower, err := u.origination.GetBorrower(ctx, agreement.BorrowerID)
	if err != nil {
		return nil, u.lookupErr("borrower", err)
	}

	f := derive(agreement, app, borrower, in)
	log = log.With(zap.String("facility_id", f.FacilityID), zap.String("credit_type", string(f.CreditType)))

	if creditType.MerchantAdvance() {
		f.Balance = f.Amount
		f.InterestType = facility.InterestTypeOther
		f.LatePaymentFee = 0
		f.LifecycleState = facility.StateNotServiced
		if err := u.facilities.Create(ctx, f); err != nil {
			return nil, internalErr("persist facility", err)
		}
		log.Info("merchant advance facility created")
		u.announce(ctx, f, borrower)
		return f, nil
	}

	if err := u.facilities.Create(ctx, f); err != nil {
		return nil, internalErr("persist draft facility", err)
	}

	ref, err := u.register(ctx, f)
	if err != nil {
		// the draft stays behind without an account reference; recovery tooling finds it by lifecycle state
		log.Error("servicing registration failed", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindServicing, "servicing_registration_failed", "servicing registration failed", err)
	}
	if err := u.facilities.AssignAccountRef(ctx, f.FacilityID, ref); err != nil {
		return nil, internalErr("store account reference", err)
	}
	f.NLSAccountRef = &ref
	f.LifecycleState = facility.StateServicingRegistered

	if creditType.Installment() {
		offer := app.AcceptedOffer.Data()
		apr, err := u.gateway.CalculateAPR(ctx, aprTerms(f), money.FromMinorUnits(offer.PaymentAmount))
		if err != nil {
			log.Warn("apr calculation failed", zap.Error(err))
		} else {
			f.APRBps = apr
		}
	}
	if err := u.facilities.Save(ctx, f); err != nil {
		return nil, internalErr("persist registered facility", err)
	}

	synced, err := u.syncer.Sync(ctx, f)
	if err != nil {
		log.Error("initial servicing sync failed", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindServicingSync, "servicing_sync_failed", "initial servicing sync failed", err)
	}
	log.Info("facility created", zap.String("nls_account_ref", ref))
	u.announce(ctx, synced, borrower)
	return synced, nil
}

func (u *Usecase) lookupErr(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.KindNotFound, what+"_not_found", what+" not found")
	}
	return internalErr("load "+what, err)
}

func derive(a *origination.LoanAgreement, app *origination.Application, b *origination.Borrower, in CreateInput) *facility.Facility {
	offer := app.AcceptedOffer.Data()
	creditType := facility.CreditType(app.CreditType)
	originated := civil.Date(*a.SignedAt)

	f := &facility.Facility{
		FacilityID:         id.NewID32(),
		ApplicationID:      app.ApplicationID,
		BorrowerID:         b.BorrowerID,
		ClientID:           in.ClientID,
		LoanAgreementID:    a.LoanAgreementID,
		AccountNumber:      id.NewAccountNumber(),
		CreditType:         creditType,
		Amount:             offer.Amount,
		InterestRateBps:    offer.InterestRateBps,
		InterestType:       offer.InterestType,
		Term:               offer.Term,
		RepaymentFrequency: offer.RepaymentFrequency,
		OriginationFee:     offer.OriginationFee,
		LatePaymentFee:     offer.LatePaymentFee,
		CIFNumber:          b.CIFNumber,
		OriginationDate:    &originated,
		RemainingTerm:      offer.Term,
		Status:             facility.StatusActive,
		LifecycleState:     facility.StateDraft,
		IsAutocreated:      in.IsAutocreated,
	}
	// revolving lines disburse on draw, not at origination
	if !creditType.Revolving() {
		disbursed := originated
		f.DisbursementDate = &disbursed
	}
	if f.InterestType == "" {
		f.InterestType = facility.InterestTypeFixed
	}
	return f
}

func rate(bps int) decimal.Decimal { return decimal.New(int64(bps), -2) }

func (u *Usecase) register(ctx context.Context, f *facility.Facility) (string, error) {
	if f.CreditType.Revolving() {
		return u.gateway.RegisterLineOfCredit(ctx, servicing.LineOfCreditParams{
			CIFNumber:       f.CIFNumber,
			LoanNumber:      f.AccountNumber,
			ProductCode:     string(f.CreditType),
			CreditLimit:     money.FromMinorUnits(f.Amount),
			InterestRate:    rate(f.InterestRateBps),
			OriginationDate: *f.OriginationDate,
			LatePaymentFee:  money.FromMinorUnits(f.LatePaymentFee),
		})
	}
	return u.gateway.RegisterLoan(ctx, servicing.LoanParams{
		CIFNumber:          f.CIFNumber,
		LoanNumber:         f.AccountNumber,
		ProductCode:        string(f.CreditType),
		Amount:             money.FromMinorUnits(f.Amount),
		InterestRate:       rate(f.InterestRateBps),
		Term:               f.Term,
		RepaymentFrequency: f.RepaymentFrequency,
		OriginationDate:    *f.OriginationDate,
		OriginationFee:     money.FromMinorUnits(f.OriginationFee),
		LatePaymentFee:     money.FromMinorUnits(f.LatePaymentFee),
	})
}

func aprTerms(f *facility.Facility) servicing.APRTerms {
	return servicing.APRTerms{
		Amount:             money.FromMinorUnits(f.Amount),
		InterestRate:       rate(f.InterestRateBps),
		Term:               f.Term,
		RepaymentFrequency: f.RepaymentFrequency,
		Fees:               money.FromMinorUnits(f.OriginationFee),
	}
}

// announce posts the production creation notice. Delivery failures are only logged.
func (u *Usecase) announce(ctx context.Context, f *facility.Facility, b *origination.Borrower) {
	if u.env != "production" {
		return
	}
	msg := fmt.Sprintf("Facility created for %s: %s, %s, state %s, account %s",
		b.DisplayName(), f.CreditType, money.Format(f.Amount),
		f.LifecycleState, f.AccountNumber)
	if err := u.notifier.Notify(ctx, u.channel, msg); err != nil {
		u.log.Warn("facility notification failed", zap.String("facility_id", f.FacilityID), zap.Error(err))
	}
}

// HandleAgreementSigned marks the agreement signed and, for tenants that opted in, creates its facility.
// A nil facility with nil error means the tenant creates facilities manually.
func (u *Usecase) HandleAgreementSigned(ctx context.Context, clientID, loanAgreementID string, signedAt time.Time) (*facility.Facility, error) {
	agreement, err := u.origination.GetAgreement(ctx, clientID, loanAgreementID)
	if err != nil {
		return nil, u.lookupErr("loan_agreement", err)
	}
	switch agreement.Status {
	case origination.AgreementSigned:
	case origination.AgreementPending:
		if err := u.origination.MarkAgreementSigned(ctx, loanAgreementID, signedAt.UTC()); err != nil {
			return nil, internalErr("mark agreement signed", err)
		}
	default:
		return nil, apperr.New(apperr.KindInvalidState, "loan_agreement_voided", "loan agreement is "+string(agreement.Status))
	}

	client, err := u.origination.GetClient(ctx, clientID)
	if err != nil {
		return nil, u.lookupErr("client", err)
	}
	if !client.FacilityAutocreate {
		return nil, nil
	}
	return u.Create(ctx, CreateInput{LoanAgreementID: loanAgreementID, ClientID: clientID, IsAutocreated: true})
}
