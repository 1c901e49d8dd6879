package facility

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lendcore/internal/domain/apperr"
	"lendcore/internal/domain/facility"
	"lendcore/internal/domain/uow"
	"lendcore/pkg/civil"
	"lendcore/pkg/money"
)

var errFacilityNotFound = apperr.New(apperr.KindNotFound, "facility_not_found", "facility not found")

// Get returns a facility owned by clientID.
func (u *Usecase) Get(ctx context.Context, clientID, facilityID string) (*facility.Facility, error) {
	f, err := u.facilities.GetByFacilityID(ctx, facilityID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errFacilityNotFound
	}
	if err != nil {
		return nil, internalErr("load facility", err)
	}
	if f.ClientID != clientID {
		return nil, errFacilityNotFound
	}
	return f, nil
}

func (u *Usecase) List(ctx context.Context, clientID string) ([]facility.Facility, error) {
	out, err := u.facilities.ListByClientID(ctx, clientID)
	if err != nil {
		return nil, internalErr("list facilities", err)
	}
	return out, nil
}

// mutate runs fn against the locked row of an active facility owned by clientID and saves the result.
func (u *Usecase) mutate(ctx context.Context, clientID, facilityID string, fn func(f *facility.Facility) error) (*facility.Facility, error) {
	var out *facility.Facility
	err := u.uow.WithinFacilityTx(ctx, facilityID, func(r uow.Repos, f *facility.Facility) error {
		if f.ClientID != clientID {
			return errFacilityNotFound
		}
		if f.Status == facility.StatusClosed {
			return apperr.New(apperr.KindInvalidState, "facility_closed", "facility is closed")
		}
		if err := fn(f); err != nil {
			return err
		}
		if err := r.Facilities.Save(ctx, f); err != nil {
			return err
		}
		out = f
		return nil
	})
	if err == nil {
		return out, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errFacilityNotFound
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return nil, ae
	}
	return nil, internalErr("update facility", err)
}

// UpdateBankDetails seals the repayment account; only its last four digits stay readable.
func (u *Usecase) UpdateBankDetails(ctx context.Context, in BankDetailsInput) (*facility.Facility, error) {
	plain, err := json.Marshal(in.Details)
	if err != nil {
		return nil, internalErr("encode bank details", err)
	}
	sealed, err := u.sealer.Seal(plain)
	if err != nil {
		return nil, internalErr("seal bank details", err)
	}
	last4 := in.Details.AccountNumber
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}
	return u.mutate(ctx, in.ClientID, in.FacilityID, func(f *facility.Facility) error {
		f.RepaymentBankSealed = sealed
		f.RepaymentBankLast4 = last4
		return nil
	})
}

func (u *Usecase) SetAutopay(ctx context.Context, in AutopayInput) (*facility.Facility, error) {
	if in.Enabled && (in.Day < 1 || in.Day > 28) {
		return nil, apperr.New(apperr.KindValidation, "invalid_autopay_day", "autopay day must be between 1 and 28")
	}
	return u.mutate(ctx, in.ClientID, in.FacilityID, func(f *facility.Facility) error {
		if in.Enabled && f.RepaymentBankSealed == "" {
			return apperr.New(apperr.KindInvalidState, "bank_details_required", "set repayment bank details before enabling autopay")
		}
		f.AutopayEnabled = in.Enabled
		f.AutopayDay = 0
		if in.Enabled {
			f.AutopayDay = in.Day
		}
		return nil
	})
}

// Close requires a zero balance and turns autopay off.
func (u *Usecase) Close(ctx context.Context, clientID, facilityID string) (*facility.Facility, error) {
	return u.mutate(ctx, clientID, facilityID, func(f *facility.Facility) error {
		if f.Balance != 0 {
			return apperr.New(apperr.KindInvalidState, "outstanding_balance", "facility still carries a balance")
		}
		closed := u.now()
		f.Status = facility.StatusClosed
		f.ClosedAt = &closed
		f.AutopayEnabled = false
		f.AutopayDay = 0
		return nil
	})
}

// PostPayment records a payment with the servicing system and resynchronizes the facility.
func (u *Usecase) PostPayment(ctx context.Context, in PaymentInput) (*facility.Facility, error) {
	if in.Amount <= 0 {
		return nil, apperr.New(apperr.KindValidation, "invalid_amount", "payment amount must be positive")
	}
	f, err := u.Get(ctx, in.ClientID, in.FacilityID)
	if err != nil {
		return nil, err
	}
	if err := serviceable(f); err != nil {
		return nil, err
	}
	on := civil.Date(in.Date)
	if in.Date.IsZero() {
		on = civil.Date(u.now())
	}
	if err := u.gateway.PostPayment(ctx, f.AccountRef(), money.FromMinorUnits(in.Amount), on); err != nil {
		u.log.Error("payment post failed", zap.String("facility_id", f.FacilityID), zap.Error(err))
		return nil, apperr.Wrap(apperr.KindServicing, "payment_post_failed", "servicing payment failed", err)
	}
	return u.resync(ctx, f)
}

// Accrue advances interest accrual to date and resynchronizes. Operator only, so not tenant scoped.
func (u *Usecase) Accrue(ctx context.Context, facilityID string, date time.Time) (*facility.Facility, error) {
	f, err := u.facilities.GetByFacilityID(ctx, facilityID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errFacilityNotFound
	}
	if err != nil {
		return nil, internalErr("load facility", err)
	}
	if err := serviceable(f); err != nil {
		return nil, err
	}
	if err := u.gateway.AccrueTo(ctx, f.AccountRef(), civil.Date(date)); err != nil {
		u.log.Error("accrual failed", zap.String("facility_id", f.FacilityID), zap.Error(err))
		return nil, apperr.Wrap(apperr.KindServicing, "accrual_failed", "servicing accrual failed", err)
	}
	return u.resync(ctx, f)
}

func serviceable(f *facility.Facility) error {
	if f.Status == facility.StatusClosed {
		return apperr.New(apperr.KindInvalidState, "facility_closed", "facility is closed")
	}
	if !f.HasAccountRef() {
		return apperr.New(apperr.KindInvalidState, "not_serviced", "facility is not registered with servicing")
	}
	return nil
}

func (u *Usecase) resync(ctx context.Context, f *facility.Facility) (*facility.Facility, error) {
	synced, err := u.syncer.Sync(ctx, f)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindServicingSync, "servicing_sync_failed", "servicing sync failed", err)
	}
	return synced, nil
}
