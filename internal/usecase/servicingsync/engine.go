// Package servicingsync reconciles servicing-system state onto stored facilities.
package servicingsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"lendcore/internal/domain/facility"
	"lendcore/internal/domain/servicing"
	"lendcore/internal/domain/uow"
	"lendcore/pkg/money"
)

var (
	ErrNoAccountReference = errors.New("no-account-reference")
	ErrSyncFailed         = errors.New("sync-failed")
)

const totalPaymentMarker = "total payment"

type Engine struct {
	gateway servicing.Gateway
	uow     uow.UnitOfWork
	log     *zap.Logger
	now     func() time.Time
}

func NewEngine(gw servicing.Gateway, tx uow.UnitOfWork, log *zap.Logger) *Engine {
	return &Engine{gateway: gw, uow: tx, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Sync reads the servicing record and overwrites every servicing-derived field in one save.
// The returned facility is the persisted row; the argument is never modified.
func (e *Engine) Sync(ctx context.Context, f *facility.Facility) (*facility.Facility, error) {
	if !f.HasAccountRef() {
		return nil, ErrNoAccountReference
	}
	log := e.log.With(zap.String("facility_id", f.FacilityID), zap.String("credit_type", string(f.CreditType)))
	if !f.CreditType.Serviced() {
		log.Info("servicing sync skipped for credit type")
		return f, nil
	}

	rec, err := e.gateway.ReadLoan(ctx, f.AccountRef())
	if err != nil {
		log.Warn("servicing read failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSyncFailed, err)
	}

	var out *facility.Facility
	err = e.uow.WithinFacilityTx(ctx, f.FacilityID, func(r uow.Repos, locked *facility.Facility) error {
		next := *locked
		Apply(&next, rec, e.now())
		if err := r.Facilities.Save(ctx, &next); err != nil {
			return err
		}
		out = &next
		return nil
	})
	if err != nil {
		log.Error("servicing sync persist failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSyncFailed, err)
	}
	log.Info("facility synchronized", zap.Int64("balance", out.Balance))
	return out, nil
}

// Apply copies a servicing record onto f. Amounts are floored to cents.
func Apply(f *facility.Facility, rec *servicing.LoanRecord, now time.Time) {
	d, p := rec.Details, rec.Payment

	f.Balance = money.ToMinorUnits(d.CurrentPrincipalBalance)
	f.NextPaymentAmount = money.ToMinorUnits(p.NextPaymentAmount)
	f.NextPaymentDate = p.NextPaymentDate
	f.CurrentPaymentAmount = money.ToMinorUnits(p.CurrentPaymentAmount)
	f.CurrentPaymentDueDate = p.CurrentPaymentDueDate
	f.LastPaymentDate = p.LastPaymentDate
	f.PrincipalPaidThru = d.PrincipalPaidThru
	f.NextBillingDate = d.NextBillingDate
	f.InterestAccruedThru = d.InterestAccruedThru
	f.NextAccrualCutoff = d.NextAccrualCutoff
	f.ScheduledPayoffDate = d.ScheduledPayoffDate
	f.MaturityDate = d.MaturityDate

	// an empty schedule means the servicing system has not built one yet
	if len(rec.Amortization) > 0 {
		remaining := 0
		for _, row := range rec.Amortization {
			if !row.IsHistory {
				remaining++
			}
		}
		f.RemainingTerm = remaining
	}

	due := make([]facility.PaymentDue, 0, len(rec.Due))
	for _, row := range rec.Due {
		if !strings.Contains(strings.ToLower(row.Description), totalPaymentMarker) {
			continue
		}
		due = append(due, facility.PaymentDue{
			DueDate:     row.DueDate,
			Description: row.Description,
			Amount:      money.ToMinorUnits(row.Amount),
			Remaining:   money.ToMinorUnits(row.Remaining),
		})
	}
	f.PaymentsDue = due

	synced := now
	f.LastSyncedAt = &synced
	f.LifecycleState = facility.StateSynchronized
}
