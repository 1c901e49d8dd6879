package uowmock

import (
	"context"
	"errors"

	"lendcore/internal/domain/facility"
	"lendcore/internal/domain/uow"
)

var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed uow.UnitOfWork. Unset functions return errUnimplemented.
// Locked records every facility id passed to WithinFacilityTx, in call order.
type UoW struct {
	WithinTxFn         func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinFacilityTxFn func(ctx context.Context, facilityID string, fn func(r uow.Repos, f *facility.Facility) error) error

	Locked []string
}

// Passthrough runs every body against repos, handing over the facility that get returns
// as if it had just been locked.
func Passthrough(repos uow.Repos, get func(facilityID string) (*facility.Facility, error)) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) },
		WithinFacilityTxFn: func(_ context.Context, facilityID string, fn func(uow.Repos, *facility.Facility) error) error {
			f, err := get(facilityID)
			if err != nil {
				return err
			}
			return fn(repos, f)
		},
	}
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn == nil {
		return errUnimplemented
	}
	return m.WithinTxFn(ctx, fn)
}

func (m *UoW) WithinFacilityTx(ctx context.Context, facilityID string, fn func(r uow.Repos, f *facility.Facility) error) error {
	m.Locked = append(m.Locked, facilityID)
	if m.WithinFacilityTxFn == nil {
		return errUnimplemented
	}
	return m.WithinFacilityTxFn(ctx, facilityID, fn)
}
