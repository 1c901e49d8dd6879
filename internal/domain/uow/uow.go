package uow

import (
	"context"

	"lendcore/internal/domain/facility"
	"lendcore/internal/domain/statement"
)

type Repos struct {
	Facilities facility.Repository
	Statements statement.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the facility row first, then pass it in
	WithinFacilityTx(ctx context.Context, facilityID string, fn func(r Repos, f *facility.Facility) error) error
}
