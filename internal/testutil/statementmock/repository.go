package statementmock

import (
	"context"
	"time"

	domain "lendcore/internal/domain/statement"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies statement.Repository.
type Repo struct {
	CreateFn           func(ctx context.Context, s *domain.Statement) error
	ExistsFn           func(ctx context.Context, facilityID string, statementDate time.Time) (bool, error)
	LatestFn           func(ctx context.Context, facilityID string) (*domain.Statement, error)
	ListByFacilityIDFn func(ctx context.Context, facilityID string) ([]domain.Statement, error)
}

func (m *Repo) Create(ctx context.Context, s *domain.Statement) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, s)
	}
	return nil
}

func (m *Repo) Exists(ctx context.Context, facilityID string, statementDate time.Time) (bool, error) {
	if m.ExistsFn != nil {
		return m.ExistsFn(ctx, facilityID, statementDate)
	}
	return false, nil
}

func (m *Repo) Latest(ctx context.Context, facilityID string) (*domain.Statement, error) {
	if m.LatestFn != nil {
		return m.LatestFn(ctx, facilityID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByFacilityID(ctx context.Context, facilityID string) ([]domain.Statement, error) {
	if m.ListByFacilityIDFn != nil {
		return m.ListByFacilityIDFn(ctx, facilityID)
	}
	return nil, context.Canceled
}
