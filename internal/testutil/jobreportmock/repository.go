package jobreportmock

import (
	"context"

	domain "lendcore/internal/domain/jobreport"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	CreateFn     func(ctx context.Context, r *domain.JobReport) error
	ListRecentFn func(ctx context.Context, typ domain.Type, limit int) ([]domain.JobReport, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.JobReport) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) ListRecent(ctx context.Context, typ domain.Type, limit int) ([]domain.JobReport, error) {
	if m.ListRecentFn != nil {
		return m.ListRecentFn(ctx, typ, limit)
	}
	return nil, context.Canceled
}
