package documentmock

import (
	"context"

	domain "lendcore/internal/domain/document"
)

var _ domain.Generator = (*Generator)(nil)

type Generator struct {
	SubmitFn func(ctx context.Context, templateID string, fields domain.Fields) (*domain.Submission, error)
	FetchFn  func(ctx context.Context, submissionID string) (*domain.Submission, error)
	AwaitFn  func(ctx context.Context, submissionID string) (*domain.Submission, error)

	Submitted []domain.Fields
}

func (m *Generator) Submit(ctx context.Context, templateID string, fields domain.Fields) (*domain.Submission, error) {
	m.Submitted = append(m.Submitted, fields)
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, templateID, fields)
	}
	return nil, context.Canceled
}

func (m *Generator) Fetch(ctx context.Context, submissionID string) (*domain.Submission, error) {
	if m.FetchFn != nil {
		return m.FetchFn(ctx, submissionID)
	}
	return nil, context.Canceled
}

func (m *Generator) Await(ctx context.Context, submissionID string) (*domain.Submission, error) {
	if m.AwaitFn != nil {
		return m.AwaitFn(ctx, submissionID)
	}
	return nil, context.Canceled
}
