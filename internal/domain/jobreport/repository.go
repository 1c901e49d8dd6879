package jobreport

import (
	"context"
	"errors"
)

// ErrRunning means a run of the same job type is already in progress.
var ErrRunning = errors.New("job already running")

type Repository interface {
	Create(ctx context.Context, r *JobReport) error
	// ListRecent returns the newest reports first; an empty typ lists every type.
	ListRecent(ctx context.Context, typ Type, limit int) ([]JobReport, error)
}
