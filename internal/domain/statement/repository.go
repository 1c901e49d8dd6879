package statement

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, s *Statement) error
	Exists(ctx context.Context, facilityID string, statementDate time.Time) (bool, error)
	// Latest returns the most recent statement for the facility, gorm.ErrRecordNotFound when none.
	Latest(ctx context.Context, facilityID string) (*Statement, error)
	ListByFacilityID(ctx context.Context, facilityID string) ([]Statement, error)
}
