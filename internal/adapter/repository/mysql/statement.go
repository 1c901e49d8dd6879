package mysql

import (
	"context"
	"time"

	statementDomain "lendcore/internal/domain/statement"
	"lendcore/pkg/civil"

	"gorm.io/gorm"
)

type StatementRepository struct{ db *gorm.DB }

func NewStatementRepository(db *gorm.DB) *StatementRepository { return &StatementRepository{db: db} }

func (r *StatementRepository) Create(ctx context.Context, s *statementDomain.Statement) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *StatementRepository) Exists(ctx context.Context, facilityID string, statementDate time.Time) (bool, error) {
	var n int64
	res := r.db.WithContext(ctx).
		Model(&statementDomain.Statement{}).
		Where("facility_id = ? AND statement_date = ?", facilityID, civil.Date(statementDate)).
		Count(&n)
	return n > 0, res.Error
}

func (r *StatementRepository) Latest(ctx context.Context, facilityID string) (*statementDomain.Statement, error) {
	var out statementDomain.Statement
	res := r.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		Order("statement_date DESC").
		First(&out)
	return &out, res.Error
}

func (r *StatementRepository) ListByFacilityID(ctx context.Context, facilityID string) ([]statementDomain.Statement, error) {
	var out []statementDomain.Statement
	res := r.db.WithContext(ctx).Where("facility_id = ?", facilityID).Order("statement_date DESC").Find(&out)
	return out, res.Error
}
