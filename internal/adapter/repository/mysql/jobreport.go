package mysql

import (
	"context"

	jobDomain "lendcore/internal/domain/jobreport"

	"gorm.io/gorm"
)

type JobReportRepository struct{ db *gorm.DB }

func NewJobReportRepository(db *gorm.DB) *JobReportRepository { return &JobReportRepository{db: db} }

func (r *JobReportRepository) Create(ctx context.Context, rep *jobDomain.JobReport) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *JobReportRepository) ListRecent(ctx context.Context, typ jobDomain.Type, limit int) ([]jobDomain.JobReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := r.db.WithContext(ctx).Order("started_at DESC, id DESC").Limit(limit)
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	var out []jobDomain.JobReport
	res := q.Find(&out)
	return out, res.Error
}
