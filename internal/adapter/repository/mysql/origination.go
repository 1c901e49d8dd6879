package mysql

import (
	"context"
	"time"

	originationDomain "lendcore/internal/domain/origination"

	"gorm.io/gorm"
)

type OriginationRepository struct{ db *gorm.DB }

func NewOriginationRepository(db *gorm.DB) *OriginationRepository {
	return &OriginationRepository{db: db}
}

// GetAgreement is tenant scoped: an agreement owned by another client is not found.
func (r *OriginationRepository) GetAgreement(ctx context.Context, clientID, loanAgreementID string) (*originationDomain.LoanAgreement, error) {
	var out originationDomain.LoanAgreement
	res := r.db.WithContext(ctx).
		Where("loan_agreement_id = ? AND client_id = ?", loanAgreementID, clientID).
		First(&out)
	return &out, res.Error
}

func (r *OriginationRepository) GetApplication(ctx context.Context, applicationID string) (*originationDomain.Application, error) {
	var out originationDomain.Application
	res := r.db.WithContext(ctx).Where("application_id = ?", applicationID).First(&out)
	return &out, res.Error
}

func (r *OriginationRepository) GetBorrower(ctx context.Context, borrowerID string) (*originationDomain.Borrower, error) {
	var out originationDomain.Borrower
	res := r.db.WithContext(ctx).Where("borrower_id = ?", borrowerID).First(&out)
	return &out, res.Error
}

func (r *OriginationRepository) GetClient(ctx context.Context, clientID string) (*originationDomain.Client, error) {
	var out originationDomain.Client
	res := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&out)
	return &out, res.Error
}

func (r *OriginationRepository) MarkAgreementSigned(ctx context.Context, loanAgreementID string, signedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&originationDomain.LoanAgreement{}).
		Where("loan_agreement_id = ?", loanAgreementID).
		Updates(map[string]any{"status": originationDomain.AgreementSigned, "signed_at": signedAt.UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
