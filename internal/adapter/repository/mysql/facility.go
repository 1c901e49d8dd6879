package mysql

import (
	"context"

	facilityDomain "lendcore/internal/domain/facility"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FacilityRepository struct{ db *gorm.DB }

func NewFacilityRepository(db *gorm.DB) *FacilityRepository { return &FacilityRepository{db: db} }

func (r *FacilityRepository) Create(ctx context.Context, f *facilityDomain.Facility) error {
	return r.db.WithContext(ctx).Create(f).Error
}

// Save writes the full row but never nls_account_ref; that column only moves through AssignAccountRef.
func (r *FacilityRepository) Save(ctx context.Context, f *facilityDomain.Facility) error {
	return r.db.WithContext(ctx).Omit("nls_account_ref").Save(f).Error
}

func (r *FacilityRepository) AssignAccountRef(ctx context.Context, facilityID, ref string) error {
	res := r.db.WithContext(ctx).
		Model(&facilityDomain.Facility{}).
		Where("facility_id = ? AND nls_account_ref IS NULL", facilityID).
		Update("nls_account_ref", ref)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return facilityDomain.ErrAccountRefAssigned
	}
	return nil
}

func (r *FacilityRepository) GetByFacilityID(ctx context.Context, facilityID string) (*facilityDomain.Facility, error) {
	var out facilityDomain.Facility
	res := r.db.WithContext(ctx).Where("facility_id = ?", facilityID).First(&out)
	return &out, res.Error
}

// getForUpdate locks the row on engines that support it.
func (r *FacilityRepository) getForUpdate(ctx context.Context, facilityID string) (*facilityDomain.Facility, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out facilityDomain.Facility
	res := q.Where("facility_id = ?", facilityID).First(&out)
	return &out, res.Error
}

func (r *FacilityRepository) GetByLoanAgreementID(ctx context.Context, loanAgreementID string) (*facilityDomain.Facility, error) {
	var out facilityDomain.Facility
	res := r.db.WithContext(ctx).
		Where("loan_agreement_id = ?", loanAgreementID).
		Order("id ASC").
		First(&out)
	return &out, res.Error
}

func (r *FacilityRepository) ListByClientID(ctx context.Context, clientID string) ([]facilityDomain.Facility, error) {
	var out []facilityDomain.Facility
	res := r.db.WithContext(ctx).Where("client_id = ?", clientID).Order("id DESC").Find(&out)
	return out, res.Error
}

func (r *FacilityRepository) ListByFacilityIDs(ctx context.Context, facilityIDs []string) ([]facilityDomain.Facility, error) {
	var out []facilityDomain.Facility
	if len(facilityIDs) == 0 {
		return out, nil
	}
	res := r.db.WithContext(ctx).Where("facility_id IN ?", facilityIDs).Order("id ASC").Find(&out)
	return out, res.Error
}

func (r *FacilityRepository) ListByLifecycleState(ctx context.Context, state facilityDomain.LifecycleState) ([]facilityDomain.Facility, error) {
	var out []facilityDomain.Facility
	res := r.db.WithContext(ctx).Where("lifecycle_state = ?", state).Order("id ASC").Find(&out)
	return out, res.Error
}

func (r *FacilityRepository) ListActive(ctx context.Context) ([]facilityDomain.Facility, error) {
	var out []facilityDomain.Facility
	res := r.db.WithContext(ctx).Where("status = ?", facilityDomain.StatusActive).Order("id ASC").Find(&out)
	return out, res.Error
}
