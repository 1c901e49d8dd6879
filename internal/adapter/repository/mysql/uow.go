package mysql

import (
	"context"

	"lendcore/internal/domain/facility"
	"lendcore/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinFacilityTx(ctx context.Context, facilityID string, fn func(r uow.Repos, f *facility.Facility) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the facility row up-front so concurrent writers queue behind us
		f, err := (&FacilityRepository{db: tx}).getForUpdate(ctx, facilityID)
		if err != nil {
			return err
		}
		return fn(r, f)
	})
}

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Facilities: &FacilityRepository{db: tx},
		Statements: &StatementRepository{db: tx},
	}
}
