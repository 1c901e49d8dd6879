package mysql

import (
	"context"
	"errors"
	"testing"

	facilityDomain "lendcore/internal/domain/facility"
	"lendcore/internal/domain/uow"
	"lendcore/pkg/civil"
	"lendcore/pkg/id"

	"gorm.io/gorm"
)

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	facilityRepo := NewFacilityRepository(db)
	statementRepo := NewStatementRepository(db)

	f := makeFacility(id.NewID32())
	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Facilities.Create(ctx, f); err != nil {
			return err
		}
		return r.Statements.Create(ctx, makeStatement(f.FacilityID, civil.Of(2023, 5, 18)))
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	if _, err := facilityRepo.GetByFacilityID(ctx, f.FacilityID); err != nil {
		t.Fatalf("facility not visible after commit: %v", err)
	}
	if ok, err := statementRepo.Exists(ctx, f.FacilityID, civil.Of(2023, 5, 18)); err != nil || !ok {
		t.Fatalf("statement not visible after commit: %v %v", ok, err)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	facilityRepo := NewFacilityRepository(db)
	statementRepo := NewStatementRepository(db)

	sentinel := errors.New("boom")
	f := makeFacility(id.NewID32())

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Facilities.Create(ctx, f); err != nil {
			return err
		}
		if err := r.Statements.Create(ctx, makeStatement(f.FacilityID, civil.Of(2023, 5, 18))); err != nil {
			return err
		}
		return sentinel // force rollback
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}

	if _, err := facilityRepo.GetByFacilityID(ctx, f.FacilityID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected facility not found after rollback, got %v", err)
	}
	if ok, _ := statementRepo.Exists(ctx, f.FacilityID, civil.Of(2023, 5, 18)); ok {
		t.Fatalf("statement survived rollback")
	}
}

func TestGormUoW_WithinFacilityTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	repo := NewFacilityRepository(db)

	seed := makeFacility(id.NewID32())
	if err := repo.Create(ctx, seed); err != nil {
		t.Fatalf("seed facility: %v", err)
	}

	if err := guow.WithinFacilityTx(ctx, seed.FacilityID, func(r uow.Repos, f *facilityDomain.Facility) error {
		if f == nil || f.FacilityID != seed.FacilityID || f.LifecycleState != facilityDomain.StateDraft {
			t.Fatalf("unexpected facility passed to fn: %+v", f)
		}
		f.Balance = 42_00
		f.LifecycleState = facilityDomain.StateSynchronized
		return r.Facilities.Save(ctx, f)
	}); err != nil {
		t.Fatalf("WithinFacilityTx commit err: %v", err)
	}

	got, err := repo.GetByFacilityID(ctx, seed.FacilityID)
	if err != nil {
		t.Fatalf("GetByFacilityID post-commit: %v", err)
	}
	if got.Balance != 42_00 || got.LifecycleState != facilityDomain.StateSynchronized {
		t.Fatalf("facility not updated: %+v", got)
	}
}

func TestGormUoW_WithinFacilityTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	repo := NewFacilityRepository(db)

	seed := makeFacility(id.NewID32())
	seed.Balance = 100
	if err := repo.Create(ctx, seed); err != nil {
		t.Fatalf("seed facility: %v", err)
	}

	sentinel := errors.New("stop")
	_ = guow.WithinFacilityTx(ctx, seed.FacilityID, func(r uow.Repos, f *facilityDomain.Facility) error {
		f.Balance = 999
		if err := r.Facilities.Save(ctx, f); err != nil {
			return err
		}
		return sentinel // force rollback
	})

	got, err := repo.GetByFacilityID(ctx, seed.FacilityID)
	if err != nil {
		t.Fatalf("post-rollback GetByFacilityID: %v", err)
	}
	if got.Balance != 100 {
		t.Fatalf("expected balance 100 after rollback, got %d", got.Balance)
	}
}

func TestGormUoW_WithinFacilityTx_NotFound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)

	err := guow.WithinFacilityTx(ctx, "missing", func(r uow.Repos, f *facilityDomain.Facility) error {
		t.Fatalf("callback should not be called when facility missing")
		return nil
	})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
