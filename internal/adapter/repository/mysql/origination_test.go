package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	originationDomain "lendcore/internal/domain/origination"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestOrigination_TenantScopedAgreement(t *testing.T) {
	db := openTestDB(t)
	repo := NewOriginationRepository(db)
	ctx := context.Background()

	if err := db.Create(&originationDomain.LoanAgreement{
		LoanAgreementID: "agr-1", ClientID: "client-a", ApplicationID: "app-1", BorrowerID: "bor-1",
		Status: originationDomain.AgreementPending,
	}).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := repo.GetAgreement(ctx, "client-a", "agr-1"); err != nil {
		t.Fatalf("GetAgreement own tenant: %v", err)
	}
	if _, err := repo.GetAgreement(ctx, "client-b", "agr-1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("GetAgreement other tenant err = %v, want not found", err)
	}

	signedAt := time.Date(2023, 4, 18, 15, 30, 0, 0, time.UTC)
	if err := repo.MarkAgreementSigned(ctx, "agr-1", signedAt); err != nil {
		t.Fatalf("MarkAgreementSigned: %v", err)
	}
	got, _ := repo.GetAgreement(ctx, "client-a", "agr-1")
	if got.Status != originationDomain.AgreementSigned || got.SignedAt == nil || !got.SignedAt.Equal(signedAt) {
		t.Fatalf("agreement not signed: %+v", got)
	}
	if err := repo.MarkAgreementSigned(ctx, "missing", signedAt); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("MarkAgreementSigned missing err = %v", err)
	}
}

func TestOrigination_ApplicationOfferSnapshot(t *testing.T) {
	db := openTestDB(t)
	repo := NewOriginationRepository(db)
	ctx := context.Background()

	offer := originationDomain.Offer{Amount: 500_000, InterestRateBps: 1250, Term: 12, RepaymentFrequency: "monthly"}
	if err := db.Create(&originationDomain.Application{
		ApplicationID: "app-1", ClientID: "client-a", BorrowerID: "bor-1",
		CreditType: "consumer_installment_loan", AcceptedOffer: datatypes.NewJSONType(offer),
	}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&originationDomain.Borrower{BorrowerID: "bor-1", CIFNumber: "CIF-9", FirstName: "Ada", LastName: "Lovelace"}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&originationDomain.Client{ClientID: "client-a", Name: "Acme", FacilityAutocreate: true}).Error; err != nil {
		t.Fatal(err)
	}

	app, err := repo.GetApplication(ctx, "app-1")
	if err != nil {
		t.Fatalf("GetApplication: %v", err)
	}
	if app.AcceptedOffer.Data() != offer {
		t.Fatalf("offer snapshot = %+v", app.AcceptedOffer.Data())
	}
	b, err := repo.GetBorrower(ctx, "bor-1")
	if err != nil || b.CIFNumber != "CIF-9" || b.DisplayName() != "Ada Lovelace" {
		t.Fatalf("GetBorrower = %+v (%v)", b, err)
	}
	c, err := repo.GetClient(ctx, "client-a")
	if err != nil || !c.FacilityAutocreate {
		t.Fatalf("GetClient = %+v (%v)", c, err)
	}
}
