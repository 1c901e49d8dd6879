package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"lendcore/internal/domain/apperr"
	domainFacility "lendcore/internal/domain/facility"
	ucFacility "lendcore/internal/usecase/facility"
	"lendcore/pkg/civil"
)

var (
	clientA  = strings.Repeat("c", 32)
	agreeA   = strings.Repeat("a", 32)
	facility = strings.Repeat("f", 32)
)

type fakeFacilities struct {
	CreateFn      func(ctx context.Context, in ucFacility.CreateInput) (*domainFacility.Facility, error)
	GetFn         func(ctx context.Context, clientID, facilityID string) (*domainFacility.Facility, error)
	ListFn        func(ctx context.Context, clientID string) ([]domainFacility.Facility, error)
	BankDetailsFn func(ctx context.Context, in ucFacility.BankDetailsInput) (*domainFacility.Facility, error)
	AutopayFn     func(ctx context.Context, in ucFacility.AutopayInput) (*domainFacility.Facility, error)
	CloseFn       func(ctx context.Context, clientID, facilityID string) (*domainFacility.Facility, error)
	PaymentFn     func(ctx context.Context, in ucFacility.PaymentInput) (*domainFacility.Facility, error)
}

var _ FacilityService = (*fakeFacilities)(nil)

func (f *fakeFacilities) Create(ctx context.Context, in ucFacility.CreateInput) (*domainFacility.Facility, error) {
	return f.CreateFn(ctx, in)
}
func (f *fakeFacilities) Get(ctx context.Context, clientID, facilityID string) (*domainFacility.Facility, error) {
	return f.GetFn(ctx, clientID, facilityID)
}
func (f *fakeFacilities) List(ctx context.Context, clientID string) ([]domainFacility.Facility, error) {
	return f.ListFn(ctx, clientID)
}
func (f *fakeFacilities) UpdateBankDetails(ctx context.Context, in ucFacility.BankDetailsInput) (*domainFacility.Facility, error) {
	return f.BankDetailsFn(ctx, in)
}
func (f *fakeFacilities) SetAutopay(ctx context.Context, in ucFacility.AutopayInput) (*domainFacility.Facility, error) {
	return f.AutopayFn(ctx, in)
}
func (f *fakeFacilities) Close(ctx context.Context, clientID, facilityID string) (*domainFacility.Facility, error) {
	return f.CloseFn(ctx, clientID, facilityID)
}
func (f *fakeFacilities) PostPayment(ctx context.Context, in ucFacility.PaymentInput) (*domainFacility.Facility, error) {
	return f.PaymentFn(ctx, in)
}

func TestFacilityCreate(t *testing.T) {
	e := newEchoWithValidator()

	t.Run("created", func(t *testing.T) {
		var got ucFacility.CreateInput
		h := NewFacilityHandler(&fakeFacilities{CreateFn: func(_ context.Context, in ucFacility.CreateInput) (*domainFacility.Facility, error) {
			got = in
			return &domainFacility.Facility{FacilityID: facility, ClientID: in.ClientID, LoanAgreementID: in.LoanAgreementID}, nil
		}}, nil)
		c, rec := newCtx(e, http.MethodPost, "/facilities", `{"loan_agreement_id":"`+agreeA+`"}`)
		c.Set("client_id", clientA)

		if err := h.Create(c); err != nil {
			t.Fatal(err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
		}
		if got.ClientID != clientA || got.LoanAgreementID != agreeA || got.IsAutocreated {
			t.Fatalf("input = %+v", got)
		}
		var f domainFacility.Facility
		if err := json.Unmarshal(rec.Body.Bytes(), &f); err != nil || f.FacilityID != facility {
			t.Fatalf("body = %s err=%v", rec.Body.String(), err)
		}
	})

	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantType apperr.Kind
		wantErr  string
	}{
		{"broken json", `{"loan_agreement_id":`, nil, http.StatusBadRequest, apperr.KindValidation, "invalid_body"},
		{"bad id", `{"loan_agreement_id":"nope"}`, nil, http.StatusUnprocessableEntity, apperr.KindValidation, "validation_failed"},
		{"duplicate", `{"loan_agreement_id":"` + agreeA + `"}`,
			apperr.New(apperr.KindAlreadyExists, "facility_exists", "facility already exists"),
			http.StatusConflict, apperr.KindAlreadyExists, "facility_exists"},
		{"not signed", `{"loan_agreement_id":"` + agreeA + `"}`,
			apperr.New(apperr.KindInvalidState, "loan_agreement_not_signed", "agreement not signed"),
			http.StatusConflict, apperr.KindInvalidState, "loan_agreement_not_signed"},
		{"unsupported", `{"loan_agreement_id":"` + agreeA + `"}`,
			apperr.New(apperr.KindUnsupportedProduct, "unsupported_credit_type", "unsupported credit type"),
			http.StatusUnprocessableEntity, apperr.KindUnsupportedProduct, "unsupported_credit_type"},
		{"servicing", `{"loan_agreement_id":"` + agreeA + `"}`,
			apperr.New(apperr.KindServicing, "servicing_registration_failed", "registration failed"),
			http.StatusBadGateway, apperr.KindServicing, "servicing_registration_failed"},
		{"foreign", `{"loan_agreement_id":"` + agreeA + `"}`, context.DeadlineExceeded,
			http.StatusInternalServerError, apperr.KindInternal, "internal_error"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			h := NewFacilityHandler(&fakeFacilities{CreateFn: func(context.Context, ucFacility.CreateInput) (*domainFacility.Facility, error) {
				return nil, tt.err
			}}, nil)
			c, rec := newCtx(e, http.MethodPost, "/facilities", tt.body)
			c.Set("client_id", clientA)
			if err := h.Create(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tt.wantCode, rec.Body.String())
			}
			er := decodeErr(t, rec)
			if er.Status != tt.wantCode || er.Type != tt.wantType || er.Code != tt.wantErr {
				t.Fatalf("error body = %+v", er)
			}
		})
	}
}

func TestFacilityCreate_ValidationDetails(t *testing.T) {
	e := newEchoWithValidator()
	h := NewFacilityHandler(&fakeFacilities{}, nil)
	c, rec := newCtx(e, http.MethodPost, "/facilities", `{}`)
	if err := h.Create(c); err != nil {
		t.Fatal(err)
	}
	er := decodeErr(t, rec)
	if !containsFieldMsg(er.Details, "loan_agreement_id", "is required") {
		t.Fatalf("details = %+v", er.Details)
	}
}

func TestFacilityGetAndList(t *testing.T) {
	e := newEchoWithValidator()
	h := NewFacilityHandler(&fakeFacilities{
		GetFn: func(_ context.Context, clientID, id string) (*domainFacility.Facility, error) {
			if clientID != clientA || id != facility {
				return nil, apperr.New(apperr.KindNotFound, "facility_not_found", "facility not found")
			}
			return &domainFacility.Facility{FacilityID: id, RepaymentBankSealed: "sealed", RepaymentBankLast4: "6789"}, nil
		},
		ListFn: func(_ context.Context, clientID string) ([]domainFacility.Facility, error) {
			return []domainFacility.Facility{{FacilityID: "f1"}, {FacilityID: "f2"}}, nil
		},
	}, nil)

	c, rec := newCtx(e, http.MethodGet, "/facilities/"+facility, "")
	c.Set("client_id", clientA)
	c.SetParamNames("facility_id")
	c.SetParamValues(facility)
	if err := h.Get(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), "sealed") || !strings.Contains(rec.Body.String(), `"repayment_bank_last4":"6789"`) {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	c, rec = newCtx(e, http.MethodGet, "/facilities/"+facility, "")
	c.Set("client_id", strings.Repeat("d", 32))
	c.SetParamNames("facility_id")
	c.SetParamValues(facility)
	_ = h.Get(c)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("other tenant status = %d", rec.Code)
	}

	c, rec = newCtx(e, http.MethodGet, "/facilities", "")
	c.Set("client_id", clientA)
	_ = h.List(c)
	var body struct {
		Facilities []domainFacility.Facility `json:"facilities"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || len(body.Facilities) != 2 {
		t.Fatalf("list body = %s", rec.Body.String())
	}
}

func TestFacility_MissingPathParam(t *testing.T) {
	e := newEchoWithValidator()
	h := NewFacilityHandler(&fakeFacilities{}, nil)
	c, rec := newCtx(e, http.MethodPost, "/facilities//close", "")
	if err := h.Close(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest || decodeErr(t, rec).Code != "missing_facility_id" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestFacilityUpdateBankDetails(t *testing.T) {
	e := newEchoWithValidator()
	var got ucFacility.BankDetailsInput
	h := NewFacilityHandler(&fakeFacilities{BankDetailsFn: func(_ context.Context, in ucFacility.BankDetailsInput) (*domainFacility.Facility, error) {
		got = in
		return &domainFacility.Facility{FacilityID: in.FacilityID, RepaymentBankLast4: "6789"}, nil
	}}, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"ok", `{"account_holder":"Ada","routing_number":"011000015","account_number":"123456789","account_type":"checking"}`, http.StatusOK},
		{"bad routing", `{"account_holder":"Ada","routing_number":"011000016","account_number":"123456789","account_type":"checking"}`, http.StatusUnprocessableEntity},
		{"bad type", `{"account_holder":"Ada","routing_number":"011000015","account_number":"123456789","account_type":"brokerage"}`, http.StatusUnprocessableEntity},
		{"short account", `{"account_holder":"Ada","routing_number":"011000015","account_number":"12","account_type":"savings"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newCtx(e, http.MethodPut, "/facilities/"+facility+"/bank_details", tt.body)
			c.Set("client_id", clientA)
			c.SetParamNames("facility_id")
			c.SetParamValues(facility)
			if err := h.UpdateBankDetails(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
	if got.Details.RoutingNumber != "011000015" || got.Details.AccountType != "checking" || got.FacilityID != facility {
		t.Fatalf("input = %+v", got)
	}
}

func TestFacilitySetAutopay(t *testing.T) {
	e := newEchoWithValidator()
	var got ucFacility.AutopayInput
	h := NewFacilityHandler(&fakeFacilities{AutopayFn: func(_ context.Context, in ucFacility.AutopayInput) (*domainFacility.Facility, error) {
		got = in
		if in.Enabled && in.Day == 0 {
			return nil, apperr.New(apperr.KindValidation, "invalid_autopay_day", "day required")
		}
		return &domainFacility.Facility{AutopayEnabled: in.Enabled, AutopayDay: in.Day}, nil
	}}, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"enable", `{"enabled":true,"day":15}`, http.StatusOK},
		{"disable", `{"enabled":false}`, http.StatusOK},
		{"missing enabled", `{"day":15}`, http.StatusUnprocessableEntity},
		{"day out of range", `{"enabled":true,"day":31}`, http.StatusUnprocessableEntity},
		{"usecase rejects", `{"enabled":true}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newCtx(e, http.MethodPut, "/facilities/"+facility+"/autopay", tt.body)
			c.Set("client_id", clientA)
			c.SetParamNames("facility_id")
			c.SetParamValues(facility)
			if err := h.SetAutopay(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
	if !got.Enabled || got.Day != 0 {
		t.Fatalf("last input = %+v", got)
	}
}

func TestFacilityClose(t *testing.T) {
	e := newEchoWithValidator()
	h := NewFacilityHandler(&fakeFacilities{CloseFn: func(context.Context, string, string) (*domainFacility.Facility, error) {
		return nil, apperr.New(apperr.KindInvalidState, "outstanding_balance", "balance must be zero")
	}}, nil)
	c, rec := newCtx(e, http.MethodPost, "/facilities/"+facility+"/close", "")
	c.Set("client_id", clientA)
	c.SetParamNames("facility_id")
	c.SetParamValues(facility)
	_ = h.Close(c)
	if rec.Code != http.StatusConflict || decodeErr(t, rec).Code != "outstanding_balance" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestFacilityPostPayment(t *testing.T) {
	e := newEchoWithValidator()
	var got ucFacility.PaymentInput
	h := NewFacilityHandler(&fakeFacilities{PaymentFn: func(_ context.Context, in ucFacility.PaymentInput) (*domainFacility.Facility, error) {
		got = in
		return &domainFacility.Facility{FacilityID: in.FacilityID}, nil
	}}, nil)
	h.now = func() time.Time { return time.Date(2025, 9, 6, 17, 30, 0, 0, time.UTC) }

	tests := []struct {
		name      string
		body      string
		want      int
		wantCents int64
		wantDate  time.Time
	}{
		{"dated", `{"amount":125.5,"date":"2025-09-01"}`, http.StatusOK, 12550, civil.Of(2025, 9, 1)},
		{"defaults to today", `{"amount":0.07}`, http.StatusOK, 7, civil.Of(2025, 9, 6)},
		{"zero", `{"amount":0}`, http.StatusUnprocessableEntity, 0, time.Time{}},
		{"three decimals", `{"amount":1.005}`, http.StatusUnprocessableEntity, 0, time.Time{}},
		{"bad date", `{"amount":10,"date":"09/01/2025"}`, http.StatusUnprocessableEntity, 0, time.Time{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got = ucFacility.PaymentInput{}
			c, rec := newCtx(e, http.MethodPost, "/facilities/"+facility+"/payments", tt.body)
			c.Set("client_id", clientA)
			c.SetParamNames("facility_id")
			c.SetParamValues(facility)
			if err := h.PostPayment(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusOK && (got.Amount != tt.wantCents || !got.Date.Equal(tt.wantDate) || got.ClientID != clientA) {
				t.Fatalf("input = %+v", got)
			}
		})
	}
}
