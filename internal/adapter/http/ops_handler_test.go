package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"lendcore/internal/domain/apperr"
	domainFacility "lendcore/internal/domain/facility"
	"lendcore/internal/domain/jobreport"
	"lendcore/pkg/civil"
)

type fakeOperator struct {
	AccrueFn func(ctx context.Context, facilityID string, date time.Time) (*domainFacility.Facility, error)
	SignedFn func(ctx context.Context, clientID, agreementID string, signedAt time.Time) (*domainFacility.Facility, error)
}

func (f *fakeOperator) Accrue(ctx context.Context, facilityID string, date time.Time) (*domainFacility.Facility, error) {
	return f.AccrueFn(ctx, facilityID, date)
}
func (f *fakeOperator) HandleAgreementSigned(ctx context.Context, clientID, agreementID string, signedAt time.Time) (*domainFacility.Facility, error) {
	return f.SignedFn(ctx, clientID, agreementID, signedAt)
}

type fakeJobs struct {
	RunTargetsFn func(ctx context.Context, typ jobreport.Type, ids []string) (*jobreport.JobReport, error)
	StartFn      func(ctx context.Context, typ jobreport.Type) (string, error)
	RecentFn     func(ctx context.Context, typ jobreport.Type, limit int) ([]jobreport.JobReport, error)
}

var (
	_ OperatorFacilities = (*fakeOperator)(nil)
	_ Jobs               = (*fakeJobs)(nil)
)

func (f *fakeJobs) RunTargets(ctx context.Context, typ jobreport.Type, ids []string) (*jobreport.JobReport, error) {
	return f.RunTargetsFn(ctx, typ, ids)
}
func (f *fakeJobs) Start(ctx context.Context, typ jobreport.Type) (string, error) {
	return f.StartFn(ctx, typ)
}
func (f *fakeJobs) Recent(ctx context.Context, typ jobreport.Type, limit int) ([]jobreport.JobReport, error) {
	return f.RecentFn(ctx, typ, limit)
}

func TestOpsRunOne(t *testing.T) {
	e := newEchoWithValidator()
	var gotType jobreport.Type
	var gotIDs []string
	jobs := &fakeJobs{RunTargetsFn: func(_ context.Context, typ jobreport.Type, ids []string) (*jobreport.JobReport, error) {
		gotType, gotIDs = typ, ids
		if ids[0] == "missing" {
			return nil, apperr.New(apperr.KindNotFound, "facility_not_found", "facility not found")
		}
		return &jobreport.JobReport{Type: typ, Status: jobreport.StatusCompleted, FacilityCount: 1, SyncCount: 1}, nil
	}}
	h := NewOpsHandler(&fakeOperator{}, jobs, nil)

	c, rec := newCtx(e, http.MethodPost, "/ops/facilities/"+facility+"/sync", "")
	c.SetParamNames("facility_id")
	c.SetParamValues(facility)
	if err := h.SyncFacility(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || gotType != jobreport.TypeServicingSync || len(gotIDs) != 1 || gotIDs[0] != facility {
		t.Fatalf("status=%d type=%s ids=%v", rec.Code, gotType, gotIDs)
	}
	var rep jobreport.JobReport
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil || rep.SyncCount != 1 {
		t.Fatalf("body = %s", rec.Body.String())
	}

	c, rec = newCtx(e, http.MethodPost, "/ops/facilities/"+facility+"/statements", "")
	c.SetParamNames("facility_id")
	c.SetParamValues(facility)
	_ = h.GenerateStatement(c)
	if rec.Code != http.StatusOK || gotType != jobreport.TypeStatement {
		t.Fatalf("statement status=%d type=%s", rec.Code, gotType)
	}

	c, rec = newCtx(e, http.MethodPost, "/ops/facilities/missing/sync", "")
	c.SetParamNames("facility_id")
	c.SetParamValues("missing")
	_ = h.SyncFacility(c)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown facility status = %d", rec.Code)
	}
}

func TestOpsStart(t *testing.T) {
	e := newEchoWithValidator()
	running := map[jobreport.Type]bool{}
	jobs := &fakeJobs{StartFn: func(_ context.Context, typ jobreport.Type) (string, error) {
		if running[typ] {
			return "", jobreport.ErrRunning
		}
		running[typ] = true
		return "owner-" + string(typ), nil
	}}
	h := NewOpsHandler(&fakeOperator{}, jobs, nil)

	c, rec := newCtx(e, http.MethodPost, "/ops/jobs/sync", "")
	_ = h.StartSync(c)
	if rec.Code != http.StatusAccepted || !strings.Contains(rec.Body.String(), `"run_owner":"owner-servicing_sync"`) {
		t.Fatalf("first start status=%d body=%s", rec.Code, rec.Body.String())
	}

	c, rec = newCtx(e, http.MethodPost, "/ops/jobs/sync", "")
	_ = h.StartSync(c)
	if rec.Code != http.StatusConflict || decodeErr(t, rec).Code != "job_running" {
		t.Fatalf("second start status=%d body=%s", rec.Code, rec.Body.String())
	}

	c, rec = newCtx(e, http.MethodPost, "/ops/jobs/statements", "")
	_ = h.StartStatements(c)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("statements should not share the sync lock, status=%d", rec.Code)
	}

	h = NewOpsHandler(&fakeOperator{}, &fakeJobs{StartFn: func(context.Context, jobreport.Type) (string, error) {
		return "", errors.New("redis down")
	}}, nil)
	c, rec = newCtx(e, http.MethodPost, "/ops/jobs/sync", "")
	_ = h.StartSync(c)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("lock failure status = %d", rec.Code)
	}
}

func TestOpsListJobs(t *testing.T) {
	e := newEchoWithValidator()
	var gotType jobreport.Type
	var gotLimit int
	h := NewOpsHandler(&fakeOperator{}, &fakeJobs{RecentFn: func(_ context.Context, typ jobreport.Type, limit int) ([]jobreport.JobReport, error) {
		gotType, gotLimit = typ, limit
		return []jobreport.JobReport{{RunID: "r1", Type: jobreport.TypeStatement}}, nil
	}}, nil)

	tests := []struct {
		target    string
		want      int
		wantType  jobreport.Type
		wantLimit int
	}{
		{"/ops/jobs", http.StatusOK, "", defaultJobsLimit},
		{"/ops/jobs?type=statement&limit=5", http.StatusOK, jobreport.TypeStatement, 5},
		{"/ops/jobs?type=payroll", http.StatusUnprocessableEntity, "", 0},
		{"/ops/jobs?limit=500", http.StatusUnprocessableEntity, "", 0},
		{"/ops/jobs?limit=abc", http.StatusBadRequest, "", 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.target, func(t *testing.T) {
			gotType, gotLimit = "", 0
			c, rec := newCtx(e, http.MethodGet, tt.target, "")
			if err := h.ListJobs(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tt.want, rec.Body.String())
			}
			if gotType != tt.wantType || gotLimit != tt.wantLimit {
				t.Fatalf("Recent(%q, %d)", gotType, gotLimit)
			}
		})
	}
}

func TestOpsAccrue(t *testing.T) {
	e := newEchoWithValidator()
	var gotDate time.Time
	h := NewOpsHandler(&fakeOperator{AccrueFn: func(_ context.Context, id string, date time.Time) (*domainFacility.Facility, error) {
		gotDate = date
		if id == "closed" {
			return nil, apperr.New(apperr.KindInvalidState, "facility_closed", "facility is closed")
		}
		return &domainFacility.Facility{FacilityID: id}, nil
	}}, &fakeJobs{}, nil)
	h.now = func() time.Time { return time.Date(2025, 10, 1, 23, 59, 0, 0, time.UTC) }

	c, rec := newCtx(e, http.MethodPost, "/ops/facilities/"+facility+"/accrue", `{"date":"2025-09-30"}`)
	c.SetParamNames("facility_id")
	c.SetParamValues(facility)
	_ = h.Accrue(c)
	if rec.Code != http.StatusOK || !gotDate.Equal(civil.Of(2025, 9, 30)) {
		t.Fatalf("status=%d date=%v", rec.Code, gotDate)
	}

	c, rec = newCtx(e, http.MethodPost, "/ops/facilities/closed/accrue", "")
	c.SetParamNames("facility_id")
	c.SetParamValues("closed")
	_ = h.Accrue(c)
	if rec.Code != http.StatusConflict || !gotDate.Equal(civil.Of(2025, 10, 1)) {
		t.Fatalf("status=%d date=%v", rec.Code, gotDate)
	}
}

func TestOpsAgreementSigned(t *testing.T) {
	e := newEchoWithValidator()
	signed := time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		body     string
		result   *domainFacility.Facility
		err      error
		want     int
		wantTime time.Time
	}{
		{"autocreated", `{"client_id":"` + clientA + `","signed_at":"2025-09-06T17:00:00+07:00"}`,
			&domainFacility.Facility{FacilityID: facility, IsAutocreated: true}, nil, http.StatusCreated, signed},
		{"tenant without autocreate", `{"client_id":"` + clientA + `","signed_at":"2025-09-06T10:00:00Z"}`,
			nil, nil, http.StatusOK, signed},
		{"voided", `{"client_id":"` + clientA + `"}`,
			nil, apperr.New(apperr.KindInvalidState, "loan_agreement_voided", "voided"), http.StatusConflict, time.Time{}},
		{"bad client", `{"client_id":"x"}`, nil, nil, http.StatusUnprocessableEntity, time.Time{}},
		{"bad time", `{"client_id":"` + clientA + `","signed_at":"yesterday"}`, nil, nil, http.StatusUnprocessableEntity, time.Time{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var gotAt time.Time
			h := NewOpsHandler(&fakeOperator{SignedFn: func(_ context.Context, clientID, agreementID string, at time.Time) (*domainFacility.Facility, error) {
				gotAt = at
				if clientID != clientA || agreementID != agreeA {
					t.Errorf("args = %s %s", clientID, agreementID)
				}
				return tt.result, tt.err
			}}, &fakeJobs{}, nil)
			c, rec := newCtx(e, http.MethodPost, "/ops/loan_agreements/"+agreeA+"/signed", tt.body)
			c.SetParamNames("loan_agreement_id")
			c.SetParamValues(agreeA)
			if err := h.AgreementSigned(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tt.want, rec.Body.String())
			}
			if !tt.wantTime.IsZero() && !gotAt.Equal(tt.wantTime) {
				t.Fatalf("signedAt = %v, want %v", gotAt, tt.wantTime)
			}
		})
	}
}
