package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"lendcore/internal/adapter/middleware"
	"lendcore/internal/domain/apperr"
	domainFacility "lendcore/internal/domain/facility"
	"lendcore/internal/domain/jobreport"
	"lendcore/pkg/civil"
)

// OperatorFacilities is the operator-only part of the facility lifecycle manager.
type OperatorFacilities interface {
	Accrue(ctx context.Context, facilityID string, date time.Time) (*domainFacility.Facility, error)
	HandleAgreementSigned(ctx context.Context, clientID, loanAgreementID string, signedAt time.Time) (*domainFacility.Facility, error)
}

// Jobs is the batch job runner.
type Jobs interface {
	RunTargets(ctx context.Context, typ jobreport.Type, facilityIDs []string) (*jobreport.JobReport, error)
	Start(ctx context.Context, typ jobreport.Type) (string, error)
	Recent(ctx context.Context, typ jobreport.Type, limit int) ([]jobreport.JobReport, error)
}

type OpsHandler struct {
	facilities OperatorFacilities
	jobs       Jobs
	log        *zap.Logger
	now        func() time.Time
}

func NewOpsHandler(facilities OperatorFacilities, jobs Jobs, log *zap.Logger) *OpsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OpsHandler{facilities: facilities, jobs: jobs, log: log, now: func() time.Time { return time.Now().UTC() }}
}

type accrueReq struct {
	// defaults to today (UTC)
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type agreementSignedReq struct {
	ClientID string `json:"client_id" validate:"required,hex32"`
	// defaults to now
	SignedAt string `json:"signed_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

type listJobsReq struct {
	Type  string `query:"type"  validate:"omitempty,oneof=statement servicing_sync"`
	Limit int    `query:"limit" validate:"omitempty,gte=1,lte=100"`
}

const defaultJobsLimit = 20

var errJobRunning = apperr.New(apperr.KindInvalidState, "job_running", "a run of this job type is already in progress")

func (h *OpsHandler) runOne(c echo.Context, typ jobreport.Type) error {
	id, er := facilityID(c)
	if er != nil {
		return render(c, er)
	}
	rep, err := h.jobs.RunTargets(c.Request().Context(), typ, []string{id})
	if err != nil {
		return respondErr(c, h.log, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// SyncFacility runs a servicing sync job over one facility and returns its report.
func (h *OpsHandler) SyncFacility(c echo.Context) error { return h.runOne(c, jobreport.TypeServicingSync) }

// GenerateStatement runs a statement job over one facility and returns its report.
func (h *OpsHandler) GenerateStatement(c echo.Context) error { return h.runOne(c, jobreport.TypeStatement) }

func (h *OpsHandler) start(c echo.Context, typ jobreport.Type) error {
	owner, err := h.jobs.Start(c.Request().Context(), typ)
	if errors.Is(err, jobreport.ErrRunning) {
		return respondErr(c, h.log, errJobRunning)
	}
	if err != nil {
		return respondErr(c, h.log, err)
	}
	h.log.Info("job started",
		zap.String("job_type", string(typ)),
		zap.String("owner", owner),
		zap.String("operator", middleware.Operator(c)))
	return c.JSON(http.StatusAccepted, map[string]string{"type": string(typ), "run_owner": owner, "status": "started"})
}

func (h *OpsHandler) StartSync(c echo.Context) error { return h.start(c, jobreport.TypeServicingSync) }

func (h *OpsHandler) StartStatements(c echo.Context) error { return h.start(c, jobreport.TypeStatement) }

func (h *OpsHandler) ListJobs(c echo.Context) error {
	var req listJobsReq
	if er := bindAndValidate(c, &req); er != nil {
		return render(c, er)
	}
	if req.Limit == 0 {
		req.Limit = defaultJobsLimit
	}
	reps, err := h.jobs.Recent(c.Request().Context(), jobreport.Type(req.Type), req.Limit)
	if err != nil {
		return respondErr(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"jobs": reps})
}

func (h *OpsHandler) Accrue(c echo.Context) error {
	id, er := facilityID(c)
	if er != nil {
		return render(c, er)
	}
	var req accrueReq
	if er := bindAndValidate(c, &req); er != nil {
		return render(c, er)
	}
	on := civil.Date(h.now())
	if req.Date != "" {
		on, _ = civil.Parse(req.Date)
	}
	f, err := h.facilities.Accrue(c.Request().Context(), id, on)
	if err != nil {
		return respondErr(c, h.log, err)
	}
	return c.JSON(http.StatusOK, f)
}

// AgreementSigned is the e-signature webhook; it answers 201 with the facility when one was
// auto-created, 200 with a null facility otherwise.
func (h *OpsHandler) AgreementSigned(c echo.Context) error {
	agreementID := c.Param("loan_agreement_id")
	if agreementID == "" {
		return render(c, badRequest("missing_loan_agreement_id", "missing loan_agreement_id path param"))
	}
	var req agreementSignedReq
	if er := bindAndValidate(c, &req); er != nil {
		return render(c, er)
	}
	signedAt := h.now()
	if req.SignedAt != "" {
		signedAt, _ = time.Parse(time.RFC3339, req.SignedAt)
	}
	f, err := h.facilities.HandleAgreementSigned(c.Request().Context(), req.ClientID, agreementID, signedAt.UTC())
	if err != nil {
		return respondErr(c, h.log, err)
	}
	if f == nil {
		return c.JSON(http.StatusOK, map[string]any{"loan_agreement_id": agreementID, "facility": nil})
	}
	return c.JSON(http.StatusCreated, map[string]any{"loan_agreement_id": agreementID, "facility": f})
}
