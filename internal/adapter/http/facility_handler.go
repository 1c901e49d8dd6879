package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lendcore/internal/adapter/middleware"
	domainFacility "lendcore/internal/domain/facility"
	ucFacility "lendcore/internal/usecase/facility"
	"lendcore/pkg/civil"
	"lendcore/pkg/money"
)

// FacilityService is the tenant-facing part of the facility lifecycle manager.
type FacilityService interface {
	Create(ctx context.Context, in ucFacility.CreateInput) (*domainFacility.Facility, error)
	Get(ctx context.Context, clientID, facilityID string) (*domainFacility.Facility, error)
	List(ctx context.Context, clientID string) ([]domainFacility.Facility, error)
	UpdateBankDetails(ctx context.Context, in ucFacility.BankDetailsInput) (*domainFacility.Facility, error)
	SetAutopay(ctx context.Context, in ucFacility.AutopayInput) (*domainFacility.Facility, error)
	Close(ctx context.Context, clientID, facilityID string) (*domainFacility.Facility, error)
	PostPayment(ctx context.Context, in ucFacility.PaymentInput) (*domainFacility.Facility, error)
}

type FacilityHandler struct {
	uc  FacilityService
	log *zap.Logger
	now func() time.Time
}

func NewFacilityHandler(uc FacilityService, log *zap.Logger) *FacilityHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FacilityHandler{uc: uc, log: log, now: func() time.Time { return time.Now().UTC() }}
}

type createFacilityReq struct {
	LoanAgreementID string `json:"loan_agreement_id" validate:"required,hex32"`
}

type bankDetailsReq struct {
	AccountHolder string `json:"account_holder" validate:"required,max=128"`
	RoutingNumber string `json:"routing_number" validate:"required,aba"`
	AccountNumber string `json:"account_number" validate:"required,numeric,min=4,max=17"`
	AccountType   string `json:"account_type"   validate:"required,oneof=checking savings"`
}

type autopayReq struct {
	Enabled *bool `json:"enabled" validate:"required"`
	Day     int   `json:"day"     validate:"omitempty,gte=1,lte=28"`
}

type paymentReq struct {
	Amount float64 `json:"amount" validate:"required,gt=0,dec2"`
	// defaults to today (UTC)
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func facilityID(c echo.Context) (string, *ErrorResponse) {
	id := c.Param("facility_id")
	if id == "" {
		return "", badRequest("missing_facility_id", "missing facility_id path param")
	}
	return id, nil
}

func (h *FacilityHandler) Create(c echo.Context) error {
	var req createFacilityReq
	if er := bindAndValidate(c, &req); er != nil {
		return render(c, er)
	}
	f, err := h.uc.Create(c.Request().Context(), ucFacility.CreateInput{
		LoanAgreementID: req.LoanAgreementID,
		ClientID:        middleware.ClientID(c),
	})
	if err != nil {
		return respondErr(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *FacilityHandler) List(c echo.Context) error {
	fs, err := h.uc.List(c.Request().Context(), middleware.ClientID(c))
	if err != nil {
		return respondErr(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"facilities": fs})
}

func (h *FacilityHandler) Get(c echo.Context) error {
	id, er := facilityID(c)
	if er != nil {
		return render(c, er)
	}
	f, err := h.uc.Get(c.Request().Context(), middleware.ClientID(c), id)
	if err != nil {
		return respondErr(c, h.log, err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *FacilityHandler) UpdateBankDetails(c echo.Context) error {
	id, er := facilityID(c)
	if er != nil {
		return render(c, er)
	}
	var req bankDetailsReq
	if er := bindAndValidate(c, &req); er != nil {
		return render(c, er)
	}
	f, err := h.uc.UpdateBankDetails(c.Request().Context(), ucFacility.BankDetailsInput{
		ClientID:   middleware.ClientID(c),
		FacilityID: id,
		Details:    domainFacility.BankDetails(req),
	})
	if err != nil {
		return respondErr(c, h.log, err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *FacilityHandler) SetAutopay(c echo.Context) error {
	id, er := facilityID(c)
	if er != nil {
		return render(c, er)
	}
	var req autopayReq
	if er := bindAndValidate(c, &req); er != nil {
		return render(c, er)
	}
	f, err := h.uc.SetAutopay(c.Request().Context(), ucFacility.AutopayInput{
		ClientID:   middleware.ClientID(c),
		FacilityID: id,
		Enabled:    *req.Enabled,
		Day:        req.Day,
	})
	if err != nil {
		return respondErr(c, h.log, err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *FacilityHandler) Close(c echo.Context) error {
	id, er := facilityID(c)
	if er != nil {
		return render(c, er)
	}
	f, err := h.uc.Close(c.Request().Context(), middleware.ClientID(c), id)
	if err != nil {
		return respondErr(c, h.log, err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *FacilityHandler) PostPayment(c echo.Context) error {
	id, er := facilityID(c)
	if er != nil {
		return render(c, er)
	}
	var req paymentReq
	if er := bindAndValidate(c, &req); er != nil {
		return render(c, er)
	}
	on := civil.Date(h.now())
	if req.Date != "" {
		// already checked by the datetime tag
		on, _ = civil.Parse(req.Date)
	}
	f, err := h.uc.PostPayment(c.Request().Context(), ucFacility.PaymentInput{
		ClientID:   middleware.ClientID(c),
		FacilityID: id,
		Amount:     money.ToMinorUnits(decimal.NewFromFloat(req.Amount)),
		Date:       on,
	})
	if err != nil {
		return respondErr(c, h.log, err)
	}
	return c.JSON(http.StatusOK, f)
}
