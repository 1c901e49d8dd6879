package http

import (
	"github.com/labstack/echo/v4"
)

// Routes groups the handlers and the middleware that guard them.
type Routes struct {
	Health     *Handler
	Facilities *FacilityHandler
	Ops        *OpsHandler

	Tenant      echo.MiddlewareFunc
	Idempotency echo.MiddlewareFunc
	Operator    echo.MiddlewareFunc
}

func Register(e *echo.Echo, r Routes) {
	e.GET("/health", r.Health.Health)

	tenant := e.Group("/facilities", r.Tenant, r.Idempotency)
	tenant.POST("", r.Facilities.Create)
	tenant.GET("", r.Facilities.List)
	tenant.GET("/:facility_id", r.Facilities.Get)
	tenant.PUT("/:facility_id/bank_details", r.Facilities.UpdateBankDetails)
	tenant.PUT("/:facility_id/autopay", r.Facilities.SetAutopay)
	tenant.POST("/:facility_id/close", r.Facilities.Close)
	tenant.POST("/:facility_id/payments", r.Facilities.PostPayment)

	ops := e.Group("/ops", r.Operator)
	ops.POST("/facilities/:facility_id/sync", r.Ops.SyncFacility)
	ops.POST("/facilities/:facility_id/statements", r.Ops.GenerateStatement)
	ops.POST("/facilities/:facility_id/accrue", r.Ops.Accrue)
	ops.POST("/jobs/sync", r.Ops.StartSync)
	ops.POST("/jobs/statements", r.Ops.StartStatements)
	ops.GET("/jobs", r.Ops.ListJobs)
	ops.POST("/loan_agreements/:loan_agreement_id/signed", r.Ops.AgreementSigned)
}
