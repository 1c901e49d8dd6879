package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"lendcore/internal/domain/apperr"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	apperr.Response
	Details []FieldError `json:"details,omitempty"`
}

func badRequest(code, msg string) *ErrorResponse {
	return &ErrorResponse{Response: apperr.Response{
		Status: http.StatusBadRequest, Type: apperr.KindValidation, Code: code, Message: msg,
	}}
}

func validationFailed(err error) *ErrorResponse {
	return &ErrorResponse{
		Response: apperr.Response{
			Status:  http.StatusUnprocessableEntity,
			Type:    apperr.KindValidation,
			Code:    "validation_failed",
			Message: "validation failed",
		},
		Details: ToFieldErrors(err),
	}
}

// bindAndValidate returns the response to render when req cannot be used, or nil.
func bindAndValidate(c echo.Context, req any) *ErrorResponse {
	if err := c.Bind(req); err != nil {
		return badRequest("invalid_body", "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return validationFailed(err)
	}
	return nil
}

func render(c echo.Context, er *ErrorResponse) error { return c.JSON(er.Status, er) }

// respondErr renders err by kind; unexpected failures are logged.
func respondErr(c echo.Context, log *zap.Logger, err error) error {
	r := apperr.ResponseOf(err)
	if r.Status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("error_code", r.Code),
			zap.Error(err))
	}
	return c.JSON(r.Status, ErrorResponse{Response: r})
}
