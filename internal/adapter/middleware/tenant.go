package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"lendcore/internal/domain/apperr"
)

const (
	HeaderClientID = "Ax-Client-Id"

	clientIDKey = "client_id"
	operatorKey = "operator"
)

// Tenant requires Ax-Client-Id and stores it on the context for handlers and Idempotency.
func Tenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(HeaderClientID))
			if id == "" {
				return reject(c, http.StatusBadRequest, apperr.KindValidation, "missing_client_id", "missing Ax-Client-Id")
			}
			if !reHex32.MatchString(id) {
				return reject(c, http.StatusBadRequest, apperr.KindValidation, "invalid_client_id", "invalid Ax-Client-Id")
			}
			c.Set(clientIDKey, id)
			return next(c)
		}
	}
}

// ClientID returns the tenant set by Tenant, or "".
func ClientID(c echo.Context) string {
	id, _ := c.Get(clientIDKey).(string)
	return id
}

// Operator returns the subject set by OperatorAuth, or "".
func Operator(c echo.Context) string {
	sub, _ := c.Get(operatorKey).(string)
	return sub
}
