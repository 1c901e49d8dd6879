package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"lendcore/internal/domain/apperr"
)

const RoleOperator = "operator"

var errNotOperator = errors.New("token is not an operator credential")

type operatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueOperatorToken signs an HS256 operator credential for subject.
func IssueOperatorToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := operatorClaims{
		Role: RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseOperatorToken(secret []byte, raw string) (*operatorClaims, error) {
	claims := &operatorClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Role != RoleOperator {
		return nil, errNotOperator
	}
	return claims, nil
}

// OperatorAuth guards operator routes with a Bearer JWT carrying role=operator.
func OperatorAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return reject(c, http.StatusUnauthorized, apperr.KindUnauthorized, "missing_token", "missing bearer token")
			}
			claims, err := parseOperatorToken(secret, strings.TrimSpace(raw))
			if errors.Is(err, errNotOperator) {
				return reject(c, http.StatusForbidden, apperr.KindUnauthorized, "forbidden", err.Error())
			}
			if err != nil {
				return reject(c, http.StatusUnauthorized, apperr.KindUnauthorized, "invalid_token", "invalid bearer token")
			}
			c.Set(operatorKey, claims.Subject)
			return next(c)
		}
	}
}
