package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lendcore/internal/domain/apperr"
)

const (
	// How long we hold the "in-progress" lock before it must be refreshed by finishing the handler.
	provisionalLockTTL = 60 * time.Second
	// Allowed client/server clock skew for Ax-Request-At (in UTC).
	maxClockSkew = 10 * time.Minute

	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
)

type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	if r.buf != nil {
		r.buf.Write(b)
	}
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

type rejection struct {
	status int
	kind   apperr.Kind
	code   string
	msg    string
}

func badHeader(code, msg string) *rejection {
	return &rejection{http.StatusBadRequest, apperr.KindValidation, code, msg}
}

// requestHeaders validates Ax-Request-Id and Ax-Request-At against the server clock.
func requestHeaders(h http.Header) (string, time.Time, *rejection) {
	reqID := strings.TrimSpace(h.Get(HeaderRequestID))
	switch {
	case reqID == "":
		return "", time.Time{}, badHeader("missing_request_id", "missing Ax-Request-Id")
	case !validReqID(reqID):
		return "", time.Time{}, badHeader("invalid_request_id", "invalid Ax-Request-Id format")
	}
	reqAt, err := parseAxRequestAt(h.Get(HeaderRequestAt))
	if err != nil {
		return "", time.Time{}, badHeader("invalid_request_at", err.Error())
	}
	if d := nowUTC().Sub(reqAt); d > maxClockSkew || d < -maxClockSkew {
		return "", time.Time{}, badHeader("request_at_skewed", "Ax-Request-At too skewed")
	}
	return reqID, reqAt, nil
}

// existing decides what to answer when another request already claimed the key.
func existing(c echo.Context, cur idempEntry, bhash string) error {
	switch {
	case cur.BodySHA256 != "" && cur.BodySHA256 != bhash:
		return reject(c, http.StatusConflict, apperr.KindInvalidState, "request_id_reused", "Ax-Request-Id reused with different body")
	case !cur.InProgress && cur.Code != 0 && len(cur.Body) > 0:
		return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
	default:
		return reject(c, http.StatusConflict, apperr.KindInvalidState, "request_in_progress", "request is already in progress")
	}
}

// Idempotency replays the stored response of a mutating request.
// Key = method + route + tenant + Ax-Request-Id; it must run after Tenant.
func Idempotency(rdb redis.Cmdable, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID, reqAt, rej := requestHeaders(req.Header)
			if rej == nil && ClientID(c) == "" {
				rej = badHeader("missing_client_id", "missing Ax-Client-Id")
			}
			if rej != nil {
				return reject(c, rej.status, rej.kind, rej.code, rej.msg)
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			bhash := bodyHash(body)
			key := buildKey(req.Method, c.Path(), ClientID(c), reqID)
			stamp := func(e idempEntry) idempEntry {
				e.BodySHA256, e.RequestID, e.RequestAtMS, e.CreatedAt = bhash, reqID, reqAt.UnixMilli(), nowUTC()
				return e
			}

			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			claimed, err := provisionalSet(ctx, rdb, key, stamp(idempEntry{InProgress: true}))
			if err != nil {
				log.Error("idempotency store unavailable", zap.String("key", key), zap.Error(err))
				return reject(c, http.StatusServiceUnavailable, apperr.KindInternal, "idempotency_unavailable", "idempotency store unavailable")
			}
			if !claimed {
				cur, err := loadEntry(ctx, rdb, key)
				if err != nil {
					log.Warn("idempotency entry unreadable", zap.String("key", key), zap.Error(err))
				}
				return existing(c, cur, bhash)
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			store, cancelStore := context.WithTimeout(context.WithoutCancel(req.Context()), 2*time.Second)
			defer cancelStore()
			// Server failures are not replayed; the client may retry with the same id.
			if rec.code >= http.StatusInternalServerError {
				if err := releaseProvisional(store, rdb, key); err != nil {
					log.Warn("idempotency release failed", zap.String("key", key), zap.Error(err))
				}
				return nil
			}
			if err := saveFinal(store, rdb, key, stamp(idempEntry{Code: rec.code, Body: rec.buf.Bytes()}), ttl); err != nil {
				log.Warn("idempotency save failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}
