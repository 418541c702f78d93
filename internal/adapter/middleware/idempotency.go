package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"loan-origination-api/internal/apperror"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"

	// How long we hold the "in-progress" lock before it must be refreshed by finishing the handler.
	provisionalLockTTL = 60 * time.Second
	storeTimeout       = 2 * time.Second
)

// ---- Data types ----
type idempEntry struct {
	InProgress bool      `json:"in_progress"`
	Code       int       `json:"code"`
	Body       []byte    `json:"body"`
	BodySHA256 string    `json:"body_sha256"`
	Key        string    `json:"key"`
	CreatedAt  time.Time `json:"created_at"`
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

// OwnerFunc extracts the caller that idempotency keys are scoped to.
type OwnerFunc func(c echo.Context) string

// Idempotency replays the stored response of a mutating request that is
// retried with the same Idempotency-Key and body.
// key = method + route + owner + Idempotency-Key. Requests without the header,
// or without an owner, pass straight through.
func Idempotency(rdb *redis.Client, ttl time.Duration, owner OwnerFunc, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			method := req.Method

			// Only enforce on mutating methods
			switch method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			idempKey := strings.TrimSpace(req.Header.Get(HeaderIdempotencyKey))
			if idempKey == "" {
				return next(c)
			}
			if !validIdempKey(idempKey) {
				return apperror.New(http.StatusBadRequest, "Invalid request",
					"Idempotency-Key must be a UUID or 32-char hex string")
			}
			ownerID := owner(c)
			if ownerID == "" {
				// the handler reports the missing credential
				return next(c)
			}

			// Buffer & hash body
			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(body))
			bhash := bodyHash(body)

			key := buildKey(method, c.Path(), ownerID, idempKey)
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			entry := idempEntry{
				InProgress: true,
				BodySHA256: bhash,
				Key:        idempKey,
				CreatedAt:  nowUTC(),
			}
			ok, err := provisionalSet(ctx, rdb, key, entry)
			if err != nil {
				log.Error("idempotency store unavailable", zap.Error(err))
				return apperror.Wrap(err, http.StatusServiceUnavailable, "Idempotency store unavailable")
			}
			if !ok {
				// Key exists: body must match, and we may be able to replay
				cur, errLoad := loadEntry(ctx, rdb, key)
				if errLoad != nil {
					log.Warn("idempotency entry unreadable", zap.String("idempotency_key", idempKey), zap.Error(errLoad))
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
					return apperror.New(http.StatusConflict, "Idempotency conflict",
						"Idempotency-Key reused with a different body")
				}
				if !cur.InProgress && cur.Code != 0 && len(cur.Body) > 0 {
					return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
				}
				return apperror.New(http.StatusConflict, "Idempotency conflict", "request is already in progress")
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec

			finished := false
			defer func() {
				// a panicking handler must not leave the key locked
				if !finished {
					releaseKey(rdb, key, idempKey, log)
				}
			}()
			if err := next(c); err != nil {
				c.Error(err)
			}
			finished = true

			// server failures are not replayed, the client may retry them
			if rec.code >= http.StatusInternalServerError {
				releaseKey(rdb, key, idempKey, log)
				return nil
			}
			final := idempEntry{
				InProgress: false,
				Code:       rec.code,
				Body:       rec.buf.Bytes(),
				BodySHA256: bhash,
				Key:        idempKey,
				CreatedAt:  nowUTC(),
			}
			saveCtx, saveCancel := context.WithTimeout(context.Background(), storeTimeout)
			defer saveCancel()
			if err := saveFinal(saveCtx, rdb, key, final, ttl); err != nil {
				log.Warn("idempotency save failed", zap.String("idempotency_key", idempKey), zap.Error(err))
			}
			return nil
		}
	}
}

// releaseKey runs detached from the request context, which may already be done.
func releaseKey(rdb *redis.Client, key, idempKey string, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := release(ctx, rdb, key); err != nil {
		log.Warn("idempotency release failed", zap.String("idempotency_key", idempKey), zap.Error(err))
	}
}
