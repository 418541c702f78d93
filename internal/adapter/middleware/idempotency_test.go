package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"loan-origination-api/internal/apperror"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	testKey   = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testOwner = "partner-a"
	loanPath  = "/api/loan"
)

func headerOwner(c echo.Context) string { return c.Request().Header.Get("partner_secret") }

// maps *apperror.Error the way the service's error handler does
func testErrorHandler(err error, c echo.Context) {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		_ = c.JSON(ae.Status, map[string]string{"error_message": ae.Message, "detail": ae.Detail})
		return
	}
	c.Echo().DefaultHTTPErrorHandler(err, c)
}

// helper: new Echo with the middleware and a simple route
func setupEcho(rdb *redis.Client, ttl time.Duration, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = testErrorHandler
	e.Use(Idempotency(rdb, ttl, headerOwner, nil))
	e.POST(loanPath, handler)
	e.GET(loanPath, handler) // for non-mutating bypass test
	return e
}

func mkJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// countingCreated returns a fresh id per call so replays are distinguishable.
func countingCreated(calls *atomic.Int32) echo.HandlerFunc {
	return func(c echo.Context) error {
		n := calls.Add(1)
		return c.JSON(http.StatusCreated, map[string]any{"call": n})
	}
}

func validHeaders() map[string]string {
	return map[string]string{HeaderIdempotencyKey: testKey, "partner_secret": testOwner}
}

func Test_BypassOnGET(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "get ok"})
	})
	rec := doReq(t, e, http.MethodGet, loanPath, nil, map[string]string{HeaderIdempotencyKey: "not-valid"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func Test_NoKey_PassesThrough(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	var calls atomic.Int32
	e := setupEcho(rdb, time.Minute, countingCreated(&calls))

	for i := 0; i < 2; i++ {
		rec := doReq(t, e, http.MethodPost, loanPath, strings.NewReader(`{"x":1}`), map[string]string{"partner_secret": testOwner})
		if rec.Code != http.StatusCreated {
			t.Fatalf("want 201, got %d", rec.Code)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("handler calls = %d, want 2", calls.Load())
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("nothing should be stored without a key, got %v", keys)
	}
}

func Test_InvalidKey_Returns400(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	var calls atomic.Int32
	e := setupEcho(rdb, time.Minute, countingCreated(&calls))

	h := validHeaders()
	h[HeaderIdempotencyKey] = "NOT-VALID"
	rec := doReq(t, e, http.MethodPost, loanPath, strings.NewReader(`{}`), h)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid key => want 400, got %d", rec.Code)
	}
	if calls.Load() != 0 {
		t.Fatal("handler must not run")
	}
}

func Test_MissingOwner_LeftToHandler(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	e := setupEcho(rdb, time.Minute, func(c echo.Context) error {
		return apperror.New(http.StatusBadRequest, "Missing partner secret", "partner_secret header is required")
	})
	rec := doReq(t, e, http.MethodPost, loanPath, strings.NewReader(`{}`), map[string]string{HeaderIdempotencyKey: testKey})
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Missing partner secret") {
		t.Fatalf("want handler's 400, got %d %s", rec.Code, rec.Body.String())
	}
}

func Test_HappyPath_Then_Replay(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	var calls atomic.Int32
	e := setupEcho(rdb, 2*time.Minute, countingCreated(&calls))

	rec1 := doReq(t, e, http.MethodPost, loanPath, mkJSONBody(t, map[string]any{"principal_amount": 1000}), validHeaders())
	if rec1.Code != http.StatusCreated {
		t.Fatalf("first request => want 201, got %d, body: %s", rec1.Code, rec1.Body.String())
	}

	rec2 := doReq(t, e, http.MethodPost, loanPath, mkJSONBody(t, map[string]any{"principal_amount": 1000}), validHeaders())
	if rec2.Code != http.StatusCreated {
		t.Fatalf("replay => want 201, got %d, body: %s", rec2.Code, rec2.Body.String())
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", rec1.Body.String(), rec2.Body.String())
	}
	if calls.Load() != 1 {
		t.Fatalf("handler calls = %d, want 1", calls.Load())
	}
}

func Test_SameKey_OtherOwner_IsIndependent(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	var calls atomic.Int32
	e := setupEcho(rdb, 2*time.Minute, countingCreated(&calls))

	_ = doReq(t, e, http.MethodPost, loanPath, strings.NewReader(`{"x":1}`), validHeaders())

	h := validHeaders()
	h["partner_secret"] = "partner-b"
	rec := doReq(t, e, http.MethodPost, loanPath, strings.NewReader(`{"x":1}`), h)
	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d", rec.Code)
	}
	if calls.Load() != 2 {
		t.Fatalf("handler calls = %d, want 2", calls.Load())
	}
}

func Test_Conflict_When_InProgress(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	var calls atomic.Int32
	e := setupEcho(rdb, 2*time.Minute, countingCreated(&calls))

	body := []byte(`{"x":1}`)

	// seed provisional "in-progress" entry so SetNX fails and loadEntry sees InProgress=true
	key := buildKey(http.MethodPost, loanPath, testOwner, testKey)
	entry := idempEntry{
		InProgress: true,
		BodySHA256: bodyHash(body),
		Key:        testKey,
		CreatedAt:  time.Now().UTC(),
	}
	if ok, err := provisionalSet(context.Background(), rdb, key, entry); err != nil || !ok {
		t.Fatalf("seed provisional failed, ok=%v err=%v", ok, err)
	}

	rec := doReq(t, e, http.MethodPost, loanPath, bytes.NewReader(body), validHeaders())
	if rec.Code != http.StatusConflict {
		t.Fatalf("in-progress => want 409, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "already in progress") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if calls.Load() != 0 {
		t.Fatal("handler must not run")
	}
}

func Test_Conflict_When_SameKey_DifferentBody(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	var calls atomic.Int32
	e := setupEcho(rdb, 2*time.Minute, countingCreated(&calls))

	rec1 := doReq(t, e, http.MethodPost, loanPath, strings.NewReader(`{"x":1}`), validHeaders())
	if rec1.Code != http.StatusCreated {
		t.Fatalf("first => want 201, got %d", rec1.Code)
	}
	rec2 := doReq(t, e, http.MethodPost, loanPath, strings.NewReader(`{"x":2}`), validHeaders())
	if rec2.Code != http.StatusConflict {
		t.Fatalf("different body same key => want 409, got %d", rec2.Code)
	}
}

func Test_ServerError_IsNotReplayed(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	var calls atomic.Int32
	e := setupEcho(rdb, time.Minute, func(c echo.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("db down")
		}
		return c.JSON(http.StatusCreated, map[string]bool{"ok": true})
	})

	rec1 := doReq(t, e, http.MethodPost, loanPath, strings.NewReader(`{}`), validHeaders())
	if rec1.Code != http.StatusInternalServerError {
		t.Fatalf("first => want 500, got %d", rec1.Code)
	}
	rec2 := doReq(t, e, http.MethodPost, loanPath, strings.NewReader(`{}`), validHeaders())
	if rec2.Code != http.StatusCreated {
		t.Fatalf("retry => want 201, got %d body=%s", rec2.Code, rec2.Body.String())
	}
}

func Test_StoreUnavailable_Returns503(t *testing.T) {
	// closed address: SetNX fails fast
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	var calls atomic.Int32
	e := setupEcho(rdb, time.Minute, countingCreated(&calls))

	rec := doReq(t, e, http.MethodPost, loanPath, bytes.NewReader([]byte(`{}`)), validHeaders())
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("store unavailable => want 503, got %d", rec.Code)
	}
	if calls.Load() != 0 {
		t.Fatal("handler must not run")
	}
}

func Test_HandlerPanic_ReleasesKey(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()

	var calls atomic.Int32
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = testErrorHandler
	e.Use(echomw.Recover())
	e.POST(loanPath, func(c echo.Context) error {
		if calls.Add(1) == 1 {
			panic("handler blew up")
		}
		return c.JSON(http.StatusCreated, map[string]bool{"ok": true})
	}, Idempotency(rdb, time.Minute, headerOwner, nil))

	rec1 := doReq(t, e, http.MethodPost, loanPath, strings.NewReader(`{}`), validHeaders())
	if rec1.Code != http.StatusInternalServerError {
		t.Fatalf("first => want 500, got %d", rec1.Code)
	}
	if key := buildKey(http.MethodPost, loanPath, testOwner, testKey); mr.Exists(key) {
		t.Fatal("key still locked after panic")
	}

	rec2 := doReq(t, e, http.MethodPost, loanPath, strings.NewReader(`{}`), validHeaders())
	if rec2.Code != http.StatusCreated {
		t.Fatalf("retry => want 201, got %d body=%s", rec2.Code, rec2.Body.String())
	}
}

func Test_releaseKey_BoundedWhenStoreDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()

	start := time.Now()
	releaseKey(rdb, "idemp:loan:x", testKey, zap.NewNop())
	if d := time.Since(start); d > storeTimeout+time.Second {
		t.Fatalf("releaseKey took %v, want at most %v", d, storeTimeout)
	}
}
