package http

import (
	"loan-origination-api/internal/infrastructure/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Handler *Handler
	Loans   *LoanHandler
	Log     *zap.Logger

	ExposeErrorDetail bool

	// Idempotency guards POST /api/loan; nil disables it.
	Idempotency echo.MiddlewareFunc
}

// NewRouter wires middleware, validation, error mapping and routes.
func NewRouter(cfg RouterConfig) *echo.Echo {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log, cfg.ExposeErrorDetail)
	e.Use(middleware.RequestID(), logger.RequestLogger(log), middleware.Recover())

	// routes
	e.GET("/", cfg.Handler.Index)
	e.GET("/redirect/", cfg.Handler.RedirectToIndex)
	e.GET("/health", cfg.Handler.Health)

	api := e.Group("/api")
	submit := []echo.MiddlewareFunc{}
	if cfg.Idempotency != nil {
		submit = append(submit, cfg.Idempotency)
	}
	api.POST("/loan", cfg.Loans.SubmitLoan, submit...)
	api.GET("/loan", cfg.Loans.TrackLoan)

	return e
}
