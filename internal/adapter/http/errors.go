package http

import (
	"errors"
	"fmt"
	"net/http"

	"loan-origination-api/internal/apperror"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	ErrorMessage string       `json:"error_message"`
	Detail       string       `json:"detail"`
	Errors       []FieldError `json:"errors,omitempty"`
}

// NewHTTPErrorHandler is the single place errors become responses.
// exposeDetail controls whether unexpected errors leak their text.
func NewHTTPErrorHandler(log *zap.Logger, exposeDetail bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponse(err, exposeDetail)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Error(err),
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.Error("write error response", zap.Error(werr))
		}
	}
}

func errorResponse(err error, exposeDetail bool) (int, ErrorResponse) {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return ae.Status, ErrorResponse{ErrorMessage: ae.Message, Detail: ae.Detail, Errors: ae.Fields}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		return he.Code, ErrorResponse{ErrorMessage: requestErrorMessage(he.Code), Detail: fmt.Sprint(he.Message)}
	}

	detail := "unexpected error"
	if exposeDetail {
		detail = err.Error()
	}
	return http.StatusInternalServerError, ErrorResponse{ErrorMessage: "Internal server error", Detail: detail}
}

func requestErrorMessage(code int) string {
	if code == http.StatusBadRequest {
		return "Invalid request"
	}
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "Invalid request"
}
