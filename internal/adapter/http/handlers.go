package http

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

//go:embed static/index.html
var indexHTML string

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) Index(c echo.Context) error {
	return c.HTML(http.StatusOK, indexHTML)
}

func (h *Handler) RedirectToIndex(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/")
}
