package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /dashboard のAPI
type DashboardHandler struct {
	uc *usecase.DashboardUsecase
}

func NewDashboardHandler(uc *usecase.DashboardUsecase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/dashboard")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("", h.summary)
}

func (h *DashboardHandler) summary(c echo.Context) error {
	out, err := h.uc.Summary(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
