package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /settings のAPI。参照は認証のみ、更新はadmin/manager。
type SettingsHandler struct {
	uc *usecase.SettingsUsecase
}

func NewSettingsHandler(uc *usecase.SettingsUsecase) *SettingsHandler {
	return &SettingsHandler{uc: uc}
}

func (h *SettingsHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/settings")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("", h.all)

	w := g.Group("")
	w.Use(middleware.RoleGuard(string(model.RoleAdmin), string(model.RoleManager)))
	w.PUT("", h.upsert)
}

func (h *SettingsHandler) all(c echo.Context) error {
	out, err := h.uc.All(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SettingsHandler) upsert(c echo.Context) error {
	var req map[string]interface{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.UpsertMany(c.Request().Context(), req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.All(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
