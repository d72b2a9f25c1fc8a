package server

import (
	"net/http"

	"app/internal/config"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// New はechoインスタンスを組み立てる。ルート登録はRegisterRoutesで行う。
func New(cfg config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.FEURL},
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete,
		},
		AllowHeaders: []string{
			echo.HeaderContentType, echo.HeaderAuthorization,
		},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return e
}

// Start はサーバーを起動する。
func Start(e *echo.Echo, cfg config.Config) error {
	addr := cfg.Port
	if addr == "" {
		addr = "8080"
	}
	if addr[0] != ':' {
		addr = ":" + addr
	}
	return e.Start(addr)
}
