package server

import (
	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
)

// Handlers はルート登録に必要なhandler一式。
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	Category     *handler.CategoryHandler
	Menu         *handler.MenuHandler
	Table        *handler.TableHandler
	Order        *handler.OrderHandler
	Notification *handler.NotificationHandler
	Settings     *handler.SettingsHandler
	Dashboard    *handler.DashboardHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	h.Auth.RegisterRoutes(e, cfg)
	h.Product.RegisterRoutes(e, cfg)
	h.Category.RegisterRoutes(e, cfg)
	h.Menu.RegisterRoutes(e, cfg)
	h.Table.RegisterRoutes(e, cfg)
	h.Order.RegisterRoutes(e, cfg)
	h.Notification.RegisterRoutes(e, cfg)
	h.Settings.RegisterRoutes(e, cfg)
	h.Dashboard.RegisterRoutes(e, cfg)
}
