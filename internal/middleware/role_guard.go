package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// contextのroleが許可リストに含まれるかを確認します。
func RoleGuard(allowed ...string) echo.MiddlewareFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawRole := c.Get(CtxUserRoleKey)
			role, ok := rawRole.(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			if _, ok := allowedSet[role]; !ok {
				return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
			}

			return next(c)
		}
	}
}
