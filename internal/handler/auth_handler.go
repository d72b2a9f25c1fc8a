package handler

import (
	"errors"
	"net/http"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/repository"
	auth "app/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

// /auth のAPI
type AuthHandler struct {
	login    *auth.LoginUsecase
	register *auth.RegisterUserUsecase
	userRepo repository.UserRepository
}

func NewAuthHandler(
	login *auth.LoginUsecase,
	register *auth.RegisterUserUsecase,
	userRepo repository.UserRepository,
) *AuthHandler {
	return &AuthHandler{login: login, register: register, userRepo: userRepo}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/auth")

	g.POST("/login", h.doLogin)
	g.GET("/me", h.me, middleware.AuthJWT(cfg))

	//スタッフ登録はadminのみ
	g.POST("/register", h.doRegister,
		middleware.AuthJWT(cfg),
		middleware.RoleGuard(string(model.RoleAdmin)))
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) doLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.login.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		case errors.Is(err, auth.ErrUserInactive):
			return c.JSON(http.StatusForbidden, ErrorResponse{Error: "user is inactive"})
		default:
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
	}

	return c.JSON(http.StatusOK, out)
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *AuthHandler) doRegister(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.register.Execute(c.Request().Context(), auth.RegisterUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		case errors.Is(err, auth.ErrInvalidName),
			errors.Is(err, auth.ErrInvalidEmailFormat),
			errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrWeakPassword),
			errors.Is(err, auth.ErrInvalidRole):
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	user, err := h.userRepo.FindByID(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	if !user.IsActive {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "user is inactive"})
	}

	return c.JSON(http.StatusOK, user)
}
