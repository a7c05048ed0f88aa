package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snapcart/pkg/logging"
	authmw "github.com/Skotchmaster/snapcart/pkg/middleware/auth"
	"github.com/Skotchmaster/snapcart/services/auth/internal/service"
	"github.com/Skotchmaster/snapcart/services/auth/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func toResponse(res *service.AuthResult) transport.AuthResponse {
	return transport.AuthResponse{
		ID:      res.User.ID,
		Name:    res.User.Name,
		Email:   res.User.Email,
		IsAdmin: res.User.IsAdmin,
		Token:   res.Token,
	}
}

func internalError(msg string, err error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusInternalServerError, map[string]string{
		"message": msg,
		"error":   err.Error(),
	})
}

// reason strips the error class prefix ("conflict: user already exists").
func reason(err error) string {
	msg := err.Error()
	if _, rest, ok := strings.Cut(msg, ": "); ok {
		return rest
	}
	return msg
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "missing fields", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "All fields required")
	}

	res, err := h.Svc.Register(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("register_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, reason(err))
		case errors.Is(err, service.ErrConflict):
			l.Warn("register_error", "status", 409, "reason", "user already exists")
			return echo.NewHTTPError(http.StatusConflict, reason(err))
		default:
			l.Error("register_error", "status", 500, "error", err)
			return internalError("Server error", err)
		}
	}

	l.Info("register_success", "user_id", res.User.ID.String())
	return c.JSON(http.StatusCreated, toResponse(res))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrValidation) {
			l.Warn("login_failed", "status", 401)
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		l.Error("login_failed", "status", 500, "error", err)
		return internalError("Server error", err)
	}

	l.Info("login_successful", "user_id", res.User.ID.String())
	return c.JSON(http.StatusOK, toResponse(res))
}

func (h *AuthHTTP) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.get_profile")

	p, ok := authmw.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
	}

	user, err := h.Svc.Profile(ctx, p.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_profile_error", "status", 404, "user_id", p.ID.String())
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		l.Error("get_profile_error", "status", 500, "error", err)
		return internalError("Server error", err)
	}

	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.update_profile")

	p, ok := authmw.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
	}

	var req transport.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_profile_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.UpdateProfile(ctx, p, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("update_profile_error", "status", 404, "user_id", p.ID.String())
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrConflict):
			l.Warn("update_profile_error", "status", 409, "reason", "email already in use")
			return echo.NewHTTPError(http.StatusConflict, "Email already in use")
		default:
			l.Error("update_profile_error", "status", 500, "error", err)
			return internalError("Server error", err)
		}
	}

	l.Info("update_profile_success", "user_id", p.ID.String())
	return c.JSON(http.StatusOK, toResponse(res))
}

func (h *AuthHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.list_users")

	users, err := h.Svc.ListUsers(ctx)
	if err != nil {
		l.Error("list_users_error", "status", 500, "error", err)
		return internalError("Internal server error", err)
	}
	return c.JSON(http.StatusOK, users)
}
