package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snapcart/pkg/logging"
	authmw "github.com/Skotchmaster/snapcart/pkg/middleware/auth"
	"github.com/Skotchmaster/snapcart/pkg/tokens"
)

const CtxUserID = "user_id"

// RequireBearer rejects requests without a well-formed, unexpired access token.
// The user record is not loaded here; the upstream service runs the full gate.
func RequireBearer(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logging.FromContext(c.Request().Context())

			raw, ok := authmw.BearerToken(c.Request())
			if !ok {
				l.Warn("gateway_auth_error", "status", 401, "reason", "no token")
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
			}
			claims, err := tokens.AccessClaimsFromToken(raw, secret)
			if err != nil {
				l.Warn("gateway_auth_error", "status", 401, "reason", "token failed", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
			}

			c.Set(CtxUserID, claims.Subject)
			return next(c)
		}
	}
}
