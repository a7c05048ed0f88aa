package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snapcart/pkg/logging"
	"github.com/Skotchmaster/snapcart/pkg/tokens"
)

const principalKey = "principal"

// ErrUnknownUser is returned by a UserResolver when the token subject has no account.
var ErrUnknownUser = errors.New("unknown user")

type Principal struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	IsAdmin bool      `json:"isAdmin"`
}

type UserResolver interface {
	ResolveUser(ctx context.Context, userID uuid.UUID, token string) (*Principal, error)
}

type Gate struct {
	JWTSecret []byte
	Users     UserResolver
}

func NewGate(secret []byte, users UserResolver) *Gate {
	return &Gate{JWTSecret: secret, Users: users}
}

type ValidatorFunc func(p *Principal) error

func (g *Gate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return g.requireAuthWithValidator(next, nil)
}

func (g *Gate) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return g.requireAuthWithValidator(next, func(p *Principal) error {
		if !p.IsAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "Not authorized as an admin")
		}
		return nil
	})
}

func (g *Gate) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("component", "gate")

		raw, ok := BearerToken(c.Request())
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, g.JWTSecret)
		if err != nil {
			l.Debug("token_rejected", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
		}
		userID, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
		}

		p, err := g.Users.ResolveUser(ctx, userID, raw)
		if err != nil {
			if errors.Is(err, ErrUnknownUser) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, user not found")
			}
			l.Error("resolve_user_error", "user_id", userID.String(), "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, map[string]string{
				"message": "Failed to resolve user",
				"error":   err.Error(),
			})
		}

		if validator != nil {
			if validationErr := validator(p); validationErr != nil {
				return validationErr
			}
		}

		c.Set(principalKey, p)
		return next(c)
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get(echo.HeaderAuthorization))
	scheme, tok, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", false
	}
	return tok, true
}

func PrincipalFrom(c echo.Context) (*Principal, bool) {
	p, ok := c.Get(principalKey).(*Principal)
	return p, ok && p != nil
}

// WithPrincipal attaches p to c the same way the gate does.
func WithPrincipal(c echo.Context, p *Principal) {
	c.Set(principalKey, p)
}
