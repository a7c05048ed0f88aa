package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snapcart/pkg/health"
	authmw "github.com/Skotchmaster/snapcart/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler *AuthHTTP
	Gate        *authmw.Gate
	Ready       []health.Check
}

func Register(e *echo.Echo, d *Deps) {
	health.Register(e, d.Ready...)

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)

	e.GET("/profile", d.AuthHandler.GetProfile, d.Gate.RequireAuth)
	e.PUT("/profile", d.AuthHandler.UpdateProfile, d.Gate.RequireAuth)

	e.GET("/users", d.AuthHandler.ListUsers, d.Gate.RequireAdmin)
}
