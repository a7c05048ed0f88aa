package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snapcart/pkg/health"
	authmw "github.com/Skotchmaster/snapcart/pkg/middleware/auth"
)

type Deps struct {
	OrderHandler *OrderHTTP
	Gate         *authmw.Gate
	Ready        []health.Check
}

func Register(e *echo.Echo, d *Deps) {
	health.Register(e, d.Ready...)

	orders := e.Group("/orders")
	orders.POST("", d.OrderHandler.Checkout, d.Gate.RequireAuth)
	orders.GET("/myOrders", d.OrderHandler.MyOrders, d.Gate.RequireAuth)
	orders.GET("/myorders", d.OrderHandler.MyOrders, d.Gate.RequireAuth)

	orders.GET("", d.OrderHandler.AllOrders, d.Gate.RequireAdmin)
	orders.PUT("/status", d.OrderHandler.UpdateStatus, d.Gate.RequireAdmin)
	orders.GET("/status", d.OrderHandler.StatusBreakdown, d.Gate.RequireAdmin)
	orders.GET("/revenue", d.OrderHandler.Revenue, d.Gate.RequireAdmin)

	orders.GET("/:id", d.OrderHandler.GetOrder, d.Gate.RequireAuth)
}
