package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snapcart/pkg/health"
	authmw "github.com/Skotchmaster/snapcart/pkg/middleware/auth"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	Gate           *authmw.Gate
	Ready          []health.Check
}

func Register(e *echo.Echo, d *Deps) {
	health.Register(e, d.Ready...)

	products := e.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)

	products.POST("", d.CatalogHandler.CreateProduct, d.Gate.RequireAdmin)
	products.PUT("/:id", d.CatalogHandler.PatchProduct, d.Gate.RequireAdmin)
	products.PATCH("/:id", d.CatalogHandler.PatchProduct, d.Gate.RequireAdmin)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct, d.Gate.RequireAdmin)
}
