package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snapcart/pkg/logging"
	"github.com/Skotchmaster/snapcart/services/catalog/internal/service"
	"github.com/Skotchmaster/snapcart/services/catalog/internal/transport"
	"github.com/Skotchmaster/snapcart/services/catalog/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func serverError(err error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusInternalServerError, map[string]string{
		"message": "Server error",
		"error":   err.Error(),
	})
}

// parseID treats a malformed id like an unknown one.
func parseID(c echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	return id, err == nil
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, ok := parseID(c)
	if !ok {
		l.Warn("get_product_failed", "status", 404, "reason", "id is not a uuid")
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_product_failed", "status", 404, "product_id", id.String())
			return echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		l.Error("get_product_failed", "status", 500, "reason", "cannot get product", "error", err)
		return serverError(err)
	}

	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	q := transport.ListProductsQuery{Category: c.QueryParam("category")}
	if c.QueryParam("page") != "" || c.QueryParam("size") != "" {
		page := util.ParseIntDefault(c.QueryParam("page"), 1)
		size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
		q.Offset, q.Limit = util.Calculate(page, size)
	}

	items, err := h.Svc.ListProducts(ctx, q)
	if err != nil {
		l.Error("get_products_error", "status", 500, "reason", "cannot list products", "error", err)
		return serverError(err)
	}

	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "missing fields", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "All fields are required")
	}

	created, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("product_create_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "All fields are required")
		}
		l.Error("product_create_error", "status", 500, "reason", "cannot add product to db", "error", err)
		return serverError(err)
	}

	l.Info("create_product_success", "product_id", created.ID.String())
	return c.JSON(http.StatusCreated, created)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch_product")

	id, ok := parseID(c)
	if !ok {
		l.Warn("product_patch_error", "status", 404, "reason", "id is not a uuid")
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.PatchProduct(ctx, id, req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("product_patch_error", "status", 404, "product_id", id.String())
			return echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		l.Error("product_patch_error", "status", 500, "reason", "cannot update product", "error", err)
		return serverError(err)
	}

	l.Info("patch_product_success", "product_id", id.String())
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	id, ok := parseID(c)
	if !ok {
		l.Warn("product_delete_error", "status", 404, "reason", "id is not a uuid")
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}

	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("product_delete_error", "status", 404, "product_id", id.String())
			return echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		l.Error("product_delete_error", "status", 500, "reason", "cannot delete product from db", "error", err)
		return serverError(err)
	}

	l.Info("delete_product_success", "product_id", id.String())
	return c.JSON(http.StatusOK, echo.Map{"message": "Product removed"})
}
