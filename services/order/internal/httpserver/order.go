package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/snapcart/pkg/logging"
	authmw "github.com/Skotchmaster/snapcart/pkg/middleware/auth"
	"github.com/Skotchmaster/snapcart/services/order/internal/service"
	"github.com/Skotchmaster/snapcart/services/order/internal/transport"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type OrderHTTP struct {
	Svc *service.OrderService
}

func internalError(msg string, err error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusInternalServerError, map[string]string{
		"message": msg,
		"error":   err.Error(),
	})
}

func reason(err error) string {
	msg := err.Error()
	if _, rest, ok := strings.Cut(msg, ": "); ok {
		return rest
	}
	return msg
}

// classify maps service error classes onto HTTP errors; serverMsg labels 500s.
func classify(err error, serverMsg string) (int, *echo.HTTPError) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, echo.NewHTTPError(http.StatusBadRequest, reason(err))
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, echo.NewHTTPError(http.StatusForbidden, reason(err))
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, echo.NewHTTPError(http.StatusNotFound, reason(err))
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, echo.NewHTTPError(http.StatusConflict, reason(err))
	default:
		return http.StatusInternalServerError, internalError(serverMsg, err)
	}
}

func (h *OrderHTTP) fail(c echo.Context, event string, err error) error {
	return h.failWith(c, event, "Server error", err)
}

func (h *OrderHTTP) failWith(c echo.Context, event, serverMsg string, err error) error {
	l := logging.FromContext(c.Request().Context())
	code, httpErr := classify(err, serverMsg)
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
	} else {
		l.Warn(event, "status", code, "reason", reason(err))
	}
	return httpErr
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	p, ok := authmw.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, replayed, err := h.Svc.Checkout(ctx, p.ID, req, c.Request().Header.Get(IdempotencyKeyHeader))
	if err != nil {
		return h.fail(c, "checkout_error", err)
	}

	if replayed {
		l.Info("checkout_replayed", "order_id", order.ID.String())
		return c.JSON(http.StatusOK, order)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_status_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.UpdateStatus(ctx, req)
	if err != nil {
		return h.fail(c, "update_status_error", err)
	}

	l.Info("order_status_updated", "order_id", order.ID.String(), "order_status", string(order.Status))
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	p, ok := authmw.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
	}

	orders, err := h.Svc.MyOrders(c.Request().Context(), p.ID)
	if err != nil {
		return h.fail(c, "my_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) AllOrders(c echo.Context) error {
	orders, err := h.Svc.AllOrders(c.Request().Context())
	if err != nil {
		return h.fail(c, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	p, ok := authmw.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
	}

	order, err := h.Svc.OrderByID(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return h.fail(c, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Revenue(c echo.Context) error {
	revenue, err := h.Svc.Revenue(c.Request().Context())
	if err != nil {
		return h.failWith(c, "revenue_error", "Error while fetching revenue", err)
	}
	return c.JSON(http.StatusOK, transport.RevenueResponse{Revenue: revenue})
}

func (h *OrderHTTP) StatusBreakdown(c echo.Context) error {
	counts, err := h.Svc.StatusBreakdown(c.Request().Context())
	if err != nil {
		return h.failWith(c, "status_breakdown_error", "Error while fetching order status", err)
	}
	return c.JSON(http.StatusOK, counts)
}
