package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/snapcart/pkg/events"
	"github.com/Skotchmaster/snapcart/pkg/idempotency"
	"github.com/Skotchmaster/snapcart/pkg/logging"
	authmw "github.com/Skotchmaster/snapcart/pkg/middleware/auth"
	"github.com/Skotchmaster/snapcart/services/order/internal/models"
	"github.com/Skotchmaster/snapcart/services/order/internal/repo"
	"github.com/Skotchmaster/snapcart/services/order/internal/transport"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
	ErrForbidden  = errors.New("forbidden")  // 403

	ErrEmptyCart         = fmt.Errorf("%w: No order items provided", ErrValidation)
	ErrInvalidItem       = fmt.Errorf("%w: Invalid order item", ErrValidation)
	ErrIncompleteAddress = fmt.Errorf("%w: Shipping address is incomplete", ErrValidation)
	ErrInvalidTotal      = fmt.Errorf("%w: Invalid total price", ErrValidation)
	ErrTotalMismatch     = fmt.Errorf("%w: Total price does not match catalog prices", ErrValidation)
	ErrInvalidStatus     = fmt.Errorf("%w: Invalid order status", ErrValidation)

	ErrOrderNotFound = fmt.Errorf("%w: Order not found", ErrNotFound)
	ErrNoOrders      = fmt.Errorf("%w: No orders found", ErrNotFound)

	ErrAccessDenied = fmt.Errorf("%w: Access denied", ErrForbidden)

	ErrCheckoutInProgress = fmt.Errorf("%w: checkout with this idempotency key is still in progress", ErrConflict)
)

type Options struct {
	// VerifyTotals recomputes the submitted total from catalog prices.
	VerifyTotals   bool
	TotalTolerance decimal.Decimal

	// EmptyAsNotFound reports empty listings and reports as ErrNotFound.
	EmptyAsNotFound bool
}

type OrderService struct {
	Repo        repo.Repository
	Events      events.Publisher
	Prices      PriceBook
	Idempotency idempotency.Store
	Options     Options

	Now func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func checkItems(req []transport.OrderItemRequest) ([]models.OrderItem, error) {
	if len(req) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]models.OrderItem, 0, len(req))
	for i, it := range req {
		pid, err := uuid.Parse(strings.TrimSpace(it.ProductID))
		if err != nil || pid == uuid.Nil {
			return nil, fmt.Errorf("%w: item %d has no valid productId", ErrInvalidItem, i)
		}
		qty := 1
		if it.Quantity != nil && *it.Quantity != 0 {
			qty = *it.Quantity
		}
		if qty < 0 {
			return nil, fmt.Errorf("%w: item %d has a negative quantity", ErrInvalidItem, i)
		}
		items = append(items, models.OrderItem{Position: i, ProductID: pid, Quantity: qty})
	}
	return items, nil
}

func checkAddress(req transport.ShippingAddressRequest) (models.ShippingAddress, error) {
	addr := models.ShippingAddress{
		Address:    strings.TrimSpace(req.Address),
		City:       strings.TrimSpace(req.City),
		PostalCode: strings.TrimSpace(req.PostalCode),
		Country:    strings.TrimSpace(req.Country),
	}
	if addr.Address == "" || addr.City == "" || addr.PostalCode == "" || addr.Country == "" {
		return models.ShippingAddress{}, ErrIncompleteAddress
	}
	return addr, nil
}

// Checkout creates a Pending order owned by userID. With a non-empty idempotency
// key a repeated call returns the order created by the first one and replayed=true.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, req transport.CheckoutRequest, key string) (order *models.Order, replayed bool, err error) {
	l := logging.FromContext(ctx).With("svc", "order.checkout", "user_id", userID.String())

	items, err := checkItems(req.Products)
	if err != nil {
		return nil, false, err
	}
	addr, err := checkAddress(req.ShippingAddress)
	if err != nil {
		return nil, false, err
	}
	if req.TotalPrice == nil || *req.TotalPrice <= 0 {
		return nil, false, ErrInvalidTotal
	}

	if key = strings.TrimSpace(key); key != "" && s.Idempotency != nil {
		storeKey := "checkout:" + userID.String() + ":" + key
		existing, rerr := s.replay(ctx, storeKey)
		if rerr != nil || existing != nil {
			return existing, existing != nil, rerr
		}
		defer func() {
			bg := context.WithoutCancel(ctx)
			if err != nil || order == nil {
				if relErr := s.Idempotency.Release(bg, storeKey); relErr != nil {
					l.Error("idempotency_release_error", "error", relErr)
				}
				return
			}
			if cerr := s.Idempotency.Complete(bg, storeKey, order.ID.String()); cerr != nil {
				l.Error("idempotency_complete_error", "order_id", order.ID.String(), "error", cerr)
			}
		}()
	}

	if s.Options.VerifyTotals {
		if err := s.verifyTotal(ctx, items, *req.TotalPrice); err != nil {
			return nil, false, err
		}
	}

	now := s.now()
	order = &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Products:        items,
		ShippingAddress: addr,
		TotalPrice:      *req.TotalPrice,
		Status:          models.StatusPending,
		OrderDate:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, false, fmt.Errorf("create order: %w", err)
	}

	events.Publish(ctx, s.Events, events.TopicOrder, order.ID.String(), map[string]any{
		"type":       "order_created",
		"orderID":    order.ID.String(),
		"userID":     userID.String(),
		"totalPrice": order.TotalPrice,
		"items":      len(order.Products),
	})

	l.Info("order_created", "order_id", order.ID.String())
	return order, false, nil
}

// replay reserves storeKey. It returns the finished order when the key was
// already used, or nil when this call owns the key now.
func (s *OrderService) replay(ctx context.Context, storeKey string) (*models.Order, error) {
	id, err := s.Idempotency.Reserve(ctx, storeKey)
	if errors.Is(err, idempotency.ErrInProgress) {
		return nil, ErrCheckoutInProgress
	}
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}

	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("stored order id %q: %w", id, err)
	}
	order, err := s.Repo.GetOrder(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		// the recorded order is gone; start over under the same key
		if err := s.Idempotency.Release(ctx, storeKey); err != nil {
			return nil, err
		}
		return s.replay(ctx, storeKey)
	}
	return order, err
}

// UpdateStatus overwrites the status of an order unconditionally.
func (s *OrderService) UpdateStatus(ctx context.Context, req transport.UpdateStatusRequest) (*models.Order, error) {
	status := models.Status(strings.TrimSpace(req.Status))
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	id, err := uuid.Parse(strings.TrimSpace(req.OrderID))
	if err != nil {
		return nil, ErrOrderNotFound
	}

	order, err := s.Repo.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	events.Publish(ctx, s.Events, events.TopicOrder, order.ID.String(), map[string]any{
		"type":    "order_status_updated",
		"orderID": order.ID.String(),
		"status":  string(order.Status),
	})
	return order, nil
}

func (s *OrderService) MyOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders, err := s.Repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(orders) == 0 && s.Options.EmptyAsNotFound {
		return nil, ErrNoOrders
	}
	return orders, nil
}

func (s *OrderService) AllOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.Repo.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(orders) == 0 && s.Options.EmptyAsNotFound {
		return nil, ErrNoOrders
	}
	return orders, nil
}

// OrderByID returns an order visible to caller: its owner or any admin.
func (s *OrderService) OrderByID(ctx context.Context, caller *authmw.Principal, rawID string) (*models.Order, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, ErrOrderNotFound
	}
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.UserID != caller.ID && !caller.IsAdmin {
		return nil, ErrAccessDenied
	}
	return order, nil
}
