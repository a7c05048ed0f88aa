package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Skotchmaster/snapcart/services/order/internal/models"
)

var ErrNotFound = errors.New("order not found")

// Repository is the order ledger. Lists are newest orderDate first.
type Repository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Order, error)

	// Revenue sums totalPrice over every order and reports how many were summed.
	Revenue(ctx context.Context) (float64, int64, error)
	StatusCounts(ctx context.Context) (map[models.Status]int64, error)
}
