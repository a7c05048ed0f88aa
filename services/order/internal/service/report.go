package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/snapcart/services/order/internal/models"
)

var (
	ErrNoRevenue = fmt.Errorf("%w: No revenue found", ErrNotFound)
	ErrNoStatus  = fmt.Errorf("%w: No order status found", ErrNotFound)
)

// Revenue sums totalPrice over every order regardless of status.
func (s *OrderService) Revenue(ctx context.Context) (float64, error) {
	revenue, count, err := s.Repo.Revenue(ctx)
	if err != nil {
		return 0, fmt.Errorf("revenue: %w", err)
	}
	if count == 0 && s.Options.EmptyAsNotFound {
		return 0, ErrNoRevenue
	}
	return revenue, nil
}

// StatusBreakdown counts orders per status. Only statuses present appear.
func (s *OrderService) StatusBreakdown(ctx context.Context) (map[models.Status]int64, error) {
	counts, err := s.Repo.StatusCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("status breakdown: %w", err)
	}
	if len(counts) == 0 && s.Options.EmptyAsNotFound {
		return nil, ErrNoStatus
	}
	return counts, nil
}
