package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/snapcart/pkg/catalogclient"
	"github.com/Skotchmaster/snapcart/pkg/logging"
	"github.com/Skotchmaster/snapcart/services/order/internal/models"
)

// PriceBook is satisfied by catalogclient.Client.
type PriceBook interface {
	UnitPrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
}

var DefaultTotalTolerance = decimal.NewFromFloat(0.01)

func (s *OrderService) expectedTotal(ctx context.Context, items []models.OrderItem) (decimal.Decimal, error) {
	if s.Prices == nil {
		return decimal.Zero, errors.New("total verification enabled without a price book")
	}

	prices := make(map[uuid.UUID]decimal.Decimal, len(items))
	sum := decimal.Zero
	for _, it := range items {
		price, ok := prices[it.ProductID]
		if !ok {
			p, err := s.Prices.UnitPrice(ctx, it.ProductID)
			if err != nil {
				if errors.Is(err, catalogclient.ErrUnknownProduct) {
					return decimal.Zero, fmt.Errorf("%w: unknown product %s", ErrInvalidItem, it.ProductID)
				}
				return decimal.Zero, fmt.Errorf("price lookup: %w", err)
			}
			prices[it.ProductID] = p
			price = p
		}
		sum = sum.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum, nil
}

func (s *OrderService) verifyTotal(ctx context.Context, items []models.OrderItem, submitted float64) error {
	expected, err := s.expectedTotal(ctx, items)
	if err != nil {
		return err
	}

	tolerance := s.Options.TotalTolerance
	if tolerance.IsNegative() {
		tolerance = decimal.Zero
	}
	got := decimal.NewFromFloat(submitted)
	if got.Sub(expected).Abs().GreaterThan(tolerance) {
		logging.FromContext(ctx).Warn("total_mismatch",
			"submitted", got.StringFixed(2),
			"expected", expected.StringFixed(2))
		return fmt.Errorf("%w: expected %s", ErrTotalMismatch, expected.StringFixed(2))
	}
	return nil
}
