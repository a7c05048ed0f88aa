package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/snapcart/services/order/internal/models"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newOrder(user uuid.UUID, total float64, at time.Time, products ...uuid.UUID) *models.Order {
	items := make([]models.OrderItem, 0, len(products))
	for i, p := range products {
		items = append(items, models.OrderItem{ProductID: p, Quantity: i + 1})
	}
	return &models.Order{
		ID:       uuid.New(),
		UserID:   user,
		Products: items,
		ShippingAddress: models.ShippingAddress{
			Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
		},
		TotalPrice: total,
		Status:     models.StatusPending,
		OrderDate:  at,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func ids(orders []models.Order) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

// runLedgerContract checks behaviour every Repository backend must share.
func runLedgerContract(t *testing.T, open func(t *testing.T) Repository) {
	t.Run("empty ledger", func(t *testing.T) {
		r := open(t)
		ctx := context.Background()

		revenue, count, err := r.Revenue(ctx)
		require.NoError(t, err)
		assert.Zero(t, revenue)
		assert.Zero(t, count)

		counts, err := r.StatusCounts(ctx)
		require.NoError(t, err)
		assert.Empty(t, counts)

		orders, err := r.ListOrders(ctx)
		require.NoError(t, err)
		assert.NotNil(t, orders)
		assert.Empty(t, orders)
	})

	t.Run("create and get keeps item sequence", func(t *testing.T) {
		r := open(t)
		ctx := context.Background()

		p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()
		o := newOrder(uuid.New(), 42.5, base, p1, p2, p3)
		require.NoError(t, r.CreateOrder(ctx, o))

		got, err := r.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, o.UserID, got.UserID)
		assert.Equal(t, o.ShippingAddress, got.ShippingAddress)
		assert.Equal(t, 42.5, got.TotalPrice)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.True(t, base.Equal(got.OrderDate))

		require.Len(t, got.Products, 3)
		for i, want := range []uuid.UUID{p1, p2, p3} {
			assert.Equal(t, want, got.Products[i].ProductID)
			assert.Equal(t, i+1, got.Products[i].Quantity)
		}

		_, err = r.GetOrder(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("lists newest first", func(t *testing.T) {
		r := open(t)
		ctx := context.Background()

		alice, bob := uuid.New(), uuid.New()
		older := newOrder(alice, 10, base, uuid.New())
		newer := newOrder(alice, 20, base.Add(2*time.Hour), uuid.New())
		other := newOrder(bob, 30, base.Add(time.Hour), uuid.New())
		for _, o := range []*models.Order{older, other, newer} {
			require.NoError(t, r.CreateOrder(ctx, o))
		}

		mine, err := r.ListOrdersByUser(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{newer.ID, older.ID}, ids(mine))
		require.Len(t, mine[0].Products, 1)

		all, err := r.ListOrders(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{newer.ID, other.ID, older.ID}, ids(all))

		none, err := r.ListOrdersByUser(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("status update and aggregates", func(t *testing.T) {
		r := open(t)
		ctx := context.Background()

		a := newOrder(uuid.New(), 100, base, uuid.New())
		b := newOrder(uuid.New(), 50, base.Add(time.Minute), uuid.New())
		c := newOrder(uuid.New(), 25.5, base.Add(2*time.Minute), uuid.New())
		for _, o := range []*models.Order{a, b, c} {
			require.NoError(t, r.CreateOrder(ctx, o))
		}

		updated, err := r.UpdateStatus(ctx, b.ID, models.StatusDelivered)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDelivered, updated.Status)
		assert.Len(t, updated.Products, 1)

		_, err = r.UpdateStatus(ctx, uuid.New(), models.StatusShipped)
		assert.ErrorIs(t, err, ErrNotFound)

		revenue, count, err := r.Revenue(ctx)
		require.NoError(t, err)
		assert.InDelta(t, 175.5, revenue, 1e-9)
		assert.Equal(t, int64(3), count)

		counts, err := r.StatusCounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[models.Status]int64{
			models.StatusPending:   2,
			models.StatusDelivered: 1,
		}, counts)
	})
}
