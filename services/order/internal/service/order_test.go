package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/snapcart/pkg/catalogclient"
	pkgdb "github.com/Skotchmaster/snapcart/pkg/db"
	"github.com/Skotchmaster/snapcart/pkg/idempotency"
	authmw "github.com/Skotchmaster/snapcart/pkg/middleware/auth"
	"github.com/Skotchmaster/snapcart/services/order/internal/models"
	"github.com/Skotchmaster/snapcart/services/order/internal/repo"
	"github.com/Skotchmaster/snapcart/services/order/internal/transport"
)

type published struct {
	topic, key, kind string
}

type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{topic: topic, key: key, kind: event.(map[string]any)["type"].(string)})
	return nil
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.kind)
	}
	return out
}

type priceBook struct {
	prices map[uuid.UUID]decimal.Decimal
	calls  int
}

func (p *priceBook) UnitPrice(_ context.Context, id uuid.UUID) (decimal.Decimal, error) {
	p.calls++
	price, ok := p.prices[id]
	if !ok {
		return decimal.Zero, catalogclient.ErrUnknownProduct
	}
	return price, nil
}

// clock advances one minute per reading so orderDate is strictly increasing.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestOrders(t *testing.T) (*OrderService, *recorder) {
	t.Helper()
	db, err := pkgdb.OpenMemory(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	rec := &recorder{}
	c := &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	return &OrderService{
		Repo:    &repo.GormRepo{DB: db},
		Events:  rec,
		Options: Options{TotalTolerance: DefaultTotalTolerance},
		Now:     c.Now,
	}, rec
}

func ptr[T any](v T) *T { return &v }

func address() transport.ShippingAddressRequest {
	return transport.ShippingAddressRequest{
		Address: "221B Baker Street", City: "London", PostalCode: "NW1 6XE", Country: "UK",
	}
}

func cart(total float64, productIDs ...uuid.UUID) transport.CheckoutRequest {
	items := make([]transport.OrderItemRequest, 0, len(productIDs))
	for _, id := range productIDs {
		items = append(items, transport.OrderItemRequest{ProductID: id.String(), Quantity: ptr(1)})
	}
	return transport.CheckoutRequest{Products: items, ShippingAddress: address(), TotalPrice: ptr(total)}
}

func TestCheckout_CreatesPendingOrderForCaller(t *testing.T) {
	svc, rec := newTestOrders(t)
	ctx := context.Background()
	user := uuid.New()

	req := cart(30, uuid.New(), uuid.New())
	req.Products[1].Quantity = nil
	req.ShippingAddress.City = "  London  "

	order, replayed, err := svc.Checkout(ctx, user, req, "")
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, user, order.UserID)
	assert.Equal(t, "London", order.ShippingAddress.City)
	assert.Equal(t, 30.0, order.TotalPrice)
	require.Len(t, order.Products, 2)
	assert.Equal(t, 1, order.Products[1].Quantity)
	assert.Equal(t, order.OrderDate, order.CreatedAt)

	stored, err := svc.Repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Products[0].ProductID, stored.Products[0].ProductID)

	require.Len(t, rec.events, 1)
	assert.Equal(t, published{topic: "order_events", key: order.ID.String(), kind: "order_created"}, rec.events[0])
}

func TestCheckout_ValidationOrder(t *testing.T) {
	svc, _ := newTestOrders(t)
	ctx := context.Background()

	badAddress := transport.ShippingAddressRequest{Address: "x", City: " ", PostalCode: "1", Country: "US"}

	cases := []struct {
		name string
		req  transport.CheckoutRequest
		want error
	}{
		{
			name: "empty cart wins over everything",
			req:  transport.CheckoutRequest{ShippingAddress: badAddress},
			want: ErrEmptyCart,
		},
		{
			name: "malformed product id before address",
			req: transport.CheckoutRequest{
				Products:        []transport.OrderItemRequest{{ProductID: "abc"}},
				ShippingAddress: badAddress,
			},
			want: ErrInvalidItem,
		},
		{
			name: "nil product id",
			req: transport.CheckoutRequest{
				Products:        []transport.OrderItemRequest{{ProductID: uuid.Nil.String()}},
				ShippingAddress: address(),
				TotalPrice:      ptr(1.0),
			},
			want: ErrInvalidItem,
		},
		{
			name: "negative quantity",
			req: transport.CheckoutRequest{
				Products:        []transport.OrderItemRequest{{ProductID: uuid.NewString(), Quantity: ptr(-2)}},
				ShippingAddress: address(),
				TotalPrice:      ptr(1.0),
			},
			want: ErrInvalidItem,
		},
		{
			name: "address before total",
			req: transport.CheckoutRequest{
				Products:        []transport.OrderItemRequest{{ProductID: uuid.NewString()}},
				ShippingAddress: badAddress,
			},
			want: ErrIncompleteAddress,
		},
		{
			name: "absent total",
			req: transport.CheckoutRequest{
				Products:        []transport.OrderItemRequest{{ProductID: uuid.NewString()}},
				ShippingAddress: address(),
			},
			want: ErrInvalidTotal,
		},
		{
			name: "zero total",
			req:  cart(0, uuid.New()),
			want: ErrInvalidTotal,
		},
		{
			name: "negative total",
			req:  cart(-5, uuid.New()),
			want: ErrInvalidTotal,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Checkout(ctx, uuid.New(), tc.req, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	orders, err := svc.AllOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestRevenueAndBreakdown(t *testing.T) {
	svc, _ := newTestOrders(t)
	ctx := context.Background()

	_, _, err := svc.Checkout(ctx, uuid.New(), cart(100, uuid.New()), "")
	require.NoError(t, err)
	second, _, err := svc.Checkout(ctx, uuid.New(), cart(50, uuid.New()), "")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, transport.UpdateStatusRequest{OrderID: second.ID.String(), Status: "Delivered"})
	require.NoError(t, err)

	revenue, err := svc.Revenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150.0, revenue)

	breakdown, err := svc.StatusBreakdown(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.Status]int64{models.StatusPending: 1, models.StatusDelivered: 1}, breakdown)

	all, err := svc.AllOrders(ctx)
	require.NoError(t, err)
	var total int64
	for _, n := range breakdown {
		total += n
	}
	assert.Equal(t, int64(len(all)), total)
}

func TestEmptyLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("normalized", func(t *testing.T) {
		svc, _ := newTestOrders(t)

		orders, err := svc.AllOrders(ctx)
		require.NoError(t, err)
		assert.NotNil(t, orders)
		assert.Empty(t, orders)

		mine, err := svc.MyOrders(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, mine)

		revenue, err := svc.Revenue(ctx)
		require.NoError(t, err)
		assert.Zero(t, revenue)

		breakdown, err := svc.StatusBreakdown(ctx)
		require.NoError(t, err)
		assert.Empty(t, breakdown)
	})

	t.Run("as not found", func(t *testing.T) {
		svc, _ := newTestOrders(t)
		svc.Options.EmptyAsNotFound = true

		_, err := svc.AllOrders(ctx)
		assert.ErrorIs(t, err, ErrNoOrders)
		_, err = svc.MyOrders(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNoOrders)
		_, err = svc.Revenue(ctx)
		assert.ErrorIs(t, err, ErrNoRevenue)
		_, err = svc.StatusBreakdown(ctx)
		assert.ErrorIs(t, err, ErrNoStatus)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateStatus(t *testing.T) {
	svc, rec := newTestOrders(t)
	ctx := context.Background()

	order, _, err := svc.Checkout(ctx, uuid.New(), cart(12, uuid.New()), "")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, transport.UpdateStatusRequest{OrderID: "not-a-uuid", Status: "Lost"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, transport.UpdateStatusRequest{OrderID: "not-a-uuid", Status: "Shipped"})
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.UpdateStatus(ctx, transport.UpdateStatusRequest{OrderID: uuid.NewString(), Status: "Shipped"})
	assert.ErrorIs(t, err, ErrOrderNotFound)

	updated, err := svc.UpdateStatus(ctx, transport.UpdateStatusRequest{OrderID: order.ID.String(), Status: "Delivered"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, updated.Status)

	// transitions are not ordered
	back, err := svc.UpdateStatus(ctx, transport.UpdateStatusRequest{OrderID: order.ID.String(), Status: "Pending"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, back.Status)

	assert.Equal(t, []string{"order_created", "order_status_updated", "order_status_updated"}, rec.kinds())
}

func TestRetrieval(t *testing.T) {
	svc, _ := newTestOrders(t)
	ctx := context.Background()

	owner := &authmw.Principal{ID: uuid.New(), Name: "Owner"}
	stranger := &authmw.Principal{ID: uuid.New(), Name: "Stranger"}
	admin := &authmw.Principal{ID: uuid.New(), Name: "Admin", IsAdmin: true}

	first, _, err := svc.Checkout(ctx, owner.ID, cart(10, uuid.New()), "")
	require.NoError(t, err)
	second, _, err := svc.Checkout(ctx, owner.ID, cart(20, uuid.New()), "")
	require.NoError(t, err)
	_, _, err = svc.Checkout(ctx, stranger.ID, cart(30, uuid.New()), "")
	require.NoError(t, err)

	mine, err := svc.MyOrders(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	all, err := svc.AllOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := svc.OrderByID(ctx, owner, first.ID.String())
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	got, err = svc.OrderByID(ctx, admin, first.ID.String())
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = svc.OrderByID(ctx, stranger, first.ID.String())
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.OrderByID(ctx, admin, "bogus")
	assert.ErrorIs(t, err, ErrOrderNotFound)
	_, err = svc.OrderByID(ctx, admin, uuid.NewString())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCheckout_Idempotency(t *testing.T) {
	svc, rec := newTestOrders(t)
	store := idempotency.NewMemory(time.Hour)
	svc.Idempotency = store
	ctx := context.Background()
	user := uuid.New()

	first, replayed, err := svc.Checkout(ctx, user, cart(15, uuid.New()), "key-1")
	require.NoError(t, err)
	assert.False(t, replayed)

	again, replayed, err := svc.Checkout(ctx, user, cart(15, uuid.New()), "key-1")
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, again.ID)

	other, replayed, err := svc.Checkout(ctx, uuid.New(), cart(15, uuid.New()), "key-1")
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotEqual(t, first.ID, other.ID)

	_, err = store.Reserve(ctx, "checkout:"+user.String()+":key-2")
	require.NoError(t, err)
	_, _, err = svc.Checkout(ctx, user, cart(15, uuid.New()), "key-2")
	assert.ErrorIs(t, err, ErrCheckoutInProgress)
	assert.ErrorIs(t, err, ErrConflict)

	all, err := svc.AllOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, []string{"order_created", "order_created"}, rec.kinds())
}

func TestCheckout_FailedCheckoutReleasesKey(t *testing.T) {
	svc, _ := newTestOrders(t)
	svc.Idempotency = idempotency.NewMemory(time.Hour)
	product := uuid.New()
	svc.Prices = &priceBook{prices: map[uuid.UUID]decimal.Decimal{product: decimal.RequireFromString("9.99")}}
	svc.Options.VerifyTotals = true
	ctx := context.Background()
	user := uuid.New()

	var err error
	require.NotPanics(t, func() {
		_, _, err = svc.Checkout(ctx, user, cart(1, product), "retry-me")
	})
	require.ErrorIs(t, err, ErrTotalMismatch)

	_, _, err = svc.Checkout(ctx, user, cart(10, uuid.New()), "retry-me")
	require.ErrorIs(t, err, ErrInvalidItem)

	order, replayed, err := svc.Checkout(ctx, user, cart(9.99, product), "retry-me")
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, 9.99, order.TotalPrice)
}

type unavailableLedger struct {
	repo.Repository
}

func (unavailableLedger) CreateOrder(context.Context, *models.Order) error {
	return errors.New("connection reset by peer")
}

func TestCheckout_PersistenceFailureReleasesKey(t *testing.T) {
	svc, rec := newTestOrders(t)
	store := idempotency.NewMemory(time.Hour)
	svc.Idempotency = store
	healthy := svc.Repo
	svc.Repo = unavailableLedger{Repository: healthy}
	ctx := context.Background()
	user := uuid.New()

	var (
		order *models.Order
		err   error
	)
	require.NotPanics(t, func() {
		order, _, err = svc.Checkout(ctx, user, cart(10, uuid.New()), "k")
	})
	require.Error(t, err)
	assert.Nil(t, order)
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "connection reset by peer")
	assert.Empty(t, rec.kinds())

	id, err := store.Reserve(ctx, "checkout:"+user.String()+":k")
	require.NoError(t, err, "key must be free again")
	assert.Empty(t, id)
	require.NoError(t, store.Release(ctx, "checkout:"+user.String()+":k"))

	svc.Repo = healthy
	order, replayed, err := svc.Checkout(ctx, user, cart(10, uuid.New()), "k")
	require.NoError(t, err)
	assert.False(t, replayed)

	again, replayed, err := svc.Checkout(ctx, user, cart(10, uuid.New()), "k")
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, order.ID, again.ID)
}

func TestCheckout_TotalVerification(t *testing.T) {
	mug, tee := uuid.New(), uuid.New()
	book := &priceBook{prices: map[uuid.UUID]decimal.Decimal{
		mug: decimal.RequireFromString("19.99"),
		tee: decimal.RequireFromString("5.00"),
	}}

	svc, _ := newTestOrders(t)
	svc.Prices = book
	svc.Options.VerifyTotals = true
	ctx := context.Background()

	req := func(total float64) transport.CheckoutRequest {
		return transport.CheckoutRequest{
			Products: []transport.OrderItemRequest{
				{ProductID: mug.String(), Quantity: ptr(2)},
				{ProductID: tee.String()},
				{ProductID: mug.String(), Quantity: ptr(1)},
			},
			ShippingAddress: address(),
			TotalPrice:      ptr(total),
		}
	}

	_, _, err := svc.Checkout(ctx, uuid.New(), req(64.97), "")
	require.NoError(t, err)
	assert.Equal(t, 2, book.calls, "prices are looked up once per product")

	_, _, err = svc.Checkout(ctx, uuid.New(), req(64.98), "")
	require.NoError(t, err, "within tolerance")

	_, _, err = svc.Checkout(ctx, uuid.New(), req(60), "")
	assert.ErrorIs(t, err, ErrTotalMismatch)
	assert.Contains(t, err.Error(), "64.97")

	_, _, err = svc.Checkout(ctx, uuid.New(), cart(10, uuid.New()), "")
	assert.ErrorIs(t, err, ErrInvalidItem)

	svc.Prices = nil
	_, _, err = svc.Checkout(ctx, uuid.New(), req(64.97), "")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrValidation))
}
