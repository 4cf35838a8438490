package http

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Remor1s/emerald/internal/cart"
	"github.com/Remor1s/emerald/internal/catalog"
	"github.com/Remor1s/emerald/internal/order"
	"github.com/Remor1s/emerald/internal/payment"
)

type fakeCatalog struct {
	products   []catalog.Product
	listErr    error
	replaced   []catalog.Product
	deletedIDs []int64
}

func (f *fakeCatalog) List(ctx context.Context) ([]catalog.Product, error) {
	return f.products, f.listErr
}

func (f *fakeCatalog) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) Create(ctx context.Context, p *catalog.Product) error {
	if p.ID == 0 {
		p.ID = int64(len(f.products) + 1)
	}
	f.products = append(f.products, *p)
	return nil
}

func (f *fakeCatalog) Update(ctx context.Context, id int64, p *catalog.Product) (*catalog.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			if p.Title != "" {
				f.products[i].Title = p.Title
			}
			if p.Price != 0 {
				f.products[i].Price = p.Price
			}
			return &f.products[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeCatalog) Delete(ctx context.Context, id int64) error {
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

func (f *fakeCatalog) ReplaceAll(ctx context.Context, items []catalog.Product) error {
	f.replaced = items
	f.products = items
	return nil
}

func (f *fakeCatalog) SeedIfEmpty(ctx context.Context, items []catalog.Product) error {
	return nil
}

type fakeOrderRepo struct {
	nextID int64
	byID   map[int64]*order.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{nextID: 1, byID: make(map[int64]*order.Order)}
}

func (f *fakeOrderRepo) orders() map[int64]*order.Order { return f.byID }

func (f *fakeOrderRepo) get(orderID int64) *order.Order { return f.byID[orderID] }

func (f *fakeOrderRepo) Create(ctx context.Context, o *order.Order) error {
	if len(o.Items) == 0 {
		return order.ErrEmptyItems
	}
	o.ID = f.nextID
	f.nextID++
	o.Status = order.StatusCreated
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	f.byID[o.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, orderID int64) (*order.Order, error) {
	o, ok := f.byID[orderID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) SetStatus(ctx context.Context, orderID int64, status order.Status, providerPaymentID *string) (*order.Order, error) {
	o, ok := f.byID[orderID]
	if !ok {
		return nil, nil
	}
	o.Status = status
	if providerPaymentID != nil {
		o.ProviderPaymentID = providerPaymentID
	}
	o.UpdatedAt = time.Now().UTC()
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range f.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

type fakeGateway struct {
	session *payment.Session
	err     error
}

func (f *fakeGateway) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

type nopPublisher struct{}

func (nopPublisher) PublishOrderCreated(context.Context, *order.Order) error { return nil }
func (nopPublisher) PublishOrderPaid(context.Context, *order.Order) error    { return nil }

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testProducts() []catalog.Product {
	return []catalog.Product{
		{ID: 1, SKU: "SKU-001", Title: "Товар 1", Price: 1990, Badges: []string{"NEW"}},
		{ID: 2, SKU: "SKU-002", Title: "Товар 2", Price: 2990, Badges: []string{"HIT"}},
	}
}

type testEnv struct {
	carts    *cart.Store
	products *fakeCatalog
	repo     *fakeOrderRepo
	gateway  *fakeGateway
	svc      *order.Service
}

func newTestEnv() *testEnv {
	env := &testEnv{
		carts:    cart.NewStore(),
		products: &fakeCatalog{products: testProducts()},
		repo:     newFakeOrderRepo(),
		gateway:  &fakeGateway{session: &payment.Session{ProviderID: "pay-1", Status: "pending", ConfirmationURL: "https://pay.example/c"}},
	}
	env.svc = order.NewService(env.carts, env.products, env.repo, env.gateway, nopPublisher{}, testLogger())
	return env
}

func (e *testEnv) addToCart(t *testing.T, userID string, productID int64, qty int) {
	t.Helper()
	_, err := e.carts.Add(context.Background(), userID, productID, qty, func(ctx context.Context, id int64) (int64, error) {
		p, err := e.products.GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, p)
		return p.Price, nil
	})
	require.NoError(t, err)
}
