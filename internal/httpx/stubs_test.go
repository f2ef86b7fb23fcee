package httpx

import (
	"context"
	"sync"

	"github.com/ariefcatur/go-chipstore/internal/apperr"
	"github.com/ariefcatur/go-chipstore/internal/catalog"
	"github.com/ariefcatur/go-chipstore/internal/orders"
	"github.com/ariefcatur/go-chipstore/internal/reviews"
	"github.com/google/uuid"
)

type stubCatalog struct {
	products   []catalog.Product
	lastFilter catalog.Filter
}

func (s *stubCatalog) ListProducts(_ context.Context, f catalog.Filter) ([]catalog.Product, error) {
	s.lastFilter = f
	return s.products, nil
}

func (s *stubCatalog) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, apperr.NotFound("product not found")
}

func (s *stubCatalog) Count(context.Context) (int, error) { return len(s.products), nil }

func (s *stubCatalog) CreateProduct(_ context.Context, in catalog.ProductInput) (*catalog.Product, error) {
	if in.Name == "" || in.Price == nil {
		return nil, apperr.Invalid("invalid product", map[string]string{"name": "name is required"})
	}
	p := catalog.Product{ID: uuid.NewString(), Name: in.Name, Price: *in.Price, Quantity: in.Quantity}
	s.products = append(s.products, p)
	return &p, nil
}

func (s *stubCatalog) UpdateProduct(ctx context.Context, id string, in catalog.ProductInput) (*catalog.Product, error) {
	return s.GetProduct(ctx, id)
}

func (s *stubCatalog) DeleteProduct(ctx context.Context, id string) error {
	_, err := s.GetProduct(ctx, id)
	return err
}

type stubOrders struct {
	mu      sync.Mutex
	orders  map[string]orders.Order
	creates int
}

func newStubOrders() *stubOrders { return &stubOrders{orders: map[string]orders.Order{}} }

func (s *stubOrders) Create(_ context.Context, req orders.CreateOrderRequest) (*orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.CustomerName == "" || req.TotalAmount == nil {
		return nil, apperr.Invalid("all fields are required", map[string]string{"customerName": "customerName is required"})
	}
	s.creates++
	o := orders.Order{
		ID:           uuid.NewString(),
		CustomerName: req.CustomerName,
		Email:        req.Email,
		TotalAmount:  float64(*req.TotalAmount),
		Status:       orders.StatusPending,
	}
	s.orders[o.ID] = o
	return &o, nil
}

func (s *stubOrders) Get(_ context.Context, id string) (*orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NotFound("order not found")
	}
	return &o, nil
}

func (s *stubOrders) List(context.Context) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []orders.Order{}
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out, nil
}

func (s *stubOrders) ListByCustomer(ctx context.Context, _ string) ([]orders.Order, error) {
	return s.List(ctx)
}

func (s *stubOrders) UpdateStatus(ctx context.Context, id, status string) (*orders.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Status = orders.Status(status)
	return o, nil
}

func (s *stubOrders) Transition(ctx context.Context, id, status string) (*orders.Order, error) {
	return s.UpdateStatus(ctx, id, status)
}

func (s *stubOrders) Cancel(ctx context.Context, id string) (*orders.Order, error) {
	return s.UpdateStatus(ctx, id, string(orders.StatusCancelled))
}

func (s *stubOrders) ResendConfirmation(ctx context.Context, id string) (bool, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

func (s *stubOrders) Stats(context.Context) (orders.Stats, error) {
	return orders.Stats{TotalOrders: 3, PendingOrders: 1, CompletedOrders: 2, TotalRevenue: 150}, nil
}

type stubReviews struct {
	product catalog.Product
	userID  string
}

func (s *stubReviews) Add(_ context.Context, userID string, req reviews.AddRequest) (*reviews.Review, *catalog.Product, error) {
	s.userID = userID
	p := s.product
	p.ReviewCount++
	p.TotalRating += req.Rating
	return &reviews.Review{ID: uuid.NewString(), UserID: userID, ProductID: req.ProductID, Rating: req.Rating}, &p, nil
}

func (s *stubReviews) Edit(_ context.Context, userID, reviewID string, req reviews.EditRequest) (*reviews.Review, *catalog.Product, error) {
	return &reviews.Review{ID: reviewID, UserID: userID, Rating: req.Rating}, &s.product, nil
}

func (s *stubReviews) Remove(context.Context, string, string) (*catalog.Product, error) {
	return &s.product, nil
}

func (s *stubReviews) ListByProduct(context.Context, string) ([]reviews.Review, error) {
	return []reviews.Review{}, nil
}

type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

func (m *memIdempotency) Lookup(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.keys[key]
	return id, ok, nil
}

func (m *memIdempotency) Remember(_ context.Context, key, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = orderID
	return nil
}
