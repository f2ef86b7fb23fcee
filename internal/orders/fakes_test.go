package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memRepo struct {
	mu         sync.Mutex
	orders     map[string]Order
	created    time.Time
	failCreate error
}

func newMemRepo() *memRepo { return &memRepo{orders: map[string]Order{}} }

func (m *memRepo) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	o.ID = uuid.NewString()
	o.CreatedAt = time.Now()
	if !m.created.IsZero() {
		o.CreatedAt = m.created
	}
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = *o
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *memRepo) sorted(keep func(Order) bool) []Order {
	out := []Order{}
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memRepo) List(context.Context) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(Order) bool { return true }), nil
}

func (m *memRepo) ListByEmail(_ context.Context, email string) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(o Order) bool { return o.Email == email }), nil
}

func (m *memRepo) SetStatus(_ context.Context, id string, to Status) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = to
	m.orders[id] = o
	return &o, nil
}

func (m *memRepo) CompareAndSetStatus(_ context.Context, id string, from, to Status) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return nil, ErrStatusChanged
	}
	o.Status = to
	m.orders[id] = o
	return &o, nil
}

func (m *memRepo) MarkEmailSent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.EmailSent = true
	m.orders[id] = o
	return nil
}

func (m *memRepo) Stats(_ context.Context, recent int) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st Stats
	for _, o := range m.orders {
		st.TotalOrders++
		switch o.Status {
		case StatusPending:
			st.PendingOrders++
		case StatusDelivered:
			st.CompletedOrders++
			st.TotalRevenue += o.TotalAmount
		}
	}
	all := m.sorted(func(Order) bool { return true })
	if len(all) > recent {
		all = all[:recent]
	}
	st.RecentOrders = all
	return st, nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memRepo) put(o Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

type stubNotifier struct {
	mu    sync.Mutex
	ok    bool
	calls []string
}

func (n *stubNotifier) Notify(_ context.Context, o *Order) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, o.ID)
	return n.ok
}

func (n *stubNotifier) callCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

// hangingNotifier blocks until its context expires.
type hangingNotifier struct{}

func (hangingNotifier) Notify(ctx context.Context, _ *Order) bool {
	<-ctx.Done()
	return false
}
