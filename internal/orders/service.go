package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ariefcatur/go-chipstore/internal/apperr"
	"github.com/ariefcatur/go-chipstore/internal/logx"
	"github.com/ariefcatur/go-chipstore/internal/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("orders")

type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByEmail(ctx context.Context, email string) ([]Order, error)
	SetStatus(ctx context.Context, id string, to Status) (*Order, error)
	CompareAndSetStatus(ctx context.Context, id string, from, to Status) (*Order, error)
	MarkEmailSent(ctx context.Context, id string) error
	Stats(ctx context.Context, recent int) (Stats, error)
}

var _ Repository = (*Repo)(nil)

// Notifier delivers the order confirmation. It reports success and never panics.
type Notifier interface {
	Notify(ctx context.Context, o *Order) bool
}

type Options struct {
	CancelWindow    time.Duration
	DispatchTimeout time.Duration
	QueueSize       int
	Now             func() time.Time
}

type Service struct {
	repo     Repository
	notifier Notifier
	logger   *zap.Logger
	metrics  *telemetry.Metrics
	validate *validator.Validate

	now             func() time.Time
	cancelWindow    time.Duration
	dispatchTimeout time.Duration

	// confirmation worker, lihat confirmations.go
	inbox   chan Order
	closeCh chan struct{}
	mu      sync.RWMutex
	closed  bool
	once    sync.Once
}

func NewService(repo Repository, notifier Notifier, logger *zap.Logger, metrics *telemetry.Metrics, opts Options) *Service {
	if opts.CancelWindow <= 0 {
		opts.CancelWindow = 24 * time.Hour
	}
	if opts.DispatchTimeout <= 0 {
		opts.DispatchTimeout = 30 * time.Second
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		repo:            repo,
		notifier:        notifier,
		logger:          logger,
		metrics:         metrics,
		validate:        apperr.NewValidator(),
		now:             opts.Now,
		cancelWindow:    opts.CancelWindow,
		dispatchTimeout: opts.DispatchTimeout,
		inbox:           make(chan Order, opts.QueueSize),
		closeCh:         make(chan struct{}),
	}
}

// Create validates and persists a new pending order, then queues its confirmation.
// The returned order is the persisted state; emailSent flips later, off the request path.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.Create")
	defer span.End()

	req.trim()
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.FromValidation("all fields are required", err)
	}
	if i := req.invalidItem(); i >= 0 {
		return nil, apperr.Invalid("invalid order item", map[string]string{
			fmt.Sprintf("items[%d]", i): "productId is required and quantity must be a whole number",
		})
	}

	o := req.toOrder()
	if err := s.repo.Create(ctx, &o); err != nil {
		logx.Error(ctx, s.logger, "save order failed", zap.String("email", o.Email), zap.Error(err))
		return nil, apperr.Internal("failed to save order", err)
	}
	span.SetAttributes(attribute.String("order.id", o.ID))
	s.metrics.OrderCreated()
	logx.Info(ctx, s.logger, "order created",
		zap.String("order_id", o.ID), zap.Int("items", len(o.Items)), zap.Float64("total", o.TotalAmount))

	s.enqueue(ctx, o)
	return &o, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("order not found")
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.translate(ctx, "load order", id, err)
	}
	return o, nil
}

func (s *Service) List(ctx context.Context) ([]Order, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		logx.Error(ctx, s.logger, "list orders failed", zap.Error(err))
		return nil, apperr.Internal("failed to load orders", err)
	}
	return out, nil
}

func (s *Service) ListByCustomer(ctx context.Context, email string) ([]Order, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.InvalidArgument("email is required")
	}
	out, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		logx.Error(ctx, s.logger, "list customer orders failed", zap.Error(err))
		return nil, apperr.Internal("failed to load orders", err)
	}
	return out, nil
}

func parseStatus(raw string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !st.Valid() {
		return "", apperr.InvalidArgument("valid status is required")
	}
	return st, nil
}

// UpdateStatus is the admin override: any enum value, no graph check.
func (s *Service) UpdateStatus(ctx context.Context, id, raw string) (*Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id))

	st, err := parseStatus(raw)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("order not found")
	}
	o, err := s.repo.SetStatus(ctx, id, st)
	if err != nil {
		return nil, s.translate(ctx, "update order status", id, err)
	}
	s.metrics.StatusChanged(string(st))
	logx.Info(ctx, s.logger, "order status overridden", zap.String("order_id", id), zap.String("status", string(st)))
	return o, nil
}

// Transition moves the order along the status graph only.
func (s *Service) Transition(ctx context.Context, id, raw string) (*Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.Transition")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id))

	to, err := parseStatus(raw)
	if err != nil {
		return nil, err
	}
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(cur.Status, to) {
		return nil, apperr.Conflict(fmt.Sprintf("cannot move order from %s to %s", cur.Status, to))
	}
	o, err := s.repo.CompareAndSetStatus(ctx, id, cur.Status, to)
	if err != nil {
		return nil, s.translate(ctx, "transition order", id, err)
	}
	s.metrics.StatusChanged(string(to))
	logx.Info(ctx, s.logger, "order transitioned",
		zap.String("order_id", id), zap.String("from", string(cur.Status)), zap.String("to", string(to)))
	return o, nil
}

// Cancel is the customer action: allowed inside the cancel window and before the order is final.
func (s *Service) Cancel(ctx context.Context, id string) (*Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id))

	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status.Terminal() {
		return nil, apperr.Conflict(fmt.Sprintf("order cannot be cancelled as it is already %s", cur.Status))
	}
	if s.now().Sub(cur.CreatedAt) > s.cancelWindow {
		return nil, apperr.Conflict(fmt.Sprintf("order cannot be cancelled after %s", humanWindow(s.cancelWindow)))
	}
	o, err := s.repo.CompareAndSetStatus(ctx, id, cur.Status, StatusCancelled)
	if err != nil {
		return nil, s.translate(ctx, "cancel order", id, err)
	}
	s.metrics.StatusChanged(string(StatusCancelled))
	logx.Info(ctx, s.logger, "order cancelled", zap.String("order_id", id))
	return o, nil
}

// ResendConfirmation dispatches synchronously. Already-sent orders are a successful no-op.
func (s *Service) ResendConfirmation(ctx context.Context, id string) (bool, error) {
	ctx, span := tracer.Start(ctx, "OrderService.ResendConfirmation")
	defer span.End()

	o, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if o.EmailSent {
		return true, nil
	}
	return s.confirm(ctx, *o), nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	st, err := s.repo.Stats(ctx, 5)
	if err != nil {
		logx.Error(ctx, s.logger, "order stats failed", zap.Error(err))
		return Stats{}, apperr.Internal("failed to load stats", err)
	}
	return st, nil
}

func (s *Service) translate(ctx context.Context, op, id string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("order not found")
	case errors.Is(err, ErrStatusChanged):
		return apperr.Conflict("order status changed, retry")
	}
	logx.Error(ctx, s.logger, op+" failed", zap.String("order_id", id), zap.Error(err))
	return apperr.Internal("failed to "+op, err)
}

func humanWindow(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	return d.String()
}
