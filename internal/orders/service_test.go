package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ariefcatur/go-chipstore/internal/apperr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

func total(v float64) *Number {
	n := Number(v)
	return &n
}

func validRequest() CreateOrderRequest {
	return CreateOrderRequest{
		CustomerName:  " Asha ",
		Email:         "x@example.com",
		Address:       "12 Main Road",
		Phone:         "9876543210",
		PaymentMethod: PaymentCOD,
		Items: []LineItemRequest{
			{ProductID: uuid.NewString(), Name: "Classic", Price: 45, Quantity: 2},
		},
		Subtotal:    90,
		Tax:         7.2,
		TotalAmount: total(97.2),
	}
}

type OrderServiceSuite struct {
	suite.Suite
	repo     *memRepo
	notifier *stubNotifier
	now      time.Time
	svc      *Service
	ctx      context.Context
}

func (s *OrderServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = newMemRepo()
	s.notifier = &stubNotifier{ok: true}
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.svc = NewService(s.repo, s.notifier, zap.NewNop(), nil, Options{
		Now: func() time.Time { return s.now },
	})
}

func TestOrderService(t *testing.T) {
	suite.Run(t, new(OrderServiceSuite))
}

func (s *OrderServiceSuite) TestCreate_PersistsPendingOrder() {
	o, err := s.svc.Create(s.ctx, validRequest())
	s.Require().NoError(err)

	s.NotEmpty(o.ID)
	s.Equal("Asha", o.CustomerName)
	s.Equal(StatusPending, o.Status)
	s.Equal(PaymentPending, o.PaymentStatus)
	s.False(o.EmailSent)
	s.NotNil(o.PaymentDetails)
	s.Require().Len(o.Items, 1)
	s.Equal(2, o.Items[0].Quantity)
	s.Equal(97.2, o.TotalAmount)
	s.Equal(1, s.repo.count())
}

func (s *OrderServiceSuite) TestCreate_ValidationBeforeWrite() {
	cases := map[string]func(r *CreateOrderRequest){
		"empty items":        func(r *CreateOrderRequest) { r.Items = nil },
		"zero-length items":  func(r *CreateOrderRequest) { r.Items = []LineItemRequest{} },
		"blank name":         func(r *CreateOrderRequest) { r.CustomerName = "   " },
		"missing email":      func(r *CreateOrderRequest) { r.Email = "" },
		"missing address":    func(r *CreateOrderRequest) { r.Address = "" },
		"missing phone":      func(r *CreateOrderRequest) { r.Phone = "" },
		"bad payment method": func(r *CreateOrderRequest) { r.PaymentMethod = "card" },
		"missing total":      func(r *CreateOrderRequest) { r.TotalAmount = nil },
		"negative total":     func(r *CreateOrderRequest) { r.TotalAmount = total(-1) },
		"negative tax":       func(r *CreateOrderRequest) { r.Tax = -1 },
		"zero quantity":      func(r *CreateOrderRequest) { r.Items[0].Quantity = 0 },
		"fractional qty":     func(r *CreateOrderRequest) { r.Items[0].Quantity = 1.5 },
		"huge quantity":      func(r *CreateOrderRequest) { r.Items[0].Quantity = 1e19 },
		"negative price":     func(r *CreateOrderRequest) { r.Items[0].Price = -3 },
		"missing product id": func(r *CreateOrderRequest) { r.Items[0].ProductID = "" },
		"bad payment status": func(r *CreateOrderRequest) { r.PaymentStatus = "refunded" },
	}
	for name, mutate := range cases {
		req := validRequest()
		mutate(&req)
		_, err := s.svc.Create(s.ctx, req)
		s.Equal(apperr.KindInvalidArgument, apperr.KindOf(err), name)
	}
	s.Equal(0, s.repo.count())
}

func (s *OrderServiceSuite) TestCreate_ZeroTotalAllowed() {
	req := validRequest()
	req.TotalAmount = total(0)
	_, err := s.svc.Create(s.ctx, req)
	s.NoError(err)
}

func (s *OrderServiceSuite) TestCreate_LegacyItemID() {
	req := validRequest()
	legacy := uuid.NewString()
	req.Items[0].ProductID = ""
	req.Items[0].LegacyID = legacy

	o, err := s.svc.Create(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(legacy, o.Items[0].ProductID)
}

func (s *OrderServiceSuite) TestCreate_KeepsCallerPaymentStatus() {
	req := validRequest()
	req.PaymentMethod = PaymentOnline
	req.PaymentStatus = PaymentCompleted
	req.PaymentDetails = map[string]any{"transactionId": "pay_123"}

	o, err := s.svc.Create(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(PaymentCompleted, o.PaymentStatus)
	s.Equal("pay_123", o.TransactionID())
}

func (s *OrderServiceSuite) TestCreate_StoreFailureIsInternal() {
	s.repo.failCreate = errors.New("connection reset")
	_, err := s.svc.Create(s.ctx, validRequest())
	s.Equal(apperr.KindInternal, apperr.KindOf(err))
	msg, _ := apperr.Public(err)
	s.NotContains(msg, "connection reset")
}

func (s *OrderServiceSuite) TestConfirmationWorker_MarksEmailSent() {
	s.svc.Start(s.ctx)
	o, err := s.svc.Create(s.ctx, validRequest())
	s.Require().NoError(err)
	s.False(o.EmailSent)

	s.svc.Close()
	s.svc.WaitClosed()

	got, err := s.svc.Get(s.ctx, o.ID)
	s.Require().NoError(err)
	s.True(got.EmailSent)
	s.Equal(1, s.notifier.callCount())
}

func (s *OrderServiceSuite) TestConfirmationWorker_FailureLeavesFlag() {
	s.notifier.ok = false
	s.svc.Start(s.ctx)
	o, err := s.svc.Create(s.ctx, validRequest())
	s.Require().NoError(err)

	s.svc.Close()
	s.svc.WaitClosed()

	got, err := s.svc.Get(s.ctx, o.ID)
	s.Require().NoError(err)
	s.False(got.EmailSent)
	s.Equal(StatusPending, got.Status)
}

func (s *OrderServiceSuite) TestCreate_AfterCloseStillPersists() {
	s.svc.Start(s.ctx)
	s.svc.Close()
	s.svc.WaitClosed()

	o, err := s.svc.Create(s.ctx, validRequest())
	s.Require().NoError(err)
	s.False(o.EmailSent)
	s.Equal(0, s.notifier.callCount())
}

func (s *OrderServiceSuite) TestResendConfirmation() {
	o, err := s.svc.Create(s.ctx, validRequest())
	s.Require().NoError(err)

	s.notifier.ok = false
	ok, err := s.svc.ResendConfirmation(s.ctx, o.ID)
	s.Require().NoError(err)
	s.False(ok)

	s.notifier.ok = true
	ok, err = s.svc.ResendConfirmation(s.ctx, o.ID)
	s.Require().NoError(err)
	s.True(ok)
	calls := s.notifier.callCount()

	ok, err = s.svc.ResendConfirmation(s.ctx, o.ID)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(calls, s.notifier.callCount(), "already sent is a no-op")

	_, err = s.svc.ResendConfirmation(s.ctx, uuid.NewString())
	s.Equal(apperr.KindNotFound, apperr.KindOf(err))
}

func (s *OrderServiceSuite) TestCancel_Window() {
	s.repo.created = s.now.Add(-1 * time.Hour)
	recent, err := s.svc.Create(s.ctx, validRequest())
	s.Require().NoError(err)

	o, err := s.svc.Cancel(s.ctx, recent.ID)
	s.Require().NoError(err)
	s.Equal(StatusCancelled, o.Status)

	s.repo.created = s.now.Add(-25 * time.Hour)
	old, err := s.svc.Create(s.ctx, validRequest())
	s.Require().NoError(err)

	_, err = s.svc.Cancel(s.ctx, old.ID)
	s.Equal(apperr.KindConflict, apperr.KindOf(err))
	got, _ := s.svc.Get(s.ctx, old.ID)
	s.Equal(StatusPending, got.Status)
}

func (s *OrderServiceSuite) TestCancel_TerminalRejected() {
	s.repo.created = s.now.Add(-time.Hour)
	for _, st := range []Status{StatusDelivered, StatusCancelled} {
		o, err := s.svc.Create(s.ctx, validRequest())
		s.Require().NoError(err)
		o.Status = st
		s.repo.put(*o)

		_, err = s.svc.Cancel(s.ctx, o.ID)
		s.Equal(apperr.KindConflict, apperr.KindOf(err), string(st))

		got, _ := s.svc.Get(s.ctx, o.ID)
		s.Equal(st, got.Status)
	}
}

func (s *OrderServiceSuite) TestCancel_NotFound() {
	_, err := s.svc.Cancel(s.ctx, uuid.NewString())
	s.Equal(apperr.KindNotFound, apperr.KindOf(err))

	_, err = s.svc.Cancel(s.ctx, "garbage")
	s.Equal(apperr.KindNotFound, apperr.KindOf(err))
}

func (s *OrderServiceSuite) TestUpdateStatus_Override() {
	o, err := s.svc.Create(s.ctx, validRequest())
	s.Require().NoError(err)

	got, err := s.svc.UpdateStatus(s.ctx, o.ID, "delivered")
	s.Require().NoError(err)
	s.Equal(StatusDelivered, got.Status)

	// override ignores the graph
	got, err = s.svc.UpdateStatus(s.ctx, o.ID, "pending")
	s.Require().NoError(err)
	s.Equal(StatusPending, got.Status)

	_, err = s.svc.UpdateStatus(s.ctx, o.ID, "lost")
	s.Equal(apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = s.svc.UpdateStatus(s.ctx, o.ID, "")
	s.Equal(apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = s.svc.UpdateStatus(s.ctx, uuid.NewString(), "shipped")
	s.Equal(apperr.KindNotFound, apperr.KindOf(err))
}

func (s *OrderServiceSuite) TestTransition_FollowsGraph() {
	o, err := s.svc.Create(s.ctx, validRequest())
	s.Require().NoError(err)

	_, err = s.svc.Transition(s.ctx, o.ID, "shipped")
	s.Equal(apperr.KindConflict, apperr.KindOf(err))

	for _, st := range []string{"processing", "shipped", "delivered"} {
		got, err := s.svc.Transition(s.ctx, o.ID, st)
		s.Require().NoError(err)
		s.Equal(Status(st), got.Status)
	}

	_, err = s.svc.Transition(s.ctx, o.ID, "cancelled")
	s.Equal(apperr.KindConflict, apperr.KindOf(err))
}

func (s *OrderServiceSuite) TestListByCustomer_NewestFirst() {
	for i := 0; i < 3; i++ {
		s.repo.created = s.now.Add(time.Duration(i) * time.Minute)
		_, err := s.svc.Create(s.ctx, validRequest())
		s.Require().NoError(err)
	}
	other := validRequest()
	other.Email = "y@example.com"
	_, err := s.svc.Create(s.ctx, other)
	s.Require().NoError(err)

	list, err := s.svc.ListByCustomer(s.ctx, "x@example.com")
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.True(list[0].CreatedAt.After(list[1].CreatedAt))
	s.True(list[1].CreatedAt.After(list[2].CreatedAt))

	_, err = s.svc.ListByCustomer(s.ctx, " ")
	s.Equal(apperr.KindInvalidArgument, apperr.KindOf(err))
}

func (s *OrderServiceSuite) TestStats() {
	a, _ := s.svc.Create(s.ctx, validRequest())
	_, _ = s.svc.Create(s.ctx, validRequest())
	_, err := s.svc.UpdateStatus(s.ctx, a.ID, "delivered")
	s.Require().NoError(err)

	st, err := s.svc.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, st.TotalOrders)
	s.Equal(1, st.PendingOrders)
	s.Equal(1, st.CompletedOrders)
	s.Equal(97.2, st.TotalRevenue)
	s.Len(st.RecentOrders, 2)
}

func TestService_CloseIsIdempotent(t *testing.T) {
	svc := NewService(newMemRepo(), &stubNotifier{ok: true}, zap.NewNop(), nil, Options{})
	svc.Start(context.Background())
	svc.Close()
	svc.Close()
	svc.WaitClosed()
}

func TestService_FullQueueDropsWithoutBlocking(t *testing.T) {
	repo := newMemRepo()
	n := &stubNotifier{ok: true}
	svc := NewService(repo, n, zap.NewNop(), nil, Options{QueueSize: 1})

	// worker not started: second confirmation has nowhere to go
	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), validRequest())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, repo.count())
	assert.Equal(t, 0, n.callCount())
}

func TestService_HangingNotifierBoundedByDispatchTimeout(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, hangingNotifier{}, zap.NewNop(), nil, Options{DispatchTimeout: 50 * time.Millisecond})
	ctx := context.Background()

	o, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	start := time.Now()
	ok, err := svc.ResendConfirmation(ctx, o.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 2*time.Second)

	svc.Start(ctx)
	svc.Close()
	done := make(chan struct{})
	go func() {
		svc.WaitClosed()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation worker did not give up on a hanging notifier")
	}

	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.False(t, got.EmailSent)
}
