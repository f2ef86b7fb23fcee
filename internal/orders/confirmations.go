package orders

import (
	"context"

	"github.com/ariefcatur/go-chipstore/internal/logx"
	"go.uber.org/zap"
)

// Start runs the confirmation worker. It drains the queue until Close.
func (s *Service) Start(ctx context.Context) {
	go func() {
		defer close(s.closeCh)
		for o := range s.inbox {
			s.confirm(ctx, o)
		}
	}()
}

// Tutup inbox supaya worker nge-flush sisa order lalu exit rapi.
func (s *Service) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.inbox)
		s.mu.Unlock()
	})
}

// Tunggu sampai worker selesai.
func (s *Service) WaitClosed() { <-s.closeCh }

// enqueue never blocks the request: a full or closed queue drops the confirmation,
// which stays retriable through ResendConfirmation.
func (s *Service) enqueue(ctx context.Context, o Order) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.metrics.ConfirmationDropped()
		logx.Warn(ctx, s.logger, "confirmation queue closed, order not notified", zap.String("order_id", o.ID))
		return
	}
	select {
	case s.inbox <- o:
	default:
		s.metrics.ConfirmationDropped()
		logx.Warn(ctx, s.logger, "confirmation queue full, order not notified", zap.String("order_id", o.ID))
	}
}

// confirm sends one confirmation within the dispatch timeout and records emailSent on success.
func (s *Service) confirm(ctx context.Context, o Order) bool {
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "OrderService.confirm")
	defer span.End()

	sendCtx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	ok := s.notifier.Notify(sendCtx, &o)
	cancel()

	s.metrics.Confirmation(ok)
	if !ok {
		logx.Warn(ctx, s.logger, "order confirmation not delivered", zap.String("order_id", o.ID))
		return false
	}

	markCtx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	defer cancel()
	if err := s.repo.MarkEmailSent(markCtx, o.ID); err != nil {
		logx.Error(ctx, s.logger, "mark email sent failed", zap.String("order_id", o.ID), zap.Error(err))
		return false
	}
	logx.Info(ctx, s.logger, "order confirmation sent", zap.String("order_id", o.ID), zap.String("email", o.Email))
	return true
}
