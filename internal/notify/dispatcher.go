// Package notify renders invoices and delivers customer emails.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-chipstore/internal/logx"
	"github.com/ariefcatur/go-chipstore/internal/orders"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("notify")

type Dispatcher struct {
	renderer  InvoiceRenderer
	mailer    Mailer
	from      string
	storeName string
	timeout   time.Duration
	logger    *zap.Logger
}

func NewDispatcher(renderer InvoiceRenderer, mailer Mailer, from, storeName string, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Dispatcher{
		renderer:  renderer,
		mailer:    mailer,
		from:      from,
		storeName: storeName,
		timeout:   timeout,
		logger:    logger,
	}
}

var _ orders.Notifier = (*Dispatcher)(nil)

// Notify renders the invoice and sends the confirmation within the dispatch timeout.
// A rendering failure still sends the email, without the attachment.
func (d *Dispatcher) Notify(ctx context.Context, o *orders.Order) bool {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	invoice, err := d.Render(ctx, o)
	if err != nil {
		logx.Warn(ctx, d.logger, "invoice render failed, sending without attachment",
			zap.String("order_id", o.ID), zap.Error(err))
		invoice = nil
	}
	return d.Send(ctx, o, invoice)
}

func (d *Dispatcher) Render(ctx context.Context, o *orders.Order) (invoice []byte, err error) {
	ctx, span := tracer.Start(ctx, "Dispatcher.Render")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			invoice, err = nil, fmt.Errorf("invoice renderer panicked: %v", r)
		}
	}()
	return d.renderer.Render(ctx, o)
}

// Send delivers the confirmation email; invoice may be nil.
func (d *Dispatcher) Send(ctx context.Context, o *orders.Order, invoice []byte) bool {
	ctx, span := tracer.Start(ctx, "Dispatcher.Send")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", o.ID), attribute.Bool("invoice.attached", invoice != nil))

	html, err := renderOrderEmail(d.storeName, o, invoice != nil)
	if err != nil {
		logx.Error(ctx, d.logger, "render order email failed", zap.String("order_id", o.ID), zap.Error(err))
		return false
	}
	msg := Message{
		From:    d.fromHeader(),
		To:      o.Email,
		Subject: OrderSubject(d.storeName, o),
		HTML:    html,
	}
	if invoice != nil {
		msg.Attachments = []Attachment{{
			Filename:    InvoiceFilename(d.storeName, o),
			ContentType: "application/pdf",
			Data:        invoice,
		}}
	}
	return d.deliver(ctx, msg, zap.String("order_id", o.ID))
}

// SendResetOTP mails a password reset code.
func (d *Dispatcher) SendResetOTP(ctx context.Context, to, name, otp string, ttl time.Duration) error {
	html, err := renderTemplate(otpTmpl, map[string]any{
		"Store": d.storeName, "Name": name, "OTP": otp, "Minutes": int(ttl.Minutes()),
	})
	if err != nil {
		return err
	}
	if !d.deliver(ctx, Message{
		From: d.fromHeader(), To: to, Subject: "Password Reset OTP - " + d.storeName, HTML: html,
	}) {
		return fmt.Errorf("send reset otp to %s failed", to)
	}
	return nil
}

func (d *Dispatcher) SendPasswordChanged(ctx context.Context, to, name string) error {
	html, err := renderTemplate(passwordChangedTmpl, map[string]any{"Store": d.storeName, "Name": name})
	if err != nil {
		return err
	}
	if !d.deliver(ctx, Message{
		From: d.fromHeader(), To: to, Subject: "Password Changed - " + d.storeName, HTML: html,
	}) {
		return fmt.Errorf("send password changed to %s failed", to)
	}
	return nil
}

func (d *Dispatcher) fromHeader() string {
	return fmt.Sprintf("%q <%s>", d.storeName, d.from)
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message, fields ...zap.Field) bool {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.mailer.Send(ctx, msg); err != nil {
		logx.Error(ctx, d.logger, "email send failed",
			append(fields, zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))...)
		return false
	}
	logx.Info(ctx, d.logger, "email sent", append(fields, zap.String("to", msg.To))...)
	return true
}
