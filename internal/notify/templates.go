package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/ariefcatur/go-chipstore/internal/orders"
)

var funcs = template.FuncMap{
	"money": money,
	"lineTotal": func(it orders.LineItem) float64 {
		return it.Price * float64(it.Quantity)
	},
}

var (
	orderTmpl = template.Must(template.New("order").Funcs(funcs).Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #333;">
<h2 style="color: #e65100;">{{.Store}}</h2>
<p>Hi {{.Order.CustomerName}},</p>
<p>Thank you for your order! We have received it and will start processing shortly.</p>
<p><strong>Order #:</strong> {{.Order.ID}}<br>
<strong>Invoice #:</strong> {{.Invoice}}<br>
<strong>Payment:</strong> {{.Order.PaymentMethod}}{{with .Order.TransactionID}} (transaction {{.}}){{end}}</p>
<table cellpadding="6" cellspacing="0" border="1" style="border-collapse: collapse;">
<tr><th align="left">Item</th><th>Qty</th><th align="right">Amount</th></tr>
{{range .Order.Items}}<tr><td>{{.Name}}</td><td align="center">{{.Quantity}}</td><td align="right">{{money (lineTotal .)}}</td></tr>
{{end}}</table>
<p>Subtotal: {{money .Order.Subtotal}}<br>
{{.TaxLabel}}: {{money .Order.Tax}}<br>
Delivery: FREE<br>
<strong>Total: {{money .Order.TotalAmount}}</strong></p>
<p>Shipping to: {{.Order.Address}}</p>
{{if .HasInvoice}}<p>Your invoice is attached as a PDF.</p>{{end}}
<p>Orders can be cancelled within 24 hours of placing them.</p>
<p>The {{.Store}} team</p>
</body></html>`))

	otpTmpl = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #333;">
<h2 style="color: #e65100;">{{.Store}}</h2>
<p>Hi {{.Name}},</p>
<p>Use this code to reset your password:</p>
<p style="font-size: 28px; letter-spacing: 6px;"><strong>{{.OTP}}</strong></p>
<p>The code expires in {{.Minutes}} minutes. If you did not ask for a reset, ignore this email.</p>
</body></html>`))

	passwordChangedTmpl = template.Must(template.New("pwd").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #333;">
<h2 style="color: #e65100;">{{.Store}}</h2>
<p>Hi {{.Name}},</p>
<p>Your password was changed successfully. If this wasn't you, contact support immediately.</p>
</body></html>`))
)

func OrderSubject(store string, o *orders.Order) string {
	return fmt.Sprintf("Order Confirmation - %s (Order #%s)", store, o.ID)
}

func renderOrderEmail(store string, o *orders.Order, hasInvoice bool) (string, error) {
	var buf bytes.Buffer
	err := orderTmpl.Execute(&buf, map[string]any{
		"Store":      store,
		"Order":      o,
		"Invoice":    InvoiceNumber(o),
		"TaxLabel":   TaxLabel,
		"HasInvoice": hasInvoice,
	})
	return buf.String(), err
}

func renderTemplate(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	err := t.Execute(&buf, data)
	return buf.String(), err
}
