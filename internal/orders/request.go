package orders

import (
	"math"
	"strings"
)

type LineItemRequest struct {
	ProductID string `json:"productId"`
	LegacyID  string `json:"_id"`
	Name      string `json:"name" validate:"required"`
	Price     Number `json:"price" validate:"gte=0"`
	Quantity  Number `json:"quantity" validate:"gte=1,lte=10000"`
	ImageURL  string `json:"imageURL"`
}

type CreateOrderRequest struct {
	CustomerName   string            `json:"customerName" validate:"required"`
	Email          string            `json:"email" validate:"required"`
	Address        string            `json:"address" validate:"required"`
	Phone          string            `json:"phone" validate:"required"`
	PaymentMethod  PaymentMethod     `json:"paymentMethod" validate:"required,oneof=cod online"`
	Items          []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	Subtotal       Number            `json:"subtotal" validate:"gte=0"`
	Tax            Number            `json:"tax" validate:"gte=0"`
	TotalAmount    *Number           `json:"totalAmount" validate:"required,gte=0"`
	PaymentStatus  PaymentStatus     `json:"paymentStatus" validate:"omitempty,oneof=pending completed failed"`
	PaymentDetails map[string]any    `json:"paymentDetails"`
}

// trim normalizes whitespace before validation so "  " counts as missing.
func (r *CreateOrderRequest) trim() {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.Email = strings.TrimSpace(r.Email)
	r.Address = strings.TrimSpace(r.Address)
	r.Phone = strings.TrimSpace(r.Phone)
	r.PaymentMethod = PaymentMethod(strings.ToLower(strings.TrimSpace(string(r.PaymentMethod))))
	r.PaymentStatus = PaymentStatus(strings.ToLower(strings.TrimSpace(string(r.PaymentStatus))))
	for i := range r.Items {
		it := &r.Items[i]
		it.ProductID = strings.TrimSpace(it.ProductID)
		if it.ProductID == "" {
			it.ProductID = strings.TrimSpace(it.LegacyID)
		}
		it.Name = strings.TrimSpace(it.Name)
		it.ImageURL = strings.TrimSpace(it.ImageURL)
	}
}

// invalidItem returns the index of the first item without a product id or with a
// fractional quantity, or -1.
func (r *CreateOrderRequest) invalidItem() int {
	for i, it := range r.Items {
		q := float64(it.Quantity)
		if it.ProductID == "" || q != math.Trunc(q) {
			return i
		}
	}
	return -1
}

func (r *CreateOrderRequest) toOrder() Order {
	items := make([]LineItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     float64(it.Price),
			Quantity:  int(it.Quantity),
			ImageURL:  it.ImageURL,
		})
	}
	ps := r.PaymentStatus
	if ps == "" {
		ps = PaymentPending
	}
	details := r.PaymentDetails
	if details == nil {
		details = map[string]any{}
	}
	return Order{
		CustomerName:   r.CustomerName,
		Email:          r.Email,
		Address:        r.Address,
		Phone:          r.Phone,
		PaymentMethod:  r.PaymentMethod,
		Items:          items,
		Subtotal:       float64(r.Subtotal),
		Tax:            float64(r.Tax),
		TotalAmount:    float64(*r.TotalAmount),
		Status:         StatusPending,
		PaymentStatus:  ps,
		PaymentDetails: details,
	}
}
