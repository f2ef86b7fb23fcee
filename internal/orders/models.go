package orders

import "time"

// LineItem is a snapshot of the product at order time; later catalog edits do not change it.
type LineItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"imageURL"`
}

type Order struct {
	ID             string         `json:"id"`
	CustomerName   string         `json:"customerName"`
	Email          string         `json:"email"`
	Address        string         `json:"address"`
	Phone          string         `json:"phone"`
	PaymentMethod  PaymentMethod  `json:"paymentMethod"`
	Items          []LineItem     `json:"items"`
	Subtotal       float64        `json:"subtotal"`
	Tax            float64        `json:"tax"`
	TotalAmount    float64        `json:"totalAmount"`
	Status         Status         `json:"status"` // lihat status.go
	PaymentStatus  PaymentStatus  `json:"paymentStatus"`
	PaymentDetails map[string]any `json:"paymentDetails"`
	EmailSent      bool           `json:"emailSent"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// TransactionID is the payment gateway reference for online payments, if the client sent one.
func (o Order) TransactionID() string {
	for _, k := range []string{"transactionId", "transaction_id", "paymentId"} {
		if v, ok := o.PaymentDetails[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

type Stats struct {
	TotalOrders     int     `json:"totalOrders"`
	PendingOrders   int     `json:"pendingOrders"`
	CompletedOrders int     `json:"completedOrders"`
	TotalRevenue    float64 `json:"totalRevenue"`
	RecentOrders    []Order `json:"recentOrders"`
}
