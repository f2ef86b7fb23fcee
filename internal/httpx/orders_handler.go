package httpx

import (
	"net/http"
	"strings"

	"github.com/ariefcatur/go-chipstore/internal/logx"
	"github.com/ariefcatur/go-chipstore/internal/orders"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const IdempotencyHeader = "Idempotency-Key"

type OrdersHandler struct {
	Orders      OrderService
	Idempotency IdempotencyStore
	Logger      *zap.Logger
}

type orderPlaced struct {
	Message string        `json:"message"`
	OrderID string        `json:"orderId"`
	Order   *orders.Order `json:"order"`
}

func placed(o *orders.Order) orderPlaced {
	return orderPlaced{Message: "Order placed successfully!", OrderID: o.ID, Order: o}
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/", h.createOrder)
	r.Get("/user/{email}", h.listByCustomer)
	r.Get("/{id}", h.getOrder)
	r.Put("/{id}/cancel", h.cancel)
	r.Post("/{id}/send-email", h.sendEmail)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idemKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))

	// Fast-path idempotency via Redis; DB tetap jadi kebenaran
	if idemKey != "" && h.Idempotency != nil {
		if id, ok, err := h.Idempotency.Lookup(ctx, idemKey); err != nil {
			logx.Warn(ctx, h.Logger, "idempotency lookup failed", zap.Error(err))
		} else if ok {
			if o, err := h.Orders.Get(ctx, id); err == nil {
				writeJSON(w, http.StatusOK, placed(o))
				return
			}
		}
	}

	var req orders.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	o, err := h.Orders.Create(ctx, req)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	if idemKey != "" && h.Idempotency != nil {
		if err := h.Idempotency.Remember(ctx, idemKey, o.ID); err != nil {
			logx.Warn(ctx, h.Logger, "idempotency remember failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusCreated, placed(o))
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listByCustomer(w http.ResponseWriter, r *http.Request) {
	list, err := h.Orders.ListByCustomer(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Order cancelled successfully", "order": o})
}

func (h *OrdersHandler) sendEmail(w http.ResponseWriter, r *http.Request) {
	sent, err := h.Orders.ResendConfirmation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	msg := "Order confirmation email sent"
	if !sent {
		msg = "Failed to send order confirmation email"
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": sent, "message": msg})
}

// updateStatus is the admin override: any valid status, no transition check.
func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	o, err := h.Orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	o, err := h.Orders.Transition(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
