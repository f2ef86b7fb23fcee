package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-chipstore/internal/catalog"
	"github.com/ariefcatur/go-chipstore/internal/orders"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AdminHandler struct {
	Catalog CatalogService
	Orders  OrderService
	Logger  *zap.Logger
}

type adminStats struct {
	TotalProducts int `json:"totalProducts"`
	orders.Stats
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/stats", h.stats)
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)

	oh := &OrdersHandler{Orders: h.Orders, Logger: h.Logger}
	r.Get("/orders", h.listOrders)
	r.Put("/orders/{id}/status", oh.updateStatus)
	r.Put("/orders/{id}/transition", oh.transition)
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	products, err := h.Catalog.Count(ctx)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	st, err := h.Orders.Stats(ctx)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, adminStats{TotalProducts: products, Stats: st})
}

func (h *AdminHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Catalog.ListProducts(r.Context(), catalog.Filter{Sort: catalog.SortNewest})
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewsOf(ps))
}

func (h *AdminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	p, err := h.Catalog.CreateProduct(r.Context(), in)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(*p))
}

func (h *AdminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	p, err := h.Catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(*p))
}

func (h *AdminHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Orders.List(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
