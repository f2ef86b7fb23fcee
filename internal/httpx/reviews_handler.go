package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-chipstore/internal/reviews"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReviewsHandler struct {
	Reviews ReviewService
	Logger  *zap.Logger
}

func (h *ReviewsHandler) RegisterPublic(r chi.Router) {
	r.Get("/product/{productId}", h.listByProduct)
}

func (h *ReviewsHandler) RegisterUser(r chi.Router) {
	r.Post("/", h.add)
	r.Put("/{id}", h.edit)
	r.Delete("/{id}", h.remove)
}

func (h *ReviewsHandler) listByProduct(w http.ResponseWriter, r *http.Request) {
	list, err := h.Reviews.ListByProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ReviewsHandler) add(w http.ResponseWriter, r *http.Request) {
	var req reviews.AddRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	rv, p, err := h.Reviews.Add(r.Context(), principal(r).ID, req)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"review": rv, "product": viewOf(*p)})
}

func (h *ReviewsHandler) edit(w http.ResponseWriter, r *http.Request) {
	var req reviews.EditRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	rv, p, err := h.Reviews.Edit(r.Context(), principal(r).ID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"review": rv, "product": viewOf(*p)})
}

func (h *ReviewsHandler) remove(w http.ResponseWriter, r *http.Request) {
	p, err := h.Reviews.Remove(r.Context(), principal(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Review deleted", "product": viewOf(*p)})
}
