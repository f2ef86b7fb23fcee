package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-chipstore/internal/apperr"
	"github.com/ariefcatur/go-chipstore/internal/catalog"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProductsHandler struct {
	Catalog CatalogService
	Logger  *zap.Logger
}

// productView adds the derived properties clients render.
type productView struct {
	catalog.Product
	InStock          bool `json:"inStock"`
	Stock            int  `json:"stock"`
	TotalWeightGrams *int `json:"totalWeightGrams,omitempty"`
}

func viewOf(p catalog.Product) productView {
	v := productView{Product: p, InStock: p.InStock(), Stock: p.Stock()}
	if w, ok := p.TotalWeightGrams(); ok {
		v.TotalWeightGrams = &w
	}
	return v
}

func viewsOf(ps []catalog.Product) []productView {
	out := make([]productView, 0, len(ps))
	for _, p := range ps {
		out = append(out, viewOf(p))
	}
	return out
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/categories", h.categories)
	r.Get("/{id}", h.get)
}

func parseFilter(r *http.Request) (catalog.Filter, error) {
	q := r.URL.Query()
	f := catalog.Filter{
		Search:     strings.TrimSpace(q.Get("search")),
		Category:   strings.TrimSpace(q.Get("category")),
		Featured:   q.Get("featured") == "true",
		Bestseller: q.Get("bestseller") == "true",
		Sort:       catalog.ParseSort(q.Get("sort")),
	}
	for name, dst := range map[string]**float64{"minPrice": &f.MinPrice, "maxPrice": &f.MaxPrice} {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, apperr.Invalid("invalid price filter", map[string]string{name: name + " must be a number"})
		}
		*dst = &v
	}
	return f, nil
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	ps, err := h.Catalog.ListProducts(r.Context(), f)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewsOf(ps))
}

func (h *ProductsHandler) categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Categories)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(*p))
}
