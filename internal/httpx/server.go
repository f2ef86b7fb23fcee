// Package httpx is the REST surface: routing, auth middleware and JSON handlers over the services.
package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-chipstore/internal/auth"
	"github.com/ariefcatur/go-chipstore/internal/catalog"
	"github.com/ariefcatur/go-chipstore/internal/orders"
	"github.com/ariefcatur/go-chipstore/internal/reviews"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type CatalogService interface {
	ListProducts(ctx context.Context, f catalog.Filter) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	Count(ctx context.Context) (int, error)
	CreateProduct(ctx context.Context, in catalog.ProductInput) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, id string, in catalog.ProductInput) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type OrderService interface {
	Create(ctx context.Context, req orders.CreateOrderRequest) (*orders.Order, error)
	Get(ctx context.Context, id string) (*orders.Order, error)
	List(ctx context.Context) ([]orders.Order, error)
	ListByCustomer(ctx context.Context, email string) ([]orders.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*orders.Order, error)
	Transition(ctx context.Context, id, status string) (*orders.Order, error)
	Cancel(ctx context.Context, id string) (*orders.Order, error)
	ResendConfirmation(ctx context.Context, id string) (bool, error)
	Stats(ctx context.Context) (orders.Stats, error)
}

type ReviewService interface {
	Add(ctx context.Context, userID string, req reviews.AddRequest) (*reviews.Review, *catalog.Product, error)
	Edit(ctx context.Context, userID, reviewID string, req reviews.EditRequest) (*reviews.Review, *catalog.Product, error)
	Remove(ctx context.Context, userID, reviewID string) (*catalog.Product, error)
	ListByProduct(ctx context.Context, productID string) ([]reviews.Review, error)
}

type AccountService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.Session, error)
	Login(ctx context.Context, req auth.LoginRequest) (*auth.Session, error)
	AdminLogin(ctx context.Context, req auth.AdminLoginRequest) (*auth.Session, error)
	Profile(ctx context.Context, userID string) (*auth.User, error)
	UpdateProfile(ctx context.Context, userID string, upd auth.ProfileUpdate) (*auth.User, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp string) (string, error)
	ResetPassword(ctx context.Context, token, password string) error
	ToggleWishlist(ctx context.Context, userID, productID string) (bool, []catalog.Product, error)
	Wishlist(ctx context.Context, userID string) ([]catalog.Product, error)
}

// IdempotencyStore remembers which order an Idempotency-Key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Remember(ctx context.Context, key, orderID string) error
}

type Deps struct {
	Logger      *zap.Logger
	Catalog     CatalogService
	Orders      OrderService
	Reviews     ReviewService
	Accounts    AccountService
	Idempotency IdempotencyStore // optional

	// Users resolves bearer tokens; Admins is the admin-key / admin token chain.
	Users  auth.Authorizer
	Admins auth.Authorizer

	ServiceName    string
	RequestTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 15 * time.Second
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, accessLog(d.Logger), middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	userAuth := requireAuth(d.Users, d.Logger)
	adminAuth := requireAuth(d.Admins, d.Logger)

	ph := &ProductsHandler{Catalog: d.Catalog, Logger: d.Logger}
	oh := &OrdersHandler{Orders: d.Orders, Idempotency: d.Idempotency, Logger: d.Logger}
	rh := &ReviewsHandler{Reviews: d.Reviews, Logger: d.Logger}
	ah := &AuthHandler{Accounts: d.Accounts, Logger: d.Logger}
	adm := &AdminHandler{Catalog: d.Catalog, Orders: d.Orders, Logger: d.Logger}

	r.Route("/products", ph.Register)
	r.Route("/orders", func(r chi.Router) {
		oh.Register(r)
		r.With(adminAuth).Put("/{id}/status", oh.updateStatus)
	})
	r.Route("/reviews", func(r chi.Router) {
		rh.RegisterPublic(r)
		r.Group(func(r chi.Router) {
			r.Use(userAuth)
			rh.RegisterUser(r)
		})
	})
	r.Route("/auth", func(r chi.Router) {
		ah.RegisterPublic(r)
		r.Group(func(r chi.Router) {
			r.Use(userAuth)
			ah.RegisterUser(r)
		})
	})
	r.Route("/admin", func(r chi.Router) {
		r.Use(adminAuth)
		adm.Register(r)
	})

	name := d.ServiceName
	if name == "" {
		name = "chipstore"
	}
	return otelhttp.NewHandler(r, name)
}
