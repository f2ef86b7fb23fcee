package catalog

import "context"

// Store is implemented by Repo and by CachedStore.
type Store interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	GetMany(ctx context.Context, ids []string) ([]Product, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	ApplyRatingDelta(ctx context.Context, productID string, oldRating, newRating *int) (*Product, error)
}

var _ Store = (*Repo)(nil)
