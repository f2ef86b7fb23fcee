package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/ariefcatur/go-chipstore/internal/apperr"
	"github.com/ariefcatur/go-chipstore/internal/logx"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("catalog")

type Service struct {
	store    Store
	logger   *zap.Logger
	validate *validator.Validate
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger, validate: apperr.NewValidator()}
}

// ProductInput is the admin payload for creating or replacing a product.
type ProductInput struct {
	Name              string        `json:"name" validate:"required"`
	Description       string        `json:"description" validate:"required"`
	ImageURL          string        `json:"imageURL" validate:"required"`
	Category          string        `json:"category"`
	Price             *float64      `json:"price" validate:"required,gte=0"`
	OriginalPrice     *float64      `json:"originalPrice" validate:"omitempty,gte=0"`
	Quantity          int           `json:"quantity" validate:"gte=0"`
	Featured          bool          `json:"featured"`
	Bestseller        bool          `json:"bestseller"`
	InitialRating     float64       `json:"initialRating" validate:"gte=0,lte=5"`
	IsHamper          bool          `json:"isHamper"`
	PacketsPerHamper  int           `json:"packetsPerHamper" validate:"gte=0"`
	PacketPrice       float64       `json:"packetPrice" validate:"gte=0"`
	PacketWeightGrams int           `json:"packetWeightGrams" validate:"gte=0"`
	Contents          []ContentItem `json:"contents" validate:"dive"`
	Ingredients       string        `json:"ingredients"`
	NutritionInfo     NutritionInfo `json:"nutritionInfo"`
}

// trim runs before validation so whitespace-only text counts as missing.
func (in *ProductInput) trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Category = strings.TrimSpace(in.Category)
}

func (in ProductInput) toProduct() Product {
	p := Product{
		Name:              in.Name,
		Description:       in.Description,
		ImageURL:          in.ImageURL,
		Category:          in.Category,
		OriginalPrice:     in.OriginalPrice,
		Quantity:          in.Quantity,
		Featured:          in.Featured,
		Bestseller:        in.Bestseller,
		InitialRating:     in.InitialRating,
		IsHamper:          in.IsHamper,
		PacketsPerHamper:  in.PacketsPerHamper,
		PacketPrice:       in.PacketPrice,
		PacketWeightGrams: in.PacketWeightGrams,
		Contents:          in.Contents,
		Ingredients:       in.Ingredients,
		NutritionInfo:     in.NutritionInfo,
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	p.ApplyDefaults()
	return p
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.InvalidArgument("invalid product id")
	}
	return nil
}

func (s *Service) ListProducts(ctx context.Context, f Filter) ([]Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.ListProducts")
	defer span.End()

	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, apperr.InvalidArgument("minPrice must not exceed maxPrice")
	}
	ps, err := s.store.List(ctx, f)
	if err != nil {
		logx.Error(ctx, s.logger, "list products failed", zap.Error(err))
		return nil, apperr.Internal("failed to list products", err)
	}
	return ps, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.GetProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	if err := validID(id); err != nil {
		return nil, err
	}
	p, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("product not found")
	}
	if err != nil {
		logx.Error(ctx, s.logger, "get product failed", zap.String("product_id", id), zap.Error(err))
		return nil, apperr.Internal("failed to load product", err)
	}
	return p, nil
}

// GetMany skips ids that are malformed or no longer exist.
func (s *Service) GetMany(ctx context.Context, ids []string) ([]Product, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) == nil {
			valid = append(valid, id)
		}
	}
	ps, err := s.store.GetMany(ctx, valid)
	if err != nil {
		logx.Error(ctx, s.logger, "get products failed", zap.Error(err))
		return nil, apperr.Internal("failed to load products", err)
	}
	return ps, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, apperr.Internal("failed to count products", err)
	}
	return n, nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.CreateProduct")
	defer span.End()

	in.trim()
	if err := s.validate.Struct(in); err != nil {
		return nil, apperr.FromValidation("name, price, imageURL and description are required", err)
	}
	p := in.toProduct()
	if err := s.store.Create(ctx, &p); err != nil {
		logx.Error(ctx, s.logger, "create product failed", zap.String("name", p.Name), zap.Error(err))
		return nil, apperr.Internal("failed to create product", err)
	}
	logx.Info(ctx, s.logger, "product created", zap.String("product_id", p.ID))
	return &p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	if err := validID(id); err != nil {
		return nil, err
	}
	in.trim()
	if err := s.validate.Struct(in); err != nil {
		return nil, apperr.FromValidation("invalid product", err)
	}
	p := in.toProduct()
	p.ID = id
	err := s.store.Update(ctx, &p)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("product not found")
	}
	if err != nil {
		logx.Error(ctx, s.logger, "update product failed", zap.String("product_id", id), zap.Error(err))
		return nil, apperr.Internal("failed to update product", err)
	}
	return &p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	err := s.store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("product not found")
	}
	if err != nil {
		logx.Error(ctx, s.logger, "delete product failed", zap.String("product_id", id), zap.Error(err))
		return apperr.Internal("failed to delete product", err)
	}
	return nil
}
