// Package reviews stores product reviews and keeps the product rating aggregate in step with them.
package reviews

import (
	"context"
	"errors"
	"strings"

	"github.com/ariefcatur/go-chipstore/internal/apperr"
	"github.com/ariefcatur/go-chipstore/internal/catalog"
	"github.com/ariefcatur/go-chipstore/internal/logx"
	"github.com/ariefcatur/go-chipstore/internal/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("reviews")

type Repository interface {
	Insert(ctx context.Context, rv *Review) error
	GetOwnedForUpdate(ctx context.Context, id, userID string) (*Review, error)
	Update(ctx context.Context, rv *Review) error
	Delete(ctx context.Context, id string) error
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
}

// RatingStore applies aggregate deltas; catalog.Repo and catalog.CachedStore implement it.
type RatingStore interface {
	ApplyRatingDelta(ctx context.Context, productID string, oldRating, newRating *int) (*catalog.Product, error)
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo     Repository
	ratings  RatingStore
	tx       Transactor
	logger   *zap.Logger
	metrics  *telemetry.Metrics
	validate *validator.Validate
}

func NewService(repo Repository, ratings RatingStore, tx Transactor, logger *zap.Logger, metrics *telemetry.Metrics) *Service {
	return &Service{
		repo:     repo,
		ratings:  ratings,
		tx:       tx,
		logger:   logger,
		metrics:  metrics,
		validate: apperr.NewValidator(),
	}
}

// Add records the caller's review and bumps the product aggregate in the same transaction.
func (s *Service) Add(ctx context.Context, userID string, req AddRequest) (*Review, *catalog.Product, error) {
	ctx, span := tracer.Start(ctx, "ReviewService.Add")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", req.ProductID))

	req.Comment = strings.TrimSpace(req.Comment)
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, apperr.FromValidation("rating must be between 1 and 5", err)
	}

	rv := &Review{ProductID: req.ProductID, UserID: userID, Rating: req.Rating, Comment: req.Comment}
	var product *catalog.Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Insert(ctx, rv); err != nil {
			return err
		}
		p, err := s.ratings.ApplyRatingDelta(ctx, rv.ProductID, nil, &rv.Rating)
		if err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, nil, s.translate(ctx, "add review", rv.ProductID, err)
	}

	s.metrics.ReviewChanged("add")
	logx.Info(ctx, s.logger, "review added",
		zap.String("review_id", rv.ID), zap.String("product_id", rv.ProductID), zap.Int("rating", rv.Rating))
	return rv, product, nil
}

// Edit replaces rating and comment of a review the caller owns.
func (s *Service) Edit(ctx context.Context, userID, reviewID string, req EditRequest) (*Review, *catalog.Product, error) {
	ctx, span := tracer.Start(ctx, "ReviewService.Edit")
	defer span.End()
	span.SetAttributes(attribute.String("review.id", reviewID))

	if _, err := uuid.Parse(reviewID); err != nil {
		return nil, nil, apperr.NotFound("review not found")
	}
	req.Comment = strings.TrimSpace(req.Comment)
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, apperr.FromValidation("rating must be between 1 and 5", err)
	}

	var (
		rv      *Review
		product *catalog.Product
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.repo.GetOwnedForUpdate(ctx, reviewID, userID)
		if err != nil {
			return err
		}
		oldRating := cur.Rating
		cur.Rating, cur.Comment = req.Rating, req.Comment
		if err := s.repo.Update(ctx, cur); err != nil {
			return err
		}
		p, err := s.ratings.ApplyRatingDelta(ctx, cur.ProductID, &oldRating, &cur.Rating)
		if err != nil {
			return err
		}
		rv, product = cur, p
		return nil
	})
	if err != nil {
		return nil, nil, s.translate(ctx, "edit review", reviewID, err)
	}

	s.metrics.ReviewChanged("edit")
	return rv, product, nil
}

// Remove deletes a review the caller owns and takes its rating out of the aggregate.
func (s *Service) Remove(ctx context.Context, userID, reviewID string) (*catalog.Product, error) {
	ctx, span := tracer.Start(ctx, "ReviewService.Remove")
	defer span.End()
	span.SetAttributes(attribute.String("review.id", reviewID))

	if _, err := uuid.Parse(reviewID); err != nil {
		return nil, apperr.NotFound("review not found")
	}

	var product *catalog.Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.repo.GetOwnedForUpdate(ctx, reviewID, userID)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, cur.ID); err != nil {
			return err
		}
		p, err := s.ratings.ApplyRatingDelta(ctx, cur.ProductID, &cur.Rating, nil)
		if err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, "remove review", reviewID, err)
	}

	s.metrics.ReviewChanged("remove")
	return product, nil
}

func (s *Service) ListByProduct(ctx context.Context, productID string) ([]Review, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, apperr.InvalidArgument("invalid product id")
	}
	out, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		logx.Error(ctx, s.logger, "list reviews failed", zap.String("product_id", productID), zap.Error(err))
		return nil, apperr.Internal("failed to load reviews", err)
	}
	return out, nil
}

func (s *Service) translate(ctx context.Context, op, id string, err error) error {
	switch {
	case errors.Is(err, ErrDuplicate):
		return apperr.Conflict("you have already reviewed this product")
	case errors.Is(err, ErrProductNotFound), errors.Is(err, catalog.ErrNotFound):
		return apperr.NotFound("product not found")
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("review not found")
	}
	logx.Error(ctx, s.logger, op+" failed", zap.String("id", id), zap.Error(err))
	return apperr.Internal("failed to "+op, err)
}
