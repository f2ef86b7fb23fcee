package catalog

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Average is the displayed rating: initial when nobody reviewed yet,
// otherwise total/count rounded half away from zero to one decimal.
// The store computes the same value with ROUND(numeric, 1).
func Average(initial float64, total, count int) float64 {
	if count <= 0 {
		return initial
	}
	avg := decimal.NewFromInt(int64(total)).
		Div(decimal.NewFromInt(int64(count))).
		Round(1)
	f, _ := avg.Float64()
	return f
}

var ErrNoRatingChange = errors.New("rating delta needs an old or a new rating")

// RatingDelta is the change to (reviewCount, totalRating) for one review mutation:
// add (nil, &r), edit (&old, &new), remove (&old, nil).
type RatingDelta struct {
	Count int
	Total int
}

func DeltaFor(oldRating, newRating *int) (RatingDelta, error) {
	switch {
	case oldRating == nil && newRating == nil:
		return RatingDelta{}, ErrNoRatingChange
	case oldRating == nil:
		return RatingDelta{Count: 1, Total: *newRating}, nil
	case newRating == nil:
		return RatingDelta{Count: -1, Total: -*oldRating}, nil
	default:
		return RatingDelta{Total: *newRating - *oldRating}, nil
	}
}
