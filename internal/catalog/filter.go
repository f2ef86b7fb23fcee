package catalog

import (
	"strings"
)

type SortKey string

const (
	SortName      SortKey = "name"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
	SortNewest    SortKey = "newest"
)

func ParseSort(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortPriceLow, SortPriceHigh, SortRating, SortNewest:
		return k
	default:
		return SortName
	}
}

func (k SortKey) orderBy() string {
	switch k {
	case SortPriceLow:
		return "price ASC, name ASC"
	case SortPriceHigh:
		return "price DESC, name ASC"
	case SortRating:
		return "rating DESC, name ASC"
	case SortNewest:
		return "created_at DESC"
	default:
		return "name ASC"
	}
}

type Filter struct {
	Search     string
	Category   string
	MinPrice   *float64
	MaxPrice   *float64
	Featured   bool
	Bestseller bool
	Sort       SortKey
}

type categoryMatch struct {
	category string
	hampers  bool
	flavor   string
}

const flavorPrefix = "flavor:"

// legacy slugs from older storefront links
var categoryAliases = map[string]string{
	"chips":    "potato-chips",
	"corn":     "corn-chips",
	"tortilla": "tortilla-chips",
	"veggie":   "veggie-chips",
	"protein":  "protein-chips",
	"sweet":    "sweet-chips",
	"healthy":  "healthy-snacks",
}

// resolveCategory maps a category slug to what the listing filters on.
// ok is false when no category filter applies.
func resolveCategory(slug string) (categoryMatch, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	switch {
	case slug == "" || slug == "all":
		return categoryMatch{}, false
	case slug == "hampers" || slug == "hamper":
		return categoryMatch{hampers: true}, true
	case strings.HasPrefix(slug, flavorPrefix):
		flavor := strings.TrimSpace(strings.TrimPrefix(slug, flavorPrefix))
		if flavor == "" {
			return categoryMatch{}, false
		}
		return categoryMatch{flavor: flavor}, true
	}
	if c, ok := categoryAliases[slug]; ok {
		return categoryMatch{category: c}, true
	}
	return categoryMatch{category: slug}, true
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
