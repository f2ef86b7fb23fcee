package catalog

import "strings"

// matches mirrors the WHERE clause Repo.List builds, for in-memory stores.
func matches(f Filter, p Product) bool {
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		if !strings.Contains(strings.ToLower(p.Name), s) &&
			!strings.Contains(strings.ToLower(p.Description), s) &&
			!strings.Contains(strings.ToLower(p.Category), s) {
			return false
		}
	}
	if m, ok := resolveCategory(f.Category); ok {
		switch {
		case m.hampers:
			if !p.IsHamper {
				return false
			}
		case m.flavor != "":
			found := false
			for _, c := range p.Contents {
				if strings.EqualFold(c.Flavor, m.flavor) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			if !strings.EqualFold(p.Category, m.category) {
				return false
			}
		}
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Featured && !p.Featured {
		return false
	}
	if f.Bestseller && !p.Bestseller {
		return false
	}
	return true
}

func applyDelta(d RatingDelta, p Product) Product {
	p.ReviewCount += d.Count
	p.TotalRating += d.Total
	p.Rating = Average(p.InitialRating, p.TotalRating, p.ReviewCount)
	return p
}
