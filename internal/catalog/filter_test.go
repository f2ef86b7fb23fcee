package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f64(v float64) *float64 { return &v }

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortPriceLow, ParseSort("price-low"))
	assert.Equal(t, SortPriceHigh, ParseSort(" PRICE-HIGH "))
	assert.Equal(t, SortRating, ParseSort("rating"))
	assert.Equal(t, SortNewest, ParseSort("newest"))
	assert.Equal(t, SortName, ParseSort(""))
	assert.Equal(t, SortName, ParseSort("bogus"))
}

func TestResolveCategory(t *testing.T) {
	_, ok := resolveCategory("all")
	assert.False(t, ok)
	_, ok = resolveCategory("")
	assert.False(t, ok)

	m, ok := resolveCategory("chips")
	assert.True(t, ok)
	assert.Equal(t, "potato-chips", m.category)

	m, ok = resolveCategory("Hampers")
	assert.True(t, ok)
	assert.True(t, m.hampers)

	m, ok = resolveCategory("flavor:Masala")
	assert.True(t, ok)
	assert.Equal(t, "masala", m.flavor)

	m, ok = resolveCategory("international")
	assert.True(t, ok)
	assert.Equal(t, "international", m.category)
}

func TestFilter_Match(t *testing.T) {
	classic := Product{Name: "Classic Potato Chips", Description: "salted", Category: "potato-chips", Price: 45}
	nachos := Product{Name: "Nacho Cheese", Description: "tortilla triangles", Category: "tortilla-chips", Price: 60, Featured: true}
	hamper := Product{Name: "Party Hamper", Category: "snacks", Price: 200, IsHamper: true, Bestseller: true,
		Contents: []ContentItem{{Flavor: "Masala", Count: 5}, {Flavor: "Salted", Count: 5}}}

	cases := []struct {
		name   string
		filter Filter
		want   []bool
	}{
		{"empty matches all", Filter{}, []bool{true, true, true}},
		{"search is case-insensitive", Filter{Search: "CHEESE"}, []bool{false, true, false}},
		{"search hits description", Filter{Search: "triangle"}, []bool{false, true, false}},
		{"search hits category", Filter{Search: "potato"}, []bool{true, false, false}},
		{"category all", Filter{Category: "all"}, []bool{true, true, true}},
		{"category alias", Filter{Category: "tortilla"}, []bool{false, true, false}},
		{"hampers", Filter{Category: "hampers"}, []bool{false, false, true}},
		{"flavor", Filter{Category: "flavor:masala"}, []bool{false, false, true}},
		{"price range", Filter{MinPrice: f64(50), MaxPrice: f64(100)}, []bool{false, true, false}},
		{"featured", Filter{Featured: true}, []bool{false, true, false}},
		{"bestseller", Filter{Bestseller: true}, []bool{false, false, true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := []bool{matches(tc.filter, classic), matches(tc.filter, nachos), matches(tc.filter, hamper)}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}
