package catalog

import (
	"strings"
	"time"
)

type ContentItem struct {
	Flavor string `json:"flavor"`
	Count  int    `json:"count"`
}

type NutritionInfo struct {
	Calories    string `json:"calories,omitempty"`
	Protein     string `json:"protein,omitempty"`
	Carbs       string `json:"carbs,omitempty"`
	Fat         string `json:"fat,omitempty"`
	Sodium      string `json:"sodium,omitempty"`
	ServingSize string `json:"servingSize,omitempty"`
}

type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	ImageURL      string   `json:"imageURL"`
	Category      string   `json:"category"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Quantity      int      `json:"quantity"`
	Featured      bool     `json:"featured"`
	Bestseller    bool     `json:"bestseller"`

	InitialRating float64 `json:"initialRating"`
	TotalRating   int     `json:"totalRating"`
	ReviewCount   int     `json:"reviewCount"`
	Rating        float64 `json:"rating"` // lihat Average

	IsHamper          bool          `json:"isHamper"`
	PacketsPerHamper  int           `json:"packetsPerHamper"`
	PacketPrice       float64       `json:"packetPrice"`
	PacketWeightGrams int           `json:"packetWeightGrams"`
	Contents          []ContentItem `json:"contents"`
	Ingredients       string        `json:"ingredients"`
	NutritionInfo     NutritionInfo `json:"nutritionInfo"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const (
	DefaultCategory          = "snacks"
	DefaultPacketsPerHamper  = 10
	DefaultPacketPrice       = 20
	DefaultPacketWeightGrams = 30
)

func (p Product) InStock() bool { return p.Quantity > 0 }

func (p Product) Stock() int { return p.Quantity }

// TotalWeightGrams is only meaningful for hampers.
func (p Product) TotalWeightGrams() (int, bool) {
	if !p.IsHamper {
		return 0, false
	}
	return p.PacketsPerHamper * p.PacketWeightGrams, true
}

// ApplyDefaults fills the fields a new product may omit.
func (p *Product) ApplyDefaults() {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.ImageURL = strings.TrimSpace(p.ImageURL)
	p.Category = strings.TrimSpace(p.Category)
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	if p.PacketsPerHamper <= 0 {
		p.PacketsPerHamper = DefaultPacketsPerHamper
	}
	if p.PacketPrice <= 0 {
		p.PacketPrice = DefaultPacketPrice
	}
	if p.PacketWeightGrams <= 0 {
		p.PacketWeightGrams = DefaultPacketWeightGrams
	}
	if p.Contents == nil {
		p.Contents = []ContentItem{}
	}
	p.Rating = Average(p.InitialRating, p.TotalRating, p.ReviewCount)
}

// Categories are the canonical storefront categories.
var Categories = []string{
	"potato-chips",
	"corn-chips",
	"tortilla-chips",
	"veggie-chips",
	"protein-chips",
	"sweet-chips",
	"international",
	"healthy-snacks",
}
