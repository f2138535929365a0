package domain

import (
	"strings"
)

// Category identifies one of the four product groupings published by the
// statistics archive. The value is the underscore form of the file-name slug.
type Category string

const (
	CategorySalmonTrout     Category = "laks_og_orret"
	CategoryWhitefish       Category = "hvitfiskprodukter"
	CategoryHerringMackerel Category = "sild_og_makrell"
	CategoryConventional    Category = "konvensjonelle_produkter"
)

// AllCategories returns the categories in file-name detection order
func AllCategories() []Category {
	return []Category{
		CategorySalmonTrout,
		CategoryWhitefish,
		CategoryHerringMackerel,
		CategoryConventional,
	}
}

// ParseCategory accepts either the underscore enum value or the hyphenated slug
func ParseCategory(s string) (Category, bool) {
	normalized := Category(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if normalized.Valid() {
		return normalized, true
	}
	return "", false
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategorySalmonTrout, CategoryWhitefish, CategoryHerringMackerel, CategoryConventional:
		return true
	}
	return false
}

// Slug returns the hyphenated form used in source file names
func (c Category) Slug() string {
	return strings.ReplaceAll(string(c), "_", "-")
}

// DisplayName returns a title-cased label such as "Laks Og Orret"
func (c Category) DisplayName() string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// MarketRecord is one export market row from a weekly statistics sheet.
// Week and Category come from the source file name, never from the sheet.
type MarketRecord struct {
	Week             int      `json:"week" db:"week" validate:"min=1,max=53"`
	Category         Category `json:"category" db:"category" validate:"required,category"`
	Market           string   `json:"market" db:"market" validate:"required"`
	CurrentVolume    float64  `json:"current_volume" db:"current_volume"`
	CurrentPrice     float64  `json:"current_price" db:"current_price"`
	PriorVolume      float64  `json:"prior_volume" db:"prior_volume"`
	PriorPrice       float64  `json:"prior_price" db:"prior_price"`
	YTDCurrentVolume float64  `json:"ytd_current_volume" db:"ytd_current_volume"`
	YTDCurrentPrice  float64  `json:"ytd_current_price" db:"ytd_current_price"`
	YTDPriorVolume   float64  `json:"ytd_prior_volume" db:"ytd_prior_volume"`
	YTDPriorPrice    float64  `json:"ytd_prior_price" db:"ytd_prior_price"`
}

// EnrichedRecord is a MarketRecord with the derived year-over-year columns
type EnrichedRecord struct {
	MarketRecord
	VolumeGrowthPercent float64 `json:"volume_growth_percent" db:"volume_growth_percent"`
	PriceChangePercent  float64 `json:"price_change_percent" db:"price_change_percent"`
}

// MarketFilter narrows record queries. Zero values mean "any".
type MarketFilter struct {
	Week     int      `json:"week,omitempty" validate:"omitempty,min=1,max=53"`
	Category Category `json:"category,omitempty"`
	Market   string   `json:"market,omitempty"`
	Limit    int      `json:"limit,omitempty" validate:"omitempty,min=1,max=10000"`
}
