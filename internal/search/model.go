package search

import (
	"strings"

	"estate_marketplace_backend/internal/profile"
	"estate_marketplace_backend/internal/property"
)

const (
	UserResultLimit     = 5
	PropertyResultLimit = 100
)

type ResultType string

const (
	ResultUser     ResultType = "user"
	ResultProperty ResultType = "property"
)

// Filters are the universal search parameters. Query and the price bounds are
// evaluated by the store; everything else is applied to the fetched results.
type Filters struct {
	Query        string   `form:"q"`
	Mode         string   `form:"mode" binding:"omitempty,oneof=Rent Sell"`
	Type         string   `form:"type"`
	MinPrice     *int64   `form:"min_price" binding:"omitempty,gte=0"`
	MaxPrice     *int64   `form:"max_price" binding:"omitempty,gte=0"`
	MinBedrooms  *int     `form:"min_bedrooms" binding:"omitempty,gte=0"`
	MinBathrooms *int     `form:"min_bathrooms" binding:"omitempty,gte=0"`
	MinArea      *float64 `form:"min_area" binding:"omitempty,gte=0"`
	MaxArea      *float64 `form:"max_area" binding:"omitempty,gte=0"`
	Facilities   []string `form:"facilities"`
}

// PriceRange returns the bounds evaluated by the store.
func (f Filters) PriceRange() property.PriceRange {
	return property.PriceRange{Min: f.MinPrice, Max: f.MaxPrice}
}

// Match applies the structured filters to p's parsed details and meta. All
// requested facilities must be present on p.
func (f Filters) Match(p *property.Property) bool {
	meta := p.ParsedMeta()
	details := p.ParsedDetails()

	if f.Type != "" && f.Type != property.FilterAll && !strings.EqualFold(meta.Type, f.Type) {
		return false
	}
	if f.Mode != "" && !strings.EqualFold(meta.Mode, f.Mode) {
		return false
	}
	if f.MinBedrooms != nil && details.Bedrooms < *f.MinBedrooms {
		return false
	}
	if f.MinBathrooms != nil && details.Bathrooms < *f.MinBathrooms {
		return false
	}
	if f.MinArea != nil && details.Area < *f.MinArea {
		return false
	}
	if f.MaxArea != nil && details.Area > *f.MaxArea {
		return false
	}
	if len(f.Facilities) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(meta.Facilities))
	for _, fac := range meta.Facilities {
		have[strings.ToLower(fac)] = struct{}{}
	}
	for _, want := range f.Facilities {
		if _, ok := have[strings.ToLower(want)]; !ok {
			return false
		}
	}
	return true
}

// Result is one tagged entry of a universal search.
type Result struct {
	Type     ResultType                 `json:"type"`
	User     *profile.ProfileResponse   `json:"user,omitempty"`
	Property *property.PropertyResponse `json:"property,omitempty"`
}
