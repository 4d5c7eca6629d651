package search

import (
	"encoding/json"
	"errors"
	"fmt"

	"estate_marketplace_backend/internal/property"
)

// PropertyDocument converts p to its Elasticsearch document. The raw details
// and meta text are indexed next to their parsed fields.
func PropertyDocument(p *property.Property) (string, error) {
	if p == nil {
		return "", errors.New("property cannot be nil")
	}
	details := p.ParsedDetails()
	meta := p.ParsedMeta()

	doc := map[string]interface{}{
		"name":            p.Name,
		"description":     p.Description,
		"address":         p.Address,
		"details_text":    p.Details,
		"meta_text":       p.Meta,
		"price":           p.Price,
		"rating":          p.Rating,
		"type":            meta.Type,
		"mode":            meta.Mode,
		"facilities":      meta.Facilities,
		"bedrooms":        details.Bedrooms,
		"bathrooms":       details.Bathrooms,
		"area":            details.Area,
		"user_profile_id": p.UserProfileID.String(),
		"created_at":      p.CreatedAt,
	}
	if meta.Geolocation != nil {
		doc["location"] = map[string]float64{
			"lat": meta.Geolocation.Lat,
			"lon": meta.Geolocation.Lng,
		}
	} else {
		doc["location"] = nil
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("error marshalling property to JSON for ES: %w", err)
	}
	return string(b), nil
}
