package search

import (
	"context"

	"estate_marketplace_backend/internal/property"
)

// PropertySearcher runs the text phase of a property search.
type PropertySearcher interface {
	Search(ctx context.Context, term string, price property.PriceRange, limit int) ([]property.Property, error)
}

// TextSearcher is the document store's own text search.
type TextSearcher interface {
	SearchText(ctx context.Context, term string, price property.PriceRange, limit int) ([]property.Property, error)
}

// StoreSearcher searches properties through the document store.
type StoreSearcher struct {
	properties TextSearcher
}

func NewStoreSearcher(properties TextSearcher) *StoreSearcher {
	return &StoreSearcher{properties: properties}
}

func (s *StoreSearcher) Search(ctx context.Context, term string, price property.PriceRange, limit int) ([]property.Property, error) {
	return s.properties.SearchText(ctx, term, price, limit)
}
