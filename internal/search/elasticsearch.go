package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	platformes "estate_marketplace_backend/internal/platform/elasticsearch"
	"estate_marketplace_backend/internal/property"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// textFields are matched by the text phase, mirroring the store search.
var textFields = []string{"name", "description", "address", "details_text", "meta_text"}

// PropertyLoader resolves indexed ids back to stored properties.
type PropertyLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]property.Property, error)
}

// ESPropertySearcher runs the text phase against the properties index and
// loads the hits from the document store in hit order.
type ESPropertySearcher struct {
	client     *platformes.ESClientWrapper
	properties PropertyLoader
	logger     *zap.Logger
}

func NewESPropertySearcher(client *platformes.ESClientWrapper, properties PropertyLoader, logger *zap.Logger) *ESPropertySearcher {
	return &ESPropertySearcher{client: client, properties: properties, logger: logger.Named("ESPropertySearcher")}
}

func buildQuery(term string, price property.PriceRange, limit int) map[string]interface{} {
	must := map[string]interface{}{"match_all": map[string]interface{}{}}
	if term != "" {
		must = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  term,
				"fields": textFields,
			},
		}
	}
	filters := []interface{}{}
	priceRange := map[string]interface{}{}
	if price.Min != nil {
		priceRange["gte"] = *price.Min
	}
	if price.Max != nil {
		priceRange["lte"] = *price.Max
	}
	if len(priceRange) > 0 {
		filters = append(filters, map[string]interface{}{"range": map[string]interface{}{"price": priceRange}})
	}
	return map[string]interface{}{
		"size":    limit,
		"_source": false,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filters,
			},
		},
		"sort": []interface{}{"_score", map[string]interface{}{"created_at": "desc"}},
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ESPropertySearcher) Search(ctx context.Context, term string, price property.PriceRange, limit int) ([]property.Property, error) {
	if limit <= 0 {
		limit = PropertyResultLimit
	}
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(buildQuery(term, price, limit)); err != nil {
		return nil, fmt.Errorf("encode property search: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{platformes.PropertiesIndexName},
		Body:  &body,
	}.Do(ctx, s.client.Client)
	if err != nil {
		return nil, fmt.Errorf("property search request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("property search failed: status %s", res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode property search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			s.logger.Warn("Skipping hit with malformed id", zap.String("id", h.ID))
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []property.Property{}, nil
	}

	props, err := s.properties.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]property.Property, len(props))
	for _, p := range props {
		byID[p.ID] = p
	}
	out := make([]property.Property, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
