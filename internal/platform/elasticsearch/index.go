package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const PropertiesIndexName = "properties"

func propertiesMapping() (string, error) {
	text := map[string]interface{}{"type": "text"}
	keyword := map[string]interface{}{"type": "keyword"}
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"name":            text,
				"description":     text,
				"address":         text,
				"details_text":    text,
				"meta_text":       text,
				"price":           map[string]interface{}{"type": "long"},
				"rating":          map[string]interface{}{"type": "float"},
				"type":            keyword,
				"mode":            keyword,
				"facilities":      keyword,
				"bedrooms":        map[string]interface{}{"type": "float"},
				"bathrooms":       map[string]interface{}{"type": "float"},
				"area":            map[string]interface{}{"type": "float"},
				"location":        map[string]interface{}{"type": "geo_point"},
				"user_profile_id": keyword,
				"created_at":      map[string]interface{}{"type": "date"},
			},
		},
	}
	b, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("error marshalling properties mapping to JSON: %w", err)
	}
	return string(b), nil
}

// CreatePropertiesIndexIfNotExists creates the properties index with its mapping.
func CreatePropertiesIndexIfNotExists(ctx context.Context, client *ESClientWrapper, logger *zap.Logger) error {
	log := logger.Named("elasticsearch_index_setup")

	res, err := esapi.IndicesExistsRequest{Index: []string{PropertiesIndexName}}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error checking if properties index exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		log.Info("Properties index already exists", zap.String("index_name", PropertiesIndexName))
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("error checking if properties index exists: status %s", res.Status())
	}

	mappingJSON, err := propertiesMapping()
	if err != nil {
		return err
	}

	createRes, err := esapi.IndicesCreateRequest{
		Index: PropertiesIndexName,
		Body:  strings.NewReader(mappingJSON),
	}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error creating properties index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		var errorBody map[string]interface{}
		if err := json.NewDecoder(createRes.Body).Decode(&errorBody); err == nil {
			log.Error("Failed to create properties index", zap.String("status", createRes.Status()), zap.Any("error_details", errorBody))
		}
		return fmt.Errorf("failed to create properties index: status %s", createRes.Status())
	}

	log.Info("Properties index created", zap.String("index_name", PropertiesIndexName))
	return nil
}
