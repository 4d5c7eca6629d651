package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"estate_marketplace_backend/internal/gateway"
	platformes "estate_marketplace_backend/internal/platform/elasticsearch"
	"estate_marketplace_backend/internal/property"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const indexTimeout = 10 * time.Second

// PropertySource lists and streams stored properties.
type PropertySource interface {
	List(ctx context.Context, queries ...gateway.Query) ([]property.Property, error)
	Subscribe(handler gateway.Handler) gateway.Subscription
}

// PropertyIndexer keeps the properties index in sync with the document store.
type PropertyIndexer struct {
	client  *platformes.ESClientWrapper
	source  PropertySource
	refresh string
	logger  *zap.Logger
}

func NewPropertyIndexer(client *platformes.ESClientWrapper, source PropertySource, logger *zap.Logger) *PropertyIndexer {
	return &PropertyIndexer{client: client, source: source, logger: logger.Named("PropertyIndexer")}
}

// WithRefresh sets the refresh policy of index writes ("true", "false", "wait_for").
func (ix *PropertyIndexer) WithRefresh(policy string) *PropertyIndexer {
	ix.refresh = policy
	return ix
}

// Watch indexes every property change until the subscription is released.
func (ix *PropertyIndexer) Watch() gateway.Subscription {
	return ix.source.Subscribe(func(ev gateway.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		defer cancel()

		var err error
		switch ev.Type {
		case gateway.EventDelete:
			err = ix.Remove(ctx, ev.DocumentID)
		default:
			var p property.Property
			if err = ev.Decode(&p); err == nil {
				err = ix.Index(ctx, &p)
			}
		}
		if err != nil {
			ix.logger.Error("Failed to sync property to index",
				zap.String("propertyID", ev.DocumentID.String()),
				zap.String("eventType", string(ev.Type)),
				zap.Error(err),
			)
		}
	})
}

func (ix *PropertyIndexer) Index(ctx context.Context, p *property.Property) error {
	doc, err := PropertyDocument(p)
	if err != nil {
		return err
	}
	res, err := esapi.IndexRequest{
		Index:      platformes.PropertiesIndexName,
		DocumentID: p.ID.String(),
		Body:       strings.NewReader(doc),
		Refresh:    ix.refresh,
	}.Do(ctx, ix.client.Client)
	if err != nil {
		return fmt.Errorf("index property: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index property: status %s", res.Status())
	}
	return nil
}

// Remove deletes id from the index. A missing document is not an error.
func (ix *PropertyIndexer) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := esapi.DeleteRequest{
		Index:      platformes.PropertiesIndexName,
		DocumentID: id.String(),
		Refresh:    ix.refresh,
	}.Do(ctx, ix.client.Client)
	if err != nil {
		return fmt.Errorf("remove property from index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove property from index: status %s", res.Status())
	}
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string                 `json:"_id"`
			Status int                    `json:"status"`
			Error  map[string]interface{} `json:"error,omitempty"`
		} `json:"index"`
	} `json:"items"`
}

// Reindex bulk-loads every stored property in batches and returns how many
// were indexed. Failed documents are logged and reported as an error at the end.
func (ix *PropertyIndexer) Reindex(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 200
	}
	ix.logger.Info("Starting property reindex", zap.Int("batchSize", batchSize))

	offset, synced, failed, batch := 0, 0, 0, 1
	for {
		props, err := ix.source.List(ctx, gateway.OrderAsc("created_at"), gateway.Limit(batchSize), gateway.Offset(offset))
		if err != nil {
			return synced, fmt.Errorf("failed to fetch batch %d: %w", batch, err)
		}
		if len(props) == 0 {
			break
		}

		var body strings.Builder
		for i := range props {
			doc, err := PropertyDocument(&props[i])
			if err != nil {
				ix.logger.Error("Failed to convert property to document", zap.String("propertyID", props[i].ID.String()), zap.Error(err))
				failed++
				continue
			}
			fmt.Fprintf(&body, `{ "index" : { "_index" : "%s", "_id" : "%s" } }%s`, platformes.PropertiesIndexName, props[i].ID.String(), "\n")
			body.WriteString(doc)
			body.WriteString("\n")
		}

		if body.Len() > 0 {
			ok, bad := ix.sendBulk(ctx, body.String(), batch, len(props))
			synced += ok
			failed += bad
		}
		offset += len(props)
		batch++
		if len(props) < batchSize {
			break
		}
	}

	ix.logger.Info("Property reindex finished", zap.Int("synced", synced), zap.Int("failed", failed))
	if failed > 0 {
		return synced, fmt.Errorf("%d properties failed to index", failed)
	}
	return synced, nil
}

func (ix *PropertyIndexer) sendBulk(ctx context.Context, body string, batch, size int) (synced, failed int) {
	res, err := esapi.BulkRequest{
		Body:    strings.NewReader(body),
		Refresh: ix.refresh,
	}.Do(ctx, ix.client.Client)
	if err != nil {
		ix.logger.Error("Failed to send bulk request", zap.Int("batchNumber", batch), zap.Error(err))
		return 0, size
	}
	defer res.Body.Close()
	if res.IsError() {
		ix.logger.Error("Bulk request returned an error", zap.Int("batchNumber", batch), zap.String("status", res.Status()))
		return 0, size
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		ix.logger.Error("Failed to parse bulk response", zap.Int("batchNumber", batch), zap.Error(err))
		return 0, size
	}
	for _, item := range parsed.Items {
		if item.Index.Error != nil {
			ix.logger.Error("Failed to index document in bulk batch",
				zap.String("propertyID", item.Index.ID),
				zap.Any("error", item.Index.Error),
				zap.Int("status", item.Index.Status),
			)
			failed++
			continue
		}
		synced++
	}
	return synced, failed
}
