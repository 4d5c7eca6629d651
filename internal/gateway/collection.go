package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Document is implemented by every stored model.
type Document interface {
	GetID() uuid.UUID
}

// Collection is a named set of documents of type T stored through GORM. Every
// successful mutation is published on the broker under the collection's name.
type Collection[T any, P interface {
	*T
	Document
}] struct {
	db     *gorm.DB
	broker Broker
	name   string
	fields Fields
	logger *zap.Logger
}

// NewCollection binds model T to name. Only fields listed (plus id and timestamps)
// may be used in queries.
func NewCollection[T any, P interface {
	*T
	Document
}](db *gorm.DB, broker Broker, logger *zap.Logger, name string, fields ...string) *Collection[T, P] {
	return &Collection[T, P]{
		db:     db,
		broker: broker,
		name:   name,
		fields: NewFields(fields...),
		logger: logger.Named("gateway").With(zap.String("collection", name)),
	}
}

// Name returns the collection name used on the change stream.
func (c *Collection[T, P]) Name() string { return c.name }

// Create inserts doc and publishes a create event.
func (c *Collection[T, P]) Create(ctx context.Context, doc P) error {
	if err := c.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create %s document: %w", c.name, err)
	}
	c.publish(ctx, EventCreate, doc.GetID(), doc)
	return nil
}

// Get fetches a document by id.
func (c *Collection[T, P]) Get(ctx context.Context, id uuid.UUID) (P, error) {
	var doc T
	err := c.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get %s document: %w", c.name, err)
	}
	return P(&doc), nil
}

// Update applies changes (column -> value) to the document and publishes the result.
func (c *Collection[T, P]) Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (P, error) {
	for field := range changes {
		if err := c.fields.check(field); err != nil {
			return nil, err
		}
	}
	res := c.db.WithContext(ctx).Model(P(new(T))).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return nil, fmt.Errorf("update %s document: %w", c.name, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrDocumentNotFound
	}
	doc, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, EventUpdate, id, doc)
	return doc, nil
}

// Delete removes a document by id and publishes its last state.
func (c *Collection[T, P]) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	res := c.db.WithContext(ctx).Where("id = ?", id).Delete(P(new(T)))
	if res.Error != nil {
		return fmt.Errorf("delete %s document: %w", c.name, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDocumentNotFound
	}
	c.publish(ctx, EventDelete, id, doc)
	return nil
}

// DeleteWhere removes every document matching the filters and returns how many went.
func (c *Collection[T, P]) DeleteWhere(ctx context.Context, queries ...Query) (int64, error) {
	docs, err := c.List(ctx, queries...)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}
	ids := make([]uuid.UUID, len(docs))
	for i := range docs {
		ids[i] = P(&docs[i]).GetID()
	}
	res := c.db.WithContext(ctx).Where("id IN ?", ids).Delete(P(new(T)))
	if res.Error != nil {
		return 0, fmt.Errorf("delete %s documents: %w", c.name, res.Error)
	}
	for i := range docs {
		c.publish(ctx, EventDelete, ids[i], P(&docs[i]))
	}
	return res.RowsAffected, nil
}

// List returns documents matching queries.
func (c *Collection[T, P]) List(ctx context.Context, queries ...Query) ([]T, error) {
	db, err := c.fields.apply(c.db.WithContext(ctx).Model(P(new(T))), false, queries...)
	if err != nil {
		return nil, err
	}
	var docs []T
	if err := db.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list %s documents: %w", c.name, err)
	}
	return docs, nil
}

// First returns the first document matching queries.
func (c *Collection[T, P]) First(ctx context.Context, queries ...Query) (P, error) {
	docs, err := c.List(ctx, append(queries, Limit(1))...)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrDocumentNotFound
	}
	return P(&docs[0]), nil
}

// Count returns the number of documents matching the filters in queries.
// Ordering and paging are ignored.
func (c *Collection[T, P]) Count(ctx context.Context, queries ...Query) (int64, error) {
	db, err := c.fields.apply(c.db.WithContext(ctx).Model(P(new(T))), true, queries...)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s documents: %w", c.name, err)
	}
	return n, nil
}

// Subscribe opens a subscription on this collection's change stream.
func (c *Collection[T, P]) Subscribe(handler Handler) Subscription {
	return c.broker.Subscribe(c.name, handler)
}

func (c *Collection[T, P]) publish(ctx context.Context, typ EventType, id uuid.UUID, doc interface{}) {
	if c.broker == nil {
		return
	}
	ev, err := NewEvent(c.name, typ, id, doc)
	if err != nil {
		c.logger.Error("Failed to encode change event", zap.String("documentID", id.String()), zap.Error(err))
		return
	}
	if err := c.broker.Publish(ctx, ev); err != nil {
		c.logger.Warn("Failed to publish change event",
			zap.String("documentID", id.String()),
			zap.String("eventType", string(typ)),
			zap.Error(err),
		)
	}
}
