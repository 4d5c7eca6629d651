package property

import (
	"context"

	"estate_marketplace_backend/internal/gateway"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repository defines the storage operations for properties.
type Repository interface {
	Create(ctx context.Context, p *Property) error
	FindByID(ctx context.Context, id uuid.UUID) (*Property, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Property, error)
	List(ctx context.Context, queries ...gateway.Query) ([]Property, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Subscribe(handler gateway.Handler) gateway.Subscription
}

type gormRepository struct {
	properties *gateway.Collection[Property, *Property]
}

// Fields usable in property queries.
var searchableFields = []string{"name", "description", "address", "price", "rating", "details", "meta", "user_profile_id", "slug"}

func NewGORMRepository(db *gorm.DB, broker gateway.Broker, logger *zap.Logger) Repository {
	return &gormRepository{
		properties: gateway.NewCollection[Property](db, broker, logger, CollectionName, searchableFields...),
	}
}

func (r *gormRepository) Create(ctx context.Context, p *Property) error {
	return r.properties.Create(ctx, p)
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Property, error) {
	return r.properties.Get(ctx, id)
}

func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Property, error) {
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return r.properties.List(ctx, gateway.In("id", values...))
}

func (r *gormRepository) List(ctx context.Context, queries ...gateway.Query) ([]Property, error) {
	return r.properties.List(ctx, queries...)
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.properties.Delete(ctx, id)
}

func (r *gormRepository) Subscribe(handler gateway.Handler) gateway.Subscription {
	return r.properties.Subscribe(handler)
}
