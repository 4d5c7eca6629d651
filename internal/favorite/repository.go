package favorite

import (
	"context"

	"estate_marketplace_backend/internal/gateway"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, f *Favorite) error
	FindByID(ctx context.Context, id uuid.UUID) (*Favorite, error)
	FindByUserAndProperty(ctx context.Context, userID, propertyID uuid.UUID) ([]Favorite, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Favorite, error)
	ListByUserAndProperties(ctx context.Context, userID uuid.UUID, propertyIDs []uuid.UUID) ([]Favorite, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	favorites *gateway.Collection[Favorite, *Favorite]
}

func NewGORMRepository(db *gorm.DB, broker gateway.Broker, logger *zap.Logger) Repository {
	return &gormRepository{
		favorites: gateway.NewCollection[Favorite](db, broker, logger, CollectionName, "user_id", "property_id"),
	}
}

func (r *gormRepository) Create(ctx context.Context, f *Favorite) error {
	return r.favorites.Create(ctx, f)
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Favorite, error) {
	return r.favorites.Get(ctx, id)
}

func (r *gormRepository) FindByUserAndProperty(ctx context.Context, userID, propertyID uuid.UUID) ([]Favorite, error) {
	return r.favorites.List(ctx,
		gateway.Equal("user_id", userID),
		gateway.Equal("property_id", propertyID),
		gateway.OrderAsc("created_at"),
	)
}

func (r *gormRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Favorite, error) {
	return r.favorites.List(ctx, gateway.Equal("user_id", userID), gateway.OrderDesc("created_at"))
}

func (r *gormRepository) ListByUserAndProperties(ctx context.Context, userID uuid.UUID, propertyIDs []uuid.UUID) ([]Favorite, error) {
	values := make([]interface{}, len(propertyIDs))
	for i, id := range propertyIDs {
		values[i] = id
	}
	return r.favorites.List(ctx, gateway.Equal("user_id", userID), gateway.In("property_id", values...))
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.favorites.Delete(ctx, id)
}
