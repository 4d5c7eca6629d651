package profile

import (
	"context"

	"estate_marketplace_backend/internal/gateway"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repository defines the storage operations for profiles.
type Repository interface {
	Create(ctx context.Context, p *UserProfile) error
	FindByID(ctx context.Context, id uuid.UUID) (*UserProfile, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]UserProfile, error)
	Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*UserProfile, error)
	Search(ctx context.Context, term string, limit int) ([]UserProfile, error)
}

type gormRepository struct {
	profiles *gateway.Collection[UserProfile, *UserProfile]
}

// NewGORMRepository creates a profile repository on the document store.
func NewGORMRepository(db *gorm.DB, broker gateway.Broker, logger *zap.Logger) Repository {
	return &gormRepository{
		profiles: gateway.NewCollection[UserProfile](db, broker, logger, CollectionName, "user_id", "name", "email", "avatar"),
	}
}

func (r *gormRepository) Create(ctx context.Context, p *UserProfile) error {
	return r.profiles.Create(ctx, p)
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*UserProfile, error) {
	return r.profiles.Get(ctx, id)
}

// FindByUserID returns the oldest profile of userID, so duplicates from a racing
// first sign-in always resolve to the same record.
func (r *gormRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	return r.profiles.First(ctx, gateway.Equal("user_id", userID), gateway.OrderAsc("created_at"))
}

func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]UserProfile, error) {
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return r.profiles.List(ctx, gateway.In("id", values...))
}

func (r *gormRepository) Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*UserProfile, error) {
	return r.profiles.Update(ctx, id, changes)
}

func (r *gormRepository) Search(ctx context.Context, term string, limit int) ([]UserProfile, error) {
	return r.profiles.List(ctx,
		gateway.Or(gateway.Search("name", term), gateway.Search("email", term)),
		gateway.OrderAsc("name"),
		gateway.Limit(limit),
	)
}
