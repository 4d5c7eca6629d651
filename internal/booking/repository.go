package booking

import (
	"context"

	"estate_marketplace_backend/internal/gateway"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, b *BookingRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*BookingRequest, error)
	Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*BookingRequest, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, queries ...gateway.Query) ([]BookingRequest, error)
	Count(ctx context.Context, queries ...gateway.Query) (int64, error)
	Subscribe(handler gateway.Handler) gateway.Subscription
}

type gormRepository struct {
	bookings *gateway.Collection[BookingRequest, *BookingRequest]
}

func NewGORMRepository(db *gorm.DB, broker gateway.Broker, logger *zap.Logger) Repository {
	return &gormRepository{
		bookings: gateway.NewCollection[BookingRequest](db, broker, logger, CollectionName,
			"property_id", "sender_profile_id", "receiver_profile_id", "status", "seen_by_sender", "seen_by_receiver"),
	}
}

func (r *gormRepository) Create(ctx context.Context, b *BookingRequest) error {
	return r.bookings.Create(ctx, b)
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*BookingRequest, error) {
	return r.bookings.Get(ctx, id)
}

func (r *gormRepository) Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*BookingRequest, error) {
	return r.bookings.Update(ctx, id, changes)
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.bookings.Delete(ctx, id)
}

func (r *gormRepository) List(ctx context.Context, queries ...gateway.Query) ([]BookingRequest, error) {
	return r.bookings.List(ctx, queries...)
}

func (r *gormRepository) Count(ctx context.Context, queries ...gateway.Query) (int64, error) {
	return r.bookings.Count(ctx, queries...)
}

func (r *gormRepository) Subscribe(handler gateway.Handler) gateway.Subscription {
	return r.bookings.Subscribe(handler)
}
