package identity

import (
	"context"
	"time"

	"estate_marketplace_backend/internal/gateway"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repository stores accounts and sessions.
type Repository interface {
	FindAccountByFirebaseUID(ctx context.Context, uid string) (*Account, error)
	FindAccountByID(ctx context.Context, id uuid.UUID) (*Account, error)
	CreateAccount(ctx context.Context, a *Account) error
	UpdateAccount(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*Account, error)
	CreateSession(ctx context.Context, s *Session) error
	FindSession(ctx context.Context, id uuid.UUID) (*Session, error)
	RevokeSession(ctx context.Context, id uuid.UUID, at time.Time) (*Session, error)
}

type gormRepository struct {
	accounts *gateway.Collection[Account, *Account]
	sessions *gateway.Collection[Session, *Session]
}

// NewGORMRepository creates an identity repository on the document store.
func NewGORMRepository(db *gorm.DB, broker gateway.Broker, logger *zap.Logger) Repository {
	return &gormRepository{
		accounts: gateway.NewCollection[Account](db, broker, logger, AccountCollection, "firebase_uid", "email", "name", "avatar"),
		// Session changes carry nothing subscribers need.
		sessions: gateway.NewCollection[Session](db, nil, logger, SessionCollection, "account_id", "expires_at", "revoked_at"),
	}
}

func (r *gormRepository) FindAccountByFirebaseUID(ctx context.Context, uid string) (*Account, error) {
	return r.accounts.First(ctx, gateway.Equal("firebase_uid", uid))
}

func (r *gormRepository) FindAccountByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.accounts.Get(ctx, id)
}

func (r *gormRepository) CreateAccount(ctx context.Context, a *Account) error {
	return r.accounts.Create(ctx, a)
}

func (r *gormRepository) UpdateAccount(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*Account, error) {
	return r.accounts.Update(ctx, id, changes)
}

func (r *gormRepository) CreateSession(ctx context.Context, s *Session) error {
	return r.sessions.Create(ctx, s)
}

func (r *gormRepository) FindSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	return r.sessions.Get(ctx, id)
}

func (r *gormRepository) RevokeSession(ctx context.Context, id uuid.UUID, at time.Time) (*Session, error) {
	return r.sessions.Update(ctx, id, map[string]interface{}{"revoked_at": at})
}
