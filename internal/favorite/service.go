package favorite

import (
	"context"
	"errors"

	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/property"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PropertyLoader resolves favorited properties.
type PropertyLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]property.Property, error)
}

// Service defines favorite operations.
type Service interface {
	IsFavorite(ctx context.Context, propertyID, userID uuid.UUID) (bool, uuid.UUID, error)
	FavoritedIDs(ctx context.Context, userID uuid.UUID, propertyIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	Add(ctx context.Context, propertyID, userID uuid.UUID) (*Favorite, error)
	Remove(ctx context.Context, favoriteID, userID uuid.UUID) error
	Toggle(ctx context.Context, propertyID, userID uuid.UUID) (*Status, error)
	ListProperties(ctx context.Context, userID uuid.UUID) ([]property.Property, error)
	Version(ctx context.Context) (int64, error)
}

type service struct {
	repo       Repository
	properties PropertyLoader
	signal     ChangeSignal
	logger     *zap.Logger
}

func NewService(repo Repository, properties PropertyLoader, signal ChangeSignal, logger *zap.Logger) Service {
	return &service{repo: repo, properties: properties, signal: signal, logger: logger.Named("FavoriteService")}
}

// IsFavorite reports whether userID favorited propertyID and, if so, the id of
// the oldest matching record.
func (s *service) IsFavorite(ctx context.Context, propertyID, userID uuid.UUID) (bool, uuid.UUID, error) {
	favs, err := s.repo.FindByUserAndProperty(ctx, userID, propertyID)
	if err != nil {
		s.logger.Error("Failed to check favorite", zap.String("propertyID", propertyID.String()), zap.Error(err))
		return false, uuid.Nil, common.ErrInternalServer.WithDetails("Could not check favorite.")
	}
	if len(favs) == 0 {
		return false, uuid.Nil, nil
	}
	return true, favs[0].ID, nil
}

// FavoritedIDs reports which of propertyIDs userID has favorited, in one read.
func (s *service) FavoritedIDs(ctx context.Context, userID uuid.UUID, propertyIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(propertyIDs))
	if len(propertyIDs) == 0 {
		return out, nil
	}
	favs, err := s.repo.ListByUserAndProperties(ctx, userID, propertyIDs)
	if err != nil {
		s.logger.Error("Failed to check favorites", zap.String("userID", userID.String()), zap.Error(err))
		return out, common.ErrInternalServer.WithDetails("Could not check favorites.")
	}
	for _, f := range favs {
		out[f.PropertyID] = true
	}
	return out, nil
}

func (s *service) Add(ctx context.Context, propertyID, userID uuid.UUID) (*Favorite, error) {
	f := &Favorite{UserID: userID, PropertyID: propertyID}
	if err := s.repo.Create(ctx, f); err != nil {
		s.logger.Error("Failed to add favorite", zap.String("propertyID", propertyID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not add favorite.")
	}
	s.bump(ctx)
	return f, nil
}

func (s *service) Remove(ctx context.Context, favoriteID, userID uuid.UUID) error {
	f, err := s.repo.FindByID(ctx, favoriteID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound.WithDetails("Favorite not found.")
		}
		s.logger.Error("Failed to load favorite", zap.String("favoriteID", favoriteID.String()), zap.Error(err))
		return common.ErrInternalServer.WithDetails("Could not remove favorite.")
	}
	if f.UserID != userID {
		return common.ErrForbidden.WithDetails("This favorite belongs to another account.")
	}
	if err := s.repo.Delete(ctx, favoriteID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound.WithDetails("Favorite not found.")
		}
		s.logger.Error("Failed to remove favorite", zap.String("favoriteID", favoriteID.String()), zap.Error(err))
		return common.ErrInternalServer.WithDetails("Could not remove favorite.")
	}
	s.bump(ctx)
	return nil
}

// Toggle loads the current state and flips it. Two concurrent toggles can both
// create or both delete; nothing guards against that.
func (s *service) Toggle(ctx context.Context, propertyID, userID uuid.UUID) (*Status, error) {
	t, err := NewToggler(ctx, s, propertyID, userID, s.logger)
	if err != nil {
		return nil, err
	}
	if err := t.Toggle(ctx); err != nil {
		return nil, err
	}
	st := t.Status()
	return &st, nil
}

// ListProperties returns the favorited properties of userID, most recently
// favorited first. Duplicates collapse and deleted properties are skipped.
func (s *service) ListProperties(ctx context.Context, userID uuid.UUID) ([]property.Property, error) {
	favs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list favorites", zap.String("userID", userID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load favorites.")
	}

	seen := make(map[uuid.UUID]struct{}, len(favs))
	ids := make([]uuid.UUID, 0, len(favs))
	for _, f := range favs {
		if _, dup := seen[f.PropertyID]; dup {
			continue
		}
		seen[f.PropertyID] = struct{}{}
		ids = append(ids, f.PropertyID)
	}
	if len(ids) == 0 {
		return []property.Property{}, nil
	}

	props, err := s.properties.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to load favorited properties", zap.String("userID", userID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load favorites.")
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

func (s *service) Version(ctx context.Context) (int64, error) {
	v, err := s.signal.Version(ctx)
	if err != nil {
		s.logger.Error("Failed to read favorites version", zap.Error(err))
		return 0, common.ErrServiceUnavailable.WithDetails("Favorites version is unavailable.")
	}
	return v, nil
}

func (s *service) bump(ctx context.Context) {
	if _, err := s.signal.Bump(ctx); err != nil {
		s.logger.Warn("Failed to bump favorites version", zap.Error(err))
	}
}
