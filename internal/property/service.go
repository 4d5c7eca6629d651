package property

import (
	"context"
	"encoding/json"
	"errors"

	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/gateway"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

const (
	DefaultListLimit = 100
	LatestLimit      = 5
	profileBatchSize = 100
)

// FavoriteChecker reports whether an account favorited properties.
type FavoriteChecker interface {
	IsFavorite(ctx context.Context, propertyID, userID uuid.UUID) (bool, uuid.UUID, error)
	FavoritedIDs(ctx context.Context, userID uuid.UUID, propertyIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

// Service defines property operations.
type Service interface {
	Create(ctx context.Context, profileID uuid.UUID, req CreatePropertyRequest) (*Property, error)
	GetByID(ctx context.Context, id, viewerAccountID uuid.UUID) *PropertyResponse
	Annotate(ctx context.Context, props []Property, viewerAccountID uuid.UUID) []*PropertyResponse
	List(ctx context.Context, params ListParams) []Property
	Latest(ctx context.Context) []Property
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]Property, error)
	Delete(ctx context.Context, id, profileID uuid.UUID) error
	SearchText(ctx context.Context, term string, price PriceRange, limit int) ([]Property, error)
}

type service struct {
	repo      Repository
	favorites FavoriteChecker
	logger    *zap.Logger
}

func NewService(repo Repository, favorites FavoriteChecker, logger *zap.Logger) Service {
	return &service{repo: repo, favorites: favorites, logger: logger.Named("PropertyService")}
}

func (s *service) Create(ctx context.Context, profileID uuid.UUID, req CreatePropertyRequest) (*Property, error) {
	if profileID == uuid.Nil {
		return nil, common.ErrForbidden.WithDetails("A profile is required to list a property.")
	}
	details, err := json.Marshal(req.Details)
	if err != nil {
		return nil, common.ErrBadRequest.WithDetails("Invalid property details.")
	}
	meta, err := json.Marshal(Meta{
		Type:        req.Meta.Type,
		Mode:        req.Meta.Mode,
		Facilities:  req.Meta.Facilities,
		Geolocation: req.Meta.Geolocation,
	})
	if err != nil {
		return nil, common.ErrBadRequest.WithDetails("Invalid property meta.")
	}

	p := &Property{
		Name:          req.Name,
		Description:   req.Description,
		Address:       req.Address,
		Price:         req.Price,
		Rating:        req.Rating,
		Images:        req.Images,
		Gallery:       req.Gallery,
		Details:       string(details),
		Meta:          string(meta),
		UserProfileID: profileID,
	}
	p.ID = uuid.New()
	p.Slug = slug.Make(req.Name) + "-" + p.ID.String()[:8]

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("Failed to create property", zap.String("profileID", profileID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not create property.")
	}
	s.logger.Info("Property created", zap.String("propertyID", p.ID.String()), zap.String("slug", p.Slug))
	return p, nil
}

// GetByID returns nil when the property is missing or cannot be read.
func (s *service) GetByID(ctx context.Context, id, viewerAccountID uuid.UUID) *PropertyResponse {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error("Failed to load property", zap.String("propertyID", id.String()), zap.Error(err))
		}
		return nil
	}
	resp := ToPropertyResponse(p)
	if viewerAccountID != uuid.Nil && s.favorites != nil {
		fav, _, err := s.favorites.IsFavorite(ctx, id, viewerAccountID)
		if err != nil {
			s.logger.Warn("Favorite lookup failed", zap.String("propertyID", id.String()), zap.Error(err))
		}
		resp.IsFavorite = fav
	}
	return resp
}

// Annotate converts props to responses with is_favorite set for the viewer.
// A failed lookup leaves every flag false.
func (s *service) Annotate(ctx context.Context, props []Property, viewerAccountID uuid.UUID) []*PropertyResponse {
	out := ToPropertyResponses(props)
	if viewerAccountID == uuid.Nil || s.favorites == nil || len(out) == 0 {
		return out
	}
	ids := make([]uuid.UUID, len(props))
	for i := range props {
		ids[i] = props[i].ID
	}
	favorited, err := s.favorites.FavoritedIDs(ctx, viewerAccountID, ids)
	if err != nil {
		s.logger.Warn("Favorite lookup failed", zap.String("viewer", viewerAccountID.String()), zap.Error(err))
		return out
	}
	for _, resp := range out {
		resp.IsFavorite = favorited[resp.ID]
	}
	return out
}

// List returns properties newest first. Errors yield an empty list.
func (s *service) List(ctx context.Context, params ListParams) []Property {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	queries := []gateway.Query{gateway.OrderDesc("created_at")}
	if params.Query != "" {
		queries = append(queries, gateway.Or(
			gateway.Search("name", params.Query),
			gateway.Search("address", params.Query),
		))
	}
	queries = append(queries, gateway.Limit(limit), gateway.Offset(params.Offset))

	props, err := s.repo.List(ctx, queries...)
	if err != nil {
		s.logger.Error("Failed to list properties", zap.String("query", params.Query), zap.Error(err))
		return []Property{}
	}

	if params.Filter == "" || params.Filter == FilterAll {
		return props
	}
	filtered := make([]Property, 0, len(props))
	for i := range props {
		if props[i].ParsedMeta().Type == params.Filter {
			filtered = append(filtered, props[i])
		}
	}
	return filtered
}

func (s *service) Latest(ctx context.Context) []Property {
	props, err := s.repo.List(ctx, gateway.OrderDesc("created_at"), gateway.Limit(LatestLimit))
	if err != nil {
		s.logger.Error("Failed to list latest properties", zap.Error(err))
		return []Property{}
	}
	return props
}

// ListByProfile pages through every property of profileID.
func (s *service) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]Property, error) {
	var all []Property
	for offset := 0; ; offset += profileBatchSize {
		batch, err := s.repo.List(ctx,
			gateway.Equal("user_profile_id", profileID),
			gateway.OrderAsc("created_at"),
			gateway.Limit(profileBatchSize),
			gateway.Offset(offset),
		)
		if err != nil {
			s.logger.Error("Failed to list profile properties", zap.String("profileID", profileID.String()), zap.Error(err))
			return nil, common.ErrInternalServer.WithDetails("Could not load properties.")
		}
		all = append(all, batch...)
		if len(batch) < profileBatchSize {
			break
		}
	}
	if all == nil {
		all = []Property{}
	}
	return all, nil
}

func (s *service) Delete(ctx context.Context, id, profileID uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound.WithDetails("Property not found.")
		}
		s.logger.Error("Failed to load property for delete", zap.String("propertyID", id.String()), zap.Error(err))
		return common.ErrInternalServer.WithDetails("Could not delete property.")
	}
	if p.UserProfileID != profileID {
		return common.ErrForbidden.WithDetails("Only the owner can delete this property.")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound.WithDetails("Property not found.")
		}
		s.logger.Error("Failed to delete property", zap.String("propertyID", id.String()), zap.Error(err))
		return common.ErrInternalServer.WithDetails("Could not delete property.")
	}
	s.logger.Info("Property deleted", zap.String("propertyID", id.String()))
	return nil
}

// SearchText matches term against the text fields, including the raw details
// and meta JSON, with the price bounds applied by the store.
func (s *service) SearchText(ctx context.Context, term string, price PriceRange, limit int) ([]Property, error) {
	queries := []gateway.Query{gateway.OrderDesc("created_at")}
	if term != "" {
		queries = append(queries, gateway.Or(
			gateway.Search("name", term),
			gateway.Search("description", term),
			gateway.Search("address", term),
			gateway.Search("details", term),
			gateway.Search("meta", term),
		))
	}
	if price.Min != nil {
		queries = append(queries, gateway.GreaterThanEqual("price", *price.Min))
	}
	if price.Max != nil {
		queries = append(queries, gateway.LessThanEqual("price", *price.Max))
	}
	if limit > 0 {
		queries = append(queries, gateway.Limit(limit))
	}
	return s.repo.List(ctx, queries...)
}
