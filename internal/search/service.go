package search

import (
	"context"

	"estate_marketplace_backend/internal/profile"
	"estate_marketplace_backend/internal/property"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UserSearcher finds profiles by name or email.
type UserSearcher interface {
	Search(ctx context.Context, term string, limit int) ([]profile.UserProfile, error)
}

// PropertyAnnotator renders properties with the viewer's favorite flags.
type PropertyAnnotator interface {
	Annotate(ctx context.Context, props []property.Property, viewerAccountID uuid.UUID) []*property.PropertyResponse
}

type Service interface {
	Universal(ctx context.Context, viewerAccountID uuid.UUID, f Filters) []Result
}

type service struct {
	users      UserSearcher
	properties PropertySearcher
	annotator  PropertyAnnotator
	logger     *zap.Logger
}

func NewService(users UserSearcher, properties PropertySearcher, annotator PropertyAnnotator, logger *zap.Logger) Service {
	return &service{users: users, properties: properties, annotator: annotator, logger: logger.Named("SearchService")}
}

// Universal searches users and properties concurrently and returns users first,
// then the properties passing the structured filters. Any failure yields an
// empty result.
func (s *service) Universal(ctx context.Context, viewerAccountID uuid.UUID, f Filters) []Result {
	var (
		users []profile.UserProfile
		props []property.Property
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.users.Search(gctx, f.Query, UserResultLimit)
		return err
	})
	g.Go(func() error {
		var err error
		props, err = s.properties.Search(gctx, f.Query, f.PriceRange(), PropertyResultLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Universal search failed", zap.String("query", f.Query), zap.Error(err))
		return []Result{}
	}

	out := make([]Result, 0, len(users)+len(props))
	for i := range users {
		out = append(out, Result{Type: ResultUser, User: profile.ToProfileResponse(&users[i])})
	}
	matched := make([]property.Property, 0, len(props))
	for i := range props {
		if f.Match(&props[i]) {
			matched = append(matched, props[i])
		}
	}
	var resps []*property.PropertyResponse
	if s.annotator != nil {
		resps = s.annotator.Annotate(ctx, matched, viewerAccountID)
	} else {
		resps = property.ToPropertyResponses(matched)
	}
	for _, resp := range resps {
		out = append(out, Result{Type: ResultProperty, Property: resp})
	}
	return out
}
