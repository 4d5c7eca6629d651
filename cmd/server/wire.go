//go:build wireinject
// +build wireinject

package main

import (
	"estate_marketplace_backend/internal/app"
	"estate_marketplace_backend/internal/booking"
	"estate_marketplace_backend/internal/chat"
	"estate_marketplace_backend/internal/config"
	"estate_marketplace_backend/internal/favorite"
	"estate_marketplace_backend/internal/filestorage"
	"estate_marketplace_backend/internal/firebase"
	"estate_marketplace_backend/internal/identity"
	"estate_marketplace_backend/internal/jobs"
	"estate_marketplace_backend/internal/middleware"
	"estate_marketplace_backend/internal/notification"
	platformes "estate_marketplace_backend/internal/platform/elasticsearch"
	"estate_marketplace_backend/internal/profile"
	"estate_marketplace_backend/internal/property"
	"estate_marketplace_backend/internal/search"
	"estate_marketplace_backend/internal/session"

	"github.com/google/wire"
)

var platformSet = wire.NewSet(
	provideLogger,
	provideDatabase,
	provideMemoryBroker,
	provideMetrics,
	provideBroker,
	provideRedis,
	platformes.NewClient,
)

var identitySet = wire.NewSet(
	firebase.NewService,
	wire.Bind(new(identity.TokenVerifier), new(*firebase.Service)),
	identity.NewGORMRepository,
	identity.NewTokenService,
	provideRevocationCache,
	identity.NewService,
	wire.Bind(new(identity.ProfileProvisioner), new(profile.Service)),
	wire.Bind(new(middleware.Authenticator), new(identity.Service)),
	wire.Bind(new(session.AccountLoader), new(identity.Service)),
	wire.Bind(new(session.ProfileLoader), new(profile.Service)),
	identity.NewHandler,
	session.NewHandler,
)

var domainSet = wire.NewSet(
	filestorage.NewService,
	filestorage.NewHandler,
	wire.Bind(new(profile.FileUploader), new(*filestorage.Service)),

	profile.NewGORMRepository,
	profile.NewService,
	profile.NewHandler,

	property.NewGORMRepository,
	property.NewService,
	property.NewHandler,
	wire.Bind(new(property.FavoriteChecker), new(favorite.Service)),

	favorite.NewGORMRepository,
	favorite.NewChangeSignal,
	favorite.NewService,
	favorite.NewHandler,
	wire.Bind(new(favorite.PropertyLoader), new(property.Repository)),

	booking.NewGORMRepository,
	booking.NewService,
	booking.NewHandler,
	wire.Bind(new(booking.PropertyLoader), new(property.Repository)),

	notification.NewService,
	notification.NewHandler,
	wire.Bind(new(notification.PropertyLoader), new(property.Repository)),

	chat.NewGORMRepository,
	provideChatService,
	chat.NewHandler,

	providePropertySearcher,
	providePropertyIndexer,
	search.NewService,
	search.NewHandler,
	wire.Bind(new(search.UserSearcher), new(profile.Service)),
	wire.Bind(new(search.PropertyAnnotator), new(property.Service)),

	jobs.NewEmptyChatSweepJob,
	wire.Bind(new(jobs.ChatSweeper), new(chat.Service)),
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		platformSet,
		identitySet,
		domainSet,
		wire.Struct(new(app.Handlers), "*"),
		app.NewServer,
	)
	return nil, nil, nil
}
