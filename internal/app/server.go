package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"estate_marketplace_backend/internal/booking"
	"estate_marketplace_backend/internal/chat"
	"estate_marketplace_backend/internal/config"
	"estate_marketplace_backend/internal/favorite"
	"estate_marketplace_backend/internal/filestorage"
	"estate_marketplace_backend/internal/gateway"
	"estate_marketplace_backend/internal/identity"
	"estate_marketplace_backend/internal/jobs"
	"estate_marketplace_backend/internal/middleware"
	"estate_marketplace_backend/internal/notification"
	platformes "estate_marketplace_backend/internal/platform/elasticsearch"
	"estate_marketplace_backend/internal/platform/metrics"
	"estate_marketplace_backend/internal/profile"
	"estate_marketplace_backend/internal/property"
	"estate_marketplace_backend/internal/search"
	"estate_marketplace_backend/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Models lists every persisted model, in migration order.
func Models() []interface{} {
	return []interface{}{
		&identity.Account{},
		&identity.Session{},
		&profile.UserProfile{},
		&property.Property{},
		&favorite.Favorite{},
		&booking.BookingRequest{},
		&chat.Chat{},
		&chat.Message{},
		&filestorage.StoredFile{},
	}
}

// Handlers groups the HTTP handlers mounted under /api/v1.
type Handlers struct {
	Identity     *identity.Handler
	Session      *session.Handler
	Profile      *profile.Handler
	Property     *property.Handler
	Favorite     *favorite.Handler
	Booking      *booking.Handler
	Notification *notification.Handler
	Chat         *chat.Handler
	Search       *search.Handler
	Files        *filestorage.Handler
}

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	// cancelRequests ends the context of every in-flight request, which lets
	// open event streams return before Shutdown waits on them.
	cancelRequests context.CancelFunc
	router         *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	sweepJob *jobs.EmptyChatSweepJob
	es       *platformes.ESClientWrapper
	indexer  *search.PropertyIndexer
	indexSub gateway.Subscription
}

// NewServer creates a new instance of our application server. indexer and es
// may be nil when search indexing is not configured.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
	auth middleware.Authenticator,
	accounts session.AccountLoader,
	profiles session.ProfileLoader,
	handlers *Handlers,
	sweepJob *jobs.EmptyChatSweepJob,
	es *platformes.ESClientWrapper,
	indexer *search.PropertyIndexer,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())
	router.Use(m.Middleware())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(auth, accounts, profiles, logger)

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Marketplace API is healthy!"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))
	handlers.Files.RegisterPublicRoutes(router)

	v1 := router.Group("/api/v1")
	handlers.Identity.RegisterRoutes(v1, authMW)
	handlers.Session.RegisterRoutes(v1, authMW)
	handlers.Profile.RegisterRoutes(v1, authMW)
	handlers.Property.RegisterRoutes(v1, authMW)
	handlers.Favorite.RegisterRoutes(v1, authMW)
	handlers.Booking.RegisterRoutes(v1, authMW)
	handlers.Notification.RegisterRoutes(v1, authMW)
	handlers.Chat.RegisterRoutes(v1, authMW)
	handlers.Search.RegisterRoutes(v1, authMW)
	handlers.Files.RegisterRoutes(v1, authMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
		ReadTimeout: 15 * time.Second,
		// Streaming endpoints hold the response open, so writes are not bounded here.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:     httpServer,
		cancelRequests: cancelRequests,
		router:         router,
		cfg:            cfg,
		logger:         logger,
		sweepJob:       sweepJob,
		es:             es,
		indexer:        indexer,
	}, nil
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	return s.Serve(ln)
}

// Serve starts the background jobs and serves HTTP on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if s.sweepJob != nil {
		if err := s.sweepJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start empty chat sweep", zap.Error(err))
		}
	}

	if s.es != nil && s.indexer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := platformes.CreatePropertiesIndexIfNotExists(ctx, s.es, s.logger); err != nil {
			s.logger.Error("Failed to create Elasticsearch properties index", zap.Error(err))
		}
		cancel()
		s.indexSub = s.indexer.Watch()
	} else {
		s.logger.Info("Search indexing is not configured, skipping property index sync.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", ln.Addr().String()),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.sweepJob != nil {
		s.sweepJob.Stop()
	}
	if s.indexSub != nil {
		s.indexSub.Unsubscribe()
	}
	s.cancelRequests()
	return s.httpServer.Shutdown(ctx)
}
