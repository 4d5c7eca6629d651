package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"estate_marketplace_backend/internal/booking"
	"estate_marketplace_backend/internal/chat"
	"estate_marketplace_backend/internal/config"
	"estate_marketplace_backend/internal/favorite"
	"estate_marketplace_backend/internal/filestorage"
	"estate_marketplace_backend/internal/firebase"
	"estate_marketplace_backend/internal/gateway"
	"estate_marketplace_backend/internal/identity"
	"estate_marketplace_backend/internal/notification"
	"estate_marketplace_backend/internal/platform/database"
	"estate_marketplace_backend/internal/platform/metrics"
	"estate_marketplace_backend/internal/profile"
	"estate_marketplace_backend/internal/property"
	"estate_marketplace_backend/internal/search"
	"estate_marketplace_backend/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()
	cfg := &config.Config{
		GinMode:       "test",
		ServerHost:    "127.0.0.1",
		ServerPort:    "0",
		StoragePath:   t.TempDir(),
		JWTSecretKey:  "test-secret",
		JWTIssuer:     "marketplace-test",
		SessionExpiry: time.Hour,
	}

	db, err := database.NewTestDB(Models()...)
	require.NoError(t, err)
	local := gateway.NewMemoryBroker(16, logger)
	m := metrics.New(local)
	broker := m.InstrumentBroker(local)

	verifier, err := firebase.NewService(cfg, logger)
	require.NoError(t, err)
	files, err := filestorage.NewService(cfg, db, broker, logger)
	require.NoError(t, err)

	profiles := profile.NewService(profile.NewGORMRepository(db, broker, logger), files, logger)
	accounts := identity.NewService(cfg, identity.NewGORMRepository(db, broker, logger), verifier, profiles,
		identity.NewTokenService(cfg, logger), identity.NewRevocationCache(time.Minute), logger)

	propertyRepo := property.NewGORMRepository(db, broker, logger)
	favorites := favorite.NewService(favorite.NewGORMRepository(db, broker, logger), propertyRepo, favorite.NewMemoryChangeSignal(), logger)
	properties := property.NewService(propertyRepo, favorites, logger)
	bookings := booking.NewService(booking.NewGORMRepository(db, broker, logger), propertyRepo, logger)
	chats := chat.NewService(chat.NewGORMRepository(db, broker, logger), profiles, 0, logger)

	handlers := &Handlers{
		Identity:     identity.NewHandler(accounts, logger),
		Session:      session.NewHandler(),
		Profile:      profile.NewHandler(profiles, logger),
		Property:     property.NewHandler(properties, logger),
		Favorite:     favorite.NewHandler(favorites, logger),
		Booking:      booking.NewHandler(bookings, logger),
		Notification: notification.NewHandler(notification.NewService(bookings, propertyRepo, logger), logger),
		Chat:         chat.NewHandler(chats, logger),
		Search:       search.NewHandler(search.NewService(profiles, search.NewStoreSearcher(properties), properties, logger), logger),
		Files:        filestorage.NewHandler(files, logger),
	}

	server, err := NewServer(cfg, logger, m, accounts, accounts, profiles, handlers, nil, nil, nil)
	require.NoError(t, err)
	return server
}

func TestServer_Health(t *testing.T) {
	server := newTestServer(t)

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"UP"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServer_ProtectedRoutesRequireToken(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/api/v1/notifications", "/api/v1/chats", "/api/v1/search?q=loft"} {
		w := httptest.NewRecorder()
		server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	server := newTestServer(t)

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "marketplace_http_requests_total"))
}

func TestServer_ShutdownEndsOpenStreams(t *testing.T) {
	server := newTestServer(t)
	streamEnded := make(chan struct{})
	server.Router().GET("/hold", func(c *gin.Context) {
		defer close(streamEnded)
		c.Status(http.StatusOK)
		c.Writer.Flush()
		c.Stream(func(io.Writer) bool {
			<-c.Request.Context().Done()
			return false
		})
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- server.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/hold")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, server.Shutdown(ctx))
	assert.Less(t, time.Since(start), 2*time.Second)

	select {
	case <-streamEnded:
	case <-time.After(time.Second):
		t.Fatal("stream handler still running after shutdown")
	}
	assert.NoError(t, <-served)
}
