package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"estate_marketplace_backend/internal/gateway"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMiddleware_CountsRequestsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(nil)
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/properties/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/properties/"+uuid.NewString(), nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestCounter.WithLabelValues(http.MethodGet, "/properties/:id", "200")))
}

func TestInstrumentBroker_CountsPublishedEvents(t *testing.T) {
	local := gateway.NewMemoryBroker(4, zap.NewNop())
	m := New(local)
	broker := m.InstrumentBroker(local)

	ev, err := gateway.NewEvent("favorites", gateway.EventCreate, uuid.New(), struct{}{})
	require.NoError(t, err)
	require.NoError(t, broker.Publish(context.Background(), ev))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.gatewayEvents.WithLabelValues("favorites", "create")))

	sub := broker.Subscribe("favorites", func(gateway.Event) {})
	defer sub.Unsubscribe()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "marketplace_realtime_subscriptions 1"))
}
