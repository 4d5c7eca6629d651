package notification

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"estate_marketplace_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// unreadCounts yields the data line of every "unread" event in body.
func unreadCounts(body *bufio.Scanner) <-chan string {
	out := make(chan string, 16)
	go func() {
		defer close(out)
		unread := false
		for body.Scan() {
			line := body.Text()
			switch {
			case line == "event:unread":
				unread = true
			case unread && strings.HasPrefix(line, "data:"):
				out <- strings.TrimSpace(strings.TrimPrefix(line, "data:"))
				unread = false
			}
		}
	}()
	return out
}

func nextCount(t *testing.T, counts <-chan string) string {
	t.Helper()
	select {
	case n, ok := <-counts:
		require.True(t, ok, "stream closed")
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("no unread event received")
	}
	return ""
}

func streamRouter(ts *NotificationServiceTestSuite, profileID uuid.UUID) *gin.Engine {
	authMW := func(c *gin.Context) {
		c.Set(common.ProfileIDKey, profileID)
		c.Next()
	}
	router := gin.New()
	NewHandler(ts.service, zap.NewNop()).RegisterRoutes(router.Group("/api/v1"), authMW)
	return router
}

func TestHandler_Stream_PushesRecountOnBooking(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ts := setupNotificationServiceTestSuite(t)
	srv := httptest.NewServer(streamRouter(ts, ts.owner))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/notifications/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	counts := unreadCounts(bufio.NewScanner(resp.Body))

	assert.Equal(t, `{"count":0}`, nextCount(t, counts))
	assert.EqualValues(t, 1, ts.broker.SubscriberCount())

	_, err = ts.bookings.Create(context.Background(), uuid.New(), ts.guest, ts.owner)
	require.NoError(t, err)
	assert.Equal(t, `{"count":1}`, nextCount(t, counts))

	select {
	case n := <-counts:
		t.Fatalf("unexpected extra unread event %s", n)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	require.Eventually(t, func() bool { return ts.broker.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_Stream_RequiresProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ts := setupNotificationServiceTestSuite(t)

	w := httptest.NewRecorder()
	streamRouter(ts, uuid.Nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/notifications/stream", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.EqualValues(t, 0, ts.broker.SubscriberCount())
}
