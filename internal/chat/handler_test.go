package chat

import (
	"bufio"
	"context"
	"encoding/json"
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

type sseEvent struct {
	name string
	data string
}

// readEvents parses the server-sent events of body onto the returned channel
// until the body is closed.
func readEvents(body *bufio.Scanner) <-chan sseEvent {
	out := make(chan sseEvent, 16)
	go func() {
		defer close(out)
		var ev sseEvent
		for body.Scan() {
			line := body.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				ev.name = strings.TrimPrefix(line, "event:")
			case strings.HasPrefix(line, "data:"):
				ev.data = strings.TrimPrefix(line, "data:")
			case line == "" && ev.name != "":
				out <- ev
				ev = sseEvent{}
			}
		}
	}()
	return out
}

func nextEvent(t *testing.T, events <-chan sseEvent) sseEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "stream closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
	return sseEvent{}
}

func TestHandler_Stream_DeliversSentMessageOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	c, err := ts.service.GetOrCreate(ctx, ts.alice, ts.bob)
	require.NoError(t, err)
	_, err = ts.service.Send(ctx, c.ID, ts.alice, "Hello")
	require.NoError(t, err)

	authMW := func(gc *gin.Context) {
		gc.Set(common.AccountIDKey, ts.bob)
		gc.Next()
	}
	router := gin.New()
	NewHandler(ts.service, zap.NewNop()).RegisterRoutes(router.Group("/api/v1"), authMW)
	srv := httptest.NewServer(router)
	defer srv.Close()

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, srv.URL+"/api/v1/chats/"+c.ID.String()+"/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events := readEvents(bufio.NewScanner(resp.Body))

	history := nextEvent(t, events)
	assert.Equal(t, "history", history.name)
	var past []Message
	require.NoError(t, json.Unmarshal([]byte(history.data), &past))
	require.Len(t, past, 1)
	assert.Equal(t, "Hello", past[0].Content)
	assert.EqualValues(t, 1, ts.broker.SubscriberCount())

	sent, err := ts.service.Send(ctx, c.ID, ts.alice, "Still available?")
	require.NoError(t, err)

	live := nextEvent(t, events)
	assert.Equal(t, "message", live.name)
	var got Message
	require.NoError(t, json.Unmarshal([]byte(live.data), &got))
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, "Still available?", got.Content)

	select {
	case ev := <-events:
		t.Fatalf("unexpected extra event %q", ev.name)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	require.Eventually(t, func() bool { return ts.broker.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_Stream_RejectsOutsider(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ts := setupChatServiceTestSuite(t)
	c, err := ts.service.GetOrCreate(context.Background(), ts.alice, ts.bob)
	require.NoError(t, err)

	outsider := uuid.New()
	authMW := func(gc *gin.Context) {
		gc.Set(common.AccountIDKey, outsider)
		gc.Next()
	}
	router := gin.New()
	NewHandler(ts.service, zap.NewNop()).RegisterRoutes(router.Group("/api/v1"), authMW)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/chats/"+c.ID.String()+"/stream", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.EqualValues(t, 0, ts.broker.SubscriberCount())
}
