package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestMemoryBroker_DeliversInOrderPerCollection(t *testing.T) {
	b := NewMemoryBroker(16, zap.NewNop())
	rec := &recorder{}
	sub := b.Subscribe("messages", rec.handle)
	defer sub.Unsubscribe()
	other := &recorder{}
	otherSub := b.Subscribe("chats", other.handle)
	defer otherSub.Unsubscribe()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		ev, err := NewEvent("messages", EventCreate, id, map[string]string{"id": id.String()})
		require.NoError(t, err)
		require.NoError(t, b.Publish(context.Background(), ev))
	}

	require.Eventually(t, func() bool { return rec.len() == 3 }, time.Second, 5*time.Millisecond)
	for i, ev := range rec.snapshot() {
		assert.Equal(t, ids[i], ev.DocumentID)
	}
	assert.Equal(t, 0, other.len())
}

func TestMemoryBroker_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewMemoryBroker(16, zap.NewNop())
	rec := &recorder{}
	sub := b.Subscribe("bookings", rec.handle)
	assert.EqualValues(t, 1, b.SubscriberCount())

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.EqualValues(t, 0, b.SubscriberCount())

	ev, err := NewEvent("bookings", EventUpdate, uuid.New(), struct{}{})
	require.NoError(t, err)
	require.NoError(t, b.Publish(context.Background(), ev))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, rec.len())
}

func TestMemoryBroker_UnsubscribeDuringDelivery(t *testing.T) {
	b := NewMemoryBroker(16, zap.NewNop())
	rec := &recorder{}
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	sub := b.Subscribe("messages", func(ev Event) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		rec.handle(ev)
	})

	for i := 0; i < 3; i++ {
		ev, err := NewEvent("messages", EventCreate, uuid.New(), struct{}{})
		require.NoError(t, err)
		require.NoError(t, b.Publish(context.Background(), ev))
	}

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
	sub.Unsubscribe()
	close(release)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, rec.len())
	assert.EqualValues(t, 0, b.SubscriberCount())
}

func TestMemoryBroker_UnsubscribeFromInsideHandler(t *testing.T) {
	b := NewMemoryBroker(16, zap.NewNop())
	done := make(chan struct{})
	var sub Subscription
	var once sync.Once
	sub = b.Subscribe("chats", func(Event) {
		sub.Unsubscribe()
		once.Do(func() { close(done) })
	})

	ev, err := NewEvent("chats", EventDelete, uuid.New(), struct{}{})
	require.NoError(t, err)
	require.NoError(t, b.Publish(context.Background(), ev))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
	require.Eventually(t, func() bool { return b.SubscriberCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestEvent_Decode(t *testing.T) {
	ev, err := NewEvent("messages", EventCreate, uuid.New(), map[string]string{"content": "hi"})
	require.NoError(t, err)

	var payload struct {
		Content string `json:"content"`
	}
	require.NoError(t, ev.Decode(&payload))
	assert.Equal(t, "hi", payload.Content)
}
