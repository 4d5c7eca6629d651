package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventType is the kind of change carried by an Event.
type EventType string

const (
	EventCreate EventType = "create"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event is one entry of a collection's change stream.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Collection string          `json:"collection"`
	Type       EventType       `json:"type"`
	DocumentID uuid.UUID       `json:"document_id"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Decode unmarshals the affected document into v.
func (e Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Handler receives events for one subscription, in publish order.
type Handler func(Event)

// Subscription is a live registration on a collection's change stream.
type Subscription interface {
	// Unsubscribe stops delivery. It is safe to call more than once and from inside
	// the handler. Events not yet handed to the handler are discarded; at most one
	// delivery already in flight may still complete after it returns.
	Unsubscribe()
}

// Broker publishes change events and fans them out to subscribers.
type Broker interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(collection string, handler Handler) Subscription
}

// MemoryBroker is an in-process Broker. Each subscriber owns a bounded buffer and a
// delivery goroutine; when the buffer is full further events for that subscriber are
// dropped and logged.
type MemoryBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[uuid.UUID]*subscriber
	bufferSize  int
	count       atomic.Int64
	logger      *zap.Logger
}

// NewMemoryBroker creates a broker with per-subscriber buffers of bufferSize events.
func NewMemoryBroker(bufferSize int, logger *zap.Logger) *MemoryBroker {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &MemoryBroker{
		subscribers: make(map[string]map[uuid.UUID]*subscriber),
		bufferSize:  bufferSize,
		logger:      logger.Named("MemoryBroker"),
	}
}

type subscriber struct {
	id         uuid.UUID
	collection string
	handler    Handler
	events     chan Event
	quit       chan struct{}
	closed     atomic.Bool
	once       sync.Once
	broker     *MemoryBroker
}

// Publish delivers event to every current subscriber of event.Collection.
func (b *MemoryBroker) Publish(_ context.Context, event Event) error {
	b.mu.RLock()
	subs := make([]*subscriber, 0, len(b.subscribers[event.Collection]))
	for _, s := range b.subscribers[event.Collection] {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		select {
		case s.events <- event:
		default:
			b.logger.Warn("Subscriber buffer full, dropping event",
				zap.String("collection", event.Collection),
				zap.String("subscriptionID", s.id.String()),
				zap.String("eventType", string(event.Type)),
			)
		}
	}
	return nil
}

// Subscribe registers handler for changes on collection.
func (b *MemoryBroker) Subscribe(collection string, handler Handler) Subscription {
	s := &subscriber{
		id:         uuid.New(),
		collection: collection,
		handler:    handler,
		events:     make(chan Event, b.bufferSize),
		quit:       make(chan struct{}),
		broker:     b,
	}

	b.mu.Lock()
	if b.subscribers[collection] == nil {
		b.subscribers[collection] = make(map[uuid.UUID]*subscriber)
	}
	b.subscribers[collection][s.id] = s
	b.mu.Unlock()
	b.count.Add(1)

	go s.run()
	return s
}

// SubscriberCount reports the number of live subscriptions across all collections.
func (b *MemoryBroker) SubscriberCount() int64 {
	return b.count.Load()
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.quit:
			return
		case ev := <-s.events:
			if s.closed.Load() {
				return
			}
			s.handler(ev)
		}
	}
}

func (s *subscriber) Unsubscribe() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.broker.mu.Lock()
		delete(s.broker.subscribers[s.collection], s.id)
		if len(s.broker.subscribers[s.collection]) == 0 {
			delete(s.broker.subscribers, s.collection)
		}
		s.broker.mu.Unlock()
		s.broker.count.Add(-1)
		close(s.quit)
	})
}

// NewEvent builds an event for doc, serializing it as the payload.
func NewEvent(collection string, typ EventType, id uuid.UUID, doc interface{}) (Event, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.New(),
		Collection: collection,
		Type:       typ,
		DocumentID: id,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}, nil
}
