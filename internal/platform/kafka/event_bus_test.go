package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"estate_marketplace_backend/internal/gateway"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventBus_PublishWritesEventToTopic(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	bus := newEventBus(producer, nil, "gateway-events", gateway.NewMemoryBroker(8, zap.NewNop()), zap.NewNop())

	ev, err := gateway.NewEvent("messages", gateway.EventCreate, uuid.New(), map[string]string{"content": "hello"})
	require.NoError(t, err)

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got gateway.Event
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.DocumentID != ev.DocumentID || got.Collection != "messages" {
			return errors.New("unexpected event")
		}
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), ev))
	require.NoError(t, producer.Close())
}

func TestEventBus_PublishFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	bus := newEventBus(producer, nil, "gateway-events", gateway.NewMemoryBroker(8, zap.NewNop()), zap.NewNop())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	ev, err := gateway.NewEvent("bookings", gateway.EventUpdate, uuid.New(), struct{}{})
	require.NoError(t, err)

	assert.Error(t, bus.Publish(context.Background(), ev))
	require.NoError(t, producer.Close())
}

func TestEventBus_ConsumedMessagesReachLocalSubscribers(t *testing.T) {
	local := gateway.NewMemoryBroker(8, zap.NewNop())
	bus := newEventBus(nil, nil, "gateway-events", local, zap.NewNop())

	var mu sync.Mutex
	var got []gateway.Event
	sub := bus.Subscribe("chats", func(ev gateway.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
	})
	defer sub.Unsubscribe()

	ev, err := gateway.NewEvent("chats", gateway.EventDelete, uuid.New(), struct{}{})
	require.NoError(t, err)
	value, err := json.Marshal(ev)
	require.NoError(t, err)

	bus.handleMessage(context.Background(), &sarama.ConsumerMessage{Value: value})
	bus.handleMessage(context.Background(), &sarama.ConsumerMessage{Value: []byte("not json")})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, ev.DocumentID, got[0].DocumentID)
}
