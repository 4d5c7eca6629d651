package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"estate_marketplace_backend/internal/config"
	"estate_marketplace_backend/internal/gateway"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	headerEventType  = "event_type"
	headerCollection = "collection"
)

// EventBus carries gateway change events between service instances. Publishing
// writes to a Kafka topic; every instance consumes the topic with its own consumer
// group and re-publishes into a local MemoryBroker, which owns the subscriptions.
type EventBus struct {
	producer sarama.SyncProducer
	group    sarama.ConsumerGroup
	topic    string
	local    *gateway.MemoryBroker
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEventBus connects a producer and a per-instance consumer group.
func NewEventBus(cfg *config.Config, local *gateway.MemoryBroker, logger *zap.Logger) (*EventBus, error) {
	pc := sarama.NewConfig()
	pc.Producer.Return.Successes = true
	pc.Producer.Retry.Max = 3
	pc.Producer.RequiredAcks = sarama.WaitForAll
	pc.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(cfg.KafkaBrokers, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	cc := sarama.NewConfig()
	cc.Version = sarama.V2_6_0_0
	cc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	cc.Consumer.Offsets.Initial = sarama.OffsetNewest
	cc.Consumer.Return.Errors = true

	groupID := fmt.Sprintf("%s-%s", cfg.KafkaGroupID, uuid.NewString()[:8])
	group, err := sarama.NewConsumerGroup(cfg.KafkaBrokers, groupID, cc)
	if err != nil {
		_ = producer.Close()
		return nil, fmt.Errorf("failed to create Kafka consumer group: %w", err)
	}

	logger.Info("Kafka event bus initialized",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
		zap.String("groupID", groupID),
	)
	return newEventBus(producer, group, cfg.KafkaTopic, local, logger), nil
}

func newEventBus(producer sarama.SyncProducer, group sarama.ConsumerGroup, topic string, local *gateway.MemoryBroker, logger *zap.Logger) *EventBus {
	return &EventBus{
		producer: producer,
		group:    group,
		topic:    topic,
		local:    local,
		logger:   logger.Named("KafkaEventBus"),
	}
}

// Publish sends event to the topic, keyed by collection so a collection's events
// stay ordered within one partition.
func (b *EventBus) Publish(_ context.Context, event gateway.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: b.topic,
		Key:   sarama.StringEncoder(event.Collection),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte(headerEventType), Value: []byte(event.Type)},
			{Key: []byte(headerCollection), Value: []byte(event.Collection)},
		},
	}
	partition, offset, err := b.producer.SendMessage(msg)
	if err != nil {
		b.logger.Error("Failed to publish event",
			zap.String("collection", event.Collection),
			zap.String("documentID", event.DocumentID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}
	b.logger.Debug("Event published",
		zap.String("collection", event.Collection),
		zap.String("eventType", string(event.Type)),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Subscribe registers on the local broker fed by the consumer.
func (b *EventBus) Subscribe(collection string, handler gateway.Handler) gateway.Subscription {
	return b.local.Subscribe(collection, handler)
}

// Start runs the consumer loop until Close is called.
func (b *EventBus) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)

	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		handler := &groupHandler{bus: b}
		for {
			if err := b.group.Consume(ctx, []string{b.topic}, handler); err != nil {
				b.logger.Error("Error from consumer", zap.Error(err))
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	go func() {
		defer b.wg.Done()
		for err := range b.group.Errors() {
			b.logger.Error("Consumer error", zap.Error(err))
		}
	}()
	b.logger.Info("Kafka consumer started", zap.String("topic", b.topic))
}

// Close stops consuming and releases the producer.
func (b *EventBus) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	var firstErr error
	if b.group != nil {
		if err := b.group.Close(); err != nil {
			firstErr = err
		}
	}
	b.wg.Wait()
	if b.producer != nil {
		if err := b.producer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (b *EventBus) handleMessage(ctx context.Context, msg *sarama.ConsumerMessage) {
	var event gateway.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		b.logger.Error("Failed to unmarshal event",
			zap.Int32("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return
	}
	if err := b.local.Publish(ctx, event); err != nil {
		b.logger.Warn("Failed to fan out event", zap.String("collection", event.Collection), zap.Error(err))
	}
}

type groupHandler struct {
	bus *EventBus
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		h.bus.handleMessage(session.Context(), msg)
		session.MarkMessage(msg, "")
	}
	return nil
}
