package metrics

import (
	"context"

	"estate_marketplace_backend/internal/gateway"
)

type instrumentedBroker struct {
	next    gateway.Broker
	metrics *Metrics
}

// InstrumentBroker wraps next so every published event is counted.
func (m *Metrics) InstrumentBroker(next gateway.Broker) gateway.Broker {
	return &instrumentedBroker{next: next, metrics: m}
}

func (b *instrumentedBroker) Publish(ctx context.Context, event gateway.Event) error {
	b.metrics.ObserveEvent(event.Collection, string(event.Type))
	return b.next.Publish(ctx, event)
}

func (b *instrumentedBroker) Subscribe(collection string, handler gateway.Handler) gateway.Subscription {
	return b.next.Subscribe(collection, handler)
}
