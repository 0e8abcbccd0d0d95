package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	domoutbox "github.com/storecraft-labs/order-intake/internal/domain/outbox"
	"github.com/storecraft-labs/order-intake/internal/observability"
)

// Publisher relays order events to a Kafka topic for downstream consumers
// (fulfilment, notifications). The event name rides as the record key.
type Publisher struct {
	client *kgo.Client
	topic  string
	log    observability.Logger
}

func NewPublisher(brokers []string, topic string, logger observability.Logger) (*Publisher, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: new client: %w", err)
	}
	return &Publisher{
		client: client,
		topic:  topic,
		log:    logger.With(observability.F("component", "kafka_publisher")),
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, e domoutbox.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka: marshal event %s: %w", e.EventName(), err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(e.EventName()),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka: produce %s: %w", e.EventName(), err)
	}
	p.log.Debug("event_produced", observability.F("event", e.EventName()))
	return nil
}

// RelayFrom forwards the named bus events to Kafka.
func (p *Publisher) RelayFrom(bus domoutbox.Subscriber, eventNames ...string) {
	for _, name := range eventNames {
		bus.Subscribe(name, func(ctx context.Context, e domoutbox.Event) error {
			return p.Publish(ctx, e)
		})
	}
}

func (p *Publisher) Close() {
	p.client.Close()
}
