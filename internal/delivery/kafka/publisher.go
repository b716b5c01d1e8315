package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	kafka "github.com/segmentio/kafka-go"

	"orderdesk/internal/models"
)

type Publisher struct {
	writer messageWriter
}

func NewPublisher(brokers []string, topic string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return &Publisher{writer: w}
}

// Publish writes a raw payload, used to feed create-order commands.
func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Value: payload,
	})
}

// PublishOrderEvent writes ev as JSON keyed by order id so events of one order
// stay on one partition.
func (p *Publisher) PublishOrderEvent(ctx context.Context, ev models.OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal order event")
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(ev.OrderID),
		Value:   body,
		Headers: []kafka.Header{{Key: "event-type", Value: []byte(ev.Type)}},
	})
	return errors.Wrapf(err, "publish %s event", ev.Type)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
