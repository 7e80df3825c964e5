package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageReader is the slice of kafka.Reader the feed consumes through.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Config() kafka.ReaderConfig
	Close() error
}

// Feed consumes change events for one topic and re-broadcasts them on a
// hub, replacing the realtime channels of the hosted catalog backend.
// Delivery to subscribers is at-least-once per relevant mutation.
type Feed struct {
	reader  messageReader
	hub     *Hub
	backoff time.Duration
}

func NewFeed(hub *Hub, topic, groupID string, brokers ...string) *Feed {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Feed{reader: reader, hub: hub, backoff: 5 * time.Second}
}

func (f *Feed) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		f.consumeOne(ctx)
	}
}

func (f *Feed) Close() {
	if err := f.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (f *Feed) consumeOne(ctx context.Context) {
	m, err := f.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading change event: %v", err)
		// A closed reader or a down broker fails immediately; pause so
		// the loop does not spin on the same error.
		select {
		case <-ctx.Done():
		case <-time.After(f.backoff):
		}
		return
	}

	// The payload is informational; any message on the topic means the
	// source changed and subscribers should re-read it.
	log.Printf("change event on %s: key=%s", f.reader.Config().Topic, string(m.Key))
	f.hub.Broadcast()
}

// OrderEvent is published when the local order store creates an order or
// transitions its status.
type OrderEvent struct {
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher writes order events to the order change topic.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(topic string, brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w}
}

func (p *Publisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderNumber),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	if err := p.writer.Close(); err != nil {
		log.Printf("error closing kafka writer: %v", err)
	}
}
