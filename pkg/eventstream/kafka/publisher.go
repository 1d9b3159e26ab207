// Package kafka publishes verdict events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/aletheia/pkg/eventstream"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config configures the Kafka publisher.
type Config struct {
	// Brokers is a comma separated list of host:port addresses.
	Brokers string
	Topic   string
}

// Publisher writes one JSON message per event, keyed by event ID.
type Publisher struct {
	writer MessageWriter
	topic  string
	logger *slog.Logger
}

// NewPublisher creates a publisher backed by a kafka-go writer.
func NewPublisher(c Config, logger *slog.Logger) (*Publisher, error) {
	brokers := splitBrokers(c.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafkago.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return NewPublisherWithWriter(w, c.Topic, logger), nil
}

// NewPublisherWithWriter wraps an existing writer.
func NewPublisherWithWriter(w MessageWriter, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{writer: w, topic: topic, logger: logger}
}

// PublishVerdict marshals and writes the event.
func (p *Publisher) PublishVerdict(ctx context.Context, event *eventstream.VerdictIssuedEvent) error {
	if event == nil {
		return eventstream.ErrNilVerdictEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling verdict event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.EventID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	})
	if err != nil {
		p.logger.Error("failed to write verdict event",
			"topic", p.topic,
			"event_id", event.EventID,
			"error", err,
		)
		return fmt.Errorf("writing verdict event to %s: %w", p.topic, err)
	}

	p.logger.Debug("published verdict event", "topic", p.topic, "event_id", event.EventID)
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func splitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
