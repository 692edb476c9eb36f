package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	kafka "github.com/segmentio/kafka-go"

	"github.com/mickamy/recordtrail"
)

// messageWriter abstracts kafka.Writer so tests can swap it.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...writerMessage) error
	Close() error
}

type writerMessage struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

type kafkaGoWriter struct {
	w *kafka.Writer
}

func (k *kafkaGoWriter) WriteMessages(ctx context.Context, msgs ...writerMessage) error {
	kafkaMsgs := make([]kafka.Message, len(msgs))
	for i, m := range msgs {
		headers := make([]kafka.Header, 0, len(m.Headers))
		for name, v := range m.Headers {
			headers = append(headers, kafka.Header{Key: name, Value: []byte(v)})
		}
		kafkaMsgs[i] = kafka.Message{
			Topic:   m.Topic,
			Key:     m.Key,
			Value:   m.Value,
			Headers: headers,
		}
	}
	return k.w.WriteMessages(ctx, kafkaMsgs...)
}

func (k *kafkaGoWriter) Close() error {
	return k.w.Close()
}

// Config holds the Kafka producer settings.
type Config struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher publishes change events as JSON, keyed by table and record key
// so that all changes of one record land on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

var _ recordtrail.Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a synchronous producer waiting for all replicas.
func NewKafkaPublisher(cfg Config) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &KafkaPublisher{
		writer: &kafkaGoWriter{w: w},
		topic:  cfg.Topic,
	}
}

// Publish sends ev to the configured topic.
func (p *KafkaPublisher) Publish(ctx context.Context, ev *recordtrail.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("messaging: failed to serialize change event: %w", err)
	}

	headers := map[string]string{
		"event_id": ev.ID.String(),
		"kind":     ev.Kind.String(),
	}
	if ev.TraceID != "" {
		headers["trace_id"] = ev.TraceID
	}
	msg := writerMessage{
		Topic:   p.topic,
		Key:     []byte(ev.Table + ":" + ev.Key),
		Value:   data,
		Headers: headers,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("messaging: failed to publish change event: %w", err)
	}
	return nil
}

// Close flushes and closes the producer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
