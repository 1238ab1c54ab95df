package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/ride-sharing/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer publishes registry events as JSON, keyed so that every event
// about one ride, driver or rider lands on the same partition.
type KafkaProducer struct {
	writer  messageWriter
	logger  *slog.Logger
	timeout time.Duration
	failed  atomic.Int64
}

func NewKafkaProducer(brokers []string, topic string, logger *slog.Logger) *KafkaProducer {
	k := newKafkaProducer(nil, logger)
	k.writer = &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
		// observers run inside the HTTP server lock; WriteMessages only
		// queues and delivery errors arrive through Completion.
		Async:      true,
		Completion: k.completed,
	}
	return k
}

func newKafkaProducer(w messageWriter, logger *slog.Logger) *KafkaProducer {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaProducer{writer: w, logger: logger, timeout: 2 * time.Second}
}

func (k *KafkaProducer) Publish(ctx context.Context, e models.Event) error {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Key()),
		Value: b,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(e.Kind)},
		},
		Time: e.At,
	})
}

// Observe publishes the event; failures are logged and never surface to the
// registry.
func (k *KafkaProducer) Observe(e models.Event) {
	if err := k.Publish(context.Background(), e); err != nil {
		k.logger.Error("publish event failed", "event_id", e.ID, "kind", string(e.Kind), "error", err)
	}
}

// completed receives the outcome of each async batch.
func (k *KafkaProducer) completed(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	k.failed.Add(int64(len(msgs)))
	for _, m := range msgs {
		k.logger.Error("publish event failed", "key", string(m.Key), "kind", headerValue(m.Headers, "kind"), "error", err)
	}
}

// Failed reports how many events the broker never acknowledged.
func (k *KafkaProducer) Failed() int64 { return k.failed.Load() }

func headerValue(hs []kafka.Header, key string) string {
	for _, h := range hs {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (k *KafkaProducer) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
