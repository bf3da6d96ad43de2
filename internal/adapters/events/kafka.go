package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pagemarket/marketplace/internal/ports"
)

// KafkaBroker maps the fanout contract onto Kafka: topics are Kafka topics
// and each service subscribes under its own consumer group, so every group
// receives an independent copy of each message.
type KafkaBroker struct {
	brokers []string
	group   string
	writer  *kafka.Writer

	mu      sync.Mutex
	readers []*kafka.Reader
	cancel  context.CancelFunc
	ctx     context.Context
	closed  bool
}

func NewKafkaBroker(brokers []string, group string) (*KafkaBroker, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka broker requires at least one address")
	}
	if group == "" {
		return nil, fmt.Errorf("kafka broker requires a consumer group")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &KafkaBroker{
		brokers: brokers,
		group:   group,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (b *KafkaBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (b *KafkaBroker) Subscribe(topic string) (<-chan ports.Delivery, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBrokerClosed
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  b.brokers,
		GroupID:  b.group,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	b.readers = append(b.readers, reader)

	out := make(chan ports.Delivery)
	go func() {
		defer close(out)
		for {
			msg, err := reader.ReadMessage(b.ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				continue
			}
			select {
			case out <- ports.Delivery{Topic: msg.Topic, Payload: msg.Value}:
			case <-b.ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (b *KafkaBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.cancel()
	for _, r := range b.readers {
		_ = r.Close()
	}
	return b.writer.Close()
}
