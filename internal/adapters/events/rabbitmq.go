package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pagemarket/marketplace/internal/ports"
)

var ErrBrokerClosed = errors.New("event broker is closed")

// RabbitBroker mirrors the original broker topology: one durable fanout
// exchange per topic, one anonymous exclusive auto-delete queue per
// subscription. Deliveries are auto-acked, so a message is consumed the
// moment it is handed over, success or not.
type RabbitBroker struct {
	conn *amqp.Connection

	mu       sync.Mutex
	pubCh    *amqp.Channel
	declared map[string]bool
	subCh    []*amqp.Channel
	closed   bool
}

func DialRabbit(url string) (*RabbitBroker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open publish channel: %w", err)
	}
	return &RabbitBroker{
		conn:     conn,
		pubCh:    ch,
		declared: make(map[string]bool),
	}, nil
}

func (b *RabbitBroker) declareFanout(ch *amqp.Channel, topic string) error {
	return ch.ExchangeDeclare(
		topic,    // name
		"fanout", // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // args
	)
}

func (b *RabbitBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBrokerClosed
	}
	if !b.declared[topic] {
		if err := b.declareFanout(b.pubCh, topic); err != nil {
			return fmt.Errorf("declare exchange %s: %w", topic, err)
		}
		b.declared[topic] = true
	}
	return b.pubCh.PublishWithContext(ctx,
		topic, // exchange
		"",    // routing key: ignored by fanout
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        payload,
		},
	)
}

func (b *RabbitBroker) Subscribe(topic string) (<-chan ports.Delivery, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBrokerClosed
	}
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open subscribe channel: %w", err)
	}
	if err := b.declareFanout(ch, topic); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", topic, err)
	}
	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue for %s: %w", topic, err)
	}
	if err := ch.QueueBind(q.Name, "", topic, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("bind queue %s to %s: %w", q.Name, topic, err)
	}
	msgs, err := ch.Consume(
		q.Name,
		"",    // consumer tag
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume %s: %w", q.Name, err)
	}
	b.subCh = append(b.subCh, ch)

	out := make(chan ports.Delivery)
	go func() {
		defer close(out)
		for d := range msgs {
			out <- ports.Delivery{Topic: topic, Payload: d.Body}
		}
	}()
	return out, nil
}

func (b *RabbitBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, ch := range b.subCh {
		_ = ch.Close()
	}
	_ = b.pubCh.Close()
	return b.conn.Close()
}
