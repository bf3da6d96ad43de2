package events

import (
	"context"
	"sync"

	"github.com/pagemarket/marketplace/internal/ports"
)

const defaultQueueBuffer = 128

// InMemoryBroker is a process-local fanout relay: every queue bound to a
// topic receives its own copy of each published message. There is no
// persistence and no redelivery; a publish with no bound queue is lost, and a
// queue whose buffer is full drops the message rather than block the
// publisher.
type InMemoryBroker struct {
	mu     sync.RWMutex
	buffer int
	queues map[string][]chan ports.Delivery
	closed bool
}

func NewInMemoryBroker(buffer int) *InMemoryBroker {
	if buffer <= 0 {
		buffer = defaultQueueBuffer
	}
	return &InMemoryBroker{
		buffer: buffer,
		queues: make(map[string][]chan ports.Delivery),
	}
}

func (b *InMemoryBroker) Publish(_ context.Context, topic string, payload []byte) error {
	// The lock is held across the sends so Close cannot close a queue
	// mid-loop; the sends never block, so Close is not held up either.
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBrokerClosed
	}
	for _, q := range b.queues[topic] {
		body := make([]byte, len(payload))
		copy(body, payload)
		select {
		case q <- ports.Delivery{Topic: topic, Payload: body}:
		default:
			// Queue full: at-most-once, the copy for this queue is dropped.
		}
	}
	return nil
}

func (b *InMemoryBroker) Subscribe(topic string) (<-chan ports.Delivery, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBrokerClosed
	}
	q := make(chan ports.Delivery, b.buffer)
	b.queues[topic] = append(b.queues[topic], q)
	return q, nil
}

func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, queues := range b.queues {
		for _, q := range queues {
			close(q)
		}
	}
	b.queues = make(map[string][]chan ports.Delivery)
	return nil
}
