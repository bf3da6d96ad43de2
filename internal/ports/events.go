package ports

import "context"

// Delivery is one message handed to a consumer. The bus gives no ordering
// guarantee across topics and no redelivery: a delivery is consumed exactly
// when it is handed over, whatever the handler does with it.
type Delivery struct {
	Topic   string
	Payload []byte
}

// EventPublisher emits a message to every queue currently bound to the topic.
// Publish is fire-and-forget: it must not block on subscriber processing, and
// a failure never rolls back the local mutation that preceded it.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// EventSubscriber binds a new, independent queue to a topic. Every bound
// queue receives its own copy of each published message (fanout semantics).
// Messages published while no queue is bound are lost.
type EventSubscriber interface {
	Subscribe(topic string) (<-chan Delivery, error)
}

// EventBus is what the runtimes wire: one broker connection serving both
// directions.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}
