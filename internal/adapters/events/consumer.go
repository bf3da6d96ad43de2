package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pagemarket/marketplace/internal/ports"
)

// Handler applies one incoming event. Returning an error does not trigger a
// retry or a dead-letter: the consumer loop logs it and discards the message.
type Handler func(ctx context.Context, payload []byte) error

// ConsumerLoop binds one queue per registered topic and pumps deliveries into
// the handlers. Poison messages never crash the loop or block the queue; the
// worst outcome is a dropped state-sync.
type ConsumerLoop struct {
	logger     *slog.Logger
	subscriber ports.EventSubscriber
	handlers   map[string]Handler
}

func NewConsumerLoop(logger *slog.Logger, subscriber ports.EventSubscriber) *ConsumerLoop {
	return &ConsumerLoop{
		logger:     logger,
		subscriber: subscriber,
		handlers:   make(map[string]Handler),
	}
}

// On registers the handler for a topic. Must be called before Run.
func (c *ConsumerLoop) On(topic string, handler Handler) {
	c.handlers[topic] = handler
}

// Run subscribes every registered topic and blocks until the context is
// cancelled or every queue is closed.
func (c *ConsumerLoop) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for topic, handler := range c.handlers {
		queue, err := c.subscriber.Subscribe(topic)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func(topic string, handler Handler, queue <-chan ports.Delivery) {
			defer wg.Done()
			c.pump(ctx, topic, handler, queue)
		}(topic, handler, queue)
	}
	wg.Wait()
	return ctx.Err()
}

func (c *ConsumerLoop) pump(ctx context.Context, topic string, handler Handler, queue <-chan ports.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-queue:
			if !ok {
				return
			}
			c.dispatch(ctx, topic, handler, d)
		}
	}
}

func (c *ConsumerLoop) dispatch(ctx context.Context, topic string, handler Handler, d ports.Delivery) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.WarnContext(ctx, "event handler panicked, message dropped",
				"module", "events.consumer",
				"operation", "dispatch",
				"outcome", "dropped",
				"topic", topic,
				"panic", rec,
			)
		}
	}()
	if err := handler(ctx, d.Payload); err != nil {
		// At-most-once by contract: the message counts as consumed.
		c.logger.WarnContext(ctx, "event application failed, message dropped",
			"module", "events.consumer",
			"operation", "dispatch",
			"outcome", "dropped",
			"topic", topic,
			"error", err,
		)
	}
}
