package queue

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
)

// Consumer feeds messages from one topic to a processing function.
type Consumer struct {
	subscriber message.Subscriber
	topic      string
	logger     *zerolog.Logger
}

// NewConsumer creates a Consumer reading topic from subscriber.
func NewConsumer(subscriber message.Subscriber, topic string, logger *zerolog.Logger) *Consumer {
	return &Consumer{
		subscriber: subscriber,
		topic:      topic,
		logger:     logger,
	}
}

// Start subscribes to the topic and runs process on its own goroutine.
// The message channel closes when ctx is cancelled or the subscriber is closed.
func (c *Consumer) Start(ctx context.Context, process func(messages <-chan *message.Message)) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return fmt.Errorf("could not subscribe to topic %s: %w", c.topic, err)
	}
	c.logger.Info().Str("topic", c.topic).Msg("Consumer started")

	go process(messages)
	return nil
}
