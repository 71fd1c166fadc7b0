package queue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DIMO-Network/webhook-router/internal/config"
	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	wm_kafka "github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	consumerGroup = "webhook-router"
	// buffered so publishing never waits on a slow destination
	channelBuffer = 256
)

// PubSub pairs the publisher and subscriber used for forward jobs.
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// New builds an in-process pub/sub, or a Kafka backed one when KafkaBrokers is set.
func New(settings *config.Settings) (*PubSub, error) {
	logger := watermill.NewStdLogger(false, false)
	if settings.KafkaBrokers == "" {
		return NewInProcess(logger), nil
	}
	return NewKafka(strings.Split(settings.KafkaBrokers, ","), logger)
}

// NewInProcess builds a pub/sub on a go channel. Messages are lost on restart.
func NewInProcess(logger watermill.LoggerAdapter) *PubSub {
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: channelBuffer}, logger)
	return &PubSub{Publisher: ch, Subscriber: ch}
}

// NewKafka builds a pub/sub on the given Kafka brokers.
func NewKafka(brokers []string, logger watermill.LoggerAdapter) (*PubSub, error) {
	publisherConfig := wm_kafka.DefaultSaramaSyncPublisherConfig()
	publisherConfig.Version = sarama.V2_8_1_0

	publisher, err := wm_kafka.NewPublisher(
		wm_kafka.PublisherConfig{
			Brokers:               brokers,
			Marshaler:             wm_kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: publisherConfig,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	subscriberConfig := wm_kafka.DefaultSaramaSubscriberConfig()
	subscriberConfig.Version = sarama.V2_8_1_0
	subscriberConfig.Consumer.Offsets.Initial = sarama.OffsetOldest

	subscriber, err := wm_kafka.NewSubscriber(
		wm_kafka.SubscriberConfig{
			Brokers:               brokers,
			Unmarshaler:           wm_kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: subscriberConfig,
			ConsumerGroup:         consumerGroup,
		},
		logger,
	)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	return &PubSub{Publisher: publisher, Subscriber: subscriber}, nil
}

// Close closes both sides. The in-process pub/sub shares one channel so it is closed once.
func (p *PubSub) Close() error {
	err := p.Publisher.Close()
	if any(p.Subscriber) == any(p.Publisher) {
		return err
	}
	return errors.Join(err, p.Subscriber.Close())
}
