// Package eventbus provides the watermill publisher/subscriber pair the
// modules and routers run on, backed either by an in-process gochannel or by
// NATS JetStream.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/fairway-collective/roundsync/internal/handlerwrapper"
	"github.com/fairway-collective/roundsync/internal/observability/attr"
)

// EventBus is the publisher/subscriber surface handed to routers and
// services. The method set satisfies watermill's message.Publisher and
// message.Subscriber.
type EventBus interface {
	Publish(topic string, messages ...*message.Message) error
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	Close() error
}

var (
	_ message.Publisher  = (EventBus)(nil)
	_ message.Subscriber = (EventBus)(nil)
)

// bus wraps a concrete publisher/subscriber pair. Publishing with an empty
// topic routes each message by its metadata topic, which is how transforming
// handlers address their output.
type bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
	closeExtra func() error
}

func (b *bus) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		destination := topic
		if destination == "" {
			destination = msg.Metadata.Get(handlerwrapper.TopicMetadataKey)
		}
		if destination == "" {
			return fmt.Errorf("message %s has no destination topic", msg.UUID)
		}
		if err := b.publisher.Publish(destination, msg); err != nil {
			return fmt.Errorf("publish to %s: %w", destination, err)
		}
		b.logger.Debug("Published message",
			attr.Topic(destination),
			attr.String("message_id", msg.UUID),
		)
	}
	return nil
}

func (b *bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

func (b *bus) Close() error {
	var errs []error
	if err := b.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if b.closeExtra != nil {
		if err := b.closeExtra(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StreamName returns the JetStream stream a topic belongs to: its first
// dot-segment.
func StreamName(topic string) string {
	if i := strings.IndexByte(topic, '.'); i > 0 {
		return topic[:i]
	}
	return topic
}
