package eventbus

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"

	"github.com/fairway-collective/roundsync/internal/observability/attr"
)

// NATSConfig configures the JetStream-backed bus.
type NATSConfig struct {
	URL string
	// NKeySeed is an optional user seed ("SU..."); when set the connection
	// authenticates by signing the server nonce with it.
	NKeySeed string
	// Streams are provisioned at construction. Each stream owns the
	// "<name>.>" subject space.
	Streams []string
}

// NewJetStreamBus connects to NATS, provisions the requested streams, and
// returns a bus running on watermill's JetStream publisher/subscriber.
func NewJetStreamBus(cfg NATSConfig, logger *slog.Logger) (EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	options := []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.Timeout(30 * time.Second),
		nc.ReconnectWait(1 * time.Second),
		nc.ErrorHandler(func(_ *nc.Conn, s *nc.Subscription, err error) {
			if s != nil {
				logger.Error("NATS subscription error",
					attr.Error(err),
					attr.String("subject", s.Subject),
					attr.String("queue", s.Queue),
				)
			} else {
				logger.Error("NATS connection error", attr.Error(err))
			}
		}),
	}

	if cfg.NKeySeed != "" {
		keyPair, err := nkeys.FromSeed([]byte(cfg.NKeySeed))
		if err != nil {
			return nil, fmt.Errorf("parse nkey seed: %w", err)
		}
		publicKey, err := keyPair.PublicKey()
		if err != nil {
			return nil, fmt.Errorf("derive nkey public key: %w", err)
		}
		options = append(options, nc.Nkey(publicKey, keyPair.Sign))
	}

	conn, err := nc.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	if err := provisionStreams(conn, cfg.Streams, logger); err != nil {
		conn.Close()
		return nil, err
	}

	publisher, err := wmnats.NewPublisher(
		wmnats.PublisherConfig{
			URL:         cfg.URL,
			NatsOptions: options,
			Marshaler:   &wmnats.NATSMarshaler{},
			JetStream: wmnats.JetStreamConfig{
				Disabled:      false,
				AutoProvision: false,
			},
		},
		wmLogger,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriber(
		wmnats.SubscriberConfig{
			URL:         cfg.URL,
			NatsOptions: options,
			Unmarshaler: &wmnats.NATSMarshaler{},
			JetStream: wmnats.JetStreamConfig{
				Disabled:      false,
				AutoProvision: false,
			},
		},
		wmLogger,
	)
	if err != nil {
		_ = publisher.Close()
		conn.Close()
		return nil, fmt.Errorf("create JetStream subscriber: %w", err)
	}

	return &bus{
		publisher:  publisher,
		subscriber: subscriber,
		logger:     logger,
		closeExtra: func() error {
			conn.Close()
			return nil
		},
	}, nil
}

// provisionStreams ensures each named stream exists before any publish.
func provisionStreams(conn *nc.Conn, streams []string, logger *slog.Logger) error {
	js, err := conn.JetStream()
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	for _, name := range streams {
		if !isValidStreamName(name) {
			return fmt.Errorf("invalid stream name: %s", name)
		}

		info, err := js.StreamInfo(name)
		if err != nil && err != nc.ErrStreamNotFound {
			return fmt.Errorf("stream info for %s: %w", name, err)
		}
		if info != nil {
			continue
		}

		if _, err := js.AddStream(&nc.StreamConfig{
			Name:     name,
			Subjects: []string{fmt.Sprintf("%s.>", name)},
		}); err != nil {
			return fmt.Errorf("add stream %s: %w", name, err)
		}
		logger.Info("Created JetStream stream", attr.String("stream", name))
	}

	return nil
}

// isValidStreamName checks a name against NATS stream naming rules:
// alphanumerics, hyphens, and underscores, not starting or ending with a
// hyphen.
func isValidStreamName(name string) bool {
	for _, r := range name {
		if !isValidStreamRune(r) {
			return false
		}
	}
	return name != "" && name[0] != '-' && name[len(name)-1] != '-'
}

func isValidStreamRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}
