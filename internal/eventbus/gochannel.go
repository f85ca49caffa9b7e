package eventbus

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewInMemoryBus returns a gochannel-backed bus. This is the default for
// single-process deployments; every subscriber sees every published message,
// which is what the progress and result topics rely on.
func NewInMemoryBus(logger *slog.Logger) EventBus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 256,
			Persistent:          false,
		},
		watermill.NewSlogLogger(logger),
	)

	return &bus{
		publisher:  pubSub,
		subscriber: pubSub,
		logger:     logger,
	}
}
