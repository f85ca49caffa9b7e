package round

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	roundservice "github.com/fairway-collective/roundsync/app/modules/round/application"
	rounddb "github.com/fairway-collective/roundsync/app/modules/round/infrastructure/repositories"
	roundrouter "github.com/fairway-collective/roundsync/app/modules/round/infrastructure/router"
	"github.com/fairway-collective/roundsync/config"
	"github.com/fairway-collective/roundsync/internal/eventbus"
	"github.com/fairway-collective/roundsync/internal/identity"
	"github.com/fairway-collective/roundsync/internal/observability"
	"github.com/fairway-collective/roundsync/internal/relay"
)

// Module represents the round module.
type Module struct {
	EventBus      eventbus.EventBus
	RoundService  roundservice.Service
	config        *config.Config
	RoundRouter   *roundrouter.RoundRouter
	cancelFunc    context.CancelFunc
	observability observability.Observability
}

// NewRoundModule creates a new instance of the Round module.
//
// signer may be nil; a signerless deployment can join rounds but not create
// them.
func NewRoundModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	roundDB rounddb.RoundDB,
	fetcher relay.Fetcher,
	relayPublisher relay.Publisher,
	ident identity.Provider,
	signer identity.Signer,
	eventBus eventbus.EventBus,
	router *message.Router,
	routerCtx context.Context,
) (*Module, error) {
	logger := obs.Provider.Logger
	metrics := obs.Registry.RoundMetrics
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "round.NewRoundModule called")

	roundService := roundservice.NewRoundService(
		roundDB,
		fetcher,
		relayPublisher,
		ident,
		signer,
		eventBus,
		roundservice.RealClock{},
		cfg.Relay.URLs,
		logger,
		metrics,
		tracer,
	)

	roundRouter := roundrouter.NewRoundRouter(logger, router, eventBus, eventBus, cfg, tracer)

	if err := roundRouter.Configure(routerCtx, roundService); err != nil {
		return nil, fmt.Errorf("failed to configure round router: %w", err)
	}

	module := &Module{
		EventBus:      eventBus,
		RoundService:  roundService,
		config:        cfg,
		RoundRouter:   roundRouter,
		observability: obs,
	}

	return module, nil
}

// Run starts the round module.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting round module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Round module goroutine stopped")
}

// Close stops the round module and cleans up resources.
func (m *Module) Close() error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping round module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	logger.Info("Round module stopped")
	return nil
}
