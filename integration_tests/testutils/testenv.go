// Package testutils holds the shared environment and data helpers for the
// integration suites.
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"log/slog"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"

	_ "github.com/jackc/pgx/v5/stdlib"

	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"

	"github.com/fairway-collective/roundsync/integration_tests/containers"
	"github.com/fairway-collective/roundsync/internal/db/bundb"
	"github.com/fairway-collective/roundsync/internal/eventbus"
)

// TestEnvironment holds the containers and connections one integration suite
// shares across its tests.
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer *tcnats.NATSContainer
	DB            *bun.DB
	DBService     *bundb.DBService
	EventBus      eventbus.EventBus
	PgDSN         string
	NatsURL       string
	T             *testing.T
}

// NewTestEnvironment starts Postgres and NATS containers, runs every
// migration, and connects the event bus.
func NewTestEnvironment(t *testing.T) (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(context.Background())

	env := &TestEnvironment{
		Ctx:           ctx,
		CancelContext: cancel,
		T:             t,
	}

	if err := env.setupContainers(ctx); err != nil {
		cancel()
		return nil, err
	}
	return env, nil
}

func (env *TestEnvironment) setupContainers(ctx context.Context) error {
	pgContainer, pgConnStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer = pgContainer
	env.PgDSN = pgConnStr

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		pgContainer.Terminate(ctx)
		return fmt.Errorf("failed to setup nats container: %w", err)
	}
	env.NatsContainer = natsContainer
	env.NatsURL = natsURL

	sqlDB, err := sql.Open("pgx", pgConnStr)
	if err != nil {
		cleanupContainers(ctx, pgContainer, natsContainer)
		return fmt.Errorf("failed to open sql DB connection: %w", err)
	}

	db := bundb.BunDB(sqlDB)
	env.DB = db

	if err := runMigrations(db, pgConnStr); err != nil {
		db.Close()
		cleanupContainers(ctx, pgContainer, natsContainer)
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	dbService, err := bundb.NewTestDBService(db)
	if err != nil {
		db.Close()
		cleanupContainers(ctx, pgContainer, natsContainer)
		return fmt.Errorf("failed to create DB service: %w", err)
	}
	env.DBService = dbService

	busLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus, err := eventbus.NewJetStreamBus(eventbus.NATSConfig{
		URL:     natsURL,
		Streams: []string{"round", "course"},
	}, busLogger)
	if err != nil {
		db.Close()
		cleanupContainers(ctx, pgContainer, natsContainer)
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	env.EventBus = bus

	return nil
}

// Reset truncates the application tables so the next test starts clean.
func (env *TestEnvironment) Reset(ctx context.Context) error {
	if err := CleanupDatabase(ctx, env.DB); err != nil {
		return fmt.Errorf("failed to clean database: %w", err)
	}
	return nil
}

// Teardown stops everything the environment started.
func (env *TestEnvironment) Teardown() {
	ctx := context.Background()

	if env.EventBus != nil {
		if err := env.EventBus.Close(); err != nil {
			log.Printf("Failed to close event bus: %v", err)
		}
	}
	if env.DB != nil {
		if err := env.DB.Close(); err != nil {
			log.Printf("Failed to close DB: %v", err)
		}
	}
	cleanupContainers(ctx, env.PgContainer, env.NatsContainer)
	env.CancelContext()
}

func cleanupContainers(ctx context.Context, pgContainer *postgres.PostgresContainer, natsContainer testcontainers.Container) {
	if pgContainer != nil {
		if err := pgContainer.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate postgres container: %v", err)
		}
	}
	if natsContainer != nil {
		if err := natsContainer.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate nats container: %v", err)
		}
	}
}
