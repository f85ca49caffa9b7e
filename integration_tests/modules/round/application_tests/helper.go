package roundintegrationtests

import (
	"context"
	"log"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	roundservice "github.com/fairway-collective/roundsync/app/modules/round/application"
	rounddb "github.com/fairway-collective/roundsync/app/modules/round/infrastructure/repositories"
	"github.com/fairway-collective/roundsync/integration_tests/testutils"
	"github.com/fairway-collective/roundsync/internal/identity"
	roundmetrics "github.com/fairway-collective/roundsync/internal/observability/metrics/round"
)

// Global variables for the test environment, initialized once.
var (
	testEnv     *testutils.TestEnvironment
	testEnvOnce sync.Once
	testEnvErr  error
)

// TestDeps holds dependencies needed by individual tests.
type TestDeps struct {
	Ctx         context.Context
	DB          rounddb.RoundDB
	BunDB       *bun.DB
	Service     roundservice.Service
	Fetcher     *testutils.StubFetcher
	Publisher   *testutils.StubPublisher
	Generator   *testutils.TestDataGenerator
	MySecretKey string
	MyPubKey    string
	Cleanup     func()
}

func GetTestEnv(t *testing.T) *testutils.TestEnvironment {
	t.Helper()

	testEnvOnce.Do(func() {
		log.Println("Initializing round test environment...")
		env, err := testutils.NewTestEnvironment(t)
		if err != nil {
			testEnvErr = err
			log.Printf("Failed to set up test environment: %v", err)
		} else {
			log.Println("Round test environment initialized successfully.")
			testEnv = env
		}
	})

	if testEnvErr != nil {
		t.Fatalf("Round test environment initialization failed: %v", testEnvErr)
	}

	if testEnv == nil {
		t.Fatalf("Round test environment not initialized")
	}

	return testEnv
}

func SetupTestRoundService(t *testing.T) TestDeps {
	t.Helper()

	env := GetTestEnv(t)
	log.Printf("[%s] SetupTestRoundService: Starting setup", t.Name())

	// Reset environment for clean state
	resetCtx, resetCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer resetCancel()
	if err := env.Reset(resetCtx); err != nil {
		t.Fatalf("Failed to reset environment: %v", err)
	}
	log.Printf("[%s] SetupTestRoundService: Environment reset complete", t.Name())

	realDB := &rounddb.RoundDBImpl{DB: env.DB}

	generator := testutils.NewTestDataGenerator()
	mySecretKey, myPubKey, err := generator.GenerateKeyPair()
	if err != nil {
		t.Fatalf("Failed to generate identity key pair: %v", err)
	}
	ident, err := identity.NewStaticIdentity(identity.Config{SecretKey: mySecretKey})
	if err != nil {
		t.Fatalf("Failed to build identity: %v", err)
	}

	fetcher := testutils.NewStubFetcher()
	publisher := testutils.NewStubPublisher()

	// Use a logger that writes to test output for debugging
	testLogger := slog.New(slog.NewTextHandler(testWriter{t: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	noOpMetrics := &roundmetrics.NoOpMetrics{}
	noOpTracer := noop.NewTracerProvider().Tracer("test_round_service")

	// Relay traffic goes through the stubs; the event bus is the real
	// JetStream connection from the shared environment.
	service := roundservice.NewRoundService(
		realDB,
		fetcher,
		publisher,
		ident,
		ident,
		env.EventBus,
		roundservice.RealClock{},
		[]string{"wss://relay.test"},
		testLogger,
		noOpMetrics,
		noOpTracer,
	)
	log.Printf("[%s] SetupTestRoundService: Service created", t.Name())

	cleanup := func() {
		log.Printf("[%s] SetupTestRoundService: Cleanup called", t.Name())
	}

	t.Cleanup(cleanup)

	return TestDeps{
		Ctx:         env.Ctx,
		DB:          realDB,
		BunDB:       env.DB,
		Service:     service,
		Fetcher:     fetcher,
		Publisher:   publisher,
		Generator:   generator,
		MySecretKey: mySecretKey,
		MyPubKey:    myPubKey,
		Cleanup:     cleanup,
	}
}

// testWriter wraps a testing.T to implement io.Writer for slog
type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (n int, err error) {
	tw.t.Log(string(p))
	return len(p), nil
}
