package courseintegrationtests

import (
	"context"
	"log"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	courseservice "github.com/fairway-collective/roundsync/app/modules/course/application"
	coursedb "github.com/fairway-collective/roundsync/app/modules/course/infrastructure/repositories"
	"github.com/fairway-collective/roundsync/integration_tests/testutils"
	coursemetrics "github.com/fairway-collective/roundsync/internal/observability/metrics/course"
)

// Global variables for the test environment, initialized once.
var (
	testEnv     *testutils.TestEnvironment
	testEnvOnce sync.Once
	testEnvErr  error
)

// TestDeps holds dependencies needed by individual tests.
type TestDeps struct {
	Ctx       context.Context
	DB        coursedb.CourseDB
	BunDB     *bun.DB
	Service   courseservice.Service
	Fetcher   *testutils.StubFetcher
	Generator *testutils.TestDataGenerator
	Cleanup   func()
}

func GetTestEnv(t *testing.T) *testutils.TestEnvironment {
	t.Helper()

	testEnvOnce.Do(func() {
		log.Println("Initializing course test environment...")
		env, err := testutils.NewTestEnvironment(t)
		if err != nil {
			testEnvErr = err
			log.Printf("Failed to set up test environment: %v", err)
		} else {
			log.Println("Course test environment initialized successfully.")
			testEnv = env
		}
	})

	if testEnvErr != nil {
		t.Fatalf("Course test environment initialization failed: %v", testEnvErr)
	}

	if testEnv == nil {
		t.Fatalf("Course test environment not initialized")
	}

	return testEnv
}

func SetupTestCourseService(t *testing.T) TestDeps {
	t.Helper()

	env := GetTestEnv(t)
	log.Printf("[%s] SetupTestCourseService: Starting setup", t.Name())

	// Reset environment for clean state
	resetCtx, resetCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer resetCancel()
	if err := env.Reset(resetCtx); err != nil {
		t.Fatalf("Failed to reset environment: %v", err)
	}
	log.Printf("[%s] SetupTestCourseService: Environment reset complete", t.Name())

	realDB := &coursedb.CourseDBImpl{DB: env.DB}
	fetcher := testutils.NewStubFetcher()

	// Use a logger that writes to test output for debugging
	testLogger := slog.New(slog.NewTextHandler(testWriter{t: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	noOpMetrics := &coursemetrics.NoOpMetrics{}
	noOpTracer := noop.NewTracerProvider().Tracer("test_course_service")

	// A fresh service per test so the load-once reconciliation re-arms.
	service := courseservice.NewCourseService(
		realDB,
		fetcher,
		env.EventBus,
		courseservice.RealClock{},
		testLogger,
		noOpMetrics,
		noOpTracer,
	)
	log.Printf("[%s] SetupTestCourseService: Service created", t.Name())

	cleanup := func() {
		log.Printf("[%s] SetupTestCourseService: Cleanup called", t.Name())
	}

	t.Cleanup(cleanup)

	return TestDeps{
		Ctx:       env.Ctx,
		DB:        realDB,
		BunDB:     env.DB,
		Service:   service,
		Fetcher:   fetcher,
		Generator: testutils.NewTestDataGenerator(),
		Cleanup:   cleanup,
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
