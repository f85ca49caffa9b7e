package courseintegrationtests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"

	courseevents "github.com/fairway-collective/roundsync/app/shared/events/course"
	"github.com/fairway-collective/roundsync/app/shared/results"
	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
	"github.com/fairway-collective/roundsync/integration_tests/testutils"
	"github.com/fairway-collective/roundsync/internal/relay"
)

// seedCourses stocks the fetcher with definitions and runs one refresh so
// the cache starts populated.
func seedCourses(t *testing.T, deps TestDeps, events ...*nostr.Event) {
	t.Helper()
	deps.Fetcher.SetCourses(events...)
	if _, err := deps.Service.Refresh(deps.Ctx); err != nil {
		t.Fatalf("Setup: seeding refresh failed: %v", err)
	}
}

func courseEvent(t *testing.T, deps TestDeps, dTag, title string) *nostr.Event {
	t.Helper()
	evt, err := deps.Generator.SignedCourseEvent(testutils.CourseEventParams{
		DTag:  dTag,
		Title: title,
	})
	if err != nil {
		t.Fatalf("Setup: failed to build course event: %v", err)
	}
	return evt
}

func dTagsOf(list sharedtypes.CourseList) []string {
	out := make([]string, 0, len(list))
	for _, d := range list.DTags() {
		out = append(out, string(d))
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name       string
		setupFn    func(t *testing.T, deps TestDeps) context.Context
		validateFn func(t *testing.T, deps TestDeps, result results.OperationResult, err error)
	}{
		{
			name: "Success - First refresh fills the empty cache",
			setupFn: func(t *testing.T, deps TestDeps) context.Context {
				deps.Fetcher.SetCourses(
					// d tag order deliberately disagrees with title order.
					courseEvent(t, deps, "z-alder", "Alder Park"),
					courseEvent(t, deps, "m-cedar", "Cedar Ridge"),
					courseEvent(t, deps, "a-birch", "Birch Meadows"),
				)
				return deps.Ctx
			},
			validateFn: func(t *testing.T, deps TestDeps, result results.OperationResult, err error) {
				if err != nil {
					t.Fatalf("Refresh returned unexpected error: %v", err)
				}
				list, ok := result.Success.(sharedtypes.CourseList)
				if !ok {
					t.Fatalf("Success payload was not CourseList: %T", result.Success)
				}
				// Order comes from the cache re-read: title, then d tag.
				want := []string{"z-alder", "a-birch", "m-cedar"}
				if got := dTagsOf(list); !sameStrings(got, want) {
					t.Errorf("Expected order %v, got %v", want, got)
				}
				if calls := deps.Fetcher.FetchCoursesCalls(); calls != 1 {
					t.Errorf("Expected 1 relay fetch, got %d", calls)
				}
				rows, err := deps.DB.ListCourses(deps.Ctx)
				if err != nil {
					t.Fatalf("Failed to list persisted courses: %v", err)
				}
				if len(rows) != 3 {
					t.Errorf("Expected 3 persisted courses, got %d", len(rows))
				}
				for _, row := range rows {
					if row.LastSeenAt.IsZero() {
						t.Errorf("Course %s missing last-seen timestamp", row.DTag)
					}
				}
			},
		},
		{
			name: "Success - Reconcile updates in place and keeps unseen rows",
			setupFn: func(t *testing.T, deps TestDeps) context.Context {
				seedCourses(t, deps,
					courseEvent(t, deps, "alder", "Alder Park"),
					courseEvent(t, deps, "birch", "Birch Meadows"),
				)
				// The next fetch renames birch and introduces cedar; alder
				// is absent but must survive in the cache.
				deps.Fetcher.SetCourses(
					courseEvent(t, deps, "birch", "Zeta Hollow"),
					courseEvent(t, deps, "cedar", "Cedar Ridge"),
				)
				return deps.Ctx
			},
			validateFn: func(t *testing.T, deps TestDeps, result results.OperationResult, err error) {
				if err != nil {
					t.Fatalf("Refresh returned unexpected error: %v", err)
				}
				list, ok := result.Success.(sharedtypes.CourseList)
				if !ok {
					t.Fatalf("Success payload was not CourseList: %T", result.Success)
				}
				want := []string{"alder", "cedar", "birch"}
				if got := dTagsOf(list); !sameStrings(got, want) {
					t.Errorf("Expected merged order %v, got %v", want, got)
				}
				renamed, err := deps.DB.GetCourse(deps.Ctx, sharedtypes.DTag("birch"))
				if err != nil {
					t.Fatalf("Failed to read renamed course: %v", err)
				}
				if renamed.Title != "Zeta Hollow" {
					t.Errorf("Expected birch renamed to Zeta Hollow, got %q", renamed.Title)
				}
			},
		},
		{
			name: "Success - Repeat refresh is idempotent",
			setupFn: func(t *testing.T, deps TestDeps) context.Context {
				seedCourses(t, deps,
					courseEvent(t, deps, "alder", "Alder Park"),
					courseEvent(t, deps, "birch", "Birch Meadows"),
				)
				return deps.Ctx
			},
			validateFn: func(t *testing.T, deps TestDeps, result results.OperationResult, err error) {
				if err != nil {
					t.Fatalf("Refresh returned unexpected error: %v", err)
				}
				list, ok := result.Success.(sharedtypes.CourseList)
				if !ok {
					t.Fatalf("Success payload was not CourseList: %T", result.Success)
				}
				want := []string{"alder", "birch"}
				if got := dTagsOf(list); !sameStrings(got, want) {
					t.Errorf("Expected %v after repeat refresh, got %v", want, got)
				}
				rows, err := deps.DB.ListCourses(deps.Ctx)
				if err != nil {
					t.Fatalf("Failed to list persisted courses: %v", err)
				}
				if len(rows) != 2 {
					t.Errorf("Expected 2 rows after repeat refresh, got %d", len(rows))
				}
			},
		},
		{
			name: "Success - Undecodable definitions are skipped in isolation",
			setupFn: func(t *testing.T, deps TestDeps) context.Context {
				wrongKind, err := deps.Generator.SignedInitiationEvent(testutils.InitiationEventParams{})
				if err != nil {
					t.Fatalf("Setup: failed to build wrong-kind event: %v", err)
				}
				missingDTag := &nostr.Event{
					Kind:    sharedtypes.KindCourseDefinition,
					Content: `{"title":"Nowhere"}`,
				}
				deps.Fetcher.SetCourses(
					wrongKind,
					missingDTag,
					courseEvent(t, deps, "alder", "Alder Park"),
				)
				return deps.Ctx
			},
			validateFn: func(t *testing.T, deps TestDeps, result results.OperationResult, err error) {
				if err != nil {
					t.Fatalf("Refresh returned unexpected error: %v", err)
				}
				list, ok := result.Success.(sharedtypes.CourseList)
				if !ok {
					t.Fatalf("Success payload was not CourseList: %T", result.Success)
				}
				if got := dTagsOf(list); !sameStrings(got, []string{"alder"}) {
					t.Errorf("Expected only the decodable course, got %v", got)
				}
			},
		},
		{
			name: "Failure - Fetch failure keeps the cache and reports last known good",
			setupFn: func(t *testing.T, deps TestDeps) context.Context {
				seedCourses(t, deps,
					courseEvent(t, deps, "alder", "Alder Park"),
					courseEvent(t, deps, "birch", "Birch Meadows"),
				)
				deps.Fetcher.SetFetchCoursesErr(relay.NewTransportError("subscribe", errors.New("connection reset")))
				return deps.Ctx
			},
			validateFn: func(t *testing.T, deps TestDeps, result results.OperationResult, err error) {
				if err == nil {
					t.Fatalf("Expected error for fetch failure but got nil")
				}
				if !relay.IsTransport(err) {
					t.Errorf("Expected a transport error, got %v", err)
				}
				payload, ok := result.Failure.(courseevents.CourseSyncFailedPayloadV1)
				if !ok {
					t.Fatalf("Failure payload was not CourseSyncFailedPayloadV1: %T", result.Failure)
				}
				if !payload.Retryable {
					t.Errorf("A transport failure must be retryable")
				}
				if got := dTagsOf(payload.Courses); !sameStrings(got, []string{"alder", "birch"}) {
					t.Errorf("Expected last-known-good list in the failure payload, got %v", got)
				}
				rows, err := deps.DB.ListCourses(deps.Ctx)
				if err != nil {
					t.Fatalf("Failed to list persisted courses: %v", err)
				}
				if len(rows) != 2 {
					t.Errorf("Expected the cache untouched after a failed fetch, got %d rows", len(rows))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := SetupTestCourseService(t)
			defer deps.Cleanup()

			ctx := tt.setupFn(t, deps)

			result, err := deps.Service.Refresh(ctx)

			tt.validateFn(t, deps, result, err)
		})
	}
}

// TestLoadIfNeeded_ArmsOneBackgroundReconcile checks the read path: the
// caller gets the cache immediately, one reconciliation runs behind it, and
// later reads never refetch.
func TestLoadIfNeeded_ArmsOneBackgroundReconcile(t *testing.T) {
	deps := SetupTestCourseService(t)
	defer deps.Cleanup()

	deps.Fetcher.SetCourses(
		courseEvent(t, deps, "alder", "Alder Park"),
		courseEvent(t, deps, "birch", "Birch Meadows"),
	)

	result, err := deps.Service.LoadIfNeeded(deps.Ctx)
	if err != nil {
		t.Fatalf("LoadIfNeeded returned unexpected error: %v", err)
	}
	list, ok := result.Success.(sharedtypes.CourseList)
	if !ok {
		t.Fatalf("Success payload was not CourseList: %T", result.Success)
	}
	// The cache was empty when the call landed; the fetch runs behind it.
	if len(list) != 0 {
		t.Errorf("Expected the pre-reconcile cache, got %v", dTagsOf(list))
	}

	// Wait for the background reconciliation to land.
	deadline := time.Now().Add(15 * time.Second)
	for {
		rows, err := deps.DB.ListCourses(deps.Ctx)
		if err != nil {
			t.Fatalf("Failed to list courses while waiting: %v", err)
		}
		if len(rows) == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Background reconciliation never landed; have %d rows", len(rows))
		}
		time.Sleep(100 * time.Millisecond)
	}

	// Later reads serve the reconciled cache without another fetch.
	result, err = deps.Service.LoadIfNeeded(deps.Ctx)
	if err != nil {
		t.Fatalf("Second LoadIfNeeded returned unexpected error: %v", err)
	}
	list, ok = result.Success.(sharedtypes.CourseList)
	if !ok {
		t.Fatalf("Success payload was not CourseList: %T", result.Success)
	}
	if got := dTagsOf(list); !sameStrings(got, []string{"alder", "birch"}) {
		t.Errorf("Expected the reconciled list, got %v", got)
	}
	if calls := deps.Fetcher.FetchCoursesCalls(); calls != 1 {
		t.Errorf("Expected exactly 1 background fetch, got %d", calls)
	}
}
