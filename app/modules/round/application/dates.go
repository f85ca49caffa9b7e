package roundservice

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Clock abstracts time so tests can pin "now". The production implementation
// is RealClock.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// resolveStartDate turns the declared date of an initiation into a concrete
// start time. Layered parsing: RFC 3339 first, then a plain date, then
// natural language anchored on the clock's now. Absent or unrecognizable
// dates fall back to now so every round keeps a usable sort key.
func resolveStartDate(declared *string, clock Clock) time.Time {
	if declared == nil {
		return clock.Now().UTC()
	}
	input := strings.TrimSpace(*declared)
	if input == "" {
		return clock.Now().UTC()
	}

	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02", input); err == nil {
		return t.UTC()
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	if r, err := w.Parse(input, clock.Now()); err == nil && r != nil {
		return r.Time.UTC()
	}

	return clock.Now().UTC()
}
