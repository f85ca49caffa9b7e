package coursequeue

// CourseRefreshJob asks for one reconciliation of the course cache against
// the relays. The job carries no arguments, so uniqueness by args keeps at
// most one refresh pending at a time.
type CourseRefreshJob struct{}

// Kind returns the job type identifier for River.
func (CourseRefreshJob) Kind() string { return "course_refresh" }

// JobInfo represents information about a queued refresh job (for
// debugging/monitoring).
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
	CreatedAt   string `json:"created_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
