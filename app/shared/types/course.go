package sharedtypes

import (
	"encoding/json"
	"time"
)

// Course is the domain representation of a cached course definition.
type Course struct {
	DTag       DTag            `json:"d_tag"`
	Title      string          `json:"title"`
	Location   string          `json:"location,omitempty"`
	RawJSON    json.RawMessage `json:"raw_json,omitempty"`
	LastSeenAt time.Time       `json:"last_seen_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CourseList is the ordered cache read returned to callers. Order is stable
// across reconciliations: title ascending, then d tag ascending.
type CourseList []Course

// DTags returns the natural keys of the list, in list order.
func (l CourseList) DTags() []DTag {
	out := make([]DTag, len(l))
	for i, c := range l {
		out[i] = c.DTag
	}
	return out
}
