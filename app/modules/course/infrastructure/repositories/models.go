package coursedb

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// Course is a locally cached course definition, keyed by the d tag of the
// addressable event it was decoded from. Relays replace addressable events
// in place, so one row per d tag mirrors the remote state.
type Course struct {
	bun.BaseModel `bun:"table:courses,alias:c"`

	DTag       sharedtypes.DTag `bun:"d_tag,pk"`
	Title      string           `bun:"title,nullzero"`
	Location   string           `bun:"location,nullzero"`
	RawJSON    json.RawMessage  `bun:"raw_json,type:jsonb"`
	LastSeenAt time.Time        `bun:"last_seen_at,nullzero"`
	CreatedAt  time.Time        `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time        `bun:",nullzero,notnull,default:current_timestamp"`
}

// ToShared converts the persisted row into the transport-facing course type.
func (c *Course) ToShared() sharedtypes.Course {
	return sharedtypes.Course{
		DTag:       c.DTag,
		Title:      c.Title,
		Location:   c.Location,
		RawJSON:    c.RawJSON,
		LastSeenAt: c.LastSeenAt,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// CoursesToShared converts a slice of rows for list responses.
func CoursesToShared(courses []*Course) sharedtypes.CourseList {
	out := make(sharedtypes.CourseList, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.ToShared())
	}
	return out
}
