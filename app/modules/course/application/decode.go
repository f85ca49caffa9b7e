package courseservice

import (
	"encoding/json"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	coursedb "github.com/fairway-collective/roundsync/app/modules/course/infrastructure/repositories"
	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// courseContent is the decoded shape of a course definition's content.
type courseContent struct {
	Title    string `json:"title"`
	Location string `json:"location"`
}

// decodeCourse turns a fetched course definition event into a cache row. The
// natural key comes from the d tag; title and location come from the content,
// which is also carried verbatim for consumers that want the full document.
func decodeCourse(evt *nostr.Event) (*coursedb.Course, error) {
	if evt.Kind != sharedtypes.KindCourseDefinition {
		return nil, fmt.Errorf("%w: got kind %d", ErrWrongCourseKind, evt.Kind)
	}

	var dTag string
	for _, tag := range evt.Tags {
		if len(tag) >= 2 && tag[0] == "d" {
			dTag = tag[1]
			break
		}
	}
	if dTag == "" {
		return nil, ErrMissingDTag
	}

	var content courseContent
	if err := json.Unmarshal([]byte(evt.Content), &content); err != nil {
		return nil, fmt.Errorf("decode course content: %w", err)
	}

	return &coursedb.Course{
		DTag:     sharedtypes.DTag(dTag),
		Title:    content.Title,
		Location: content.Location,
		RawJSON:  json.RawMessage(evt.Content),
	}, nil
}
