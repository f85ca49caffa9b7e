package roundservice

import (
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// tagDecoder consumes one tag's values into the record under construction.
// values excludes the tag name.
type tagDecoder func(rec *sharedtypes.InitiationRecord, values []string)

// initiationTagTable is the complete set of tags a round initiation decoder
// understands. Decoding is table-driven so that adding a tag is one entry
// here, and so that every unknown tag lands on the same reported-not-fatal
// path.
var initiationTagTable = map[string]tagDecoder{
	"course_hash": func(rec *sharedtypes.InitiationRecord, values []string) {
		if len(values) > 0 {
			rec.CourseHash = values[0]
		}
	},
	"rules_hash": func(rec *sharedtypes.InitiationRecord, values []string) {
		if len(values) > 0 {
			rec.RulesHash = values[0]
		}
	},
	"date": func(rec *sharedtypes.InitiationRecord, values []string) {
		if len(values) > 0 && values[0] != "" {
			date := values[0]
			rec.Date = &date
		}
	},
	"p": func(rec *sharedtypes.InitiationRecord, values []string) {
		if len(values) == 0 {
			return
		}
		pk := sharedtypes.PubKey(values[0])
		if pk.Validate() != nil {
			return
		}
		rec.Players = append(rec.Players, pk)
	},
}

// decodeInitiation turns a fetched initiation event into an InitiationRecord.
// Unknown tag names are returned (deduplicated, in first-seen order) so the
// caller can report them; they are never an error. Content is carried
// verbatim.
func decodeInitiation(evt *nostr.Event) (sharedtypes.InitiationRecord, []string, error) {
	if evt.Kind != sharedtypes.KindRoundInitiation {
		return sharedtypes.InitiationRecord{}, nil,
			fmt.Errorf("%w: got kind %d", ErrWrongEventKind, evt.Kind)
	}

	rec := sharedtypes.InitiationRecord{RawContent: evt.Content}

	var ignored []string
	seen := make(map[string]bool)
	for _, tag := range evt.Tags {
		if len(tag) == 0 {
			continue
		}
		name := tag[0]
		decode, known := initiationTagTable[name]
		if !known {
			if !seen[name] {
				seen[name] = true
				ignored = append(ignored, name)
			}
			continue
		}
		decode(&rec, tag[1:])
	}

	rec.Players = sharedtypes.NormalizePubKeys(rec.Players)
	return rec, ignored, nil
}
