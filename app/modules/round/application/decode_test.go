package roundservice

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

func initiationEvent(tags nostr.Tags) *nostr.Event {
	return &nostr.Event{
		ID:      testRemoteID,
		PubKey:  testPeerKey,
		Kind:    sharedtypes.KindRoundInitiation,
		Content: `{"course":{"name":"Pine Hollow"},"rules":{"holes":18}}`,
		Tags:    tags,
	}
}

func TestDecodeInitiation_AllKnownTags(t *testing.T) {
	evt := initiationEvent(nostr.Tags{
		{"course_hash", "deadbeef"},
		{"rules_hash", "cafebabe"},
		{"date", "2025-09-01"},
		{"p", testPeerKey},
		{"p", testSelfKey},
	})

	rec, ignored, err := decodeInitiation(evt)
	require.NoError(t, err)
	require.Empty(t, ignored)

	require.Equal(t, "deadbeef", rec.CourseHash)
	require.Equal(t, "cafebabe", rec.RulesHash)
	require.NotNil(t, rec.Date)
	require.Equal(t, "2025-09-01", *rec.Date)
	require.Equal(t, []sharedtypes.PubKey{testPeerKey, testSelfKey}, rec.Players)
	require.Equal(t, evt.Content, rec.RawContent)
}

func TestDecodeInitiation_UnknownTagsReportedNotFatal(t *testing.T) {
	evt := initiationEvent(nostr.Tags{
		{"course_hash", "deadbeef"},
		{"relay_hint", "wss://relay.example"},
		{"client", "roundsync"},
		{"relay_hint", "wss://other.example"},
	})

	rec, ignored, err := decodeInitiation(evt)
	require.NoError(t, err)
	require.Equal(t, "deadbeef", rec.CourseHash)
	require.Equal(t, []string{"relay_hint", "client"}, ignored)
}

func TestDecodeInitiation_WrongKind(t *testing.T) {
	evt := initiationEvent(nil)
	evt.Kind = 1

	_, _, err := decodeInitiation(evt)
	require.ErrorIs(t, err, ErrWrongEventKind)
}

func TestDecodeInitiation_LenientValues(t *testing.T) {
	// Empty tags, valueless tags, malformed and duplicate players: all
	// tolerated, none fatal.
	evt := initiationEvent(nostr.Tags{
		{},
		{"course_hash"},
		{"date", ""},
		{"p", "not-a-pubkey"},
		{"p", testPeerKey},
		{"p", testPeerKey},
		{"p"},
	})

	rec, ignored, err := decodeInitiation(evt)
	require.NoError(t, err)
	require.Empty(t, ignored)
	require.Empty(t, rec.CourseHash)
	require.Nil(t, rec.Date)
	require.Equal(t, []sharedtypes.PubKey{testPeerKey}, rec.Players)
}
