// Package invite encodes and decodes shareable round invite codes.
//
// An invite is a bech32 event pointer ("nevent1..." or the id-only
// "note1..."), optionally wrapped in the nostr: URI scheme. Parsing is
// liberal about wrapping and whitespace; formatting always emits the nevent
// form.
package invite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// URIScheme is the URI scheme an invite may be wrapped in.
const URIScheme = "nostr"

var (
	// ErrEmptyInvite is returned for empty or all-whitespace input.
	ErrEmptyInvite = errors.New("invite: empty invite code")
	// ErrInvalidInvite is returned for input that is not a decodable event
	// pointer: bad checksum, wrong prefix, truncated payload.
	ErrInvalidInvite = errors.New("invite: invalid invite code")
)

// Reference is a parsed invite: the event to fetch plus relay hints and,
// when the encoder included it, the author's pubkey. References are values;
// the codec is the only producer.
type Reference struct {
	EventID sharedtypes.EventID
	Relays  []string
	Author  sharedtypes.PubKey
}

// Parse decodes an invite code into a Reference. It accepts the bare bech32
// forms and the nostr:-wrapped URI form; Parse(wrap(x)) equals Parse(x).
func Parse(input string) (Reference, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Reference{}, ErrEmptyInvite
	}

	payload := stripScheme(trimmed)
	if payload == "" {
		return Reference{}, fmt.Errorf("%w: empty URI payload", ErrInvalidInvite)
	}

	prefix, value, err := nip19.Decode(payload)
	if err != nil {
		return Reference{}, fmt.Errorf("%w: %v", ErrInvalidInvite, err)
	}

	switch prefix {
	case "nevent":
		pointer, ok := value.(nostr.EventPointer)
		if !ok {
			return Reference{}, fmt.Errorf("%w: unexpected nevent payload %T", ErrInvalidInvite, value)
		}
		ref := Reference{
			EventID: sharedtypes.EventID(pointer.ID),
			Relays:  cleanRelays(pointer.Relays),
			Author:  sharedtypes.PubKey(pointer.Author),
		}
		if err := ref.EventID.Validate(); err != nil {
			return Reference{}, fmt.Errorf("%w: %v", ErrInvalidInvite, err)
		}
		return ref, nil

	case "note":
		id, ok := value.(string)
		if !ok {
			return Reference{}, fmt.Errorf("%w: unexpected note payload %T", ErrInvalidInvite, value)
		}
		ref := Reference{EventID: sharedtypes.EventID(id)}
		if err := ref.EventID.Validate(); err != nil {
			return Reference{}, fmt.Errorf("%w: %v", ErrInvalidInvite, err)
		}
		return ref, nil

	default:
		return Reference{}, fmt.Errorf("%w: unsupported prefix %q", ErrInvalidInvite, prefix)
	}
}

// Format encodes ref as a bare nevent invite code.
func Format(ref Reference) (string, error) {
	if err := ref.EventID.Validate(); err != nil {
		return "", fmt.Errorf("invite: %w", err)
	}
	encoded, err := nip19.EncodeEvent(string(ref.EventID), cleanRelays(ref.Relays), string(ref.Author))
	if err != nil {
		return "", fmt.Errorf("invite: encode: %w", err)
	}
	return encoded, nil
}

// FormatURI encodes ref as a nostr:-wrapped invite code.
func FormatURI(ref Reference) (string, error) {
	encoded, err := Format(ref)
	if err != nil {
		return "", err
	}
	return URIScheme + ":" + encoded, nil
}

// stripScheme removes a leading nostr: scheme (case-insensitive), tolerating
// the // some share sheets add.
func stripScheme(input string) string {
	schemePrefix := URIScheme + ":"
	if len(input) < len(schemePrefix) || !strings.EqualFold(input[:len(schemePrefix)], schemePrefix) {
		return input
	}
	rest := input[len(schemePrefix):]
	rest = strings.TrimPrefix(rest, "//")
	return strings.TrimSpace(rest)
}

// cleanRelays drops empty hint entries, preserving order.
func cleanRelays(relays []string) []string {
	out := make([]string, 0, len(relays))
	for _, r := range relays {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
