package sharedtypes

import (
	"fmt"
	"strings"
)

// Event kinds understood by this service.
const (
	// KindRoundInitiation is the kind of a signed round initiation event.
	KindRoundInitiation = 1501
	// KindCourseDefinition is the kind of an addressable course definition
	// event, identified by its d tag.
	KindCourseDefinition = 30501
)

// PubKey is a 64-character lowercase hex public key.
type PubKey string

// EventID is a 64-character lowercase hex event identifier.
type EventID string

// RoundID is the local database identifier of a round.
type RoundID int64

// DTag is the natural key of an addressable course definition event.
type DTag string

func (p PubKey) String() string  { return string(p) }
func (e EventID) String() string { return string(e) }
func (d DTag) String() string    { return string(d) }

// Validate reports whether the key is well-formed.
func (p PubKey) Validate() error {
	if !isLowerHex(string(p), 64) {
		return fmt.Errorf("pubkey must be 64 lowercase hex characters, got %q", string(p))
	}
	return nil
}

// Validate reports whether the event id is well-formed.
func (e EventID) Validate() error {
	if !isLowerHex(string(e), 64) {
		return fmt.Errorf("event id must be 64 lowercase hex characters, got %q", string(e))
	}
	return nil
}

func isLowerHex(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// ContainsPubKey reports whether keys contains pk.
func ContainsPubKey(keys []PubKey, pk PubKey) bool {
	for _, k := range keys {
		if k == pk {
			return true
		}
	}
	return false
}

// NormalizePubKeys lowercases and de-duplicates keys, preserving first-seen
// order.
func NormalizePubKeys(keys []PubKey) []PubKey {
	seen := make(map[PubKey]struct{}, len(keys))
	out := make([]PubKey, 0, len(keys))
	for _, k := range keys {
		normalized := PubKey(strings.ToLower(strings.TrimSpace(string(k))))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
