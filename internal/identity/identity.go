// Package identity supplies the local user's key material to the modules
// that need it. Keys come from configuration; nothing in the codebase names
// a concrete pubkey.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// ErrSigningUnavailable is returned by Sign when no secret key was
// configured. Read-side operations never need one.
var ErrSigningUnavailable = errors.New("identity: no secret key configured")

// Provider yields the local user's public key.
type Provider interface {
	PubKey(ctx context.Context) (sharedtypes.PubKey, error)
}

// Signer signs an event in place, setting its id, pubkey, and signature.
type Signer interface {
	Sign(ctx context.Context, evt *nostr.Event) error
}

// Config carries the configured keys. PubKey accepts hex or npub; SecretKey
// accepts hex or nsec and is optional.
type Config struct {
	PubKey    string
	SecretKey string
}

// StaticIdentity implements Provider and Signer from configured keys.
type StaticIdentity struct {
	pubKey    sharedtypes.PubKey
	secretKey string
}

var (
	_ Provider = (*StaticIdentity)(nil)
	_ Signer   = (*StaticIdentity)(nil)
)

// NewStaticIdentity decodes the configured keys. A secret key alone is
// enough; the public key is derived from it. When both are given they must
// agree.
func NewStaticIdentity(cfg Config) (*StaticIdentity, error) {
	secretKey, err := decodeKey(cfg.SecretKey, "nsec")
	if err != nil {
		return nil, fmt.Errorf("identity: secret key: %w", err)
	}

	pubKey, err := decodeKey(cfg.PubKey, "npub")
	if err != nil {
		return nil, fmt.Errorf("identity: pubkey: %w", err)
	}

	if secretKey != "" {
		derived, err := nostr.GetPublicKey(secretKey)
		if err != nil {
			return nil, fmt.Errorf("identity: derive pubkey: %w", err)
		}
		if pubKey != "" && pubKey != derived {
			return nil, errors.New("identity: configured pubkey does not match secret key")
		}
		pubKey = derived
	}

	if pubKey == "" {
		return nil, errors.New("identity: a pubkey or secret key is required")
	}
	if err := sharedtypes.PubKey(pubKey).Validate(); err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}

	return &StaticIdentity{
		pubKey:    sharedtypes.PubKey(pubKey),
		secretKey: secretKey,
	}, nil
}

// PubKey returns the configured public key.
func (s *StaticIdentity) PubKey(ctx context.Context) (sharedtypes.PubKey, error) {
	return s.pubKey, nil
}

// Sign signs evt with the configured secret key.
func (s *StaticIdentity) Sign(ctx context.Context, evt *nostr.Event) error {
	if s.secretKey == "" {
		return ErrSigningUnavailable
	}
	if err := evt.Sign(s.secretKey); err != nil {
		return fmt.Errorf("identity: sign event: %w", err)
	}
	return nil
}

// CanSign reports whether a secret key is configured.
func (s *StaticIdentity) CanSign() bool {
	return s.secretKey != ""
}

// decodeKey accepts hex or the given bech32 form and returns lowercase hex.
// Empty input stays empty.
func decodeKey(input, wantPrefix string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}

	if strings.HasPrefix(input, wantPrefix) {
		prefix, value, err := nip19.Decode(input)
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", wantPrefix, err)
		}
		if prefix != wantPrefix {
			return "", fmt.Errorf("expected %s, got %s", wantPrefix, prefix)
		}
		hex, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("unexpected %s payload type %T", wantPrefix, value)
		}
		return hex, nil
	}

	return strings.ToLower(input), nil
}
