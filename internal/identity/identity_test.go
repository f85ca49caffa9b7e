package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/stretchr/testify/require"
)

func testKeyPair(t *testing.T) (secretHex, pubHex string) {
	t.Helper()
	secretHex = nostr.GeneratePrivateKey()
	pubHex, err := nostr.GetPublicKey(secretHex)
	require.NoError(t, err)
	return secretHex, pubHex
}

func TestNewStaticIdentity(t *testing.T) {
	secretHex, pubHex := testKeyPair(t)
	npub, err := nip19.EncodePublicKey(pubHex)
	require.NoError(t, err)
	nsec, err := nip19.EncodePrivateKey(secretHex)
	require.NoError(t, err)

	_, otherPub := testKeyPair(t)

	tests := []struct {
		name     string
		cfg      Config
		wantErr  bool
		wantPub  string
		wantSign bool
	}{
		{
			name:    "hex pubkey only",
			cfg:     Config{PubKey: pubHex},
			wantPub: pubHex,
		},
		{
			name:    "npub pubkey only",
			cfg:     Config{PubKey: npub},
			wantPub: pubHex,
		},
		{
			name:    "uppercase hex pubkey normalized",
			cfg:     Config{PubKey: strings.ToUpper(pubHex)},
			wantPub: pubHex,
		},
		{
			name:     "hex secret derives pubkey",
			cfg:      Config{SecretKey: secretHex},
			wantPub:  pubHex,
			wantSign: true,
		},
		{
			name:     "nsec secret derives pubkey",
			cfg:      Config{SecretKey: nsec},
			wantPub:  pubHex,
			wantSign: true,
		},
		{
			name:     "matching pubkey and secret",
			cfg:      Config{PubKey: pubHex, SecretKey: secretHex},
			wantPub:  pubHex,
			wantSign: true,
		},
		{
			name:    "pubkey disagreeing with secret",
			cfg:     Config{PubKey: otherPub, SecretKey: secretHex},
			wantErr: true,
		},
		{
			name:    "no keys at all",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name:    "malformed npub",
			cfg:     Config{PubKey: "npub1notvalid"},
			wantErr: true,
		},
		{
			name:    "pubkey that is not hex",
			cfg:     Config{PubKey: "zz" + pubHex[2:]},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ident, err := NewStaticIdentity(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			got, err := ident.PubKey(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.wantPub, string(got))
			require.Equal(t, tt.wantSign, ident.CanSign())
		})
	}
}

func TestStaticIdentity_Sign(t *testing.T) {
	secretHex, pubHex := testKeyPair(t)

	ident, err := NewStaticIdentity(Config{SecretKey: secretHex})
	require.NoError(t, err)

	evt := &nostr.Event{
		Kind:      1501,
		CreatedAt: nostr.Timestamp(1754000000),
		Content:   `{"course":{}}`,
	}
	require.NoError(t, ident.Sign(context.Background(), evt))
	require.Equal(t, pubHex, evt.PubKey)
	require.NotEmpty(t, evt.ID)

	valid, err := evt.CheckSignature()
	require.NoError(t, err)
	require.True(t, valid)
}

func TestStaticIdentity_SignWithoutSecret(t *testing.T) {
	_, pubHex := testKeyPair(t)

	ident, err := NewStaticIdentity(Config{PubKey: pubHex})
	require.NoError(t, err)
	require.False(t, ident.CanSign())

	err = ident.Sign(context.Background(), &nostr.Event{})
	require.ErrorIs(t, err, ErrSigningUnavailable)
}
