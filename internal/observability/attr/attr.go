// Package attr provides slog attribute helpers shared by all modules.
package attr

import (
	"context"
	"log/slog"
	"time"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

type correlationIDKey struct{}

// WithCorrelationID stores a correlation id on the context for later
// extraction into log records.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// CorrelationIDFromContext returns the stored correlation id, or "" when none
// was set.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// ExtractCorrelationID returns the correlation id attribute for the context,
// "unknown" when the context carries none.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	id := CorrelationIDFromContext(ctx)
	if id == "" {
		id = "unknown"
	}
	return slog.String("correlation_id", id)
}

func String(key, value string) slog.Attr          { return slog.String(key, value) }
func Int(key string, value int) slog.Attr         { return slog.Int(key, value) }
func Int64(key string, value int64) slog.Attr     { return slog.Int64(key, value) }
func Bool(key string, value bool) slog.Attr       { return slog.Bool(key, value) }
func Any(key string, value any) slog.Attr         { return slog.Any(key, value) }
func Time(key string, value time.Time) slog.Attr  { return slog.Time(key, value) }
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}

// Error returns the canonical error attribute. A nil error renders as "nil".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "nil")
	}
	return slog.String("error", err.Error())
}

func RoundID(id sharedtypes.RoundID) slog.Attr {
	return slog.Int64("round_id", int64(id))
}

func EventID(id sharedtypes.EventID) slog.Attr {
	return slog.String("event_id", string(id))
}

func PubKey(pk sharedtypes.PubKey) slog.Attr {
	return slog.String("pubkey", string(pk))
}

func DTag(d sharedtypes.DTag) slog.Attr {
	return slog.String("d_tag", string(d))
}

func Phase(p sharedtypes.RoundPhase) slog.Attr {
	return slog.String("phase", string(p))
}

func Topic(topic string) slog.Attr {
	return slog.String("topic", topic)
}
