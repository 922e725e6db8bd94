// Package push abstracts delivery of notification payloads to a push
// subscription.
package push

import (
	"context"
	"log/slog"
)

// Subscription identifies a push-delivery target as handed over by the
// client, in Web Push shape.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

// Keys holds the client encryption keys of a Web Push subscription.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Sender delivers one serialized payload to one subscription. A Sender must
// surface per-subscription failures (expired subscription and the like)
// through its error return rather than panicking, so the dispatch fan-out
// can absorb them.
type Sender interface {
	Send(ctx context.Context, sub Subscription, payload []byte) error
}

// LogSender logs payloads instead of delivering them. It stands in until a
// real Web Push protocol sender is wired up.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, sub Subscription, payload []byte) error {
	s.Logger.Info("push delivery (log only)",
		"endpoint", sub.Endpoint,
		"payload", string(payload))
	return nil
}
