package notify

import "context"

// Notifier posts operational messages. Callers treat delivery as best-effort.
type Notifier interface {
	Notify(ctx context.Context, channel, message string) error
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) error { return nil }
