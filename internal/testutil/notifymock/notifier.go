package notifymock

import (
	"context"
	"sync"

	domain "lendcore/internal/domain/notify"
)

var _ domain.Notifier = (*Notifier)(nil)

type Message struct {
	Channel string
	Text    string
}

// Notifier records every message; Err, when set, is returned from each call.
type Notifier struct {
	mu       sync.Mutex
	Messages []Message
	Err      error
}

func (m *Notifier) Notify(_ context.Context, channel, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, Message{Channel: channel, Text: text})
	return m.Err
}

func (m *Notifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages)
}
