// Package notify delivers operational messages to a chat webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	domain "lendcore/internal/domain/notify"
)

var _ domain.Notifier = (*Webhook)(nil)

type Webhook struct {
	url  string
	http *http.Client
	log  *zap.Logger
}

// NewWebhook returns a notifier posting to url. With an empty url messages are only logged.
func NewWebhook(url string, log *zap.Logger) *Webhook {
	return &Webhook{url: url, http: &http.Client{Timeout: 10 * time.Second}, log: log}
}

type message struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

func (w *Webhook) Notify(ctx context.Context, channel, text string) error {
	if w.url == "" {
		w.log.Info("notification", zap.String("channel", channel), zap.String("text", text))
		return nil
	}
	b, err := json.Marshal(message{Channel: channel, Text: text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("notify: webhook returned %d", res.StatusCode)
	}
	return nil
}
