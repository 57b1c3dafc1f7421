package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/tally/internal/domain/model"
)

const defaultWebhookTimeout = 5 * time.Second

// WebhookMessenger POSTs every effect as JSON to a URL owned by the chat
// gateway.
type WebhookMessenger struct {
	url    string
	client *http.Client
}

// WebhookOption configures a WebhookMessenger.
type WebhookOption func(*WebhookMessenger)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *WebhookMessenger) {
		if c != nil {
			w.client = c
		}
	}
}

// NewWebhookMessenger returns a messenger that posts to url.
func NewWebhookMessenger(url string, opts ...WebhookOption) *WebhookMessenger {
	w := &WebhookMessenger{
		url:    url,
		client: &http.Client{Timeout: defaultWebhookTimeout},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// React implements Messenger.
func (w *WebhookMessenger) React(ctx context.Context, channelID model.ChannelID, messageID, symbol string) error {
	return w.post(ctx, Effect{Kind: EffectReact, ChannelID: channelID, MessageID: messageID, Symbol: symbol})
}

// Send implements Messenger.
func (w *WebhookMessenger) Send(ctx context.Context, channelID model.ChannelID, text string) error {
	return w.post(ctx, Effect{Kind: EffectSend, ChannelID: channelID, Text: text})
}

func (w *WebhookMessenger) post(ctx context.Context, e Effect) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: %s returned %d", ErrDelivery, w.url, resp.StatusCode)
	}
	return nil
}
