package providers

import (
	"context"
	"time"

	"prism-alert-service/internal/config"
	"prism-alert-service/internal/notify"
	"prism-alert-service/pkg/webhook"
)

// WebhookProvider POSTs notifications as JSON to a configured endpoint.
type WebhookProvider struct {
	url     string
	timeout time.Duration
}

// NewWebhook returns a webhook provider, or nil when no endpoint URL is
// configured so the channel stays disabled.
func NewWebhook(cfg config.Config) *WebhookProvider {
	if cfg.Webhook.URL == "" {
		return nil
	}
	return &WebhookProvider{url: cfg.Webhook.URL, timeout: cfg.Webhook.Timeout}
}

func (p *WebhookProvider) Name() string { return notify.ChannelWebhook }

func (p *WebhookProvider) Send(ctx context.Context, recipient string, msg notify.Message) error {
	payload := map[string]string{
		"recipient": recipient,
		"subject":   msg.Subject,
		"body":      msg.Body,
		"priority":  msg.Priority,
	}
	return webhook.Post(ctx, p.url, payload, p.timeout)
}
