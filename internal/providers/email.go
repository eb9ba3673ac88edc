package providers

import (
	"context"
	"fmt"

	"prism-alert-service/internal/config"
	"prism-alert-service/internal/notify"
	"prism-alert-service/pkg/email"
)

// EmailProvider delivers notifications over SMTP.
type EmailProvider struct {
	cfg config.Config
}

// NewEmail returns an email provider, or nil when SMTP credentials are not
// configured so the channel stays disabled.
func NewEmail(cfg config.Config) *EmailProvider {
	if cfg.Email.SMTPServer == "" || cfg.Email.Username == "" || cfg.Email.Password == "" {
		return nil
	}
	return &EmailProvider{cfg: cfg}
}

func (p *EmailProvider) Name() string { return notify.ChannelEmail }

func (p *EmailProvider) Send(_ context.Context, recipient string, msg notify.Message) error {
	err := email.Send(
		p.cfg.Email.SMTPServer,
		p.cfg.Email.SMTPPort,
		p.cfg.Email.Username,
		p.cfg.Email.Password,
		recipient,
		msg.Subject,
		msg.Body,
	)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}
	return nil
}
