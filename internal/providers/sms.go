package providers

import (
	"context"

	"prism-alert-service/internal/config"
	"prism-alert-service/internal/notify"
	"prism-alert-service/pkg/sms"
)

// SMSProvider delivers notifications through Twilio.
type SMSProvider struct {
	cfg config.Config
}

// NewSMS returns an SMS provider, or nil when Twilio credentials are not
// configured so the channel stays disabled.
func NewSMS(cfg config.Config) *SMSProvider {
	if cfg.SMS.AccountSID == "" || cfg.SMS.AuthToken == "" || cfg.SMS.FromNumber == "" {
		return nil
	}
	return &SMSProvider{cfg: cfg}
}

func (p *SMSProvider) Name() string { return notify.ChannelSMS }

func (p *SMSProvider) Send(_ context.Context, recipient string, msg notify.Message) error {
	body := msg.Subject + "\n" + msg.Body
	return sms.Send(p.cfg.SMS.AccountSID, p.cfg.SMS.AuthToken, p.cfg.SMS.FromNumber, recipient, body)
}
