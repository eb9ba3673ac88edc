package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"prism-alert-service/internal/logging"
	"prism-alert-service/internal/models"
)

// Channel names understood by the dispatcher.
const (
	ChannelSMS     = "sms"
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
	ChannelPush    = "push"
)

// Dispatch priorities derived from alert severity.
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)

// Config carries the recipient lists and the retry bound.
type Config struct {
	Recipients        []string
	EmergencyContacts []string
	MaxRetries        int
}

// Dispatcher fans notifications out across channels. Each channel is
// independently optional: a channel without a registered provider fails fast
// with a clear error instead of hanging, and one channel's failure never
// blocks another.
type Dispatcher struct {
	providers map[string]Provider
	templates map[models.Category]Template
	fallback  Template
	cfg       Config
	logger    *logging.Logger
	now       func() time.Time
}

// New builds a Dispatcher over the registered providers. Absent providers
// mean the channel is disabled at startup.
func New(providers map[string]Provider, templates map[models.Category]Template, fallback Template, cfg Config, logger *logging.Logger, now func() time.Time) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	if providers == nil {
		providers = make(map[string]Provider)
	}
	return &Dispatcher{
		providers: providers,
		templates: templates,
		fallback:  fallback,
		cfg:       cfg,
		logger:    logger,
		now:       now,
	}
}

// PriorityFor maps alert severity to a dispatch priority.
func PriorityFor(severity models.Severity) string {
	switch severity {
	case models.SeverityEmergency:
		return PriorityUrgent
	case models.SeverityCritical:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

// ChannelsFor returns the fan-out channel set for a severity.
func ChannelsFor(severity models.Severity) []string {
	switch severity {
	case models.SeverityEmergency:
		return []string{ChannelSMS, ChannelEmail, ChannelWebhook, ChannelPush}
	case models.SeverityCritical:
		return []string{ChannelSMS, ChannelEmail, ChannelPush}
	case models.SeverityWarning:
		return []string{ChannelEmail, ChannelPush}
	default:
		return []string{ChannelEmail}
	}
}

// recipientsFor returns the recipient list for a severity; emergencies add
// the emergency contact list.
func (d *Dispatcher) recipientsFor(severity models.Severity) []string {
	if severity == models.SeverityEmergency {
		out := make([]string, 0, len(d.cfg.Recipients)+len(d.cfg.EmergencyContacts))
		out = append(out, d.cfg.Recipients...)
		out = append(out, d.cfg.EmergencyContacts...)
		return out
	}
	return d.cfg.Recipients
}

// Send delivers one rendered notification and records the attempt.
func (d *Dispatcher) Send(ctx context.Context, channel, recipient string, msg Message) models.NotificationAttempt {
	attempt := models.NotificationAttempt{
		ID:        uuid.New().String(),
		Channel:   channel,
		Recipient: recipient,
		Priority:  msg.Priority,
		SentAt:    d.now(),
	}

	provider, ok := d.providers[channel]
	if !ok {
		attempt.Status = "failed"
		attempt.Error = fmt.Sprintf("channel %s not configured", channel)
		d.logger.WithFields(map[string]interface{}{
			"channel":   channel,
			"recipient": recipient,
		}).Warn("Send on disabled channel")
		return attempt
	}

	if err := provider.Send(ctx, recipient, msg); err != nil {
		attempt.Status = "failed"
		attempt.Error = err.Error()
		d.logger.WithFields(map[string]interface{}{
			"channel":   channel,
			"recipient": recipient,
		}).Errorf("Dispatch failed: %v", err)
		return attempt
	}

	attempt.Status = "sent"
	return attempt
}

// SendInitial fans out to every (recipient x channel) pair from the severity
// table, continuing past individual failures, and returns one attempt per
// pair.
func (d *Dispatcher) SendInitial(ctx context.Context, alert *models.Alert) []models.NotificationAttempt {
	msg := d.templateFor(alert.Category).Render(alert, nil)
	msg.Priority = PriorityFor(alert.Severity)

	var attempts []models.NotificationAttempt
	for _, recipient := range d.recipientsFor(alert.Severity) {
		for _, channel := range ChannelsFor(alert.Severity) {
			attempts = append(attempts, d.Send(ctx, channel, recipient, msg))
		}
	}
	return attempts
}

// SendEscalation re-dispatches the alert with the escalation template, using
// the rule's own recipient and channel lists.
func (d *Dispatcher) SendEscalation(ctx context.Context, alert *models.Alert, rule models.EscalationRule) []models.NotificationAttempt {
	extra := map[string]string{
		"age":   fmt.Sprintf("%.0f", alert.AgeMinutes(d.now())),
		"level": fmt.Sprintf("%d", rule.Level),
	}
	msg := EscalationTemplate().Render(alert, extra)
	msg.Priority = PriorityFor(alert.Severity)

	recipients := rule.Recipients
	if len(recipients) == 0 {
		recipients = d.recipientsFor(alert.Severity)
	}
	channels := rule.Channels
	if len(channels) == 0 {
		channels = ChannelsFor(alert.Severity)
	}

	var attempts []models.NotificationAttempt
	for _, recipient := range recipients {
		for _, channel := range channels {
			attempts = append(attempts, d.Send(ctx, channel, recipient, msg))
		}
	}
	return attempts
}

// RetryFailed re-attempts the alert's failed notifications still below the
// retry bound, updating their records in place. Attempts at the bound are
// skipped and logged.
func (d *Dispatcher) RetryFailed(ctx context.Context, alert *models.Alert) int {
	msg := d.templateFor(alert.Category).Render(alert, nil)
	msg.Priority = PriorityFor(alert.Severity)

	retried := 0
	for i := range alert.Notifications {
		att := &alert.Notifications[i]
		if att.Status != "failed" {
			continue
		}
		if att.RetryCount >= d.cfg.MaxRetries {
			d.logger.WithFields(map[string]interface{}{
				"alert_id": alert.ID,
				"channel":  att.Channel,
			}).Warn("Notification exceeded max retries, skipping")
			continue
		}

		result := d.Send(ctx, att.Channel, att.Recipient, msg)
		att.RetryCount++
		att.Status = result.Status
		att.Error = result.Error
		att.SentAt = result.SentAt
		retried++
	}
	return retried
}

func (d *Dispatcher) templateFor(category models.Category) Template {
	if t, ok := d.templates[category]; ok {
		return t
	}
	return d.fallback
}
