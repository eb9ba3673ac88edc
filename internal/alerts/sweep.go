package alerts

import (
	"context"
	"sync"
	"time"

	"prism-alert-service/internal/models"
)

// Run drives the periodic sweep at the given interval until ctx is done.
func (c *Controller) Run(ctx context.Context, interval time.Duration, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		c.logger.Infof("Escalation sweep started (interval %s)", interval)
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Escalation sweep stopped")
				return
			case <-ticker.C:
				c.SweepOnce(ctx)
			}
		}
	}()
}

// SweepOnce runs one tick of the sweep: lift lapsed suppressions, escalate
// eligible alerts, and auto-resolve expired ones. Errors in one alert's
// processing never abort the sweep for the rest.
func (c *Controller) SweepOnce(ctx context.Context) {
	open, err := c.store.Active(ctx)
	if err != nil {
		c.logger.Errorf("Sweep skipped, failed to load open alerts: %v", err)
		return
	}

	now := c.now()
	for i := range open {
		alert := &open[i]

		if alert.Status == models.StatusSuppressed {
			if alert.SuppressedUntil == nil || now.Before(*alert.SuppressedUntil) {
				continue
			}
			// Suppression lapsed: the alert re-enters the active pool and
			// escalation resumes on the normal delay schedule.
			alert.Status = models.StatusActive
			alert.UpdatedAt = now
			if err := c.store.Update(ctx, alert); err != nil {
				c.logger.WithField("alert_id", alert.ID).Errorf("Failed to lift suppression: %v", err)
				continue
			}
			c.logger.WithField("alert_id", alert.ID).Info("Suppression lapsed, alert reactivated")
		}

		c.sweepEscalation(ctx, alert)
		c.sweepAutoResolve(ctx, alert)
	}
}

// sweepEscalation fires the next due escalation level for an active,
// unacknowledged alert. The per-(alert, level) record in the escalation
// trail, not locking, prevents a level from firing twice.
func (c *Controller) sweepEscalation(ctx context.Context, alert *models.Alert) {
	if alert.Status != models.StatusActive || alert.AcknowledgedAt != nil {
		return
	}

	rule := c.escalation.NextRule(alert)
	if rule == nil {
		return
	}
	if alert.EscalatedAt(rule.Level) {
		return
	}
	if !c.escalation.ShouldEscalate(alert, *rule) {
		return
	}

	attempts := c.dispatcher.SendEscalation(ctx, alert, *rule)
	success := false
	for _, att := range attempts {
		if att.Status == "sent" {
			success = true
			break
		}
	}

	alert.Escalations = append(alert.Escalations, models.EscalationRecord{
		AlertID:    alert.ID,
		Level:      rule.Level,
		Timestamp:  c.now(),
		Recipients: rule.Recipients,
		Channels:   rule.Channels,
		Success:    success,
	})
	alert.Notifications = append(alert.Notifications, attempts...)
	alert.UpdatedAt = c.now()

	if err := c.store.Update(ctx, alert); err != nil {
		c.logger.WithField("alert_id", alert.ID).Errorf("Failed to record escalation: %v", err)
		return
	}
	c.logger.WithFields(map[string]interface{}{
		"alert_id": alert.ID,
		"level":    rule.Level,
		"success":  success,
	}).Info("Alert escalated")
}

// sweepAutoResolve resolves an alert whose auto-resolve timeout has elapsed.
func (c *Controller) sweepAutoResolve(ctx context.Context, alert *models.Alert) {
	if alert.Status != models.StatusActive && alert.Status != models.StatusAcknowledged {
		return
	}
	if !alert.AutoResolve || alert.AutoResolveAfterMin <= 0 {
		return
	}
	now := c.now()
	if alert.AgeMinutes(now) < float64(alert.AutoResolveAfterMin) {
		return
	}

	alert.Status = models.StatusResolved
	alert.ResolvedAt = &now
	alert.ResolvedBy = "system"
	alert.UpdatedAt = now
	if alert.Metadata == nil {
		alert.Metadata = make(map[string]interface{})
	}
	alert.Metadata["resolution_note"] = "auto_resolved"

	if err := c.store.Update(ctx, alert); err != nil {
		c.logger.WithField("alert_id", alert.ID).Errorf("Failed to auto-resolve: %v", err)
		return
	}
	c.logger.WithField("alert_id", alert.ID).Info("Alert auto-resolved")
}
