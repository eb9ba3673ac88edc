package escalation

import (
	"time"

	"prism-alert-service/internal/logging"
	"prism-alert-service/internal/models"
)

// Named rule conditions form a fixed closed vocabulary. Unknown names and
// evaluation failures both resolve to true: the engine fails open toward
// escalating, never toward silence.
const (
	CondNotAcknowledged   = "not_acknowledged"
	CondCriticalSeverity  = "critical_severity"
	CondHighPriority      = "high_priority"
	CondLocationSensitive = "location_sensitive"
	CondMultipleFailures  = "multiple_failures"

	highPriorityThreshold = 70
)

// Settings is the injected escalation policy configuration.
type Settings struct {
	Enabled            bool
	MaxLevel           int
	BusinessHoursOnly  bool
	BusinessHoursStart int
	BusinessHoursEnd   int
	WeekendEscalation  bool
}

// Engine decides whether and how an alert escalates.
type Engine struct {
	settings Settings
	logger   *logging.Logger
	now      func() time.Time
}

// New builds an Engine. A nil clock defaults to wall time.
func New(settings Settings, logger *logging.Logger, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{settings: settings, logger: logger, now: now}
}

// NextRule returns the lowest-level rule not yet recorded in the alert's
// escalation trail whose delay has elapsed, or nil when none is due. The
// per-(alert, level) uniqueness of the trail is the idempotency guard.
func (e *Engine) NextRule(alert *models.Alert) *models.EscalationRule {
	age := alert.AgeMinutes(e.now())
	var next *models.EscalationRule
	for i := range alert.EscalationRules {
		rule := &alert.EscalationRules[i]
		if alert.EscalatedAt(rule.Level) {
			continue
		}
		if age < float64(rule.DelayMinutes) {
			continue
		}
		if next == nil || rule.Level < next.Level {
			next = rule
		}
	}
	return next
}

// ShouldEscalate evaluates every gate for the given rule. All must pass.
func (e *Engine) ShouldEscalate(alert *models.Alert, rule models.EscalationRule) bool {
	if !e.settings.Enabled {
		return false
	}
	if !alert.Open() {
		return false
	}
	if alert.AgeMinutes(e.now()) < float64(rule.DelayMinutes) {
		return false
	}

	now := e.now()
	if e.settings.BusinessHoursOnly {
		hour := now.Hour()
		if hour < e.settings.BusinessHoursStart || hour >= e.settings.BusinessHoursEnd {
			return false
		}
	}
	if !e.settings.WeekendEscalation {
		day := now.Weekday()
		if day == time.Saturday || day == time.Sunday {
			return false
		}
	}
	if rule.Level > e.settings.MaxLevel {
		return false
	}

	for _, cond := range rule.Conditions {
		if !e.evaluateCondition(cond, alert) {
			return false
		}
	}
	return true
}

// evaluateCondition resolves one named condition against the alert.
func (e *Engine) evaluateCondition(name string, alert *models.Alert) bool {
	switch name {
	case CondNotAcknowledged:
		return alert.AcknowledgedAt == nil
	case CondCriticalSeverity:
		return alert.Severity == models.SeverityCritical || alert.Severity == models.SeverityEmergency
	case CondHighPriority:
		return alert.PriorityScore >= highPriorityThreshold
	case CondLocationSensitive:
		return alert.HasTag(CondLocationSensitive)
	case CondMultipleFailures:
		return alert.HasTag(CondMultipleFailures)
	default:
		e.logger.WithFields(map[string]interface{}{
			"alert_id":  alert.ID,
			"condition": name,
		}).Warn("Unknown escalation condition, defaulting to escalate")
		return true
	}
}
