package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"prism-alert-service/internal/actions"
	"prism-alert-service/internal/dedup"
	"prism-alert-service/internal/escalation"
	"prism-alert-service/internal/logging"
	"prism-alert-service/internal/models"
	"prism-alert-service/internal/notify"
	"prism-alert-service/internal/store"
)

// ErrInvalidInput marks validation failures rejected before any side effect.
var ErrInvalidInput = errors.New("invalid alert input")

// Risk assessments warrant an alert when probability reaches this bound,
// regardless of the stated risk level.
const riskProbabilityThreshold = 0.7

// Controller orchestrates the alert lifecycle: deduplication, creation with
// recommended actions, manual transitions, and the periodic escalation /
// auto-resolve sweep.
type Controller struct {
	store      store.Store
	dedup      *dedup.Deduplicator
	actions    *actions.Engine
	escalation *escalation.Engine
	dispatcher *notify.Dispatcher
	logger     *logging.Logger
	now        func() time.Time
}

// NewController wires the engine components. A nil clock defaults to wall time.
func NewController(st store.Store, dd *dedup.Deduplicator, ae *actions.Engine, ee *escalation.Engine, dp *notify.Dispatcher, logger *logging.Logger, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{
		store:      st,
		dedup:      dd,
		actions:    ae,
		escalation: ee,
		dispatcher: dp,
		logger:     logger,
		now:        now,
	}
}

// CreateAlert runs the full creation path. A duplicate returns the existing
// alert instead of creating a new one. Recommendation, initial notification,
// and cache registration failures never block creation.
func (c *Controller) CreateAlert(ctx context.Context, input models.AlertInput) (*models.Alert, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.TriggeredAt.IsZero() {
		input.TriggeredAt = c.now()
	}

	if match, dup := c.dedup.IsDuplicate(input); dup {
		existing, err := c.store.GetByID(ctx, match.MatchedID)
		if err == nil {
			return existing, nil
		}
		// The matched alert is gone from the store; treat as not duplicate.
		c.logger.WithFields(map[string]interface{}{
			"alert_id":   input.ID,
			"matched_id": match.MatchedID,
		}).Warnf("Dedup matched a missing alert: %v", err)
	}

	alert := buildAlert(input, c.now())

	if input.Category == models.CategoryRisk && input.SourceID != "" {
		recs, err := c.actions.Recommend(input)
		if err != nil {
			c.logger.WithField("alert_id", alert.ID).Warnf("Recommendation engine failed: %v", err)
		} else {
			alert.Metadata["recommended_actions"] = recs
		}
	}

	if err := c.store.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to persist alert %s: %w", alert.ID, err)
	}

	attempts := c.dispatcher.SendInitial(ctx, alert)
	if len(attempts) > 0 {
		alert.Notifications = attempts
		alert.UpdatedAt = c.now()
		if err := c.store.Update(ctx, alert); err != nil {
			c.logger.WithField("alert_id", alert.ID).Errorf("Failed to record notification attempts: %v", err)
		}
	}

	c.dedup.Register(*alert)

	c.logger.WithFields(map[string]interface{}{
		"alert_id": alert.ID,
		"category": alert.Category,
		"severity": alert.Severity,
	}).Info("Alert created")
	return alert, nil
}

// Acknowledge moves an active alert to acknowledged. A no-op when the alert
// is already acknowledged or resolved.
func (c *Controller) Acknowledge(ctx context.Context, id, by string) (*models.Alert, error) {
	if by == "" {
		return nil, fmt.Errorf("%w: acknowledged_by is required", ErrInvalidInput)
	}
	alert, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Status == models.StatusAcknowledged || alert.Status == models.StatusResolved {
		return alert, nil
	}

	now := c.now()
	alert.Status = models.StatusAcknowledged
	alert.AcknowledgedAt = &now
	alert.AcknowledgedBy = by
	alert.UpdatedAt = now
	if err := c.store.Update(ctx, alert); err != nil {
		return nil, err
	}
	c.logger.WithField("alert_id", id).Infof("Alert acknowledged by %s", by)
	return alert, nil
}

// Resolve moves an alert to its terminal state, capturing an optional
// resolution note. A no-op when already resolved.
func (c *Controller) Resolve(ctx context.Context, id, by, note string) (*models.Alert, error) {
	if by == "" {
		return nil, fmt.Errorf("%w: resolved_by is required", ErrInvalidInput)
	}
	alert, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Status == models.StatusResolved {
		return alert, nil
	}

	now := c.now()
	alert.Status = models.StatusResolved
	alert.ResolvedAt = &now
	alert.ResolvedBy = by
	alert.UpdatedAt = now
	if note != "" {
		if alert.Metadata == nil {
			alert.Metadata = make(map[string]interface{})
		}
		alert.Metadata["resolution_note"] = note
	}
	if err := c.store.Update(ctx, alert); err != nil {
		return nil, err
	}
	c.logger.WithField("alert_id", id).Infof("Alert resolved by %s", by)
	return alert, nil
}

// Suppress silences an alert until now+minutes, recording who and why.
// A no-op when the alert is already resolved.
func (c *Controller) Suppress(ctx context.Context, id, by, reason string, minutes int) (*models.Alert, error) {
	if by == "" || minutes <= 0 {
		return nil, fmt.Errorf("%w: suppressed_by and a positive duration are required", ErrInvalidInput)
	}
	alert, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Status == models.StatusResolved {
		return alert, nil
	}

	now := c.now()
	until := now.Add(time.Duration(minutes) * time.Minute)
	alert.Status = models.StatusSuppressed
	alert.SuppressedUntil = &until
	alert.SuppressedBy = by
	alert.UpdatedAt = now
	if reason != "" {
		if alert.Metadata == nil {
			alert.Metadata = make(map[string]interface{})
		}
		alert.Metadata["suppression_reason"] = reason
	}
	if err := c.store.Update(ctx, alert); err != nil {
		return nil, err
	}
	c.logger.WithField("alert_id", id).Infof("Alert suppressed by %s for %d minutes", by, minutes)
	return alert, nil
}

// RetryNotifications re-attempts the alert's failed notifications still
// below the retry bound and persists the updated records.
func (c *Controller) RetryNotifications(ctx context.Context, id string) (*models.Alert, error) {
	alert, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if retried := c.dispatcher.RetryFailed(ctx, alert); retried > 0 {
		alert.UpdatedAt = c.now()
		if err := c.store.Update(ctx, alert); err != nil {
			return nil, err
		}
	}
	return alert, nil
}

// GetAlerts returns a filtered page of alerts plus the total count.
func (c *Controller) GetAlerts(ctx context.Context, filter store.Filter, page, limit int) ([]models.Alert, int, error) {
	return c.store.List(ctx, filter, page, limit)
}

// GetAlertStats aggregates counts for the filter.
func (c *Controller) GetAlertStats(ctx context.Context, filter store.Filter) (store.Stats, error) {
	return c.store.GetStats(ctx, filter)
}

// GetActiveAlerts returns every unresolved alert.
func (c *Controller) GetActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	return c.store.Active(ctx)
}

// ProcessRiskAssessment decides whether a derived risk assessment warrants an
// alert and, if so, creates one with generated escalation rules.
func (c *Controller) ProcessRiskAssessment(ctx context.Context, assessment models.RiskAssessment) error {
	if !riskWarrantsAlert(assessment) {
		c.logger.WithField("assessment_id", assessment.AssessmentID).
			Debugf("Risk assessment below alert threshold (level=%s probability=%.2f)",
				assessment.RiskLevel, assessment.Probability)
		return nil
	}

	input := models.AlertInput{
		ID:       "risk-" + assessment.AssessmentID,
		Category: models.CategoryRisk,
		Severity: severityForRiskLevel(assessment.RiskLevel),
		Title:    fmt.Sprintf("%s risk detected for %s", strings.ToUpper(assessment.RiskLevel), assessment.SourceID),
		Message:  riskMessage(assessment),
		SourceID: assessment.SourceID,
		Location: assessment.Location,
		Metadata: map[string]interface{}{
			"risk_level":              assessment.RiskLevel,
			"risk_probability":        assessment.Probability,
			"time_to_failure_hours":   assessment.TimeToFailureHours,
			"contributing_factors":    assessment.ContributingFactors,
			"affected_infrastructure": assessment.AffectedInfrastructure,
			"estimated_cost":          assessment.EstimatedCost,
		},
		EscalationRules: riskEscalationRules(assessment.RiskLevel),
		PriorityScore:   assessment.Probability * 100,
		TriggeredAt:     assessment.Timestamp,
	}

	_, err := c.CreateAlert(ctx, input)
	return err
}

// ProcessSensorEvent maps a sensor-health event to an alert category.
// Unmapped event types are silently dropped.
func (c *Controller) ProcessSensorEvent(ctx context.Context, event models.SensorEvent) error {
	category, ok := sensorCategory(event.EventType)
	if !ok || !category.Valid() {
		c.logger.WithField("sensor_id", event.SensorID).
			Debugf("Dropping sensor event with unmapped type %q", event.EventType)
		return nil
	}

	severity := event.Severity
	if !severity.Valid() {
		severity = models.SeverityWarning
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = c.now()
	}

	input := models.AlertInput{
		ID:       fmt.Sprintf("sensor-%s-%d", event.SensorID, ts.Unix()),
		Category: category,
		Severity: severity,
		Title:    fmt.Sprintf("%s reported by sensor %s", event.EventType, event.SensorID),
		Message:  event.Message,
		SourceID: event.SensorID,
		Location: event.Location,
		Metadata: map[string]interface{}{
			"event_type": event.EventType,
		},
		TriggeredAt: ts,
	}

	_, err := c.CreateAlert(ctx, input)
	return err
}

func validateInput(input models.AlertInput) error {
	var missing []string
	if input.ID == "" {
		missing = append(missing, "id")
	}
	if input.Title == "" {
		missing = append(missing, "title")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if !input.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, input.Category)
	}
	if !input.Severity.Valid() {
		return fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, input.Severity)
	}
	return nil
}

func buildAlert(input models.AlertInput, now time.Time) *models.Alert {
	metadata := input.Metadata
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return &models.Alert{
		ID:                  input.ID,
		Category:            input.Category,
		Severity:            input.Severity,
		Status:              models.StatusActive,
		Title:               input.Title,
		Message:             input.Message,
		Location:            input.Location,
		SourceID:            input.SourceID,
		EscalationRules:     input.EscalationRules,
		Metadata:            metadata,
		Tags:                input.Tags,
		PriorityScore:       input.PriorityScore,
		AutoResolve:         input.AutoResolve,
		AutoResolveAfterMin: input.AutoResolveAfterMin,
		CreatedAt:           now,
		TriggeredAt:         input.TriggeredAt,
		UpdatedAt:           now,
	}
}

// riskWarrantsAlert applies the alerting threshold: any level above low, or
// a probability of 0.7 and up regardless of level.
func riskWarrantsAlert(a models.RiskAssessment) bool {
	switch a.RiskLevel {
	case "medium", "high", "critical":
		return true
	}
	return a.Probability >= riskProbabilityThreshold
}

func severityForRiskLevel(level string) models.Severity {
	switch level {
	case "critical":
		return models.SeverityEmergency
	case "high":
		return models.SeverityCritical
	case "medium":
		return models.SeverityWarning
	default:
		return models.SeverityWarning
	}
}

// riskEscalationRules generates the standard 15/30-minute ladder, with a
// level-0 immediate rule prepended for critical risk.
func riskEscalationRules(level string) []models.EscalationRule {
	rules := []models.EscalationRule{
		{
			Level:        1,
			DelayMinutes: 15,
			Channels:     []string{notify.ChannelSMS, notify.ChannelEmail},
			Conditions:   []string{escalation.CondNotAcknowledged},
		},
		{
			Level:        2,
			DelayMinutes: 30,
			Channels:     []string{notify.ChannelSMS, notify.ChannelEmail, notify.ChannelPush},
			Conditions:   []string{escalation.CondNotAcknowledged},
		},
	}
	if level == "critical" {
		rules = append([]models.EscalationRule{{
			Level:        0,
			DelayMinutes: 0,
			Channels:     []string{notify.ChannelSMS, notify.ChannelEmail, notify.ChannelWebhook, notify.ChannelPush},
		}}, rules...)
	}
	return rules
}

func riskMessage(a models.RiskAssessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Risk level %s with probability %.2f", a.RiskLevel, a.Probability)
	if a.TimeToFailureHours > 0 {
		fmt.Fprintf(&b, ", estimated time to failure %.1f hours", a.TimeToFailureHours)
	}
	if len(a.ContributingFactors) > 0 {
		fmt.Fprintf(&b, "\nContributing factors: %s", strings.Join(a.ContributingFactors, ", "))
	}
	if len(a.AffectedInfrastructure) > 0 {
		fmt.Fprintf(&b, "\nAffected infrastructure: %s", strings.Join(a.AffectedInfrastructure, ", "))
	}
	if a.EstimatedCost > 0 {
		fmt.Fprintf(&b, "\nEstimated cost: %.0f", a.EstimatedCost)
	}
	return b.String()
}

func sensorCategory(eventType string) (models.Category, bool) {
	switch eventType {
	case "failure":
		return models.CategorySensorFailure, true
	case "battery_low":
		return models.CategoryBatteryLow, true
	case "communication_loss":
		return models.CategoryCommunicationLoss, true
	case "calibration_due":
		return models.CategoryCalibrationDue, true
	case "maintenance_required":
		return models.CategoryMaintenanceRequired, true
	}
	return "", false
}
