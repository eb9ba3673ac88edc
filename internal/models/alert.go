package models

import (
	"time"
)

// Category classifies what kind of condition an alert reports.
type Category string

const (
	CategoryRisk                Category = "risk"
	CategorySensorFailure       Category = "sensor_failure"
	CategoryCommunicationLoss   Category = "communication_loss"
	CategoryBatteryLow          Category = "battery_low"
	CategoryCalibrationDue      Category = "calibration_due"
	CategoryMaintenanceRequired Category = "maintenance_required"
	CategoryWeatherWarning      Category = "weather_warning"
	CategorySystemError         Category = "system_error"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryRisk, CategorySensorFailure, CategoryCommunicationLoss,
		CategoryBatteryLow, CategoryCalibrationDue, CategoryMaintenanceRequired,
		CategoryWeatherWarning, CategorySystemError:
		return true
	}
	return false
}

// Severity orders alerts from informational to emergency.
type Severity string

const (
	SeverityInfo      Severity = "info"
	SeverityWarning   Severity = "warning"
	SeverityCritical  Severity = "critical"
	SeverityEmergency Severity = "emergency"
)

var severityRank = map[Severity]int{
	SeverityInfo:      0,
	SeverityWarning:   1,
	SeverityCritical:  2,
	SeverityEmergency: 3,
}

// Rank returns the ordinal position of s; unknown severities rank lowest.
func (s Severity) Rank() int {
	return severityRank[s]
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Status is the lifecycle state of an alert.
type Status string

const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
	StatusSuppressed   Status = "suppressed"
)

// Location is an optional geographic position attached to an alert.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation,omitempty"`
}

// EscalationRule is one step of an alert's escalation ladder. Levels within
// one alert are strictly increasing; level 0 means immediate escalation.
type EscalationRule struct {
	Level        int      `json:"level"`
	DelayMinutes int      `json:"delay_minutes"`
	Recipients   []string `json:"recipients"`
	Channels     []string `json:"channels"`
	Conditions   []string `json:"conditions,omitempty"`
}

// EscalationRecord is the append-only audit entry written when a level fires.
// At most one record exists per (alert, level) pair.
type EscalationRecord struct {
	AlertID    string    `json:"alert_id"`
	Level      int       `json:"level"`
	Timestamp  time.Time `json:"timestamp"`
	Recipients []string  `json:"recipients"`
	Channels   []string  `json:"channels"`
	Success    bool      `json:"success"`
}

// NotificationAttempt records a single dispatch attempt on one channel.
type NotificationAttempt struct {
	ID         string    `json:"id"`
	Channel    string    `json:"channel"`
	Recipient  string    `json:"recipient"`
	Priority   string    `json:"priority"`
	Status     string    `json:"status"` // sent or failed
	Error      string    `json:"error,omitempty"`
	SentAt     time.Time `json:"sent_at"`
	RetryCount int       `json:"retry_count"`
}

// Alert is the central entity tracked through the lifecycle. It is owned by
// the persistence layer; the engine holds it only transiently.
type Alert struct {
	ID                  string                 `json:"id"`
	Category            Category               `json:"category"`
	Severity            Severity               `json:"severity"`
	Status              Status                 `json:"status"`
	Title               string                 `json:"title"`
	Message             string                 `json:"message"`
	Location            *Location              `json:"location,omitempty"`
	SourceID            string                 `json:"source_id,omitempty"`
	EscalationRules     []EscalationRule       `json:"escalation_rules,omitempty"`
	Notifications       []NotificationAttempt  `json:"notifications,omitempty"`
	Escalations         []EscalationRecord     `json:"escalations,omitempty"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
	Tags                []string               `json:"tags,omitempty"`
	PriorityScore       float64                `json:"priority_score"`
	AutoResolve         bool                   `json:"auto_resolve"`
	AutoResolveAfterMin int                    `json:"auto_resolve_after_minutes,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
	TriggeredAt         time.Time              `json:"triggered_at"`
	AcknowledgedAt      *time.Time             `json:"acknowledged_at,omitempty"`
	AcknowledgedBy      string                 `json:"acknowledged_by,omitempty"`
	ResolvedAt          *time.Time             `json:"resolved_at,omitempty"`
	ResolvedBy          string                 `json:"resolved_by,omitempty"`
	SuppressedUntil     *time.Time             `json:"suppressed_until,omitempty"`
	SuppressedBy        string                 `json:"suppressed_by,omitempty"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// HasTag reports whether the alert carries the given tag.
func (a *Alert) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// EscalatedAt reports whether an escalation record already exists for level.
func (a *Alert) EscalatedAt(level int) bool {
	for _, r := range a.Escalations {
		if r.Level == level {
			return true
		}
	}
	return false
}

// AgeMinutes returns minutes elapsed since the alert triggered.
func (a *Alert) AgeMinutes(now time.Time) float64 {
	return now.Sub(a.TriggeredAt).Minutes()
}

// Open reports whether the alert has not reached its terminal state.
func (a *Alert) Open() bool {
	return a.Status != StatusResolved
}
