package models

import "time"

// AlertInput is the request shape for creating an alert.
type AlertInput struct {
	ID                  string                 `json:"id" binding:"required"`
	Category            Category               `json:"category" binding:"required"`
	Severity            Severity               `json:"severity" binding:"required"`
	Title               string                 `json:"title" binding:"required"`
	Message             string                 `json:"message"`
	Location            *Location              `json:"location,omitempty"`
	SourceID            string                 `json:"source_id,omitempty"`
	EscalationRules     []EscalationRule       `json:"escalation_rules,omitempty"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
	Tags                []string               `json:"tags,omitempty"`
	PriorityScore       float64                `json:"priority_score,omitempty"`
	AutoResolve         bool                   `json:"auto_resolve,omitempty"`
	AutoResolveAfterMin int                    `json:"auto_resolve_after_minutes,omitempty"`
	TriggeredAt         time.Time              `json:"triggered_at,omitempty"`
}

// RiskAssessment is a derived risk evaluation consumed from the risk topic.
type RiskAssessment struct {
	AssessmentID           string    `json:"assessment_id"`
	SourceID               string    `json:"source_id"`
	RiskLevel              string    `json:"risk_level"` // low, medium, high, critical
	Probability            float64   `json:"probability"`
	TimeToFailureHours     float64   `json:"time_to_failure_hours,omitempty"`
	ContributingFactors    []string  `json:"contributing_factors,omitempty"`
	AffectedInfrastructure []string  `json:"affected_infrastructure,omitempty"`
	EstimatedCost          float64   `json:"estimated_cost,omitempty"`
	Location               *Location `json:"location,omitempty"`
	Timestamp              time.Time `json:"timestamp"`
}

// SensorEvent is a sensor-health event consumed from the sensor topic.
type SensorEvent struct {
	SensorID  string    `json:"sensor_id"`
	EventType string    `json:"event_type"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message,omitempty"`
	Location  *Location `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DedupRule is the per-category configuration driving duplicate detection.
// A zero RadiusMeters disables the location criterion, a zero
// MessageThreshold disables textual similarity.
type DedupRule struct {
	WindowMinutes    int     `json:"time_window_minutes"`
	RadiusMeters     float64 `json:"location_radius_meters,omitempty"`
	RequireSource    bool    `json:"require_source,omitempty"`
	RequireSeverity  bool    `json:"require_severity,omitempty"`
	MessageThreshold float64 `json:"message_similarity_threshold,omitempty"`
}
