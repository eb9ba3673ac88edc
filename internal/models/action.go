package models

// ActionType classifies how a recommended action intervenes.
type ActionType string

const (
	ActionImmediate   ActionType = "immediate"
	ActionPreventive  ActionType = "preventive"
	ActionMonitoring  ActionType = "monitoring"
	ActionMaintenance ActionType = "maintenance"
)

// ActionPriority orders recommended actions by urgency.
type ActionPriority string

const (
	PriorityLow      ActionPriority = "low"
	PriorityMedium   ActionPriority = "medium"
	PriorityHigh     ActionPriority = "high"
	PriorityCritical ActionPriority = "critical"
)

var actionPriorityRank = map[ActionPriority]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

// Rank returns the ordinal position of p; unknown priorities rank lowest.
func (p ActionPriority) Rank() int {
	return actionPriorityRank[p]
}

// CostBenefit is the financial evaluation attached to a recommended action.
type CostBenefit struct {
	ActionCost            float64 `json:"action_cost"`
	OperationalImpactCost float64 `json:"operational_impact_cost"`
	SafetyRiskCost        float64 `json:"safety_risk_cost"`
	ExpectedSavings       float64 `json:"expected_savings"`
	TotalCost             float64 `json:"total_cost"`
	ROIPercent            float64 `json:"roi_percent"`
	PaybackHours          float64 `json:"payback_hours"`
	Recommendation        string  `json:"recommendation"` // implement, modify, or defer
}

// RecommendedAction is a cost-evaluated mitigation suggestion generated for
// risk-category alerts. It is never persisted on its own; it rides inside the
// alert's metadata.
type RecommendedAction struct {
	ID                     string         `json:"id"`
	Type                   ActionType     `json:"type"`
	Priority               ActionPriority `json:"priority"`
	Description            string         `json:"description"`
	EstimatedCost          float64        `json:"estimated_cost"`
	EstimatedDurationHours float64        `json:"estimated_duration_hours"`
	RequiredPersonnel      []string       `json:"required_personnel,omitempty"`
	RequiredEquipment      []string       `json:"required_equipment,omitempty"`
	SafetyPrecautions      []string       `json:"safety_precautions,omitempty"`
	ExpectedRiskReduction  float64        `json:"expected_risk_reduction"`
	FleetDirectives        []string       `json:"fleet_directives,omitempty"`
	CostBenefit            *CostBenefit   `json:"cost_benefit,omitempty"`
}
