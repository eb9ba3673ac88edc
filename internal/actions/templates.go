package actions

import (
	"prism-alert-service/internal/models"
)

// Templates maps "category_severity" keys to action template sets, with a
// severity-only generic fallback when no specific set exists.
type Templates struct {
	ByKey   map[string][]models.RecommendedAction
	Generic map[models.Severity]models.RecommendedAction
}

// DefaultTemplates returns the stock template configuration for an
// industrial monitoring deployment.
func DefaultTemplates() Templates {
	return Templates{
		ByKey: map[string][]models.RecommendedAction{
			"risk_emergency": {
				{
					Type:                   models.ActionImmediate,
					Priority:               models.PriorityCritical,
					Description:            "Evacuate personnel from the affected zone and halt operations",
					EstimatedCost:          50000,
					EstimatedDurationHours: 4,
					RequiredPersonnel:      []string{"site supervisor", "safety officer"},
					RequiredEquipment:      []string{"barrier tape", "radio sets"},
					SafetyPrecautions:      []string{"confirm headcount", "cut power to affected equipment"},
					ExpectedRiskReduction:  0.9,
					FleetDirectives:        []string{"recall_units", "hold_dispatch"},
				},
				{
					Type:                   models.ActionImmediate,
					Priority:               models.PriorityHigh,
					Description:            "Deploy inspection crew for structural assessment",
					EstimatedCost:          25000,
					EstimatedDurationHours: 8,
					RequiredPersonnel:      []string{"structural engineer", "inspection crew"},
					RequiredEquipment:      []string{"drone", "thermal camera"},
					ExpectedRiskReduction:  0.7,
				},
			},
			"risk_critical": {
				{
					Type:                   models.ActionImmediate,
					Priority:               models.PriorityCritical,
					Description:            "Restrict access to the affected area and stage emergency response",
					EstimatedCost:          30000,
					EstimatedDurationHours: 6,
					RequiredPersonnel:      []string{"site supervisor", "response team"},
					SafetyPrecautions:      []string{"establish exclusion zone"},
					ExpectedRiskReduction:  0.8,
					FleetDirectives:        []string{"reroute_units"},
				},
				{
					Type:                   models.ActionPreventive,
					Priority:               models.PriorityHigh,
					Description:            "Reinforce affected infrastructure before next load cycle",
					EstimatedCost:          40000,
					EstimatedDurationHours: 12,
					RequiredPersonnel:      []string{"maintenance crew"},
					RequiredEquipment:      []string{"support beams", "crane"},
					ExpectedRiskReduction:  0.6,
				},
				{
					Type:                   models.ActionMonitoring,
					Priority:               models.PriorityMedium,
					Description:            "Install continuous strain monitoring on affected members",
					EstimatedCost:          8000,
					EstimatedDurationHours: 4,
					RequiredEquipment:      []string{"strain gauges", "telemetry node"},
					ExpectedRiskReduction:  0.3,
				},
			},
			"risk_warning": {
				{
					Type:                   models.ActionPreventive,
					Priority:               models.PriorityHigh,
					Description:            "Schedule targeted inspection within the next shift",
					EstimatedCost:          5000,
					EstimatedDurationHours: 3,
					RequiredPersonnel:      []string{"inspection crew"},
					ExpectedRiskReduction:  0.5,
				},
				{
					Type:                   models.ActionMonitoring,
					Priority:               models.PriorityMedium,
					Description:            "Increase sensor sampling rate on the affected segment",
					EstimatedCost:          500,
					EstimatedDurationHours: 1,
					ExpectedRiskReduction:  0.2,
				},
			},
			"sensor_failure_critical": {
				{
					Type:                   models.ActionMaintenance,
					Priority:               models.PriorityHigh,
					Description:            "Replace failed sensor and verify calibration",
					EstimatedCost:          2000,
					EstimatedDurationHours: 2,
					RequiredPersonnel:      []string{"field technician"},
					RequiredEquipment:      []string{"replacement sensor", "calibration kit"},
					ExpectedRiskReduction:  0.6,
				},
			},
		},
		Generic: map[models.Severity]models.RecommendedAction{
			models.SeverityInfo: {
				Type:                   models.ActionMonitoring,
				Priority:               models.PriorityLow,
				Description:            "Log the condition and review during the next scheduled inspection",
				EstimatedCost:          100,
				EstimatedDurationHours: 0.5,
				ExpectedRiskReduction:  0.1,
			},
			models.SeverityWarning: {
				Type:                   models.ActionMonitoring,
				Priority:               models.PriorityMedium,
				Description:            "Increase monitoring frequency and flag for supervisor review",
				EstimatedCost:          1000,
				EstimatedDurationHours: 2,
				ExpectedRiskReduction:  0.3,
			},
			models.SeverityCritical: {
				Type:                   models.ActionImmediate,
				Priority:               models.PriorityHigh,
				Description:            "Dispatch inspection crew and restrict access pending assessment",
				EstimatedCost:          10000,
				EstimatedDurationHours: 4,
				RequiredPersonnel:      []string{"inspection crew"},
				ExpectedRiskReduction:  0.6,
			},
			models.SeverityEmergency: {
				Type:                   models.ActionImmediate,
				Priority:               models.PriorityCritical,
				Description:            "Initiate emergency response and evacuate the affected zone",
				EstimatedCost:          50000,
				EstimatedDurationHours: 6,
				RequiredPersonnel:      []string{"site supervisor", "safety officer"},
				SafetyPrecautions:      []string{"confirm headcount"},
				ExpectedRiskReduction:  0.85,
			},
		},
	}
}
