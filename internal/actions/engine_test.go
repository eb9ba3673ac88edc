package actions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism-alert-service/internal/logging"
	"prism-alert-service/internal/models"
)

func dayClock() func() time.Time {
	// Noon, to keep the night-shift adjustment out of the way.
	return func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
}

func nightClock() func() time.Time {
	return func() time.Time { return time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC) }
}

func TestCostBenefitAnalysis(t *testing.T) {
	templates := Templates{
		ByKey: map[string][]models.RecommendedAction{
			"risk_critical": {{
				Type:                   models.ActionImmediate,
				Priority:               models.PriorityHigh,
				Description:            "Deploy inspection crew",
				EstimatedCost:          25000,
				EstimatedDurationHours: 8,
				ExpectedRiskReduction:  0.7,
			}},
		},
	}
	e := New(templates, 10000, 100, logging.NewNop(), dayClock())

	recs, err := e.Recommend(models.AlertInput{
		ID:       "r1",
		Category: models.CategoryRisk,
		Severity: models.SeverityCritical,
		Metadata: map[string]interface{}{"risk_probability": 0.5},
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	cb := recs[0].CostBenefit
	require.NotNil(t, cb)
	assert.InDelta(t, 80000, cb.OperationalImpactCost, 0.01)
	assert.InDelta(t, 500000, cb.SafetyRiskCost, 0.01)
	assert.InDelta(t, 350000, cb.ExpectedSavings, 0.01)
	assert.InDelta(t, 105000, cb.TotalCost, 0.01)
	assert.InDelta(t, 233.33, cb.ROIPercent, 0.01)
	assert.InDelta(t, 2.4, cb.PaybackHours, 0.01)
	assert.Equal(t, "implement", cb.Recommendation)
}

func TestVerdictThresholds(t *testing.T) {
	e := New(Templates{}, 10000, 100, logging.NewNop(), dayClock())

	tests := []struct {
		name    string
		action  models.RecommendedAction
		verdict string
	}{
		{
			// savings 0.7 * 500k = 350k vs total 105k
			name:    "implement",
			action:  models.RecommendedAction{EstimatedCost: 25000, EstimatedDurationHours: 8, ExpectedRiskReduction: 0.7},
			verdict: "implement",
		},
		{
			// savings 0.1 * 500k = 50k vs total 60k: ROI -16.7%
			name:    "modify",
			action:  models.RecommendedAction{EstimatedCost: 10000, EstimatedDurationHours: 5, ExpectedRiskReduction: 0.1},
			verdict: "modify",
		},
		{
			// savings 0.05 * 500k = 25k vs total 110k: ROI -77%
			name:    "defer",
			action:  models.RecommendedAction{EstimatedCost: 10000, EstimatedDurationHours: 10, ExpectedRiskReduction: 0.05},
			verdict: "defer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := e.analyze(tt.action, 0.5)
			assert.Equal(t, tt.verdict, cb.Recommendation)
		})
	}
}

func TestRemoteSitePenalty(t *testing.T) {
	templates := Templates{
		Generic: map[models.Severity]models.RecommendedAction{
			models.SeverityWarning: {
				Priority:               models.PriorityMedium,
				EstimatedCost:          1000,
				EstimatedDurationHours: 2,
				ExpectedRiskReduction:  0.3,
			},
		},
	}
	e := New(templates, 10000, 100, logging.NewNop(), dayClock())

	recs, err := e.Recommend(models.AlertInput{
		ID:       "r1",
		Category: models.CategoryWeatherWarning,
		Severity: models.SeverityWarning,
		Location: &models.Location{Latitude: 46.5, Longitude: 11.3},
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 1200, recs[0].EstimatedCost, 0.01)
	assert.InDelta(t, 3, recs[0].EstimatedDurationHours, 0.01)
}

func TestNightShiftPenalty(t *testing.T) {
	templates := Templates{
		Generic: map[models.Severity]models.RecommendedAction{
			models.SeverityWarning: {
				Priority:               models.PriorityMedium,
				EstimatedCost:          1000,
				EstimatedDurationHours: 2,
				ExpectedRiskReduction:  0.3,
			},
		},
	}
	e := New(templates, 10000, 100, logging.NewNop(), nightClock())

	recs, err := e.Recommend(models.AlertInput{
		ID:       "r1",
		Category: models.CategoryWeatherWarning,
		Severity: models.SeverityWarning,
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 1300, recs[0].EstimatedCost, 0.01)
	assert.Contains(t, recs[0].RequiredPersonnel, "night shift supervisor")
}

func TestGenericFallbackWhenNoCategoryTemplates(t *testing.T) {
	e := New(DefaultTemplates(), 10000, 100, logging.NewNop(), dayClock())

	recs, err := e.Recommend(models.AlertInput{
		ID:       "s1",
		Category: models.CategorySystemError,
		Severity: models.SeverityInfo,
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.PriorityLow, recs[0].Priority)
}

func TestRankingPriorityBeatsROI(t *testing.T) {
	templates := Templates{
		ByKey: map[string][]models.RecommendedAction{
			"risk_critical": {
				{
					Description:            "high priority, excellent ROI",
					Priority:               models.PriorityHigh,
					EstimatedCost:          1000,
					EstimatedDurationHours: 1,
					ExpectedRiskReduction:  0.9,
				},
				{
					Description:            "critical priority, poor ROI",
					Priority:               models.PriorityCritical,
					EstimatedCost:          90000,
					EstimatedDurationHours: 20,
					ExpectedRiskReduction:  0.2,
				},
			},
		},
	}
	e := New(templates, 10000, 100, logging.NewNop(), dayClock())

	recs, err := e.Recommend(models.AlertInput{
		ID:       "r1",
		Category: models.CategoryRisk,
		Severity: models.SeverityCritical,
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, models.PriorityCritical, recs[0].Priority,
		"critical always sorts before high regardless of ROI")
}

func TestRankingRiskReductionTieBandFallsToROI(t *testing.T) {
	templates := Templates{
		ByKey: map[string][]models.RecommendedAction{
			"risk_critical": {
				{
					Description:            "slightly higher reduction, worse ROI",
					Priority:               models.PriorityHigh,
					EstimatedCost:          200000,
					EstimatedDurationHours: 10,
					ExpectedRiskReduction:  0.55,
				},
				{
					Description:            "slightly lower reduction, better ROI",
					Priority:               models.PriorityHigh,
					EstimatedCost:          1000,
					EstimatedDurationHours: 1,
					ExpectedRiskReduction:  0.5,
				},
			},
		},
	}
	e := New(templates, 10000, 100, logging.NewNop(), dayClock())

	recs, err := e.Recommend(models.AlertInput{
		ID:       "r1",
		Category: models.CategoryRisk,
		Severity: models.SeverityCritical,
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	// 0.05 apart is inside the tie band, so ROI decides.
	assert.Equal(t, "slightly lower reduction, better ROI", recs[0].Description)
}

func TestRecommendErrorsWithoutTemplates(t *testing.T) {
	e := New(Templates{}, 10000, 100, logging.NewNop(), dayClock())
	_, err := e.Recommend(models.AlertInput{
		ID:       "r1",
		Category: models.CategoryRisk,
		Severity: models.SeverityCritical,
	})
	assert.Error(t, err)
}
