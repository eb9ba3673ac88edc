package actions

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"prism-alert-service/internal/logging"
	"prism-alert-service/internal/models"
)

const (
	remoteSiteCostFactor     = 1.2
	remoteSiteDurationFactor = 1.5
	nightShiftCostFactor     = 1.3
	nightShiftStart          = 6
	nightShiftEnd            = 18

	defaultRiskProbability = 0.5

	// Risk-reduction differences at or below this are treated as ties.
	riskReductionTieBand = 0.1
)

// Engine selects, customizes, and financially ranks recommended actions for
// an alert. Templates and economics are injected at construction.
type Engine struct {
	templates             Templates
	hourlyOperationalCost float64
	safetyMultiplier      float64
	logger                *logging.Logger
	now                   func() time.Time
}

// New builds an Engine. A nil clock defaults to wall time.
func New(templates Templates, hourlyOperationalCost, safetyMultiplier float64, logger *logging.Logger, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		templates:             templates,
		hourlyOperationalCost: hourlyOperationalCost,
		safetyMultiplier:      safetyMultiplier,
		logger:                logger,
		now:                   now,
	}
}

// Recommend produces the ordered action list for the given alert input.
func (e *Engine) Recommend(input models.AlertInput) ([]models.RecommendedAction, error) {
	selected := e.selectTemplates(input)
	if len(selected) == 0 {
		return nil, fmt.Errorf("no action templates for severity %q", input.Severity)
	}

	probability := riskProbability(input.Metadata)
	for i := range selected {
		selected[i].ID = uuid.New().String()
		e.customize(&selected[i], input)
		selected[i].CostBenefit = e.analyze(selected[i], probability)
	}

	rank(selected)
	return selected, nil
}

// selectTemplates looks up the category_severity set, falling back to the
// severity-only generic action.
func (e *Engine) selectTemplates(input models.AlertInput) []models.RecommendedAction {
	key := fmt.Sprintf("%s_%s", input.Category, input.Severity)
	if set, ok := e.templates.ByKey[key]; ok {
		out := make([]models.RecommendedAction, len(set))
		copy(out, set)
		return out
	}
	if generic, ok := e.templates.Generic[input.Severity]; ok {
		return []models.RecommendedAction{generic}
	}
	return nil
}

// customize applies the remote-site and night-shift adjustments.
func (e *Engine) customize(action *models.RecommendedAction, input models.AlertInput) {
	if input.Location != nil {
		action.EstimatedCost *= remoteSiteCostFactor
		action.EstimatedDurationHours *= remoteSiteDurationFactor
	}
	hour := e.now().Hour()
	if hour < nightShiftStart || hour > nightShiftEnd {
		action.EstimatedCost *= nightShiftCostFactor
		action.RequiredPersonnel = append(action.RequiredPersonnel, "night shift supervisor")
	}
}

// analyze computes the cost-benefit verdict for one action.
func (e *Engine) analyze(action models.RecommendedAction, riskProbability float64) *models.CostBenefit {
	operationalImpact := action.EstimatedDurationHours * e.hourlyOperationalCost
	safetyRiskCost := riskProbability * e.hourlyOperationalCost * e.safetyMultiplier
	expectedSavings := action.ExpectedRiskReduction * safetyRiskCost
	totalCost := action.EstimatedCost + operationalImpact

	var roi float64
	if totalCost > 0 {
		roi = (expectedSavings - totalCost) / totalCost * 100
	}

	var payback float64
	if expectedSavings > 0 && action.EstimatedDurationHours > 0 {
		payback = totalCost / (expectedSavings / action.EstimatedDurationHours)
	}

	verdict := "implement"
	switch {
	case roi < -50:
		verdict = "defer"
	case roi < 0:
		verdict = "modify"
	}

	return &models.CostBenefit{
		ActionCost:            action.EstimatedCost,
		OperationalImpactCost: operationalImpact,
		SafetyRiskCost:        safetyRiskCost,
		ExpectedSavings:       expectedSavings,
		TotalCost:             totalCost,
		ROIPercent:            roi,
		PaybackHours:          payback,
		Recommendation:        verdict,
	}
}

// rank orders actions by priority, then risk reduction (outside the tie
// band), then ROI.
func rank(actions []models.RecommendedAction) {
	sort.SliceStable(actions, func(i, j int) bool {
		a, b := actions[i], actions[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		if math.Abs(a.ExpectedRiskReduction-b.ExpectedRiskReduction) > riskReductionTieBand {
			return a.ExpectedRiskReduction > b.ExpectedRiskReduction
		}
		var roiA, roiB float64
		if a.CostBenefit != nil {
			roiA = a.CostBenefit.ROIPercent
		}
		if b.CostBenefit != nil {
			roiB = b.CostBenefit.ROIPercent
		}
		return roiA > roiB
	})
}

func riskProbability(metadata map[string]interface{}) float64 {
	if metadata == nil {
		return defaultRiskProbability
	}
	switch v := metadata["risk_probability"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return defaultRiskProbability
}
