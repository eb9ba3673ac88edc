package dedup

import (
	"math"
	"strings"

	"prism-alert-service/internal/models"
)

const (
	weightSource   = 0.3
	weightSeverity = 0.2
	weightLocation = 0.3
	weightMessage  = 0.2

	// A candidate matches only when the normalized score reaches this
	// threshold with at least minCriteria criteria satisfied.
	scoreThreshold = 0.6
	minCriteria    = 2

	earthRadiusMeters = 6371000
)

// MatchResult describes why a candidate was considered a duplicate.
type MatchResult struct {
	MatchedID        string   `json:"matched_id"`
	Score            float64  `json:"score"`
	Criteria         []string `json:"criteria"`
	TimeDeltaMinutes float64  `json:"time_delta_minutes"`
	DistanceMeters   float64  `json:"distance_meters,omitempty"`
}

// Match evaluates candidate against an existing alert under rule. It returns
// the match details and true when the pair qualifies as a duplicate.
//
// A candidate whose trigger timestamp falls outside the rule's time window is
// rejected outright. Otherwise up to four weighted criteria accumulate a
// score that is normalized by (criteria evaluated x 0.3).
func Match(candidate models.AlertInput, existing models.Alert, rule models.DedupRule) (MatchResult, bool) {
	delta := math.Abs(candidate.TriggeredAt.Sub(existing.TriggeredAt).Minutes())
	if delta > float64(rule.WindowMinutes) {
		return MatchResult{}, false
	}

	var (
		score     float64
		evaluated int
		criteria  []string
		distance  float64
	)

	if rule.RequireSource {
		evaluated++
		if candidate.SourceID != "" && candidate.SourceID == existing.SourceID {
			score += weightSource
			criteria = append(criteria, "source")
		}
	}

	if rule.RequireSeverity {
		evaluated++
		if candidate.Severity == existing.Severity {
			score += weightSeverity
			criteria = append(criteria, "severity")
		}
	}

	if rule.RadiusMeters > 0 && candidate.Location != nil && existing.Location != nil {
		evaluated++
		distance = haversineMeters(*candidate.Location, *existing.Location)
		if distance <= rule.RadiusMeters {
			score += weightLocation
			criteria = append(criteria, "location")
		}
	}

	if rule.MessageThreshold > 0 {
		evaluated++
		if jaccardSimilarity(candidate.Message, existing.Message) >= rule.MessageThreshold {
			score += weightMessage
			criteria = append(criteria, "message")
		}
	}

	if evaluated == 0 {
		return MatchResult{}, false
	}

	normalized := score / (float64(evaluated) * 0.3)
	if normalized < scoreThreshold || len(criteria) < minCriteria {
		return MatchResult{}, false
	}

	return MatchResult{
		MatchedID:        existing.ID,
		Score:            normalized,
		Criteria:         criteria,
		TimeDeltaMinutes: delta,
		DistanceMeters:   distance,
	}, true
}

// haversineMeters computes the great-circle distance between two locations.
func haversineMeters(a, b models.Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// jaccardSimilarity compares two messages as lower-cased word sets.
func jaccardSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}
