package dedup

import (
	"sync"
	"time"

	"prism-alert-service/internal/logging"
	"prism-alert-service/internal/models"
)

// Deduplicator composes the per-category rules, the recent-alert cache, and
// the similarity matcher. Rules are injected at construction and mutable only
// through SetRule.
type Deduplicator struct {
	mu     sync.RWMutex
	rules  map[models.Category]models.DedupRule
	cache  *Cache
	logger *logging.Logger
}

// New builds a Deduplicator over the given rule set.
func New(rules map[models.Category]models.DedupRule, logger *logging.Logger, now func() time.Time) *Deduplicator {
	if rules == nil {
		rules = make(map[models.Category]models.DedupRule)
	}
	return &Deduplicator{
		rules:  rules,
		cache:  NewCache(now),
		logger: logger,
	}
}

// IsDuplicate reports whether input matches a recently registered alert of
// the same category. Absence of a rule for the category means never a
// duplicate; any internal failure also defaults to not-duplicate, preferring
// availability over precision.
func (d *Deduplicator) IsDuplicate(input models.AlertInput) (MatchResult, bool) {
	d.mu.RLock()
	rule, ok := d.rules[input.Category]
	d.mu.RUnlock()
	if !ok {
		return MatchResult{}, false
	}

	for _, existing := range d.cache.Recent(input.Category, rule.WindowMinutes) {
		if res, matched := Match(input, existing, rule); matched {
			d.logger.WithFields(map[string]interface{}{
				"alert_id":   input.ID,
				"matched_id": res.MatchedID,
				"score":      res.Score,
			}).Info("Duplicate alert detected")
			return res, true
		}
	}
	return MatchResult{}, false
}

// Register stores the alert in the cache. Best effort: it never fails alert
// creation.
func (d *Deduplicator) Register(alert models.Alert) {
	d.cache.Register(alert)
}

// Rule returns the configured rule for a category.
func (d *Deduplicator) Rule(category models.Category) (models.DedupRule, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rule, ok := d.rules[category]
	return rule, ok
}

// SetRule installs or replaces the rule for a category. This is the only
// administrative mutation path.
func (d *Deduplicator) SetRule(category models.Category, rule models.DedupRule) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rules[category] = rule
}

// Clear empties the cache for the given categories, or entirely.
func (d *Deduplicator) Clear(categories ...models.Category) {
	d.cache.Clear(categories...)
}

// DefaultRules returns the stock per-category deduplication configuration.
func DefaultRules() map[models.Category]models.DedupRule {
	return map[models.Category]models.DedupRule{
		models.CategoryRisk: {
			WindowMinutes:    30,
			RadiusMeters:     500,
			RequireSource:    true,
			RequireSeverity:  true,
			MessageThreshold: 0.5,
		},
		models.CategorySensorFailure: {
			WindowMinutes:   60,
			RequireSource:   true,
			RequireSeverity: true,
		},
		models.CategoryCommunicationLoss: {
			WindowMinutes:   30,
			RequireSource:   true,
			RequireSeverity: true,
		},
		models.CategoryBatteryLow: {
			WindowMinutes:   240,
			RequireSource:   true,
			RequireSeverity: true,
		},
		models.CategoryWeatherWarning: {
			WindowMinutes:    120,
			RadiusMeters:     5000,
			RequireSeverity:  true,
			MessageThreshold: 0.4,
		},
	}
}
