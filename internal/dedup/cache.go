package dedup

import (
	"sync"
	"time"

	"prism-alert-service/internal/models"
)

const (
	bucketCap    = 1000
	bucketExpiry = 24 * time.Hour
)

// Cache keeps recently created alerts per category, most recent first.
// Buckets are capped and expire wholesale after 24 hours.
type Cache struct {
	mu      sync.Mutex
	buckets map[models.Category]*bucket
	now     func() time.Time
}

type bucket struct {
	alerts    []models.Alert
	refreshed time.Time
}

// NewCache builds an empty Cache using the given clock.
func NewCache(now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		buckets: make(map[models.Category]*bucket),
		now:     now,
	}
}

// Register stores the alert at the head of its category bucket, evicting the
// oldest entry when the cap is reached.
func (c *Cache) Register(alert models.Alert) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[alert.Category]
	if !ok || c.now().Sub(b.refreshed) > bucketExpiry {
		b = &bucket{refreshed: c.now()}
		c.buckets[alert.Category] = b
	}

	b.alerts = append([]models.Alert{alert}, b.alerts...)
	if len(b.alerts) > bucketCap {
		b.alerts = b.alerts[:bucketCap]
	}
}

// Recent returns alerts of the category triggered within windowMinutes of now.
func (c *Cache) Recent(category models.Category, windowMinutes int) []models.Alert {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[category]
	if !ok {
		return nil
	}
	now := c.now()
	if now.Sub(b.refreshed) > bucketExpiry {
		delete(c.buckets, category)
		return nil
	}

	cutoff := now.Add(-time.Duration(windowMinutes) * time.Minute)
	var out []models.Alert
	for _, a := range b.alerts {
		if !a.TriggeredAt.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out
}

// Clear drops the given categories, or every bucket when none are named.
func (c *Cache) Clear(categories ...models.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(categories) == 0 {
		c.buckets = make(map[models.Category]*bucket)
		return
	}
	for _, cat := range categories {
		delete(c.buckets, cat)
	}
}
