package store

import (
	"context"
	"errors"
	"time"

	"prism-alert-service/internal/models"
)

// ErrNotFound is returned when no alert exists for the requested id.
var ErrNotFound = errors.New("alert not found")

// Filter narrows List and Stats queries. Zero values mean no constraint.
type Filter struct {
	Category models.Category `json:"category,omitempty" form:"category"`
	Severity models.Severity `json:"severity,omitempty" form:"severity"`
	Status   models.Status   `json:"status,omitempty" form:"status"`
	SourceID string          `json:"source_id,omitempty" form:"source_id"`
	Since    *time.Time      `json:"since,omitempty" form:"since"`
	Until    *time.Time      `json:"until,omitempty" form:"until"`
}

// Stats aggregates alert counts for a filter.
type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	BySeverity map[string]int `json:"by_severity"`
	ByCategory map[string]int `json:"by_category"`
}

// Store is the persistence collaborator owning Alert records.
type Store interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	Update(ctx context.Context, alert *models.Alert) error
	List(ctx context.Context, filter Filter, page, limit int) ([]models.Alert, int, error)
	GetStats(ctx context.Context, filter Filter) (Stats, error)
	// Active returns every alert not yet resolved, for the periodic sweep.
	Active(ctx context.Context) ([]models.Alert, error)
}
