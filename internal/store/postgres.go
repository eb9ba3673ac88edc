package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"prism-alert-service/internal/models"
)

// Postgres implements Store over a pgx connection pool. List and map fields
// are stored as JSONB columns.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres opens a pool for the given DSN.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

const alertColumns = `
	id, category, severity, status, title, message, location, source_id,
	escalation_rules, notifications, escalations, metadata, tags,
	priority_score, auto_resolve, auto_resolve_after_minutes,
	created_at, triggered_at, acknowledged_at, acknowledged_by,
	resolved_at, resolved_by, suppressed_until, suppressed_by, updated_at`

// Create inserts a new alert row.
func (p *Postgres) Create(ctx context.Context, alert *models.Alert) error {
	enc, err := encodeJSONFields(alert)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO alerts (` + alertColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
	        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`

	_, err = p.pool.Exec(ctx, query,
		alert.ID, alert.Category, alert.Severity, alert.Status,
		alert.Title, alert.Message, enc.location, alert.SourceID,
		enc.rules, enc.notifications, enc.escalations, enc.metadata, enc.tags,
		alert.PriorityScore, alert.AutoResolve, alert.AutoResolveAfterMin,
		alert.CreatedAt, alert.TriggeredAt, alert.AcknowledgedAt, alert.AcknowledgedBy,
		alert.ResolvedAt, alert.ResolvedBy, alert.SuppressedUntil, alert.SuppressedBy,
		alert.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert %s: %w", alert.ID, err)
	}
	return nil
}

// GetByID fetches a single alert.
func (p *Postgres) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)
	alert, err := scanAlert(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get alert %s: %w", id, err)
	}
	return alert, nil
}

// Update rewrites every mutable column of the alert row.
func (p *Postgres) Update(ctx context.Context, alert *models.Alert) error {
	enc, err := encodeJSONFields(alert)
	if err != nil {
		return err
	}

	query := `
	UPDATE alerts SET
		status = $2, title = $3, message = $4,
		escalation_rules = $5, notifications = $6, escalations = $7,
		metadata = $8, tags = $9, priority_score = $10,
		auto_resolve = $11, auto_resolve_after_minutes = $12,
		acknowledged_at = $13, acknowledged_by = $14,
		resolved_at = $15, resolved_by = $16,
		suppressed_until = $17, suppressed_by = $18,
		updated_at = $19
	WHERE id = $1`

	result, err := p.pool.Exec(ctx, query,
		alert.ID, alert.Status, alert.Title, alert.Message,
		enc.rules, enc.notifications, enc.escalations,
		enc.metadata, enc.tags, alert.PriorityScore,
		alert.AutoResolve, alert.AutoResolveAfterMin,
		alert.AcknowledgedAt, alert.AcknowledgedBy,
		alert.ResolvedAt, alert.ResolvedBy,
		alert.SuppressedUntil, alert.SuppressedBy,
		alert.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert %s: %w", alert.ID, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of alerts matching the filter plus the total count.
func (p *Postgres) List(ctx context.Context, filter Filter, page, limit int) ([]models.Alert, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	where, args := buildWhere(filter)

	var total int
	countQ := `SELECT COUNT(*) FROM alerts` + where
	if err := p.pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+alertColumns+` FROM alerts%s ORDER BY triggered_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var list []models.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan alert: %w", err)
		}
		list = append(list, *alert)
	}
	return list, total, nil
}

// GetStats aggregates alert counts by status, severity, and category.
func (p *Postgres) GetStats(ctx context.Context, filter Filter) (Stats, error) {
	where, args := buildWhere(filter)

	stats := Stats{
		ByStatus:   make(map[string]int),
		BySeverity: make(map[string]int),
		ByCategory: make(map[string]int),
	}

	query := `SELECT status, severity, category, COUNT(*) FROM alerts` + where +
		` GROUP BY status, severity, category`
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to aggregate alert stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status, severity, category string
		var count int
		if err := rows.Scan(&status, &severity, &category, &count); err != nil {
			return Stats{}, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats.Total += count
		stats.ByStatus[status] += count
		stats.BySeverity[severity] += count
		stats.ByCategory[category] += count
	}
	return stats, nil
}

// Active returns every unresolved alert, oldest first.
func (p *Postgres) Active(ctx context.Context) ([]models.Alert, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE status != $1 ORDER BY triggered_at ASC`,
		models.StatusResolved)
	if err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}
	defer rows.Close()

	var list []models.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		list = append(list, *alert)
	}
	return list, nil
}

func buildWhere(filter Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(clause string, v interface{}) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.Severity != "" {
		add("severity = $%d", filter.Severity)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.SourceID != "" {
		add("source_id = $%d", filter.SourceID)
	}
	if filter.Since != nil {
		add("triggered_at >= $%d", *filter.Since)
	}
	if filter.Until != nil {
		add("triggered_at <= $%d", *filter.Until)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type encodedFields struct {
	location      []byte
	rules         []byte
	notifications []byte
	escalations   []byte
	metadata      []byte
	tags          []byte
}

func encodeJSONFields(alert *models.Alert) (encodedFields, error) {
	var enc encodedFields
	var err error

	marshal := func(v interface{}) []byte {
		if err != nil {
			return nil
		}
		var b []byte
		b, err = json.Marshal(v)
		return b
	}

	if alert.Location != nil {
		enc.location = marshal(alert.Location)
	}
	enc.rules = marshal(alert.EscalationRules)
	enc.notifications = marshal(alert.Notifications)
	enc.escalations = marshal(alert.Escalations)
	enc.metadata = marshal(alert.Metadata)
	enc.tags = marshal(alert.Tags)

	if err != nil {
		return encodedFields{}, fmt.Errorf("failed to encode alert %s fields: %w", alert.ID, err)
	}
	return enc, nil
}

func scanAlert(row pgx.Row) (*models.Alert, error) {
	var a models.Alert
	var location, rules, notifications, escalations, metadata, tags []byte

	err := row.Scan(
		&a.ID, &a.Category, &a.Severity, &a.Status, &a.Title, &a.Message,
		&location, &a.SourceID,
		&rules, &notifications, &escalations, &metadata, &tags,
		&a.PriorityScore, &a.AutoResolve, &a.AutoResolveAfterMin,
		&a.CreatedAt, &a.TriggeredAt, &a.AcknowledgedAt, &a.AcknowledgedBy,
		&a.ResolvedAt, &a.ResolvedBy, &a.SuppressedUntil, &a.SuppressedBy,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(location) > 0 {
		a.Location = &models.Location{}
		if err := json.Unmarshal(location, a.Location); err != nil {
			return nil, fmt.Errorf("failed to decode location for alert %s: %w", a.ID, err)
		}
	}
	for _, f := range []struct {
		data []byte
		dst  interface{}
	}{
		{rules, &a.EscalationRules},
		{notifications, &a.Notifications},
		{escalations, &a.Escalations},
		{metadata, &a.Metadata},
		{tags, &a.Tags},
	} {
		if len(f.data) == 0 {
			continue
		}
		if err := json.Unmarshal(f.data, f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode alert %s fields: %w", a.ID, err)
		}
	}
	return &a, nil
}
