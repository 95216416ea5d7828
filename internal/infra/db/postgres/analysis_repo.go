package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/guardline/incident-ai/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save inserts or updates an analysis run record
func (r *AnalysisRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO incident_analyses
  (id, tenant_id, incident_id, result_json, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET
  tenant_id=EXCLUDED.tenant_id,
  incident_id=EXCLUDED.incident_id,
  result_json=EXCLUDED.result_json;
`
	tenant := stringOrDash(rec.TenantID)
	incidentID := stringOrDash(rec.IncidentID)
	result := rec.Result
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, rec.ID, tenant, incidentID, result, createdAt)
	return err
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, tenant_id, incident_id, result_json, created_at
FROM incident_analyses
WHERE tenant_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		var created time.Time
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.IncidentID, &rec.Result, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt = created
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// LatestByIncident returns the newest record for one incident
func (r *AnalysisRepository) LatestByIncident(ctx context.Context, tenant string, incidentID string) (*domain.Record, error) {
	const q = `
SELECT id, tenant_id, incident_id, result_json, created_at
FROM incident_analyses
WHERE tenant_id=$1 AND incident_id=$2
ORDER BY created_at DESC, id DESC
LIMIT 1;
`
	var rec domain.Record
	var created time.Time
	err := r.db.QueryRowContext(ctx, q, tenant, incidentID).
		Scan(&rec.ID, &rec.TenantID, &rec.IncidentID, &rec.Result, &created)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = created
	return &rec, nil
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
