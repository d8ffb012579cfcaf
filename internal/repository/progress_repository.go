package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edulane/lms-api/internal/models"
)

// ProgressRepository handles resource view tracking.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new progress repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// UpsertResourceView records that a student opened a resource. Repeated
// views keep the original first-viewed timestamp.
func (r *ProgressRepository) UpsertResourceView(ctx context.Context, view *models.ResourceView) error {
	if view.ViewedAt.IsZero() {
		view.ViewedAt = time.Now().UTC()
	}
	const query = `INSERT INTO resource_views (resource_id, student_id, viewed_at)
        VALUES (:resource_id, :student_id, :viewed_at)
        ON CONFLICT (resource_id, student_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, view); err != nil {
		return fmt.Errorf("upsert resource view: %w", err)
	}
	return nil
}

// ListViewedResourceIDs returns the resource ids a student has viewed within
// one module.
func (r *ProgressRepository) ListViewedResourceIDs(ctx context.Context, studentID, moduleID string) ([]string, error) {
	const query = `SELECT v.resource_id FROM resource_views v
        JOIN resources res ON res.id = v.resource_id
        WHERE v.student_id = $1 AND res.module_id = $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID, moduleID); err != nil {
		return nil, fmt.Errorf("list viewed resource ids: %w", err)
	}
	return ids, nil
}
