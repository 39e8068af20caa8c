package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/xavierca1/leadflow/internal/entity"
)

type TransitionRepository struct {
	DB *sql.DB
}

func NewTransitionRepository(db *sql.DB) *TransitionRepository {
	return &TransitionRepository{DB: db}
}

// Record is idempotent: recording the same step twice keeps the first
// completion time.
func (r *TransitionRepository) Record(ctx context.Context, rec entity.TransitionStepRecord) error {
	query := `
		INSERT INTO transition_steps (transition_id, lead_id, stage_id, step, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (transition_id, step) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query,
		rec.TransitionID, rec.LeadID, rec.StageID, string(rec.Step), rec.CompletedAt)
	return err
}

func (r *TransitionRepository) Completed(ctx context.Context, transitionID string) (map[entity.TransitionStep]bool, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT step FROM transition_steps WHERE transition_id = $1`, transitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[entity.TransitionStep]bool)
	for rows.Next() {
		var step string
		if err := rows.Scan(&step); err != nil {
			return nil, err
		}
		done[entity.TransitionStep(step)] = true
	}
	return done, rows.Err()
}

func (r *TransitionRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM transition_steps WHERE completed_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StepsForLeads returns the journal of the given leads, newest first, for
// support inspection.
func (r *TransitionRepository) StepsForLeads(ctx context.Context, leadIDs []int) ([]entity.TransitionStepRecord, error) {
	ids := make([]int64, 0, len(leadIDs))
	for _, id := range leadIDs {
		ids = append(ids, int64(id))
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT transition_id, lead_id, stage_id, step, completed_at
		FROM transition_steps
		WHERE lead_id = ANY($1)
		ORDER BY completed_at DESC
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.TransitionStepRecord
	for rows.Next() {
		var rec entity.TransitionStepRecord
		var step string
		if err := rows.Scan(&rec.TransitionID, &rec.LeadID, &rec.StageID, &step, &rec.CompletedAt); err != nil {
			return nil, err
		}
		rec.Step = entity.TransitionStep(step)
		out = append(out, rec)
	}
	return out, rows.Err()
}
