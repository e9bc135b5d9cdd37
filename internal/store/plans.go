package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreatePlan inserts p with a fresh id and creation time and returns the
// stored plan.
func (s *Store) CreatePlan(ctx context.Context, p Plan) (*Plan, error) {
	ids, err := encodeList(p.PlannedExerciseIDs)
	if err != nil {
		return nil, err
	}
	p.ID = uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plans (id, created_at, mode, name, template_id, focus, planned_exercise_ids)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, toMillis(s.now()), p.Mode, p.Name, nullString(p.TemplateID), nullString(string(p.Focus)), ids,
	)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	s.notify()
	return s.GetPlan(ctx, p.ID)
}

func (s *Store) GetPlan(ctx context.Context, id string) (*Plan, error) {
	p, err := getPlan(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", id, err)
	}
	return p, nil
}

func getPlan(ctx context.Context, q queryer, id string) (*Plan, error) {
	p := &Plan{}
	var createdAt int64
	var mode, ids string
	var templateID, focus sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT id, created_at, mode, name, template_id, focus, planned_exercise_ids FROM plans WHERE id = ?`, id,
	).Scan(&p.ID, &createdAt, &mode, &p.Name, &templateID, &focus, &ids)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt = fromMillis(createdAt)
	p.Mode = PlanMode(mode)
	p.TemplateID = templateID.String
	p.Focus = Focus(focus.String)
	p.PlannedExerciseIDs = decodeList(ids)
	return p, nil
}

// EditPlanExercises reads the plan's exercise list and replaces it with the
// result of fn inside one transaction. When fn returns nil the plan is left
// untouched. A missing plan is not an error.
func (s *Store) EditPlanExercises(ctx context.Context, planID string, fn func(ids []string) []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := getPlan(ctx, tx, planID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get plan %s: %w", planID, err)
		}
		next := fn(append([]string(nil), p.PlannedExerciseIDs...))
		if next == nil {
			return nil
		}
		ids, err := encodeList(next)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE plans SET planned_exercise_ids = ? WHERE id = ?`, ids, planID); err != nil {
			return fmt.Errorf("update plan %s: %w", planID, err)
		}
		return nil
	})
}
