package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func (s *Store) CreateTemplate(ctx context.Context, name string, exerciseIDs []string) (*Template, error) {
	ids, err := encodeList(exerciseIDs)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	now := toMillis(s.now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workout_templates (id, name, exercise_ids, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(name), ids, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	s.notify()
	return s.GetTemplate(ctx, id)
}

func (s *Store) GetTemplate(ctx context.Context, id string) (*Template, error) {
	t := &Template{}
	var ids string
	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, exercise_ids, created_at, updated_at FROM workout_templates WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &ids, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get template %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get template %s: %w", id, err)
	}
	t.ExerciseIDs = decodeList(ids)
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return t, nil
}

// ListTemplates returns templates, most recently updated first.
func (s *Store) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, exercise_ids, created_at, updated_at FROM workout_templates ORDER BY updated_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		var t Template
		var ids string
		var createdAt, updatedAt int64
		if err := rows.Scan(&t.ID, &t.Name, &ids, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		t.ExerciseIDs = decodeList(ids)
		t.CreatedAt = fromMillis(createdAt)
		t.UpdatedAt = fromMillis(updatedAt)
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (s *Store) UpdateTemplate(ctx context.Context, id, name string, exerciseIDs []string) error {
	ids, err := encodeList(exerciseIDs)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE workout_templates SET name = ?, exercise_ids = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(name), ids, toMillis(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("update template %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update template %s: %w", id, ErrNotFound)
	}
	s.notify()
	return nil
}
