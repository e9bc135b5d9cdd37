package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sadopc/liftlog/internal/textnorm"
)

const exerciseColumns = `id, name, aliases, normalized_name, normalized_aliases, type, category,
	primary_muscles, secondary_muscles, equipment, instructions, image_urls, video_urls,
	is_custom, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// exerciseRow holds the encoded column values of an exercise.
type exerciseRow struct {
	aliases, normalizedAliases, primary, secondary, equipment, images, videos string
}

func encodeExercise(in ExerciseInput) (exerciseRow, error) {
	var r exerciseRow
	var err error
	lists := []struct {
		dst *string
		src []string
	}{
		{&r.aliases, cleanList(in.Aliases)},
		{&r.normalizedAliases, textnorm.All(in.Aliases)},
		{&r.primary, cleanList(in.PrimaryMuscles)},
		{&r.secondary, cleanList(in.SecondaryMuscles)},
		{&r.equipment, cleanList(in.Equipment)},
		{&r.images, cleanList(in.ImageURLs)},
		{&r.videos, cleanList(in.VideoURLs)},
	}
	for _, l := range lists {
		if *l.dst, err = encodeList(l.src); err != nil {
			return r, err
		}
	}
	return r, nil
}

// cleanList trims every value and drops empty ones.
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func exerciseType(t ExerciseType) ExerciseType {
	switch t {
	case TypeCompound, TypeIsolation, TypeCardio, TypeOther:
		return t
	}
	return TypeOther
}

func (s *Store) CreateExercise(ctx context.Context, in ExerciseInput) (*Exercise, error) {
	enc, err := encodeExercise(in)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	now := toMillis(s.now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exercises (`+exerciseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(in.Name), enc.aliases, textnorm.Normalize(in.Name), enc.normalizedAliases,
		exerciseType(in.Type), strings.TrimSpace(in.Category), enc.primary, enc.secondary, enc.equipment,
		in.Instructions, enc.images, enc.videos, in.IsCustom, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert exercise: %w", err)
	}
	s.notify()
	return s.GetExercise(ctx, id)
}

// UpdateExercise rewrites every editable field and re-derives the normalized
// name and aliases.
func (s *Store) UpdateExercise(ctx context.Context, id string, in ExerciseInput) error {
	enc, err := encodeExercise(in)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE exercises SET name = ?, aliases = ?, normalized_name = ?, normalized_aliases = ?,
		 type = ?, category = ?, primary_muscles = ?, secondary_muscles = ?, equipment = ?,
		 instructions = ?, image_urls = ?, video_urls = ?, updated_at = ?
		 WHERE id = ?`,
		strings.TrimSpace(in.Name), enc.aliases, textnorm.Normalize(in.Name), enc.normalizedAliases,
		exerciseType(in.Type), strings.TrimSpace(in.Category), enc.primary, enc.secondary, enc.equipment,
		in.Instructions, enc.images, enc.videos, toMillis(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("update exercise %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update exercise %s: %w", id, ErrNotFound)
	}
	s.notify()
	return nil
}

func (s *Store) GetExercise(ctx context.Context, id string) (*Exercise, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id)
	e, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get exercise %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get exercise %s: %w", id, err)
	}
	return e, nil
}

// GetExercises returns the exercises with the given ids in the order of ids.
// Unknown ids are skipped.
func (s *Store) GetExercises(ctx context.Context, ids []string) ([]Exercise, error) {
	all, err := s.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Exercise, len(all))
	for _, e := range all {
		byID[e.ID] = e
	}
	out := make([]Exercise, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListExercises returns the whole library in insertion order.
func (s *Store) ListExercises(ctx context.Context) ([]Exercise, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+exerciseColumns+` FROM exercises ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	var exercises []Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, *e)
	}
	return exercises, rows.Err()
}

// SearchExercises returns exercises whose normalized name or any normalized
// alias contains the normalized query, ordered by name.
func (s *Store) SearchExercises(ctx context.Context, query string) ([]Exercise, error) {
	all, err := s.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	var out []Exercise
	for _, e := range all {
		if textnorm.Matches(query, e.NormalizedName, e.NormalizedAliases) {
			out = append(out, e)
		}
	}
	sortByName(out)
	return out, nil
}

func (s *Store) CountExercises(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exercises`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count exercises: %w", err)
	}
	return n, nil
}

func scanExercise(row rowScanner) (*Exercise, error) {
	e := &Exercise{}
	var enc exerciseRow
	var typ string
	var custom int
	var createdAt, updatedAt int64
	err := row.Scan(&e.ID, &e.Name, &enc.aliases, &e.NormalizedName, &enc.normalizedAliases, &typ, &e.Category,
		&enc.primary, &enc.secondary, &enc.equipment, &e.Instructions, &enc.images, &enc.videos,
		&custom, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	e.Aliases = decodeList(enc.aliases)
	e.NormalizedAliases = decodeList(enc.normalizedAliases)
	e.Type = exerciseType(ExerciseType(typ))
	e.PrimaryMuscles = decodeList(enc.primary)
	e.SecondaryMuscles = decodeList(enc.secondary)
	e.Equipment = decodeList(enc.equipment)
	e.ImageURLs = decodeList(enc.images)
	e.VideoURLs = decodeList(enc.videos)
	e.IsCustom = custom == 1
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	return e, nil
}

func sortByName(exercises []Exercise) {
	slices.SortStableFunc(exercises, func(a, b Exercise) int {
		return strings.Compare(a.NormalizedName, b.NormalizedName)
	})
}
