package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const setColumns = `id, session_id, exercise_id, set_index, created_at, completed_at, reps_completed,
	weight, missed_reps, intentional_miss, rest_seconds_before`

// InsertSet appends a completed set. Its set_index is the number of sets
// already logged for the (session, exercise) pair, computed by the insert
// itself so two writers can never share an index.
func (s *Store) InsertSet(ctx context.Context, in SetInput) (string, error) {
	id := uuid.NewString()
	now := toMillis(s.now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_sets (id, session_id, exercise_id, set_index, created_at, completed_at,
		 reps_completed, weight, missed_reps, rest_seconds_before)
		 SELECT ?, ?, ?, COUNT(*), ?, ?, ?, ?, ?, ?
		 FROM session_sets WHERE session_id = ? AND exercise_id = ?`,
		id, in.SessionID, in.ExerciseID, now, now,
		in.RepsCompleted, in.Weight, in.MissedReps, nullInt(in.RestSecondsBefore),
		in.SessionID, in.ExerciseID,
	)
	if err != nil {
		return "", fmt.Errorf("insert set: %w", err)
	}
	s.notify()
	return id, nil
}

// GetSet loads one set by id. The engine reads sets through ListSets; this
// is for inspecting a single row, mainly from tests.
func (s *Store) GetSet(ctx context.Context, id string) (*SessionSet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+setColumns+` FROM session_sets WHERE id = ?`, id)
	set, err := scanSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get set %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get set %s: %w", id, err)
	}
	return set, nil
}

// SetIntentionalMiss records whether the missed reps of a set were on
// purpose. It reports whether a row changed.
func (s *Store) SetIntentionalMiss(ctx context.Context, id string, intentional bool) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE session_sets SET intentional_miss = ? WHERE id = ?`, intentional, id)
	if err != nil {
		return false, fmt.Errorf("set intentional miss %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.notify()
	}
	return n > 0, nil
}

// ListSets returns logged sets matching f, oldest first.
func (s *Store) ListSets(ctx context.Context, f SetFilter) ([]SessionSet, error) {
	query := `SELECT ` + setColumns + ` FROM session_sets WHERE 1=1`
	var args []any

	if f.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, f.SessionID)
	}
	if f.ExerciseID != "" {
		query += ` AND exercise_id = ?`
		args = append(args, f.ExerciseID)
	}
	if f.From != nil {
		query += ` AND completed_at >= ?`
		args = append(args, toMillis(*f.From))
	}
	if f.To != nil {
		query += ` AND completed_at < ?`
		args = append(args, toMillis(*f.To))
	}
	query += ` ORDER BY completed_at, set_index, rowid`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	defer rows.Close()

	var sets []SessionSet
	for rows.Next() {
		set, err := scanSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, *set)
	}
	return sets, rows.Err()
}

// LastPerformance returns the most recent completed set of the exercise
// across all sessions, or nil when it has never been performed.
func (s *Store) LastPerformance(ctx context.Context, exerciseID string) (*LastPerformance, error) {
	var completedAt int64
	var lp LastPerformance
	var rest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT completed_at, weight, reps_completed, rest_seconds_before
		 FROM session_sets
		 WHERE exercise_id = ? AND completed_at IS NOT NULL
		 ORDER BY completed_at DESC, set_index DESC, rowid DESC LIMIT 1`, exerciseID,
	).Scan(&completedAt, &lp.Weight, &lp.Reps, &rest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last performance %s: %w", exerciseID, err)
	}
	lp.CompletedAt = fromMillis(completedAt)
	if rest.Valid {
		v := int(rest.Int64)
		lp.RestSeconds = &v
	}
	return &lp, nil
}

// RecentExerciseIDs returns up to limit distinct exercise ids ordered by their
// latest completed set, most recent first.
func (s *Store) RecentExerciseIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT exercise_id, MAX(completed_at) AS last_done, MAX(rowid) AS last_row
		 FROM session_sets
		 WHERE completed_at > 0
		 GROUP BY exercise_id
		 ORDER BY last_done DESC, last_row DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent exercises: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		var lastDone, lastRow int64
		if err := rows.Scan(&id, &lastDone, &lastRow); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ExerciseSetCounts counts completed sets per exercise across all history,
// in the order each exercise was first performed.
func (s *Store) ExerciseSetCounts(ctx context.Context) ([]ExerciseCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT exercise_id, COUNT(*) AS sets, MIN(completed_at) AS first_done, MIN(rowid) AS first_row
		 FROM session_sets
		 WHERE completed_at > 0
		 GROUP BY exercise_id
		 ORDER BY first_done, first_row`)
	if err != nil {
		return nil, fmt.Errorf("exercise set counts: %w", err)
	}
	defer rows.Close()

	var counts []ExerciseCount
	for rows.Next() {
		var c ExerciseCount
		var firstDone, firstRow int64
		if err := rows.Scan(&c.ExerciseID, &c.Sets, &firstDone, &firstRow); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// DailySetCounts aggregates completed sets per UTC day in [from, to).
func (s *Store) DailySetCounts(ctx context.Context, from, to time.Time) ([]DailySetCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date(completed_at / 1000, 'unixepoch') AS day,
		       COUNT(*), COALESCE(SUM(weight * reps_completed), 0)
		FROM session_sets
		WHERE completed_at >= ? AND completed_at < ?
		GROUP BY day
		ORDER BY day`,
		toMillis(from), toMillis(to),
	)
	if err != nil {
		return nil, fmt.Errorf("daily set counts: %w", err)
	}
	defer rows.Close()

	var counts []DailySetCount
	for rows.Next() {
		var dc DailySetCount
		if err := rows.Scan(&dc.Date, &dc.Sets, &dc.Volume); err != nil {
			return nil, err
		}
		counts = append(counts, dc)
	}
	return counts, rows.Err()
}

func scanSet(row rowScanner) (*SessionSet, error) {
	set := &SessionSet{}
	var createdAt int64
	var completedAt, intentional, rest sql.NullInt64
	err := row.Scan(&set.ID, &set.SessionID, &set.ExerciseID, &set.SetIndex, &createdAt, &completedAt,
		&set.RepsCompleted, &set.Weight, &set.MissedReps, &intentional, &rest)
	if err != nil {
		return nil, err
	}
	set.CreatedAt = fromMillis(createdAt)
	set.CompletedAt = nullMillis(completedAt)
	if intentional.Valid {
		v := intentional.Int64 == 1
		set.IntentionalMiss = &v
	}
	if rest.Valid {
		v := int(rest.Int64)
		set.RestSecondsBefore = &v
	}
	return set, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
