package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const sessionColumns = `id, started_at, ended_at, mode, template_id, focus, name, planned_exercise_ids`

// StartSession snapshots p into a new active session and creates one pending
// queue row per planned exercise, all in one transaction. It returns
// ErrSessionActive when another session has not been ended.
func (s *Store) StartSession(ctx context.Context, p Plan) (*Session, error) {
	ids, err := encodeList(p.PlannedExerciseIDs)
	if err != nil {
		return nil, err
	}
	sessionID := uuid.NewString()
	now := toMillis(s.now())

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (`+sessionColumns+`)
			 SELECT ?, ?, NULL, ?, ?, ?, ?, ?
			 WHERE NOT EXISTS (SELECT 1 FROM sessions WHERE ended_at IS NULL)`,
			sessionID, now, p.Mode, nullString(p.TemplateID), nullString(string(p.Focus)), p.Name, ids,
		)
		if isUniqueViolation(err) {
			return ErrSessionActive
		}
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrSessionActive
		}
		return insertSessionExercises(ctx, tx, sessionID, p.PlannedExerciseIDs, now)
	})
	if err != nil {
		return nil, err
	}
	return s.GetSession(ctx, sessionID)
}

func insertSessionExercises(ctx context.Context, tx *sql.Tx, sessionID string, exerciseIDs []string, now int64) error {
	if len(exerciseIDs) == 0 {
		return nil
	}

	query := `INSERT INTO session_exercises (id, session_id, exercise_id, order_index, status, deferred_count, created_at, updated_at) VALUES `
	args := make([]any, 0, len(exerciseIDs)*8)
	valueStrings := make([]string, 0, len(exerciseIDs))
	for i, exerciseID := range exerciseIDs {
		valueStrings = append(valueStrings, "(?, ?, ?, ?, ?, 0, ?, ?)")
		args = append(args, uuid.NewString(), sessionID, exerciseID, i, StatusPending, now, now)
	}
	query += strings.Join(valueStrings, ",")

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert session exercises: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

// ActiveSession returns the session that has not been ended, or nil when
// there is none.
func (s *Store) ActiveSession(ctx context.Context) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE ended_at IS NULL ORDER BY started_at DESC LIMIT 1`)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return sess, nil
}

// ListSessions returns sessions, newest first. A limit of 0 returns all.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// EndSession stamps ended_at on a session that is still active. It reports
// whether a row changed; ending an ended or unknown session changes nothing.
func (s *Store) EndSession(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`, toMillis(s.now()), id)
	if err != nil {
		return false, fmt.Errorf("end session %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.notify()
	}
	return n > 0, nil
}

// SetExerciseStatus moves the first pending queue row of exerciseID in the
// session to status. It reports whether a row changed.
func (s *Store) SetExerciseStatus(ctx context.Context, sessionID, exerciseID string, status ExerciseStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE session_exercises SET status = ?, updated_at = ?
		 WHERE id = (
			SELECT id FROM session_exercises
			WHERE session_id = ? AND exercise_id = ? AND status = ?
			ORDER BY order_index LIMIT 1
		 )`,
		status, toMillis(s.now()), sessionID, exerciseID, StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("set exercise status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.notify()
	}
	return n > 0, nil
}

// ListSessionExercises returns the session's queue ordered by order_index.
func (s *Store) ListSessionExercises(ctx context.Context, sessionID string) ([]SessionExercise, error) {
	rows, err := listSessionExercises(ctx, s.db, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session exercises: %w", err)
	}
	return rows, nil
}

func listSessionExercises(ctx context.Context, q queryer, sessionID string) ([]SessionExercise, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, session_id, exercise_id, order_index, status, deferred_count, created_at, updated_at
		 FROM session_exercises WHERE session_id = ? ORDER BY order_index, rowid`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionExercise
	for rows.Next() {
		var se SessionExercise
		var status string
		var createdAt, updatedAt int64
		if err := rows.Scan(&se.ID, &se.SessionID, &se.ExerciseID, &se.OrderIndex, &status,
			&se.DeferredCount, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		se.Status = ExerciseStatus(status)
		se.CreatedAt = fromMillis(createdAt)
		se.UpdatedAt = fromMillis(updatedAt)
		out = append(out, se)
	}
	return out, rows.Err()
}

// EditQueue reads the session's ordered queue and rewrites it with the
// ordering returned by fn, inside one transaction. Every returned row gets
// order_index equal to its position, its DeferredCount and a fresh
// updated_at. When fn returns a nil slice nothing is written; when fn
// returns an error the transaction is rolled back and the error returned.
func (s *Store) EditQueue(ctx context.Context, sessionID string, fn func(rows []SessionExercise) ([]SessionExercise, error)) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := listSessionExercises(ctx, tx, sessionID)
		if err != nil {
			return fmt.Errorf("list session exercises: %w", err)
		}
		next, err := fn(rows)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx,
			`UPDATE session_exercises SET order_index = ?, deferred_count = ?, updated_at = ? WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("prepare reorder: %w", err)
		}
		defer stmt.Close()

		now := toMillis(s.now())
		for i, se := range next {
			if _, err := stmt.ExecContext(ctx, i, se.DeferredCount, now, se.ID); err != nil {
				return fmt.Errorf("reorder session exercise %s: %w", se.ID, err)
			}
		}
		return nil
	})
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var startedAt int64
	var endedAt sql.NullInt64
	var mode, ids string
	var templateID, focus sql.NullString
	if err := row.Scan(&sess.ID, &startedAt, &endedAt, &mode, &templateID, &focus, &sess.Name, &ids); err != nil {
		return nil, err
	}
	sess.StartedAt = fromMillis(startedAt)
	sess.EndedAt = nullMillis(endedAt)
	sess.Mode = PlanMode(mode)
	sess.TemplateID = templateID.String
	sess.Focus = Focus(focus.String)
	sess.PlannedExerciseIDs = decodeList(ids)
	return sess, nil
}
