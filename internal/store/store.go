package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/multierr"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const currentVersion = 1

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrSessionActive is returned when a session is started while another
	// one has not been ended.
	ErrSessionActive = errors.New("a session is already active")
)

type Store struct {
	db  *sql.DB
	now func() time.Time

	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection serializes writers, which is what the
	// check-then-insert in StartSession relies on.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, now: time.Now, subs: make(map[chan struct{}]struct{})}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

// Close closes the database and every subscription channel.
func (s *Store) Close() error {
	s.mu.Lock()
	for ch := range s.subs {
		close(ch)
		delete(s.subs, ch)
	}
	s.mu.Unlock()
	return s.db.Close()
}

// SetClock replaces the time source used to stamp records.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Subscribe returns a channel that receives a signal after every committed
// write, and a function that cancels the subscription. Signals coalesce: a
// slow reader sees at most one pending signal.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// withTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		return multierr.Append(err, ignoreDone(tx.Rollback()))
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	s.notify()
	return nil
}

func ignoreDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS exercises (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL,
		aliases             TEXT NOT NULL DEFAULT '[]',
		normalized_name     TEXT NOT NULL,
		normalized_aliases  TEXT NOT NULL DEFAULT '[]',
		type                TEXT NOT NULL DEFAULT 'other',
		category            TEXT NOT NULL DEFAULT '',
		primary_muscles     TEXT NOT NULL DEFAULT '[]',
		secondary_muscles   TEXT NOT NULL DEFAULT '[]',
		equipment           TEXT NOT NULL DEFAULT '[]',
		instructions        TEXT NOT NULL DEFAULT '',
		image_urls          TEXT NOT NULL DEFAULT '[]',
		video_urls          TEXT NOT NULL DEFAULT '[]',
		is_custom           INTEGER NOT NULL DEFAULT 0,
		created_at          INTEGER NOT NULL,
		updated_at          INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exercises_name ON exercises(normalized_name);

	CREATE TABLE IF NOT EXISTS workout_templates (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		exercise_ids  TEXT NOT NULL,
		created_at    INTEGER NOT NULL,
		updated_at    INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_templates_updated ON workout_templates(updated_at);

	CREATE TABLE IF NOT EXISTS plans (
		id                    TEXT PRIMARY KEY,
		created_at            INTEGER NOT NULL,
		mode                  TEXT NOT NULL,
		name                  TEXT NOT NULL,
		template_id           TEXT,
		focus                 TEXT,
		planned_exercise_ids  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id                    TEXT PRIMARY KEY,
		started_at            INTEGER NOT NULL,
		ended_at              INTEGER,
		mode                  TEXT NOT NULL,
		template_id           TEXT,
		focus                 TEXT,
		name                  TEXT NOT NULL,
		planned_exercise_ids  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
	-- At most one row may have a NULL ended_at.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_active
		ON sessions((ended_at IS NULL)) WHERE ended_at IS NULL;

	CREATE TABLE IF NOT EXISTS session_exercises (
		id              TEXT PRIMARY KEY,
		session_id      TEXT NOT NULL REFERENCES sessions(id),
		exercise_id     TEXT NOT NULL,
		order_index     INTEGER NOT NULL,
		status          TEXT NOT NULL DEFAULT 'pending',
		deferred_count  INTEGER NOT NULL DEFAULT 0,
		created_at      INTEGER NOT NULL,
		updated_at      INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_session_exercises_order    ON session_exercises(session_id, order_index);
	CREATE INDEX IF NOT EXISTS idx_session_exercises_exercise ON session_exercises(session_id, exercise_id);

	CREATE TABLE IF NOT EXISTS session_sets (
		id                   TEXT PRIMARY KEY,
		session_id           TEXT NOT NULL REFERENCES sessions(id),
		exercise_id          TEXT NOT NULL,
		set_index            INTEGER NOT NULL,
		created_at           INTEGER NOT NULL,
		completed_at         INTEGER,
		reps_completed       INTEGER NOT NULL DEFAULT 0,
		weight               REAL NOT NULL DEFAULT 0,
		missed_reps          INTEGER NOT NULL DEFAULT 0,
		intentional_miss     INTEGER,
		rest_seconds_before  INTEGER,
		UNIQUE(session_id, exercise_id, set_index)
	);

	CREATE INDEX IF NOT EXISTS idx_sets_completed ON session_sets(completed_at);
	CREATE INDEX IF NOT EXISTS idx_sets_exercise  ON session_sets(exercise_id, completed_at);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('weight_unit', 'kg');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/liftlog/liftlog.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "liftlog", "liftlog.db"), nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		return serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func nullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(raw string) []string {
	var out []string
	if raw == "" {
		return []string{}
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
