package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var ctx = context.Background()

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedClock makes the store stamp records with a controllable time.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func withClock(t *testing.T, s *Store) *fixedClock {
	t.Helper()
	c := &fixedClock{t: time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC)}
	s.SetClock(c.Now)
	return c
}

func createExercise(t *testing.T, s *Store, name string, typ ExerciseType, muscles ...string) *Exercise {
	t.Helper()
	e, err := s.CreateExercise(ctx, ExerciseInput{Name: name, Type: typ, PrimaryMuscles: muscles})
	if err != nil {
		t.Fatalf("create exercise %q: %v", name, err)
	}
	return e
}

func startSession(t *testing.T, s *Store, ids ...string) *Session {
	t.Helper()
	sess, err := s.StartSession(ctx, Plan{Mode: ModeQuickPick, Name: "Quick pick", PlannedExerciseIDs: ids})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return sess
}

func logSet(t *testing.T, s *Store, sessionID, exerciseID string, reps int, weight float64) string {
	t.Helper()
	id, err := s.InsertSet(ctx, SetInput{SessionID: sessionID, ExerciseID: exerciseID, RepsCompleted: reps, Weight: weight})
	if err != nil {
		t.Fatalf("insert set: %v", err)
	}
	return id
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/liftlog.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	e := createExercise(t, s, "Bench Press", TypeCompound, "chest")
	s.Close()

	// Reopen, the data survives and migrations are not replayed.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	got, err := s2.GetExercise(ctx, e.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Name != "Bench Press" {
		t.Fatalf("unexpected name %q", got.Name)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Exercises
// ============================================================

func TestCreateExerciseNormalizes(t *testing.T) {
	s := newTestStore(t)
	e, err := s.CreateExercise(ctx, ExerciseInput{
		Name:    "  Développé Couché ",
		Aliases: []string{"Bench", " ", "Farmer's Walk"},
		Type:    "bogus",
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.Name != "Développé Couché" {
		t.Fatalf("name not trimmed: %q", e.Name)
	}
	if e.NormalizedName != "developpe couche" {
		t.Fatalf("unexpected normalized name %q", e.NormalizedName)
	}
	if len(e.Aliases) != 2 {
		t.Fatalf("expected blank alias dropped, got %v", e.Aliases)
	}
	if len(e.NormalizedAliases) != 2 || e.NormalizedAliases[1] != "farmers walk" {
		t.Fatalf("unexpected normalized aliases %v", e.NormalizedAliases)
	}
	if e.Type != TypeOther {
		t.Fatalf("unknown type should default to other, got %q", e.Type)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Fatalf("id and created_at should be set: %+v", e)
	}
}

func TestUpdateExerciseRederivesNormalized(t *testing.T) {
	s := newTestStore(t)
	e := createExercise(t, s, "Squat", TypeCompound, "quadriceps")

	err := s.UpdateExercise(ctx, e.ID, ExerciseInput{Name: "Back Squat", Aliases: []string{"High-Bar"}, Type: TypeCompound})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetExercise(ctx, e.ID)
	if got.NormalizedName != "back squat" {
		t.Fatalf("normalized name not updated: %q", got.NormalizedName)
	}
	if len(got.NormalizedAliases) != 1 || got.NormalizedAliases[0] != "high bar" {
		t.Fatalf("normalized aliases not updated: %v", got.NormalizedAliases)
	}
}

func TestUpdateExerciseNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateExercise(ctx, "missing", ExerciseInput{Name: "X"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetExerciseNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetExercise(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListExercisesInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	createExercise(t, s, "Zercher Squat", TypeCompound)
	createExercise(t, s, "Arnold Press", TypeCompound)

	list, err := s.ListExercises(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "Zercher Squat" {
		t.Fatalf("expected insertion order, got %+v", list)
	}
}

func TestGetExercisesKeepsOrder(t *testing.T) {
	s := newTestStore(t)
	a := createExercise(t, s, "A", TypeOther)
	b := createExercise(t, s, "B", TypeOther)

	got, err := s.GetExercises(ctx, []string{b.ID, "missing", a.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != b.ID || got[1].ID != a.ID {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestSearchExercises(t *testing.T) {
	s := newTestStore(t)
	s.CreateExercise(ctx, ExerciseInput{Name: "Romanian Deadlift", Aliases: []string{"RDL"}})
	s.CreateExercise(ctx, ExerciseInput{Name: "Deadlift"})
	s.CreateExercise(ctx, ExerciseInput{Name: "Curl"})

	got, err := s.SearchExercises(ctx, "DEADLIFT!")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "Deadlift" || got[1].Name != "Romanian Deadlift" {
		t.Fatalf("unexpected search result %+v", got)
	}

	// Punctuation folds to a space, so a hyphenated query no longer matches
	// the joined name.
	got, _ = s.SearchExercises(ctx, "dead-lift")
	if len(got) != 0 {
		t.Fatalf("dead-lift should not match Deadlift, got %+v", got)
	}

	got, _ = s.SearchExercises(ctx, "  romanian  DEAD")
	if len(got) != 1 || got[0].Name != "Romanian Deadlift" {
		t.Fatalf("multi-word search failed: %+v", got)
	}

	got, _ = s.SearchExercises(ctx, "rdl")
	if len(got) != 1 || got[0].Name != "Romanian Deadlift" {
		t.Fatalf("alias search failed: %+v", got)
	}

	got, _ = s.SearchExercises(ctx, "")
	if len(got) != 3 {
		t.Fatalf("empty query should match all, got %d", len(got))
	}
}

// ============================================================
// Templates and plans
// ============================================================

func TestTemplateCRUD(t *testing.T) {
	s := newTestStore(t)
	clock := withClock(t, s)

	tpl, err := s.CreateTemplate(ctx, " Push ", []string{"a", "b", "c", "d"})
	if err != nil {
		t.Fatal(err)
	}
	if tpl.Name != "Push" || len(tpl.ExerciseIDs) != 4 {
		t.Fatalf("unexpected template %+v", tpl)
	}

	clock.Advance(time.Minute)
	other, _ := s.CreateTemplate(ctx, "Pull", []string{"e", "f", "g", "h"})

	clock.Advance(time.Minute)
	if err := s.UpdateTemplate(ctx, tpl.ID, "Push A", []string{"d", "c", "b", "a"}); err != nil {
		t.Fatal(err)
	}

	list, _ := s.ListTemplates(ctx)
	if len(list) != 2 || list[0].ID != tpl.ID || list[1].ID != other.ID {
		t.Fatalf("expected most recently updated first, got %+v", list)
	}
	if list[0].ExerciseIDs[0] != "d" {
		t.Fatalf("update not applied: %v", list[0].ExerciseIDs)
	}

	if err := s.UpdateTemplate(ctx, "missing", "X", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetTemplate(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlanRoundTrip(t *testing.T) {
	s := newTestStore(t)
	p, err := s.CreatePlan(ctx, Plan{Mode: ModeFocus, Name: "Upper", Focus: FocusUpper, PlannedExerciseIDs: []string{"a", "b"}})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.GetPlan(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != ModeFocus || got.Focus != FocusUpper || got.TemplateID != "" {
		t.Fatalf("unexpected plan %+v", got)
	}
	if len(got.PlannedExerciseIDs) != 2 || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected plan %+v", got)
	}
}

func TestEditPlanExercises(t *testing.T) {
	s := newTestStore(t)
	p, _ := s.CreatePlan(ctx, Plan{Mode: ModeQuickPick, Name: "Quick pick", PlannedExerciseIDs: []string{"a", "b", "c"}})

	err := s.EditPlanExercises(ctx, p.ID, func(ids []string) []string {
		return append(ids[1:], ids[0])
	})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetPlan(ctx, p.ID)
	if got.PlannedExerciseIDs[0] != "b" || got.PlannedExerciseIDs[2] != "a" {
		t.Fatalf("unexpected ids %v", got.PlannedExerciseIDs)
	}

	// nil means "leave unchanged"
	s.EditPlanExercises(ctx, p.ID, func([]string) []string { return nil })
	got, _ = s.GetPlan(ctx, p.ID)
	if len(got.PlannedExerciseIDs) != 3 {
		t.Fatalf("nil edit should not write, got %v", got.PlannedExerciseIDs)
	}

	if err := s.EditPlanExercises(ctx, "missing", func(ids []string) []string { return ids }); err != nil {
		t.Fatalf("missing plan should be a no-op, got %v", err)
	}
}

// ============================================================
// Sessions
// ============================================================

func TestStartSessionCreatesQueue(t *testing.T) {
	s := newTestStore(t)
	sess := startSession(t, s, "a", "b", "c", "d")

	if !sess.Active() || sess.Mode != ModeQuickPick {
		t.Fatalf("unexpected session %+v", sess)
	}
	rows, err := s.ListSessionExercises(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 queue rows, got %d", len(rows))
	}
	for i, r := range rows {
		if r.OrderIndex != i || r.Status != StatusPending || r.DeferredCount != 0 {
			t.Fatalf("row %d: unexpected %+v", i, r)
		}
	}
	if rows[2].ExerciseID != "c" {
		t.Fatalf("queue should follow plan order, got %s", rows[2].ExerciseID)
	}
}

func TestStartSessionWhileActive(t *testing.T) {
	s := newTestStore(t)
	first := startSession(t, s, "a", "b", "c", "d")

	_, err := s.StartSession(ctx, Plan{Mode: ModeQuickPick, Name: "x", PlannedExerciseIDs: []string{"a", "b", "c", "d"}})
	if !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}

	// The failed start must not leave queue rows behind.
	var n int
	s.db.QueryRow(`SELECT COUNT(*) FROM session_exercises`).Scan(&n)
	if n != 4 {
		t.Fatalf("expected 4 queue rows, got %d", n)
	}

	if _, err := s.EndSession(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	startSession(t, s, "a", "b", "c", "d")
}

func TestConcurrentStartSession(t *testing.T) {
	s := newTestStore(t)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.StartSession(ctx, Plan{Mode: ModeQuickPick, Name: "x", PlannedExerciseIDs: []string{"a", "b", "c", "d"}})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	started := 0
	for err := range errs {
		switch {
		case err == nil:
			started++
		case errors.Is(err, ErrSessionActive):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if started != 1 {
		t.Fatalf("expected exactly one session to start, got %d", started)
	}
}

func TestOneActiveIndex(t *testing.T) {
	s := newTestStore(t)
	insert := `INSERT INTO sessions (id, started_at, mode, name, planned_exercise_ids) VALUES (?, 0, 'quickpick', 'x', '[]')`
	if _, err := s.db.Exec(insert, "s1"); err != nil {
		t.Fatal(err)
	}
	_, err := s.db.Exec(insert, "s2")
	if !isUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestEndSessionIdempotent(t *testing.T) {
	s := newTestStore(t)
	clock := withClock(t, s)
	sess := startSession(t, s, "a", "b", "c", "d")

	clock.Advance(time.Hour)
	changed, err := s.EndSession(ctx, sess.ID)
	if err != nil || !changed {
		t.Fatalf("first end: changed=%v err=%v", changed, err)
	}
	firstEnd := clock.Now()

	clock.Advance(time.Hour)
	changed, err = s.EndSession(ctx, sess.ID)
	if err != nil || changed {
		t.Fatalf("second end: changed=%v err=%v", changed, err)
	}

	got, _ := s.GetSession(ctx, sess.ID)
	if got.EndedAt == nil || !got.EndedAt.Equal(firstEnd) {
		t.Fatalf("ended_at should keep first value, got %v", got.EndedAt)
	}

	if changed, err := s.EndSession(ctx, "missing"); err != nil || changed {
		t.Fatalf("missing session: changed=%v err=%v", changed, err)
	}
}

func TestActiveSession(t *testing.T) {
	s := newTestStore(t)
	active, err := s.ActiveSession(ctx)
	if err != nil || active != nil {
		t.Fatalf("expected no active session, got %+v err=%v", active, err)
	}

	sess := startSession(t, s, "a", "b", "c", "d")
	active, _ = s.ActiveSession(ctx)
	if active == nil || active.ID != sess.ID {
		t.Fatalf("expected active session %s, got %+v", sess.ID, active)
	}

	s.EndSession(ctx, sess.ID)
	active, _ = s.ActiveSession(ctx)
	if active != nil {
		t.Fatal("ended session should not be active")
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	clock := withClock(t, s)
	first := startSession(t, s, "a", "b", "c", "d")
	s.EndSession(ctx, first.ID)
	clock.Advance(time.Hour)
	second := startSession(t, s, "a", "b", "c", "d")

	list, err := s.ListSessions(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}
	list, _ = s.ListSessions(ctx, 1)
	if len(list) != 1 {
		t.Fatalf("limit not applied, got %d", len(list))
	}
}

func TestSetExerciseStatusOnlyFromPending(t *testing.T) {
	s := newTestStore(t)
	sess := startSession(t, s, "a", "b", "a", "c")

	changed, err := s.SetExerciseStatus(ctx, sess.ID, "a", StatusCompleted)
	if err != nil || !changed {
		t.Fatalf("complete: changed=%v err=%v", changed, err)
	}
	rows, _ := s.ListSessionExercises(ctx, sess.ID)
	if rows[0].Status != StatusCompleted || rows[2].Status != StatusPending {
		t.Fatalf("expected only the first pending row to change: %+v", rows)
	}

	s.SetExerciseStatus(ctx, sess.ID, "a", StatusSkipped)
	changed, _ = s.SetExerciseStatus(ctx, sess.ID, "a", StatusCompleted)
	if changed {
		t.Fatal("no pending row left, nothing should change")
	}
	rows, _ = s.ListSessionExercises(ctx, sess.ID)
	if rows[0].Status != StatusCompleted || rows[2].Status != StatusSkipped {
		t.Fatalf("statuses must not move back: %+v", rows)
	}
}

func TestEditQueue(t *testing.T) {
	s := newTestStore(t)
	sess := startSession(t, s, "a", "b", "c")

	err := s.EditQueue(ctx, sess.ID, func(rows []SessionExercise) ([]SessionExercise, error) {
		rows[0].DeferredCount++
		return append(rows[1:], rows[0]), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	rows, _ := s.ListSessionExercises(ctx, sess.ID)
	want := []string{"b", "c", "a"}
	for i, r := range rows {
		if r.ExerciseID != want[i] || r.OrderIndex != i {
			t.Fatalf("row %d: got %s@%d, want %s@%d", i, r.ExerciseID, r.OrderIndex, want[i], i)
		}
	}
	if rows[2].DeferredCount != 1 {
		t.Fatalf("expected deferred count 1, got %d", rows[2].DeferredCount)
	}
}

func TestEditQueueRollsBack(t *testing.T) {
	s := newTestStore(t)
	sess := startSession(t, s, "a", "b", "c")
	boom := errors.New("boom")

	err := s.EditQueue(ctx, sess.ID, func(rows []SessionExercise) ([]SessionExercise, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	rows, _ := s.ListSessionExercises(ctx, sess.ID)
	if rows[0].ExerciseID != "a" {
		t.Fatalf("queue should be unchanged, got %+v", rows)
	}
}

// ============================================================
// Sets
// ============================================================

func TestInsertSetIndexes(t *testing.T) {
	s := newTestStore(t)
	sess := startSession(t, s, "a", "b", "c", "d")

	for range 3 {
		logSet(t, s, sess.ID, "a", 10, 50)
	}
	logSet(t, s, sess.ID, "b", 8, 100)

	sets, err := s.ListSets(ctx, SetFilter{SessionID: sess.ID, ExerciseID: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 3 {
		t.Fatalf("expected 3 sets, got %d", len(sets))
	}
	for i, set := range sets {
		if set.SetIndex != i {
			t.Fatalf("set %d has index %d", i, set.SetIndex)
		}
		if set.CompletedAt == nil || set.IntentionalMiss != nil || set.RestSecondsBefore != nil {
			t.Fatalf("unexpected set %+v", set)
		}
	}

	other, _ := s.ListSets(ctx, SetFilter{SessionID: sess.ID, ExerciseID: "b"})
	if len(other) != 1 || other[0].SetIndex != 0 {
		t.Fatalf("indexes are per exercise, got %+v", other)
	}
}

func TestInsertSetRestSeconds(t *testing.T) {
	s := newTestStore(t)
	sess := startSession(t, s, "a", "b", "c", "d")
	rest := 95
	id, err := s.InsertSet(ctx, SetInput{SessionID: sess.ID, ExerciseID: "a", RepsCompleted: 5, Weight: 60, MissedReps: 2, RestSecondsBefore: &rest})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.GetSet(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.RestSecondsBefore == nil || *got.RestSecondsBefore != 95 || got.MissedReps != 2 {
		t.Fatalf("unexpected set %+v", got)
	}
}

func TestSetIntentionalMiss(t *testing.T) {
	s := newTestStore(t)
	sess := startSession(t, s, "a", "b", "c", "d")
	id := logSet(t, s, sess.ID, "a", 5, 60)

	changed, err := s.SetIntentionalMiss(ctx, id, true)
	if err != nil || !changed {
		t.Fatalf("changed=%v err=%v", changed, err)
	}
	got, _ := s.GetSet(ctx, id)
	if got.IntentionalMiss == nil || !*got.IntentionalMiss {
		t.Fatalf("expected intentional miss true, got %v", got.IntentionalMiss)
	}

	if changed, _ := s.SetIntentionalMiss(ctx, "missing", true); changed {
		t.Fatal("missing set should not change")
	}
}

func TestLastPerformance(t *testing.T) {
	s := newTestStore(t)
	clock := withClock(t, s)

	lp, err := s.LastPerformance(ctx, "a")
	if err != nil || lp != nil {
		t.Fatalf("expected nil, got %+v err=%v", lp, err)
	}

	first := startSession(t, s, "a", "b", "c", "d")
	logSet(t, s, first.ID, "a", 10, 50)
	s.EndSession(ctx, first.ID)

	clock.Advance(48 * time.Hour)
	second := startSession(t, s, "a", "b", "c", "d")
	logSet(t, s, second.ID, "a", 8, 55)

	lp, err = s.LastPerformance(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if lp == nil || lp.Weight != 55 || lp.Reps != 8 || !lp.CompletedAt.Equal(clock.Now()) {
		t.Fatalf("unexpected last performance %+v", lp)
	}
}

func TestRecentExerciseIDs(t *testing.T) {
	s := newTestStore(t)
	clock := withClock(t, s)
	sess := startSession(t, s, "a", "b", "c", "d")

	logSet(t, s, sess.ID, "a", 10, 50)
	clock.Advance(time.Minute)
	logSet(t, s, sess.ID, "b", 10, 50)
	clock.Advance(time.Minute)
	logSet(t, s, sess.ID, "c", 10, 50)
	clock.Advance(time.Minute)
	logSet(t, s, sess.ID, "a", 10, 50)

	ids, err := s.RecentExerciseIDs(ctx, 50)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "c", "b"}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}

	ids, _ = s.RecentExerciseIDs(ctx, 2)
	if len(ids) != 2 {
		t.Fatalf("limit not applied: %v", ids)
	}
}

func TestExerciseSetCounts(t *testing.T) {
	s := newTestStore(t)
	clock := withClock(t, s)
	sess := startSession(t, s, "a", "b", "c", "d")

	logSet(t, s, sess.ID, "b", 10, 50)
	clock.Advance(time.Minute)
	logSet(t, s, sess.ID, "a", 10, 50)
	logSet(t, s, sess.ID, "a", 10, 50)

	counts, err := s.ExerciseSetCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 counts, got %+v", counts)
	}
	if counts[0].ExerciseID != "b" || counts[0].Sets != 1 || counts[1].Sets != 2 {
		t.Fatalf("expected first-seen order, got %+v", counts)
	}
}

func TestListSetsTimeRange(t *testing.T) {
	s := newTestStore(t)
	clock := withClock(t, s)
	sess := startSession(t, s, "a", "b", "c", "d")

	logSet(t, s, sess.ID, "a", 10, 50)
	clock.Advance(24 * time.Hour)
	from := clock.Now()
	logSet(t, s, sess.ID, "a", 9, 50)
	to := from.Add(time.Hour)

	sets, err := s.ListSets(ctx, SetFilter{From: &from, To: &to})
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 || sets[0].RepsCompleted != 9 {
		t.Fatalf("unexpected sets %+v", sets)
	}

	sets, _ = s.ListSets(ctx, SetFilter{Limit: 1})
	if len(sets) != 1 || sets[0].RepsCompleted != 10 {
		t.Fatalf("limit should keep the oldest set, got %+v", sets)
	}
}

func TestDailySetCounts(t *testing.T) {
	s := newTestStore(t)
	clock := withClock(t, s)
	sess := startSession(t, s, "a", "b", "c", "d")

	logSet(t, s, sess.ID, "a", 10, 50)
	logSet(t, s, sess.ID, "a", 8, 50)
	clock.Advance(24 * time.Hour)
	logSet(t, s, sess.ID, "b", 5, 100)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	counts, err := s.DailySetCounts(ctx, from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 days, got %+v", counts)
	}
	if counts[0].Date != "2024-03-04" || counts[0].Sets != 2 || counts[0].Volume != 900 {
		t.Fatalf("unexpected first day %+v", counts[0])
	}
	if counts[1].Date != "2024-03-05" || counts[1].Volume != 500 {
		t.Fatalf("unexpected second day %+v", counts[1])
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	unit, err := s.GetSetting(ctx, "weight_unit")
	if err != nil || unit != "kg" {
		t.Fatalf("expected default kg, got %q err=%v", unit, err)
	}
	if err := s.SetSetting(ctx, "weight_unit", "lb"); err != nil {
		t.Fatal(err)
	}
	unit, _ = s.GetSetting(ctx, "weight_unit")
	if unit != "lb" {
		t.Fatalf("expected lb, got %q", unit)
	}
	if _, err := s.GetSetting(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Change feed
// ============================================================

func TestSubscribeSignalsAfterWrite(t *testing.T) {
	s := newTestStore(t)
	ch, cancel := s.Subscribe()
	defer cancel()

	createExercise(t, s, "Row", TypeCompound, "back")
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change signal")
	}
}

func TestSubscribeCoalesces(t *testing.T) {
	s := newTestStore(t)
	ch, cancel := s.Subscribe()

	createExercise(t, s, "A", TypeOther)
	createExercise(t, s, "B", TypeOther)
	if len(ch) != 1 {
		t.Fatalf("expected one pending signal, got %d", len(ch))
	}

	cancel()
	if _, ok := <-ch; !ok {
		t.Fatal("pending signal should still be readable")
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after cancel")
	}
	cancel()
}
