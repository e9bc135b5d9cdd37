package workout

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/sadopc/liftlog/internal/store"
)

func TestMatchesFocus(t *testing.T) {
	tests := []struct {
		name  string
		ex    store.Exercise
		focus store.Focus
		want  bool
	}{
		{"primary upper", store.Exercise{PrimaryMuscles: []string{"Chest"}}, store.FocusUpper, true},
		{"secondary upper", store.Exercise{SecondaryMuscles: []string{"Rear Delts"}}, store.FocusUpper, true},
		{"lower", store.Exercise{PrimaryMuscles: []string{"glutes"}}, store.FocusLower, true},
		{"lower is not upper", store.Exercise{PrimaryMuscles: []string{"quadriceps"}}, store.FocusUpper, false},
		{"no tags", store.Exercise{}, store.FocusLower, false},
		{"unknown focus", store.Exercise{PrimaryMuscles: []string{"chest"}}, "full", false},
	}
	for _, tt := range tests {
		if got := MatchesFocus(tt.ex, tt.focus); got != tt.want {
			t.Errorf("%s: MatchesFocus = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFocusRecentFirstThenLibrary(t *testing.T) {
	e, clock := newTestEngine(t)
	libA := addExercise(t, e, "Cable Fly", store.TypeIsolation, "chest")
	libB := addExercise(t, e, "Face Pull", store.TypeIsolation, "rear delts")
	squat := addExercise(t, e, "Squat", store.TypeCompound, "quadriceps")
	bench := addExercise(t, e, "Bench Press", store.TypeCompound, "chest")
	row := addExercise(t, e, "Barbell Row", store.TypeCompound, "back")
	curl := addExercise(t, e, "Curl", store.TypeIsolation, "biceps")

	sess := startQuick(t, e, bench, row, curl, squat)
	for _, id := range []string{bench, row, curl} {
		clock.Advance(time.Minute)
		mustLog(t, e, LogSetInput{SessionID: sess.ID, ExerciseID: id, RepsCompleted: 8, Weight: 40})
	}

	plan, err := e.FromFocus(ctx, store.FocusUpper)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{curl, row, bench, libA, libB}
	if !slices.Equal(plan.PlannedExerciseIDs, want) {
		t.Fatalf("got %v, want %v", plan.PlannedExerciseIDs, want)
	}
	if plan.Name != "Upper" || plan.Mode != store.ModeFocus || plan.Focus != store.FocusUpper {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestFocusHistoryOnly(t *testing.T) {
	e, clock := newTestEngine(t)
	lib := addExercise(t, e, "Leg Curl", store.TypeIsolation, "hamstrings")
	ids := []string{
		addExercise(t, e, "Squat", store.TypeCompound, "quadriceps"),
		addExercise(t, e, "Hip Thrust", store.TypeCompound, "glutes"),
		addExercise(t, e, "Calf Raise", store.TypeIsolation, "calves"),
		addExercise(t, e, "Adductor", store.TypeIsolation, "adductors"),
	}
	sess := startQuick(t, e, ids...)
	for _, id := range ids {
		clock.Advance(time.Minute)
		mustLog(t, e, LogSetInput{SessionID: sess.ID, ExerciseID: id, RepsCompleted: 10, Weight: 20})
	}

	plan, err := e.FromFocus(ctx, store.FocusLower)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{ids[3], ids[2], ids[1], ids[0]}
	if !slices.Equal(plan.PlannedExerciseIDs, want) {
		t.Fatalf("four recent matches need no library top-up: got %v, want %v", plan.PlannedExerciseIDs, want)
	}
	if slices.Contains(plan.PlannedExerciseIDs, lib) {
		t.Fatal("library exercise should not be added")
	}
	if plan.Name != "Lower" {
		t.Fatalf("unexpected name %q", plan.Name)
	}
}

func TestFocusNotEnough(t *testing.T) {
	e, _ := newTestEngine(t)
	addExercise(t, e, "Squat", store.TypeCompound, "quadriceps")
	addExercise(t, e, "Bench", store.TypeCompound, "chest")

	_, err := e.FromFocus(ctx, store.FocusLower)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := e.FromFocus(ctx, "sideways"); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown focus: expected ErrValidation, got %v", err)
	}
}

func TestSuggestedByFrequency(t *testing.T) {
	e, clock := newTestEngine(t)
	ids := addExercises(t, e, 6)
	a, b, c, d, ex, f := ids[0], ids[1], ids[2], ids[3], ids[4], ids[5]
	sess := startQuick(t, e, ids...)

	for _, id := range []string{b, a, a, a, c, c, d, d, ex, f} {
		clock.Advance(time.Minute)
		mustLog(t, e, LogSetInput{SessionID: sess.ID, ExerciseID: id, RepsCompleted: 5, Weight: 50})
	}

	plan, err := e.Suggested(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{a, c, d, b, ex}
	if !slices.Equal(plan.PlannedExerciseIDs, want) {
		t.Fatalf("got %v, want %v", plan.PlannedExerciseIDs, want)
	}
	if plan.Name != "Suggested" || plan.Mode != store.ModeSuggested {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestSuggestedInsufficientHistory(t *testing.T) {
	e, _ := newTestEngine(t)
	ids := addExercises(t, e, 4)
	sess := startQuick(t, e, ids...)
	for _, id := range ids[:3] {
		mustLog(t, e, LogSetInput{SessionID: sess.ID, ExerciseID: id, RepsCompleted: 5, Weight: 50})
	}

	_, err := e.Suggested(ctx)
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestFromTemplate(t *testing.T) {
	e, _ := newTestEngine(t)
	ids := addExercises(t, e, 4)
	tpl, _ := e.CreateTemplate(ctx, "Legs", ids)

	plan, err := e.FromTemplate(ctx, tpl.ID)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Name != "Legs" || plan.TemplateID != tpl.ID || !slices.Equal(plan.PlannedExerciseIDs, ids) {
		t.Fatalf("unexpected plan %+v", plan)
	}

	if _, err := e.FromTemplate(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQuickPick(t *testing.T) {
	e, _ := newTestEngine(t)
	ids := addExercises(t, e, 4)

	if _, err := e.QuickPick(ctx, "x", ids[:3]); !errors.Is(err, ErrValidation) {
		t.Fatalf("3 exercises: expected ErrValidation, got %v", err)
	}
	plan, err := e.QuickPick(ctx, "  ", ids)
	if err != nil {
		t.Fatalf("4 exercises should succeed: %v", err)
	}
	if plan.Name != "Quick pick" {
		t.Fatalf("expected default name, got %q", plan.Name)
	}
	plan, _ = e.QuickPick(ctx, " Arms ", ids)
	if plan.Name != "Arms" {
		t.Fatalf("expected trimmed name, got %q", plan.Name)
	}
}

func TestPlanEditing(t *testing.T) {
	e, _ := newTestEngine(t)
	ids := addExercises(t, e, 5)
	plan, _ := e.QuickPick(ctx, "", ids[:4])

	planIDs := func() []string {
		t.Helper()
		p, err := e.GetPlan(ctx, plan.ID)
		if err != nil {
			t.Fatal(err)
		}
		return p.PlannedExerciseIDs
	}

	e.DeferPlanExercise(ctx, plan.ID, 0)
	if got := planIDs(); !slices.Equal(got, []string{ids[1], ids[2], ids[3], ids[0]}) {
		t.Fatalf("defer: %v", got)
	}

	e.ReorderPlanExercise(ctx, plan.ID, 3, 0)
	if got := planIDs(); !slices.Equal(got, ids[:4]) {
		t.Fatalf("reorder: %v", got)
	}

	e.RemovePlanExercise(ctx, plan.ID, 1)
	if got := planIDs(); !slices.Equal(got, []string{ids[0], ids[2], ids[3]}) {
		t.Fatalf("remove: %v", got)
	}

	e.SetPlanExercises(ctx, plan.ID, ids)
	if got := planIDs(); !slices.Equal(got, ids) {
		t.Fatalf("set: %v", got)
	}

	// Out of range and missing plans leave things alone.
	e.RemovePlanExercise(ctx, plan.ID, 42)
	if got := planIDs(); len(got) != 5 {
		t.Fatalf("out of range edit changed the plan: %v", got)
	}
	if err := e.DeferPlanExercise(ctx, "missing", 0); err != nil {
		t.Fatalf("missing plan should be a no-op, got %v", err)
	}
	if _, err := e.GetPlan(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
