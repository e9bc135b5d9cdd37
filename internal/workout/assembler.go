package workout

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sadopc/liftlog/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	// MinExercises is the fewest exercises a template or a started session
	// may have.
	MinExercises = 4
	// PlanSize is how many exercises the focus and suggested modes pick.
	PlanSize = 5
	// RecentWindow bounds how many distinct recent exercises focus mode scans.
	RecentWindow = 50
)

var focusMuscles = map[store.Focus]map[string]bool{
	store.FocusUpper: setOf("chest", "back", "shoulders", "biceps", "triceps", "forearms",
		"rear delts", "upper chest", "core", "abs"),
	store.FocusLower: setOf("quadriceps", "hamstrings", "glutes", "calves", "adductors"),
}

func setOf(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// MatchesFocus reports whether any primary or secondary muscle of ex belongs
// to the focus group.
func MatchesFocus(ex store.Exercise, focus store.Focus) bool {
	tags := focusMuscles[focus]
	for _, m := range slices.Concat(ex.PrimaryMuscles, ex.SecondaryMuscles) {
		if tags[strings.ToLower(m)] {
			return true
		}
	}
	return false
}

// FromTemplate creates a plan holding a copy of the template's exercises.
func (e *Engine) FromTemplate(ctx context.Context, templateID string) (*store.Plan, error) {
	t, err := e.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, notFound(err, "Template not found.")
	}
	return e.createPlan(ctx, store.Plan{
		Mode:               store.ModeTemplate,
		Name:               t.Name,
		TemplateID:         t.ID,
		PlannedExerciseIDs: slices.Clone(t.ExerciseIDs),
	})
}

// FromFocus picks up to PlanSize recently performed exercises that match the
// focus, most recent first. When history yields fewer than MinExercises it
// tops up from the library in insertion order.
func (e *Engine) FromFocus(ctx context.Context, focus store.Focus) (*store.Plan, error) {
	if _, ok := focusMuscles[focus]; !ok {
		return nil, newError(ErrValidation, fmt.Sprintf("Unknown focus %q.", focus))
	}

	recent, err := e.store.RecentExerciseIDs(ctx, RecentWindow)
	if err != nil {
		return nil, fmt.Errorf("recent exercises: %w", err)
	}
	recentExercises, err := e.store.GetExercises(ctx, recent)
	if err != nil {
		return nil, fmt.Errorf("load recent exercises: %w", err)
	}

	var picked []string
	for _, ex := range recentExercises {
		if len(picked) >= PlanSize {
			break
		}
		if MatchesFocus(ex, focus) {
			picked = append(picked, ex.ID)
		}
	}

	if len(picked) < MinExercises {
		library, err := e.store.ListExercises(ctx)
		if err != nil {
			return nil, fmt.Errorf("list exercises: %w", err)
		}
		for _, ex := range library {
			if len(picked) >= PlanSize {
				break
			}
			if MatchesFocus(ex, focus) && !slices.Contains(picked, ex.ID) {
				picked = append(picked, ex.ID)
			}
		}
	}

	if len(picked) < MinExercises {
		return nil, newError(ErrValidation, "Not enough exercises available for that focus yet.")
	}

	name := "Upper"
	if focus == store.FocusLower {
		name = "Lower"
	}
	return e.createPlan(ctx, store.Plan{
		Mode:               store.ModeFocus,
		Name:               name,
		Focus:              focus,
		PlannedExerciseIDs: picked,
	})
}

// Suggested picks the PlanSize exercises with the most completed sets.
func (e *Engine) Suggested(ctx context.Context) (*store.Plan, error) {
	counts, err := e.store.ExerciseSetCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("exercise set counts: %w", err)
	}
	// Stable sort keeps first-seen order between equal counts.
	slices.SortStableFunc(counts, func(a, b store.ExerciseCount) int {
		return b.Sets - a.Sets
	})

	ids := make([]string, 0, PlanSize)
	for _, c := range counts[:min(len(counts), PlanSize)] {
		ids = append(ids, c.ExerciseID)
	}
	if len(ids) < MinExercises {
		return nil, newError(ErrInsufficientHistory,
			"Not enough history yet for a suggestion. Use Quick pick or a focus workout.")
	}
	return e.createPlan(ctx, store.Plan{
		Mode:               store.ModeSuggested,
		Name:               "Suggested",
		PlannedExerciseIDs: ids,
	})
}

// QuickPick creates a plan from a hand-picked list. A blank name becomes
// "Quick pick".
func (e *Engine) QuickPick(ctx context.Context, name string, exerciseIDs []string) (*store.Plan, error) {
	if len(exerciseIDs) < MinExercises {
		return nil, newError(ErrValidation, fmt.Sprintf("Pick at least %d exercises.", MinExercises))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Quick pick"
	}
	return e.createPlan(ctx, store.Plan{
		Mode:               store.ModeQuickPick,
		Name:               name,
		PlannedExerciseIDs: slices.Clone(exerciseIDs),
	})
}

func (e *Engine) createPlan(ctx context.Context, p store.Plan) (*store.Plan, error) {
	plan, err := e.store.CreatePlan(ctx, p)
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"plan_id":   plan.ID,
		"mode":      plan.Mode,
		"exercises": len(plan.PlannedExerciseIDs),
	}).Info("plan created")
	return plan, nil
}

func (e *Engine) GetPlan(ctx context.Context, planID string) (*store.Plan, error) {
	p, err := e.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, notFound(err, "Plan not found.")
	}
	return p, nil
}

// SetPlanExercises replaces the plan's exercise list. A missing plan is
// ignored.
func (e *Engine) SetPlanExercises(ctx context.Context, planID string, exerciseIDs []string) error {
	ids := slices.Clone(exerciseIDs)
	if ids == nil {
		ids = []string{}
	}
	return e.store.EditPlanExercises(ctx, planID, func([]string) []string { return ids })
}

// ReorderPlanExercise moves the exercise at from to position to.
func (e *Engine) ReorderPlanExercise(ctx context.Context, planID string, from, to int) error {
	return e.store.EditPlanExercises(ctx, planID, func(ids []string) []string {
		return moveID(ids, from, to)
	})
}

// DeferPlanExercise moves the exercise at index to the end of the plan.
func (e *Engine) DeferPlanExercise(ctx context.Context, planID string, index int) error {
	return e.store.EditPlanExercises(ctx, planID, func(ids []string) []string {
		return deferID(ids, index)
	})
}

func (e *Engine) RemovePlanExercise(ctx context.Context, planID string, index int) error {
	return e.store.EditPlanExercises(ctx, planID, func(ids []string) []string {
		return removeID(ids, index)
	})
}
