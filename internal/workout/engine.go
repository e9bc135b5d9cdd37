// Package workout is the session engine: it turns plans into sessions, moves
// exercises through a session's queue, records sets and derives weight, rep
// and rest suggestions from history. The presentation layer mutates workout
// data only through an Engine.
package workout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/sadopc/liftlog/internal/store"
	"github.com/sirupsen/logrus"
)

// Store is the persistence the engine needs. *store.Store implements it.
type Store interface {
	CreateExercise(ctx context.Context, in store.ExerciseInput) (*store.Exercise, error)
	UpdateExercise(ctx context.Context, id string, in store.ExerciseInput) error
	GetExercise(ctx context.Context, id string) (*store.Exercise, error)
	GetExercises(ctx context.Context, ids []string) ([]store.Exercise, error)
	ListExercises(ctx context.Context) ([]store.Exercise, error)
	SearchExercises(ctx context.Context, query string) ([]store.Exercise, error)
	CountExercises(ctx context.Context) (int, error)

	CreateTemplate(ctx context.Context, name string, exerciseIDs []string) (*store.Template, error)
	UpdateTemplate(ctx context.Context, id, name string, exerciseIDs []string) error
	GetTemplate(ctx context.Context, id string) (*store.Template, error)
	ListTemplates(ctx context.Context) ([]store.Template, error)

	CreatePlan(ctx context.Context, p store.Plan) (*store.Plan, error)
	GetPlan(ctx context.Context, id string) (*store.Plan, error)
	EditPlanExercises(ctx context.Context, planID string, fn func(ids []string) []string) error

	StartSession(ctx context.Context, p store.Plan) (*store.Session, error)
	GetSession(ctx context.Context, id string) (*store.Session, error)
	ActiveSession(ctx context.Context) (*store.Session, error)
	ListSessions(ctx context.Context, limit int) ([]store.Session, error)
	EndSession(ctx context.Context, id string) (bool, error)
	SetExerciseStatus(ctx context.Context, sessionID, exerciseID string, status store.ExerciseStatus) (bool, error)
	ListSessionExercises(ctx context.Context, sessionID string) ([]store.SessionExercise, error)
	EditQueue(ctx context.Context, sessionID string, fn func(rows []store.SessionExercise) ([]store.SessionExercise, error)) error

	InsertSet(ctx context.Context, in store.SetInput) (string, error)
	SetIntentionalMiss(ctx context.Context, id string, intentional bool) (bool, error)
	ListSets(ctx context.Context, f store.SetFilter) ([]store.SessionSet, error)
	LastPerformance(ctx context.Context, exerciseID string) (*store.LastPerformance, error)
	RecentExerciseIDs(ctx context.Context, limit int) ([]string, error)
	ExerciseSetCounts(ctx context.Context) ([]store.ExerciseCount, error)
	DailySetCounts(ctx context.Context, from, to time.Time) ([]store.DailySetCount, error)

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	GetAllSettings(ctx context.Context) ([]store.Setting, error)
}

const SettingWeightUnit = "weight_unit"

type Engine struct {
	store Store
	log   logrus.FieldLogger
	now   func() time.Time
}

type Option func(*Engine)

// WithLogger sets the logger for state transitions. The default discards.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock sets the time source used to age history.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(st Store, opts ...Option) *Engine {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	e := &Engine{store: st, log: quiet, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartSession snapshots the plan into a new active session. It fails with
// ErrConflict while another session is active.
func (e *Engine) StartSession(ctx context.Context, planID string) (*store.Session, error) {
	plan, err := e.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, notFound(err, "Plan not found.")
	}
	if len(plan.PlannedExerciseIDs) < MinExercises {
		return nil, newError(ErrValidation, fmt.Sprintf("Workouts need at least %d exercises.", MinExercises))
	}

	sess, err := e.store.StartSession(ctx, *plan)
	if errors.Is(err, store.ErrSessionActive) {
		return nil, newError(ErrConflict, "A workout is already in progress.")
	}
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"plan_id":    plan.ID,
		"mode":       sess.Mode,
	}).Info("session started")
	return sess, nil
}

// EndSession ends an active session. Ending an already ended or unknown
// session does nothing.
func (e *Engine) EndSession(ctx context.Context, sessionID string) error {
	ended, err := e.store.EndSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if ended {
		e.log.WithField("session_id", sessionID).Info("session ended")
	}
	return nil
}

func (e *Engine) ActiveSession(ctx context.Context) (*store.Session, error) {
	return e.store.ActiveSession(ctx)
}

func (e *Engine) GetSession(ctx context.Context, sessionID string) (*store.Session, error) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, notFound(err, "Workout not found.")
	}
	return sess, nil
}

// ListSessions returns sessions newest first; limit 0 returns all.
func (e *Engine) ListSessions(ctx context.Context, limit int) ([]store.Session, error) {
	return e.store.ListSessions(ctx, limit)
}

func (e *Engine) Queue(ctx context.Context, sessionID string) (Queue, error) {
	rows, err := e.store.ListSessionExercises(ctx, sessionID)
	if err != nil {
		return Queue{}, err
	}
	return BuildQueue(rows), nil
}

// CompleteExercise marks the pending exercise completed. Rows that are
// missing or no longer pending are left alone.
func (e *Engine) CompleteExercise(ctx context.Context, sessionID, exerciseID string) error {
	return e.setStatus(ctx, sessionID, exerciseID, store.StatusCompleted)
}

// SkipExercise marks the pending exercise skipped.
func (e *Engine) SkipExercise(ctx context.Context, sessionID, exerciseID string) error {
	return e.setStatus(ctx, sessionID, exerciseID, store.StatusSkipped)
}

func (e *Engine) setStatus(ctx context.Context, sessionID, exerciseID string, status store.ExerciseStatus) error {
	changed, err := e.store.SetExerciseStatus(ctx, sessionID, exerciseID, status)
	if err != nil {
		return err
	}
	log := e.log.WithFields(logrus.Fields{"session_id": sessionID, "exercise_id": exerciseID})
	if !changed {
		log.Debugf("no pending exercise to mark %s", status)
		return nil
	}
	log.Infof("exercise %s", status)
	return nil
}

// DeferExercise moves the exercise to the end of the whole queue and counts
// the deferral. The rest of the queue keeps its relative order.
func (e *Engine) DeferExercise(ctx context.Context, sessionID, exerciseID string) error {
	err := e.store.EditQueue(ctx, sessionID, func(rows []store.SessionExercise) ([]store.SessionExercise, error) {
		return deferRow(rows, exerciseID), nil
	})
	if err != nil {
		return fmt.Errorf("defer exercise: %w", err)
	}
	e.log.WithFields(logrus.Fields{"session_id": sessionID, "exercise_id": exerciseID}).Debug("exercise deferred")
	return nil
}

// ReorderExercise moves a pending exercise to toIndex in the whole queue.
func (e *Engine) ReorderExercise(ctx context.Context, sessionID, exerciseID string, toIndex int) error {
	err := e.store.EditQueue(ctx, sessionID, func(rows []store.SessionExercise) ([]store.SessionExercise, error) {
		return moveRow(rows, exerciseID, toIndex)
	})
	var we *Error
	if errors.As(err, &we) {
		return we
	}
	if err != nil {
		return fmt.Errorf("reorder exercise: %w", err)
	}
	e.log.WithFields(logrus.Fields{
		"session_id":  sessionID,
		"exercise_id": exerciseID,
		"to":          toIndex,
	}).Debug("exercise moved")
	return nil
}

// MoveQueueRow moves the session exercise row rowID to toIndex in the whole
// queue. It addresses a row, not an exercise, so duplicates are unambiguous.
// Unknown rows are ignored; a row that is no longer pending is rejected.
func (e *Engine) MoveQueueRow(ctx context.Context, sessionID, rowID string, toIndex int) error {
	err := e.store.EditQueue(ctx, sessionID, func(rows []store.SessionExercise) ([]store.SessionExercise, error) {
		i := slices.IndexFunc(rows, func(r store.SessionExercise) bool { return r.ID == rowID })
		return moveAt(rows, i, toIndex)
	})
	var we *Error
	if errors.As(err, &we) {
		return we
	}
	if err != nil {
		return fmt.Errorf("move queue row: %w", err)
	}
	e.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"row_id":     rowID,
		"to":         toIndex,
	}).Debug("queue row moved")
	return nil
}

type LogSetInput struct {
	SessionID         string
	ExerciseID        string
	RepsCompleted     float64
	Weight            float64
	MissedReps        float64
	RestSecondsBefore *int
}

// LogSet records a completed set and returns its id. Reps are floored and
// clamped at zero; a weight that is not finite is stored as 0.
func (e *Engine) LogSet(ctx context.Context, in LogSetInput) (string, error) {
	if strings.TrimSpace(in.SessionID) == "" || strings.TrimSpace(in.ExerciseID) == "" {
		return "", newError(ErrValidation, "A set needs a workout and an exercise.")
	}
	weight := in.Weight
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		weight = 0
	}
	set := store.SetInput{
		SessionID:         in.SessionID,
		ExerciseID:        in.ExerciseID,
		RepsCompleted:     wholeReps(in.RepsCompleted),
		Weight:            weight,
		MissedReps:        wholeReps(in.MissedReps),
		RestSecondsBefore: in.RestSecondsBefore,
	}
	id, err := e.store.InsertSet(ctx, set)
	if err != nil {
		return "", err
	}
	e.log.WithFields(logrus.Fields{
		"session_id":  in.SessionID,
		"exercise_id": in.ExerciseID,
		"set_id":      id,
		"reps":        set.RepsCompleted,
		"weight":      set.Weight,
		"missed":      set.MissedReps,
	}).Debug("set logged")
	return id, nil
}

func wholeReps(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(v))
}

// SetIntentionalMiss records whether a set's missed reps were on purpose.
// An unknown set is ignored.
func (e *Engine) SetIntentionalMiss(ctx context.Context, setID string, intentional bool) error {
	_, err := e.store.SetIntentionalMiss(ctx, setID, intentional)
	return err
}

// SessionSets returns every set logged in the session in the order logged.
func (e *Engine) SessionSets(ctx context.Context, sessionID string) ([]store.SessionSet, error) {
	return e.store.ListSets(ctx, store.SetFilter{SessionID: sessionID})
}

// ListSets returns logged sets across sessions.
func (e *Engine) ListSets(ctx context.Context, f store.SetFilter) ([]store.SessionSet, error) {
	return e.store.ListSets(ctx, f)
}

// ExerciseSets returns the sets of one exercise within the session.
func (e *Engine) ExerciseSets(ctx context.Context, sessionID, exerciseID string) ([]store.SessionSet, error) {
	return e.store.ListSets(ctx, store.SetFilter{SessionID: sessionID, ExerciseID: exerciseID})
}

func (e *Engine) LastPerformance(ctx context.Context, exerciseID string) (*store.LastPerformance, error) {
	return e.store.LastPerformance(ctx, exerciseID)
}

// StartSuggestion returns the starting weight and reps for the exercise.
func (e *Engine) StartSuggestion(ctx context.Context, exerciseID string) (StartSuggestion, error) {
	ex, err := e.store.GetExercise(ctx, exerciseID)
	if err != nil {
		return StartSuggestion{}, notFound(err, "Exercise not found.")
	}
	last, err := e.store.LastPerformance(ctx, exerciseID)
	if err != nil {
		return StartSuggestion{}, err
	}
	return SuggestStart(*ex, last, e.now()), nil
}

// NextTimeSuggestion evaluates the sets logged for the exercise in the
// session. It reports false when none were logged.
func (e *Engine) NextTimeSuggestion(ctx context.Context, sessionID, exerciseID string, repsTarget int) (NextTimeSuggestion, bool, error) {
	ex, err := e.store.GetExercise(ctx, exerciseID)
	if err != nil {
		return NextTimeSuggestion{}, false, notFound(err, "Exercise not found.")
	}
	sets, err := e.ExerciseSets(ctx, sessionID, exerciseID)
	if err != nil {
		return NextTimeSuggestion{}, false, err
	}
	s, ok := SuggestNextTime(*ex, sets, repsTarget)
	return s, ok, nil
}

// RestSuggestion returns the rest to take after the exercise's latest set in
// the session.
func (e *Engine) RestSuggestion(ctx context.Context, sessionID, exerciseID string) (time.Duration, error) {
	ex, err := e.store.GetExercise(ctx, exerciseID)
	if err != nil {
		return 0, notFound(err, "Exercise not found.")
	}
	sets, err := e.ExerciseSets(ctx, sessionID, exerciseID)
	if err != nil {
		return 0, err
	}
	missed := len(sets) > 0 && sets[len(sets)-1].MissedReps > 0
	return SuggestRest(*ex, missed), nil
}

// ExerciseSummary is one exercise's result within a session.
type ExerciseSummary struct {
	Exercise store.Exercise
	Status   store.ExerciseStatus
	Sets     []store.SessionSet
	Volume   float64
	NextTime *NextTimeSuggestion
}

type Summary struct {
	Session   store.Session
	Exercises []ExerciseSummary
	TotalSets int
	Volume    float64
}

// SessionSummary reports, per queued exercise in order, the sets logged and
// the suggestion for next time.
func (e *Engine) SessionSummary(ctx context.Context, sessionID string) (*Summary, error) {
	sess, err := e.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rows, err := e.store.ListSessionExercises(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sets, err := e.SessionSets(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ExerciseID)
	}
	exercises, err := e.store.GetExercises(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]store.Exercise, len(exercises))
	for _, ex := range exercises {
		byID[ex.ID] = ex
	}
	setsByExercise := make(map[string][]store.SessionSet)
	for _, s := range sets {
		setsByExercise[s.ExerciseID] = append(setsByExercise[s.ExerciseID], s)
	}

	sum := &Summary{Session: *sess}
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if seen[r.ExerciseID] {
			continue
		}
		seen[r.ExerciseID] = true

		ex, ok := byID[r.ExerciseID]
		if !ok {
			ex = store.Exercise{ID: r.ExerciseID, Name: "Unknown exercise", Type: store.TypeOther}
		}
		es := ExerciseSummary{Exercise: ex, Status: r.Status, Sets: setsByExercise[r.ExerciseID]}
		for _, s := range es.Sets {
			es.Volume += s.Weight * float64(s.RepsCompleted)
		}
		if next, ok := SuggestNextTime(ex, es.Sets, 0); ok {
			es.NextTime = &next
		}
		sum.Exercises = append(sum.Exercises, es)
		sum.TotalSets += len(es.Sets)
		sum.Volume += es.Volume
	}
	return sum, nil
}

func (e *Engine) CreateExercise(ctx context.Context, in store.ExerciseInput) (*store.Exercise, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, newError(ErrValidation, "Exercise name is required.")
	}
	ex, err := e.store.CreateExercise(ctx, in)
	if err != nil {
		return nil, err
	}
	e.log.WithField("exercise_id", ex.ID).Debug("exercise created")
	return ex, nil
}

func (e *Engine) UpdateExercise(ctx context.Context, id string, in store.ExerciseInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return newError(ErrValidation, "Exercise name is required.")
	}
	return notFound(e.store.UpdateExercise(ctx, id, in), "Exercise not found.")
}

func (e *Engine) GetExercise(ctx context.Context, id string) (*store.Exercise, error) {
	ex, err := e.store.GetExercise(ctx, id)
	if err != nil {
		return nil, notFound(err, "Exercise not found.")
	}
	return ex, nil
}

// GetExercises resolves ids in order, skipping unknown ones.
func (e *Engine) GetExercises(ctx context.Context, ids []string) ([]store.Exercise, error) {
	return e.store.GetExercises(ctx, ids)
}

func (e *Engine) ListExercises(ctx context.Context) ([]store.Exercise, error) {
	return e.store.ListExercises(ctx)
}

// CountExercises returns the size of the exercise library.
func (e *Engine) CountExercises(ctx context.Context) (int, error) {
	return e.store.CountExercises(ctx)
}

// SearchExercises matches query against names and aliases ignoring case,
// accents and punctuation.
func (e *Engine) SearchExercises(ctx context.Context, query string) ([]store.Exercise, error) {
	return e.store.SearchExercises(ctx, query)
}

func validateTemplate(name string, exerciseIDs []string) error {
	if strings.TrimSpace(name) == "" {
		return newError(ErrValidation, "Template name is required.")
	}
	if len(exerciseIDs) < MinExercises {
		return newError(ErrValidation, fmt.Sprintf("Workout templates need at least %d exercises.", MinExercises))
	}
	return nil
}

func (e *Engine) CreateTemplate(ctx context.Context, name string, exerciseIDs []string) (*store.Template, error) {
	if err := validateTemplate(name, exerciseIDs); err != nil {
		return nil, err
	}
	t, err := e.store.CreateTemplate(ctx, name, exerciseIDs)
	if err != nil {
		return nil, err
	}
	e.log.WithField("template_id", t.ID).Debug("template created")
	return t, nil
}

// UpdateTemplate rewrites a template. Sessions already started from it keep
// their own snapshot.
func (e *Engine) UpdateTemplate(ctx context.Context, id, name string, exerciseIDs []string) error {
	if err := validateTemplate(name, exerciseIDs); err != nil {
		return err
	}
	return notFound(e.store.UpdateTemplate(ctx, id, name, exerciseIDs), "Template not found.")
}

func (e *Engine) GetTemplate(ctx context.Context, id string) (*store.Template, error) {
	t, err := e.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, notFound(err, "Template not found.")
	}
	return t, nil
}

func (e *Engine) ListTemplates(ctx context.Context) ([]store.Template, error) {
	return e.store.ListTemplates(ctx)
}

// DailySetCounts returns sets and volume per day in [from, to).
func (e *Engine) DailySetCounts(ctx context.Context, from, to time.Time) ([]store.DailySetCount, error) {
	return e.store.DailySetCounts(ctx, from, to)
}

// WeightUnit returns the display unit for weights, "kg" unless set.
func (e *Engine) WeightUnit(ctx context.Context) string {
	v, err := e.store.GetSetting(ctx, SettingWeightUnit)
	if err != nil || v == "" {
		return "kg"
	}
	return v
}

// SetWeightUnit stores the display unit. Only "kg" and "lb" are accepted.
func (e *Engine) SetWeightUnit(ctx context.Context, unit string) error {
	unit = strings.ToLower(strings.TrimSpace(unit))
	if unit != "kg" && unit != "lb" {
		return newError(ErrValidation, "Weight unit must be kg or lb.")
	}
	return e.store.SetSetting(ctx, SettingWeightUnit, unit)
}

func (e *Engine) Settings(ctx context.Context) ([]store.Setting, error) {
	return e.store.GetAllSettings(ctx)
}
