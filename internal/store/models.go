package store

import "time"

type ExerciseType string

const (
	TypeCompound  ExerciseType = "compound"
	TypeIsolation ExerciseType = "isolation"
	TypeCardio    ExerciseType = "cardio"
	TypeOther     ExerciseType = "other"
)

// ExerciseTypes lists the accepted types in display order.
var ExerciseTypes = []ExerciseType{TypeCompound, TypeIsolation, TypeCardio, TypeOther}

type PlanMode string

const (
	ModeTemplate  PlanMode = "template"
	ModeFocus     PlanMode = "focus"
	ModeSuggested PlanMode = "suggested"
	ModeQuickPick PlanMode = "quickpick"
)

type Focus string

const (
	FocusUpper Focus = "upper"
	FocusLower Focus = "lower"
)

type ExerciseStatus string

const (
	StatusPending   ExerciseStatus = "pending"
	StatusCompleted ExerciseStatus = "completed"
	StatusSkipped   ExerciseStatus = "skipped"
)

type Exercise struct {
	ID                string
	Name              string
	Aliases           []string
	NormalizedName    string
	NormalizedAliases []string
	Type              ExerciseType
	Category          string
	PrimaryMuscles    []string
	SecondaryMuscles  []string
	Equipment         []string
	Instructions      string
	ImageURLs         []string
	VideoURLs         []string
	IsCustom          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ExerciseInput carries the user-editable fields of an exercise. Normalized
// fields are always derived from Name and Aliases by the store.
type ExerciseInput struct {
	Name             string
	Aliases          []string
	Type             ExerciseType
	Category         string
	PrimaryMuscles   []string
	SecondaryMuscles []string
	Equipment        []string
	Instructions     string
	ImageURLs        []string
	VideoURLs        []string
	IsCustom         bool
}

type Template struct {
	ID          string
	Name        string
	ExerciseIDs []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Plan struct {
	ID                 string
	CreatedAt          time.Time
	Mode               PlanMode
	Name               string
	TemplateID         string // empty unless Mode == ModeTemplate
	Focus              Focus  // empty unless Mode == ModeFocus
	PlannedExerciseIDs []string
}

type Session struct {
	ID                 string
	StartedAt          time.Time
	EndedAt            *time.Time // nil while the session is active
	Mode               PlanMode
	TemplateID         string
	Focus              Focus
	Name               string
	PlannedExerciseIDs []string
}

// Active reports whether the session has not been ended.
func (s Session) Active() bool { return s.EndedAt == nil }

type SessionExercise struct {
	ID            string
	SessionID     string
	ExerciseID    string
	OrderIndex    int
	Status        ExerciseStatus
	DeferredCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type SessionSet struct {
	ID                string
	SessionID         string
	ExerciseID        string
	SetIndex          int
	CreatedAt         time.Time
	CompletedAt       *time.Time
	RepsCompleted     int
	Weight            float64
	MissedReps        int
	IntentionalMiss   *bool // nil = not answered yet
	RestSecondsBefore *int
}

// SetInput is an already-sanitized set about to be appended.
type SetInput struct {
	SessionID         string
	ExerciseID        string
	RepsCompleted     int
	Weight            float64
	MissedReps        int
	RestSecondsBefore *int
}

// LastPerformance is the most recent completed set of an exercise.
type LastPerformance struct {
	CompletedAt time.Time
	Weight      float64
	Reps        int
	RestSeconds *int
}

// ExerciseCount is the number of completed sets logged for an exercise.
type ExerciseCount struct {
	ExerciseID string
	Sets       int
}

// SetFilter is used to filter logged sets in queries.
type SetFilter struct {
	SessionID  string
	ExerciseID string
	From       *time.Time
	To         *time.Time
	Limit      int
}

// DailySetCount represents completed sets per day.
type DailySetCount struct {
	Date   string
	Sets   int
	Volume float64 // sum of weight * reps
}
