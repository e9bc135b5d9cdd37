package workout

import (
	"math"
	"time"

	"github.com/sadopc/liftlog/internal/store"
)

// Direction is the kind of change a NextTimeSuggestion recommends.
type Direction string

const (
	Increase Direction = "increase"
	Decrease Direction = "decrease"
	Keep     Direction = "keep"
)

// staleAfter is how long since the last set before the start suggestion
// backs off.
const staleAfter = 21 * 24 * time.Hour

type StartSuggestion struct {
	Weight     float64
	RepsTarget int
	Note       string
}

type NextTimeSuggestion struct {
	Weight    float64
	Note      string
	Direction Direction
}

// TargetReps is the fallback rep target for an exercise type.
func TargetReps(t store.ExerciseType) int {
	switch t {
	case store.TypeIsolation:
		return 12
	case store.TypeCompound:
		return 8
	default:
		return 10
	}
}

// RoundWeight rounds w to the nearest 2.5, or the nearest 5 from 80 up.
// Non-positive weights round to 0.
func RoundWeight(w float64) float64 {
	if w <= 0 || math.IsNaN(w) {
		return 0
	}
	inc := weightStep(w)
	return math.Round(w/inc) * inc
}

func weightStep(w float64) float64 {
	if w >= 80 {
		return 5
	}
	return 2.5
}

// SuggestStart proposes a starting weight and rep target for ex given its
// most recent performance, which may be nil.
func SuggestStart(ex store.Exercise, last *store.LastPerformance, now time.Time) StartSuggestion {
	target := TargetReps(ex.Type)
	if last == nil {
		return StartSuggestion{RepsTarget: target, Note: "New exercise, start light."}
	}
	if now.Sub(last.CompletedAt) >= staleAfter {
		return StartSuggestion{
			Weight:     RoundWeight(last.Weight * 0.92),
			RepsTarget: target,
			Note:       "It's been a while, start a bit lighter.",
		}
	}
	return StartSuggestion{Weight: last.Weight, RepsTarget: target}
}

// WorstSet returns the set with the fewest reps, ties going to the lower
// weight and then to the earlier set.
func WorstSet(sets []store.SessionSet) (store.SessionSet, bool) {
	if len(sets) == 0 {
		return store.SessionSet{}, false
	}
	worst := sets[0]
	for _, s := range sets[1:] {
		if s.RepsCompleted < worst.RepsCompleted ||
			(s.RepsCompleted == worst.RepsCompleted && s.Weight < worst.Weight) {
			worst = s
		}
	}
	return worst, true
}

// SuggestNextTime proposes next session's weight from the sets logged for ex
// in this session. A repsTarget <= 0 falls back to TargetReps. It reports
// false when there are no sets.
func SuggestNextTime(ex store.Exercise, sets []store.SessionSet, repsTarget int) (NextTimeSuggestion, bool) {
	worst, ok := WorstSet(sets)
	if !ok {
		return NextTimeSuggestion{}, false
	}
	if repsTarget <= 0 {
		repsTarget = TargetReps(ex.Type)
	}

	for _, s := range sets {
		if s.MissedReps > 0 && (s.IntentionalMiss == nil || !*s.IntentionalMiss) {
			return NextTimeSuggestion{
				Weight:    RoundWeight(math.Max(0, worst.Weight*0.95)),
				Note:      "Missed reps (not intentional), consider a small step down next time.",
				Direction: Decrease,
			}, true
		}
	}

	if worst.RepsCompleted >= repsTarget {
		return NextTimeSuggestion{
			Weight:    RoundWeight(worst.Weight + weightStep(worst.Weight)),
			Note:      "Hit target reps on the worst set, consider a small increase next time.",
			Direction: Increase,
		}, true
	}

	return NextTimeSuggestion{
		Weight:    worst.Weight,
		Note:      "Keep the weight; build reps on the worst set.",
		Direction: Keep,
	}, true
}
