package workout

import (
	"fmt"
	"time"

	"github.com/sadopc/liftlog/internal/store"
)

// SuggestRest returns how long to rest before the next set.
func SuggestRest(ex store.Exercise, hadMissedReps bool) time.Duration {
	if hadMissedReps {
		return 180 * time.Second
	}
	switch ex.Type {
	case store.TypeCompound:
		return 150 * time.Second
	case store.TypeIsolation:
		return 90 * time.Second
	default:
		return 120 * time.Second
	}
}

// FormatRest renders d as m:ss, truncating to whole seconds. Negative
// durations render as 0:00.
func FormatRest(d time.Duration) string {
	s := max(0, int(d/time.Second))
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
