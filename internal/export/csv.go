package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/liftlog/internal/workout"
	"go.uber.org/multierr"
)

var csvHeader = []string{
	"Set ID", "Session", "Session ID", "Exercise", "Exercise ID", "Set",
	"Completed", "Reps", "Weight", "Missed", "Intentional", "Rest (s)", "Rest",
}

func ToCSV(d *Data, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, s := range d.Sets {
		completed := ""
		if s.CompletedAt != nil {
			completed = s.CompletedAt.Local().Format(time.RFC3339)
		}
		intentional := ""
		if s.IntentionalMiss != nil {
			intentional = strconv.FormatBool(*s.IntentionalMiss)
		}
		restSecs, rest := "", ""
		if s.RestSecondsBefore != nil {
			restSecs = strconv.Itoa(*s.RestSecondsBefore)
			rest = workout.FormatRest(time.Duration(*s.RestSecondsBefore) * time.Second)
		}

		row := []string{
			s.ID,
			d.sessionName(s.SessionID),
			s.SessionID,
			d.exerciseName(s.ExerciseID),
			s.ExerciseID,
			strconv.Itoa(s.SetIndex + 1),
			completed,
			strconv.Itoa(s.RepsCompleted),
			strconv.FormatFloat(s.Weight, 'f', -1, 64),
			strconv.Itoa(s.MissedReps),
			intentional,
			restSecs,
			rest,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
