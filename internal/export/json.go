package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/liftlog/internal/workout"
)

type jsonExport struct {
	ExportedAt string    `json:"exported_at"`
	Count      int       `json:"count"`
	Sets       []jsonSet `json:"sets"`
}

type jsonSet struct {
	ID              string  `json:"id"`
	Session         string  `json:"session"`
	SessionID       string  `json:"session_id"`
	Exercise        string  `json:"exercise"`
	ExerciseID      string  `json:"exercise_id"`
	SetIndex        int     `json:"set_index"`
	CompletedAt     string  `json:"completed_at,omitempty"`
	Reps            int     `json:"reps"`
	Weight          float64 `json:"weight"`
	MissedReps      int     `json:"missed_reps"`
	IntentionalMiss *bool   `json:"intentional_miss,omitempty"`
	RestSeconds     *int    `json:"rest_seconds,omitempty"`
	Rest            string  `json:"rest,omitempty"`
}

func ToJSON(d *Data, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(d.Sets),
	}

	for _, s := range d.Sets {
		completed := ""
		if s.CompletedAt != nil {
			completed = s.CompletedAt.Local().Format(time.RFC3339)
		}
		rest := ""
		if s.RestSecondsBefore != nil {
			rest = workout.FormatRest(time.Duration(*s.RestSecondsBefore) * time.Second)
		}

		export.Sets = append(export.Sets, jsonSet{
			ID:              s.ID,
			Session:         d.sessionName(s.SessionID),
			SessionID:       s.SessionID,
			Exercise:        d.exerciseName(s.ExerciseID),
			ExerciseID:      s.ExerciseID,
			SetIndex:        s.SetIndex,
			CompletedAt:     completed,
			Reps:            s.RepsCompleted,
			Weight:          s.Weight,
			MissedReps:      s.MissedReps,
			IntentionalMiss: s.IntentionalMiss,
			RestSeconds:     s.RestSecondsBefore,
			Rest:            rest,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
