// Package export writes logged sets to CSV or JSON files.
package export

import (
	"context"
	"fmt"

	"github.com/sadopc/liftlog/internal/store"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Source is where exported data is read from. *store.Store implements it.
type Source interface {
	ListSets(ctx context.Context, f store.SetFilter) ([]store.SessionSet, error)
	ListExercises(ctx context.Context) ([]store.Exercise, error)
	ListSessions(ctx context.Context, limit int) ([]store.Session, error)
}

// Data is a set listing plus the records needed to label each set.
type Data struct {
	Sets      []store.SessionSet
	Exercises map[string]*store.Exercise
	Sessions  map[string]*store.Session
}

// Collect reads every set matching f along with all exercises and sessions.
func Collect(ctx context.Context, src Source, f store.SetFilter) (*Data, error) {
	sets, err := src.ListSets(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	exercises, err := src.ListExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	sessions, err := src.ListSessions(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	d := &Data{
		Sets:      sets,
		Exercises: make(map[string]*store.Exercise, len(exercises)),
		Sessions:  make(map[string]*store.Session, len(sessions)),
	}
	for i := range exercises {
		d.Exercises[exercises[i].ID] = &exercises[i]
	}
	for i := range sessions {
		d.Sessions[sessions[i].ID] = &sessions[i]
	}
	return d, nil
}

// Write dispatches to ToCSV or ToJSON.
func Write(format string, d *Data, path string) error {
	switch format {
	case FormatCSV:
		return ToCSV(d, path)
	case FormatJSON:
		return ToJSON(d, path)
	}
	return fmt.Errorf("unknown export format %q", format)
}

func (d *Data) exerciseName(id string) string {
	if e, ok := d.Exercises[id]; ok {
		return e.Name
	}
	return "Unknown"
}

func (d *Data) sessionName(id string) string {
	if s, ok := d.Sessions[id]; ok {
		return s.Name
	}
	return "Unknown"
}
