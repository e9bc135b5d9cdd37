package workout

import (
	"slices"

	"github.com/sadopc/liftlog/internal/store"
)

// Queue is the derived view of a session's exercises. Current is the first
// pending row in order, UpNext every pending row after it. A queue without
// pending rows is Finished; the session itself stays active until it is
// ended explicitly.
type Queue struct {
	Rows     []store.SessionExercise
	Current  *store.SessionExercise
	UpNext   []store.SessionExercise
	Finished bool
}

// BuildQueue derives the queue view from rows ordered by OrderIndex.
func BuildQueue(rows []store.SessionExercise) Queue {
	q := Queue{Rows: rows}
	for i := range rows {
		if rows[i].Status != store.StatusPending {
			continue
		}
		if q.Current == nil {
			q.Current = &rows[i]
			continue
		}
		q.UpNext = append(q.UpNext, rows[i])
	}
	q.Finished = q.Current == nil
	return q
}

// Done counts rows that are no longer pending.
func (q Queue) Done() int {
	n := 0
	for _, r := range q.Rows {
		if r.Status != store.StatusPending {
			n++
		}
	}
	return n
}

// findRow returns the position of exerciseID in rows, preferring a pending
// row when the exercise appears more than once. It returns -1 when absent.
func findRow(rows []store.SessionExercise, exerciseID string) int {
	first := -1
	for i, r := range rows {
		if r.ExerciseID != exerciseID {
			continue
		}
		if r.Status == store.StatusPending {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	return first
}

// deferRow moves exerciseID to the end of rows and bumps its DeferredCount.
// It returns nil when the exercise is not in rows.
func deferRow(rows []store.SessionExercise, exerciseID string) []store.SessionExercise {
	i := findRow(rows, exerciseID)
	if i < 0 {
		return nil
	}
	moved := rows[i]
	moved.DeferredCount++
	out := slices.Delete(slices.Clone(rows), i, i+1)
	return append(out, moved)
}

// moveRow moves exerciseID to toIndex, clamped to the bounds of rows. Only a
// pending row may move. It returns nil when the exercise is not in rows.
func moveRow(rows []store.SessionExercise, exerciseID string, toIndex int) ([]store.SessionExercise, error) {
	return moveAt(rows, findRow(rows, exerciseID), toIndex)
}

// moveAt moves the row at position i. An out-of-range i returns nil.
func moveAt(rows []store.SessionExercise, i, toIndex int) ([]store.SessionExercise, error) {
	if i < 0 || i >= len(rows) {
		return nil, nil
	}
	if rows[i].Status != store.StatusPending {
		return nil, newError(ErrValidation, "Only exercises that are still pending can be moved.")
	}
	moved := rows[i]
	out := slices.Delete(slices.Clone(rows), i, i+1)
	toIndex = min(max(toIndex, 0), len(out))
	return slices.Insert(out, toIndex, moved), nil
}

// Plan list edits. Each returns nil when the index is out of range, which
// leaves the plan unchanged.

func moveID(ids []string, from, to int) []string {
	if from < 0 || from >= len(ids) {
		return nil
	}
	moved := ids[from]
	out := slices.Delete(slices.Clone(ids), from, from+1)
	to = min(max(to, 0), len(out))
	return slices.Insert(out, to, moved)
}

func deferID(ids []string, index int) []string {
	return moveID(ids, index, len(ids))
}

func removeID(ids []string, index int) []string {
	if index < 0 || index >= len(ids) {
		return nil
	}
	return slices.Delete(slices.Clone(ids), index, index+1)
}
