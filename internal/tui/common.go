package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/liftlog/internal/store"
	"github.com/sadopc/liftlog/internal/workout"
)

// viewState represents the currently active view.
type viewState int

const (
	viewWorkout viewState = iota
	viewExercises
	viewTemplates
	viewHistory
	viewSettings
)

var viewNames = []string{"Workout", "Exercises", "Templates", "History", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// storeChangedMsg is delivered after any committed write.
type storeChangedMsg struct{}

type sessionStartedMsg struct {
	session *store.Session
}

type sessionEndedMsg struct {
	summary *workout.Summary
}

type setLoggedMsg struct {
	setID string
	rest  time.Duration
}

type restStartMsg struct {
	rest time.Duration
}

type exportDoneMsg struct {
	path string
}

func status(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatWeight(w float64, unit string) string {
	return strconv.FormatFloat(w, 'f', -1, 64) + " " + unit
}

// formatSet renders a set as "8 × 60 kg", noting missed reps.
func formatSet(s store.SessionSet, unit string) string {
	out := fmt.Sprintf("%d × %s", s.RepsCompleted, formatWeight(s.Weight, unit))
	if s.MissedReps > 0 {
		note := "missed"
		if s.IntentionalMiss != nil && *s.IntentionalMiss {
			note = "held back"
		}
		out += fmt.Sprintf(" (%d %s)", s.MissedReps, note)
	}
	return out
}

var errNotNumber = errors.New("enter a number")

// validNumber accepts an empty field or a non-negative number.
func validNumber(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return errNotNumber
	}
	return nil
}

// parseNumber reads a form field; blanks and junk read as zero.
func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// splitList parses a comma-separated form field.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
