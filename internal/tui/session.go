package tui

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/liftlog/internal/store"
	"github.com/sadopc/liftlog/internal/workout"
)

// sessionModel runs the active workout: the current exercise, the queue, set
// logging and the rest countdown. After the session ends it shows the summary
// until dismissed.
type sessionModel struct {
	engine *workout.Engine
	timer  restTimer
	width  int
	height int

	session    *store.Session
	queue      workout.Queue
	exercises  map[string]store.Exercise
	suggestion workout.StartSuggestion
	sets       []store.SessionSet // current exercise, this session
	unit       string
	cursor     int // position in UpNext

	summary *workout.Summary

	formActive  bool
	form        *huh.Form
	formReps    *string
	formWeight  *string
	formMissed  *string
	intentional *bool
}

func newSessionModel(e *workout.Engine) sessionModel {
	reps, weight, missed := "", "", ""
	intentional := false
	return sessionModel{
		engine:      e,
		timer:       newRestTimer(),
		exercises:   make(map[string]store.Exercise),
		unit:        "kg",
		formReps:    &reps,
		formWeight:  &weight,
		formMissed:  &missed,
		intentional: &intentional,
	}
}

func (m *sessionModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

// active reports whether the workout tab should show this model instead of
// the planner.
func (m sessionModel) active() bool {
	return m.session != nil || m.summary != nil
}

func (m sessionModel) current() (store.Exercise, bool) {
	if m.queue.Current == nil {
		return store.Exercise{}, false
	}
	ex, ok := m.exercises[m.queue.Current.ExerciseID]
	return ex, ok
}

type sessionDataMsg struct {
	session    *store.Session
	queue      workout.Queue
	exercises  []store.Exercise
	suggestion workout.StartSuggestion
	sets       []store.SessionSet
	unit       string
}

func (m sessionModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		msg := sessionDataMsg{unit: m.engine.WeightUnit(ctx)}

		sess, err := m.engine.ActiveSession(ctx)
		if err != nil {
			return statusMsg{text: workout.Message(err), isError: true}
		}
		if sess == nil {
			return msg
		}
		msg.session = sess

		q, err := m.engine.Queue(ctx, sess.ID)
		if err != nil {
			return statusMsg{text: workout.Message(err), isError: true}
		}
		msg.queue = q

		ids := make([]string, 0, len(q.Rows))
		for _, r := range q.Rows {
			ids = append(ids, r.ExerciseID)
		}
		msg.exercises, _ = m.engine.GetExercises(ctx, ids)

		if q.Current != nil {
			msg.suggestion, _ = m.engine.StartSuggestion(ctx, q.Current.ExerciseID)
			msg.sets, _ = m.engine.ExerciseSets(ctx, sess.ID, q.Current.ExerciseID)
		}
		return msg
	}
}

func (m sessionModel) update(msg tea.Msg) (sessionModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case sessionDataMsg:
		m.unit = msg.unit
		m.session = msg.session
		m.queue = msg.queue
		m.suggestion = msg.suggestion
		m.sets = msg.sets
		for _, ex := range msg.exercises {
			m.exercises[ex.ID] = ex
		}
		if m.cursor >= len(m.queue.UpNext) {
			m.cursor = max(0, len(m.queue.UpNext)-1)
		}
		return m, nil

	case sessionStartedMsg:
		m.summary = nil
		m.cursor = 0
		m.timer.stop()
		return m, m.refresh()

	case sessionEndedMsg:
		m.session = nil
		m.summary = msg.summary
		m.timer.stop()
		return m, nil

	case setLoggedMsg:
		m.timer.start(msg.rest)
		return m, m.refresh()

	case restStartMsg:
		m.timer.start(msg.rest)
		return m, nil

	case tickMsg:
		if m.timer.tick() {
			return m, status("Rest is up. Time for the next set.")
		}
		return m, nil

	case tea.KeyMsg:
		if m.summary != nil {
			if key.Matches(msg, keys.Enter) || key.Matches(msg, keys.Back) {
				m.summary = nil
				return m, m.refresh()
			}
			return m, nil
		}
		if m.session == nil {
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m sessionModel) updateKeys(msg tea.KeyMsg) (sessionModel, tea.Cmd) {
	sid := m.session.ID
	ctx := context.Background()

	act := func(fn func() error) tea.Cmd {
		return func() tea.Msg {
			if err := fn(); err != nil {
				return statusMsg{text: workout.Message(err), isError: true}
			}
			return m.refresh()()
		}
	}

	switch {
	case key.Matches(msg, keys.Finish):
		m.timer.stop()
		return m, func() tea.Msg {
			if err := m.engine.EndSession(ctx, sid); err != nil {
				return statusMsg{text: workout.Message(err), isError: true}
			}
			sum, err := m.engine.SessionSummary(ctx, sid)
			if err != nil {
				return statusMsg{text: workout.Message(err), isError: true}
			}
			return sessionEndedMsg{summary: sum}
		}

	case key.Matches(msg, keys.Rest):
		if m.timer.running() {
			m.timer.toggle()
			return m, nil
		}
		if cur := m.queue.Current; cur != nil {
			eid := cur.ExerciseID
			return m, func() tea.Msg {
				d, err := m.engine.RestSuggestion(ctx, sid, eid)
				if err != nil {
					return statusMsg{text: workout.Message(err), isError: true}
				}
				return restStartMsg{rest: d}
			}
		}

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.queue.UpNext)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.MoveUp), key.Matches(msg, keys.MoveDown):
		if len(m.queue.UpNext) == 0 {
			return m, nil
		}
		row := m.queue.UpNext[m.cursor]
		pos := slices.IndexFunc(m.queue.Rows, func(r store.SessionExercise) bool { return r.ID == row.ID })
		to := pos + 1
		if key.Matches(msg, keys.MoveUp) {
			to = pos - 1
			m.cursor = max(0, m.cursor-1)
		} else {
			m.cursor = min(len(m.queue.UpNext)-1, m.cursor+1)
		}
		return m, act(func() error { return m.engine.MoveQueueRow(ctx, sid, row.ID, to) })
	}

	cur := m.queue.Current
	if cur == nil {
		return m, nil
	}
	eid := cur.ExerciseID

	switch {
	case key.Matches(msg, keys.LogSet), key.Matches(msg, keys.Enter):
		return m.showLogForm()
	case key.Matches(msg, keys.Complete):
		m.timer.stop()
		return m, act(func() error { return m.engine.CompleteExercise(ctx, sid, eid) })
	case key.Matches(msg, keys.Skip):
		m.timer.stop()
		return m, act(func() error { return m.engine.SkipExercise(ctx, sid, eid) })
	case key.Matches(msg, keys.Defer):
		return m, act(func() error { return m.engine.DeferExercise(ctx, sid, eid) })
	case key.Matches(msg, keys.Intentional):
		last, ok := m.lastMissedSet()
		if !ok {
			return m, status("No missed reps on the last set.")
		}
		next := last.IntentionalMiss == nil || !*last.IntentionalMiss
		return m, act(func() error { return m.engine.SetIntentionalMiss(ctx, last.ID, next) })
	}
	return m, nil
}

// lastMissedSet returns the latest set of the current exercise when it had
// missed reps.
func (m sessionModel) lastMissedSet() (store.SessionSet, bool) {
	if len(m.sets) == 0 {
		return store.SessionSet{}, false
	}
	last := m.sets[len(m.sets)-1]
	return last, last.MissedReps > 0
}

func (m sessionModel) showLogForm() (sessionModel, tea.Cmd) {
	ex, _ := m.current()

	reps := m.suggestion.RepsTarget
	weight := m.suggestion.Weight
	if n := len(m.sets); n > 0 {
		weight = m.sets[n-1].Weight
	}
	*m.formReps = strconv.Itoa(reps)
	*m.formWeight = strconv.FormatFloat(weight, 'f', -1, 64)
	*m.formMissed = "0"
	*m.intentional = false

	missed := m.formMissed
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Reps completed").Value(m.formReps).Validate(validNumber),
			huh.NewInput().Title("Weight ("+m.unit+")").Value(m.formWeight).Validate(validNumber),
			huh.NewInput().Title("Missed reps").Value(m.formMissed).Validate(validNumber),
		).Title(ex.Name),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Did you stop short on purpose?").
				Affirmative("Yes").
				Negative("No").
				Value(m.intentional),
		).WithHideFunc(func() bool { return parseNumber(*missed) <= 0 }),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m sessionModel) updateForm(msg tea.Msg) (sessionModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		if m.session == nil || m.queue.Current == nil {
			return m, nil
		}
		in := workout.LogSetInput{
			SessionID:         m.session.ID,
			ExerciseID:        m.queue.Current.ExerciseID,
			RepsCompleted:     parseNumber(*m.formReps),
			Weight:            parseNumber(*m.formWeight),
			MissedReps:        parseNumber(*m.formMissed),
			RestSecondsBefore: m.timer.restSeconds(),
		}
		intentional := *m.intentional
		m.timer.stop()
		return m, m.logSet(in, intentional)
	}

	return m, cmd
}

func (m sessionModel) logSet(in workout.LogSetInput, intentional bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		id, err := m.engine.LogSet(ctx, in)
		if err != nil {
			return statusMsg{text: workout.Message(err), isError: true}
		}
		if in.MissedReps > 0 {
			if err := m.engine.SetIntentionalMiss(ctx, id, intentional); err != nil {
				return statusMsg{text: workout.Message(err), isError: true}
			}
		}
		rest, err := m.engine.RestSuggestion(ctx, in.SessionID, in.ExerciseID)
		if err != nil {
			return statusMsg{text: workout.Message(err), isError: true}
		}
		return setLoggedMsg{setID: id, rest: rest}
	}
}

func (m sessionModel) view() string {
	if m.width < 20 {
		return "Terminal too small"
	}
	w := m.width - 4

	if m.summary != nil {
		return m.renderSummary(w)
	}
	if m.session == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("No workout in progress"))
	}
	if m.formActive && m.form != nil {
		title := titleStyle.Render("Log Set")
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderCurrent(w),
		m.renderRest(w),
		m.renderQueue(w),
	)
}

func (m sessionModel) renderCurrent(w int) string {
	header := bigTitleStyle.Render(m.session.Name) + mutedStyle.Render(
		fmt.Sprintf("  %d/%d done  started %s", m.queue.Done(), len(m.queue.Rows),
			m.session.StartedAt.Local().Format("15:04")))

	ex, ok := m.current()
	if !ok {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header, "",
			successStyle.Render("All exercises done."),
			mutedStyle.Render("Press f to finish the workout."),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	rows := []string{header, "", titleStyle.Render(ex.Name)}
	sug := fmt.Sprintf("Suggested: %d reps", m.suggestion.RepsTarget)
	if m.suggestion.Weight > 0 {
		sug += " @ " + formatWeight(m.suggestion.Weight, m.unit)
	}
	rows = append(rows, highlightStyle.Render(sug))
	if m.suggestion.Note != "" {
		rows = append(rows, mutedStyle.Render(m.suggestion.Note))
	}
	if m.queue.Current.DeferredCount > 0 {
		rows = append(rows, warningStyle.Render(fmt.Sprintf("Deferred %d×", m.queue.Current.DeferredCount)))
	}

	rows = append(rows, "")
	if len(m.sets) == 0 {
		rows = append(rows, mutedStyle.Render("No sets yet. Press n to log one."))
	}
	for _, s := range m.sets {
		line := fmt.Sprintf("  Set %d  %s", s.SetIndex+1, formatSet(s, m.unit))
		if s.RestSecondsBefore != nil {
			line += mutedStyle.Render("  rest " + workout.FormatRest(time.Duration(*s.RestSecondsBefore)*time.Second))
		}
		rows = append(rows, line)
	}
	if last, ok := m.lastMissedSet(); ok && last.IntentionalMiss == nil {
		rows = append(rows, warningStyle.Render("  Missed reps on purpose? Press i."))
	}

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m sessionModel) renderRest(w int) string {
	if !m.timer.running() {
		return panelStyle.Width(w).Render(mutedStyle.Render("Rest timer idle. Press space to start."))
	}
	remaining := m.timer.remaining()
	var line string
	switch {
	case m.timer.paused():
		line = restPausedStyle.Render("⏸  " + workout.FormatRest(remaining))
	case remaining <= 0:
		line = restOverStyle.Render("Rest over  +" + workout.FormatRest(-remaining))
	default:
		line = restStyle.Render("Rest  " + workout.FormatRest(remaining))
	}
	elapsed := mutedStyle.Render("  elapsed " + formatDuration(m.timer.currentElapsed()))
	return panelStyle.Width(w).Render(line + elapsed)
}

func (m sessionModel) renderQueue(w int) string {
	rows := []string{titleStyle.Render("Up Next")}
	if len(m.queue.UpNext) == 0 {
		rows = append(rows, mutedStyle.Render("  Nothing queued"))
	}
	for i, r := range m.queue.UpNext {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		name := m.exercises[r.ExerciseID].Name
		if name == "" {
			name = "Unknown exercise"
		}
		rows = append(rows, style.Render(cursor+truncate(name, w-8)))
	}

	var done []string
	for _, r := range m.queue.Rows {
		if r.Status == store.StatusPending {
			continue
		}
		done = append(done, statusStyle(r.Status).Render(statusMark(r.Status)+" "+m.exercises[r.ExerciseID].Name))
	}
	if len(done) > 0 {
		rows = append(rows, "", titleStyle.Render("Done"))
		rows = append(rows, done...)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: log set  c: complete  x: skip  d: defer  K/J: move  i: intentional  f: finish"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m sessionModel) renderSummary(w int) string {
	s := m.summary
	duration := ""
	if s.Session.EndedAt != nil {
		duration = formatDuration(s.Session.EndedAt.Sub(s.Session.StartedAt))
	}
	rows := []string{
		bigTitleStyle.Render(s.Session.Name + " complete"),
		mutedStyle.Render(fmt.Sprintf("%d sets  volume %s  duration %s",
			s.TotalSets, formatWeight(s.Volume, m.unit), duration)),
		"",
	}
	for _, es := range s.Exercises {
		rows = append(rows, statusStyle(es.Status).Render(statusMark(es.Status)+" "+es.Exercise.Name))
		for _, set := range es.Sets {
			rows = append(rows, "    "+formatSet(set, m.unit))
		}
		if es.NextTime != nil {
			rows = append(rows, highlightStyle.Render(fmt.Sprintf("    Next time: %s. %s",
				formatWeight(es.NextTime.Weight, m.unit), es.NextTime.Note)))
		}
	}
	rows = append(rows, "", mutedStyle.Render("  enter: done"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
