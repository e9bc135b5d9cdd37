package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/liftlog/internal/store"
	"github.com/sadopc/liftlog/internal/workout"
)

type exercisesModel struct {
	engine *workout.Engine
	width  int
	height int

	exercises []store.Exercise
	total     int // library size, ignoring the search
	query     string
	cursor    int
	last      *store.LastPerformance // for the selected exercise
	unit      string

	formActive bool
	form       *huh.Form
	formMode   string // "search", "new", "edit"
	editingID  string
	base       store.ExerciseInput // fields the form does not edit

	// Form field pointers (survive value copies)
	formName      *string
	formAliases   *string
	formExType    *store.ExerciseType
	formCategory  *string
	formPrimary   *string
	formSecondary *string
	formEquipment *string
	formQuery     *string
}

func newExercisesModel(e *workout.Engine) exercisesModel {
	name, aliases, cat, primary, secondary, equipment, query := "", "", "", "", "", "", ""
	typ := store.TypeCompound
	return exercisesModel{
		engine:        e,
		unit:          "kg",
		formName:      &name,
		formAliases:   &aliases,
		formExType:    &typ,
		formCategory:  &cat,
		formPrimary:   &primary,
		formSecondary: &secondary,
		formEquipment: &equipment,
		formQuery:     &query,
	}
}

func (x *exercisesModel) setSize(w, h int) {
	x.width = w
	x.height = h
}

type exercisesDataMsg struct {
	exercises []store.Exercise
	total     int
	unit      string
}

type lastPerformanceMsg struct {
	exerciseID string
	last       *store.LastPerformance
}

func (x exercisesModel) refresh() tea.Cmd {
	query := x.query
	return func() tea.Msg {
		ctx := context.Background()
		var (
			list []store.Exercise
			err  error
		)
		if query != "" {
			list, err = x.engine.SearchExercises(ctx, query)
		} else {
			list, err = x.engine.ListExercises(ctx)
		}
		if err != nil {
			return statusMsg{text: workout.Message(err), isError: true}
		}
		total, err := x.engine.CountExercises(ctx)
		if err != nil {
			return statusMsg{text: workout.Message(err), isError: true}
		}
		return exercisesDataMsg{exercises: list, total: total, unit: x.engine.WeightUnit(ctx)}
	}
}

func (x exercisesModel) loadLast() tea.Cmd {
	if x.cursor >= len(x.exercises) {
		return nil
	}
	id := x.exercises[x.cursor].ID
	return func() tea.Msg {
		last, _ := x.engine.LastPerformance(context.Background(), id)
		return lastPerformanceMsg{exerciseID: id, last: last}
	}
}

func (x exercisesModel) update(msg tea.Msg) (exercisesModel, tea.Cmd) {
	if x.formActive && x.form != nil {
		return x.updateForm(msg)
	}

	switch msg := msg.(type) {
	case exercisesDataMsg:
		x.exercises = msg.exercises
		x.total = msg.total
		x.unit = msg.unit
		if x.cursor >= len(x.exercises) {
			x.cursor = max(0, len(x.exercises)-1)
		}
		return x, x.loadLast()

	case lastPerformanceMsg:
		if x.cursor < len(x.exercises) && x.exercises[x.cursor].ID == msg.exerciseID {
			x.last = msg.last
		}
		return x, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if x.cursor > 0 {
				x.cursor--
				x.last = nil
				return x, x.loadLast()
			}
		case key.Matches(msg, keys.Down):
			if x.cursor < len(x.exercises)-1 {
				x.cursor++
				x.last = nil
				return x, x.loadLast()
			}
		case key.Matches(msg, keys.New):
			return x.showExerciseForm(nil)
		case key.Matches(msg, keys.Enter):
			if len(x.exercises) > 0 {
				ex := x.exercises[x.cursor]
				return x.showExerciseForm(&ex)
			}
		case key.Matches(msg, keys.Search):
			return x.showSearchForm()
		case key.Matches(msg, keys.Back):
			if x.query != "" {
				x.query = ""
				x.cursor = 0
				return x, x.refresh()
			}
		}
	}
	return x, nil
}

func (x exercisesModel) showSearchForm() (exercisesModel, tea.Cmd) {
	*x.formQuery = x.query
	x.formMode = "search"
	x.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Search exercises").Placeholder("name or alias").Value(x.formQuery),
		),
	).WithShowHelp(true)

	x.formActive = true
	return x, x.form.Init()
}

func (x exercisesModel) showExerciseForm(ex *store.Exercise) (exercisesModel, tea.Cmd) {
	x.formMode = "new"
	x.editingID = ""
	x.base = store.ExerciseInput{IsCustom: true}
	*x.formName = ""
	*x.formAliases = ""
	*x.formExType = store.TypeCompound
	*x.formCategory = ""
	*x.formPrimary = ""
	*x.formSecondary = ""
	*x.formEquipment = ""
	if ex != nil {
		x.formMode = "edit"
		x.editingID = ex.ID
		x.base = store.ExerciseInput{
			Instructions: ex.Instructions,
			ImageURLs:    ex.ImageURLs,
			VideoURLs:    ex.VideoURLs,
			IsCustom:     ex.IsCustom,
		}
		*x.formName = ex.Name
		*x.formAliases = strings.Join(ex.Aliases, ", ")
		*x.formExType = ex.Type
		*x.formCategory = ex.Category
		*x.formPrimary = strings.Join(ex.PrimaryMuscles, ", ")
		*x.formSecondary = strings.Join(ex.SecondaryMuscles, ", ")
		*x.formEquipment = strings.Join(ex.Equipment, ", ")
	}

	typeOptions := make([]huh.Option[store.ExerciseType], len(store.ExerciseTypes))
	for i, t := range store.ExerciseTypes {
		typeOptions[i] = huh.NewOption(string(t), t)
	}

	x.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(x.formName).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name is required")
				}
				return nil
			}),
			huh.NewInput().Title("Aliases (comma-separated)").Value(x.formAliases),
			huh.NewSelect[store.ExerciseType]().Title("Type").Options(typeOptions...).Value(x.formExType),
			huh.NewInput().Title("Category").Value(x.formCategory),
		),
		huh.NewGroup(
			huh.NewInput().Title("Primary muscles (comma-separated)").Placeholder("chest, triceps").Value(x.formPrimary),
			huh.NewInput().Title("Secondary muscles (comma-separated)").Value(x.formSecondary),
			huh.NewInput().Title("Equipment (comma-separated)").Value(x.formEquipment),
		),
	).WithShowHelp(true).WithShowErrors(true)

	x.formActive = true
	return x, x.form.Init()
}

func (x exercisesModel) input() store.ExerciseInput {
	in := x.base
	in.Name = strings.TrimSpace(*x.formName)
	in.Aliases = splitList(*x.formAliases)
	in.Type = *x.formExType
	in.Category = strings.TrimSpace(*x.formCategory)
	in.PrimaryMuscles = splitList(*x.formPrimary)
	in.SecondaryMuscles = splitList(*x.formSecondary)
	in.Equipment = splitList(*x.formEquipment)
	return in
}

func (x exercisesModel) updateForm(msg tea.Msg) (exercisesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			x.formActive = false
			x.form = nil
			return x, nil
		}
	}

	form, cmd := x.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		x.form = f
	}

	if x.form.State == huh.StateCompleted {
		x.formActive = false
		switch x.formMode {
		case "search":
			x.query = strings.TrimSpace(*x.formQuery)
			x.cursor = 0
			return x, x.refresh()
		case "new":
			in := x.input()
			return x, func() tea.Msg {
				ex, err := x.engine.CreateExercise(context.Background(), in)
				if err != nil {
					return statusMsg{text: workout.Message(err), isError: true}
				}
				return statusMsg{text: "Added " + ex.Name}
			}
		case "edit":
			in, id := x.input(), x.editingID
			return x, func() tea.Msg {
				if err := x.engine.UpdateExercise(context.Background(), id, in); err != nil {
					return statusMsg{text: workout.Message(err), isError: true}
				}
				return statusMsg{text: "Saved " + in.Name}
			}
		}
	}

	return x, cmd
}

func (x exercisesModel) view() string {
	w := x.width - 4

	if x.formActive && x.form != nil {
		title := titleStyle.Render("New Exercise")
		switch x.formMode {
		case "edit":
			title = titleStyle.Render("Edit Exercise")
		case "search":
			title = titleStyle.Render("Search")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", x.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Exercises") + mutedStyle.Render(fmt.Sprintf("  %d in library", x.total))
	if x.query != "" {
		title += mutedStyle.Render(fmt.Sprintf("  %d matching %q", len(x.exercises), x.query))
	}

	if len(x.exercises) == 0 {
		hint := "No exercises yet. Press n to add one."
		if x.query != "" {
			hint = "Nothing matches. Press esc to clear the search."
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render(hint)))
	}

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-28s %-10s %s", "Name", "Type", "Primary")))

	visible := max(1, x.height-12)
	start := 0
	if x.cursor >= visible {
		start = x.cursor - visible + 1
	}
	end := min(len(x.exercises), start+visible)

	for i := start; i < end; i++ {
		ex := x.exercises[i]
		cursor := "  "
		style := normalItemStyle
		if i == x.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-28s %-10s %s",
			cursor, truncate(ex.Name, 28), ex.Type, strings.Join(ex.PrimaryMuscles, ", "))))
	}

	rows = append(rows, "", x.renderDetail())
	rows = append(rows, "", mutedStyle.Render("  n: new  enter: edit  /: search  esc: clear search"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (x exercisesModel) renderDetail() string {
	if x.cursor >= len(x.exercises) {
		return ""
	}
	ex := x.exercises[x.cursor]
	var parts []string
	if len(ex.Aliases) > 0 {
		parts = append(parts, "aka "+strings.Join(ex.Aliases, ", "))
	}
	if len(ex.Equipment) > 0 {
		parts = append(parts, strings.Join(ex.Equipment, ", "))
	}
	if x.last != nil {
		parts = append(parts, fmt.Sprintf("last %d × %s on %s",
			x.last.Reps, formatWeight(x.last.Weight, x.unit), x.last.CompletedAt.Local().Format(time.DateOnly)))
	} else {
		parts = append(parts, "no history")
	}
	return highlightStyle.Render("  " + strings.Join(parts, "  ·  "))
}
