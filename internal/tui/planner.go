package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/liftlog/internal/store"
	"github.com/sadopc/liftlog/internal/workout"
)

type plannerStep int

const (
	stepMenu plannerStep = iota
	stepTemplates
	stepPreview
)

type menuItem struct {
	label string
	focus store.Focus
	mode  store.PlanMode
}

var plannerMenu = []menuItem{
	{label: "From a template", mode: store.ModeTemplate},
	{label: "Upper body focus", mode: store.ModeFocus, focus: store.FocusUpper},
	{label: "Lower body focus", mode: store.ModeFocus, focus: store.FocusLower},
	{label: "Suggested from history", mode: store.ModeSuggested},
	{label: "Quick pick", mode: store.ModeQuickPick},
}

// plannerModel builds a plan, lets the user adjust it and starts the session.
type plannerModel struct {
	engine *workout.Engine
	width  int
	height int

	step       plannerStep
	menuCursor int

	templates []store.Template
	tplCursor int
	exercises []store.Exercise

	plan          *store.Plan
	planExercises []store.Exercise
	cursor        int

	formActive bool
	form       *huh.Form
	quickName  *string
	quickIDs   *[]string
}

func newPlannerModel(e *workout.Engine) plannerModel {
	name := ""
	ids := []string{}
	return plannerModel{
		engine:    e,
		quickName: &name,
		quickIDs:  &ids,
	}
}

func (p *plannerModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type plannerDataMsg struct {
	templates []store.Template
	exercises []store.Exercise
}

type planReadyMsg struct {
	plan      *store.Plan
	exercises []store.Exercise
}

func (p plannerModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		templates, _ := p.engine.ListTemplates(ctx)
		exercises, _ := p.engine.ListExercises(ctx)
		return plannerDataMsg{templates: templates, exercises: exercises}
	}
}

// loadPlan re-reads a plan after it was built or edited.
func (p plannerModel) loadPlan(planID string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		plan, err := p.engine.GetPlan(ctx, planID)
		if err != nil {
			return statusMsg{text: workout.Message(err), isError: true}
		}
		exercises, err := p.engine.GetExercises(ctx, plan.PlannedExerciseIDs)
		if err != nil {
			return statusMsg{text: workout.Message(err), isError: true}
		}
		return planReadyMsg{plan: plan, exercises: exercises}
	}
}

func (p plannerModel) build(item menuItem) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var (
			plan *store.Plan
			err  error
		)
		switch item.mode {
		case store.ModeFocus:
			plan, err = p.engine.FromFocus(ctx, item.focus)
		case store.ModeSuggested:
			plan, err = p.engine.Suggested(ctx)
		}
		if err != nil {
			return statusMsg{text: workout.Message(err), isError: true}
		}
		return p.loadPlan(plan.ID)()
	}
}

func (p plannerModel) buildFromTemplate(templateID string) tea.Cmd {
	return func() tea.Msg {
		plan, err := p.engine.FromTemplate(context.Background(), templateID)
		if err != nil {
			return statusMsg{text: workout.Message(err), isError: true}
		}
		return p.loadPlan(plan.ID)()
	}
}

func (p plannerModel) update(msg tea.Msg) (plannerModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case plannerDataMsg:
		p.templates = msg.templates
		p.exercises = msg.exercises
		if p.tplCursor >= len(p.templates) {
			p.tplCursor = max(0, len(p.templates)-1)
		}
		return p, nil

	case planReadyMsg:
		p.plan = msg.plan
		p.planExercises = msg.exercises
		p.step = stepPreview
		if p.cursor >= len(p.planExercises) {
			p.cursor = max(0, len(p.planExercises)-1)
		}
		return p, nil

	case sessionStartedMsg:
		p.step = stepMenu
		p.plan = nil
		p.planExercises = nil
		return p, nil

	case tea.KeyMsg:
		switch p.step {
		case stepTemplates:
			return p.updateTemplatePicker(msg)
		case stepPreview:
			return p.updatePreview(msg)
		}
		return p.updateMenu(msg)
	}
	return p, nil
}

func (p plannerModel) updateMenu(msg tea.KeyMsg) (plannerModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.menuCursor > 0 {
			p.menuCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.menuCursor < len(plannerMenu)-1 {
			p.menuCursor++
		}
	case key.Matches(msg, keys.Enter):
		item := plannerMenu[p.menuCursor]
		switch item.mode {
		case store.ModeTemplate:
			if len(p.templates) == 0 {
				return p, status("No templates yet. Press 3 to create one.")
			}
			p.step = stepTemplates
			p.tplCursor = 0
			return p, nil
		case store.ModeQuickPick:
			return p.showQuickPickForm()
		}
		p.cursor = 0
		return p, p.build(item)
	}
	return p, nil
}

func (p plannerModel) updateTemplatePicker(msg tea.KeyMsg) (plannerModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.tplCursor > 0 {
			p.tplCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.tplCursor < len(p.templates)-1 {
			p.tplCursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(p.templates) > 0 {
			p.cursor = 0
			return p, p.buildFromTemplate(p.templates[p.tplCursor].ID)
		}
	case key.Matches(msg, keys.Back):
		p.step = stepMenu
	}
	return p, nil
}

func (p plannerModel) updatePreview(msg tea.KeyMsg) (plannerModel, tea.Cmd) {
	if p.plan == nil {
		p.step = stepMenu
		return p, nil
	}
	planID := p.plan.ID
	ctx := context.Background()

	edit := func(fn func() error) tea.Cmd {
		return func() tea.Msg {
			if err := fn(); err != nil {
				return statusMsg{text: workout.Message(err), isError: true}
			}
			return p.loadPlan(planID)()
		}
	}

	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.planExercises)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Defer):
		i := p.cursor
		return p, edit(func() error { return p.engine.DeferPlanExercise(ctx, planID, i) })
	case key.Matches(msg, keys.Remove):
		i := p.cursor
		return p, edit(func() error { return p.engine.RemovePlanExercise(ctx, planID, i) })
	case key.Matches(msg, keys.MoveUp):
		if p.cursor > 0 {
			i := p.cursor
			p.cursor--
			return p, edit(func() error { return p.engine.ReorderPlanExercise(ctx, planID, i, i-1) })
		}
	case key.Matches(msg, keys.MoveDown):
		if p.cursor < len(p.planExercises)-1 {
			i := p.cursor
			p.cursor++
			return p, edit(func() error { return p.engine.ReorderPlanExercise(ctx, planID, i, i+1) })
		}
	case key.Matches(msg, keys.Start), key.Matches(msg, keys.Enter):
		return p, func() tea.Msg {
			sess, err := p.engine.StartSession(ctx, planID)
			if err != nil {
				return statusMsg{text: workout.Message(err), isError: true}
			}
			return sessionStartedMsg{session: sess}
		}
	case key.Matches(msg, keys.Back):
		p.step = stepMenu
		p.plan = nil
	}
	return p, nil
}

func (p plannerModel) showQuickPickForm() (plannerModel, tea.Cmd) {
	if len(p.exercises) < workout.MinExercises {
		return p, status(fmt.Sprintf("Add at least %d exercises first (press 2).", workout.MinExercises))
	}
	*p.quickName = ""
	*p.quickIDs = []string{}

	options := make([]huh.Option[string], len(p.exercises))
	for i, ex := range p.exercises {
		options[i] = huh.NewOption(ex.Name, ex.ID)
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Workout name").Placeholder("Quick pick").Value(p.quickName),
			huh.NewMultiSelect[string]().
				Title("Exercises").
				Options(options...).
				Filterable(true).
				Validate(func(ids []string) error {
					if len(ids) < workout.MinExercises {
						return fmt.Errorf("pick at least %d", workout.MinExercises)
					}
					return nil
				}).
				Value(p.quickIDs),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p plannerModel) updateForm(msg tea.Msg) (plannerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		name := *p.quickName
		ids := append([]string(nil), *p.quickIDs...)
		p.cursor = 0
		return p, func() tea.Msg {
			plan, err := p.engine.QuickPick(context.Background(), name, ids)
			if err != nil {
				return statusMsg{text: workout.Message(err), isError: true}
			}
			return p.loadPlan(plan.ID)()
		}
	}

	return p, cmd
}

func (p plannerModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		title := titleStyle.Render("Quick Pick")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View()),
		)
	}

	switch p.step {
	case stepTemplates:
		return p.renderTemplatePicker(w)
	case stepPreview:
		return p.renderPreview(w)
	}
	return p.renderMenu(w)
}

func (p plannerModel) renderMenu(w int) string {
	var rows []string
	rows = append(rows, titleStyle.Render("Start a Workout"), "")
	for i, item := range plannerMenu {
		cursor := "  "
		style := normalItemStyle
		if i == p.menuCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+item.label))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %d exercises in your library", len(p.exercises))))
	rows = append(rows, mutedStyle.Render("  enter: build plan"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p plannerModel) renderTemplatePicker(w int) string {
	var rows []string
	rows = append(rows, titleStyle.Render("Select Template"), "")
	for i, t := range p.templates {
		cursor := "  "
		style := normalItemStyle
		if i == p.tplCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-24s", cursor, t.Name))+
			mutedStyle.Render(fmt.Sprintf(" %d exercises", len(t.ExerciseIDs))))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: select  esc: back"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p plannerModel) renderPreview(w int) string {
	if p.plan == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("No plan"))
	}
	title := bigTitleStyle.Render(p.plan.Name)
	mode := mutedStyle.Render(" " + string(p.plan.Mode))

	var rows []string
	rows = append(rows, title+mode, "")
	for i, ex := range p.planExercises {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		line := style.Render(fmt.Sprintf("%s%d. %s", cursor, i+1, ex.Name))
		if len(ex.PrimaryMuscles) > 0 {
			line += mutedStyle.Render("  " + strings.Join(ex.PrimaryMuscles, ", "))
		}
		rows = append(rows, line)
	}
	if len(p.planExercises) < workout.MinExercises {
		rows = append(rows, "", warningStyle.Render(
			fmt.Sprintf("  Workouts need at least %d exercises.", workout.MinExercises)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  s: start  d: defer  del: remove  K/J: move  esc: back"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
