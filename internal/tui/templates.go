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

type templatesModel struct {
	engine *workout.Engine
	width  int
	height int

	templates []store.Template
	exercises []store.Exercise
	names     map[string]string
	cursor    int

	formActive bool
	form       *huh.Form
	editingID  string // empty when creating

	formName *string
	formIDs  *[]string
}

func newTemplatesModel(e *workout.Engine) templatesModel {
	name := ""
	ids := []string{}
	return templatesModel{
		engine:   e,
		names:    make(map[string]string),
		formName: &name,
		formIDs:  &ids,
	}
}

func (t *templatesModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type templatesDataMsg struct {
	templates []store.Template
	exercises []store.Exercise
}

func (t templatesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		templates, err := t.engine.ListTemplates(ctx)
		if err != nil {
			return statusMsg{text: workout.Message(err), isError: true}
		}
		exercises, _ := t.engine.ListExercises(ctx)
		return templatesDataMsg{templates: templates, exercises: exercises}
	}
}

func (t templatesModel) update(msg tea.Msg) (templatesModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case templatesDataMsg:
		t.templates = msg.templates
		t.exercises = msg.exercises
		t.names = make(map[string]string, len(msg.exercises))
		for _, ex := range msg.exercises {
			t.names[ex.ID] = ex.Name
		}
		if t.cursor >= len(t.templates) {
			t.cursor = max(0, len(t.templates)-1)
		}
		return t, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < len(t.templates)-1 {
				t.cursor++
			}
		case key.Matches(msg, keys.New):
			return t.showForm(nil)
		case key.Matches(msg, keys.Enter):
			if len(t.templates) > 0 {
				tpl := t.templates[t.cursor]
				return t.showForm(&tpl)
			}
		}
	}
	return t, nil
}

func (t templatesModel) showForm(tpl *store.Template) (templatesModel, tea.Cmd) {
	if len(t.exercises) < workout.MinExercises {
		return t, status(fmt.Sprintf("Add at least %d exercises first (press 2).", workout.MinExercises))
	}

	t.editingID = ""
	*t.formName = ""
	*t.formIDs = []string{}
	if tpl != nil {
		t.editingID = tpl.ID
		*t.formName = tpl.Name
		*t.formIDs = append([]string(nil), tpl.ExerciseIDs...)
	}

	options := make([]huh.Option[string], len(t.exercises))
	for i, ex := range t.exercises {
		options[i] = huh.NewOption(ex.Name, ex.ID)
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Template name").Value(t.formName).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name is required")
				}
				return nil
			}),
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
				Value(t.formIDs),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t templatesModel) updateForm(msg tea.Msg) (templatesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		name := strings.TrimSpace(*t.formName)
		ids := append([]string(nil), *t.formIDs...)
		id := t.editingID
		return t, func() tea.Msg {
			ctx := context.Background()
			if id == "" {
				if _, err := t.engine.CreateTemplate(ctx, name, ids); err != nil {
					return statusMsg{text: workout.Message(err), isError: true}
				}
				return statusMsg{text: "Template " + name + " created"}
			}
			if err := t.engine.UpdateTemplate(ctx, id, name, ids); err != nil {
				return statusMsg{text: workout.Message(err), isError: true}
			}
			return statusMsg{text: "Template " + name + " saved"}
		}
	}

	return t, cmd
}

func (t templatesModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		title := titleStyle.Render("New Template")
		if t.editingID != "" {
			title = titleStyle.Render("Edit Template")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", t.form.View()),
		)
	}

	title := titleStyle.Render("Templates")
	if len(t.templates) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No templates yet. Press n to create one.")))
	}

	var rows []string
	rows = append(rows, title, "")
	for i, tpl := range t.templates {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s", cursor, tpl.Name))+
			mutedStyle.Render(fmt.Sprintf("  updated %s", tpl.UpdatedAt.Local().Format("Jan 02"))))

		names := make([]string, 0, len(tpl.ExerciseIDs))
		for _, id := range tpl.ExerciseIDs {
			if n, ok := t.names[id]; ok {
				names = append(names, n)
			}
		}
		rows = append(rows, mutedStyle.Render("    "+truncate(strings.Join(names, ", "), w-10)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  enter: edit"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
