package tui

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/sadopc/liftlog/internal/export"
	"github.com/sadopc/liftlog/internal/store"
	"github.com/sadopc/liftlog/internal/workout"
)

var exportFormats = []string{export.FormatCSV, export.FormatJSON}

// Options configures an App.
type Options struct {
	// Changes signals committed writes; views re-query on each signal.
	Changes   <-chan struct{}
	ExportDir string
	Logger    logrus.FieldLogger
}

// App is the root Bubble Tea model.
type App struct {
	engine    *workout.Engine
	changes   <-chan struct{}
	exportDir string
	log       logrus.FieldLogger
	now       func() time.Time

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	planner   plannerModel
	session   sessionModel
	exercises exercisesModel
	templates templatesModel
	history   historyModel
	settings  settingsModel

	help        help.Model
	status      string
	statusError bool
}

func NewApp(e *workout.Engine, opts Options) App {
	h := help.New()
	h.ShowAll = false

	log := opts.Logger
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}
	dir := opts.ExportDir
	if dir == "" {
		dir = "."
	}

	return App{
		engine:     e,
		changes:    opts.Changes,
		exportDir:  dir,
		log:        log,
		now:        time.Now,
		activeView: viewWorkout,
		planner:    newPlannerModel(e),
		session:    newSessionModel(e),
		exercises:  newExercisesModel(e),
		templates:  newTemplatesModel(e),
		history:    newHistoryModel(e),
		settings:   newSettingsModel(e),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.planner.refresh(),
		a.session.refresh(),
		tickCmd(),
		waitForChange(a.changes),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange blocks on the change feed and reports the next signal. It
// returns nil once the feed is closed.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.planner.setSize(a.width, contentHeight)
		a.session.setSize(a.width, contentHeight)
		a.exercises.setSize(a.width, contentHeight)
		a.templates.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		if a.activeView == viewHistory {
			a.history.buildChart()
		}
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchView(viewWorkout)
		case key.Matches(msg, keys.Tab2):
			return a.switchView(viewExercises)
		case key.Matches(msg, keys.Tab3):
			return a.switchView(viewTemplates)
		case key.Matches(msg, keys.Tab4):
			return a.switchView(viewHistory)
		case key.Matches(msg, keys.Tab5):
			return a.switchView(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchView((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		// The rest timer keeps running while other tabs are shown.
		var cmd tea.Cmd
		a.session, cmd = a.session.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case storeChangedMsg:
		return a, tea.Batch(a.refreshCurrentView(), waitForChange(a.changes))

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case sessionStartedMsg:
		a.status = "Workout started"
		a.statusError = false
		a.log.WithField("session_id", msg.session.ID).Debug("tui: session started")
		var c1, c2 tea.Cmd
		a.planner, c1 = a.planner.update(msg)
		a.session, c2 = a.session.update(msg)
		return a, tea.Batch(c1, c2)

	case sessionEndedMsg, sessionDataMsg, setLoggedMsg, restStartMsg:
		// Session messages land on the session model whatever tab is shown.
		var cmd tea.Cmd
		a.session, cmd = a.session.update(msg)
		return a, cmd

	case plannerDataMsg, planReadyMsg:
		var cmd tea.Cmd
		a.planner, cmd = a.planner.update(msg)
		return a, cmd

	case exercisesDataMsg, lastPerformanceMsg:
		var cmd tea.Cmd
		a.exercises, cmd = a.exercises.update(msg)
		return a, cmd

	case templatesDataMsg:
		var cmd tea.Cmd
		a.templates, cmd = a.templates.update(msg)
		return a, cmd

	case historyDataMsg:
		var cmd tea.Cmd
		a.history, cmd = a.history.update(msg)
		return a, cmd

	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusError = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) switchView(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewWorkout:
		if a.session.active() {
			a.session, cmd = a.session.update(msg)
		} else {
			a.planner, cmd = a.planner.update(msg)
		}
	case viewExercises:
		a.exercises, cmd = a.exercises.update(msg)
	case viewTemplates:
		a.templates, cmd = a.templates.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewWorkout:
		if a.session.active() {
			return a.session.formActive
		}
		return a.planner.formActive
	case viewExercises:
		return a.exercises.formActive
	case viewTemplates:
		return a.templates.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewWorkout:
		return tea.Batch(a.session.refresh(), a.planner.refresh())
	case viewExercises:
		return a.exercises.refresh()
	case viewTemplates:
		return a.templates.refresh()
	case viewHistory:
		return a.history.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewWorkout:
		if a.session.active() {
			content = a.session.view()
		} else {
			content = a.planner.view()
		}
	case viewExercises:
		content = a.exercises.view()
	case viewTemplates:
		content = a.templates.view()
	case viewHistory:
		content = a.history.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("liftlog")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	statusText := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusError {
			style = errorStyle
		}
		statusText = style.Render(" " + a.status)
	}

	// Rest countdown stays visible from every tab.
	restInfo := ""
	if t := a.session.timer; t.running() {
		remaining := t.remaining()
		switch {
		case t.paused():
			restInfo = warningStyle.Render(" ⏸ " + workout.FormatRest(remaining))
		case remaining <= 0:
			restInfo = successStyle.Render(" ● rest over")
		default:
			restInfo = successStyle.Render(" ● " + workout.FormatRest(remaining))
		}
	}

	left := footerStyle.Render(helpView)
	right := restInfo + statusText

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))
	rows = append(rows, mutedStyle.Render("  to "+a.exportDir))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(exportFormats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// exportPath names the export file for the day, e.g. liftlog-export-2024-03-04.csv.
func exportPath(dir, format string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("liftlog-export-%s.%s", now.Format(time.DateOnly), format))
}

func (a App) doExport(format string) tea.Cmd {
	path := exportPath(a.exportDir, format, a.now())
	return func() tea.Msg {
		d, err := export.Collect(context.Background(), a.engine, store.SetFilter{})
		if err != nil {
			a.log.WithError(err).Error("export collect")
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		if err := export.Write(format, d, path); err != nil {
			a.log.WithError(err).WithField("path", path).Error("export write")
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		a.log.WithFields(logrus.Fields{"path": path, "sets": len(d.Sets)}).Info("export written")
		return exportDoneMsg{path: path}
	}
}
