package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/liftlog/internal/store"
	"github.com/sadopc/liftlog/internal/workout"
)

type historyMetric int

const (
	metricSets historyMetric = iota
	metricVolume
)

const recentSessions = 8

type historyModel struct {
	engine *workout.Engine
	width  int
	height int
	now    func() time.Time

	metric   historyMetric
	days     []store.DailySetCount
	sessions []store.Session
	unit     string
	offset   int // 7-day blocks back from today

	chart barchart.Model
}

func newHistoryModel(e *workout.Engine) historyModel {
	return historyModel{
		engine: e,
		now:    time.Now,
		unit:   "kg",
		chart:  barchart.New(60, 12),
	}
}

func (h *historyModel) setSize(w, hgt int) {
	h.width = w
	h.height = hgt
}

type historyDataMsg struct {
	days     []store.DailySetCount
	sessions []store.Session
	unit     string
}

func (h historyModel) refresh() tea.Cmd {
	from, to := h.dateRange()
	return func() tea.Msg {
		ctx := context.Background()
		days, err := h.engine.DailySetCounts(ctx, from, to)
		if err != nil {
			return statusMsg{text: workout.Message(err), isError: true}
		}
		sessions, _ := h.engine.ListSessions(ctx, recentSessions)
		return historyDataMsg{days: days, sessions: sessions, unit: h.engine.WeightUnit(ctx)}
	}
}

// dateRange is the 7 UTC days ending today, shifted back by offset weeks.
func (h historyModel) dateRange() (time.Time, time.Time) {
	now := h.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := today.AddDate(0, 0, 1-7*h.offset)
	return end.AddDate(0, 0, -7), end
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		h.days = msg.days
		h.sessions = msg.sessions
		h.unit = msg.unit
		h.buildChart()
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			h.offset++
			return h, h.refresh()
		case key.Matches(msg, keys.Right):
			if h.offset > 0 {
				h.offset--
			}
			return h, h.refresh()
		case key.Matches(msg, keys.Enter):
			if h.metric == metricSets {
				h.metric = metricVolume
			} else {
				h.metric = metricSets
			}
			h.buildChart()
			return h, nil
		}
	}
	return h, nil
}

// bars returns one bar per day in range, zero-filled.
func (h historyModel) bars() []barchart.BarData {
	byDate := make(map[string]store.DailySetCount, len(h.days))
	for _, d := range h.days {
		byDate[d.Date] = d
	}

	barStyle := lipgloss.NewStyle().Foreground(colorPrimary)
	if h.metric == metricVolume {
		barStyle = lipgloss.NewStyle().Foreground(colorSecondary)
	}

	from, to := h.dateRange()
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		day := byDate[d.Format(time.DateOnly)]
		value := float64(day.Sets)
		if h.metric == metricVolume {
			value = day.Volume
		}
		bars = append(bars, barchart.BarData{
			Label:  d.Format("Mon 02"),
			Values: []barchart.BarValue{{Name: d.Format(time.DateOnly), Value: value, Style: barStyle}},
		})
	}
	return bars
}

func (h *historyModel) buildChart() {
	chartWidth := max(20, h.width-8)
	chartHeight := 12
	if h.height > 30 {
		chartHeight = 16
	}

	h.chart = barchart.New(chartWidth, chartHeight)
	h.chart.PushAll(h.bars())
	h.chart.Draw()
}

func (h historyModel) view() string {
	w := h.width - 4

	setsTab := inactiveTabStyle.Render("Sets")
	volumeTab := inactiveTabStyle.Render("Volume")
	if h.metric == metricSets {
		setsTab = activeTabStyle.Render("Sets")
	} else {
		volumeTab = activeTabStyle.Render("Volume")
	}
	metricTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, setsTab, volumeTab)

	from, to := h.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("History"), "  ", metricTabs, "  ", dateLabel,
	)

	nav := mutedStyle.Render("  ←/→: navigate  enter: sets/volume")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", h.chart.View(), "", h.renderTotals(), "", h.renderSessions(w), "", nav,
		),
	)
}

func (h historyModel) renderTotals() string {
	sets, volume := 0, 0.0
	for _, d := range h.days {
		sets += d.Sets
		volume += d.Volume
	}
	if sets == 0 {
		return mutedStyle.Render("  No sets logged in this period")
	}
	return highlightStyle.Render(fmt.Sprintf("  %d sets  %s lifted", sets, formatWeight(volume, h.unit)))
}

func (h historyModel) renderSessions(w int) string {
	if len(h.sessions) == 0 {
		return mutedStyle.Render("  No workouts yet")
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Recent Workouts"))
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-16s %-24s %-10s %s", "Date", "Name", "Mode", "Duration")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", max(0, min(w-6, 62)))))
	for _, s := range h.sessions {
		duration := successStyle.Render("in progress")
		if s.EndedAt != nil {
			duration = formatDuration(s.EndedAt.Sub(s.StartedAt))
		}
		rows = append(rows, fmt.Sprintf("  %-16s %-24s %-10s %s",
			s.StartedAt.Local().Format("Mon Jan 02 15:04"), truncate(s.Name, 24), s.Mode, duration))
	}
	return strings.Join(rows, "\n")
}
