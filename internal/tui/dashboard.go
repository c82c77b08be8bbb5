package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrivasf/jornada/internal/store"
	"github.com/mrivasf/jornada/internal/workday"
)

type dashboardModel struct {
	runner Runner
	store  *store.Store
	loc    *time.Location
	width  int
	height int

	data dashboardDataMsg
}

func newDashboardModel(runner Runner, s *store.Store, loc *time.Location) dashboardModel {
	return dashboardModel{runner: runner, store: s, loc: loc}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		today := time.Now().In(d.loc)
		msg := dashboardDataMsg{classification: d.runner.Classify(today)}

		if d.store != nil {
			day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, d.loc)
			msg.lastAttempt, _ = d.store.LastRegistration(day)
			monday, friday := workday.WeekRange(today, false)
			msg.weekHours, _ = d.store.GetDailyHours(monday, friday)
		}
		return msg
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(dashboardDataMsg); ok {
		d.data = msg
	}
	return d, nil
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4

	today := d.renderTodayPanel(w)
	week := d.renderWeekPanel(w)
	return lipgloss.JoinVertical(lipgloss.Left, today, week)
}

func (d dashboardModel) renderTodayPanel(w int) string {
	now := time.Now().In(d.loc)
	title := titleStyle.Render("Hoy") + "  " +
		mutedStyle.Render(now.Format("Monday 02/01/2006"))

	cls := d.data.classification
	var rows []string
	rows = append(rows, title, "")
	if cls.Message != "" {
		rows = append(rows, "  "+cls.Message)
	}

	if last := d.data.lastAttempt; last != nil {
		status := successStyle.Render("✓ registrado")
		if !last.Success {
			status = errorStyle.Render("✗ fallido")
		}
		rows = append(rows, fmt.Sprintf("  Último intento: %s-%s %s",
			last.StartTime, last.EndTime, status))
	} else if cls.Register {
		rows = append(rows, mutedStyle.Render("  Sin registrar. Pulsa r para registrar."))
	}

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderWeekPanel(w int) string {
	title := titleStyle.Render("Esta semana")

	if len(d.data.weekHours) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("Sin datos. Pulsa f en Reports para descargar el informe."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	var total float64
	for _, dh := range d.data.weekHours {
		style := officeStyle
		if dh.DayType == string(workday.TypeTelework) {
			style = teleworkStyle
		}
		rows = append(rows, fmt.Sprintf("  %s %s %6s  %s",
			dh.Day,
			style.Render("●"),
			formatHours(dh.Hours),
			mutedStyle.Render(dh.Location),
		))
		total += dh.Hours
	}
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  Total: %s", highlightStyle.Render(formatHours(total))))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
