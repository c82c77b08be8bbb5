package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrivasf/jornada/internal/export"
	"github.com/mrivasf/jornada/internal/workday"
)

type reportsModel struct {
	runner Runner
	width  int
	height int

	previous bool
	loading  bool
	report   *workday.WeeklyReport

	chart barchart.Model
}

func newReportsModel(runner Runner) reportsModel {
	return reportsModel{
		runner: runner,
		chart:  barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

// refresh fetches the report from the portal in the background.
func (r reportsModel) refresh() tea.Cmd {
	previous := r.previous
	runner := r.runner
	return func() tea.Msg {
		report, err := runner.WeeklyReport(context.Background(), previous)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return reportDataMsg{report: report, previous: previous}
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportDataMsg:
		r.loading = false
		r.report = msg.report
		r.buildChart()
		return r, nil

	case statusMsg:
		if msg.isError {
			r.loading = false
		}
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Refresh):
			r.loading = true
			return r, r.refresh()
		case key.Matches(msg, keys.Left), key.Matches(msg, keys.Previous):
			if !r.previous {
				r.previous = true
				r.loading = true
				return r, r.refresh()
			}
		case key.Matches(msg, keys.Right):
			if r.previous {
				r.previous = false
				r.loading = true
				return r, r.refresh()
			}
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)
	if r.report == nil {
		return
	}

	// One bar per weekday of the interval.
	var bars []barchart.BarData
	for d := r.report.StartDate; !d.After(r.report.EndDate); d = d.AddDate(0, 0, 1) {
		label := d.Format("Mon 02")

		var values []barchart.BarValue
		for _, reg := range r.report.Sorted() {
			if reg.Date.Format("2006-01-02") != d.Format("2006-01-02") {
				continue
			}
			style := lipgloss.NewStyle().Foreground(colorOffice)
			if reg.Type == workday.TypeTelework {
				style = lipgloss.NewStyle().Foreground(colorTelework)
			}
			values = append(values, barchart.BarValue{
				Name:  string(reg.Type),
				Value: reg.Hours(),
				Style: style,
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{Label: label, Values: values})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	weekLabel := "Semana actual"
	if r.previous {
		weekLabel = "Semana anterior"
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Informe"), "  ", mutedStyle.Render(weekLabel),
	)

	if r.loading {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header, "", warningStyle.Render("  Descargando informe del portal..."),
		)
		return panelStyle.Width(w).Render(content)
	}

	if r.report == nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("  Pulsa f para descargar el informe."),
		)
		return panelStyle.Width(w).Render(content)
	}

	chartView := r.chart.View()
	tableView := r.renderSummaryTable(w)
	legend := teleworkStyle.Render("● teletrabajo") + "  " + officeStyle.Render("● oficina")
	nav := mutedStyle.Render("  ←/→: semana  f: actualizar  e: exportar")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", "  "+legend, "", tableView, "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	if r.report.TotalDays == 0 {
		return mutedStyle.Render("  Sin registros en el periodo")
	}

	var rows []string
	headerRow := mutedStyle.Render(fmt.Sprintf("  %-12s %-14s %-12s %8s", "Fecha", "Tipo", "Sede", "Horas"))
	rows = append(rows, headerRow)
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 50))))

	for _, reg := range r.report.Sorted() {
		style := officeStyle
		if reg.Type == workday.TypeTelework {
			style = teleworkStyle
		}
		rows = append(rows, fmt.Sprintf("  %-12s %s %-12s %-12s %8s",
			reg.Date.Format(workday.DateFormat),
			style.Render("●"),
			typeLabel(reg.Type),
			reg.Location,
			formatHours(reg.Hours()),
		))
	}

	s := export.Summarize(r.report)
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  Total: %s en %d días  (%.0f%% teletrabajo)",
		highlightStyle.Render(formatHours(s.TotalHours)), s.TotalDays, s.TeleworkPct))

	return strings.Join(rows, "\n")
}
