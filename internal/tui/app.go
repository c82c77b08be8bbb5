package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrivasf/jornada/internal/export"
	"github.com/mrivasf/jornada/internal/store"
)

// App is the root Bubble Tea model.
type App struct {
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard dashboardModel
	register  registerModel
	reports   reportsModel
	history   historyModel

	help   help.Model
	status string
}

func NewApp(runner Runner, s *store.Store, loc *time.Location) App {
	h := help.New()
	h.ShowAll = false

	if loc == nil {
		loc = time.Local
	}

	return App{
		activeView: viewDashboard,
		dashboard:  newDashboardModel(runner, s, loc),
		register:   newRegisterModel(runner, loc),
		reports:    newReportsModel(runner),
		history:    newHistoryModel(s),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return a.dashboard.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.register.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If the registration form is capturing input, delegate first.
		if a.activeView == viewRegister && a.register.formActive {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			if a.reports.report == nil {
				a.status = "Nada que exportar: descarga primero un informe"
				return a, nil
			}
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
			a.activeView = viewDashboard
			return a, a.dashboard.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewRegister
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReports
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewHistory
			return a, a.history.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 4
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Register):
			if a.activeView == viewDashboard {
				a.activeView = viewRegister
			}
			return a.updateActiveView(msg)
		}

	case statusMsg:
		a.status = msg.text
		return a, a.forwardStatus(msg)

	case registerDoneMsg:
		a.status = "Jornada registrada"
		var cmd tea.Cmd
		a.register, cmd = a.register.update(msg)
		// The fresh report piggybacks on the registration run.
		if msg.report != nil {
			a.reports, _ = a.reports.update(reportDataMsg{report: msg.report})
		}
		return a, tea.Batch(cmd, a.dashboard.loadData(), a.history.refresh())

	case exportDoneMsg:
		a.status = "Exportado a " + msg.path
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

// forwardStatus routes a status message to the views that track loading
// state.
func (a *App) forwardStatus(msg statusMsg) tea.Cmd {
	a.reports, _ = a.reports.update(msg)
	a.register, _ = a.register.update(msg)
	return nil
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewRegister:
		a.register, cmd = a.register.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	}
	return a, cmd
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewHistory:
		return a.history.refresh()
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
	case viewDashboard:
		content = a.dashboard.view()
	case viewRegister:
		content = a.register.view()
	case viewReports:
		content = a.reports.view()
	case viewHistory:
		content = a.history.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

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

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("jornada")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	left := footerStyle.Render(helpView)

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Formato de exportación")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: exportar  esc: cancelar"))

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
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	report := a.reports.report
	return func() tea.Msg {
		if report == nil {
			return statusMsg{text: "Nada que exportar", isError: true}
		}

		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("jornada-%s.csv", dateStr))
			if err := export.ToCSV(report, path); err != nil {
				return statusMsg{text: fmt.Sprintf("Error CSV: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("jornada-%s.json", dateStr))
			if err := export.ToJSON(report, path); err != nil {
				return statusMsg{text: fmt.Sprintf("Error JSON: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
