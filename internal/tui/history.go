package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrivasf/jornada/internal/store"
)

const historyLimit = 50

// historyModel lists the locally stored registration attempts and report
// rows, newest first.
type historyModel struct {
	store  *store.Store
	width  int
	height int

	records []store.Record
	cursor  int
}

func newHistoryModel(s *store.Store) historyModel {
	return historyModel{store: s}
}

func (h *historyModel) setSize(w, height int) {
	h.width = w
	h.height = height
}

func (h historyModel) refresh() tea.Cmd {
	if h.store == nil {
		return nil
	}
	return func() tea.Msg {
		records, _ := h.store.ListRecords(store.RecordFilter{Limit: historyLimit})
		return historyDataMsg{records: records}
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		h.records = msg.records
		if h.cursor >= len(h.records) {
			h.cursor = max(0, len(h.records)-1)
		}
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if h.cursor > 0 {
				h.cursor--
			}
		case key.Matches(msg, keys.Down):
			if h.cursor < len(h.records)-1 {
				h.cursor++
			}
		}
	}
	return h, nil
}

func (h historyModel) view() string {
	w := h.width - 4
	title := titleStyle.Render("Historial")

	if len(h.records) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("  Sin registros guardados todavía."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-3s %-12s %-12s %-13s %6s %-8s", "", "Fecha", "Horario", "Tipo", "Horas", "Origen"))
	rows = append(rows, header)

	visible := h.records
	if h.height > 10 && len(visible) > h.height-8 {
		visible = visible[:h.height-8]
	}
	for i, rec := range visible {
		cursor := "  "
		style := normalItemStyle
		if i == h.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		status := successStyle.Render("✓")
		if !rec.Success {
			status = errorStyle.Render("✗")
		}
		schedule := ""
		if rec.StartTime != "" {
			schedule = rec.StartTime + "-" + rec.EndTime
		}
		row := style.Render(fmt.Sprintf("%s%s %-12s %-12s %-13s %6s %-8s",
			cursor, status, rec.Day, schedule, rec.DayType, formatHours(rec.Hours), rec.Source))
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  ↑/↓: mover"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
