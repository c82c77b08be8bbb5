package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/mrivasf/jornada/internal/calendar"
	"github.com/mrivasf/jornada/internal/store"
	"github.com/mrivasf/jornada/internal/workday"
)

// Runner is the slice of the pipeline the terminal front end drives.
type Runner interface {
	Classify(day time.Time) calendar.Classification
	PlanRegistration(day time.Time, dayType workday.Type) workday.Registration
	RegisterDay(ctx context.Context, reg workday.Registration) (workday.Registration, *workday.WeeklyReport, error)
	WeeklyReport(ctx context.Context, previous bool) (*workday.WeeklyReport, error)
}

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewRegister
	viewReports
	viewHistory
)

var viewNames = []string{"Dashboard", "Register", "Reports", "History"}

// --- Messages ---

type dashboardDataMsg struct {
	classification calendar.Classification
	lastAttempt    *store.Record
	weekHours      []store.DailyHours
}

type reportDataMsg struct {
	report   *workday.WeeklyReport
	previous bool
}

type registerDoneMsg struct {
	result workday.Registration
	report *workday.WeeklyReport
}

type historyDataMsg struct {
	records []store.Record
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatHours(h float64) string {
	return fmt.Sprintf("%.1fh", h)
}

func typeLabel(t workday.Type) string {
	switch t {
	case workday.TypeTelework:
		return "Teletrabajo"
	case workday.TypeOffice:
		return "Oficina"
	case workday.TypeVacation:
		return "Vacaciones"
	case workday.TypeHoliday:
		return "Festivo"
	case workday.TypeSickLeave:
		return "Baja"
	case workday.TypePersonalDay:
		return "Día personal"
	}
	return string(t)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
