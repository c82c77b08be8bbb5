package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrivasf/jornada/internal/workday"
)

// registerModel is the day-registration form: day, type, confirm, then a
// pipeline run in the background.
type registerModel struct {
	runner Runner
	loc    *time.Location
	width  int
	height int

	formActive bool
	form       *huh.Form
	submitting bool
	lastResult string

	// Form field pointers (survive value copies)
	formDay     *string
	formType    *string
	formConfirm *bool
}

func newRegisterModel(runner Runner, loc *time.Location) registerModel {
	day, dayType, confirm := "HOY", string(workday.TypeTelework), false
	return registerModel{
		runner:      runner,
		loc:         loc,
		formDay:     &day,
		formType:    &dayType,
		formConfirm: &confirm,
	}
}

func (r *registerModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r registerModel) showForm() (registerModel, tea.Cmd) {
	*r.formDay = "HOY"
	*r.formType = string(workday.TypeTelework)
	*r.formConfirm = false

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Día").
				Description("HOY, AYER o YYYYMMDD").
				Value(r.formDay).
				Validate(func(s string) error {
					_, err := r.parseDay(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Tipo").
				Options(
					huh.NewOption("🏠 Teletrabajo", string(workday.TypeTelework)),
					huh.NewOption("🏢 Oficina", string(workday.TypeOffice)),
				).
				Value(r.formType),
			huh.NewConfirm().
				Title("¿Registrar la jornada?").
				DescriptionFunc(func() string {
					return r.classifyDescription(*r.formDay)
				}, r.formDay).
				Affirmative("Sí").
				Negative("No").
				Value(r.formConfirm),
		),
	).WithShowHelp(true).WithShowErrors(true)

	r.formActive = true
	return r, r.form.Init()
}

func (r registerModel) update(msg tea.Msg) (registerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case registerDoneMsg:
		r.submitting = false
		r.lastResult = msg.result.TelegramMessage()
		return r, nil

	case statusMsg:
		if msg.isError {
			r.submitting = false
		}
		return r, nil

	case tea.KeyMsg:
		if r.formActive && r.form != nil {
			return r.updateForm(msg)
		}
		if r.submitting {
			return r, nil
		}
		if msg.String() == "r" || msg.String() == "enter" {
			return r.showForm()
		}
	}

	if r.formActive && r.form != nil {
		return r.updateForm(msg)
	}
	return r, nil
}

func (r registerModel) updateForm(msg tea.Msg) (registerModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			r.formActive = false
			r.form = nil
			return r, nil
		}
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}

	if r.form.State == huh.StateCompleted {
		r.formActive = false
		if !*r.formConfirm {
			return r, func() tea.Msg { return statusMsg{text: "Registro cancelado"} }
		}
		day, err := r.parseDay(*r.formDay)
		if err != nil {
			return r, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Día no válido: %v", err), isError: true}
			}
		}
		reg := r.runner.PlanRegistration(day, workday.Type(*r.formType))
		r.submitting = true
		return r, r.submit(reg)
	}

	return r, cmd
}

// parseDay accepts the same day spellings as the bot, case-insensitively.
func (r registerModel) parseDay(input string) (time.Time, error) {
	return workday.ParseDay(strings.ToUpper(strings.TrimSpace(input)), time.Now().In(r.loc))
}

// classifyDescription previews what registering the entered day means,
// shown under the confirm field.
func (r registerModel) classifyDescription(input string) string {
	day, err := r.parseDay(input)
	if err != nil {
		return ""
	}
	return r.runner.Classify(day).Message
}

func (r registerModel) submit(reg workday.Registration) tea.Cmd {
	return func() tea.Msg {
		result, report, err := r.runner.RegisterDay(context.Background(), reg)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return registerDoneMsg{result: result, report: report}
	}
}

func (r registerModel) view() string {
	w := r.width - 4

	if r.formActive && r.form != nil {
		title := titleStyle.Render("Registrar jornada")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", r.form.View())
		return panelStyle.Width(w).Render(content)
	}

	if r.submitting {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Registrar jornada"),
			"",
			warningStyle.Render("  Enviando registro al portal..."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Registrar jornada"), "")
	if r.lastResult != "" {
		rows = append(rows, r.lastResult)
	} else {
		rows = append(rows, mutedStyle.Render("  Pulsa r para abrir el formulario."))
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
