package workday

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Type classifies a registered day.
type Type string

const (
	TypeOffice      Type = "office"
	TypeTelework    Type = "telework"
	TypeVacation    Type = "vacation"
	TypeHoliday     Type = "holiday"
	TypeSickLeave   Type = "sick_leave"
	TypePersonalDay Type = "personal_day"
)

// DateFormat is the portal's day format (DD/MM/YYYY).
const DateFormat = "02/01/2006"

// DateTimeFormat is the portal's timestamp format (DD/MM/YYYY HH:MM).
const DateTimeFormat = "02/01/2006 15:04"

// Registration is a single day's work registration, either submitted by us
// or reconstructed from a report row.
type Registration struct {
	Date      time.Time
	StartTime string // HH:MM, may be empty
	EndTime   string // HH:MM, may be empty
	Type      Type
	Location  string
	Success   bool
	Message   string
}

// Validate checks the registration is submittable: a real date and strict
// zero-padded HH:MM times.
func (r Registration) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("registration date is required")
	}
	if !ValidTime(r.StartTime) {
		return fmt.Errorf("invalid start time %q: must be HH:MM", r.StartTime)
	}
	if !ValidTime(r.EndTime) {
		return fmt.Errorf("invalid end time %q: must be HH:MM", r.EndTime)
	}
	return nil
}

// Hours returns the worked hours between StartTime and EndTime rounded to
// two decimals, or 0 when either time is empty.
func (r Registration) Hours() float64 {
	if r.StartTime == "" || r.EndTime == "" {
		return 0
	}
	start, err := time.Parse("15:04", r.StartTime)
	if err != nil {
		return 0
	}
	end, err := time.Parse("15:04", r.EndTime)
	if err != nil {
		return 0
	}
	hours := end.Sub(start).Seconds() / 3600
	return math.Round(hours*100) / 100
}

var typeEmoji = map[Type]string{
	TypeOffice:      "🏢",
	TypeTelework:    "🏠",
	TypeVacation:    "🏖️",
	TypeHoliday:     "🎉",
	TypeSickLeave:   "🤒",
	TypePersonalDay: "📅",
}

// TelegramMessage renders the registration as Telegram markdown.
func (r Registration) TelegramMessage() string {
	emoji, ok := typeEmoji[r.Type]
	if !ok {
		emoji = "📋"
	}
	location := ""
	if r.Location != "" {
		location = fmt.Sprintf(" (%s)", r.Location)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\n", emoji, r.Date.Format(DateFormat))
	fmt.Fprintf(&b, "Tipo: %s%s\n", r.Type, location)
	fmt.Fprintf(&b, "Horario: %s - %s\n", r.StartTime, r.EndTime)
	fmt.Fprintf(&b, "Horas: %vh\n", r.Hours())
	if r.Message != "" {
		fmt.Fprintf(&b, "Estado: %s\n", r.Message)
	}
	return b.String()
}

// WeeklyReport aggregates the registrations of one date interval. Counters
// are a running fold maintained by Add; they are never recomputed.
type WeeklyReport struct {
	StartDate     time.Time
	EndDate       time.Time
	TotalDays     int
	TeleworkDays  int
	OfficeDays    int
	TotalHours    float64
	Registrations []Registration
}

// NewWeeklyReport returns an empty report for the closed interval
// [start, end].
func NewWeeklyReport(start, end time.Time) *WeeklyReport {
	return &WeeklyReport{StartDate: start, EndDate: end}
}

// Add folds one registration into the report. Vacation and holiday days
// count toward TotalDays but neither the telework nor the office bucket.
func (w *WeeklyReport) Add(r Registration) {
	w.Registrations = append(w.Registrations, r)
	w.TotalDays++
	switch r.Type {
	case TypeTelework:
		w.TeleworkDays++
	case TypeOffice:
		w.OfficeDays++
	}
	w.TotalHours += r.Hours()
}

// Sorted returns the registrations ordered by date. Ordering happens at
// render time only; Add keeps insertion order.
func (w *WeeklyReport) Sorted() []Registration {
	sorted := make([]Registration, len(w.Registrations))
	copy(sorted, w.Registrations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// TelegramMessage renders the weekly report as Telegram markdown.
func (w *WeeklyReport) TelegramMessage() string {
	var b strings.Builder
	b.WriteString("📊 *Informe Semanal*\n")
	fmt.Fprintf(&b, "📅 %s - %s\n\n", w.StartDate.Format(DateFormat), w.EndDate.Format(DateFormat))

	b.WriteString("*Resumen:*\n")
	fmt.Fprintf(&b, "• Días trabajados: %d\n", w.TotalDays)
	fmt.Fprintf(&b, "• Teletrabajo: %d días\n", w.TeleworkDays)
	fmt.Fprintf(&b, "• Oficina: %d días\n", w.OfficeDays)
	fmt.Fprintf(&b, "• Total horas: %.2fh\n", w.TotalHours)

	if len(w.Registrations) > 0 {
		b.WriteString("\n*Detalle:*\n")
		for _, r := range w.Sorted() {
			symbol := "🏢"
			if r.Type == TypeTelework {
				symbol = "🏠"
			}
			fmt.Fprintf(&b, "%s %s: %s-%s (%.1fh)\n",
				symbol, r.Date.Format("02/01"), r.StartTime, r.EndTime, r.Hours())
		}
	}
	return b.String()
}

// WeekRange returns the Monday and Friday of the ISO week containing now,
// or of the week before it when previous is set.
func WeekRange(now time.Time, previous bool) (monday, friday time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday = day.AddDate(0, 0, 1-weekday)
	if previous {
		monday = monday.AddDate(0, 0, -7)
	}
	return monday, monday.AddDate(0, 0, 4)
}
