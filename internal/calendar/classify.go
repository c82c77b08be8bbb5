package calendar

import (
	"fmt"
	"time"

	"github.com/mrivasf/jornada/internal/workday"
)

// Classification is the outcome of checking whether a day should be
// registered without asking the user.
type Classification struct {
	Type     workday.Type
	Message  string
	Register bool
}

// Classifier decides, for a calendar date, whether the bot should proceed
// with registration directly or ask for confirmation first.
type Classifier struct {
	Calendar     *Calendar
	Region       string
	TeleworkDays []int // ISO weekdays, Monday=1
}

// Classify maps a date to its workday classification. Holidays and personal
// vacations never register; configured telework weekdays and occasional
// telework dates register directly; anything else is an office day needing
// explicit confirmation.
func (c *Classifier) Classify(d time.Time) Classification {
	if c.Calendar.IsHoliday(d, c.Region) {
		msg := "🎉 Festivo"
		if name := c.Calendar.HolidayName(d, c.Region); name != "" {
			msg = fmt.Sprintf("🎉 %s (Festivo)", name)
		}
		return Classification{Type: workday.TypeHoliday, Message: msg, Register: false}
	}

	if c.Calendar.IsPersonalVacation(d) {
		return Classification{
			Type:     workday.TypeVacation,
			Message:  "🏖️ Vacaciones personales",
			Register: false,
		}
	}

	if c.isTeleworkWeekday(d) {
		return Classification{
			Type:     workday.TypeTelework,
			Message:  "🏠 Día de teletrabajo",
			Register: true,
		}
	}

	if c.Calendar.IsOccasionalTelework(d) {
		return Classification{
			Type:     workday.TypeTelework,
			Message:  "🏠 Teletrabajo ocasional",
			Register: true,
		}
	}

	return Classification{
		Type:     workday.TypeOffice,
		Message:  "🏢 Día de oficina (no teletrabajo configurado)",
		Register: false,
	}
}

func (c *Classifier) isTeleworkWeekday(d time.Time) bool {
	iso := int(d.Weekday())
	if iso == 0 {
		iso = 7
	}
	for _, day := range c.TeleworkDays {
		if day == iso {
			return true
		}
	}
	return false
}
