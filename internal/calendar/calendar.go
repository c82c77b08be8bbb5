package calendar

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Holiday is one named holiday entry from the calendar file.
type Holiday struct {
	Date string `json:"date"` // DD/MM for annual entries, DD/MM in yearly lists
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// DayEntry is a single full date (DD/MM/YYYY), used for personal vacations
// and occasional telework days.
type DayEntry struct {
	Date string `json:"date"`
	Name string `json:"name,omitempty"`
}

// Calendar is the JSON-backed holiday and vacation repository. All lookups
// are reads of the loaded data; the file is never re-read implicitly.
type Calendar struct {
	AnnualHolidays     []Holiday                      `json:"annual_holidays"`
	RegionalHolidays   map[string]map[string][]Holiday `json:"regional_holidays"`
	MovableHolidays    map[string][]Holiday           `json:"movable_holidays"`
	PersonalVacations  map[string][]DayEntry          `json:"personal_vacations"`
	OccasionalTelework map[string][]DayEntry          `json:"occasional_telework"`
}

// Load reads the calendar from a JSON file. A missing file yields an empty
// calendar, not an error; a malformed file is an error.
func Load(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Calendar{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read calendar %s: %w", path, err)
	}
	var c Calendar
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse calendar %s: %w", path, err)
	}
	return &c, nil
}

func dayMonth(d time.Time) string { return d.Format("02/01") }
func fullDate(d time.Time) string { return d.Format("02/01/2006") }
func year(d time.Time) string     { return strconv.Itoa(d.Year()) }

// IsAnnualHoliday reports whether d falls on a holiday that repeats every
// year (national fixed-date holidays).
func (c *Calendar) IsAnnualHoliday(d time.Time) bool {
	dm := dayMonth(d)
	for _, h := range c.AnnualHolidays {
		if h.Date == dm {
			return true
		}
	}
	return false
}

// IsRegionalHoliday reports whether d is a holiday of the given region in
// d's year.
func (c *Calendar) IsRegionalHoliday(d time.Time, region string) bool {
	dm := dayMonth(d)
	for _, h := range c.RegionalHolidays[region][year(d)] {
		if h.Date == dm {
			return true
		}
	}
	return false
}

// IsMovableHoliday reports whether d is a movable holiday (Easter and
// friends) in d's year.
func (c *Calendar) IsMovableHoliday(d time.Time) bool {
	dm := dayMonth(d)
	for _, h := range c.MovableHolidays[year(d)] {
		if h.Date == dm {
			return true
		}
	}
	return false
}

// IsHoliday combines annual, regional and movable holiday checks.
func (c *Calendar) IsHoliday(d time.Time, region string) bool {
	return c.IsAnnualHoliday(d) || c.IsRegionalHoliday(d, region) || c.IsMovableHoliday(d)
}

// HolidayName returns the name of the holiday on d, or "" when d is not a
// holiday.
func (c *Calendar) HolidayName(d time.Time, region string) string {
	dm := dayMonth(d)
	for _, h := range c.AnnualHolidays {
		if h.Date == dm {
			return h.Name
		}
	}
	for _, h := range c.RegionalHolidays[region][year(d)] {
		if h.Date == dm {
			return h.Name
		}
	}
	for _, h := range c.MovableHolidays[year(d)] {
		if h.Date == dm {
			return h.Name
		}
	}
	return ""
}

// IsPersonalVacation reports whether d is one of the configured personal
// vacation days.
func (c *Calendar) IsPersonalVacation(d time.Time) bool {
	fd := fullDate(d)
	for _, v := range c.PersonalVacations[year(d)] {
		if v.Date == fd {
			return true
		}
	}
	return false
}

// IsOccasionalTelework reports whether d is an ad-hoc telework day outside
// the weekly telework schedule.
func (c *Calendar) IsOccasionalTelework(d time.Time) bool {
	fd := fullDate(d)
	for _, v := range c.OccasionalTelework[year(d)] {
		if v.Date == fd {
			return true
		}
	}
	return false
}
