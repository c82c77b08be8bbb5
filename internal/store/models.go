package store

import "time"

// Source distinguishes rows written after a registration attempt from
// rows refreshed out of a portal report.
const (
	SourceRegistration = "registration"
	SourceReport       = "report"
)

type Record struct {
	ID        int64
	Day       string // YYYY-MM-DD
	StartTime string // HH:MM, empty for non-working days
	EndTime   string
	DayType   string
	Location  string
	Hours     float64
	Success   bool
	Message   string
	Source    string
	CreatedAt time.Time
}

// RecordFilter is used to filter records in queries.
type RecordFilter struct {
	From    string // YYYY-MM-DD inclusive
	To      string // YYYY-MM-DD inclusive
	Source  string
	DayType string
	Limit   int
}

// DailyHours represents aggregated worked hours for one day.
type DailyHours struct {
	Day      string
	DayType  string
	Location string
	Hours    float64
}
