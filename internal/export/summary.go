package export

import (
	"math"

	"github.com/mrivasf/jornada/internal/workday"
)

// Summary aggregates a weekly report into the figures shown to the user.
type Summary struct {
	TotalDays      int     `json:"total_days"`
	TeleworkDays   int     `json:"telework_days"`
	OfficeDays     int     `json:"office_days"`
	TotalHours     float64 `json:"total_hours"`
	AvgHoursPerDay float64 `json:"avg_hours_per_day"`
	TeleworkPct    float64 `json:"telework_pct"`
	OfficePct      float64 `json:"office_pct"`
}

// Summarize computes aggregate statistics for a report. Percentages are
// over worked days (telework + office), not calendar days.
func Summarize(report *workday.WeeklyReport) Summary {
	s := Summary{
		TotalDays:    report.TotalDays,
		TeleworkDays: report.TeleworkDays,
		OfficeDays:   report.OfficeDays,
		TotalHours:   report.TotalHours,
	}

	worked := report.TeleworkDays + report.OfficeDays
	if worked > 0 {
		s.AvgHoursPerDay = round2(report.TotalHours / float64(worked))
		s.TeleworkPct = round2(100 * float64(report.TeleworkDays) / float64(worked))
		s.OfficePct = round2(100 * float64(report.OfficeDays) / float64(worked))
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
