package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mrivasf/jornada/internal/workday"
)

type jsonExport struct {
	ExportedAt string    `json:"exported_at"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Summary    Summary   `json:"summary"`
	Days       []jsonDay `json:"days"`
}

type jsonDay struct {
	Date      string  `json:"date"`
	Weekday   string  `json:"weekday"`
	Type      string  `json:"type"`
	Location  string  `json:"location,omitempty"`
	StartTime string  `json:"start_time,omitempty"`
	EndTime   string  `json:"end_time,omitempty"`
	Hours     float64 `json:"hours"`
}

// ToJSON writes a weekly report, with aggregate statistics, to path.
func ToJSON(report *workday.WeeklyReport, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		From:       report.StartDate.Format(workday.DateFormat),
		To:         report.EndDate.Format(workday.DateFormat),
		Summary:    Summarize(report),
	}

	for _, r := range report.Sorted() {
		export.Days = append(export.Days, jsonDay{
			Date:      r.Date.Format(workday.DateFormat),
			Weekday:   r.Date.Weekday().String(),
			Type:      string(r.Type),
			Location:  r.Location,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
			Hours:     r.Hours(),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
