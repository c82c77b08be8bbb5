package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/mrivasf/jornada/internal/workday"
)

// ToCSV writes one row per registered day to path.
func ToCSV(report *workday.WeeklyReport, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Date", "Weekday", "Type", "Location", "Start", "End", "Hours"}); err != nil {
		return err
	}

	for _, r := range report.Sorted() {
		row := []string{
			r.Date.Format(workday.DateFormat),
			r.Date.Weekday().String(),
			string(r.Type),
			r.Location,
			r.StartTime,
			r.EndTime,
			formatHours(r.Hours()),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.2f", h)
}
