package portal

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/mrivasf/jornada/internal/workday"
)

const reportRowSelector = "#tblEventos > tbody > tr"

// Report table column positions (0-based): start datetime, type/location
// label, end datetime. Columns 0-1 carry the employee code and name.
const (
	colStart = 2
	colType  = 3
	colEnd   = 4
)

// WeeklyReport queries the attendance report for the closed interval
// [start, end] and parses the event table. An absent table is legitimate
// "no data" and yields an empty report.
func (f *Flow) WeeklyReport(ctx context.Context, session *Session, start, end time.Time) (*workday.WeeklyReport, error) {
	startStr := start.Format(workday.DateFormat)
	endStr := end.Format(workday.DateFormat)
	f.logger.Info("fetching report", "start", startStr, "end", endStr)

	form := &Form{Fields: []Field{
		{Name: "tipoInforme", Value: "1"},
		{Name: "movil", Value: "0"},
		{Name: "num", Value: "0"},
		{Name: "seleccionFechaInicio", Value: startStr},
		{Name: "seleccionFechaFin", Value: endStr},
	}}

	body, _, err := session.PostForm(ctx, f.endpoints.ReportURL, form)
	if err != nil {
		return nil, &ReportError{Reason: "report request failed", Err: err}
	}

	report, err := f.parseReport(body, start, end)
	if err != nil {
		return nil, err
	}
	f.logger.Info("report parsed", "days", report.TotalDays, "hours", report.TotalHours)
	return report, nil
}

// parseReport folds every well-formed table row into a WeeklyReport.
// Malformed rows are skipped with a warning; only a structural extractor
// failure is fatal.
func (f *Flow) parseReport(body []byte, start, end time.Time) (*workday.WeeklyReport, error) {
	report := workday.NewWeeklyReport(start, end)

	rows, err := f.tables.ExtractRows(bytes.NewReader(body), reportRowSelector)
	if err != nil {
		return nil, &ReportError{Reason: "report table parse failed", Err: err}
	}
	if len(rows) == 0 {
		f.logger.Warn("no report rows found")
		return report, nil
	}

	for _, cells := range rows {
		if len(cells) <= colEnd {
			f.logger.Warn("report row missing columns, skipping", "cells", len(cells))
			continue
		}

		startDT, err := time.Parse(workday.DateTimeFormat, cells[colStart])
		if err != nil {
			f.logger.Warn("bad start timestamp in report row, skipping", "value", cells[colStart])
			continue
		}
		endDT, err := time.Parse(workday.DateTimeFormat, cells[colEnd])
		if err != nil {
			f.logger.Warn("bad end timestamp in report row, skipping", "value", cells[colEnd])
			continue
		}

		dayType, location := classifyLabel(cells[colType])
		day := time.Date(startDT.Year(), startDT.Month(), startDT.Day(), 0, 0, 0, 0, startDT.Location())
		report.Add(workday.Registration{
			Date:      day,
			StartTime: startDT.Format("15:04"),
			EndTime:   endDT.Format("15:04"),
			Type:      dayType,
			Location:  location,
			Success:   true,
			Message:   "Retrieved from report",
		})
	}
	return report, nil
}

// classifyLabel maps the free-text type/location label of a report row to
// a workday type and location. Only three substrings are documented
// upstream; anything else defaults to telework with no location.
func classifyLabel(label string) (workday.Type, string) {
	upper := strings.ToUpper(label)
	switch {
	case strings.Contains(upper, "TELETRABAJO"):
		return workday.TypeTelework, "Home"
	case strings.Contains(upper, "FINCA"):
		return workday.TypeOffice, "La Finca"
	case strings.Contains(upper, "OFICINA"):
		return workday.TypeOffice, label
	default:
		return workday.TypeTelework, ""
	}
}
