package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mrivasf/jornada/internal/workday"
)

const dayFormat = "2006-01-02"

// RecordRegistration persists the outcome of a registration attempt.
func (s *Store) RecordRegistration(reg workday.Registration) (*Record, error) {
	res, err := s.db.Exec(
		`INSERT INTO registrations (day, start_time, end_time, day_type, location, hours, success, message, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reg.Date.Format(dayFormat), reg.StartTime, reg.EndTime,
		string(reg.Type), reg.Location, reg.Hours(), boolToInt(reg.Success), reg.Message,
		SourceRegistration,
	)
	if err != nil {
		return nil, fmt.Errorf("record registration: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetRecord(id)
}

// ReplaceReportRows drops previously stored report rows inside the report's
// date range and inserts the fresh ones, in a single transaction.
func (s *Store) ReplaceReportRows(report *workday.WeeklyReport) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`DELETE FROM registrations WHERE source = ? AND day >= ? AND day <= ?`,
		SourceReport, report.StartDate.Format(dayFormat), report.EndDate.Format(dayFormat),
	)
	if err != nil {
		return fmt.Errorf("delete report rows: %w", err)
	}

	for _, reg := range report.Sorted() {
		_, err = tx.Exec(
			`INSERT INTO registrations (day, start_time, end_time, day_type, location, hours, success, message, source)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			reg.Date.Format(dayFormat), reg.StartTime, reg.EndTime,
			string(reg.Type), reg.Location, reg.Hours(), boolToInt(reg.Success), reg.Message,
			SourceReport,
		)
		if err != nil {
			return fmt.Errorf("insert report row %s: %w", reg.Date.Format(dayFormat), err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetRecord(id int64) (*Record, error) {
	r := &Record{}
	var success int
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, day, start_time, end_time, day_type, location, hours, success, message, source, created_at
		 FROM registrations WHERE id = ?`, id,
	).Scan(&r.ID, &r.Day, &r.StartTime, &r.EndTime, &r.DayType, &r.Location,
		&r.Hours, &success, &r.Message, &r.Source, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	r.Success = success != 0
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return r, nil
}

// LastRegistration returns the most recent registration attempt for a day,
// or nil when none was recorded.
func (s *Store) LastRegistration(day time.Time) (*Record, error) {
	var id int64
	err := s.db.QueryRow(
		`SELECT id FROM registrations WHERE day = ? AND source = ? ORDER BY id DESC LIMIT 1`,
		day.Format(dayFormat), SourceRegistration,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last registration: %w", err)
	}
	return s.GetRecord(id)
}

func (s *Store) ListRecords(f RecordFilter) ([]Record, error) {
	query := `SELECT id, day, start_time, end_time, day_type, location, hours, success, message, source, created_at
		FROM registrations WHERE 1=1`
	var args []any

	if f.From != "" {
		query += ` AND day >= ?`
		args = append(args, f.From)
	}
	if f.To != "" {
		query += ` AND day <= ?`
		args = append(args, f.To)
	}
	if f.Source != "" {
		query += ` AND source = ?`
		args = append(args, f.Source)
	}
	if f.DayType != "" {
		query += ` AND day_type = ?`
		args = append(args, f.DayType)
	}
	query += ` ORDER BY day DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var success int
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Day, &r.StartTime, &r.EndTime, &r.DayType, &r.Location,
			&r.Hours, &success, &r.Message, &r.Source, &createdAt); err != nil {
			return nil, err
		}
		r.Success = success != 0
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetDailyHours aggregates report hours per day over [from, to], most
// recent registration row winning when no report row exists for a day.
func (s *Store) GetDailyHours(from, to time.Time) ([]DailyHours, error) {
	rows, err := s.db.Query(`
		SELECT day, day_type, location, MAX(hours)
		FROM registrations
		WHERE day >= ? AND day <= ?
		GROUP BY day
		ORDER BY day`,
		from.Format(dayFormat), to.Format(dayFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("daily hours: %w", err)
	}
	defer rows.Close()

	var out []DailyHours
	for rows.Next() {
		var dh DailyHours
		if err := rows.Scan(&dh.Day, &dh.DayType, &dh.Location, &dh.Hours); err != nil {
			return nil, err
		}
		out = append(out, dh)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
