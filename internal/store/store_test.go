package store

import (
	"testing"
	"time"

	"github.com/mrivasf/jornada/internal/workday"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// day builds a midnight timestamp for a YYYY-MM-DD literal.
func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse day %q: %v", s, err)
	}
	return d
}

func teleworkReg(t *testing.T, ds, start, end string) workday.Registration {
	t.Helper()
	return workday.Registration{
		Date:      day(t, ds),
		StartTime: start,
		EndTime:   end,
		Type:      workday.TypeTelework,
		Location:  "Home",
		Success:   true,
	}
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Should have run migration v1
	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/jornada.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen should succeed and not re-migrate
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	// Running migrate again should be a no-op
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Registration attempts
// ============================================================

func TestRecordRegistration(t *testing.T) {
	s := newTestStore(t)

	reg := teleworkReg(t, "2023-05-02", "08:00", "18:00")
	reg.Message = "Registered successfully: 08:00-18:00"
	r, err := s.RecordRegistration(reg)
	if err != nil {
		t.Fatal(err)
	}
	if r.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	if r.Day != "2023-05-02" || r.StartTime != "08:00" || r.EndTime != "18:00" {
		t.Fatalf("unexpected record: %+v", r)
	}
	if r.DayType != "telework" || r.Location != "Home" {
		t.Fatalf("unexpected type/location: %+v", r)
	}
	if r.Hours != 10.0 {
		t.Fatalf("expected 10 hours, got %v", r.Hours)
	}
	if !r.Success {
		t.Fatal("expected success flag")
	}
	if r.Source != SourceRegistration {
		t.Fatalf("expected source %q, got %q", SourceRegistration, r.Source)
	}
}

func TestRecordFailedRegistration(t *testing.T) {
	s := newTestStore(t)

	reg := teleworkReg(t, "2023-05-02", "08:00", "18:00")
	reg.Success = false
	reg.Message = "portal rejected the request"
	r, err := s.RecordRegistration(reg)
	if err != nil {
		t.Fatal(err)
	}
	if r.Success {
		t.Fatal("expected failure flag")
	}
	if r.Message != "portal rejected the request" {
		t.Fatalf("unexpected message: %q", r.Message)
	}
}

func TestLastRegistration(t *testing.T) {
	s := newTestStore(t)

	d := day(t, "2023-05-02")
	if got, err := s.LastRegistration(d); err != nil || got != nil {
		t.Fatalf("expected nil record for empty store, got %+v err %v", got, err)
	}

	first := teleworkReg(t, "2023-05-02", "08:00", "17:00")
	first.Success = false
	if _, err := s.RecordRegistration(first); err != nil {
		t.Fatal(err)
	}
	second := teleworkReg(t, "2023-05-02", "08:00", "18:00")
	if _, err := s.RecordRegistration(second); err != nil {
		t.Fatal(err)
	}

	got, err := s.LastRegistration(d)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.EndTime != "18:00" || !got.Success {
		t.Fatalf("expected latest attempt, got %+v", got)
	}
}

// ============================================================
// Report rows
// ============================================================

func weekReport(t *testing.T) *workday.WeeklyReport {
	t.Helper()
	rep := workday.NewWeeklyReport(day(t, "2023-05-01"), day(t, "2023-05-05"))
	rep.Add(teleworkReg(t, "2023-05-02", "08:00", "16:00"))
	office := teleworkReg(t, "2023-05-03", "09:00", "18:00")
	office.Type = workday.TypeOffice
	office.Location = "La Finca"
	rep.Add(office)
	return rep
}

func TestReplaceReportRows(t *testing.T) {
	s := newTestStore(t)

	if err := s.ReplaceReportRows(weekReport(t)); err != nil {
		t.Fatal(err)
	}

	records, err := s.ListRecords(RecordFilter{Source: SourceReport})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 report rows, got %d", len(records))
	}
	// Ordered day DESC.
	if records[0].Day != "2023-05-03" || records[1].Day != "2023-05-02" {
		t.Fatalf("unexpected order: %s, %s", records[0].Day, records[1].Day)
	}
}

func TestReplaceReportRowsIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	if err := s.ReplaceReportRows(weekReport(t)); err != nil {
		t.Fatal(err)
	}
	// A refresh of the same week must not duplicate rows.
	if err := s.ReplaceReportRows(weekReport(t)); err != nil {
		t.Fatal(err)
	}

	records, err := s.ListRecords(RecordFilter{Source: SourceReport})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 report rows after refresh, got %d", len(records))
	}
}

func TestReplaceReportRowsKeepsRegistrationRows(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.RecordRegistration(teleworkReg(t, "2023-05-02", "08:00", "18:00")); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceReportRows(weekReport(t)); err != nil {
		t.Fatal(err)
	}

	records, err := s.ListRecords(RecordFilter{Source: SourceRegistration})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("registration rows must survive a report refresh, got %d", len(records))
	}
}

// ============================================================
// Queries
// ============================================================

func TestListRecordsFilters(t *testing.T) {
	s := newTestStore(t)
	if err := s.ReplaceReportRows(weekReport(t)); err != nil {
		t.Fatal(err)
	}

	byType, err := s.ListRecords(RecordFilter{DayType: "office"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byType) != 1 || byType[0].Location != "La Finca" {
		t.Fatalf("unexpected office rows: %+v", byType)
	}

	ranged, err := s.ListRecords(RecordFilter{From: "2023-05-03", To: "2023-05-05"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ranged) != 1 || ranged[0].Day != "2023-05-03" {
		t.Fatalf("unexpected ranged rows: %+v", ranged)
	}

	limited, err := s.ListRecords(RecordFilter{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 row with limit, got %d", len(limited))
	}
}

func TestGetDailyHours(t *testing.T) {
	s := newTestStore(t)
	if err := s.ReplaceReportRows(weekReport(t)); err != nil {
		t.Fatal(err)
	}

	hours, err := s.GetDailyHours(day(t, "2023-05-01"), day(t, "2023-05-05"))
	if err != nil {
		t.Fatal(err)
	}
	if len(hours) != 2 {
		t.Fatalf("expected 2 days, got %d", len(hours))
	}
	if hours[0].Day != "2023-05-02" || hours[0].Hours != 8.0 {
		t.Fatalf("unexpected first day: %+v", hours[0])
	}
	if hours[1].Day != "2023-05-03" || hours[1].Hours != 9.0 {
		t.Fatalf("unexpected second day: %+v", hours[1])
	}
}
