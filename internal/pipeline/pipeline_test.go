package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mrivasf/jornada/internal/calendar"
	"github.com/mrivasf/jornada/internal/config"
	"github.com/mrivasf/jornada/internal/portal"
	"github.com/mrivasf/jornada/internal/store"
	"github.com/mrivasf/jornada/internal/workday"
)

// fakeBackend simulates the whole chain end to end: portal login, app
// entry, registration action and report query.
type fakeBackend struct {
	server   *httptest.Server
	requests map[string]int

	registered []string // fechaini values received by the action endpoint
	failAction bool
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{requests: map[string]int{}}
	mux := http.NewServeMux()
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.requests[r.URL.Path]++
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.server.Close)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><form action="%s/oam" method="post">
			<input type="hidden" name="OAM_REQ" value="req-1">
		</form></body></html>`, b.server.URL)
	})
	mux.HandleFunc("/oam", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><form id="loginData" action="/login" method="post">
			<input type="hidden" name="username" value="">
			<input type="hidden" name="password" value="">
		</form></body></html>`)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("username") != "jdoe" || r.PostForm.Get("password") != "hunter2" {
			io.WriteString(w, `<html><body><p>Login failed</p></body></html>`)
			return
		}
		fmt.Fprintf(w, `<html><body><form action="%s/return" method="post">
			<input type="hidden" name="SAMLResponse" value="resp-1">
		</form></body></html>`, b.server.URL)
	})
	mux.HandleFunc("/return", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "PORTAL_SESSION", Value: "p-1"})
		io.WriteString(w, "<html><body>ok</body></html>")
	})
	mux.HandleFunc("/registro", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><head><script>Liferay.authToken = 'tok-42';</script></head><body></body></html>`)
	})
	mux.HandleFunc("/invoke", func(w http.ResponseWriter, r *http.Request) {
		escaped := strings.ReplaceAll(b.server.URL, "/", `\/`)
		fmt.Fprintf(w, `"%s\/entry?ticket=t-7"`, escaped)
	})
	mux.HandleFunc("/entry", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "REG_SESSION", Value: "r-1"})
		io.WriteString(w, "<html><body>app</body></html>")
	})
	mux.HandleFunc("/accion", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("REG_SESSION"); err != nil || c.Value != "r-1" {
			http.Error(w, "no app session", http.StatusForbidden)
			return
		}
		if b.failAction {
			io.WriteString(w, "<html><body>Error: registro no disponible</body></html>")
			return
		}
		r.ParseForm()
		b.registered = append(b.registered, r.PostForm.Get("fechaini"))
		io.WriteString(w, "<html><body>Registro completado</body></html>")
	})
	mux.HandleFunc("/informe", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("REG_SESSION"); err != nil || c.Value != "r-1" {
			http.Error(w, "no app session", http.StatusForbidden)
			return
		}
		io.WriteString(w, `<html><body><table id="tblEventos"><tbody>
			<tr><td>1001</td><td>DOE, JOHN</td><td>08/12/2025 08:00</td><td>TELETRABAJO</td><td>08/12/2025 18:00</td><td>10:00</td></tr>
			<tr><td>1001</td><td>DOE, JOHN</td><td>09/12/2025 09:00</td><td>SEDE LA FINCA</td><td>09/12/2025 17:00</td><td>8:00</td></tr>
			</tbody></table></body></html>`)
	})

	return b
}

func testConfig(b *fakeBackend) *config.Config {
	cfg := config.Default()
	cfg.URLs = config.URLs{
		Portal:           b.server.URL + "/",
		OAMBase:          b.server.URL,
		RegistrationPage: b.server.URL + "/registro",
		Invoke:           b.server.URL + "/invoke",
		Action:           b.server.URL + "/accion",
		Report:           b.server.URL + "/informe",
	}
	cfg.Timezone = "UTC"
	return cfg
}

func newTestPipeline(t *testing.T, b *fakeBackend, s *store.Store) *Pipeline {
	t.Helper()
	cfg := testConfig(b)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := New(Config{
		Config:      cfg,
		Credentials: portal.Credentials{Username: "jdoe", Password: "hunter2", EmployeeCode: 12345},
		Classifier: &calendar.Classifier{
			Calendar:     &calendar.Calendar{},
			Region:       cfg.Region,
			TeleworkDays: cfg.Schedule.TeleworkDays,
		},
		Store:  s,
		Logger: logger,
		NewSession: func() (*portal.Session, error) {
			return portal.NewSession(portal.SessionConfig{Timeout: 5 * time.Second, Logger: logger})
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func memStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Planning
// ============================================================

func TestPlanRegistration(t *testing.T) {
	p := newTestPipeline(t, newFakeBackend(t), nil)
	day := time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC)

	reg := p.PlanRegistration(day, workday.TypeTelework)
	if reg.StartTime != "08:00" || reg.EndTime != "18:00" {
		t.Fatalf("unexpected schedule: %s-%s", reg.StartTime, reg.EndTime)
	}
	if reg.Location != LocationHome {
		t.Fatalf("telework location = %q, want %q", reg.Location, LocationHome)
	}

	office := p.PlanRegistration(day, workday.TypeOffice)
	if office.Location != LocationOffice {
		t.Fatalf("office location = %q, want %q", office.Location, LocationOffice)
	}
}

func TestPlanRegistrationForcedDayFollowsWeekday(t *testing.T) {
	p := newTestPipeline(t, newFakeBackend(t), nil)

	// A holiday forced on a Tuesday (configured telework day) submits as
	// telework from home.
	tuesday := time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC)
	reg := p.PlanRegistration(tuesday, workday.TypeHoliday)
	if reg.Type != workday.TypeTelework || reg.Location != LocationHome {
		t.Fatalf("forced Tuesday = %+v", reg)
	}

	// The same forced on a Wednesday submits as an office day.
	wednesday := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)
	reg = p.PlanRegistration(wednesday, workday.TypeVacation)
	if reg.Type != workday.TypeOffice || reg.Location != LocationOffice {
		t.Fatalf("forced Wednesday = %+v", reg)
	}
}

func TestClassifyUsesConfiguredTeleworkDays(t *testing.T) {
	p := newTestPipeline(t, newFakeBackend(t), nil)

	// 2025-12-09 is a Tuesday; default telework days are Monday/Tuesday.
	got := p.Classify(time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC))
	if got.Type != workday.TypeTelework || !got.Register {
		t.Fatalf("classification = %+v", got)
	}
	// Wednesday is an office day needing confirmation.
	got = p.Classify(time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC))
	if got.Type != workday.TypeOffice || got.Register {
		t.Fatalf("classification = %+v", got)
	}
}

// ============================================================
// Registration run
// ============================================================

func TestRegisterDay(t *testing.T) {
	b := newFakeBackend(t)
	s := memStore(t)
	p := newTestPipeline(t, b, s)

	day := time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC)
	reg := p.PlanRegistration(day, workday.TypeTelework)

	result, report, err := p.RegisterDay(context.Background(), reg)
	if err != nil {
		t.Fatalf("RegisterDay: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(b.registered) != 1 || b.registered[0] != "09/12/2025 08:00" {
		t.Fatalf("action received %v", b.registered)
	}
	if report == nil || report.TotalDays != 2 {
		t.Fatalf("expected refreshed report, got %+v", report)
	}

	// Both the attempt and the report rows land in the store.
	rec, err := s.LastRegistration(day)
	if err != nil || rec == nil || !rec.Success {
		t.Fatalf("stored attempt = %+v, err %v", rec, err)
	}
	rows, err := s.ListRecords(store.RecordFilter{Source: store.SourceReport})
	if err != nil || len(rows) != 2 {
		t.Fatalf("stored report rows = %d, err %v", len(rows), err)
	}
}

func TestRegisterDayActionFailure(t *testing.T) {
	b := newFakeBackend(t)
	b.failAction = true
	s := memStore(t)
	p := newTestPipeline(t, b, s)

	day := time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC)
	_, _, err := p.RegisterDay(context.Background(), p.PlanRegistration(day, workday.TypeTelework))
	if err == nil {
		t.Fatal("expected registration error")
	}

	// The failed attempt is still recorded, and no report ran.
	rec, err2 := s.LastRegistration(day)
	if err2 != nil || rec == nil || rec.Success {
		t.Fatalf("stored attempt = %+v, err %v", rec, err2)
	}
	if b.requests["/informe"] != 0 {
		t.Fatalf("report must not run after a failed registration, got %d calls", b.requests["/informe"])
	}
}

func TestRegisterDayValidatesBeforeNetwork(t *testing.T) {
	b := newFakeBackend(t)
	p := newTestPipeline(t, b, nil)

	bad := workday.Registration{
		Date:      time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC),
		StartTime: "25:00",
		EndTime:   "18:00",
		Type:      workday.TypeTelework,
		Location:  LocationHome,
	}
	if _, _, err := p.RegisterDay(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
	total := 0
	for _, n := range b.requests {
		total += n
	}
	if total != 0 {
		t.Fatalf("expected no network traffic, got %d requests", total)
	}
}

// ============================================================
// Report run
// ============================================================

func TestWeeklyReport(t *testing.T) {
	b := newFakeBackend(t)
	s := memStore(t)
	p := newTestPipeline(t, b, s)

	report, err := p.WeeklyReport(context.Background(), false)
	if err != nil {
		t.Fatalf("WeeklyReport: %v", err)
	}
	if report.TotalDays != 2 || report.TeleworkDays != 1 || report.OfficeDays != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	rows, err := s.ListRecords(store.RecordFilter{Source: store.SourceReport})
	if err != nil || len(rows) != 2 {
		t.Fatalf("stored report rows = %d, err %v", len(rows), err)
	}
}

func TestWeeklyReportWithoutStore(t *testing.T) {
	p := newTestPipeline(t, newFakeBackend(t), nil)
	if _, err := p.WeeklyReport(context.Background(), true); err != nil {
		t.Fatalf("WeeklyReport without store: %v", err)
	}
}

func TestRunsAreSerialized(t *testing.T) {
	b := newFakeBackend(t)
	p := newTestPipeline(t, b, nil)

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := p.WeeklyReport(context.Background(), false)
			done <- err
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent run: %v", err)
		}
	}
	if b.requests["/informe"] != 2 {
		t.Fatalf("expected 2 report calls, got %d", b.requests["/informe"])
	}
}
