// Package pipeline runs the end-to-end portal operations: authenticate,
// enter the registration app, register a day, fetch the weekly report. One
// run owns both Sessions and closes them before returning.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mrivasf/jornada/internal/calendar"
	"github.com/mrivasf/jornada/internal/config"
	"github.com/mrivasf/jornada/internal/portal"
	"github.com/mrivasf/jornada/internal/store"
	"github.com/mrivasf/jornada/internal/workday"
)

// Locations presented to the portal per workday type.
const (
	LocationHome   = "Home"
	LocationOffice = "La Finca"
)

// Pipeline serializes portal runs. The portal tolerates one active
// session per employee, so concurrent triggers queue on the mutex.
type Pipeline struct {
	mu sync.Mutex

	config     *config.Config
	creds      portal.Credentials
	classifier *calendar.Classifier
	store      *store.Store
	logger     *slog.Logger

	// newSession builds a fresh cookie-isolated Session; overridable in
	// tests.
	newSession func() (*portal.Session, error)
}

// Config wires a Pipeline. Store may be nil when history is not wanted.
type Config struct {
	Config      *config.Config
	Credentials portal.Credentials
	Classifier  *calendar.Classifier
	Store       *store.Store
	Logger      *slog.Logger
	// NewSession overrides the Session factory, for tests.
	NewSession func() (*portal.Session, error)
}

func New(cfg Config) (*Pipeline, error) {
	if cfg.Config == nil {
		return nil, fmt.Errorf("pipeline: Config is required")
	}
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("pipeline: Classifier is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		config:     cfg.Config,
		creds:      cfg.Credentials,
		classifier: cfg.Classifier,
		store:      cfg.Store,
		logger:     logger,
	}
	p.newSession = cfg.NewSession
	if p.newSession == nil {
		p.newSession = func() (*portal.Session, error) {
			return portal.NewSession(portal.SessionConfig{
				Timeout:    cfg.Config.Timeout(),
				MaxRetries: cfg.Config.HTTP.MaxRetries,
				Backoff:    cfg.Config.Backoff(),
				Logger:     logger,
			})
		}
	}
	return p, nil
}

// Classify is the no-network part of the day flow: it decides what kind
// of day a date is and whether registration may proceed unattended.
func (p *Pipeline) Classify(day time.Time) calendar.Classification {
	return p.classifier.Classify(day)
}

// PlanRegistration fills in the portal registration for a day of the given
// type using the configured schedule.
func (p *Pipeline) PlanRegistration(day time.Time, dayType workday.Type) workday.Registration {
	reg := workday.Registration{
		Date:      day,
		StartTime: p.config.Schedule.StartTime,
		EndTime:   p.config.Schedule.EndTime,
		Type:      dayType,
	}
	switch dayType {
	case workday.TypeTelework:
		reg.Location = LocationHome
	case workday.TypeOffice:
		reg.Location = LocationOffice
	default:
		// Forcing a holiday or vacation submits a regular workday for
		// that weekday.
		if p.isTeleworkWeekday(day) {
			reg.Type = workday.TypeTelework
			reg.Location = LocationHome
		} else {
			reg.Type = workday.TypeOffice
			reg.Location = LocationOffice
		}
	}
	return reg
}

func (p *Pipeline) isTeleworkWeekday(day time.Time) bool {
	iso := int(day.Weekday())
	if iso == 0 {
		iso = 7
	}
	for _, d := range p.config.Schedule.TeleworkDays {
		if d == iso {
			return true
		}
	}
	return false
}

// RegisterDay registers the given workday and returns the registration
// outcome together with the refreshed report for that day's week.
func (p *Pipeline) RegisterDay(ctx context.Context, reg workday.Registration) (workday.Registration, *workday.WeeklyReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := reg.Validate(); err != nil {
		return reg, nil, &portal.ValidationError{Reason: err.Error()}
	}

	flow, appSession, err := p.open(ctx)
	if err != nil {
		return reg, nil, err
	}
	defer appSession.Close()

	result, err := flow.RegisterWorkday(ctx, appSession, reg)
	p.record(result)
	if err != nil {
		return result, nil, err
	}

	monday, friday := workday.WeekRange(reg.Date, false)
	report, err := flow.WeeklyReport(ctx, appSession, monday, friday)
	if err != nil {
		// The registration stands; report refresh is best effort here.
		p.logger.Warn("post-registration report failed", "error", err)
		return result, nil, nil
	}
	p.storeReport(report)
	return result, report, nil
}

// WeeklyReport fetches the current (or previous) week's report.
func (p *Pipeline) WeeklyReport(ctx context.Context, previous bool) (*workday.WeeklyReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	flow, appSession, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	defer appSession.Close()

	monday, friday := workday.WeekRange(time.Now().In(p.config.Location()), previous)
	report, err := flow.WeeklyReport(ctx, appSession, monday, friday)
	if err != nil {
		return nil, err
	}
	p.storeReport(report)
	return report, nil
}

// open authenticates against the portal and hands back the registration
// app session. The portal session is closed before returning; its cookies
// must not leak downstream.
func (p *Pipeline) open(ctx context.Context) (*portal.Flow, *portal.Session, error) {
	flow, err := portal.NewFlow(portal.FlowConfig{
		Endpoints: portal.Endpoints{
			PortalURL:           p.config.URLs.Portal,
			OAMBaseURL:          p.config.URLs.OAMBase,
			RegistrationPageURL: p.config.URLs.RegistrationPage,
			InvokeURL:           p.config.URLs.Invoke,
			ActionURL:           p.config.URLs.Action,
			ReportURL:           p.config.URLs.Report,
		},
		Credentials: p.creds,
		NewSession:  p.newSession,
		Logger:      p.logger,
	})
	if err != nil {
		return nil, nil, err
	}

	portalSession, err := p.newSession()
	if err != nil {
		return nil, nil, fmt.Errorf("create portal session: %w", err)
	}
	defer portalSession.Close()

	if err := flow.Authenticate(ctx, portalSession); err != nil {
		return nil, nil, err
	}
	appSession, err := flow.EnterRegistrationApp(ctx, portalSession)
	if err != nil {
		return nil, nil, err
	}
	return flow, appSession, nil
}

func (p *Pipeline) record(reg workday.Registration) {
	if p.store == nil {
		return
	}
	if _, err := p.store.RecordRegistration(reg); err != nil {
		p.logger.Warn("record registration", "error", err)
	}
}

func (p *Pipeline) storeReport(report *workday.WeeklyReport) {
	if p.store == nil {
		return
	}
	if err := p.store.ReplaceReportRows(report); err != nil {
		p.logger.Warn("store report rows", "error", err)
	}
}
