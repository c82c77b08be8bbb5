package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Selectors keyed to the portal's markup. The flow breaks with a
// ProtocolError when these stop matching.
const (
	bodyFormSelector  = "body form"
	loginFormSelector = "form#loginData"
)

var authTokenPattern = regexp.MustCompile(`Liferay\.authToken\s*=\s*'([^']+)'`)

// Endpoints are the fixed portal URLs the flow talks to.
type Endpoints struct {
	// PortalURL is the ViveOrange entry point (step 1).
	PortalURL string
	// OAMBaseURL prefixes the relative login form action (step 2).
	OAMBaseURL string
	// RegistrationPageURL serves the page embedding the auth token (step 5).
	RegistrationPageURL string
	// InvokeURL is the jsonws invocation endpoint (step 5).
	InvokeURL string
	// ActionURL receives registration POSTs.
	ActionURL string
	// ReportURL receives report queries.
	ReportURL string
}

// Credentials are the decrypted portal credentials for one employee.
type Credentials struct {
	Username     string
	Password     string
	EmployeeCode int
}

// Flow drives the portal's fixed authentication and HR operations against
// a caller-owned Session. It holds no per-invocation state.
type Flow struct {
	endpoints Endpoints
	creds     Credentials
	forms     FormExtractor
	tables    TableExtractor
	logger    *slog.Logger

	// newSession creates the second Session for the registration app.
	// Overridable in tests.
	newSession func() (*Session, error)
}

// FlowConfig configures a Flow.
type FlowConfig struct {
	Endpoints   Endpoints
	Credentials Credentials
	// Forms overrides the HTML form extractor. If nil, goquery is used.
	Forms FormExtractor
	// Tables overrides the HTML table extractor. If nil, goquery is used.
	Tables TableExtractor
	// NewSession creates the fresh downstream Session; required.
	NewSession func() (*Session, error)
	Logger     *slog.Logger
}

// NewFlow creates a Flow.
func NewFlow(config FlowConfig) (*Flow, error) {
	if config.Endpoints.PortalURL == "" {
		return nil, fmt.Errorf("portal: PortalURL is required")
	}
	if config.NewSession == nil {
		return nil, fmt.Errorf("portal: NewSession is required")
	}
	forms := config.Forms
	if forms == nil {
		forms = HTMLExtractor{}
	}
	tables := config.Tables
	if tables == nil {
		tables = HTMLExtractor{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		endpoints:  config.Endpoints,
		creds:      config.Credentials,
		forms:      forms,
		tables:     tables,
		logger:     logger,
		newSession: config.NewSession,
	}, nil
}

// Authenticate runs the four-step OAM login sequence on the given Session.
// The sequence is strictly linear: a failed step aborts the whole flow and
// nothing is retried here.
func (f *Flow) Authenticate(ctx context.Context, session *Session) error {
	f.logger.Info("authenticating", "step", 1, "url", f.endpoints.PortalURL)
	oamForm, err := f.stepInitial(ctx, session)
	if err != nil {
		return err
	}

	f.logger.Info("authenticating", "step", 2, "url", oamForm.Action)
	loginURL, loginForm, err := f.stepOAMRedirect(ctx, session, oamForm)
	if err != nil {
		return err
	}

	f.logger.Info("authenticating", "step", 3, "url", loginURL)
	returnForm, err := f.stepSubmitLogin(ctx, session, loginURL, loginForm)
	if err != nil {
		return err
	}

	f.logger.Info("authenticating", "step", 4, "url", returnForm.Action)
	if _, _, err := session.PostForm(ctx, returnForm.Action, returnForm); err != nil {
		return fmt.Errorf("return to portal: %w", err)
	}

	f.logger.Info("authentication successful", "username", f.creds.Username)
	return nil
}

// stepInitial GETs the portal root and extracts the OAM redirect form.
func (f *Flow) stepInitial(ctx context.Context, session *Session) (*Form, error) {
	body, _, err := session.Get(ctx, f.endpoints.PortalURL)
	if err != nil {
		return nil, fmt.Errorf("portal root: %w", err)
	}

	form, err := f.forms.ExtractForm(bytes.NewReader(body), bodyFormSelector)
	if errors.Is(err, ErrNoForm) {
		return nil, &ProtocolError{Step: "initial request", Element: bodyFormSelector}
	}
	if err != nil {
		return nil, fmt.Errorf("initial request: %w", err)
	}
	return form, nil
}

// stepOAMRedirect submits the redirect form and builds the login payload:
// hidden fields copied verbatim except the credential overrides.
func (f *Flow) stepOAMRedirect(ctx context.Context, session *Session, oamForm *Form) (string, *Form, error) {
	body, _, err := session.PostForm(ctx, oamForm.Action, oamForm)
	if err != nil {
		return "", nil, fmt.Errorf("oam redirect: %w", err)
	}

	form, err := f.forms.ExtractForm(bytes.NewReader(body), loginFormSelector)
	if errors.Is(err, ErrNoForm) {
		return "", nil, &ProtocolError{Step: "oam redirect", Element: loginFormSelector}
	}
	if err != nil {
		return "", nil, fmt.Errorf("oam redirect: %w", err)
	}

	// The login form's action is relative to the OAM host.
	loginURL := f.endpoints.OAMBaseURL + form.Action

	login := &Form{Action: form.Action}
	for _, field := range form.Fields {
		switch field.Name {
		case "username":
			login.Fields = append(login.Fields, Field{Name: "username", Value: f.creds.Username})
		case "password":
			login.Fields = append(login.Fields, Field{Name: "password", Value: f.creds.Password})
		default:
			login.Fields = append(login.Fields, field)
		}
	}
	// Force-set regardless of what the form declared.
	login.Set("temp-username", f.creds.Username)
	login.Set("password", f.creds.Password)

	return loginURL, login, nil
}

// stepSubmitLogin POSTs the credentials. A response without the return
// form means the identity provider rejected them.
func (f *Flow) stepSubmitLogin(ctx context.Context, session *Session, loginURL string, login *Form) (*Form, error) {
	body, _, err := session.PostForm(ctx, loginURL, login)
	if err != nil {
		return nil, fmt.Errorf("submit login: %w", err)
	}

	form, err := f.forms.ExtractForm(bytes.NewReader(body), bodyFormSelector)
	if errors.Is(err, ErrNoForm) {
		return nil, &InvalidCredentialsError{Username: f.creds.Username}
	}
	if err != nil {
		return nil, fmt.Errorf("submit login: %w", err)
	}
	return form, nil
}

// EnterRegistrationApp bridges from the authenticated portal Session into
// the downstream registration application: it scrapes the page auth token,
// asks the invoke endpoint for a signed entry URL, then opens that URL with
// a brand-new Session whose cookies are scoped to the registration app.
// The returned Session is owned by the caller and must be closed.
func (f *Flow) EnterRegistrationApp(ctx context.Context, session *Session) (*Session, error) {
	body, _, err := session.Get(ctx, f.endpoints.RegistrationPageURL)
	if err != nil {
		return nil, fmt.Errorf("registration page: %w", err)
	}

	match := authTokenPattern.FindSubmatch(body)
	if match == nil {
		return nil, &ProtocolError{Step: "registration page", Element: "Liferay.authToken"}
	}
	token := string(match[1])

	command, err := autologinCommand(f.creds.EmployeeCode)
	if err != nil {
		return nil, fmt.Errorf("build autologin command: %w", err)
	}

	invoke := &Form{Fields: []Field{
		{Name: "cmd", Value: command},
		{Name: "p_auth", Value: token},
	}}
	body, _, err = session.PostForm(ctx, f.endpoints.InvokeURL, invoke)
	if err != nil {
		return nil, fmt.Errorf("autologin invoke: %w", err)
	}

	entryURL := cleanEntryURL(string(body))
	if !strings.HasPrefix(entryURL, "http") {
		return nil, &ProtocolError{Step: "autologin invoke", Element: "signed entry URL"}
	}
	f.logger.Debug("entering registration app", "url", entryURL)

	// Fresh session: the registration app issues its own session cookie
	// and the portal cookies must not carry over.
	appSession, err := f.newSession()
	if err != nil {
		return nil, fmt.Errorf("create registration session: %w", err)
	}
	if _, _, err := appSession.Get(ctx, entryURL); err != nil {
		appSession.Close()
		return nil, fmt.Errorf("open registration app: %w", err)
	}
	return appSession, nil
}

// autologinCommand builds the inner jsonws command envelope.
func autologinCommand(employeeCode int) (string, error) {
	command := map[string]map[string]int{
		"/vo_autologin.autologin/get-registra-tu-jornada": {
			"employeeNumber": employeeCode,
		},
	}
	data, err := json.Marshal(command)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// cleanEntryURL strips the JSON string quoting and escapes from the invoke
// response, which is a bare quoted URL.
func cleanEntryURL(body string) string {
	s := strings.TrimSpace(body)
	s = strings.ReplaceAll(s, `\`, "")
	return strings.Trim(s, `"`)
}
