package portal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:108.0) Gecko/20100101 Firefox/108.0"

// SessionConfig tunes the HTTP transport shared by all requests of one
// Session.
type SessionConfig struct {
	// Timeout bounds each individual HTTP call, not the whole flow.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts on 429/5xx or
	// transport errors. Zero disables retries.
	MaxRetries int
	// Backoff is the base delay between retries; it doubles per attempt.
	Backoff time.Duration
	// UserAgent overrides the browser user agent presented to the portal.
	UserAgent string
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Session is one cookie-carrying HTTP client context. Cookies set by one
// exchange are presented on the next; the authentication flow deliberately
// creates a second fresh Session for the downstream registration app.
type Session struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewSession creates a Session with an empty cookie jar.
func NewSession(config SessionConfig) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var transport http.RoundTripper = http.DefaultTransport
	if config.MaxRetries > 0 {
		backoff := config.Backoff
		if backoff <= 0 {
			backoff = 500 * time.Millisecond
		}
		transport = &retryTransport{
			base:       http.DefaultTransport,
			maxRetries: config.MaxRetries,
			backoff:    backoff,
			logger:     logger,
		}
	}

	return &Session{
		httpClient: &http.Client{
			Jar:       jar,
			Timeout:   config.Timeout,
			Transport: transport,
		},
		userAgent: userAgent,
		logger:    logger,
	}, nil
}

// Get performs a GET and returns the response body and status code.
func (s *Session) Get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	return s.do(req)
}

// PostForm performs a POST of the form's fields, urlencoded in field order.
func (s *Session) PostForm(ctx context.Context, url string, form *Form) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *Session) do(req *http.Request) ([]byte, int, error) {
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response from %s: %w", req.URL, err)
	}

	s.logger.Debug("portal request",
		"method", req.Method, "url", req.URL.String(), "status", resp.StatusCode)

	if resp.StatusCode >= 400 {
		return body, resp.StatusCode, fmt.Errorf("%s %s: status %d", req.Method, req.URL, resp.StatusCode)
	}
	return body, resp.StatusCode, nil
}

// Close releases the connection pool. Safe on every exit path.
func (s *Session) Close() {
	s.httpClient.CloseIdleConnections()
}

// retryTransport retries individual requests on 429/5xx and transport
// errors with doubling backoff. Retries apply per HTTP call only; a failed
// step never re-runs earlier steps of the flow.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error
	delay := t.backoff

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(delay):
			}
			delay *= 2

			// Requests with bodies need the body rewound for the retry.
			if req.Body != nil {
				if req.GetBody == nil {
					return nil, lastErr
				}
				body, err := req.GetBody()
				if err != nil {
					return nil, lastErr
				}
				req.Body = body
			}
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			lastErr = err
			t.logger.Debug("retrying request", "url", req.URL.String(), "attempt", attempt+1, "error", err)
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d from %s", resp.StatusCode, req.URL)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			t.logger.Debug("retrying request", "url", req.URL.String(), "attempt", attempt+1, "status", resp.StatusCode)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", t.maxRetries+1, lastErr)
}
