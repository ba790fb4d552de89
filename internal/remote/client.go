// Package remote implements availability.Store over the HTTP API served by
// internal/server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/javiermolinar/defensegrid/internal/api"
	"github.com/javiermolinar/defensegrid/internal/availability"
)

// Client errors.
var (
	ErrNoBaseURL         = errors.New("remote base url is required")
	ErrMalformedResponse = errors.New("malformed response")
)

const (
	defaultRetryMax = 3
	defaultTimeout  = 30 * time.Second
	maxBodySize     = 10 << 20
)

// Logger receives debug output of the client and its retries.
type Logger interface {
	Debugf(format string, args ...any)
}

// Config configures a Client.
type Config struct {
	BaseURL      string
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
	// Location of the local wall clock used by defense slots. Defaults to time.Local.
	Location *time.Location
	Logger   Logger
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Client talks to a remote availability store.
type Client struct {
	base *url.URL
	http *retryablehttp.Client
	loc  *time.Location
	log  Logger
}

var _ availability.Store = (*Client)(nil)

// New creates a client for the store at cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", cfg.BaseURL)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = defaultRetryMax
	if cfg.RetryMax > 0 {
		rc.RetryMax = cfg.RetryMax
	}
	if cfg.RetryWaitMin > 0 {
		rc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		rc.RetryWaitMax = cfg.RetryWaitMax
	}
	rc.HTTPClient.Timeout = defaultTimeout
	if cfg.Timeout > 0 {
		rc.HTTPClient.Timeout = cfg.Timeout
	}
	// Hand the last response back instead of a generic "giving up" error.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{base: base, http: rc, loc: cfg.Location, log: cfg.Logger}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.log == nil {
		rc.Logger = log.New(io.Discard, "", 0)
		c.log = discardLogger{}
	} else {
		rc.Logger = printfLogger{cfg.Logger}
	}

	return c, nil
}

// do sends a request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	u := c.base.JoinPath(path)
	u.RawQuery = query.Encode()

	var body any
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = b
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(api.HeaderRequestID, requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debugf("%s %s (request %s)", method, u.Path, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}

	return bytes.TrimSpace(data), nil
}

// FetchOfferings implements availability.Store.
func (c *Client) FetchOfferings(ctx context.Context, period availability.Period) ([]availability.Offering, error) {
	data, err := c.do(ctx, http.MethodGet, api.PathOfferings, api.PeriodQuery(period), nil)
	if err != nil {
		return nil, err
	}
	return decodeOfferings(data)
}

// FetchGrid implements availability.Store.
func (c *Client) FetchGrid(ctx context.Context, member availability.MemberID, offering availability.Offering) (*availability.Grid, error) {
	q := api.PeriodQuery(offering.Period())
	q.Set(api.ParamMember, string(member))

	data, err := c.do(ctx, http.MethodGet, api.PathGrid, q, nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %w", availability.ErrOfferingNotFound, err)
		}
		return nil, err
	}
	return decodeGrid(data)
}

// FetchScheduledDefenses implements availability.Store.
func (c *Client) FetchScheduledDefenses(ctx context.Context, period availability.Period) ([]availability.Defense, error) {
	data, err := c.do(ctx, http.MethodGet, api.PathDefenses, api.PeriodQuery(period), nil)
	if err != nil {
		return nil, err
	}
	return decodeDefenses(data, period, c.loc)
}

// ReplaceAvailability implements availability.Store.
func (c *Client) ReplaceAvailability(ctx context.Context, scope availability.Scope, records []availability.Record) error {
	q := api.PeriodQuery(scope.Period)
	q.Set(api.ParamMember, string(scope.Member))

	_, err := c.do(ctx, http.MethodPut, api.PathAvailability, q, api.FromRecords(records))
	return err
}

// DeleteAvailability implements availability.Store.
func (c *Client) DeleteAvailability(ctx context.Context, scope availability.Scope, key availability.Key) error {
	q := api.PeriodQuery(scope.Period)
	q.Set(api.ParamMember, string(scope.Member))
	q.Set(api.ParamDate, key.Date.String())
	q.Set(api.ParamTime, key.Time.String())

	_, err := c.do(ctx, http.MethodDelete, api.PathAvailability, q, nil)
	return err
}

type printfLogger struct{ l Logger }

func (p printfLogger) Printf(format string, args ...any) {
	p.l.Debugf(format, args...)
}

type discardLogger struct{}

func (discardLogger) Debugf(string, ...any) {}
