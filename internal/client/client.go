package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alecgard/groupdesk/internal/requestid"
)

const (
	serviceGroups = "groups"
	serviceAuth   = "auth"

	maxResponseSize = 4 << 20
	maxErrorBody    = 64 << 10

	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "groupdesk"
)

// MetricsRecorder is an optional interface for recording upstream metrics.
type MetricsRecorder interface {
	IncUpstreamRequests(service, route, method string, statusCode int)
	ObserveUpstreamDuration(service, route string, seconds float64)
	IncUpstreamError(errorType, service string)
	IncUnauthorizedRedirect()
}

// Options configures a Client.
type Options struct {
	GroupsBaseURL string
	AuthBaseURL   string
	HTTPClient    *http.Client
	Timeout       time.Duration
	UserAgent     string
	Metrics       MetricsRecorder
}

// Client talks to the groups and auth services. It is safe for concurrent
// use; per-caller state travels in the request context.
type Client struct {
	groupsBase string
	authBase   string
	http       *http.Client
	noRedirect *http.Client
	userAgent  string
	metrics    MetricsRecorder
	now        func() time.Time
}

// New creates a Client.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	// Same transport, but 3xx replies are handed back instead of followed.
	nr := *hc
	nr.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &Client{
		groupsBase: strings.TrimRight(opts.GroupsBaseURL, "/"),
		authBase:   strings.TrimRight(opts.AuthBaseURL, "/"),
		http:       hc,
		noRedirect: &nr,
		userAgent:  ua,
		metrics:    opts.Metrics,
		now:        time.Now,
	}
}

// SetMetrics sets the optional metrics recorder.
func (c *Client) SetMetrics(m MetricsRecorder) {
	c.metrics = m
}

// call describes one request against a backend.
type call struct {
	service string
	method  string
	// route is the path template, used as a low-cardinality metrics label.
	route string
	path  string
	query url.Values
	body  any
	out   any
	// keys are the envelope keys tried, in order, when unwrapping out.
	keys []string
	// passUnauthorized returns a 401 as an *APIError instead of a login redirect.
	passUnauthorized bool
	// noFollow hands 3xx replies back to the caller.
	noFollow bool
}

func (c *Client) baseURL(service string) string {
	if service == serviceAuth {
		return c.authBase
	}
	return c.groupsBase
}

// do runs a call, passing the response through intercept and decoding a
// successful body into out.
func (c *Client) do(ctx context.Context, cl call) error {
	resp, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.intercept(ctx, resp, cl.passUnauthorized); err != nil {
		return err
	}
	if cl.out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return c.transportError(cl.service, fmt.Errorf("reading response: %w", err))
	}
	if err := decodeInto(data, cl.out, cl.keys...); err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       "decode_error",
			Message:    "The server sent a response that could not be read.",
			Body:       data,
			Err:        err,
		}
	}
	return nil
}

// send builds and executes the request. The returned response has not been
// intercepted yet.
func (c *Client) send(ctx context.Context, cl call) (*http.Response, error) {
	target := c.baseURL(cl.service) + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	creds := CredentialsFromContext(ctx)
	if token := usableToken(creds.BearerToken, c.now()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, ck := range creds.Cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	hc := c.http
	if cl.noFollow {
		hc = c.noRedirect
	}

	start := time.Now()
	resp, err := hc.Do(req)
	latency := time.Since(start)

	if c.metrics != nil {
		c.metrics.ObserveUpstreamDuration(cl.service, cl.route, latency.Seconds())
	}
	if err != nil {
		if c.metrics != nil {
			c.metrics.IncUpstreamRequests(cl.service, cl.route, cl.method, 0)
		}
		return nil, c.transportError(cl.service, err)
	}
	if c.metrics != nil {
		c.metrics.IncUpstreamRequests(cl.service, cl.route, cl.method, resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) transportError(service string, err error) *APIError {
	if c.metrics != nil {
		c.metrics.IncUpstreamError(classifyTransportError(err), service)
	}
	return &APIError{
		StatusCode: 0,
		Code:       "network_error",
		Message:    ConnectivityMessage,
		Err:        err,
	}
}

// intercept turns every non-2xx response into an error. A 401 becomes an
// *UnauthorizedError pointing at the login page, with the caller's current
// URL as the referrer; anything else becomes an *APIError with one readable
// message.
func (c *Client) intercept(ctx context.Context, resp *http.Response, passUnauthorized bool) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return nil
	}

	if resp.StatusCode == http.StatusUnauthorized && !passUnauthorized {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		if c.metrics != nil {
			c.metrics.IncUnauthorizedRedirect()
		}
		return &UnauthorizedError{LoginURL: c.LoginURL(ReturnURLFromContext(ctx))}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	code, msg := extractMessage(body)
	if msg == "" {
		msg = serverErrorMessage(resp.StatusCode)
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       code,
		Message:    msg,
		Body:       body,
	}
}

// decodeInto unmarshals data into out. Bodies may be bare or wrapped in an
// object under one of keys, e.g. {"data": {...}} or {"groups": [...]}.
func decodeInto(data []byte, out any, keys ...string) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	if data[0] == '{' && len(keys) > 0 {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err == nil {
			for _, k := range keys {
				if raw, ok := obj[k]; ok {
					return json.Unmarshal(raw, out)
				}
			}
		}
	}
	return json.Unmarshal(data, out)
}

// itemKeys returns the envelope keys for a single resource.
func itemKeys(name string) []string {
	return []string{"data", name}
}

// listKeys returns the envelope keys for a collection.
func listKeys(name string) []string {
	return []string{"data", name, "items", "results"}
}

// p escapes a path segment.
func p(segment string) string {
	return url.PathEscape(segment)
}
