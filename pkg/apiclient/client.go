// Package apiclient is the single point through which the dashboard backend is
// called. It forwards the session cookie, normalizes JSON, mislabeled JSON and
// plain-text bodies into one Response shape, and turns failures into
// HTTPError or NetworkError values.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/language"

	"github.com/samvad-hq/bizdesk/pkg/httpclient"
)

// Request describes one call. Endpoint is appended to the client's base URL
// and must start with "/".
type Request struct {
	Endpoint string
	// Method defaults to GET.
	Method string
	// Body is sent as-is; use NewJSONBody to serialize values.
	Body []byte
	// Headers are applied after the defaults and may override Content-Type.
	Headers map[string]string
	// Operation names the call for logs and metrics (e.g. "contacts.get").
	Operation string
}

// Client executes requests against one backend origin. It is safe for
// concurrent use; calls share nothing but the cookie jar.
type Client struct {
	baseURL  string
	http     *resty.Client
	log      Logger
	observer Observer
	msgs     messages
}

type settings struct {
	timeout     time.Duration
	credentials bool
	jar         http.CookieJar
	transport   http.RoundTripper
	log         Logger
	observer    Observer
	lang        language.Tag
}

// Option customizes a Client.
type Option func(*settings)

// WithTimeout bounds each call. The default is no deadline beyond the context.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithCookieJar sets the jar used to forward the session cookie.
func WithCookieJar(jar http.CookieJar) Option {
	return func(s *settings) { s.jar = jar }
}

// WithoutCredentials disables cookie forwarding entirely.
func WithoutCredentials() Option {
	return func(s *settings) { s.credentials = false }
}

// WithTransport swaps the HTTP round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *settings) { s.transport = rt }
}

// WithLogger sets the diagnostics logger. The default discards output.
func WithLogger(log Logger) Option {
	return func(s *settings) { s.log = log }
}

// WithObserver registers a callback invoked once per finished call.
func WithObserver(o Observer) Option {
	return func(s *settings) { s.observer = o }
}

// WithLanguage selects the language of NetworkError and session-expired messages.
func WithLanguage(tag language.Tag) Option {
	return func(s *settings) { s.lang = tag }
}

// New builds a client for baseURL (scheme and host, optionally a path prefix).
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	s := settings{credentials: true, lang: language.English}
	for _, opt := range opts {
		opt(&s)
	}
	log := ensureLogger(s.log)

	var jar http.CookieJar
	if s.credentials {
		jar = s.jar
		if jar == nil {
			jar, err = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
			if err != nil {
				return nil, fmt.Errorf("create cookie jar: %w", err)
			}
		}
	}

	return &Client{
		baseURL: baseURL,
		http: httpclient.New(httpclient.Options{
			Timeout:   s.timeout,
			Jar:       jar,
			Transport: s.transport,
			Logger:    log,
		}),
		log:      log,
		observer: s.observer,
		msgs:     newMessages(s.lang),
	}, nil
}

// BaseURL returns the origin (and path prefix) every endpoint is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do executes req. On a 2xx status it returns the normalized response. A
// non-2xx status yields *HTTPError, an unreachable server *NetworkError, and
// any other failure (including context cancellation) is returned unchanged.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(req.Endpoint, "/") {
		return nil, fmt.Errorf("endpoint %q must start with /", req.Endpoint)
	}
	target := c.baseURL + req.Endpoint
	if _, err := url.Parse(target); err != nil {
		return nil, fmt.Errorf("build request url: %w", err)
	}

	call := CallInfo{Operation: req.Operation, Method: method, Endpoint: req.Endpoint}
	start := time.Now()

	r := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if len(req.Headers) > 0 {
		r.SetHeaders(req.Headers)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	c.log.DebugObj("api request", "api_request", map[string]any{
		"operation": req.Operation,
		"method":    method,
		"endpoint":  req.Endpoint,
	})

	resp, err := r.Execute(method, target)
	if err != nil {
		err = c.transportError(ctx, err)
		call.Duration = time.Since(start)
		call.Outcome = outcomeOf(err)
		c.observe(call)
		c.log.ErrorObj("api request failed", "api_error", map[string]any{
			"operation": req.Operation,
			"method":    method,
			"endpoint":  req.Endpoint,
			"outcome":   call.Outcome,
			"error":     errorText(err),
		})
		return nil, err
	}

	contentType := resp.Header().Get("Content-Type")
	raw := resp.Body()
	body, parseErr := parseBody(contentType, raw)
	if parseErr != nil {
		c.log.WarnObj("api response body is not valid json", "api_parse_error", map[string]any{
			"operation":    req.Operation,
			"endpoint":     req.Endpoint,
			"status":       resp.StatusCode(),
			"content_type": contentType,
			"error":        parseErr.Error(),
			"raw":          responseSnippet(raw),
		})
	}

	status := resp.StatusCode()
	call.Status = status
	call.Duration = time.Since(start)

	if status < 200 || status > 299 {
		herr := &HTTPError{
			Status:  status,
			Message: httpErrorMessage(status, body, c.msgs),
			Body:    body,
		}
		call.Outcome = OutcomeHTTPError
		c.observe(call)
		fields := map[string]any{
			"operation": req.Operation,
			"method":    method,
			"endpoint":  req.Endpoint,
			"status":    status,
			"message":   herr.Message,
		}
		if isHTMLContentType(contentType) {
			fields["page_title"] = htmlTitle(raw)
		}
		c.log.WarnObj("api request rejected", "api_http_error", fields)
		return nil, herr
	}

	call.Outcome = OutcomeOK
	c.observe(call)
	return &Response{Body: body, Status: status, Header: resp.Header()}, nil
}

// Get issues a GET for endpoint.
func (c *Client) Get(ctx context.Context, endpoint string) (*Response, error) {
	return c.Do(ctx, Request{Endpoint: endpoint, Method: http.MethodGet})
}

// Post serializes body as JSON and POSTs it.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (*Response, error) {
	return c.send(ctx, http.MethodPost, endpoint, body)
}

// Put serializes body as JSON and PUTs it.
func (c *Client) Put(ctx context.Context, endpoint string, body any) (*Response, error) {
	return c.send(ctx, http.MethodPut, endpoint, body)
}

// Delete issues a DELETE for endpoint.
func (c *Client) Delete(ctx context.Context, endpoint string) (*Response, error) {
	return c.Do(ctx, Request{Endpoint: endpoint, Method: http.MethodDelete})
}

func (c *Client) send(ctx context.Context, method, endpoint string, body any) (*Response, error) {
	raw, err := NewJSONBody(body)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, Request{Endpoint: endpoint, Method: method, Body: raw})
}

// transportError maps a failed round trip. Cancellation by the caller is not
// a connectivity problem and is passed through untouched.
func (c *Client) transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return err
	}
	if isNetworkFailure(err) {
		return &NetworkError{Message: c.msgs.network, Err: err}
	}
	return err
}

func (c *Client) observe(call CallInfo) {
	if c.observer != nil {
		c.observer(call)
	}
}

func errorText(err error) string {
	if ne, ok := err.(*NetworkError); ok && ne.Err != nil {
		return ne.Err.Error()
	}
	return err.Error()
}
