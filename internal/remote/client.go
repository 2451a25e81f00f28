// Package remote is the REST transport to the issue tracker: the paged
// search endpoint and the metadata endpoints, with basic authentication,
// client-side rate limiting and retries of throttled or failed requests.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/roach88/jiraq/internal/issue"
)

const (
	apiPrefix         = "/rest/api/2/"
	defaultMaxRetries = 3
	defaultRate       = 10 // requests per second
)

// Client talks to one server. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	user       string
	token      string
	limiter    *rate.Limiter
	maxRetries uint64
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithBasicAuth authenticates every request with user and API token.
func WithBasicAuth(user, token string) Option {
	return func(c *Client) {
		c.user = user
		c.token = token
	}
}

// WithRateLimit allows at most perSecond requests per second with the
// given burst. A non-positive perSecond disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithMaxRetries sets how many times a throttled or failed request is
// retried.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBackOff sets the retry schedule factory.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = newBackOff
	}
}

// WithLogger sets the logger for request events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		http:       &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(defaultRate, defaultRate),
		maxRetries: defaultMaxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do sends one API request, retrying retryable failures, and decodes the
// JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	endpoint := c.baseURL.JoinPath(apiPrefix + path).String()

	attempt := 0
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		err := c.send(ctx, method, endpoint, payload, out)
		if err == nil {
			return nil
		}
		var re *Error
		if errors.As(err, &re) && !re.Retryable() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		c.logger.Debug("request failed, retrying",
			"method", method,
			"path", path,
			"attempt", attempt,
			"error", err,
		)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	return backoff.Retry(operation, policy)
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" || c.token != "" {
		req.SetBasicAuth(c.user, c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("request",
		"method", method,
		"url", endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func decodeError(resp *http.Response) error {
	re := &Error{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(data) > 0 && json.Unmarshal(data, re) != nil {
		if msg := strings.TrimSpace(string(data)); msg != "" {
			re.Messages = []string{msg}
		}
	}
	re.StatusCode = resp.StatusCode
	return re
}

// SearchRequest is one page request against the search endpoint.
type SearchRequest struct {
	JQL        string   `json:"jql"`
	StartAt    int      `json:"startAt"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields,omitempty"`
}

// SearchResult is one page of search results.
type SearchResult struct {
	StartAt    int           `json:"startAt"`
	MaxResults int           `json:"maxResults"`
	Total      int           `json:"total"`
	Issues     []issue.Issue `json:"issues"`
}

// Search runs one page of a JQL search.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	var res SearchResult
	if err := c.do(ctx, http.MethodPost, "search", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// IssueTypes lists the server's issue types.
func (c *Client) IssueTypes(ctx context.Context) ([]issue.IssueType, error) {
	var out []issue.IssueType
	if err := c.do(ctx, http.MethodGet, "issuetype", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Priorities lists the server's priorities.
func (c *Client) Priorities(ctx context.Context) ([]issue.Priority, error) {
	var out []issue.Priority
	if err := c.do(ctx, http.MethodGet, "priority", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Statuses lists the server's workflow statuses.
func (c *Client) Statuses(ctx context.Context) ([]issue.Status, error) {
	var out []issue.Status
	if err := c.do(ctx, http.MethodGet, "status", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Fields lists every field definition, system and custom.
func (c *Client) Fields(ctx context.Context) ([]issue.CustomFieldDef, error) {
	var out []issue.CustomFieldDef
	if err := c.do(ctx, http.MethodGet, "field", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
