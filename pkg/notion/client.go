// Package notion is a small client for one Notion database: query with
// cursor pagination, page creation, property updates and archiving.
package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/notion-records/pkg/httpclient"
)

const (
	DefaultBaseURL  = "https://api.notion.com"
	DefaultVersion  = "2022-06-28"
	DefaultPageSize = 100
	DefaultTimeout  = 30 * time.Second

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerVersion       = "Notion-Version"
)

// Record is one page of the database as an open JSON object. The client never
// interprets its fields.
type Record map[string]any

// Page is a single response of the database query endpoint.
type Page struct {
	Results    []Record `json:"results"`
	HasMore    bool     `json:"has_more"`
	NextCursor string   `json:"next_cursor"`
}

// Client performs requests against a single database. It is immutable after
// New and safe for concurrent use.
type Client struct {
	databaseID string
	baseURL    string
	headers    map[string]string
	maxPages   int
	http       httpclient.Client
	log        Logger
}

type settings struct {
	baseURL  string
	version  string
	maxPages int
	http     httpclient.Client
	log      Logger
}

// Option customizes a Client.
type Option func(*settings)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(s *settings) { s.baseURL = u }
}

// WithVersion overrides the Notion-Version header.
func WithVersion(v string) Option {
	return func(s *settings) { s.version = v }
}

// WithHTTPClient replaces the resty transport.
func WithHTTPClient(c httpclient.Client) Option {
	return func(s *settings) { s.http = c }
}

// WithMaxPages caps the number of query pages FetchAll reads. Zero means no cap.
func WithMaxPages(n int) Option {
	return func(s *settings) { s.maxPages = n }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log Logger) Option {
	return func(s *settings) { s.log = log }
}

// New creates a Client for the given integration token and database id.
func New(token, databaseID string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	databaseID = strings.TrimSpace(databaseID)
	if token == "" {
		return nil, ErrEmptyToken
	}
	if databaseID == "" {
		return nil, ErrEmptyDatabaseID
	}

	s := settings{
		baseURL: DefaultBaseURL,
		version: DefaultVersion,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	if strings.TrimSpace(s.baseURL) == "" {
		s.baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(s.version) == "" {
		s.version = DefaultVersion
	}
	if s.maxPages < 0 {
		return nil, fmt.Errorf("notion: max pages must not be negative, got %d", s.maxPages)
	}
	if s.http == nil {
		s.http = httpclient.NewRestyClient(DefaultTimeout)
	}

	return &Client{
		databaseID: databaseID,
		baseURL:    strings.TrimRight(strings.TrimSpace(s.baseURL), "/"),
		headers: map[string]string{
			headerAuthorization: "Bearer " + token,
			headerContentType:   "application/json",
			headerVersion:       s.version,
		},
		maxPages: s.maxPages,
		http:     s.http,
		log:      ensureLogger(s.log),
	}, nil
}

// DatabaseID returns the database this client is bound to.
func (c *Client) DatabaseID() string { return c.databaseID }

// do sends one JSON request and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, op, method, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", op, err)
	}

	start := time.Now()
	resp, err := c.http.Do(ctx, method, c.baseURL+path, c.headers, body)
	if err != nil {
		c.log.WarnObj("notion request failed", "notion_request", map[string]any{
			"op":     op,
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return fmt.Errorf("%s: %w", op, err)
	}

	status := resp.StatusCode()
	c.log.DebugObj("notion request completed", "notion_request", map[string]any{
		"op":         op,
		"method":     method,
		"path":       path,
		"status":     status,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		reqErr := &RequestError{Op: op, StatusCode: status, Body: string(resp.Body())}
		c.log.WarnObj("notion request rejected", "notion_error", map[string]any{
			"op":     op,
			"status": status,
			"body":   responseSnippet(resp.Body()),
		})
		return reqErr
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func pagePath(id string) string {
	return "/v1/pages/" + url.PathEscape(id)
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
