// Package client executes GraphQL documents against an Infrahub backend and
// fetches its schema. Every call is scoped to a branch and, optionally, a
// point in time.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/matthewbaird/infraview/internal/schema"
)

// TokenHeader carries the API token.
const TokenHeader = "X-INFRAHUB-KEY"

// ErrGraphQL is returned when the backend answers with GraphQL errors.
var ErrGraphQL = errors.New("graphql error")

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Scope selects the branch and point in time a request runs against. A
// zero At means "now".
type Scope struct {
	Branch string
	At     time.Time
}

// Response is a decoded GraphQL response.
type Response struct {
	Data   map[string]any `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// GraphQLError is one entry of the response errors array.
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// Client talks to one Infrahub instance. It is safe for concurrent use.
type Client struct {
	baseURL       string
	token         string
	defaultBranch string
	httpClient    *http.Client
	log           zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default 30s-timeout HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithDefaultBranch sets the branch used when a Scope leaves it empty.
func WithDefaultBranch(branch string) Option {
	return func(c *Client) { c.defaultBranch = branch }
}

// New creates a client for baseURL, e.g. "http://localhost:8000".
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		token:         token,
		defaultBranch: "main",
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		log:           zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) branch(s Scope) string {
	if s.Branch != "" {
		return s.Branch
	}
	return c.defaultBranch
}

func withAt(u string, s Scope) string {
	if s.At.IsZero() {
		return u
	}
	return u + "?" + url.Values{"at": {s.At.UTC().Format(time.RFC3339)}}.Encode()
}

// Execute runs a document and returns its data. GraphQL errors in the
// response are reported as ErrGraphQL together with any partial data.
func (c *Client) Execute(ctx context.Context, scope Scope, document string, variables map[string]any) (map[string]any, error) {
	body := map[string]any{"query": document}
	if len(variables) > 0 {
		body["variables"] = variables
	}

	endpoint := withAt(c.baseURL+"/graphql/"+url.PathEscape(c.branch(scope)), scope)
	var resp Response
	if err := c.do(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.Message
		}
		return resp.Data, fmt.Errorf("%w: %s", ErrGraphQL, strings.Join(msgs, "; "))
	}
	return resp.Data, nil
}

// FetchSchema downloads the schema of a branch.
func (c *Client) FetchSchema(ctx context.Context, scope Scope) (*schema.Set, error) {
	endpoint := c.baseURL + "/api/schema?" + url.Values{"branch": {c.branch(scope)}}.Encode()
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}
	set, err := schema.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return set, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(TokenHeader, c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("url", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
