// Package gateway issues the four read-only requests against the blog API
// and decodes their JSON into model records.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kingrea/acme-blogs/internal/model"
)

const (
	// DefaultBaseURL is the public JSONPlaceholder API.
	DefaultBaseURL = "https://jsonplaceholder.typicode.com"
	// DefaultTimeout bounds each request when no http.Client is injected.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 4 << 20
)

// Operation names carried by RemoteFetchError.Op.
const (
	OpFetchEmployees        = "fetchEmployees"
	OpFetchEmployee         = "fetchEmployee"
	OpFetchPostsForEmployee = "fetchPostsForEmployee"
	OpFetchCommentsForPost  = "fetchCommentsForPost"
)

// Gateway is the data source used by the renderer. A zero or negative
// identifier is a guard skip: the call returns nil, nil without a request.
type Gateway interface {
	FetchEmployees(ctx context.Context) ([]model.Employee, error)
	FetchEmployee(ctx context.Context, id int) (*model.Employee, error)
	FetchPostsForEmployee(ctx context.Context, id int) ([]model.Post, error)
	FetchCommentsForPost(ctx context.Context, id int) ([]model.Comment, error)
}

// Client is the HTTP implementation of Gateway.
type Client struct {
	baseURL string
	http    *http.Client
	log     logrus.FieldLogger
	clock   func() time.Time
}

// Option customizes Client construction.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger records one debug entry per request.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock allows tests to control request durations.
func WithClock(clock func() time.Time) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewClient returns a Client rooted at baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     quiet,
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchEmployees lists every employee.
func (c *Client) FetchEmployees(ctx context.Context) ([]model.Employee, error) {
	var employees []model.Employee
	if err := c.getJSON(ctx, OpFetchEmployees, 0, "/users", nil, &employees); err != nil {
		return nil, err
	}
	for i := range employees {
		if err := employees[i].Validate(); err != nil {
			return nil, invalidRecord(OpFetchEmployees, 0, i, err)
		}
	}
	return employees, nil
}

// FetchEmployee loads one employee by id.
func (c *Client) FetchEmployee(ctx context.Context, id int) (*model.Employee, error) {
	if id <= 0 {
		return nil, nil
	}
	var employee model.Employee
	path := "/users/" + strconv.Itoa(id)
	if err := c.getJSON(ctx, OpFetchEmployee, id, path, nil, &employee); err != nil {
		return nil, err
	}
	if err := employee.Validate(); err != nil {
		return nil, invalidRecord(OpFetchEmployee, id, 0, err)
	}
	return &employee, nil
}

// FetchPostsForEmployee lists the posts written by employee id.
func (c *Client) FetchPostsForEmployee(ctx context.Context, id int) ([]model.Post, error) {
	if id <= 0 {
		return nil, nil
	}
	var posts []model.Post
	query := url.Values{"userId": []string{strconv.Itoa(id)}}
	if err := c.getJSON(ctx, OpFetchPostsForEmployee, id, "/posts", query, &posts); err != nil {
		return nil, err
	}
	for i := range posts {
		if err := posts[i].Validate(); err != nil {
			return nil, invalidRecord(OpFetchPostsForEmployee, id, i, err)
		}
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}

// FetchCommentsForPost lists the comments on post id in API order.
func (c *Client) FetchCommentsForPost(ctx context.Context, id int) ([]model.Comment, error) {
	if id <= 0 {
		return nil, nil
	}
	var comments []model.Comment
	query := url.Values{"postId": []string{strconv.Itoa(id)}}
	if err := c.getJSON(ctx, OpFetchCommentsForPost, id, "/comments", query, &comments); err != nil {
		return nil, err
	}
	for i := range comments {
		if err := comments[i].Validate(); err != nil {
			return nil, invalidRecord(OpFetchCommentsForPost, id, i, err)
		}
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return comments, nil
}

func (c *Client) getJSON(ctx context.Context, op string, id int, path string, query url.Values, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &RemoteFetchError{Op: op, ID: id, Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	start := c.clock()
	resp, err := c.http.Do(req)
	entry := c.log.WithFields(logrus.Fields{"op": op, "id": id, "url": endpoint})
	if err != nil {
		entry.WithError(err).Warn("gateway request failed")
		return &RemoteFetchError{Op: op, ID: id, Cause: err}
	}
	defer resp.Body.Close()
	entry.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": c.clock().Sub(start).String(),
	}).Debug("gateway request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return &RemoteFetchError{
			Op:     op,
			ID:     id,
			Status: resp.StatusCode,
			Cause:  fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode),
		}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return &RemoteFetchError{Op: op, ID: id, Status: resp.StatusCode, Cause: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func invalidRecord(op string, id, index int, err error) error {
	return &RemoteFetchError{Op: op, ID: id, Cause: fmt.Errorf("record %d: %w", index, err)}
}
