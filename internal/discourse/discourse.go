// Package discourse is a minimal client for the forum's JSON API.
package discourse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"
)

const userAgent = "updatesbot"

// ErrNotFound is returned when the forum reports error_type "not_found".
var ErrNotFound = errors.New("not found")

// APIError is an error response the client does not otherwise handle.
type APIError struct {
	StatusCode int
	ErrorType  string
	Errors     []string
	Body       string
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("discourse: status %d: %s (%s)", e.StatusCode, strings.Join(e.Errors, "; "), e.ErrorType)
	}
	return fmt.Sprintf("discourse: status %d: unexpected response: %s", e.StatusCode, e.Body)
}

// Outcome is the result of creating a post: Posted or Enqueued.
type Outcome interface {
	isOutcome()
}

// Posted is a post that is live.
type Posted struct {
	ID     uint64
	Number uint64
}

// Enqueued is a post held for moderator approval.
type Enqueued struct {
	PendingID uint64
}

func (Posted) isOutcome()   {}
func (Enqueued) isOutcome() {}

// Client talks to one forum.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client for the forum at baseURL, authenticating with a
// user API key.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: cleanhttp.DefaultPooledClient(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the forum's base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// TopicURL returns the web URL of a topic.
func (c *Client) TopicURL(id uint64) string {
	return fmt.Sprintf("%s/t/%d", c.baseURL, id)
}

// errorBody is the shape of forum error responses.
type errorBody struct {
	ErrorType string   `json:"error_type"`
	Errors    []string `json:"errors"`
}

type post struct {
	ID         uint64 `json:"id"`
	TopicID    uint64 `json:"topic_id"`
	PostNumber uint64 `json:"post_number"`
}

type topic struct {
	PostStream struct {
		Posts []post `json:"posts"`
	} `json:"post_stream"`
}

type createPostResponse struct {
	post
	Action      string `json:"action"`
	PendingPost *struct {
		ID uint64 `json:"id"`
	} `json:"pending_post"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, auth bool, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if auth && c.apiKey != "" {
		req.Header.Set("User-Api-Key", c.apiKey)
	}

	c.logger.Debug("discourse request", zap.String("method", method), zap.String("path", path))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	c.logger.Debug("discourse response", zap.Int("status", resp.StatusCode))

	var eb errorBody
	_ = json.Unmarshal(data, &eb)
	if eb.ErrorType == "not_found" {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 || eb.ErrorType != "" {
		return &APIError{StatusCode: resp.StatusCode, ErrorType: eb.ErrorType, Errors: eb.Errors, Body: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return nil
}

// TopicID looks up a topic by slug. It returns ErrNotFound if no such
// topic exists.
func (c *Client) TopicID(ctx context.Context, slug string) (uint64, error) {
	var t topic
	if err := c.do(ctx, http.MethodGet, "/t/"+slug+".json", nil, true, &t); err != nil {
		return 0, fmt.Errorf("getting topic %q: %w", slug, err)
	}
	if len(t.PostStream.Posts) == 0 {
		return 0, fmt.Errorf("getting topic %q: no posts in topic", slug)
	}
	return t.PostStream.Posts[0].TopicID, nil
}

// Post creates a post in a topic, optionally as a reply to a post number.
func (c *Client) Post(ctx context.Context, topicID uint64, replyTo *uint64, raw string) (Outcome, error) {
	body := map[string]any{
		"topic_id":             topicID,
		"reply_to_post_number": replyTo,
		"raw":                  raw,
	}
	var resp createPostResponse
	if err := c.do(ctx, http.MethodPost, "/posts.json", body, true, &resp); err != nil {
		return nil, fmt.Errorf("creating post in topic %d: %w", topicID, err)
	}

	switch {
	case resp.Action == "enqueued" && resp.PendingPost != nil:
		return Enqueued{PendingID: resp.PendingPost.ID}, nil
	case resp.Action == "" && resp.PostNumber != 0:
		return Posted{ID: resp.ID, Number: resp.PostNumber}, nil
	default:
		return nil, fmt.Errorf("creating post in topic %d: unexpected response action %q", topicID, resp.Action)
	}
}

// PostNumber returns the number of a post within its topic. The request is
// sent without credentials so a post held for approval is not returned to
// its author. It returns ErrNotFound if the post is not visible.
func (c *Client) PostNumber(ctx context.Context, id uint64) (uint64, error) {
	var p post
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d.json", id), nil, false, &p); err != nil {
		return 0, fmt.Errorf("getting post %d: %w", id, err)
	}
	return p.PostNumber, nil
}

// ArchivingMarkdown is posted to a release's topic once the next release
// has a topic of its own.
func (c *Client) ArchivingMarkdown(newTopicID uint64) string {
	return fmt.Sprintf("Beta testing for this release has concluded. If you find any further bugs related to this release or earlier releases, please report them on GitHub (read %s/t/27 for more information on how to do that).\n\n"+
		"If you have feedback specifically related to the new beta version, please post it in the following topic: %s.",
		c.baseURL, c.TopicURL(newTopicID))
}
