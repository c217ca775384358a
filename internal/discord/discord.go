// Package discord sends notices to Discord webhooks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/hashicorp/go-cleanhttp"
)

// maxContentLength is Discord's limit on message content.
const maxContentLength = 2000

// Embed is a rich message block.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// EmbedAuthor is the line shown above an embed's title.
type EmbedAuthor struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// EmbedField is one name/value pair in an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// AllowedMentions restricts who a message may ping.
type AllowedMentions struct {
	Parse []string `json:"parse"`
	Roles []string `json:"roles,omitempty"`
}

// Message is a webhook payload.
type Message struct {
	Content         string          `json:"content,omitempty"`
	Embeds          []Embed         `json:"embeds,omitempty"`
	AllowedMentions AllowedMentions `json:"allowed_mentions"`
}

// Webhook posts to one Discord webhook, mentioning a role if set.
type Webhook struct {
	url        string
	roleID     string
	httpClient *http.Client
}

// Option configures a Webhook.
type Option func(*Webhook)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(w *Webhook) {
		w.httpClient = hc
	}
}

// NewWebhook creates a webhook client. roleID may be empty.
func NewWebhook(url, roleID string, opts ...Option) *Webhook {
	w := &Webhook{url: url, roleID: roleID, httpClient: cleanhttp.DefaultPooledClient()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Configured reports whether the webhook has a URL.
func (w *Webhook) Configured() bool {
	return w != nil && w.url != ""
}

// Message builds a payload that mentions the webhook's role, if any and
// mention is set.
func (w *Webhook) Message(content string, mention bool) Message {
	m := Message{AllowedMentions: AllowedMentions{Parse: []string{}}}
	if mention && w.roleID != "" {
		content = fmt.Sprintf("<@&%s> %s", w.roleID, content)
		m.AllowedMentions.Roles = []string{w.roleID}
	}
	m.Content = truncate(content, maxContentLength)
	return m
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Send posts a message as JSON.
func (w *Webhook) Send(ctx context.Context, m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	return w.post(ctx, "application/json", bytes.NewReader(body))
}

// SendWithLog posts m with the log attached as log.txt.
func (w *Webhook) SendWithLog(ctx context.Context, m Message, log string) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("payload_json", string(payload)); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="files[0]"; filename="log.txt"`)
	header.Set("Content-Type", "text/plain; charset=utf-8")
	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating log part: %w", err)
	}
	if _, err := io.WriteString(part, log); err != nil {
		return fmt.Errorf("writing log: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	return w.post(ctx, mw.FormDataContentType(), &buf)
}

func (w *Webhook) post(ctx context.Context, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "updatesbot")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, data)
	}
	return nil
}
