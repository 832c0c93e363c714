package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/pkg/store"

	"github.com/avast/retry-go/v4"
	"github.com/tidwall/gjson"
)

const (
	DefaultWebEndpoint = "https://api.duckduckgo.com/"
	WebSource          = "web_search"
	maxTitleChars      = 100
)

var errServerSide = errors.New("web search provider returned a server error")

// WebBackend queries the DuckDuckGo Instant Answer API.
type WebBackend struct {
	endpoint   string
	maxResults int
	attempts   uint
	client     *http.Client
	logger     logger.ILogger
}

var _ Backend = (*WebBackend)(nil)

type WebOption func(*WebBackend)

func WithEndpoint(endpoint string) WebOption {
	return func(b *WebBackend) {
		if endpoint != "" {
			b.endpoint = endpoint
		}
	}
}

func WithHTTPClient(client *http.Client) WebOption {
	return func(b *WebBackend) {
		b.client = client
	}
}

func WithAttempts(n uint) WebOption {
	return func(b *WebBackend) {
		if n > 0 {
			b.attempts = n
		}
	}
}

func NewWebBackend(maxResults int, log logger.ILogger, opts ...WebOption) *WebBackend {
	b := &WebBackend{
		endpoint:   DefaultWebEndpoint,
		maxResults: maxResults,
		attempts:   3,
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *WebBackend) Name() string {
	return NameWeb
}

type webHit struct {
	title   string
	url     string
	snippet string
}

func (b *WebBackend) Search(ctx context.Context, query string) []store.Document {
	var body []byte
	err := retry.Do(
		func() error {
			var err error
			body, err = b.fetch(ctx, query)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(b.attempts),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		b.logger.Warn("WebBackend", "Web search failed", map[string]interface{}{
			"error": err.Error(),
		})
		return empty()
	}

	hits := parseInstantAnswer(body, b.maxResults)
	docs := make([]store.Document, 0, len(hits))
	for i, hit := range hits {
		docs = append(docs, store.Document{
			Content: hit.snippet,
			Source:  WebSource,
			Metadata: map[string]interface{}{
				"source": WebSource,
				"rank":   i + 1,
				"query":  query,
				"title":  hit.title,
				"url":    hit.url,
			},
		})
	}

	b.logger.Debug("WebBackend", "Search completed", map[string]interface{}{
		"returned": len(docs),
	})
	return docs
}

// fetch performs one request. Client errors (4xx) are not retried.
func (b *WebBackend) fetch(ctx context.Context, query string) ([]byte, error) {
	u, err := url.Parse(b.endpoint)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	req.Header.Set("User-Agent", "context-retriever/1.0")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", errServerSide, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, retry.Unrecoverable(fmt.Errorf("web search status %d", resp.StatusCode))
	}
	if !gjson.ValidBytes(body) {
		return nil, retry.Unrecoverable(errors.New("web search returned invalid JSON"))
	}
	return body, nil
}

// parseInstantAnswer reads the abstract first, then RelatedTopics, descending
// into topic groups. Entries without text are skipped.
func parseInstantAnswer(body []byte, max int) []webHit {
	hits := make([]webHit, 0, max)
	if max <= 0 {
		return hits
	}

	root := gjson.ParseBytes(body)
	if text := strings.TrimSpace(root.Get("AbstractText").String()); text != "" {
		hits = append(hits, webHit{
			title:   root.Get("Heading").String(),
			url:     root.Get("AbstractURL").String(),
			snippet: text,
		})
	}

	var walk func(topics gjson.Result)
	walk = func(topics gjson.Result) {
		topics.ForEach(func(_, topic gjson.Result) bool {
			if len(hits) >= max {
				return false
			}
			if nested := topic.Get("Topics"); nested.IsArray() {
				walk(nested)
				return len(hits) < max
			}
			text := strings.TrimSpace(topic.Get("Text").String())
			if text == "" {
				return true
			}
			hits = append(hits, webHit{
				title:   store.Truncate(text, maxTitleChars),
				url:     topic.Get("FirstURL").String(),
				snippet: text,
			})
			return true
		})
	}
	walk(root.Get("RelatedTopics"))

	if len(hits) > max {
		hits = hits[:max]
	}
	return hits
}
