// Package wikipedia implements the encyclopedic summary service using the
// Wikipedia REST page-summary endpoint.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clinical-assistant/internal/domain"
)

const (
	Provider        = "wikipedia"
	defaultBaseURL  = "https://en.wikipedia.org/api/rest_v1"
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 24 * time.Hour
	maxExtractRunes = 2000
	userAgent       = "clinical-assistant/1.0 (visit summary enrichment)"
)

// Cache stores raw extracts keyed by page title.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type summaryResponse struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

// Client fetches plain-text page extracts.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if v := strings.TrimRight(strings.TrimSpace(baseURL), "/"); v != "" {
			c.baseURL = v
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithCache enables caching of non-empty extracts for ttl (24h when ttl <= 0).
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		cacheTTL:   defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PageTitle converts a free-text term into a page title: each word
// capitalised, whitespace collapsed to underscores.
func PageTitle(term string) string {
	titled := cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(term)))
	return strings.Join(strings.Fields(titled), "_")
}

// Summary returns the extract for term, truncated to 2000 characters. A
// missing page yields "" with a nil error.
func (c *Client) Summary(ctx context.Context, term string) (string, error) {
	title := PageTitle(term)
	if title == "" {
		return "", nil
	}
	cacheKey := "wiki:summary:" + strings.ToLower(title)
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			return string(cached), nil
		}
	}

	endpoint := c.baseURL + "/page/summary/" + url.PathEscape(title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("wikipedia: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.NewServiceError(Provider, domain.KindConnection, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if res.StatusCode != http.StatusOK {
		return "", &domain.ServiceError{
			Provider:   Provider,
			Kind:       domain.KindForStatus(res.StatusCode),
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("summary for %q failed", title),
		}
	}

	var payload summaryResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&payload); err != nil {
		return "", domain.NewServiceError(Provider, domain.KindUpstream, fmt.Errorf("decode summary: %w", err))
	}
	if payload.Type == "disambiguation" {
		return "", nil
	}
	extract := truncate(strings.TrimSpace(payload.Extract), maxExtractRunes)
	if extract == "" {
		return "", nil
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, cacheKey, []byte(extract), c.cacheTTL)
	}
	return extract, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
