// Package openai implements the text-completion service against
// OpenAI-compatible chat completion endpoints (OpenAI and Groq).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"clinical-assistant/internal/domain"
	"clinical-assistant/internal/integrations/paramstore"
)

const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"

	openAIBaseURL      = "https://api.openai.com/v1"
	groqBaseURL        = "https://api.groq.com/openai/v1"
	defaultOpenAIModel = "gpt-3.5-turbo"
	defaultGroqModel   = "llama-3.3-70b-versatile"
	defaultTimeout     = 60 * time.Second
	defaultTemperature = 0.7
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the minimal request shape for the Chat Completions endpoint.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// chatResponse is the minimal response shape returned by the Chat Completions endpoint.
type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index   int     `json:"index"`
		Message message `json:"message"`
	} `json:"choices"`
}

// Client is a focused OpenAI-compatible chat completion client.
type Client struct {
	provider    string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client

	staticKey string
	getter    paramstore.Getter
	keyParam  string

	keyOnce sync.Once
	apiKey  string
	keyErr  error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if v := strings.TrimSpace(baseURL); v != "" {
			c.baseURL = v
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if v := strings.TrimSpace(model); v != "" {
			c.model = v
		}
	}
}

// WithAPIKey sets a key read from the environment.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.staticKey = strings.TrimSpace(key)
	}
}

// WithKeyParameter resolves the key from SSM when no static key is set. The
// parameter is read on the first completion and reused for the process lifetime.
func WithKeyParameter(getter paramstore.Getter, name string) Option {
	return func(c *Client) {
		c.getter = getter
		c.keyParam = strings.TrimSpace(name)
	}
}

// NewOpenAI creates a client for api.openai.com.
func NewOpenAI(opts ...Option) *Client {
	return newClient(ProviderOpenAI, openAIBaseURL, defaultOpenAIModel, opts)
}

// NewGroq creates a client for Groq's OpenAI-compatible endpoint.
func NewGroq(opts ...Option) *Client {
	return newClient(ProviderGroq, groqBaseURL, defaultGroqModel, opts)
}

func newClient(provider, baseURL, model string, opts []Option) *Client {
	c := &Client{
		provider:    provider,
		baseURL:     baseURL,
		model:       model,
		temperature: defaultTemperature,
		httpClient:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider name used in logs and errors.
func (c *Client) Name() string { return c.provider }

// Model returns the configured model.
func (c *Client) Model() string { return c.model }

// Configured reports whether a credential source is available.
func (c *Client) Configured() bool {
	return c.staticKey != "" || (c.getter != nil && c.keyParam != "")
}

func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	if c.staticKey != "" {
		return c.staticKey, nil
	}
	if c.getter == nil || c.keyParam == "" {
		return "", domain.NewServiceError(c.provider, domain.KindUnavailable, errors.New("api key not configured"))
	}
	c.keyOnce.Do(func() {
		c.apiKey, c.keyErr = paramstore.APIKey(ctx, c.getter, c.keyParam)
	})
	if c.keyErr != nil {
		return "", domain.NewServiceError(c.provider, domain.KindUnavailable, c.keyErr)
	}
	return c.apiKey, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = openAIBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

// Complete sends a system and user prompt and returns the first choice's
// content. Empty content is returned as "" with a nil error.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return "", err
	}

	var messages []message
	if systemPrompt != "" {
		messages = append(messages, message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, message{Role: "user", Content: userPrompt})

	temperature := c.temperature
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: &temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s: marshal request: %w", c.provider, err)
	}

	url := chatURL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: create request: %w", c.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return "", err
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", domain.NewServiceError(c.provider, domain.KindUpstream, fmt.Errorf("decode response: %w", err))
	}
	if len(payload.Choices) == 0 {
		return "", domain.NewServiceError(c.provider, domain.KindUpstream, errors.New("no choices in response"))
	}
	return strings.TrimSpace(payload.Choices[0].Message.Content), nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, domain.NewServiceError(c.provider, domain.KindConnection, fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &domain.ServiceError{
			Provider:   c.provider,
			Kind:       domain.KindForStatus(res.StatusCode),
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("unexpected status from %s: %s", url, string(buf)),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, domain.NewServiceError(c.provider, domain.KindConnection, fmt.Errorf("read response body: %w", err))
	}
	return buf, nil
}
