// Package ollama implements the text-completion service against a local
// Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clinical-assistant/internal/domain"
)

const (
	Provider       = "ollama"
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama2"
	defaultTimeout = 120 * time.Second
)

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options *generateOption `json:"options,omitempty"`
}

type generateOption struct {
	NumPredict int `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Client calls Ollama's /api/generate endpoint without streaming.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// New creates a Client. Empty arguments fall back to localhost and llama2.
func New(baseURL, model string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	return &Client{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) Name() string { return Provider }

func (c *Client) Model() string { return c.model }

func (c *Client) BaseURL() string { return c.baseURL }

// Configured is always true: Ollama needs no credential.
func (c *Client) Configured() bool { return true }

// Complete joins the system and user prompts into a single generate prompt.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	req := generateRequest{
		Model:  c.model,
		Prompt: systemPrompt + "\n\n" + userPrompt,
		Stream: false,
	}
	if maxTokens > 0 {
		req.Options = &generateOption{NumPredict: maxTokens}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", domain.NewServiceError(Provider, domain.KindConnection, fmt.Errorf("cannot reach %s: %w", c.baseURL, err))
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", &domain.ServiceError{
			Provider:   Provider,
			Kind:       domain.KindForStatus(res.StatusCode),
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("generate failed: %s", string(buf)),
		}
	}

	var out generateResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", domain.NewServiceError(Provider, domain.KindUpstream, fmt.Errorf("decode response: %w", err))
	}
	return strings.TrimSpace(out.Response), nil
}
