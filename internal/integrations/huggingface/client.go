// Package huggingface implements the text-completion service against the
// Hugging Face Inference API.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clinical-assistant/internal/domain"
)

const (
	Provider       = "huggingface"
	defaultBaseURL = "https://api-inference.huggingface.co/models"
	defaultModel   = "mistralai/Mistral-7B-Instruct-v0.2"
	defaultTimeout = 60 * time.Second
)

type inferenceRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters inferenceOptions `json:"parameters"`
}

type inferenceOptions struct {
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type generated struct {
	GeneratedText string `json:"generated_text"`
}

// Client calls the hosted inference endpoint for one model.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client. An empty model selects Mistral-7B-Instruct.
func New(apiKey, model string) *Client {
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	return &Client{
		baseURL:    defaultBaseURL,
		model:      strings.TrimSpace(model),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) Name() string { return Provider }

func (c *Client) Model() string { return c.model }

func (c *Client) Configured() bool { return c.apiKey != "" }

func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", domain.NewServiceError(Provider, domain.KindUnavailable, errors.New("api key not configured"))
	}
	body, err := json.Marshal(inferenceRequest{
		Inputs: systemPrompt + "\n\n" + userPrompt,
		Parameters: inferenceOptions{
			MaxNewTokens: maxTokens,
			Temperature:  0.7,
		},
	})
	if err != nil {
		return "", fmt.Errorf("huggingface: marshal request: %w", err)
	}

	url := strings.TrimRight(c.baseURL, "/") + "/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("huggingface: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.NewServiceError(Provider, domain.KindConnection, fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", &domain.ServiceError{
			Provider:   Provider,
			Kind:       domain.KindForStatus(res.StatusCode),
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("inference failed: %s", string(buf)),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", domain.NewServiceError(Provider, domain.KindConnection, fmt.Errorf("read response body: %w", err))
	}
	text, err := decodeGenerated(raw)
	if err != nil {
		return "", domain.NewServiceError(Provider, domain.KindUpstream, err)
	}
	return strings.TrimSpace(text), nil
}

// decodeGenerated accepts either [{"generated_text": ...}] or {"generated_text": ...}.
func decodeGenerated(raw []byte) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []generated
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return "", fmt.Errorf("decode response list: %w", err)
		}
		if len(list) == 0 {
			return "", nil
		}
		return list[0].GeneratedText, nil
	}
	var one generated
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return one.GeneratedText, nil
}
