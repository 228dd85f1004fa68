package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultChatURL is the OpenRouter OpenAI-compatible API base.
	DefaultChatURL = "https://openrouter.ai/api/v1"

	// DefaultChatModel is the default chat model.
	DefaultChatModel = "openai/gpt-3.5-turbo"

	// DefaultChatTimeout is the HTTP client timeout for chat requests.
	DefaultChatTimeout = 60 * time.Second

	// DefaultChatRateLimit is the default request rate (requests per second).
	DefaultChatRateLimit = 2.0

	apiPathChatCompletions = "/chat/completions"
)

// ChatClient calls an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	apiKey  string
	baseURL string
	model   string
	referer string
	title   string
	client  *http.Client
	limiter *rate.Limiter
}

// ChatOption configures a ChatClient.
type ChatOption func(*ChatClient)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) ChatOption {
	return func(c *ChatClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithModel sets the chat model.
func WithModel(model string) ChatOption {
	return func(c *ChatClient) {
		c.model = model
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ChatOption {
	return func(c *ChatClient) {
		c.client = hc
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ChatOption {
	return func(c *ChatClient) {
		c.client.Timeout = timeout
	}
}

// WithRateLimit sets the maximum request rate in requests per second.
func WithRateLimit(perSecond float64) ChatOption {
	return func(c *ChatClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithReferer sets the HTTP-Referer header OpenRouter uses for attribution.
func WithReferer(referer string) ChatOption {
	return func(c *ChatClient) {
		c.referer = referer
	}
}

// WithTitle sets the X-Title header OpenRouter uses for attribution.
func WithTitle(title string) ChatOption {
	return func(c *ChatClient) {
		c.title = title
	}
}

// NewChatClient creates a chat completions client authenticated with apiKey.
func NewChatClient(apiKey string, opts ...ChatOption) *ChatClient {
	c := &ChatClient{
		apiKey:  apiKey,
		baseURL: DefaultChatURL,
		model:   DefaultChatModel,
		client:  &http.Client{Timeout: DefaultChatTimeout},
		limiter: rate.NewLimiter(rate.Limit(DefaultChatRateLimit), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured chat model.
func (c *ChatClient) Model() string {
	return c.model
}

// Complete sends a system and user message and returns the first choice's content.
func (c *ChatClient) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: maxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPathChatCompletions, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("chat completions returned status %d: %s", resp.StatusCode, formatErrorBody(resp.Body))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("chat completions error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat completions returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}

// formatErrorBody reads a bounded prefix of the response body for error messages.
func formatErrorBody(body io.Reader) string {
	respBody, err := io.ReadAll(io.LimitReader(body, 1024))
	if err != nil {
		return fmt.Sprintf("(failed to read response body: %v)", err)
	}
	return strings.TrimSpace(string(respBody))
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
