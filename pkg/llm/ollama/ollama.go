// Package ollama implements llm.Chatter against Ollama's /api/chat endpoint.
package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/papercomputeco/aletheia/pkg/llm"
)

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "llama3.1:8b"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultTemperature keeps verdicts close to deterministic.
	DefaultTemperature = 0.2

	// DefaultTimeout bounds one chat round trip.
	DefaultTimeout = 120 * time.Second
)

// Client is an Ollama chat client.
type Client struct {
	client      *api.Client
	model       string
	temperature float64
	logger      *slog.Logger
}

// Config holds configuration for the Ollama chat client.
type Config struct {
	BaseURL     string
	Model       string
	Temperature *float64
	Timeout     time.Duration
	Logger      *slog.Logger
}

// New creates a chat client. Zero values fall back to the package defaults.
func New(c Config) (*Client, error) {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := c.Model
	if model == "" {
		model = DefaultModel
	}
	temperature := DefaultTemperature
	if c.Temperature != nil {
		temperature = *c.Temperature
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL %q: %w", baseURL, err)
	}

	return &Client{
		client:      api.NewClient(parsed, &http.Client{Timeout: timeout}),
		model:       model,
		temperature: temperature,
		logger:      logger,
	}, nil
}

// Model returns the configured chat model name.
func (c *Client) Model() string {
	return c.model
}

// Chat sends the messages as one non-streaming request.
func (c *Client) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	msgs := make([]api.Message, len(messages))
	for i, m := range messages {
		msgs[i] = api.Message{Role: m.Role, Content: m.GetText()}
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"temperature": c.temperature},
	}

	start := time.Now()
	var content strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: ollama chat: %w", llm.ErrTransport, err)
	}

	c.logger.Debug("ollama chat completed",
		"model", c.model,
		"duration", time.Since(start),
		"response_chars", content.Len(),
	)

	return content.String(), nil
}

var _ llm.Chatter = (*Client)(nil)
