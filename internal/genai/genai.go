// Package genai talks to the text generation service.
//
// It knows nothing about categories or rewriting: callers build the prompts
// and interpret the text that comes back.
package genai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"
)

// Request is one prompt sent to the service.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int64
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Config struct {
	APIKey string
	Model  string
	// Zero disables client side pacing.
	RequestsPerMinute int
	// Only set when pointing at something other than the real service.
	BaseURL string
}

const defaultMaxTokens = 1024

// Client is a [Generator] backed by Claude.
type Client struct {
	claude  anthropic.Client
	model   anthropic.Model
	limiter *rate.Limiter
}

func NewClient(cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Callers own retries
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := anthropic.ModelClaudeHaiku4_5
	if cfg.Model != "" {
		model = anthropic.Model(cfg.Model)
	}

	c := &Client{
		claude: anthropic.NewClient(opts...),
		model:  model,
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return c
}

// Generate sends the prompt and returns the concatenated text blocks of the reply.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &Error{Kind: KindTransient, Err: err}
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.claude.Messages.New(ctx, params)
	if err != nil {
		return "", fromSDK(err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		text.WriteString(block.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", InvalidResponse(errors.New("empty response"))
	}

	return text.String(), nil
}
