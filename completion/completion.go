// Package completion talks to the OpenAI chat completion API.
package completion

import (
	"context"
	"strings"
	"time"

	"github.com/gobridge/reviewbot/apperr"
	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"go.opencensus.io/trace"
	"golang.org/x/time/rate"
)

const (
	// DefaultModel is used unless WithModel says otherwise.
	DefaultModel = openai.GPT3Dot5Turbo

	// PlaceholderKey is the sample key shipped in .env templates. It counts
	// as not configured.
	PlaceholderKey = "sk-your-openai-key-here"
)

// Message roles.
const (
	RoleSystem = openai.ChatMessageRoleSystem
	RoleUser   = openai.ChatMessageRoleUser
)

// Message is one entry of a chat conversation.
type Message struct {
	Role    string
	Content string
}

// System returns a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User returns a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Client requests chat completions. It keeps no conversation state.
type Client struct {
	key     string
	model   string
	config  openai.ClientConfig
	limiter *rate.Limiter
	api     *openai.Client
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides DefaultModel. An empty model is ignored.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a compatible API, e.g. a test server.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.config.BaseURL = strings.TrimSuffix(url, "/")
	}
}

// WithRateLimit caps completions to perMinute across the process. Zero
// means unlimited.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

// New returns a Client using apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		key:     strings.TrimSpace(apiKey),
		model:   DefaultModel,
		config:  openai.DefaultConfig(strings.TrimSpace(apiKey)),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.api = openai.NewClientWithConfig(c.config)
	return c
}

// Configured reports whether a real API key is set.
func (c *Client) Configured() bool {
	return c.key != "" && c.key != PlaceholderKey
}

// Model returns the model used for requests.
func (c *Client) Model() string { return c.model }

// Complete sends messages and returns the text of the first choice.
func (c *Client) Complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	const op = "completion.Complete"

	ctx, span := trace.StartSpan(ctx, op)
	defer span.End()
	span.AddAttributes(
		trace.StringAttribute("model", c.model),
		trace.Int64Attribute("max_tokens", int64(maxTokens)),
	)

	if !c.Configured() {
		return "", apperr.New(apperr.Completion, op, "OpenAI API key not configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", apperr.Wrap(apperr.Completion, op, err, "rate limited")
	}

	req := openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return "", apperr.New(apperr.Completion, op, apiErr.Message)
		}
		return "", apperr.Wrap(apperr.Completion, op, err, "")
	}

	if len(resp.Choices) == 0 {
		return "", apperr.New(apperr.Completion, op, "no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
