// Package vlm sends a screenshot and prompts to a vision-language model and
// returns the assistant's text.
//
// Each call is a single synchronous chat request. There are no retries: a
// failed call is reported to the caller, and a badly formatted answer is
// the parser's problem, not a transient condition.
package vlm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/timvw/vlm-bench/internal/model"
)

var (
	// ErrMissingAPIKey is returned by constructors given no credential.
	ErrMissingAPIKey = errors.New("no API key configured")
	// ErrEmptyResponse is returned when the API answers without content.
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// Client is a chat-completion API that accepts images.
type Client interface {
	// Complete sends one request and returns the assistant's text.
	Complete(ctx context.Context, req Request) (*Completion, error)

	// Provider returns the provider name (e.g., "openai", "anthropic").
	Provider() string

	// Model returns the model name requests are sent to.
	Model() string
}

// Request is one prompt with an attached image.
type Request struct {
	// SystemPrompt is the benchmark instruction.
	SystemPrompt string
	// UserPrompt is optional text sent before the image.
	UserPrompt string
	// Image is the raw image bytes.
	Image []byte
	// MIMEType is the image media type, e.g. "image/png".
	MIMEType string
}

// Completion is the model's answer.
type Completion struct {
	Text  string
	Model string
	Usage model.TokenUsage
}

// Config holds the settings shared by every provider.
type Config struct {
	// BaseURL overrides the provider's API endpoint.
	BaseURL string
	// APIKey is the credential, passed explicitly at construction time.
	APIKey string
	// Model is the model name.
	Model string
	// MaxTokens is the maximum number of output tokens.
	MaxTokens int64
	// ExtraHeaders are additional HTTP headers (e.g., "api-key" for Azure,
	// "HTTP-Referer" for OpenRouter).
	ExtraHeaders map[string]string
}

const defaultMaxTokens = 4096

func (c Config) maxTokens() int64 {
	if c.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return c.MaxTokens
}

var tracer = otel.Tracer("vlm-bench/vlm")

// promptMessages renders the request as GenAI input messages for span
// attributes. The image is replaced by its size so spans stay small.
func promptMessages(req Request) string {
	user := req.UserPrompt
	if len(req.Image) > 0 {
		if user != "" {
			user += "\n"
		}
		user += fmt.Sprintf("[image %s, %d bytes]", req.MIMEType, len(req.Image))
	}
	msgs := []map[string]string{
		{"role": "system", "content": req.SystemPrompt},
		{"role": "user", "content": user},
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return ""
	}
	return string(data)
}

func outputMessages(text string) string {
	data, err := json.Marshal([]map[string]string{{"role": "assistant", "content": text}})
	if err != nil {
		return ""
	}
	return string(data)
}

// Providers lists the provider names New accepts. Config validation checks
// against the same list.
var Providers = []string{"openai", "anthropic", "gemini"}

// New returns the client for a provider name.
func New(ctx context.Context, provider string, cfg Config) (Client, error) {
	var (
		c   Client
		err error
	)
	switch provider {
	case "openai":
		c, err = NewOpenAIClient(cfg)
	case "anthropic":
		c, err = NewAnthropicClient(cfg)
	case "gemini":
		c, err = NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: %s)", provider, strings.Join(Providers, ", "))
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
