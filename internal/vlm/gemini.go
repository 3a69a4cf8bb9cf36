package vlm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/timvw/vlm-bench/internal/model"
)

// GeminiClient uses the Gemini API generateContent endpoint.
type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int64
}

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}

	httpOpts := genai.HTTPOptions{BaseURL: cfg.BaseURL}
	if len(cfg.ExtraHeaders) > 0 {
		httpOpts.Headers = http.Header{}
		for k, v := range cfg.ExtraHeaders {
			httpOpts.Headers.Set(k, v)
		}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.maxTokens(),
	}, nil
}

// Provider returns "gemini".
func (c *GeminiClient) Provider() string {
	return "gemini"
}

// Model returns the model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// Complete sends the optional user text and the image as one user turn.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	ctx, span := tracer.Start(ctx, "chat "+c.model,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.operation.name", "chat"),
			attribute.String("gen_ai.provider.name", "gcp.gemini"),
			attribute.String("gen_ai.request.model", c.model),
			attribute.Int64("gen_ai.request.max_tokens", c.maxTokens),
			attribute.String("langfuse.observation.type", "generation"),
			attribute.String("gen_ai.input.messages", promptMessages(req)),
		),
	)
	defer span.End()

	var parts []*genai.Part
	if req.UserPrompt != "" {
		parts = append(parts, &genai.Part{Text: req.UserPrompt})
	}
	if len(req.Image) > 0 {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: req.MIMEType, Data: req.Image}})
	}

	genCfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(c.maxTokens),
	}
	if req.SystemPrompt != "" {
		genCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: parts}},
		genCfg,
	)
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "api_error"))
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		span.SetAttributes(attribute.String("error.type", "empty_response"))
		return nil, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		span.SetAttributes(attribute.String("error.type", "empty_response"))
		return nil, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	text := sb.String()

	var usage model.TokenUsage
	if resp.UsageMetadata != nil {
		usage.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}

	span.SetAttributes(
		attribute.String("gen_ai.response.model", resp.ModelVersion),
		attribute.String("gen_ai.response.id", resp.ResponseID),
		attribute.Int64("gen_ai.usage.input_tokens", usage.InputTokens),
		attribute.Int64("gen_ai.usage.output_tokens", usage.OutputTokens),
		attribute.String("gen_ai.output.messages", outputMessages(text)),
	)
	if reason := resp.Candidates[0].FinishReason; reason != "" {
		span.SetAttributes(attribute.StringSlice("gen_ai.response.finish_reasons", []string{string(reason)}))
	}

	responseModel := resp.ModelVersion
	if responseModel == "" {
		responseModel = c.model
	}
	return &Completion{
		Text:  text,
		Model: responseModel,
		Usage: usage,
	}, nil
}
