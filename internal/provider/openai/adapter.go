// Package openai provides a transport for the OpenAI Chat Completions API using the official SDK.
// It implements the domain.Provider interface and maps chat completions onto the
// domain wire model used by the engines.
package openai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/ember/internal/domain"
	"github.com/davidbz/ember/internal/observability"
)

const providerName = "openai"

// Provider implements the domain.Provider interface for OpenAI.
type Provider struct {
	client openai.Client
	name   string
	models map[string]bool
}

// Compile-time check that Provider satisfies the domain.Provider interface.
var _ domain.Provider = (*Provider)(nil)

// NewProvider creates a new OpenAI provider.
func NewProvider(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	return &Provider{
		client: openai.NewClient(opts...),
		name:   providerName,
		models: buildModelSet(SupportedModels()),
	}, nil
}

// Send performs a blocking chat completion.
func (p *Provider) Send(ctx context.Context, payload *domain.WirePayload) (*domain.WireResponse, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	logger := observability.FromContext(observability.WithProvider(ctx, p.name))
	logger.Debug("calling OpenAI API")

	resp, err := p.client.Chat.Completions.New(ctx, toSDKParams(payload))
	if err != nil {
		return nil, fmt.Errorf("openai: completion failed: %w", toStatusError(err))
	}

	logger.Debug("OpenAI API call succeeded",
		observability.Int64("prompt_tokens", resp.Usage.PromptTokens),
		observability.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	return toWireResponse(resp), nil
}

// Stream opens a streaming chat completion with usage reporting enabled.
// The first chunk is read eagerly so HTTP failures surface here rather than mid-stream.
func (p *Provider) Stream(ctx context.Context, payload *domain.WirePayload) (domain.EventStream, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	observability.FromContext(observability.WithProvider(ctx, p.name)).Debug("calling OpenAI streaming API")

	params := toSDKParams(payload)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	stream := &eventStream{
		stream: p.client.Chat.Completions.NewStreaming(ctx, params),
	}

	if !stream.prime() {
		err := stream.Err()
		_ = stream.Close()
		if err == nil {
			err = errors.New("stream ended before any chunk")
		}
		return nil, fmt.Errorf("openai: stream failed: %w", err)
	}

	return stream, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// IsModelSupported checks if the provider supports the given model.
// Dated snapshots ("gpt-4o-2024-08-06") are accepted for known families.
func (p *Provider) IsModelSupported(_ context.Context, model string) bool {
	if p.models[model] {
		return true
	}
	for known := range p.models {
		if strings.HasPrefix(model, known+"-") {
			return true
		}
	}
	return false
}

// SupportedModels returns a list of all models this provider advertises.
func (p *Provider) SupportedModels(_ context.Context) []string {
	models := make([]string, 0, len(p.models))
	for model := range p.models {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

// toSDKParams converts a wire payload to SDK ChatCompletionNewParams.
// The system prompt becomes the leading system message.
func toSDKParams(payload *domain.WirePayload) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(payload.Messages)+1)
	if payload.System != "" {
		messages = append(messages, openai.SystemMessage(payload.System))
	}

	for _, msg := range payload.Messages {
		if msg.Role == domain.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(msg.Content))
			continue
		}
		messages = append(messages, openai.UserMessage(msg.Content))
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(payload.Model),
		Messages:    messages,
		Temperature: openai.Float(payload.Temperature),
	}

	if payload.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(payload.MaxTokens))
	}

	return params
}

// toWireResponse maps the first choice onto the domain wire model.
// A refusal or an empty message yields no text block.
func toWireResponse(resp *openai.ChatCompletion) *domain.WireResponse {
	wire := &domain.WireResponse{
		Model: resp.Model,
		Usage: domain.TokenUsage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}

	if len(resp.Choices) == 0 {
		return wire
	}

	choice := resp.Choices[0]
	wire.StopReason = choice.FinishReason

	if choice.Message.Content != "" {
		wire.Content = append(wire.Content, domain.TextBlock{Text: choice.Message.Content})
	}
	if choice.Message.Refusal != "" {
		wire.Content = append(wire.Content, domain.OtherBlock{Type: "refusal"})
	}
	if len(choice.Message.ToolCalls) > 0 {
		wire.Content = append(wire.Content, domain.OtherBlock{Type: "tool_calls"})
	}

	return wire
}
