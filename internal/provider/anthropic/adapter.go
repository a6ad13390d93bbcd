// Package anthropic provides a transport for the Anthropic Messages API using the official SDK.
// SDK unions (content blocks, stream events, API errors) are resolved here into the
// domain wire model so the engines never see provider types.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/davidbz/ember/internal/domain"
	"github.com/davidbz/ember/internal/observability"
)

const (
	providerName = "anthropic"
	modelPrefix  = "claude-"
)

// Provider implements the domain.Provider interface for Anthropic.
type Provider struct {
	client anthropic.Client
	name   string
	models map[string]bool
}

// Compile-time check that Provider satisfies the domain.Provider interface.
var _ domain.Provider = (*Provider)(nil)

// NewProvider creates a new Anthropic provider.
func NewProvider(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("Anthropic API key is required")
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
		client: anthropic.NewClient(opts...),
		name:   providerName,
		models: buildModelSet(SupportedModels()),
	}, nil
}

// Send performs a blocking Messages API call.
func (p *Provider) Send(ctx context.Context, payload *domain.WirePayload) (*domain.WireResponse, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	logger := observability.FromContext(observability.WithProvider(ctx, p.name))
	logger.Debug("calling Anthropic API")

	msg, err := p.client.Messages.New(ctx, toSDKParams(payload))
	if err != nil {
		return nil, fmt.Errorf("anthropic: completion failed: %w", toStatusError(err))
	}

	logger.Debug("Anthropic API call succeeded",
		observability.Int64("input_tokens", msg.Usage.InputTokens),
		observability.Int64("output_tokens", msg.Usage.OutputTokens),
		observability.String("stop_reason", string(msg.StopReason)),
	)

	return toWireResponse(msg), nil
}

// Stream opens a Messages API streaming session.
// The first event is read eagerly so HTTP failures surface here rather than mid-stream.
func (p *Provider) Stream(ctx context.Context, payload *domain.WirePayload) (domain.EventStream, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	observability.FromContext(observability.WithProvider(ctx, p.name)).Debug("calling Anthropic streaming API")

	stream := &eventStream{
		stream: p.client.Messages.NewStreaming(ctx, toSDKParams(payload)),
	}

	if !stream.prime() {
		err := stream.Err()
		_ = stream.Close()
		if err == nil {
			err = errors.New("stream ended before any event")
		}
		return nil, fmt.Errorf("anthropic: stream failed: %w", err)
	}

	return stream, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// IsModelSupported checks if the provider supports the given model.
// Dated snapshots of Claude models are accepted as well.
func (p *Provider) IsModelSupported(_ context.Context, model string) bool {
	return p.models[model] || strings.HasPrefix(model, modelPrefix)
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

// toSDKParams converts a wire payload to SDK MessageNewParams.
func toSDKParams(payload *domain.WirePayload) anthropic.MessageNewParams {
	messages := make([]anthropic.MessageParam, 0, len(payload.Messages))
	for _, msg := range payload.Messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == domain.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(block))
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(payload.Model),
		MaxTokens:   int64(payload.MaxTokens),
		Messages:    messages,
		Temperature: anthropic.Float(payload.Temperature),
	}

	if payload.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: payload.System},
		}
	}

	return params
}

// toWireResponse resolves the SDK message into the domain wire model.
func toWireResponse(msg *anthropic.Message) *domain.WireResponse {
	blocks := make([]domain.ContentBlock, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			blocks = append(blocks, domain.TextBlock{Text: variant.Text})
		default:
			blocks = append(blocks, domain.OtherBlock{Type: block.Type})
		}
	}

	return &domain.WireResponse{
		Model:      string(msg.Model),
		StopReason: string(msg.StopReason),
		Usage: domain.TokenUsage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
		Content: blocks,
	}
}
