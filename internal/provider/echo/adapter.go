// Package echo provides an offline transport that echoes back the conversation.
// It implements the domain.Provider interface without making external API calls,
// providing deterministic responses for development and tests.
package echo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/davidbz/ember/internal/domain"
	"github.com/davidbz/ember/internal/observability"
)

const (
	providerName = "echo"
	modelName    = "echo4"
	stopReason   = "end_turn"
	chunkDelay   = 10 * time.Millisecond
)

// Provider implements the domain.Provider interface for echo testing.
type Provider struct {
	name            string
	supportedModels map[string]bool
	delay           time.Duration
}

// Compile-time check that Provider satisfies the domain.Provider interface.
var _ domain.Provider = (*Provider)(nil)

// NewProvider creates a new echo provider.
// No configuration is required as this provider operates entirely in-memory.
func NewProvider() *Provider {
	return &Provider{
		name: providerName,
		supportedModels: map[string]bool{
			modelName: true,
		},
		delay: chunkDelay,
	}
}

// WithDelay returns a copy of the provider pacing stream deltas by delay.
func (p *Provider) WithDelay(delay time.Duration) *Provider {
	clone := *p
	clone.delay = delay
	return &clone
}

// Send echoes the payload back as a single text block.
// A conversation without any content yields a response with no content blocks.
func (p *Provider) Send(ctx context.Context, payload *domain.WirePayload) (*domain.WireResponse, error) {
	if err := p.validate(payload); err != nil {
		return nil, err
	}

	logger := observability.FromContext(observability.WithProvider(ctx, p.name))
	logger.Debug("echoing request")

	echoContent := buildEchoContent(payload)
	usage := echoUsage(echoContent)

	logger.Debug("echo completed",
		observability.Int("input_tokens", usage.InputTokens),
		observability.Int("output_tokens", usage.OutputTokens),
	)

	resp := &domain.WireResponse{
		Model:      payload.Model,
		StopReason: stopReason,
		Usage:      usage,
	}

	if echoContent != "" {
		resp.Content = []domain.ContentBlock{domain.TextBlock{Text: echoContent}}
	}

	return resp, nil
}

// Stream echoes the payload back one word per delta.
func (p *Provider) Stream(ctx context.Context, payload *domain.WirePayload) (domain.EventStream, error) {
	if err := p.validate(payload); err != nil {
		return nil, err
	}

	observability.FromContext(observability.WithProvider(ctx, p.name)).Debug("streaming echo request")

	echoContent := buildEchoContent(payload)
	usage := echoUsage(echoContent)

	words := strings.Fields(echoContent)
	events := make([]domain.WireEvent, 0, len(words)+3)
	events = append(events, domain.MessageStartEvent{
		Model: payload.Model,
		Usage: domain.TokenUsage{InputTokens: usage.InputTokens},
	})

	for i, word := range words {
		delta := word
		if i < len(words)-1 {
			delta += " "
		}
		events = append(events, domain.TextDeltaEvent{Text: delta})
	}

	events = append(events,
		domain.MessageDeltaEvent{StopReason: stopReason, Usage: domain.TokenUsage{OutputTokens: usage.OutputTokens}},
		domain.MessageStopEvent{},
	)

	return &pacedStream{
		ctx:    ctx,
		inner:  domain.NewSliceStream(events, nil),
		delay:  p.delay,
		primed: false,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// IsModelSupported checks if the provider supports the given model.
func (p *Provider) IsModelSupported(_ context.Context, model string) bool {
	return p.supportedModels[model]
}

// SupportedModels returns a list of all models this provider supports.
func (p *Provider) SupportedModels(_ context.Context) []string {
	models := make([]string, 0, len(p.supportedModels))
	for model := range p.supportedModels {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

func (p *Provider) validate(payload *domain.WirePayload) error {
	if payload == nil {
		return errors.New("payload cannot be nil")
	}

	if !p.supportedModels[payload.Model] {
		return &domain.StatusError{
			StatusCode: http.StatusBadRequest,
			Message:    fmt.Sprintf("model %s is not supported by echo provider", payload.Model),
		}
	}

	return nil
}

// pacedStream delays every event after the first and stops early when ctx is done.
type pacedStream struct {
	ctx    context.Context
	inner  *domain.SliceStream
	delay  time.Duration
	primed bool
	err    error
}

func (s *pacedStream) Next() bool {
	if s.err != nil {
		return false
	}

	if s.primed && s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			s.err = s.ctx.Err()
			return false
		case <-timer.C:
		}
	}
	s.primed = true

	return s.inner.Next()
}

func (s *pacedStream) Current() domain.WireEvent {
	return s.inner.Current()
}

func (s *pacedStream) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.inner.Err()
}

func (s *pacedStream) Close() error {
	return s.inner.Close()
}

// buildEchoContent constructs the echo response from the system prompt and messages.
// Turns without content are skipped.
func buildEchoContent(payload *domain.WirePayload) string {
	var builder strings.Builder

	if payload.System != "" {
		builder.WriteString(fmt.Sprintf("[system]: %s\n", payload.System))
	}

	for _, msg := range payload.Messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		builder.WriteString(fmt.Sprintf("[%s]: %s\n", msg.Role, msg.Content))
	}

	return builder.String()
}

// echoUsage performs simple word-based token counting; output mirrors input.
func echoUsage(content string) domain.TokenUsage {
	tokens := countTokens(content)
	return domain.TokenUsage{
		InputTokens:  tokens,
		OutputTokens: tokens,
	}
}

// countTokens performs simple word-based token counting.
func countTokens(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Fields(content))
}
