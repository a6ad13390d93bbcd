package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/davidbz/ember/internal/metrics"
	"github.com/davidbz/ember/internal/observability"
)

const (
	defaultMaxTokens   = 4096
	defaultTemperature = 0.7
)

// JSONInstruction is appended to the system prompt of json-format requests.
const JSONInstruction = "Respond with a single valid JSON value and nothing else. " +
	"Do not wrap it in markdown code fences and do not add any prose before or after it."

// EngineConfig holds defaults applied to every request.
type EngineConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// CompletionEngine runs a single blocking request/response cycle.
type CompletionEngine struct {
	transport  Transport
	ledger     UsageRecorder
	translator *ErrorTranslator
	config     EngineConfig
}

// NewCompletionEngine creates a new completion engine (DI constructor).
func NewCompletionEngine(
	transport Transport,
	ledger UsageRecorder,
	translator *ErrorTranslator,
	config EngineConfig,
) *CompletionEngine {
	return &CompletionEngine{
		transport:  transport,
		ledger:     ledger,
		translator: translator,
		config:     withEngineDefaults(config),
	}
}

// Model returns the model requests are sent to.
func (e *CompletionEngine) Model() string {
	return e.config.Model
}

// Complete sends req and returns the concatenated text of the response.
func (e *CompletionEngine) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error) {
	const op = "CompletionEngine.Complete"

	if req == nil {
		return nil, &Error{Kind: KindBadRequest, Op: op, Message: "request cannot be nil"}
	}

	ctx = observability.WithOperation(observability.WithModel(ctx, e.config.Model), op)
	ctx, span := observability.StartSpan(ctx, op,
		attribute.String("llm.model", e.config.Model),
		attribute.String("llm.provider", e.transport.Name()),
		attribute.String("llm.response_format", string(req.ResponseFormat)),
	)

	result, err := e.complete(ctx, op, req)
	if result != nil {
		span.SetAttributes(
			attribute.Int("llm.usage.input_tokens", result.Usage.InputTokens),
			attribute.Int("llm.usage.output_tokens", result.Usage.OutputTokens),
		)
	}
	observability.EndSpan(span, err)

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *CompletionEngine) complete(ctx context.Context, op string, req *CompletionRequest) (*CompletionResult, error) {
	logger := observability.FromContext(ctx)
	payload := buildPayload(e.config, req, false)

	start := time.Now()
	resp, err := e.transport.Send(ctx, payload)
	latency := time.Since(start)

	metrics.LLMCallDuration.WithLabelValues(e.transport.Name(), payload.Model).Observe(latency.Seconds())

	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(e.transport.Name(), payload.Model, metrics.StatusError).Inc()
		translated := e.translator.Translate(op, err)
		logger.Error("completion failed",
			observability.String("kind", string(translated.Kind)),
			observability.Duration("latency", latency),
			observability.Error(err))
		return nil, translated
	}
	if resp == nil {
		metrics.LLMCallTotal.WithLabelValues(e.transport.Name(), payload.Model, metrics.StatusError).Inc()
		return nil, e.translator.Translate(op, errors.New("transport returned no response"))
	}

	model := resp.Model
	if model == "" {
		model = payload.Model
	}

	// Tokens were billed even when the response carries no text.
	e.ledger.Record(ctx, resp.Usage, model)

	content, ok := extractText(resp.Content)
	if !ok {
		metrics.LLMCallTotal.WithLabelValues(e.transport.Name(), model, metrics.StatusError).Inc()
		logger.Warn("completion returned no text blocks",
			observability.String("stop_reason", resp.StopReason),
			observability.Int("blocks", len(resp.Content)))
		return nil, &Error{
			Kind:    KindEmptyCompletion,
			Op:      op,
			Message: fmt.Sprintf("provider returned no text content (stop_reason=%s)", resp.StopReason),
		}
	}

	metrics.LLMCallTotal.WithLabelValues(e.transport.Name(), model, metrics.StatusSuccess).Inc()
	logger.Debug("completion succeeded",
		observability.Int("input_tokens", resp.Usage.InputTokens),
		observability.Int("output_tokens", resp.Usage.OutputTokens),
		observability.Duration("latency", latency))

	return &CompletionResult{
		Content: content,
		Usage:   resp.Usage,
		Latency: latency,
		Model:   model,
	}, nil
}

// extractText concatenates the text blocks in order. ok is false when there are none.
func extractText(blocks []ContentBlock) (string, bool) {
	var builder strings.Builder
	found := false

	for _, block := range blocks {
		if text, isText := block.(TextBlock); isText {
			builder.WriteString(text.Text)
			found = true
		}
	}

	return builder.String(), found
}

// buildPayload converts a request into the wire payload: history first, then the new user turn.
func buildPayload(config EngineConfig, req *CompletionRequest, stream bool) *WirePayload {
	messages := make([]Message, 0, len(req.History)+1)
	messages = append(messages, req.History...)
	messages = append(messages, Message{Role: RoleUser, Content: req.UserMessage})

	system := req.SystemPrompt
	if req.ResponseFormat == ResponseFormatJSON {
		if system == "" {
			system = JSONInstruction
		} else {
			system = system + "\n\n" + JSONInstruction
		}
	}

	maxTokens := config.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	temperature := config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	return &WirePayload{
		Model:       config.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		System:      system,
		Messages:    messages,
		Stream:      stream,
	}
}

func withEngineDefaults(config EngineConfig) EngineConfig {
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.Temperature < 0 {
		config.Temperature = defaultTemperature
	}
	return config
}
