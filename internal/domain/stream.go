package domain

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/davidbz/ember/internal/metrics"
	"github.com/davidbz/ember/internal/observability"
)

// StreamEngine drives incremental completions.
type StreamEngine struct {
	transport  Transport
	ledger     UsageRecorder
	translator *ErrorTranslator
	config     EngineConfig
}

// NewStreamEngine creates a new stream engine (DI constructor).
func NewStreamEngine(
	transport Transport,
	ledger UsageRecorder,
	translator *ErrorTranslator,
	config EngineConfig,
) *StreamEngine {
	return &StreamEngine{
		transport:  transport,
		ledger:     ledger,
		translator: translator,
		config:     withEngineDefaults(config),
	}
}

// Model returns the model sessions are opened for.
func (e *StreamEngine) Model() string {
	return e.config.Model
}

// Stream opens a provider session and returns its normalized events.
//
// On success the channel yields text deltas in provider order, then exactly one
// EventUsage and one EventDone, and is closed. A provider failure yields a single
// EventError instead. Cancelling ctx closes the provider session and the channel.
// The channel must be drained or ctx cancelled to release the connection.
func (e *StreamEngine) Stream(ctx context.Context, req *CompletionRequest) (<-chan StreamEvent, error) {
	const op = "StreamEngine.Stream"

	if req == nil {
		return nil, &Error{Kind: KindBadRequest, Op: op, Message: "request cannot be nil"}
	}

	ctx = observability.WithOperation(observability.WithModel(ctx, e.config.Model), op)
	ctx, span := observability.StartSpan(ctx, op,
		attribute.String("llm.model", e.config.Model),
		attribute.String("llm.provider", e.transport.Name()),
	)

	payload := buildPayload(e.config, req, true)
	start := time.Now()

	upstream, err := e.transport.Stream(ctx, payload)
	if err != nil {
		translated := e.translator.Translate(op, err)
		metrics.LLMCallTotal.WithLabelValues(e.transport.Name(), payload.Model, metrics.StatusError).Inc()
		observability.FromContext(ctx).Error("stream failed to open",
			observability.String("kind", string(translated.Kind)),
			observability.Error(err))
		observability.EndSpan(span, translated)
		return nil, translated
	}

	events := make(chan StreamEvent)
	go e.pump(ctx, op, span, payload.Model, start, upstream, events)

	return events, nil
}

// pump translates provider events into StreamEvents until the session ends.
func (e *StreamEngine) pump(
	ctx context.Context,
	op string,
	span trace.Span,
	model string,
	start time.Time,
	upstream EventStream,
	events chan<- StreamEvent,
) {
	logger := observability.FromContext(ctx)

	var (
		usage  TokenUsage
		failed error
	)

	defer close(events)
	defer func() {
		if closeErr := upstream.Close(); closeErr != nil {
			logger.Debug("closing provider stream failed", observability.Error(closeErr))
		}
	}()
	defer func() {
		metrics.LLMCallDuration.WithLabelValues(e.transport.Name(), model).Observe(time.Since(start).Seconds())
		observability.EndSpan(span, failed)
	}()

	send := func(event StreamEvent) bool {
		select {
		case events <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}

	sawStop := false

loop:
	for upstream.Next() {
		switch event := upstream.Current().(type) {
		case MessageStartEvent:
			usage = clampUsage(event.Usage)
			if event.Model != "" {
				model = event.Model
			}
		case TextDeltaEvent:
			if !send(StreamEvent{Kind: EventTextDelta, Delta: event.Text}) {
				failed = ctx.Err()
				logger.Debug("stream consumer went away", observability.Error(failed))
				return
			}
		case MessageDeltaEvent:
			if event.Usage.InputTokens > 0 {
				usage.InputTokens = event.Usage.InputTokens
			}
			if event.Usage.OutputTokens > 0 {
				usage.OutputTokens = event.Usage.OutputTokens
			}
		case MessageStopEvent:
			sawStop = true
			break loop
		}
	}

	err := upstream.Err()
	if err == nil && !sawStop && ctx.Err() == nil {
		err = fmt.Errorf("%w: stream ended before message_stop", ErrStreamTruncated)
	}

	if err != nil {
		translated := e.translator.Translate(op, err)
		failed = translated
		metrics.LLMCallTotal.WithLabelValues(e.transport.Name(), model, metrics.StatusError).Inc()
		logger.Error("stream failed",
			observability.String("kind", string(translated.Kind)),
			observability.Error(err))
		send(StreamEvent{Kind: EventError, Err: translated})
		return
	}

	if ctx.Err() != nil {
		failed = ctx.Err()
		return
	}

	// Usage is recorded when the event is produced, before the consumer sees it.
	e.ledger.Record(ctx, usage, model)
	metrics.LLMCallTotal.WithLabelValues(e.transport.Name(), model, metrics.StatusSuccess).Inc()
	span.SetAttributes(
		attribute.Int("llm.usage.input_tokens", usage.InputTokens),
		attribute.Int("llm.usage.output_tokens", usage.OutputTokens),
	)

	if !send(StreamEvent{Kind: EventUsage, Usage: usage}) {
		return
	}
	if send(StreamEvent{Kind: EventDone}) {
		logger.Debug("stream completed",
			observability.Int("input_tokens", usage.InputTokens),
			observability.Int("output_tokens", usage.OutputTokens))
	}
}
