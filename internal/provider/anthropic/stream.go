package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/davidbz/ember/internal/domain"
)

// eventStream adapts the SDK SSE stream to domain.EventStream.
type eventStream struct {
	stream  *ssestream.Stream[anthropic.MessageStreamEventUnion]
	current domain.WireEvent
	primed  bool
}

// prime reads the first event ahead of the consumer.
func (s *eventStream) prime() bool {
	if !s.stream.Next() {
		return false
	}
	s.current = toWireEvent(s.stream.Current())
	s.primed = true
	return true
}

// Next advances to the next event.
func (s *eventStream) Next() bool {
	if s.primed {
		s.primed = false
		return true
	}

	if !s.stream.Next() {
		return false
	}

	s.current = toWireEvent(s.stream.Current())
	return true
}

// Current returns the event at the cursor.
func (s *eventStream) Current() domain.WireEvent {
	return s.current
}

// Err returns the stream failure, normalized to *domain.StatusError for HTTP errors.
func (s *eventStream) Err() error {
	err := s.stream.Err()
	if err == nil {
		return nil
	}
	return toStatusError(err)
}

// Close releases the HTTP connection.
func (s *eventStream) Close() error {
	return s.stream.Close()
}

// toWireEvent resolves an SDK stream event into the domain wire model.
func toWireEvent(event anthropic.MessageStreamEventUnion) domain.WireEvent {
	switch variant := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		return domain.MessageStartEvent{
			Model: string(variant.Message.Model),
			Usage: domain.TokenUsage{
				InputTokens:  int(variant.Message.Usage.InputTokens),
				OutputTokens: int(variant.Message.Usage.OutputTokens),
			},
		}
	case anthropic.ContentBlockDeltaEvent:
		if delta, ok := variant.Delta.AsAny().(anthropic.TextDelta); ok {
			return domain.TextDeltaEvent{Text: delta.Text}
		}
		return domain.IgnoredEvent{Type: variant.Delta.Type}
	case anthropic.MessageDeltaEvent:
		return domain.MessageDeltaEvent{
			StopReason: string(variant.Delta.StopReason),
			Usage: domain.TokenUsage{
				InputTokens:  int(variant.Usage.InputTokens),
				OutputTokens: int(variant.Usage.OutputTokens),
			},
		}
	case anthropic.MessageStopEvent:
		return domain.MessageStopEvent{}
	default:
		return domain.IgnoredEvent{Type: event.Type}
	}
}
