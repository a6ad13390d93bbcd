package openai

import (
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/davidbz/ember/internal/domain"
)

// eventStream adapts chat completion chunks to domain.EventStream.
// One chunk may expand to several wire events; the end of the SSE body becomes MessageStopEvent.
type eventStream struct {
	stream     *ssestream.Stream[openai.ChatCompletionChunk]
	pending    []domain.WireEvent
	current    domain.WireEvent
	started    bool
	finished   bool
	stopReason string
}

// prime buffers the events of the first chunk.
func (s *eventStream) prime() bool {
	for len(s.pending) == 0 {
		if !s.stream.Next() {
			return false
		}
		s.pending = append(s.pending, s.translate(s.stream.Current())...)
	}
	return true
}

// Next advances to the next event.
func (s *eventStream) Next() bool {
	for len(s.pending) == 0 {
		if s.finished {
			return false
		}

		if !s.stream.Next() {
			if s.stream.Err() != nil {
				return false
			}
			s.finished = true
			s.pending = append(s.pending, domain.MessageStopEvent{})
			break
		}

		s.pending = append(s.pending, s.translate(s.stream.Current())...)
	}

	s.current = s.pending[0]
	s.pending = s.pending[1:]
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

func (s *eventStream) translate(chunk openai.ChatCompletionChunk) []domain.WireEvent {
	var events []domain.WireEvent

	if !s.started {
		s.started = true
		events = append(events, domain.MessageStartEvent{Model: chunk.Model})
	}

	for _, choice := range chunk.Choices {
		if choice.Index != 0 {
			continue
		}
		if choice.Delta.Content != "" {
			events = append(events, domain.TextDeltaEvent{Text: choice.Delta.Content})
		}
		if choice.FinishReason != "" {
			s.stopReason = choice.FinishReason
		}
	}

	// Usage arrives on a trailing chunk with no choices when include_usage is set.
	if chunk.Usage.PromptTokens > 0 || chunk.Usage.CompletionTokens > 0 {
		events = append(events, domain.MessageDeltaEvent{
			StopReason: s.stopReason,
			Usage: domain.TokenUsage{
				InputTokens:  int(chunk.Usage.PromptTokens),
				OutputTokens: int(chunk.Usage.CompletionTokens),
			},
		})
	}

	return events
}
