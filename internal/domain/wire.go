package domain

// WirePayload is the provider-neutral body of a message-completion call.
type WirePayload struct {
	Model       string
	MaxTokens   int
	Temperature float64
	System      string
	Messages    []Message
	Stream      bool
}

// WireResponse is a non-streaming provider response, resolved at the transport boundary.
type WireResponse struct {
	Model      string
	StopReason string
	Usage      TokenUsage
	Content    []ContentBlock
}

// ContentBlock is one block of a provider response.
// Variants: TextBlock, OtherBlock.
type ContentBlock interface {
	contentBlock()
}

// TextBlock carries generated text.
type TextBlock struct {
	Text string
}

// OtherBlock stands for any non-text block (tool use, thinking, images).
type OtherBlock struct {
	Type string
}

func (TextBlock) contentBlock()  {}
func (OtherBlock) contentBlock() {}

// WireEvent is one event of a provider streaming session.
// Variants: MessageStartEvent, TextDeltaEvent, MessageDeltaEvent, MessageStopEvent, IgnoredEvent.
type WireEvent interface {
	wireEvent()
}

// MessageStartEvent opens a session and reports the initial usage.
type MessageStartEvent struct {
	Model string
	Usage TokenUsage
}

// TextDeltaEvent carries a new text fragment.
type TextDeltaEvent struct {
	Text string
}

// MessageDeltaEvent reports cumulative usage mid-stream.
// A zero InputTokens means the provider did not update the input count.
type MessageDeltaEvent struct {
	StopReason string
	Usage      TokenUsage
}

// MessageStopEvent signals the end of the session.
type MessageStopEvent struct{}

// IgnoredEvent stands for provider events the engine does not surface.
type IgnoredEvent struct {
	Type string
}

func (MessageStartEvent) wireEvent() {}
func (TextDeltaEvent) wireEvent()    {}
func (MessageDeltaEvent) wireEvent() {}
func (MessageStopEvent) wireEvent()  {}
func (IgnoredEvent) wireEvent()      {}

// EventStream iterates over a provider streaming session.
// Close must be called to release the underlying connection.
type EventStream interface {
	Next() bool
	Current() WireEvent
	Err() error
	Close() error
}

// SliceStream is an EventStream over a fixed list of events, optionally failing at the end.
type SliceStream struct {
	events []WireEvent
	idx    int
	err    error
	closed bool
}

// NewSliceStream creates an EventStream that yields events and then reports err.
func NewSliceStream(events []WireEvent, err error) *SliceStream {
	return &SliceStream{
		events: events,
		idx:    -1,
		err:    err,
	}
}

// Next advances to the next event.
func (s *SliceStream) Next() bool {
	if s.closed || s.idx+1 >= len(s.events) {
		return false
	}
	s.idx++
	return true
}

// Current returns the event at the cursor.
func (s *SliceStream) Current() WireEvent {
	if s.idx < 0 || s.idx >= len(s.events) {
		return nil
	}
	return s.events[s.idx]
}

// Err returns the terminal error once all events were consumed.
func (s *SliceStream) Err() error {
	if s.idx+1 < len(s.events) && !s.closed {
		return nil
	}
	return s.err
}

// Close stops the iteration.
func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *SliceStream) Closed() bool {
	return s.closed
}
