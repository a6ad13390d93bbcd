package domain

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ResponseFormat selects how the model is asked to shape its output.
type ResponseFormat string

const (
	ResponseFormatText ResponseFormat = "text"
	ResponseFormatJSON ResponseFormat = "json"
)

// Message represents a prior chat turn replayed to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest represents a single call into the completion client.
type CompletionRequest struct {
	SystemPrompt   string         `json:"system_prompt"`
	UserMessage    string         `json:"user_message"`
	History        []Message      `json:"history,omitempty"`
	ResponseFormat ResponseFormat `json:"response_format,omitempty"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	// Temperature falls back to the engine default when nil.
	Temperature *float64 `json:"temperature,omitempty"`
}

// TokenUsage tracks token consumption for one or more provider calls.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add returns the element-wise sum of two usages.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}

// Total returns input plus output tokens.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// CompletionResult is the outcome of a blocking completion.
type CompletionResult struct {
	Content string        `json:"content"`
	Usage   TokenUsage    `json:"usage"`
	Latency time.Duration `json:"latency"`
	Model   string        `json:"model"`
}

// StreamEventKind tags the variant carried by a StreamEvent.
type StreamEventKind int

const (
	EventTextDelta StreamEventKind = iota + 1
	EventUsage
	EventDone
	// EventError is terminal: no usage or done event follows it.
	EventError
)

// String returns the wire name of the event kind.
func (k StreamEventKind) String() string {
	switch k {
	case EventTextDelta:
		return "text_delta"
	case EventUsage:
		return "usage"
	case EventDone:
		return "done"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// StreamEvent is a single normalized event produced by the StreamEngine.
type StreamEvent struct {
	Kind  StreamEventKind
	Delta string
	Usage TokenUsage
	Err   error
}

// UsageStats is a point-in-time copy of the process-wide usage counters.
type UsageStats struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalInputTokens  int64   `json:"total_input_tokens"`
	TotalOutputTokens int64   `json:"total_output_tokens"`
	EstimatedCostUSD  float64 `json:"estimated_cost_usd"`
}

// TypedResult is a completion whose content was decoded and validated into T.
type TypedResult[T any] struct {
	Data T `json:"data"`
	// Raw is the JSON text the data was decoded from, fences stripped.
	Raw      string        `json:"raw"`
	Usage    TokenUsage    `json:"usage"`
	Latency  time.Duration `json:"latency"`
	Model    string        `json:"model"`
	Attempts int           `json:"attempts"`
}
