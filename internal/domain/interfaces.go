package domain

import "context"

// Transport sends wire payloads to an LLM provider.
type Transport interface {
	// Send performs a blocking message-completion call.
	Send(ctx context.Context, payload *WirePayload) (*WireResponse, error)

	// Stream opens a streaming session. The caller must Close the returned stream.
	Stream(ctx context.Context, payload *WirePayload) (EventStream, error)

	// Name returns the transport identifier.
	Name() string
}

// Provider is a Transport that knows which models it serves.
type Provider interface {
	Transport

	// IsModelSupported checks if the provider supports the given model.
	IsModelSupported(ctx context.Context, model string) bool

	// SupportedModels returns the models the provider serves.
	SupportedModels(ctx context.Context) []string
}

// ProviderRegistry manages available providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider Provider) error

	// Get retrieves a provider by name.
	Get(ctx context.Context, providerName string) (Provider, error)

	// List returns all available providers.
	List(ctx context.Context) ([]string, error)

	// GetByModel retrieves a provider that supports the given model.
	GetByModel(ctx context.Context, model string) (Provider, error)
}

// Completer performs blocking completions.
type Completer interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)
}

// UsageRecorder accumulates token usage.
type UsageRecorder interface {
	Record(ctx context.Context, usage TokenUsage, model string)
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
