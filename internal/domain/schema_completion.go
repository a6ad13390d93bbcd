package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbz/ember/internal/metrics"
	"github.com/davidbz/ember/internal/observability"
)

const correctionPrompt = "Your previous response could not be accepted.\n" +
	"Validation error: %s\n\n" +
	"Return the corrected response as a single valid JSON value that satisfies the required structure. " +
	"Do not include explanations or code fences."

// SchemaCompletion wraps a Completer with a structured-output contract.
// A response failing Decode gets exactly one corrective retry.
type SchemaCompletion[T any] struct {
	completer Completer
	schema    Schema[T]
}

// NewSchemaCompletion creates a schema-validated completion for T.
func NewSchemaCompletion[T any](completer Completer, schema Schema[T]) *SchemaCompletion[T] {
	return &SchemaCompletion[T]{
		completer: completer,
		schema:    schema,
	}
}

// Complete returns data that satisfies the schema or a KindSchemaValidationFailed error.
// Usage and latency of the result cover every attempt made.
func (s *SchemaCompletion[T]) Complete(ctx context.Context, req *CompletionRequest) (*TypedResult[T], error) {
	const op = "SchemaCompletion.Complete"

	if req == nil {
		return nil, &Error{Kind: KindBadRequest, Op: op, Message: "request cannot be nil"}
	}

	ctx = observability.WithOperation(ctx, op)
	logger := observability.FromContext(ctx)

	first := *req
	first.ResponseFormat = ResponseFormatJSON

	firstResult, err := s.completer.Complete(ctx, &first)
	if err != nil {
		return nil, err
	}

	data, raw, validationErr := s.decode(firstResult.Content)
	if validationErr == nil {
		return &TypedResult[T]{
			Data:     data,
			Raw:      raw,
			Usage:    firstResult.Usage,
			Latency:  firstResult.Latency,
			Model:    firstResult.Model,
			Attempts: 1,
		}, nil
	}

	logger.Warn("structured response failed validation, retrying once",
		observability.Error(validationErr))

	retry := correctiveRequest(&first, firstResult.Content, validationErr)

	secondResult, err := s.completer.Complete(ctx, retry)
	if err != nil {
		return nil, err
	}

	usage := firstResult.Usage.Add(secondResult.Usage)
	latency := firstResult.Latency + secondResult.Latency

	data, raw, validationErr = s.decode(secondResult.Content)
	if validationErr != nil {
		metrics.LLMSchemaRetries.WithLabelValues("failed").Inc()
		logger.Error("structured response failed validation after retry",
			observability.Error(validationErr))
		return nil, &Error{
			Kind:    KindSchemaValidationFailed,
			Op:      op,
			Message: fmt.Sprintf("response failed validation after one corrective retry: %v", validationErr),
			Err:     validationErr,
		}
	}

	metrics.LLMSchemaRetries.WithLabelValues("recovered").Inc()

	return &TypedResult[T]{
		Data:     data,
		Raw:      raw,
		Usage:    usage,
		Latency:  latency,
		Model:    secondResult.Model,
		Attempts: 2,
	}, nil
}

func (s *SchemaCompletion[T]) decode(content string) (T, string, error) {
	raw := StripCodeFences(content)
	if raw == "" {
		var zero T
		return zero, raw, errors.New("response is empty")
	}

	data, err := s.schema.Decode([]byte(raw))
	return data, raw, err
}

// correctiveRequest replays the failed exchange and asks for corrected JSON.
func correctiveRequest(original *CompletionRequest, invalidOutput string, validationErr error) *CompletionRequest {
	history := make([]Message, 0, len(original.History)+2)
	history = append(history, original.History...)
	history = append(history,
		Message{Role: RoleUser, Content: original.UserMessage},
		Message{Role: RoleAssistant, Content: invalidOutput},
	)

	retry := *original
	retry.History = history
	retry.UserMessage = fmt.Sprintf(correctionPrompt, validationErr.Error())
	retry.ResponseFormat = ResponseFormatJSON

	return &retry
}
