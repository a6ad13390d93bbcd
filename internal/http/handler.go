package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/davidbz/ember/internal/domain"
	"github.com/davidbz/ember/internal/observability"
)

// Streamer runs streaming completions.
type Streamer interface {
	Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamEvent, error)
}

// UsageReporter exposes the process-wide usage counters.
type UsageReporter interface {
	Snapshot() domain.UsageStats
}

// completionRequest is the body of POST /v1/completions.
type completionRequest struct {
	domain.CompletionRequest
	Stream bool `json:"stream,omitempty"`
}

type completionResponse struct {
	Content   string            `json:"content"`
	Model     string            `json:"model"`
	Usage     domain.TokenUsage `json:"usage"`
	LatencyMS int64             `json:"latency_ms"`
}

type errorBody struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// Handler handles HTTP requests.
type Handler struct {
	completer domain.Completer
	streamer  Streamer
	usage     UsageReporter
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(completer *domain.CompletionEngine, streamer *domain.StreamEngine, ledger *domain.UsageLedger) *Handler {
	return newHandler(completer, streamer, ledger)
}

func newHandler(completer domain.Completer, streamer Streamer, usage UsageReporter) *Handler {
	return &Handler{
		completer: completer,
		streamer:  streamer,
		usage:     usage,
	}
}

// HandleCompletion processes completion requests.
func (h *Handler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Early validation.
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse request.
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &domain.Error{
			Kind:    domain.KindBadRequest,
			Message: fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}

	if err := validateRequest(&req.CompletionRequest); err != nil {
		writeError(w, err)
		return
	}

	logger := observability.FromContext(ctx)
	logger.Info("completion request received",
		observability.Bool("stream", req.Stream),
		observability.String("response_format", string(req.ResponseFormat)),
		observability.Int("history", len(req.History)),
	)

	// Handle streaming vs non-streaming.
	if req.Stream {
		h.handleStream(ctx, w, &req.CompletionRequest)
		return
	}

	result, err := h.completer.Complete(ctx, &req.CompletionRequest)
	if err != nil {
		logger.Error("completion failed", observability.Error(err))
		writeError(w, err)
		return
	}

	logger.Info("completion succeeded",
		observability.Int("tokens", result.Usage.Total()),
		observability.Duration("latency", result.Latency),
	)

	writeJSON(w, http.StatusOK, completionResponse{
		Content:   result.Content,
		Model:     result.Model,
		Usage:     result.Usage,
		LatencyMS: result.Latency.Milliseconds(),
	})
}

func (h *Handler) handleStream(ctx context.Context, w http.ResponseWriter, req *domain.CompletionRequest) {
	logger := observability.FromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	events, err := h.streamer.Stream(ctx, req)
	if err != nil {
		logger.Error("stream failed", observability.Error(err))
		writeError(w, err)
		return
	}

	// Set headers for SSE.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			// Client disconnected or timeout
			logger.Info("stream context done", observability.Error(ctx.Err()))
			return

		case event, eventOk := <-events:
			if !eventOk {
				logger.Info("stream completed normally")
				return
			}

			writeEvent(w, event)
			flusher.Flush()

			if event.Kind == domain.EventError {
				logger.Error("stream event error", observability.Error(event.Err))
			}
		}
	}
}

// HandleUsage returns the usage ledger snapshot.
func (h *Handler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.usage.Snapshot())
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func validateRequest(req *domain.CompletionRequest) error {
	bad := func(msg string) error {
		return &domain.Error{Kind: domain.KindBadRequest, Message: msg}
	}

	if req.UserMessage == "" {
		return bad("user_message is required")
	}

	switch req.ResponseFormat {
	case "", domain.ResponseFormatText, domain.ResponseFormatJSON:
	default:
		return bad(fmt.Sprintf("unsupported response_format %q", req.ResponseFormat))
	}

	for i, msg := range req.History {
		if msg.Role != domain.RoleUser && msg.Role != domain.RoleAssistant {
			return bad(fmt.Sprintf("history[%d]: role must be user or assistant", i))
		}
	}

	if req.MaxTokens < 0 {
		return bad("max_tokens cannot be negative")
	}

	return nil
}

// writeEvent writes one SSE frame named after the event kind.
func writeEvent(w http.ResponseWriter, event domain.StreamEvent) {
	var data interface{}

	switch event.Kind {
	case domain.EventTextDelta:
		data = map[string]string{"delta": event.Delta}
	case domain.EventUsage:
		data = event.Usage
	case domain.EventError:
		data = toErrorBody(event.Err)
	default:
		data = struct{}{}
	}

	payload, _ := json.Marshal(data)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, payload)
}

func writeError(w http.ResponseWriter, err error) {
	var typed *domain.Error
	if errors.As(err, &typed) && typed.RetryAfter != "" {
		w.Header().Set("Retry-After", typed.RetryAfter)
	}

	writeJSON(w, statusFor(domain.KindOf(err)), errorResponse{Error: toErrorBody(err)})
}

func toErrorBody(err error) errorBody {
	var typed *domain.Error
	if errors.As(err, &typed) {
		return errorBody{Kind: typed.Kind, Message: typed.Message}
	}
	return errorBody{Kind: domain.KindUnexpected, Message: err.Error()}
}

// statusFor maps error kinds to HTTP statuses. Upstream failures surface as gateway errors.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindProviderOverloaded:
		return http.StatusServiceUnavailable
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	case domain.KindAuthenticationFailed, domain.KindProviderError,
		domain.KindConnectionFailed, domain.KindEmptyCompletion:
		return http.StatusBadGateway
	case domain.KindSchemaValidationFailed:
		return http.StatusUnprocessableEntity
	case domain.KindCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Already written status, can't change it.
		return
	}
}
