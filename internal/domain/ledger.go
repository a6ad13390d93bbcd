package domain

import (
	"context"
	"sync"

	"github.com/davidbz/ember/internal/metrics"
	"github.com/davidbz/ember/internal/observability"
)

// EventUsageRecorded is published after every ledger update.
const EventUsageRecorded = "llm.usage"

// UsageLedger accumulates request, token and cost counters for the process lifetime.
// It is safe for concurrent use.
type UsageLedger struct {
	mu        sync.Mutex
	stats     UsageStats
	costs     CostCalculator
	publisher EventPublisher
}

// NewUsageLedger creates a ledger. publisher may be nil.
func NewUsageLedger(costs CostCalculator, publisher EventPublisher) *UsageLedger {
	return &UsageLedger{
		costs:     costs,
		publisher: publisher,
	}
}

// Record adds one request worth of usage, priced for model.
func (l *UsageLedger) Record(ctx context.Context, usage TokenUsage, model string) {
	usage = clampUsage(usage)

	cost, err := l.costs.Calculate(ctx, model, usage)
	if err != nil {
		observability.FromContext(ctx).Warn("cost estimation failed, recording tokens only",
			observability.String("model", model),
			observability.Error(err))
		cost = 0
	}

	l.mu.Lock()
	l.stats.TotalRequests++
	l.stats.TotalInputTokens += int64(usage.InputTokens)
	l.stats.TotalOutputTokens += int64(usage.OutputTokens)
	l.stats.EstimatedCostUSD += cost
	snapshot := l.stats
	l.mu.Unlock()

	metrics.LLMTokensUsed.WithLabelValues(model, "input").Add(float64(usage.InputTokens))
	metrics.LLMTokensUsed.WithLabelValues(model, "output").Add(float64(usage.OutputTokens))
	metrics.LLMCostUSD.WithLabelValues(model).Add(cost)

	if l.publisher != nil {
		l.publisher.Publish(ctx, EventUsageRecorded, map[string]interface{}{
			"model":               model,
			"input_tokens":        usage.InputTokens,
			"output_tokens":       usage.OutputTokens,
			"cost_usd":            cost,
			"total_requests":      snapshot.TotalRequests,
			"total_cost_usd":      snapshot.EstimatedCostUSD,
			"total_input_tokens":  snapshot.TotalInputTokens,
			"total_output_tokens": snapshot.TotalOutputTokens,
		})
	}
}

// Snapshot returns a point-in-time copy of the counters.
func (l *UsageLedger) Snapshot() UsageStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.stats
}

func clampUsage(usage TokenUsage) TokenUsage {
	if usage.InputTokens < 0 {
		usage.InputTokens = 0
	}
	if usage.OutputTokens < 0 {
		usage.OutputTokens = 0
	}
	return usage
}
