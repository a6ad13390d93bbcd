package domain_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/ember/internal/domain"
	"github.com/davidbz/ember/internal/mocks"
)

func TestUsageLedger_Record(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	require.Equal(t, domain.UsageStats{}, ledger.Snapshot())

	ledger.Record(ctx, domain.TokenUsage{InputTokens: 1000, OutputTokens: 500}, testModel)
	ledger.Record(ctx, domain.TokenUsage{InputTokens: 2000, OutputTokens: 0}, testModel)

	stats := ledger.Snapshot()
	require.Equal(t, int64(2), stats.TotalRequests)
	require.Equal(t, int64(3000), stats.TotalInputTokens)
	require.Equal(t, int64(500), stats.TotalOutputTokens)
	require.InDelta(t, (3000*3.0+500*15.0)/1_000_000, stats.EstimatedCostUSD, 1e-12)
}

func TestUsageLedger_UnknownModelUsesDefaultTier(t *testing.T) {
	ledger := newTestLedger(t)

	ledger.Record(context.Background(), domain.TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}, "mystery")

	require.InDelta(t,
		domain.DefaultPricingTier.InputPricePerMillion+domain.DefaultPricingTier.OutputPricePerMillion,
		ledger.Snapshot().EstimatedCostUSD, 1e-9)
}

func TestUsageLedger_NegativeUsageIsClamped(t *testing.T) {
	ledger := newTestLedger(t)

	ledger.Record(context.Background(), domain.TokenUsage{InputTokens: -5, OutputTokens: 3}, testModel)

	stats := ledger.Snapshot()
	require.Equal(t, int64(1), stats.TotalRequests)
	require.Equal(t, int64(0), stats.TotalInputTokens)
	require.Equal(t, int64(3), stats.TotalOutputTokens)
}

func TestUsageLedger_CostErrorRecordsTokensOnly(t *testing.T) {
	costs := mocks.NewMockCostCalculator(t)
	costs.EXPECT().
		Calculate(mock.Anything, "broken", domain.TokenUsage{InputTokens: 10, OutputTokens: 10}).
		Return(0, errors.New("pricing backend down")).
		Once()

	ledger := domain.NewUsageLedger(costs, nil)
	ledger.Record(context.Background(), domain.TokenUsage{InputTokens: 10, OutputTokens: 10}, "broken")

	stats := ledger.Snapshot()
	require.Equal(t, int64(1), stats.TotalRequests)
	require.Equal(t, int64(20), stats.TotalInputTokens+stats.TotalOutputTokens)
	require.Zero(t, stats.EstimatedCostUSD)
}

func TestUsageLedger_PublishesEvent(t *testing.T) {
	costs := mocks.NewMockCostCalculator(t)
	costs.EXPECT().Calculate(mock.Anything, testModel, mock.Anything).Return(0.25, nil).Once()

	publisher := mocks.NewMockEventPublisher(t)
	publisher.EXPECT().
		Publish(mock.Anything, domain.EventUsageRecorded, mock.MatchedBy(func(data map[string]interface{}) bool {
			return data["model"] == testModel &&
				data["input_tokens"] == 7 &&
				data["output_tokens"] == 9 &&
				data["cost_usd"] == 0.25 &&
				data["total_requests"] == int64(1)
		})).
		Return().
		Once()

	ledger := domain.NewUsageLedger(costs, publisher)
	ledger.Record(context.Background(), domain.TokenUsage{InputTokens: 7, OutputTokens: 9}, testModel)
}

func TestUsageLedger_ConcurrentRecords(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	const (
		writers = 20
		perEach = 50
	)

	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perEach {
				ledger.Record(ctx, domain.TokenUsage{InputTokens: 2, OutputTokens: 1}, testModel)
				_ = ledger.Snapshot()
			}
		}()
	}
	wg.Wait()

	stats := ledger.Snapshot()
	require.Equal(t, int64(writers*perEach), stats.TotalRequests)
	require.Equal(t, int64(writers*perEach*2), stats.TotalInputTokens)
	require.Equal(t, int64(writers*perEach), stats.TotalOutputTokens)
	require.InDelta(t, float64(writers*perEach)*(2*3.0+15.0)/1_000_000, stats.EstimatedCostUSD, 1e-9)
}

func TestUsageLedger_SnapshotIsACopy(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	ledger.Record(ctx, domain.TokenUsage{InputTokens: 1}, testModel)
	before := ledger.Snapshot()
	ledger.Record(ctx, domain.TokenUsage{InputTokens: 1}, testModel)

	require.Equal(t, int64(1), before.TotalRequests)
	require.Equal(t, int64(2), ledger.Snapshot().TotalRequests)
}
