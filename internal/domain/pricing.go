package domain

import "context"

const tokensPerMillion = 1_000_000.0

// PricingConfig is a per-model price table entry.
type PricingConfig struct {
	InputPricePerMillion  float64 `yaml:"input_per_million"`  // USD per 1M input tokens
	OutputPricePerMillion float64 `yaml:"output_per_million"` // USD per 1M output tokens
}

// DefaultPricingTier is charged for models missing from the price table.
//
//nolint:gochecknoglobals // Read-only pricing constant
var DefaultPricingTier = PricingConfig{
	InputPricePerMillion:  3.0,
	OutputPricePerMillion: 15.0,
}

// Cost is linear in both token counts.
func (p PricingConfig) Cost(usage TokenUsage) float64 {
	return float64(usage.InputTokens)/tokensPerMillion*p.InputPricePerMillion +
		float64(usage.OutputTokens)/tokensPerMillion*p.OutputPricePerMillion
}

// CostCalculator prices token usage for a model.
type CostCalculator interface {
	Calculate(ctx context.Context, model string, usage TokenUsage) (float64, error)
}

// PricingRegistry resolves a model name, or a dated snapshot of it, to its price.
type PricingRegistry interface {
	// GetPricing returns ErrPricingNotFound for unknown models.
	GetPricing(ctx context.Context, model string) (PricingConfig, error)

	RegisterPricing(ctx context.Context, model string, config PricingConfig) error
}
