package domain

import (
	"context"
	"errors"
)

// StandardCostCalculator implements standard token-based cost calculation.
type StandardCostCalculator struct {
	pricingRegistry PricingRegistry
	defaultTier     PricingConfig
}

// NewStandardCostCalculator creates a new cost calculator that charges
// defaultTier for models the registry does not know.
func NewStandardCostCalculator(registry PricingRegistry, defaultTier PricingConfig) *StandardCostCalculator {
	return &StandardCostCalculator{
		pricingRegistry: registry,
		defaultTier:     defaultTier,
	}
}

// Calculate computes the total cost based on token usage and model pricing.
func (c *StandardCostCalculator) Calculate(
	ctx context.Context,
	model string,
	usage TokenUsage,
) (float64, error) {
	if model == "" {
		return 0, errors.New("model cannot be empty")
	}

	pricing, err := c.pricingRegistry.GetPricing(ctx, model)
	if err != nil {
		if !errors.Is(err, ErrPricingNotFound) {
			return 0, err
		}
		pricing = c.defaultTier
	}

	return pricing.Cost(usage), nil
}
