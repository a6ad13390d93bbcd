package anthropic

import (
	"context"
	"fmt"

	"github.com/davidbz/ember/internal/domain"
)

const (
	// Opus pricing per 1M tokens
	opusInputPerMillion  = 15.0
	opusOutputPerMillion = 75.0

	// Sonnet pricing per 1M tokens
	sonnetInputPerMillion  = 3.0
	sonnetOutputPerMillion = 15.0

	// Haiku 3.5 pricing per 1M tokens
	haiku35InputPerMillion  = 0.8
	haiku35OutputPerMillion = 4.0

	// Haiku 4.5 pricing per 1M tokens
	haiku45InputPerMillion  = 1.0
	haiku45OutputPerMillion = 5.0
)

// PriceTable returns Claude model pricing.
func PriceTable() map[string]domain.PricingConfig {
	opus := domain.PricingConfig{
		InputPricePerMillion:  opusInputPerMillion,
		OutputPricePerMillion: opusOutputPerMillion,
	}
	sonnet := domain.PricingConfig{
		InputPricePerMillion:  sonnetInputPerMillion,
		OutputPricePerMillion: sonnetOutputPerMillion,
	}

	return map[string]domain.PricingConfig{
		"claude-opus-4-1":          opus,
		"claude-opus-4-0":          opus,
		"claude-sonnet-4-5":        sonnet,
		"claude-sonnet-4-0":        sonnet,
		"claude-3-7-sonnet-latest": sonnet,
		"claude-3-5-haiku-latest": {
			InputPricePerMillion:  haiku35InputPerMillion,
			OutputPricePerMillion: haiku35OutputPerMillion,
		},
		"claude-haiku-4-5": {
			InputPricePerMillion:  haiku45InputPerMillion,
			OutputPricePerMillion: haiku45OutputPerMillion,
		},
	}
}

// RegisterPricing registers Anthropic model pricing with the registry.
func RegisterPricing(ctx context.Context, registry domain.PricingRegistry) error {
	for model, config := range PriceTable() {
		if err := registry.RegisterPricing(ctx, model, config); err != nil {
			return fmt.Errorf("failed to register pricing for model %s: %w", model, err)
		}
	}

	return nil
}
