package openai

import (
	"context"
	"fmt"

	"github.com/davidbz/ember/internal/domain"
)

const (
	// GPT-4o pricing per 1M tokens
	gpt4oInputPerMillion  = 2.5
	gpt4oOutputPerMillion = 10.0

	// GPT-4o mini pricing per 1M tokens
	gpt4oMiniInputPerMillion  = 0.15
	gpt4oMiniOutputPerMillion = 0.6

	// GPT-4.1 pricing per 1M tokens
	gpt41InputPerMillion  = 2.0
	gpt41OutputPerMillion = 8.0

	// GPT-4.1 mini pricing per 1M tokens
	gpt41MiniInputPerMillion  = 0.4
	gpt41MiniOutputPerMillion = 1.6

	// GPT-4 Turbo pricing per 1M tokens
	gpt4TurboInputPerMillion  = 10.0
	gpt4TurboOutputPerMillion = 30.0

	// GPT-3.5 Turbo pricing per 1M tokens
	gpt35TurboInputPerMillion  = 0.5
	gpt35TurboOutputPerMillion = 1.5
)

// PriceTable returns OpenAI model pricing.
func PriceTable() map[string]domain.PricingConfig {
	return map[string]domain.PricingConfig{
		"gpt-4o": {
			InputPricePerMillion:  gpt4oInputPerMillion,
			OutputPricePerMillion: gpt4oOutputPerMillion,
		},
		"gpt-4o-mini": {
			InputPricePerMillion:  gpt4oMiniInputPerMillion,
			OutputPricePerMillion: gpt4oMiniOutputPerMillion,
		},
		"gpt-4.1": {
			InputPricePerMillion:  gpt41InputPerMillion,
			OutputPricePerMillion: gpt41OutputPerMillion,
		},
		"gpt-4.1-mini": {
			InputPricePerMillion:  gpt41MiniInputPerMillion,
			OutputPricePerMillion: gpt41MiniOutputPerMillion,
		},
		"gpt-4-turbo": {
			InputPricePerMillion:  gpt4TurboInputPerMillion,
			OutputPricePerMillion: gpt4TurboOutputPerMillion,
		},
		"gpt-3.5-turbo": {
			InputPricePerMillion:  gpt35TurboInputPerMillion,
			OutputPricePerMillion: gpt35TurboOutputPerMillion,
		},
	}
}

// RegisterPricing registers OpenAI model pricing with the registry.
func RegisterPricing(ctx context.Context, registry domain.PricingRegistry) error {
	for model, config := range PriceTable() {
		if err := registry.RegisterPricing(ctx, model, config); err != nil {
			return fmt.Errorf("failed to register pricing for model %s: %w", model, err)
		}
	}

	return nil
}
