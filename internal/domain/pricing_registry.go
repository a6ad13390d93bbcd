package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrPricingNotFound indicates that no price entry exists for a model.
var ErrPricingNotFound = errors.New("pricing not found")

// InMemoryPricingRegistry stores pricing configs in memory.
// It is filled once at startup and only read afterwards.
type InMemoryPricingRegistry struct {
	mu      sync.RWMutex
	pricing map[string]PricingConfig
}

// NewInMemoryPricingRegistry creates a new in-memory pricing registry.
func NewInMemoryPricingRegistry() *InMemoryPricingRegistry {
	return &InMemoryPricingRegistry{
		mu:      sync.RWMutex{},
		pricing: make(map[string]PricingConfig),
	}
}

// GetPricing retrieves pricing for a model.
func (r *InMemoryPricingRegistry) GetPricing(
	_ context.Context,
	model string,
) (PricingConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if config, exists := r.pricing[model]; exists {
		return config, nil
	}

	// Dated snapshots ("claude-sonnet-4-5-20250929") use their alias price.
	best := ""
	for alias := range r.pricing {
		if strings.HasPrefix(model, alias+"-") && len(alias) > len(best) {
			best = alias
		}
	}
	if best != "" {
		return r.pricing[best], nil
	}

	return PricingConfig{}, fmt.Errorf("%w for model: %s", ErrPricingNotFound, model)
}

// RegisterPricing adds pricing for a model.
func (r *InMemoryPricingRegistry) RegisterPricing(
	_ context.Context,
	model string,
	config PricingConfig,
) error {
	if model == "" {
		return errors.New("model cannot be empty")
	}

	if config.InputPricePerMillion < 0 || config.OutputPricePerMillion < 0 {
		return fmt.Errorf("negative price for model %s", model)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pricing[model] = config
	return nil
}

// RegisterTable adds every entry of a price table, overwriting existing models.
func (r *InMemoryPricingRegistry) RegisterTable(ctx context.Context, table map[string]PricingConfig) error {
	for model, config := range table {
		if err := r.RegisterPricing(ctx, model, config); err != nil {
			return err
		}
	}
	return nil
}

// Models returns the priced models in sorted order.
func (r *InMemoryPricingRegistry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.pricing))
	for model := range r.pricing {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}
