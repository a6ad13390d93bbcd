package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/davidbz/ember/internal/domain"
)

// PricingFile is the YAML price table read from LLM_PRICING_FILE.
//
//	default:
//	  input_per_million: 3
//	  output_per_million: 15
//	models:
//	  claude-sonnet-4-5:
//	    input_per_million: 3
//	    output_per_million: 15
type PricingFile struct {
	Default *domain.PricingConfig           `yaml:"default"`
	Models  map[string]domain.PricingConfig `yaml:"models"`
}

// LoadPricingFile reads and parses a YAML price table.
func LoadPricingFile(path string) (*PricingFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}

	var file PricingFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file %s: %w", path, err)
	}

	return &file, nil
}

// Apply registers the file's models, overriding built-in prices, and returns the default tier to use.
func (f *PricingFile) Apply(ctx context.Context, registry domain.PricingRegistry) (domain.PricingConfig, error) {
	for model, pricing := range f.Models {
		if err := registry.RegisterPricing(ctx, model, pricing); err != nil {
			return domain.PricingConfig{}, fmt.Errorf("invalid price for model %s: %w", model, err)
		}
	}

	if f.Default == nil {
		return domain.DefaultPricingTier, nil
	}

	if f.Default.InputPricePerMillion < 0 || f.Default.OutputPricePerMillion < 0 {
		return domain.PricingConfig{}, errors.New("negative default price")
	}

	return *f.Default, nil
}
