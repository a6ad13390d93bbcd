package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/ember/internal/config"
	"github.com/davidbz/ember/internal/domain"
	eventsredis "github.com/davidbz/ember/internal/events/redis"
	"github.com/davidbz/ember/internal/http"
	"github.com/davidbz/ember/internal/http/middleware"
	"github.com/davidbz/ember/internal/observability"
	"github.com/davidbz/ember/internal/provider/anthropic"
	"github.com/davidbz/ember/internal/provider/echo"
	"github.com/davidbz/ember/internal/provider/openai"
	"github.com/davidbz/ember/internal/provider/registry"
)

// providerAuto routes each request by model through the registry.
const providerAuto = "auto"

// ErrProviderNotConfigured indicates that LLM_PROVIDER names a provider without credentials.
var ErrProviderNotConfigured = errors.New("provider not configured")

// overrideFunc adjusts the loaded configuration before anything is built from it.
type overrideFunc func(cfg *config.Config)

func buildContainer(override overrideFunc) (*dig.Container, error) {
	container := dig.New()

	provides := []struct {
		name        string
		constructor interface{}
	}{
		// Configuration
		{"config", func() *config.Config {
			cfg := config.Load()
			if override != nil {
				override(cfg)
			}
			return cfg
		}},
		{"config dependencies", config.ParseDependenciesConfig},

		// Observability
		{"logger", observability.InitLogger},
		{"event publisher", newEventPublisher},

		// Accounting
		{"cost calculator", newCostCalculator},
		{"usage ledger", domain.NewUsageLedger},

		// Providers
		{"provider registry", newProviderRegistry},
		{"transport", newTransport},
		{"error translator", func(cfg *config.LLMConfig) *domain.ErrorTranslator {
			return domain.NewErrorTranslator(cfg.RequestTimeout())
		}},

		// Engines
		{"completion engine", func(
			transport domain.Transport,
			ledger *domain.UsageLedger,
			translator *domain.ErrorTranslator,
			cfg *config.LLMConfig,
		) *domain.CompletionEngine {
			return domain.NewCompletionEngine(transport, ledger, translator, cfg.EngineConfig())
		}},
		{"stream engine", func(
			transport domain.Transport,
			ledger *domain.UsageLedger,
			translator *domain.ErrorTranslator,
			cfg *config.LLMConfig,
		) *domain.StreamEngine {
			return domain.NewStreamEngine(transport, ledger, translator, cfg.EngineConfig())
		}},

		// HTTP Layer
		{"middleware chain", middleware.BuildMiddlewareChain},
		{"HTTP handler", http.NewHandler},
		{"HTTP server", http.NewServer},
	}

	for _, p := range provides {
		if err := container.Provide(p.constructor); err != nil {
			return nil, fmt.Errorf("failed to provide %s: %w", p.name, err)
		}
	}

	// Initialize the logger before anything else logs.
	if err := container.Invoke(func(*zap.Logger) {}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return container, nil
}

// newEventPublisher writes usage events to Redis when configured and to the log otherwise.
func newEventPublisher(cfg *config.RedisConfig, logger *zap.Logger) (domain.EventPublisher, error) {
	bus := observability.NewEventBus(logger)
	if cfg.URL == "" {
		return bus, nil
	}

	client, err := eventsredis.NewClient(context.Background(), cfg.URL)
	if err != nil {
		return nil, err
	}

	logger.Info("publishing usage events to redis", observability.String("stream", cfg.UsageStream))
	return eventsredis.NewStreamPublisher(client, cfg.UsageStream, cfg.StreamMaxLen, bus), nil
}

// newCostCalculator loads the built-in price tables, then the optional pricing file on top.
func newCostCalculator(cfg *config.LLMConfig) (domain.CostCalculator, error) {
	ctx := context.Background()
	pricing := domain.NewInMemoryPricingRegistry()

	for name, register := range map[string]func(context.Context, domain.PricingRegistry) error{
		"anthropic": anthropic.RegisterPricing,
		"openai":    openai.RegisterPricing,
		"echo":      echo.RegisterPricing,
	} {
		if err := register(ctx, pricing); err != nil {
			return nil, fmt.Errorf("failed to register %s pricing: %w", name, err)
		}
	}

	defaultTier := domain.DefaultPricingTier
	if cfg.PricingFile != "" {
		file, err := config.LoadPricingFile(cfg.PricingFile)
		if err != nil {
			return nil, err
		}
		if defaultTier, err = file.Apply(ctx, pricing); err != nil {
			return nil, fmt.Errorf("failed to apply pricing file: %w", err)
		}
		observability.FromContext(ctx).Info("pricing file loaded",
			observability.String("path", cfg.PricingFile),
			observability.Int("models", len(file.Models)))
	}

	return domain.NewStandardCostCalculator(pricing, defaultTier), nil
}

// newProviderRegistry registers the offline echo provider and every provider with credentials.
func newProviderRegistry(
	anthropicConfig *anthropic.Config,
	openaiConfig *openai.Config,
) (*registry.Registry, error) {
	ctx := context.Background()
	reg := registry.NewRegistry()

	if err := reg.Register(ctx, echo.NewProvider()); err != nil {
		return nil, fmt.Errorf("failed to register echo provider: %w", err)
	}

	if anthropicConfig.APIKey != "" {
		provider, err := anthropic.NewProvider(*anthropicConfig)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(ctx, provider); err != nil {
			return nil, fmt.Errorf("failed to register Anthropic provider: %w", err)
		}
	}

	if openaiConfig.APIKey != "" {
		provider, err := openai.NewProvider(*openaiConfig)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(ctx, provider); err != nil {
			return nil, fmt.Errorf("failed to register OpenAI provider: %w", err)
		}
	}

	return reg, nil
}

// newTransport pins the engines to LLM_PROVIDER, or routes by model when it is "auto".
func newTransport(reg *registry.Registry, cfg *config.LLMConfig) (domain.Transport, error) {
	ctx := context.Background()
	logger := observability.FromContext(ctx)

	if cfg.Provider == "" || cfg.Provider == providerAuto {
		if _, err := reg.GetByModel(ctx, cfg.Model); err != nil {
			names, _ := reg.List(ctx)
			logger.Warn("no configured provider serves LLM_MODEL, set a provider API key or pick a listed model",
				observability.String("model", cfg.Model),
				observability.String("providers", strings.Join(names, ",")))
		} else {
			logger.Info("routing requests by model", observability.String("model", cfg.Model))
		}
		return reg, nil
	}

	provider, err := reg.Get(ctx, cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (set its API key or LLM_PROVIDER=%s)",
			ErrProviderNotConfigured, cfg.Provider, providerAuto)
	}

	if !provider.IsModelSupported(ctx, cfg.Model) {
		logger.Warn("model is not in the provider's known list, sending anyway",
			observability.String("provider", cfg.Provider),
			observability.String("model", cfg.Model))
	}

	logger.Info("using provider",
		observability.String("provider", provider.Name()),
		observability.String("model", cfg.Model))

	return provider, nil
}
