// Package registry indexes providers by name and model and routes wire payloads to them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/davidbz/ember/internal/domain"
	"github.com/davidbz/ember/internal/observability"
)

const transportName = "registry"

// Registry implements the ProviderRegistry interface.
// It is also a domain.Transport that forwards each payload to the provider serving payload.Model.
type Registry struct {
	mu              sync.RWMutex
	providers       map[string]domain.Provider
	modelToProvider map[string]string
}

// Compile-time checks for the registry roles.
var (
	_ domain.ProviderRegistry = (*Registry)(nil)
	_ domain.Transport        = (*Registry)(nil)
)

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		mu:              sync.RWMutex{},
		providers:       make(map[string]domain.Provider),
		modelToProvider: make(map[string]string),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(ctx context.Context, provider domain.Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	r.providers[name] = provider

	// Build reverse index from provider's supported models
	for _, model := range provider.SupportedModels(ctx) {
		r.modelToProvider[model] = name
	}

	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(_ context.Context, providerName string) (domain.Provider, error) {
	if providerName == "" {
		return nil, errors.New("provider name cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[providerName]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", providerName)
	}

	return provider, nil
}

// List returns all available providers in sorted order.
func (r *Registry) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// GetByModel retrieves a provider that supports the given model.
func (r *Registry) GetByModel(ctx context.Context, model string) (domain.Provider, error) {
	if model == "" {
		return nil, errors.New("model cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	providerName, exists := r.modelToProvider[model]
	if !exists {
		// Dated snapshots and unlisted models are matched by asking each provider, in name order.
		names := make([]string, 0, len(r.providers))
		for name := range r.providers {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if r.providers[name].IsModelSupported(ctx, model) {
				return r.providers[name], nil
			}
		}
		return nil, fmt.Errorf("no provider found for model: %s", model)
	}

	provider, exists := r.providers[providerName]
	if !exists {
		return nil, fmt.Errorf("provider not found: %s", providerName)
	}

	return provider, nil
}

// Send routes a blocking call to the provider serving payload.Model.
func (r *Registry) Send(ctx context.Context, payload *domain.WirePayload) (*domain.WireResponse, error) {
	provider, err := r.route(ctx, payload)
	if err != nil {
		return nil, err
	}

	return provider.Send(observability.WithProvider(ctx, provider.Name()), payload)
}

// Stream routes a streaming call to the provider serving payload.Model.
func (r *Registry) Stream(ctx context.Context, payload *domain.WirePayload) (domain.EventStream, error) {
	provider, err := r.route(ctx, payload)
	if err != nil {
		return nil, err
	}

	return provider.Stream(observability.WithProvider(ctx, provider.Name()), payload)
}

// Name returns the transport identifier.
func (r *Registry) Name() string {
	return transportName
}

func (r *Registry) route(ctx context.Context, payload *domain.WirePayload) (domain.Provider, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	provider, err := r.GetByModel(ctx, payload.Model)
	if err != nil {
		return nil, &domain.Error{
			Kind:    domain.KindBadRequest,
			Message: err.Error(),
			Err:     err,
		}
	}

	observability.FromContext(ctx).Debug("routing payload",
		observability.String("provider", provider.Name()),
		observability.String("model", payload.Model))

	return provider, nil
}
