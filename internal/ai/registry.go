package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
)

type ProviderFactory func(ctx context.Context, model string) (Provider, error)

// Registry maps provider ids to factories. Provider selection goes through a
// lookup here, never through string branching at call sites.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

func (r *Registry) Register(name string, f ProviderFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *Registry) Get(ctx context.Context, name string, model string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ai provider: %s", name)
	}
	return f(ctx, model)
}

// Known reports whether a provider id has a registered factory.
func (r *Registry) Known(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// FetchModels returns the live model list for a provider, falling back to the
// static catalog when the vendor endpoint errors or the provider cannot list
// models.
func (r *Registry) FetchModels(ctx context.Context, providerID string) ([]Model, error) {
	p, err := r.Get(ctx, providerID, ResolveDefaultModel(providerID))
	if err != nil {
		return nil, err
	}

	lister, ok := p.(ModelLister)
	if !ok {
		return StaticModels(providerID), nil
	}

	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Printf("list models failed provider=%s err=%v, using static list", providerID, err)
		return StaticModels(providerID), nil
	}
	if len(models) == 0 {
		return StaticModels(providerID), nil
	}
	return models, nil
}
