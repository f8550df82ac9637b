package llm

import (
	"context"
	"fmt"
	"sync"

	"harugo/internal/config"
)

// Registry is the process-wide backend cache keyed by provider identifier.
// The first caller for an identifier pays the construction cost; everyone
// after reuses the handle. Races on first access are resolved first-writer
// wins: a duplicate construction is discarded, never stored.
type Registry struct {
	cfg *config.Config

	mu       sync.Mutex
	backends map[string]Backend
}

func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		cfg:      cfg,
		backends: make(map[string]Backend),
	}
}

// Backend returns the shared handle for the identifier, constructing it on
// first use.
func (r *Registry) Backend(ctx context.Context, id string) (Backend, error) {
	r.mu.Lock()
	if backend, ok := r.backends[id]; ok {
		r.mu.Unlock()
		return backend, nil
	}
	r.mu.Unlock()

	built, err := r.build(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if winner, ok := r.backends[id]; ok {
		return winner, nil
	}
	r.backends[id] = built
	return built, nil
}

func (r *Registry) build(ctx context.Context, id string) (Backend, error) {
	provCfg, ok := r.cfg.Providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", id)
	}
	family := provCfg.Family
	if family == "" {
		family = id
	}

	switch family {
	case "ollama":
		return newOllamaBackend(id, provCfg), nil
	case "openai", "claude", "gemini":
		return newEinoBackend(ctx, id, family, provCfg)
	default:
		return nil, fmt.Errorf("invalid provider family: %s", family)
	}
}
