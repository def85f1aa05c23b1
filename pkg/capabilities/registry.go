// Package capabilities hosts the named tool providers semantic condition
// triggers can request through required_tools_mcps.
package capabilities

import (
	"log/slog"
	"sync"

	"github.com/mordomohq/mordomo/pkg/protocol"
)

// Registry holds the available capability providers by id.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]protocol.Capability
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		providers: make(map[string]protocol.Capability),
		logger:    logger.With("module", "capabilities"),
	}
}

// Register installs a provider under its own id.
func (r *Registry) Register(provider protocol.Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[provider.ID()] = provider
}

// Get returns the provider for id.
func (r *Registry) Get(id string) (protocol.Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[id]

	return provider, ok
}

// Resolve maps requested provider names to providers. Unknown names come
// back separately; a workflow asking for a capability this agent does not
// carry is a runtime warning, not a validation error.
func (r *Registry) Resolve(names []string) ([]protocol.Capability, []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]protocol.Capability, 0, len(names))

	var missing []string

	for _, name := range names {
		provider, ok := r.providers[name]
		if !ok {
			missing = append(missing, name)

			continue
		}

		providers = append(providers, provider)
	}

	return providers, missing
}
