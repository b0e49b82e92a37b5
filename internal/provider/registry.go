package provider

import (
	"fmt"
	"strings"
	"sync"

	"advtopup/internal/domain/wizard"

	"github.com/rs/zerolog/log"
)

// Registry holds the registered credit providers and decides which one
// serves a given purchase.
type Registry struct {
	mu        sync.RWMutex
	providers map[Type]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[Type]Provider)}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[p.Type()] = p
	log.Info().
		Str("provider", string(p.Type())).
		Str("name", p.Name()).
		Strs("operations", operationStrings(p.SupportedOperations())).
		Msg("registered credit provider")
}

// Get returns a provider by type.
func (r *Registry) Get(t Type) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[t]
	if !ok {
		return nil, &Error{
			Code:    ErrProviderNotFound,
			Message: fmt.Sprintf("provider %s not registered", t),
		}
	}
	return p, nil
}

// ForPurchase resolves which provider type serves a purchase: Ghana airtime
// goes through the local direct-topup provider when it is registered, all
// other purchases through the cross-border provider.
func (r *Registry) ForPurchase(flow wizard.Flow, countryCode string) Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if flow == wizard.FlowAirtime && strings.EqualFold(countryCode, "GH") {
		if _, ok := r.providers[TypePrymo]; ok {
			return TypePrymo
		}
	}
	return TypeReloadly
}

// List returns all registered provider types.
func (r *Registry) List() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var types []Type
	for t := range r.providers {
		types = append(types, t)
	}
	return types
}

func operationStrings(ops []OperationType) []string {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		out = append(out, string(op))
	}
	return out
}
