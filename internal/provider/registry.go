package provider

import (
	"fmt"
	"sync"

	"oip/autopurchase/pkg/errorutil"
)

// Registry maps a Provider to its Gateway, keeping registration order.
type Registry struct {
	mu       sync.RWMutex
	gateways map[Provider]Gateway
	order    []Provider
}

// NewRegistry registers the given gateways in order.
func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{
		gateways: make(map[Provider]Gateway, len(gateways)),
	}
	for _, gw := range gateways {
		r.Register(gw)
	}
	return r
}

// NewDefaultRegistry registers the mock gateway of every supported supplier.
func NewDefaultRegistry(opts ...MockOption) *Registry {
	return NewRegistry(
		NewAmazonGateway(opts...),
		NewAliExpressGateway(opts...),
		NewEbayGateway(opts...),
		NewWishGateway(opts...),
	)
}

// Register adds or replaces the gateway of gw.Provider().
func (r *Registry) Register(gw Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := gw.Provider()
	if _, exists := r.gateways[p]; !exists {
		r.order = append(r.order, p)
	}
	r.gateways[p] = gw
}

// Get returns the gateway of p
func (r *Registry) Get(p Provider) (Gateway, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gw, ok := r.gateways[p]
	return gw, ok
}

// Lookup resolves a supplier name. Unknown or unregistered names yield UNSUPPORTED_PROVIDER.
func (r *Registry) Lookup(name string) (Gateway, error) {
	p, ok := Parse(name)
	if !ok {
		return nil, errorutil.NonRetriable(errorutil.CodeUnsupportedProvider,
			fmt.Sprintf("unsupported provider: %s", name))
	}
	gw, ok := r.Get(p)
	if !ok {
		return nil, errorutil.NonRetriable(errorutil.CodeUnsupportedProvider,
			fmt.Sprintf("provider not registered: %s", name))
	}
	return gw, nil
}

// All returns the gateways in registration order.
func (r *Registry) All() []Gateway {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Gateway, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.gateways[p])
	}
	return out
}
