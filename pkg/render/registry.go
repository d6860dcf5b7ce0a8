package render

import (
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-deckgen/pkg/deckir"
)

// Resolver maps an asset id of one asset type to a file on disk.
type Resolver interface {
	Type() deckir.AssetType
	Resolve(assetID string) (string, error)
}

// Registry stores asset resolvers by asset type.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[deckir.AssetType]Resolver
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		resolvers: make(map[deckir.AssetType]Resolver),
	}
}

// NewAssetRegistry registers the icon and image resolvers for a project.
func NewAssetRegistry(projectRoot string, icons *IconIndex) *Registry {
	r := NewRegistry()
	r.MustRegister(&IconResolver{Index: icons})
	r.MustRegister(&ImageResolver{Root: projectRoot})
	return r
}

// Register adds a resolver by its Type(). Duplicate types return an error.
func (r *Registry) Register(resolver Resolver) error {
	if resolver == nil {
		return fmt.Errorf("render: resolver is required")
	}
	typ := resolver.Type()
	if typ == "" {
		return fmt.Errorf("render: resolver asset type is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resolvers[typ]; exists {
		return fmt.Errorf("render: resolver for %q already registered", typ)
	}
	r.resolvers[typ] = resolver
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(resolver Resolver) {
	if err := r.Register(resolver); err != nil {
		panic(err)
	}
}

// Get retrieves the resolver for an asset type.
func (r *Registry) Get(typ deckir.AssetType) (Resolver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolver, ok := r.resolvers[typ]
	if !ok {
		return nil, fmt.Errorf("render: no resolver for asset type %q", typ)
	}
	return resolver, nil
}

// Resolve locates the file behind ref.
func (r *Registry) Resolve(ref deckir.AssetRef) (string, error) {
	resolver, err := r.Get(ref.AssetType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssetMissing, err)
	}
	return resolver.Resolve(ref.AssetID)
}

// Types returns the registered asset types, sorted.
func (r *Registry) Types() []deckir.AssetType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]deckir.AssetType, 0, len(r.resolvers))
	for typ := range r.resolvers {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Has reports whether a resolver is registered for typ.
func (r *Registry) Has(typ deckir.AssetType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.resolvers[typ]
	return ok
}
