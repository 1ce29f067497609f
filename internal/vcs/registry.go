package vcs

import (
	"context"
	"fmt"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
)

// Registry maps kinds to adapter factories. It is built explicitly once at
// process start and passed by reference to orchestration code; there is no
// ambient global registry.
type Registry struct {
	factories map[Kind]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Kind]Factory)}
}

// Register binds a factory to a kind. Later registrations replace earlier
// ones, which tests use to substitute fakes.
func (r *Registry) Register(kind Kind, factory Factory) {
	r.factories[kind] = factory
}

// Lookup returns the factory for kind.
func (r *Registry) Lookup(kind Kind) (Factory, error) {
	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%q: %w", kind, vcserrors.ErrUnknownKind)
	}
	return factory, nil
}

// New constructs an adapter of the given kind rooted at path.
func (r *Registry) New(ctx context.Context, kind Kind, path string, deps Deps) (Adapter, error) {
	factory, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return factory(ctx, path, deps)
}

// Kinds returns the registered kinds in no particular order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	return kinds
}
