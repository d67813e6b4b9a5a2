package source

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/piecework/pkg/piecework/piece"
	"github.com/randalmurphal/piecework/pkg/piecework/registry"
)

// ErrUnknownFactory indicates a definition names a factory nobody registered.
var ErrUnknownFactory = errors.New("unknown factory")

// Factory builds a piece from its definition. The factory supplies the
// behaviour; the definition supplies the attributes.
type Factory func(env piece.Env, spec Spec) (piece.Piece, error)

// Factories maps factory names to builders.
type Factories struct {
	reg *registry.Registry[string, Factory]
}

// NewFactories creates an empty factory set.
func NewFactories() *Factories {
	return &Factories{reg: registry.New[string, Factory]()}
}

// Register adds or replaces a factory.
func (f *Factories) Register(name string, factory Factory) {
	f.reg.Register(name, factory)
}

// Lookup returns the factory registered under name. A nil *Factories has
// no factories.
func (f *Factories) Lookup(name string) (Factory, bool) {
	if f == nil {
		return nil, false
	}
	return f.reg.Get(name)
}

// Names returns the registered factory names in registration order.
func (f *Factories) Names() []string {
	if f == nil {
		return nil
	}
	return f.reg.Keys()
}

// Constructor binds a definition to its factory. An unknown factory surfaces
// as a construction error when the pool registers the piece.
func (f *Factories) Constructor(spec Spec) piece.Constructor {
	return func(env piece.Env) (piece.Piece, error) {
		factory, ok := f.Lookup(spec.Factory)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFactory, spec.Factory)
		}
		return factory(env, spec)
	}
}
