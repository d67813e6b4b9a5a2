package pool

import (
	"context"

	"github.com/randalmurphal/piecework/pkg/piecework/piece"
)

// Definition is one discovered piece: a constructor plus the name used to
// report construction failures before the piece itself exists.
type Definition struct {
	// Origin identifies where the definition came from (file, factory name).
	Origin string
	New    piece.Constructor
}

// Source discovers the pieces of one pool. Pools depend only on this
// interface, never on a concrete discovery mechanism.
type Source interface {
	Discover(ctx context.Context) ([]Definition, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Definition, error)

// Discover implements Source.
func (f SourceFunc) Discover(ctx context.Context) ([]Definition, error) {
	return f(ctx)
}

// StaticSource yields a fixed list of constructors in order.
type StaticSource []Definition

// Static builds a StaticSource from constructors.
func Static(ctors ...piece.Constructor) StaticSource {
	defs := make(StaticSource, len(ctors))
	for i, ctor := range ctors {
		defs[i] = Definition{New: ctor}
	}
	return defs
}

// Discover implements Source.
func (s StaticSource) Discover(_ context.Context) ([]Definition, error) {
	out := make([]Definition, len(s))
	copy(out, s)
	return out, nil
}

// Empty is a Source with no pieces.
var Empty Source = StaticSource(nil)

// Chain concatenates sources in order. Core pieces go first so a user
// definition with the same name replaces them.
func Chain(sources ...Source) Source {
	return SourceFunc(func(ctx context.Context) ([]Definition, error) {
		var all []Definition
		for _, src := range sources {
			if src == nil {
				continue
			}
			defs, err := src.Discover(ctx)
			if err != nil {
				return nil, err
			}
			all = append(all, defs...)
		}
		return all, nil
	})
}
