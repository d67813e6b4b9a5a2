package pool

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/piecework/pkg/piecework/observability"
	"github.com/randalmurphal/piecework/pkg/piecework/piece"
	"github.com/randalmurphal/piecework/pkg/piecework/registry"
)

// Option configures a Pool.
type Option func(*settings)

type settings struct {
	logger   *slog.Logger
	onRemove []func(piece.Piece)
}

// WithLogger sets the logger used for load events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithOnRemove registers a hook called with every piece that leaves the
// pool, whether removed or replaced by a later registration.
func WithOnRemove(fn func(piece.Piece)) Option {
	return func(s *settings) {
		if fn != nil {
			s.onRemove = append(s.onRemove, fn)
		}
	}
}

// Pool is a keyed, insertion-ordered registry owning every piece of one kind.
//
// Registering a name that already exists replaces the earlier piece in place
// (last registration wins). The replacement is logged at warn level and the
// replaced piece goes through the remove hooks.
type Pool[V piece.Piece] struct {
	name    string
	host    piece.Host
	source  Source
	entries *registry.Registry[string, V]
	logger  *slog.Logger

	keyOf      func(string) string
	onRemove   []func(piece.Piece)
	onRegister func(key string, v V)
	onDelete   func(key string, v V)
}

// New creates a pool. host may be nil in tests; src may be nil for pools
// populated only through Register.
func New[V piece.Piece](name string, host piece.Host, src Source, opts ...Option) *Pool[V] {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if src == nil {
		src = Empty
	}
	return &Pool[V]{
		name:     name,
		host:     host,
		source:   src,
		entries:  registry.New[string, V](),
		logger:   s.logger,
		keyOf:    func(k string) string { return k },
		onRemove: s.onRemove,
	}
}

// Name returns the pool name.
func (p *Pool[V]) Name() string { return p.name }

// Init discovers every piece from the pool's source, registers each in order,
// then runs each registered piece's Init hook in registration order.
//
// The first construction or init failure is returned as a *LoadError naming
// the piece. Init is not idempotent; call it once.
func (p *Pool[V]) Init(ctx context.Context) error {
	done := observability.TimedOperation()

	defs, err := p.source.Discover(ctx)
	if err != nil {
		return fmt.Errorf("pool %s: discover: %w", p.name, err)
	}

	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := p.register(def); err != nil {
			return err
		}
	}

	for _, v := range p.entries.All() {
		if err := v.Init(ctx); err != nil {
			return &LoadError{Pool: p.name, Piece: v.Name(), Phase: "init", Err: err}
		}
	}

	observability.LogPoolLoaded(p.logger, p.name, p.entries.Len(), done())
	return nil
}

// Register constructs a piece with a back-reference to this pool and its
// host, then stores it under its name. Construction errors are returned
// unchanged inside a *LoadError.
func (p *Pool[V]) Register(ctor piece.Constructor) (V, error) {
	return p.register(Definition{New: ctor})
}

func (p *Pool[V]) register(def Definition) (V, error) {
	var zero V

	built, err := def.New(piece.Env{Host: p.host, Pool: p.name})
	if err != nil {
		return zero, &LoadError{Pool: p.name, Origin: def.Origin, Phase: "construct", Err: err}
	}
	if built == nil {
		return zero, &LoadError{Pool: p.name, Origin: def.Origin, Phase: "construct", Err: ErrNilPiece}
	}
	v, ok := built.(V)
	if !ok {
		return zero, &LoadError{
			Pool:   p.name,
			Piece:  built.Name(),
			Origin: def.Origin,
			Phase:  "construct",
			Err:    fmt.Errorf("%w: got %s", ErrKindMismatch, built.Kind()),
		}
	}

	key := p.keyOf(v.Name())
	prev, replaced := p.entries.Replace(key, v)
	piece.MarkLoaded(v)

	if replaced {
		p.removed(key, prev)
	}
	if p.onRegister != nil {
		p.onRegister(key, v)
	}

	observability.LogPieceLoaded(p.logger, p.name, v.Name(), replaced)
	return v, nil
}

// Get returns the piece stored under key. It never constructs.
func (p *Pool[V]) Get(key string) (V, bool) {
	return p.entries.Get(p.keyOf(key))
}

// Has reports whether key is registered.
func (p *Pool[V]) Has(key string) bool {
	return p.entries.Has(p.keyOf(key))
}

// Remove deletes the piece stored under key and runs the remove hooks.
func (p *Pool[V]) Remove(key string) (V, bool) {
	key = p.keyOf(key)
	v, ok := p.entries.Delete(key)
	if !ok {
		return v, false
	}
	p.removed(key, v)
	return v, true
}

func (p *Pool[V]) removed(key string, v V) {
	if p.onDelete != nil {
		p.onDelete(key, v)
	}
	for _, fn := range p.onRemove {
		fn(v)
	}
}

// Each calls fn for every piece in insertion order until fn returns false.
func (p *Pool[V]) Each(fn func(V) bool) {
	for _, v := range p.entries.All() {
		if !fn(v) {
			return
		}
	}
}

// All returns the pieces in insertion order.
func (p *Pool[V]) All() []V {
	return p.entries.Values()
}

// Enabled returns the enabled pieces in insertion order.
func (p *Pool[V]) Enabled() []V {
	all := p.entries.Values()
	out := all[:0]
	for _, v := range all {
		if v.Enabled() {
			out = append(out, v)
		}
	}
	return out
}

// Keys returns the registered keys in insertion order.
func (p *Pool[V]) Keys() []string {
	return p.entries.Keys()
}

// Len returns the number of registered pieces.
func (p *Pool[V]) Len() int {
	return p.entries.Len()
}
