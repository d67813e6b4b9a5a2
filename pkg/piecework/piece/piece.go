package piece

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/randalmurphal/piecework/pkg/piecework/config"
	"github.com/randalmurphal/piecework/pkg/piecework/cooldown"
	"github.com/randalmurphal/piecework/pkg/piecework/transport"
)

// Sentinel errors for piece operations.
var (
	// ErrRunNotImplemented is wrapped by the panic raised when a piece has no
	// run behaviour. It signals a framework-usage bug.
	ErrRunNotImplemented = errors.New("run not implemented")

	// ErrNoHost indicates a piece was built without a host and tried to use it.
	ErrNoHost = errors.New("piece has no host")

	// ErrEmptyName indicates a piece was constructed without a name.
	ErrEmptyName = errors.New("piece name is required")
)

// NotImplementedError is the panic value raised by Run on a piece that was
// built without behaviour.
type NotImplementedError struct {
	Piece string
	Kind  Kind
}

// Error implements the error interface.
func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Kind, e.Piece, ErrRunNotImplemented)
}

// Unwrap returns ErrRunNotImplemented.
func (e *NotImplementedError) Unwrap() error {
	return ErrRunNotImplemented
}

// IsNotImplemented reports whether a recovered panic value is a
// *NotImplementedError.
func IsNotImplemented(recovered any) bool {
	err, ok := recovered.(error)
	if !ok {
		return false
	}
	var nie *NotImplementedError
	return errors.As(err, &nie)
}

// Host is the view of the runtime a piece receives at construction.
type Host interface {
	Logger() *slog.Logger
	Options() config.Options
	Transport() transport.Transport
	Cooldowns() *cooldown.Manager
}

// Env carries the back-references a piece is constructed with.
type Env struct {
	// Host is the owning runtime. It may be nil in tests.
	Host Host
	// Pool is the name of the owning pool.
	Pool string
}

// Constructor builds a piece for a pool.
type Constructor func(env Env) (Piece, error)

// Piece is the common lifecycle contract of every kind.
//
// The set of kinds is closed: only types embedding Base satisfy Piece.
type Piece interface {
	Name() string
	Kind() Kind
	Enabled() bool
	Enable()
	Disable()
	Loaded() bool

	// Init runs the piece's optional init hook. Pieces without a hook
	// return nil.
	Init(ctx context.Context) error

	base() *Base
}

// Base holds identity and lifecycle flags. Flags are atomic so a dispatch
// decision in flight never observes a half-applied update.
type Base struct {
	name    string
	kind    Kind
	env     Env
	enabled atomic.Bool
	loaded  atomic.Bool
	initFn  func(ctx context.Context) error
}

func (b *Base) setup(env Env, kind Kind, name string, disabled bool, initFn func(context.Context) error) {
	b.name = name
	b.kind = kind
	b.env = env
	b.initFn = initFn
	b.enabled.Store(!disabled)
}

// Name returns the piece name. It never changes after construction.
func (b *Base) Name() string { return b.name }

// Kind returns the piece kind.
func (b *Base) Kind() Kind { return b.kind }

// Enabled reports whether dispatch may use the piece.
func (b *Base) Enabled() bool { return b.enabled.Load() }

// Enable marks the piece usable.
func (b *Base) Enable() { b.enabled.Store(true) }

// Disable marks the piece unusable; dispatch skips it.
func (b *Base) Disable() { b.enabled.Store(false) }

// Loaded reports whether the owning pool finished registering the piece.
func (b *Base) Loaded() bool { return b.loaded.Load() }

// Pool returns the owning pool name.
func (b *Base) Pool() string { return b.env.Pool }

// Host returns the owning runtime, or nil.
func (b *Base) Host() Host { return b.env.Host }

// Logger returns the host logger enriched with the piece identity.
func (b *Base) Logger() *slog.Logger {
	logger := slog.Default()
	if b.env.Host != nil && b.env.Host.Logger() != nil {
		logger = b.env.Host.Logger()
	}
	return logger.With(slog.String("piece", b.name), slog.String("kind", b.kind.String()))
}

// Send posts text to a channel through the host transport.
func (b *Base) Send(ctx context.Context, channelID, text string) error {
	if b.env.Host == nil || b.env.Host.Transport() == nil {
		return ErrNoHost
	}
	return b.env.Host.Transport().Send(ctx, channelID, text)
}

// Init implements Piece.
func (b *Base) Init(ctx context.Context) error {
	if b.initFn == nil {
		return nil
	}
	return b.initFn(ctx)
}

func (b *Base) base() *Base { return b }

func (b *Base) notImplemented() {
	panic(&NotImplementedError{Piece: b.name, Kind: b.kind})
}

// MarkLoaded records that the owning pool registered p. Later calls are
// no-ops; it reports whether this call set the flag.
func MarkLoaded(p Piece) bool {
	return p.base().loaded.CompareAndSwap(false, true)
}

func validateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	return nil
}
