package piecework

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/piecework/pkg/piecework/config"
	"github.com/randalmurphal/piecework/pkg/piecework/cooldown"
	"github.com/randalmurphal/piecework/pkg/piecework/dispatch"
	pwerrors "github.com/randalmurphal/piecework/pkg/piecework/errors"
	"github.com/randalmurphal/piecework/pkg/piecework/event"
	"github.com/randalmurphal/piecework/pkg/piecework/fault"
	"github.com/randalmurphal/piecework/pkg/piecework/observability"
	"github.com/randalmurphal/piecework/pkg/piecework/piece"
	"github.com/randalmurphal/piecework/pkg/piecework/pool"
	"github.com/randalmurphal/piecework/pkg/piecework/source"
	"github.com/randalmurphal/piecework/pkg/piecework/tasks"
	"github.com/randalmurphal/piecework/pkg/piecework/transport"
)

// Pool names.
const (
	PoolCommands = "commands"
	PoolEvents   = "events"
	PoolMonitors = "monitors"
	PoolTasks    = "tasks"
)

// DefaultReadyMessage is logged at ready time when WithReadyMessage is unset.
const DefaultReadyMessage = "ready"

// Client is the host runtime. It owns every pool and all shared dispatch
// state; pieces reach it through the piece.Host interface.
type Client struct {
	opts      config.Options
	transport transport.Transport
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
	retry     pwerrors.RetryConfig
	ready     func(*Client) string

	commands *pool.CommandPool
	events   *pool.Pool[*piece.EventHandler]
	monitors *pool.Pool[*piece.Monitor]
	tasks    *pool.Pool[*piece.Task]

	cooldowns *cooldown.Manager
	prefixes  *dispatch.Prefixes
	owners    *dispatch.Owners
	emitter   *event.Emitter
	pipeline  *dispatch.Pipeline
	scheduler *cron.Cron
	faults    fault.Store

	starting  atomic.Bool // claimed by Start, released if it fails
	started   atomic.Bool // set once Start has fully succeeded
	closed    atomic.Bool
	closeOnce sync.Once

	// taskCtx is the parent context of scheduled task runs; set by Start.
	taskCtx     context.Context
	cancelTasks context.CancelFunc
}

var _ piece.Host = (*Client)(nil)

// New builds a client. Pools are created but not loaded; call Start.
func New(opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.transport == nil {
		return nil, ErrNoTransport
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.metrics == nil {
		cfg.metrics = observability.NewMetricsRecorder()
	}
	if cfg.spans == nil {
		cfg.spans = observability.NewSpanManager()
	}
	if cfg.faults == nil {
		store, err := fault.Open(cfg.options.FaultStore)
		if err != nil {
			return nil, fmt.Errorf("open fault store: %w", err)
		}
		cfg.faults = store
	}

	var cdOpts []cooldown.Option
	if cfg.now != nil {
		cdOpts = append(cdOpts, cooldown.WithClock(cfg.now))
	}

	c := &Client{
		opts:      cfg.options,
		transport: cfg.transport,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
		spans:     cfg.spans,
		retry:     cfg.retry,
		ready:     cfg.readyMessage,
		cooldowns: cooldown.New(cdOpts...),
		prefixes:  dispatch.NewPrefixes(cfg.options.Prefixes...),
		owners:    dispatch.NewOwners(cfg.options.Owners...),
		faults:    cfg.faults,
		taskCtx:   context.Background(),
	}

	c.emitter = event.NewEmitter(
		event.WithMiddleware(
			event.LoggingMiddleware(c.logEvent),
			event.RecoveryMiddleware(piece.IsNotImplemented),
		),
		event.WithOnError(func(evt event.Envelope, handler string, err error) {
			c.reportFault(evt.Name, handler, err)
		}),
	)

	c.buildPools(cfg)

	c.pipeline = dispatch.New(dispatch.Config{
		Commands:  c.commands,
		Monitors:  c.monitors,
		Cooldowns: c.cooldowns,
		Prefixes:  c.prefixes,
		Owners:    c.owners,
		Transport: c.transport,
		Logger:    c.logger,
		Metrics:   c.metrics,
		Spans:     c.spans,
	})

	c.scheduler = cron.New(
		cron.WithLogger(cronLogger{logger: c.logger}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: c.logger})),
	)

	return c, nil
}

func (c *Client) buildPools(cfg clientConfig) {
	dir := func(name string, kind piece.Kind) pool.Source {
		if c.opts.PiecesDir == "" {
			return nil
		}
		factories := cfg.factories
		if factories == nil {
			factories = source.NewFactories()
		}
		return &source.Dir{
			Path:      filepath.Join(c.opts.PiecesDir, name),
			Kind:      kind,
			Factories: factories,
			Optional:  true,
		}
	}
	poolOpts := []pool.Option{pool.WithLogger(c.logger)}

	c.commands = pool.NewCommandPool(PoolCommands, c,
		pool.Chain(dir(PoolCommands, piece.KindCommand), cfg.commands),
		append(poolOpts, pool.WithOnRemove(func(p piece.Piece) {
			c.cooldowns.Cancel(p.Name())
		}))...,
	)
	c.events = pool.New[*piece.EventHandler](PoolEvents, c,
		pool.Chain(pool.Static(c.coreMessage, c.coreOnceReady), dir(PoolEvents, piece.KindEventHandler), cfg.events),
		poolOpts...,
	)
	c.monitors = pool.New[*piece.Monitor](PoolMonitors, c,
		pool.Chain(dir(PoolMonitors, piece.KindMonitor), cfg.monitors),
		poolOpts...,
	)
	c.tasks = pool.New[*piece.Task](PoolTasks, c,
		pool.Chain(pool.Static(tasks.NewSweeper), dir(PoolTasks, piece.KindTask), cfg.tasks),
		poolOpts...,
	)
}

// Logger implements piece.Host.
func (c *Client) Logger() *slog.Logger { return c.logger }

// Options implements piece.Host.
func (c *Client) Options() config.Options { return c.opts }

// Transport implements piece.Host.
func (c *Client) Transport() transport.Transport { return c.transport }

// Cooldowns implements piece.Host.
func (c *Client) Cooldowns() *cooldown.Manager { return c.cooldowns }

// Commands returns the command pool.
func (c *Client) Commands() *pool.CommandPool { return c.commands }

// Events returns the event handler pool.
func (c *Client) Events() *pool.Pool[*piece.EventHandler] { return c.events }

// Monitors returns the monitor pool.
func (c *Client) Monitors() *pool.Pool[*piece.Monitor] { return c.monitors }

// Tasks returns the task pool.
func (c *Client) Tasks() *pool.Pool[*piece.Task] { return c.tasks }

// Prefixes returns the live prefix set.
func (c *Client) Prefixes() *dispatch.Prefixes { return c.prefixes }

// Owners returns the live owner set.
func (c *Client) Owners() *dispatch.Owners { return c.owners }

// Emitter returns the event emitter. Handlers attached directly are not
// pieces and are not listed in any pool.
func (c *Client) Emitter() *event.Emitter { return c.emitter }

// Pipeline returns the dispatch pipeline.
func (c *Client) Pipeline() *dispatch.Pipeline { return c.pipeline }

// Faults returns the fault journal.
func (c *Client) Faults() fault.Store { return c.faults }

// Start loads every pool concurrently, schedules tasks, attaches the enabled
// event handlers and starts the task scheduler. Live events must not be
// routed before Start returns. A failed Start leaves the client unstarted and
// may be retried.
func (c *Client) Start(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.starting.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	if err := c.start(ctx); err != nil {
		c.starting.Store(false)
		return err
	}
	c.started.Store(true)
	return nil
}

func (c *Client) start(ctx context.Context) error {
	done := observability.TimedOperation()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.events.Init(gctx) })
	g.Go(func() error { return c.commands.Init(gctx) })
	g.Go(func() error { return c.monitors.Init(gctx) })
	g.Go(func() error { return c.tasks.Init(gctx) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load pools: %w", err)
	}

	c.logger.Info("loaded everything",
		slog.Int(PoolCommands, c.commands.Len()),
		slog.Int(PoolEvents, c.events.Len()),
		slog.Int(PoolMonitors, c.monitors.Len()),
		slog.Int(PoolTasks, c.tasks.Len()),
		slog.Float64("duration_ms", done()),
	)

	c.taskCtx, c.cancelTasks = context.WithCancel(context.WithoutCancel(ctx))
	if err := c.scheduleTasks(); err != nil {
		c.cancelTasks()
		return err
	}

	c.wireEvents()
	c.scheduler.Start()
	return nil
}

func (c *Client) wireEvents() {
	for _, h := range c.events.Enabled() {
		handler := c.eventHandler(h)
		if h.Once() {
			c.emitter.Once(h.Event(), h.Name(), handler)
			continue
		}
		c.emitter.On(h.Event(), h.Name(), handler)
	}
}

func (c *Client) eventHandler(h *piece.EventHandler) event.Handler {
	return event.HandlerFunc(func(ctx context.Context, evt event.Envelope) (err error) {
		ctx, span := c.spans.StartPieceSpan(ctx, piece.KindEventHandler.String(), h.Name())
		defer func() { c.spans.EndSpanWithError(span, err) }()
		return h.Run(ctx, evt.Payload)
	})
}

// Run reads the transport's event stream and emits each event in arrival
// order. It returns nil when the stream closes and ctx.Err() when ctx ends.
func (c *Client) Run(ctx context.Context) error {
	if !c.started.Load() {
		return ErrNotStarted
	}
	if c.closed.Load() {
		return ErrClosed
	}

	events := c.transport.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			// Failures are reported through the fault path.
			_ = c.Emit(ctx, evt)
		}
	}
}

// Emit delivers one event to its handlers. Handler errors and panics are
// reported as faults and returned joined; they never propagate as panics,
// except a piece with no run behaviour.
func (c *Client) Emit(ctx context.Context, evt transport.Event) error {
	return c.emitter.Emit(ctx, evt)
}

// Close stops the scheduler, cancels pending cooldown timers and closes the
// fault store. It waits for running tasks to return. Close is idempotent.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		<-c.scheduler.Stop().Done()
		if c.cancelTasks != nil {
			c.cancelTasks()
		}
		c.cooldowns.Stop()
		if cerr := c.faults.Close(); cerr != nil {
			err = fmt.Errorf("close fault store: %w", cerr)
		}
	})
	return err
}

// reportFault logs and journals a failure caught at the host boundary when
// DisplayErrors is set.
func (c *Client) reportFault(eventName, pieceName string, err error) {
	if !c.opts.DisplayErrors {
		return
	}
	observability.LogFault(c.logger, eventName, err)
	if rerr := c.faults.Record(fault.New(eventName, pieceName, err)); rerr != nil {
		c.logger.Warn("fault not recorded",
			slog.String("event", eventName),
			slog.String("error", rerr.Error()),
		)
	}
}

func (c *Client) logEvent(name string, d time.Duration, err error) {
	attrs := []any{
		slog.String("event", name),
		slog.Float64("duration_ms", float64(d.Microseconds())/1000),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	c.logger.Debug("event handled", attrs...)
}
