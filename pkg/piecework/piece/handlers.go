package piece

import (
	"context"

	"github.com/randalmurphal/piecework/pkg/piecework/transport"
)

// EventFunc is the behaviour of an event handler.
type EventFunc func(ctx context.Context, payload any) error

// EventHandlerOptions configures NewEventHandler.
type EventHandlerOptions struct {
	Name string
	// Event is the transport event name the handler listens to.
	Event string
	// Once detaches the handler after its first delivery.
	Once     bool
	Disabled bool

	Run  EventFunc
	Init func(ctx context.Context) error
}

// EventHandler is a piece wired to a named transport event.
type EventHandler struct {
	Base

	event string
	once  bool
	run   EventFunc
}

// NewEventHandler builds an event handler piece. Event defaults to Name.
func NewEventHandler(env Env, opts EventHandlerOptions) (*EventHandler, error) {
	if err := validateName(opts.Name); err != nil {
		return nil, err
	}
	if opts.Event == "" {
		opts.Event = opts.Name
	}
	h := &EventHandler{
		event: opts.Event,
		once:  opts.Once,
		run:   opts.Run,
	}
	h.setup(env, KindEventHandler, opts.Name, opts.Disabled, opts.Init)
	return h, nil
}

// Event returns the source event name.
func (h *EventHandler) Event() string { return h.event }

// Once reports whether the handler fires a single time.
func (h *EventHandler) Once() bool { return h.once }

// Run handles one event payload.
func (h *EventHandler) Run(ctx context.Context, payload any) error {
	if h.run == nil {
		h.notImplemented()
	}
	return h.run(ctx, payload)
}

// MonitorFunc is the behaviour of a monitor.
type MonitorFunc func(ctx context.Context, msg *transport.Message) error

// MonitorOptions configures NewMonitor.
type MonitorOptions struct {
	Name string
	// IgnoreSelf skips messages authored by the host identity.
	IgnoreSelf bool
	// IgnoreOthers skips messages not authored by the host identity.
	IgnoreOthers bool
	// IgnoreBots skips messages from automated authors other than the host.
	IgnoreBots bool
	Disabled   bool

	Run  MonitorFunc
	Init func(ctx context.Context) error
}

// Monitor is a piece that observes every inbound message.
type Monitor struct {
	Base

	ignoreSelf   bool
	ignoreOthers bool
	ignoreBots   bool
	run          MonitorFunc
}

// NewMonitor builds a monitor piece.
func NewMonitor(env Env, opts MonitorOptions) (*Monitor, error) {
	if err := validateName(opts.Name); err != nil {
		return nil, err
	}
	m := &Monitor{
		ignoreSelf:   opts.IgnoreSelf,
		ignoreOthers: opts.IgnoreOthers,
		ignoreBots:   opts.IgnoreBots,
		run:          opts.Run,
	}
	m.setup(env, KindMonitor, opts.Name, opts.Disabled, opts.Init)
	return m, nil
}

// IgnoreSelf reports whether the host's own messages are skipped.
func (m *Monitor) IgnoreSelf() bool { return m.ignoreSelf }

// IgnoreOthers reports whether messages from anyone but the host are skipped.
func (m *Monitor) IgnoreOthers() bool { return m.ignoreOthers }

// IgnoreBots reports whether messages from automated authors are skipped.
func (m *Monitor) IgnoreBots() bool { return m.ignoreBots }

// Accepts applies the author filters. self is the host identity; hasSelf is
// false before the transport has identified itself. IgnoreBots never applies
// to the host's own messages; IgnoreSelf governs those.
func (m *Monitor) Accepts(msg *transport.Message, self transport.User, hasSelf bool) bool {
	fromSelf := hasSelf && msg.Author.ID == self.ID
	if m.ignoreOthers && !fromSelf {
		return false
	}
	if m.ignoreSelf && fromSelf {
		return false
	}
	if m.ignoreBots && msg.Author.Bot && !fromSelf {
		return false
	}
	return true
}

// Run observes one message.
func (m *Monitor) Run(ctx context.Context, msg *transport.Message) error {
	if m.run == nil {
		m.notImplemented()
	}
	return m.run(ctx, msg)
}

// TaskFunc is the behaviour of a scheduled task.
type TaskFunc func(ctx context.Context) error

// TaskOptions configures NewTask.
type TaskOptions struct {
	Name string
	// Schedule is a five-field cron expression or descriptor ("@every 1m").
	Schedule string
	Disabled bool

	Run  TaskFunc
	Init func(ctx context.Context) error
}

// Task is a piece run on a schedule.
type Task struct {
	Base

	schedule string
	run      TaskFunc
}

// NewTask builds a task piece.
func NewTask(env Env, opts TaskOptions) (*Task, error) {
	if err := validateName(opts.Name); err != nil {
		return nil, err
	}
	t := &Task{
		schedule: opts.Schedule,
		run:      opts.Run,
	}
	t.setup(env, KindTask, opts.Name, opts.Disabled, opts.Init)
	return t, nil
}

// Schedule returns the cron expression.
func (t *Task) Schedule() string { return t.schedule }

// Run executes the task once.
func (t *Task) Run(ctx context.Context) error {
	if t.run == nil {
		t.notImplemented()
	}
	return t.run(ctx)
}
