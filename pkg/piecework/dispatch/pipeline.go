package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/randalmurphal/piecework/pkg/piecework/cooldown"
	pwerrors "github.com/randalmurphal/piecework/pkg/piecework/errors"
	"github.com/randalmurphal/piecework/pkg/piecework/observability"
	"github.com/randalmurphal/piecework/pkg/piecework/piece"
	"github.com/randalmurphal/piecework/pkg/piecework/pool"
	"github.com/randalmurphal/piecework/pkg/piecework/transport"
)

// Config wires a Pipeline to the host's state.
type Config struct {
	Commands  *pool.CommandPool
	Monitors  *pool.Pool[*piece.Monitor]
	Cooldowns *cooldown.Manager
	Prefixes  *Prefixes
	Owners    *Owners

	// Transport supplies the host identity and carries replies. It may be
	// nil, in which case replies are only reported in the Result.
	Transport transport.Transport

	Logger  *slog.Logger
	Metrics observability.MetricsRecorder
	Spans   observability.SpanManager
}

// Pipeline routes inbound messages to monitors and commands.
//
// Handle is meant to be called for one message at a time in arrival order.
type Pipeline struct {
	commands  *pool.CommandPool
	monitors  *pool.Pool[*piece.Monitor]
	cooldowns *cooldown.Manager
	prefixes  *Prefixes
	owners    *Owners
	transport transport.Transport
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
}

// New creates a pipeline. Missing collaborators get empty defaults.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		commands:  cfg.Commands,
		monitors:  cfg.Monitors,
		cooldowns: cfg.Cooldowns,
		prefixes:  cfg.Prefixes,
		owners:    cfg.Owners,
		transport: cfg.Transport,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		spans:     cfg.Spans,
	}
	if p.commands == nil {
		p.commands = pool.NewCommandPool("commands", nil, nil)
	}
	if p.monitors == nil {
		p.monitors = pool.New[*piece.Monitor]("monitors", nil, nil)
	}
	if p.cooldowns == nil {
		p.cooldowns = cooldown.New()
	}
	if p.prefixes == nil {
		p.prefixes = NewPrefixes()
	}
	if p.owners == nil {
		p.owners = NewOwners()
	}
	if p.metrics == nil {
		p.metrics = observability.NoopMetrics{}
	}
	if p.spans == nil {
		p.spans = observability.NoopSpanManager{}
	}
	return p
}

// Prefixes returns the live prefix set.
func (p *Pipeline) Prefixes() *Prefixes { return p.prefixes }

// Owners returns the live owner set.
func (p *Pipeline) Owners() *Owners { return p.owners }

// Handle runs the monitor pass, then tries to resolve and invoke a command.
// Policy stops are outcomes, not errors.
func (p *Pipeline) Handle(ctx context.Context, msg *transport.Message) (res Result) {
	start := time.Now()
	ctx, span := p.spans.StartDispatchSpan(ctx, msg.ID, msg.Channel.ID)
	defer func() {
		p.spans.EndSpanWithError(span, res.Err)
		p.metrics.RecordDispatch(ctx, res.Outcome.String(), time.Since(start))
		observability.LogDispatch(p.logger, res.Outcome.String(), res.Token, float64(time.Since(start).Microseconds())/1000)
	}()

	p.runMonitors(ctx, msg)

	prefix, ok := p.prefixes.Match(msg.Content)
	if !ok {
		return Result{Outcome: OutcomeNotCommand}
	}
	res.Prefix = prefix

	fields := strings.Fields(strings.TrimSpace(msg.Content[len(prefix):]))
	if len(fields) == 0 {
		res.Outcome = OutcomeEmpty
		return res
	}
	res.Token = strings.ToLower(fields[0])
	res.Args = fields[1:]

	cmd, ok := p.commands.Resolve(res.Token)
	if !ok {
		res.Outcome = OutcomeUnknownCommand
		return res
	}
	res.Command = cmd

	key := cmd.Name()
	if !p.owners.Has(msg.Author.ID) {
		if when, active := p.cooldowns.Humanized(key); active {
			p.metrics.RecordCooldownRejection(ctx, key)
			return p.reply(ctx, msg, res, OutcomeCooldown, fmt.Sprintf(ReplyCooldown, when))
		}
		p.cooldowns.Start(key, cmd.Cooldown())
	}

	if !cmd.Enabled() {
		return p.reply(ctx, msg, res, OutcomeDisabled, ReplyDisabled)
	}

	if !cmd.AllowPrivate() && msg.Channel.Private {
		res.Outcome = OutcomePrivateRestricted
		return res
	}

	if cmd.Restricted() && !msg.Channel.Private && !msg.Channel.NSFW {
		return p.reply(ctx, msg, res, OutcomeRestrictedContent, ReplyRestrictedContent)
	}

	inv := &piece.Invocation{
		Message: msg,
		Prefix:  prefix,
		Command: res.Token,
		Args:    res.Args,
	}
	if err := p.invoke(ctx, cmd, inv); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		return res
	}
	res.Outcome = OutcomeInvoked
	return res
}

func (p *Pipeline) reply(ctx context.Context, msg *transport.Message, res Result, outcome Outcome, text string) Result {
	res.Outcome = outcome
	res.Reply = text
	if p.transport == nil {
		return res
	}
	if err := p.transport.Send(ctx, msg.Channel.ID, text); err != nil && p.logger != nil {
		p.logger.Warn("reply failed",
			slog.String("outcome", outcome.String()),
			slog.String("channel_id", msg.Channel.ID),
			slog.String("error", err.Error()),
		)
	}
	return res
}

func (p *Pipeline) invoke(ctx context.Context, cmd *piece.Command, inv *piece.Invocation) (err error) {
	start := time.Now()
	ctx, span := p.spans.StartPieceSpan(ctx, piece.KindCommand.String(), cmd.Name())
	defer func() {
		if r := recover(); r != nil {
			rethrowNotImplemented(r)
			err = pwerrors.Recover(cmd.Name(), r)
		}
		p.spans.EndSpanWithError(span, err)
		p.metrics.RecordCommandRun(ctx, cmd.Name(), time.Since(start), err)
	}()
	return cmd.Run(ctx, inv)
}

// runMonitors runs every enabled monitor whose filters accept msg. A failing
// monitor is logged and does not affect the others.
func (p *Pipeline) runMonitors(ctx context.Context, msg *transport.Message) {
	var self transport.User
	var hasSelf bool
	if p.transport != nil {
		self, hasSelf = p.transport.Self()
	}

	p.monitors.Each(func(m *piece.Monitor) bool {
		if !m.Enabled() || !m.Accepts(msg, self, hasSelf) {
			return true
		}
		if err := p.runMonitor(ctx, m, msg); err != nil {
			p.metrics.RecordMonitorError(ctx, m.Name())
			observability.LogPieceError(p.logger, m.Name(), err)
		}
		return true
	})
}

func (p *Pipeline) runMonitor(ctx context.Context, m *piece.Monitor, msg *transport.Message) (err error) {
	ctx, span := p.spans.StartPieceSpan(ctx, piece.KindMonitor.String(), m.Name())
	defer func() {
		if r := recover(); r != nil {
			rethrowNotImplemented(r)
			err = pwerrors.Recover(m.Name(), r)
		}
		p.spans.EndSpanWithError(span, err)
	}()
	return m.Run(ctx, msg)
}

// rethrowNotImplemented keeps a missing run function fatal.
func rethrowNotImplemented(r any) {
	if piece.IsNotImplemented(r) {
		panic(r)
	}
}
