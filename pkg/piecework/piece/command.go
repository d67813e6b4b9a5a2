package piece

import (
	"context"
	"time"

	"github.com/randalmurphal/piecework/pkg/piecework/transport"
)

// Invocation is what a command receives when dispatch resolves it.
type Invocation struct {
	Message *transport.Message
	// Prefix is the trigger prefix that matched.
	Prefix string
	// Command is the lowercased token that resolved the command (name or alias).
	Command string
	// Args are the whitespace-separated tokens after the command token.
	Args []string
}

// CommandFunc is the behaviour of a command.
type CommandFunc func(ctx context.Context, inv *Invocation) error

// CommandOptions configures NewCommand.
type CommandOptions struct {
	Name        string
	Description string
	Aliases     []string

	// Cooldown is the global throttle applied after a non-owner invocation.
	Cooldown time.Duration

	// AllowPrivate permits invocation from direct-message contexts.
	AllowPrivate bool

	// Restricted limits invocation to channels that permit restricted content.
	Restricted bool

	// Disabled starts the command administratively disabled.
	Disabled bool

	Run  CommandFunc
	Init func(ctx context.Context) error
}

// Command is a piece invoked by name (or alias) after a prefix.
type Command struct {
	Base

	description  string
	aliases      []string
	cooldown     time.Duration
	allowPrivate bool
	restricted   bool
	run          CommandFunc
}

// NewCommand builds a command piece.
func NewCommand(env Env, opts CommandOptions) (*Command, error) {
	if err := validateName(opts.Name); err != nil {
		return nil, err
	}
	if opts.Cooldown < 0 {
		opts.Cooldown = 0
	}
	aliases := make([]string, len(opts.Aliases))
	copy(aliases, opts.Aliases)

	c := &Command{
		description:  opts.Description,
		aliases:      aliases,
		cooldown:     opts.Cooldown,
		allowPrivate: opts.AllowPrivate,
		restricted:   opts.Restricted,
		run:          opts.Run,
	}
	c.setup(env, KindCommand, opts.Name, opts.Disabled, opts.Init)
	return c, nil
}

// Description returns the help text.
func (c *Command) Description() string { return c.description }

// Aliases returns a copy of the alternate names.
func (c *Command) Aliases() []string {
	out := make([]string, len(c.aliases))
	copy(out, c.aliases)
	return out
}

// Cooldown returns the throttle duration.
func (c *Command) Cooldown() time.Duration { return c.cooldown }

// AllowPrivate reports whether the command runs in direct-message contexts.
func (c *Command) AllowPrivate() bool { return c.allowPrivate }

// Restricted reports whether the command needs a restricted-content channel.
func (c *Command) Restricted() bool { return c.restricted }

// Run invokes the command. It panics with *NotImplementedError when the
// command was built without behaviour.
func (c *Command) Run(ctx context.Context, inv *Invocation) error {
	if c.run == nil {
		c.notImplemented()
	}
	return c.run(ctx, inv)
}

// Reply sends text to the channel the invocation came from.
func (c *Command) Reply(ctx context.Context, inv *Invocation, text string) error {
	return c.Send(ctx, inv.Message.Channel.ID, text)
}
