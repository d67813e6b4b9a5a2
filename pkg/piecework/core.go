package piecework

import (
	"context"
	"fmt"

	"github.com/randalmurphal/piecework/pkg/piecework/dispatch"
	pwerrors "github.com/randalmurphal/piecework/pkg/piecework/errors"
	"github.com/randalmurphal/piecework/pkg/piecework/observability"
	"github.com/randalmurphal/piecework/pkg/piecework/piece"
	"github.com/randalmurphal/piecework/pkg/piecework/transport"
)

// Names of the built-in event handlers. A user event handler registered
// under the same name replaces the built-in one.
const (
	CoreMessageHandler   = "coreMessage"
	CoreOnceReadyHandler = "coreOnceReady"
)

// coreMessage routes every inbound message through the dispatch pipeline.
func (c *Client) coreMessage(env piece.Env) (piece.Piece, error) {
	return piece.NewEventHandler(env, piece.EventHandlerOptions{
		Name:  CoreMessageHandler,
		Event: transport.EventMessage,
		Run: func(ctx context.Context, payload any) error {
			msg, ok := payload.(*transport.Message)
			if !ok {
				return fmt.Errorf("%w: %T", ErrUnexpectedPayload, payload)
			}
			res := c.pipeline.Handle(ctx, msg)
			if res.Outcome == dispatch.OutcomeFailed {
				return fmt.Errorf("command %s: %w", res.Command.Name(), res.Err)
			}
			return nil
		},
	})
}

// coreOnceReady completes the owner and prefix sets on the first ready event.
func (c *Client) coreOnceReady(env piece.Env) (piece.Piece, error) {
	return piece.NewEventHandler(env, piece.EventHandlerOptions{
		Name:  CoreOnceReadyHandler,
		Event: transport.EventReady,
		Once:  true,
		Run: func(ctx context.Context, _ any) error {
			return c.onReady(ctx)
		},
	})
}

// onReady merges application owners into the owner set and adds the
// identity-derived prefixes. Identity prefixes are added even when the
// ownership fetch fails; the fetch error is returned afterwards.
func (c *Client) onReady(ctx context.Context) error {
	res := pwerrors.WithRetryContext(ctx, c.retry, func(ctx context.Context) (transport.Application, error) {
		return c.transport.FetchApplication(ctx)
	})
	if res.Err == nil {
		c.owners.Add(res.Value.OwnerIDs()...)
	}

	if self, ok := c.transport.Self(); ok {
		if c.opts.UseUsernamePrefix && self.Username != "" {
			c.prefixes.Add(self.Username + ", ")
		}
		if c.opts.UseMentionPrefix && self.ID != "" {
			c.prefixes.Add("<@!" + self.ID + ">")
		}
	}

	if res.Err != nil {
		return fmt.Errorf("fetch application: %w", res.Err)
	}

	observability.LogReady(c.logger, c.readyMessage(), c.owners.Len(), c.prefixes.Len())
	return nil
}

func (c *Client) readyMessage() string {
	if c.ready == nil {
		return DefaultReadyMessage
	}
	return c.ready(c)
}
