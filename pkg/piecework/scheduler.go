package piecework

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	pwerrors "github.com/randalmurphal/piecework/pkg/piecework/errors"
	"github.com/randalmurphal/piecework/pkg/piecework/piece"
)

// taskEvent labels task failures in logs and the fault journal.
const taskEvent = "task"

// scheduleTasks registers every task that has a schedule, enabled or not;
// a disabled task skips its ticks until it is enabled. Tasks without a
// schedule only run through RunTask. On error every entry added here is
// removed again.
func (c *Client) scheduleTasks() error {
	var added []cron.EntryID
	for _, t := range c.tasks.All() {
		if t.Schedule() == "" {
			continue
		}
		id, err := c.scheduler.AddFunc(t.Schedule(), func() {
			if !t.Enabled() {
				return
			}
			if err := c.runTask(c.taskCtx, t); err != nil {
				c.reportFault(taskEvent, t.Name(), err)
			}
		})
		if err != nil {
			for _, id := range added {
				c.scheduler.Remove(id)
			}
			return fmt.Errorf("schedule task %s: %w", t.Name(), err)
		}
		added = append(added, id)
		c.logger.Debug("task scheduled",
			slog.String("task", t.Name()),
			slog.String("schedule", t.Schedule()),
		)
	}
	return nil
}

// RunTask runs a loaded task once, outside its schedule.
func (c *Client) RunTask(ctx context.Context, name string) error {
	t, ok := c.tasks.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return c.runTask(ctx, t)
}

func (c *Client) runTask(ctx context.Context, t *piece.Task) (err error) {
	start := time.Now()
	ctx, span := c.spans.StartPieceSpan(ctx, piece.KindTask.String(), t.Name())
	defer func() {
		if r := recover(); r != nil {
			if piece.IsNotImplemented(r) {
				panic(r)
			}
			err = pwerrors.Recover(t.Name(), r)
		}
		c.spans.EndSpanWithError(span, err)
		c.metrics.RecordTaskRun(ctx, t.Name(), time.Since(start), err)
	}()
	return t.Run(ctx)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{slog.String("error", err.Error())}, keysAndValues...)
	l.logger.Error("cron: "+msg, args...)
}
