// Package tasks holds the built-in scheduled tasks every host loads.
package tasks

import (
	"context"
	"time"

	"github.com/randalmurphal/piecework/pkg/piecework/observability"
	"github.com/randalmurphal/piecework/pkg/piecework/piece"
	"github.com/randalmurphal/piecework/pkg/piecework/transport"
)

const (
	// SweeperName is the name the sweeper registers under.
	SweeperName = "sweeper"

	// SweeperSchedule runs the sweeper every half hour.
	SweeperSchedule = "*/30 * * * *"

	// SweepThreshold is how long a cached entry may stay idle.
	SweepThreshold = 30 * time.Minute
)

// NewSweeper builds the cache sweeper task. It disables itself at init when
// the host has useSweeper off, and does nothing on transports that keep no
// reclaimable caches.
func NewSweeper(env piece.Env) (piece.Piece, error) {
	var task *piece.Task
	task, err := piece.NewTask(env, piece.TaskOptions{
		Name:     SweeperName,
		Schedule: SweeperSchedule,
		Init: func(context.Context) error {
			if host := task.Host(); host != nil && !host.Options().UseSweeper {
				task.Disable()
			}
			return nil
		},
		Run: func(context.Context) error {
			host := task.Host()
			if host == nil {
				return piece.ErrNoHost
			}
			sweepable, ok := host.Transport().(transport.Sweepable)
			if !ok {
				return nil
			}

			done := observability.TimedOperation()
			stats := sweepable.Sweep(time.Now().Add(-SweepThreshold))
			observability.LogSweep(task.Logger(), stats, done())
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}
