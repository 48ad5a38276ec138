package system

import (
	"context"
	"errors"

	"github.com/amnyam666/tgdailybot/internal/cli"
	"github.com/amnyam666/tgdailybot/internal/lock"
	"github.com/amnyam666/tgdailybot/internal/logger"
	"github.com/amnyam666/tgdailybot/internal/scheduler"
	"github.com/amnyam666/tgdailybot/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	// Perform automatic backup on TUI startup (after successful load)
	ctx.PerformAutomaticBackup()

	opts, release, err := tuiSchedule(ctx)
	if err != nil {
		return err
	}
	defer release()

	return tui.Run(context.Background(), ctx.Store, ctx.Sink, opts)
}

// tuiSchedule claims reminder delivery for the TUI. When a watch daemon
// already delivers, the TUI only keeps its clock and refreshes.
func tuiSchedule(ctx *cli.Context) (scheduler.Options, func(), error) {
	opts := scheduler.Options{
		ClockInterval: ctx.Config.ClockInterval(),
		CheckInterval: ctx.Config.CheckInterval(),
		Now:           ctx.Now,
	}

	release, err := acquireScheduler(ctx)
	switch {
	case err == nil:
		return opts, release, nil
	case errors.Is(err, lock.ErrLocked):
		logger.Info("Another process delivers reminders, TUI runs without checks", "error", err)
		opts.ClockOnly = true
		return opts, func() {}, nil
	default:
		return opts, nil, err
	}
}
