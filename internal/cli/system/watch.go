package system

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/amnyam666/tgdailybot/internal/cli"
	"github.com/amnyam666/tgdailybot/internal/config"
	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/lock"
	"github.com/amnyam666/tgdailybot/internal/logger"
	"github.com/amnyam666/tgdailybot/internal/scheduler"
)

type WatchCmd struct {
	For time.Duration `help:"Stop after this long (0 runs until interrupted)." default:"0s"`
}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	release, err := acquireScheduler(ctx)
	if err != nil {
		return err
	}
	defer release()

	sink, err := ctx.Sink(nil)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if c.For > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, c.For)
		defer cancel()
	}

	sched := scheduler.New(ctx.Store, sink, scheduler.Options{
		ClockInterval: ctx.Config.ClockInterval(),
		CheckInterval: ctx.Config.CheckInterval(),
		Now:           ctx.Now,
	})

	ctx.Printf("Watching reminders every %s (%s mode). Press Ctrl+C to stop.\n", ctx.Config.CheckInterval(), ctx.Config.Mode)
	logger.Info("Watch started", "store", ctx.Store.GetConfigPath(), "mode", ctx.Config.Mode, "pid", os.Getpid())
	sched.Run(runCtx)
	logger.Info("Watch stopped")
	return nil
}

// schedulerLockPath is the lock held by whichever process delivers
// reminders: a watch daemon or a TUI.
func schedulerLockPath(ctx *cli.Context) string {
	dir := config.ExpandPath(constants.DefaultConfigDir)
	if ctx.ConfigPath != "" {
		dir = filepath.Dir(config.ExpandPath(ctx.ConfigPath))
	}
	return filepath.Join(dir, constants.SchedulerLockfileName)
}

// acquireScheduler makes this process the only one checking reminders.
// It fails with lock.ErrLocked while another process holds the role.
func acquireScheduler(ctx *cli.Context) (func(), error) {
	l, err := lock.Acquire(schedulerLockPath(ctx))
	if err != nil {
		return nil, err
	}
	return func() {
		if err := l.Release(); err != nil {
			logger.Warn("Failed to release scheduler lock", "path", l.Path(), "error", err)
		}
	}, nil
}
