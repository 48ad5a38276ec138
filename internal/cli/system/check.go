package system

import (
	"context"
	"fmt"

	"github.com/amnyam666/tgdailybot/internal/cli"
	"github.com/amnyam666/tgdailybot/internal/scheduler"
)

type CheckCmd struct {
	DryRun bool `help:"Only report due reminders; do not send or mark them."`
}

func (c *CheckCmd) Run(ctx *cli.Context) error {
	sink, err := ctx.Sink(nil)
	if err != nil {
		return err
	}

	sched := scheduler.New(ctx.Store, sink, scheduler.Options{
		Now:    ctx.Now,
		DryRun: c.DryRun,
	})
	res, err := sched.Check(context.Background())
	if err != nil {
		return err
	}

	switch {
	case res.Disabled:
		ctx.Println("Notifications are disabled.")
		return nil
	case len(res.Due) == 0:
		ctx.Println("No reminders due.")
		return nil
	}

	for _, r := range res.Due {
		ctx.Printf("  %s  %s (%s)\n", r.Task.Text, r.When, r.Zone)
	}
	if c.DryRun {
		ctx.Printf("%d reminder(s) due (dry run, nothing sent)\n", len(res.Due))
		return nil
	}
	ctx.Printf("Sent %d of %d reminder(s)\n", res.Sent, len(res.Due))
	if res.Failed > 0 {
		return fmt.Errorf("%d reminder(s) could not be delivered and will be retried", res.Failed)
	}
	return nil
}
