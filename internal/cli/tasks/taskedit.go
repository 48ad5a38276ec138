package tasks

import (
	"fmt"

	"github.com/amnyam666/tgdailybot/internal/cli"
	"github.com/amnyam666/tgdailybot/internal/models"
	"github.com/amnyam666/tgdailybot/internal/reminder"
)

type TaskEditCmd struct {
	ID     string  `arg:"" help:"Task ID or unique prefix."`
	Text   *string `help:"New task text."`
	Remind *string `short:"r" help:"New reminder (YYYY-MM-DD HH:MM); empty clears it."`
}

func (c *TaskEditCmd) Run(ctx *cli.Context) error {
	task, err := ctx.FindTask(c.ID)
	if err != nil {
		return fmt.Errorf("failed to find task: %w", err)
	}
	if c.Text == nil && c.Remind == nil {
		return fmt.Errorf("nothing to change: pass --text and/or --remind")
	}

	// Parse everything before touching the task so a rejected edit changes nothing.
	var text string
	if c.Text != nil {
		if text, err = models.NormalizeText(*c.Text); err != nil {
			return err
		}
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	var at *int64
	if c.Remind != nil {
		if at, err = reminder.Parse(*c.Remind, settings.Timezone, ctx.Clock()); err != nil {
			return err
		}
	}

	if c.Text != nil {
		task.Text = text
	}
	if c.Remind != nil {
		reminder.SetReminder(&task, at)
	}

	if err := ctx.Store.UpdateTask(task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	ctx.Printf("Updated task: %s (ID: %s)\n", task.Text, cli.ShortID(task.ID))
	if when := reminder.Describe(task, settings.Timezone, settings.NotifyBeforeMinutes); when != "" {
		ctx.Printf("  Reminder: %s\n", when)
	} else if c.Remind != nil {
		ctx.Println("  Reminder cleared")
	}
	return nil
}
