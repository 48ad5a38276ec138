package tasks

import (
	"fmt"

	"github.com/amnyam666/tgdailybot/internal/cli"
	"github.com/amnyam666/tgdailybot/internal/reminder"
)

type TaskListCmd struct {
	Open bool `help:"Show only open tasks."`
}

func (c *TaskListCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	tasks, err := ctx.Store.GetAllTasks()
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(tasks) == 0 {
		ctx.Println("No tasks found")
		return nil
	}

	ctx.Printf("Tasks (%s):\n", settings.Timezone)
	for _, task := range tasks {
		if c.Open && task.Done {
			continue
		}

		mark := " "
		if task.Done {
			mark = "x"
		}
		ctx.Printf("  [%s] %s  %s\n", mark, cli.ShortID(task.ID), task.Text)
		if when := reminder.Describe(task, settings.Timezone, settings.NotifyBeforeMinutes); when != "" {
			ctx.Printf("        Reminder: %s\n", when)
		}
	}
	return nil
}
