package tasks

import (
	"fmt"

	"github.com/amnyam666/tgdailybot/internal/cli"
	"github.com/amnyam666/tgdailybot/internal/reminder"
)

type TaskDoneCmd struct {
	ID string `arg:"" help:"Task ID or unique prefix."`
}

func (c *TaskDoneCmd) Run(ctx *cli.Context) error {
	return setDone(ctx, c.ID, true)
}

type TaskReopenCmd struct {
	ID string `arg:"" help:"Task ID or unique prefix."`
}

func (c *TaskReopenCmd) Run(ctx *cli.Context) error {
	return setDone(ctx, c.ID, false)
}

func setDone(ctx *cli.Context, id string, done bool) error {
	task, err := ctx.FindTask(id)
	if err != nil {
		return fmt.Errorf("failed to find task: %w", err)
	}

	if task.Done == done {
		ctx.Printf("Task already %s: %s\n", status(done), task.Text)
		return nil
	}

	reminder.SetDone(&task, done)
	if err := ctx.Store.UpdateTask(task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	ctx.Printf("Marked %s: %s\n", status(done), task.Text)
	return nil
}

func status(done bool) string {
	if done {
		return "done"
	}
	return "open"
}
