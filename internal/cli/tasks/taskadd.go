package tasks

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/amnyam666/tgdailybot/internal/cli"
	"github.com/amnyam666/tgdailybot/internal/models"
	"github.com/amnyam666/tgdailybot/internal/reminder"
)

type TaskAddCmd struct {
	Text   string `arg:"" help:"Task text."`
	Remind string `short:"r" help:"Reminder in the configured time zone (YYYY-MM-DD HH:MM)."`
}

func (c *TaskAddCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	text, err := models.NormalizeText(c.Text)
	if err != nil {
		return err
	}

	now := ctx.Clock()
	at, err := reminder.Parse(c.Remind, settings.Timezone, now)
	if err != nil {
		return err
	}

	task := models.Task{
		ID:           uuid.New().String(),
		Text:         text,
		CreatedAt:    now.UTC(),
		ReminderAtMs: at,
	}
	if err := ctx.Store.AddTask(task); err != nil {
		return fmt.Errorf("failed to add task: %w", err)
	}

	ctx.Printf("Added task: %s (ID: %s)\n", task.Text, cli.ShortID(task.ID))
	if when := reminder.Describe(task, settings.Timezone, settings.NotifyBeforeMinutes); when != "" {
		ctx.Printf("  Reminder: %s\n", when)
	}
	return nil
}
