package settings

import (
	"fmt"

	"github.com/amnyam666/tgdailybot/internal/cli"
	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/errors"
	"github.com/amnyam666/tgdailybot/internal/models"
	"github.com/amnyam666/tgdailybot/internal/reminder"
	"github.com/amnyam666/tgdailybot/internal/zone"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone             *string `help:"Time zone for entering and showing reminders."`
	NotifyBefore         *int    `help:"Minutes before the reminder to notify (0-120)."`
	NotificationsEnabled *bool   `help:"Enable or disable reminders."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List || (c.Timezone == nil && c.NotifyBefore == nil && c.NotificationsEnabled == nil) {
		printSettings(ctx, settings)
		return nil
	}

	if c.Timezone != nil {
		if !zone.IsSupported(*c.Timezone) {
			return fmt.Errorf("%w: %s (run '%s zones' to list supported zones)", errors.ErrUnsupportedZone, *c.Timezone, constants.AppName)
		}
		settings.Timezone = *c.Timezone
	}
	if c.NotifyBefore != nil {
		settings.NotifyBeforeMinutes = models.ClampLead(*c.NotifyBefore)
		if settings.NotifyBeforeMinutes != *c.NotifyBefore {
			ctx.Printf("Lead time clamped to %d min\n", settings.NotifyBeforeMinutes)
		}
	}
	if c.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *c.NotificationsEnabled
	}

	if err := reminder.SaveSettings(ctx.Store, settings); err != nil {
		return err
	}

	ctx.Println("Settings updated successfully.")
	printSettings(ctx, settings)
	return nil
}

func printSettings(ctx *cli.Context, settings models.Settings) {
	ctx.Println("Current Settings:")
	ctx.Printf("  Timezone:              %s\n", zone.Label(settings.Timezone, ctx.Clock()))
	ctx.Printf("  Notify Before:         %d min\n", settings.NotifyBeforeMinutes)
	ctx.Printf("  Notifications Enabled: %v\n", settings.NotificationsEnabled)
}
