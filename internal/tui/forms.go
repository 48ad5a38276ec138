package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/models"
	"github.com/amnyam666/tgdailybot/internal/reminder"
	"github.com/amnyam666/tgdailybot/internal/zone"
)

// NewTaskForm builds the add/edit form. Reminder input is read in zoneID.
func NewTaskForm(fm *TaskFormModel, zoneID string, now func() time.Time) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Task").
				CharLimit(constants.MaxTaskLength).
				Value(&fm.Text).
				Validate(func(s string) error {
					_, err := models.NormalizeText(s)
					return err
				}),
			huh.NewInput().
				Title("Reminder").
				Description(fmt.Sprintf("YYYY-MM-DD HH:MM in %s, empty for none", zoneID)).
				Placeholder(now().In(zone.Location(zoneID)).Add(time.Hour).Format(constants.DateTimeInputFormat)).
				Value(&fm.Reminder).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == fm.originalReminder {
						return nil
					}
					_, err := reminder.Parse(s, zoneID, now())
					return err
				}),
		),
	).WithShowHelp(false)
}

// NewSettingsForm builds the settings form with the supported zones.
func NewSettingsForm(fm *SettingsFormModel, now time.Time) *huh.Form {
	options := make([]huh.Option[string], 0, len(zone.Supported))
	for _, id := range zone.Supported {
		options = append(options, huh.NewOption(zone.Label(id, now), id))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Time zone").
				Options(options...).
				Value(&fm.Timezone),
			huh.NewInput().
				Title("Notify before (min)").
				Description(fmt.Sprintf("%d-%d", constants.MinNotifyBeforeMinutes, constants.MaxNotifyBeforeMinutes)).
				Value(&fm.NotifyBefore).
				Validate(validateLead),
			huh.NewConfirm().
				Title("Reminders enabled").
				Value(&fm.NotificationsEnabled),
		),
	).WithShowHelp(false)
}

func validateLead(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a number of minutes")
	}
	if v != models.ClampLead(v) {
		return fmt.Errorf("must be between %d and %d", constants.MinNotifyBeforeMinutes, constants.MaxNotifyBeforeMinutes)
	}
	return nil
}
