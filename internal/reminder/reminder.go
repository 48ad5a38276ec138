// Package reminder decides when a task's reminder fires and keeps the
// per-task de-duplication key consistent with edits.
package reminder

import (
	"fmt"
	"strings"
	"time"

	"github.com/amnyam666/tgdailybot/internal/errors"
	"github.com/amnyam666/tgdailybot/internal/models"
	"github.com/amnyam666/tgdailybot/internal/zone"
)

const minuteMs = int64(time.Minute / time.Millisecond)

// TriggerAt returns the instant the lead-time countdown of a reminder expires.
func TriggerAt(reminderAtMs int64, leadMinutes int) int64 {
	return reminderAtMs - int64(leadMinutes)*minuteMs
}

// ShouldFire is level-triggered: a task fires on any pass at or after its
// trigger instant until NotifiedForMs records that exact trigger.
func ShouldFire(task models.Task, nowMs int64, leadMinutes int) bool {
	if task.ReminderAtMs == nil || task.Done {
		return false
	}
	trigger := TriggerAt(*task.ReminderAtMs, leadMinutes)
	if nowMs < trigger {
		return false
	}
	return task.NotifiedForMs == nil || *task.NotifiedForMs != trigger
}

// MarkFired records the current trigger instant as notified.
func MarkFired(task *models.Task, leadMinutes int) {
	if task.ReminderAtMs == nil {
		return
	}
	trigger := TriggerAt(*task.ReminderAtMs, leadMinutes)
	task.NotifiedForMs = &trigger
}

// SetReminder replaces the reminder instant and clears the notified trigger
// so the next pass evaluates the new one.
func SetReminder(task *models.Task, reminderAtMs *int64) {
	if reminderAtMs != nil {
		v := *reminderAtMs
		reminderAtMs = &v
	}
	task.ReminderAtMs = reminderAtMs
	task.NotifiedForMs = nil
}

// SetDone changes completion state. Completing or reopening frees the slot.
func SetDone(task *models.Task, done bool) {
	if task.Done == done {
		return
	}
	task.Done = done
	task.NotifiedForMs = nil
}

// ResetNotified clears the notified trigger of every open task. Used when the
// global lead time changes. Returns the tasks that changed.
func ResetNotified(tasks []models.Task) []models.Task {
	var changed []models.Task
	for i := range tasks {
		if tasks[i].Done || tasks[i].NotifiedForMs == nil {
			continue
		}
		tasks[i].NotifiedForMs = nil
		changed = append(changed, tasks[i])
	}
	return changed
}

// Validate rejects reminder instants strictly before now.
func Validate(reminderAtMs, nowMs int64) error {
	if reminderAtMs < nowMs {
		return fmt.Errorf("%w: %s", errors.ErrPastInstant, time.UnixMilli(reminderAtMs).UTC().Format(time.RFC3339))
	}
	return nil
}

// Parse converts user input in the given zone into a reminder instant.
// Empty input means "no reminder" and returns nil.
func Parse(input, zoneID string, now time.Time) (*int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	instant, ok := zone.ToUTC(input, zoneID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrParse, input)
	}
	if err := Validate(instant, now.UnixMilli()); err != nil {
		return nil, err
	}
	return &instant, nil
}

// Describe renders the reminder of a task for display in zone id, with the
// trigger time when a lead is configured.
func Describe(task models.Task, zoneID string, leadMinutes int) string {
	if task.ReminderAtMs == nil {
		return ""
	}
	when := zone.FormatDisplay(*task.ReminderAtMs, zoneID)
	if leadMinutes == 0 {
		return when
	}
	return fmt.Sprintf("%s (notify %d min before)", when, leadMinutes)
}

// SettingsStore is the part of a store a settings change touches.
type SettingsStore interface {
	GetSettings() (models.Settings, error)
	UpdateSettings(settings models.Settings, resetNotified bool) error
}

// SaveSettings persists next. When the lead time changes every trigger
// instant moves, so the notified trigger of open tasks is cleared in the same
// write.
func SaveSettings(store SettingsStore, next models.Settings) error {
	prev, err := store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	next.Normalize()
	leadChanged := next.NotifyBeforeMinutes != prev.NotifyBeforeMinutes
	if err := store.UpdateSettings(next, leadChanged); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
