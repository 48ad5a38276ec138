package models

import (
	"fmt"
	"strconv"

	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/zone"
)

// DefaultSettings returns the settings record created on first use.
func DefaultSettings() Settings {
	return Settings{
		Timezone:             constants.DefaultTimezone,
		NotifyBeforeMinutes:  constants.DefaultNotifyBeforeMinutes,
		NotificationsEnabled: constants.DefaultNotificationsEnabled,
	}
}

// Normalize forces the timezone into the supported set and clamps the lead time.
func (s *Settings) Normalize() {
	s.Timezone = zone.Resolve(s.Timezone)
	s.NotifyBeforeMinutes = ClampLead(s.NotifyBeforeMinutes)
}

// ClampLead clamps a lead time into the allowed minute range.
func ClampLead(minutes int) int {
	if minutes < constants.MinNotifyBeforeMinutes {
		return constants.MinNotifyBeforeMinutes
	}
	if minutes > constants.MaxNotifyBeforeMinutes {
		return constants.MaxNotifyBeforeMinutes
	}
	return minutes
}

// MapToSettings converts a map of key-value pairs to a Settings struct.
// Missing keys keep their defaults.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := DefaultSettings()

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingNotifyBeforeMinutes:
			minutes, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing notify_before_minutes: %w", err)
			}
			settings.NotifyBeforeMinutes = minutes
		case constants.SettingNotificationsEnabled:
			settings.NotificationsEnabled = value == "true" || value == "1"
		}
	}
	settings.Normalize()
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:             settings.Timezone,
		constants.SettingNotifyBeforeMinutes:  strconv.Itoa(settings.NotifyBeforeMinutes),
		constants.SettingNotificationsEnabled: strconv.FormatBool(settings.NotificationsEnabled),
	}
}
