package constants

const (
	SettingTimezone             = "timezone"
	SettingNotifyBeforeMinutes  = "notify_before_minutes"
	SettingNotificationsEnabled = "notifications_enabled"

	DefaultTimezone             = "Europe/Moscow"
	DefaultNotifyBeforeMinutes  = 0
	DefaultNotificationsEnabled = true

	MinNotifyBeforeMinutes = 0
	MaxNotifyBeforeMinutes = 120
)
