package models

// Settings is the single per-store preferences record
type Settings struct {
	Timezone             string `json:"timezone"`              // IANA zone, one of zone.Supported
	NotifyBeforeMinutes  int    `json:"notify_before_minutes"` // lead time, 0..120
	NotificationsEnabled bool   `json:"notifications_enabled"` // global reminder switch
}
