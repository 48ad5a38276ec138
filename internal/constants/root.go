package constants

import "time"

const (
	AppName               = "tgdaily"
	Version               = "v0.3.0"
	DefaultConfigDir      = "~/.config/tgdaily"
	DefaultStorePath      = "~/.config/tgdaily/tasks.json"
	DefaultConfigFile     = "~/.config/tgdaily/config.toml"
	KeyringBotTokenUser   = "telegram-bot-token"
	KeyringDBConnUser     = "database-connection"
	EnvBotToken           = "TGDAILY_BOT_TOKEN"
	EnvDBConnection       = "TGDAILY_DB_CONNECTION"
	BotTokenPlaceholder   = "PASTE_YOUR_BOT_TOKEN_HERE"
	SchedulerLockfileName = "tgdaily-scheduler.lock"
	DefaultTelegramAPI    = "https://api.telegram.org"
	TelegramSendTimeout   = 15 * time.Second
	MaxTaskLength         = 300
	MaxDueRemindersBatch  = 200

	// DateTimeInputFormat is the wall-clock layout accepted for reminders (YYYY-MM-DD HH:MM)
	DateTimeInputFormat = "2006-01-02 15:04"

	// DisplayFormat is the human-facing reminder layout (DD.MM.YYYY HH:MM)
	DisplayFormat = "02.01.2006 15:04"

	// Scheduler intervals
	DefaultClockInterval = time.Second
	DefaultCheckInterval = 20 * time.Second
	MinCheckInterval     = 5 * time.Second

	// Backup constants
	MaxBackups    = 14
	BackupDirName = "backups"

	// Notify constants
	NotifierLockfileName   = "tgdaily-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.tgdaily.tray"
	TrayExecutablePrefix   = "tgdaily-tray"
)
