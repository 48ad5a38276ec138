package storage

import "github.com/amnyam666/tgdailybot/internal/models"

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error
	// UpdateSettings saves settings and, when resetNotified is set, clears the
	// notified trigger of every open task in the same write.
	UpdateSettings(settings models.Settings, resetNotified bool) error

	// Tasks
	AddTask(models.Task) error
	GetTask(id string) (models.Task, error)
	GetAllTasks() ([]models.Task, error)
	UpdateTask(models.Task) error
	// SaveTasks persists a batch of existing tasks in one write.
	SaveTasks([]models.Task) error
	DeleteTask(id string) error
	// MarkNotified records delivered reminders in one write, touching only
	// notified_for_ms. Marks whose task was deleted, completed or rescheduled
	// since delivery are skipped. It returns the number of marks applied.
	MarkNotified([]models.NotifiedMark) (int, error)

	// Utils
	GetConfigPath() string
}

// Versioned is implemented by stores with a migrated schema.
type Versioned interface {
	SchemaVersion() (current int, latest int, err error)
}
