package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/amnyam666/tgdailybot/internal/backup"
	"github.com/amnyam666/tgdailybot/internal/config"
	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/errors"
	"github.com/amnyam666/tgdailybot/internal/logger"
	"github.com/amnyam666/tgdailybot/internal/models"
	"github.com/amnyam666/tgdailybot/internal/notifier"
	"github.com/amnyam666/tgdailybot/internal/storage"
	"github.com/amnyam666/tgdailybot/internal/storage/postgres"
	"github.com/amnyam666/tgdailybot/internal/storage/sqlite"
)

type Context struct {
	Store      storage.Provider
	Config     config.Config
	ConfigPath string
	// System is the desktop notifier used in local mode. Nil disables it.
	System notifier.SystemNotifier
	Now    func() time.Time
	Out    io.Writer
	In     io.Reader
}

// OpenStore returns the provider for location: a postgres URL, a .json file
// or, by default, a SQLite database.
func OpenStore(location string) (storage.Provider, error) {
	switch storage.KindOf(location) {
	case storage.KindPostgres:
		if storage.HasEmbeddedCredentials(location) {
			return nil, fmt.Errorf("%w: use %s, the OS keyring or .pgpass instead", postgres.ErrEmbeddedCredentials, constants.EnvDBConnection)
		}
		return postgres.New(location), nil
	case storage.KindJSON:
		return storage.NewJSONStore(config.ExpandPath(location)), nil
	default:
		return sqlite.NewStore(config.ExpandPath(location)), nil
	}
}

// Clock returns the current time from Now, or the wall clock.
func (c *Context) Clock() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Output(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Output(), args...)
}

// Output returns the writer commands print to.
func (c *Context) Output() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

// Input returns the reader used for confirmations.
func (c *Context) Input() io.Reader {
	if c.In != nil {
		return c.In
	}
	return os.Stdin
}

// FindTask resolves a full task ID or an unambiguous ID prefix.
func (c *Context) FindTask(ref string) (models.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Task{}, fmt.Errorf("task id is required")
	}
	if task, err := c.Store.GetTask(ref); err == nil {
		return task, nil
	} else if !errors.Is(err, errors.ErrNotFound) {
		return models.Task{}, err
	}

	tasks, err := c.Store.GetAllTasks()
	if err != nil {
		return models.Task{}, err
	}
	var matches []models.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return models.Task{}, fmt.Errorf("%w: task %s", errors.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return models.Task{}, fmt.Errorf("task id %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// Sink builds the reminder delivery for the configured mode. In local mode
// toast receives the in-app fallback.
func (c *Context) Sink(toast notifier.Toaster) (notifier.Sink, error) {
	if c.Config.Mode == config.ModeTelegram {
		token, source, err := c.Config.ResolveBotToken()
		if err != nil {
			return nil, err
		}
		logger.Info("Delivering reminders to Telegram", "chat_id", c.Config.Telegram.ChatID, "token_source", source)
		return notifier.NewTelegram(c.Config.Telegram.APIBaseURL, token, c.Config.Telegram.ChatID), nil
	}
	if toast == nil {
		toast = notifier.NewWriterToaster(c.Output())
	}
	return notifier.NewDispatcher(c.System, toast), nil
}

// BackupManager returns the backup manager for file stores.
func (c *Context) BackupManager() (*backup.Manager, error) {
	path := c.Store.GetConfigPath()
	if _, ok := c.Store.(*postgres.Store); ok || !backup.Supported(path) {
		return nil, fmt.Errorf("backups are only available for file stores; use pg_dump for PostgreSQL")
	}
	return backup.NewManager(path), nil
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	mgr, err := c.BackupManager()
	if err != nil {
		return
	}
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ShortID abbreviates a task ID for listings.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
