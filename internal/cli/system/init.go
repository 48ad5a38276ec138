package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/amnyam666/tgdailybot/internal/cli"
	"github.com/amnyam666/tgdailybot/internal/config"
	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/storage"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting the existing store and config before initialization."`
	Mode   string `help:"Reminder delivery mode (local|telegram)."`
	ChatID int64  `name:"chat-id" help:"Telegram chat to deliver reminders to (telegram mode)."`
	Source string `help:"Existing store path or connection string to copy tasks and settings from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if err := c.writeConfig(ctx); err != nil {
		return err
	}

	if c.Force {
		storePath := ctx.Store.GetConfigPath()
		if c.Source != "" {
			absStore, _ := filepath.Abs(storePath)
			absSource, _ := filepath.Abs(config.ExpandPath(c.Source))
			if absStore == absSource {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", storePath)
			}
		}
		if storage.KindOf(storePath) != storage.KindPostgres {
			if _, err := os.Stat(storePath); err == nil {
				if err := ctx.Store.Close(); err != nil {
					return fmt.Errorf("failed to close existing store: %w", err)
				}
				if err := os.Remove(storePath); err != nil {
					return fmt.Errorf("failed to delete existing store: %w", err)
				}
				ctx.Printf("Deleted existing store at: %s\n", storePath)
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("failed to access existing store: %w", err)
			}
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized %s storage at: %s\n", constants.AppName, ctx.Store.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", c.Source)
		if err := c.copyData(ctx); err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
	}

	if ctx.Config.Mode == config.ModeTelegram {
		return ensureTokenFile(ctx)
	}
	return nil
}

func (c *InitCmd) writeConfig(ctx *cli.Context) error {
	if ctx.ConfigPath == "" {
		return nil
	}
	path := config.ExpandPath(ctx.ConfigPath)
	_, statErr := os.Stat(path)
	exists := statErr == nil
	if exists && !c.Force && c.Mode == "" && c.ChatID == 0 {
		return nil
	}

	cfg := ctx.Config
	if c.Mode != "" {
		cfg.Mode = c.Mode
	}
	if c.ChatID != 0 {
		cfg.Telegram.ChatID = c.ChatID
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Write(path, cfg); err != nil {
		return err
	}
	ctx.Config = cfg
	ctx.Printf("Wrote config: %s\n", path)
	return nil
}

// copyData moves settings and tasks from --source into the new store.
func (c *InitCmd) copyData(ctx *cli.Context) error {
	source, err := cli.OpenStore(c.Source)
	if err != nil {
		return err
	}
	if err := source.Load(); err != nil {
		return fmt.Errorf("failed to load source store: %w", err)
	}
	defer source.Close()

	settings, err := source.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings from source: %w", err)
	}
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings to destination: %w", err)
	}

	tasks, err := source.GetAllTasks()
	if err != nil {
		return fmt.Errorf("failed to get tasks from source: %w", err)
	}
	for _, task := range tasks {
		if err := ctx.Store.AddTask(task); err != nil {
			return fmt.Errorf("failed to add task %s: %w", task.ID, err)
		}
	}
	ctx.Printf("  Copied settings and %d tasks\n", len(tasks))
	return nil
}

// ensureTokenFile creates the bot token file with a placeholder so the user
// knows where to paste the token.
func ensureTokenFile(ctx *cli.Context) error {
	path := config.ExpandPath(ctx.Config.Telegram.TokenFile)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(constants.BotTokenPlaceholder+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	ctx.Printf("Paste your bot token into %s or run '%s token set'\n", path, constants.AppName)
	return nil
}
