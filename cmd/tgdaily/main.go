package main

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/amnyam666/tgdailybot/internal/cli"
	"github.com/amnyam666/tgdailybot/internal/cli/backups"
	"github.com/amnyam666/tgdailybot/internal/cli/settings"
	"github.com/amnyam666/tgdailybot/internal/cli/system"
	"github.com/amnyam666/tgdailybot/internal/cli/tasks"
	"github.com/amnyam666/tgdailybot/internal/config"
	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/errors"
	"github.com/amnyam666/tgdailybot/internal/logger"
	"github.com/amnyam666/tgdailybot/internal/notifier"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"string" default:"~/.config/tgdaily/config.toml"`
	Store   string `help:"Task store: a .json file, a SQLite path or a postgres:// URL. Overrides the config file. PostgreSQL credentials must NOT be embedded; use TGDAILY_DB_CONNECTION, the OS keyring or .pgpass." type:"string"`
	Debug   bool   `help:"Enable debug logging to stderr."`

	Init     system.InitCmd       `cmd:"" help:"Initialize config and task storage."`
	Tui      system.TuiCmd        `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Check    system.CheckCmd      `cmd:"" help:"Run one reminder pass."`
	Watch    system.WatchCmd      `cmd:"" help:"Deliver reminders until interrupted."`
	Doctor   system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Zones    system.ZonesCmd      `cmd:"" help:"List supported time zones."`
	Settings settings.SettingsCmd `cmd:"" help:"Show or change reminder settings."`
	Task     struct {
		Add    tasks.TaskAddCmd    `cmd:"" help:"Add a new task."`
		Edit   tasks.TaskEditCmd   `cmd:"" help:"Edit an existing task."`
		Done   tasks.TaskDoneCmd   `cmd:"" help:"Mark a task done."`
		Reopen tasks.TaskReopenCmd `cmd:"" help:"Reopen a completed task."`
		Delete tasks.TaskDeleteCmd `cmd:"" help:"Delete a task."`
		List   tasks.TaskListCmd   `cmd:"" help:"List tasks."`
	} `cmd:"" help:"Manage tasks."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage store backups."`
	Token struct {
		Set    system.TokenSetCmd    `cmd:"" help:"Store the Telegram bot token in the OS keyring."`
		Clear  system.TokenClearCmd  `cmd:"" help:"Remove the bot token from the OS keyring."`
		Status system.TokenStatusCmd `cmd:"" help:"Show where the bot token is read from."`
	} `cmd:"" help:"Manage the Telegram bot token."`
	DB struct {
		Set   system.DBSetCmd   `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		Clear system.DBClearCmd `cmd:"" help:"Remove the connection string from the OS keyring."`
	} `cmd:"" name:"db" help:"Manage the PostgreSQL connection string."`
}

// commands that run without a loaded store
var storeless = map[string]bool{
	"init":  true,
	"token": true,
	"db":    true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Personal task list with time-zone-aware reminders"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug: CLI.Debug || cfg.Log.Debug,
		Level: cfg.Log.Level,
		Dir:   filepath.Dir(config.ExpandPath(CLI.Config)),
	}); err != nil {
		errors.Fatal(err)
	}

	store, err := cli.OpenStore(cfg.ResolveStore(CLI.Store))
	if err != nil {
		errors.Fatal(err)
	}
	defer store.Close()

	appCtx := &cli.Context{
		Store:      store,
		Config:     cfg,
		ConfigPath: CLI.Config,
		System:     notifier.NewTray(),
	}

	command := strings.Fields(ctx.Command())
	if len(command) > 0 && !storeless[command[0]] {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		// Fatal exits without running defers
		_ = store.Close()
		errors.Fatal(err)
	}
}
