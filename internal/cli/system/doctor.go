package system

import (
	"fmt"
	"time"

	"github.com/amnyam666/tgdailybot/internal/cli"
	"github.com/amnyam666/tgdailybot/internal/config"
	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/notifier"
	"github.com/amnyam666/tgdailybot/internal/storage"
	"github.com/amnyam666/tgdailybot/internal/zone"
)

type DoctorCmd struct{}

type check struct {
	name    string
	run     func(*cli.Context) error
	warning bool
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	reachable := true
	if err := checkStoreReachable(ctx); err != nil {
		ctx.Printf("❌ Store reachable: FAIL\n   Error: %v\n", err)
		hasError = true
		reachable = false
	} else {
		ctx.Printf("✓ Store reachable: OK\n")
	}

	checks := []check{
		{name: "Schema version", run: checkSchemaVersion},
		{name: "Data validation", run: checkTasks},
		{name: "Backups present", run: checkBackupsPresent, warning: true},
	}
	for _, c := range checks {
		if !reachable {
			ctx.Printf("⊘ %s: SKIPPED (store not reachable)\n", c.name)
			continue
		}
		hasError = report(ctx, c, c.run(ctx)) || hasError
	}

	hasError = report(ctx, check{name: "Clock/timezone"}, checkClockTimezone()) || hasError
	hasError = report(ctx, check{name: "Delivery", warning: ctx.Config.Mode != config.ModeTelegram}, checkDelivery(ctx)) || hasError

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

// report prints a check result and reports whether it counts as a failure.
func report(ctx *cli.Context, c check, err error) bool {
	switch {
	case err == nil:
		ctx.Printf("✓ %s: OK\n", c.name)
		return false
	case c.warning:
		ctx.Printf("⚠ %s: WARNING\n   %v\n", c.name, err)
		return false
	default:
		ctx.Printf("❌ %s: FAIL\n   Error: %v\n", c.name, err)
		return true
	}
}

func checkStoreReachable(ctx *cli.Context) error {
	if ctx.Store == nil {
		return fmt.Errorf("no store configured")
	}
	if _, err := ctx.Store.GetSettings(); err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	versioned, ok := ctx.Store.(storage.Versioned)
	if !ok {
		// document stores carry no migrations
		return nil
	}
	current, latest, err := versioned.SchemaVersion()
	if err != nil {
		return err
	}
	if current != latest {
		return fmt.Errorf("schema version %d, expected %d (run '%s init' to migrate)", current, latest, constants.AppName)
	}
	return nil
}

func checkTasks(ctx *cli.Context) error {
	tasks, err := ctx.Store.GetAllTasks()
	if err != nil {
		return err
	}
	var problems int
	for _, task := range tasks {
		if err := task.Validate(); err != nil {
			problems++
			continue
		}
		if task.NotifiedForMs != nil && task.ReminderAtMs == nil {
			problems++
		}
	}
	if problems > 0 {
		return fmt.Errorf("%d of %d tasks are invalid", problems, len(tasks))
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return err
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found in %s", mgr.GetBackupDir())
	}
	if age := time.Since(backups[0].Timestamp); age > 7*24*time.Hour {
		return fmt.Errorf("latest backup is %d days old", int(age.Hours()/24))
	}
	return nil
}

func checkClockTimezone() error {
	for _, id := range zone.Supported {
		if _, err := time.LoadLocation(id); err != nil {
			return fmt.Errorf("time zone database is missing %s: %w", id, err)
		}
	}
	if time.Now().Year() < 2024 {
		return fmt.Errorf("system clock looks wrong: %s", time.Now().Format(time.RFC3339))
	}
	return nil
}

func checkDelivery(ctx *cli.Context) error {
	if ctx.Config.Mode == config.ModeTelegram {
		_, _, err := ctx.Config.ResolveBotToken()
		return err
	}
	if ctx.System == nil {
		return fmt.Errorf("desktop notifications disabled; reminders show in-app only")
	}
	if perm := ctx.System.Permission(); perm != notifier.Granted {
		return fmt.Errorf("desktop notifier %s; reminders fall back to in-app", perm)
	}
	return nil
}
