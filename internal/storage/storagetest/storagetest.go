// Package storagetest holds the behavior every storage.Provider must share.
package storagetest

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/amnyam666/tgdailybot/internal/errors"
	"github.com/amnyam666/tgdailybot/internal/models"
	"github.com/amnyam666/tgdailybot/internal/storage"
)

func ms(v int64) *int64 { return &v }

// NewTask returns a valid open task created at created.
func NewTask(text string, created time.Time) models.Task {
	return models.Task{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: created.UTC().Truncate(time.Millisecond),
	}
}

// Run exercises an initialized provider returned by open.
func Run(t *testing.T, open func(t *testing.T) storage.Provider) {
	t.Run("DefaultSettings", func(t *testing.T) {
		store := open(t)
		settings, err := store.GetSettings()
		if err != nil {
			t.Fatalf("GetSettings() error = %v", err)
		}
		if settings != models.DefaultSettings() {
			t.Errorf("GetSettings() = %+v, want defaults", settings)
		}
	})

	t.Run("SettingsNormalizedOnSave", func(t *testing.T) {
		store := open(t)
		err := store.SaveSettings(models.Settings{Timezone: "Mars/Base", NotifyBeforeMinutes: 999, NotificationsEnabled: false})
		if err != nil {
			t.Fatalf("SaveSettings() error = %v", err)
		}
		got, err := store.GetSettings()
		if err != nil {
			t.Fatalf("GetSettings() error = %v", err)
		}
		want := models.Settings{Timezone: "Europe/Moscow", NotifyBeforeMinutes: 120, NotificationsEnabled: false}
		if got != want {
			t.Errorf("GetSettings() = %+v, want %+v", got, want)
		}
	})

	t.Run("TaskLifecycle", func(t *testing.T) {
		store := open(t)
		base := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

		task := NewTask("  buy milk ", base)
		task.ReminderAtMs = ms(base.Add(30 * time.Minute).UnixMilli())
		if err := store.AddTask(task); err != nil {
			t.Fatalf("AddTask() error = %v", err)
		}

		got, err := store.GetTask(task.ID)
		if err != nil {
			t.Fatalf("GetTask() error = %v", err)
		}
		if got.Text != "buy milk" {
			t.Errorf("Text = %q, want trimmed", got.Text)
		}
		if got.ReminderAtMs == nil || *got.ReminderAtMs != *task.ReminderAtMs {
			t.Errorf("ReminderAtMs = %v, want %d", got.ReminderAtMs, *task.ReminderAtMs)
		}
		if got.NotifiedForMs != nil {
			t.Errorf("NotifiedForMs = %v, want nil", *got.NotifiedForMs)
		}
		if !got.CreatedAt.Equal(task.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, task.CreatedAt)
		}

		got.Done = true
		got.NotifiedForMs = ms(*got.ReminderAtMs)
		if err := store.UpdateTask(got); err != nil {
			t.Fatalf("UpdateTask() error = %v", err)
		}
		reloaded, err := store.GetTask(task.ID)
		if err != nil {
			t.Fatalf("GetTask() error = %v", err)
		}
		if !reloaded.Done || reloaded.NotifiedForMs == nil || *reloaded.NotifiedForMs != *got.ReminderAtMs {
			t.Errorf("update not persisted: %+v", reloaded)
		}

		reloaded.ReminderAtMs = nil
		reloaded.NotifiedForMs = nil
		if err := store.UpdateTask(reloaded); err != nil {
			t.Fatalf("UpdateTask() clearing reminder error = %v", err)
		}
		cleared, _ := store.GetTask(task.ID)
		if cleared.ReminderAtMs != nil || cleared.NotifiedForMs != nil {
			t.Errorf("reminder not cleared: %+v", cleared)
		}

		if err := store.DeleteTask(task.ID); err != nil {
			t.Fatalf("DeleteTask() error = %v", err)
		}
		if _, err := store.GetTask(task.ID); !errors.Is(err, errors.ErrNotFound) {
			t.Errorf("GetTask() after delete error = %v, want ErrNotFound", err)
		}
		if err := store.DeleteTask(task.ID); !errors.Is(err, errors.ErrNotFound) {
			t.Errorf("DeleteTask() twice error = %v, want ErrNotFound", err)
		}
	})

	t.Run("RejectsInvalidText", func(t *testing.T) {
		store := open(t)
		if err := store.AddTask(NewTask("   ", time.Now())); !errors.Is(err, errors.ErrTaskText) {
			t.Errorf("AddTask() error = %v, want ErrTaskText", err)
		}
	})

	t.Run("SaveTasksBatch", func(t *testing.T) {
		store := open(t)
		base := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

		var tasks []models.Task
		for i, text := range []string{"one", "two", "three"} {
			task := NewTask(text, base.Add(time.Duration(i)*time.Minute))
			task.ReminderAtMs = ms(base.Add(time.Hour).UnixMilli())
			if err := store.AddTask(task); err != nil {
				t.Fatalf("AddTask() error = %v", err)
			}
			tasks = append(tasks, task)
		}

		for i := range tasks {
			tasks[i].NotifiedForMs = ms(*tasks[i].ReminderAtMs)
		}
		if err := store.SaveTasks(tasks[:2]); err != nil {
			t.Fatalf("SaveTasks() error = %v", err)
		}

		all, err := store.GetAllTasks()
		if err != nil {
			t.Fatalf("GetAllTasks() error = %v", err)
		}
		notified := 0
		for _, task := range all {
			if task.NotifiedForMs != nil {
				notified++
			}
		}
		if notified != 2 {
			t.Errorf("notified tasks = %d, want 2", notified)
		}

		missing := NewTask("ghost", base)
		if err := store.SaveTasks([]models.Task{missing}); !errors.Is(err, errors.ErrNotFound) {
			t.Errorf("SaveTasks() unknown task error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListingOrder", func(t *testing.T) {
		store := open(t)
		base := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

		late := NewTask("late", base)
		late.ReminderAtMs = ms(base.Add(2 * time.Hour).UnixMilli())
		early := NewTask("early", base.Add(time.Minute))
		early.ReminderAtMs = ms(base.Add(time.Hour).UnixMilli())
		undated := NewTask("undated", base)
		done := NewTask("done", base)
		done.Done = true
		done.ReminderAtMs = ms(base.Add(time.Minute).UnixMilli())

		for _, task := range []models.Task{done, undated, late, early} {
			if err := store.AddTask(task); err != nil {
				t.Fatalf("AddTask() error = %v", err)
			}
		}

		all, err := store.GetAllTasks()
		if err != nil {
			t.Fatalf("GetAllTasks() error = %v", err)
		}
		want := []string{"early", "late", "undated", "done"}
		if len(all) != len(want) {
			t.Fatalf("GetAllTasks() returned %d tasks, want %d", len(all), len(want))
		}
		for i, text := range want {
			if all[i].Text != text {
				t.Errorf("position %d = %s, want %s", i, all[i].Text, text)
			}
		}
	})

	t.Run("MarkNotifiedSkipsChangedTasks", func(t *testing.T) {
		store := open(t)
		base := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
		at := base.Add(time.Hour).UnixMilli()

		add := func(text string, done bool) models.Task {
			task := NewTask(text, base)
			task.Done = done
			task.ReminderAtMs = ms(at)
			if err := store.AddTask(task); err != nil {
				t.Fatalf("AddTask() error = %v", err)
			}
			return task
		}
		pending := add("open", false)
		rescheduled := add("rescheduled", false)
		completed := add("completed", true)
		deleted := add("deleted", false)

		rescheduled.ReminderAtMs = ms(at + 60000)
		if err := store.UpdateTask(rescheduled); err != nil {
			t.Fatal(err)
		}
		if err := store.DeleteTask(deleted.ID); err != nil {
			t.Fatal(err)
		}

		var marks []models.NotifiedMark
		for _, task := range []models.Task{pending, rescheduled, completed, deleted} {
			marks = append(marks, models.NotifiedMark{TaskID: task.ID, ReminderAtMs: at, TriggerMs: at})
		}
		applied, err := store.MarkNotified(marks)
		if err != nil {
			t.Fatalf("MarkNotified() error = %v", err)
		}
		if applied != 1 {
			t.Errorf("MarkNotified() applied %d marks, want 1", applied)
		}

		got, _ := store.GetTask(pending.ID)
		if got.NotifiedForMs == nil || *got.NotifiedForMs != at {
			t.Errorf("open task NotifiedForMs = %v, want %d", got.NotifiedForMs, at)
		}
		if got.Text != "open" {
			t.Errorf("MarkNotified() changed text to %q", got.Text)
		}
		got, _ = store.GetTask(rescheduled.ID)
		if got.NotifiedForMs != nil || *got.ReminderAtMs != at+60000 {
			t.Errorf("rescheduled task changed: %+v", got)
		}
		got, _ = store.GetTask(completed.ID)
		if got.NotifiedForMs != nil || !got.Done {
			t.Errorf("completed task changed: %+v", got)
		}
		if _, err := store.GetTask(deleted.ID); !errors.Is(err, errors.ErrNotFound) {
			t.Errorf("deleted task came back: %v", err)
		}

		if applied, err := store.MarkNotified(nil); err != nil || applied != 0 {
			t.Errorf("MarkNotified(nil) = %d, %v", applied, err)
		}
	})

	t.Run("UpdateSettingsResetsNotified", func(t *testing.T) {
		store := open(t)
		base := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

		openTask := NewTask("open", base)
		openTask.ReminderAtMs = ms(base.UnixMilli())
		openTask.NotifiedForMs = ms(base.UnixMilli())
		doneTask := NewTask("done", base)
		doneTask.Done = true
		doneTask.ReminderAtMs = ms(base.UnixMilli())
		doneTask.NotifiedForMs = ms(base.UnixMilli())
		for _, task := range []models.Task{openTask, doneTask} {
			if err := store.AddTask(task); err != nil {
				t.Fatalf("AddTask() error = %v", err)
			}
		}

		settings := models.DefaultSettings()
		settings.NotifyBeforeMinutes = 15
		if err := store.UpdateSettings(settings, false); err != nil {
			t.Fatalf("UpdateSettings() error = %v", err)
		}
		if got, _ := store.GetTask(openTask.ID); got.NotifiedForMs == nil {
			t.Error("UpdateSettings without reset cleared a notified trigger")
		}

		settings.NotifyBeforeMinutes = 30
		if err := store.UpdateSettings(settings, true); err != nil {
			t.Fatalf("UpdateSettings() error = %v", err)
		}
		got, _ := store.GetSettings()
		if got.NotifyBeforeMinutes != 30 {
			t.Errorf("NotifyBeforeMinutes = %d, want 30", got.NotifyBeforeMinutes)
		}
		if task, _ := store.GetTask(openTask.ID); task.NotifiedForMs != nil {
			t.Error("open task still carries a notified trigger")
		}
		if task, _ := store.GetTask(doneTask.ID); task.NotifiedForMs == nil {
			t.Error("done task lost its notified trigger")
		}
	})
}
