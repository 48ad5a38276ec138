package storage

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/amnyam666/tgdailybot/internal/errors"
	"github.com/amnyam666/tgdailybot/internal/models"
)

// SQLBase implements the settings and task operations of Provider on top of
// sqlx. Queries are written with ? placeholders and rebound per driver.
type SQLBase struct {
	DB *sqlx.DB
	// Now stamps updated_at_ms. Defaults to time.Now.
	Now func() time.Time
}

func (b *SQLBase) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *SQLBase) loaded() error {
	if b.DB == nil {
		return fmt.Errorf("storage not loaded")
	}
	return nil
}

func (b *SQLBase) GetSettings() (models.Settings, error) {
	if err := b.loaded(); err != nil {
		return models.Settings{}, err
	}

	var pairs []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := b.DB.Select(&pairs, "SELECT key, value FROM settings"); err != nil {
		return models.Settings{}, err
	}
	if len(pairs) == 0 {
		return models.Settings{}, fmt.Errorf("settings not found")
	}

	data := make(map[string]string, len(pairs))
	for _, p := range pairs {
		data[p.Key] = p.Value
	}
	return models.MapToSettings(data)
}

func (b *SQLBase) SaveSettings(settings models.Settings) error {
	return b.UpdateSettings(settings, false)
}

func (b *SQLBase) UpdateSettings(settings models.Settings, resetNotified bool) error {
	if err := b.loaded(); err != nil {
		return err
	}
	settings.Normalize()

	tx, err := b.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(tx.Rebind(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for key, value := range models.SettingsToMap(settings) {
		if _, err := stmt.Exec(key, value); err != nil {
			return fmt.Errorf("saving setting %s: %w", key, err)
		}
	}

	if resetNotified {
		_, err := tx.Exec(tx.Rebind(`
			UPDATE tasks SET notified_for_ms = NULL, updated_at_ms = ?
			WHERE done = ? AND notified_for_ms IS NOT NULL`),
			b.now().UnixMilli(), false)
		if err != nil {
			return fmt.Errorf("resetting notified reminders: %w", err)
		}
	}

	return tx.Commit()
}

func (b *SQLBase) AddTask(task models.Task) error {
	if err := b.loaded(); err != nil {
		return err
	}
	if err := task.Validate(); err != nil {
		return err
	}

	_, err := b.DB.NamedExec(`
		INSERT INTO tasks (`+TaskColumns+`)
		VALUES (:id, :text, :done, :created_at_ms, :reminder_at_ms, :notified_for_ms, :updated_at_ms)`,
		RowFromTask(task, b.now()))
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (b *SQLBase) GetTask(id string) (models.Task, error) {
	if err := b.loaded(); err != nil {
		return models.Task{}, err
	}

	var row TaskRow
	err := b.DB.Get(&row, b.DB.Rebind("SELECT "+TaskColumns+" FROM tasks WHERE id = ?"), id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return models.Task{}, fmt.Errorf("%w: %s", errors.ErrNotFound, id)
		}
		return models.Task{}, err
	}
	return row.Task(), nil
}

func (b *SQLBase) GetAllTasks() ([]models.Task, error) {
	if err := b.loaded(); err != nil {
		return nil, err
	}

	var rows []TaskRow
	if err := b.DB.Select(&rows, "SELECT "+TaskColumns+" FROM tasks"); err != nil {
		return nil, err
	}
	return TasksFromRows(rows), nil
}

func (b *SQLBase) UpdateTask(task models.Task) error {
	return b.SaveTasks([]models.Task{task})
}

func (b *SQLBase) SaveTasks(tasks []models.Task) error {
	if err := b.loaded(); err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	tx, err := b.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamed(`
		UPDATE tasks SET
			text = :text,
			done = :done,
			reminder_at_ms = :reminder_at_ms,
			notified_for_ms = :notified_for_ms,
			updated_at_ms = :updated_at_ms
		WHERE id = :id`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := b.now()
	for i := range tasks {
		if err := tasks[i].Validate(); err != nil {
			return err
		}
		res, err := stmt.Exec(RowFromTask(tasks[i], now))
		if err != nil {
			return fmt.Errorf("updating task %s: %w", tasks[i].ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", errors.ErrNotFound, tasks[i].ID)
		}
	}

	return tx.Commit()
}

func (b *SQLBase) DeleteTask(id string) error {
	if err := b.loaded(); err != nil {
		return err
	}

	res, err := b.DB.Exec(b.DB.Rebind("DELETE FROM tasks WHERE id = ?"), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", errors.ErrNotFound, id)
	}
	return nil
}

func (b *SQLBase) MarkNotified(marks []models.NotifiedMark) (int, error) {
	if err := b.loaded(); err != nil {
		return 0, err
	}
	if len(marks) == 0 {
		return 0, nil
	}

	tx, err := b.DB.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// the guard drops marks for tasks completed or rescheduled mid-pass
	stmt, err := tx.Preparex(tx.Rebind(`
		UPDATE tasks SET notified_for_ms = ?, updated_at_ms = ?
		WHERE id = ? AND done = ? AND reminder_at_ms = ?`))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := b.now().UnixMilli()
	applied := 0
	for _, m := range marks {
		res, err := stmt.Exec(m.TriggerMs, now, m.TaskID, false, m.ReminderAtMs)
		if err != nil {
			return 0, fmt.Errorf("marking task %s notified: %w", m.TaskID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			applied += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return applied, nil
}
