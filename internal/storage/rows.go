package storage

import (
	"database/sql"
	"time"

	"github.com/amnyam666/tgdailybot/internal/models"
)

// TaskRow is the SQL representation of a task, shared by the SQL backends.
type TaskRow struct {
	ID            string        `db:"id"`
	Text          string        `db:"text"`
	Done          bool          `db:"done"`
	CreatedAtMs   int64         `db:"created_at_ms"`
	ReminderAtMs  sql.NullInt64 `db:"reminder_at_ms"`
	NotifiedForMs sql.NullInt64 `db:"notified_for_ms"`
	UpdatedAtMs   int64         `db:"updated_at_ms"`
}

// TaskColumns lists the task columns in TaskRow order.
const TaskColumns = "id, text, done, created_at_ms, reminder_at_ms, notified_for_ms, updated_at_ms"

func RowFromTask(t models.Task, now time.Time) TaskRow {
	return TaskRow{
		ID:            t.ID,
		Text:          t.Text,
		Done:          t.Done,
		CreatedAtMs:   t.CreatedAt.UnixMilli(),
		ReminderAtMs:  nullInt(t.ReminderAtMs),
		NotifiedForMs: nullInt(t.NotifiedForMs),
		UpdatedAtMs:   now.UnixMilli(),
	}
}

func (r TaskRow) Task() models.Task {
	return models.Task{
		ID:            r.ID,
		Text:          r.Text,
		Done:          r.Done,
		CreatedAt:     time.UnixMilli(r.CreatedAtMs).UTC(),
		ReminderAtMs:  intPtr(r.ReminderAtMs),
		NotifiedForMs: intPtr(r.NotifiedForMs),
	}
}

// TasksFromRows converts rows and applies the listing order.
func TasksFromRows(rows []TaskRow) []models.Task {
	tasks := make([]models.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.Task())
	}
	models.SortTasks(tasks)
	return tasks
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
