package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/errors"
)

type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
	// ReminderAtMs is the absolute reminder instant in UTC epoch milliseconds.
	ReminderAtMs *int64 `json:"reminder_at_ms,omitempty"`
	// NotifiedForMs is the trigger instant a notification was already emitted for.
	NotifiedForMs *int64 `json:"notified_for_ms,omitempty"`
}

// NotifiedMark records a delivered reminder: the reminder instant the task
// had when it fired and the trigger instant it fired for.
type NotifiedMark struct {
	TaskID       string
	ReminderAtMs int64
	TriggerMs    int64
}

// Applies reports whether the mark still describes t. A task completed or
// given another reminder after delivery must not inherit the mark.
func (m NotifiedMark) Applies(t Task) bool {
	return !t.Done && t.ReminderAtMs != nil && *t.ReminderAtMs == m.ReminderAtMs
}

// HasReminder reports whether the task carries a reminder instant.
func (t *Task) HasReminder() bool {
	return t.ReminderAtMs != nil
}

// ReminderAt returns the reminder instant as a UTC time.
func (t *Task) ReminderAt() (time.Time, bool) {
	if t.ReminderAtMs == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*t.ReminderAtMs).UTC(), true
}

func (t *Task) Validate() error {
	text, err := NormalizeText(t.Text)
	if err != nil {
		return err
	}
	t.Text = text
	if t.ReminderAtMs != nil && *t.ReminderAtMs <= 0 {
		return fmt.Errorf("invalid reminder instant %d", *t.ReminderAtMs)
	}
	return nil
}

// NormalizeText trims task text and enforces the length limit,
// counted in UTF-16 code units.
func NormalizeText(value string) (string, error) {
	text := strings.TrimSpace(value)
	if text == "" {
		return "", fmt.Errorf("%w: task text cannot be empty", errors.ErrTaskText)
	}
	if n := utf16Len(text); n > constants.MaxTaskLength {
		return "", fmt.Errorf("%w: task is too long (%d > %d)", errors.ErrTaskText, n, constants.MaxTaskLength)
	}
	return text, nil
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// SortTasks orders tasks for display: open tasks first, then by reminder
// (tasks without one last), then by creation time.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Done != b.Done {
			return !a.Done
		}
		if (a.ReminderAtMs == nil) != (b.ReminderAtMs == nil) {
			return a.ReminderAtMs != nil
		}
		if a.ReminderAtMs != nil && *a.ReminderAtMs != *b.ReminderAtMs {
			return *a.ReminderAtMs < *b.ReminderAtMs
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
