package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amnyam666/tgdailybot/internal/models"
	"github.com/amnyam666/tgdailybot/internal/notifier"
	"github.com/amnyam666/tgdailybot/internal/reminder"
	"github.com/amnyam666/tgdailybot/internal/scheduler"
	"github.com/amnyam666/tgdailybot/internal/storage"
)

var testNow = time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, tasks ...models.Task) (Model, storage.Provider) {
	t.Helper()
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "tasks.json"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	for _, task := range tasks {
		if err := store.AddTask(task); err != nil {
			t.Fatal(err)
		}
	}
	m := NewModel(store, func() time.Time { return testNow })
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model), store
}

func keyPress(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	var model tea.Model = m
	for _, msg := range msgs {
		model, _ = model.Update(msg)
	}
	return model.(Model)
}

func task(id, text string, reminderAt *time.Time) models.Task {
	t := models.Task{ID: id, Text: text, CreatedAt: testNow.Add(-time.Hour)}
	if reminderAt != nil {
		v := reminderAt.UnixMilli()
		t.ReminderAtMs = &v
	}
	return t
}

func TestViewShowsTasksAndClock(t *testing.T) {
	at := time.Date(2025, 6, 1, 6, 30, 0, 0, time.UTC)
	m, _ := newTestModel(t, task("1", "call the bank", &at))

	m = send(t, m, ClockMsg(testNow.Add(5*time.Second)))
	view := m.View()

	for _, want := range []string{"call the bank", "01.06.2025 09:30", "01.06.2025 09:00:05", "Europe/Moscow (UTC+3)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestEmptyView(t *testing.T) {
	m, _ := newTestModel(t)
	if !strings.Contains(m.View(), "No tasks yet.") {
		t.Errorf("unexpected view:\n%s", m.View())
	}
}

func TestToggleDoneClearsNotified(t *testing.T) {
	at := time.Date(2025, 6, 1, 6, 30, 0, 0, time.UTC)
	fired := task("1", "standup", &at)
	reminder.MarkFired(&fired, 0)
	m, store := newTestModel(t, fired)

	m = send(t, m, keyPress("x"))

	got, err := store.GetTask("1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Done || got.NotifiedForMs != nil {
		t.Errorf("task = %+v, want done with NotifiedForMs cleared", got)
	}

	send(t, m, keyPress("x"))
	if got, _ := store.GetTask("1"); got.Done {
		t.Error("second toggle should reopen the task")
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m, store := newTestModel(t, task("1", "temp", nil))

	m = send(t, m, keyPress("d"))
	if m.state != StateConfirmDelete {
		t.Fatalf("state = %v, want confirm", m.state)
	}
	if !strings.Contains(m.View(), "Are you sure") {
		t.Error("confirmation prompt not shown")
	}

	m = send(t, m, keyPress("n"))
	if _, err := store.GetTask("1"); err != nil {
		t.Fatalf("cancel must keep the task: %v", err)
	}

	send(t, m, keyPress("d"), keyPress("y"))
	if _, err := store.GetTask("1"); err == nil {
		t.Error("task should be deleted after confirmation")
	}
}

func TestToastLifecycle(t *testing.T) {
	m, _ := newTestModel(t)

	next, cmd := m.Update(ToastMsg{Title: "Task reminder", Body: "standup\n01.06.2025 09:30 (Europe/Moscow)"})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("toast should schedule its own dismissal")
	}
	if !strings.Contains(m.View(), "standup") {
		t.Errorf("toast not rendered:\n%s", m.View())
	}

	// a stale dismissal must not hide a newer toast
	m = send(t, m, ToastMsg{Title: "Task reminder", Body: "second"}, clearToastMsg{id: 1})
	if m.toast == "" {
		t.Fatal("stale dismissal cleared the newer toast")
	}
	m = send(t, m, clearToastMsg{id: 2})
	if m.toast != "" {
		t.Errorf("toast = %q, want cleared", m.toast)
	}
}

func TestRefreshReloadsStore(t *testing.T) {
	m, store := newTestModel(t)
	if err := store.AddTask(task("1", "added elsewhere", nil)); err != nil {
		t.Fatal(err)
	}

	m = send(t, m, RefreshMsg{})
	if m.taskList.Len() != 1 {
		t.Errorf("list has %d items after refresh, want 1", m.taskList.Len())
	}
}

func TestOpenAndCancelForms(t *testing.T) {
	m, _ := newTestModel(t, task("1", "standup", nil))

	m = send(t, m, keyPress("a"))
	if m.state != StateEditing || m.editingID != "" {
		t.Fatalf("add should open an empty task form, state=%v", m.state)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != StateTasks {
		t.Fatalf("esc should close the form, state=%v", m.state)
	}

	m = send(t, m, keyPress("e"))
	if m.state != StateEditing || m.editingID != "1" || m.taskForm.Text != "standup" {
		t.Fatalf("edit should prefill the selected task: %+v", m.taskForm)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	m = send(t, m, keyPress("s"))
	if m.state != StateEditSettings || m.settingsForm.Timezone != "Europe/Moscow" || m.settingsForm.NotifyBefore != "0" {
		t.Fatalf("settings form not prefilled: %+v", m.settingsForm)
	}
}

func TestSaveTaskForm(t *testing.T) {
	m, store := newTestModel(t)

	m.taskForm = &TaskFormModel{Text: "  write report ", Reminder: "2025-06-01 10:15"}
	if err := m.saveTaskForm(); err != nil {
		t.Fatalf("saveTaskForm failed: %v", err)
	}
	tasks, _ := store.GetAllTasks()
	if len(tasks) != 1 || tasks[0].Text != "write report" {
		t.Fatalf("tasks = %+v", tasks)
	}
	want := time.Date(2025, 6, 1, 7, 15, 0, 0, time.UTC).UnixMilli()
	if tasks[0].ReminderAtMs == nil || *tasks[0].ReminderAtMs != want {
		t.Errorf("reminder = %v, want %d", tasks[0].ReminderAtMs, want)
	}

	m.taskForm = &TaskFormModel{Text: "late", Reminder: "2025-06-01 08:00"}
	if err := m.saveTaskForm(); err == nil {
		t.Error("past reminder should be rejected")
	}
}

func TestEditKeepsPastReminderWhenUntouched(t *testing.T) {
	past := testNow.Add(-30 * time.Minute)
	fired := task("1", "overdue", &past)
	reminder.MarkFired(&fired, 0)
	m, store := newTestModel(t, fired)

	m = send(t, m, keyPress("e"))
	m.taskForm.Text = "overdue, renamed"
	if err := m.saveTaskForm(); err != nil {
		t.Fatalf("saveTaskForm failed: %v", err)
	}

	got, _ := store.GetTask("1")
	if got.Text != "overdue, renamed" {
		t.Errorf("text = %q", got.Text)
	}
	if got.NotifiedForMs == nil || *got.ReminderAtMs != past.UnixMilli() {
		t.Errorf("untouched reminder must keep instant and notified state: %+v", got)
	}
}

type fakeChecker struct {
	result scheduler.Result
}

func (f fakeChecker) Check(context.Context) (scheduler.Result, error) {
	return f.result, nil
}

func TestManualCheck(t *testing.T) {
	m, _ := newTestModel(t)
	m = m.WithChecker(fakeChecker{result: scheduler.Result{Sent: 2, Due: make([]notifier.Reminder, 2)}})

	next, cmd := m.Update(keyPress("c"))
	if cmd == nil {
		t.Fatal("check key should start a pass")
	}
	next, _ = next.Update(cmd())
	if got := next.(Model).status; got != "2 reminder(s) due, 2 sent" {
		t.Errorf("status = %q", got)
	}
}

func TestManualCheckWithoutDelivery(t *testing.T) {
	m, _ := newTestModel(t)

	next, cmd := m.Update(keyPress("c"))
	if cmd != nil {
		t.Error("check key must not start a pass when another process delivers")
	}
	if got := next.(Model).status; !strings.Contains(got, "another running") {
		t.Errorf("status = %q", got)
	}
}

func TestValidateLead(t *testing.T) {
	for _, ok := range []string{"0", "45", "120", " 5 "} {
		if err := validateLead(ok); err != nil {
			t.Errorf("validateLead(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "-1", "121", "ten"} {
		if err := validateLead(bad); err == nil {
			t.Errorf("validateLead(%q) should fail", bad)
		}
	}
}
