package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/amnyam666/tgdailybot/internal/models"
	"github.com/amnyam666/tgdailybot/internal/notifier"
	"github.com/amnyam666/tgdailybot/internal/reminder"
	"github.com/amnyam666/tgdailybot/internal/storage"
	"github.com/amnyam666/tgdailybot/internal/storage/storagetest"
)

type memStore struct {
	mu        sync.Mutex
	settings  models.Settings
	tasks     []models.Task
	saves     int
	saveErr   error
	listCalls int
}

func (m *memStore) GetSettings() (models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *memStore) GetAllTasks() ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	out := make([]models.Task, len(m.tasks))
	copy(out, m.tasks)
	return out, nil
}

func (m *memStore) MarkNotified(marks []models.NotifiedMark) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.saves++
	applied := 0
	for _, mark := range marks {
		for i := range m.tasks {
			if m.tasks[i].ID == mark.TaskID && mark.Applies(m.tasks[i]) {
				trigger := mark.TriggerMs
				m.tasks[i].NotifiedForMs = &trigger
				applied++
			}
		}
	}
	return applied, nil
}

func (m *memStore) task(id string) models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			return t
		}
	}
	return models.Task{}
}

// sinkFunc lets a test act on the store while a reminder is being sent.
type sinkFunc func(ctx context.Context, r notifier.Reminder) bool

func (f sinkFunc) Send(ctx context.Context, r notifier.Reminder) bool { return f(ctx, r) }

type fakeSink struct {
	mu      sync.Mutex
	ok      bool
	sent    []notifier.Reminder
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeSink) Send(_ context.Context, r notifier.Reminder) bool {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, r)
	return f.ok
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func ms(t time.Time) *int64 {
	v := t.UnixMilli()
	return &v
}

var reminderAt = time.Date(2025, 6, 1, 6, 30, 0, 0, time.UTC)

func newFixture(lead int) (*memStore, *fakeSink) {
	store := &memStore{
		settings: models.Settings{Timezone: "Europe/Moscow", NotifyBeforeMinutes: lead, NotificationsEnabled: true},
		tasks: []models.Task{
			{ID: "call", Text: "call mom", ReminderAtMs: ms(reminderAt)},
		},
	}
	return store, &fakeSink{ok: true}
}

func at(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestCheckFiresOnceAtTrigger(t *testing.T) {
	store, sink := newFixture(10)
	refreshes := 0

	check := func(now time.Time) Result {
		s := New(store, sink, Options{Now: at(now), OnRefresh: func() { refreshes++ }})
		res, err := s.Check(context.Background())
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		return res
	}

	if res := check(time.Date(2025, 6, 1, 6, 19, 59, 0, time.UTC)); len(res.Due) != 0 {
		t.Fatalf("fired before trigger: %+v", res)
	}

	res := check(time.Date(2025, 6, 1, 6, 20, 0, 0, time.UTC))
	if res.Sent != 1 || sink.count() != 1 {
		t.Fatalf("expected one reminder at trigger, got %+v", res)
	}
	got := store.task("call")
	if got.NotifiedForMs == nil || *got.NotifiedForMs != reminderAt.Add(-10*time.Minute).UnixMilli() {
		t.Errorf("NotifiedForMs = %v, want trigger instant", got.NotifiedForMs)
	}
	if sink.sent[0].When != "01.06.2025 09:30" || sink.sent[0].Zone != "Europe/Moscow" {
		t.Errorf("reminder rendered as %q (%q)", sink.sent[0].When, sink.sent[0].Zone)
	}

	if res := check(time.Date(2025, 6, 1, 6, 25, 0, 0, time.UTC)); len(res.Due) != 0 {
		t.Errorf("re-fired after notification: %+v", res)
	}
	if sink.count() != 1 || store.saves != 1 || refreshes != 1 {
		t.Errorf("sent=%d saves=%d refreshes=%d, want 1 each", sink.count(), store.saves, refreshes)
	}
}

func TestCheckDisabledIsNoop(t *testing.T) {
	store, sink := newFixture(0)
	store.settings.NotificationsEnabled = false

	s := New(store, sink, Options{Now: at(reminderAt.Add(time.Hour))})
	res, err := s.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !res.Disabled {
		t.Error("expected Disabled result")
	}
	if store.listCalls != 0 || sink.count() != 0 {
		t.Errorf("disabled pass evaluated tasks: list=%d sent=%d", store.listCalls, sink.count())
	}
}

func TestCheckRetriesUndelivered(t *testing.T) {
	store, sink := newFixture(0)
	sink.ok = false
	s := New(store, sink, Options{Now: at(reminderAt)})

	res, err := s.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if res.Failed != 1 || store.saves != 0 {
		t.Fatalf("failed delivery should not persist: %+v saves=%d", res, store.saves)
	}
	if store.task("call").NotifiedForMs != nil {
		t.Fatal("undelivered reminder marked as notified")
	}

	sink.ok = true
	if res, _ := s.Check(context.Background()); res.Sent != 1 {
		t.Errorf("retry did not deliver: %+v", res)
	}
}

func TestCheckPersistsBatchOnce(t *testing.T) {
	store, sink := newFixture(0)
	store.tasks = append(store.tasks,
		models.Task{ID: "rent", Text: "pay rent", ReminderAtMs: ms(reminderAt.Add(-time.Hour))},
		models.Task{ID: "later", Text: "later", ReminderAtMs: ms(reminderAt.Add(time.Hour))},
		models.Task{ID: "done", Text: "done", Done: true, ReminderAtMs: ms(reminderAt)},
	)

	refreshes := 0
	s := New(store, sink, Options{Now: at(reminderAt), OnRefresh: func() { refreshes++ }})
	res, err := s.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if res.Sent != 2 {
		t.Errorf("Sent = %d, want 2", res.Sent)
	}
	if store.saves != 1 || refreshes != 1 {
		t.Errorf("saves=%d refreshes=%d, want one each", store.saves, refreshes)
	}
	if store.task("later").NotifiedForMs != nil || store.task("done").NotifiedForMs != nil {
		t.Error("tasks that should not fire were marked")
	}
}

func TestCheckPersistFailure(t *testing.T) {
	store, sink := newFixture(0)
	store.saveErr = errors.New("disk full")
	refreshed := false

	s := New(store, sink, Options{Now: at(reminderAt), OnRefresh: func() { refreshed = true }})
	if _, err := s.Check(context.Background()); err == nil {
		t.Fatal("expected persistence error")
	}
	if refreshed {
		t.Error("refresh ran after failed persistence")
	}
}

func TestCheckDryRun(t *testing.T) {
	store, sink := newFixture(0)
	s := New(store, sink, Options{Now: at(reminderAt), DryRun: true})

	res, err := s.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(res.Due) != 1 || sink.count() != 0 || store.saves != 0 {
		t.Errorf("dry run: due=%d sent=%d saves=%d", len(res.Due), sink.count(), store.saves)
	}
}

func TestCheckIsNotReentrant(t *testing.T) {
	store, sink := newFixture(0)
	sink.block = make(chan struct{})
	sink.entered = make(chan struct{}, 1)
	s := New(store, sink, Options{Now: at(reminderAt)})

	firstDone := make(chan Result)
	go func() {
		res, _ := s.Check(context.Background())
		firstDone <- res
	}()

	<-sink.entered
	if s.State() != Checking {
		t.Errorf("State() = %v during pass, want checking", s.State())
	}
	res, err := s.Check(context.Background())
	if err != nil || !res.Skipped {
		t.Errorf("concurrent Check() = %+v, %v; want skipped", res, err)
	}

	close(sink.block)
	if first := <-firstDone; first.Sent != 1 {
		t.Errorf("first pass Sent = %d, want 1", first.Sent)
	}
	if s.State() != Idle {
		t.Errorf("State() = %v after pass, want idle", s.State())
	}
}

func TestNewEnforcesMinimumCheckInterval(t *testing.T) {
	s := New(&memStore{}, &fakeSink{}, Options{CheckInterval: time.Second})
	if s.opts.CheckInterval != 5*time.Second {
		t.Errorf("CheckInterval = %v, want 5s", s.opts.CheckInterval)
	}
}

func TestStartStop(t *testing.T) {
	store, sink := newFixture(0)
	sink.entered = make(chan struct{}, 1)

	ticks := make(chan time.Time, 8)
	s := New(store, sink, Options{
		Now:           at(reminderAt),
		ClockInterval: 10 * time.Millisecond,
		OnClock: func(t time.Time) {
			select {
			case ticks <- t:
			default:
			}
		},
	})

	s.Start(context.Background())
	s.Start(context.Background())

	select {
	case <-sink.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("startup check did not run")
	}
	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("clock callback did not run")
	}

	s.Stop()
	s.Stop()
	if sink.count() != 1 {
		t.Errorf("sent = %d, want 1", sink.count())
	}
}

func openJSONStore(t *testing.T, path string, init bool) *storage.JSONStore {
	t.Helper()
	store := storage.NewJSONStore(path)
	var err error
	if init {
		err = store.Init()
	} else {
		err = store.Load()
	}
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	return store
}

func addDue(t *testing.T, store storage.Provider, text string) models.Task {
	t.Helper()
	task := storagetest.NewTask(text, reminderAt.Add(-time.Hour))
	task.ReminderAtMs = ms(reminderAt)
	if err := store.AddTask(task); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	return task
}

func TestCheckKeepsEditMadeDuringSend(t *testing.T) {
	store := storage.NewLocked(openJSONStore(t, filepath.Join(t.TempDir(), "tasks.json"), true))
	task := addDue(t, store, "original")
	later := reminderAt.Add(time.Hour)

	sink := sinkFunc(func(_ context.Context, r notifier.Reminder) bool {
		edited, err := store.GetTask(r.Task.ID)
		if err != nil {
			t.Errorf("GetTask() error = %v", err)
			return true
		}
		edited.Text = "edited"
		reminder.SetReminder(&edited, ms(later))
		if err := store.UpdateTask(edited); err != nil {
			t.Errorf("UpdateTask() error = %v", err)
		}
		return true
	})

	res, err := New(store, sink, Options{Now: at(reminderAt)}).Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if res.Sent != 1 || res.Stale != 1 {
		t.Errorf("Sent=%d Stale=%d, want 1 and 1", res.Sent, res.Stale)
	}

	got, _ := store.GetTask(task.ID)
	if got.Text != "edited" || *got.ReminderAtMs != later.UnixMilli() {
		t.Errorf("edit made during the pass was reverted: %+v", got)
	}
	if got.NotifiedForMs != nil {
		t.Error("rescheduled task inherited the old notified mark")
	}
}

func TestCheckTaskCompletedDuringSendStaysDone(t *testing.T) {
	store := storage.NewLocked(openJSONStore(t, filepath.Join(t.TempDir(), "tasks.json"), true))
	task := addDue(t, store, "finish report")

	sends := 0
	sink := sinkFunc(func(_ context.Context, r notifier.Reminder) bool {
		sends++
		done, _ := store.GetTask(r.Task.ID)
		reminder.SetDone(&done, true)
		if err := store.UpdateTask(done); err != nil {
			t.Errorf("UpdateTask() error = %v", err)
		}
		return true
	})

	s := New(store, sink, Options{Now: at(reminderAt)})
	if _, err := s.Check(context.Background()); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	got, _ := store.GetTask(task.ID)
	if !got.Done {
		t.Fatal("task completed during the pass was reopened")
	}

	if _, err := s.Check(context.Background()); err != nil {
		t.Fatalf("second Check() error = %v", err)
	}
	if sends != 1 {
		t.Errorf("sends = %d, a completed task must not fire again", sends)
	}
}

func TestCheckDeletionDuringSendKeepsOtherMarks(t *testing.T) {
	store := storage.NewLocked(openJSONStore(t, filepath.Join(t.TempDir(), "tasks.json"), true))
	first := addDue(t, store, "first")
	second := addDue(t, store, "second")

	sent := map[string]int{}
	sink := sinkFunc(func(_ context.Context, r notifier.Reminder) bool {
		sent[r.Task.ID]++
		if len(sent) == 1 {
			other := second.ID
			if r.Task.ID == second.ID {
				other = first.ID
			}
			if err := store.DeleteTask(other); err != nil {
				t.Errorf("DeleteTask() error = %v", err)
			}
		}
		return true
	})

	s := New(store, sink, Options{Now: at(reminderAt)})
	res, err := s.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() with a task deleted mid-pass error = %v", err)
	}
	if res.Stale != 1 {
		t.Errorf("Stale = %d, want 1", res.Stale)
	}

	if _, err := s.Check(context.Background()); err != nil {
		t.Fatalf("second Check() error = %v", err)
	}
	for id, n := range sent {
		if n != 1 {
			t.Errorf("task %s sent %d times, want once", id, n)
		}
	}
	remaining, _ := store.GetAllTasks()
	if len(remaining) != 1 || remaining[0].NotifiedForMs == nil {
		t.Errorf("surviving task not marked: %+v", remaining)
	}
}

func TestCheckSharesStoreWithAnotherProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	daemon := openJSONStore(t, path, true)
	addDue(t, daemon, "known at start")
	s := New(daemon, &fakeSink{ok: true}, Options{Now: at(reminderAt)})
	if res, err := s.Check(context.Background()); err != nil || res.Sent != 1 {
		t.Fatalf("first Check() = %+v, %v", res, err)
	}

	cli := openJSONStore(t, path, false)
	added := addDue(t, cli, "added by the cli")
	undated := storagetest.NewTask("no reminder", reminderAt)
	if err := cli.AddTask(undated); err != nil {
		t.Fatal(err)
	}

	res, err := s.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if res.Sent != 1 || res.Due[0].Task.ID != added.ID {
		t.Errorf("daemon did not pick up the new task: %+v", res)
	}

	reread := openJSONStore(t, path, false)
	all, _ := reread.GetAllTasks()
	if len(all) != 3 {
		t.Fatalf("store holds %d tasks after the pass, want 3", len(all))
	}
	if _, err := reread.GetTask(undated.ID); err != nil {
		t.Errorf("task written by the cli was lost: %v", err)
	}

	settings := models.DefaultSettings()
	settings.NotificationsEnabled = false
	if err := cli.SaveSettings(settings); err != nil {
		t.Fatal(err)
	}
	if res, _ := s.Check(context.Background()); !res.Disabled {
		t.Error("daemon ignored notifications being switched off")
	}
}

func TestRunClockOnlyNeverChecks(t *testing.T) {
	store, sink := newFixture(0)
	ticks := make(chan struct{}, 8)
	s := New(store, sink, Options{
		Now:           at(reminderAt),
		ClockInterval: 5 * time.Millisecond,
		ClockOnly:     true,
		OnClock: func(time.Time) {
			select {
			case ticks <- struct{}{}:
			default:
			}
		},
	})

	s.Start(context.Background())
	for i := 0; i < 3; i++ {
		select {
		case <-ticks:
		case <-time.After(2 * time.Second):
			t.Fatal("clock callback did not run")
		}
	}
	s.Stop()

	if sink.count() != 0 || store.listCalls != 0 {
		t.Errorf("clock-only loop checked reminders: sent=%d list=%d", sink.count(), store.listCalls)
	}
}
