package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/amnyam666/tgdailybot/internal/models"
	"github.com/amnyam666/tgdailybot/internal/scheduler"
	"github.com/amnyam666/tgdailybot/internal/storage"
	"github.com/amnyam666/tgdailybot/internal/tui/components/tasklist"
)

type SessionState int

const (
	StateTasks SessionState = iota
	StateEditing
	StateEditSettings
	StateConfirmDelete
)

const toastDuration = 5 * time.Second

type TaskFormModel struct {
	Text     string
	Reminder string
	// original reminder input; left untouched it keeps the stored instant
	originalReminder string
}

type SettingsFormModel struct {
	Timezone             string
	NotifyBefore         string
	NotificationsEnabled bool
}

// ClockMsg carries a clock tick from the scheduler.
type ClockMsg time.Time

// RefreshMsg asks the model to reload tasks after a reminder pass.
type RefreshMsg struct{}

// ToastMsg shows an in-app reminder banner.
type ToastMsg struct {
	Title string
	Body  string
}

type clearToastMsg struct {
	id int
}

type checkDoneMsg struct {
	result scheduler.Result
	err    error
}

// Checker runs one reminder pass on demand.
type Checker interface {
	Check(ctx context.Context) (scheduler.Result, error)
}

type Model struct {
	store   storage.Provider
	checker Checker
	now     func() time.Time

	state        SessionState
	keys         KeyMap
	help         help.Model
	taskList     tasklist.Model
	form         *huh.Form
	taskForm     *TaskFormModel
	settingsForm *SettingsFormModel
	editingID    string
	deleteID     string

	settings  models.Settings
	clock     time.Time
	toast     string
	toastID   int
	status    string
	formError string
	quitting  bool
	width     int
	height    int
}

func NewModel(store storage.Provider, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	m := Model{
		store:    store,
		now:      now,
		state:    StateTasks,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		taskList: tasklist.New(0, 0),
		clock:    now(),
	}
	m.reload()
	return m
}

// WithChecker enables the manual check key.
func (m Model) WithChecker(c Checker) Model {
	m.checker = c
	return m
}

// reload refreshes settings and the task list from the store.
func (m *Model) reload() {
	settings, err := m.store.GetSettings()
	if err != nil {
		m.status = "Failed to load settings: " + err.Error()
		settings = models.DefaultSettings()
	}
	m.settings = settings

	tasks, err := m.store.GetAllTasks()
	if err != nil {
		m.status = "Failed to load tasks: " + err.Error()
		tasks = nil
	}
	m.taskList.SetTasks(tasks, settings.Timezone, settings.NotifyBeforeMinutes)
}

func (m Model) ShortHelp() []key.Binding {
	return m.keys.ShortHelp()
}

func (m Model) FullHelp() [][]key.Binding {
	return m.keys.FullHelp()
}

func (m Model) Init() tea.Cmd {
	return nil
}
