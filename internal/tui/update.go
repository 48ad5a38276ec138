package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/models"
	"github.com/amnyam666/tgdailybot/internal/reminder"
	"github.com/amnyam666/tgdailybot/internal/zone"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.taskList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case ClockMsg:
		m.clock = time.Time(msg)
		return m, nil

	case RefreshMsg:
		m.reload()
		return m, nil

	case ToastMsg:
		m.toastID++
		m.toast = msg.Title + ": " + strings.ReplaceAll(msg.Body, "\n", " · ")
		id := m.toastID
		return m, tea.Tick(toastDuration, func(time.Time) tea.Msg { return clearToastMsg{id: id} })

	case clearToastMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil

	case checkDoneMsg:
		switch {
		case msg.err != nil:
			m.status = "Reminder check failed: " + msg.err.Error()
		case msg.result.Skipped:
			m.status = "A reminder check is already running"
		case msg.result.Disabled:
			m.status = "Reminders are disabled"
		default:
			m.status = fmt.Sprintf("%d reminder(s) due, %d sent", len(msg.result.Due), msg.result.Sent)
		}
		m.reload()
		return m, nil
	}

	switch m.state {
	case StateEditing:
		return m.updateTaskForm(msg)
	case StateEditSettings:
		return m.updateSettingsForm(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}
	return m.updateTasks(msg)
}

func (m Model) updateTasks(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Add):
			m.editingID = ""
			m.taskForm = &TaskFormModel{}
			return m.openForm(NewTaskForm(m.taskForm, m.settings.Timezone, m.now), StateEditing)
		case key.Matches(msg, m.keys.Edit):
			task, ok := m.taskList.Selected()
			if !ok {
				return m, nil
			}
			m.editingID = task.ID
			m.taskForm = &TaskFormModel{Text: task.Text}
			if task.ReminderAtMs != nil {
				m.taskForm.Reminder = zone.FormatForEdit(*task.ReminderAtMs, m.settings.Timezone)
				m.taskForm.originalReminder = m.taskForm.Reminder
			}
			return m.openForm(NewTaskForm(m.taskForm, m.settings.Timezone, m.now), StateEditing)
		case key.Matches(msg, m.keys.Toggle):
			if task, ok := m.taskList.Selected(); ok {
				reminder.SetDone(&task, !task.Done)
				m.save(m.store.UpdateTask(task))
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if task, ok := m.taskList.Selected(); ok {
				m.deleteID = task.ID
				m.state = StateConfirmDelete
			}
			return m, nil
		case key.Matches(msg, m.keys.Settings):
			m.settingsForm = &SettingsFormModel{
				Timezone:             m.settings.Timezone,
				NotifyBefore:         strconv.Itoa(m.settings.NotifyBeforeMinutes),
				NotificationsEnabled: m.settings.NotificationsEnabled,
			}
			return m.openForm(NewSettingsForm(m.settingsForm, m.now()), StateEditSettings)
		case key.Matches(msg, m.keys.Check):
			if m.checker == nil {
				m.status = "Reminders are delivered by another running " + constants.AppName + " process"
				return m, nil
			}
			checker := m.checker
			m.status = "Checking reminders..."
			return m, func() tea.Msg {
				res, err := checker.Check(context.Background())
				return checkDoneMsg{result: res, err: err}
			}
		}
	}

	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

func (m Model) openForm(form *huh.Form, state SessionState) (tea.Model, tea.Cmd) {
	m.form = form
	m.formError = ""
	m.state = state
	return m, m.form.Init()
}

// updateForm feeds msg to the open form. Esc cancels.
func (m *Model) updateForm(msg tea.Msg) (huh.FormState, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		return huh.StateAborted, nil
	}
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	return m.form.State, cmd
}

func (m Model) updateTaskForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	st, cmd := m.updateForm(msg)
	switch st {
	case huh.StateCompleted:
		if err := m.saveTaskForm(); err != nil {
			m.formError = err.Error()
			m.form.State = huh.StateNormal
			return m, cmd
		}
		m.state = StateTasks
		m.reload()
	case huh.StateAborted:
		m.state = StateTasks
	}
	return m, cmd
}

func (m *Model) saveTaskForm() error {
	text, err := models.NormalizeText(m.taskForm.Text)
	if err != nil {
		return err
	}

	reminderChanged := strings.TrimSpace(m.taskForm.Reminder) != m.taskForm.originalReminder
	var at *int64
	if reminderChanged {
		if at, err = reminder.Parse(m.taskForm.Reminder, m.settings.Timezone, m.now()); err != nil {
			return err
		}
	}

	if m.editingID == "" {
		task := models.Task{
			ID:           uuid.New().String(),
			Text:         text,
			CreatedAt:    m.now().UTC(),
			ReminderAtMs: at,
		}
		if err := m.store.AddTask(task); err != nil {
			return fmt.Errorf("failed to add task: %w", err)
		}
		m.status = "Added: " + task.Text
		return nil
	}

	task, err := m.store.GetTask(m.editingID)
	if err != nil {
		return fmt.Errorf("failed to load task: %w", err)
	}
	task.Text = text
	if reminderChanged {
		reminder.SetReminder(&task, at)
	}
	if err := m.store.UpdateTask(task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	m.status = "Updated: " + task.Text
	return nil
}

func (m Model) updateSettingsForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	st, cmd := m.updateForm(msg)
	switch st {
	case huh.StateCompleted:
		next := m.settings
		next.Timezone = m.settingsForm.Timezone
		next.NotificationsEnabled = m.settingsForm.NotificationsEnabled
		if lead, err := strconv.Atoi(strings.TrimSpace(m.settingsForm.NotifyBefore)); err == nil {
			next.NotifyBeforeMinutes = lead
		}
		if err := reminder.SaveSettings(m.store, next); err != nil {
			m.formError = err.Error()
			m.form.State = huh.StateNormal
			return m, cmd
		}
		m.status = "Settings saved"
		m.state = StateTasks
		m.reload()
	case huh.StateAborted:
		m.state = StateTasks
	}
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		m.save(m.store.DeleteTask(m.deleteID))
		m.deleteID = ""
		m.state = StateTasks
	case key.Matches(keyMsg, m.keys.Cancel):
		m.deleteID = ""
		m.state = StateTasks
	}
	return m, nil
}

// save reports a store error or reloads after a successful write.
func (m *Model) save(err error) {
	if err != nil {
		m.status = "Save failed: " + err.Error()
		return
	}
	m.status = ""
	m.reload()
}
